package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, DriverPostgres, cfg.Store.Driver)
	assert.Equal(t, int64(100), cfg.Economy.MintPrice)
	assert.Equal(t, int64(25), cfg.Economy.HealPrice)
	assert.Equal(t, int64(10), cfg.Economy.DuelFee)
	assert.Equal(t, int64(1000), cfg.Economy.StartingBalance)
	assert.Equal(t, 30, cfg.Combat.MaxRounds)
	assert.Equal(t, int64(1000), cfg.Combat.StatCeiling)
	assert.Equal(t, int64(3000), cfg.Combat.CritCapBps)
	assert.Equal(t, "postgres://arena:@localhost:5432/arena?sslmode=disable", cfg.Database.DSN())
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	yaml := []byte(`
store:
  driver: memory
economy:
  duel_fee: 40
combat:
  max_rounds: 12
admin:
  ids: [7, 8]
whitelist:
  chats: [-100]
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), yaml, 0o600))
	t.Setenv("ECONOMY_DUEL_FEE", "55")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, DriverMemory, cfg.Store.Driver)
	assert.Equal(t, int64(55), cfg.Economy.DuelFee)
	assert.Equal(t, 12, cfg.Combat.MaxRounds)

	assert.True(t, cfg.IsAdmin(8))
	assert.False(t, cfg.IsAdmin(9))
	assert.True(t, cfg.IsChatAllowed(-100))
	assert.False(t, cfg.IsChatAllowed(-200))
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Store:  StoreConfig{Driver: DriverMemory},
			Combat: CombatConfig{MaxRounds: 1, StatCeiling: 1, MinDamage: 1, CritMultiplierPct: 150, CritCapBps: 3000, DodgeCapBps: 3000},
		}
	}
	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"unknown driver", func(c *Config) { c.Store.Driver = "sqlite" }},
		{"no rounds", func(c *Config) { c.Combat.MaxRounds = 0 }},
		{"no ceiling", func(c *Config) { c.Combat.StatCeiling = 0 }},
		{"no min damage", func(c *Config) { c.Combat.MinDamage = 0 }},
		{"crit weakens", func(c *Config) { c.Combat.CritMultiplierPct = 99 }},
		{"crit multiplier too large", func(c *Config) { c.Combat.CritMultiplierPct = 1001 }},
		{"crit cap above scale", func(c *Config) { c.Combat.CritCapBps = 10001 }},
		{"negative price", func(c *Config) { c.Economy.HealPrice = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestIsChatAllowed_EmptyWhitelist(t *testing.T) {
	assert.True(t, (&Config{}).IsChatAllowed(123))
}
