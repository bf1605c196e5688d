// Package config provides configuration management using viper.
// It supports loading from YAML files and environment variable overrides.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Store drivers.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config holds all application configuration.
type Config struct {
	Bot        BotConfig        `mapstructure:"bot"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Store      StoreConfig      `mapstructure:"store"`
	Admin      AdminConfig      `mapstructure:"admin"`
	Whitelist  WhitelistConfig  `mapstructure:"whitelist"`
	Economy    EconomyConfig    `mapstructure:"economy"`
	Combat     CombatConfig     `mapstructure:"combat"`
	Randomness RandomnessConfig `mapstructure:"randomness"`
	Log        LogConfig        `mapstructure:"log"`
}

// BotConfig holds Telegram bot configuration.
type BotConfig struct {
	Token string `mapstructure:"token"`
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	PoolSize        int           `mapstructure:"pool_size"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
}

// StoreConfig selects the ledger backend.
type StoreConfig struct {
	Driver string `mapstructure:"driver"`
}

// AdminConfig holds admin user configuration.
type AdminConfig struct {
	IDs []int64 `mapstructure:"ids"`
}

// WhitelistConfig holds chat whitelist configuration.
type WhitelistConfig struct {
	Chats []int64 `mapstructure:"chats"`
}

// EconomyConfig holds the prices of every paid operation.
type EconomyConfig struct {
	MintPrice       int64 `mapstructure:"mint_price"`
	HealPrice       int64 `mapstructure:"heal_price"`
	DuelFee         int64 `mapstructure:"duel_fee"`
	ForgePrice      int64 `mapstructure:"forge_price"`
	StartingBalance int64 `mapstructure:"starting_balance"`
}

// CombatConfig holds the duel resolution constants.
type CombatConfig struct {
	MaxRounds         int   `mapstructure:"max_rounds"`
	StatCeiling       int64 `mapstructure:"stat_ceiling"`
	MinDamage         int64 `mapstructure:"min_damage"`
	CritMultiplierPct int64 `mapstructure:"crit_multiplier_pct"`
	CritCapBps        int64 `mapstructure:"crit_cap_bps"`
	DodgeCapBps       int64 `mapstructure:"dodge_cap_bps"`
	CritHalfPoint     int64 `mapstructure:"crit_half_point"`
	DodgeHalfPoint    int64 `mapstructure:"dodge_half_point"`
}

// RandomnessConfig holds the server-held secrets.
// Duel outcomes are unpredictable only as long as Secret stays private.
type RandomnessConfig struct {
	Secret          string `mapstructure:"secret"`
	EngineAuthority string `mapstructure:"engine_authority"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// DSN returns the PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name,
	)
}

// Load reads configuration from file and environment variables.
// It looks for config.yaml in the config directory.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// e.g., BOT_TOKEN, ECONOMY_DUEL_FEE, RANDOMNESS_SECRET
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is OK - we can use env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "arena")
	v.SetDefault("database.name", "arena")
	v.SetDefault("database.pool_size", 20)
	v.SetDefault("database.connect_timeout", "10s")
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.max_conn_idle_time", "30m")

	v.SetDefault("store.driver", DriverPostgres)

	// Economy defaults
	v.SetDefault("economy.mint_price", 100)
	v.SetDefault("economy.heal_price", 25)
	v.SetDefault("economy.duel_fee", 10)
	v.SetDefault("economy.forge_price", 50)
	v.SetDefault("economy.starting_balance", 1000)

	// Combat defaults
	v.SetDefault("combat.max_rounds", 30)
	v.SetDefault("combat.stat_ceiling", 1000)
	v.SetDefault("combat.min_damage", 1)
	v.SetDefault("combat.crit_multiplier_pct", 150)
	v.SetDefault("combat.crit_cap_bps", 3000)
	v.SetDefault("combat.dodge_cap_bps", 3000)
	v.SetDefault("combat.crit_half_point", 200)
	v.SetDefault("combat.dodge_half_point", 300)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", true)
}

// Validate rejects configurations the engine cannot run with.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverPostgres, DriverMemory:
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	if c.Combat.MaxRounds <= 0 {
		return fmt.Errorf("combat.max_rounds must be positive, got %d", c.Combat.MaxRounds)
	}
	if c.Combat.StatCeiling <= 0 {
		return fmt.Errorf("combat.stat_ceiling must be positive, got %d", c.Combat.StatCeiling)
	}
	if c.Combat.MinDamage <= 0 {
		return fmt.Errorf("combat.min_damage must be positive, got %d", c.Combat.MinDamage)
	}
	if c.Combat.CritMultiplierPct < 100 || c.Combat.CritMultiplierPct > 1000 {
		return fmt.Errorf("combat.crit_multiplier_pct must be within [100, 1000], got %d", c.Combat.CritMultiplierPct)
	}
	if c.Combat.CritCapBps < 0 || c.Combat.CritCapBps > 10000 ||
		c.Combat.DodgeCapBps < 0 || c.Combat.DodgeCapBps > 10000 {
		return fmt.Errorf("crit/dodge caps must be within [0, 10000] bps")
	}
	if c.Economy.MintPrice < 0 || c.Economy.HealPrice < 0 || c.Economy.DuelFee < 0 || c.Economy.ForgePrice < 0 {
		return fmt.Errorf("economy prices must not be negative")
	}
	return nil
}

// IsAdmin checks if a user ID is in the admin list.
func (c *Config) IsAdmin(userID int64) bool {
	for _, id := range c.Admin.IDs {
		if id == userID {
			return true
		}
	}
	return false
}

// IsChatAllowed checks if a chat ID is in the whitelist.
func (c *Config) IsChatAllowed(chatID int64) bool {
	// Empty whitelist means all chats are allowed
	if len(c.Whitelist.Chats) == 0 {
		return true
	}
	for _, id := range c.Whitelist.Chats {
		if id == chatID {
			return true
		}
	}
	return false
}
