package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"duel-arena/internal/auth"
	"duel-arena/internal/model"
)

func TestArgInt(t *testing.T) {
	fallback := int64(25)

	v, err := argInt([]string{"12"}, 0, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(12), v)

	v, err = argInt([]string{"#7"}, 0, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(7), v)

	v, err = argInt(nil, 0, &fallback)
	require.NoError(t, err)
	assert.Equal(t, int64(25), v)

	_, err = argInt(nil, 0, nil)
	assert.Error(t, err)

	_, err = argInt([]string{"ten"}, 0, &fallback)
	assert.Error(t, err)
}

func TestArgKind(t *testing.T) {
	tests := []struct {
		arg  string
		want model.EquipmentKind
		ok   bool
	}{
		{"weapon", model.KindWeapon, true},
		{"Artifact", model.KindArtifact, true},
		{"武器", model.KindWeapon, true},
		{"神器", model.KindArtifact, true},
		{"shield", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			kind, ok := argKind([]string{tt.arg}, 0)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, kind)
		})
	}

	_, ok := argKind(nil, 0)
	assert.False(t, ok)
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, "12.34%", formatBps(1234))
	assert.Equal(t, "0.05%", formatBps(5))

	assert.Equal(t, "攻击+12 幸运+3", bonusSummary(model.Stats{Attack: 12, Luck: 3}))
	assert.Equal(t, "无", bonusSummary(model.Stats{}))

	assert.Equal(t, "决斗奖金", txLabel(model.TxTypeDuelPrize))
	assert.Equal(t, "custom", txLabel("custom"))

	assert.Equal(t, "@alice", displayName(auth.Verified(1, "alice")))
	assert.Equal(t, "42", displayName(auth.Verified(42, "")))

	assert.Equal(t, "unknown", classLabel(model.Class(99)))
	assert.Equal(t, "🔴神话", rarityLabel(model.RarityMythic))
}

func TestEquipmentLine(t *testing.T) {
	holder := int64(3)
	eq := &model.Equipment{
		ID:         5,
		Kind:       model.KindArtifact,
		Rarity:     model.RarityRare,
		Bonus:      model.Stats{Magic: 20},
		Effect:     &model.SpecialEffect{Kind: model.EffectBurn, Power: 4, Charges: 2, MaxCharges: 5},
		EquippedTo: &holder,
	}

	line := equipmentLine(eq)
	assert.Contains(t, line, "🔮 神器 #5")
	assert.Contains(t, line, "魔力+20")
	assert.Contains(t, line, "(2/5)")
	assert.Contains(t, line, "→ 角色 #3")
}
