package handler

import (
	"fmt"
	"strings"

	tele "gopkg.in/telebot.v3"

	"duel-arena/internal/config"
	"duel-arena/internal/model"
	"duel-arena/internal/service"
)

var (
	classLabels  = [model.ClassCount]string{"🪓 战士", "🧙 法师", "🗡️ 盗贼", "🛡️ 守护者", "🏹 游侠"}
	rarityLabels = [model.RarityCount]string{"⚪普通", "🟢优秀", "🔵稀有", "🟣史诗", "🟠传说", "🔴神话"}
)

func classLabel(c model.Class) string {
	if c < 0 || int(c) >= model.ClassCount {
		return c.String()
	}
	return classLabels[c]
}

func rarityLabel(r model.Rarity) string {
	if r < 0 || int(r) >= model.RarityCount {
		return r.String()
	}
	return rarityLabels[r]
}

// CharacterHandler handles character commands.
type CharacterHandler struct {
	characters *service.CharacterService
	economy    config.EconomyConfig
}

// NewCharacterHandler creates a new CharacterHandler.
func NewCharacterHandler(characters *service.CharacterService, economy config.EconomyConfig) *CharacterHandler {
	return &CharacterHandler{characters: characters, economy: economy}
}

// HandleMint handles the /mint command.
// Format: /mint [payment], payment defaults to the mint price.
func (h *CharacterHandler) HandleMint(c tele.Context) error {
	payment, err := argInt(c.Args(), 0, &h.economy.MintPrice)
	if err != nil {
		return c.Reply(fmt.Sprintf("❌ 用法: /mint [支付金额]，价格 %d 金币", h.economy.MintPrice))
	}

	ch, err := h.characters.Mint(requestContext(c), CallerFrom(c), payment)
	if err != nil {
		return replyError(c, err)
	}
	return c.Reply("✨ 召唤成功！\n\n" + formatCharacter(ch))
}

// HandleHeal handles the /heal command.
// Format: /heal <character_id> [payment]
func (h *CharacterHandler) HandleHeal(c tele.Context) error {
	args := c.Args()
	id, err := argInt(args, 0, nil)
	if err != nil {
		return c.Reply("❌ 用法: /heal <角色ID> [支付金额]")
	}
	payment, err := argInt(args, 1, &h.economy.HealPrice)
	if err != nil {
		return c.Reply("❌ 无效的金额")
	}

	if err := h.characters.Heal(requestContext(c), CallerFrom(c), id, payment); err != nil {
		return replyError(c, err)
	}
	return c.Reply(fmt.Sprintf("💚 角色 #%d 已恢复，可以再次决斗", id))
}

// HandleFighters handles the /fighters command.
func (h *CharacterHandler) HandleFighters(c tele.Context) error {
	caller := CallerFrom(c)
	list, err := h.characters.ListByOwner(requestContext(c), caller.PlayerID)
	if err != nil {
		return replyError(c, err)
	}
	if len(list) == 0 {
		return c.Reply(fmt.Sprintf("🫥 你还没有角色，使用 /mint 召唤一个（%d 金币）", h.economy.MintPrice))
	}

	var sb strings.Builder
	sb.WriteString("🎴 我的角色\n━━━━━━━━━━━━━━━\n")
	for _, ch := range list {
		status := ""
		if ch.KnockedOut {
			status = " 💤倒地"
		}
		sb.WriteString(fmt.Sprintf("#%d %s %s Lv.%d  %d胜 %d负%s\n",
			ch.ID, rarityLabel(ch.Rarity), classLabel(ch.Class), ch.Level, ch.Wins, ch.Losses, status))
	}
	return c.Reply(sb.String())
}

// HandleStats handles the /stats command.
// Format: /stats <character_id>
func (h *CharacterHandler) HandleStats(c tele.Context) error {
	id, err := argInt(c.Args(), 0, nil)
	if err != nil {
		return c.Reply("❌ 用法: /stats <角色ID>")
	}

	ctx := requestContext(c)
	ch, err := h.characters.GetStats(ctx, id)
	if err != nil {
		return replyError(c, err)
	}
	eff, err := h.characters.EffectiveStats(ctx, id)
	if err != nil {
		return replyError(c, err)
	}

	msg := formatCharacter(ch)
	msg += "━━━━━━━━━━━━━━━\n"
	msg += "⚔️ 实战属性\n"
	msg += formatStats(eff.Stats)
	msg += fmt.Sprintf("💥 暴击率: %s  💨 闪避率: %s\n", formatBps(eff.CritBps), formatBps(eff.DodgeBps))
	if eff.Effect != nil {
		msg += fmt.Sprintf("🔮 特效: %s %d (%d/%d 次)\n",
			effectLabel(eff.Effect.Kind), eff.Effect.Power, eff.Effect.Charges, eff.Effect.MaxCharges)
	}
	return c.Reply(msg)
}

func formatCharacter(ch *model.Character) string {
	msg := fmt.Sprintf("#%d %s %s\n", ch.ID, rarityLabel(ch.Rarity), classLabel(ch.Class))
	msg += "━━━━━━━━━━━━━━━\n"
	msg += fmt.Sprintf("👤 主人: %d\n", ch.Owner)
	msg += fmt.Sprintf("📈 等级: %d (经验 %d)\n", ch.Level, ch.Experience)
	msg += fmt.Sprintf("🏅 战绩: %d胜 %d负\n", ch.Wins, ch.Losses)
	if ch.KnockedOut {
		msg += "💤 状态: 倒地\n"
	}
	if ch.EquippedWeaponID != nil {
		msg += fmt.Sprintf("⚔️ 武器: #%d\n", *ch.EquippedWeaponID)
	}
	if ch.EquippedArtifactID != nil {
		msg += fmt.Sprintf("🔮 神器: #%d\n", *ch.EquippedArtifactID)
	}
	msg += "━━━━━━━━━━━━━━━\n"
	msg += "📊 基础属性\n"
	msg += formatStats(ch.BaseStats)
	return msg
}

func formatStats(s model.Stats) string {
	return fmt.Sprintf(
		"❤️ 生命 %d  🗡️ 攻击 %d  🛡️ 防御 %d\n"+
			"💨 速度 %d  ✨ 魔力 %d  🍀 幸运 %d\n",
		s.Health, s.Attack, s.Defense, s.Speed, s.Magic, s.Luck,
	)
}

func formatBps(bps int64) string {
	return fmt.Sprintf("%d.%02d%%", bps/100, bps%100)
}

func effectLabel(k model.EffectKind) string {
	switch k {
	case model.EffectBurn:
		return "🔥 灼烧"
	case model.EffectWard:
		return "🧿 护盾"
	case model.EffectRegen:
		return "💚 再生"
	}
	return string(k)
}
