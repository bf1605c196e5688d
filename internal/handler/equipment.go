package handler

import (
	"fmt"
	"strings"

	tele "gopkg.in/telebot.v3"

	"duel-arena/internal/config"
	"duel-arena/internal/model"
	"duel-arena/internal/service"
)

// EquipmentHandler handles forge and equip commands.
type EquipmentHandler struct {
	equipment *service.EquipmentService
	economy   config.EconomyConfig
}

// NewEquipmentHandler creates a new EquipmentHandler.
func NewEquipmentHandler(equipment *service.EquipmentService, economy config.EconomyConfig) *EquipmentHandler {
	return &EquipmentHandler{equipment: equipment, economy: economy}
}

// HandleForge handles the /forge command.
// Format: /forge <weapon|artifact> [payment]
func (h *EquipmentHandler) HandleForge(c tele.Context) error {
	args := c.Args()
	kind, ok := argKind(args, 0)
	if !ok {
		return c.Reply(fmt.Sprintf("❌ 用法: /forge <weapon|artifact> [支付金额]，价格 %d 金币", h.economy.ForgePrice))
	}
	payment, err := argInt(args, 1, &h.economy.ForgePrice)
	if err != nil {
		return c.Reply("❌ 无效的金额")
	}

	eq, err := h.equipment.Forge(requestContext(c), CallerFrom(c), kind, payment)
	if err != nil {
		return replyError(c, err)
	}
	return c.Reply("🔨 锻造成功！\n\n" + formatEquipment(eq))
}

// HandleEquip handles the /equip command.
// Format: /equip <character_id> <weapon|artifact> <equipment_id>
func (h *EquipmentHandler) HandleEquip(c tele.Context) error {
	args := c.Args()
	charID, err := argInt(args, 0, nil)
	kind, ok := argKind(args, 1)
	if err != nil || !ok {
		return c.Reply("❌ 用法: /equip <角色ID> <weapon|artifact> <装备ID>")
	}
	eqID, err := argInt(args, 2, nil)
	if err != nil {
		return c.Reply("❌ 用法: /equip <角色ID> <weapon|artifact> <装备ID>")
	}

	if err := h.equipment.Equip(requestContext(c), CallerFrom(c), charID, kind, eqID); err != nil {
		return replyError(c, err)
	}
	return c.Reply(fmt.Sprintf("✅ %s #%d 已装备到角色 #%d", kindLabel(kind), eqID, charID))
}

// HandleUnequip handles the /unequip command.
// Format: /unequip <character_id> <weapon|artifact>
func (h *EquipmentHandler) HandleUnequip(c tele.Context) error {
	args := c.Args()
	charID, err := argInt(args, 0, nil)
	kind, ok := argKind(args, 1)
	if err != nil || !ok {
		return c.Reply("❌ 用法: /unequip <角色ID> <weapon|artifact>")
	}

	if err := h.equipment.Unequip(requestContext(c), CallerFrom(c), charID, kind); err != nil {
		return replyError(c, err)
	}
	return c.Reply(fmt.Sprintf("✅ 角色 #%d 已卸下%s", charID, kindLabel(kind)))
}

// HandleGear handles the /gear command: lists the caller's weapons and artifacts.
func (h *EquipmentHandler) HandleGear(c tele.Context) error {
	ctx := requestContext(c)
	owner := CallerFrom(c).PlayerID

	var sb strings.Builder
	sb.WriteString("🎒 我的装备\n━━━━━━━━━━━━━━━\n")
	empty := true
	for _, kind := range []model.EquipmentKind{model.KindWeapon, model.KindArtifact} {
		list, err := h.equipment.ListByOwner(ctx, kind, owner)
		if err != nil {
			return replyError(c, err)
		}
		for _, eq := range list {
			empty = false
			sb.WriteString(equipmentLine(eq))
		}
	}
	if empty {
		return c.Reply(fmt.Sprintf("🎒 还没有装备，使用 /forge weapon 锻造一件（%d 金币）", h.economy.ForgePrice))
	}
	return c.Reply(sb.String())
}

func equipmentLine(eq *model.Equipment) string {
	line := fmt.Sprintf("%s #%d %s %s", kindLabel(eq.Kind), eq.ID, rarityLabel(eq.Rarity), bonusSummary(eq.Bonus))
	if eq.Effect != nil {
		line += fmt.Sprintf(" %s(%d/%d)", effectLabel(eq.Effect.Kind), eq.Effect.Charges, eq.Effect.MaxCharges)
	}
	if eq.EquippedTo != nil {
		line += fmt.Sprintf(" → 角色 #%d", *eq.EquippedTo)
	}
	return line + "\n"
}

func formatEquipment(eq *model.Equipment) string {
	msg := fmt.Sprintf("%s #%d %s\n", kindLabel(eq.Kind), eq.ID, rarityLabel(eq.Rarity))
	msg += "━━━━━━━━━━━━━━━\n"
	msg += "📊 加成: " + bonusSummary(eq.Bonus) + "\n"
	if eq.Effect != nil {
		msg += fmt.Sprintf("🔮 特效: %s 威力 %d，%d 次\n", effectLabel(eq.Effect.Kind), eq.Effect.Power, eq.Effect.MaxCharges)
	}
	return msg
}

func bonusSummary(b model.Stats) string {
	var parts []string
	add := func(label string, v int64) {
		if v != 0 {
			parts = append(parts, fmt.Sprintf("%s+%d", label, v))
		}
	}
	add("生命", b.Health)
	add("攻击", b.Attack)
	add("防御", b.Defense)
	add("速度", b.Speed)
	add("魔力", b.Magic)
	add("幸运", b.Luck)
	if len(parts) == 0 {
		return "无"
	}
	return strings.Join(parts, " ")
}
