package handler

import (
	"fmt"
	"strings"

	tele "gopkg.in/telebot.v3"

	"duel-arena/internal/config"
	"duel-arena/internal/model"
	"duel-arena/internal/service"
)

const battlesShown = 10

// DuelHandler handles duel commands.
type DuelHandler struct {
	duels   *service.DuelService
	economy config.EconomyConfig
}

// NewDuelHandler creates a new DuelHandler.
func NewDuelHandler(duels *service.DuelService, economy config.EconomyConfig) *DuelHandler {
	return &DuelHandler{duels: duels, economy: economy}
}

// HandleDuel handles the /duel command. The duel resolves immediately.
// Format: /duel <my_character_id> <opponent_character_id> [fee]
func (h *DuelHandler) HandleDuel(c tele.Context) error {
	args := c.Args()
	myID, err1 := argInt(args, 0, nil)
	oppID, err2 := argInt(args, 1, nil)
	if err1 != nil || err2 != nil {
		return c.Reply(fmt.Sprintf("❌ 用法: /duel <我的角色ID> <对手角色ID> [报名费]，报名费至少 %d 金币", h.economy.DuelFee))
	}
	fee, err := argInt(args, 2, &h.economy.DuelFee)
	if err != nil {
		return c.Reply("❌ 无效的报名费")
	}

	caller := CallerFrom(c)
	duel, err := h.duels.CreateDuel(requestContext(c), caller, myID, oppID, fee)
	if err != nil {
		return replyError(c, err)
	}

	msg := fmt.Sprintf("⚔️ 决斗 #%d\n", duel.ID)
	msg += "━━━━━━━━━━━━━━━\n"
	msg += fmt.Sprintf("🆚 #%d vs #%d\n", duel.CharacterIDs[0], duel.CharacterIDs[1])
	msg += fmt.Sprintf("🔁 回合: %d\n", duel.Rounds)
	msg += fmt.Sprintf("❤️ 剩余生命: %d / %d\n", duel.FinalHealth[0], duel.FinalHealth[1])
	msg += "━━━━━━━━━━━━━━━\n"
	if duel.WinnerID == myID {
		msg += fmt.Sprintf("🏆 %s 的角色 #%d 获胜！\n", displayName(caller), myID)
	} else {
		msg += fmt.Sprintf("💀 角色 #%d 落败，#%d 获胜\n", myID, duel.WinnerID)
	}
	msg += fmt.Sprintf("💰 奖池 %d 金币已发放给胜者主人", duel.PrizePool)
	return c.Reply(msg)
}

// HandleBattles handles the /battles command: the caller's latest duels.
func (h *DuelHandler) HandleBattles(c tele.Context) error {
	ctx := requestContext(c)
	ids, err := h.duels.GetPlayerBattles(ctx, CallerFrom(c).PlayerID)
	if err != nil {
		return replyError(c, err)
	}
	if len(ids) == 0 {
		return c.Reply("📜 暂无战斗记录")
	}
	if len(ids) > battlesShown {
		ids = ids[len(ids)-battlesShown:]
	}

	var sb strings.Builder
	sb.WriteString("📜 最近战斗\n━━━━━━━━━━━━━━━\n")
	for i := len(ids) - 1; i >= 0; i-- {
		info, err := h.duels.GetBattleInfo(ctx, ids[i])
		if err != nil {
			return replyError(c, err)
		}
		sb.WriteString(fmt.Sprintf("#%d  #%d vs #%d  胜者 #%d  奖池 %d\n",
			info.ID, info.CharacterIDs[0], info.CharacterIDs[1], info.WinnerID, info.PrizePool))
	}
	return c.Reply(sb.String())
}

// HandleBattle handles the /battle command.
// Format: /battle <duel_id>
func (h *DuelHandler) HandleBattle(c tele.Context) error {
	id, err := argInt(c.Args(), 0, nil)
	if err != nil {
		return c.Reply("❌ 用法: /battle <战斗ID>")
	}

	duel, err := h.duels.GetBattle(requestContext(c), id)
	if err != nil {
		return replyError(c, err)
	}
	return c.Reply(formatDuel(duel))
}

// HandleReplay handles the /replay command: re-resolves a duel from its
// recorded inputs and checks it against the stored outcome.
// Format: /replay <duel_id>
func (h *DuelHandler) HandleReplay(c tele.Context) error {
	id, err := argInt(c.Args(), 0, nil)
	if err != nil {
		return c.Reply("❌ 用法: /replay <战斗ID>")
	}

	out, err := h.duels.Replay(requestContext(c), id)
	if err != nil {
		return replyError(c, err)
	}
	return c.Reply(fmt.Sprintf(
		"🔍 复盘 #%d 一致\n\n"+
			"🏆 胜者: #%d\n"+
			"🔁 回合: %d\n"+
			"🧾 摘要: %016x",
		id, out.WinnerID, out.Rounds, out.Digest,
	))
}

func formatDuel(d *model.Duel) string {
	msg := fmt.Sprintf("⚔️ 决斗 #%d\n", d.ID)
	msg += "━━━━━━━━━━━━━━━\n"
	for i := range d.CharacterIDs {
		f := d.Fighters[i].Stats
		msg += fmt.Sprintf("#%d (玩家 %d)  ❤️%d 🗡️%d 🛡️%d 💨%d → 剩余 %d\n",
			d.CharacterIDs[i], d.Players[i], f.Health, f.Attack, f.Defense, f.Speed, d.FinalHealth[i])
	}
	msg += "━━━━━━━━━━━━━━━\n"
	if d.State == model.DuelResolved {
		msg += fmt.Sprintf("🏆 胜者: #%d\n", d.WinnerID)
	}
	msg += fmt.Sprintf("🔁 回合: %d\n", d.Rounds)
	msg += fmt.Sprintf("💰 奖池: %d 金币\n", d.PrizePool)
	msg += fmt.Sprintf("🎲 随机数: nonce %d\n", d.Seed.Nonce)
	msg += fmt.Sprintf("🧾 摘要: %016x", d.Digest)
	return msg
}
