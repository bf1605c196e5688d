package handler

import (
	"fmt"
	"strings"

	tele "gopkg.in/telebot.v3"

	"duel-arena/internal/service"
)

// RankingHandler handles the leaderboard command.
type RankingHandler struct {
	ranking *service.RankingService
}

// NewRankingHandler creates a new RankingHandler.
func NewRankingHandler(ranking *service.RankingService) *RankingHandler {
	return &RankingHandler{ranking: ranking}
}

// HandleTop handles the /top command.
// Characters are ranked by wins, then fewer losses, then lower id.
func (h *RankingHandler) HandleTop(c tele.Context) error {
	top, err := h.ranking.Top(requestContext(c), service.DefaultTopLimit)
	if err != nil {
		return replyError(c, err)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🏆 胜场榜 TOP %d\n━━━━━━━━━━━━━━━\n", service.DefaultTopLimit))
	if len(top) == 0 {
		sb.WriteString("暂无数据\n")
		return c.Reply(sb.String())
	}

	medals := []string{"🥇", "🥈", "🥉"}
	for i, ch := range top {
		rank := fmt.Sprintf("%d.", i+1)
		if i < len(medals) {
			rank = medals[i]
		}
		sb.WriteString(fmt.Sprintf("%s #%d %s %s  %d胜 %d负 (玩家 %d)\n",
			rank, ch.ID, rarityLabel(ch.Rarity), classLabel(ch.Class), ch.Wins, ch.Losses, ch.Owner))
	}
	return c.Reply(sb.String())
}
