package handler

import (
	"fmt"

	tele "gopkg.in/telebot.v3"

	"duel-arena/internal/service"
)

// AdminHandler handles admin-only commands.
type AdminHandler struct {
	accounts *service.AccountService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(accounts *service.AccountService) *AdminHandler {
	return &AdminHandler{accounts: accounts}
}

// HandleAdminDeposit handles the /admin_deposit command.
// Format: /admin_deposit <player_id> <amount>
func (h *AdminHandler) HandleAdminDeposit(c tele.Context) error {
	args := c.Args()
	if len(args) < 2 {
		return c.Reply("❌ 用法: /admin_deposit <用户ID> <金额>")
	}
	playerID, err := argInt(args, 0, nil)
	if err != nil || playerID <= 0 {
		return c.Reply("❌ 无效的用户ID")
	}
	amount, err := argInt(args, 1, nil)
	if err != nil {
		return c.Reply("❌ 无效的金额")
	}

	balance, err := h.accounts.Deposit(requestContext(c), playerID, amount)
	if err != nil {
		return replyError(c, err)
	}

	Logger(c).Info().
		Int64("admin_id", CallerFrom(c).PlayerID).
		Int64("target_id", playerID).
		Int64("amount", amount).
		Str("operation", "admin_deposit").
		Msg("Admin operation executed")

	return c.Reply(fmt.Sprintf(
		"✅ 操作成功\n\n"+
			"👤 用户: %d\n"+
			"➕ 充值: %d 金币\n"+
			"💰 当前余额: %d 金币",
		playerID, amount, balance,
	))
}
