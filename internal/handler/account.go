package handler

import (
	"fmt"
	"strings"
	"time"

	tele "gopkg.in/telebot.v3"

	"duel-arena/internal/model"
	"duel-arena/internal/service"
)

const historyLimit = 10

// AccountHandler handles wallet commands.
type AccountHandler struct {
	accounts *service.AccountService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accounts *service.AccountService) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

// HandleStart handles the /start command.
// Creates the caller's wallet with the starting balance on first use.
func (h *AccountHandler) HandleStart(c tele.Context) error {
	caller := CallerFrom(c)
	balance, created, err := h.accounts.EnsureWallet(requestContext(c), caller)
	if err != nil {
		return replyError(c, err)
	}
	if fresh, _ := c.Get(WalletCreatedKey).(bool); fresh {
		created = true
	}

	if created {
		return c.Reply(fmt.Sprintf(
			"🎉 欢迎 %s 来到决斗场！\n\n"+
				"你的钱包已创建，初始金币: %d\n\n"+
				"可用命令:\n"+
				"/mint - 召唤角色\n"+
				"/fighters - 我的角色\n"+
				"/stats <角色ID> - 查看属性\n"+
				"/forge <weapon|artifact> - 锻造装备\n"+
				"/equip <角色ID> <weapon|artifact> <装备ID> - 装备\n"+
				"/duel <我的角色ID> <对手角色ID> - 发起决斗\n"+
				"/heal <角色ID> - 治疗倒地角色\n"+
				"/battles - 我的战斗记录\n"+
				"/top - 胜场榜",
			displayName(caller), balance,
		))
	}

	return c.Reply(fmt.Sprintf(
		"👋 欢迎回来 %s！\n\n"+
			"当前余额: %d 金币",
		displayName(caller), balance,
	))
}

// HandleBalance handles the /balance command.
func (h *AccountHandler) HandleBalance(c tele.Context) error {
	balance, err := h.accounts.Balance(requestContext(c), CallerFrom(c))
	if err != nil {
		return replyError(c, err)
	}
	return c.Reply(fmt.Sprintf("💰 当前余额: %d 金币", balance))
}

// HandleHistory handles the /history command.
func (h *AccountHandler) HandleHistory(c tele.Context) error {
	txs, err := h.accounts.History(requestContext(c), CallerFrom(c), historyLimit)
	if err != nil {
		return replyError(c, err)
	}
	if len(txs) == 0 {
		return c.Reply("📜 暂无账单记录")
	}

	var sb strings.Builder
	sb.WriteString("📜 最近账单\n━━━━━━━━━━━━━━━\n")
	for _, tx := range txs {
		sb.WriteString(fmt.Sprintf("%s %+d %s\n",
			tx.CreatedAt.Format(time.DateTime), tx.Amount, txLabel(tx.Type)))
	}
	return c.Reply(sb.String())
}

func txLabel(txType string) string {
	switch txType {
	case model.TxTypeInitial:
		return "初始金币"
	case model.TxTypeDeposit:
		return "充值"
	case model.TxTypeMint:
		return "召唤角色"
	case model.TxTypeHeal:
		return "治疗"
	case model.TxTypeForge:
		return "锻造"
	case model.TxTypeDuelFee:
		return "决斗报名费"
	case model.TxTypeDuelPrize:
		return "决斗奖金"
	}
	return txType
}
