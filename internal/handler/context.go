// Package handler provides Telegram bot command handlers.
//
// Handlers are thin: they parse arguments, call one service operation with
// the caller the middleware attached, and render the result.
package handler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"duel-arena/internal/auth"
	"duel-arena/internal/model"
	"duel-arena/internal/service"
)

// Context keys set by the bot middleware.
const (
	CallerKey        = "caller"
	LoggerKey        = "logger"
	WalletCreatedKey = "wallet_created"
)

// CallerFrom returns the verified caller attached to the update, or the zero
// (unauthenticated) caller.
func CallerFrom(c tele.Context) auth.Caller {
	if caller, ok := c.Get(CallerKey).(auth.Caller); ok {
		return caller
	}
	return auth.Caller{}
}

// Logger returns the request-scoped logger, falling back to the global one.
func Logger(c tele.Context) *zerolog.Logger {
	if l, ok := c.Get(LoggerKey).(*zerolog.Logger); ok {
		return l
	}
	return &log.Logger
}

func requestContext(c tele.Context) context.Context {
	return Logger(c).WithContext(context.Background())
}

func displayName(caller auth.Caller) string {
	if caller.Username != "" {
		return "@" + caller.Username
	}
	return strconv.FormatInt(caller.PlayerID, 10)
}

// argInt parses the i-th argument. When the argument is missing and fallback
// is non-nil, fallback is returned instead.
func argInt(args []string, i int, fallback *int64) (int64, error) {
	if i >= len(args) {
		if fallback != nil {
			return *fallback, nil
		}
		return 0, fmt.Errorf("missing argument %d", i+1)
	}
	return strconv.ParseInt(strings.TrimPrefix(args[i], "#"), 10, 64)
}

func argKind(args []string, i int) (model.EquipmentKind, bool) {
	if i >= len(args) {
		return "", false
	}
	switch strings.ToLower(args[i]) {
	case "weapon", "武器":
		return model.KindWeapon, true
	case "artifact", "神器":
		return model.KindArtifact, true
	}
	return "", false
}

func kindLabel(kind model.EquipmentKind) string {
	if kind == model.KindArtifact {
		return "🔮 神器"
	}
	return "⚔️ 武器"
}

// errorText renders a service error for players. Unknown errors are logged and
// shown as an internal failure.
func errorText(c tele.Context, err error) string {
	switch {
	case errors.Is(err, service.ErrUnauthenticated):
		return "❌ 无法识别你的身份"
	case errors.Is(err, service.ErrNotOwner):
		return "❌ 这不是你的角色或装备"
	case errors.Is(err, service.ErrSelfDuel):
		return "❌ 不能和自己决斗"
	case errors.Is(err, service.ErrCharacterNotFound):
		return "❌ 角色不存在"
	case errors.Is(err, service.ErrEquipmentNotFound):
		return "❌ 装备不存在"
	case errors.Is(err, service.ErrDuelNotFound):
		return "❌ 战斗记录不存在"
	case errors.Is(err, service.ErrUnknownKind):
		return "❌ 装备类型只能是 weapon 或 artifact"
	case errors.Is(err, service.ErrInvalidAmount):
		return "❌ 金额必须大于 0"
	case errors.Is(err, service.ErrKnockedOut):
		return "❌ 有角色处于倒地状态，请先 /heal"
	case errors.Is(err, service.ErrNotKnockedOut):
		return "❌ 该角色没有倒地，无需治疗"
	case errors.Is(err, service.ErrInsufficientPayment):
		return "❌ 支付金额低于价格"
	case errors.Is(err, service.ErrInsufficientFunds):
		return "❌ 余额不足"
	case errors.Is(err, service.ErrLedgerOverflow):
		Logger(c).Warn().Err(err).Str("text", c.Text()).Msg("Balance out of range")
		return "❌ 余额超出上限"
	case errors.Is(err, service.ErrReplayMismatch):
		return "⚠️ 复盘结果与记录不一致"
	case errors.Is(err, service.ErrValidation), errors.Is(err, service.ErrPrecondition):
		return "❌ " + err.Error()
	}
	Logger(c).Error().Err(err).Str("text", c.Text()).Msg("Command failed")
	return "❌ 发生内部错误，请稍后重试"
}

func replyError(c tele.Context, err error) error {
	return c.Reply(errorText(c, err))
}
