// Package bot provides middleware for the Telegram bot.
package bot

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"duel-arena/internal/auth"
	"duel-arena/internal/config"
	"duel-arena/internal/handler"
	"duel-arena/internal/pkg/lock"
	"duel-arena/internal/service"
)

// privateUserCache tracks users who have used the bot in whitelisted groups.
// This allows them to use the bot in private chat.
var (
	privateUserCache = make(map[int64]bool)
	privateUserMu    sync.RWMutex
)

// AllowPrivateUser marks a user as allowed to use private chat.
func AllowPrivateUser(userID int64) {
	privateUserMu.Lock()
	defer privateUserMu.Unlock()
	privateUserCache[userID] = true
}

// IsPrivateUserAllowed checks if a user is allowed to use private chat.
func IsPrivateUserAllowed(userID int64) bool {
	privateUserMu.RLock()
	defer privateUserMu.RUnlock()
	return privateUserCache[userID]
}

// WhitelistMiddleware drops updates from chats outside the whitelist.
// Private chats pass when the whitelist is empty or the sender has been seen
// in a whitelisted group.
func WhitelistMiddleware(cfg *config.Config) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			chat := c.Chat()
			sender := c.Sender()
			if chat == nil || sender == nil {
				return nil
			}

			if chat.Type == tele.ChatPrivate {
				if IsPrivateUserAllowed(sender.ID) || len(cfg.Whitelist.Chats) == 0 {
					return next(c)
				}
				log.Debug().
					Int64("user_id", sender.ID).
					Msg("Ignoring private chat from user not in whitelist cache")
				return nil
			}

			if !cfg.IsChatAllowed(chat.ID) {
				log.Debug().
					Int64("chat_id", chat.ID).
					Msg("Ignoring command from non-whitelisted chat")
				return nil
			}

			AllowPrivateUser(sender.ID)
			return next(c)
		}
	}
}

// AdminMiddleware rejects senders that are not configured admins.
func AdminMiddleware(cfg *config.Config) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			sender := c.Sender()
			if sender == nil {
				return nil
			}
			if !cfg.IsAdmin(sender.ID) {
				handler.Logger(c).Warn().
					Int64("user_id", sender.ID).
					Str("command", c.Text()).
					Msg("Non-admin attempted admin command")
				return c.Reply("❌ 权限不足：需要管理员权限")
			}
			return next(c)
		}
	}
}

// LoggingMiddleware tags every update with a request id, attaches a
// request-scoped logger and logs the handler's duration and error.
func LoggingMiddleware() tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			lc := log.With().Str("request_id", uuid.NewString())
			if sender := c.Sender(); sender != nil {
				lc = lc.Int64("user_id", sender.ID).Str("username", sender.Username)
			}
			if chat := c.Chat(); chat != nil {
				lc = lc.Int64("chat_id", chat.ID).Str("chat_type", string(chat.Type))
			}
			logger := lc.Logger()
			c.Set(handler.LoggerKey, &logger)

			logger.Debug().Str("text", c.Text()).Msg("Received message")

			start := time.Now()
			err := next(c)
			ev := logger.Debug()
			if err != nil {
				ev = logger.Error().Err(err)
			}
			ev.Dur("duration", time.Since(start)).Msg("Handled message")
			return err
		}
	}
}

// CallerMiddleware turns the platform-authenticated sender into the
// auth.Caller handlers pass to the services.
func CallerMiddleware(verifier auth.Verifier) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			sender := c.Sender()
			if sender == nil {
				return nil
			}
			username := sender.Username
			if username == "" {
				username = sender.FirstName
			}
			caller, err := verifier.Verify(sender.ID, username)
			if err != nil {
				handler.Logger(c).Warn().Err(err).Msg("Sender rejected by verifier")
				return c.Reply("❌ 无法识别你的身份")
			}
			c.Set(handler.CallerKey, caller)
			return next(c)
		}
	}
}

// WalletMiddleware creates the caller's wallet on first contact.
func WalletMiddleware(accounts *service.AccountService) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			caller := handler.CallerFrom(c)
			if !caller.IsVerified() {
				return next(c)
			}
			if _, created, err := accounts.EnsureWallet(context.Background(), caller); err != nil {
				handler.Logger(c).Error().Err(err).Msg("Failed to ensure wallet")
			} else if created {
				c.Set(handler.WalletCreatedKey, true)
				handler.Logger(c).Info().Int64("player_id", caller.PlayerID).Msg("Wallet created")
			}
			return next(c)
		}
	}
}

// PlayerLockMiddleware rejects a command while the same player still has one
// in flight.
func PlayerLockMiddleware(pl *lock.PlayerLock) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			sender := c.Sender()
			if sender == nil {
				return nil
			}
			err := pl.Do(sender.ID, func() error { return next(c) })
			if errors.Is(err, lock.ErrBusy) {
				handler.Logger(c).Debug().Msg("Command rejected: previous command in flight")
				if c.Callback() != nil {
					return c.Respond(&tele.CallbackResponse{Text: "⏳ 上一个操作还在处理中"})
				}
				return c.Reply("⏳ 上一个指令还在处理中，请稍候")
			}
			return err
		}
	}
}

// RecoveryMiddleware creates a middleware that recovers from panics.
func RecoveryMiddleware() tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					handler.Logger(c).Error().
						Interface("panic", r).
						Msg("Recovered from panic in handler")
					err = c.Reply("❌ 发生内部错误，请稍后重试")
				}
			}()
			return next(c)
		}
	}
}
