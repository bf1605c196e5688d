// Package bot provides the Telegram bot initialization and handler registration.
package bot

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"duel-arena/internal/auth"
	"duel-arena/internal/config"
	"duel-arena/internal/handler"
	"duel-arena/internal/pkg/lock"
	"duel-arena/internal/service"
	"duel-arena/internal/shop"
)

// Bot wraps the telebot instance with application dependencies.
type Bot struct {
	bot  *tele.Bot
	cfg  *config.Config
	deps *Dependencies

	accountHandler   *handler.AccountHandler
	adminHandler     *handler.AdminHandler
	characterHandler *handler.CharacterHandler
	equipmentHandler *handler.EquipmentHandler
	duelHandler      *handler.DuelHandler
	rankingHandler   *handler.RankingHandler
	shopHandler      *handler.ShopHandler
}

// Dependencies holds all the dependencies needed by the bot handlers.
type Dependencies struct {
	Config     *config.Config
	Accounts   *service.AccountService
	Characters *service.CharacterService
	Equipment  *service.EquipmentService
	Duels      *service.DuelService
	Ranking    *service.RankingService
	PlayerLock *lock.PlayerLock
	Verifier   auth.Verifier
}

// New creates a new Bot instance polling the Telegram API.
func New(deps *Dependencies) (*Bot, error) {
	if deps.Config.Bot.Token == "" {
		return nil, fmt.Errorf("bot token is required")
	}
	return NewWithSettings(deps, tele.Settings{
		Token:  deps.Config.Bot.Token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	})
}

// NewWithSettings creates a Bot with explicit telebot settings.
func NewWithSettings(deps *Dependencies, pref tele.Settings) (*Bot, error) {
	teleBot, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}
	if deps.PlayerLock == nil {
		deps.PlayerLock = lock.NewPlayerLock()
	}
	if deps.Verifier == nil {
		deps.Verifier = auth.PlatformVerifier{}
	}

	economy := deps.Config.Economy
	b := &Bot{
		bot:              teleBot,
		cfg:              deps.Config,
		deps:             deps,
		accountHandler:   handler.NewAccountHandler(deps.Accounts),
		adminHandler:     handler.NewAdminHandler(deps.Accounts),
		characterHandler: handler.NewCharacterHandler(deps.Characters, economy),
		equipmentHandler: handler.NewEquipmentHandler(deps.Equipment, economy),
		duelHandler:      handler.NewDuelHandler(deps.Duels, economy),
		rankingHandler:   handler.NewRankingHandler(deps.Ranking),
		shopHandler: handler.NewShopHandler(
			deps.Accounts, deps.Characters, deps.Equipment, shop.NewCatalog(economy),
		),
	}

	b.registerMiddleware()
	b.registerHandlers()
	return b, nil
}

// registerMiddleware registers the global middleware chain, outermost first.
func (b *Bot) registerMiddleware() {
	b.bot.Use(RecoveryMiddleware())
	b.bot.Use(WhitelistMiddleware(b.cfg))
	b.bot.Use(LoggingMiddleware())
	b.bot.Use(CallerMiddleware(b.deps.Verifier))
	b.bot.Use(WalletMiddleware(b.deps.Accounts))
	b.bot.Use(PlayerLockMiddleware(b.deps.PlayerLock))
}

// registerHandlers registers all command and callback handlers.
func (b *Bot) registerHandlers() {
	b.bot.Handle("/start", b.handleStart)
	b.bot.Handle("/balance", b.accountHandler.HandleBalance)
	b.bot.Handle("/history", b.accountHandler.HandleHistory)

	b.bot.Handle("/mint", b.characterHandler.HandleMint)
	b.bot.Handle("/heal", b.characterHandler.HandleHeal)
	b.bot.Handle("/fighters", b.characterHandler.HandleFighters)
	b.bot.Handle("/stats", b.characterHandler.HandleStats)

	b.bot.Handle("/forge", b.equipmentHandler.HandleForge)
	b.bot.Handle("/equip", b.equipmentHandler.HandleEquip)
	b.bot.Handle("/unequip", b.equipmentHandler.HandleUnequip)
	b.bot.Handle("/gear", b.equipmentHandler.HandleGear)

	b.bot.Handle("/duel", b.duelHandler.HandleDuel)
	b.bot.Handle("/battles", b.duelHandler.HandleBattles)
	b.bot.Handle("/battle", b.duelHandler.HandleBattle)
	b.bot.Handle("/replay", b.duelHandler.HandleReplay)

	b.bot.Handle("/top", b.rankingHandler.HandleTop)

	adminGroup := b.bot.Group()
	adminGroup.Use(AdminMiddleware(b.cfg))
	adminGroup.Handle("/admin_deposit", b.adminHandler.HandleAdminDeposit)

	b.bot.Handle(tele.OnCallback, b.handleCallback)
}

// handleStart routes /start to the shop (private) or the account (group).
func (b *Bot) handleStart(c tele.Context) error {
	chat := c.Chat()
	if chat != nil && chat.Type == tele.ChatPrivate {
		return b.shopHandler.HandleShopStart(c)
	}
	return b.accountHandler.HandleStart(c)
}

// handleCallback routes inline button callbacks.
func (b *Bot) handleCallback(c tele.Context) error {
	callback := c.Callback()
	if callback == nil {
		return nil
	}

	// telebot prefixes unique button data with \f
	data := strings.TrimPrefix(callback.Data, "\f")
	handler.Logger(c).Debug().Str("data", data).Msg("Callback received")

	if strings.HasPrefix(data, "shop_") {
		return b.shopHandler.HandleShopCallback(c, data)
	}
	return c.Respond()
}

// Start starts the bot polling. It blocks until Stop is called.
func (b *Bot) Start() {
	log.Info().Msg("Starting bot...")
	b.bot.Start()
}

// Stop stops the bot gracefully.
func (b *Bot) Stop() {
	log.Info().Msg("Stopping bot...")
	b.bot.Stop()
}

// ProcessUpdate runs a single update through the middleware and handlers.
func (b *Bot) ProcessUpdate(u tele.Update) {
	b.bot.ProcessUpdate(u)
}
