// Package main is the entry point of the duel arena bot.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"duel-arena/internal/bot"
	"duel-arena/internal/config"
	"duel-arena/internal/fighter"
	"duel-arena/internal/game"
	"duel-arena/internal/game/combat"
	"duel-arena/internal/pkg/db"
	"duel-arena/internal/pkg/lock"
	"duel-arena/internal/random"
	"duel-arena/internal/service"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load("config")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	configureLogging(cfg.Log)
	log.Info().Str("store", cfg.Store.Driver).Msg("Configuration loaded successfully")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, closeStore, err := db.OpenStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open store")
	}
	defer closeStore()

	if cfg.Randomness.Secret == "" {
		log.Warn().Msg("randomness.secret is empty, duel outcomes are predictable")
	}
	source := random.NewSource(cfg.Randomness.Secret, 0)

	agg := fighter.NewAggregator(fighter.Limits{
		Ceiling:        cfg.Combat.StatCeiling,
		CritCapBps:     cfg.Combat.CritCapBps,
		DodgeCapBps:    cfg.Combat.DodgeCapBps,
		CritHalfPoint:  cfg.Combat.CritHalfPoint,
		DodgeHalfPoint: cfg.Combat.DodgeHalfPoint,
	})

	rulesets := game.NewRegistry()
	standard, err := combat.NewStandard(combat.Rules{
		MaxRounds:         cfg.Combat.MaxRounds,
		MinDamage:         cfg.Combat.MinDamage,
		CritMultiplierPct: cfg.Combat.CritMultiplierPct,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build combat ruleset")
	}
	if err := rulesets.Register(standard); err != nil {
		log.Fatal().Err(err).Msg("Failed to register combat ruleset")
	}
	log.Info().
		Int("ruleset_count", rulesets.Count()).
		Strs("rulesets", rulesets.Kinds()).
		Msg("Rulesets registered")

	// The authority key never leaves the process unless configured.
	authority := cfg.Randomness.EngineAuthority
	if authority == "" {
		authority = uuid.NewString()
	}

	characters := service.NewCharacterService(store, source, agg, cfg.Economy.MintPrice, cfg.Economy.HealPrice)
	if err := characters.GrantDuelAuthority(authority); err != nil {
		log.Fatal().Err(err).Msg("Failed to grant duel authority")
	}

	deps := &bot.Dependencies{
		Config:     cfg,
		Accounts:   service.NewAccountService(store, cfg.Economy.StartingBalance),
		Characters: characters,
		Equipment:  service.NewEquipmentService(store, source, cfg.Economy.ForgePrice),
		Duels:      service.NewDuelService(store, characters, agg, source, rulesets, authority, cfg.Economy.DuelFee),
		Ranking:    service.NewRankingService(store),
		PlayerLock: lock.NewPlayerLock(),
	}

	telegramBot, err := bot.New(deps)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create bot")
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info().Msg("Bot is starting...")
		telegramBot.Start()
	}()

	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")

	telegramBot.Stop()
	log.Info().Msg("Bot stopped gracefully")
}

func configureLogging(cfg config.LogConfig) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if !cfg.Pretty {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
}
