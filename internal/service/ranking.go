package service

import (
	"context"

	"duel-arena/internal/model"
	"duel-arena/internal/repository"
)

// DefaultTopLimit is the leaderboard size used when none is given.
const DefaultTopLimit = 10

// RankingService handles the character leaderboard.
type RankingService struct {
	store repository.Store
}

// NewRankingService creates a new RankingService instance.
func NewRankingService(store repository.Store) *RankingService {
	return &RankingService{store: store}
}

// Top returns the best characters by wins, then fewer losses, then lower id.
func (s *RankingService) Top(ctx context.Context, limit int) ([]*model.Character, error) {
	if limit <= 0 {
		limit = DefaultTopLimit
	}
	var list []*model.Character
	err := s.store.View(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		list, err = tx.TopCharacters(ctx, limit)
		return err
	})
	if err != nil {
		return nil, translate(err, "get leaderboard")
	}
	return list, nil
}
