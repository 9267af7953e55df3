package memory

import (
	"context"
	"sync"
	"time"

	"chessmate-backend/domain/games"
)

// GameIndexStore caches player game lists in process memory.
type GameIndexStore struct {
	mu       sync.Mutex
	byPlayer map[string][]games.GameSummary
}

func NewGameIndexStore() *GameIndexStore {
	return &GameIndexStore{byPlayer: make(map[string][]games.GameSummary)}
}

func (s *GameIndexStore) GetPlayerGames(_ context.Context, username string) ([]games.GameSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cached := s.byPlayer[username]
	out := make([]games.GameSummary, len(cached))
	copy(out, cached)
	return out, nil
}

func (s *GameIndexStore) UpsertPlayerGames(_ context.Context, username string, summaries []games.GameSummary, ingestedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := make([]games.GameSummary, len(summaries))
	for i, summary := range summaries {
		summary.IngestedAtUTC = ingestedAt
		stored[i] = summary
	}
	s.byPlayer[username] = stored
	return nil
}
