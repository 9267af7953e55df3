package memory

import (
	"context"
	"sync"
	"time"
)

type batchArtifact struct {
	operationID string
	payload     string
	completedAt time.Time
}

// AnalysisBatchStore keeps the latest archived batch response per game.
type AnalysisBatchStore struct {
	mu     sync.Mutex
	byGame map[string]batchArtifact
}

func NewAnalysisBatchStore() *AnalysisBatchStore {
	return &AnalysisBatchStore{byGame: make(map[string]batchArtifact)}
}

func (s *AnalysisBatchStore) Put(_ context.Context, gameID, operationID, responsePayload string, completedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byGame[gameID] = batchArtifact{operationID: operationID, payload: responsePayload, completedAt: completedAt}
	return nil
}

func (s *AnalysisBatchStore) GetLatest(_ context.Context, gameID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.byGame[gameID].payload, nil
}
