// Package memory provides in-memory store implementations used by unit
// tests and local development.
package memory

import (
	"context"
	"sync"
	"time"

	"chessmate-backend/domain/coaching"
)

// OperationStateStore is an in-memory OperationStateStore with the same
// first-writer-wins and optimistic-concurrency semantics as the DynamoDB
// implementation.
type OperationStateStore struct {
	mu         sync.Mutex
	byID       map[string]coaching.OperationState
	byIdentity map[string]string
}

func NewOperationStateStore() *OperationStateStore {
	return &OperationStateStore{
		byID:       make(map[string]coaching.OperationState),
		byIdentity: make(map[string]string),
	}
}

func identityKey(idempotencyKey, requestHash string) string {
	return idempotencyKey + ":" + requestHash
}

func (s *OperationStateStore) GetByOperationID(_ context.Context, operationID string) (*coaching.OperationState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.byID[operationID]
	if !ok {
		return nil, nil
	}
	copied := state
	return &copied, nil
}

func (s *OperationStateStore) GetByRequestIdentity(_ context.Context, idempotencyKey, requestHash string) (*coaching.OperationState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	operationID, ok := s.byIdentity[identityKey(idempotencyKey, requestHash)]
	if !ok {
		return nil, nil
	}
	state, ok := s.byID[operationID]
	if !ok {
		return nil, nil
	}
	copied := state
	return &copied, nil
}

func (s *OperationStateStore) TryCreateRunning(_ context.Context, operationID, idempotencyKey, requestHash string, startedAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[operationID]; exists {
		return false, nil
	}

	s.byID[operationID] = coaching.OperationState{
		OperationID:    operationID,
		IdempotencyKey: idempotencyKey,
		RequestHash:    requestHash,
		Status:         coaching.StatusRunning,
		StartedAt:      startedAt,
		Version:        1,
	}
	s.byIdentity[identityKey(idempotencyKey, requestHash)] = operationID
	return true, nil
}

func (s *OperationStateStore) TrySetTerminalStatus(_ context.Context, operationID string, status coaching.OperationStatus, completedAt time.Time, responsePayload, errorCode string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.byID[operationID]
	if !ok {
		return false, nil
	}
	if state.Status.IsTerminal() {
		return false, nil
	}

	state.Status = status
	state.CompletedAt = &completedAt
	state.ResponsePayload = responsePayload
	state.ErrorCode = errorCode
	state.Version++
	s.byID[operationID] = state
	return true, nil
}
