package ports

import (
	"context"
	"time"

	"chessmate-backend/domain/coaching"
	"chessmate-backend/domain/games"
)

// OperationStateStore persists operation records for idempotent batch coaching.
// The primary record is the single source of truth for who won a create race;
// the request-hash index is mirrored after the primary write succeeds.
type OperationStateStore interface {
	// GetByOperationID returns nil (not an error) when the record is absent.
	GetByOperationID(ctx context.Context, operationID string) (*coaching.OperationState, error)

	// GetByRequestIdentity resolves a record through the request-hash index.
	// Returns nil on miss.
	GetByRequestIdentity(ctx context.Context, idempotencyKey, requestHash string) (*coaching.OperationState, error)

	// TryCreateRunning atomically inserts the Running primary record.
	// Returns false when the key already exists; the caller re-resolves
	// via lookup instead of treating the conflict as an error.
	TryCreateRunning(ctx context.Context, operationID, idempotencyKey, requestHash string, startedAt time.Time) (bool, error)

	// TrySetTerminalStatus transitions a Running record to a terminal
	// status guarded by the record's version. Returns false when the
	// record is already terminal or a concurrent writer won.
	TrySetTerminalStatus(ctx context.Context, operationID string, status coaching.OperationStatus, completedAt time.Time, responsePayload, errorCode string) (bool, error)
}

// CoachMoveGenerator produces structured coaching for a single flagged move.
type CoachMoveGenerator interface {
	Generate(ctx context.Context, req coaching.GenerationRequest) (*coaching.GenerationResult, error)
}

// AnalysisBatchStore archives terminal batch responses per game for later
// retrieval and retention sweeps.
type AnalysisBatchStore interface {
	Put(ctx context.Context, gameID, operationID, responsePayload string, completedAt time.Time) error
	GetLatest(ctx context.Context, gameID string) (string, error)
}

// GameIndexStore caches a player's normalized game list.
type GameIndexStore interface {
	GetPlayerGames(ctx context.Context, username string) ([]games.GameSummary, error)
	UpsertPlayerGames(ctx context.Context, username string, summaries []games.GameSummary, ingestedAt time.Time) error
}

// ArchiveClient fetches a player's recent games from the chess.com public API.
type ArchiveClient interface {
	FetchRecentGames(ctx context.Context, normalizedUsername string, maxGames int) ([]games.GameSummary, error)
}

// RetentionStore enumerates and deletes expired rows for the retention sweeper.
type RetentionStore interface {
	ScanExpired(ctx context.Context, now time.Time) ([]RetentionItem, error)
	Delete(ctx context.Context, item RetentionItem) error
	TableName() string
}

// RetentionItem identifies one expired row.
type RetentionItem struct {
	PK string
	SK string
}

// Clock abstracts time for deterministic tests.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }
