package coaching

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"chessmate-backend/application/ports"
	"chessmate-backend/domain/coaching"
	appErrors "chessmate-backend/pkg/errors"
)

// BatchCoachService drives one accepted batch-coach request end to end:
// idempotency arbitration, orchestration, artifact archival and terminal
// state persistence.
type BatchCoachService struct {
	idempotency  *IdempotencyService
	orchestrator *Orchestrator
	batchStore   ports.AnalysisBatchStore
	clock        ports.Clock
	logger       *zap.Logger
}

func NewBatchCoachService(
	idempotency *IdempotencyService,
	orchestrator *Orchestrator,
	batchStore ports.AnalysisBatchStore,
	clock ports.Clock,
	logger *zap.Logger,
) *BatchCoachService {
	return &BatchCoachService{
		idempotency:  idempotency,
		orchestrator: orchestrator,
		batchStore:   batchStore,
		clock:        clock,
		logger:       logger.Named("batch_coach"),
	}
}

// Outcome is what the transport layer renders after running a request.
type Outcome struct {
	Decision Decision
	Response *coaching.BatchCoachResponse
}

// Run resolves the idempotency decision for the raw payload and, when this
// caller wins the create race, executes the orchestration and records the
// terminal result. Replay and conflict decisions return without touching
// the orchestrator.
func (s *BatchCoachService) Run(ctx context.Context, idempotencyKey, payload string, request *coaching.BatchCoachRequest) (*Outcome, error) {
	decision, err := s.idempotency.Begin(ctx, idempotencyKey, payload)
	if err != nil {
		return nil, err
	}

	s.logger.Info("idempotency check completed",
		zap.String("operationId", decision.OperationID),
		zap.String("decision", string(decision.Kind)))

	switch decision.Kind {
	case DecisionReplay:
		return &Outcome{Decision: decision, Response: decision.ReplayResponse}, nil
	case DecisionConflict:
		return &Outcome{Decision: decision}, nil
	}

	response, err := s.orchestrator.Execute(ctx, decision.OperationID, request)
	if err != nil || response == nil {
		s.logger.Error("orchestration did not complete",
			zap.String("operationId", decision.OperationID),
			zap.Error(err))
		if markErr := s.idempotency.MarkFailed(ctx, decision.OperationID, coaching.CodeOrchestrationFailed); markErr != nil {
			s.logger.Error("failed to record orchestration failure",
				zap.String("operationId", decision.OperationID),
				zap.Error(markErr))
		}
		return nil, appErrors.NewUnavailable("batch coaching orchestration did not complete successfully", err)
	}

	if err := s.archive(ctx, response); err != nil {
		// Archival is best-effort; the operation record remains the
		// authoritative replay source.
		s.logger.Warn("analysis batch archival failed",
			zap.String("operationId", decision.OperationID),
			zap.Error(err))
	}

	if err := s.idempotency.MarkCompleted(ctx, decision.OperationID, response); err != nil {
		return nil, err
	}

	s.logger.Info("batch coach completed and persisted",
		zap.String("operationId", decision.OperationID),
		zap.Int("coachingCount", len(response.Coaching)))

	return &Outcome{Decision: decision, Response: response}, nil
}

func (s *BatchCoachService) archive(ctx context.Context, response *coaching.BatchCoachResponse) error {
	payload, err := json.Marshal(response)
	if err != nil {
		return err
	}
	return s.batchStore.Put(ctx, response.Summary.GameID, response.OperationID, string(payload), s.clock.Now().UTC())
}
