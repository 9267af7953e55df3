// Package coaching implements the idempotent batch-coaching workflow:
// accepting a keyed request once, orchestrating per-move generation with
// independent timeout budgets, and persisting a replayable terminal result.
package coaching

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"chessmate-backend/application/ports"
	"chessmate-backend/domain/coaching"
	"chessmate-backend/pkg/observability"
)

// DecisionKind classifies the outcome of beginning an operation.
type DecisionKind string

const (
	DecisionStartNew DecisionKind = "start_new"
	DecisionReplay   DecisionKind = "replay"
	DecisionConflict DecisionKind = "conflict"
)

// Decision is what the idempotency protocol resolved for a request.
type Decision struct {
	OperationID    string
	Kind           DecisionKind
	ReplayResponse *coaching.BatchCoachResponse
	ExistingStatus coaching.OperationStatus
}

// IdempotencyService runs the create-then-resolve protocol over the
// operation-state store. It never takes a lock: the conditional create is
// the only arbitration point, and losers re-resolve with an extra read.
type IdempotencyService struct {
	store   ports.OperationStateStore
	clock   ports.Clock
	logger  *zap.Logger
	metrics *observability.Collector
}

func NewIdempotencyService(store ports.OperationStateStore, clock ports.Clock, logger *zap.Logger, metrics *observability.Collector) *IdempotencyService {
	return &IdempotencyService{
		store:   store,
		clock:   clock,
		logger:  logger.Named("idempotency"),
		metrics: metrics,
	}
}

// Begin hashes the payload, derives the operation identity and resolves
// whether the caller starts a fresh orchestration, replays a stored
// response, or observes a conflicting in-flight or undecodable record.
// Store unavailability propagates as an error; it never defaults to
// StartNew because that would risk duplicate concurrent orchestration.
func (s *IdempotencyService) Begin(ctx context.Context, idempotencyKey, payload string) (Decision, error) {
	requestHash, err := coaching.ComputePayloadHash(payload)
	if err != nil {
		return Decision{}, err
	}
	operationID := coaching.ComputeOperationID(idempotencyKey, requestHash)

	existing, err := s.store.GetByRequestIdentity(ctx, idempotencyKey, requestHash)
	if err != nil {
		return Decision{}, err
	}
	if existing != nil {
		return s.record(s.resolveExisting(existing, operationID)), nil
	}

	created, err := s.store.TryCreateRunning(ctx, operationID, idempotencyKey, requestHash, s.clock.Now().UTC())
	if err != nil {
		return Decision{}, err
	}
	if created {
		return s.record(Decision{OperationID: operationID, Kind: DecisionStartNew}), nil
	}

	// Another caller won the create race. Re-resolve by request identity
	// first, then by operation id.
	existing, err = s.store.GetByRequestIdentity(ctx, idempotencyKey, requestHash)
	if err != nil {
		return Decision{}, err
	}
	if existing == nil {
		existing, err = s.store.GetByOperationID(ctx, operationID)
		if err != nil {
			return Decision{}, err
		}
	}
	if existing == nil {
		// Lost the create race yet neither lookup sees the winner.
		// Report a conflict with unknown status so the client retries,
		// rather than fabricating a second concurrent execution.
		s.logger.Warn("create conflict with no resolvable record",
			zap.String("operationId", operationID))
		return s.record(Decision{OperationID: operationID, Kind: DecisionConflict}), nil
	}

	return s.record(s.resolveExisting(existing, operationID)), nil
}

// MarkCompleted persists the terminal response. The status reflects the
// partial-coaching sentinel when some moves produced warnings.
func (s *IdempotencyService) MarkCompleted(ctx context.Context, operationID string, response *coaching.BatchCoachResponse) error {
	status := coaching.StatusCompleted
	if response.Metadata.FailureCode == coaching.CodePartialCoaching {
		status = coaching.StatusPartialCoaching
	}

	payload, err := json.Marshal(response)
	if err != nil {
		return err
	}

	updated, err := s.store.TrySetTerminalStatus(ctx, operationID, status, s.clock.Now().UTC(), string(payload), "")
	if err != nil {
		return err
	}
	if !updated {
		s.logger.Warn("operation already resolved, completion dropped",
			zap.String("operationId", operationID),
			zap.String("status", string(status)))
	}
	return nil
}

// MarkFailed persists a terminal failure with its error code and no payload.
func (s *IdempotencyService) MarkFailed(ctx context.Context, operationID, errorCode string) error {
	updated, err := s.store.TrySetTerminalStatus(ctx, operationID, coaching.StatusFailed, s.clock.Now().UTC(), "", errorCode)
	if err != nil {
		return err
	}
	if !updated {
		s.logger.Warn("operation already resolved, failure dropped",
			zap.String("operationId", operationID),
			zap.String("errorCode", errorCode))
	}
	return nil
}

func (s *IdempotencyService) resolveExisting(existing *coaching.OperationState, fallbackOperationID string) Decision {
	operationID := existing.OperationID
	if strings.TrimSpace(operationID) == "" {
		operationID = fallbackOperationID
	}

	canReplay := existing.Status == coaching.StatusCompleted || existing.Status == coaching.StatusPartialCoaching
	if canReplay && strings.TrimSpace(existing.ResponsePayload) != "" {
		var response coaching.BatchCoachResponse
		if err := json.Unmarshal([]byte(existing.ResponsePayload), &response); err == nil {
			return Decision{
				OperationID:    operationID,
				Kind:           DecisionReplay,
				ReplayResponse: &response,
				ExistingStatus: existing.Status,
			}
		}
		s.logger.Warn("stored response payload is undecodable",
			zap.String("operationId", operationID),
			zap.String("status", string(existing.Status)))
	}

	return Decision{
		OperationID:    operationID,
		Kind:           DecisionConflict,
		ExistingStatus: existing.Status,
	}
}

func (s *IdempotencyService) record(decision Decision) Decision {
	s.metrics.OperationsByKind.WithLabelValues(string(decision.Kind)).Inc()
	return decision
}
