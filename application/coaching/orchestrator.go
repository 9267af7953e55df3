package coaching

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"chessmate-backend/application/ports"
	"chessmate-backend/domain/coaching"
	appErrors "chessmate-backend/pkg/errors"
	"chessmate-backend/pkg/observability"
)

// Default per-move timeout budgets by analysis mode.
const (
	defaultQuickTimeoutBudget = 60 * time.Second
	defaultDeepTimeoutBudget  = 60 * time.Second
)

// TimeoutBudgets carries the per-move generation deadlines by analysis
// mode. Zero values fall back to the defaults.
type TimeoutBudgets struct {
	Quick time.Duration
	Deep  time.Duration
}

func (b TimeoutBudgets) withDefaults() TimeoutBudgets {
	if b.Quick <= 0 {
		b.Quick = defaultQuickTimeoutBudget
	}
	if b.Deep <= 0 {
		b.Deep = defaultDeepTimeoutBudget
	}
	return b
}

// ActivityRunner executes one per-move generation activity. It exists as a
// seam so orchestration control flow can be tested without a live generator.
type ActivityRunner interface {
	Run(ctx context.Context, req coaching.GenerationRequest) coaching.MoveOutcome
}

// Orchestrator fans one generation task out per eligible move, races each
// against an independent timeout budget, and fans all results back in. A
// single move's failure or timeout degrades the batch to partial success;
// it never aborts sibling moves or the whole operation.
type Orchestrator struct {
	runner  ActivityRunner
	clock   ports.Clock
	logger  *zap.Logger
	budgets TimeoutBudgets
}

func NewOrchestrator(runner ActivityRunner, clock ports.Clock, logger *zap.Logger) *Orchestrator {
	return NewOrchestratorWithBudgets(runner, clock, logger, TimeoutBudgets{})
}

func NewOrchestratorWithBudgets(runner ActivityRunner, clock ports.Clock, logger *zap.Logger, budgets TimeoutBudgets) *Orchestrator {
	return &Orchestrator{
		runner:  runner,
		clock:   clock,
		logger:  logger.Named("orchestrator"),
		budgets: budgets.withDefaults(),
	}
}

// Execute runs the batch and returns the complete response envelope. Only a
// defect in the orchestration's own control flow returns an error; per-move
// failures surface as warnings inside the response.
func (o *Orchestrator) Execute(ctx context.Context, operationID string, request *coaching.BatchCoachRequest) (*coaching.BatchCoachResponse, error) {
	if request == nil {
		return nil, appErrors.NewInternal("batch coach orchestration input is required", nil)
	}

	eligible := coaching.SelectEligibleMoves(request.Moves)
	budget := o.resolveTimeoutBudget(request.AnalysisMode)

	o.logger.Info("batch coach orchestration started",
		zap.String("operationId", operationID),
		zap.Int("totalMoves", len(request.Moves)),
		zap.Int("eligibleMoves", len(eligible)),
		zap.Duration("timeoutBudget", budget))

	outcomes := make([]coaching.MoveOutcome, len(eligible))

	var wg sync.WaitGroup
	for i, move := range eligible {
		wg.Add(1)
		go func(i int, move coaching.MoveEnvelope) {
			defer wg.Done()
			outcomes[i] = o.runWithTimeout(ctx, operationID, request, move, budget)
		}(i, move)
	}
	wg.Wait()

	response := MapResponse(request, operationID, outcomes, o.clock.Now().UTC())

	o.logger.Info("batch coach orchestration completed",
		zap.String("operationId", operationID),
		zap.Int("coachingCount", len(response.Coaching)),
		zap.Int("warningsCount", len(response.Metadata.Warnings)),
		zap.String("failureCode", response.Metadata.FailureCode))

	return response, nil
}

// runWithTimeout races one generation activity against its budget. The
// activity keeps the shared parent context so a timed-out move cancels its
// own generation without touching siblings.
func (o *Orchestrator) runWithTimeout(ctx context.Context, operationID string, request *coaching.BatchCoachRequest, move coaching.MoveEnvelope, budget time.Duration) coaching.MoveOutcome {
	moveCtx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	req := coaching.GenerationRequest{
		OperationID:  operationID,
		GameID:       request.GameID,
		AnalysisMode: request.AnalysisMode,
		Move:         move,
	}

	results := make(chan coaching.MoveOutcome, 1)
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				o.logger.Error("coach move activity panicked",
					zap.String("operationId", operationID),
					zap.Int("ply", move.Ply),
					zap.Any("panic", rec))
				moveText := strings.TrimSpace(move.Move)
				results <- coaching.FailedOutcome(move, moveText, coaching.CodeOrchestrationFailed,
					"Coach generation failed for this move.")
			}
		}()
		results <- o.runner.Run(moveCtx, req)
	}()

	select {
	case outcome := <-results:
		return outcome
	case <-moveCtx.Done():
		moveText := strings.TrimSpace(move.Move)
		if moveText == "" {
			moveText = move.To
		}
		return coaching.FailedOutcome(move, moveText, coaching.CodeTimeout,
			fmt.Sprintf("Coach generation exceeded timeout budget of %ds.", int(budget.Seconds())))
	}
}

func (o *Orchestrator) resolveTimeoutBudget(analysisMode string) time.Duration {
	if strings.EqualFold(analysisMode, coaching.AnalysisModeDeep) {
		return o.budgets.Deep
	}
	return o.budgets.Quick
}

// GeneratorActivityRunner is the production ActivityRunner: it invokes the
// coach generator and folds any failure into a typed move outcome.
type GeneratorActivityRunner struct {
	generator ports.CoachMoveGenerator
	logger    *zap.Logger
	metrics   *observability.Collector
}

func NewGeneratorActivityRunner(generator ports.CoachMoveGenerator, logger *zap.Logger, metrics *observability.Collector) *GeneratorActivityRunner {
	return &GeneratorActivityRunner{
		generator: generator,
		logger:    logger.Named("coach_activity"),
		metrics:   metrics,
	}
}

func (r *GeneratorActivityRunner) Run(ctx context.Context, req coaching.GenerationRequest) coaching.MoveOutcome {
	move := req.Move
	moveText := coaching.MoveText(move)

	result, err := r.generator.Generate(ctx, req)
	if err != nil {
		code := coaching.MapGenerationError(err)
		if appErrors.IsValidation(err) {
			// Malformed model output is a hard failure, distinct from
			// the transient upstream codes.
			code = coaching.CodeValidationError
		}
		r.metrics.CoachFailures.WithLabelValues(code).Inc()
		r.logger.Warn("coach move activity failed",
			zap.String("operationId", req.OperationID),
			zap.Int("ply", move.Ply),
			zap.String("failureCode", code),
			zap.Error(err))
		return coaching.FailedOutcome(move, moveText, code, "Coach generation failed for this move.")
	}

	r.metrics.ObserveCoachMove(move.Classification, result.Model,
		time.Duration(result.LatencyMs*float64(time.Millisecond)), result.PromptTokens, result.CompletionTokens)
	r.logger.Info("coach move activity completed",
		zap.String("operationId", req.OperationID),
		zap.Int("ply", move.Ply),
		zap.String("model", result.Model),
		zap.Float64("latencyMs", result.LatencyMs),
		zap.Int64("totalTokens", result.TotalTokens))

	return coaching.MoveOutcome{
		Ply:            move.Ply,
		Classification: move.Classification,
		IsUserMove:     move.IsUserMove,
		Move:           moveText,
		Explanation:    result.Explanation,
	}
}
