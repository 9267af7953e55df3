package coaching

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"chessmate-backend/domain/coaching"
	"chessmate-backend/infrastructure/persistence/memory"
)

func newBatchCoachService(runner ActivityRunner, store *memory.OperationStateStore, batches *memory.AnalysisBatchStore) *BatchCoachService {
	logger := zap.NewNop()
	return NewBatchCoachService(
		newIdempotencyService(store),
		NewOrchestrator(runner, fixedClock(), logger),
		batches,
		fixedClock(),
		logger)
}

func TestRun_CompletesAndArchives(t *testing.T) {
	moves := []coaching.MoveEnvelope{{Ply: 2, Classification: "Blunder", IsUserMove: true, Move: "f6"}}
	runner := &stubRunner{outcomes: map[int]coaching.MoveOutcome{
		2: successOutcome(moves[0], "explained"),
	}}
	store := memory.NewOperationStateStore()
	batches := memory.NewAnalysisBatchStore()
	service := newBatchCoachService(runner, store, batches)

	payload := `{"gameId":"g1","moves":[{"ply":2,"classification":"Blunder","isUserMove":true,"move":"f6"}]}`
	outcome, err := service.Run(context.Background(), "idem-run", payload,
		&coaching.BatchCoachRequest{GameID: "g1", Moves: moves})
	require.NoError(t, err)

	assert.Equal(t, DecisionStartNew, outcome.Decision.Kind)
	require.NotNil(t, outcome.Response)
	require.Len(t, outcome.Response.Coaching, 1)

	state, err := store.GetByOperationID(context.Background(), outcome.Decision.OperationID)
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, coaching.StatusCompleted, state.Status)

	archived, err := batches.GetLatest(context.Background(), "g1")
	require.NoError(t, err)
	assert.NotEmpty(t, archived)
}

func TestRun_SecondCallReplaysWithoutRegenerating(t *testing.T) {
	moves := []coaching.MoveEnvelope{{Ply: 2, Classification: "Blunder", IsUserMove: true, Move: "f6"}}
	calls := 0
	runner := generatorCountingRunner{calls: &calls, outcome: successOutcome(moves[0], "explained")}
	store := memory.NewOperationStateStore()
	service := newBatchCoachService(runner, store, memory.NewAnalysisBatchStore())

	payload := `{"gameId":"g1","moves":[{"ply":2,"classification":"Blunder","isUserMove":true,"move":"f6"}]}`
	request := &coaching.BatchCoachRequest{GameID: "g1", Moves: moves}

	first, err := service.Run(context.Background(), "idem-replay-run", payload, request)
	require.NoError(t, err)
	require.Equal(t, DecisionStartNew, first.Decision.Kind)

	second, err := service.Run(context.Background(), "idem-replay-run", payload, request)
	require.NoError(t, err)

	assert.Equal(t, DecisionReplay, second.Decision.Kind)
	require.NotNil(t, second.Response)
	assert.Equal(t, first.Response.OperationID, second.Response.OperationID)
	assert.Equal(t, 1, calls)
}

type generatorCountingRunner struct {
	calls   *int
	outcome coaching.MoveOutcome
}

func (r generatorCountingRunner) Run(ctx context.Context, req coaching.GenerationRequest) coaching.MoveOutcome {
	*r.calls++
	return r.outcome
}
