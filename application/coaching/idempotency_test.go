package coaching

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"chessmate-backend/application/ports"
	"chessmate-backend/domain/coaching"
	"chessmate-backend/infrastructure/persistence/memory"
	"chessmate-backend/pkg/observability"
)

var fixedNow = time.Date(2026, 2, 22, 12, 0, 0, 0, time.UTC)

func fixedClock() ports.Clock {
	return ports.ClockFunc(func() time.Time { return fixedNow })
}

func newIdempotencyService(store ports.OperationStateStore) *IdempotencyService {
	return NewIdempotencyService(store, fixedClock(), zap.NewNop(), observability.NewCollector("chessmate"))
}

func TestBegin_FirstCallerStartsNew(t *testing.T) {
	service := newIdempotencyService(memory.NewOperationStateStore())

	decision, err := service.Begin(context.Background(), "idem-1", `{"gameId":"g1","moves":[]}`)
	require.NoError(t, err)

	assert.Equal(t, DecisionStartNew, decision.Kind)
	assert.Len(t, decision.OperationID, 64)
}

func TestBegin_ConcurrentDuplicates_ExactlyOneStartsNew(t *testing.T) {
	store := memory.NewOperationStateStore()
	service := newIdempotencyService(store)

	const callers = 16
	decisions := make([]Decision, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			decisions[i], errs[i] = service.Begin(context.Background(), "idem-dup", `{"gameId":"g1","moves":[]}`)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}

	startNew := 0
	for _, decision := range decisions {
		switch decision.Kind {
		case DecisionStartNew:
			startNew++
		case DecisionConflict:
			assert.Equal(t, coaching.StatusRunning, decision.ExistingStatus)
		default:
			t.Fatalf("unexpected decision kind %q", decision.Kind)
		}
		assert.Equal(t, decisions[0].OperationID, decision.OperationID)
	}
	assert.Equal(t, 1, startNew)
}

func TestBegin_TerminalRecordReplays(t *testing.T) {
	store := memory.NewOperationStateStore()
	service := newIdempotencyService(store)

	first, err := service.Begin(context.Background(), "idem-replay", `{"gameId":"g1","moves":[]}`)
	require.NoError(t, err)
	require.Equal(t, DecisionStartNew, first.Kind)

	response := &coaching.BatchCoachResponse{
		SchemaVersion: coaching.SchemaVersion,
		OperationID:   first.OperationID,
		Summary:       coaching.BatchSummary{GameID: "g1", AnalysisMode: "Quick"},
		Coaching:      []coaching.CoachingItem{},
		Metadata: coaching.ResponseMetadata{
			CompletedAtUTC:          fixedNow,
			EligibleClassifications: coaching.EligibleClassifications,
		},
	}
	require.NoError(t, service.MarkCompleted(context.Background(), first.OperationID, response))

	second, err := service.Begin(context.Background(), "idem-replay", `{"gameId":"g1","moves":[]}`)
	require.NoError(t, err)

	assert.Equal(t, DecisionReplay, second.Kind)
	require.NotNil(t, second.ReplayResponse)
	assert.Equal(t, first.OperationID, second.ReplayResponse.OperationID)
}

func TestBegin_KeyOrderInsensitivePayloadReplays(t *testing.T) {
	store := memory.NewOperationStateStore()
	service := newIdempotencyService(store)

	first, err := service.Begin(context.Background(), "idem-canon", `{"gameId":"g1","moves":[{"ply":1,"classification":"Blunder"}]}`)
	require.NoError(t, err)
	require.Equal(t, DecisionStartNew, first.Kind)

	reordered, err := service.Begin(context.Background(), "idem-canon", `{"moves":[{"classification":"Blunder","ply":1}],"gameId":"g1"}`)
	require.NoError(t, err)

	assert.Equal(t, first.OperationID, reordered.OperationID)
	assert.Equal(t, DecisionConflict, reordered.Kind)
	assert.Equal(t, coaching.StatusRunning, reordered.ExistingStatus)
}

func TestBegin_UndecodableTerminalPayloadConflicts(t *testing.T) {
	store := memory.NewOperationStateStore()
	service := newIdempotencyService(store)

	first, err := service.Begin(context.Background(), "idem-bad", `{"gameId":"g1","moves":[]}`)
	require.NoError(t, err)

	ok, err := store.TrySetTerminalStatus(context.Background(), first.OperationID, coaching.StatusCompleted, fixedNow, "{not json", "")
	require.NoError(t, err)
	require.True(t, ok)

	second, err := service.Begin(context.Background(), "idem-bad", `{"gameId":"g1","moves":[]}`)
	require.NoError(t, err)

	assert.Equal(t, DecisionConflict, second.Kind)
	assert.Equal(t, coaching.StatusCompleted, second.ExistingStatus)
}

func TestMarkCompleted_PartialCoachingStatus(t *testing.T) {
	store := memory.NewOperationStateStore()
	service := newIdempotencyService(store)

	first, err := service.Begin(context.Background(), "idem-partial", `{"gameId":"g1","moves":[]}`)
	require.NoError(t, err)

	response := &coaching.BatchCoachResponse{
		SchemaVersion: coaching.SchemaVersion,
		OperationID:   first.OperationID,
		Summary:       coaching.BatchSummary{GameID: "g1"},
		Metadata:      coaching.ResponseMetadata{FailureCode: coaching.CodePartialCoaching},
	}
	require.NoError(t, service.MarkCompleted(context.Background(), first.OperationID, response))

	state, err := store.GetByOperationID(context.Background(), first.OperationID)
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, coaching.StatusPartialCoaching, state.Status)

	var persisted coaching.BatchCoachResponse
	require.NoError(t, json.Unmarshal([]byte(state.ResponsePayload), &persisted))
	assert.Equal(t, first.OperationID, persisted.OperationID)
}

func TestMarkFailed_SecondResolverLosesCleanly(t *testing.T) {
	store := memory.NewOperationStateStore()
	service := newIdempotencyService(store)

	first, err := service.Begin(context.Background(), "idem-fail", `{"gameId":"g1","moves":[]}`)
	require.NoError(t, err)

	require.NoError(t, service.MarkFailed(context.Background(), first.OperationID, coaching.CodeOrchestrationFailed))
	// Second terminal write is a lost race, not an error.
	require.NoError(t, service.MarkFailed(context.Background(), first.OperationID, coaching.CodeTimeout))

	state, err := store.GetByOperationID(context.Background(), first.OperationID)
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, coaching.StatusFailed, state.Status)
	assert.Equal(t, coaching.CodeOrchestrationFailed, state.ErrorCode)
}
