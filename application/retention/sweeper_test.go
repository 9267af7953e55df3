package retention

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"chessmate-backend/application/ports"
	"chessmate-backend/pkg/observability"
)

type fakeRetentionStore struct {
	name        string
	expired     []ports.RetentionItem
	failFor     map[string]int
	deleted     []ports.RetentionItem
	deleteCalls int
}

func (s *fakeRetentionStore) TableName() string { return s.name }

func (s *fakeRetentionStore) ScanExpired(_ context.Context, _ time.Time) ([]ports.RetentionItem, error) {
	return s.expired, nil
}

func (s *fakeRetentionStore) Delete(_ context.Context, item ports.RetentionItem) error {
	s.deleteCalls++
	if remaining := s.failFor[item.PK]; remaining > 0 {
		s.failFor[item.PK] = remaining - 1
		return fmt.Errorf("throttled")
	}
	s.deleted = append(s.deleted, item)
	return nil
}

func newTestSweeper(stores ...ports.RetentionStore) *Sweeper {
	clock := ports.ClockFunc(func() time.Time { return time.Date(2026, 2, 22, 0, 0, 0, 0, time.UTC) })
	sweeper := NewSweeper(stores, clock, zap.NewNop(), observability.NewCollector("chessmate"))
	sweeper.sleep = func(context.Context, time.Duration) error { return nil }
	return sweeper
}

func TestRun_DeletesExpiredRows(t *testing.T) {
	store := &fakeRetentionStore{
		name: "chessmate-operation-state",
		expired: []ports.RetentionItem{
			{PK: "OP#a", SK: "v1"},
			{PK: "OP#b", SK: "v1"},
		},
	}

	results, err := newTestSweeper(store).Run(context.Background())
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, 2, results[0].Scanned)
	assert.Equal(t, 2, results[0].Deleted)
	assert.Equal(t, 0, results[0].Failures)
	assert.Len(t, store.deleted, 2)
}

func TestRun_RetriesTransientDeleteFailures(t *testing.T) {
	store := &fakeRetentionStore{
		name:    "chessmate-analysis-batch",
		expired: []ports.RetentionItem{{PK: "GAME#g1", SK: "OP#a"}},
		failFor: map[string]int{"GAME#g1": 2},
	}

	results, err := newTestSweeper(store).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, results[0].Deleted)
	assert.Equal(t, 0, results[0].Failures)
	assert.Equal(t, 3, store.deleteCalls)
}

func TestRun_ExhaustedRetriesCountAsFailure(t *testing.T) {
	store := &fakeRetentionStore{
		name:    "chessmate-game-index",
		expired: []ports.RetentionItem{{PK: "PLAYER#p1", SK: "GAME#g1"}, {PK: "PLAYER#p2", SK: "GAME#g2"}},
		failFor: map[string]int{"PLAYER#p1": 10},
	}

	results, err := newTestSweeper(store).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, results[0].Scanned)
	assert.Equal(t, 1, results[0].Deleted)
	assert.Equal(t, 1, results[0].Failures)
}
