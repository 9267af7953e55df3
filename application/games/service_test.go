package games

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"chessmate-backend/application/ports"
	"chessmate-backend/domain/games"
	"chessmate-backend/infrastructure/persistence/memory"
	appErrors "chessmate-backend/pkg/errors"
	"chessmate-backend/pkg/observability"
)

var now = time.Date(2026, 2, 22, 12, 0, 0, 0, time.UTC)

type stubArchive struct {
	games []games.GameSummary
	err   error
	calls int
}

func (s *stubArchive) FetchRecentGames(_ context.Context, _ string, maxGames int) ([]games.GameSummary, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	if maxGames > len(s.games) {
		maxGames = len(s.games)
	}
	return s.games[:maxGames], nil
}

func makeGames(count int) []games.GameSummary {
	summaries := make([]games.GameSummary, count)
	for i := 0; i < count; i++ {
		summaries[i] = games.GameSummary{
			GameID:      fmt.Sprintf("game-%02d", i),
			PlayedAtUTC: now.Add(-time.Duration(i) * time.Hour),
			Opponent:    "rival",
			Result:      "win",
		}
	}
	return summaries
}

func newService(archive *stubArchive, index ports.GameIndexStore) *Service {
	clock := ports.ClockFunc(func() time.Time { return now })
	return NewService(index, archive, clock, zap.NewNop(), observability.NewCollector("chessmate"))
}

func TestGetGamesPage_MissFetchesOneExtraAndReportsHasMore(t *testing.T) {
	archive := &stubArchive{games: makeGames(20)}
	service := newService(archive, memory.NewGameIndexStore())

	page, err := service.GetGamesPage(context.Background(), "Hikaru", 1, 12)
	require.NoError(t, err)

	assert.Equal(t, games.CacheStatusMiss, page.CacheStatus)
	assert.Len(t, page.Items, 12)
	assert.True(t, page.HasMore)
	assert.Equal(t, 15, page.CacheTTLMinutes)
	assert.Equal(t, now, page.SourceTimestamp)
}

func TestGetGamesPage_FreshCacheHitSkipsUpstream(t *testing.T) {
	archive := &stubArchive{games: makeGames(5)}
	index := memory.NewGameIndexStore()
	service := newService(archive, index)

	_, err := service.GetGamesPage(context.Background(), "hikaru", 1, 12)
	require.NoError(t, err)
	require.Equal(t, 1, archive.calls)

	page, err := service.GetGamesPage(context.Background(), "  HIKARU ", 1, 12)
	require.NoError(t, err)

	assert.Equal(t, games.CacheStatusHit, page.CacheStatus)
	assert.Len(t, page.Items, 5)
	assert.False(t, page.HasMore)
	assert.Equal(t, 1, archive.calls)
}

func TestGetGamesPage_StaleCacheRefetches(t *testing.T) {
	archive := &stubArchive{games: makeGames(3)}
	index := memory.NewGameIndexStore()
	require.NoError(t, index.UpsertPlayerGames(context.Background(), "hikaru", makeGames(2), now.Add(-16*time.Minute)))

	service := newService(archive, index)

	page, err := service.GetGamesPage(context.Background(), "hikaru", 1, 12)
	require.NoError(t, err)

	assert.Equal(t, games.CacheStatusStale, page.CacheStatus)
	assert.Len(t, page.Items, 3)
	assert.Equal(t, 1, archive.calls)
}

func TestGetGamesPage_UpstreamFailureIsUnavailable(t *testing.T) {
	archive := &stubArchive{err: fmt.Errorf("connection refused")}
	service := newService(archive, memory.NewGameIndexStore())

	_, err := service.GetGamesPage(context.Background(), "hikaru", 1, 12)
	require.Error(t, err)
	assert.True(t, appErrors.IsUnavailable(err))
}

func TestGetGamesPage_SecondPage(t *testing.T) {
	archive := &stubArchive{games: makeGames(25)}
	service := newService(archive, memory.NewGameIndexStore())

	page, err := service.GetGamesPage(context.Background(), "hikaru", 2, 12)
	require.NoError(t, err)

	// page*pageSize+1 = 25 fetched, second page holds items 12..23.
	require.Len(t, page.Items, 12)
	assert.Equal(t, "game-12", page.Items[0].GameID)
	assert.True(t, page.HasMore)
}
