// Package games serves a player's recent chess.com games through a
// TTL cache-aside layer over the archive API.
package games

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"chessmate-backend/application/ports"
	"chessmate-backend/domain/games"
	appErrors "chessmate-backend/pkg/errors"
	"chessmate-backend/pkg/observability"
)

const cacheTTL = 15 * time.Minute

// Service pages a player's games, refreshing the cached index from the
// upstream archive when the cache is empty or stale.
type Service struct {
	index   ports.GameIndexStore
	archive ports.ArchiveClient
	clock   ports.Clock
	logger  *zap.Logger
	metrics *observability.Collector
}

func NewService(index ports.GameIndexStore, archive ports.ArchiveClient, clock ports.Clock, logger *zap.Logger, metrics *observability.Collector) *Service {
	return &Service{
		index:   index,
		archive: archive,
		clock:   clock,
		logger:  logger.Named("games"),
		metrics: metrics,
	}
}

// GetGamesPage returns one page of the player's games with cache provenance.
// A fresh cache serves the page directly; otherwise the upstream archive is
// fetched for one extra item past the requested page so HasMore is exact.
func (s *Service) GetGamesPage(ctx context.Context, username string, page, pageSize int) (*games.Page, error) {
	normalized := strings.ToLower(strings.TrimSpace(username))
	now := s.clock.Now().UTC()

	cached, err := s.index.GetPlayerGames(ctx, normalized)
	if err != nil {
		return nil, err
	}

	if isCacheFresh(cached, now) {
		s.metrics.CacheHits.Inc()
		s.logger.Info("games cache hit",
			zap.String("username", normalized),
			zap.Int("cachedCount", len(cached)))
		return buildPage(cached, page, pageSize, now, games.CacheStatusHit), nil
	}

	cacheStatus := games.CacheStatusMiss
	if len(cached) > 0 {
		cacheStatus = games.CacheStatusStale
	}
	s.metrics.CacheMisses.Inc()

	requiredCount := page*pageSize + 1
	s.logger.Info("games cache refresh",
		zap.String("username", normalized),
		zap.String("cacheStatus", cacheStatus),
		zap.Int("requiredCount", requiredCount))

	fetched, err := s.archive.FetchRecentGames(ctx, normalized, requiredCount)
	if err != nil {
		return nil, appErrors.NewUnavailable("chess.com games fetch failed", err)
	}

	if err := s.index.UpsertPlayerGames(ctx, normalized, fetched, now); err != nil {
		return nil, err
	}

	hydrated := make([]games.GameSummary, len(fetched))
	for i, game := range fetched {
		game.IngestedAtUTC = now
		hydrated[i] = game
	}

	s.logger.Info("games upstream fetch completed",
		zap.String("username", normalized),
		zap.Int("fetchedCount", len(hydrated)),
		zap.String("cacheStatus", cacheStatus))

	return buildPage(hydrated, page, pageSize, now, cacheStatus), nil
}

func isCacheFresh(cached []games.GameSummary, now time.Time) bool {
	if len(cached) == 0 {
		return false
	}
	var lastIngested time.Time
	for _, game := range cached {
		if game.IngestedAtUTC.After(lastIngested) {
			lastIngested = game.IngestedAtUTC
		}
	}
	if lastIngested.IsZero() {
		return false
	}
	return !lastIngested.Before(now.Add(-cacheTTL))
}

func buildPage(sorted []games.GameSummary, page, pageSize int, now time.Time, cacheStatus string) *games.Page {
	skip := (page - 1) * pageSize
	if skip < 0 {
		skip = 0
	}

	items := []games.GameSummary{}
	if skip < len(sorted) {
		end := skip + pageSize
		if end > len(sorted) {
			end = len(sorted)
		}
		items = sorted[skip:end]
	}

	sourceTimestamp := now
	if len(sorted) > 0 {
		sourceTimestamp = sorted[0].PlayedAtUTC
		for _, game := range sorted {
			if game.PlayedAtUTC.After(sourceTimestamp) {
				sourceTimestamp = game.PlayedAtUTC
			}
		}
	}

	return &games.Page{
		Items:           items,
		Page:            page,
		PageSize:        pageSize,
		HasMore:         len(sorted) > skip+len(items),
		SourceTimestamp: sourceTimestamp,
		CacheStatus:     cacheStatus,
		CacheTTLMinutes: int(cacheTTL.Minutes()),
	}
}
