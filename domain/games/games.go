// Package games holds the chess.com game catalog types served by the
// TTL-cached games listing.
package games

import "time"

// Cache status values reported on a games page.
const (
	CacheStatusHit   = "hit"
	CacheStatusStale = "stale"
	CacheStatusMiss  = "miss"
)

// GameSummary is one archived game normalized to the requesting player's
// point of view.
type GameSummary struct {
	GameID        string    `json:"gameId"`
	PlayedAtUTC   time.Time `json:"playedAtUtc"`
	Opponent      string    `json:"opponent"`
	Result        string    `json:"result"`
	Opening       string    `json:"opening"`
	TimeControl   string    `json:"timeControl"`
	URL           string    `json:"url"`
	PGN           string    `json:"pgn,omitempty"`
	InitialFen    string    `json:"initialFen,omitempty"`
	IngestedAtUTC time.Time `json:"ingestedAtUtc"`
}

// Page is one page of a player's games plus cache provenance.
type Page struct {
	Items           []GameSummary `json:"items"`
	Page            int           `json:"page"`
	PageSize        int           `json:"pageSize"`
	HasMore         bool          `json:"hasMore"`
	SourceTimestamp time.Time     `json:"sourceTimestamp"`
	CacheStatus     string        `json:"cacheStatus"`
	CacheTTLMinutes int           `json:"cacheTtlMinutes"`
}
