// Package chesscom wraps the chess.com public archive API behind a circuit
// breaker and normalizes games to the requesting player's point of view.
package chesscom

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"chessmate-backend/domain/games"
	appErrors "chessmate-backend/pkg/errors"
)

type archiveIndexResponse struct {
	Archives []string `json:"archives"`
}

type gamesArchiveResponse struct {
	Games []archivedGame `json:"games"`
}

type archivedGame struct {
	URL         string          `json:"url"`
	Eco         string          `json:"eco"`
	TimeControl string          `json:"time_control"`
	PGN         string          `json:"pgn"`
	InitialFen  string          `json:"fen"`
	EndTime     int64           `json:"end_time"`
	White       *archivedPlayer `json:"white"`
	Black       *archivedPlayer `json:"black"`
}

type archivedPlayer struct {
	Username string `json:"username"`
	Result   string `json:"result"`
}

// Client fetches recent games from the chess.com public API. Failures trip
// a circuit breaker so a flapping upstream sheds load fast.
type Client struct {
	httpClient *http.Client
	baseURL    string
	breaker    *gobreaker.CircuitBreaker
	logger     *zap.Logger
}

func NewClient(httpClient *http.Client, baseURL string, logger *zap.Logger) *Client {
	log := logger.Named("chesscom")
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "chesscom-archive",
		MaxRequests: 5,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 5 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= 0.8
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warn("circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/") + "/",
		breaker:    breaker,
		logger:     log,
	}
}

// FetchRecentGames walks the player's monthly archives newest-first until it
// has maxGames normalized games, then returns them ordered by play time
// descending.
func (c *Client) FetchRecentGames(ctx context.Context, normalizedUsername string, maxGames int) ([]games.GameSummary, error) {
	if maxGames <= 0 {
		return []games.GameSummary{}, nil
	}

	var index archiveIndexResponse
	if err := c.getJSON(ctx, fmt.Sprintf("player/%s/games/archives", url.PathEscape(normalizedUsername)), &index); err != nil {
		return nil, err
	}
	if len(index.Archives) == 0 {
		return []games.GameSummary{}, nil
	}

	recent := make([]games.GameSummary, 0, maxGames)
	for i := len(index.Archives) - 1; i >= 0; i-- {
		var archive gamesArchiveResponse
		if err := c.getJSON(ctx, relativePath(index.Archives[i]), &archive); err != nil {
			return nil, err
		}

		for _, game := range archive.Games {
			if summary, ok := normalizeGame(game, normalizedUsername); ok {
				recent = append(recent, summary)
			}
		}

		if len(recent) >= maxGames {
			break
		}
	}

	sort.Slice(recent, func(i, j int) bool {
		if recent[i].PlayedAtUTC.Equal(recent[j].PlayedAtUTC) {
			return recent[i].GameID < recent[j].GameID
		}
		return recent[i].PlayedAtUTC.After(recent[j].PlayedAtUTC)
	})
	if len(recent) > maxGames {
		recent = recent[:maxGames]
	}
	return recent, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	_, err := c.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
		if err != nil {
			return nil, err
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("chess.com API returned status %d for %s", resp.StatusCode, path)
		}
		return nil, json.NewDecoder(resp.Body).Decode(out)
	})
	if err != nil {
		return appErrors.NewUnavailable("chess.com archive request failed", err)
	}
	return nil
}

// relativePath reduces an absolute archive URL to a path under the API base.
func relativePath(archiveURL string) string {
	parsed, err := url.Parse(archiveURL)
	if err != nil || !parsed.IsAbs() {
		return strings.TrimLeft(archiveURL, "/")
	}
	path := strings.TrimLeft(parsed.Path, "/")
	return strings.TrimPrefix(path, "pub/")
}

func normalizeGame(game archivedGame, normalizedUsername string) (games.GameSummary, bool) {
	whiteUsername := ""
	if game.White != nil {
		whiteUsername = strings.ToLower(strings.TrimSpace(game.White.Username))
	}
	blackUsername := ""
	if game.Black != nil {
		blackUsername = strings.ToLower(strings.TrimSpace(game.Black.Username))
	}

	isWhite := whiteUsername == normalizedUsername
	isBlack := blackUsername == normalizedUsername
	if !isWhite && !isBlack {
		return games.GameSummary{}, false
	}

	userSide, opponentSide := game.White, game.Black
	if isBlack {
		userSide, opponentSide = game.Black, game.White
	}

	playedAt := time.Now().UTC()
	if game.EndTime > 0 {
		playedAt = time.Unix(game.EndTime, 0).UTC()
	}

	opponent := "unknown"
	if opponentSide != nil && opponentSide.Username != "" {
		opponent = opponentSide.Username
	}
	result := "unknown"
	if userSide != nil && userSide.Result != "" {
		result = userSide.Result
	}

	return games.GameSummary{
		GameID:      extractGameID(game.URL),
		PlayedAtUTC: playedAt,
		Opponent:    opponent,
		Result:      result,
		Opening:     game.Eco,
		TimeControl: game.TimeControl,
		URL:         game.URL,
		PGN:         game.PGN,
		InitialFen:  game.InitialFen,
	}, true
}

func extractGameID(gameURL string) string {
	trimmed := strings.TrimRight(strings.TrimSpace(gameURL), "/")
	if trimmed == "" {
		return strings.ReplaceAll(uuid.New().String(), "-", "")
	}
	parts := strings.Split(trimmed, "/")
	candidate := parts[len(parts)-1]
	if strings.TrimSpace(candidate) == "" {
		return strings.ReplaceAll(uuid.New().String(), "-", "")
	}
	return candidate
}
