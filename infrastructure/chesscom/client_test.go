package chesscom

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appErrors "chessmate-backend/pkg/errors"
)

func archiveGame(url, white, black, whiteResult, blackResult string, endTime int64) map[string]interface{} {
	return map[string]interface{}{
		"url":          url,
		"eco":          "https://www.chess.com/openings/Sicilian-Defense",
		"time_control": "600",
		"pgn":          "1. e4 c5",
		"fen":          "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1",
		"end_time":     endTime,
		"white":        map[string]string{"username": white, "result": whiteResult},
		"black":        map[string]string{"username": black, "result": blackResult},
	}
}

func TestFetchRecentGames_WalksArchivesNewestFirst(t *testing.T) {
	older := time.Date(2026, 1, 10, 18, 0, 0, 0, time.UTC).Unix()
	newer := time.Date(2026, 2, 22, 12, 0, 0, 0, time.UTC).Unix()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/player/magnus/games/archives":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"archives": []string{
					"https://api.chess.com/pub/player/magnus/games/2026/01",
					"https://api.chess.com/pub/player/magnus/games/2026/02",
				},
			})
		case "/player/magnus/games/2026/02":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"games": []interface{}{
					archiveGame("https://www.chess.com/game/live/222", "Magnus", "rival", "win", "checkmated", newer),
					archiveGame("https://www.chess.com/game/live/333", "someoneelse", "another", "win", "resigned", newer),
				},
			})
		case "/player/magnus/games/2026/01":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"games": []interface{}{
					archiveGame("https://www.chess.com/game/live/111", "rival", "MAGNUS", "win", "resigned", older),
				},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := NewClient(server.Client(), server.URL+"/", zap.NewNop())
	games, err := client.FetchRecentGames(context.Background(), "magnus", 10)
	require.NoError(t, err)
	require.Len(t, games, 2)

	assert.Equal(t, "222", games[0].GameID)
	assert.Equal(t, "rival", games[0].Opponent)
	assert.Equal(t, "win", games[0].Result)
	assert.Equal(t, time.Unix(newer, 0).UTC(), games[0].PlayedAtUTC)

	assert.Equal(t, "111", games[1].GameID)
	assert.Equal(t, "rival", games[1].Opponent)
	assert.Equal(t, "resigned", games[1].Result)
}

func TestFetchRecentGames_StopsOnceEnoughGamesFound(t *testing.T) {
	var olderArchiveHits int
	endTime := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC).Unix()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/player/hikaru/games/archives":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"archives": []string{
					"https://api.chess.com/pub/player/hikaru/games/2026/01",
					"https://api.chess.com/pub/player/hikaru/games/2026/02",
				},
			})
		case "/player/hikaru/games/2026/02":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"games": []interface{}{
					archiveGame("https://www.chess.com/game/live/1", "hikaru", "a", "win", "resigned", endTime),
					archiveGame("https://www.chess.com/game/live/2", "b", "hikaru", "win", "timeout", endTime+60),
				},
			})
		case "/player/hikaru/games/2026/01":
			olderArchiveHits++
			json.NewEncoder(w).Encode(map[string]interface{}{"games": []interface{}{}})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := NewClient(server.Client(), server.URL, zap.NewNop())
	games, err := client.FetchRecentGames(context.Background(), "hikaru", 2)
	require.NoError(t, err)
	require.Len(t, games, 2)
	assert.Zero(t, olderArchiveHits)
	assert.Equal(t, "2", games[0].GameID)
}

func TestFetchRecentGames_UpstreamErrorIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.Client(), server.URL, zap.NewNop())
	_, err := client.FetchRecentGames(context.Background(), "magnus", 5)
	require.Error(t, err)
	assert.True(t, appErrors.IsUnavailable(err))
}

func TestFetchRecentGames_NoArchives(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"archives": []string{}})
	}))
	defer server.Close()

	client := NewClient(server.Client(), server.URL, zap.NewNop())
	games, err := client.FetchRecentGames(context.Background(), "nobody", 5)
	require.NoError(t, err)
	assert.Empty(t, games)
}

func TestExtractGameID(t *testing.T) {
	assert.Equal(t, "12345", extractGameID("https://www.chess.com/game/live/12345"))
	assert.Equal(t, "12345", extractGameID("https://www.chess.com/game/live/12345/"))

	generated := extractGameID("")
	assert.Len(t, generated, 32)
}
