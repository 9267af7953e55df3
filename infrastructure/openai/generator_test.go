package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"chessmate-backend/domain/coaching"
	"chessmate-backend/infrastructure/config"
	appErrors "chessmate-backend/pkg/errors"
)

func completionJSON(content string) string {
	payload := map[string]interface{}{
		"id":    "chatcmpl-test",
		"model": "gpt-4o-mini",
		"choices": []map[string]interface{}{
			{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]interface{}{"role": "assistant", "content": content},
			},
		},
		"usage": map[string]interface{}{
			"prompt_tokens":     120,
			"completion_tokens": 60,
			"total_tokens":      180,
		},
	}
	encoded, _ := json.Marshal(payload)
	return string(encoded)
}

func newTestGenerator(t *testing.T, handler http.HandlerFunc) *Generator {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewGenerator(config.OpenAIConfig{
		APIKey:         "test-key",
		BaseURL:        server.URL,
		Model:          "gpt-4o-mini",
		MaxTokens:      220,
		Temperature:    0.4,
		MaxAttempts:    3,
		RetryBaseDelay: time.Millisecond,
	}, zap.NewNop())
}

func sampleRequest() coaching.GenerationRequest {
	return coaching.GenerationRequest{
		OperationID: "op-1",
		GameID:      "game-1",
		Move: coaching.MoveEnvelope{
			Ply:            12,
			Classification: "Blunder",
			IsUserMove:     true,
			Move:           "Qh4",
		},
	}
}

func TestGenerate_ParsesSectionsAndComposesExplanation(t *testing.T) {
	const sections = `{"whyWrong":"It hangs the queen.","exploitPath":"Nxh4 wins material.","suggestedPlan":"Castle first."}`
	generator := newTestGenerator(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, completionJSON(sections))
	})

	result, err := generator.Generate(context.Background(), sampleRequest())
	require.NoError(t, err)

	assert.Equal(t, "It hangs the queen.", result.WhyWrong)
	assert.Equal(t, "Nxh4 wins material.", result.ExploitPath)
	assert.Equal(t, "Castle first.", result.SuggestedPlan)
	assert.Equal(t,
		"You moved Qh4. Why this was wrong: It hangs the queen. Exploit path: Nxh4 wins material. Suggested plan: Castle first.",
		result.Explanation)
	assert.Equal(t, int64(120), result.PromptTokens)
	assert.Equal(t, int64(60), result.CompletionTokens)
	assert.Equal(t, int64(180), result.TotalTokens)
	assert.Equal(t, "gpt-4o-mini", result.Model)
}

func TestGenerate_StripsCodeFences(t *testing.T) {
	const fenced = "```json\n{\"whyWrong\":\"w\",\"exploitPath\":\"e\",\"suggestedPlan\":\"s\"}\n```"
	generator := newTestGenerator(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, completionJSON(fenced))
	})

	result, err := generator.Generate(context.Background(), sampleRequest())
	require.NoError(t, err)
	assert.Equal(t, "w", result.WhyWrong)
}

func TestGenerate_MissingSectionIsHardFailure(t *testing.T) {
	const incomplete = `{"whyWrong":"w","exploitPath":"e"}`
	requests := 0
	generator := newTestGenerator(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, completionJSON(incomplete))
	})

	_, err := generator.Generate(context.Background(), sampleRequest())
	require.Error(t, err)
	assert.True(t, appErrors.IsValidation(err))
	// Parse failures are not retried.
	assert.Equal(t, 1, requests)
}

func TestGenerate_RetriesRateLimitThenSucceeds(t *testing.T) {
	const sections = `{"whyWrong":"w","exploitPath":"e","suggestedPlan":"s"}`
	requests := 0
	generator := newTestGenerator(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
		if requests < 3 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			fmt.Fprint(w, `{"error":{"message":"slow down"}}`)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, completionJSON(sections))
	})

	result, err := generator.Generate(context.Background(), sampleRequest())
	require.NoError(t, err)
	assert.Equal(t, "w", result.WhyWrong)
	assert.Equal(t, 3, requests)
}

func TestGenerate_ExhaustedRetriesSurfaceUpstreamStatus(t *testing.T) {
	requests := 0
	generator := newTestGenerator(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprint(w, `{"error":{"message":"down"}}`)
	})

	_, err := generator.Generate(context.Background(), sampleRequest())
	require.Error(t, err)
	assert.Equal(t, 3, requests)
	assert.Equal(t, coaching.CodeUpstreamUnavailable, coaching.MapGenerationError(err))
}

func TestGenerate_NonTransientStatusFailsFast(t *testing.T) {
	requests := 0
	generator := newTestGenerator(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":{"message":"bad request"}}`)
	})

	_, err := generator.Generate(context.Background(), sampleRequest())
	require.Error(t, err)
	assert.Equal(t, 1, requests)
}
