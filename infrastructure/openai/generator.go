// Package openai implements the coach move generator on the OpenAI chat
// completions API. Works against any OpenAI-compatible endpoint via base URL.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
	"go.uber.org/zap"

	"chessmate-backend/domain/coaching"
	"chessmate-backend/infrastructure/config"
	appErrors "chessmate-backend/pkg/errors"
)

const (
	minRetryBaseDelay = 100 * time.Millisecond
	maxRetryDelay     = 2 * time.Second
)

// coachSections is the JSON contract the model is instructed to return.
type coachSections struct {
	WhyWrong      string `json:"whyWrong"`
	ExploitPath   string `json:"exploitPath"`
	SuggestedPlan string `json:"suggestedPlan"`
}

// UpstreamError carries the HTTP status of a failed generation attempt so
// the failure-code mapping can classify it.
type UpstreamError struct {
	Status int
	Err    error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream generation failed with status %d: %v", e.Status, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

func (e *UpstreamError) HTTPStatus() int { return e.Status }

// Generator calls the chat completions endpoint with bounded retry. Only
// transient upstream statuses are retried; a parse failure of the model
// output is a hard failure surfaced immediately.
type Generator struct {
	client openai.Client
	cfg    config.OpenAIConfig
	logger *zap.Logger
}

func NewGenerator(cfg config.OpenAIConfig, logger *zap.Logger) *Generator {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		// The generator runs its own backoff so attempts race the
		// per-move budget predictably.
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &Generator{
		client: openai.NewClient(opts...),
		cfg:    cfg,
		logger: logger.Named("openai_generator"),
	}
}

func (g *Generator) Generate(ctx context.Context, req coaching.GenerationRequest) (*coaching.GenerationResult, error) {
	rolePhrase := coaching.RolePhrase(req.Move.IsUserMove)
	moveText := coaching.MoveText(req.Move)
	systemPrompt := coaching.ComposeSystemPrompt()
	userPrompt := coaching.ComposeUserPrompt(req, rolePhrase, moveText)

	attempts := g.cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	started := time.Now()

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		completion, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
			Model: g.cfg.Model,
			Messages: []openai.ChatCompletionMessageParamUnion{
				openai.SystemMessage(systemPrompt),
				openai.UserMessage(userPrompt),
			},
			MaxCompletionTokens: openai.Int(g.cfg.MaxTokens),
			Temperature:         openai.Float(g.cfg.Temperature),
			ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
				OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
			},
		})
		if err != nil {
			lastErr = classifyUpstreamError(err)
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if isTransient(lastErr) && attempt < attempts {
				g.logger.Warn("transient generation failure",
					zap.String("operationId", req.OperationID),
					zap.Int("ply", req.Move.Ply),
					zap.Int("attempt", attempt),
					zap.Int("attempts", attempts),
					zap.Error(lastErr))
				if err := g.delayForRetry(ctx, attempt); err != nil {
					return nil, err
				}
				continue
			}
			return nil, lastErr
		}

		if len(completion.Choices) == 0 || strings.TrimSpace(completion.Choices[0].Message.Content) == "" {
			return nil, appErrors.NewValidation("coach response did not contain message content")
		}

		sections, err := parseSections(completion.Choices[0].Message.Content)
		if err != nil {
			return nil, err
		}

		model := completion.Model
		if strings.TrimSpace(model) == "" {
			model = g.cfg.Model
		}

		return &coaching.GenerationResult{
			WhyWrong:         sections.WhyWrong,
			ExploitPath:      sections.ExploitPath,
			SuggestedPlan:    sections.SuggestedPlan,
			Explanation:      coaching.ComposeExplanation(rolePhrase, moveText, sections.WhyWrong, sections.ExploitPath, sections.SuggestedPlan),
			PromptTokens:     completion.Usage.PromptTokens,
			CompletionTokens: completion.Usage.CompletionTokens,
			TotalTokens:      completion.Usage.TotalTokens,
			LatencyMs:        float64(time.Since(started)) / float64(time.Millisecond),
			Model:            model,
		}, nil
	}

	return nil, lastErr
}

func classifyUpstreamError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return &UpstreamError{Status: apiErr.StatusCode, Err: err}
	}
	return err
}

func isTransient(err error) bool {
	var upstream *UpstreamError
	if errors.As(err, &upstream) {
		return coaching.IsTransientStatus(upstream.Status)
	}
	// Connection-level timeouts are worth one more try.
	return errors.Is(err, context.DeadlineExceeded)
}

func (g *Generator) delayForRetry(ctx context.Context, attempt int) error {
	baseDelay := g.cfg.RetryBaseDelay
	if baseDelay < minRetryBaseDelay {
		baseDelay = minRetryBaseDelay
	}

	delay := baseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
	}
	if delay > maxRetryDelay {
		delay = maxRetryDelay
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func parseSections(content string) (*coachSections, error) {
	sanitized := sanitizeJSONContent(content)

	var sections coachSections
	if err := json.Unmarshal([]byte(sanitized), &sections); err != nil {
		return nil, appErrors.NewValidation("coach response is not valid JSON")
	}

	for field, value := range map[string]string{
		"whyWrong":      sections.WhyWrong,
		"exploitPath":   sections.ExploitPath,
		"suggestedPlan": sections.SuggestedPlan,
	} {
		if strings.TrimSpace(value) == "" {
			return nil, appErrors.NewValidation(fmt.Sprintf("coach response is missing required field %q", field))
		}
	}

	sections.WhyWrong = strings.TrimSpace(sections.WhyWrong)
	sections.ExploitPath = strings.TrimSpace(sections.ExploitPath)
	sections.SuggestedPlan = strings.TrimSpace(sections.SuggestedPlan)
	return &sections, nil
}

// sanitizeJSONContent strips markdown code fences some models wrap around
// JSON output despite instructions.
func sanitizeJSONContent(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.ReplaceAll(trimmed, "```json", "")
	trimmed = strings.ReplaceAll(trimmed, "```", "")
	return strings.TrimSpace(trimmed)
}
