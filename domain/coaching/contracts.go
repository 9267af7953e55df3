package coaching

import "time"

// AnalysisModeQuick is assumed whenever a request leaves analysisMode blank.
const (
	AnalysisModeQuick = "Quick"
	AnalysisModeDeep  = "Deep"
)

const SchemaVersion = "1.0"

// BatchCoachRequest is the inbound batch-coaching payload.
type BatchCoachRequest struct {
	GameID       string            `json:"gameId" validate:"required,max=128"`
	Moves        []MoveEnvelope    `json:"moves" validate:"required,max=256,dive"`
	AnalysisMode string            `json:"analysisMode,omitempty" validate:"omitempty,oneof=Quick Deep quick deep"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// MoveEnvelope carries one analyzed move plus optional position and
// evaluation context used when composing the coaching prompt.
type MoveEnvelope struct {
	Ply                  int      `json:"ply" validate:"min=1"`
	Classification       string   `json:"classification" validate:"required"`
	IsUserMove           bool     `json:"isUserMove"`
	Move                 string   `json:"move,omitempty"`
	Piece                string   `json:"piece,omitempty"`
	From                 string   `json:"from,omitempty"`
	To                   string   `json:"to,omitempty"`
	FenBefore            string   `json:"fenBefore,omitempty"`
	FenAfter             string   `json:"fenAfter,omitempty"`
	CentipawnBefore      *float64 `json:"centipawnBefore,omitempty"`
	CentipawnAfter       *float64 `json:"centipawnAfter,omitempty"`
	CentipawnLoss        *float64 `json:"centipawnLoss,omitempty"`
	BestMove             string   `json:"bestMove,omitempty"`
	OpponentBestResponse string   `json:"opponentBestResponse,omitempty"`
}

// BatchCoachResponse is the durable response envelope persisted for replay.
type BatchCoachResponse struct {
	SchemaVersion string           `json:"schemaVersion"`
	OperationID   string           `json:"operationId"`
	Summary       BatchSummary     `json:"summary"`
	Coaching      []CoachingItem   `json:"coaching"`
	Metadata      ResponseMetadata `json:"metadata"`
}

type BatchSummary struct {
	GameID        string `json:"gameId"`
	TotalMoves    int    `json:"totalMoves"`
	EligibleMoves int    `json:"eligibleMoves"`
	AnalysisMode  string `json:"analysisMode"`
}

type CoachingItem struct {
	Ply            int    `json:"ply"`
	Classification string `json:"classification"`
	IsUserMove     bool   `json:"isUserMove"`
	Move           string `json:"move"`
	Explanation    string `json:"explanation"`
}

type ResponseMetadata struct {
	CompletedAtUTC          time.Time      `json:"completedAtUtc"`
	EligibleClassifications []string       `json:"eligibleClassifications"`
	Warnings                []BatchWarning `json:"warnings,omitempty"`
	FailureCode             string         `json:"failureCode,omitempty"`
}

type BatchWarning struct {
	Ply            int    `json:"ply"`
	Classification string `json:"classification"`
	Move           string `json:"move,omitempty"`
	Code           string `json:"code"`
	Message        string `json:"message"`
}

// GenerationRequest is the per-move input handed to a coach generator.
type GenerationRequest struct {
	OperationID  string
	GameID       string
	AnalysisMode string
	Move         MoveEnvelope
}

// GenerationResult is a successful generation with its telemetry.
type GenerationResult struct {
	WhyWrong         string
	ExploitPath      string
	SuggestedPlan    string
	Explanation      string
	PromptTokens     int64
	CompletionTokens int64
	TotalTokens      int64
	LatencyMs        float64
	Model            string
}

// MoveOutcome is the settled result of one per-move race. Exactly one of
// the success fields or the failure fields is populated.
type MoveOutcome struct {
	Ply            int
	Classification string
	IsUserMove     bool
	Move           string
	Explanation    string
	FailureCode    string
	FailureMessage string
}

func (o MoveOutcome) Failed() bool { return o.FailureCode != "" }

// FailedOutcome builds the failure variant for a move that produced no coaching.
func FailedOutcome(move MoveEnvelope, moveText, code, message string) MoveOutcome {
	return MoveOutcome{
		Ply:            move.Ply,
		Classification: move.Classification,
		IsUserMove:     move.IsUserMove,
		Move:           moveText,
		FailureCode:    code,
		FailureMessage: message,
	}
}
