package coaching

import (
	"sort"
	"strings"
	"time"

	"chessmate-backend/domain/coaching"
)

// MapResponse assembles the durable response envelope from settled per-move
// outcomes. Successes become coaching items and failures become warnings,
// both ordered by ply. Any warning flips the batch failure code to the
// partial-coaching sentinel. Summary counts come from the original request,
// not from how many eligible moves ultimately succeeded.
func MapResponse(request *coaching.BatchCoachRequest, operationID string, outcomes []coaching.MoveOutcome, completedAt time.Time) *coaching.BatchCoachResponse {
	items := make([]coaching.CoachingItem, 0, len(outcomes))
	warnings := make([]coaching.BatchWarning, 0)

	for _, outcome := range outcomes {
		if outcome.Failed() {
			warnings = append(warnings, coaching.BatchWarning{
				Ply:            outcome.Ply,
				Classification: outcome.Classification,
				Move:           outcome.Move,
				Code:           outcome.FailureCode,
				Message:        outcome.FailureMessage,
			})
			continue
		}
		items = append(items, coaching.CoachingItem{
			Ply:            outcome.Ply,
			Classification: outcome.Classification,
			IsUserMove:     outcome.IsUserMove,
			Move:           outcome.Move,
			Explanation:    outcome.Explanation,
		})
	}

	sort.Slice(items, func(i, j int) bool { return items[i].Ply < items[j].Ply })
	sort.Slice(warnings, func(i, j int) bool { return warnings[i].Ply < warnings[j].Ply })

	analysisMode := request.AnalysisMode
	if strings.TrimSpace(analysisMode) == "" {
		analysisMode = coaching.AnalysisModeQuick
	}

	metadata := coaching.ResponseMetadata{
		CompletedAtUTC:          completedAt,
		EligibleClassifications: coaching.EligibleClassifications,
	}
	if len(warnings) > 0 {
		metadata.Warnings = warnings
		metadata.FailureCode = coaching.CodePartialCoaching
	}

	return &coaching.BatchCoachResponse{
		SchemaVersion: coaching.SchemaVersion,
		OperationID:   operationID,
		Summary: coaching.BatchSummary{
			GameID:        request.GameID,
			TotalMoves:    len(request.Moves),
			EligibleMoves: len(coaching.SelectEligibleMoves(request.Moves)),
			AnalysisMode:  analysisMode,
		},
		Coaching: items,
		Metadata: metadata,
	}
}
