package coaching

import (
	"fmt"
	"strings"
)

const systemPrompt = `You are a chess coach giving brief, concrete feedback on a bad move.
Return ONLY valid JSON:
{
  "whyWrong": "...",
  "exploitPath": "...",
  "suggestedPlan": "..."
}

Rules:
- Each field: exactly 1 sentence, max 25 words. Be direct.
- You receive a decoded board with every piece and its square. ONLY mention pieces that appear in that list.
- Never invent pieces, squares, or moves not supported by the board data.
- "whyWrong": State the specific tactical or positional problem the move creates (e.g. leaves a piece hanging, blocks development, weakens a square).
- "exploitPath": Use the opponentBestPunishment move to explain what the opponent wins or threatens. This is the key move — center your explanation around it.
- "suggestedPlan": State the better move and why it is better in one phrase.
- Never say "the engine", "Stockfish", "analysis shows", "best move is", or similar meta-commentary. Speak as a coach talking directly to a student.
- No markdown, no code fences, no extra keys.`

// RolePhrase narrates whose move is being coached.
func RolePhrase(isUserMove bool) string {
	if isUserMove {
		return "You moved"
	}
	return "Opponent moved"
}

// MoveText renders the moved-piece text, falling back to piece and target
// square when the request carries no SAN move.
func MoveText(move MoveEnvelope) string {
	if text := strings.TrimSpace(move.Move); text != "" {
		return text
	}

	piece := "piece"
	if p := strings.TrimSpace(move.Piece); p != "" {
		piece = strings.ToLower(p)
	}

	to := "an unknown square"
	if t := strings.TrimSpace(move.To); t != "" {
		to = t
	}

	return fmt.Sprintf("the %s to %s", piece, to)
}

// ComposeSystemPrompt returns the fixed coach persona and output contract.
func ComposeSystemPrompt() string {
	return systemPrompt
}

// ComposeUserPrompt renders the per-move context handed to the model.
func ComposeUserPrompt(req GenerationRequest, rolePhrase, moveText string) string {
	move := req.Move

	analysisMode := req.AnalysisMode
	if strings.TrimSpace(analysisMode) == "" {
		analysisMode = AnalysisModeQuick
	}

	var builder strings.Builder
	builder.WriteString("Context for one flagged move:\n")
	fmt.Fprintf(&builder, "- operationId: %s\n", req.OperationID)
	fmt.Fprintf(&builder, "- gameId: %s\n", req.GameID)
	fmt.Fprintf(&builder, "- analysisMode: %s\n", analysisMode)
	fmt.Fprintf(&builder, "- ply: %d\n", move.Ply)
	fmt.Fprintf(&builder, "- classification: %s\n", move.Classification)
	fmt.Fprintf(&builder, "- moveNarrationPrefix: %s\n", rolePhrase)
	fmt.Fprintf(&builder, "- moveText: %s\n", moveText)
	fmt.Fprintf(&builder, "- fromSquare: %s\n", orUnknown(move.From))
	fmt.Fprintf(&builder, "- toSquare: %s\n", orUnknown(move.To))

	if move.CentipawnBefore != nil {
		fmt.Fprintf(&builder, "- evalBeforeMove: %s\n", formatCentipawn(*move.CentipawnBefore))
	}
	if move.CentipawnAfter != nil {
		fmt.Fprintf(&builder, "- evalAfterMove: %s\n", formatCentipawn(*move.CentipawnAfter))
	}
	if move.CentipawnLoss != nil && *move.CentipawnLoss > 0 {
		fmt.Fprintf(&builder, "- centipawnLoss: %g (higher = worse move)\n", *move.CentipawnLoss)
	}

	if strings.TrimSpace(move.BestMove) != "" {
		fmt.Fprintf(&builder, "- betterAlternative: %s\n", DescribeUCIMove(move.BestMove, move.FenBefore))
	}
	if strings.TrimSpace(move.OpponentBestResponse) != "" {
		fmt.Fprintf(&builder, "- opponentBestPunishment: %s\n", DescribeUCIMove(move.OpponentBestResponse, move.FenAfter))
	}

	if strings.TrimSpace(move.FenBefore) != "" {
		builder.WriteString("\nBoard BEFORE the move (this is the ground truth — only reference pieces listed here):\n")
		builder.WriteString(DescribeFENBoard(move.FenBefore))
		builder.WriteString("\n")
	}
	if strings.TrimSpace(move.FenAfter) != "" {
		builder.WriteString("\nBoard AFTER the move:\n")
		builder.WriteString(DescribeFENBoard(move.FenAfter))
		builder.WriteString("\n")
	}

	builder.WriteString("\nOnly reference pieces visible in the board above. Be brief and direct.\n")
	return builder.String()
}

// ComposeExplanation folds the structured sections into the single
// user-facing explanation sentence block.
func ComposeExplanation(rolePhrase, moveText, whyWrong, exploitPath, suggestedPlan string) string {
	return fmt.Sprintf(
		"%s %s. Why this was wrong: %s Exploit path: %s Suggested plan: %s",
		rolePhrase, moveText, whyWrong, exploitPath, suggestedPlan)
}

func orUnknown(value string) string {
	if strings.TrimSpace(value) == "" {
		return "unknown"
	}
	return value
}

func formatCentipawn(centipawn float64) string {
	sign := ""
	if centipawn >= 0 {
		sign = "+"
	}
	return fmt.Sprintf("%s%.2f (positive = White advantage, negative = Black advantage)", sign, centipawn/100.0)
}
