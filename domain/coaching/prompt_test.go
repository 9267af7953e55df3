package coaching

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const startFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

func TestDescribeUCIMove(t *testing.T) {
	assert.Equal(t, "Pawn from e2 to e4", DescribeUCIMove("e2e4", startFEN))
	assert.Equal(t, "Knight from g8 to f6", DescribeUCIMove("g8f6", startFEN))
	assert.Equal(t, "piece from e7 to e8 (promoting to Queen)", DescribeUCIMove("e7e8q", ""))
	assert.Equal(t, "e2", DescribeUCIMove("e2", startFEN))
	assert.Equal(t, "", DescribeUCIMove("", startFEN))
}

func TestDescribeFENBoard(t *testing.T) {
	described := DescribeFENBoard("4k3/8/8/8/8/8/4P3/4K3 w - - 0 1")

	assert.Contains(t, described, "White pieces: White Pawn on e2, White King on e1")
	assert.Contains(t, described, "Black pieces: Black King on e8")
	assert.Contains(t, described, "Side to move: White")

	assert.Empty(t, DescribeFENBoard(""))
	assert.Empty(t, DescribeFENBoard("not-a-fen"))
}

func TestMoveText(t *testing.T) {
	assert.Equal(t, "Qxf7", MoveText(MoveEnvelope{Move: " Qxf7 "}))
	assert.Equal(t, "the queen to f7", MoveText(MoveEnvelope{Piece: "Queen", To: "f7"}))
	assert.Equal(t, "the piece to an unknown square", MoveText(MoveEnvelope{}))
}

func TestComposeUserPrompt_IncludesEvaluationContext(t *testing.T) {
	loss := 350.0
	before := 120.0
	req := GenerationRequest{
		OperationID:  "op-1",
		GameID:       "game-1",
		AnalysisMode: "",
		Move: MoveEnvelope{
			Ply:             14,
			Classification:  "Blunder",
			IsUserMove:      true,
			Move:            "Qh4",
			From:            "d8",
			To:              "h4",
			FenBefore:       startFEN,
			CentipawnBefore: &before,
			CentipawnLoss:   &loss,
			BestMove:        "g8f6",
		},
	}

	prompt := ComposeUserPrompt(req, RolePhrase(true), MoveText(req.Move))

	assert.Contains(t, prompt, "- analysisMode: Quick")
	assert.Contains(t, prompt, "- moveNarrationPrefix: You moved")
	assert.Contains(t, prompt, "- evalBeforeMove: +1.20 (positive = White advantage, negative = Black advantage)")
	assert.Contains(t, prompt, "- centipawnLoss: 350 (higher = worse move)")
	assert.Contains(t, prompt, "- betterAlternative: Knight from g8 to f6")
	assert.Contains(t, prompt, "Board BEFORE the move")
	assert.NotContains(t, prompt, "Board AFTER the move")
}

func TestComposeExplanation(t *testing.T) {
	explanation := ComposeExplanation(
		"You moved", "Qh4",
		"It hangs the queen.",
		"Nxh4 wins the queen outright.",
		"Develop the knight to f6 first.")

	assert.Equal(t,
		"You moved Qh4. Why this was wrong: It hangs the queen. Exploit path: Nxh4 wins the queen outright. Suggested plan: Develop the knight to f6 first.",
		explanation)
}

func TestSelectEligibleMoves(t *testing.T) {
	moves := []MoveEnvelope{
		{Ply: 1, Classification: "Best"},
		{Ply: 2, Classification: "blunder"},
		{Ply: 3, Classification: "Mistake"},
		{Ply: 4, Classification: ""},
		{Ply: 5, Classification: "MISS"},
	}

	eligible := SelectEligibleMoves(moves)

	assert.Len(t, eligible, 3)
	assert.Equal(t, 2, eligible[0].Ply)
	assert.Equal(t, 3, eligible[1].Ply)
	assert.Equal(t, 5, eligible[2].Ply)
}
