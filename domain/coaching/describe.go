package coaching

import (
	"fmt"
	"strings"
)

var pieceLabels = map[byte]string{
	'K': "King", 'Q': "Queen", 'R': "Rook", 'B': "Bishop", 'N': "Knight", 'P': "Pawn",
	'k': "King", 'q': "Queen", 'r': "Rook", 'b': "Bishop", 'n': "Knight", 'p': "Pawn",
}

var pieceNames = map[byte]string{
	'K': "White King", 'Q': "White Queen", 'R': "White Rook", 'B': "White Bishop", 'N': "White Knight", 'P': "White Pawn",
	'k': "Black King", 'q': "Black Queen", 'r': "Black Rook", 'b': "Black Bishop", 'n': "Black Knight", 'p': "Black Pawn",
}

// DescribeUCIMove converts a UCI move string (e.g. "e2e4") into a readable
// description (e.g. "Pawn from e2 to e4"), identifying the piece from the FEN.
func DescribeUCIMove(uciMove, fen string) string {
	move := strings.TrimSpace(uciMove)
	if len(move) < 4 {
		return move
	}

	fromSquare := move[0:2]
	toSquare := move[2:4]

	description := fmt.Sprintf("%s from %s to %s", resolvePieceName(fromSquare, fen), fromSquare, toSquare)

	if len(move) > 4 {
		promoName := "piece"
		switch move[4] {
		case 'q', 'Q':
			promoName = "Queen"
		case 'r', 'R':
			promoName = "Rook"
		case 'b', 'B':
			promoName = "Bishop"
		case 'n', 'N':
			promoName = "Knight"
		}
		description += fmt.Sprintf(" (promoting to %s)", promoName)
	}

	return description
}

func resolvePieceName(square, fen string) string {
	if strings.TrimSpace(fen) == "" || len(square) != 2 {
		return "piece"
	}

	file := int(square[0] - 'a')
	rank := int(square[1] - '1')
	if file < 0 || file > 7 || rank < 0 || rank > 7 {
		return "piece"
	}

	ranks := strings.Split(strings.Fields(fen)[0], "/")
	if len(ranks) != 8 {
		return "piece"
	}

	// FEN ranks run from rank 8 down to rank 1.
	fenRank := ranks[7-rank]

	currentFile := 0
	for i := 0; i < len(fenRank); i++ {
		ch := fenRank[i]
		if ch >= '1' && ch <= '8' {
			currentFile += int(ch - '0')
			continue
		}
		if currentFile == file {
			if label, ok := pieceLabels[ch]; ok {
				return label
			}
		}
		currentFile++
	}

	return "piece"
}

// DescribeFENBoard converts a FEN string into a readable piece list grouped
// by color, plus the side to move when the FEN carries it.
func DescribeFENBoard(fen string) string {
	if strings.TrimSpace(fen) == "" {
		return ""
	}

	parts := strings.Fields(fen)
	ranks := strings.Split(parts[0], "/")
	if len(ranks) != 8 {
		return ""
	}

	var whitePieces, blackPieces []string

	for rankIndex := 0; rankIndex < 8; rankIndex++ {
		rankNumber := 8 - rankIndex
		fileIndex := 0

		for i := 0; i < len(ranks[rankIndex]); i++ {
			ch := ranks[rankIndex][i]
			if ch >= '1' && ch <= '8' {
				fileIndex += int(ch - '0')
				continue
			}
			if fileIndex > 7 {
				break
			}

			square := fmt.Sprintf("%c%d", 'a'+fileIndex, rankNumber)
			if name, ok := pieceNames[ch]; ok {
				entry := fmt.Sprintf("%s on %s", name, square)
				if ch >= 'A' && ch <= 'Z' {
					whitePieces = append(whitePieces, entry)
				} else {
					blackPieces = append(blackPieces, entry)
				}
			}
			fileIndex++
		}
	}

	var builder strings.Builder
	fmt.Fprintf(&builder, "White pieces: %s\n", strings.Join(whitePieces, ", "))
	fmt.Fprintf(&builder, "Black pieces: %s", strings.Join(blackPieces, ", "))

	if len(parts) > 1 {
		sideToMove := "Black"
		if parts[1] == "w" {
			sideToMove = "White"
		}
		fmt.Fprintf(&builder, "\nSide to move: %s", sideToMove)
	}

	return builder.String()
}
