package coaching

import "strings"

// EligibleClassifications is the fixed allow-list of move classifications
// that receive coaching. Matching is case-insensitive.
var EligibleClassifications = []string{"Inaccuracy", "Mistake", "Miss", "Blunder"}

// IsEligible reports whether a classification falls in the coaching allow-list.
func IsEligible(classification string) bool {
	c := strings.TrimSpace(classification)
	if c == "" {
		return false
	}
	for _, candidate := range EligibleClassifications {
		if strings.EqualFold(candidate, c) {
			return true
		}
	}
	return false
}

// SelectEligibleMoves filters a request's moves down to the coaching-eligible
// set, preserving the original order.
func SelectEligibleMoves(moves []MoveEnvelope) []MoveEnvelope {
	eligible := make([]MoveEnvelope, 0, len(moves))
	for _, move := range moves {
		if IsEligible(move.Classification) {
			eligible = append(eligible, move)
		}
	}
	return eligible
}
