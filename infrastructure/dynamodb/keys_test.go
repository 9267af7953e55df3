package dynamodb

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBuildOperationPK(t *testing.T) {
	assert.Equal(t, "OP#abc123", BuildOperationPK("abc123"))
}

func TestBuildRequestPK_TruncatesHashToPrefix(t *testing.T) {
	hash := "0123456789abcdef0123456789abcdef"
	assert.Equal(t, "REQ#0123456789ab", BuildRequestPK(hash))
}

func TestBuildRequestPK_ShortHashKeptWhole(t *testing.T) {
	assert.Equal(t, "REQ#abc", BuildRequestPK("abc"))
}

func TestBuildRequestSK(t *testing.T) {
	assert.Equal(t, "OP#abc123", BuildRequestSK("abc123"))
}

func TestBuildGameAndPlayerKeys(t *testing.T) {
	assert.Equal(t, "GAME#game-1", BuildGamePK("game-1"))
	assert.Equal(t, "PLAYER#hikaru", BuildPlayerPK("hikaru"))
}

func TestCalculateExpiresAt_AddsThirtyDays(t *testing.T) {
	createdAt := time.Date(2026, 2, 22, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, createdAt.AddDate(0, 0, 30).Unix(), CalculateExpiresAt(createdAt))
}
