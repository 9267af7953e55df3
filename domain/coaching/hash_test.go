package coaching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "chessmate-backend/pkg/errors"
)

func TestComputePayloadHash_KeyOrderInsensitive(t *testing.T) {
	first, err := ComputePayloadHash(`{"gameId":"g1","moves":[{"ply":3,"classification":"Blunder"}]}`)
	require.NoError(t, err)

	second, err := ComputePayloadHash(`{"moves":[{"classification":"Blunder","ply":3}],"gameId":"g1"}`)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestComputePayloadHash_ArrayOrderSignificant(t *testing.T) {
	first, err := ComputePayloadHash(`{"moves":[1,2]}`)
	require.NoError(t, err)

	second, err := ComputePayloadHash(`{"moves":[2,1]}`)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestComputePayloadHash_EmptyPayloadHashesEmptyString(t *testing.T) {
	const emptySha256 = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"

	for _, payload := range []string{"", "   ", "\n\t"} {
		hash, err := ComputePayloadHash(payload)
		require.NoError(t, err)
		assert.Equal(t, emptySha256, hash)
	}
}

func TestComputePayloadHash_PreservesNumberPrecision(t *testing.T) {
	first, err := ComputePayloadHash(`{"centipawnLoss":1.50}`)
	require.NoError(t, err)

	second, err := ComputePayloadHash(`{"centipawnLoss":1.5}`)
	require.NoError(t, err)

	// Textually different numbers stay distinct rather than being
	// collapsed through a float round-trip.
	assert.NotEqual(t, first, second)
}

func TestComputePayloadHash_InvalidJSON(t *testing.T) {
	_, err := ComputePayloadHash(`{"gameId":`)
	require.Error(t, err)
	assert.True(t, appErrors.IsValidation(err))
}

func TestComputeOperationID_Deterministic(t *testing.T) {
	hash, err := ComputePayloadHash(`{"gameId":"g1","moves":[]}`)
	require.NoError(t, err)

	first := ComputeOperationID("idem-123", hash)
	second := ComputeOperationID("idem-123", hash)
	assert.Equal(t, first, second)
	assert.Len(t, first, 64)

	other := ComputeOperationID("idem-456", hash)
	assert.NotEqual(t, first, other)
}
