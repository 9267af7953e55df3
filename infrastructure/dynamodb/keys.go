// Package dynamodb implements the persistence ports on a DynamoDB
// single-table layout per store. Primary records are the source of truth;
// secondary index rows are mirrored only after a primary write succeeds.
package dynamodb

import "time"

const (
	operationKeyPrefix = "OP#"
	requestKeyPrefix   = "REQ#"
	gameKeyPrefix      = "GAME#"
	playerKeyPrefix    = "PLAYER#"

	// operationRowKey pins the primary record row; schema bumps get a new row
	operationRowKey = "v1"

	schemaVersion = "v1"

	// requestHashPrefixLength bounds any one request-index partition
	// regardless of total hash space
	requestHashPrefixLength = 12

	retentionWindow = 30 * 24 * time.Hour
)

// BuildOperationPK builds the primary partition key for an operation record.
func BuildOperationPK(operationID string) string {
	return operationKeyPrefix + operationID
}

// BuildRequestPK builds the request-index partition key from a hash prefix.
func BuildRequestPK(requestHash string) string {
	prefix := requestHash
	if len(prefix) > requestHashPrefixLength {
		prefix = prefix[:requestHashPrefixLength]
	}
	return requestKeyPrefix + prefix
}

// BuildRequestSK builds the request-index sort key for an operation.
func BuildRequestSK(operationID string) string {
	return operationKeyPrefix + operationID
}

// BuildGamePK builds the analysis-batch partition key for a game.
func BuildGamePK(gameID string) string {
	return gameKeyPrefix + gameID
}

// BuildPlayerPK builds the game-index partition key for a player.
func BuildPlayerPK(normalizedUsername string) string {
	return playerKeyPrefix + normalizedUsername
}

// CalculateExpiresAt returns the retention deadline as epoch seconds for
// the DynamoDB TTL attribute.
func CalculateExpiresAt(createdAt time.Time) int64 {
	return createdAt.Add(retentionWindow).Unix()
}
