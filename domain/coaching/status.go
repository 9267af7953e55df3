package coaching

import "time"

// OperationStatus represents the lifecycle state of a batch coaching operation
type OperationStatus string

const (
	StatusRunning         OperationStatus = "Running"
	StatusCompleted       OperationStatus = "Completed"
	StatusPartialCoaching OperationStatus = "PartialCoaching"
	StatusFailed          OperationStatus = "Failed"
)

// IsTerminal reports whether the status admits no further transitions
func (s OperationStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusPartialCoaching || s == StatusFailed
}

// OperationState is the persisted record of one coaching request.
//
// For a given (idempotencyKey, requestHash) pair at most one record is
// ever Running; the store's conditional create enforces first writer
// wins. Once terminal the record is immutable.
type OperationState struct {
	OperationID     string
	IdempotencyKey  string
	RequestHash     string
	Status          OperationStatus
	StartedAt       time.Time
	CompletedAt     *time.Time
	ResponsePayload string
	ErrorCode       string
	Version         int64
}
