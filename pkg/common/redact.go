package common

import "strings"

// RedactIdempotencyKey masks a client idempotency key for logs. Short keys
// are fully masked; longer keys keep four characters on each end.
func RedactIdempotencyKey(idempotencyKey string) string {
	trimmed := strings.TrimSpace(idempotencyKey)
	if trimmed == "" {
		return "missing"
	}
	if len(trimmed) <= 8 {
		return "********"
	}
	return trimmed[:4] + "..." + trimmed[len(trimmed)-4:]
}
