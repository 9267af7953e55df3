package common

import (
	"encoding/json"
	"net/http"
)

const schemaVersion = "1.0"

// ErrorEnvelope is the standard error response body
type ErrorEnvelope struct {
	SchemaVersion string              `json:"schemaVersion"`
	RequestID     string              `json:"requestId,omitempty"`
	Code          string              `json:"code"`
	Message       string              `json:"message"`
	Errors        map[string][]string `json:"errors,omitempty"`
}

// RespondJSON sends a JSON response
func RespondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// RespondError sends an error response
func RespondError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	RespondErrorWithDetails(w, r, status, code, message, nil)
}

// RespondErrorWithDetails sends an error response carrying per-field details
func RespondErrorWithDetails(w http.ResponseWriter, r *http.Request, status int, code, message string, details map[string][]string) {
	envelope := ErrorEnvelope{
		SchemaVersion: schemaVersion,
		RequestID:     w.Header().Get("X-Request-ID"),
		Code:          code,
		Message:       message,
		Errors:        details,
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(envelope)
}
