package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"chessmate-backend/application/ports"
	"chessmate-backend/pkg/common"
)

// OperationHandler handles operation status endpoints
type OperationHandler struct {
	store  ports.OperationStateStore
	logger *zap.Logger
}

// NewOperationHandler creates a new operation handler
func NewOperationHandler(store ports.OperationStateStore, logger *zap.Logger) *OperationHandler {
	return &OperationHandler{
		store:  store,
		logger: logger,
	}
}

// operationStatusView is the read model returned for a status poll.
type operationStatusView struct {
	OperationID    string     `json:"operationId"`
	Status         string     `json:"status"`
	StartedAtUTC   time.Time  `json:"startedAtUtc"`
	CompletedAtUTC *time.Time `json:"completedAtUtc,omitempty"`
	FailureCode    string     `json:"failureCode,omitempty"`
}

// GetOperationStatus handles GET /operations/{operationID}
func (h *OperationHandler) GetOperationStatus(w http.ResponseWriter, r *http.Request) {
	operationID := chi.URLParam(r, "operationID")
	if operationID == "" {
		common.RespondError(w, r, http.StatusBadRequest, "ValidationError", "Operation ID is required.")
		return
	}

	state, err := h.store.GetByOperationID(r.Context(), operationID)
	if err != nil {
		h.logger.Error("operation status lookup failed",
			zap.String("operationId", operationID),
			zap.Error(err))
		common.RespondError(w, r, http.StatusInternalServerError, "InternalError", "An unexpected error occurred.")
		return
	}
	if state == nil {
		common.RespondError(w, r, http.StatusNotFound, "NotFound", "Operation not found.")
		return
	}

	common.RespondJSON(w, http.StatusOK, operationStatusView{
		OperationID:    state.OperationID,
		Status:         string(state.Status),
		StartedAtUTC:   state.StartedAt,
		CompletedAtUTC: state.CompletedAt,
		FailureCode:    state.ErrorCode,
	})
}
