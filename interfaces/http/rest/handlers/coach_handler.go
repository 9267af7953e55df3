package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	appcoaching "chessmate-backend/application/coaching"
	"chessmate-backend/domain/coaching"
	"chessmate-backend/pkg/common"
	appErrors "chessmate-backend/pkg/errors"
)

// maxCoachRequestBytes caps the inbound batch-coach payload.
const maxCoachRequestBytes = 256 << 10

const duplicateInFlightMessage = "A request with the same Idempotency-Key is already in flight. Please retry after the original operation completes."

// CoachHandler handles the batch coaching endpoint
type CoachHandler struct {
	service  *appcoaching.BatchCoachService
	validate *validator.Validate
	logger   *zap.Logger
}

// NewCoachHandler creates a new coach handler
func NewCoachHandler(service *appcoaching.BatchCoachService, logger *zap.Logger) *CoachHandler {
	return &CoachHandler{
		service:  service,
		validate: validator.New(),
		logger:   logger,
	}
}

// BatchCoach handles POST /analysis/batch-coach
func (h *CoachHandler) BatchCoach(w http.ResponseWriter, r *http.Request) {
	idempotencyKey := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	if idempotencyKey == "" {
		common.RespondError(w, r, http.StatusBadRequest, coaching.CodeValidationError, "Idempotency-Key header is required.")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxCoachRequestBytes))
	if err != nil {
		common.RespondError(w, r, http.StatusBadRequest, coaching.CodeValidationError, "Request body could not be read or exceeds the size limit.")
		return
	}

	var request coaching.BatchCoachRequest
	if err := json.Unmarshal(body, &request); err != nil {
		common.RespondError(w, r, http.StatusBadRequest, coaching.CodeValidationError, "Request body is not valid JSON.")
		return
	}

	if err := h.validate.Struct(&request); err != nil {
		common.RespondErrorWithDetails(w, r, http.StatusBadRequest, coaching.CodeValidationError,
			"Request validation failed.", validationDetails(err))
		return
	}

	h.logger.Info("batch coach request accepted",
		zap.String("idempotencyKey", common.RedactIdempotencyKey(idempotencyKey)),
		zap.String("gameId", request.GameID),
		zap.Int("moveCount", len(request.Moves)))

	outcome, err := h.service.Run(r.Context(), idempotencyKey, string(body), &request)
	if err != nil {
		h.respondRunError(w, r, err)
		return
	}

	switch outcome.Decision.Kind {
	case appcoaching.DecisionConflict:
		common.RespondError(w, r, http.StatusConflict, "DuplicateInFlight", duplicateInFlightMessage)
	default:
		common.RespondJSON(w, http.StatusOK, outcome.Response)
	}
}

func (h *CoachHandler) respondRunError(w http.ResponseWriter, r *http.Request, err error) {
	if appErrors.IsValidation(err) {
		common.RespondError(w, r, http.StatusBadRequest, coaching.CodeValidationError, appErrors.UserMessage(err))
		return
	}

	h.logger.Error("batch coach request failed", zap.Error(err))
	if appErrors.IsUnavailable(err) {
		common.RespondError(w, r, http.StatusBadGateway, coaching.CodeOrchestrationFailed,
			"Coaching generation did not complete. The operation was recorded as failed; retry with a new Idempotency-Key.")
		return
	}
	common.RespondError(w, r, http.StatusInternalServerError, "InternalError", "An unexpected error occurred.")
}

// validationDetails flattens validator errors into a field -> messages map.
func validationDetails(err error) map[string][]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}

	details := make(map[string][]string, len(verrs))
	for _, fe := range verrs {
		field := fe.Namespace()
		details[field] = append(details[field], "failed on rule "+fe.Tag())
	}
	return details
}
