package handlers

import (
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	appgames "chessmate-backend/application/games"
	"chessmate-backend/pkg/common"
	appErrors "chessmate-backend/pkg/errors"
)

// defaultGamesPageSize is the only page size the endpoint serves today.
const defaultGamesPageSize = 12

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,30}$`)

// GamesHandler handles game listing endpoints
type GamesHandler struct {
	service *appgames.Service
	logger  *zap.Logger
}

// NewGamesHandler creates a new games handler
func NewGamesHandler(service *appgames.Service, logger *zap.Logger) *GamesHandler {
	return &GamesHandler{
		service: service,
		logger:  logger,
	}
}

// GetGames handles GET /games?username=&page=&pageSize=
func (h *GamesHandler) GetGames(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(r.URL.Query().Get("username"))
	if !usernamePattern.MatchString(username) {
		common.RespondError(w, r, http.StatusBadRequest, "ValidationError",
			"username must be 3-30 characters of letters, digits, underscore or hyphen.")
		return
	}

	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			common.RespondError(w, r, http.StatusBadRequest, "ValidationError", "page must be a positive integer.")
			return
		}
		page = parsed
	}

	if raw := r.URL.Query().Get("pageSize"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed != defaultGamesPageSize {
			common.RespondError(w, r, http.StatusBadRequest, "ValidationError",
				"pageSize must be "+strconv.Itoa(defaultGamesPageSize)+".")
			return
		}
	}

	result, err := h.service.GetGamesPage(r.Context(), username, page, defaultGamesPageSize)
	if err != nil {
		h.logger.Error("games page fetch failed",
			zap.String("username", username),
			zap.Int("page", page),
			zap.Error(err))
		if appErrors.IsUnavailable(err) {
			common.RespondError(w, r, http.StatusBadGateway, "UpstreamUnavailable",
				"chess.com could not be reached. Please try again shortly.")
			return
		}
		common.RespondError(w, r, http.StatusInternalServerError, "InternalError", "An unexpected error occurred.")
		return
	}

	common.RespondJSON(w, http.StatusOK, result)
}
