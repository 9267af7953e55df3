package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	appcoaching "chessmate-backend/application/coaching"
	appgames "chessmate-backend/application/games"
	"chessmate-backend/application/ports"
	"chessmate-backend/interfaces/http/rest/handlers"
	"chessmate-backend/interfaces/http/rest/middleware"
	"chessmate-backend/pkg/observability"
)

// Router creates and configures the HTTP router
type Router struct {
	coachService *appcoaching.BatchCoachService
	gamesService *appgames.Service
	stateStore   ports.OperationStateStore
	collector    *observability.Collector
	logger       *zap.Logger
	enableCORS   bool
}

// NewRouter creates a new router instance
func NewRouter(
	coachService *appcoaching.BatchCoachService,
	gamesService *appgames.Service,
	stateStore ports.OperationStateStore,
	collector *observability.Collector,
	logger *zap.Logger,
	enableCORS bool,
) *Router {
	return &Router{
		coachService: coachService,
		gamesService: gamesService,
		stateStore:   stateStore,
		collector:    collector,
		logger:       logger,
		enableCORS:   enableCORS,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(rt.logger))
	router.Use(middleware.Metrics(rt.collector))

	if rt.enableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"http://localhost:3000", "https://*.chessmate.app"},
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "Idempotency-Key", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	// Health check
	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)
	router.Method(http.MethodGet, "/metrics", rt.collector.Handler())

	// API v1 routes
	router.Route("/api/v1", func(r chi.Router) {
		coachHandler := handlers.NewCoachHandler(rt.coachService, rt.logger)
		r.Post("/analysis/batch-coach", coachHandler.BatchCoach)

		gamesHandler := handlers.NewGamesHandler(rt.gamesService, rt.logger)
		r.Get("/games", gamesHandler.GetGames)

		r.Route("/operations", func(r chi.Router) {
			operationHandler := handlers.NewOperationHandler(rt.stateStore, rt.logger)
			r.Get("/{operationID}", operationHandler.GetOperationStatus)
		})
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

// readinessCheck handles readiness check requests
func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}
