package di

import (
	"context"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	appcoaching "chessmate-backend/application/coaching"
	appgames "chessmate-backend/application/games"
	"chessmate-backend/application/ports"
	"chessmate-backend/infrastructure/chesscom"
	"chessmate-backend/infrastructure/config"
	ddb "chessmate-backend/infrastructure/dynamodb"
	"chessmate-backend/infrastructure/openai"
	"chessmate-backend/interfaces/http/rest"
	"chessmate-backend/pkg/observability"
)

// Container holds all application dependencies
type Container struct {
	Config            *config.Config
	Logger            *zap.Logger
	Clock             ports.Clock
	Collector         *observability.Collector
	OperationStore    ports.OperationStateStore
	AnalysisStore     ports.AnalysisBatchStore
	GameIndexStore    ports.GameIndexStore
	Generator         ports.CoachMoveGenerator
	ArchiveClient     ports.ArchiveClient
	IdempotencySvc    *appcoaching.IdempotencyService
	Orchestrator      *appcoaching.Orchestrator
	BatchCoachService *appcoaching.BatchCoachService
	GamesService      *appgames.Service
	Router            *rest.Router
}

// ProvideLogger builds the application logger from the configured level
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.IsDevelopment() {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err == nil {
		zapCfg.Level = zap.NewAtomicLevelAt(level)
	}

	return zapCfg.Build()
}

// ProvideClock supplies wall-clock time
func ProvideClock() ports.Clock {
	return ports.ClockFunc(time.Now)
}

// ProvideCollector creates the Prometheus metrics collector
func ProvideCollector() *observability.Collector {
	return observability.NewCollector("chessmate")
}

// ProvideAWSConfig loads the AWS SDK configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
}

// ProvideDynamoDBClient creates the DynamoDB client
func ProvideDynamoDBClient(awsCfg aws.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg)
}

// ProvideOperationStateStore creates the operation-state store
func ProvideOperationStateStore(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.OperationStateStore {
	return ddb.NewOperationStateStore(client, cfg.OperationTable, logger)
}

// ProvideAnalysisBatchStore creates the analysis artifact archive
func ProvideAnalysisBatchStore(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.AnalysisBatchStore {
	return ddb.NewAnalysisBatchStore(client, cfg.AnalysisBatchTable, logger)
}

// ProvideGameIndexStore creates the cached game index
func ProvideGameIndexStore(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.GameIndexStore {
	return ddb.NewGameIndexStore(client, cfg.GameIndexTable, logger)
}

// ProvideCoachMoveGenerator creates the OpenAI-backed coach generator
func ProvideCoachMoveGenerator(cfg *config.Config, logger *zap.Logger) ports.CoachMoveGenerator {
	return openai.NewGenerator(cfg.OpenAI, logger)
}

// ProvideArchiveClient creates the chess.com archive client
func ProvideArchiveClient(cfg *config.Config, logger *zap.Logger) ports.ArchiveClient {
	httpClient := &http.Client{Timeout: 30 * time.Second}
	return chesscom.NewClient(httpClient, cfg.ChessComBaseURL, logger)
}

// ProvideIdempotencyService creates the idempotency service
func ProvideIdempotencyService(store ports.OperationStateStore, clock ports.Clock, logger *zap.Logger, collector *observability.Collector) *appcoaching.IdempotencyService {
	return appcoaching.NewIdempotencyService(store, clock, logger, collector)
}

// ProvideActivityRunner creates the per-move generation runner
func ProvideActivityRunner(generator ports.CoachMoveGenerator, logger *zap.Logger, collector *observability.Collector) appcoaching.ActivityRunner {
	return appcoaching.NewGeneratorActivityRunner(generator, logger, collector)
}

// ProvideOrchestrator creates the fan-out orchestrator
func ProvideOrchestrator(runner appcoaching.ActivityRunner, clock ports.Clock, logger *zap.Logger, cfg *config.Config) *appcoaching.Orchestrator {
	return appcoaching.NewOrchestratorWithBudgets(runner, clock, logger, appcoaching.TimeoutBudgets{
		Quick: cfg.QuickTimeoutBudget,
		Deep:  cfg.DeepTimeoutBudget,
	})
}

// ProvideBatchCoachService creates the batch coaching workflow
func ProvideBatchCoachService(
	idempotency *appcoaching.IdempotencyService,
	orchestrator *appcoaching.Orchestrator,
	batchStore ports.AnalysisBatchStore,
	clock ports.Clock,
	logger *zap.Logger,
) *appcoaching.BatchCoachService {
	return appcoaching.NewBatchCoachService(idempotency, orchestrator, batchStore, clock, logger)
}

// ProvideGamesService creates the TTL-cached games listing service
func ProvideGamesService(
	index ports.GameIndexStore,
	archive ports.ArchiveClient,
	clock ports.Clock,
	logger *zap.Logger,
	collector *observability.Collector,
) *appgames.Service {
	return appgames.NewService(index, archive, clock, logger, collector)
}

// ProvideRouter creates the HTTP router
func ProvideRouter(
	coachService *appcoaching.BatchCoachService,
	gamesService *appgames.Service,
	stateStore ports.OperationStateStore,
	collector *observability.Collector,
	logger *zap.Logger,
	cfg *config.Config,
) *rest.Router {
	return rest.NewRouter(coachService, gamesService, stateStore, collector, logger, cfg.EnableCORS)
}
