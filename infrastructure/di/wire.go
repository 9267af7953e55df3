//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"github.com/google/wire"

	"chessmate-backend/infrastructure/config"
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideClock,
	ProvideCollector,
	ProvideAWSConfig,
	ProvideDynamoDBClient,
	ProvideOperationStateStore,
	ProvideAnalysisBatchStore,
	ProvideGameIndexStore,
	ProvideCoachMoveGenerator,
	ProvideArchiveClient,
	ProvideIdempotencyService,
	ProvideActivityRunner,
	ProvideOrchestrator,
	ProvideBatchCoachService,
	ProvideGamesService,
	ProvideRouter,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	wire.Build(SuperSet)
	return nil, nil // Wire will replace this
}
