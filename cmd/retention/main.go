package main

import (
	"context"
	"log"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"go.uber.org/zap"

	"chessmate-backend/application/ports"
	"chessmate-backend/application/retention"
	"chessmate-backend/infrastructure/config"
	ddb "chessmate-backend/infrastructure/dynamodb"
	"chessmate-backend/pkg/observability"
)

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	var logger *zap.Logger
	if cfg.IsDevelopment() {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		logger.Fatal("Failed to load AWS configuration", zap.Error(err))
	}
	client := awsdynamodb.NewFromConfig(awsCfg)

	stores := []ports.RetentionStore{
		ddb.NewRetentionStore(client, cfg.OperationTable),
		ddb.NewRetentionStore(client, cfg.AnalysisBatchTable),
		ddb.NewRetentionStore(client, cfg.GameIndexTable),
	}

	sweeper := retention.NewSweeper(stores, ports.ClockFunc(time.Now), logger, observability.NewCollector("chessmate"))

	results, err := sweeper.Run(ctx)
	if err != nil {
		logger.Fatal("Retention sweep failed", zap.Error(err))
	}

	for _, result := range results {
		logger.Info("Retention sweep finished",
			zap.String("table", result.Table),
			zap.Int("scanned", result.Scanned),
			zap.Int("deleted", result.Deleted),
			zap.Int("failures", result.Failures),
		)
	}
}
