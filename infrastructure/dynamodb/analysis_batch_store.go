package dynamodb

import (
	"context"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"go.uber.org/zap"

	appErrors "chessmate-backend/pkg/errors"
)

type ddbAnalysisBatchItem struct {
	PK              string `dynamodbav:"PK"`
	SK              string `dynamodbav:"SK"`
	GameID          string `dynamodbav:"GameId"`
	OperationID     string `dynamodbav:"OperationId"`
	ResponsePayload string `dynamodbav:"ResponsePayload"`
	CompletedAt     string `dynamodbav:"CompletedAt"`
	ExpiresAt       int64  `dynamodbav:"ExpiresAt"`
	SchemaVersion   string `dynamodbav:"SchemaVersion"`
}

// AnalysisBatchStore archives terminal batch responses keyed by game.
type AnalysisBatchStore struct {
	dbClient  *dynamodb.Client
	tableName string
	logger    *zap.Logger
}

func NewAnalysisBatchStore(dbClient *dynamodb.Client, tableName string, logger *zap.Logger) *AnalysisBatchStore {
	return &AnalysisBatchStore{
		dbClient:  dbClient,
		tableName: tableName,
		logger:    logger.Named("analysis_batch_store"),
	}
}

func (s *AnalysisBatchStore) Put(ctx context.Context, gameID, operationID, responsePayload string, completedAt time.Time) error {
	item := ddbAnalysisBatchItem{
		PK:              BuildGamePK(gameID),
		SK:              BuildRequestSK(operationID),
		GameID:          gameID,
		OperationID:     operationID,
		ResponsePayload: responsePayload,
		CompletedAt:     completedAt.Format(time.RFC3339Nano),
		ExpiresAt:       CalculateExpiresAt(completedAt),
		SchemaVersion:   schemaVersion,
	}

	itemMap, err := attributevalue.MarshalMap(item)
	if err != nil {
		return appErrors.Wrap(err, "failed to marshal analysis batch artifact")
	}

	_, err = s.dbClient.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      itemMap,
	})
	if err != nil {
		return appErrors.Wrap(err, "failed to store analysis batch artifact")
	}

	s.logger.Info("analysis batch archived",
		zap.String("gameId", gameID),
		zap.String("operationId", operationID))
	return nil
}

func (s *AnalysisBatchStore) GetLatest(ctx context.Context, gameID string) (string, error) {
	keyCond := expression.Key("PK").Equal(expression.Value(BuildGamePK(gameID)))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return "", appErrors.Wrap(err, "failed to build analysis batch query")
	}

	result, err := s.dbClient.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(s.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		return "", appErrors.Wrap(err, "failed to query analysis batch artifacts")
	}
	if len(result.Items) == 0 {
		return "", nil
	}

	items := make([]ddbAnalysisBatchItem, 0, len(result.Items))
	for _, raw := range result.Items {
		var item ddbAnalysisBatchItem
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			return "", appErrors.Wrap(err, "failed to unmarshal analysis batch artifact")
		}
		items = append(items, item)
	}

	sort.Slice(items, func(i, j int) bool { return items[i].CompletedAt > items[j].CompletedAt })
	return items[0].ResponsePayload, nil
}
