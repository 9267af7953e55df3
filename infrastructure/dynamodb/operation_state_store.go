package dynamodb

import (
	"context"
	"errors"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"chessmate-backend/domain/coaching"
	appErrors "chessmate-backend/pkg/errors"
)

// ddbOperationItem is the persisted shape of an operation record. The same
// shape backs both the primary row and the request-index mirror row.
type ddbOperationItem struct {
	PK              string `dynamodbav:"PK"`
	SK              string `dynamodbav:"SK"`
	OperationID     string `dynamodbav:"OperationId"`
	IdempotencyKey  string `dynamodbav:"IdempotencyKey"`
	RequestHash     string `dynamodbav:"RequestHash"`
	Status          string `dynamodbav:"Status"`
	StartedAt       string `dynamodbav:"StartedAt"`
	CompletedAt     string `dynamodbav:"CompletedAt,omitempty"`
	ResponsePayload string `dynamodbav:"ResponsePayload,omitempty"`
	ErrorCode       string `dynamodbav:"ErrorCode,omitempty"`
	Version         int64  `dynamodbav:"Version"`
	ExpiresAt       int64  `dynamodbav:"ExpiresAt"`
	SchemaVersion   string `dynamodbav:"SchemaVersion"`
}

// OperationStateStore persists operation records in DynamoDB.
type OperationStateStore struct {
	dbClient  *dynamodb.Client
	tableName string
	logger    *zap.Logger
}

func NewOperationStateStore(dbClient *dynamodb.Client, tableName string, logger *zap.Logger) *OperationStateStore {
	return &OperationStateStore{
		dbClient:  dbClient,
		tableName: tableName,
		logger:    logger.Named("operation_store"),
	}
}

func (s *OperationStateStore) GetByOperationID(ctx context.Context, operationID string) (*coaching.OperationState, error) {
	item, err := s.getItem(ctx, operationID)
	if err != nil || item == nil {
		return nil, err
	}
	return mapOperationItem(*item)
}

func (s *OperationStateStore) GetByRequestIdentity(ctx context.Context, idempotencyKey, requestHash string) (*coaching.OperationState, error) {
	keyCond := expression.Key("PK").Equal(expression.Value(BuildRequestPK(requestHash)))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, appErrors.Wrap(err, "failed to build request identity query")
	}

	result, err := s.dbClient.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(s.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		return nil, appErrors.Wrap(err, "failed to query operation state by request identity")
	}

	for _, raw := range result.Items {
		var item ddbOperationItem
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			return nil, appErrors.Wrap(err, "failed to unmarshal request index item")
		}
		// The index partition is a hash prefix, so the full identity
		// still has to match.
		if item.IdempotencyKey != idempotencyKey || item.RequestHash != requestHash {
			continue
		}

		// The mirror row may lag the primary; the primary wins.
		state, err := s.GetByOperationID(ctx, item.OperationID)
		if err != nil {
			return nil, err
		}
		if state != nil {
			return state, nil
		}
	}

	return nil, nil
}

func (s *OperationStateStore) TryCreateRunning(ctx context.Context, operationID, idempotencyKey, requestHash string, startedAt time.Time) (bool, error) {
	item := ddbOperationItem{
		PK:             BuildOperationPK(operationID),
		SK:             operationRowKey,
		OperationID:    operationID,
		IdempotencyKey: idempotencyKey,
		RequestHash:    requestHash,
		Status:         string(coaching.StatusRunning),
		StartedAt:      startedAt.Format(time.RFC3339Nano),
		Version:        1,
		ExpiresAt:      CalculateExpiresAt(startedAt),
		SchemaVersion:  schemaVersion,
	}

	itemMap, err := attributevalue.MarshalMap(item)
	if err != nil {
		return false, appErrors.Wrap(err, "failed to marshal operation state")
	}

	_, err = s.dbClient.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.tableName),
		Item:                itemMap,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			s.logger.Warn("operation state create conflict",
				zap.String("operationId", operationID))
			return false, nil
		}
		return false, appErrors.Wrap(err, "failed to create operation state")
	}

	// Mirror into the request index only after the primary insert wins,
	// so index writes never race the create.
	if err := s.putIndexMirror(ctx, item); err != nil {
		return false, err
	}

	s.logger.Info("operation state created",
		zap.String("operationId", operationID),
		zap.String("status", string(coaching.StatusRunning)))
	return true, nil
}

func (s *OperationStateStore) TrySetTerminalStatus(ctx context.Context, operationID string, status coaching.OperationStatus, completedAt time.Time, responsePayload, errorCode string) (bool, error) {
	current, err := s.getItem(ctx, operationID)
	if err != nil {
		return false, err
	}
	if current == nil {
		return false, nil
	}

	if coaching.OperationStatus(current.Status).IsTerminal() {
		s.logger.Warn("operation state already terminal",
			zap.String("operationId", operationID),
			zap.String("currentStatus", current.Status),
			zap.String("requestedStatus", string(status)))
		return false, nil
	}

	updated := *current
	updated.Status = string(status)
	updated.CompletedAt = completedAt.Format(time.RFC3339Nano)
	updated.ResponsePayload = responsePayload
	updated.ErrorCode = errorCode
	updated.Version = current.Version + 1

	itemMap, err := attributevalue.MarshalMap(updated)
	if err != nil {
		return false, appErrors.Wrap(err, "failed to marshal operation state update")
	}

	cond := expression.Name("Version").Equal(expression.Value(current.Version))
	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		return false, appErrors.Wrap(err, "failed to build version condition")
	}

	_, err = s.dbClient.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 aws.String(s.tableName),
		Item:                      itemMap,
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			// Another resolver transitioned the record first.
			return false, nil
		}
		return false, appErrors.Wrap(err, "failed to update operation state")
	}

	if err := s.putIndexMirror(ctx, updated); err != nil {
		return false, err
	}

	s.logger.Info("operation state transitioned",
		zap.String("operationId", operationID),
		zap.String("status", string(status)))
	return true, nil
}

func (s *OperationStateStore) getItem(ctx context.Context, operationID string) (*ddbOperationItem, error) {
	result, err := s.dbClient.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: BuildOperationPK(operationID)},
			"SK": &types.AttributeValueMemberS{Value: operationRowKey},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, appErrors.Wrap(err, "failed to get operation state")
	}
	if result.Item == nil {
		return nil, nil
	}

	var item ddbOperationItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, appErrors.Wrap(err, "failed to unmarshal operation state")
	}
	return &item, nil
}

func (s *OperationStateStore) putIndexMirror(ctx context.Context, item ddbOperationItem) error {
	mirror := item
	mirror.PK = BuildRequestPK(item.RequestHash)
	mirror.SK = BuildRequestSK(item.OperationID)

	itemMap, err := attributevalue.MarshalMap(mirror)
	if err != nil {
		return appErrors.Wrap(err, "failed to marshal request index mirror")
	}

	_, err = s.dbClient.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      itemMap,
	})
	if err != nil {
		return appErrors.Wrap(err, "failed to write request index mirror")
	}
	return nil
}

func mapOperationItem(item ddbOperationItem) (*coaching.OperationState, error) {
	startedAt, err := time.Parse(time.RFC3339Nano, item.StartedAt)
	if err != nil {
		return nil, appErrors.Wrap(err, "invalid StartedAt on operation state")
	}

	state := &coaching.OperationState{
		OperationID:     item.OperationID,
		IdempotencyKey:  item.IdempotencyKey,
		RequestHash:     item.RequestHash,
		Status:          coaching.OperationStatus(item.Status),
		StartedAt:       startedAt,
		ResponsePayload: item.ResponsePayload,
		ErrorCode:       item.ErrorCode,
		Version:         item.Version,
	}

	if item.CompletedAt != "" {
		completedAt, err := time.Parse(time.RFC3339Nano, item.CompletedAt)
		if err != nil {
			return nil, appErrors.Wrap(err, "invalid CompletedAt on operation state")
		}
		state.CompletedAt = &completedAt
	}

	return state, nil
}
