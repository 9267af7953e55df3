package dynamodb

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"chessmate-backend/application/ports"
	appErrors "chessmate-backend/pkg/errors"
)

// RetentionStore enumerates and deletes expired rows in one table. DynamoDB
// TTL already reclaims rows eventually; the sweeper enforces the retention
// deadline promptly.
type RetentionStore struct {
	dbClient  *dynamodb.Client
	tableName string
}

func NewRetentionStore(dbClient *dynamodb.Client, tableName string) *RetentionStore {
	return &RetentionStore{dbClient: dbClient, tableName: tableName}
}

func (s *RetentionStore) TableName() string { return s.tableName }

func (s *RetentionStore) ScanExpired(ctx context.Context, now time.Time) ([]ports.RetentionItem, error) {
	filter := expression.Name("ExpiresAt").LessThan(expression.Value(now.Unix()))
	expr, err := expression.NewBuilder().WithFilter(filter).Build()
	if err != nil {
		return nil, appErrors.Wrap(err, "failed to build retention scan filter")
	}

	var items []ports.RetentionItem
	var startKey map[string]types.AttributeValue

	for {
		result, err := s.dbClient.Scan(ctx, &dynamodb.ScanInput{
			TableName:                 aws.String(s.tableName),
			FilterExpression:          expr.Filter(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
			ProjectionExpression:      aws.String("PK, SK"),
			ExclusiveStartKey:         startKey,
		})
		if err != nil {
			return nil, appErrors.Wrap(err, "failed to scan expired rows")
		}

		for _, raw := range result.Items {
			var item ports.RetentionItem
			if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
				return nil, appErrors.Wrap(err, "failed to unmarshal expired row key")
			}
			items = append(items, item)
		}

		if result.LastEvaluatedKey == nil {
			break
		}
		startKey = result.LastEvaluatedKey
	}

	return items, nil
}

func (s *RetentionStore) Delete(ctx context.Context, item ports.RetentionItem) error {
	_, err := s.dbClient.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: item.PK},
			"SK": &types.AttributeValueMemberS{Value: item.SK},
		},
	})
	if err != nil {
		return appErrors.Wrap(err, "failed to delete expired row")
	}
	return nil
}
