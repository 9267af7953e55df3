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

	"chessmate-backend/domain/games"
	appErrors "chessmate-backend/pkg/errors"
)

type ddbGameIndexItem struct {
	PK            string `dynamodbav:"PK"`
	SK            string `dynamodbav:"SK"`
	GameID        string `dynamodbav:"GameId"`
	PlayedAt      string `dynamodbav:"PlayedAt"`
	Opponent      string `dynamodbav:"Opponent"`
	Result        string `dynamodbav:"Result"`
	Opening       string `dynamodbav:"Opening"`
	TimeControl   string `dynamodbav:"TimeControl"`
	URL           string `dynamodbav:"Url"`
	PGN           string `dynamodbav:"Pgn,omitempty"`
	InitialFen    string `dynamodbav:"InitialFen,omitempty"`
	IngestedAt    string `dynamodbav:"IngestedAt"`
	ExpiresAt     int64  `dynamodbav:"ExpiresAt"`
	SchemaVersion string `dynamodbav:"SchemaVersion"`
}

// GameIndexStore caches normalized player game lists in DynamoDB.
type GameIndexStore struct {
	dbClient  *dynamodb.Client
	tableName string
	logger    *zap.Logger
}

func NewGameIndexStore(dbClient *dynamodb.Client, tableName string, logger *zap.Logger) *GameIndexStore {
	return &GameIndexStore{
		dbClient:  dbClient,
		tableName: tableName,
		logger:    logger.Named("game_index_store"),
	}
}

func (s *GameIndexStore) GetPlayerGames(ctx context.Context, username string) ([]games.GameSummary, error) {
	keyCond := expression.Key("PK").Equal(expression.Value(BuildPlayerPK(username)))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, appErrors.Wrap(err, "failed to build player games query")
	}

	result, err := s.dbClient.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(s.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		return nil, appErrors.Wrap(err, "failed to query player games")
	}

	summaries := make([]games.GameSummary, 0, len(result.Items))
	for _, raw := range result.Items {
		var item ddbGameIndexItem
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			return nil, appErrors.Wrap(err, "failed to unmarshal game index item")
		}
		summary, err := mapGameIndexItem(item)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, summary)
	}

	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].PlayedAtUTC.Equal(summaries[j].PlayedAtUTC) {
			return summaries[i].GameID < summaries[j].GameID
		}
		return summaries[i].PlayedAtUTC.After(summaries[j].PlayedAtUTC)
	})
	return summaries, nil
}

func (s *GameIndexStore) UpsertPlayerGames(ctx context.Context, username string, summaries []games.GameSummary, ingestedAt time.Time) error {
	for _, summary := range summaries {
		item := ddbGameIndexItem{
			PK:            BuildPlayerPK(username),
			SK:            BuildGamePK(summary.GameID),
			GameID:        summary.GameID,
			PlayedAt:      summary.PlayedAtUTC.Format(time.RFC3339Nano),
			Opponent:      summary.Opponent,
			Result:        summary.Result,
			Opening:       summary.Opening,
			TimeControl:   summary.TimeControl,
			URL:           summary.URL,
			PGN:           summary.PGN,
			InitialFen:    summary.InitialFen,
			IngestedAt:    ingestedAt.Format(time.RFC3339Nano),
			ExpiresAt:     CalculateExpiresAt(ingestedAt),
			SchemaVersion: schemaVersion,
		}

		itemMap, err := attributevalue.MarshalMap(item)
		if err != nil {
			return appErrors.Wrap(err, "failed to marshal game index item")
		}

		if _, err := s.dbClient.PutItem(ctx, &dynamodb.PutItemInput{
			TableName: aws.String(s.tableName),
			Item:      itemMap,
		}); err != nil {
			return appErrors.Wrap(err, "failed to upsert game index item")
		}
	}

	s.logger.Info("player games upserted",
		zap.String("username", username),
		zap.Int("count", len(summaries)))
	return nil
}

func mapGameIndexItem(item ddbGameIndexItem) (games.GameSummary, error) {
	playedAt, err := time.Parse(time.RFC3339Nano, item.PlayedAt)
	if err != nil {
		return games.GameSummary{}, appErrors.Wrap(err, "invalid PlayedAt on game index item")
	}
	ingestedAt, err := time.Parse(time.RFC3339Nano, item.IngestedAt)
	if err != nil {
		return games.GameSummary{}, appErrors.Wrap(err, "invalid IngestedAt on game index item")
	}

	return games.GameSummary{
		GameID:        item.GameID,
		PlayedAtUTC:   playedAt,
		Opponent:      item.Opponent,
		Result:        item.Result,
		Opening:       item.Opening,
		TimeControl:   item.TimeControl,
		URL:           item.URL,
		PGN:           item.PGN,
		InitialFen:    item.InitialFen,
		IngestedAtUTC: ingestedAt,
	}, nil
}
