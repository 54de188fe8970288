package dynamodb

import (
	"context"
	"encoding/json"
	"time"

	"deckgen-backend/application/ports"
	"deckgen-backend/domain/core/valueobjects"
	pkgerrors "deckgen-backend/pkg/errors"
	"deckgen-backend/pkg/observability"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

// historyRecord stores one deck's serialized edit history as a single item.
// The snapshot is kept as a JSON document so the payload format matches the
// wire format used everywhere else.
type historyRecord struct {
	PK        string `dynamodbav:"PK"`
	SK        string `dynamodbav:"SK"`
	DeckID    string `dynamodbav:"DeckID"`
	Snapshot  string `dynamodbav:"Snapshot"`
	UpdatedAt string `dynamodbav:"UpdatedAt"`
}

// HistoryStore implements ports.HistoryStore on DynamoDB
type HistoryStore struct {
	client    *awsdynamodb.Client
	tableName string
	logger    *zap.Logger
	metrics   *observability.Collector
}

// NewHistoryStore creates a DynamoDB-backed history store
func NewHistoryStore(client *awsdynamodb.Client, tableName string, logger *zap.Logger, metrics *observability.Collector) *HistoryStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HistoryStore{
		client:    client,
		tableName: tableName,
		logger:    logger,
		metrics:   metrics,
	}
}

// Save persists the deck's history snapshot, replacing any previous one
func (s *HistoryStore) Save(ctx context.Context, deckID valueobjects.DeckID, snapshot *ports.HistorySnapshot) error {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return pkgerrors.NewDatabaseError("marshal history", err)
	}

	record := historyRecord{
		PK:        historyPK(deckID),
		SK:        "SNAPSHOT",
		DeckID:    deckID.String(),
		Snapshot:  string(payload),
		UpdatedAt: time.Now().Format(time.RFC3339Nano),
	}
	item, err := attributevalue.MarshalMap(record)
	if err != nil {
		return pkgerrors.NewDatabaseError("marshal history record", err)
	}

	start := time.Now()
	_, err = s.client.PutItem(ctx, &awsdynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      item,
	})
	s.observe("history.save", start, err)
	if err != nil {
		return pkgerrors.NewDatabaseError("save history", err)
	}

	s.logger.Debug("history snapshot saved",
		zap.String("deckId", deckID.String()),
		zap.Int("commands", len(snapshot.Commands)))
	return nil
}

// Load retrieves the deck's history snapshot; missing decks yield a
// not-found error.
func (s *HistoryStore) Load(ctx context.Context, deckID valueobjects.DeckID) (*ports.HistorySnapshot, error) {
	start := time.Now()
	out, err := s.client.GetItem(ctx, &awsdynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: historyPK(deckID)},
			"SK": &types.AttributeValueMemberS{Value: "SNAPSHOT"},
		},
	})
	s.observe("history.load", start, err)
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("load history", err)
	}
	if out.Item == nil {
		return nil, pkgerrors.NewNotFoundError("history for deck " + deckID.String())
	}

	record := historyRecord{}
	if err := attributevalue.UnmarshalMap(out.Item, &record); err != nil {
		return nil, pkgerrors.NewDatabaseError("unmarshal history record", err)
	}

	snapshot := &ports.HistorySnapshot{}
	if err := json.Unmarshal([]byte(record.Snapshot), snapshot); err != nil {
		return nil, pkgerrors.NewDatabaseError("decode history snapshot", err)
	}
	return snapshot, nil
}

// Delete removes the deck's stored history snapshot
func (s *HistoryStore) Delete(ctx context.Context, deckID valueobjects.DeckID) error {
	start := time.Now()
	_, err := s.client.DeleteItem(ctx, &awsdynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: historyPK(deckID)},
			"SK": &types.AttributeValueMemberS{Value: "SNAPSHOT"},
		},
	})
	s.observe("history.delete", start, err)
	if err != nil {
		return pkgerrors.NewDatabaseError("delete history", err)
	}
	return nil
}

func (s *HistoryStore) observe(operation string, start time.Time, err error) {
	if s.metrics != nil {
		s.metrics.ObserveDB(operation, time.Since(start), err)
	}
}

func historyPK(deckID valueobjects.DeckID) string { return "HISTORY#" + deckID.String() }
