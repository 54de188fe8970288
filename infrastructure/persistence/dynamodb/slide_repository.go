// Package dynamodb implements slide and history persistence on DynamoDB
// using a single-table layout per entity type.
package dynamodb

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"time"

	"deckgen-backend/domain/core/entities"
	"deckgen-backend/domain/core/valueobjects"
	pkgerrors "deckgen-backend/pkg/errors"
	"deckgen-backend/pkg/observability"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

// SlideIDIndexName is the GSI used for direct slide lookups; the base
// table is keyed by deck.
const SlideIDIndexName = "SlideIdIndex"

// slideRecord is the DynamoDB representation of a slide.
// PK = DECK#<deckID>, SK = SLIDE#<slideID>; GSI1PK = SLIDE#<slideID>
// supports lookups without knowing the deck.
type slideRecord struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	SlideID    string `dynamodbav:"SlideID"`
	DeckID     string `dynamodbav:"DeckID"`
	SlideOrder int    `dynamodbav:"SlideOrder"`
	Title      string `dynamodbav:"Title"`
	Body       string `dynamodbav:"Body"`
	Layout     string `dynamodbav:"Layout"`
	Notes      string `dynamodbav:"Notes"`
	Background string `dynamodbav:"Background"`
	Version    int    `dynamodbav:"Version"`
	CreatedAt  string `dynamodbav:"CreatedAt"`
	UpdatedAt  string `dynamodbav:"UpdatedAt"`
	GSI1PK     string `dynamodbav:"GSI1PK"`
	GSI1SK     string `dynamodbav:"GSI1SK"`
}

// SlideRepository implements ports.SlideRepository on DynamoDB
type SlideRepository struct {
	client    *awsdynamodb.Client
	tableName string
	logger    *zap.Logger
	metrics   *observability.Collector
}

// NewSlideRepository creates a DynamoDB-backed slide repository
func NewSlideRepository(client *awsdynamodb.Client, tableName string, logger *zap.Logger, metrics *observability.Collector) *SlideRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SlideRepository{
		client:    client,
		tableName: tableName,
		logger:    logger,
		metrics:   metrics,
	}
}

// GetByID retrieves a slide via the slide-id GSI
func (r *SlideRepository) GetByID(ctx context.Context, id valueobjects.SlideID) (*entities.Slide, error) {
	record, err := r.findRecord(ctx, id)
	if err != nil {
		return nil, err
	}
	return recordToSlide(record)
}

// Create persists a new slide and reindexes its deck
func (r *SlideRepository) Create(ctx context.Context, slide *entities.Slide) error {
	start := time.Now()
	record := slideToRecord(slide)
	item, err := attributevalue.MarshalMap(record)
	if err != nil {
		return pkgerrors.NewDatabaseError("marshal slide", err)
	}

	_, err = r.client.PutItem(ctx, &awsdynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	r.observe("slide.create", start, err)
	if err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			return pkgerrors.NewConflictError("slide already exists: " + slide.ID().String())
		}
		return pkgerrors.NewDatabaseError("create slide", err)
	}

	return r.reindexDeck(ctx, slide.DeckID(), slide.ID(), slide.Order())
}

// Update persists slide changes, reindexing the deck when the order index
// changed.
func (r *SlideRepository) Update(ctx context.Context, slide *entities.Slide) error {
	existing, err := r.findRecord(ctx, slide.ID())
	if err != nil {
		return err
	}

	start := time.Now()
	record := slideToRecord(slide)
	item, marshalErr := attributevalue.MarshalMap(record)
	if marshalErr != nil {
		return pkgerrors.NewDatabaseError("marshal slide", marshalErr)
	}

	_, err = r.client.PutItem(ctx, &awsdynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	r.observe("slide.update", start, err)
	if err != nil {
		return pkgerrors.NewDatabaseError("update slide", err)
	}

	if existing.SlideOrder != slide.Order() {
		return r.reindexDeck(ctx, slide.DeckID(), slide.ID(), slide.Order())
	}
	return nil
}

// Delete removes a slide and closes the ordering gap in its deck
func (r *SlideRepository) Delete(ctx context.Context, id valueobjects.SlideID) error {
	record, err := r.findRecord(ctx, id)
	if err != nil {
		return err
	}

	start := time.Now()
	_, err = r.client.DeleteItem(ctx, &awsdynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: record.PK},
			"SK": &types.AttributeValueMemberS{Value: record.SK},
		},
	})
	r.observe("slide.delete", start, err)
	if err != nil {
		return pkgerrors.NewDatabaseError("delete slide", err)
	}

	deckID, err := valueobjects.NewDeckIDFromString(record.DeckID)
	if err != nil {
		return pkgerrors.NewDatabaseError("delete slide", err)
	}
	return r.reindexDeck(ctx, deckID, valueobjects.SlideID{}, 0)
}

// ListByDeck retrieves all slides of a deck ordered by their index
func (r *SlideRepository) ListByDeck(ctx context.Context, deckID valueobjects.DeckID) ([]*entities.Slide, error) {
	records, err := r.queryDeck(ctx, deckID)
	if err != nil {
		return nil, err
	}

	slides := make([]*entities.Slide, 0, len(records))
	for i := range records {
		slide, err := recordToSlide(&records[i])
		if err != nil {
			return nil, err
		}
		slides = append(slides, slide)
	}
	return slides, nil
}

// CountByDeck returns the number of slides in a deck
func (r *SlideRepository) CountByDeck(ctx context.Context, deckID valueobjects.DeckID) (int, error) {
	start := time.Now()
	expr, err := expression.NewBuilder().
		WithKeyCondition(expression.Key("PK").Equal(expression.Value(deckPK(deckID)))).
		Build()
	if err != nil {
		return 0, pkgerrors.NewDatabaseError("build count expression", err)
	}

	out, err := r.client.Query(ctx, &awsdynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		Select:                    types.SelectCount,
	})
	r.observe("slide.count", start, err)
	if err != nil {
		return 0, pkgerrors.NewDatabaseError("count slides", err)
	}
	return int(out.Count), nil
}

// findRecord resolves a slide record through the GSI
func (r *SlideRepository) findRecord(ctx context.Context, id valueobjects.SlideID) (*slideRecord, error) {
	start := time.Now()
	expr, err := expression.NewBuilder().
		WithKeyCondition(expression.Key("GSI1PK").Equal(expression.Value(slideGSIPK(id)))).
		Build()
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("build lookup expression", err)
	}

	out, err := r.client.Query(ctx, &awsdynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(SlideIDIndexName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		Limit:                     aws.Int32(1),
	})
	r.observe("slide.get", start, err)
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("get slide", err)
	}
	if len(out.Items) == 0 {
		return nil, pkgerrors.NewNotFoundError("slide " + id.String())
	}

	record := &slideRecord{}
	if err := attributevalue.UnmarshalMap(out.Items[0], record); err != nil {
		return nil, pkgerrors.NewDatabaseError("unmarshal slide", err)
	}
	return record, nil
}

// queryDeck returns the deck's records sorted by order index
func (r *SlideRepository) queryDeck(ctx context.Context, deckID valueobjects.DeckID) ([]slideRecord, error) {
	start := time.Now()
	expr, err := expression.NewBuilder().
		WithKeyCondition(expression.Key("PK").Equal(expression.Value(deckPK(deckID)))).
		Build()
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("build deck expression", err)
	}

	var records []slideRecord
	var lastKey map[string]types.AttributeValue
	for {
		out, err := r.client.Query(ctx, &awsdynamodb.QueryInput{
			TableName:                 aws.String(r.tableName),
			KeyConditionExpression:    expr.KeyCondition(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
			ExclusiveStartKey:         lastKey,
		})
		if err != nil {
			r.observe("slide.list", start, err)
			return nil, pkgerrors.NewDatabaseError("list slides", err)
		}

		var page []slideRecord
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, pkgerrors.NewDatabaseError("unmarshal slides", err)
		}
		records = append(records, page...)

		if out.LastEvaluatedKey == nil {
			break
		}
		lastKey = out.LastEvaluatedKey
	}
	r.observe("slide.list", start, nil)

	sort.Slice(records, func(i, j int) bool {
		if records[i].SlideOrder != records[j].SlideOrder {
			return records[i].SlideOrder < records[j].SlideOrder
		}
		return records[i].SlideID < records[j].SlideID
	})
	return records, nil
}

// reindexDeck renumbers the deck's slides to a dense 0..n-1 sequence,
// forcing the moved slide (when set) to the desired index. Only slides
// whose stored index actually changes are written back.
func (r *SlideRepository) reindexDeck(ctx context.Context, deckID valueobjects.DeckID, moved valueobjects.SlideID, desired int) error {
	records, err := r.queryDeck(ctx, deckID)
	if err != nil {
		return err
	}

	if !moved.IsZero() {
		filtered := make([]slideRecord, 0, len(records))
		var movedRecord *slideRecord
		for i := range records {
			if records[i].SlideID == moved.String() {
				movedRecord = &records[i]
				continue
			}
			filtered = append(filtered, records[i])
		}
		if movedRecord != nil {
			if desired < 0 {
				desired = 0
			}
			if desired > len(filtered) {
				desired = len(filtered)
			}
			filtered = append(filtered[:desired:desired], append([]slideRecord{*movedRecord}, filtered[desired:]...)...)
			records = filtered
		}
	}

	for i := range records {
		if records[i].SlideOrder == i {
			continue
		}
		start := time.Now()
		_, err := r.client.UpdateItem(ctx, &awsdynamodb.UpdateItemInput{
			TableName: aws.String(r.tableName),
			Key: map[string]types.AttributeValue{
				"PK": &types.AttributeValueMemberS{Value: records[i].PK},
				"SK": &types.AttributeValueMemberS{Value: records[i].SK},
			},
			UpdateExpression: aws.String("SET SlideOrder = :o"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":o": &types.AttributeValueMemberN{Value: strconv.Itoa(i)},
			},
		})
		r.observe("slide.reindex", start, err)
		if err != nil {
			return pkgerrors.NewDatabaseError("reindex slide", err)
		}
	}
	return nil
}

func (r *SlideRepository) observe(operation string, start time.Time, err error) {
	if r.metrics != nil {
		r.metrics.ObserveDB(operation, time.Since(start), err)
	}
}

func deckPK(deckID valueobjects.DeckID) string { return "DECK#" + deckID.String() }

func slideGSIPK(id valueobjects.SlideID) string { return "SLIDE#" + id.String() }

func slideToRecord(slide *entities.Slide) *slideRecord {
	return &slideRecord{
		PK:         deckPK(slide.DeckID()),
		SK:         "SLIDE#" + slide.ID().String(),
		SlideID:    slide.ID().String(),
		DeckID:     slide.DeckID().String(),
		SlideOrder: slide.Order(),
		Title:      slide.Title(),
		Body:       slide.Body(),
		Layout:     string(slide.Layout()),
		Notes:      slide.Notes(),
		Background: slide.Background(),
		Version:    slide.Version(),
		CreatedAt:  slide.CreatedAt().Format(time.RFC3339Nano),
		UpdatedAt:  slide.UpdatedAt().Format(time.RFC3339Nano),
		GSI1PK:     slideGSIPK(slide.ID()),
		GSI1SK:     "SLIDE#" + slide.ID().String(),
	}
}

func recordToSlide(record *slideRecord) (*entities.Slide, error) {
	id, err := valueobjects.NewSlideIDFromString(record.SlideID)
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("decode slide id", err)
	}
	deckID, err := valueobjects.NewDeckIDFromString(record.DeckID)
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("decode deck id", err)
	}

	createdAt, err := time.Parse(time.RFC3339Nano, record.CreatedAt)
	if err != nil {
		createdAt = time.Now()
	}
	updatedAt, err := time.Parse(time.RFC3339Nano, record.UpdatedAt)
	if err != nil {
		updatedAt = createdAt
	}

	fields := map[string]interface{}{
		entities.FieldTitle:      record.Title,
		entities.FieldBody:       record.Body,
		entities.FieldNotes:      record.Notes,
		entities.FieldBackground: record.Background,
	}
	if record.Layout != "" {
		fields[entities.FieldLayout] = record.Layout
	}

	return entities.ReconstructSlide(id, deckID, record.SlideOrder, fields, record.Version, createdAt, updatedAt)
}
