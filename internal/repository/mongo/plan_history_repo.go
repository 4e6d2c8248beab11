// internal/repository/mongo/plan_history_repo.go
package mongo

import (
	"context"
	"errors"
	"fitformula/api/internal/clock"
	"fitformula/api/internal/domain"
	"fitformula/api/internal/repository"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const planHistoryCollectionName = "planHistory"

// planHistoryDocument is the stored shape of a domain.PlanHistoryItem.
type planHistoryDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	UserID    string             `bson:"userId"`
	Type      string             `bson:"type"`
	Content   string             `bson:"content"`
	Metadata  domain.Metadata    `bson:"metadata,omitempty"`
	CreatedAt time.Time          `bson:"createdAt"`
}

func (d planHistoryDocument) toDomain() domain.PlanHistoryItem {
	return domain.PlanHistoryItem{
		ID:        d.ID.Hex(),
		UserID:    d.UserID,
		Type:      domain.PlanType(d.Type),
		Content:   d.Content,
		Metadata:  normalizeMetadata(d.Metadata),
		CreatedAt: d.CreatedAt.UTC(),
	}
}

// normalizeMetadata turns decoded bson.M and bson.A values back into plain
// maps and slices, the shapes callers stored.
func normalizeMetadata(md domain.Metadata) domain.Metadata {
	if md == nil {
		return nil
	}
	out := make(domain.Metadata, len(md))
	for k, v := range md {
		out[k] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v interface{}) interface{} {
	switch t := v.(type) {
	case primitive.M:
		m := make(map[string]interface{}, len(t))
		for k, inner := range t {
			m[k] = normalizeValue(inner)
		}
		return m
	case map[string]interface{}:
		m := make(map[string]interface{}, len(t))
		for k, inner := range t {
			m[k] = normalizeValue(inner)
		}
		return m
	case primitive.A:
		s := make([]interface{}, len(t))
		for i, inner := range t {
			s[i] = normalizeValue(inner)
		}
		return s
	case primitive.D:
		m := make(map[string]interface{}, len(t))
		for _, e := range t {
			m[e.Key] = normalizeValue(e.Value)
		}
		return m
	default:
		return v
	}
}

// mongoPlanHistoryRepository implements repository.PlanHistoryRepository
type mongoPlanHistoryRepository struct {
	collection *mongo.Collection
	clock      clock.Clock
}

// NewMongoPlanHistoryRepository creates a plan history repository. CreatedAt is
// stamped from c so that ordering never depends on a client-supplied time.
func NewMongoPlanHistoryRepository(db *mongo.Database, c clock.Clock) repository.PlanHistoryRepository {
	if c == nil {
		c = clock.NewMonotonic(clock.SystemClock{})
	}
	return &mongoPlanHistoryRepository{
		collection: db.Collection(planHistoryCollectionName),
		clock:      c,
	}
}

// Append inserts a new history item.
func (r *mongoPlanHistoryRepository) Append(ctx context.Context, item *domain.PlanHistoryItem) (string, error) {
	if item.UserID == "" || item.Content == "" || !item.Type.Valid() {
		return "", errors.New("plan history item requires userId, a valid type, and content")
	}

	doc := planHistoryDocument{
		ID:        primitive.NewObjectID(),
		UserID:    item.UserID,
		Type:      string(item.Type),
		Content:   item.Content,
		Metadata:  item.Metadata,
		CreatedAt: r.clock.Now(),
	}

	result, err := r.collection.InsertOne(ctx, doc)
	if err != nil {
		return "", classifyError(err)
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", errors.New("failed to convert inserted plan history ID")
	}

	item.ID = insertedID.Hex()
	item.CreatedAt = doc.CreatedAt
	return item.ID, nil
}

// Find runs a typed history query.
func (r *mongoPlanHistoryRepository) Find(ctx context.Context, q repository.HistoryQuery) ([]domain.PlanHistoryItem, error) {
	findOptions := options.Find().SetSort(historySort(q))

	cursor, err := r.collection.Find(ctx, historyFilter(q), findOptions)
	if err != nil {
		return nil, classifyError(err)
	}
	defer cursor.Close(ctx)

	var docs []planHistoryDocument
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, classifyError(err)
	}

	items := make([]domain.PlanHistoryItem, len(docs))
	for i, d := range docs {
		items[i] = d.toDomain()
	}
	return items, nil
}

// GetByID retrieves a single history item by its ID.
func (r *mongoPlanHistoryRepository) GetByID(ctx context.Context, id string) (*domain.PlanHistoryItem, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, repository.ErrNotFound
	}

	var doc planHistoryDocument
	err = r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if err != nil {
		return nil, classifyError(err)
	}
	item := doc.toDomain()
	return &item, nil
}

// historyFilter translates the typed query's predicate into a bson filter.
func historyFilter(q repository.HistoryQuery) bson.D {
	filter := bson.D{{Key: "userId", Value: q.Filter.UserID}}
	if q.Filter.Type != "" {
		filter = append(filter, bson.E{Key: "type", Value: string(q.Filter.Type)})
	}
	return filter
}

// historySort translates the typed query's order. _id breaks createdAt ties.
func historySort(q repository.HistoryQuery) bson.D {
	dir := -1
	if q.Order == repository.OldestFirst {
		dir = 1
	}
	return bson.D{{Key: "createdAt", Value: dir}, {Key: "_id", Value: dir}}
}

// EnsurePlanHistoryIndexes creates the indexes backing history queries. Call during startup.
func EnsurePlanHistoryIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			// Unfiltered history listing for a user
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}},
			Options: options.Index(),
		},
		{
			// History narrowed to one plan type
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "type", Value: 1}, {Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}},
			Options: options.Index(),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
