package mongo

import (
	"context"
	"errors"
	"fitformula/api/internal/clock"
	"fitformula/api/internal/domain"
	"fitformula/api/internal/repository"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const userCollectionName = "users"

// userDocument is the stored shape of a domain.User.
type userDocument struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	Name          string             `bson:"name"`
	Email         string             `bson:"email"`
	PasswordHash  string             `bson:"passwordHash,omitempty"`
	GoogleSubject string             `bson:"googleSubject,omitempty"`
	Provider      string             `bson:"provider"`
	CreatedAt     time.Time          `bson:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt"`
}

func (d userDocument) toDomain() *domain.User {
	return &domain.User{
		ID:            d.ID.Hex(),
		Name:          d.Name,
		Email:         d.Email,
		PasswordHash:  d.PasswordHash,
		GoogleSubject: d.GoogleSubject,
		Provider:      domain.AuthProvider(d.Provider),
		CreatedAt:     d.CreatedAt.UTC(),
		UpdatedAt:     d.UpdatedAt.UTC(),
	}
}

// mongoUserRepository implements the repository.UserRepository interface using MongoDB.
type mongoUserRepository struct {
	collection *mongo.Collection
	clock      clock.Clock
}

// NewMongoUserRepository creates a new instance of mongoUserRepository.
// It expects a connected *mongo.Database instance.
func NewMongoUserRepository(db *mongo.Database, c clock.Clock) repository.UserRepository {
	if c == nil {
		c = clock.SystemClock{}
	}
	return &mongoUserRepository{
		collection: db.Collection(userCollectionName),
		clock:      c,
	}
}

// Create inserts a new user into the database.
func (r *mongoUserRepository) Create(ctx context.Context, user *domain.User) (string, error) {
	if user.Email == "" || user.Provider == "" {
		return "", errors.New("user email and provider are required")
	}

	now := r.clock.Now()
	doc := userDocument{
		ID:            primitive.NewObjectID(),
		Name:          user.Name,
		Email:         strings.ToLower(user.Email),
		PasswordHash:  user.PasswordHash,
		GoogleSubject: user.GoogleSubject,
		Provider:      string(user.Provider),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	result, err := r.collection.InsertOne(ctx, doc)
	if err != nil {
		// Unique index on email / googleSubject surfaces as repository.ErrDuplicate
		return "", classifyError(err)
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", errors.New("failed to convert inserted ID")
	}

	user.ID = insertedID.Hex()
	user.Email = doc.Email
	user.CreatedAt = now
	user.UpdatedAt = now
	return user.ID, nil
}

// GetByEmail retrieves a user by their email address.
func (r *mongoUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"email": strings.ToLower(email)})
}

// GetByID retrieves a user by the hex form of their ObjectID.
func (r *mongoUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, repository.ErrNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

// GetByGoogleSubject retrieves the user linked to a Google account.
func (r *mongoUserRepository) GetByGoogleSubject(ctx context.Context, subject string) (*domain.User, error) {
	if subject == "" {
		return nil, repository.ErrNotFound
	}
	return r.findOne(ctx, bson.M{"googleSubject": subject})
}

// LinkGoogleSubject attaches a Google account to an existing user.
func (r *mongoUserRepository) LinkGoogleSubject(ctx context.Context, userID, subject string) error {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return repository.ErrNotFound
	}
	update := bson.M{
		"$set": bson.M{
			"googleSubject": subject,
			"updatedAt":     r.clock.Now(),
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return classifyError(err)
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *mongoUserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	var doc userDocument
	if err := r.collection.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, classifyError(err)
	}
	return doc.toDomain(), nil
}

// EnsureUserIndexes creates necessary indexes for the users collection.
// Call this once during application startup.
func EnsureUserIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			// Sparse because password users have no Google subject
			Keys:    bson.D{{Key: "googleSubject", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
