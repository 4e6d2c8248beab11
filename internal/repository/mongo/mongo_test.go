package mongo

import (
	"encoding/json"
	"errors"
	"fitformula/api/internal/domain"
	"fitformula/api/internal/repository"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsonrw"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestHistoryFilter(t *testing.T) {
	all := historyFilter(repository.NewHistoryQuery("u1"))
	assert.Equal(t, bson.D{{Key: "userId", Value: "u1"}}, all)

	meals := historyFilter(repository.NewHistoryQuery("u1").OfType(domain.PlanTypeMeal))
	assert.Equal(t, bson.D{{Key: "userId", Value: "u1"}, {Key: "type", Value: "meal"}}, meals)
}

func TestHistorySort(t *testing.T) {
	desc := historySort(repository.NewHistoryQuery("u1"))
	assert.Equal(t, bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}, desc)

	asc := historySort(repository.NewHistoryQuery("u1").Ordered(repository.OldestFirst))
	assert.Equal(t, bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}, asc)
}

func TestClassifyError(t *testing.T) {
	assert.NoError(t, classifyError(nil))
	assert.ErrorIs(t, classifyError(mongo.ErrNoDocuments), repository.ErrNotFound)

	denied := mongo.CommandError{Code: 13, Name: "Unauthorized", Message: "not authorized on fitformula"}
	assert.ErrorIs(t, classifyError(denied), repository.ErrPermissionDenied)

	writeDenied := mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 13, Message: "denied"}}}
	assert.ErrorIs(t, classifyError(writeDenied), repository.ErrPermissionDenied)

	dup := mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 11000, Message: "E11000 duplicate key"}}}
	assert.ErrorIs(t, classifyError(dup), repository.ErrDuplicate)

	// Message text alone never triggers the permission mapping.
	other := errors.New("permission-denied: connection reset")
	assert.Equal(t, other, classifyError(other))
}

func TestPlanHistoryDocumentToDomain(t *testing.T) {
	oid := primitive.NewObjectID()
	created := time.Date(2025, 2, 1, 8, 0, 0, 0, time.UTC)
	doc := planHistoryDocument{
		ID:        oid,
		UserID:    "u1",
		Type:      "workout",
		Content:   "Day A: Squats",
		Metadata:  domain.Metadata{"goals": "strength"},
		CreatedAt: created,
	}

	item := doc.toDomain()
	assert.Equal(t, oid.Hex(), item.ID)
	assert.Equal(t, domain.PlanTypeWorkout, item.Type)
	assert.Equal(t, created, item.CreatedAt)
	assert.Equal(t, "strength", item.Metadata["goals"])
}

func TestNormalizeMetadata(t *testing.T) {
	md := domain.Metadata{
		"calculations": primitive.M{"bmr": 1500.0},
		"exercises":    primitive.A{primitive.M{"name": "Squat"}},
		"formData":     primitive.D{{Key: "goal", Value: "lose"}},
		"note":         "kept",
	}

	got := normalizeMetadata(md)
	assert.Equal(t, map[string]interface{}{"bmr": 1500.0}, got["calculations"])
	assert.Equal(t, []interface{}{map[string]interface{}{"name": "Squat"}}, got["exercises"])
	assert.Equal(t, map[string]interface{}{"goal": "lose"}, got["formData"])
	assert.Equal(t, "kept", got["note"])
	assert.Nil(t, normalizeMetadata(nil))
}

// Decodes the way the client built by ConnectDB does (DefaultDocumentM).
func TestPlanHistoryDocumentBSONRoundTrip(t *testing.T) {
	created := time.Date(2025, 3, 1, 10, 30, 0, 123000000, time.UTC)
	metadata := domain.Metadata{
		"calculations": map[string]interface{}{"bmr": 1650, "tdee": 2200, "target_calories": 1900},
		"formData": map[string]interface{}{
			"goal":      "lose",
			"equipment": []string{"dumbbells", "bench"},
			"weight":    72.5,
		},
	}
	doc := planHistoryDocument{
		ID:        primitive.NewObjectID(),
		UserID:    "u1",
		Type:      "meal",
		Content:   "## Breakfast\nOats",
		Metadata:  metadata,
		CreatedAt: created,
	}

	raw, err := bson.Marshal(doc)
	require.NoError(t, err)
	dec, err := bson.NewDecoder(bsonrw.NewBSONDocumentReader(raw))
	require.NoError(t, err)
	dec.DefaultDocumentM()

	var decoded planHistoryDocument
	require.NoError(t, dec.Decode(&decoded))
	item := decoded.toDomain()

	assert.Equal(t, doc.ID.Hex(), item.ID)
	assert.Equal(t, "u1", item.UserID)
	assert.Equal(t, domain.PlanTypeMeal, item.Type)
	assert.Equal(t, doc.Content, item.Content)
	assert.True(t, created.Equal(item.CreatedAt), "createdAt %v", item.CreatedAt)

	// Numeric widths and slice element types change in BSON; the JSON the API serves does not.
	want, err := json.Marshal(metadata)
	require.NoError(t, err)
	got, err := json.Marshal(item.Metadata)
	require.NoError(t, err)
	assert.JSONEq(t, string(want), string(got))

	formData, ok := item.Metadata["formData"].(map[string]interface{})
	require.True(t, ok, "formData is %T", item.Metadata["formData"])
	assert.Equal(t, []interface{}{"dumbbells", "bench"}, formData["equipment"])
	_, ok = item.Metadata["calculations"].(map[string]interface{})
	assert.True(t, ok, "calculations is %T", item.Metadata["calculations"])
}
