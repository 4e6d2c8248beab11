// Package memory holds in-process repository implementations used for local
// development and as deterministic fakes in tests.
package memory

import (
	"context"
	"errors"
	"fitformula/api/internal/clock"
	"fitformula/api/internal/domain"
	"fitformula/api/internal/repository"
	"reflect"
	"sort"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PlanHistoryRepository implements repository.PlanHistoryRepository in memory.
type PlanHistoryRepository struct {
	mu    sync.RWMutex
	clock clock.Clock
	items []domain.PlanHistoryItem

	// Deny, when set, is consulted before every operation. Returning a non-nil
	// error makes the call fail with it. Tests use it to simulate access rules
	// and outages of the backing store.
	Deny func(op string, userID string) error
}

// NewPlanHistoryRepository creates an empty repository stamping CreatedAt from c.
func NewPlanHistoryRepository(c clock.Clock) *PlanHistoryRepository {
	if c == nil {
		c = clock.NewMonotonic(clock.SystemClock{})
	}
	return &PlanHistoryRepository{clock: c}
}

func (r *PlanHistoryRepository) Append(ctx context.Context, item *domain.PlanHistoryItem) (string, error) {
	if item.UserID == "" || item.Content == "" || !item.Type.Valid() {
		return "", errors.New("plan history item requires userId, a valid type, and content")
	}
	if err := r.check(ctx, "append", item.UserID); err != nil {
		return "", err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	item.ID = primitive.NewObjectID().Hex()
	item.CreatedAt = r.clock.Now()

	stored := *item
	stored.Metadata = copyMetadata(item.Metadata)
	r.items = append(r.items, stored)
	return item.ID, nil
}

func (r *PlanHistoryRepository) Find(ctx context.Context, q repository.HistoryQuery) ([]domain.PlanHistoryItem, error) {
	if err := r.check(ctx, "find", q.Filter.UserID); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.PlanHistoryItem, 0)
	for _, it := range r.items {
		if q.Matches(it) {
			it.Metadata = copyMetadata(it.Metadata)
			out = append(out, it)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return q.Less(out[i], out[j]) })
	return out, nil
}

func (r *PlanHistoryRepository) GetByID(ctx context.Context, id string) (*domain.PlanHistoryItem, error) {
	if err := r.check(ctx, "get", ""); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, it := range r.items {
		if it.ID == id {
			it.Metadata = copyMetadata(it.Metadata)
			return &it, nil
		}
	}
	return nil, repository.ErrNotFound
}

// Len returns the number of stored items.
func (r *PlanHistoryRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

func (r *PlanHistoryRepository) check(ctx context.Context, op, userID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.Deny != nil {
		return r.Deny(op, userID)
	}
	return nil
}

// copyMetadata deep-copies m so neither the caller that saved a record nor
// the callers that read it can reach the stored maps and slices.
func copyMetadata(m domain.Metadata) domain.Metadata {
	if m == nil {
		return nil
	}
	out := make(domain.Metadata, len(m))
	for k, v := range m {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v interface{}) interface{} {
	switch t := v.(type) {
	case nil:
		return nil
	case domain.Metadata:
		return copyMetadata(t)
	case map[string]interface{}:
		m := make(map[string]interface{}, len(t))
		for k, inner := range t {
			m[k] = copyValue(inner)
		}
		return m
	case []interface{}:
		s := make([]interface{}, len(t))
		for i, inner := range t {
			s[i] = copyValue(inner)
		}
		return s
	}

	// Typed maps and slices, e.g. []string or map[string]float64
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map:
		if rv.IsNil() {
			return v
		}
		m := reflect.MakeMapWithSize(rv.Type(), rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			m.SetMapIndex(iter.Key(), copyReflect(iter.Value()))
		}
		return m.Interface()
	case reflect.Slice:
		if rv.IsNil() {
			return v
		}
		s := reflect.MakeSlice(rv.Type(), rv.Len(), rv.Len())
		for i := 0; i < rv.Len(); i++ {
			s.Index(i).Set(copyReflect(rv.Index(i)))
		}
		return s.Interface()
	default:
		return v
	}
}

func copyReflect(v reflect.Value) reflect.Value {
	if !v.IsValid() || !v.CanInterface() {
		return v
	}
	if v.Kind() == reflect.Interface && v.IsNil() {
		return v
	}
	copied := copyValue(v.Interface())
	if copied == nil {
		return reflect.Zero(v.Type())
	}
	return reflect.ValueOf(copied).Convert(v.Type())
}
