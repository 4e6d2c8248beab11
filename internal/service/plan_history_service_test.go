package service

import (
	"context"
	"errors"
	"fitformula/api/internal/clock"
	"fitformula/api/internal/domain"
	"fitformula/api/internal/repository"
	"fitformula/api/internal/repository/memory"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var historyEpoch = time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

func newHistoryService(t *testing.T) (PlanHistoryService, *memory.PlanHistoryRepository) {
	t.Helper()
	repo := memory.NewPlanHistoryRepository(clock.NewMonotonic(clock.NewFakeClock(historyEpoch)))
	return NewPlanHistoryService(repo), repo
}

func as(userID string) *domain.Identity {
	return &domain.Identity{UserID: userID, Email: userID + "@example.com"}
}

func input(userID string, t domain.PlanType, content string) domain.PlanHistoryInput {
	return domain.PlanHistoryInput{UserID: userID, Type: t, Content: content}
}

func TestSaveThenListRoundTrip(t *testing.T) {
	svc, _ := newHistoryService(t)
	ctx := context.Background()

	in := domain.PlanHistoryInput{
		UserID:  "u1",
		Type:    domain.PlanTypeMeal,
		Content: "# Meal plan\n\nOats",
		Metadata: domain.Metadata{
			"calculations": map[string]interface{}{"bmr": 1650.5},
		},
	}
	id, err := svc.Save(ctx, as("u1"), in)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	items, err := svc.List(ctx, as("u1"), "u1", "")
	require.NoError(t, err)
	require.Len(t, items, 1)

	got := items[0]
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, domain.PlanTypeMeal, got.Type)
	assert.Equal(t, in.Content, got.Content)
	assert.Equal(t, in.Metadata, got.Metadata)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestListNewestFirst(t *testing.T) {
	svc, _ := newHistoryService(t)
	ctx := context.Background()

	var ids []string
	for _, c := range []string{"first", "second", "third"} {
		id, err := svc.Save(ctx, as("u1"), input("u1", domain.PlanTypeWorkout, c))
		require.NoError(t, err)
		ids = append(ids, id)
	}

	items, err := svc.List(ctx, as("u1"), "u1", "")
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, []string{ids[2], ids[1], ids[0]}, []string{items[0].ID, items[1].ID, items[2].ID})
	for i := 1; i < len(items); i++ {
		assert.True(t, items[i-1].CreatedAt.After(items[i].CreatedAt))
	}
}

func TestListFilterPartitionsHistory(t *testing.T) {
	svc, _ := newHistoryService(t)
	ctx := context.Background()

	saves := []domain.PlanType{domain.PlanTypeMeal, domain.PlanTypeWorkout, domain.PlanTypeMeal, domain.PlanTypeWorkout, domain.PlanTypeMeal}
	for i, pt := range saves {
		_, err := svc.Save(ctx, as("u1"), input("u1", pt, string(pt)+" "+string(rune('a'+i))))
		require.NoError(t, err)
	}

	all, err := svc.List(ctx, as("u1"), "u1", "")
	require.NoError(t, err)
	meals, err := svc.List(ctx, as("u1"), "u1", domain.PlanTypeMeal)
	require.NoError(t, err)
	workouts, err := svc.List(ctx, as("u1"), "u1", domain.PlanTypeWorkout)
	require.NoError(t, err)

	assert.Len(t, meals, 3)
	assert.Len(t, workouts, 2)
	for _, it := range meals {
		assert.Equal(t, domain.PlanTypeMeal, it.Type)
	}
	for _, it := range workouts {
		assert.Equal(t, domain.PlanTypeWorkout, it.Type)
	}

	union := map[string]bool{}
	for _, it := range append(meals, workouts...) {
		union[it.ID] = true
	}
	require.Len(t, union, len(all))
	for _, it := range all {
		assert.True(t, union[it.ID])
	}
}

func TestListIsolatesUsers(t *testing.T) {
	svc, _ := newHistoryService(t)
	ctx := context.Background()

	_, err := svc.Save(ctx, as("u1"), input("u1", domain.PlanTypeMeal, "mine"))
	require.NoError(t, err)
	_, err = svc.Save(ctx, as("u2"), input("u2", domain.PlanTypeMeal, "theirs"))
	require.NoError(t, err)

	items, err := svc.List(ctx, as("u2"), "u2", "")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "u2", items[0].UserID)
	assert.Equal(t, "theirs", items[0].Content)
}

func TestListEmptyBaseline(t *testing.T) {
	svc, _ := newHistoryService(t)

	for _, pt := range []domain.PlanType{"", domain.PlanTypeMeal, domain.PlanTypeWorkout} {
		items, err := svc.List(context.Background(), as("fresh"), "fresh", pt)
		require.NoError(t, err)
		assert.NotNil(t, items)
		assert.Empty(t, items)
	}
}

func TestSaveDeniedWritesNothing(t *testing.T) {
	svc, repo := newHistoryService(t)
	ctx := context.Background()

	_, err := svc.Save(ctx, nil, input("u1", domain.PlanTypeMeal, "anon"))
	var authErr *AuthorizationError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "u1", authErr.UserID)

	_, err = svc.Save(ctx, as("u2"), input("u1", domain.PlanTypeMeal, "impersonated"))
	require.ErrorAs(t, err, &authErr)

	var unavailable *StoreUnavailableError
	assert.False(t, errors.As(err, &unavailable))
	assert.Equal(t, 0, repo.Len())

	items, err := svc.List(ctx, as("u1"), "u1", "")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestSaveStoreRefusalIsAuthorizationError(t *testing.T) {
	svc, repo := newHistoryService(t)
	repo.Deny = func(op, userID string) error {
		return repository.ErrPermissionDenied
	}

	_, err := svc.Save(context.Background(), as("u1"), input("u1", domain.PlanTypeWorkout, "x"))
	var authErr *AuthorizationError
	assert.ErrorAs(t, err, &authErr)
	assert.Equal(t, 0, repo.Len())
}

func TestSaveOutageIsStoreUnavailable(t *testing.T) {
	svc, repo := newHistoryService(t)
	outage := errors.New("connection refused")
	repo.Deny = func(op, userID string) error { return outage }

	_, err := svc.Save(context.Background(), as("u1"), input("u1", domain.PlanTypeWorkout, "x"))
	var unavailable *StoreUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, "save", unavailable.Op)
	assert.ErrorIs(t, err, outage)

	var authErr *AuthorizationError
	assert.False(t, errors.As(err, &authErr))
}

func TestSaveValidation(t *testing.T) {
	svc, repo := newHistoryService(t)
	cases := map[string]domain.PlanHistoryInput{
		"missing user":  input("", domain.PlanTypeMeal, "x"),
		"unknown type":  input("u1", "snack", "x"),
		"empty content": input("u1", domain.PlanTypeMeal, ""),
		"blank content": input("u1", domain.PlanTypeMeal, "  \n"),
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Save(context.Background(), as("u1"), in)
			assert.ErrorIs(t, err, ErrValidationFailed)
		})
	}
	assert.Equal(t, 0, repo.Len())
}

func TestListFailsOpenOnDeniedReads(t *testing.T) {
	svc, repo := newHistoryService(t)
	ctx := context.Background()
	_, err := svc.Save(ctx, as("u1"), input("u1", domain.PlanTypeMeal, "private"))
	require.NoError(t, err)

	items, err := svc.List(ctx, as("u2"), "u1", "")
	require.NoError(t, err)
	assert.Empty(t, items)

	items, err = svc.List(ctx, nil, "u1", "")
	require.NoError(t, err)
	assert.Empty(t, items)

	repo.Deny = func(op, userID string) error {
		if op == "find" {
			return repository.ErrPermissionDenied
		}
		return nil
	}
	items, err = svc.List(ctx, as("u1"), "u1", "")
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestListOutageIsStoreUnavailable(t *testing.T) {
	svc, repo := newHistoryService(t)
	repo.Deny = func(op, userID string) error { return errors.New("timeout") }

	items, err := svc.List(context.Background(), as("u1"), "u1", "")
	assert.Nil(t, items)
	var unavailable *StoreUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, "list", unavailable.Op)
}

func TestListRejectsUnknownType(t *testing.T) {
	svc, _ := newHistoryService(t)
	_, err := svc.List(context.Background(), as("u1"), "u1", "snack")
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestGetOnlyReturnsOwnPlans(t *testing.T) {
	svc, _ := newHistoryService(t)
	ctx := context.Background()
	id, err := svc.Save(ctx, as("u1"), input("u1", domain.PlanTypeWorkout, "legs"))
	require.NoError(t, err)

	item, err := svc.Get(ctx, as("u1"), id)
	require.NoError(t, err)
	assert.Equal(t, "legs", item.Content)

	_, err = svc.Get(ctx, as("u2"), id)
	assert.ErrorIs(t, err, ErrPlanNotFound)

	_, err = svc.Get(ctx, nil, id)
	assert.ErrorIs(t, err, ErrPlanNotFound)

	_, err = svc.Get(ctx, as("u1"), "000000000000000000000000")
	assert.ErrorIs(t, err, ErrPlanNotFound)
}

func TestUserHistoryScenario(t *testing.T) {
	svc, _ := newHistoryService(t)
	ctx := context.Background()
	u1 := as("u1")

	mealID, err := svc.Save(ctx, u1, domain.PlanHistoryInput{
		UserID:   "u1",
		Type:     domain.PlanTypeMeal,
		Content:  "# Day 1\n...",
		Metadata: domain.Metadata{"bmr": 1650, "tdee": 2200, "target_calories": 1900},
	})
	require.NoError(t, err)
	workoutID, err := svc.Save(ctx, u1, domain.PlanHistoryInput{
		UserID:  "u1",
		Type:    domain.PlanTypeWorkout,
		Content: "Day A: Squats...",
	})
	require.NoError(t, err)

	all, err := svc.List(ctx, u1, "u1", "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, workoutID, all[0].ID)
	assert.Equal(t, "Day A: Squats...", all[0].Content)
	assert.Equal(t, mealID, all[1].ID)
	assert.Equal(t, "# Day 1\n...", all[1].Content)
	assert.Equal(t, domain.Metadata{"bmr": 1650, "tdee": 2200, "target_calories": 1900}, all[1].Metadata)

	meals, err := svc.List(ctx, u1, "u1", domain.PlanTypeMeal)
	require.NoError(t, err)
	require.Len(t, meals, 1)
	assert.Equal(t, mealID, meals[0].ID)
	assert.Equal(t, domain.PlanTypeMeal, meals[0].Type)
}
