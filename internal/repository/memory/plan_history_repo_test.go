package memory

import (
	"context"
	"errors"
	"fitformula/api/internal/clock"
	"fitformula/api/internal/domain"
	"fitformula/api/internal/repository"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepo() (*PlanHistoryRepository, *clock.FakeClock) {
	fake := clock.NewFakeClock(time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC))
	return NewPlanHistoryRepository(clock.NewMonotonic(fake)), fake
}

func TestAppendAssignsIDAndTimestamp(t *testing.T) {
	repo, _ := newRepo()
	item := &domain.PlanHistoryItem{UserID: "u1", Type: domain.PlanTypeMeal, Content: "# Day 1"}

	id, err := repo.Append(context.Background(), item)
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Equal(t, id, item.ID)
	assert.Equal(t, time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC), item.CreatedAt)
	assert.Equal(t, 1, repo.Len())
}

func TestAppendRejectsIncompleteItems(t *testing.T) {
	repo, _ := newRepo()
	cases := []domain.PlanHistoryItem{
		{Type: domain.PlanTypeMeal, Content: "x"},
		{UserID: "u1", Type: "snack", Content: "x"},
		{UserID: "u1", Type: domain.PlanTypeWorkout},
	}
	for _, c := range cases {
		c := c
		_, err := repo.Append(context.Background(), &c)
		assert.Error(t, err)
	}
	assert.Equal(t, 0, repo.Len())
}

func TestFindOrdersAndFilters(t *testing.T) {
	repo, _ := newRepo()
	ctx := context.Background()
	for _, typ := range []domain.PlanType{domain.PlanTypeMeal, domain.PlanTypeWorkout, domain.PlanTypeMeal} {
		_, err := repo.Append(ctx, &domain.PlanHistoryItem{UserID: "u1", Type: typ, Content: string(typ)})
		require.NoError(t, err)
	}
	_, err := repo.Append(ctx, &domain.PlanHistoryItem{UserID: "u2", Type: domain.PlanTypeMeal, Content: "other"})
	require.NoError(t, err)

	all, err := repo.Find(ctx, repository.NewHistoryQuery("u1"))
	require.NoError(t, err)
	require.Len(t, all, 3)
	for i := 1; i < len(all); i++ {
		assert.True(t, all[i-1].CreatedAt.After(all[i].CreatedAt))
	}

	meals, err := repo.Find(ctx, repository.NewHistoryQuery("u1").OfType(domain.PlanTypeMeal))
	require.NoError(t, err)
	assert.Len(t, meals, 2)

	oldest, err := repo.Find(ctx, repository.NewHistoryQuery("u1").Ordered(repository.OldestFirst))
	require.NoError(t, err)
	assert.Equal(t, all[2].ID, oldest[0].ID)
}

func TestFindEmptyIsNotNil(t *testing.T) {
	repo, _ := newRepo()
	items, err := repo.Find(context.Background(), repository.NewHistoryQuery("nobody"))
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestDenyHookFailsOperations(t *testing.T) {
	repo, _ := newRepo()
	boom := errors.New("boom")
	repo.Deny = func(op, userID string) error { return boom }

	_, err := repo.Append(context.Background(), &domain.PlanHistoryItem{UserID: "u1", Type: domain.PlanTypeMeal, Content: "x"})
	assert.ErrorIs(t, err, boom)
	_, err = repo.Find(context.Background(), repository.NewHistoryQuery("u1"))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, repo.Len())
}

func TestGetByIDNotFound(t *testing.T) {
	repo, _ := newRepo()
	_, err := repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestStoredMetadataIsIsolatedFromCallers(t *testing.T) {
	repo, _ := newRepo()
	ctx := context.Background()
	calcs := map[string]interface{}{"bmr": 1650}
	equipment := []string{"dumbbells"}
	item := &domain.PlanHistoryItem{
		UserID:  "u1",
		Type:    domain.PlanTypeMeal,
		Content: "# Day 1",
		Metadata: domain.Metadata{
			"calculations": calcs,
			"formData":     map[string]interface{}{"equipment": equipment},
		},
	}
	_, err := repo.Append(ctx, item)
	require.NoError(t, err)

	// Mutations by the saving caller
	calcs["bmr"] = 0
	equipment[0] = "barbell"

	found, err := repo.Find(ctx, repository.NewHistoryQuery("u1"))
	require.NoError(t, err)
	require.Len(t, found, 1)

	// Mutations by a reading caller
	found[0].Metadata["calculations"].(map[string]interface{})["tdee"] = "injected"
	found[0].Metadata["formData"].(map[string]interface{})["equipment"].([]string)[0] = "kettlebell"

	again, err := repo.GetByID(ctx, found[0].ID)
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"bmr": 1650}, again.Metadata["calculations"])
	assert.Equal(t, map[string]interface{}{"equipment": []string{"dumbbells"}}, again.Metadata["formData"])
}
