package service

import (
	"context"
	"errors"
	"fitformula/api/internal/domain"
	"fitformula/api/internal/repository"
	"fmt"
	"strings"
)

// --- Error Definitions ---
var (
	ErrValidationFailed = errors.New("validation failed")
	ErrPlanNotFound     = errors.New("plan not found")
)

// AuthorizationError means the caller may not write under the given user.
// It is never retried and is distinct from StoreUnavailableError.
type AuthorizationError struct {
	UserID string // the owner the caller tried to write as
	Reason string
}

func (e *AuthorizationError) Error() string {
	if e.Reason != "" {
		return "not authorized: " + e.Reason
	}
	return "not authorized"
}

// StoreUnavailableError wraps an infrastructure failure of the history store.
// The caller decides whether to retry.
type StoreUnavailableError struct {
	Op  string
	Err error
}

func (e *StoreUnavailableError) Error() string {
	return fmt.Sprintf("plan history %s: store unavailable: %v", e.Op, e.Err)
}

func (e *StoreUnavailableError) Unwrap() error { return e.Err }

// --- Service Interface ---
type PlanHistoryService interface {
	// Save appends a plan to actor's history and returns its new ID.
	Save(ctx context.Context, actor *domain.Identity, in domain.PlanHistoryInput) (string, error)
	// List returns userID's history newest first, optionally narrowed to planType.
	// Reads the actor is not allowed to make come back empty rather than failing.
	List(ctx context.Context, actor *domain.Identity, userID string, planType domain.PlanType) ([]domain.PlanHistoryItem, error)
	// Get returns one of actor's own plans.
	Get(ctx context.Context, actor *domain.Identity, id string) (*domain.PlanHistoryItem, error)
}

// --- Service Implementation ---

type planHistoryService struct {
	repo repository.PlanHistoryRepository
}

// NewPlanHistoryService creates the plan history store over repo.
func NewPlanHistoryService(repo repository.PlanHistoryRepository) PlanHistoryService {
	return &planHistoryService{repo: repo}
}

func (s *planHistoryService) Save(ctx context.Context, actor *domain.Identity, in domain.PlanHistoryInput) (string, error) {
	if actor == nil {
		return "", &AuthorizationError{UserID: in.UserID, Reason: "must be signed in to save plans"}
	}
	if err := validateInput(in); err != nil {
		return "", err
	}
	if !actor.Owns(in.UserID) {
		return "", &AuthorizationError{UserID: in.UserID, Reason: "cannot save plans for another user"}
	}

	item := in.Item()
	id, err := s.repo.Append(ctx, &item)
	if err != nil {
		if errors.Is(err, repository.ErrPermissionDenied) {
			return "", &AuthorizationError{UserID: in.UserID, Reason: "store refused the write"}
		}
		return "", &StoreUnavailableError{Op: "save", Err: err}
	}
	return id, nil
}

func (s *planHistoryService) List(ctx context.Context, actor *domain.Identity, userID string, planType domain.PlanType) ([]domain.PlanHistoryItem, error) {
	if planType != "" && !planType.Valid() {
		return nil, fmt.Errorf("%w: unknown plan type %q", ErrValidationFailed, planType)
	}
	// Denied reads look exactly like an empty history.
	if !actor.Owns(userID) {
		return []domain.PlanHistoryItem{}, nil
	}

	items, err := s.repo.Find(ctx, repository.NewHistoryQuery(userID).OfType(planType))
	if err != nil {
		if errors.Is(err, repository.ErrPermissionDenied) {
			return []domain.PlanHistoryItem{}, nil
		}
		return nil, &StoreUnavailableError{Op: "list", Err: err}
	}
	if items == nil {
		items = []domain.PlanHistoryItem{}
	}
	return items, nil
}

func (s *planHistoryService) Get(ctx context.Context, actor *domain.Identity, id string) (*domain.PlanHistoryItem, error) {
	if actor == nil || id == "" {
		return nil, ErrPlanNotFound
	}
	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) || errors.Is(err, repository.ErrPermissionDenied) {
			return nil, ErrPlanNotFound
		}
		return nil, &StoreUnavailableError{Op: "get", Err: err}
	}
	// Someone else's plan is reported the same way as a missing one.
	if !actor.Owns(item.UserID) {
		return nil, ErrPlanNotFound
	}
	return item, nil
}

func validateInput(in domain.PlanHistoryInput) error {
	switch {
	case strings.TrimSpace(in.UserID) == "":
		return fmt.Errorf("%w: userId is required", ErrValidationFailed)
	case !in.Type.Valid():
		return fmt.Errorf("%w: type must be %q or %q", ErrValidationFailed, domain.PlanTypeWorkout, domain.PlanTypeMeal)
	case strings.TrimSpace(in.Content) == "":
		return fmt.Errorf("%w: content is required", ErrValidationFailed)
	}
	return nil
}
