package repository

import (
	"context"
	"fitformula/api/internal/domain"
)

// Error constants for repository layer
var (
	ErrNotFound  = RepositoryError("not found")
	ErrDuplicate = RepositoryError("duplicate key")
	// ErrPermissionDenied is returned when the backing store refuses the
	// operation for the current credentials. Callers check it with errors.Is,
	// never by inspecting the message.
	ErrPermissionDenied = RepositoryError("permission denied")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// PlanHistoryRepository is the append-only store of generated plans.
// There is deliberately no Update or Delete.
type PlanHistoryRepository interface {
	// Append stamps CreatedAt, mints an ID and stores the item. It returns the new ID.
	Append(ctx context.Context, item *domain.PlanHistoryItem) (string, error)
	// Find returns every item matching q, in q's order. No matches is an empty slice.
	Find(ctx context.Context, q HistoryQuery) ([]domain.PlanHistoryItem, error)
	GetByID(ctx context.Context, id string) (*domain.PlanHistoryItem, error)
}

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (string, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByGoogleSubject(ctx context.Context, subject string) (*domain.User, error)
	LinkGoogleSubject(ctx context.Context, userID, subject string) error
}
