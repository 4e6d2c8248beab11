package memory

import (
	"context"
	"errors"
	"fitformula/api/internal/clock"
	"fitformula/api/internal/domain"
	"fitformula/api/internal/repository"
	"strings"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserRepository implements repository.UserRepository in memory.
type UserRepository struct {
	mu    sync.RWMutex
	clock clock.Clock
	users map[string]domain.User
}

func NewUserRepository(c clock.Clock) *UserRepository {
	if c == nil {
		c = clock.SystemClock{}
	}
	return &UserRepository{clock: c, users: make(map[string]domain.User)}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (string, error) {
	if user.Email == "" || user.Provider == "" {
		return "", errors.New("user email and provider are required")
	}
	email := strings.ToLower(user.Email)

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Email == email {
			return "", repository.ErrDuplicate
		}
		if user.GoogleSubject != "" && u.GoogleSubject == user.GoogleSubject {
			return "", repository.ErrDuplicate
		}
	}

	user.ID = primitive.NewObjectID().Hex()
	user.Email = email
	now := r.clock.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.users[user.ID] = *user
	return user.ID, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	email = strings.ToLower(email)
	return r.findOne(func(u domain.User) bool { return u.Email == email })
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r *UserRepository) GetByGoogleSubject(ctx context.Context, subject string) (*domain.User, error) {
	if subject == "" {
		return nil, repository.ErrNotFound
	}
	return r.findOne(func(u domain.User) bool { return u.GoogleSubject == subject })
}

func (r *UserRepository) LinkGoogleSubject(ctx context.Context, userID, subject string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	u.GoogleSubject = subject
	u.UpdatedAt = r.clock.Now()
	r.users[userID] = u
	return nil
}

func (r *UserRepository) findOne(match func(domain.User) bool) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if match(u) {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}
