package repository

import (
	"context"
	"sync"
	"time"

	"ayosnow_backend/internal/domain"
	"ayosnow_backend/internal/service"
)

// MemoryUserRepository keeps users in process memory. It enforces the same
// unique email constraint as the users table.
type MemoryUserRepository struct {
	mu      sync.RWMutex
	byID    map[uint64]domain.User
	byEmail map[string]uint64
	nextID  uint64
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		byID:    make(map[uint64]domain.User),
		byEmail: make(map[string]uint64),
		nextID:  1,
	}
}

func (r *MemoryUserRepository) Save(ctx context.Context, user *domain.User) error {
	if err := ctx.Err(); err != nil {
		return service.NewInternalServerError("failed to save user", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byEmail[user.Email]; taken {
		return service.NewDuplicateEmailError("Email already exists!", nil)
	}
	if user.ID == 0 {
		user.ID = r.nextID
	} else if _, taken := r.byID[user.ID]; taken {
		return service.NewInternalServerError("failed to save user", nil)
	}
	if user.ID >= r.nextID {
		r.nextID = user.ID + 1
	}

	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	r.byID[user.ID] = *user
	r.byEmail[user.Email] = user.ID
	return nil
}

func (r *MemoryUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return nil, service.NewEntityNotFoundError("User not found", nil)
	}
	user := r.byID[id]
	return &user, nil
}

func (r *MemoryUserRepository) FindByID(ctx context.Context, id uint64) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.byID[id]
	if !ok {
		return nil, service.NewEntityNotFoundError("User not found", nil)
	}
	return &user, nil
}

func (r *MemoryUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.byEmail[email]
	return ok, nil
}

func (r *MemoryUserRepository) Ping(ctx context.Context) error {
	return ctx.Err()
}
