package interfaces

import (
	"context"

	"ayosnow_backend/internal/domain"
)

// UserStore persists users. Save assigns the id when it is zero. Lookups report
// a missing user as an entity-not-found AccountError, and Save reports a taken
// email as a duplicate-email AccountError.
type UserStore interface {
	Save(ctx context.Context, user *domain.User) error
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id uint64) (*domain.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Ping(ctx context.Context) error
}
