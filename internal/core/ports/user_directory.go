package ports

import (
	"context"

	"github.com/glacierai/auth-service/internal/core/domain"
)

// UserDirectory is the persistence contract the auth service relies on.
// Emails passed in are already normalized. Both find operations only see
// active users and return domain.ErrUserNotFound otherwise.
type UserDirectory interface {
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	// Save persists a new user whose ID is already set. A uniqueness
	// violation on email returns domain.ErrUserExists.
	Save(ctx context.Context, user *domain.User) (*domain.User, error)
	FindActiveByEmail(ctx context.Context, email string) (*domain.User, error)
	FindActiveByID(ctx context.Context, id string) (*domain.User, error)
}
