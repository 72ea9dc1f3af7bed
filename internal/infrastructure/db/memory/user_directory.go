package memory

import (
	"context"
	"sync"

	"github.com/glacierai/auth-service/internal/core/domain"
)

// UserDirectory is an in-memory ports.UserDirectory for local development and tests.
type UserDirectory struct {
	mu      sync.RWMutex
	byID    map[string]domain.User
	byEmail map[string]string // email -> user id
}

func NewUserDirectory() *UserDirectory {
	return &UserDirectory{
		byID:    make(map[string]domain.User),
		byEmail: make(map[string]string),
	}
}

func (r *UserDirectory) ExistsByEmail(_ context.Context, email string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.byEmail[domain.NormalizeEmail(email)]
	return ok, nil
}

func (r *UserDirectory) Save(_ context.Context, user *domain.User) (*domain.User, error) {
	if user.ID == "" {
		return nil, domain.ErrInvalidInput
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := domain.NormalizeEmail(user.Email)
	if _, exists := r.byEmail[key]; exists {
		return nil, domain.ErrUserExists
	}
	if _, exists := r.byID[user.ID]; exists {
		return nil, domain.ErrUserExists
	}

	r.byID[user.ID] = *user
	r.byEmail[key] = user.ID
	saved := *user
	return &saved, nil
}

func (r *UserDirectory) FindActiveByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[domain.NormalizeEmail(email)]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return r.active(id)
}

func (r *UserDirectory) FindActiveByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.active(id)
}

// SetActive flips the soft-delete flag. Deactivation is owned by whoever
// administers the directory, never by the auth service.
func (r *UserDirectory) SetActive(_ context.Context, id string, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.IsActive = active
	r.byID[id] = u
	return nil
}

// active must be called with mu held.
func (r *UserDirectory) active(id string) (*domain.User, error) {
	u, ok := r.byID[id]
	if !ok || !u.IsActive {
		return nil, domain.ErrUserNotFound
	}
	return &u, nil
}
