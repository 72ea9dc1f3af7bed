package ports

import (
	"context"

	"github.com/glacierai/auth-service/internal/core/domain"
)

// AuthService is the credential and token lifecycle exposed to the transport layer.
type AuthService interface {
	Register(ctx context.Context, email, password, name string) (*domain.AuthResult, error)
	Login(ctx context.Context, email, password string) (*domain.AuthResult, error)
	RefreshToken(ctx context.Context, refreshToken string) (*domain.AuthResult, error)
	// ValidateToken takes the bare token, without any "Bearer " prefix.
	ValidateToken(ctx context.Context, token string) (*domain.User, error)
	GetUserByID(ctx context.Context, id string) (*domain.User, error)
}
