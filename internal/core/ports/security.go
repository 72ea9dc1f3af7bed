package ports

import (
	"context"

	"github.com/glacierai/auth-service/internal/core/domain"
)

// PasswordHasher produces salted one-way digests and checks passwords against them.
type PasswordHasher interface {
	Hash(password string) (string, error)
	// Verify reports whether password matches digest. A malformed digest is a mismatch.
	Verify(password, digest string) bool
}

// TokenCodec issues and checks signed, expiring identity tokens.
type TokenCodec interface {
	IssueAccessToken(user *domain.User) (string, error)
	IssueRefreshToken(user *domain.User) (string, error)
	// Verify reports whether the signature is valid and the token has not expired.
	Verify(token string) bool
	// SubjectEmail and Kind must only be called on tokens that passed Verify.
	SubjectEmail(token string) (string, error)
	Kind(token string) (domain.TokenKind, error)
}

// EmailClaimer holds a short-lived claim on an email while it is being registered.
type EmailClaimer interface {
	// Claim reports whether the caller now holds the claim. The returned
	// token identifies the holder and must be passed to Release.
	Claim(ctx context.Context, email string) (token string, held bool, err error)
	// Release drops the claim only while token still owns it.
	Release(ctx context.Context, email, token string) error
}
