package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/glacierai/auth-service/internal/core/domain"
)

var (
	ErrEmptySecret = errors.New("jwt secret must not be empty")
	ErrTokenTTL    = errors.New("access token ttl must be positive and shorter than refresh token ttl")
)

// JWTConfig carries the signing secret and token lifetimes.
type JWTConfig struct {
	Secret     string
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

type tokenClaims struct {
	UserID string           `json:"uid"`
	Email  string           `json:"email"`
	Role   string           `json:"role"`
	Type   domain.TokenKind `json:"typ"`
	jwt.RegisteredClaims
}

// JWTCodec implements ports.TokenCodec with HS256-signed JWTs.
type JWTCodec struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// Option customises a JWTCodec.
type Option func(*JWTCodec)

// WithClock replaces time.Now for issuing and verifying tokens.
func WithClock(now func() time.Time) Option {
	return func(c *JWTCodec) { c.now = now }
}

func NewJWTCodec(cfg JWTConfig, opts ...Option) (*JWTCodec, error) {
	if cfg.Secret == "" {
		return nil, ErrEmptySecret
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= cfg.AccessTTL {
		return nil, ErrTokenTTL
	}
	c := &JWTCodec{
		secret:     []byte(cfg.Secret),
		issuer:     cfg.Issuer,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *JWTCodec) IssueAccessToken(user *domain.User) (string, error) {
	return c.issue(user, domain.TokenAccess, c.accessTTL)
}

func (c *JWTCodec) IssueRefreshToken(user *domain.User) (string, error) {
	return c.issue(user, domain.TokenRefresh, c.refreshTTL)
}

func (c *JWTCodec) issue(user *domain.User, kind domain.TokenKind, ttl time.Duration) (string, error) {
	now := c.now()
	claims := tokenClaims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   string(user.Role),
		Type:   kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    c.issuer,
			Subject:   user.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

func (c *JWTCodec) Verify(token string) bool {
	_, err := c.parse(token)
	return err == nil
}

func (c *JWTCodec) SubjectEmail(token string) (string, error) {
	claims, err := c.parse(token)
	if err != nil {
		return "", err
	}
	if claims.Email != "" {
		return claims.Email, nil
	}
	return claims.Subject, nil
}

func (c *JWTCodec) Kind(token string) (domain.TokenKind, error) {
	claims, err := c.parse(token)
	if err != nil {
		return "", err
	}
	return claims.Type, nil
}

func (c *JWTCodec) parse(token string) (*tokenClaims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	}
	if c.issuer != "" {
		opts = append(opts, jwt.WithIssuer(c.issuer))
	}

	parsed, err := jwt.ParseWithClaims(token, &tokenClaims{}, func(t *jwt.Token) (any, error) {
		return c.secret, nil
	}, opts...)
	if err != nil {
		return nil, domain.ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*tokenClaims)
	if !ok || !parsed.Valid {
		return nil, domain.ErrInvalidToken
	}
	return claims, nil
}
