package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/glacierai/auth-service/internal/core/domain"
	"github.com/glacierai/auth-service/internal/core/ports"
)

// AuthService implements registration, login, token refresh and identity
// resolution. It is immutable after construction and safe for concurrent use.
type AuthService struct {
	users  ports.UserDirectory
	hasher ports.PasswordHasher
	tokens ports.TokenCodec
	claims ports.EmailClaimer
	audit  ports.AuditPublisher
	strict bool
	now    func() time.Time
	logger zerolog.Logger

	// dummyDigest is verified against when no user matches a login, so an
	// unknown email costs as much as a wrong password.
	dummyDigest string
}

// AuthOption customises an AuthService.
type AuthOption func(*AuthService)

// WithEmailClaimer guards concurrent registrations of the same email.
func WithEmailClaimer(c ports.EmailClaimer) AuthOption {
	return func(s *AuthService) { s.claims = c }
}

// WithAuditPublisher emits an audit event for every token operation.
func WithAuditPublisher(p ports.AuditPublisher) AuthOption {
	return func(s *AuthService) { s.audit = p }
}

// WithStrictTokenTypes makes ValidateToken accept only access tokens and
// RefreshToken accept only refresh tokens.
func WithStrictTokenTypes(strict bool) AuthOption {
	return func(s *AuthService) { s.strict = strict }
}

func NewAuthService(
	users ports.UserDirectory,
	hasher ports.PasswordHasher,
	tokens ports.TokenCodec,
	logger zerolog.Logger,
	opts ...AuthOption,
) *AuthService {
	s := &AuthService{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		now:    time.Now,
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}

	digest, err := hasher.Hash(uuid.NewString())
	if err != nil {
		logger.Warn().Err(err).Msg("failed to prepare login timing digest")
	}
	s.dummyDigest = digest
	return s
}

func (s *AuthService) Register(ctx context.Context, email, password, name string) (*domain.AuthResult, error) {
	email = domain.NormalizeEmail(email)
	name = strings.TrimSpace(name)
	if email == "" || password == "" || name == "" {
		return nil, domain.ErrInvalidInput
	}

	if s.claims != nil {
		token, held, err := s.claims.Claim(ctx, email)
		switch {
		case err != nil:
			s.logger.Warn().Err(err).Str("email", email).Msg("email claim failed, registering without it")
		case !held:
			return nil, s.claimHeld(ctx, email)
		default:
			defer s.releaseClaim(email, token)
		}
	}

	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, s.internal(err, "check email")
	}
	if exists {
		s.publish(domain.EventRegister, email, "", "already_exists")
		return nil, domain.ErrUserExists
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			return nil, domain.ErrInvalidInput
		}
		return nil, s.internal(err, "hash password")
	}

	now := s.now().UTC()
	saved, err := s.users.Save(ctx, &domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		Role:         domain.RoleCustomer,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			s.publish(domain.EventRegister, email, "", "already_exists")
			return nil, domain.ErrUserExists
		}
		return nil, s.internal(err, "save user")
	}

	result, err := s.issue(saved)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("user_id", saved.ID).Str("email", saved.Email).Msg("user registered")
	s.publish(domain.EventRegister, saved.Email, saved.ID, "")
	return result, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.AuthResult, error) {
	email = domain.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.users.FindActiveByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.hasher.Verify(password, s.dummyDigest)
			s.publish(domain.EventLogin, email, "", "invalid_credentials")
			return nil, domain.ErrInvalidCredentials
		}
		return nil, s.internal(err, "find user")
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		s.publish(domain.EventLogin, email, user.ID, "invalid_credentials")
		return nil, domain.ErrInvalidCredentials
	}

	result, err := s.issue(user)
	if err != nil {
		return nil, err
	}

	s.publish(domain.EventLogin, user.Email, user.ID, "")
	return result, nil
}

func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*domain.AuthResult, error) {
	user, err := s.resolve(ctx, refreshToken, domain.TokenRefresh, domain.EventRefresh)
	if err != nil {
		return nil, err
	}

	// The presented refresh token stays valid until it expires; there is no
	// revocation store to retire it in.
	result, err := s.issue(user)
	if err != nil {
		return nil, err
	}

	s.publish(domain.EventRefresh, user.Email, user.ID, "")
	return result, nil
}

func (s *AuthService) ValidateToken(ctx context.Context, token string) (*domain.User, error) {
	user, err := s.resolve(ctx, token, domain.TokenAccess, domain.EventValidate)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *AuthService) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, domain.ErrUserNotFound
	}

	user, err := s.users.FindActiveByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, s.internal(err, "find user by id")
	}
	return user, nil
}

// EnsureUser creates a user with the given role unless the email is already
// taken. It reports whether a user was created.
func (s *AuthService) EnsureUser(ctx context.Context, email, password, name string, role domain.Role) (bool, error) {
	email = domain.NormalizeEmail(email)
	if email == "" || password == "" || !role.Valid() {
		return false, domain.ErrInvalidInput
	}

	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return false, s.internal(err, "check email")
	}
	if exists {
		return false, nil
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			return false, domain.ErrInvalidInput
		}
		return false, s.internal(err, "hash password")
	}

	now := s.now().UTC()
	_, err = s.users.Save(ctx, &domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if errors.Is(err, domain.ErrUserExists) {
		return false, nil
	}
	if err != nil {
		return false, s.internal(err, "save user")
	}

	s.logger.Info().Str("email", email).Str("role", string(role)).Msg("user seeded")
	return true, nil
}

// resolve verifies token and loads the active user it names. want is only
// enforced in strict mode.
func (s *AuthService) resolve(ctx context.Context, token string, want domain.TokenKind, event domain.AuthEventType) (*domain.User, error) {
	if !s.tokens.Verify(token) {
		s.publish(event, "", "", "invalid_token")
		return nil, domain.ErrInvalidToken
	}

	if s.strict {
		kind, err := s.tokens.Kind(token)
		if err != nil || kind != want {
			s.publish(event, "", "", "wrong_token_type")
			return nil, domain.ErrInvalidToken
		}
	}

	email, err := s.tokens.SubjectEmail(token)
	if err != nil || email == "" {
		s.publish(event, "", "", "invalid_token")
		return nil, domain.ErrInvalidToken
	}

	user, err := s.users.FindActiveByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.publish(event, email, "", "user_not_found")
			return nil, domain.ErrUserNotFound
		}
		return nil, s.internal(err, "find user")
	}
	return user, nil
}

func (s *AuthService) issue(user *domain.User) (*domain.AuthResult, error) {
	access, err := s.tokens.IssueAccessToken(user)
	if err != nil {
		return nil, s.internal(err, "issue access token")
	}
	refresh, err := s.tokens.IssueRefreshToken(user)
	if err != nil {
		return nil, s.internal(err, "issue refresh token")
	}
	return &domain.AuthResult{
		Tokens: domain.TokenBundle{AccessToken: access, RefreshToken: refresh},
		User:   user.View(),
	}, nil
}

// claimHeld resolves a registration that lost the email claim. The claim
// only says another attempt is in flight; the directory decides whether the
// email is taken.
func (s *AuthService) claimHeld(ctx context.Context, email string) error {
	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return s.internal(err, "check email")
	}
	if exists {
		s.publish(domain.EventRegister, email, "", "already_exists")
		return domain.ErrUserExists
	}
	s.publish(domain.EventRegister, email, "", "registration_in_progress")
	return domain.ErrRegistrationInProgress
}

func (s *AuthService) releaseClaim(email, token string) {
	// The request context may already be cancelled; release on a fresh one.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.claims.Release(ctx, email, token); err != nil {
		s.logger.Warn().Err(err).Str("email", email).Msg("failed to release email claim")
	}
}

// internal logs a collaborator failure and hides it behind ErrInternal.
func (s *AuthService) internal(err error, op string) error {
	s.logger.Error().Err(err).Str("op", op).Msg("auth operation failed")
	return domain.ErrInternal
}

// publish emits an audit event; an empty reason means success.
func (s *AuthService) publish(typ domain.AuthEventType, email, userID, reason string) {
	if s.audit == nil {
		return
	}
	outcome := domain.OutcomeSuccess
	if reason != "" {
		outcome = domain.OutcomeFailure
	}
	s.audit.Publish(domain.AuthEvent{
		Type:       typ,
		Email:      email,
		UserID:     userID,
		Outcome:    outcome,
		Reason:     reason,
		OccurredAt: s.now().UTC(),
	})
}
