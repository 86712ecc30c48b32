package service

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/99minutos/auth-api/internal/core/domain"
	"github.com/99minutos/auth-api/internal/core/ports"
)

var (
	_ ports.AuthService    = (*AuthService)(nil)
	_ ports.PasswordHasher = (*PasswordHasher)(nil)
	_ ports.TokenIssuer    = (*TokenIssuer)(nil)
	_ ports.Clock          = SystemClock{}
)

// AuthService implements registration and login.
type AuthService struct {
	store    ports.UserStore
	policy   *PasswordPolicy
	hasher   ports.PasswordHasher
	tokens   ports.TokenIssuer
	throttle ports.LoginThrottle
	log      zerolog.Logger

	concealUnknownUsers bool
	// Verified against for unknown usernames when they are concealed, so both
	// failure paths cost one hash comparison.
	dummyOnce sync.Once
	dummyHash string
}

// Option customises an AuthService.
type Option func(*AuthService)

// WithLoginThrottle rejects logins for usernames with too many recent failures.
func WithLoginThrottle(t ports.LoginThrottle) Option {
	return func(s *AuthService) { s.throttle = t }
}

// WithConcealedUnknownUsers reports unknown usernames as invalid credentials
// instead of ErrUserNotFound.
func WithConcealedUnknownUsers(conceal bool) Option {
	return func(s *AuthService) { s.concealUnknownUsers = conceal }
}

func NewAuthService(
	store ports.UserStore,
	policy *PasswordPolicy,
	hasher ports.PasswordHasher,
	tokens ports.TokenIssuer,
	log zerolog.Logger,
	opts ...Option,
) *AuthService {
	if policy == nil {
		policy = NewPasswordPolicy(false)
	}
	s := &AuthService{
		store:  store,
		policy: policy,
		hasher: hasher,
		tokens: tokens,
		log:    log.With().Str("component", "auth_service").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register validates and stores a new account with the default role.
func (s *AuthService) Register(ctx context.Context, in *ports.RegisterInput) (*domain.User, error) {
	if in == nil || in.Username == "" || in.Email == "" || in.Password == "" {
		return nil, domain.ErrInvalidInput
	}

	if violations := s.policy.Validate(in.Password); len(violations) > 0 {
		s.log.Info().Str("username", in.Username).Int("violations", len(violations)).Msg("password rejected by policy")
		return nil, &domain.PolicyViolationError{Violations: violations}
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	exists, err := s.store.ExistsByUsername(ctx, in.Username)
	if err != nil {
		return nil, s.storeFailure("exists by username", err)
	}
	if exists {
		return nil, domain.ErrDuplicateUsername
	}

	exists, err = s.store.ExistsByEmail(ctx, in.Email)
	if err != nil {
		return nil, s.storeFailure("exists by email", err)
	}
	if exists {
		return nil, domain.ErrDuplicateEmail
	}

	user := &domain.User{
		Username:     in.Username,
		Email:        in.Email,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		PasswordHash: hash,
		Role:         domain.RoleUser,
	}

	created, err := s.store.Create(ctx, user)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateUsername) || errors.Is(err, domain.ErrDuplicateEmail) {
			return nil, err
		}
		return nil, s.storeFailure("create user", err)
	}

	s.log.Info().Str("username", created.Username).Msg("user registered")
	return created, nil
}

// Login verifies credentials and issues a token.
func (s *AuthService) Login(ctx context.Context, creds *domain.Credentials) (*ports.LoginResult, error) {
	if creds == nil || creds.Username == "" || creds.Password == "" {
		return nil, domain.ErrInvalidInput
	}

	if s.throttle != nil {
		blocked, err := s.throttle.Blocked(ctx, creds.Username)
		if err != nil {
			s.log.Warn().Err(err).Str("username", creds.Username).Msg("login throttle check failed, continuing")
		} else if blocked {
			s.log.Warn().Str("username", creds.Username).Msg("login throttled")
			return nil, domain.ErrTooManyAttempts
		}
	}

	user, err := s.store.FindByUsername(ctx, creds.Username)
	if err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			return nil, s.storeFailure("find by username", err)
		}
		s.recordFailure(ctx, creds.Username)
		if s.concealUnknownUsers {
			_ = s.hasher.Verify(creds.Password, s.dummy())
			return nil, domain.ErrInvalidCredentials
		}
		return nil, domain.ErrUserNotFound
	}

	if !s.hasher.Verify(creds.Password, user.PasswordHash) {
		s.recordFailure(ctx, creds.Username)
		s.log.Info().Str("username", creds.Username).Msg("login rejected: wrong password")
		return nil, domain.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		s.log.Error().Err(err).Str("username", creds.Username).Msg("token issuance failed")
		return nil, err
	}
	user.Token = token.Value

	if s.throttle != nil {
		if err := s.throttle.Reset(ctx, creds.Username); err != nil {
			s.log.Warn().Err(err).Str("username", creds.Username).Msg("failed to reset login throttle")
		}
	}

	s.log.Info().Str("username", user.Username).Time("expires_at", token.ExpiresAt).Msg("login succeeded")
	return &ports.LoginResult{Token: *token, User: user}, nil
}

// ListUsers returns every stored account.
func (s *AuthService) ListUsers(ctx context.Context) ([]*domain.User, error) {
	users, err := s.store.List(ctx)
	if err != nil {
		return nil, s.storeFailure("list users", err)
	}
	return users, nil
}

func (s *AuthService) recordFailure(ctx context.Context, username string) {
	if s.throttle == nil {
		return
	}
	if err := s.throttle.Failed(ctx, username); err != nil {
		s.log.Warn().Err(err).Str("username", username).Msg("failed to record login failure")
	}
}

func (s *AuthService) dummy() string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.hasher.Hash("dummy-password-for-timing")
	})
	return s.dummyHash
}

func (s *AuthService) storeFailure(op string, err error) error {
	s.log.Error().Err(err).Str("op", op).Msg("user store failure")
	return domain.NewStoreError(op, err)
}
