package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/99minutos/auth-api/internal/core/domain"
	"github.com/99minutos/auth-api/internal/core/ports"
)

// TokenTTL is the fixed lifetime of an issued token. There is no refresh.
const TokenTTL = 24 * time.Hour

// MinSigningKeyLen is the shortest HS256 key accepted, 256 bits per RFC 7518.
const MinSigningKeyLen = 32

// TokenClaims is the payload of an issued token.
type TokenClaims struct {
	Role string `json:"role"`
	Name string `json:"name"`
	jwt.RegisteredClaims
}

// TokenIssuer signs HS256 tokens with the key from a SecretProvider.
type TokenIssuer struct {
	secrets ports.SecretProvider
	clock   ports.Clock
}

func NewTokenIssuer(secrets ports.SecretProvider, clock ports.Clock) *TokenIssuer {
	if clock == nil {
		clock = SystemClock{}
	}
	return &TokenIssuer{secrets: secrets, clock: clock}
}

// Issue builds a token carrying the user's role and full name that expires
// TokenTTL after issuance.
func (t *TokenIssuer) Issue(user *domain.User) (*domain.Token, error) {
	if user == nil {
		return nil, domain.ErrInvalidInput
	}

	key, err := t.signingKey()
	if err != nil {
		return nil, err
	}

	// NumericDate has second precision; truncate so the returned times match the claims.
	now := t.clock.Now().UTC().Truncate(time.Second)
	expiresAt := now.Add(TokenTTL)

	claims := TokenClaims{
		Role: user.Role,
		Name: user.FullName(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	return &domain.Token{Value: signed, IssuedAt: now, ExpiresAt: expiresAt}, nil
}

// Parse verifies a token issued by Issue and returns its claims. Only HS256
// is accepted.
func (t *TokenIssuer) Parse(token string) (*TokenClaims, error) {
	key, err := t.signingKey()
	if err != nil {
		return nil, err
	}

	claims := &TokenClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.clock.Now),
	)
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	if !parsed.Valid {
		return nil, errors.New("parse token: token is invalid")
	}
	return claims, nil
}

func (t *TokenIssuer) signingKey() ([]byte, error) {
	if t.secrets == nil {
		return nil, fmt.Errorf("%w: no signing secret provider", domain.ErrConfiguration)
	}
	key, err := t.secrets.SigningKey()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConfiguration, err)
	}
	if len(key) == 0 {
		return nil, fmt.Errorf("%w: signing secret is empty", domain.ErrConfiguration)
	}
	if len(key) < MinSigningKeyLen {
		return nil, fmt.Errorf("%w: signing secret must be at least %d bytes", domain.ErrConfiguration, MinSigningKeyLen)
	}
	return key, nil
}
