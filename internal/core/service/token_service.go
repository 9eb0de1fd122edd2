package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/99minutos/library-system/internal/core/domain"
	"github.com/99minutos/library-system/internal/core/ports"
)

const defaultTokenTTL = 30 * time.Minute

// TokenService issues and verifies HS256 bearer tokens. The subject is the
// username; every token carries a jti so it can be revoked before expiry.
type TokenService struct {
	secret   []byte
	issuer   string
	ttl      time.Duration
	denylist ports.TokenDenylist // nil disables revocation
	now      func() time.Time
}

func NewTokenService(secret, issuer string, ttl time.Duration, denylist ports.TokenDenylist) *TokenService {
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return &TokenService{
		secret:   []byte(secret),
		issuer:   issuer,
		ttl:      ttl,
		denylist: denylist,
		now:      time.Now,
	}
}

// Issue signs a token for user valid for the configured TTL.
func (s *TokenService) Issue(user *domain.User) (*domain.Token, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   user.Username,
		Issuer:    s.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		ID:        uuid.NewString(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	return &domain.Token{
		Value:     signed,
		ID:        claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Verify checks signature, issuer and expiry, then consults the denylist.
// Token problems come back as domain.ErrTokenExpired, ErrTokenMalformed or
// ErrTokenRevoked; a denylist outage is returned as-is.
func (s *TokenService) Verify(ctx context.Context, raw string) (*domain.Identity, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrTokenMalformed, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", domain.ErrTokenMalformed)
	}

	if s.denylist != nil && claims.ID != "" {
		revoked, err := s.denylist.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, fmt.Errorf("check revocation: %w", err)
		}
		if revoked {
			return nil, domain.ErrTokenRevoked
		}
	}

	return &domain.Identity{
		Subject:   claims.Subject,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Revoke blocks the token until its natural expiry.
func (s *TokenService) Revoke(ctx context.Context, id domain.Identity) error {
	if s.denylist == nil {
		return domain.ErrRevocationUnavailable
	}
	if id.TokenID == "" {
		return fmt.Errorf("%w: token has no id", domain.ErrTokenMalformed)
	}
	ttl := id.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	if err := s.denylist.Revoke(ctx, id.TokenID, ttl); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}
