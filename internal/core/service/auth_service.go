package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/99minutos/library-system/internal/core/domain"
	"github.com/99minutos/library-system/internal/core/ports"
)

// bcrypt ignores nothing past this; GenerateFromPassword rejects longer input.
const maxPasswordBytes = 72

// AuthService implements registration, login and logout on top of the
// credential store and the token service.
type AuthService struct {
	repo   ports.UserRepository
	tokens *TokenService
	cost   int
	log    zerolog.Logger

	// compared against when the username is unknown so both failure paths
	// spend one bcrypt comparison
	dummyHash []byte
}

func NewAuthService(repo ports.UserRepository, tokens *TokenService, bcryptCost int, log zerolog.Logger) *AuthService {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	dummy, _ := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcryptCost)
	return &AuthService{
		repo:      repo,
		tokens:    tokens,
		cost:      bcryptCost,
		log:       log,
		dummyHash: dummy,
	}
}

// Register stores a new user with a bcrypt hash of password.
func (s *AuthService) Register(ctx context.Context, username, password string, role domain.Role) (*domain.User, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password are required", domain.ErrInvalidInput)
	}
	if len(password) > maxPasswordBytes {
		return nil, fmt.Errorf("%w: password longer than %d bytes", domain.ErrInvalidInput, maxPasswordBytes)
	}
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", domain.ErrInvalidInput, role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	created, err := s.repo.Create(ctx, &domain.User{
		Username:     username,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateUsername) {
			return nil, domain.ErrDuplicateUsername
		}
		s.log.Error().Err(err).Str("username", username).Msg("failed to create user")
		return nil, fmt.Errorf("register: %w", err)
	}

	s.log.Info().Int64("user_id", created.ID).Str("role", string(created.Role)).Msg("user registered")
	return created, nil
}

// Verify checks a username/password pair. Unknown users and bad passwords
// both yield domain.ErrAuthFailure.
func (s *AuthService) Verify(ctx context.Context, username, password string) (*domain.User, error) {
	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
			return nil, domain.ErrAuthFailure
		}
		return nil, fmt.Errorf("verify credentials: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, domain.ErrAuthFailure
	}
	return user, nil
}

// Login verifies credentials and issues a bearer token.
func (s *AuthService) Login(ctx context.Context, username, password string) (*domain.Token, *domain.User, error) {
	if username == "" || password == "" {
		return nil, nil, domain.ErrAuthFailure
	}

	user, err := s.Verify(ctx, username, password)
	if err != nil {
		return nil, nil, err
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, nil, err
	}

	s.log.Info().Int64("user_id", user.ID).Str("jti", token.ID).Msg("token issued")
	return token, user, nil
}

// Logout revokes the token the principal authenticated with.
func (s *AuthService) Logout(ctx context.Context, principal *domain.Principal) error {
	if err := s.tokens.Revoke(ctx, principal.Token); err != nil {
		return err
	}
	s.log.Info().Int64("user_id", principal.UserID).Str("jti", principal.Token.TokenID).Msg("token revoked")
	return nil
}
