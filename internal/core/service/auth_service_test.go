package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/99minutos/library-system/internal/core/domain"
	"github.com/99minutos/library-system/internal/core/ports"
)

func newTestAuthService(repo *stubUserRepo, denylist ports.TokenDenylist) *AuthService {
	tokens := NewTokenService("secret", "library-test", time.Hour, denylist)
	return NewAuthService(repo, tokens, bcrypt.MinCost, zerolog.Nop())
}

func TestAuthService_Register_Success(t *testing.T) {
	repo := newStubUserRepo()
	svc := newTestAuthService(repo, nil)

	user, err := svc.Register(context.Background(), "alice", "pw1", domain.RoleMember)
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if user.ID == 0 {
		t.Fatalf("expected an assigned id")
	}
	if user.PasswordHash == "pw1" {
		t.Fatalf("expected password to be hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("pw1")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
	if user.Role != domain.RoleMember {
		t.Fatalf("unexpected role: %s", user.Role)
	}
}

func TestAuthService_Register_SaltsHashes(t *testing.T) {
	repo := newStubUserRepo()
	svc := newTestAuthService(repo, nil)

	a, _ := svc.Register(context.Background(), "a", "same", domain.RoleMember)
	b, _ := svc.Register(context.Background(), "b", "same", domain.RoleMember)
	if a.PasswordHash == b.PasswordHash {
		t.Fatalf("identical passwords must not produce identical hashes")
	}
}

func TestAuthService_Register_Validation(t *testing.T) {
	svc := newTestAuthService(newStubUserRepo(), nil)

	if _, err := svc.Register(context.Background(), "", "pass", domain.RoleMember); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty username, got %v", err)
	}
	if _, err := svc.Register(context.Background(), "bob", "", domain.RoleMember); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty password, got %v", err)
	}
	if _, err := svc.Register(context.Background(), "bob", "pass", "librarian"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for bad role, got %v", err)
	}
}

func TestAuthService_Register_PasswordLimitCountsBytes(t *testing.T) {
	repo := newStubUserRepo()
	svc := newTestAuthService(repo, nil)

	// 40 characters, 80 bytes
	long := strings.Repeat("é", 40)
	if _, err := svc.Register(context.Background(), "alice", long, domain.RoleMember); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for an 80-byte password, got %v", err)
	}

	atLimit := strings.Repeat("é", 36)
	if _, err := svc.Register(context.Background(), "bob", atLimit, domain.RoleMember); err != nil {
		t.Fatalf("72-byte password should be accepted, got %v", err)
	}
}

func TestAuthService_Register_Duplicate(t *testing.T) {
	svc := newTestAuthService(newStubUserRepo(), nil)

	if _, err := svc.Register(context.Background(), "bob", "pass", domain.RoleMember); err != nil {
		t.Fatalf("first register failed: %v", err)
	}
	// different password and role must not matter
	if _, err := svc.Register(context.Background(), "bob", "other", domain.RoleAdmin); !errors.Is(err, domain.ErrDuplicateUsername) {
		t.Fatalf("expected ErrDuplicateUsername, got %v", err)
	}
}

func TestAuthService_Register_UsernameIsCaseSensitive(t *testing.T) {
	svc := newTestAuthService(newStubUserRepo(), nil)

	if _, err := svc.Register(context.Background(), "bob", "pass", domain.RoleMember); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if _, err := svc.Register(context.Background(), "Bob", "pass", domain.RoleMember); err != nil {
		t.Fatalf("expected Bob to be distinct from bob, got %v", err)
	}
}

func TestAuthService_Login_Success(t *testing.T) {
	svc := newTestAuthService(newStubUserRepo(), nil)

	if _, err := svc.Register(context.Background(), "carol", "s3cret", domain.RoleAdmin); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	token, user, err := svc.Login(context.Background(), "carol", "s3cret")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if token.Value == "" || token.ID == "" {
		t.Fatalf("expected signed token with id, got %+v", token)
	}
	if user.Username != "carol" {
		t.Fatalf("unexpected user: %+v", user)
	}

	claims := jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token.Value, &claims, func(*jwt.Token) (interface{}, error) {
		return []byte("secret"), nil
	})
	if err != nil || !parsed.Valid {
		t.Fatalf("token invalid: %v", err)
	}
	if claims.Subject != "carol" {
		t.Fatalf("expected subject carol, got %q", claims.Subject)
	}
}

func TestAuthService_Login_InvalidPassword(t *testing.T) {
	svc := newTestAuthService(newStubUserRepo(), nil)

	_, _ = svc.Register(context.Background(), "dave", "goodpass", domain.RoleMember)
	if _, _, err := svc.Login(context.Background(), "dave", "badpass"); !errors.Is(err, domain.ErrAuthFailure) {
		t.Fatalf("expected ErrAuthFailure, got %v", err)
	}
}

func TestAuthService_Login_UnknownUserIsUndifferentiated(t *testing.T) {
	svc := newTestAuthService(newStubUserRepo(), nil)

	_, _, err := svc.Login(context.Background(), "ghost", "pass")
	if !errors.Is(err, domain.ErrAuthFailure) {
		t.Fatalf("expected ErrAuthFailure, got %v", err)
	}
	if errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("login must not reveal whether the user exists")
	}
}

func TestAuthService_Login_StorageFailureIsInternal(t *testing.T) {
	repo := newStubUserRepo()
	repo.findErr = errors.New("connection reset")
	svc := newTestAuthService(repo, nil)

	_, _, err := svc.Login(context.Background(), "alice", "pw")
	if err == nil || errors.Is(err, domain.ErrAuthFailure) {
		t.Fatalf("expected internal error, got %v", err)
	}
}

func TestAuthService_Logout_RevokesToken(t *testing.T) {
	denylist := newStubDenylist()
	svc := newTestAuthService(newStubUserRepo(), denylist)

	_, _ = svc.Register(context.Background(), "erin", "pw", domain.RoleMember)
	token, user, err := svc.Login(context.Background(), "erin", "pw")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	principal := &domain.Principal{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
		Token:    domain.Identity{Subject: user.Username, TokenID: token.ID, ExpiresAt: token.ExpiresAt},
	}
	if err := svc.Logout(context.Background(), principal); err != nil {
		t.Fatalf("logout failed: %v", err)
	}
	if _, ok := denylist.revoked[token.ID]; !ok {
		t.Fatalf("expected token id %s to be revoked", token.ID)
	}
}

func TestAuthService_Logout_WithoutDenylist(t *testing.T) {
	svc := newTestAuthService(newStubUserRepo(), nil)

	err := svc.Logout(context.Background(), &domain.Principal{Token: domain.Identity{TokenID: "x", ExpiresAt: time.Now().Add(time.Hour)}})
	if !errors.Is(err, domain.ErrRevocationUnavailable) {
		t.Fatalf("expected ErrRevocationUnavailable, got %v", err)
	}
}
