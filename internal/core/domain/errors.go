package domain

import "errors"

var (
	ErrInvalidInput = errors.New("invalid input")

	ErrDuplicateUsername = errors.New("username already registered")
	ErrUserNotFound      = errors.New("user not found")
	// ErrAuthFailure does not say whether the username exists.
	ErrAuthFailure = errors.New("invalid credentials")

	ErrTokenExpired          = errors.New("token expired")
	ErrTokenMalformed        = errors.New("token malformed")
	ErrTokenRevoked          = errors.New("token revoked")
	ErrRevocationUnavailable = errors.New("token revocation is not configured")

	ErrUnauthenticated = errors.New("not authenticated")
	ErrForbidden       = errors.New("access forbidden")

	ErrBookNotFound = errors.New("book not found")
	// ErrBookNotAvailable covers both a missing book and one already lent out.
	ErrBookNotAvailable = errors.New("book not available")
	ErrNoActiveBorrow   = errors.New("no active borrow record found")
)

// IsTokenError reports whether err came from token verification.
func IsTokenError(err error) bool {
	return errors.Is(err, ErrTokenExpired) ||
		errors.Is(err, ErrTokenMalformed) ||
		errors.Is(err, ErrTokenRevoked)
}
