package ports

import (
	"context"
	"time"

	"github.com/99minutos/library-system/internal/core/domain"
)

// BorrowRepository owns the borrow/return transitions. Each call is one
// atomic unit: the book's availability flag and its active record change
// together or not at all.
type BorrowRepository interface {
	// Borrow flips the book to unavailable and opens a record dated at.
	// Returns domain.ErrBookNotAvailable if the book is missing or already lent.
	Borrow(ctx context.Context, bookID, userID int64, at time.Time) (*domain.BorrowRecord, error)

	// Return closes the active record for (bookID, userID) and makes the book
	// available again. Returns domain.ErrNoActiveBorrow if there is none.
	Return(ctx context.Context, bookID, userID int64, at time.Time) (*domain.BorrowRecord, error)

	// ListByUser returns the user's records, oldest first.
	ListByUser(ctx context.Context, userID int64, activeOnly bool) ([]*domain.BorrowRecord, error)
}
