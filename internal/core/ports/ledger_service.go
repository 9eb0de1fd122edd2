package ports

import (
	"context"

	"github.com/99minutos/library-system/internal/core/domain"
)

// LedgerService runs the borrow/return state machine on behalf of a user.
type LedgerService interface {
	Borrow(ctx context.Context, bookID, userID int64) (*domain.BorrowRecord, error)
	Return(ctx context.Context, bookID, userID int64) (*domain.BorrowRecord, error)
	ListBorrows(ctx context.Context, userID int64, activeOnly bool) ([]*domain.BorrowRecord, error)
}
