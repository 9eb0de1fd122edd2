package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/library-system/internal/core/domain"
	"github.com/99minutos/library-system/internal/core/ports"
)

type ledgerService struct {
	repo ports.BorrowRepository
	log  zerolog.Logger
	now  func() time.Time
}

// NewLedgerService returns a LedgerService. The read-check-write of every
// transition is delegated to the repository, which runs it atomically.
func NewLedgerService(repo ports.BorrowRepository, log zerolog.Logger) ports.LedgerService {
	return &ledgerService{
		repo: repo,
		log:  log,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// Borrow lends bookID to userID.
func (s *ledgerService) Borrow(ctx context.Context, bookID, userID int64) (*domain.BorrowRecord, error) {
	rec, err := s.repo.Borrow(ctx, bookID, userID, s.now())
	if err != nil {
		if errors.Is(err, domain.ErrBookNotAvailable) {
			s.log.Debug().Int64("book_id", bookID).Int64("user_id", userID).Msg("borrow rejected: book not available")
			return nil, domain.ErrBookNotAvailable
		}
		s.log.Error().Err(err).Int64("book_id", bookID).Msg("borrow failed")
		return nil, fmt.Errorf("borrow book: %w", err)
	}

	s.log.Info().
		Int64("record_id", rec.ID).
		Int64("book_id", bookID).
		Int64("user_id", userID).
		Msg("book borrowed")
	return rec, nil
}

// Return closes userID's active borrow of bookID.
func (s *ledgerService) Return(ctx context.Context, bookID, userID int64) (*domain.BorrowRecord, error) {
	rec, err := s.repo.Return(ctx, bookID, userID, s.now())
	if err != nil {
		if errors.Is(err, domain.ErrNoActiveBorrow) {
			s.log.Debug().Int64("book_id", bookID).Int64("user_id", userID).Msg("return rejected: no active borrow")
			return nil, domain.ErrNoActiveBorrow
		}
		s.log.Error().Err(err).Int64("book_id", bookID).Msg("return failed")
		return nil, fmt.Errorf("return book: %w", err)
	}

	s.log.Info().
		Int64("record_id", rec.ID).
		Int64("book_id", bookID).
		Int64("user_id", userID).
		Msg("book returned")
	return rec, nil
}

func (s *ledgerService) ListBorrows(ctx context.Context, userID int64, activeOnly bool) ([]*domain.BorrowRecord, error) {
	recs, err := s.repo.ListByUser(ctx, userID, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("list borrows: %w", err)
	}
	if recs == nil {
		recs = []*domain.BorrowRecord{}
	}
	return recs, nil
}
