package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/jmoiron/sqlx"

	"github.com/99minutos/library-system/internal/core/domain"
)

const borrowsTable = "borrow_records"

var borrowColumns = []any{"id", "user_id", "book_id", "borrow_date", "return_date"}

type borrowRow struct {
	ID         int64        `db:"id"`
	UserID     int64        `db:"user_id"`
	BookID     int64        `db:"book_id"`
	BorrowDate time.Time    `db:"borrow_date"`
	ReturnDate sql.NullTime `db:"return_date"`
}

func (r borrowRow) toDomain() *domain.BorrowRecord {
	rec := &domain.BorrowRecord{
		ID:         r.ID,
		UserID:     r.UserID,
		BookID:     r.BookID,
		BorrowDate: r.BorrowDate.UTC(),
	}
	if r.ReturnDate.Valid {
		ts := r.ReturnDate.Time.UTC()
		rec.ReturnDate = &ts
	}
	return rec
}

// BorrowRepository implements ports.BorrowRepository. Every transition is a
// conditional UPDATE whose affected-row count decides the outcome, so two
// racing requests can never both win.
type BorrowRepository struct {
	store *Store
}

func (r *BorrowRepository) Borrow(ctx context.Context, bookID, userID int64, at time.Time) (*domain.BorrowRecord, error) {
	var rec *domain.BorrowRecord
	err := r.store.withTx(ctx, func(tx *sqlx.Tx) error {
		claim, args, err := r.store.goqu.Update(booksTable).
			Set(goqu.Record{"available": false}).
			Where(goqu.Ex{"id": bookID}, goqu.C("available").IsTrue()).
			Prepared(true).
			ToSQL()
		if err != nil {
			return fmt.Errorf("build claim query: %w", err)
		}
		if err := expectOneRow(tx.ExecContext(ctx, claim, args...)); err != nil {
			if errors.Is(err, errNoRows) {
				return domain.ErrBookNotAvailable
			}
			return fmt.Errorf("claim book: %w", err)
		}

		var id int64
		insert := tx.Rebind(`INSERT INTO borrow_records (user_id, book_id, borrow_date) VALUES (?, ?, ?) RETURNING id`)
		if err := tx.QueryRowxContext(ctx, insert, userID, bookID, at).Scan(&id); err != nil {
			if isUniqueViolation(err) {
				return domain.ErrBookNotAvailable
			}
			return fmt.Errorf("insert borrow record: %w", err)
		}

		rec, err = r.findByID(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (r *BorrowRepository) Return(ctx context.Context, bookID, userID int64, at time.Time) (*domain.BorrowRecord, error) {
	var rec *domain.BorrowRecord
	err := r.store.withTx(ctx, func(tx *sqlx.Tx) error {
		lookup, args, err := r.store.goqu.From(borrowsTable).
			Select("id").
			Where(goqu.Ex{"book_id": bookID, "user_id": userID, "return_date": nil}).
			Prepared(true).
			ToSQL()
		if err != nil {
			return fmt.Errorf("build lookup query: %w", err)
		}
		var id int64
		if err := tx.GetContext(ctx, &id, lookup, args...); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return domain.ErrNoActiveBorrow
			}
			return fmt.Errorf("find active borrow: %w", err)
		}

		closeRec, args, err := r.store.goqu.Update(borrowsTable).
			Set(goqu.Record{"return_date": at}).
			Where(goqu.Ex{"id": id, "return_date": nil}).
			Prepared(true).
			ToSQL()
		if err != nil {
			return fmt.Errorf("build close query: %w", err)
		}
		if err := expectOneRow(tx.ExecContext(ctx, closeRec, args...)); err != nil {
			if errors.Is(err, errNoRows) {
				return domain.ErrNoActiveBorrow
			}
			return fmt.Errorf("close borrow record: %w", err)
		}

		release, args, err := r.store.goqu.Update(booksTable).
			Set(goqu.Record{"available": true}).
			Where(goqu.Ex{"id": bookID}).
			Prepared(true).
			ToSQL()
		if err != nil {
			return fmt.Errorf("build release query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, release, args...); err != nil {
			return fmt.Errorf("release book: %w", err)
		}

		rec, err = r.findByID(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (r *BorrowRepository) ListByUser(ctx context.Context, userID int64, activeOnly bool) ([]*domain.BorrowRecord, error) {
	ds := r.store.goqu.From(borrowsTable).
		Select(borrowColumns...).
		Where(goqu.Ex{"user_id": userID}).
		Order(goqu.I("id").Asc())
	if activeOnly {
		ds = ds.Where(goqu.C("return_date").IsNull())
	}
	query, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build borrow query: %w", err)
	}

	var rows []borrowRow
	if err := r.store.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list borrows: %w", err)
	}

	recs := make([]*domain.BorrowRecord, 0, len(rows))
	for _, row := range rows {
		recs = append(recs, row.toDomain())
	}
	return recs, nil
}

func (r *BorrowRepository) findByID(ctx context.Context, tx *sqlx.Tx, id int64) (*domain.BorrowRecord, error) {
	query, args, err := r.store.goqu.From(borrowsTable).
		Select(borrowColumns...).
		Where(goqu.Ex{"id": id}).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build borrow query: %w", err)
	}
	var row borrowRow
	if err := tx.GetContext(ctx, &row, query, args...); err != nil {
		return nil, fmt.Errorf("load borrow record: %w", err)
	}
	return row.toDomain(), nil
}

var errNoRows = errors.New("no rows affected")

func expectOneRow(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errNoRows
	}
	return nil
}
