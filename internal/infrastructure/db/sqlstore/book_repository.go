package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/doug-martin/goqu/v9"

	"github.com/99minutos/library-system/internal/core/domain"
)

const booksTable = "books"

var bookColumns = []any{"id", "title", "author", "available"}

type bookRow struct {
	ID        int64  `db:"id"`
	Title     string `db:"title"`
	Author    string `db:"author"`
	Available bool   `db:"available"`
}

func (r bookRow) toDomain() *domain.Book {
	return &domain.Book{ID: r.ID, Title: r.Title, Author: r.Author, Available: r.Available}
}

// BookRepository implements ports.BookRepository.
type BookRepository struct {
	store *Store
}

func (r *BookRepository) Create(ctx context.Context, book *domain.Book) (*domain.Book, error) {
	created := *book
	query := r.store.db.Rebind(`INSERT INTO books (title, author, available) VALUES (?, ?, ?) RETURNING id`)
	if err := r.store.db.QueryRowxContext(ctx, query, created.Title, created.Author, created.Available).Scan(&created.ID); err != nil {
		return nil, fmt.Errorf("insert book: %w", err)
	}
	return &created, nil
}

func (r *BookRepository) List(ctx context.Context) ([]*domain.Book, error) {
	query, args, err := r.store.goqu.From(booksTable).
		Select(bookColumns...).
		Order(goqu.I("id").Asc()).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build book query: %w", err)
	}

	var rows []bookRow
	if err := r.store.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}

	books := make([]*domain.Book, 0, len(rows))
	for _, row := range rows {
		books = append(books, row.toDomain())
	}
	return books, nil
}

func (r *BookRepository) FindByID(ctx context.Context, id int64) (*domain.Book, error) {
	query, args, err := r.store.goqu.From(booksTable).
		Select(bookColumns...).
		Where(goqu.Ex{"id": id}).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build book query: %w", err)
	}

	var row bookRow
	if err := r.store.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrBookNotFound
		}
		return nil, fmt.Errorf("find book: %w", err)
	}
	return row.toDomain(), nil
}
