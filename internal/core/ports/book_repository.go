package ports

import (
	"context"

	"github.com/99minutos/library-system/internal/core/domain"
)

// BookRepository defines catalog persistence.
type BookRepository interface {
	Create(ctx context.Context, book *domain.Book) (*domain.Book, error)
	// List returns every book in insertion order.
	List(ctx context.Context) ([]*domain.Book, error)
	// FindByID returns domain.ErrBookNotFound for unknown ids.
	FindByID(ctx context.Context, id int64) (*domain.Book, error)
}
