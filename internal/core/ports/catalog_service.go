package ports

import (
	"context"

	"github.com/99minutos/library-system/internal/core/domain"
)

// CatalogService manages books. Callers enforce the admin role for AddBook.
type CatalogService interface {
	AddBook(ctx context.Context, title, author string) (*domain.Book, error)
	ListBooks(ctx context.Context) ([]*domain.Book, error)
	GetBook(ctx context.Context, id int64) (*domain.Book, error)
}
