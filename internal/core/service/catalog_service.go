package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/99minutos/library-system/internal/core/domain"
	"github.com/99minutos/library-system/internal/core/ports"
)

type CatalogService struct {
	repo   ports.BookRepository
	logger zerolog.Logger
}

func NewCatalogService(repo ports.BookRepository, logger zerolog.Logger) *CatalogService {
	return &CatalogService{repo: repo, logger: logger}
}

// AddBook persists a new, available book. Role checks happen before this call.
func (s *CatalogService) AddBook(ctx context.Context, title, author string) (*domain.Book, error) {
	title, author = strings.TrimSpace(title), strings.TrimSpace(author)
	if title == "" || author == "" {
		return nil, fmt.Errorf("%w: title and author are required", domain.ErrInvalidInput)
	}

	book, err := s.repo.Create(ctx, &domain.Book{Title: title, Author: author, Available: true})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to add book")
		return nil, fmt.Errorf("add book: %w", err)
	}

	s.logger.Info().Int64("book_id", book.ID).Str("title", book.Title).Msg("book added")
	return book, nil
}

func (s *CatalogService) ListBooks(ctx context.Context) ([]*domain.Book, error) {
	books, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	if books == nil {
		books = []*domain.Book{}
	}
	return books, nil
}

func (s *CatalogService) GetBook(ctx context.Context, id int64) (*domain.Book, error) {
	book, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get book: %w", err)
	}
	return book, nil
}
