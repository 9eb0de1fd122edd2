package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/99minutos/library-system/internal/core/domain"
)

type mongoBook struct {
	ID        int64  `bson:"_id"`
	Title     string `bson:"title"`
	Author    string `bson:"author"`
	Available bool   `bson:"available"`
}

func (b mongoBook) toDomain() *domain.Book {
	return &domain.Book{ID: b.ID, Title: b.Title, Author: b.Author, Available: b.Available}
}

// BookRepository implements ports.BookRepository.
type BookRepository struct {
	store *Store
	col   *mongo.Collection
}

func (r *BookRepository) Create(ctx context.Context, book *domain.Book) (*domain.Book, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	id, err := r.store.nextID(ctx, collectionBooks)
	if err != nil {
		return nil, err
	}
	created := *book
	created.ID = id

	if _, err := r.col.InsertOne(ctx, mongoBook{
		ID:        created.ID,
		Title:     created.Title,
		Author:    created.Author,
		Available: created.Available,
	}); err != nil {
		return nil, fmt.Errorf("insert book: %w", err)
	}
	return &created, nil
}

func (r *BookRepository) List(ctx context.Context) ([]*domain.Book, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	var docs []mongoBook
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode books: %w", err)
	}

	books := make([]*domain.Book, 0, len(docs))
	for _, d := range docs {
		books = append(books, d.toDomain())
	}
	return books, nil
}

func (r *BookRepository) FindByID(ctx context.Context, id int64) (*domain.Book, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc mongoBook
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrBookNotFound
		}
		return nil, fmt.Errorf("find book: %w", err)
	}
	return doc.toDomain(), nil
}
