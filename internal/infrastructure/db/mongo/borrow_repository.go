package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/99minutos/library-system/internal/core/domain"
)

// mongoBorrow mirrors ReturnDate in Active so the partial unique index can
// express "one open record per book".
type mongoBorrow struct {
	ID         int64      `bson:"_id"`
	UserID     int64      `bson:"user_id"`
	BookID     int64      `bson:"book_id"`
	BorrowDate time.Time  `bson:"borrow_date"`
	ReturnDate *time.Time `bson:"return_date"`
	Active     bool       `bson:"active"`
}

func (b mongoBorrow) toDomain() *domain.BorrowRecord {
	rec := &domain.BorrowRecord{
		ID:         b.ID,
		UserID:     b.UserID,
		BookID:     b.BookID,
		BorrowDate: b.BorrowDate.UTC(),
	}
	if b.ReturnDate != nil {
		ts := b.ReturnDate.UTC()
		rec.ReturnDate = &ts
	}
	return rec
}

// BorrowRepository implements ports.BorrowRepository.
type BorrowRepository struct {
	store   *Store
	books   *mongo.Collection
	borrows *mongo.Collection
}

func newBorrowRepository(s *Store) *BorrowRepository {
	return &BorrowRepository{
		store:   s,
		books:   s.db.Collection(collectionBooks),
		borrows: s.db.Collection(collectionBorrows),
	}
}

func (r *BorrowRepository) Borrow(ctx context.Context, bookID, userID int64, at time.Time) (*domain.BorrowRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var rec *domain.BorrowRecord
	err := r.store.withTransaction(ctx, func(sc mongo.SessionContext) error {
		res := r.books.FindOneAndUpdate(sc,
			bson.M{"_id": bookID, "available": true},
			bson.M{"$set": bson.M{"available": false}},
		)
		if err := res.Err(); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return domain.ErrBookNotAvailable
			}
			return fmt.Errorf("claim book: %w", err)
		}

		id, err := r.store.nextID(sc, collectionBorrows)
		if err != nil {
			return err
		}
		doc := mongoBorrow{ID: id, UserID: userID, BookID: bookID, BorrowDate: at.UTC(), Active: true}
		if _, err := r.borrows.InsertOne(sc, doc); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return domain.ErrBookNotAvailable
			}
			return fmt.Errorf("insert borrow record: %w", err)
		}
		rec = doc.toDomain()
		return nil
	})
	if err != nil {
		return nil, mapTxnError(err, domain.ErrBookNotAvailable)
	}
	return rec, nil
}

func (r *BorrowRepository) Return(ctx context.Context, bookID, userID int64, at time.Time) (*domain.BorrowRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var rec *domain.BorrowRecord
	err := r.store.withTransaction(ctx, func(sc mongo.SessionContext) error {
		var doc mongoBorrow
		err := r.borrows.FindOneAndUpdate(sc,
			bson.M{"book_id": bookID, "user_id": userID, "active": true},
			bson.M{"$set": bson.M{"active": false, "return_date": at.UTC()}},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&doc)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return domain.ErrNoActiveBorrow
			}
			return fmt.Errorf("close borrow record: %w", err)
		}

		if _, err := r.books.UpdateOne(sc, bson.M{"_id": bookID}, bson.M{"$set": bson.M{"available": true}}); err != nil {
			return fmt.Errorf("release book: %w", err)
		}
		rec = doc.toDomain()
		return nil
	})
	if err != nil {
		return nil, mapTxnError(err, domain.ErrNoActiveBorrow)
	}
	return rec, nil
}

func (r *BorrowRepository) ListByUser(ctx context.Context, userID int64, activeOnly bool) ([]*domain.BorrowRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"user_id": userID}
	if activeOnly {
		filter["active"] = true
	}
	cur, err := r.borrows.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list borrows: %w", err)
	}
	var docs []mongoBorrow
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode borrows: %w", err)
	}

	recs := make([]*domain.BorrowRecord, 0, len(docs))
	for _, d := range docs {
		recs = append(recs, d.toDomain())
	}
	return recs, nil
}

// mapTxnError unwraps the domain error a transaction callback returned.
// WithTransaction retries transient failures itself, so anything else that
// escapes is a storage problem and stays as-is.
func mapTxnError(err, lost error) error {
	if errors.Is(err, lost) {
		return lost
	}
	return err
}
