// Package mongo implements the repositories on MongoDB. Borrow and return run
// in multi-document transactions, which require a replica set.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	defaultTimeout = 10 * time.Second

	collectionCounters = "counters"
	collectionUsers    = "users"
	collectionBooks    = "books"
	collectionBorrows  = "borrow_records"
)

// Config captures the minimal settings required to establish a MongoDB connection.
type Config struct {
	URI      string
	Database string
	Timeout  time.Duration
}

// Connect establishes a MongoDB client, verifies connectivity with a ping, and
// returns both the client and the selected database. A default timeout is
// applied when none is provided.
func Connect(ctx context.Context, cfg Config) (*mongo.Client, *mongo.Database, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(connectCtx)
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}

	return client, client.Database(cfg.Database), nil
}

// Store owns the client shared by the repositories.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// Open connects and returns a Store over cfg.Database.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	client, db, err := Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Store{client: client, db: db}, nil
}

func (s *Store) Users() *UserRepository     { return &UserRepository{store: s, col: s.db.Collection(collectionUsers)} }
func (s *Store) Books() *BookRepository     { return &BookRepository{store: s, col: s.db.Collection(collectionBooks)} }
func (s *Store) Borrows() *BorrowRepository { return newBorrowRepository(s) }

func (s *Store) Name() string { return "mongo" }

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// Drop removes the whole database. Used by tests.
func (s *Store) Drop(ctx context.Context) error {
	return s.db.Drop(ctx)
}

// EnsureIndexes creates the unique and lookup indexes the repositories rely on.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := s.db.Collection(collectionUsers).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("username_unique"),
	})
	if err != nil {
		return fmt.Errorf("users index: %w", err)
	}

	_, err = s.db.Collection(collectionBorrows).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "book_id", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetName("one_active_borrow_per_book").
				SetPartialFilterExpression(bson.M{"active": true}),
		},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "_id", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("borrow_records indexes: %w", err)
	}

	// Collections must exist before they can be written inside a transaction
	// on servers older than 4.4.
	for _, name := range []string{collectionCounters, collectionBooks} {
		err := s.db.CreateCollection(ctx, name)
		var cmdErr mongo.CommandError
		if err != nil && !(errors.As(err, &cmdErr) && cmdErr.Name == "NamespaceExists") {
			return fmt.Errorf("create %s: %w", name, err)
		}
	}
	return nil
}

// nextID hands out monotonically increasing int64 ids per sequence name.
func (s *Store) nextID(ctx context.Context, sequence string) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := s.db.Collection(collectionCounters).FindOneAndUpdate(ctx,
		bson.M{"_id": sequence},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("next %s id: %w", sequence, err)
	}
	return counter.Seq, nil
}

// withTransaction runs fn inside a session transaction and returns fn's
// error unchanged so domain sentinels survive.
func (s *Store) withTransaction(ctx context.Context, fn func(sc mongo.SessionContext) error) error {
	sess, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}
