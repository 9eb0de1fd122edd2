package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/library-system/internal/core/domain"
)

// ---------------------------------------------------------------------------
// In-memory stubs shared by the service tests
// ---------------------------------------------------------------------------

var discardLogger = zerolog.Nop()

type stubUserRepo struct {
	mu      sync.Mutex
	users   map[string]*domain.User
	nextID  int64
	findErr error // if set, lookups return this error
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.users[user.Username]; exists {
		return nil, domain.ErrDuplicateUsername
	}
	r.nextID++
	stored := cloneUser(user)
	stored.ID = r.nextID
	r.users[stored.Username] = stored
	return cloneUser(stored), nil
}

func (r *stubUserRepo) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	u, ok := r.users[username]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id int64) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.ID == id {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

type stubDenylist struct {
	revoked map[string]time.Duration
	err     error
}

func newStubDenylist() *stubDenylist {
	return &stubDenylist{revoked: make(map[string]time.Duration)}
}

func (d *stubDenylist) Revoke(_ context.Context, tokenID string, ttl time.Duration) error {
	if d.err != nil {
		return d.err
	}
	d.revoked[tokenID] = ttl
	return nil
}

func (d *stubDenylist) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	if d.err != nil {
		return false, d.err
	}
	_, ok := d.revoked[tokenID]
	return ok, nil
}

type stubBookRepo struct {
	books     []*domain.Book
	createErr error
}

func (r *stubBookRepo) Create(_ context.Context, b *domain.Book) (*domain.Book, error) {
	if r.createErr != nil {
		return nil, r.createErr
	}
	clone := *b
	clone.ID = int64(len(r.books) + 1)
	r.books = append(r.books, &clone)
	out := clone
	return &out, nil
}

func (r *stubBookRepo) List(_ context.Context) ([]*domain.Book, error) {
	if r.createErr != nil {
		return nil, r.createErr
	}
	out := make([]*domain.Book, 0, len(r.books))
	for _, b := range r.books {
		clone := *b
		out = append(out, &clone)
	}
	return out, nil
}

func (r *stubBookRepo) FindByID(_ context.Context, id int64) (*domain.Book, error) {
	for _, b := range r.books {
		if b.ID == id {
			clone := *b
			return &clone, nil
		}
	}
	return nil, domain.ErrBookNotFound
}

// stubBorrowRepo mirrors the transactional stores with a single mutex.
type stubBorrowRepo struct {
	mu        sync.Mutex
	available map[int64]bool
	records   []*domain.BorrowRecord
	err       error
}

func newStubBorrowRepo(bookIDs ...int64) *stubBorrowRepo {
	r := &stubBorrowRepo{available: make(map[int64]bool)}
	for _, id := range bookIDs {
		r.available[id] = true
	}
	return r
}

func (r *stubBorrowRepo) Borrow(_ context.Context, bookID, userID int64, at time.Time) (*domain.BorrowRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	if avail, ok := r.available[bookID]; !ok || !avail {
		return nil, domain.ErrBookNotAvailable
	}
	r.available[bookID] = false
	rec := &domain.BorrowRecord{ID: int64(len(r.records) + 1), BookID: bookID, UserID: userID, BorrowDate: at}
	r.records = append(r.records, rec)
	clone := *rec
	return &clone, nil
}

func (r *stubBorrowRepo) Return(_ context.Context, bookID, userID int64, at time.Time) (*domain.BorrowRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	for _, rec := range r.records {
		if rec.BookID == bookID && rec.UserID == userID && rec.Active() {
			ts := at
			rec.ReturnDate = &ts
			r.available[bookID] = true
			clone := *rec
			return &clone, nil
		}
	}
	return nil, domain.ErrNoActiveBorrow
}

func (r *stubBorrowRepo) ListByUser(_ context.Context, userID int64, activeOnly bool) ([]*domain.BorrowRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	var out []*domain.BorrowRecord
	for _, rec := range r.records {
		if rec.UserID != userID || (activeOnly && !rec.Active()) {
			continue
		}
		clone := *rec
		out = append(out, &clone)
	}
	return out, nil
}
