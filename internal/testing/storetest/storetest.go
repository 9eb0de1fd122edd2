// Package storetest holds the behavioural contract every storage backend must
// satisfy. Backend packages call Run from their own tests.
package storetest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/99minutos/library-system/internal/core/domain"
	"github.com/99minutos/library-system/internal/core/ports"
)

// Repos is one backend's set of repositories over an empty store.
type Repos struct {
	Users   ports.UserRepository
	Books   ports.BookRepository
	Borrows ports.BorrowRepository
}

// Factory returns repositories over a freshly emptied store.
type Factory func(t *testing.T) Repos

// Run executes the contract suite.
func Run(t *testing.T, newRepos Factory) {
	suite.Run(t, &ContractSuite{newRepos: newRepos})
}

type ContractSuite struct {
	suite.Suite
	newRepos Factory
	repos    Repos
	ctx      context.Context
	now      time.Time
}

func (s *ContractSuite) SetupTest() {
	s.ctx = context.Background()
	s.now = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	s.repos = s.newRepos(s.T())
}

func (s *ContractSuite) user(name string, role domain.Role) *domain.User {
	u, err := s.repos.Users.Create(s.ctx, &domain.User{Username: name, PasswordHash: "hash-" + name, Role: role})
	s.Require().NoError(err)
	return u
}

func (s *ContractSuite) book(title, author string) *domain.Book {
	b, err := s.repos.Books.Create(s.ctx, &domain.Book{Title: title, Author: author, Available: true})
	s.Require().NoError(err)
	return b
}

func (s *ContractSuite) TestUsers_CreateAndFind() {
	alice := s.user("alice", domain.RoleMember)
	s.Positive(alice.ID)
	s.False(alice.CreatedAt.IsZero())

	byName, err := s.repos.Users.FindByUsername(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal(alice.ID, byName.ID)
	s.Equal("hash-alice", byName.PasswordHash)
	s.Equal(domain.RoleMember, byName.Role)

	byID, err := s.repos.Users.FindByID(s.ctx, alice.ID)
	s.Require().NoError(err)
	s.Equal("alice", byID.Username)
}

func (s *ContractSuite) TestUsers_UsernameIsCaseSensitive() {
	s.user("alice", domain.RoleMember)

	_, err := s.repos.Users.FindByUsername(s.ctx, "Alice")
	s.ErrorIs(err, domain.ErrUserNotFound)

	_, err = s.repos.Users.Create(s.ctx, &domain.User{Username: "Alice", PasswordHash: "x", Role: domain.RoleMember})
	s.NoError(err)
}

func (s *ContractSuite) TestUsers_Duplicate() {
	s.user("alice", domain.RoleMember)

	_, err := s.repos.Users.Create(s.ctx, &domain.User{Username: "alice", PasswordHash: "other", Role: domain.RoleAdmin})
	s.ErrorIs(err, domain.ErrDuplicateUsername)

	u, err := s.repos.Users.FindByUsername(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal(domain.RoleMember, u.Role, "the original account must be untouched")
}

func (s *ContractSuite) TestUsers_NotFound() {
	_, err := s.repos.Users.FindByID(s.ctx, 4242)
	s.ErrorIs(err, domain.ErrUserNotFound)
}

func (s *ContractSuite) TestBooks_ListInInsertionOrder() {
	empty, err := s.repos.Books.List(s.ctx)
	s.Require().NoError(err)
	s.Empty(empty)

	dune := s.book("Dune", "Herbert")
	emma := s.book("Emma", "Austen")
	s.Less(dune.ID, emma.ID)

	books, err := s.repos.Books.List(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(books, 2)
	s.Equal("Dune", books[0].Title)
	s.Equal("Emma", books[1].Title)
	s.True(books[0].Available)
}

func (s *ContractSuite) TestBooks_FindByID() {
	dune := s.book("Dune", "Herbert")

	got, err := s.repos.Books.FindByID(s.ctx, dune.ID)
	s.Require().NoError(err)
	s.Equal(*dune, *got)

	_, err = s.repos.Books.FindByID(s.ctx, dune.ID+100)
	s.ErrorIs(err, domain.ErrBookNotFound)
}

func (s *ContractSuite) TestBorrow_Lifecycle() {
	alice := s.user("alice", domain.RoleMember)
	dune := s.book("Dune", "Herbert")

	rec, err := s.repos.Borrows.Borrow(s.ctx, dune.ID, alice.ID, s.now)
	s.Require().NoError(err)
	s.True(rec.Active())
	s.Equal(alice.ID, rec.UserID)
	s.Equal(dune.ID, rec.BookID)
	s.WithinDuration(s.now, rec.BorrowDate, time.Millisecond)
	s.availability(dune.ID, false)

	_, err = s.repos.Borrows.Borrow(s.ctx, dune.ID, alice.ID, s.now)
	s.ErrorIs(err, domain.ErrBookNotAvailable)

	returnedAt := s.now.Add(time.Hour)
	closed, err := s.repos.Borrows.Return(s.ctx, dune.ID, alice.ID, returnedAt)
	s.Require().NoError(err)
	s.Equal(rec.ID, closed.ID)
	s.Require().NotNil(closed.ReturnDate)
	s.WithinDuration(returnedAt, *closed.ReturnDate, time.Millisecond)
	s.availability(dune.ID, true)

	_, err = s.repos.Borrows.Return(s.ctx, dune.ID, alice.ID, returnedAt)
	s.ErrorIs(err, domain.ErrNoActiveBorrow)

	all, err := s.repos.Borrows.ListByUser(s.ctx, alice.ID, false)
	s.Require().NoError(err)
	s.Len(all, 1)
	s.False(all[0].Active())
}

func (s *ContractSuite) TestBorrow_MissingBook() {
	alice := s.user("alice", domain.RoleMember)

	_, err := s.repos.Borrows.Borrow(s.ctx, 999, alice.ID, s.now)
	s.ErrorIs(err, domain.ErrBookNotAvailable)
}

func (s *ContractSuite) TestBorrow_BorrowAgainAfterReturn() {
	alice := s.user("alice", domain.RoleMember)
	bob := s.user("bob", domain.RoleMember)
	dune := s.book("Dune", "Herbert")

	_, err := s.repos.Borrows.Borrow(s.ctx, dune.ID, alice.ID, s.now)
	s.Require().NoError(err)
	_, err = s.repos.Borrows.Return(s.ctx, dune.ID, alice.ID, s.now.Add(time.Minute))
	s.Require().NoError(err)

	rec, err := s.repos.Borrows.Borrow(s.ctx, dune.ID, bob.ID, s.now.Add(2*time.Minute))
	s.Require().NoError(err)
	s.Equal(bob.ID, rec.UserID)
}

func (s *ContractSuite) TestReturn_WrongUserLeavesStateUnchanged() {
	alice := s.user("alice", domain.RoleMember)
	bob := s.user("bob", domain.RoleMember)
	dune := s.book("Dune", "Herbert")

	_, err := s.repos.Borrows.Borrow(s.ctx, dune.ID, alice.ID, s.now)
	s.Require().NoError(err)

	_, err = s.repos.Borrows.Return(s.ctx, dune.ID, bob.ID, s.now)
	s.ErrorIs(err, domain.ErrNoActiveBorrow)
	s.availability(dune.ID, false)

	active, err := s.repos.Borrows.ListByUser(s.ctx, alice.ID, true)
	s.Require().NoError(err)
	s.Len(active, 1)
}

func (s *ContractSuite) TestReturn_NeverBorrowed() {
	alice := s.user("alice", domain.RoleMember)
	dune := s.book("Dune", "Herbert")

	_, err := s.repos.Borrows.Return(s.ctx, dune.ID, alice.ID, s.now)
	s.ErrorIs(err, domain.ErrNoActiveBorrow)
	s.availability(dune.ID, true)
}

// SQLite runs on one connection, so only the PostgreSQL and MongoDB runs
// (make test-integration) actually contend on the book row.
func (s *ContractSuite) TestBorrow_ConcurrentExactlyOneWins() {
	dune := s.book("Dune", "Herbert")

	const workers = 8
	users := make([]*domain.User, workers)
	for i := range users {
		users[i] = s.user("reader"+string(rune('a'+i)), domain.RoleMember)
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
		errs []error
	)
	for _, u := range users {
		wg.Add(1)
		go func(userID int64) {
			defer wg.Done()
			_, err := s.repos.Borrows.Borrow(s.ctx, dune.ID, userID, s.now)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				wins++
				return
			}
			errs = append(errs, err)
		}(u.ID)
	}
	wg.Wait()

	s.Equal(1, wins)
	for _, err := range errs {
		s.ErrorIs(err, domain.ErrBookNotAvailable)
	}
	s.availability(dune.ID, false)
}

func (s *ContractSuite) TestListByUser_FiltersActive() {
	alice := s.user("alice", domain.RoleMember)
	bob := s.user("bob", domain.RoleMember)
	dune := s.book("Dune", "Herbert")
	emma := s.book("Emma", "Austen")
	odyssey := s.book("Odyssey", "Homer")

	_, err := s.repos.Borrows.Borrow(s.ctx, dune.ID, alice.ID, s.now)
	s.Require().NoError(err)
	_, err = s.repos.Borrows.Borrow(s.ctx, emma.ID, alice.ID, s.now)
	s.Require().NoError(err)
	_, err = s.repos.Borrows.Borrow(s.ctx, odyssey.ID, bob.ID, s.now)
	s.Require().NoError(err)
	_, err = s.repos.Borrows.Return(s.ctx, dune.ID, alice.ID, s.now.Add(time.Hour))
	s.Require().NoError(err)

	all, err := s.repos.Borrows.ListByUser(s.ctx, alice.ID, false)
	s.Require().NoError(err)
	s.Require().Len(all, 2)
	s.Equal(dune.ID, all[0].BookID)
	s.Equal(emma.ID, all[1].BookID)

	active, err := s.repos.Borrows.ListByUser(s.ctx, alice.ID, true)
	s.Require().NoError(err)
	s.Require().Len(active, 1)
	s.Equal(emma.ID, active[0].BookID)

	none, err := s.repos.Borrows.ListByUser(s.ctx, 4242, false)
	s.Require().NoError(err)
	s.Empty(none)
}

func (s *ContractSuite) availability(bookID int64, want bool) {
	b, err := s.repos.Books.FindByID(s.ctx, bookID)
	require.NoError(s.T(), err)
	s.Equal(want, b.Available, "book %d availability", bookID)
}
