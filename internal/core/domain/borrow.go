package domain

import "time"

// BookState is derived from Book.Available; it is never stored on its own.
type BookState string

const (
	StateAvailable BookState = "available"
	StateBorrowed  BookState = "borrowed"
)

// State returns the lending state of the book.
func (b Book) State() BookState {
	if b.Available {
		return StateAvailable
	}
	return StateBorrowed
}

// BorrowRecord tracks one lending of a book to a user.
// A nil ReturnDate marks the record as active.
type BorrowRecord struct {
	ID         int64      `json:"id"`
	UserID     int64      `json:"user_id"`
	BookID     int64      `json:"book_id"`
	BorrowDate time.Time  `json:"borrow_date"`
	ReturnDate *time.Time `json:"return_date"`
}

// Active reports whether the book is still out on this record.
func (r BorrowRecord) Active() bool {
	return r.ReturnDate == nil
}
