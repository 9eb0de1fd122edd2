package handler

import (
	"time"

	"github.com/99minutos/library-system/internal/core/domain"
)

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Request / Response types ---

type registerRequest struct {
	Username string `json:"username" form:"username" validate:"required,max=64"`
	Password string `json:"password" form:"password" validate:"required,max=72"`
	Role     string `json:"role"     form:"role"     validate:"required,oneof=member admin"`
}

type tokenRequest struct {
	Username string `json:"username" form:"username" validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
}

type tokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type userResponse struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

type bookRequest struct {
	Title  string `json:"title"  validate:"required,max=256"`
	Author string `json:"author" validate:"required,max=256"`
}

type bookResponse struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Author    string `json:"author"`
	Available bool   `json:"available"`
}

type borrowRecordResponse struct {
	ID         int64      `json:"id"`
	UserID     int64      `json:"user_id"`
	BookID     int64      `json:"book_id"`
	BorrowDate time.Time  `json:"borrow_date"`
	ReturnDate *time.Time `json:"return_date"`
}

// --- Mappers ---

func toUserResponse(u *domain.User) userResponse {
	return userResponse{ID: u.ID, Username: u.Username, Role: string(u.Role), CreatedAt: u.CreatedAt}
}

func toBookResponse(b *domain.Book) bookResponse {
	return bookResponse{ID: b.ID, Title: b.Title, Author: b.Author, Available: b.Available}
}

func toBookResponses(books []*domain.Book) []bookResponse {
	out := make([]bookResponse, 0, len(books))
	for _, b := range books {
		out = append(out, toBookResponse(b))
	}
	return out
}

func toBorrowRecordResponse(r *domain.BorrowRecord) borrowRecordResponse {
	return borrowRecordResponse{
		ID:         r.ID,
		UserID:     r.UserID,
		BookID:     r.BookID,
		BorrowDate: r.BorrowDate,
		ReturnDate: r.ReturnDate,
	}
}

func toBorrowRecordResponses(recs []*domain.BorrowRecord) []borrowRecordResponse {
	out := make([]borrowRecordResponse, 0, len(recs))
	for _, r := range recs {
		out = append(out, toBorrowRecordResponse(r))
	}
	return out
}
