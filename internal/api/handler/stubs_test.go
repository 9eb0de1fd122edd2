package handler

import (
	"context"
	"net/http/httptest"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/library-system/internal/core/domain"
)

type stubAuthService struct {
	registerFn func(ctx context.Context, username, password string, role domain.Role) (*domain.User, error)
	loginFn    func(ctx context.Context, username, password string) (*domain.Token, *domain.User, error)
	logoutFn   func(ctx context.Context, p *domain.Principal) error
}

func (s *stubAuthService) Register(ctx context.Context, username, password string, role domain.Role) (*domain.User, error) {
	return s.registerFn(ctx, username, password, role)
}

func (s *stubAuthService) Login(ctx context.Context, username, password string) (*domain.Token, *domain.User, error) {
	return s.loginFn(ctx, username, password)
}

func (s *stubAuthService) Logout(ctx context.Context, p *domain.Principal) error {
	return s.logoutFn(ctx, p)
}

type stubCatalog struct {
	addFn  func(ctx context.Context, title, author string) (*domain.Book, error)
	listFn func(ctx context.Context) ([]*domain.Book, error)
	getFn  func(ctx context.Context, id int64) (*domain.Book, error)
}

func (s *stubCatalog) AddBook(ctx context.Context, title, author string) (*domain.Book, error) {
	return s.addFn(ctx, title, author)
}

func (s *stubCatalog) ListBooks(ctx context.Context) ([]*domain.Book, error) {
	return s.listFn(ctx)
}

func (s *stubCatalog) GetBook(ctx context.Context, id int64) (*domain.Book, error) {
	return s.getFn(ctx, id)
}

type stubLedger struct {
	borrowFn func(ctx context.Context, bookID, userID int64) (*domain.BorrowRecord, error)
	returnFn func(ctx context.Context, bookID, userID int64) (*domain.BorrowRecord, error)
	listFn   func(ctx context.Context, userID int64, activeOnly bool) ([]*domain.BorrowRecord, error)
}

func (s *stubLedger) Borrow(ctx context.Context, bookID, userID int64) (*domain.BorrowRecord, error) {
	return s.borrowFn(ctx, bookID, userID)
}

func (s *stubLedger) Return(ctx context.Context, bookID, userID int64) (*domain.BorrowRecord, error) {
	return s.returnFn(ctx, bookID, userID)
}

func (s *stubLedger) ListBorrows(ctx context.Context, userID int64, activeOnly bool) ([]*domain.BorrowRecord, error) {
	return s.listFn(ctx, userID, activeOnly)
}

// newContext builds an echo context with the validator installed.
func newContext(method, target, contentType, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()

	var req = httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set(echo.HeaderContentType, contentType)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func withPrincipal(c echo.Context, p *domain.Principal) echo.Context {
	c.Set(PrincipalKey, p)
	return c
}
