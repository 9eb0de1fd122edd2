package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/library-system/internal/api/metrics"
	"github.com/99minutos/library-system/internal/core/domain"
	"github.com/99minutos/library-system/internal/core/ports"
)

type BorrowHandler struct {
	ledger ports.LedgerService
}

func NewBorrowHandler(ledger ports.LedgerService) *BorrowHandler {
	return &BorrowHandler{ledger: ledger}
}

// Borrow handles POST /borrow/:book_id.
//
// @Summary      Borrow a book
// @Tags         ledger
// @Produce      json
// @Security     BearerAuth
// @Param        book_id  path      int  true  "Book ID"
// @Success      201      {object}  borrowRecordResponse
// @Failure      401      {object}  errorResponse
// @Failure      404      {object}  errorResponse  "Book not available"
// @Router       /borrow/{book_id} [post]
func (h *BorrowHandler) Borrow(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	bookID, err := pathID(c, "book_id")
	if err != nil {
		return err
	}

	start := time.Now()
	rec, err := h.ledger.Borrow(c.Request().Context(), bookID, p.UserID)
	metrics.LedgerOperationDuration.WithLabelValues("borrow").Observe(time.Since(start).Seconds())
	metrics.BorrowsTotal.WithLabelValues(metrics.Result(err, func(err error) bool {
		return errors.Is(err, domain.ErrBookNotAvailable)
	})).Inc()
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, toBorrowRecordResponse(rec))
}

// Return handles POST /return/:book_id.
//
// @Summary      Return a book
// @Tags         ledger
// @Produce      json
// @Security     BearerAuth
// @Param        book_id  path      int  true  "Book ID"
// @Success      200      {object}  borrowRecordResponse
// @Failure      401      {object}  errorResponse
// @Failure      404      {object}  errorResponse  "No active borrow record found"
// @Router       /return/{book_id} [post]
func (h *BorrowHandler) Return(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	bookID, err := pathID(c, "book_id")
	if err != nil {
		return err
	}

	start := time.Now()
	rec, err := h.ledger.Return(c.Request().Context(), bookID, p.UserID)
	metrics.LedgerOperationDuration.WithLabelValues("return").Observe(time.Since(start).Seconds())
	metrics.ReturnsTotal.WithLabelValues(metrics.Result(err, func(err error) bool {
		return errors.Is(err, domain.ErrNoActiveBorrow)
	})).Inc()
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, toBorrowRecordResponse(rec))
}

// Mine handles GET /me/borrows.
//
// @Summary      List the caller's borrow records
// @Tags         ledger
// @Produce      json
// @Security     BearerAuth
// @Param        active  query     bool  false  "Only records not yet returned"
// @Success      200     {array}   borrowRecordResponse
// @Failure      401     {object}  errorResponse
// @Router       /me/borrows [get]
func (h *BorrowHandler) Mine(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	var activeOnly bool
	if err := echo.QueryParamsBinder(c).Bool("active", &activeOnly).BindError(); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "active must be a boolean")
	}

	recs, err := h.ledger.ListBorrows(c.Request().Context(), p.UserID, activeOnly)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toBorrowRecordResponses(recs))
}
