package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/library-system/internal/api/metrics"
	"github.com/99minutos/library-system/internal/core/ports"
)

// BookHandler serves the catalog. Role checks for Create are applied by the
// router's RequireRole middleware.
type BookHandler struct {
	catalog ports.CatalogService
}

func NewBookHandler(catalog ports.CatalogService) *BookHandler {
	return &BookHandler{catalog: catalog}
}

// Create handles POST /books.
//
// @Summary      Add a book
// @Tags         books
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      bookRequest  true  "Book"
// @Success      201   {object}  bookResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /books [post]
func (h *BookHandler) Create(c echo.Context) error {
	var req bookRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	book, err := h.catalog.AddBook(c.Request().Context(), req.Title, req.Author)
	if err != nil {
		return err
	}
	metrics.BooksAddedTotal.Inc()

	return c.JSON(http.StatusCreated, toBookResponse(book))
}

// List handles GET /books.
//
// @Summary      List books
// @Tags         books
// @Produce      json
// @Success      200  {array}   bookResponse
// @Router       /books [get]
func (h *BookHandler) List(c echo.Context) error {
	books, err := h.catalog.ListBooks(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toBookResponses(books))
}

// Get handles GET /books/:id.
//
// @Summary      Get a book
// @Tags         books
// @Produce      json
// @Param        id   path      int  true  "Book ID"
// @Success      200  {object}  bookResponse
// @Failure      404  {object}  errorResponse
// @Failure      422  {object}  errorResponse
// @Router       /books/{id} [get]
func (h *BookHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	book, err := h.catalog.GetBook(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toBookResponse(book))
}
