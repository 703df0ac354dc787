package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/inkwell/coauthor/internal/server/http/dto"
)

// BookHandler serves the public catalog.
type BookHandler struct {
	facade CatalogFacade
}

// NewBookHandler creates BookHandler instance.
func NewBookHandler(facade CatalogFacade) *BookHandler {
	return &BookHandler{facade: facade}
}

// List handles GET /api/books.
func (h *BookHandler) List(c *gin.Context) {
	books, err := h.facade.PublishedBooks(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewBookResponses(books))
}

// Get handles GET /api/books/:slug.
func (h *BookHandler) Get(c *gin.Context) {
	book, err := h.facade.PublishedBook(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewBookResponse(*book))
}
