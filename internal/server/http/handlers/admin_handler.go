package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/inkwell/coauthor/internal/domain/errors"
	"github.com/inkwell/coauthor/internal/domain/model"
	"github.com/inkwell/coauthor/internal/domain/repository"
	"github.com/inkwell/coauthor/internal/server/http/dto"
	"github.com/inkwell/coauthor/internal/usecase"
)

// AdminHandler serves catalog management and the one-time admin bootstrap.
type AdminHandler struct {
	catalog AdminCatalogFacade
	auth    AuthFacade
}

// NewAdminHandler creates AdminHandler instance.
func NewAdminHandler(catalog AdminCatalogFacade, auth AuthFacade) *AdminHandler {
	return &AdminHandler{catalog: catalog, auth: auth}
}

// ListBooks handles GET /api/admin/books.
func (h *AdminHandler) ListBooks(c *gin.Context) {
	books, err := h.catalog.AllBooks(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewBookResponses(books))
}

// CreateBook handles POST /api/admin/books.
func (h *AdminHandler) CreateBook(c *gin.Context) {
	var req dto.CreateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, domainErrors.ErrInvalidInput)
		return
	}

	in := usecase.CreateBookInput{
		Slug:               req.Slug,
		Title:              req.Title,
		Description:        req.Description,
		Genre:              req.Genre,
		CoverImageURL:      req.CoverImageURL,
		TotalPositions:     req.TotalPositions,
		AvailablePositions: req.AvailablePositions,
		PricePerPosition:   req.PricePerPosition,
		Status:             model.BookStatus(req.Status),
	}
	if req.PublicationDate != "" {
		date, err := time.Parse(time.DateOnly, req.PublicationDate)
		if err != nil {
			respondError(c, domainErrors.ErrInvalidInput)
			return
		}
		in.PublicationDate = &date
	}

	book, err := h.catalog.CreateBook(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewBookResponse(*book))
}

// UpdateBook handles PATCH /api/admin/books/:id.
func (h *AdminHandler) UpdateBook(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, domainErrors.ErrInvalidInput)
		return
	}

	var req dto.UpdateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, domainErrors.ErrInvalidInput)
		return
	}

	upd := repository.BookUpdate{
		AvailablePositions: req.AvailablePositions,
		PricePerPosition:   req.PricePerPosition,
	}
	if req.Status != nil {
		status := model.BookStatus(*req.Status)
		upd.Status = &status
	}

	book, err := h.catalog.UpdateBook(c.Request.Context(), id, upd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewBookResponse(*book))
}

// Bootstrap handles POST /api/admin/bootstrap. The first caller becomes
// admin; later calls are rejected once any admin exists.
func (h *AdminHandler) Bootstrap(c *gin.Context) {
	granted, err := h.auth.BootstrapAdmin(c.Request.Context(), CurrentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	if !granted {
		respondError(c, domainErrors.ErrForbidden)
		return
	}
	c.JSON(http.StatusOK, gin.H{"role": string(model.RoleAdmin)})
}
