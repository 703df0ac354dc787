package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/inkwell/coauthor/internal/domain/errors"
	"github.com/inkwell/coauthor/internal/domain/model"
	"github.com/inkwell/coauthor/internal/server/http/dto"
)

// ProfileHandler serves the buyer profile.
type ProfileHandler struct {
	facade ProfileFacade
}

// NewProfileHandler creates ProfileHandler instance.
func NewProfileHandler(facade ProfileFacade) *ProfileHandler {
	return &ProfileHandler{facade: facade}
}

// Get handles GET /api/user/profile.
func (h *ProfileHandler) Get(c *gin.Context) {
	profile, err := h.facade.Profile(c.Request.Context(), CurrentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewProfileResponse(profile))
}

// Put handles PUT /api/user/profile.
func (h *ProfileHandler) Put(c *gin.Context) {
	var req dto.ProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, domainErrors.ErrInvalidInput)
		return
	}

	profile, err := h.facade.SaveProfile(c.Request.Context(), &model.Profile{
		UserID:    CurrentUserID(c),
		FullName:  req.FullName,
		Phone:     req.Phone,
		Bio:       req.Bio,
		AvatarURL: req.AvatarURL,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewProfileResponse(profile))
}
