package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/inkwell/coauthor/internal/domain/errors"
	"github.com/inkwell/coauthor/internal/domain/model"
	"github.com/inkwell/coauthor/internal/server/http/dto"
)

// PurchaseHandler starts checkouts and reports purchase state.
type PurchaseHandler struct {
	facade PurchaseFacade
}

// NewPurchaseHandler creates PurchaseHandler instance.
func NewPurchaseHandler(facade PurchaseFacade) *PurchaseHandler {
	return &PurchaseHandler{facade: facade}
}

// Begin handles POST /api/books/:slug/purchase.
func (h *PurchaseHandler) Begin(c *gin.Context) {
	var req dto.PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, domainErrors.ErrInvalidInput)
		return
	}

	contact := model.BuyerContact{
		Phone:           req.Phone,
		Bio:             req.Bio,
		ProfileImageURL: req.ProfileImgURL,
	}
	intent, err := h.facade.BeginPurchase(c.Request.Context(), CurrentUserID(c), c.Param("slug"), req.Positions, contact)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.CheckoutResponse{
		TransactionID: intent.TransactionID,
		CheckoutURL:   intent.CheckoutURL,
	})
}

// Status handles GET /api/purchases/:txid.
func (h *PurchaseHandler) Status(c *gin.Context) {
	purchase, err := h.facade.PurchaseStatus(c.Request.Context(), c.Param("txid"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewPurchaseResponse(*purchase))
}

// History handles GET /api/user/purchases.
func (h *PurchaseHandler) History(c *gin.Context) {
	purchases, err := h.facade.UserPurchases(c.Request.Context(), CurrentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	if len(purchases) == 0 {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, dto.NewPurchaseResponses(purchases))
}
