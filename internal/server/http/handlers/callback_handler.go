package handlers

import (
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/inkwell/coauthor/internal/domain/errors"
	"github.com/inkwell/coauthor/internal/domain/model"
	"github.com/inkwell/coauthor/internal/server/http/dto"
)

const resultPagePath = "/purchase/result"

// CallbackHandler receives payment outcomes from the provider. Two delivery
// shapes share the route: signed server-to-server notifications carrying an
// X-VERIFY header, and unsigned browser redirects carrying only the mtid
// query parameter. Only the signed shape settles directly; redirects are
// confirmed through the provider status API first.
type CallbackHandler struct {
	facade CallbackFacade
}

// NewCallbackHandler creates CallbackHandler instance.
func NewCallbackHandler(facade CallbackFacade) *CallbackHandler {
	return &CallbackHandler{facade: facade}
}

// Receive handles GET and POST /api/payments/callback.
func (h *CallbackHandler) Receive(c *gin.Context) {
	if xVerify := c.GetHeader("X-VERIFY"); xVerify != "" {
		h.settleSigned(c, xVerify)
		return
	}
	h.redirectAfterConfirm(c)
}

func (h *CallbackHandler) settleSigned(c *gin.Context, xVerify string) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		respondError(c, domainErrors.ErrInvalidPayload)
		return
	}

	if _, err := h.facade.SettleFromCallback(c.Request.Context(), body, xVerify); err != nil {
		switch {
		case errors.Is(err, domainErrors.ErrInvalidSignature),
			errors.Is(err, domainErrors.ErrInvalidPayload):
			c.AbortWithStatusJSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		default:
			respondError(c, err)
		}
		return
	}

	// Unknown transaction ids are acknowledged without effect so the
	// provider stops retrying.
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *CallbackHandler) redirectAfterConfirm(c *gin.Context) {
	transactionID := strings.TrimSpace(c.Query("mtid"))
	if transactionID == "" {
		h.redirectResult(c, "error", "")
		return
	}

	result, err := h.facade.ConfirmTransaction(c.Request.Context(), transactionID)
	if err != nil {
		h.redirectResult(c, "error", transactionID)
		return
	}

	switch result.State {
	case model.PaymentStateCompleted:
		h.redirectResult(c, "success", transactionID)
	case model.PaymentStateFailed:
		h.redirectResult(c, "failed", transactionID)
	default:
		h.redirectResult(c, "error", transactionID)
	}
}

func (h *CallbackHandler) redirectResult(c *gin.Context, status, transactionID string) {
	values := url.Values{"status": {status}}
	if transactionID != "" {
		values.Set("mtid", transactionID)
	}
	c.Redirect(http.StatusSeeOther, resultPagePath+"?"+values.Encode())
}
