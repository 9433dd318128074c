package handlers

import (
	"errors"
	"net/http"

	"incoin_webapp/internal/domain"
	"incoin_webapp/internal/payment"

	"github.com/gin-gonic/gin"
)

type BuyVIPRequest struct {
	Plan     string `json:"plan" binding:"required"`
	Currency string `json:"currency"`
}

func (h *Handler) VIPPlans(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"plans": domain.VIPPlans})
}

func (h *Handler) BuyVIP(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		unauthorized(c)
		return
	}
	var req BuyVIPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "plan is required")
		return
	}
	res, err := h.Economy.BuyVIP(c.Request.Context(), userID, req.Plan, req.Currency)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// PaymentLink returns the external checkout URL for a plan. Paying does not
// activate VIP by itself.
func (h *Handler) PaymentLink(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		unauthorized(c)
		return
	}
	plan, ok := domain.FindVIPPlan(domain.VIPTier(c.Param("id")))
	if !ok {
		writeError(c, domain.ErrUnknownPlan)
		return
	}
	p, err := h.Sessions.Profile(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	link, err := h.Payments.Link(plan, p.Username)
	if errors.Is(err, payment.ErrNoWallet) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "payments are not configured", "code": "unavailable"})
		return
	}
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"plan": plan.ID, "url": link})
}
