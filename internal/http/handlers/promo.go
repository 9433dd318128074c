package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type ApplyPromoRequest struct {
	Code string `json:"code" binding:"required"`
}

type CreatePromoRequest struct {
	Code  string `json:"code" binding:"required"`
	Bonus Amount `json:"bonus"`
}

func (h *Handler) ApplyPromo(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		unauthorized(c)
		return
	}
	var req ApplyPromoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "code is required")
		return
	}
	res, err := h.Economy.ApplyPromoCode(c.Request.Context(), userID, req.Code)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// CreatePromo funds a new code from the caller's INCOIN balance.
func (h *Handler) CreatePromo(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		unauthorized(c)
		return
	}
	var req CreatePromoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "code is required")
		return
	}
	res, err := h.Economy.CreatePromoCode(c.Request.Context(), userID, req.Code, string(req.Bonus))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}
