package handlers

import (
	"net/http"

	"incoin_webapp/internal/domain"
	"incoin_webapp/internal/service"

	"github.com/gin-gonic/gin"
)

type GameCompleteRequest struct {
	Game string `json:"game" binding:"required"`
}

type TopUpRequest struct {
	Amount   Amount `json:"amount"`
	Currency string `json:"currency"`
}

type TradeRequest struct {
	Direction string `json:"direction"`
	Amount    Amount `json:"amount"`
}

type SpinRequest struct {
	Bet      Amount `json:"bet"`
	Currency string `json:"currency"`
}

func (h *Handler) Games(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"games": domain.GameCatalog, "award": domain.GameAward})
}

func (h *Handler) CompleteGame(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		unauthorized(c)
		return
	}
	var req GameCompleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "game is required")
		return
	}
	res, err := h.Economy.ReportGameComplete(c.Request.Context(), userID, req.Game)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) TopUp(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		unauthorized(c)
		return
	}
	var req TopUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "bad request")
		return
	}
	res, err := h.Economy.TopUp(c.Request.Context(), userID, string(req.Amount), req.Currency)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) Upgrades(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		unauthorized(c)
		return
	}
	p, err := h.Sessions.Profile(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"upgrades": service.UpgradeQuotes(p.User),
		"balance":  p.Balances.Get(domain.CurrencyINCOIN),
	})
}

func (h *Handler) BuyUpgrade(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		unauthorized(c)
		return
	}
	res, err := h.Economy.BuyUpgrade(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) TradePrice(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"price": h.Prices.Current(), "history": h.Prices.History()})
}

// Trade always settles at the current feed price.
func (h *Handler) Trade(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		unauthorized(c)
		return
	}
	var req TradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "bad request")
		return
	}
	res, err := h.Economy.Trade(c.Request.Context(), userID, req.Direction, string(req.Amount))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) SpinSlots(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		unauthorized(c)
		return
	}
	var req SpinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "bad request")
		return
	}
	res, err := h.Economy.SettleSlotWager(c.Request.Context(), userID, string(req.Bet), req.Currency)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
