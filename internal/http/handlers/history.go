package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

func historyLimit(c *gin.Context) int {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultHistoryLimit)))
	if err != nil || limit <= 0 {
		return defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		return maxHistoryLimit
	}
	return limit
}

// History serves one of the append-only logs selected by :kind.
func (h *Handler) History(c *gin.Context) {
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

	ctx := c.Request.Context()
	limit := historyLimit(c)
	var entries any
	switch c.Param("kind") {
	case "games":
		entries, err = h.Histories.GameHistory(ctx, p.Username, limit)
	case "trades":
		entries, err = h.Histories.TradeHistory(ctx, p.Username, limit)
	case "slots":
		entries, err = h.Histories.SlotHistory(ctx, p.Username, limit)
	default:
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown history", "code": "not_found"})
		return
	}
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": entries})
}
