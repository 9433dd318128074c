package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) GetLeaderboard(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"leaderboard": h.Leaderboard.Top()})
}
