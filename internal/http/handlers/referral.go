package handlers

import (
	"net/http"

	"incoin_webapp/internal/telegram"

	"github.com/gin-gonic/gin"
)

// ReferralInfo is the caller's referral code, share links and earnings.
type ReferralInfo struct {
	Code      string   `json:"code"`
	BotLink   string   `json:"botLink,omitempty"`
	WebLink   string   `json:"webLink,omitempty"`
	Referrals []string `json:"referrals"`
	Count     int      `json:"count"`
	Earnings  string   `json:"earnings"`
}

func (h *Handler) Referral(c *gin.Context) {
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

	info := ReferralInfo{
		Code:      p.ReferralCode,
		Referrals: p.Referrals,
		Count:     len(p.Referrals),
		Earnings:  p.ReferralEarnings.String(),
	}
	if h.cfg.BotUsername != "" {
		info.BotLink = telegram.BotLink(h.cfg.BotUsername, p.ReferralCode)
	}
	if h.cfg.WebAppURL != "" {
		info.WebLink = telegram.WebLink(h.cfg.WebAppURL, p.ReferralCode)
	}
	c.JSON(http.StatusOK, info)
}
