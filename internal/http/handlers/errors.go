package handlers

import (
	"errors"
	"net/http"

	"incoin_webapp/internal/domain"
	"incoin_webapp/internal/logger"

	"github.com/gin-gonic/gin"
)

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrInvalidUsername),
		errors.Is(err, domain.ErrInvalidPromoCode),
		errors.Is(err, domain.ErrInvalidTradeAction),
		errors.Is(err, domain.ErrUnknownUpgrade),
		errors.Is(err, domain.ErrUnknownPlan),
		errors.Is(err, domain.ErrUnknownCurrency),
		errors.Is(err, domain.ErrUnknownGame):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInsufficientFunds):
		return http.StatusPaymentRequired
	case errors.Is(err, domain.ErrDuplicateUsername),
		errors.Is(err, domain.ErrAlreadyRedeemed),
		errors.Is(err, domain.ErrPromoCodeExists),
		errors.Is(err, domain.ErrPromoExhausted):
		return http.StatusConflict
	case errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrPromoNotFound),
		errors.Is(err, domain.ErrNoSession):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// writeError maps domain failures onto statuses; anything else is logged
// and reported as an internal error.
func writeError(c *gin.Context, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		logger.WithContext(c.Request.Context()).Error("request failed", "path", c.FullPath(), "error", err)
		msg = "internal error"
	}
	c.JSON(status, gin.H{"error": msg, "code": domain.Code(err)})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg, "code": "bad_request"})
}

func unauthorized(c *gin.Context) {
	c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "code": "unauthorized"})
}
