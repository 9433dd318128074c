package handlers

import (
	"time"

	"incoin_webapp/internal/payment"
	"incoin_webapp/internal/repository"
	"incoin_webapp/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// PriceFeed is the read side of the price walk.
type PriceFeed interface {
	Current() decimal.Decimal
	History() []decimal.Decimal
}

// HandlerConfig holds values the handlers echo back to clients.
type HandlerConfig struct {
	BotToken    string
	BotUsername string
	WebAppURL   string
	DevMode     bool
}

type Handler struct {
	Economy     *service.EconomyService
	Sessions    *service.SessionService
	Leaderboard *service.Leaderboard
	Tokens      *service.TokenIssuer
	Histories   *repository.HistoryRepository
	Payments    *payment.YooMoney
	Prices      PriceFeed

	cfg HandlerConfig
	now func() time.Time
}

func NewHandler(
	economy *service.EconomyService,
	sessions *service.SessionService,
	lb *service.Leaderboard,
	tokens *service.TokenIssuer,
	history *repository.HistoryRepository,
	payments *payment.YooMoney,
	prices PriceFeed,
	cfg HandlerConfig,
) *Handler {
	return &Handler{
		Economy:     economy,
		Sessions:    sessions,
		Leaderboard: lb,
		Tokens:      tokens,
		Histories:   history,
		Payments:    payments,
		Prices:      prices,
		cfg:         cfg,
		now:         time.Now,
	}
}

// getUserID извлекает user_id из контекста Gin
func getUserID(c *gin.Context) (string, bool) {
	v, ok := c.Get("user_id")
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}
