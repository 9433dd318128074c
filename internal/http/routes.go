package http

import (
	"time"

	"incoin_webapp/internal/http/handlers"
	"incoin_webapp/internal/http/middleware"
	"incoin_webapp/internal/ws"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

// Limits configures request throttling. With a nil Redis limiter the
// in-process token bucket is used instead.
type Limits struct {
	Redis      *middleware.RedisLimiter
	API        int
	APIWindow  time.Duration
	Auth       int
	AuthWindow time.Duration
	Game       int
	GameWindow time.Duration
	LocalRate  float64
	LocalBurst int
}

type Deps struct {
	Handler        *handlers.Handler
	Health         *handlers.HealthHandler
	Hub            *ws.Hub
	AllowedOrigins []string
	Limits         Limits
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	r.Use(middleware.RequestLogger(), middleware.Metrics())
	r.Use(corsMiddleware(d.AllowedOrigins))

	// Health checks (no rate limiting)
	r.GET("/health", d.Health.Health)
	r.GET("/healthz", d.Health.Liveness)
	r.GET("/readyz", d.Health.Readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Price ticks and leaderboard updates
	r.GET("/ws/feed", ws.HandleWS(d.Hub, d.AllowedOrigins))

	v1 := r.Group("/api/v1")
	v1.Use(apiLimit(d.Limits))
	registerAPIRoutes(v1, d.Handler, d.Limits)
}

func apiLimit(l Limits) gin.HandlerFunc {
	if l.Redis == nil {
		return middleware.LocalRateLimit(middleware.NewLocalLimiter(rate.Limit(l.LocalRate), l.LocalBurst))
	}
	return middleware.RedisRateLimit(l.Redis, l.API, l.APIWindow)
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", "X-Telegram-Init-Data"},
		ExposeHeaders: []string{"X-RateLimit-Limit", "X-RateLimit-Remaining"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}

func registerAPIRoutes(api *gin.RouterGroup, h *handlers.Handler, l Limits) {
	authRL := l.Redis.Limit("auth", l.Auth, l.AuthWindow, middleware.ByIP)
	auth := middleware.JWT(h.Tokens, h.Sessions)
	gameRL := middleware.GameRateLimit(l.Redis, l.Game, l.GameWindow)

	// Auth
	api.POST("/auth/register", authRL, h.Register)
	api.POST("/auth/login", authRL, h.Login)
	api.POST("/auth/telegram", authRL, h.TelegramAuth)
	api.POST("/auth/logout", auth, h.Logout)
	api.GET("/session", authRL, h.Session)

	// Catalogs
	api.GET("/games", h.Games)
	api.GET("/vip/plans", h.VIPPlans)
	api.GET("/trade/price", h.TradePrice)
	api.GET("/leaderboard", h.GetLeaderboard)

	me := api.Group("")
	me.Use(auth)
	{
		me.GET("/me", h.Me)
		me.POST("/games/complete", gameRL, h.CompleteGame)
		me.POST("/slots/spin", gameRL, h.SpinSlots)
		me.POST("/balance/topup", h.TopUp)
		me.GET("/upgrades", h.Upgrades)
		me.POST("/upgrades/:id/buy", h.BuyUpgrade)
		me.POST("/trade", h.Trade)
		me.POST("/promo/apply", h.ApplyPromo)
		me.POST("/promo", h.CreatePromo)
		me.POST("/vip/buy", h.BuyVIP)
		me.GET("/vip/plans/:id/payment-link", h.PaymentLink)
		me.GET("/referral", h.Referral)
		me.GET("/history/:kind", h.History)
	}
}
