package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"incoin_webapp/internal/bot"
	"incoin_webapp/internal/config"
	"incoin_webapp/internal/domain"
	httpServer "incoin_webapp/internal/http"
	"incoin_webapp/internal/http/handlers"
	"incoin_webapp/internal/http/middleware"
	"incoin_webapp/internal/logger"
	"incoin_webapp/internal/payment"
	"incoin_webapp/internal/pricefeed"
	"incoin_webapp/internal/repository"
	"incoin_webapp/internal/service"
	"incoin_webapp/internal/store"
	"incoin_webapp/internal/ws"

	"github.com/gin-gonic/gin"
)

var version = "dev"

func main() {
	cfg := config.MustLoad()
	logger.Init(cfg.LogLevel, cfg.LogJSON)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, cfg.StoreBackend, store.Options{
		Namespace:     cfg.StoreNamespace,
		DatabaseURL:   cfg.DatabaseURL,
		MaxConns:      cfg.DBMaxConns,
		RedisAddr:     cfg.RedisAddr,
		RedisPassword: cfg.RedisPassword,
		RedisDB:       cfg.RedisDB,
	})
	if err != nil {
		logger.Fatal("failed to open store", "backend", cfg.StoreBackend, "error", err)
	}
	defer st.Close()

	repo := repository.NewAccountRepository(st)
	history := repository.NewHistoryRepository(st)

	lb := service.NewLeaderboard(repo)
	if err := lb.Load(ctx, repo); err != nil {
		logger.Fatal("failed to load leaderboard", "error", err)
	}

	var notifier service.Notifier = service.NopNotifier{}
	var tgBot *bot.Bot
	if cfg.BotEnabled() {
		tgBot, err = bot.New(cfg.BotToken, cfg.WebAppURL, lb)
		if err != nil {
			logger.Error("bot disabled", "error", err)
		} else {
			notifier = tgBot
			go tgBot.Start()
		}
	}

	feed := pricefeed.New(cfg.PriceTick, nil)
	economy := service.NewEconomyService(repo,
		service.WithPriceSource(feed),
		service.WithNotifier(notifier),
	)
	sessions := service.NewSessionService(repo, history, lb)

	// Restore the stored session so a lapsed VIP tier is persisted as none.
	if snap, err := sessions.Hydrate(ctx, nil); err == nil {
		logger.Info("session restored", "user_id", snap.User.ID, "username", snap.User.Username)
	} else if !errors.Is(err, domain.ErrNoSession) {
		logger.Error("session restore failed", "error", err)
	}

	hub := ws.NewHub(feedSnapshot(feed, lb))
	ticks, cancelTicks := feed.Subscribe(64)
	boards, cancelBoards := lb.Subscribe(16)
	go feed.Run(ctx)
	go hub.Run(ctx, ticks, boards)

	h := handlers.NewHandler(economy, sessions, lb,
		service.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL),
		history,
		payment.NewYooMoney(cfg.YooMoneyWallet),
		feed,
		handlers.HandlerConfig{
			BotToken:    cfg.BotToken,
			BotUsername: cfg.BotUsername,
			WebAppURL:   cfg.WebAppURL,
			DevMode:     cfg.DevMode,
		},
	)

	redisClient := middleware.DialRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if redisClient != nil {
		defer redisClient.Close()
	}

	if !cfg.DevMode {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	httpServer.RegisterRoutes(r, httpServer.Deps{
		Handler:        h,
		Health:         handlers.NewHealthHandler(st, cfg.StoreBackend, version),
		Hub:            hub,
		AllowedOrigins: cfg.AllowedOrigins,
		Limits: httpServer.Limits{
			Redis:      middleware.NewRedisLimiter(redisClient, cfg.StoreNamespace+":rl"),
			API:        cfg.APIRateLimit,
			APIWindow:  cfg.APIRateWindow,
			Auth:       cfg.AuthRateLimit,
			AuthWindow: cfg.AuthRateWindow,
			Game:       cfg.GameRateLimit,
			GameWindow: cfg.GameRateWindow,
			LocalRate:  cfg.LocalRate,
			LocalBurst: cfg.LocalBurst,
		},
	})

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server started", "port", cfg.AppPort, "store", cfg.StoreBackend, "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen failed", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}
	cancelTicks()
	cancelBoards()
	if tgBot != nil {
		tgBot.Stop()
	}

	logger.Info("server exited")
}

// feedSnapshot is what a feed client receives on connect: the current price
// with recent history, then the leaderboard.
func feedSnapshot(feed *pricefeed.Feed, lb *service.Leaderboard) ws.SnapshotFunc {
	return func() [][]byte {
		hist := feed.History()
		strs := make([]string, len(hist))
		for i, p := range hist {
			strs[i] = p.String()
		}
		var frames [][]byte
		price := ws.PricePayload{
			Tick:    pricefeed.Tick{Price: feed.Current(), Timestamp: time.Now().UnixMilli()},
			History: strs,
		}
		if b, err := ws.Encode(ws.MsgPrice, price); err == nil {
			frames = append(frames, b)
		}
		if b, err := ws.Encode(ws.MsgLeaderboard, ws.LeaderboardPayload{Entries: lb.Top()}); err == nil {
			frames = append(frames, b)
		}
		return frames
	}
}
