package config

import (
	"errors"
	"fmt"
	"time"

	"incoin_webapp/internal/logger"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	AppPort string `env:"APP_PORT" envDefault:"8080"`
	DevMode bool   `env:"DEV_MODE" envDefault:"false"`

	// Storage: memory | redis | postgres
	StoreBackend   string `env:"STORE_BACKEND" envDefault:"memory"`
	StoreNamespace string `env:"STORE_NAMESPACE" envDefault:"incoin"`
	DatabaseURL    string `env:"DATABASE_URL"`
	DBMaxConns     int32  `env:"DB_MAX_CONNS" envDefault:"10"`
	RedisAddr      string `env:"REDIS_ADDR"`
	RedisPassword  string `env:"REDIS_PASSWORD"`
	RedisDB        int    `env:"REDIS_DB" envDefault:"0"`

	JWTSecret string        `env:"JWT_SECRET,required,notEmpty"`
	JWTTTL    time.Duration `env:"JWT_TTL" envDefault:"24h"`

	// Telegram
	BotToken    string `env:"BOT_TOKEN"`
	BotUsername string `env:"BOT_USERNAME" envDefault:"IncoinBot"`
	WebAppURL   string `env:"WEBAPP_URL"`

	YooMoneyWallet string        `env:"YOOMONEY_WALLET" envDefault:"4100119386951023"`
	PriceTick      time.Duration `env:"PRICE_TICK" envDefault:"5s"`

	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:","`

	// Rate limits (Redis fixed window, in-memory token bucket as fallback)
	APIRateLimit   int           `env:"API_RATE_LIMIT" envDefault:"120"`
	APIRateWindow  time.Duration `env:"API_RATE_WINDOW" envDefault:"1m"`
	AuthRateLimit  int           `env:"AUTH_RATE_LIMIT" envDefault:"10"`
	AuthRateWindow time.Duration `env:"AUTH_RATE_WINDOW" envDefault:"1m"`
	GameRateLimit  int           `env:"GAME_RATE_LIMIT" envDefault:"60"`
	GameRateWindow time.Duration `env:"GAME_RATE_WINDOW" envDefault:"1m"`
	LocalRate      float64       `env:"LOCAL_RATE" envDefault:"5"`
	LocalBurst     int           `env:"LOCAL_BURST" envDefault:"20"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	LogJSON  bool   `env:"LOG_JSON" envDefault:"false"`
}

// Load reads an optional .env file, then the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MustLoad is Load that exits on error.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		logger.Fatal("failed to load config", "error", err)
	}
	return cfg
}

func (c *Config) Validate() error {
	switch c.StoreBackend {
	case "memory":
	case "redis":
		if c.RedisAddr == "" {
			return errors.New("REDIS_ADDR is required for the redis store")
		}
	case "postgres":
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for the postgres store")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}
	if c.PriceTick <= 0 {
		return errors.New("PRICE_TICK must be positive")
	}
	return nil
}

// BotEnabled reports whether Telegram features are configured.
func (c *Config) BotEnabled() bool {
	return c.BotToken != ""
}
