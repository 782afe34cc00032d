package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	HTTPAddr string     `env:"HTTP_ADDR" envDefault:":8080"`
	LogLevel slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
	SPADir   string     `env:"SPA_DIR"`

	// RoomsEnabled false turns online rooms off; local play still works.
	RoomsEnabled bool          `env:"ROOMS_ENABLED" envDefault:"true"`
	DBPath       string        `env:"DB_PATH" envDefault:"data/imposter.db"`
	RedisURL     string        `env:"REDIS_URL"`
	OpTimeout    time.Duration `env:"OP_TIMEOUT" envDefault:"10s"`
	RoomIdleTTL  time.Duration `env:"ROOM_IDLE_TTL" envDefault:"6h"`
	PublicURL    string        `env:"PUBLIC_URL" envDefault:"http://localhost:8080"`

	GeminiAPIKey  string        `env:"GEMINI_API_KEY"`
	GeminiModel   string        `env:"GEMINI_MODEL" envDefault:"gemini-2.0-flash-exp-image-generation"`
	GeminiBaseURL string        `env:"GEMINI_BASE_URL"`
	ImageAPIURL   string        `env:"IMAGE_API_URL"`
	ImageCacheTTL time.Duration `env:"IMAGE_CACHE_TTL" envDefault:"168h"`

	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS" envDefault:"10"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST" envDefault:"20"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if cfg.RateLimitRPS < 0 || cfg.RateLimitBurst < 0 {
		return nil, fmt.Errorf("rate limit must not be negative")
	}
	return &cfg, nil
}
