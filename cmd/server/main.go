package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/playperu/imposter/internal/config"
	"github.com/playperu/imposter/internal/database"
	"github.com/playperu/imposter/internal/handler/health"
	"github.com/playperu/imposter/internal/imagegen"
	"github.com/playperu/imposter/internal/migrations"
	"github.com/playperu/imposter/internal/realtime"
	"github.com/playperu/imposter/internal/server"
	"github.com/playperu/imposter/internal/session"
	"github.com/playperu/imposter/internal/store"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdout io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	checks := map[string]health.Checker{
		"sqlite": health.Disabled,
		"redis":  health.Disabled,
	}

	// --- SQLite ---
	// Online rooms are optional. A database that cannot be opened leaves
	// local play running and every room call answering "unavailable".
	var rooms session.Store
	if cfg.RoomsEnabled {
		st, closeDB, err := openRoomStore(ctx, cfg.DBPath)
		if err != nil {
			logger.Error("room store unavailable, online play disabled", "path", cfg.DBPath, "error", err)
			checks["sqlite"] = health.CheckerFunc(func(context.Context) error { return err })
		} else {
			defer closeDB()
			rooms = st
			checks["sqlite"] = health.CheckerFunc(st.Ping)
			logger.Info("connected to sqlite", "path", cfg.DBPath)
		}
	}

	// --- Redis ---
	// Redis is optional too: without it rooms fan out in process and images
	// are cached in memory.
	broker := realtime.NewBroker()
	defer broker.Close()

	rt := connectRealtime(ctx, cfg.RedisURL, broker, logger)
	defer rt.close()
	checks["redis"] = rt.check

	sessions := session.New(rooms, rt.publisher, logger, cfg.OpTimeout)

	// --- Images ---
	gemini := imagegen.NewGemini(cfg.GeminiAPIKey, cfg.GeminiModel).WithBaseURL(cfg.GeminiBaseURL)
	var gen imagegen.Generator
	switch {
	case gemini.Configured():
		gen = gemini
	case cfg.ImageAPIURL != "":
		gen = imagegen.NewRemote(cfg.ImageAPIURL)
	default:
		logger.Info("no image generator configured, cards use placeholder art")
	}
	illustrator := imagegen.NewIllustrator(gen, rt.cache, cfg.ImageCacheTTL, logger)

	// --- HTTP Server ---
	srv := server.New(cfg.HTTPAddr, logger, server.Deps{
		Sessions:       sessions,
		Broker:         broker,
		Illustrator:    illustrator,
		Gemini:         gemini,
		Health:         health.NewHandler(logger, checks).Routes(),
		PublicURL:      cfg.PublicURL,
		SPADir:         cfg.SPADir,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	})

	// --- Run ---
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting http server", "addr", cfg.HTTPAddr)
		return srv.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down http server")
		return srv.Shutdown(context.Background())
	})

	if rt.bridge != nil {
		g.Go(func() error {
			return rt.bridge.Run(gctx)
		})
	}

	g.Go(func() error {
		return sessions.RunReaper(gctx, cfg.RoomIdleTTL, reapInterval(cfg.RoomIdleTTL))
	})

	return g.Wait()
}

func openRoomStore(ctx context.Context, path string) (*store.SQLiteStore, func(), error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	db, err := database.Open(ctx, path)
	if err != nil {
		return nil, nil, err
	}
	if err := migrations.Run(ctx, db); err != nil {
		db.Close()
		return nil, nil, err
	}
	return store.NewSQLiteStore(db), func() { db.Close() }, nil
}

// reapInterval sweeps a few times per TTL, but not more than once a minute.
func reapInterval(ttl time.Duration) time.Duration {
	return max(ttl/6, time.Minute)
}

// realtimeDeps is what Redis contributes, or its in-process stand-ins.
type realtimeDeps struct {
	publisher session.Publisher
	bridge    *realtime.RedisBridge
	cache     imagegen.Cache
	check     health.Checker
	close     func()
}

// connectRealtime wires Redis when rawURL is set and reachable. Any failure
// is logged and leaves the in-process broker and memory cache in place, so
// local play and the image proxy keep working.
func connectRealtime(ctx context.Context, rawURL string, broker *realtime.Broker, logger *slog.Logger) realtimeDeps {
	deps := realtimeDeps{
		publisher: broker,
		cache:     imagegen.NewMemoryCache(),
		check:     health.Disabled,
		close:     func() {},
	}
	if rawURL == "" {
		return deps
	}
	rdb, err := openRedis(ctx, rawURL)
	if err != nil {
		logger.Error("redis unavailable, using in-process broker", "error", err)
		deps.check = health.CheckerFunc(func(context.Context) error { return err })
		return deps
	}
	logger.Info("connected to redis")

	deps.bridge = realtime.NewRedisBridge(rdb, broker, logger)
	deps.publisher = deps.bridge
	deps.cache = imagegen.NewRedisCache(rdb)
	deps.check = redisChecker{rdb}
	deps.close = func() { rdb.Close() }
	return deps
}

func openRedis(ctx context.Context, rawURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return rdb, nil
}

// redisChecker adapts *redis.Client to health.Checker.
type redisChecker struct{ client *redis.Client }

func (r redisChecker) Check(ctx context.Context) error { return r.client.Ping(ctx).Err() }
