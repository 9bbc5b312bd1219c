// cmd/price-finder/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"price-finder/internal/cache"
	"price-finder/internal/common/config"
	"price-finder/internal/common/database"
	"price-finder/internal/common/logger"
	"price-finder/internal/common/observability"
	"price-finder/internal/imagecache"
	"price-finder/internal/livestate"
	"price-finder/internal/relay"
	"price-finder/internal/relevance"
	"price-finder/internal/search"
	"price-finder/internal/server"
	"price-finder/internal/traffic"
	"price-finder/pkg/ruleset"

	bs "price-finder/internal/workers/search/backup-search"
	ei "price-finder/internal/workers/search/enrich-images"
	pl "price-finder/internal/workers/search/process-listings"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func loadRuleset(path string) (*ruleset.Ruleset, error) {
	if path == "" {
		return ruleset.Default(), nil
	}
	return ruleset.Load(path)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format).With(zap.String("service", cfg.App.Name))
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting price finder...", zap.String("environment", cfg.App.Environment))

	obs, err := observability.New(cfg.App.Name)
	if err != nil {
		zapLog.Warn("observability disabled", zap.Error(err))
		obs = observability.NewNoop()
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	rs, err := loadRuleset(cfg.Pipeline.RulesetPath)
	if err != nil {
		zapLog.Fatal("ruleset load failed", zap.Error(err))
	}
	rules, err := relevance.Compile(rs)
	if err != nil {
		zapLog.Fatal("ruleset compile failed", zap.Error(err))
	}
	zapLog.Info("Ruleset loaded", zap.String("version", rules.Version))

	var readiness []func(context.Context) error

	var results cache.Store
	ttl := config.GetDuration(cfg.Cache.TTL)
	pendingTTL := config.GetDuration(cfg.Cache.PendingTTL)
	switch cfg.Cache.Backend {
	case config.CacheBackendRedis:
		redis := database.NewRedis(cfg.Database.Redis)
		err = retryWithBackoff(func() error {
			return redis.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")
		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer redis.Close()
		zapLog.Info("Redis connected successfully")

		results = cache.NewRedisStore(redis.Client, cfg.Cache.KeyPrefix, ttl, pendingTTL)
		readiness = append(readiness, redis.Ping)
	default:
		results = cache.NewMemoryStore(ttl, pendingTTL)
	}

	memImages, err := imagecache.NewMemoryStore(cfg.Cache.ImageSize)
	if err != nil {
		zapLog.Fatal("image cache init failed", zap.Error(err))
	}
	var images imagecache.Store = memImages

	if cfg.Database.Postgres.Enabled {
		var pg *database.PostgresClient
		err = retryWithBackoff(func() error {
			var err error
			pg, err = database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			return pg.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
		if err != nil {
			zapLog.Fatal("postgres failed after retries", zap.Error(err))
		}
		defer pg.Close()

		if err := pg.Migrate(ctx); err != nil {
			zapLog.Fatal("postgres migration failed", zap.Error(err))
		}
		zapLog.Info("PostgreSQL connected successfully")

		persistent := imagecache.NewPostgresStore(pg.DB, memImages)
		if n, err := persistent.Warm(ctx, cfg.Cache.ImageSize); err != nil {
			zapLog.Warn("image cache warm-up failed", zap.Error(err))
		} else {
			zapLog.Info("Image cache loaded", zap.Int("entries", n))
		}
		images = persistent
		readiness = append(readiness, pg.Ping)
	}

	live, err := livestate.New(cfg.LiveState.DefaultTheme, cfg.LiveState.SnapshotPath)
	if err != nil {
		zapLog.Fatal("live state load failed", zap.Error(err))
	}

	hub := relay.NewHub(relay.NewQueue(), cfg.Security.ServerSideSecret, config.GetDuration(cfg.Relay.WriteTimeout), log)

	processor := pl.NewHandler(pl.LoadConfig(cfg),
		relevance.NewPipeline(rules, relevance.WithScoreRanking(cfg.Pipeline.RankByScore)), log)
	enricher := ei.NewHandler(ei.LoadConfig(cfg), images, log)
	backupCfg := bs.LoadConfig(cfg)
	backup := bs.NewHandler(backupCfg, log)
	if !enricher.Enabled() {
		zapLog.Info("image search disabled, no API credentials")
	}

	svc := search.NewService(search.Dependencies{
		Cache:          results,
		Images:         images,
		Hub:            hub,
		Traffic:        traffic.New(cfg.Traffic.MaxHistory, config.GetDuration(cfg.Traffic.OnlineTimeout)),
		LiveState:      live,
		Processor:      processor,
		Enricher:       enricher,
		Backup:         backup,
		Observability:  obs,
		RulesetVersion: rules.Version,
		TopTerms:       cfg.Traffic.TopTerms,
		BackupTimeout:  backupCfg.Timeout * time.Duration(max(backupCfg.MaxRetries, 1)),
	}, log)

	srv := server.New(ctx, server.Options{
		AdminCode:      cfg.Security.AdminCode,
		WorkerSecret:   cfg.Security.ServerSideSecret,
		StaticDir:      cfg.Server.StaticDir,
		RequestTimeout: config.GetDuration(cfg.Server.RequestTimeout),
		MaxBodyBytes:   cfg.Server.MaxBodyBytes,
		RatePerSecond:  cfg.Server.RateLimit.PerSecond,
		RateBurst:      cfg.Server.RateLimit.Burst,
	}, svc, hub, log)

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	opsServer := &http.Server{
		Addr: fmt.Sprintf(":%d", cfg.Server.MetricsPort),
		Handler: server.OpsRouter(func(ctx context.Context) error {
			for _, check := range readiness {
				if err := check(ctx); err != nil {
					return err
				}
			}
			return nil
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("addr", opsServer.Addr))
		if err := opsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	go func() {
		zapLog.Info("HTTP server listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()

	_ = hub.Disconnect()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping HTTP server", zap.Error(err))
	}
	svc.Wait()
	if err := opsServer.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping health server", zap.Error(err))
	}
	if err := obs.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping observability", zap.Error(err))
	}
	stop()

	zapLog.Info("Price finder stopped gracefully")
}
