package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"go.uber.org/zap"

	"invoicedesk/backend/internal/cache"
	"invoicedesk/backend/internal/config"
	"invoicedesk/backend/internal/httpapi"
	"invoicedesk/backend/internal/logger"
	"invoicedesk/backend/internal/metrics"
	"invoicedesk/backend/internal/service"
	"invoicedesk/backend/internal/store"
	"invoicedesk/backend/internal/store/memory"
	pgstore "invoicedesk/backend/internal/store/postgres"
	"invoicedesk/backend/internal/store/remote"
)

type backends struct {
	source  store.InvoiceSource
	users   store.UserStore
	closers []func() error
}

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cfg := config.Load()
	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	defer func() { _ = log.Sync() }()

	if err := validateSecurityConfig(cfg); err != nil {
		log.Fatal("invalid security configuration", zap.Error(err))
	}
	loc, err := cfg.Location()
	if err != nil {
		log.Fatal("invalid timezone", zap.String("timezone", cfg.Timezone), zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	b, err := openBackends(ctx, cfg, log)
	if err != nil {
		log.Fatal("backend unavailable", zap.Error(err))
	}

	snapshots, closeCache := openSnapshotCache(ctx, cfg, log)
	if closeCache != nil {
		b.closers = append(b.closers, closeCache)
	}

	m := metrics.New()
	svc := service.New(b.source, snapshots, service.Options{
		CacheTTL: cfg.SnapshotTTL(),
		Location: loc,
		Logger:   log,
		Observer: m,
	})
	auth, err := httpapi.NewAuthManager(ctx, cfg.AuthSecret, cfg.AccessTokenTTL(), b.users)
	if err != nil {
		log.Fatal("auth setup failed", zap.Error(err))
	}
	api := httpapi.New(svc, auth, httpapi.Config{
		AllowedOrigin: cfg.AllowedOrigin,
		Logger:        log,
		Metrics:       m,
	})

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("invoice analytics backend listening", zap.String("addr", cfg.Address()), zap.String("timezone", loc.String()))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", zap.Error(err))
	}

	for _, closeFn := range b.closers {
		if err := closeFn(); err != nil {
			log.Error("close error", zap.Error(err))
		}
	}

	log.Info("server stopped")
}

// openBackends picks the invoice source: the upstream billing API when
// REMOTE_API_URL is set, otherwise postgres when DATABASE_URL is set,
// otherwise the seeded in-memory store. Accounts live in postgres when it is
// configured and in memory otherwise.
func openBackends(ctx context.Context, cfg config.Config, log *zap.Logger) (backends, error) {
	var b backends

	if cfg.DatabaseURL != "" {
		pg, err := pgstore.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return backends{}, fmt.Errorf("postgres unavailable and DATABASE_URL is set; refusing in-memory fallback: %w", err)
		}
		b.source = pg
		b.users = pg
		b.closers = append(b.closers, pg.Close)
		log.Info("repository: postgres")
	} else {
		mem := memory.NewSeeded(log)
		b.source = mem
		b.users = mem
		log.Info("repository: in-memory")
	}

	if cfg.RemoteAPIURL != "" {
		b.source = remote.New(cfg.RemoteAPIURL, cfg.RemoteTimeout())
		log.Info("invoice source: remote", zap.String("url", cfg.RemoteAPIURL))
	}

	return b, nil
}

// openSnapshotCache uses redis when REDIS_ADDR is set and reachable and an
// in-process cache otherwise, so SNAPSHOT_TTL_SECONDS applies either way. The
// returned closer is nil when nothing needs closing.
func openSnapshotCache(ctx context.Context, cfg config.Config, log *zap.Logger) (cache.SnapshotCache, func() error) {
	if cfg.RedisAddr != "" {
		redisCache := cache.NewRedisSnapshotCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		err := redisCache.Ping(ctx)
		if err == nil {
			log.Info("cache: redis", zap.String("addr", cfg.RedisAddr))
			return redisCache, redisCache.Close
		}
		_ = redisCache.Close()
		log.Warn("redis unavailable, using in-process cache", zap.Error(err))
	}
	log.Info("cache: memory", zap.Duration("ttl", cfg.SnapshotTTL()))
	return cache.NewMemorySnapshotCache(), nil
}

func validateSecurityConfig(cfg config.Config) error {
	if len(cfg.AuthSecret) < 32 {
		return fmt.Errorf("AUTH_SECRET must be set and at least 32 characters")
	}
	return nil
}
