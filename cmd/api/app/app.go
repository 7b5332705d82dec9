package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/pelyams/sneaker_house_service/internal/adapters/cache"
	"github.com/pelyams/sneaker_house_service/internal/adapters/source"
	"github.com/pelyams/sneaker_house_service/internal/config"
	"github.com/pelyams/sneaker_house_service/internal/contact"
	"github.com/pelyams/sneaker_house_service/internal/loader"
	"github.com/pelyams/sneaker_house_service/internal/ports"
	"github.com/pelyams/sneaker_house_service/internal/routing"
	"github.com/pelyams/sneaker_house_service/internal/service"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config     *config.Config
	source     ports.Source
	cache      ports.Cache
	service    ports.CatalogService
	handler    *routing.CatalogHandler
	router     http.Handler
	middleware *routing.Logger
	closers    []func() error
}

func New(cfg *config.Config) (*App, error) {
	a := &App{config: cfg}

	logger, err := routing.NewLogger(0, cfg.LogFile)
	if err != nil {
		return nil, err
	}
	a.middleware = logger
	log := logger.Base()

	if err := a.setupSource(); err != nil {
		a.Close()
		return nil, err
	}
	a.setupCache()

	l, err := loader.New(a.cache, a.source, loader.Config{
		DefaultTTL: cfg.CacheTTL,
		Coalesce:   cfg.Coalesce,
	}, log)
	if err != nil {
		a.Close()
		return nil, err
	}
	svc := service.NewCatalogService(l)
	a.service = svc

	a.handler = routing.NewCatalogHandler(svc, contact.NewBuilder(cfg.WhatsAppNumber, ""), cfg.PublicBaseURL)
	a.router = otelhttp.NewHandler(routing.NewRouter(a.handler, logger).SetupRoutes(), "catalog")

	log.WithFields(logrus.Fields{
		"source": cfg.Source,
		"cache":  cfg.CacheBackend,
		"ttl":    cfg.CacheTTL,
	}).Info("catalog service configured")
	return a, nil
}

func (a *App) setupSource() error {
	cfg := a.config
	switch cfg.Source {
	case config.SourceHTTP:
		a.source = source.NewHTTPSource(cfg.SourceBaseURL, source.NewHTTPClient(cfg.SourceTimeout))
	case config.SourceFile:
		a.source = source.NewFileSource(os.DirFS(cfg.SourceDir))
	case config.SourcePostgres:
		databaseClient, err := sql.Open("postgres", cfg.PostgresDSN())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		a.closers = append(a.closers, databaseClient.Close)
		a.source = source.NewPostgresSource(databaseClient)
	default:
		return fmt.Errorf("unknown source %q", cfg.Source)
	}
	return nil
}

func (a *App) setupCache() {
	cfg := a.config
	if cfg.CacheBackend != config.CacheRedis {
		a.cache = cache.NewMemoryCache()
		return
	}
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.RedisPassword,
		DB:       0,
	})
	// best effort, managed redis may reject CONFIG SET
	for _, kv := range [][2]string{{"maxmemory", "10mb"}, {"maxmemory-policy", "allkeys-lru"}} {
		if err := redisClient.ConfigSet(context.Background(), kv[0], kv[1]).Err(); err != nil {
			a.middleware.Base().WithError(err).WithField("parameter", kv[0]).Warn("failed to configure redis")
		}
	}
	a.closers = append(a.closers, redisClient.Close)
	a.cache = cache.NewRedisCache(redisClient)
}

// Handler returns the fully wired HTTP handler.
func (a *App) Handler() http.Handler {
	return a.router
}

// Run serves until ctx is canceled, then drains in-flight requests.
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + a.config.Port,
		Handler:           a.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.middleware.Base().WithField("addr", srv.Addr).Info("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && a.middleware != nil {
			a.middleware.Base().WithError(err).Warn("close failed")
		}
	}
	a.closers = nil
	if a.middleware != nil {
		a.middleware.Close()
	}
}
