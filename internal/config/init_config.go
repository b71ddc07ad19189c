package config

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"lan-stream/internal/api"
	"lan-stream/internal/api/handlers"
	"lan-stream/internal/broadcast"
	"lan-stream/internal/cleanup"
	"lan-stream/internal/logging"
	"lan-stream/internal/metrics"
	"lan-stream/internal/qr"
	"lan-stream/internal/service"
	"lan-stream/internal/storage"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

// Components are the long-lived pieces main runs and shuts down
type Components struct {
	Relay  service.RelayService
	Hub    *broadcast.Hub
	Worker *cleanup.Worker // nil when cleanup runs inline
	Cache  storage.CacheStore
}

// ------------------------------------------------------------------------------------------------------
func (c *Config) NewLogger() (*zap.Logger, error) {
	if err := logging.Init(c.LogLevel); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logging.Logger, nil
}

// ------------------------------------------------------------------------------------------------------
func (c *Config) NewMetrics() (*metrics.Registry, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return metrics.New(reg), reg
}

// ------------------------------------------------------------------------------------------------------
func (c *Config) NewFileStore() (*storage.FileStore, error) {
	files := storage.NewFileStore(c.UploadPath)
	if err := files.EnsureDir(); err != nil {
		return nil, err
	}
	return files, nil
}

// ------------------------------------------------------------------------------------------------------
func (c *Config) NewCleanupWorker(logger *zap.Logger, m *metrics.Registry) *cleanup.Worker {
	if !c.CleanupAsync {
		return nil
	}
	return cleanup.NewWorker(logger.Named("cleanup"), m)
}

// ------------------------------------------------------------------------------------------------------
func (c *Config) NewHistoryStore(files *storage.FileStore, worker *cleanup.Worker, logger *zap.Logger, m *metrics.Registry) (*storage.MemoryStore, error) {
	opts := []storage.StoreOption{storage.WithMetrics(m)}
	if worker != nil {
		opts = append(opts, storage.WithDispatcher(worker))
	}
	return storage.NewMemoryStore(c.MaxHistory, files, logger.Named("history"), opts...)
}

// ------------------------------------------------------------------------------------------------------
// NewCacheStore returns Redis when configured and reachable, otherwise an in-process cache
func (c *Config) NewCacheStore(ctx context.Context, logger *zap.Logger) storage.CacheStore {
	if c.RedisAddr != "" {
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()

		redisStore, err := storage.NewRedisStore(pingCtx, c.RedisAddr, c.RedisPassword)
		if err == nil {
			logger.Info("Connected to Redis", zap.String("redis_addr", c.RedisAddr))
			return redisStore
		}
		logger.Warn("Failed to connect to Redis, using in-process cache",
			zap.Error(err),
		)
	}
	return storage.NewLocalCache(c.QRCacheTTL, 10*time.Minute)
}

// ------------------------------------------------------------------------------------------------------
func (c *Config) NewTokenCounter(logger *zap.Logger) service.TokenCounter {
	if c.MaxMessageTokens <= 0 {
		return nil
	}
	counter, err := service.NewTokenCounter()
	if err != nil {
		logger.Warn("Token counter unavailable, message length is not limited", zap.Error(err))
		return nil
	}
	return counter
}

// ------------------------------------------------------------------------------------------------------
// NewRelayService wires the history, storage, cache and hub into the relay service
func (c *Config) NewRelayService(ctx context.Context, logger *zap.Logger, m *metrics.Registry) (*Components, error) {
	files, err := c.NewFileStore()
	if err != nil {
		return nil, err
	}

	worker := c.NewCleanupWorker(logger, m)

	store, err := c.NewHistoryStore(files, worker, logger, m)
	if err != nil {
		return nil, err
	}

	hub := broadcast.NewHub(logger.Named("hub"), m)
	cache := c.NewCacheStore(ctx, logger)

	relay := service.NewRelayService(service.Dependencies{
		Store:  store,
		Files:  files,
		Hub:    hub,
		Cache:  cache,
		QR:     qr.NewGenerator(),
		Tokens: c.NewTokenCounter(logger),
	}, service.Options{
		MaxMessageTokens: c.MaxMessageTokens,
		HostURL:          c.HostURL,
		QRCacheTTL:       c.QRCacheTTL,
	}, logger.Named("relay"))

	return &Components{
		Relay:  relay,
		Hub:    hub,
		Worker: worker,
		Cache:  cache,
	}, nil
}

// ------------------------------------------------------------------------------------------------------
func (c *Config) NewHandler(comp *Components, logger *zap.Logger) *handlers.Handler {
	return handlers.NewHandler(comp.Relay, comp.Hub, int64(c.MaxUploadMB)<<20, logger)
}

// ------------------------------------------------------------------------------------------------------
func (c *Config) NewRouter(handler *handlers.Handler, logger *zap.Logger, m *metrics.Registry, reg prometheus.Gatherer) *mux.Router {
	return api.SetupRouter(handler, logger, m, api.RouterOptions{
		UploadDir: c.UploadPath,
		StaticDir: c.StaticDir,
		Gatherer:  reg,
	})
}

// ------------------------------------------------------------------------------------------------------
func (c *Config) NewHTTPServer(router *mux.Router) *http.Server {
	return &http.Server{
		Addr:              ":" + c.Port,
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
