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

	"lan-stream/internal/config"
	"lan-stream/internal/lan"
	"lan-stream/internal/logging"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := cfg.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logging.Sync()

	logger.Info("Starting LAN stream relay",
		zap.String("port", cfg.Port),
		zap.Int("max_history", cfg.MaxHistory),
		zap.String("upload_path", cfg.UploadPath),
		zap.String("host_url", cfg.HostURL),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m, reg := cfg.NewMetrics()

	comp, err := cfg.NewRelayService(ctx, logger, m)
	if err != nil {
		logger.Error("Failed to build relay", zap.Error(err))
		logging.Sync()
		os.Exit(1)
	}
	defer comp.Cache.Close()

	handler := cfg.NewHandler(comp, logger)
	router := cfg.NewRouter(handler, logger, m, reg)
	srv := cfg.NewHTTPServer(router)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return comp.Hub.Run(gctx)
	})

	// The cleanup worker outlives the server so evictions from in-flight
	// requests still get their files removed.
	workerCtx, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()
	if comp.Worker != nil {
		g.Go(func() error {
			return comp.Worker.Run(workerCtx)
		})
	}

	g.Go(func() error {
		logger.Info("Server starting", zap.String("addr", srv.Addr))
		for _, url := range lan.URLs(cfg.Port) {
			logger.Info("Reachable on LAN", zap.String("url", url))
		}
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server forced to shutdown", zap.Error(err))
		}
		stopWorker()
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Relay stopped with error", zap.Error(err))
		logging.Sync()
		os.Exit(1)
	}

	logger.Info("Server stopped")
}
