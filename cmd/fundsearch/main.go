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

	"github.com/kailas-cloud/fundsearch/internal/app"
	"github.com/kailas-cloud/fundsearch/internal/config"
	logpkg "github.com/kailas-cloud/fundsearch/internal/logger"
	healthuc "github.com/kailas-cloud/fundsearch/internal/usecase/health"
	"github.com/kailas-cloud/fundsearch/internal/version"
)

func main() {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting fundsearch API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("cache_driver", cfg.Cache.Driver),
		zap.String("embedding_model", cfg.Embedding.Model),
		zap.String("classifier_model", cfg.Classifier.Model),
		zap.Int("datasets", len(cfg.Datasets)),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, app.Gateways{}, logger)
	if err != nil {
		logger.Fatal("Failed to assemble service", zap.Error(err))
	}
	defer a.Close()

	checkCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.Embedding.TimeoutSec)*time.Second)
	if res := a.Health.Check(checkCtx).Checks["embedding"]; res != healthuc.CheckOK {
		logger.Warn("Embedding provider not reachable, builds will fail until it is",
			zap.String("base_url", cfg.Embedding.BaseURL))
	}
	cancel()

	statuses, err := a.Start(ctx)
	for _, st := range statuses {
		logger.Info("Dataset status",
			zap.String("dataset", st.ID),
			zap.String("state", string(st.State)),
			zap.Int("rows", st.Rows),
			zap.String("error", st.Error),
		)
	}
	if err != nil {
		logger.Fatal("Cannot serve queries", zap.Error(err))
	}

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           a.Handler(),
		ReadTimeout:       time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		ReadHeaderTimeout: time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout:      time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Received shutdown signal")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}
