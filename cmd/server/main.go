package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"

	httpadapter "github.com/couchcryptid/water-leak-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/water-leak-service/internal/adapter/kafka"
	redisadapter "github.com/couchcryptid/water-leak-service/internal/adapter/redis"
	"github.com/couchcryptid/water-leak-service/internal/config"
	"github.com/couchcryptid/water-leak-service/internal/modelstore"
	"github.com/couchcryptid/water-leak-service/internal/observability"
	"github.com/couchcryptid/water-leak-service/internal/pipeline"
	"github.com/couchcryptid/water-leak-service/internal/predict"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	// Both artifacts must be resolved before anything is served.
	store := modelstore.New(cfg.ModelDir, logger, metrics)
	models, err := store.ResolveModels()
	if err != nil {
		logger.Error("failed to resolve models", "error", err, "model_dir", cfg.ModelDir)
		os.Exit(1)
	}
	metrics.ModelsReady.Set(1)

	svc := predict.NewService(models.Leak, models.Demand, logger)

	var history *redisadapter.History
	var recorder httpadapter.History
	if cfg.RedisAddr != "" {
		connectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		history, err = redisadapter.New(connectCtx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.HistorySize)
		cancel()
		if err != nil {
			logger.Warn("prediction history disabled", "error", err)
		} else {
			logger.Info("prediction history enabled", "addr", cfg.RedisAddr, "size", cfg.HistorySize)
			recorder = history
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The streaming scorer joins /readyz when enabled.
	var reader *kafkaadapter.Reader
	var writer *kafkaadapter.Writer
	var scorer *pipeline.Pipeline
	var extraReady []sharedobs.ReadinessChecker
	if cfg.KafkaEnabled {
		reader = kafkaadapter.NewReader(cfg, logger)
		writer = kafkaadapter.NewWriter(cfg, logger)
		scorer = pipeline.New(reader, pipeline.NewScorer(svc, logger), writer, logger, metrics, cfg.BatchSize)
		extraReady = append(extraReady, scorer)
	} else {
		logger.Info("streaming scorer disabled")
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, svc, recorder, logger, metrics, extraReady...)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	// Start streaming scorer.
	if scorer != nil {
		go func() {
			if err := scorer.Run(ctx); err != nil {
				logger.Error("pipeline error", "error", err)
			}
		}()
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if reader != nil {
		if err := reader.Close(); err != nil {
			logger.Error("kafka reader close error", "error", err)
		}
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}
	if history != nil {
		if err := history.Close(); err != nil {
			logger.Error("redis close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
