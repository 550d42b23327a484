package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/climate-alert-service/internal/adapter/anchor"
	"github.com/couchcryptid/climate-alert-service/internal/adapter/channel"
	httpadapter "github.com/couchcryptid/climate-alert-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/climate-alert-service/internal/adapter/kafka"
	"github.com/couchcryptid/climate-alert-service/internal/adapter/model"
	"github.com/couchcryptid/climate-alert-service/internal/adapter/postgres"
	"github.com/couchcryptid/climate-alert-service/internal/alert"
	"github.com/couchcryptid/climate-alert-service/internal/config"
	"github.com/couchcryptid/climate-alert-service/internal/jobs"
	"github.com/couchcryptid/climate-alert-service/internal/observability"
	"github.com/couchcryptid/climate-alert-service/internal/pipeline"
	"github.com/couchcryptid/climate-alert-service/internal/risk"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := postgres.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	// Scoring starts at the model tier only when a scoring service is
	// configured; otherwise the rule tier is the first stop.
	var predictor risk.Predictor
	if cfg.ModelEnabled {
		predictor = model.NewClient(cfg.ModelBaseURL, cfg.ModelTimeout, logger)
		logger.Info("model scoring enabled", "base_url", cfg.ModelBaseURL, "timeout", cfg.ModelTimeout)
	} else {
		logger.Info("model scoring disabled")
	}
	engine := risk.NewEngine(predictor, logger, metrics)

	var anchorClient *anchor.Client
	var anchorer alert.Anchorer
	var verifier httpadapter.ProofVerifier
	if cfg.AnchorEnabled {
		anchorClient = anchor.NewClient(cfg.AnchorBaseURL, cfg.AnchorTimeout, logger)
		anchorer = anchorClient
		verifier = anchorClient
		logger.Info("proof anchoring enabled", "base_url", cfg.AnchorBaseURL)
	} else {
		logger.Info("proof anchoring disabled")
	}

	var channels []alert.Channel
	if cfg.PushBaseURL != "" {
		channels = append(channels, channel.NewPush(cfg.PushBaseURL, cfg.SendTimeout))
	}
	if cfg.EmailBaseURL != "" {
		channels = append(channels, channel.NewEmail(cfg.EmailBaseURL, cfg.SendTimeout))
	}
	if cfg.SMSBaseURL != "" {
		channels = append(channels, channel.NewSMS(cfg.SMSBaseURL, cfg.SendTimeout))
	}
	var webhook alert.Channel
	if len(cfg.WebhookTargets) > 0 {
		webhook = channel.NewWebhook(cfg.SendTimeout)
	}
	if len(channels) == 0 && webhook == nil {
		logger.Warn("no notification channels configured, dispatch passes will be no-ops")
	}

	dispatcher := alert.NewDispatcher(channels, webhook, cfg.WebhookTargets,
		cfg.DispatchMaxConcurrent, cfg.SendTimeout, logger, metrics)
	runner := jobs.NewRunner(cfg.JobWorkers, cfg.JobMaxAttempts, logger, metrics)
	service := alert.NewService(ctx, store, store, dispatcher, anchorer, runner, logger, metrics)

	var trigger pipeline.AlertTrigger
	if cfg.AutoAlertThreshold > 0 {
		trigger = alert.NewAutoTrigger(service, cfg.AutoAlertThreshold, logger)
		logger.Info("auto-alerts enabled", "threshold", cfg.AutoAlertThreshold)
	} else {
		logger.Info("auto-alerts disabled")
	}

	reader := kafkaadapter.NewReader(cfg, logger)
	writer := kafkaadapter.NewWriter(cfg, logger)

	p := pipeline.New(reader, engine, pipeline.FanoutLoader{store, writer}, trigger, logger, metrics)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, service, verifier, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start scoring pipeline.
	go func() {
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := runner.Wait(shutdownCtx); err != nil {
		logger.Error("background jobs did not drain", "error", err)
	}
	if err := reader.Close(); err != nil {
		logger.Error("kafka reader close error", "error", err)
	}
	if err := writer.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}

	logger.Info("shutdown complete")
}
