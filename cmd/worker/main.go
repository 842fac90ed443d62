package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kirillkom/journal-assistant/internal/bootstrap"
	"github.com/kirillkom/journal-assistant/internal/config"
	"github.com/kirillkom/journal-assistant/internal/core/domain"
	"github.com/kirillkom/journal-assistant/internal/observability/logging"
	"github.com/kirillkom/journal-assistant/internal/observability/metrics"
)

func main() {
	cfg := config.Load()
	slog.SetDefault(logging.NewJSONLogger("worker", cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	workerMetrics := metrics.NewWorkerMetrics("worker")
	app, err := bootstrap.New(ctx, cfg, bootstrap.Options{
		Service:    "worker",
		Registerer: workerMetrics.Registerer(),
	})
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()
	if app.Bus == nil {
		log.Fatalf("worker requires NATS_URL")
	}

	metricsServer := &http.Server{
		Addr:              ":" + cfg.WorkerMetricsPort,
		Handler:           workerMetrics.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("worker_metrics_server_failed", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	slog.Info("worker_subscribed", "subject", cfg.RAGAskSubject, "queue_group", cfg.NATSQueueGroup)
	err = app.Bus.ServeAsk(ctx, func(handlerCtx context.Context, req domain.RagRequest) (*domain.RagResponse, error) {
		start := time.Now()
		workerMetrics.StartAsk()
		resp, err := app.QueryUC.Answer(handlerCtx, req)
		workerMetrics.FinishAsk("worker", time.Since(start), resp, err)
		return resp, err
	})
	if err != nil {
		log.Fatalf("worker serve error: %v", err)
	}
}
