package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	mcpadapter "github.com/kirillkom/journal-assistant/internal/adapters/mcp"
	"github.com/kirillkom/journal-assistant/internal/bootstrap"
	"github.com/kirillkom/journal-assistant/internal/config"
	"github.com/kirillkom/journal-assistant/internal/observability/logging"
)

func main() {
	cfg := config.Load()
	// stdout carries the protocol.
	log.SetOutput(os.Stderr)
	slog.SetDefault(logging.NewStderrJSONLogger("mcp", cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, bootstrap.Options{Service: "mcp"})
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	server := mcpadapter.NewServer(cfg.MCPServerName, app.QueryUC, app.SearchUC)
	if err := server.ServeStdio(); err != nil {
		slog.Error("mcp_server_stopped", "error", err)
	}
}
