package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"portfolio-assistant/handler"
	"portfolio-assistant/internal/app"
	"portfolio-assistant/internal/config"
	"portfolio-assistant/internal/server"
)

func main() {
	// .env is optional; real environment variables take precedence.
	_ = godotenv.Load()

	cfg := config.Load()
	logger := app.NewLogger(os.Stdout, cfg)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ---- Chat service; one SDK client for the process ----
	chatService, err := app.NewChatService(ctx, cfg, logger)
	if err != nil {
		slog.Error("failed to create chat service", "err", err)
		os.Exit(1)
	}
	if cfg.OpenAIAPIKey == "" && !cfg.UsesParamStore() {
		slog.Warn("no OpenAI API key configured; chat requests will fail")
	}

	h, err := handler.NewHandler(chatService)
	if err != nil {
		slog.Error("failed to create handler", "err", err)
		os.Exit(1)
	}
	router, err := server.NewRouter(h, logger)
	if err != nil {
		slog.Error("failed to create router", "err", err)
		os.Exit(1)
	}

	srvCfg := server.DefaultConfig()
	srvCfg.Host = cfg.Host
	srvCfg.Port = cfg.Port
	if minWrite := cfg.OpenAITimeout + srvCfg.ReadTimeout; srvCfg.WriteTimeout < minWrite {
		srvCfg.WriteTimeout = minWrite
	}
	if err := server.NewServer(router, srvCfg, logger).Run(ctx, cfg.ShutdownTimeout); err != nil {
		slog.Error("server stopped", "err", err)
		os.Exit(1)
	}
}
