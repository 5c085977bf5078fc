package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"portfolio-assistant/handler"
	"portfolio-assistant/internal/app"
	"portfolio-assistant/internal/config"
	"portfolio-assistant/internal/integrations/openai"
)

func main() {
	ctx := context.Background()

	// ---- Configuration (read only here) ----
	cfg := config.Load()
	logger := app.NewLogger(os.Stdout, cfg)
	slog.SetDefault(logger)

	// ---- Chat service; the SDK client is rebuilt on every invocation ----
	chatService, err := app.NewChatService(ctx, cfg, logger, openai.WithClientPerCall())
	if err != nil {
		slog.Error("failed to create chat service", "err", err)
		os.Exit(1)
	}

	// ---- Handler ----
	h, err := handler.NewHandler(chatService)
	if err != nil {
		slog.Error("failed to create handler", "err", err)
		os.Exit(1)
	}

	lambda.Start(h.Handle)
}
