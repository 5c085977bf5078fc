// Package app wires configuration into the chat service shared by the
// serverless and long-running entry points.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"

	"portfolio-assistant/internal/config"
	"portfolio-assistant/internal/integrations/openai"
	"portfolio-assistant/internal/integrations/paramstore"
	"portfolio-assistant/internal/repository"
	"portfolio-assistant/internal/usecase"
)

// NewLogger returns a JSON logger at the configured level.
func NewLogger(w io.Writer, cfg config.Config) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: cfg.LogLevel}))
}

// NewChatService builds the completion client, the optional SSM key source
// and transcript log, and the chat service on top of them. AWS configuration
// is only loaded when one of those AWS features is enabled.
func NewChatService(ctx context.Context, cfg config.Config, logger *slog.Logger, clientOpts ...openai.Option) (*usecase.ChatService, error) {
	var awsCfg aws.Config
	if cfg.UsesAWS() {
		loaded, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("app: load AWS config: %w", err)
		}
		awsCfg = loaded
	}

	keys, err := keySource(cfg, awsCfg)
	if err != nil {
		return nil, err
	}

	opts := append([]openai.Option{
		openai.WithBaseURL(cfg.OpenAIBaseURL),
		openai.WithHTTPClient(&http.Client{Timeout: cfg.OpenAITimeout}),
	}, clientOpts...)
	llm, err := openai.NewClient(keys, opts...)
	if err != nil {
		return nil, fmt.Errorf("app: create OpenAI client: %w", err)
	}

	svcOpts := []usecase.Option{usecase.WithLogger(logger)}
	if cfg.TranscriptTable != "" {
		transcripts, err := repository.New(awsdynamodb.NewFromConfig(awsCfg), cfg.TranscriptTable, cfg.TranscriptTTL)
		if err != nil {
			return nil, fmt.Errorf("app: create transcript store: %w", err)
		}
		svcOpts = append(svcOpts, usecase.WithTranscripts(transcripts))
	}

	svc, err := usecase.NewChatService(llm, cfg.OpenAIModel, svcOpts...)
	if err != nil {
		return nil, fmt.Errorf("app: create chat service: %w", err)
	}
	return svc, nil
}

func keySource(cfg config.Config, awsCfg aws.Config) (openai.KeySource, error) {
	if !cfg.UsesParamStore() {
		return openai.StaticKey(cfg.OpenAIAPIKey), nil
	}
	ssmClient, err := paramstore.New(awsssm.NewFromConfig(awsCfg))
	if err != nil {
		return nil, fmt.Errorf("app: create SSM client: %w", err)
	}
	keys, err := paramstore.NewKeySource(ssmClient, cfg.OpenAIAPIKeyParam)
	if err != nil {
		return nil, fmt.Errorf("app: create SSM key source: %w", err)
	}
	return keys, nil
}
