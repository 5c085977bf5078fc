// Package config provides runtime configuration loaded from env vars.
// Every field has a default so the server runs locally with only an API key.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds runtime configuration for both entry points.
type Config struct {
	// Completion API
	OpenAIAPIKey      string        // OPENAI_API_KEY
	OpenAIAPIKeyParam string        // OPENAI_API_KEY_PARAM: SSM parameter, used when OPENAI_API_KEY is empty
	OpenAIModel       string        // OPENAI_MODEL, default "gpt-4o-mini"
	OpenAIBaseURL     string        // OPENAI_BASE_URL, default "https://api.openai.com/v1"
	OpenAITimeout     time.Duration // OPENAI_TIMEOUT_SECONDS, default 60

	// Transcript log
	TranscriptTable string        // TRANSCRIPT_TABLE: empty disables the log
	TranscriptTTL   time.Duration // TRANSCRIPT_TTL_DAYS, default 30

	// Server
	Host            string        // HOST, default "0.0.0.0"
	Port            int           // PORT, default 5000
	ShutdownTimeout time.Duration // SHUTDOWN_TIMEOUT_SECONDS, default 10

	LogLevel slog.Level // LOG_LEVEL, default info
}

const (
	envKeyOpenAIAPIKey      = "OPENAI_API_KEY"
	envKeyOpenAIAPIKeyParam = "OPENAI_API_KEY_PARAM"
	envKeyOpenAIModel       = "OPENAI_MODEL"
	envKeyOpenAIBaseURL     = "OPENAI_BASE_URL"
	envKeyOpenAITimeout     = "OPENAI_TIMEOUT_SECONDS"
	envKeyTranscriptTable   = "TRANSCRIPT_TABLE"
	envKeyTranscriptTTLDays = "TRANSCRIPT_TTL_DAYS"
	envKeyHost              = "HOST"
	envKeyPort              = "PORT"
	envKeyShutdownTimeout   = "SHUTDOWN_TIMEOUT_SECONDS"
	envKeyLogLevel          = "LOG_LEVEL"
)

// Load reads configuration from environment variables, applying defaults for
// missing or malformed values.
func Load() Config {
	return Config{
		OpenAIAPIKey:      strings.TrimSpace(os.Getenv(envKeyOpenAIAPIKey)),
		OpenAIAPIKeyParam: strings.TrimSpace(os.Getenv(envKeyOpenAIAPIKeyParam)),
		OpenAIModel:       envOr(envKeyOpenAIModel, "gpt-4o-mini"),
		OpenAIBaseURL:     envOr(envKeyOpenAIBaseURL, "https://api.openai.com/v1"),
		OpenAITimeout:     time.Duration(envInt(envKeyOpenAITimeout, 60)) * time.Second,
		TranscriptTable:   strings.TrimSpace(os.Getenv(envKeyTranscriptTable)),
		TranscriptTTL:     time.Duration(envInt(envKeyTranscriptTTLDays, 30)) * 24 * time.Hour,
		Host:              envOr(envKeyHost, "0.0.0.0"),
		Port:              envInt(envKeyPort, 5000),
		ShutdownTimeout:   time.Duration(envInt(envKeyShutdownTimeout, 10)) * time.Second,
		LogLevel:          envLevel(envKeyLogLevel, slog.LevelInfo),
	}
}

// UsesParamStore reports whether the API key must be read from SSM.
func (c Config) UsesParamStore() bool {
	return c.OpenAIAPIKey == "" && c.OpenAIAPIKeyParam != ""
}

// UsesAWS reports whether any AWS client is needed.
func (c Config) UsesAWS() bool {
	return c.UsesParamStore() || c.TranscriptTable != ""
}

// envOr returns the value of the environment variable key, or fallback if not set.
func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// envInt returns a positive integer from key, or def.
func envInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func envLevel(key string, def slog.Level) slog.Level {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(v)); err != nil {
		return def
	}
	return level
}
