package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	goopenai "github.com/sashabaranov/go-openai"
	"golang.org/x/sync/singleflight"

	"portfolio-assistant/internal/domain"
)

const (
	defaultBaseURL  = "https://api.openai.com/v1"
	defaultTimeout  = 60 * time.Second
	keyFetchTimeout = 30 * time.Second
)

// ErrMissingAPIKey is returned by Complete when no credential is configured.
var ErrMissingAPIKey = errors.New("openai: api key is not configured")

// KeySource supplies the API key used to authenticate upstream calls.
type KeySource interface {
	APIKey(ctx context.Context) (string, error)
}

// StaticKey is a KeySource backed by a fixed value, typically OPENAI_API_KEY.
type StaticKey string

func (k StaticKey) APIKey(context.Context) (string, error) {
	key := strings.TrimSpace(string(k))
	if key == "" {
		return "", ErrMissingAPIKey
	}
	return key, nil
}

// HTTPStatusError captures non-2xx upstream responses with status-aware context.
type HTTPStatusError struct {
	StatusCode int
	Err        error
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("openai: unexpected status %d: %v", e.StatusCode, e.Err)
}

func (e *HTTPStatusError) Unwrap() error {
	return e.Err
}

func (e *HTTPStatusError) HTTPStatusCode() int {
	return e.StatusCode
}

// Client is a focused OpenAI-compatible client for chat completions.
type Client struct {
	baseURL    string
	httpClient *http.Client
	keys       KeySource
	perCall    bool

	group singleflight.Group
	mu    sync.Mutex
	sdk   *goopenai.Client
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSpace(baseURL)
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithClientPerCall builds a fresh SDK client for every Complete call instead
// of sharing one for the lifetime of the process.
func WithClientPerCall() Option {
	return func(c *Client) {
		c.perCall = true
	}
}

// NewClient creates a Client that authenticates with keys. The key is not
// resolved until the first call to Complete, so a missing credential only
// fails chat calls.
func NewClient(keys KeySource, opts ...Option) (*Client, error) {
	if keys == nil {
		return nil, errors.New("openai: key source must not be nil")
	}
	c := &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
		keys:       keys,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Complete sends one non-streaming chat completion request and returns the
// content of the first choice.
func (c *Client) Complete(ctx context.Context, model string, messages []domain.ChatMessage) (string, error) {
	if strings.TrimSpace(model) == "" {
		return "", errors.New("openai: model must not be empty")
	}

	sdk, err := c.sdkClient(ctx)
	if err != nil {
		return "", err
	}

	resp, err := sdk.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model:    model,
		Messages: toSDKMessages(messages),
	})
	if err != nil {
		return "", fmt.Errorf("openai: request failed: %w", withStatus(err))
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai: no choices in response")
	}
	return resp.Choices[0].Message.Content, nil
}

func (c *Client) sdkClient(ctx context.Context) (*goopenai.Client, error) {
	if c.perCall {
		return c.newSDKClient(ctx)
	}
	if sdk := c.cachedSDK(); sdk != nil {
		return sdk, nil
	}

	// One key fetch runs at a time. It is detached from any single caller so
	// a cancelled request does not fail the others waiting on it.
	ch := c.group.DoChan("sdk", func() (any, error) {
		if sdk := c.cachedSDK(); sdk != nil {
			return sdk, nil
		}
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), keyFetchTimeout)
		defer cancel()
		sdk, err := c.newSDKClient(fetchCtx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.sdk = sdk
		c.mu.Unlock()
		return sdk, nil
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("openai: waiting for api key: %w", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*goopenai.Client), nil
	}
}

func (c *Client) cachedSDK() *goopenai.Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sdk
}

func (c *Client) newSDKClient(ctx context.Context) (*goopenai.Client, error) {
	key, err := c.keys.APIKey(ctx)
	if err != nil {
		return nil, err
	}
	cfg := goopenai.DefaultConfig(key)
	cfg.BaseURL = normalizeBaseURL(c.baseURL)
	cfg.HTTPClient = c.resolvedHTTPClient()
	return goopenai.NewClientWithConfig(cfg), nil
}

// resolvedHTTPClient returns the configured HTTP client, or a default one if
// none was set (e.g. in tests that nil out the field).
func (c *Client) resolvedHTTPClient() *http.Client {
	if c.httpClient != nil {
		return c.httpClient
	}
	return &http.Client{Timeout: defaultTimeout}
}

// normalizeBaseURL accepts a host root or a /v1 root and returns the /v1 root.
func normalizeBaseURL(baseURL string) string {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		return defaultBaseURL
	}
	if strings.HasSuffix(base, "/v1") {
		return base
	}
	return base + "/v1"
}

func toSDKMessages(messages []domain.ChatMessage) []goopenai.ChatCompletionMessage {
	out := make([]goopenai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, goopenai.ChatCompletionMessage{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}
	return out
}

func withStatus(err error) error {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode != 0 {
		return &HTTPStatusError{StatusCode: apiErr.HTTPStatusCode, Err: err}
	}
	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		return &HTTPStatusError{StatusCode: reqErr.HTTPStatusCode, Err: err}
	}
	return err
}
