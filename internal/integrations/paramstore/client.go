package paramstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"golang.org/x/sync/singleflight"
)

const fetchTimeout = 30 * time.Second

// ssmAPI is the minimal AWS SSM interface required by Client.
// *ssm.Client from aws-sdk-go-v2 satisfies this interface.
type ssmAPI interface {
	GetParameter(ctx context.Context, in *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// Getter is the interface that wraps GetParameter.
type Getter interface {
	GetParameter(ctx context.Context, name string) (string, error)
}

// Client wraps an AWS SSM API for parameter retrieval.
type Client struct {
	api ssmAPI
}

// New creates a Client with the given SSM API implementation.
func New(api ssmAPI) (*Client, error) {
	if api == nil {
		return nil, errors.New("paramstore: api must not be nil")
	}
	return &Client{api: api}, nil
}

// GetParameter returns the decrypted value of the named parameter.
func (c *Client) GetParameter(ctx context.Context, name string) (string, error) {
	if c.api == nil {
		return "", errors.New("paramstore: client not initialized")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.New("paramstore: name is required")
	}

	out, err := c.api.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("paramstore: get parameter %q: %w", name, err)
	}
	if out == nil || out.Parameter == nil || out.Parameter.Value == nil {
		return "", errors.New("paramstore: parameter missing value")
	}
	return *out.Parameter.Value, nil
}

// tokenPayload is the JSON shape accepted for secret parameters.
type tokenPayload struct {
	Token string `json:"token"`
}

// KeySource reads an API key from a single parameter. The value may be the
// raw key or a JSON object {"token": "..."}. A successfully read key is kept
// for the lifetime of the process; failures are retried on the next call.
type KeySource struct {
	getter Getter
	name   string

	group singleflight.Group
	mu    sync.Mutex
	key   string
}

// NewKeySource creates a KeySource reading the named parameter.
func NewKeySource(getter Getter, name string) (*KeySource, error) {
	if getter == nil {
		return nil, errors.New("paramstore: getter must not be nil")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("paramstore: key parameter name must not be empty")
	}
	return &KeySource{getter: getter, name: name}, nil
}

// APIKey returns the cached key, fetching it on first use. Concurrent callers
// share one fetch, and each stops waiting when its own ctx is done.
func (s *KeySource) APIKey(ctx context.Context) (string, error) {
	if key := s.cached(); key != "" {
		return key, nil
	}

	ch := s.group.DoChan(s.name, func() (any, error) {
		if key := s.cached(); key != "" {
			return key, nil
		}
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fetchTimeout)
		defer cancel()
		raw, err := s.getter.GetParameter(fetchCtx, s.name)
		if err != nil {
			return "", fmt.Errorf("paramstore: fetch api key: %w", err)
		}
		key, err := decodeKey(raw)
		if err != nil {
			return "", err
		}
		s.mu.Lock()
		s.key = key
		s.mu.Unlock()
		return key, nil
	})

	select {
	case <-ctx.Done():
		return "", fmt.Errorf("paramstore: waiting for api key: %w", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

func (s *KeySource) cached() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.key
}

func decodeKey(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "{") {
		var tp tokenPayload
		if err := json.Unmarshal([]byte(raw), &tp); err != nil {
			return "", fmt.Errorf("paramstore: unmarshal api key value as JSON: %w", err)
		}
		raw = strings.TrimSpace(tp.Token)
	}
	if raw == "" {
		return "", errors.New("paramstore: api key is empty")
	}
	return raw, nil
}
