package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"portfolio-assistant/internal/domain"
	"portfolio-assistant/internal/persona"
)

// Completer is the completion API consumed by ChatService.
type Completer interface {
	Complete(ctx context.Context, model string, messages []domain.ChatMessage) (string, error)
}

// TranscriptRecorder persists finished exchanges. Recording is best effort.
type TranscriptRecorder interface {
	RecordExchange(ctx context.Context, ex domain.Exchange) error
}

type httpStatusCoder interface {
	HTTPStatusCode() int
}

type ChatService struct {
	llm         Completer
	model       string
	transcripts TranscriptRecorder
	logger      *slog.Logger
}

type ChatInput struct {
	Message       string
	CorrelationID string
}

type ChatOutput struct {
	Reply string
}

type Option func(*ChatService)

// WithTranscripts records every exchange that reached the completion API.
func WithTranscripts(r TranscriptRecorder) Option {
	return func(s *ChatService) {
		s.transcripts = r
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *ChatService) {
		if l != nil {
			s.logger = l
		}
	}
}

func NewChatService(llm Completer, model string, opts ...Option) (*ChatService, error) {
	if llm == nil {
		return nil, errors.New("usecase: llm client must not be nil")
	}
	model = strings.TrimSpace(model)
	if model == "" {
		return nil, errors.New("usecase: model must not be empty")
	}
	s := &ChatService{
		llm:    llm,
		model:  model,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Reply sends the persona and the caller's message to the completion API
// exactly once and returns the generated text.
func (s *ChatService) Reply(ctx context.Context, in ChatInput) (ChatOutput, error) {
	if in.Message == "" {
		return ChatOutput{}, newError(ErrorInvalidInput, reasonMessageRequired, nil)
	}

	reply, err := s.llm.Complete(ctx, s.model, persona.Messages(in.Message))
	if err != nil {
		attrs := []any{
			"correlation_id", in.CorrelationID,
			"reason", reasonCompletionError,
			"model", s.model,
			"err", err,
		}
		if status, ok := upstreamStatusCode(err); ok {
			attrs = append(attrs, "upstream_status", status)
		}
		s.logger.ErrorContext(ctx, "completion request failed", attrs...)
		s.record(ctx, in, "", domain.OutcomeUnavailable)
		return ChatOutput{}, newError(ErrorUpstream, reasonCompletionError, err)
	}

	s.record(ctx, in, reply, domain.OutcomeAnswered)
	return ChatOutput{Reply: reply}, nil
}

func (s *ChatService) record(ctx context.Context, in ChatInput, reply string, outcome domain.Outcome) {
	if s.transcripts == nil {
		return
	}
	err := s.transcripts.RecordExchange(ctx, domain.Exchange{
		ID:            newUUID(),
		CorrelationID: in.CorrelationID,
		Message:       in.Message,
		Reply:         reply,
		Model:         s.model,
		Outcome:       outcome,
	})
	if err != nil {
		s.logger.WarnContext(ctx, "transcript write failed",
			"correlation_id", in.CorrelationID,
			"err", err,
		)
	}
}

func upstreamStatusCode(err error) (int, bool) {
	var statusErr httpStatusCoder
	if !errors.As(err, &statusErr) {
		return 0, false
	}
	return statusErr.HTTPStatusCode(), true
}

var newUUID = func() string {
	return uuid.NewString()
}
