package usecase

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"portfolio-assistant/internal/domain"
	"portfolio-assistant/internal/persona"
)

type statusErr struct{ code int }

func (e statusErr) Error() string       { return "upstream status" }
func (e statusErr) HTTPStatusCode() int { return e.code }

type capturingLLM struct {
	answer    string
	err       error
	model     string
	captured  []domain.ChatMessage
	callCount int
}

func (c *capturingLLM) Complete(_ context.Context, model string, msgs []domain.ChatMessage) (string, error) {
	c.callCount++
	c.model = model
	c.captured = msgs
	return c.answer, c.err
}

type mockTranscripts struct {
	recorded []domain.Exchange
	err      error
}

func (m *mockTranscripts) RecordExchange(_ context.Context, ex domain.Exchange) error {
	m.recorded = append(m.recorded, ex)
	return m.err
}

func newTestService(t *testing.T, llm Completer, opts ...Option) *ChatService {
	t.Helper()
	svc, err := NewChatService(llm, "gpt-4o-mini", opts...)
	require.NoError(t, err)
	return svc
}

func bufferLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, nil)), &buf
}

func expectChatError(t *testing.T, err error, code ErrorCode, reason string) {
	t.Helper()
	var usecaseErr *Error
	require.ErrorAs(t, err, &usecaseErr)
	require.Equal(t, code, usecaseErr.Code)
	require.Equal(t, reason, usecaseErr.Reason)
}

func TestNewChatService_ValidatesDependencies(t *testing.T) {
	_, err := NewChatService(nil, "gpt-4o-mini")
	require.Error(t, err)

	_, err = NewChatService(&capturingLLM{}, " ")
	require.Error(t, err)
}

func TestReply_HappyPath(t *testing.T) {
	llm := &capturingLLM{answer: "I build **ML** systems."}
	svc := newTestService(t, llm)

	out, err := svc.Reply(context.Background(), ChatInput{Message: "What do you do?"})
	require.NoError(t, err)
	require.Equal(t, "I build **ML** systems.", out.Reply)
	require.Equal(t, 1, llm.callCount)
	require.Equal(t, "gpt-4o-mini", llm.model)
}

func TestReply_SendsPersonaThenUserMessage(t *testing.T) {
	llm := &capturingLLM{answer: "ok"}
	svc := newTestService(t, llm)

	_, err := svc.Reply(context.Background(), ChatInput{Message: "  literal input\n"})
	require.NoError(t, err)
	require.Equal(t, []domain.ChatMessage{
		{Role: domain.RoleSystem, Content: persona.SystemPrompt},
		{Role: domain.RoleUser, Content: "  literal input\n"},
	}, llm.captured)
}

func TestReply_EmptyMessage_DoesNotCallUpstream(t *testing.T) {
	llm := &capturingLLM{answer: "ok"}
	svc := newTestService(t, llm)

	_, err := svc.Reply(context.Background(), ChatInput{Message: ""})
	expectChatError(t, err, ErrorInvalidInput, "message_required")
	require.Zero(t, llm.callCount)
}

func TestReply_WhitespaceMessageIsPresent(t *testing.T) {
	llm := &capturingLLM{answer: "ok"}
	svc := newTestService(t, llm)

	_, err := svc.Reply(context.Background(), ChatInput{Message: " "})
	require.NoError(t, err)
	require.Equal(t, 1, llm.callCount)
}

func TestReply_UpstreamErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
	}{
		{name: "network", err: errors.New("dial tcp: connection refused")},
		{name: "rate limited", err: statusErr{code: 429}},
		{name: "unauthorized", err: statusErr{code: 401}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			llm := &capturingLLM{err: tc.err}
			svc := newTestService(t, llm)

			_, err := svc.Reply(context.Background(), ChatInput{Message: "What do you do?"})
			expectChatError(t, err, ErrorUpstream, "completion_error")
			require.ErrorIs(t, err, tc.err)
			require.Equal(t, 1, llm.callCount)
		})
	}
}

func TestReply_UpstreamError_IsLogged(t *testing.T) {
	logger, buf := bufferLogger()
	svc := newTestService(t, &capturingLLM{err: statusErr{code: 429}}, WithLogger(logger))

	_, err := svc.Reply(context.Background(), ChatInput{Message: "hi", CorrelationID: "corr-9"})
	require.Error(t, err)
	require.Contains(t, buf.String(), "completion request failed")
	require.Contains(t, buf.String(), "upstream_status=429")
	require.Contains(t, buf.String(), "correlation_id=corr-9")
}

func TestReply_RecordsTranscripts(t *testing.T) {
	prev := newUUID
	newUUID = func() string { return "ex-fixed" }
	t.Cleanup(func() { newUUID = prev })

	transcripts := &mockTranscripts{}
	svc := newTestService(t, &capturingLLM{answer: "hello"}, WithTranscripts(transcripts))

	_, err := svc.Reply(context.Background(), ChatInput{Message: "hi", CorrelationID: "corr-1"})
	require.NoError(t, err)
	require.Len(t, transcripts.recorded, 1)
	require.Equal(t, domain.Exchange{
		ID:            "ex-fixed",
		CorrelationID: "corr-1",
		Message:       "hi",
		Reply:         "hello",
		Model:         "gpt-4o-mini",
		Outcome:       domain.OutcomeAnswered,
	}, transcripts.recorded[0])
}

func TestReply_RecordsUnavailableOutcome(t *testing.T) {
	transcripts := &mockTranscripts{}
	svc := newTestService(t, &capturingLLM{err: errors.New("boom")}, WithTranscripts(transcripts))

	_, err := svc.Reply(context.Background(), ChatInput{Message: "hi"})
	require.Error(t, err)
	require.Len(t, transcripts.recorded, 1)
	require.Equal(t, domain.OutcomeUnavailable, transcripts.recorded[0].Outcome)
	require.Empty(t, transcripts.recorded[0].Reply)
}

func TestReply_SkipsTranscriptForInvalidInput(t *testing.T) {
	transcripts := &mockTranscripts{}
	svc := newTestService(t, &capturingLLM{answer: "ok"}, WithTranscripts(transcripts))

	_, err := svc.Reply(context.Background(), ChatInput{})
	require.Error(t, err)
	require.Empty(t, transcripts.recorded)
}

func TestReply_TranscriptFailureDoesNotFailReply(t *testing.T) {
	logger, buf := bufferLogger()
	transcripts := &mockTranscripts{err: errors.New("dynamodb down")}
	svc := newTestService(t, &capturingLLM{answer: "hello"}, WithTranscripts(transcripts), WithLogger(logger))

	out, err := svc.Reply(context.Background(), ChatInput{Message: "hi"})
	require.NoError(t, err)
	require.Equal(t, "hello", out.Reply)
	require.Contains(t, buf.String(), "transcript write failed")
}

func TestError_Formatting(t *testing.T) {
	require.Equal(t, "usecase: INVALID_INPUT (message_required)", newError(ErrorInvalidInput, "message_required", nil).Error())
	require.Equal(t, "usecase: UPSTREAM_ERROR (completion_error): boom", newError(ErrorUpstream, "completion_error", errors.New("boom")).Error())

	var nilErr *Error
	require.Equal(t, "", nilErr.Error())
	require.Nil(t, nilErr.Unwrap())
}
