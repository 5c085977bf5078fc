package handler

import (
	"context"
	"encoding/base64"
	"strings"

	"github.com/aws/aws-lambda-go/events"
)

// Handle serves an API Gateway proxy event. Every path is the chat endpoint.
func (h *Handler) Handle(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	corrID := correlationID(headerValue(event.Headers, correlationHeader))

	body := []byte(event.Body)
	if event.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(event.Body)
		if err != nil {
			decoded = nil
		}
		body = decoded
	}

	res := h.dispatch(ctx, event.HTTPMethod, body, corrID)

	headers := make(map[string]string, len(corsHeaders)+2)
	for _, kv := range corsHeaders {
		headers[kv.key] = kv.value
	}
	headers[correlationHeader] = corrID
	if len(res.body) > 0 {
		headers["Content-Type"] = contentTypeJSON
	}

	return events.APIGatewayProxyResponse{
		StatusCode: res.status,
		Headers:    headers,
		Body:       string(res.body),
	}, nil
}

// headerValue looks up key case-insensitively; API Gateway preserves the
// caller's casing.
func headerValue(headers map[string]string, key string) string {
	if v, ok := headers[key]; ok {
		return v
	}
	for k, v := range headers {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return ""
}
