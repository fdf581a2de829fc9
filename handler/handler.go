// Package handler adapts the analyze routes to API Gateway proxy events.
package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"talksense/internal/normalize"
	"talksense/internal/transport"
	"talksense/internal/usecase"
)

const defaultMaxBodyBytes = 1 << 20

// Analyzer is the use case the handler fronts.
type Analyzer interface {
	Analyze(ctx context.Context, in usecase.AnalyzeInput) (usecase.AnalyzeOutput, error)
}

type Handler struct {
	analyzer     Analyzer
	maxBodyBytes int64
	exposeRaw    bool
	logger       *zap.Logger
}

type Option func(*Handler)

func WithMaxBodyBytes(n int64) Option {
	return func(h *Handler) {
		if n > 0 {
			h.maxBodyBytes = n
		}
	}
}

func WithExposeRawOutput(expose bool) Option {
	return func(h *Handler) {
		h.exposeRaw = expose
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

func NewHandler(analyzer Analyzer, opts ...Option) (*Handler, error) {
	if analyzer == nil {
		return nil, errors.New("handler: analyzer must not be nil")
	}
	h := &Handler{
		analyzer:     analyzer,
		maxBodyBytes: defaultMaxBodyBytes,
		exposeRaw:    true,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// Handle routes GET /, POST /analyze and POST /normalize. It never returns an
// error: failures become HTTP responses.
func (h *Handler) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (resp events.APIGatewayProxyResponse, err error) {
	corrID := transport.CorrelationID(header(req.Headers, transport.CorrelationHeader))
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("panic in handler",
				zap.String("correlation_id", corrID),
				zap.Any("panic", r),
				zap.Stack("stack"),
			)
			resp, err = jsonResponse(corrID, http.StatusInternalServerError, transport.ErrorResponse{Error: transport.MsgInternal}), nil
		}
	}()

	path := "/" + strings.Trim(req.Path, "/")
	switch {
	case req.HTTPMethod == http.MethodOptions:
		return response(corrID, http.StatusNoContent, "", ""), nil
	case req.HTTPMethod == http.MethodGet && path == "/":
		return response(corrID, http.StatusOK, "text/plain; charset=utf-8", transport.LivenessText), nil
	case req.HTTPMethod == http.MethodPost && path == "/analyze":
		return h.analyze(ctx, corrID, req), nil
	case req.HTTPMethod == http.MethodPost && path == "/normalize":
		return h.normalize(corrID, req), nil
	default:
		return jsonResponse(corrID, http.StatusNotFound, transport.ErrorResponse{Error: "Not found"}), nil
	}
}

func (h *Handler) analyze(ctx context.Context, corrID string, req events.APIGatewayProxyRequest) events.APIGatewayProxyResponse {
	body, resp, ok := h.body(corrID, req)
	if !ok {
		return resp
	}
	chat, ok := transport.DecodeChat(body)
	if !ok {
		return jsonResponse(corrID, http.StatusBadRequest, transport.ErrorResponse{Error: transport.MsgChatRequired})
	}

	out, err := h.analyzer.Analyze(ctx, usecase.AnalyzeInput{Chat: chat, RequestID: corrID})
	if err != nil {
		status, errBody := transport.AnalyzeError(h.logger, corrID, err, h.exposeRaw)
		return jsonResponse(corrID, status, errBody)
	}
	return response(corrID, http.StatusOK, "application/json", string(out.Result))
}

func (h *Handler) normalize(corrID string, req events.APIGatewayProxyRequest) events.APIGatewayProxyResponse {
	body, resp, ok := h.body(corrID, req)
	if !ok {
		return resp
	}
	return jsonResponse(corrID, http.StatusOK, normalize.Normalize(body))
}

// body decodes the event body and enforces the size cap.
func (h *Handler) body(corrID string, req events.APIGatewayProxyRequest) ([]byte, events.APIGatewayProxyResponse, bool) {
	body := []byte(req.Body)
	if req.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(req.Body)
		if err != nil {
			return nil, jsonResponse(corrID, http.StatusBadRequest, transport.ErrorResponse{Error: transport.MsgChatRequired}), false
		}
		body = decoded
	}
	if int64(len(body)) > h.maxBodyBytes {
		return nil, jsonResponse(corrID, http.StatusRequestEntityTooLarge, transport.ErrorResponse{Error: transport.MsgTooLarge}), false
	}
	return body, events.APIGatewayProxyResponse{}, true
}

func jsonResponse(corrID string, status int, v any) events.APIGatewayProxyResponse {
	b, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		b = []byte(`{"error":"` + transport.MsgInternal + `"}`)
	}
	return response(corrID, status, "application/json", string(b))
}

func response(corrID string, status int, contentType, body string) events.APIGatewayProxyResponse {
	headers := map[string]string{
		transport.CorrelationHeader:    corrID,
		"Access-Control-Allow-Origin":  "*",
		"Access-Control-Allow-Methods": "GET, POST, OPTIONS",
		"Access-Control-Allow-Headers": "Content-Type, " + transport.CorrelationHeader,
	}
	if contentType != "" {
		headers["Content-Type"] = contentType
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    headers,
		Body:       body,
	}
}

// header looks up name case-insensitively; API Gateway forwards headers as
// the client sent them.
func header(headers map[string]string, name string) string {
	if v, ok := headers[name]; ok {
		return v
	}
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}
