// Package transport holds the request decoding and error mapping shared by
// the HTTP server and the Lambda handler.
package transport

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"talksense/internal/usecase"
)

const (
	CorrelationHeader = "X-Correlation-Id"

	MsgChatRequired = "Chat text is required"
	MsgInvalidJSON  = "AI returned invalid JSON"
	MsgInternal     = "Internal server error"
	MsgTooLarge     = "Request body too large"

	LivenessText = "TalkSense backend running"
)

type ErrorResponse struct {
	Error string  `json:"error"`
	Raw   *string `json:"raw,omitempty"`
}

// DecodeChat extracts the "chat" field from an analyze request body. It
// reports false when the body is not a JSON object or chat is missing or not
// a string.
func DecodeChat(body []byte) (string, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil || fields == nil {
		return "", false
	}
	raw, ok := fields["chat"]
	if !ok {
		return "", false
	}
	var chat string
	if err := json.Unmarshal(raw, &chat); err != nil {
		return "", false
	}
	return chat, true
}

// CorrelationID returns the trimmed header value or a fresh UUID.
func CorrelationID(header string) string {
	if id := strings.TrimSpace(header); id != "" {
		return id
	}
	return uuid.NewString()
}

// AnalyzeError maps an Analyze error to a status code and body and logs
// everything that is not the caller's fault.
func AnalyzeError(logger *zap.Logger, correlationID string, err error, exposeRaw bool) (int, ErrorResponse) {
	var uerr *usecase.Error
	if !errors.As(err, &uerr) {
		logger.Error("analyze failed",
			zap.String("correlation_id", correlationID),
			zap.Error(err),
		)
		return http.StatusInternalServerError, ErrorResponse{Error: MsgInternal}
	}

	switch uerr.Code {
	case usecase.ErrorInvalidInput:
		return http.StatusBadRequest, ErrorResponse{Error: MsgChatRequired}
	case usecase.ErrorInvalidJSON:
		logger.Warn("model returned invalid JSON",
			zap.String("correlation_id", correlationID),
			zap.Int("raw_bytes", len(uerr.Raw)),
			zap.Error(uerr.Err),
		)
		resp := ErrorResponse{Error: MsgInvalidJSON}
		if exposeRaw {
			raw := uerr.Raw
			resp.Raw = &raw
		}
		return http.StatusInternalServerError, resp
	default:
		fields := []zap.Field{
			zap.String("correlation_id", correlationID),
			zap.String("code", string(uerr.Code)),
			zap.String("reason", uerr.Reason),
			zap.Error(uerr.Err),
		}
		if uerr.UpstreamStatus != 0 {
			fields = append(fields, zap.Int("upstream_status", uerr.UpstreamStatus))
		}
		logger.Error("analyze failed", fields...)
		return http.StatusInternalServerError, ErrorResponse{Error: MsgInternal}
	}
}
