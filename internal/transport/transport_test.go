package transport

import (
	"errors"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"talksense/internal/usecase"
)

func TestDecodeChat(t *testing.T) {
	cases := []struct {
		body string
		chat string
		ok   bool
	}{
		{`{"chat":"hello"}`, "hello", true},
		{`{"chat":"","other":1}`, "", true},
		{`{"chat":null}`, "", true},
		{`{"chat":42}`, "", false},
		{`{"chat":["a"]}`, "", false},
		{`{"text":"hello"}`, "", false},
		{`{}`, "", false},
		{`null`, "", false},
		{`"hello"`, "", false},
		{`not-json`, "", false},
		{``, "", false},
	}
	for _, tc := range cases {
		chat, ok := DecodeChat([]byte(tc.body))
		require.Equal(t, tc.ok, ok, "body=%s", tc.body)
		require.Equal(t, tc.chat, chat, "body=%s", tc.body)
	}
}

func TestCorrelationID(t *testing.T) {
	require.Equal(t, "corr-1", CorrelationID(" corr-1 "))

	id := CorrelationID("")
	_, err := uuid.Parse(id)
	require.NoError(t, err)
}

func TestAnalyzeError(t *testing.T) {
	cases := []struct {
		name      string
		err       error
		exposeRaw bool
		status    int
		want      ErrorResponse
	}{
		{
			name:   "invalid input",
			err:    &usecase.Error{Code: usecase.ErrorInvalidInput, Reason: "chat_required"},
			status: http.StatusBadRequest,
			want:   ErrorResponse{Error: MsgChatRequired},
		},
		{
			name:      "invalid json with raw",
			err:       &usecase.Error{Code: usecase.ErrorInvalidJSON, Reason: "llm_invalid_json", Raw: "oops"},
			exposeRaw: true,
			status:    http.StatusInternalServerError,
			want:      ErrorResponse{Error: MsgInvalidJSON, Raw: strPtr("oops")},
		},
		{
			name:   "invalid json without raw",
			err:    &usecase.Error{Code: usecase.ErrorInvalidJSON, Reason: "llm_invalid_json", Raw: "oops"},
			status: http.StatusInternalServerError,
			want:   ErrorResponse{Error: MsgInvalidJSON},
		},
		{
			name:   "upstream",
			err:    &usecase.Error{Code: usecase.ErrorUpstream, Reason: "llm_rate_limited", UpstreamStatus: 429},
			status: http.StatusInternalServerError,
			want:   ErrorResponse{Error: MsgInternal},
		},
		{
			name:   "internal",
			err:    &usecase.Error{Code: usecase.ErrorInternal, Reason: "boom"},
			status: http.StatusInternalServerError,
			want:   ErrorResponse{Error: MsgInternal},
		},
		{
			name:   "unexpected",
			err:    errors.New("boom"),
			status: http.StatusInternalServerError,
			want:   ErrorResponse{Error: MsgInternal},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, body := AnalyzeError(zap.NewNop(), "corr-1", tc.err, tc.exposeRaw)
			require.Equal(t, tc.status, status)
			require.Equal(t, tc.want, body)
		})
	}
}

func TestAnalyzeError_LogsUpstreamContext(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	err := &usecase.Error{Code: usecase.ErrorUpstream, Reason: "llm_rate_limited", UpstreamStatus: 429, Err: errors.New("slow down")}

	AnalyzeError(zap.New(core), "corr-7", err, true)

	entries := logs.FilterMessage("analyze failed").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	require.Equal(t, "corr-7", fields["correlation_id"])
	require.Equal(t, "llm_rate_limited", fields["reason"])
	require.EqualValues(t, 429, fields["upstream_status"])
}

func TestAnalyzeError_InvalidInputIsNotLogged(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	AnalyzeError(zap.New(core), "corr-1", &usecase.Error{Code: usecase.ErrorInvalidInput}, true)
	require.Zero(t, logs.Len())
}

func strPtr(s string) *string { return &s }
