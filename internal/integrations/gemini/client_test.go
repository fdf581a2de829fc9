package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, srv *httptest.Server, opts ...Option) *Client {
	t.Helper()
	opts = append([]Option{
		WithBaseURL(srv.URL),
		WithHTTPClient(&http.Client{Timeout: 2 * time.Second}),
	}, opts...)
	c, err := NewClient(context.Background(), "gm-test", opts...)
	require.NoError(t, err)
	return c
}

func TestNewClient_EmptyKey(t *testing.T) {
	_, err := NewClient(context.Background(), " ")
	require.Error(t, err)
	require.Contains(t, err.Error(), "API key")
}

func TestNewClient_DefaultModel(t *testing.T) {
	c, err := NewClient(context.Background(), "gm-test", WithModel(""))
	require.NoError(t, err)
	require.Equal(t, DefaultModel, c.Model())
}

func TestClient_Complete_HappyPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.True(t, strings.HasSuffix(r.URL.Path, "/models/gemini-test:generateContent"), r.URL.Path)
		require.Equal(t, "gm-test", r.Header.Get("x-goog-api-key"))

		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var body struct {
			Contents []struct {
				Role  string `json:"role"`
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"contents"`
			SystemInstruction struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"systemInstruction"`
			GenerationConfig struct {
				ResponseMIMEType string `json:"responseMimeType"`
			} `json:"generationConfig"`
		}
		require.NoError(t, json.Unmarshal(raw, &body))
		require.Len(t, body.Contents, 1)
		require.Equal(t, "A: hi\nB: hey", body.Contents[0].Parts[0].Text)
		require.Equal(t, "be precise", body.SystemInstruction.Parts[0].Text)
		require.Equal(t, "application/json", body.GenerationConfig.ResponseMIMEType)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"{\"summary\":{}}"}]},"finishReason":"STOP"}]}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv, WithModel("gemini-test"))
	out, err := c.Complete(context.Background(), "be precise", "A: hi\nB: hey")
	require.NoError(t, err)
	require.Equal(t, `{"summary":{}}`, out)
}

func TestClient_Complete_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = fmt.Fprint(w, `{"error":{"code":400,"message":"API key not valid","status":"INVALID_ARGUMENT"}}`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	_, err := c.Complete(context.Background(), "p", "hello")
	require.Error(t, err)
	var statusErr *HTTPStatusError
	require.True(t, errors.As(err, &statusErr))
	require.Equal(t, http.StatusBadRequest, statusErr.HTTPStatusCode())
	require.Equal(t, "INVALID_ARGUMENT", statusErr.Status)
	require.Contains(t, err.Error(), "API key not valid")
}

func TestClient_Complete_NoCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	_, err := c.Complete(context.Background(), "p", "hello")
	require.Error(t, err)
	require.Contains(t, err.Error(), "no candidates")
}

func TestTranslateError_PassesThroughOtherErrors(t *testing.T) {
	base := errors.New("dial tcp: connection refused")
	require.Same(t, base, translateError(base))
}

func TestHTTPStatusError_Message(t *testing.T) {
	err := &HTTPStatusError{StatusCode: 429, Status: "RESOURCE_EXHAUSTED", Message: "quota"}
	require.Contains(t, err.Error(), "429")
	require.Contains(t, err.Error(), "RESOURCE_EXHAUSTED")
	require.Equal(t, 429, err.HTTPStatusCode())
}
