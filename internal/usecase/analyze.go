package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"talksense/internal/domain"
)

const auditTTL = 30 * 24 * time.Hour

// Completer sends the fixed instruction and the chat text to a hosted model
// and returns its raw text reply.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, chat string) (string, error)
}

type AuditRecorder interface {
	RecordAnalysis(ctx context.Context, rec domain.AuditRecord) error
}

type httpStatusCoder interface {
	HTTPStatusCode() int
}

type Options struct {
	Provider string
	Model    string
	// Timeout bounds the model call. Zero leaves it bounded only by ctx.
	Timeout         time.Duration
	ExposeRawOutput bool
	Audit           AuditRecorder
	Logger          *zap.Logger
}

type AnalyzeService struct {
	llm       Completer
	audit     AuditRecorder
	logger    *zap.Logger
	provider  string
	model     string
	timeout   time.Duration
	exposeRaw bool
	prompt    string
	now       func() time.Time
}

type AnalyzeInput struct {
	Chat      string
	RequestID string
}

type AnalyzeOutput struct {
	// Result is the model's JSON reply, compacted but otherwise untouched.
	Result json.RawMessage
}

func NewAnalyzeService(llm Completer, opts Options) (*AnalyzeService, error) {
	if llm == nil {
		return nil, errors.New("usecase: completion client must not be nil")
	}
	if opts.Timeout < 0 {
		return nil, errors.New("usecase: timeout must not be negative")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnalyzeService{
		llm:       llm,
		audit:     opts.Audit,
		logger:    logger,
		provider:  opts.Provider,
		model:     opts.Model,
		timeout:   opts.Timeout,
		exposeRaw: opts.ExposeRawOutput,
		prompt:    SystemPrompt(),
		now:       time.Now,
	}, nil
}

// ExposeRawOutput reports whether transports may echo model output back to the
// caller on parse failure.
func (s *AnalyzeService) ExposeRawOutput() bool {
	return s.exposeRaw
}

func (s *AnalyzeService) Analyze(ctx context.Context, in AnalyzeInput) (AnalyzeOutput, error) {
	start := s.now()
	out, err := s.analyze(ctx, in)
	s.record(ctx, in, start, err)
	return out, err
}

func (s *AnalyzeService) analyze(ctx context.Context, in AnalyzeInput) (AnalyzeOutput, error) {
	if strings.TrimSpace(in.Chat) == "" {
		return AnalyzeOutput{}, newError(ErrorInvalidInput, "chat_required", nil)
	}

	callCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	raw, err := s.llm.Complete(callCtx, s.prompt, in.Chat)
	if err != nil {
		uerr := newError(ErrorUpstream, "llm_error", err)
		if status, ok := upstreamStatusCode(err); ok {
			uerr.UpstreamStatus = status
			if status == http.StatusTooManyRequests {
				uerr.Reason = "llm_rate_limited"
			}
		} else if errors.Is(err, context.DeadlineExceeded) {
			uerr.Reason = "llm_timeout"
		}
		return AnalyzeOutput{}, uerr
	}

	result, err := parseAnalysis(raw)
	if err != nil {
		uerr := newError(ErrorInvalidJSON, "llm_invalid_json", err)
		uerr.Raw = raw
		return AnalyzeOutput{}, uerr
	}
	return AnalyzeOutput{Result: result}, nil
}

func (s *AnalyzeService) record(ctx context.Context, in AnalyzeInput, start time.Time, err error) {
	if s.audit == nil {
		return
	}
	now := s.now()
	rec := domain.AuditRecord{
		RequestID:  in.RequestID,
		Outcome:    outcome(err),
		Provider:   s.provider,
		Model:      s.model,
		ChatChars:  len([]rune(in.Chat)),
		DurationMs: now.Sub(start).Milliseconds(),
		CreatedAt:  now.UTC().Format(time.RFC3339),
		TTL:        now.Add(auditTTL).Unix(),
	}
	if werr := s.audit.RecordAnalysis(context.WithoutCancel(ctx), rec); werr != nil {
		s.logger.Warn("audit record failed",
			zap.String("request_id", in.RequestID),
			zap.Error(werr),
		)
	}
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	var uerr *Error
	if !errors.As(err, &uerr) {
		return "internal_error"
	}
	return strings.ToLower(string(uerr.Code))
}

// parseAnalysis accepts exactly one JSON value, optionally surrounded by
// whitespace, and returns it compacted.
func parseAnalysis(raw string) (json.RawMessage, error) {
	var out json.RawMessage
	dec := json.NewDecoder(strings.NewReader(strings.TrimSpace(raw)))
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("usecase: decode analysis: %w", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return nil, errors.New("usecase: decode analysis: multiple JSON values")
		}
		return nil, fmt.Errorf("usecase: decode analysis trailing data: %w", err)
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, out); err != nil {
		return nil, fmt.Errorf("usecase: compact analysis: %w", err)
	}
	return buf.Bytes(), nil
}

func upstreamStatusCode(err error) (int, bool) {
	var statusErr httpStatusCoder
	if !errors.As(err, &statusErr) {
		return 0, false
	}
	return statusErr.HTTPStatusCode(), true
}
