// Package server exposes the analyze use case and the normalizer over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"talksense/internal/normalize"
	"talksense/internal/transport"
	"talksense/internal/usecase"
)

const (
	defaultMaxBodyBytes = 1 << 20
	correlationKey      = "correlation_id"
)

// Analyzer is the use case the server fronts.
type Analyzer interface {
	Analyze(ctx context.Context, in usecase.AnalyzeInput) (usecase.AnalyzeOutput, error)
}

type Options struct {
	MaxBodyBytes    int64
	ExposeRawOutput bool
	Logger          *zap.Logger
}

type Server struct {
	analyzer     Analyzer
	maxBodyBytes int64
	exposeRaw    bool
	logger       *zap.Logger
	engine       *gin.Engine
}

func New(analyzer Analyzer, opts Options) (*Server, error) {
	if analyzer == nil {
		return nil, errors.New("server: analyzer must not be nil")
	}
	if opts.MaxBodyBytes < 0 {
		return nil, errors.New("server: max body bytes must not be negative")
	}
	if opts.MaxBodyBytes == 0 {
		opts.MaxBodyBytes = defaultMaxBodyBytes
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		analyzer:     analyzer,
		maxBodyBytes: opts.MaxBodyBytes,
		exposeRaw:    opts.ExposeRawOutput,
		logger:       logger,
	}
	s.engine = s.routes()
	return s, nil
}

// Handler returns the router, for use with net/http or httptest.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(
		s.correlation(),
		s.accessLog(),
		gin.CustomRecoveryWithWriter(io.Discard, s.recoverPanic),
		cors.New(cors.Config{
			AllowAllOrigins: true,
			AllowMethods:    []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowHeaders:    []string{"Content-Type", transport.CorrelationHeader},
			ExposeHeaders:   []string{transport.CorrelationHeader},
			MaxAge:          12 * time.Hour,
		}),
	)

	r.GET("/", s.liveness)
	r.POST("/analyze", s.analyze)
	r.POST("/normalize", s.normalize)
	return r
}

func (s *Server) liveness(c *gin.Context) {
	c.String(http.StatusOK, transport.LivenessText)
}

func (s *Server) analyze(c *gin.Context) {
	body, ok := s.readBody(c)
	if !ok {
		return
	}
	chat, ok := transport.DecodeChat(body)
	if !ok {
		c.JSON(http.StatusBadRequest, transport.ErrorResponse{Error: transport.MsgChatRequired})
		return
	}

	corrID := c.GetString(correlationKey)
	out, err := s.analyzer.Analyze(c.Request.Context(), usecase.AnalyzeInput{Chat: chat, RequestID: corrID})
	if err != nil {
		status, resp := transport.AnalyzeError(s.logger, corrID, err, s.exposeRaw)
		c.JSON(status, resp)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", out.Result)
}

// normalize reshapes a stored model response. Bodies that are not JSON yield
// the default dashboard.
func (s *Server) normalize(c *gin.Context) {
	body, ok := s.readBody(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, normalize.Normalize(body))
}

// readBody reads the capped request body and writes the error response
// itself when it returns false.
func (s *Server) readBody(c *gin.Context) ([]byte, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxBodyBytes)
	body, err := io.ReadAll(c.Request.Body)
	if err == nil {
		return body, true
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		c.JSON(http.StatusRequestEntityTooLarge, transport.ErrorResponse{Error: transport.MsgTooLarge})
		return nil, false
	}
	s.logger.Warn("read request body failed",
		zap.String("correlation_id", c.GetString(correlationKey)),
		zap.Error(err),
	)
	c.JSON(http.StatusBadRequest, transport.ErrorResponse{Error: transport.MsgChatRequired})
	return nil, false
}

func (s *Server) correlation() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := transport.CorrelationID(c.GetHeader(transport.CorrelationHeader))
		c.Set(correlationKey, id)
		c.Header(transport.CorrelationHeader, id)
		c.Next()
	}
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("request",
			zap.String("correlation_id", c.GetString(correlationKey)),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	}
}

func (s *Server) recoverPanic(c *gin.Context, recovered any) {
	s.logger.Error("panic in handler",
		zap.String("correlation_id", c.GetString(correlationKey)),
		zap.Any("panic", recovered),
		zap.Stack("stack"),
	)
	c.AbortWithStatusJSON(http.StatusInternalServerError, transport.ErrorResponse{Error: transport.MsgInternal})
}

// Run serves on addr until ctx is canceled, then drains in-flight requests
// for at most shutdownTimeout.
func (s *Server) Run(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server: listen: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("server shutting down", zap.Duration("grace", shutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}
