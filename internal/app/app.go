// Package app wires configuration into a ready analyze service. Both binaries
// share it.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"
	"go.uber.org/zap"

	"talksense/internal/config"
	"talksense/internal/integrations/gemini"
	"talksense/internal/integrations/openai"
	"talksense/internal/integrations/paramstore"
	"talksense/internal/repository"
	"talksense/internal/usecase"
)

// ModelClient is a completion client that knows which model it calls.
type ModelClient interface {
	usecase.Completer
	Model() string
}

// awsLoader loads the shared AWS config at most once.
type awsLoader struct {
	once sync.Once
	cfg  aws.Config
	err  error
}

func (l *awsLoader) load(ctx context.Context) (aws.Config, error) {
	l.once.Do(func() {
		l.cfg, l.err = awsconfig.LoadDefaultConfig(ctx)
		if l.err != nil {
			l.err = fmt.Errorf("app: load AWS config: %w", l.err)
		}
	})
	return l.cfg, l.err
}

// NewAnalyzeService resolves the API key, builds the completion client and the
// optional audit recorder, and returns the analyze service.
func NewAnalyzeService(ctx context.Context, cfg config.Config, logger *zap.Logger) (*usecase.AnalyzeService, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	loader := &awsLoader{}

	apiKey := cfg.APIKey
	if cfg.NeedsParamStore() {
		awsCfg, err := loader.load(ctx)
		if err != nil {
			return nil, err
		}
		ps, err := paramstore.New(awsssm.NewFromConfig(awsCfg))
		if err != nil {
			return nil, fmt.Errorf("app: create SSM client: %w", err)
		}
		name := paramstore.TokenParameterName(cfg.ParamPrefix, cfg.Provider)
		apiKey, err = paramstore.FetchToken(ctx, ps, name)
		if err != nil {
			return nil, fmt.Errorf("app: resolve API key: %w", err)
		}
		logger.Info("API key loaded from parameter store", zap.String("parameter", name))
	}

	llm, err := NewModelClient(ctx, cfg, apiKey)
	if err != nil {
		return nil, err
	}

	var audit usecase.AuditRecorder
	if cfg.AuditTable != "" {
		awsCfg, err := loader.load(ctx)
		if err != nil {
			return nil, err
		}
		recorder, err := repository.New(awsdynamodb.NewFromConfig(awsCfg), cfg.AuditTable)
		if err != nil {
			return nil, fmt.Errorf("app: create audit recorder: %w", err)
		}
		audit = recorder
	}

	svc, err := usecase.NewAnalyzeService(llm, usecase.Options{
		Provider:        cfg.Provider,
		Model:           llm.Model(),
		Timeout:         cfg.LLMTimeout,
		ExposeRawOutput: cfg.ExposeRawOutput,
		Audit:           audit,
		Logger:          logger,
	})
	if err != nil {
		return nil, fmt.Errorf("app: create analyze service: %w", err)
	}
	logger.Info("analyze service ready",
		zap.String("provider", cfg.Provider),
		zap.String("model", llm.Model()),
		zap.Bool("audit", audit != nil),
	)
	return svc, nil
}

// NewModelClient builds the completion client for cfg.Provider.
func NewModelClient(ctx context.Context, cfg config.Config, apiKey string) (ModelClient, error) {
	if apiKey == "" {
		return nil, errors.New("app: no API key configured: set GEMINI_API_KEY / OPENAI_API_KEY or PARAM_PREFIX")
	}
	switch cfg.Provider {
	case config.ProviderGemini, "":
		c, err := gemini.NewClient(ctx, apiKey, gemini.WithModel(cfg.Model), gemini.WithBaseURL(cfg.BaseURL))
		if err != nil {
			return nil, fmt.Errorf("app: create Gemini client: %w", err)
		}
		return c, nil
	case config.ProviderOpenAI:
		c, err := openai.NewClient(apiKey, openai.WithModel(cfg.Model), openai.WithBaseURL(cfg.BaseURL))
		if err != nil {
			return nil, fmt.Errorf("app: create OpenAI client: %w", err)
		}
		return c, nil
	default:
		return nil, fmt.Errorf("app: unknown provider %q", cfg.Provider)
	}
}
