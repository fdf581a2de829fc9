// Package config reads process configuration once at startup.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"

	FormatJSON    = "json"
	FormatConsole = "console"
)

// DotEnvFiles are loaded in order. Values already present in the environment
// win, so .env.local overrides .env.
var DotEnvFiles = []string{".env.local", ".env"}

type Config struct {
	Port            int
	Provider        string
	APIKey          string
	Model           string
	BaseURL         string
	LLMTimeout      time.Duration
	ParamPrefix     string
	AuditTable      string
	MaxBodyBytes    int64
	ExposeRawOutput bool
	LogLevel        zapcore.Level
	LogFormat       string
	ShutdownTimeout time.Duration
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return ":" + strconv.Itoa(c.Port)
}

// NeedsParamStore reports whether the API key has to be read from SSM.
func (c Config) NeedsParamStore() bool {
	return c.APIKey == "" && c.ParamPrefix != ""
}

// Load builds a Config from getenv. Invalid values are reported together.
func Load(getenv func(string) string) (Config, error) {
	var errs []error
	get := func(key string) string {
		return strings.TrimSpace(getenv(key))
	}

	cfg := Config{
		Provider:    strings.ToLower(get("LLM_PROVIDER")),
		Model:       get("LLM_MODEL"),
		BaseURL:     get("LLM_BASE_URL"),
		ParamPrefix: get("PARAM_PREFIX"),
		AuditTable:  get("AUDIT_TABLE"),
		LogFormat:   strings.ToLower(get("LOG_FORMAT")),
	}

	switch cfg.Provider {
	case "":
		cfg.Provider = ProviderGemini
	case ProviderGemini, ProviderOpenAI:
	default:
		errs = append(errs, fmt.Errorf("LLM_PROVIDER: unknown provider %q", cfg.Provider))
	}
	switch cfg.Provider {
	case ProviderGemini:
		cfg.APIKey = get("GEMINI_API_KEY")
	case ProviderOpenAI:
		cfg.APIKey = get("OPENAI_API_KEY")
	}

	switch cfg.LogFormat {
	case "":
		cfg.LogFormat = FormatJSON
	case FormatJSON, FormatConsole:
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT: unknown format %q", cfg.LogFormat))
	}

	var err error
	if cfg.Port, err = envInt(get, "PORT", 5000); err != nil {
		errs = append(errs, err)
	} else if cfg.Port < 1 || cfg.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT: %d out of range", cfg.Port))
	}
	maxBody, err := envInt(get, "MAX_BODY_BYTES", 1<<20)
	if err != nil {
		errs = append(errs, err)
	} else if maxBody <= 0 {
		errs = append(errs, fmt.Errorf("MAX_BODY_BYTES: must be positive, got %d", maxBody))
	}
	cfg.MaxBodyBytes = int64(maxBody)

	if cfg.LLMTimeout, err = envDuration(get, "LLM_TIMEOUT", 0); err != nil {
		errs = append(errs, err)
	}
	if cfg.ShutdownTimeout, err = envDuration(get, "SHUTDOWN_TIMEOUT", 10*time.Second); err != nil {
		errs = append(errs, err)
	}
	if cfg.ExposeRawOutput, err = envBool(get, "EXPOSE_RAW_OUTPUT", true); err != nil {
		errs = append(errs, err)
	}

	cfg.LogLevel = zapcore.InfoLevel
	if v := get("LOG_LEVEL"); v != "" {
		lvl, perr := zapcore.ParseLevel(v)
		if perr != nil {
			errs = append(errs, fmt.Errorf("LOG_LEVEL: %w", perr))
		}
		cfg.LogLevel = lvl
	}

	if len(errs) > 0 {
		return Config{}, fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return cfg, nil
}

// LoadDotEnv loads DotEnvFiles that exist unless DOTENV disables it.
func LoadDotEnv(getenv func(string) string) error {
	switch strings.ToLower(strings.TrimSpace(getenv("DOTENV"))) {
	case "0", "false", "off", "no":
		return nil
	}
	for _, name := range DotEnvFiles {
		if _, err := os.Stat(name); err != nil {
			continue
		}
		if err := godotenv.Load(name); err != nil {
			return fmt.Errorf("config: load %s: %w", name, err)
		}
	}
	return nil
}

func envInt(get func(string) string, key string, def int) (int, error) {
	v := get(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q", key, v)
	}
	return n, nil
}

// envDuration accepts Go durations ("30s") and bare integers as seconds.
func envDuration(get func(string) string, key string, def time.Duration) (time.Duration, error) {
	v := get(key)
	if v == "" {
		return def, nil
	}
	if n, err := strconv.Atoi(v); err == nil {
		if n < 0 {
			return 0, fmt.Errorf("%s: must not be negative", key)
		}
		return time.Duration(n) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q", key, v)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: must not be negative", key)
	}
	return d, nil
}

func envBool(get func(string) string, key string, def bool) (bool, error) {
	v := get(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: invalid boolean %q", key, v)
	}
	return b, nil
}
