package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func envMap(m map[string]string) func(string) string {
	return func(key string) string { return m[key] }
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(envMap(nil))
	require.NoError(t, err)
	require.Equal(t, Config{
		Port:            5000,
		Provider:        ProviderGemini,
		MaxBodyBytes:    1 << 20,
		ExposeRawOutput: true,
		LogLevel:        zapcore.InfoLevel,
		LogFormat:       FormatJSON,
		ShutdownTimeout: 10 * time.Second,
	}, cfg)
	require.Equal(t, ":5000", cfg.Addr())
	require.False(t, cfg.NeedsParamStore())
}

func TestLoad_AllValues(t *testing.T) {
	cfg, err := Load(envMap(map[string]string{
		"PORT":              "8080",
		"LLM_PROVIDER":      " OpenAI ",
		"OPENAI_API_KEY":    "sk-1",
		"GEMINI_API_KEY":    "gm-1",
		"LLM_MODEL":         "gpt-4o",
		"LLM_BASE_URL":      "http://localhost:9999/v1",
		"LLM_TIMEOUT":       "45s",
		"PARAM_PREFIX":      "/talksense",
		"AUDIT_TABLE":       "talksense-audit",
		"MAX_BODY_BYTES":    "2048",
		"EXPOSE_RAW_OUTPUT": "false",
		"LOG_LEVEL":         "debug",
		"LOG_FORMAT":        "console",
		"SHUTDOWN_TIMEOUT":  "3",
	}))
	require.NoError(t, err)
	require.Equal(t, 8080, cfg.Port)
	require.Equal(t, ProviderOpenAI, cfg.Provider)
	require.Equal(t, "sk-1", cfg.APIKey)
	require.Equal(t, "gpt-4o", cfg.Model)
	require.Equal(t, "http://localhost:9999/v1", cfg.BaseURL)
	require.Equal(t, 45*time.Second, cfg.LLMTimeout)
	require.Equal(t, "/talksense", cfg.ParamPrefix)
	require.Equal(t, "talksense-audit", cfg.AuditTable)
	require.Equal(t, int64(2048), cfg.MaxBodyBytes)
	require.False(t, cfg.ExposeRawOutput)
	require.Equal(t, zapcore.DebugLevel, cfg.LogLevel)
	require.Equal(t, FormatConsole, cfg.LogFormat)
	require.Equal(t, 3*time.Second, cfg.ShutdownTimeout)
	require.False(t, cfg.NeedsParamStore())
}

func TestLoad_ProviderSelectsKey(t *testing.T) {
	cfg, err := Load(envMap(map[string]string{"GEMINI_API_KEY": "gm-1", "OPENAI_API_KEY": "sk-1"}))
	require.NoError(t, err)
	require.Equal(t, "gm-1", cfg.APIKey)
}

func TestLoad_NeedsParamStore(t *testing.T) {
	cfg, err := Load(envMap(map[string]string{"PARAM_PREFIX": "/talksense"}))
	require.NoError(t, err)
	require.True(t, cfg.NeedsParamStore())
}

func TestLoad_InvalidValues(t *testing.T) {
	cases := map[string]string{
		"PORT":              "abc",
		"MAX_BODY_BYTES":    "0",
		"LLM_PROVIDER":      "claude",
		"LLM_TIMEOUT":       "soon",
		"SHUTDOWN_TIMEOUT":  "-5s",
		"EXPOSE_RAW_OUTPUT": "maybe",
		"LOG_LEVEL":         "loud",
		"LOG_FORMAT":        "xml",
	}
	for key, val := range cases {
		t.Run(key, func(t *testing.T) {
			_, err := Load(envMap(map[string]string{key: val}))
			require.Error(t, err)
			require.Contains(t, err.Error(), key)
		})
	}

	_, err := Load(envMap(map[string]string{"PORT": "70000"}))
	require.ErrorContains(t, err, "out of range")
}

func TestLoad_ReportsAllErrors(t *testing.T) {
	_, err := Load(envMap(map[string]string{"PORT": "x", "LOG_FORMAT": "xml"}))
	require.Error(t, err)
	require.Contains(t, err.Error(), "PORT")
	require.Contains(t, err.Error(), "LOG_FORMAT")
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("TALKSENSE_TEST_A=from-env\nTALKSENSE_TEST_B=from-env\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env.local"), []byte("TALKSENSE_TEST_B=from-local\n"), 0o600))
	t.Chdir(dir)
	t.Setenv("TALKSENSE_TEST_A", "")
	t.Setenv("TALKSENSE_TEST_B", "")
	require.NoError(t, os.Unsetenv("TALKSENSE_TEST_A"))
	require.NoError(t, os.Unsetenv("TALKSENSE_TEST_B"))

	require.NoError(t, LoadDotEnv(envMap(nil)))
	require.Equal(t, "from-env", os.Getenv("TALKSENSE_TEST_A"))
	require.Equal(t, "from-local", os.Getenv("TALKSENSE_TEST_B"))
}

func TestLoadDotEnv_Disabled(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("TALKSENSE_TEST_C=set\n"), 0o600))
	t.Chdir(dir)
	t.Setenv("TALKSENSE_TEST_C", "")
	require.NoError(t, os.Unsetenv("TALKSENSE_TEST_C"))

	require.NoError(t, LoadDotEnv(envMap(map[string]string{"DOTENV": "off"})))
	_, ok := os.LookupEnv("TALKSENSE_TEST_C")
	require.False(t, ok)
}

func TestLoadDotEnv_NoFiles(t *testing.T) {
	t.Chdir(t.TempDir())
	require.NoError(t, LoadDotEnv(envMap(nil)))
}
