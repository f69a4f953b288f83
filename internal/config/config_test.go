package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	trequire "github.com/stretchr/testify/require"
)

var allKeys = []string{
	"AZURE_OPENAI_ENDPOINT", "AZURE_OPENAI_API_KEY", "AZURE_OPENAI_API_VERSION",
	"MODEL_DEPLOYMENT_NAME", "AZURE_OPENAI_MAX_COMPLETION_TOKENS",
	"AZURE_AI_PROJECT", "FOUNDRY_API_VERSION",
	"TRIAGE_PORT", "LOG_LEVEL", "TRIAGE_API_TOKEN", "DATABASE_URL",
	"NATS_URL", "NATS_TOKEN", "SLACK_BOT_TOKEN", "SLACK_ALERTS_CHANNEL",
	"TRIAGE_BATCH_STATE",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range allKeys {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg := Load()

	assert.Equal(t, 8760, cfg.Port)
	assert.Equal(t, "nats://hermes:4222", cfg.NatsURL)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "v1", cfg.FoundryAPIVersion)
	assert.Empty(t, cfg.APIToken)
	assert.Zero(t, cfg.MaxCompletionTokens, "no completion cap by default")
	assert.True(t, strings.HasSuffix(cfg.BatchState, filepath.Join(".triage", "batch-state.json")), cfg.BatchState)
	assert.False(t, strings.HasPrefix(cfg.BatchState, "~"), "batch state path should be expanded")
}

func TestLoad_CustomValues(t *testing.T) {
	t.Setenv("AZURE_OPENAI_ENDPOINT", "https://helpdesk.openai.azure.com")
	t.Setenv("AZURE_OPENAI_API_KEY", "key")
	t.Setenv("AZURE_OPENAI_API_VERSION", "2024-10-21")
	t.Setenv("MODEL_DEPLOYMENT_NAME", "gpt-4o")
	t.Setenv("AZURE_OPENAI_MAX_COMPLETION_TOKENS", "2048")
	t.Setenv("AZURE_AI_PROJECT", "https://res.services.ai.azure.com/api/projects/helpdesk")
	t.Setenv("TRIAGE_PORT", "9999")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("SLACK_ALERTS_CHANNEL", "C12345")
	t.Setenv("TRIAGE_BATCH_STATE", "/tmp/state.json")

	cfg := Load()

	assert.Equal(t, "https://helpdesk.openai.azure.com", cfg.OpenAIEndpoint)
	assert.Equal(t, "gpt-4o", cfg.ModelDeployment)
	assert.Equal(t, 2048, cfg.MaxCompletionTokens)
	assert.Equal(t, "https://res.services.ai.azure.com/api/projects/helpdesk", cfg.ProjectEndpoint)
	assert.Equal(t, 9999, cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "C12345", cfg.SlackChannel)
	assert.Equal(t, "/tmp/state.json", cfg.BatchState)
}

func TestLoad_InvalidPort(t *testing.T) {
	t.Setenv("TRIAGE_PORT", "notanumber")

	assert.Equal(t, 8760, Load().Port)
}

func TestRequireExtraction(t *testing.T) {
	clearEnv(t)
	t.Setenv("AZURE_OPENAI_ENDPOINT", "https://x")
	t.Setenv("AZURE_OPENAI_API_VERSION", "2024-10-21")

	err := Load().RequireExtraction()
	trequire.ErrorIs(t, err, ErrMissingEnv)
	assert.True(t, strings.HasSuffix(err.Error(), ": AZURE_OPENAI_API_KEY, MODEL_DEPLOYMENT_NAME"), err.Error())

	t.Setenv("AZURE_OPENAI_API_KEY", "k")
	t.Setenv("MODEL_DEPLOYMENT_NAME", "d")
	assert.NoError(t, Load().RequireExtraction())
}

func TestRequireThreadStore(t *testing.T) {
	clearEnv(t)
	assert.ErrorIs(t, Load().RequireThreadStore(), ErrMissingEnv)

	t.Setenv("AZURE_AI_PROJECT", "https://p")
	assert.NoError(t, Load().RequireThreadStore())
}

func TestRequireService(t *testing.T) {
	clearEnv(t)

	err := Load().RequireService()
	trequire.ErrorIs(t, err, ErrMissingEnv)
	for _, name := range []string{"AZURE_AI_PROJECT", "DATABASE_URL", "MODEL_DEPLOYMENT_NAME"} {
		assert.Contains(t, err.Error(), name)
	}
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), ".env")
	trequire.NoError(t, os.WriteFile(path, []byte("MODEL_DEPLOYMENT_NAME=from-file\nLOG_LEVEL=warn\n"), 0o600))
	t.Setenv("LOG_LEVEL", "error")
	// godotenv skips variables that are present, even when empty.
	os.Unsetenv("MODEL_DEPLOYMENT_NAME")

	trequire.NoError(t, LoadDotEnv(path))

	cfg := Load()
	assert.Equal(t, "from-file", cfg.ModelDeployment)
	assert.Equal(t, "error", cfg.LogLevel, "existing env wins over .env")
}

func TestLoadDotEnv_MissingFile(t *testing.T) {
	assert.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "absent.env")))
}
