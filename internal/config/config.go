package config

import (
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// ErrMissingEnv reports required environment variables that are unset.
var ErrMissingEnv = errors.New("missing required environment variables")

type Config struct {
	// Completion service.
	OpenAIEndpoint      string
	OpenAIAPIKey        string
	OpenAIAPIVersion    string
	ModelDeployment     string
	MaxCompletionTokens int // 0 sends no limit

	// Conversation store.
	ProjectEndpoint   string
	FoundryAPIVersion string

	Port          int
	LogLevel      string
	APIToken      string
	DatabaseURL   string
	NatsURL       string
	NatsToken     string
	SlackBotToken string
	SlackChannel  string
	BatchState    string
}

func Load() Config {
	return Config{
		OpenAIEndpoint:      envStr("AZURE_OPENAI_ENDPOINT", ""),
		OpenAIAPIKey:        envStr("AZURE_OPENAI_API_KEY", ""),
		OpenAIAPIVersion:    envStr("AZURE_OPENAI_API_VERSION", ""),
		ModelDeployment:     envStr("MODEL_DEPLOYMENT_NAME", ""),
		MaxCompletionTokens: envInt("AZURE_OPENAI_MAX_COMPLETION_TOKENS", 0),
		ProjectEndpoint:     envStr("AZURE_AI_PROJECT", ""),
		FoundryAPIVersion:   envStr("FOUNDRY_API_VERSION", "v1"),
		Port:                envInt("TRIAGE_PORT", 8760),
		LogLevel:            envStr("LOG_LEVEL", "info"),
		APIToken:            envStr("TRIAGE_API_TOKEN", ""),
		DatabaseURL:         envStr("DATABASE_URL", ""),
		NatsURL:             envStr("NATS_URL", "nats://hermes:4222"),
		NatsToken:           envStr("NATS_TOKEN", ""),
		SlackBotToken:       envStr("SLACK_BOT_TOKEN", ""),
		SlackChannel:        envStr("SLACK_ALERTS_CHANNEL", ""),
		BatchState:          expandHome(envStr("TRIAGE_BATCH_STATE", "~/.triage/batch-state.json")),
	}
}

// LoadDotEnv reads variables from the given .env files (default ./.env)
// without overriding ones already set. A missing file is not an error.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// RequireExtraction checks the completion service settings.
func (c Config) RequireExtraction() error {
	return require(c.extractionVars())
}

// RequireThreadStore checks the conversation store settings.
func (c Config) RequireThreadStore() error {
	return require(c.threadStoreVars())
}

// RequireService checks everything serve mode needs.
func (c Config) RequireService() error {
	vars := c.extractionVars()
	maps.Copy(vars, c.threadStoreVars())
	vars["DATABASE_URL"] = c.DatabaseURL
	return require(vars)
}

func (c Config) extractionVars() map[string]string {
	return map[string]string{
		"AZURE_OPENAI_ENDPOINT":    c.OpenAIEndpoint,
		"AZURE_OPENAI_API_KEY":     c.OpenAIAPIKey,
		"AZURE_OPENAI_API_VERSION": c.OpenAIAPIVersion,
		"MODEL_DEPLOYMENT_NAME":    c.ModelDeployment,
	}
}

func (c Config) threadStoreVars() map[string]string {
	return map[string]string{"AZURE_AI_PROJECT": c.ProjectEndpoint}
}

func require(vars map[string]string) error {
	var missing []string
	for k, v := range vars {
		if v == "" {
			missing = append(missing, k)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	slices.Sort(missing)
	return fmt.Errorf("%w: %s", ErrMissingEnv, strings.Join(missing, ", "))
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
