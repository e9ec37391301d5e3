// Package config loads the application configuration from YAML, with
// credentials resolved from the environment rather than stored in the file.
package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

var (
	// ErrMissingAPIKey indicates that the AI provider credential is not set.
	ErrMissingAPIKey = errors.New("ai api key not set")

	// ErrMissingDSN indicates that no database connection string is configured.
	ErrMissingDSN = errors.New("database dsn not set")
)

// AIConfig configures the Gemini provider.
type AIConfig struct {
	APIKeyEnv       string  `yaml:"api_key_env"`
	GenerationModel string  `yaml:"generation_model"`
	EmbeddingModel  string  `yaml:"embedding_model"`
	Temperature     float64 `yaml:"temperature"`
	MaxTokens       int     `yaml:"max_tokens"`
	SafetyThreshold string  `yaml:"safety_threshold"`
}

// APIKey resolves the provider credential from the environment.
func (c AIConfig) APIKey() string {
	return os.Getenv(c.APIKeyEnv)
}

// DatabaseConfig configures the PostgreSQL data source.
// DSN takes precedence; DSNEnv names an environment variable fallback.
type DatabaseConfig struct {
	DSN    string `yaml:"dsn"`
	DSNEnv string `yaml:"dsn_env"`
}

// ResolveDSN returns the effective connection string.
func (c DatabaseConfig) ResolveDSN() string {
	if c.DSN != "" {
		return c.DSN
	}
	return os.Getenv(c.DSNEnv)
}

// SessionConfig configures the conversational session.
type SessionConfig struct {
	InstitutionID  string `yaml:"institution_id"`
	TopK           int    `yaml:"top_k"`
	AutoInitialize bool   `yaml:"auto_initialize"`
	TranscriptPath string `yaml:"transcript_path"`
	SessionID      string `yaml:"session_id"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	AI       AIConfig       `yaml:"ai"`
	Database DatabaseConfig `yaml:"database"`
	Session  SessionConfig  `yaml:"session"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultConfig(), nil
		}
		return nil, err
	}

	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

// LoadDefault tries ./rutabot.yaml first, then ~/.config/rutabot/config.yaml.
// If neither exists, it returns defaults without writing a file.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "rutabot.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	return defaultConfig(), "", nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate checks that the credentials needed to run are resolvable.
func (c *AppConfig) Validate() error {
	if c.AI.APIKey() == "" {
		return ErrMissingAPIKey
	}
	if c.Database.ResolveDSN() == "" {
		return ErrMissingDSN
	}
	return nil
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "rutabot", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *AppConfig) {
	if cfg.AI.APIKeyEnv == "" {
		cfg.AI.APIKeyEnv = "GEMINI_API_KEY"
	}
	if cfg.AI.GenerationModel == "" {
		cfg.AI.GenerationModel = "gemini-1.5-flash"
	}
	if cfg.AI.EmbeddingModel == "" {
		cfg.AI.EmbeddingModel = "text-embedding-004"
	}
	if cfg.AI.Temperature == 0 {
		cfg.AI.Temperature = 0.2
	}
	if cfg.AI.MaxTokens == 0 {
		cfg.AI.MaxTokens = 1024
	}
	if cfg.AI.SafetyThreshold == "" {
		cfg.AI.SafetyThreshold = "block_only_high"
	}
	if cfg.Database.DSNEnv == "" {
		cfg.Database.DSNEnv = "DATABASE_URL"
	}
	if cfg.Session.TopK == 0 {
		cfg.Session.TopK = 10
	}
	if cfg.Session.SessionID == "" {
		cfg.Session.SessionID = "default"
	}
}
