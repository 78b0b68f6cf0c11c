// Package config provides configuration loading and structs for the lessonforge server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug      bool             `yaml:"debug"`
	Server     ServerConfig     `yaml:"server"`
	Storage    StorageConfig    `yaml:"storage"`
	Content    ContentConfig    `yaml:"content"`
	Completion CompletionConfig `yaml:"completion"`
	Prompt     PromptConfig     `yaml:"prompt"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	MaxUploadMB    int      `yaml:"max_upload_mb"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// MaxUploadBytes returns the multipart body limit in bytes.
func (s *ServerConfig) MaxUploadBytes() int64 {
	return int64(s.MaxUploadMB) * 1024 * 1024
}

// StorageConfig selects where lesson records are persisted.
type StorageConfig struct {
	Driver       string `yaml:"driver"` // sqlite or postgres
	DatabasePath string `yaml:"database_path"`
	DSN          string `yaml:"dsn"`
}

// ContentConfig selects where uploads and rendered artifacts are written.
type ContentConfig struct {
	Backend       string `yaml:"backend"` // local or gcs
	Directory     string `yaml:"directory"`
	StaticPrefix  string `yaml:"static_prefix"`
	Bucket        string `yaml:"bucket"`
	PublicBaseURL string `yaml:"public_base_url"`
}

// CompletionConfig holds the text-generation service settings.
type CompletionConfig struct {
	Provider       string  `yaml:"provider"` // openai or mock
	Model          string  `yaml:"model"`
	APIKey         string  `yaml:"api_key"`
	BaseURL        string  `yaml:"base_url"`
	Temperature    float64 `yaml:"temperature"`
	TimeoutSeconds int     `yaml:"timeout_seconds"`
	MaxAttempts    int     `yaml:"max_attempts"`
}

// PromptConfig holds prompt composition limits.
type PromptConfig struct {
	MaxChars int `yaml:"max_chars"`
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)
	if cfg.Completion.APIKey == "" {
		cfg.Completion.APIKey = os.Getenv("OPENAI_API_KEY")
	}

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Content.Directory = expandPath(cfg.Content.Directory, configDir)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks enumerated settings.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "sqlite":
	case "postgres":
		if c.Storage.DSN == "" {
			return fmt.Errorf("storage.dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown storage.driver %q", c.Storage.Driver)
	}
	switch c.Content.Backend {
	case "local":
	case "gcs":
		if c.Content.Bucket == "" {
			return fmt.Errorf("content.bucket is required for the gcs backend")
		}
	default:
		return fmt.Errorf("unknown content.backend %q", c.Content.Backend)
	}
	switch c.Completion.Provider {
	case "openai", "mock":
	default:
		return fmt.Errorf("unknown completion.provider %q", c.Completion.Provider)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
