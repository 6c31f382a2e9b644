package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	Server      ServerConfig    `yaml:"server"`
	Auth        AuthConfig      `yaml:"auth"`
	RateLimit   RateLimitConfig `yaml:"rate_limit"`
	GitHost     GitHostConfig   `yaml:"githost"`
	Generate    GenerateConfig  `yaml:"generate"`
	Development bool            `yaml:"development"`
}

// ServerConfig holds the HTTP listener settings
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// AuthConfig maps bearer tokens to principal identifiers
type AuthConfig struct {
	Tokens map[string]string `yaml:"tokens"` // token -> principal ID
}

// RateLimitConfig holds the fixed-window quota settings
type RateLimitConfig struct {
	Limit          int           `yaml:"limit"`
	Window         time.Duration `yaml:"window"`
	MaxTrackedKeys int           `yaml:"max_tracked_keys"`
	Backend        string        `yaml:"backend"` // memory, redis
	Redis          RedisConfig   `yaml:"redis"`
}

// RedisConfig holds connection settings for the redis rate-limit backend
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database int    `yaml:"database"`
}

// GitHostConfig holds source-control API settings
type GitHostConfig struct {
	BaseURL string        `yaml:"base_url"`
	Token   string        `yaml:"token"`
	Timeout time.Duration `yaml:"timeout"`
}

// GenerateConfig holds generation-provider settings
type GenerateConfig struct {
	Model      string        `yaml:"model"`
	APIKey     string        `yaml:"api_key"`
	BaseURL    string        `yaml:"base_url"` // Custom API endpoint (for Zhipu AI, etc.)
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		RateLimit: RateLimitConfig{
			Limit:          10,
			Window:         time.Minute,
			MaxTrackedKeys: 10000,
			Backend:        "memory",
		},
		GitHost: GitHostConfig{
			Timeout: 15 * time.Second,
		},
		Generate: GenerateConfig{
			Model:      "gpt-4o-mini",
			Timeout:    45 * time.Second,
			MaxRetries: 2,
		},
	}
}

// Load reads configuration from file and merges with defaults
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			cfg.applyEnv()
			return cfg, nil
		}
		path = filepath.Join(homeDir, ".config", "commitcast", "config.yaml")
	}

	path = expandPath(path)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnv()
			return cfg, nil // Use defaults if file doesn't exist
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.applyEnv()
	return cfg, nil
}

// applyEnv fills secrets from the environment when the file left them empty
func (c *Config) applyEnv() {
	if c.GitHost.Token == "" {
		c.GitHost.Token = os.Getenv("GITHUB_TOKEN")
	}
	if c.Generate.APIKey == "" {
		if key := os.Getenv("ZHIPU_API_KEY"); key != "" {
			c.Generate.APIKey = key
		} else if key := os.Getenv("OPENAI_API_KEY"); key != "" {
			c.Generate.APIKey = key
		}
	}
	if len(c.Auth.Tokens) == 0 {
		if tok := os.Getenv("COMMITCAST_API_TOKEN"); tok != "" {
			c.Auth.Tokens = map[string]string{tok: "default"}
		}
	}
}

// expandPath expands ~ to home directory
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(homeDir, path[2:])
		}
	}
	return path
}

// Validate checks if the configuration is valid. The generation API key is
// deliberately not required here: its absence is a per-request
// ConfigurationError, not a startup failure.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.RateLimit.Limit <= 0 {
		return fmt.Errorf("rate_limit.limit must be positive")
	}
	if c.RateLimit.Window <= 0 {
		return fmt.Errorf("rate_limit.window must be positive")
	}
	switch c.RateLimit.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("rate_limit.backend must be memory or redis, got %q", c.RateLimit.Backend)
	}
	if len(c.Auth.Tokens) == 0 {
		return fmt.Errorf("auth.tokens is required (or set COMMITCAST_API_TOKEN)")
	}
	return nil
}
