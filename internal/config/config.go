// Package config handles configuration loading and management for Baton.
// It supports XDG config paths, project-level overrides, and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// DefaultWorkspaceDir is the project-local directory Baton keeps its
// working files under: session records, cancel signals, and debug logs.
const DefaultWorkspaceDir = ".baton"

// DefaultModel is the model used when anthropic.model is not set.
const DefaultModel = "claude-sonnet-4-20250514"

// Config holds all configuration for Baton.
type Config struct {
	Anthropic AnthropicConfig `mapstructure:"anthropic"`
	Session   SessionConfig   `mapstructure:"session"`
	Context   ContextConfig   `mapstructure:"context"`
	Timeouts  TimeoutsConfig  `mapstructure:"timeouts"`
	TUI       TUIConfig       `mapstructure:"tui"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
	// UseBedrock routes requests through AWS Bedrock instead of the
	// Anthropic API directly.
	UseBedrock bool   `mapstructure:"use_bedrock"`
	AWSRegion  string `mapstructure:"aws_region"`
	AWSProfile string `mapstructure:"aws_profile"`
}

// SessionConfig holds session record persistence settings.
type SessionConfig struct {
	// Dir is the directory session record files are written to.
	Dir string `mapstructure:"dir"`
}

// ContextConfig holds compressed-context settings.
type ContextConfig struct {
	// SummaryChars is the number of leading characters of each step
	// output carried into the compressed context.
	SummaryChars int `mapstructure:"summary_chars"`
}

// TimeoutsConfig holds per-call timeout settings.
type TimeoutsConfig struct {
	Step      time.Duration `mapstructure:"step"`
	Synthesis time.Duration `mapstructure:"synthesis"`
}

// TUIConfig holds TUI display settings.
type TUIConfig struct {
	RefreshRate time.Duration `mapstructure:"refresh_rate"`
}

// Load loads configuration from XDG paths, project overrides, and environment variables.
// Precedence (highest to lowest):
// 1. Environment variables (ANTHROPIC_API_KEY)
// 2. Project config (.baton.yaml in current directory or parent)
// 3. User config (~/.config/baton/config.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	userConfigDir := getUserConfigDir()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(userConfigDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	// Project config takes precedence over the user config.
	projectConfig := findProjectConfig()
	if projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err == nil {
			if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
				return nil, fmt.Errorf("merging project config: %w", err)
			}
		}
	}

	// Environment variable overrides
	v.AutomaticEnv()
	v.SetEnvPrefix("")
	v.BindEnv("anthropic.api_key", "ANTHROPIC_API_KEY")

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	// Expand ${VAR} references
	cfg.Anthropic.APIKey = expandEnv(cfg.Anthropic.APIKey)

	return cfg, nil
}

// LoadFromPath loads configuration from a specific path (for testing).
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Anthropic.APIKey = expandEnv(cfg.Anthropic.APIKey)

	return cfg, nil
}

// Save writes the current configuration to the user config file.
func Save(cfg *Config) error {
	userConfigDir := getUserConfigDir()
	if err := os.MkdirAll(userConfigDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	configPath := filepath.Join(userConfigDir, "config.yaml")

	v := viper.New()
	v.SetConfigFile(configPath)

	v.Set("anthropic.api_key", cfg.Anthropic.APIKey)
	v.Set("anthropic.model", cfg.Anthropic.Model)
	v.Set("anthropic.use_bedrock", cfg.Anthropic.UseBedrock)
	v.Set("anthropic.aws_region", cfg.Anthropic.AWSRegion)
	v.Set("anthropic.aws_profile", cfg.Anthropic.AWSProfile)
	v.Set("session.dir", cfg.Session.Dir)
	v.Set("context.summary_chars", cfg.Context.SummaryChars)
	v.Set("timeouts.step", cfg.Timeouts.Step.String())
	v.Set("timeouts.synthesis", cfg.Timeouts.Synthesis.String())
	v.Set("tui.refresh_rate", cfg.TUI.RefreshRate.String())

	return v.WriteConfig()
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// GetProjectConfigPath returns the path to the project config file if it exists.
func GetProjectConfigPath() string {
	return findProjectConfig()
}

// SignalsDir returns the directory cancel signals are written to.
func SignalsDir() string {
	return filepath.Join(DefaultWorkspaceDir, "signals")
}

// LogsDir returns the directory debug logs are written to.
func LogsDir() string {
	return filepath.Join(DefaultWorkspaceDir, "logs")
}

// AgentsPath returns the project-local agent roster file.
func AgentsPath() string {
	return filepath.Join(DefaultWorkspaceDir, "agents.yaml")
}

// setDefaults configures default values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("anthropic.api_key", "")
	v.SetDefault("anthropic.model", DefaultModel)
	v.SetDefault("anthropic.use_bedrock", false)
	v.SetDefault("anthropic.aws_region", "")
	v.SetDefault("anthropic.aws_profile", "")

	v.SetDefault("session.dir", filepath.Join(DefaultWorkspaceDir, "sessions"))

	v.SetDefault("context.summary_chars", 100)

	v.SetDefault("timeouts.step", "2m")
	v.SetDefault("timeouts.synthesis", "2m")

	v.SetDefault("tui.refresh_rate", "100ms")
}

// getUserConfigDir returns the XDG config directory for Baton.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "baton")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "baton")
	}
	return filepath.Join(home, ".config", "baton")
}

// findProjectConfig searches for .baton.yaml in the current directory and parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, ".baton.yaml")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}

	return ""
}

// expandEnv expands ${VAR} references in a string.
func expandEnv(s string) string {
	return os.ExpandEnv(s)
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Anthropic: AnthropicConfig{
			APIKey: "",
			Model:  DefaultModel,
		},
		Session: SessionConfig{
			Dir: filepath.Join(DefaultWorkspaceDir, "sessions"),
		},
		Context: ContextConfig{
			SummaryChars: 100,
		},
		Timeouts: TimeoutsConfig{
			Step:      2 * time.Minute,
			Synthesis: 2 * time.Minute,
		},
		TUI: TUIConfig{
			RefreshRate: 100 * time.Millisecond,
		},
	}
}
