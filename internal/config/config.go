// Package config handles configuration loading for matchday.
// It supports XDG config paths, project-level overrides, and environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/ShayCichocki/matchday/internal/agent"
	"github.com/ShayCichocki/matchday/internal/llm"
	"github.com/ShayCichocki/matchday/internal/store"
)

const (
	appName           = "matchday"
	projectConfigName = ".matchday.yaml"
	envPrefix         = "MATCHDAY"
)

// Config holds all configuration for matchday.
type Config struct {
	LLM      LLMConfig      `mapstructure:"llm"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	Retry    RetryConfig    `mapstructure:"retry"`
	Store    StoreConfig    `mapstructure:"store"`
	Paths    PathsConfig    `mapstructure:"paths"`
	Log      LogConfig      `mapstructure:"log"`

	keySource KeySource
}

// LLMConfig selects and tunes the model backend.
type LLMConfig struct {
	// Provider is anthropic, bedrock or openai.
	Provider      string  `mapstructure:"provider"`
	Model         string  `mapstructure:"model"`
	APIKey        string  `mapstructure:"api_key"`
	BaseURL       string  `mapstructure:"base_url"`
	AWSRegion     string  `mapstructure:"aws_region"`
	AWSProfile    string  `mapstructure:"aws_profile"`
	MaxTokens     int64   `mapstructure:"max_tokens"`
	RatePerSecond float64 `mapstructure:"rate_per_second"`
	Burst         int     `mapstructure:"burst"`
}

// PipelineConfig bounds request handling.
type PipelineConfig struct {
	RequestTimeout    time.Duration `mapstructure:"request_timeout"`
	ClassifierTimeout time.Duration `mapstructure:"classifier_timeout"`
	MaxSubtasks       int           `mapstructure:"max_subtasks"`
}

// RetryConfig is the per-subtask retry policy.
type RetryConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	BaseBackoff time.Duration `mapstructure:"base_backoff"`
	MaxBackoff  time.Duration `mapstructure:"max_backoff"`
}

// StoreConfig picks the sqlite driver.
type StoreConfig struct {
	// Driver is "sqlite" (pure Go) or "sqlite3" (cgo).
	Driver string `mapstructure:"driver"`
}

// PathsConfig locates the files matchday reads and writes.
type PathsConfig struct {
	Matrix   string `mapstructure:"matrix"`
	Shapes   string `mapstructure:"shapes"`
	Database string `mapstructure:"database"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// Load loads configuration from XDG paths, project overrides, and environment variables.
// Precedence (highest to lowest):
// 1. Environment variables (MATCHDAY_*, ANTHROPIC_API_KEY, OPENAI_API_KEY)
// 2. Project config (.matchday.yaml in current directory or parent)
// 3. User config (~/.config/matchday/config.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	v := newViper()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(getUserConfigDir())

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	if projectConfig := findProjectConfig(); projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading project config %s: %w", projectConfig, err)
		}
		if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
			return nil, fmt.Errorf("merging project config: %w", err)
		}
	}

	return decode(v)
}

// LoadFromPath loads configuration from a specific file, with defaults and
// environment overrides applied.
func LoadFromPath(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return decode(v)
}

// Save writes cfg to the user config file. A key that came from the
// provider environment variable is not written.
func Save(cfg *Config) error {
	dir := getUserConfigDir()
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(filepath.Join(dir, "config.yaml"))
	for key, value := range cfg.settings() {
		v.Set(key, value)
	}
	if cfg.keySource == KeySourceEnv {
		v.Set("llm.api_key", "")
	}
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

// Default returns a Config with default values.
func Default() *Config {
	retry := agent.DefaultRetryPolicy()
	return &Config{
		LLM: LLMConfig{
			Provider:  llm.ProviderAnthropic,
			AWSRegion: "us-east-1",
			MaxTokens: 1024,
			Burst:     1,
		},
		Pipeline: PipelineConfig{
			RequestTimeout:    60 * time.Second,
			ClassifierTimeout: 10 * time.Second,
			MaxSubtasks:       5,
		},
		Retry: RetryConfig{
			MaxAttempts: retry.MaxAttempts,
			BaseBackoff: retry.BaseBackoff,
			MaxBackoff:  retry.MaxBackoff,
		},
		Store: StoreConfig{Driver: store.DriverModernc},
		Paths: PathsConfig{
			Database: store.DefaultPath(),
		},
		Log: LogConfig{Level: "info"},
	}
}

// LLMBackend converts the llm section for llm.New.
func (c *Config) LLMBackend() llm.Config {
	return llm.Config{
		Provider:      c.LLM.Provider,
		Model:         c.LLM.Model,
		APIKey:        c.LLM.APIKey,
		BaseURL:       c.LLM.BaseURL,
		AWSRegion:     c.LLM.AWSRegion,
		AWSProfile:    c.LLM.AWSProfile,
		MaxTokens:     c.LLM.MaxTokens,
		RatePerSecond: c.LLM.RatePerSecond,
		Burst:         c.LLM.Burst,
	}
}

// RetryPolicy converts the retry section for the orchestrator.
func (c *Config) RetryPolicy() agent.RetryPolicy {
	return agent.RetryPolicy{
		MaxAttempts: c.Retry.MaxAttempts,
		BaseBackoff: c.Retry.BaseBackoff,
		MaxBackoff:  c.Retry.MaxBackoff,
	}
}

// Validate rejects settings the pipeline cannot run with.
func (c *Config) Validate() error {
	switch strings.ToLower(c.LLM.Provider) {
	case llm.ProviderAnthropic, llm.ProviderBedrock, llm.ProviderOpenAI:
	default:
		return fmt.Errorf("llm.provider: unknown provider %q", c.LLM.Provider)
	}
	switch c.Store.Driver {
	case store.DriverModernc, store.DriverCGO:
	default:
		return fmt.Errorf("store.driver: unknown driver %q", c.Store.Driver)
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry.max_attempts must be at least 1, got %d", c.Retry.MaxAttempts)
	}
	if c.Pipeline.MaxSubtasks < 1 {
		return fmt.Errorf("pipeline.max_subtasks must be at least 1, got %d", c.Pipeline.MaxSubtasks)
	}
	if c.LLM.RatePerSecond < 0 {
		return fmt.Errorf("llm.rate_per_second must not be negative")
	}
	return nil
}

// Settings returns the config as flat dotted keys, the way `matchday config` prints it.
func (c *Config) Settings() map[string]any {
	s := c.settings()
	s["llm.api_key"] = MaskAPIKey(c.LLM.APIKey)
	return s
}

// Get returns one setting by dotted key, masked like Settings.
func (c *Config) Get(key string) (string, error) {
	value, ok := c.Settings()[strings.ToLower(key)]
	if !ok {
		return "", fmt.Errorf("unknown configuration key: %s", key)
	}
	return fmt.Sprint(value), nil
}

// Set assigns one setting by dotted key. The value is decoded the same way
// file values are, so durations and numbers are checked.
func (c *Config) Set(key, value string) error {
	key = strings.ToLower(key)
	current := c.settings()
	if _, ok := current[key]; !ok {
		return fmt.Errorf("unknown configuration key: %s", key)
	}

	v := viper.New()
	for k, val := range current {
		v.Set(k, val)
	}
	v.Set(key, value)

	next := &Config{}
	if err := v.Unmarshal(next); err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	next.keySource = c.keySource
	if key == "llm.api_key" {
		next.keySource = KeySourceConfig
	}
	*c = *next
	return nil
}

func (c *Config) settings() map[string]any {
	return map[string]any{
		"llm.provider":                c.LLM.Provider,
		"llm.model":                   c.LLM.Model,
		"llm.api_key":                 c.LLM.APIKey,
		"llm.base_url":                c.LLM.BaseURL,
		"llm.aws_region":              c.LLM.AWSRegion,
		"llm.aws_profile":             c.LLM.AWSProfile,
		"llm.max_tokens":              c.LLM.MaxTokens,
		"llm.rate_per_second":         c.LLM.RatePerSecond,
		"llm.burst":                   c.LLM.Burst,
		"pipeline.request_timeout":    c.Pipeline.RequestTimeout.String(),
		"pipeline.classifier_timeout": c.Pipeline.ClassifierTimeout.String(),
		"pipeline.max_subtasks":       c.Pipeline.MaxSubtasks,
		"retry.max_attempts":          c.Retry.MaxAttempts,
		"retry.base_backoff":          c.Retry.BaseBackoff.String(),
		"retry.max_backoff":           c.Retry.MaxBackoff.String(),
		"store.driver":                c.Store.Driver,
		"paths.matrix":                c.Paths.Matrix,
		"paths.shapes":                c.Paths.Shapes,
		"paths.database":              c.Paths.Database,
		"log.level":                   c.Log.Level,
		"log.file":                    c.Log.File,
	}
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// setDefaults registers every key so AutomaticEnv can override it.
func setDefaults(v *viper.Viper) {
	for key, value := range Default().settings() {
		v.SetDefault(key, value)
	}
}

func decode(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.keySource = KeySourceNone
	cfg.LLM.APIKey = expandEnv(cfg.LLM.APIKey)
	if cfg.LLM.APIKey != "" {
		cfg.keySource = KeySourceConfig
	} else if key := providerKeyFromEnv(cfg.LLM.Provider); key != "" {
		cfg.LLM.APIKey = key
		cfg.keySource = KeySourceEnv
	}
	cfg.Paths.Matrix = expandPath(cfg.Paths.Matrix)
	cfg.Paths.Shapes = expandPath(cfg.Paths.Shapes)
	cfg.Paths.Database = expandPath(cfg.Paths.Database)
	cfg.Log.File = expandPath(cfg.Log.File)
	return cfg, nil
}

// getUserConfigDir returns the XDG config directory for matchday.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, appName)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", appName)
	}
	return filepath.Join(home, ".config", appName)
}

// findProjectConfig searches for .matchday.yaml in the current directory and parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, projectConfigName)
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

// expandPath expands env references and a leading ~/.
func expandPath(p string) string {
	p = expandEnv(p)
	if strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			p = filepath.Join(home, p[2:])
		}
	}
	return p
}
