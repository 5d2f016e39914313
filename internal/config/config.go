// Package config loads curriculum tool settings from a YAML file with
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultPath is read when no config file is named explicitly.
const DefaultPath = "curriculum.yaml"

// Config holds all configuration for the curriculum tool
type Config struct {
	Content    ContentConfig    `yaml:"content"`
	Validation ValidationConfig `yaml:"validation"`
	Publish    PublishConfig    `yaml:"publish"`
	Notify     NotifyConfig     `yaml:"notify"`
	Log        LogConfig        `yaml:"log"`
}

// ContentConfig says where exercise content comes from. An empty Dir and
// Repo selects the content compiled into the binary.
type ContentConfig struct {
	Dir    string `yaml:"dir"`
	Repo   string `yaml:"repo"`
	Branch string `yaml:"branch"`
	// CacheDir receives the clone when Repo is set.
	CacheDir string `yaml:"cache_dir"`
}

// ValidationConfig holds validation settings
type ValidationConfig struct {
	Strict    bool   `yaml:"strict"`
	ReportDir string `yaml:"report_dir"`
}

// PublishConfig lists the enabled sinks. A sink with an empty location is off.
type PublishConfig struct {
	SQLitePath     string `yaml:"sqlite_path"`
	PostgresDSN    string `yaml:"-"` // env only
	PostgresSchema string `yaml:"postgres_schema"`
	LocalDir       string `yaml:"local_dir"`
	MaxAttempts    int    `yaml:"max_attempts"`
}

// NotifyConfig holds AMQP settings
type NotifyConfig struct {
	AMQPURL string `yaml:"-"` // env only
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text, json
}

// Default returns sensible defaults
func Default() *Config {
	return &Config{
		Content: ContentConfig{
			Branch:   "main",
			CacheDir: filepath.Join(".curriculum", "content"),
		},
		Publish: PublishConfig{
			SQLitePath:     filepath.Join(".curriculum", "catalog.db"),
			PostgresSchema: "curriculum",
			MaxAttempts:    3,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads configuration from path and applies environment overrides.
// An empty path reads DefaultPath when it exists and falls back to defaults
// otherwise.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that would otherwise fail late.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("unknown log.level %q", c.Log.Level)
	}
	if c.Content.Dir != "" && c.Content.Repo != "" {
		return errors.New("content.dir and content.repo are mutually exclusive")
	}
	if c.Publish.MaxAttempts < 1 {
		return fmt.Errorf("publish.max_attempts must be at least 1, got %d", c.Publish.MaxAttempts)
	}
	return nil
}

// Save writes cfg to path as YAML
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
