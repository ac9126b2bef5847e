package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the brief configuration.
type Config struct {
	Provider         string        `yaml:"provider" json:"provider"`
	Model            string        `yaml:"model" json:"model"`
	MaxTokens        int           `yaml:"maxTokens" json:"maxTokens"`
	MaxFileTokens    *int          `yaml:"maxFileTokens,omitempty" json:"maxFileTokens,omitempty"`
	InstructionsFile string        `yaml:"instructionsFile,omitempty" json:"instructionsFile,omitempty"`
	ResponseTokens   int           `yaml:"responseTokens" json:"responseTokens"`
	TimeoutSeconds   int           `yaml:"timeoutSeconds" json:"timeoutSeconds"`
	Format           string        `yaml:"format" json:"format"`
	ContextLines     int           `yaml:"contextLines" json:"contextLines"`
	Include          []string      `yaml:"include" json:"include"`
	Exclude          []string      `yaml:"exclude" json:"exclude"`
	Cache            CacheConfig   `yaml:"cache" json:"cache"`
	Privacy          PrivacyConfig `yaml:"privacy" json:"privacy"`
	Tracker          TrackerConfig `yaml:"tracker" json:"tracker"`
	Log              LogConfig     `yaml:"log" json:"log"`
	Server           ServerConfig  `yaml:"server" json:"server"`
}

// CacheConfig controls response caching.
type CacheConfig struct {
	Enabled    bool   `yaml:"enabled" json:"enabled"`
	Dir        string `yaml:"path,omitempty" json:"path,omitempty"`
	TTLSeconds int    `yaml:"ttlSeconds" json:"ttlSeconds"`
}

// PrivacyConfig controls privacy/redaction behavior.
type PrivacyConfig struct {
	RedactSecrets bool     `yaml:"redactSecrets" json:"redactSecrets"`
	RedactPaths   []string `yaml:"redactPaths,omitempty" json:"redactPaths,omitempty"`
}

// TrackerConfig points at a Targetprocess API. An empty URL disables task
// cross-referencing.
type TrackerConfig struct {
	URL string `yaml:"url,omitempty" json:"url,omitempty"`
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Addr string `yaml:"addr" json:"addr"`
}

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		Provider:       "openai",
		Model:          "gpt-3.5-turbo",
		MaxTokens:      4000,
		ResponseTokens: 1024,
		TimeoutSeconds: 120,
		Format:         "text",
		ContextLines:   3,
		Include:        []string{"**/*"},
		Exclude:        []string{"vendor/**", "**/*.gen.go", "**/dist/**", "**/*.lock"},
		Cache: CacheConfig{
			Enabled:    true,
			TTLSeconds: 86400,
		},
		Privacy: PrivacyConfig{
			RedactSecrets: true,
			RedactPaths:   []string{"**/.env", "**/*secrets*"},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:8080",
		},
	}
}

// Timeout returns the model call timeout.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.MaxTokens <= 0 {
		return fmt.Errorf("maxTokens must be positive, got %d", c.MaxTokens)
	}
	if c.MaxFileTokens != nil && *c.MaxFileTokens < 0 {
		return fmt.Errorf("maxFileTokens must not be negative, got %d", *c.MaxFileTokens)
	}
	if c.ResponseTokens <= 0 {
		return fmt.Errorf("responseTokens must be positive, got %d", c.ResponseTokens)
	}
	if c.TimeoutSeconds <= 0 {
		return fmt.Errorf("timeoutSeconds must be positive, got %d", c.TimeoutSeconds)
	}
	if c.ContextLines < 0 {
		return fmt.Errorf("contextLines must not be negative, got %d", c.ContextLines)
	}
	switch c.Format {
	case "text", "json":
	default:
		return fmt.Errorf("unsupported format %q (want text or json)", c.Format)
	}
	return nil
}

// ConfigDir returns the platform-appropriate config directory for brief.
func ConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "brief"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "brief"), nil
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "brief"), nil
		}
		return filepath.Join(home, "AppData", "Roaming", "brief"), nil
	default:
		return filepath.Join(home, ".config", "brief"), nil
	}
}

// ConfigPath returns the full path to the config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// loadFileInto decodes the config file over cfg. Keys absent from the file
// keep their current values. A missing file is not an error.
func loadFileInto(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

// LoadFile loads the config file on top of the defaults.
func LoadFile() (Config, error) {
	cfg := Default()
	if err := loadFileInto(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Save writes the config to the config file.
func Save(cfg Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Load builds the effective config by merging: defaults <- file <- env <- overrides.
// The overrides map comes from CLI flags (only non-zero values should be set).
func Load(overrides map[string]string) (Config, error) {
	cfg := Default()
	if err := loadFileInto(&cfg); err != nil {
		return Config{}, err
	}
	if err := mergeEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := mergeOverrides(&cfg, overrides); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// envKeys maps environment variables to config keys.
var envKeys = []struct {
	env string
	key string
}{
	{"BRIEF_PROVIDER", "provider"},
	{"BRIEF_MODEL", "model"},
	{"BRIEF_MAX_TOKENS", "maxTokens"},
	{"BRIEF_MAX_FILE_TOKENS", "maxFileTokens"},
	{"BRIEF_INSTRUCTIONS_FILE", "instructionsFile"},
	{"BRIEF_TIMEOUT_SECONDS", "timeoutSeconds"},
	{"BRIEF_FORMAT", "format"},
	{"BRIEF_TRACKER_URL", "tracker.url"},
	{"BRIEF_LOG_LEVEL", "log.level"},
	{"BRIEF_LOG_FORMAT", "log.format"},
	{"BRIEF_SERVER_ADDR", "server.addr"},
}

func mergeEnv(cfg *Config) error {
	for _, e := range envKeys {
		v := os.Getenv(e.env)
		if v == "" {
			continue
		}
		if err := SetField(cfg, e.key, v); err != nil {
			return fmt.Errorf("%s: %w", e.env, err)
		}
	}
	return nil
}

func mergeOverrides(cfg *Config, overrides map[string]string) error {
	for key, v := range overrides {
		if v == "" {
			continue
		}
		if err := SetField(cfg, key, v); err != nil {
			return fmt.Errorf("--%s: %w", key, err)
		}
	}
	return nil
}

// Keys lists every key accepted by SetField.
func Keys() []string {
	return []string{
		"provider", "model", "maxTokens", "maxFileTokens", "instructionsFile",
		"responseTokens", "timeoutSeconds", "format", "contextLines",
		"include", "exclude", "cache.enabled", "cache.path", "cache.ttlSeconds",
		"privacy.redactSecrets", "privacy.redactPaths", "tracker.url",
		"log.level", "log.format", "server.addr",
	}
}

// SetField sets a single config field by key name. Returns error if key is
// unknown or the value does not parse. List values are comma-separated.
func SetField(cfg *Config, key, value string) error {
	switch key {
	case "provider":
		cfg.Provider = value
	case "model":
		cfg.Model = value
	case "maxTokens":
		return setInt(&cfg.MaxTokens, key, value)
	case "maxFileTokens":
		var n int
		if err := setInt(&n, key, value); err != nil {
			return err
		}
		cfg.MaxFileTokens = &n
	case "instructionsFile":
		cfg.InstructionsFile = value
	case "responseTokens":
		return setInt(&cfg.ResponseTokens, key, value)
	case "timeoutSeconds":
		return setInt(&cfg.TimeoutSeconds, key, value)
	case "format":
		cfg.Format = value
	case "contextLines":
		return setInt(&cfg.ContextLines, key, value)
	case "include":
		cfg.Include = splitList(value)
	case "exclude":
		cfg.Exclude = splitList(value)
	case "cache.enabled":
		return setBool(&cfg.Cache.Enabled, key, value)
	case "cache.path":
		cfg.Cache.Dir = value
	case "cache.ttlSeconds":
		return setInt(&cfg.Cache.TTLSeconds, key, value)
	case "privacy.redactSecrets":
		return setBool(&cfg.Privacy.RedactSecrets, key, value)
	case "privacy.redactPaths":
		cfg.Privacy.RedactPaths = splitList(value)
	case "tracker.url":
		cfg.Tracker.URL = value
	case "log.level":
		cfg.Log.Level = value
	case "log.format":
		cfg.Log.Format = value
	case "server.addr":
		cfg.Server.Addr = value
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}

func setInt(dst *int, key, value string) error {
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("%s must be an integer: %w", key, err)
	}
	*dst = n
	return nil
}

func setBool(dst *bool, key, value string) error {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("%s must be true or false: %w", key, err)
	}
	*dst = b
	return nil
}

func splitList(value string) []string {
	var out []string
	for _, p := range strings.Split(value, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
