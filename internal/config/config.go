// Package config loads the searchwire configuration from YAML by
// environment name, with ${VAR} env-variable substitution for secrets.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the searchwire configuration.
type Config struct {
	API     APIConfig     `yaml:"api"`
	Stream  StreamConfig  `yaml:"stream"`
	Search  SearchConfig  `yaml:"search"`
	History HistoryConfig `yaml:"history"`
	Replay  ReplayConfig  `yaml:"replay"`
	Logging LoggingConfig `yaml:"logging"`
}

// APIConfig holds the backend endpoint settings.
type APIConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
	// Collection is the default collection searched when none is given.
	Collection string `yaml:"collection"`
}

// StreamConfig holds stream consumer settings.
type StreamConfig struct {
	// IdleTimeoutSec fails a stream with no activity for this long.
	// 0 disables the watchdog.
	IdleTimeoutSec int `yaml:"idle_timeout_sec"`
}

// SearchConfig holds default search options.
type SearchConfig struct {
	Method         string  `yaml:"method"`    // hybrid, neural, keyword
	Expansion      string  `yaml:"expansion"` // auto, no_expansion
	Interpretation bool    `yaml:"enable_query_interpretation"`
	RecencyBias    float64 `yaml:"recency_bias"`
	Reranking      bool    `yaml:"enable_reranking"`
	ResponseType   string  `yaml:"response_type"` // raw, completion
	Limit          int     `yaml:"limit"`
}

// HistoryConfig holds the session archive settings.
type HistoryConfig struct {
	Addrs     []string `yaml:"addrs"`
	Password  string   `yaml:"password"`
	KeyPrefix string   `yaml:"key_prefix"`
	TTLHours  int      `yaml:"ttl_hours"`
}

// Enabled reports whether a session archive is configured.
func (h HistoryConfig) Enabled() bool { return len(h.Addrs) > 0 }

// ReplayConfig holds the local replay server settings.
type ReplayConfig struct {
	Port           int      `yaml:"port"`
	ReadTimeoutSec int      `yaml:"read_timeout_sec"`
	ShutdownSec    int      `yaml:"shutdown_timeout_sec"`
	APIKeys        []string `yaml:"api_keys"`
	FixturePath    string   `yaml:"fixture_path"`
	HeartbeatSec   int      `yaml:"heartbeat_sec"`
	EventDelayMS   int      `yaml:"event_delay_ms"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// Default returns the built-in configuration used when no config file
// exists (the common case for the console running against localhost).
func Default() Config {
	var cfg Config
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.API.BaseURL == "" {
		c.API.BaseURL = "http://localhost:8181"
	}
	if c.API.Collection == "" {
		c.API.Collection = "default"
	}
	if c.Stream.IdleTimeoutSec < 0 {
		c.Stream.IdleTimeoutSec = 0
	} else if c.Stream.IdleTimeoutSec == 0 {
		c.Stream.IdleTimeoutSec = 120
	}
	if c.Search.Method == "" {
		c.Search.Method = "hybrid"
	}
	if c.Search.Expansion == "" {
		c.Search.Expansion = "auto"
	}
	if c.Search.ResponseType == "" {
		c.Search.ResponseType = "completion"
	}
	if c.Search.Limit <= 0 {
		c.Search.Limit = 20
	}
	if c.History.KeyPrefix == "" {
		c.History.KeyPrefix = "sw:"
	}
	if c.History.TTLHours <= 0 {
		c.History.TTLHours = 72
	}
	if c.Replay.Port <= 0 {
		c.Replay.Port = 8181
	}
	if c.Replay.ReadTimeoutSec <= 0 {
		c.Replay.ReadTimeoutSec = 10
	}
	if c.Replay.ShutdownSec <= 0 {
		c.Replay.ShutdownSec = 10
	}
	if c.Replay.HeartbeatSec <= 0 {
		c.Replay.HeartbeatSec = 15
	}
	if c.Replay.EventDelayMS < 0 {
		c.Replay.EventDelayMS = 0
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url is required")
	}
	if c.Replay.Port <= 0 || c.Replay.Port > 65535 {
		return fmt.Errorf("replay.port must be between 1 and 65535, got %d", c.Replay.Port)
	}
	switch c.Search.Method {
	case "hybrid", "neural", "keyword":
	default:
		return fmt.Errorf("search.method must be hybrid, neural or keyword, got %q", c.Search.Method)
	}
	switch c.Search.Expansion {
	case "auto", "no_expansion":
	default:
		return fmt.Errorf("search.expansion must be auto or no_expansion, got %q", c.Search.Expansion)
	}
	switch c.Search.ResponseType {
	case "raw", "completion":
	default:
		return fmt.Errorf("search.response_type must be raw or completion, got %q", c.Search.ResponseType)
	}
	if c.Search.RecencyBias < 0 || c.Search.RecencyBias > 1 {
		return fmt.Errorf("search.recency_bias must be between 0 and 1, got %g", c.Search.RecencyBias)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
