// Package config loads calorie-scan settings.
//
// Values are layered: defaults, then the YAML file, then .env and process
// environment, then command-line flags (applied by the CLI).
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"calorie-scan/internal/history"
	"calorie-scan/internal/storage"
)

const envPrefix = "CALORIE_SCAN_"

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	History  HistoryConfig  `yaml:"history"`
	Analysis AnalysisConfig `yaml:"analysis"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type StorageConfig struct {
	Engine string `yaml:"engine"` // sqlite | bolt | file | memory
	Path   string `yaml:"path"`
}

type HistoryConfig struct {
	Key      string `yaml:"key"`
	Capacity int    `yaml:"capacity"`
}

type AnalysisConfig struct {
	MinDelayMs int   `yaml:"min_delay_ms"`
	MaxDelayMs int   `yaml:"max_delay_ms"`
	Seed       int64 `yaml:"seed"` // 0 means seed from the clock
}

func (a AnalysisConfig) MinDelay() time.Duration {
	return time.Duration(a.MinDelayMs) * time.Millisecond
}

func (a AnalysisConfig) MaxDelay() time.Duration {
	return time.Duration(a.MaxDelayMs) * time.Millisecond
}

// InvalidConfigError reports a setting that failed validation.
type InvalidConfigError struct {
	Field   string
	Message string
}

func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid config: %s: %s", e.Field, e.Message)
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8011,
		},
		Storage: StorageConfig{
			Engine: storage.EngineSQLite,
			Path:   storage.DefaultPath("data", storage.EngineSQLite),
		},
		History: HistoryConfig{
			Key:      history.DefaultKey,
			Capacity: history.DefaultCapacity,
		},
		Analysis: AnalysisConfig{
			MinDelayMs: 2000,
			MaxDelayMs: 3000,
		},
	}
}

// Load builds a Config from defaults, the YAML file at path (skipped when
// path is empty), and the environment. A .env file in the working directory
// is read if present.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	if path == "" {
		path = os.Getenv(envPrefix + "CONFIG")
	}

	cfg := DefaultConfig()
	if path != "" {
		if err := cfg.readFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config: %w", err)
	}
	engineBefore := c.Storage.Engine
	pathBefore := c.Storage.Path
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config: %w", err)
	}
	// A new engine without an explicit path gets that engine's default file.
	if c.Storage.Engine != engineBefore && c.Storage.Path == pathBefore {
		c.Storage.Path = storage.DefaultPath("data", c.Storage.Engine)
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v := env("HOST"); v != "" {
		c.Server.Host = v
	}
	if err := envInt("PORT", &c.Server.Port); err != nil {
		return err
	}
	if v := env("STORE"); v != "" {
		if c.Storage.Engine != v && env("DATA_FILE") == "" {
			c.Storage.Path = storage.DefaultPath("data", v)
		}
		c.Storage.Engine = v
	}
	if v := env("DATA_FILE"); v != "" {
		c.Storage.Path = v
	}
	if v := env("HISTORY_KEY"); v != "" {
		c.History.Key = v
	}
	if err := envInt("HISTORY_CAPACITY", &c.History.Capacity); err != nil {
		return err
	}
	if err := envInt("MIN_DELAY_MS", &c.Analysis.MinDelayMs); err != nil {
		return err
	}
	if err := envInt("MAX_DELAY_MS", &c.Analysis.MaxDelayMs); err != nil {
		return err
	}
	if v := env("SEED"); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return &InvalidConfigError{Field: envPrefix + "SEED", Message: err.Error()}
		}
		c.Analysis.Seed = seed
	}
	return nil
}

// Validate checks ranges and the storage engine name.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return &InvalidConfigError{Field: "server.port", Message: fmt.Sprintf("%d is out of range", c.Server.Port)}
	}
	switch strings.ToLower(c.Storage.Engine) {
	case storage.EngineSQLite, storage.EngineBolt, storage.EngineFile, storage.EngineMemory:
	default:
		return &InvalidConfigError{Field: "storage.engine", Message: fmt.Sprintf("unknown engine %q", c.Storage.Engine)}
	}
	if c.Storage.Path == "" && !strings.EqualFold(c.Storage.Engine, storage.EngineMemory) {
		return &InvalidConfigError{Field: "storage.path", Message: "must be set"}
	}
	if c.History.Capacity < 1 {
		return &InvalidConfigError{Field: "history.capacity", Message: "must be at least 1"}
	}
	if c.Analysis.MinDelayMs < 0 || c.Analysis.MaxDelayMs < 0 {
		return &InvalidConfigError{Field: "analysis", Message: "delays must not be negative"}
	}
	if c.Analysis.MinDelayMs > c.Analysis.MaxDelayMs {
		return &InvalidConfigError{Field: "analysis", Message: "min_delay_ms exceeds max_delay_ms"}
	}
	return nil
}

// Addr is the host:port the server listens on.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func env(name string) string {
	return strings.TrimSpace(os.Getenv(envPrefix + name))
}

func envInt(name string, dst *int) error {
	v := env(name)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return &InvalidConfigError{Field: envPrefix + name, Message: err.Error()}
	}
	*dst = n
	return nil
}
