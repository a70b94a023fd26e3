package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/CTAG07/Confluxer/pkg/confluxer"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/natefinch/atomic"
	"gopkg.in/yaml.v3"
)

// envPrefix is prepended to every environment variable the CLI reads.
const envPrefix = "CONFLUXER_"

// Config is the top-level CLI configuration.
type Config struct {
	Generator    confluxer.Config `json:"generator" yaml:"generator"`
	LogLevel     string           `json:"log_level" yaml:"log_level" env:"LOG_LEVEL"`
	DatabasePath string           `json:"database_path" yaml:"database_path" env:"DATABASE_PATH"`
	Model        string           `json:"model" yaml:"model" env:"MODEL"`
	Seed         uint64           `json:"seed" yaml:"seed" env:"SEED"`
}

// DefaultConfig creates a configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		Generator:    confluxer.DefaultConfig(),
		LogLevel:     "info",
		DatabasePath: "confluxer.db",
	}
}

// isYAML reports whether path should be read and written as YAML.
func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// LoadConfig reads the configuration file at path on top of the defaults.
// If the file doesn't exist, it is created with default values. Files ending
// in .yaml or .yml are YAML, anything else is JSON.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	file, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			var data []byte
			data, err = marshalConfig(path, config)
			if err != nil {
				return nil, fmt.Errorf("failed to marshal default config: %w", err)
			}
			if err = atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
				// The defaults are still usable without a file on disk.
				fmt.Fprintf(os.Stderr, "warning: failed to write default config file: %v\n", err)
			}
			return config, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if isYAML(path) {
		err = yaml.Unmarshal(file, config)
	} else {
		err = json.Unmarshal(file, config)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return config, nil
}

func marshalConfig(path string, config *Config) ([]byte, error) {
	if isYAML(path) {
		return yaml.Marshal(config)
	}
	return json.MarshalIndent(config, "", "  ")
}

// ApplyEnv overrides config with any CONFLUXER_* environment variables,
// after loading a .env file from the working directory if there is one.
func ApplyEnv(config *Config) error {
	// A missing .env file is fine.
	_ = godotenv.Load()

	if err := env.ParseWithOptions(config, env.Options{Prefix: envPrefix}); err != nil {
		return fmt.Errorf("failed to parse environment: %w", err)
	}
	return nil
}

// parseLogLevel maps a level name to a slog.Level, defaulting to info.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// newLogger builds the text logger used by every command.
func newLogger(w io.Writer, level string) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: parseLogLevel(level)}))
}
