// Package config loads cinectl settings from config.yaml with OPSC_*
// environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds everything the client needs to reach the daemon and its
// helper processes.
type Config struct {
	SocketPath        string        `mapstructure:"socket_path"`
	DaemonHost        string        `mapstructure:"daemon_host"` // TCP address; overrides socket when set
	EventsURL         string        `mapstructure:"events_url"`  // HTTP base for SSE channels
	Token             string        `mapstructure:"token"`
	OutputDir         string        `mapstructure:"output_dir"`
	InvokeTimeout     time.Duration `mapstructure:"invoke_timeout"`
	CaptureHelper     string        `mapstructure:"capture_helper"`
	RecognitionHelper string        `mapstructure:"recognition_helper"`
}

// Default returns the built-in configuration.
func Default() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		SocketPath:    filepath.Join(home, ".opscinema", "daemon.sock"),
		EventsURL:     "http://127.0.0.1:7411",
		OutputDir:     filepath.Join(home, "opscinema-exports"),
		InvokeTimeout: 30 * time.Second,
	}
}

// Dir returns the directory config.yaml lives in.
func Dir() string {
	if dir := os.Getenv("OPSC_CONFIG_DIR"); dir != "" {
		return dir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".opscinema")
}

// Path returns the config file path.
func Path() string {
	return filepath.Join(Dir(), "config.yaml")
}

// Load reads config.yaml if present, applies OPSC_* env overrides, and
// fills unset fields from the defaults. A missing file is not an error.
func Load() (*Config, error) {
	return LoadFrom(Path())
}

// LoadFrom loads configuration from an explicit file path.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("OPSC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("socket_path", cfg.SocketPath)
	v.SetDefault("daemon_host", cfg.DaemonHost)
	v.SetDefault("events_url", cfg.EventsURL)
	v.SetDefault("token", cfg.Token)
	v.SetDefault("output_dir", cfg.OutputDir)
	v.SetDefault("invoke_timeout", cfg.InvokeTimeout)
	v.SetDefault("capture_helper", cfg.CaptureHelper)
	v.SetDefault("recognition_helper", cfg.RecognitionHelper)

	if err := v.ReadInConfig(); err != nil {
		if _, statErr := os.Stat(path); statErr == nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
		// No file; defaults plus env only.
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if cfg.InvokeTimeout <= 0 {
		cfg.InvokeTimeout = Default().InvokeTimeout
	}
	return cfg, nil
}

// Save writes the configuration as YAML, creating the directory if needed.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.Set("socket_path", cfg.SocketPath)
	v.Set("daemon_host", cfg.DaemonHost)
	v.Set("events_url", cfg.EventsURL)
	v.Set("token", cfg.Token)
	v.Set("output_dir", cfg.OutputDir)
	v.Set("invoke_timeout", cfg.InvokeTimeout.String())
	v.Set("capture_helper", cfg.CaptureHelper)
	v.Set("recognition_helper", cfg.RecognitionHelper)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config %s: %w", path, err)
	}
	return nil
}
