package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the responder service process.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Responses ResponsesConfig `yaml:"responses"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	TLS       TLSConfig       `yaml:"tls"`
	Log       LogConfig       `yaml:"log"`
}

type ServerConfig struct {
	ListenAddr   string        `yaml:"listen_addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// ResponsesConfig externalizes the response payload values. The shapes are
// fixed; only the values can be overridden.
type ResponsesConfig struct {
	Hello  MessageConfig `yaml:"hello"`
	Health MessageConfig `yaml:"health"`
	Info   InfoConfig    `yaml:"info"`
}

type MessageConfig struct {
	Message string `yaml:"message"`
	Status  string `yaml:"status"`
}

type InfoConfig struct {
	Service     string `yaml:"service"`
	Version     string `yaml:"version"`
	Description string `yaml:"description"`
	Author      string `yaml:"author"`
	Port        int    `yaml:"port"`
}

type RateLimitConfig struct {
	Enabled             bool          `yaml:"enabled"`
	RequestsPerInterval int           `yaml:"requests_per_interval"`
	Interval            time.Duration `yaml:"interval"`
	CleanupInterval     time.Duration `yaml:"cleanup_interval"`
	StaleAfter          time.Duration `yaml:"stale_after"`
	TrustedProxies      []string      `yaml:"trusted_proxies"`
}

type MetricsConfig struct {
	Enabled    bool   `yaml:"enabled"`
	ListenAddr string `yaml:"listen_addr"`
}

type TLSConfig struct {
	Cert string `yaml:"cert"`
	Key  string `yaml:"key"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// SlogLevel maps the configured level name to a slog.Level. Unknown
// values fall back to info.
func (l LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Load builds the service configuration. If path is non-empty the YAML
// file is parsed over the defaults; environment variable overrides are
// applied last. With an empty path the defaults alone reproduce the
// documented service behavior.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HELLOSVC_LISTEN_ADDR"); v != "" {
		cfg.Server.ListenAddr = v
	}
	if v := os.Getenv("HELLOSVC_METRICS_ADDR"); v != "" {
		cfg.Metrics.ListenAddr = v
	}
	if v := os.Getenv("HELLOSVC_TLS_CERT"); v != "" {
		cfg.TLS.Cert = v
	}
	if v := os.Getenv("HELLOSVC_TLS_KEY"); v != "" {
		cfg.TLS.Key = v
	}
	if v := os.Getenv("HELLOSVC_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
}

// Defaults returns a Config with default values. The response payload
// defaults are part of the service contract and must keep their shape.
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			ListenAddr:   "0.0.0.0:8001",
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Responses: ResponsesConfig{
			Hello: MessageConfig{
				Message: "Hello from Rust Docker container!",
				Status:  "success",
			},
			Health: MessageConfig{
				Message: "Service is healthy",
				Status:  "ok",
			},
			Info: InfoConfig{
				Service:     "rust-project",
				Version:     "0.1.0",
				Description: "Rust web service running in Docker",
				Author:      "Your Name",
				Port:        8001,
			},
		},
		RateLimit: RateLimitConfig{
			Enabled:             false,
			RequestsPerInterval: 10,
			Interval:            1 * time.Second,
			CleanupInterval:     1 * time.Minute,
			StaleAfter:          5 * time.Minute,
		},
		Metrics: MetricsConfig{
			Enabled:    false,
			ListenAddr: "0.0.0.0:9091",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}
