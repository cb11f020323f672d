// Package config handles loading and validating the voxmate configuration.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config is the root configuration for the voxmate daemon.
type Config struct {
	Server     ServerConfig      `mapstructure:"server"`
	Transports TransportsConfig  `mapstructure:"transports"`
	Assistant  AssistantConfig   `mapstructure:"assistant"`
	Session    SessionConfig     `mapstructure:"session"`
	Targets    map[string]Target `mapstructure:"targets" validate:"dive"`
	Tracing    TracingConfig     `mapstructure:"tracing"`
	Logging    LoggingConfig     `mapstructure:"logging"`
}

// ServerConfig holds the health check server settings.
type ServerConfig struct {
	HealthPort int `mapstructure:"health_port" validate:"min=1,max=65535"`
}

// TransportsConfig holds the configuration for each transport layer.
type TransportsConfig struct {
	HTTP HTTPConfig `mapstructure:"http"`
	GRPC GRPCConfig `mapstructure:"grpc"`
	NATS NATSConfig `mapstructure:"nats"`
}

// HTTPConfig configures the HTTP/WebSocket transport.
type HTTPConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port" validate:"min=1,max=65535"`
	// RateLimit is the sustained number of requests per second allowed per
	// client address. Zero disables limiting.
	RateLimit float64 `mapstructure:"rate_limit" validate:"gte=0"`
	Burst     int     `mapstructure:"burst" validate:"gte=0"`
}

// GRPCConfig configures the gRPC transport.
type GRPCConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port" validate:"min=1,max=65535"`
}

// NATSConfig configures the NATS request/reply transport.
type NATSConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// Embedded starts an in-process NATS server instead of dialing URL.
	Embedded bool   `mapstructure:"embedded"`
	URL      string `mapstructure:"url" validate:"required_if=Enabled true Embedded false"`
	Subject  string `mapstructure:"subject" validate:"required_if=Enabled true"`
	// Queue is the queue group shared by voxmate replicas.
	Queue string `mapstructure:"queue"`
}

// AssistantConfig tunes the interpreter.
type AssistantConfig struct {
	// Timezone is an IANA name or "Local".
	Timezone string `mapstructure:"timezone" validate:"required"`
	// Phrasebook optionally points at a YAML file replacing the built-in
	// help text, jokes, goodbyes and greetings.
	Phrasebook string `mapstructure:"phrasebook"`
}

// SessionConfig controls the in-memory session store.
type SessionConfig struct {
	// IdleTTL bounds memory by forgetting sources idle for longer, along
	// with any name they taught. Zero keeps sessions for the process lifetime.
	IdleTTL       time.Duration `mapstructure:"idle_ttl" validate:"gte=0"`
	SweepInterval time.Duration `mapstructure:"sweep_interval" validate:"gt=0"`
}

// Target defines a downstream service in the config file.
type Target struct {
	Endpoint string `mapstructure:"endpoint" validate:"required"`
	Protocol string `mapstructure:"protocol" validate:"oneof=http grpc nats"`
}

// TracingConfig controls OpenTelemetry span export.
type TracingConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Exporter string `mapstructure:"exporter" validate:"oneof=stdout none"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=json text"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load reads the configuration from file, environment variables, and defaults.
// If configFile is non-empty it is used directly; otherwise the standard
// search order applies: ./voxmate.yaml, ./configs/voxmate.yaml, /etc/voxmate/voxmate.yaml.
func Load(configFile string) (*Config, error) {
	v := newViper(configFile)

	// Read config file (optional, env vars and defaults are sufficient)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		slog.Info("no config file found, using defaults and environment variables")
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	return decode(v)
}

func newViper(configFile string) *viper.Viper {
	v := viper.New()

	v.SetDefault("server.health_port", 8081)
	v.SetDefault("transports.http.enabled", true)
	v.SetDefault("transports.http.port", 8080)
	v.SetDefault("transports.http.rate_limit", 20)
	v.SetDefault("transports.http.burst", 40)
	v.SetDefault("transports.grpc.enabled", false)
	v.SetDefault("transports.grpc.port", 50051)
	v.SetDefault("transports.nats.enabled", false)
	v.SetDefault("transports.nats.url", "nats://localhost:4222")
	v.SetDefault("transports.nats.subject", "voxmate.utterances")
	v.SetDefault("transports.nats.embedded", false)
	v.SetDefault("transports.nats.queue", "voxmate")
	v.SetDefault("assistant.timezone", "Local")
	v.SetDefault("assistant.phrasebook", "")
	v.SetDefault("session.idle_ttl", "0s")
	v.SetDefault("session.sweep_interval", "1m")
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.exporter", "stdout")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("voxmate")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/voxmate")
	}

	// Environment variables: VOXMATE_SERVER_HEALTH_PORT, VOXMATE_LOGGING_LEVEL, etc.
	v.SetEnvPrefix("VOXMATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("transports.nats.url", "VOXMATE_TRANSPORTS_NATS_URL", "NATS_URL")

	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	cfg.Logging.Level = strings.ToLower(cfg.Logging.Level)
	cfg.Logging.Format = strings.ToLower(cfg.Logging.Format)

	// Resolve env var references (e.g., "${HA_ENDPOINT}")
	cfg.Transports.NATS.URL = resolveEnvRef(cfg.Transports.NATS.URL)
	for name, target := range cfg.Targets {
		target.Endpoint = resolveEnvRef(target.Endpoint)
		target.Protocol = strings.ToLower(target.Protocol)
		cfg.Targets[name] = target
	}

	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return &cfg, nil
}

// resolveEnvRef replaces "${VAR_NAME}" patterns with the corresponding env var value.
func resolveEnvRef(val string) string {
	if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
		envKey := val[2 : len(val)-1]
		if envVal := os.Getenv(envKey); envVal != "" {
			return envVal
		}
	}
	return val
}
