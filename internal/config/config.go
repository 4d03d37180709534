// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration, sourced from environment
// variables (see bindEnvVars for the exact names).
type Config struct {
	Symbols                []string      `mapstructure:"symbols"`
	WSEndpoint             string        `mapstructure:"ws_endpoint"`
	RESTEndpoint           string        `mapstructure:"rest_endpoint"`
	IPCSocketPath          string        `mapstructure:"ipc_socket_path"`
	DepthLevels            int           `mapstructure:"depth_levels"`
	ReconnectDelay         time.Duration `mapstructure:"-"`
	ReconnectDelayMs       int           `mapstructure:"reconnect_delay_ms"`
	MaxReconnectAttempts   int           `mapstructure:"max_reconnect_attempts"`
	HealthCheckInterval    time.Duration `mapstructure:"-"`
	HealthCheckIntervalSec int           `mapstructure:"health_check_interval_secs"`

	App       AppConfig       `mapstructure:"app"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
	HealthPort  int    `mapstructure:"health_port"`
}

// TelemetryConfig holds observability configuration.
type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ServiceName    string `mapstructure:"service_name"`
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	PrometheusPort int    `mapstructure:"prometheus_port"`
}

// Load loads configuration from environment variables, matching the
// SYMBOLS/WS_ENDPOINT/REST_ENDPOINT/IPC_SOCKET_PATH/DEPTH_LEVELS/
// RECONNECT_DELAY_MS/MAX_RECONNECT_ATTEMPTS/HEALTH_CHECK_INTERVAL_SECS table.
func Load() (*Config, error) {
	v := viper.New()

	v.AutomaticEnv()
	bindEnvVars(v)
	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Symbols = splitSymbols(v.GetString("symbols"))
	cfg.ReconnectDelay = time.Duration(cfg.ReconnectDelayMs) * time.Millisecond
	cfg.HealthCheckInterval = time.Duration(cfg.HealthCheckIntervalSec) * time.Second

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func splitSymbols(raw string) []string {
	parts := strings.Split(raw, ",")
	symbols := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToUpper(strings.TrimSpace(p))
		if p != "" {
			symbols = append(symbols, p)
		}
	}
	return symbols
}

func bindEnvVars(v *viper.Viper) {
	_ = v.BindEnv("symbols", "SYMBOLS")
	_ = v.BindEnv("ws_endpoint", "WS_ENDPOINT")
	_ = v.BindEnv("rest_endpoint", "REST_ENDPOINT")
	_ = v.BindEnv("ipc_socket_path", "IPC_SOCKET_PATH")
	_ = v.BindEnv("depth_levels", "DEPTH_LEVELS")
	_ = v.BindEnv("reconnect_delay_ms", "RECONNECT_DELAY_MS")
	_ = v.BindEnv("max_reconnect_attempts", "MAX_RECONNECT_ATTEMPTS")
	_ = v.BindEnv("health_check_interval_secs", "HEALTH_CHECK_INTERVAL_SECS")

	_ = v.BindEnv("app.name", "APP_NAME")
	_ = v.BindEnv("app.environment", "ENVIRONMENT")
	_ = v.BindEnv("app.log_level", "LOG_LEVEL")
	_ = v.BindEnv("app.health_port", "HEALTH_PORT")

	_ = v.BindEnv("telemetry.enabled", "OTEL_ENABLED")
	_ = v.BindEnv("telemetry.service_name", "OTEL_SERVICE_NAME")
	_ = v.BindEnv("telemetry.otlp_endpoint", "OTEL_EXPORTER_OTLP_ENDPOINT")
	_ = v.BindEnv("telemetry.prometheus_port", "PROMETHEUS_PORT")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("symbols", "BTCUSDT,ETHUSDT")
	v.SetDefault("ws_endpoint", "wss://stream.binance.com:9443/ws")
	v.SetDefault("rest_endpoint", "https://api.binance.com/api/v3")
	v.SetDefault("ipc_socket_path", "/tmp/quantumflow.sock")
	v.SetDefault("depth_levels", 20)
	v.SetDefault("reconnect_delay_ms", 1000)
	v.SetDefault("max_reconnect_attempts", 0) // 0 = infinite; the attempt counter resets on each successful reconnect, with no cooldown
	v.SetDefault("health_check_interval_secs", 30)

	v.SetDefault("app.name", "market-data")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.health_port", 9090)

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "market-data")
	v.SetDefault("telemetry.prometheus_port", 2223)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if len(c.Symbols) == 0 {
		return fmt.Errorf("symbols cannot be empty")
	}
	if c.WSEndpoint == "" {
		return fmt.Errorf("ws_endpoint is required")
	}
	if c.RESTEndpoint == "" {
		return fmt.Errorf("rest_endpoint is required")
	}
	if c.IPCSocketPath == "" {
		return fmt.Errorf("ipc_socket_path is required")
	}
	if c.DepthLevels <= 0 {
		return fmt.Errorf("depth_levels must be positive")
	}
	if c.MaxReconnectAttempts < 0 {
		return fmt.Errorf("max_reconnect_attempts cannot be negative")
	}
	return nil
}
