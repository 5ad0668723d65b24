package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "agentguild.yaml"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// The YAML file is optional; a missing file is not an error.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV. The YAML file is optional.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is validated by caller
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Port, "AGENTGUILD_PORT")
	setString(&cfg.Server.CORSOrigin, "AGENTGUILD_CORS_ORIGIN")
	setString(&cfg.Logging.Level, "AGENTGUILD_LOG_LEVEL")
	setString(&cfg.Logging.Service, "AGENTGUILD_LOG_SERVICE")
	setBool(&cfg.Logging.Async, "AGENTGUILD_LOG_ASYNC")
	setString(&cfg.Supervisor.Shell, "AGENTGUILD_SHELL")
	setDuration(&cfg.Supervisor.SettleDelay, "AGENTGUILD_SETTLE_DELAY")
	setDuration(&cfg.Supervisor.PromptDelay, "AGENTGUILD_PROMPT_DELAY")
	setInt(&cfg.Supervisor.DefaultCols, "AGENTGUILD_DEFAULT_COLS")
	setInt(&cfg.Supervisor.DefaultRows, "AGENTGUILD_DEFAULT_ROWS")
	setDuration(&cfg.Idle.Threshold, "AGENTGUILD_IDLE_THRESHOLD")
	setDuration(&cfg.Idle.SweepInterval, "AGENTGUILD_IDLE_SWEEP_INTERVAL")
	setString(&cfg.Bridge.URL, "AGENTGUILD_BRIDGE_URL")
	setInt(&cfg.Bridge.MaxReconnects, "AGENTGUILD_BRIDGE_MAX_RECONNECTS")
	setDuration(&cfg.Bridge.ReconnectBaseDelay, "AGENTGUILD_BRIDGE_BASE_DELAY")
	setDuration(&cfg.Git.SampleInterval, "AGENTGUILD_GIT_SAMPLE_INTERVAL")
	setDuration(&cfg.Git.CacheTTL, "AGENTGUILD_GIT_CACHE_TTL")
	setInt64(&cfg.Git.CacheSizeMB, "AGENTGUILD_GIT_CACHE_SIZE_MB")
	setInt(&cfg.Git.MaxConcurrent, "AGENTGUILD_GIT_MAX_CONCURRENT")
	setBool(&cfg.Postgres.Enabled, "AGENTGUILD_PG_ENABLED")
	setString(&cfg.Postgres.DSN, "DATABASE_URL")
	setInt32(&cfg.Postgres.MaxConns, "AGENTGUILD_PG_MAX_CONNS")
	setInt32(&cfg.Postgres.MinConns, "AGENTGUILD_PG_MIN_CONNS")
	setDuration(&cfg.Postgres.MaxConnLifetime, "AGENTGUILD_PG_MAX_CONN_LIFETIME")
	setDuration(&cfg.Postgres.MaxConnIdleTime, "AGENTGUILD_PG_MAX_CONN_IDLE_TIME")
	setBool(&cfg.NATS.Enabled, "AGENTGUILD_NATS_ENABLED")
	setString(&cfg.NATS.URL, "NATS_URL")
	setBool(&cfg.MCP.Enabled, "AGENTGUILD_MCP_ENABLED")
	setBool(&cfg.OTel.Enabled, "AGENTGUILD_OTEL_ENABLED")
	setString(&cfg.OTel.Endpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
}

func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server port is required")
	}
	if cfg.Supervisor.SettleDelay < 0 {
		return errors.New("settle delay must not be negative")
	}
	// Terminal dimensions travel as uint16 on the PTY ioctl.
	if cfg.Supervisor.DefaultCols < 0 || cfg.Supervisor.DefaultCols > 65535 {
		return errors.New("default cols out of range")
	}
	if cfg.Supervisor.DefaultRows < 0 || cfg.Supervisor.DefaultRows > 65535 {
		return errors.New("default rows out of range")
	}
	if cfg.Idle.Threshold <= 0 {
		return errors.New("idle threshold must be positive")
	}
	if cfg.Bridge.MaxReconnects < 0 {
		return errors.New("bridge max reconnects must not be negative")
	}
	if cfg.Postgres.Enabled && cfg.Postgres.DSN == "" {
		return errors.New("postgres dsn is required when postgres is enabled")
	}
	if cfg.NATS.Enabled && cfg.NATS.URL == "" {
		return errors.New("nats url is required when nats is enabled")
	}
	if cfg.OTel.Enabled && cfg.OTel.Endpoint == "" {
		return errors.New("otel endpoint is required when otel is enabled")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt32(dst *int32, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			*dst = int32(n)
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
