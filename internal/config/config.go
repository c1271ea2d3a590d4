package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Model sources.
const (
	ModelEmbedded = "embedded"
	ModelYAML     = "yaml"
	ModelSQLite   = "sqlite"
)

// Chart themes.
const (
	ThemeDark  = "dark"
	ThemeLight = "light"
)

type Config struct {
	// HTTP Server
	Port           string
	TrustedProxies []string

	// Logging
	LogLevel string

	// Model source
	ModelSource  string
	ModelFile    string
	SQLiteDBPath string

	// AMQP; an empty URL disables scenario events
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Sessions
	SessionTTL             time.Duration
	SessionMax             int
	SessionCleanupInterval time.Duration

	RateLimitPerMinute int
	ChartTheme         string

	// Worker
	WorkerReportInterval time.Duration
}

func Load() *Config {
	cfg := &Config{
		Port:           getEnv("PORT", "8081"),
		TrustedProxies: getEnvList("TRUSTED_PROXIES"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),

		ModelSource:  getEnv("MODEL_SOURCE", ModelEmbedded),
		ModelFile:    getEnv("MODEL_FILE", "./model.yaml"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/kalkyle.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "kalkyle"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "scenario_events"),

		SessionTTL:             getEnvDuration("SESSION_TTL", 30*time.Minute),
		SessionMax:             getEnvInt("SESSION_MAX", 1000),
		SessionCleanupInterval: getEnvDuration("SESSION_CLEANUP_INTERVAL", 5*time.Minute),

		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 120),
		ChartTheme:         getEnv("CHART_THEME", ThemeDark),

		WorkerReportInterval: getEnvDuration("WORKER_REPORT_INTERVAL", time.Minute),
	}

	return cfg
}

// EventsEnabled reports whether scenario events are published.
func (c *Config) EventsEnabled() bool { return c.AMQPURL != "" }

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	for _, cidr := range c.TrustedProxies {
		if _, _, err := net.ParseCIDR(cidr); err != nil {
			errors = append(errors, fmt.Sprintf("invalid trusted proxy '%s': must be a CIDR", cidr))
		}
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.LogLevel))
	}

	switch c.ModelSource {
	case ModelEmbedded:
	case ModelYAML:
		if c.ModelFile == "" {
			errors = append(errors, "model file cannot be empty when using yaml model source")
		} else if _, err := os.Stat(c.ModelFile); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("model file does not exist: %s", c.ModelFile))
		}
	case ModelSQLite:
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite model source")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	default:
		errors = append(errors, fmt.Sprintf("invalid model source '%s': must be one of %v", c.ModelSource,
			[]string{ModelEmbedded, ModelYAML, ModelSQLite}))
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.SessionTTL < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid session TTL %v: must be at least 1 minute", c.SessionTTL))
	} else if c.SessionTTL > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid session TTL %v: must be at most 24 hours", c.SessionTTL))
	}
	if c.SessionMax < 1 {
		errors = append(errors, fmt.Sprintf("invalid session max %d: must be at least 1", c.SessionMax))
	}
	if c.SessionCleanupInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid session cleanup interval %v: must be at least 1 second", c.SessionCleanupInterval))
	}

	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 per minute", c.RateLimitPerMinute))
	}

	if c.ChartTheme != ThemeDark && c.ChartTheme != ThemeLight {
		errors = append(errors, fmt.Sprintf("invalid chart theme '%s': must be '%s' or '%s'", c.ChartTheme, ThemeDark, ThemeLight))
	}

	if c.WorkerReportInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid worker report interval %v: must be at least 1 second", c.WorkerReportInterval))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
