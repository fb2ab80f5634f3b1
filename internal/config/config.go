package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all run settings, populated from environment variables.
type Config struct {
	LogLevel  string
	LogFormat string

	// Location renders extreme-temperature times in the report.
	Location     *time.Location
	MaxLineBytes int
	MetricsFile  string

	HTTPAddr        string
	ShutdownTimeout time.Duration

	// Summary sinks. Each one is enabled by setting its address.
	KafkaBrokers   []string
	KafkaSinkTopic string
	SQLitePath     string
	SinkTimeout    time.Duration
}

// envConfig is the environment as parsed by caarlos0/env. SHUTDOWN_TIMEOUT
// and KAFKA_BROKERS are read through the shared config helpers instead.
type envConfig struct {
	LogLevel       string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat      string        `env:"LOG_FORMAT" envDefault:"text"`
	ReportTimezone string        `env:"REPORT_TIMEZONE" envDefault:"Local"`
	MaxLineBytes   int           `env:"MAX_LINE_BYTES" envDefault:"65536"`
	MetricsFile    string        `env:"METRICS_FILE"`
	HTTPAddr       string        `env:"HTTP_ADDR"`
	KafkaSinkTopic string        `env:"KAFKA_SINK_TOPIC" envDefault:"climate-summaries"`
	SQLitePath     string        `env:"SQLITE_PATH"`
	SinkTimeout    time.Duration `env:"SINK_TIMEOUT" envDefault:"30s"`
}

// minLineBytes is enough for a nine-field line with short values.
const minLineBytes = 64

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	raw, err := env.ParseAs[envConfig]()
	if err != nil {
		return nil, namedParseError(err)
	}

	logLevel := strings.ToLower(strings.TrimSpace(raw.LogLevel))
	switch logLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("invalid LOG_LEVEL %q", raw.LogLevel)
	}

	logFormat := strings.ToLower(strings.TrimSpace(raw.LogFormat))
	switch logFormat {
	case "json", "text":
	default:
		return nil, fmt.Errorf("invalid LOG_FORMAT %q", raw.LogFormat)
	}

	loc, err := time.LoadLocation(strings.TrimSpace(raw.ReportTimezone))
	if err != nil {
		return nil, fmt.Errorf("invalid REPORT_TIMEZONE: %w", err)
	}

	if raw.MaxLineBytes < minLineBytes {
		return nil, fmt.Errorf("MAX_LINE_BYTES must be >= %d", minLineBytes)
	}

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	if raw.SinkTimeout <= 0 {
		return nil, errors.New("invalid SINK_TIMEOUT")
	}

	cfg := &Config{
		LogLevel:        logLevel,
		LogFormat:       logFormat,
		Location:        loc,
		MaxLineBytes:    raw.MaxLineBytes,
		MetricsFile:     strings.TrimSpace(raw.MetricsFile),
		HTTPAddr:        strings.TrimSpace(raw.HTTPAddr),
		ShutdownTimeout: shutdownTimeout,
		KafkaBrokers:    sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "")),
		KafkaSinkTopic:  strings.TrimSpace(raw.KafkaSinkTopic),
		SQLitePath:      strings.TrimSpace(raw.SQLitePath),
		SinkTimeout:     raw.SinkTimeout,
	}

	if cfg.KafkaEnabled() && cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_SINK_TOPIC is required when KAFKA_BROKERS is set")
	}

	return cfg, nil
}

// KafkaEnabled reports whether summaries should be published to Kafka.
func (c *Config) KafkaEnabled() bool { return len(c.KafkaBrokers) > 0 }

// SQLiteEnabled reports whether summaries should be exported to SQLite.
func (c *Config) SQLiteEnabled() bool { return c.SQLitePath != "" }

// namedParseError rewrites an env parse failure to name the variable
// instead of the struct field.
func namedParseError(err error) error {
	var pe env.ParseError
	if !errors.As(err, &pe) {
		return fmt.Errorf("parse env: %w", err)
	}
	key := pe.Name
	if f, ok := reflect.TypeOf(envConfig{}).FieldByName(pe.Name); ok {
		key = f.Tag.Get("env")
	}
	return fmt.Errorf("invalid %s: %w", key, pe.Err)
}
