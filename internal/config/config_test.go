package config

import (
	"strconv"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, time.Local, cfg.Location)
	assert.Equal(t, 65536, cfg.MaxLineBytes)
	assert.Empty(t, cfg.MetricsFile)
	assert.Empty(t, cfg.HTTPAddr)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, "climate-summaries", cfg.KafkaSinkTopic)
	assert.Empty(t, cfg.SQLitePath)
	assert.Equal(t, 30*time.Second, cfg.SinkTimeout)
	assert.False(t, cfg.KafkaEnabled())
	assert.False(t, cfg.SQLiteEnabled())
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("REPORT_TIMEZONE", "America/Chicago")
	t.Setenv("MAX_LINE_BYTES", "1024")
	t.Setenv("METRICS_FILE", "/tmp/climate.prom")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("KAFKA_BROKERS", "broker1:9092, broker2:9092,")
	t.Setenv("KAFKA_SINK_TOPIC", "custom-sink")
	t.Setenv("SQLITE_PATH", "/tmp/climate.db")
	t.Setenv("SINK_TIMEOUT", "5s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "America/Chicago", cfg.Location.String())
	assert.Equal(t, 1024, cfg.MaxLineBytes)
	assert.Equal(t, "/tmp/climate.prom", cfg.MetricsFile)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "custom-sink", cfg.KafkaSinkTopic)
	assert.Equal(t, "/tmp/climate.db", cfg.SQLitePath)
	assert.Equal(t, 5*time.Second, cfg.SinkTimeout)
	assert.True(t, cfg.KafkaEnabled())
	assert.True(t, cfg.SQLiteEnabled())
}

func TestLoad_InvalidShutdownTimeout(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_NegativeShutdownTimeout(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "-1s")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_NegativeSinkTimeout(t *testing.T) {
	t.Setenv("SINK_TIMEOUT", "0s")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SINK_TIMEOUT")
}

func TestLoad_InvalidMaxLineBytes(t *testing.T) {
	t.Setenv("MAX_LINE_BYTES", "8")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MAX_LINE_BYTES")
}

func TestLoad_NonNumericMaxLineBytes(t *testing.T) {
	t.Setenv("MAX_LINE_BYTES", "lots")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid MAX_LINE_BYTES")
	assert.ErrorIs(t, err, strconv.ErrSyntax)
}

func TestLoad_NonDurationSinkTimeout(t *testing.T) {
	t.Setenv("SINK_TIMEOUT", "soon")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid SINK_TIMEOUT")
}

func TestLoad_EmptyBrokerListDisablesKafka(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", " , ")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.False(t, cfg.KafkaEnabled())
}

func TestLoad_InvalidLogLevel(t *testing.T) {
	t.Setenv("LOG_LEVEL", "verbose")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LOG_LEVEL")
}

func TestLoad_InvalidLogFormat(t *testing.T) {
	t.Setenv("LOG_FORMAT", "xml")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LOG_FORMAT")
}

func TestLoad_InvalidTimezone(t *testing.T) {
	t.Setenv("REPORT_TIMEZONE", "Mars/Olympus_Mons")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REPORT_TIMEZONE")
}

func TestLoad_KafkaWithoutTopic(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "localhost:9092")
	t.Setenv("KAFKA_SINK_TOPIC", " ")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KAFKA_SINK_TOPIC")
}
