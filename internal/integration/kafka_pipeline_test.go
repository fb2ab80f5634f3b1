//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/couchcryptid/climate-summary/internal/adapter/file"
	"github.com/couchcryptid/climate-summary/internal/adapter/kafka"
	"github.com/couchcryptid/climate-summary/internal/adapter/sqlite"
	"github.com/couchcryptid/climate-summary/internal/config"
	"github.com/couchcryptid/climate-summary/internal/domain"
	"github.com/couchcryptid/climate-summary/internal/observability"
	"github.com/couchcryptid/climate-summary/internal/pipeline"
	"github.com/couchcryptid/climate-summary/internal/report"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
)

const testSinkTopic = "test-climate-summaries"

const sampleTDV = "TN\t1438617600000\tdn9j2gq3b3s0\t40.0\t0.0\t10.0\t1.0\t100800.0\t316.7\n" +
	"WA\t1435510800000\tc22yzvh0qsrb\t30.0\t0.0\t0.0\t0.0\t100100.0\t325.2\n" +
	"not a record\n" +
	"TN\t1424426400000\tdn6m6mp8zfb8\t60.0\t1.0\t90.0\t0.0\t101200.0\t249.2\n"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0", tckafka.WithClusterID("climate-test"))
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err, "start kafka container")

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)
	ctrl, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer ctrl.Close()

	require.NoError(t, ctrl.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

func ingestSample(ctx context.Context, t *testing.T) *domain.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sample.tdv")
	require.NoError(t, os.WriteFile(path, []byte(sampleTDV), 0o600))

	p := pipeline.New(file.NewOpener(), discardLogger(), observability.NewMetricsForTesting())
	store := domain.NewStore()
	stats, err := p.Run(ctx, []string{path}, store)
	require.NoError(t, err)
	require.Len(t, stats.Files, 1)
	assert.Equal(t, 3, stats.Files[0].Applied)
	assert.Equal(t, 1, stats.Files[0].Malformed)
	return store
}

// TestExportToKafkaAndSQLite ingests a sample file, exports its summaries to
// both sinks, and reads them back.
func TestExportToKafkaAndSQLite(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSinkTopic)

	cfg := &config.Config{
		KafkaBrokers:   []string{broker},
		KafkaSinkTopic: testSinkTopic,
	}
	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	db, err := sqlite.Open(filepath.Join(t.TempDir(), "summaries.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	store := ingestSample(ctx, t)
	generated := time.Date(2026, time.October, 16, 12, 0, 0, 0, time.UTC)
	summaries := report.BuildSummaries(store, generated)
	require.Len(t, summaries, 2)

	metrics := observability.NewMetricsForTesting()
	err = pipeline.Export(ctx, discardLogger(), metrics, []pipeline.Sink{
		{Name: "kafka", Loader: writer},
		{Name: "sqlite", Loader: db},
	}, summaries)
	require.NoError(t, err)

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:   []string{broker},
		Topic:     testSinkTopic,
		Partition: 0,
		MinBytes:  1,
		MaxBytes:  1 << 20,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	for _, want := range summaries {
		readCtx, readCancel := context.WithTimeout(ctx, 30*time.Second)
		msg, err := consumer.ReadMessage(readCtx)
		readCancel()
		require.NoError(t, err, "read from sink topic")

		assert.Equal(t, want.State, string(msg.Key))
		var got report.Summary
		require.NoError(t, json.Unmarshal(msg.Value, &got))
		assert.Equal(t, want, got)
	}

	stored, err := db.Latest(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, "TN", stored[0].State)
	assert.Equal(t, uint64(2), stored[0].Records)
	assert.Equal(t, "WA", stored[1].State)
}
