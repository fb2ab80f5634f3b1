// Command climate aggregates tab-delimited climate observations per state and
// prints a summary report.
//
// Usage:
//
//	climate [-json] tdv_file1 tdv_file2 ... tdv_fileN
//	climate -latest
//
// -latest prints the newest run stored in SQLITE_PATH as JSON instead of
// ingesting files.
//
// Files ending in .gz, .zst or .lz4 are decompressed on the fly; "-" reads
// standard input. Summaries can additionally be exported to Kafka and SQLite
// and served over HTTP, see internal/config for the environment variables.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"github.com/couchcryptid/climate-summary/internal/adapter/file"
	httpadapter "github.com/couchcryptid/climate-summary/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/climate-summary/internal/adapter/kafka"
	"github.com/couchcryptid/climate-summary/internal/adapter/sqlite"
	"github.com/couchcryptid/climate-summary/internal/config"
	"github.com/couchcryptid/climate-summary/internal/domain"
	"github.com/couchcryptid/climate-summary/internal/observability"
	"github.com/couchcryptid/climate-summary/internal/pipeline"
	"github.com/couchcryptid/climate-summary/internal/report"
	"github.com/jonboulle/clockwork"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

func main() {
	os.Exit(run(os.Args, os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet(args[0], flag.ContinueOnError)
	fs.SetOutput(stderr)
	jsonOut := fs.Bool("json", false, "print JSON summaries instead of the text report")
	latest := fs.Bool("latest", false, "print the newest run stored in SQLITE_PATH and exit")
	fs.Usage = func() {
		fmt.Fprintf(stdout, "Usage: %s tdv_file1 tdv_file2 ... tdv_fileN \n", args[0])
		fs.PrintDefaults()
	}
	if err := fs.Parse(args[1:]); err != nil {
		return exitUsage
	}
	if fs.NArg() == 0 && !*latest {
		fs.Usage()
		return exitError
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return exitError
	}

	if *latest {
		return printLatest(stdout, cfg, observability.NewLogger(cfg))
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	p := pipeline.New(file.NewOpener(), logger, metrics,
		pipeline.WithClock(clock),
		pipeline.WithMaxLineBytes(cfg.MaxLineBytes),
		pipeline.WithProgress(stdout),
	)

	var board report.Board
	var srv *httpadapter.Server
	if cfg.HTTPAddr != "" {
		srv = httpadapter.NewServer(cfg.HTTPAddr, &board, &board, logger)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server error", "error", err)
			}
		}()
	}

	code := exitOK
	store := domain.NewStore()
	if _, err := p.Run(ctx, fs.Args(), store); err != nil {
		logger.Error("ingestion interrupted", "error", err)
		code = exitError
	}

	summaries := report.BuildSummaries(store, clock.Now())
	board.Publish(summaries)

	if !store.Empty() {
		if err := printReport(stdout, *jsonOut, store, summaries, cfg); err != nil {
			logger.Error("failed to write report", "error", err)
			code = exitError
		}
	}

	if err := exportSummaries(ctx, cfg, logger, metrics, summaries); err != nil {
		code = exitError
	}

	if cfg.MetricsFile != "" {
		if err := observability.WriteTextfile(cfg.MetricsFile); err != nil {
			logger.Error("failed to write metrics file", "path", cfg.MetricsFile, "error", err)
			code = exitError
		}
	}

	if srv != nil {
		serveUntilSignal(ctx, srv, cfg, logger)
	}
	return code
}

func printReport(w io.Writer, asJSON bool, store *domain.Store, summaries []report.Summary, cfg *config.Config) error {
	if asJSON {
		return report.WriteJSON(w, summaries)
	}
	return report.WriteText(w, store, cfg.Location)
}

// exportSummaries sends summaries to every configured sink under SINK_TIMEOUT.
func exportSummaries(ctx context.Context, cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics, summaries []report.Summary) error {
	var sinks []pipeline.Sink

	if cfg.KafkaEnabled() {
		w := kafkaadapter.NewWriter(cfg, logger)
		defer func() {
			if err := w.Close(); err != nil {
				logger.Error("kafka writer close error", "error", err)
			}
		}()
		sinks = append(sinks, pipeline.Sink{Name: "kafka", Loader: w})
	}

	if cfg.SQLiteEnabled() {
		db, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			logger.Error("failed to open sqlite", "path", cfg.SQLitePath, "error", err)
			metrics.SinkWrites.WithLabelValues("sqlite", "error").Inc()
			return err
		}
		defer func() {
			if err := db.Close(); err != nil {
				logger.Error("sqlite close error", "error", err)
			}
		}()
		sinks = append(sinks, pipeline.Sink{Name: "sqlite", Loader: db})
	}

	if len(sinks) == 0 || len(summaries) == 0 {
		return nil
	}

	exportCtx, cancel := context.WithTimeout(ctx, cfg.SinkTimeout)
	defer cancel()
	return pipeline.Export(exportCtx, logger, metrics, sinks, summaries)
}

// printLatest writes the newest exported run from SQLite as JSON.
func printLatest(w io.Writer, cfg *config.Config, logger *slog.Logger) int {
	if !cfg.SQLiteEnabled() {
		logger.Error("-latest requires SQLITE_PATH")
		return exitError
	}
	db, err := sqlite.Open(cfg.SQLitePath)
	if err != nil {
		logger.Error("failed to open sqlite", "path", cfg.SQLitePath, "error", err)
		return exitError
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.SinkTimeout)
	defer cancel()
	summaries, err := db.Latest(ctx)
	if err != nil {
		logger.Error("failed to read summaries", "error", err)
		return exitError
	}
	if summaries == nil {
		summaries = []report.Summary{}
	}
	if err := report.WriteJSON(w, summaries); err != nil {
		logger.Error("failed to write summaries", "error", err)
		return exitError
	}
	return exitOK
}

func serveUntilSignal(ctx context.Context, srv *httpadapter.Server, cfg *config.Config, logger *slog.Logger) {
	logger.Info("serving summaries, press Ctrl+C to exit", "addr", cfg.HTTPAddr)
	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	logger.Info("shutdown complete")
}
