package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/climate-summary/internal/observability"
	"github.com/couchcryptid/climate-summary/internal/report"
)

// SummaryLoader persists or publishes a batch of per-state summaries.
type SummaryLoader interface {
	LoadBatch(ctx context.Context, summaries []report.Summary) error
}

// Sink is a named SummaryLoader. The name is used as the "sink" metric label.
type Sink struct {
	Name   string
	Loader SummaryLoader
}

// Export hands summaries to every sink in order. A failing sink does not stop
// the others; all failures are returned joined.
func Export(ctx context.Context, logger *slog.Logger, metrics *observability.Metrics, sinks []Sink, summaries []report.Summary) error {
	var errs []error
	for _, s := range sinks {
		if err := s.Loader.LoadBatch(ctx, summaries); err != nil {
			metrics.SinkWrites.WithLabelValues(s.Name, "error").Inc()
			logger.Error("export failed", "sink", s.Name, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", s.Name, err))
			continue
		}
		metrics.SinkWrites.WithLabelValues(s.Name, "success").Inc()
		logger.Info("summaries exported", "sink", s.Name, "states", len(summaries))
	}
	return errors.Join(errs...)
}
