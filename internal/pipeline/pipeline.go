package pipeline

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/couchcryptid/climate-summary/internal/domain"
	"github.com/couchcryptid/climate-summary/internal/observability"
	"github.com/jonboulle/clockwork"
)

// SourceOpener opens a named line source. Failures to open are the opener's
// concern; the pipeline only logs and skips them.
type SourceOpener interface {
	Open(name string) (io.ReadCloser, error)
}

// FileStats describes the ingestion of one source.
type FileStats struct {
	Name      string
	Lines     int // non-blank lines read
	Applied   int
	Malformed int // too few fields, empty state code, or over MaxLineBytes
	Invalid   int // a numeric field failed to parse
	Blank     int
	Duration  time.Duration
}

// Skipped returns the number of lines that did not reach the store.
func (s FileStats) Skipped() int { return s.Malformed + s.Invalid }

// RunStats describes a multi-source run.
type RunStats struct {
	Files       []FileStats
	Unavailable []string // could not be opened
	Failed      []string // opened, but reading stopped on an I/O error
}

// Applied returns the total number of observations folded into the store.
func (s RunStats) Applied() int {
	n := 0
	for _, f := range s.Files {
		n += f.Applied
	}
	return n
}

// Skipped returns the total number of lines that failed to decode.
func (s RunStats) Skipped() int {
	n := 0
	for _, f := range s.Files {
		n += f.Skipped()
	}
	return n
}

// Pipeline drives sources line by line through the decoder into a store.
// A Pipeline is a single writer: sources and lines are processed strictly in
// order so first-wins extreme timestamps are deterministic.
type Pipeline struct {
	opener       SourceOpener
	logger       *slog.Logger
	metrics      *observability.Metrics
	clock        clockwork.Clock
	maxLineBytes int
	progress     io.Writer
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithClock overrides the time source used for ingestion durations.
func WithClock(c clockwork.Clock) Option {
	return func(p *Pipeline) { p.clock = c }
}

// WithMaxLineBytes bounds the length of a single line. Longer lines are
// skipped as malformed.
func WithMaxLineBytes(n int) Option {
	return func(p *Pipeline) { p.maxLineBytes = n }
}

// WithProgress writes "Opening file" and missing-file notices to w.
func WithProgress(w io.Writer) Option {
	return func(p *Pipeline) { p.progress = w }
}

const defaultMaxLineBytes = 64 * 1024

// New creates a Pipeline reading sources through opener.
func New(opener SourceOpener, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Pipeline {
	p := &Pipeline{
		opener:       opener,
		logger:       logger,
		metrics:      metrics,
		clock:        clockwork.NewRealClock(),
		maxLineBytes: defaultMaxLineBytes,
		progress:     io.Discard,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run ingests every named source in order into store. Sources that cannot be
// opened or read are logged and skipped; the only error returned is context
// cancellation.
func (p *Pipeline) Run(ctx context.Context, names []string, store *domain.Store) (RunStats, error) {
	var run RunStats
	p.logger.Info("ingestion started", "sources", len(names))

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return run, err
		}

		rc, err := p.opener.Open(name)
		if err != nil {
			p.logger.Error("source unavailable, skipping", "file", name, "error", err)
			fmt.Fprintf(p.progress, "ERROR: %s does not exist\n", name)
			p.metrics.FilesUnavailable.Inc()
			run.Unavailable = append(run.Unavailable, name)
			continue
		}

		fmt.Fprintf(p.progress, "Opening file: %s\n", name)
		stats, err := p.Ingest(ctx, name, rc, store)
		if cerr := rc.Close(); cerr != nil {
			p.logger.Warn("close source failed", "file", name, "error", cerr)
		}
		run.Files = append(run.Files, stats)
		p.metrics.FilesProcessed.Inc()

		if err != nil {
			if ctx.Err() != nil {
				return run, ctx.Err()
			}
			p.logger.Error("read source failed, keeping records applied so far",
				"file", name, "line", stats.Lines+stats.Blank, "error", err)
			run.Failed = append(run.Failed, name)
		}
	}

	p.logger.Info("ingestion complete",
		"files", len(run.Files),
		"unavailable", len(run.Unavailable),
		"applied", run.Applied(),
		"skipped", run.Skipped(),
		"states", store.Len(),
	)
	return run, nil
}

// Ingest folds every decodable line of r into store. Lines that fail to
// decode are logged and skipped. A read error stops this source only; records
// applied before it stay applied.
func (p *Pipeline) Ingest(ctx context.Context, name string, r io.Reader, store *domain.Store) (stats FileStats, err error) {
	stats = FileStats{Name: name}
	start := p.clock.Now()
	defer func() {
		stats.Duration = p.clock.Since(start)
		p.metrics.FileIngestDuration.Observe(stats.Duration.Seconds())
	}()

	br := bufio.NewReaderSize(r, p.maxLineBytes+1) // +1 for the newline
	lineNo := 0

	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		line, err := br.ReadSlice('\n')
		if errors.Is(err, bufio.ErrBufferFull) {
			lineNo++
			stats.Lines++
			p.metrics.LinesRead.Inc()
			if err = discardRestOfLine(br); err != nil && !errors.Is(err, io.EOF) {
				return stats, fmt.Errorf("read %s: %w", name, err)
			}
			p.skip(&stats, name, lineNo, fmt.Errorf("%w: longer than %d bytes", domain.ErrMalformedLine, p.maxLineBytes))
			if errors.Is(err, io.EOF) {
				return stats, nil
			}
			continue
		}

		if len(line) > 0 {
			lineNo++
			p.process(&stats, name, lineNo, line, store)
		}

		if errors.Is(err, io.EOF) {
			return stats, nil
		}
		if err != nil {
			return stats, fmt.Errorf("read %s: %w", name, err)
		}
	}
}

func (p *Pipeline) process(stats *FileStats, name string, lineNo int, line []byte, store *domain.Store) {
	if len(bytes.TrimSpace(line)) == 0 {
		stats.Blank++
		return
	}

	stats.Lines++
	p.metrics.LinesRead.Inc()

	obs, err := domain.DecodeLine(string(line))
	if err != nil {
		p.skip(stats, name, lineNo, err)
		return
	}

	isNew := !store.Has(obs.State)
	store.Apply(obs)
	stats.Applied++
	p.metrics.RecordsApplied.Inc()
	if isNew {
		p.metrics.StatesTracked.Set(float64(store.Len()))
		p.logger.Debug("new state code", "state", obs.State, "file", name, "line", lineNo)
	}
}

func (p *Pipeline) skip(stats *FileStats, name string, lineNo int, err error) {
	reason := observability.ReasonMalformed
	if errors.Is(err, domain.ErrNumericParse) {
		reason = observability.ReasonNumeric
		stats.Invalid++
	} else {
		stats.Malformed++
	}
	p.metrics.LinesSkipped.WithLabelValues(reason).Inc()
	p.logger.Warn("skipping line", "file", name, "line", lineNo, "reason", reason, "error", err)
}

// discardRestOfLine consumes input up to and including the next newline.
func discardRestOfLine(br *bufio.Reader) error {
	for {
		_, err := br.ReadSlice('\n')
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		return err
	}
}
