// Package sqlite exports per-state summaries to a SQLite database so runs can
// be compared over time.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/couchcryptid/climate-summary/internal/report"
	_ "modernc.org/sqlite"
)

// generated_at is in Unix milliseconds; seq is the state's first-seen position
// within its run.
const schema = `CREATE TABLE IF NOT EXISTS state_summaries (
	state               TEXT    NOT NULL,
	generated_at        INTEGER NOT NULL,
	seq                 INTEGER NOT NULL,
	records             INTEGER NOT NULL,
	avg_humidity        REAL    NOT NULL,
	avg_temperature_f   REAL    NOT NULL,
	max_temperature_f   REAL    NOT NULL,
	max_temperature_at  INTEGER NOT NULL,
	min_temperature_f   REAL    NOT NULL,
	min_temperature_at  INTEGER NOT NULL,
	lightning_strikes   INTEGER NOT NULL,
	snow_records        INTEGER NOT NULL,
	avg_cloud_cover     REAL    NOT NULL,
	PRIMARY KEY (generated_at, state)
)`

// Exporter persists summaries in SQLite. It implements pipeline.SummaryLoader.
type Exporter struct {
	sqlDB *sql.DB
}

// Open opens (or creates) the database at path and ensures the schema exists.
func Open(path string) (*Exporter, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Exporter{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (e *Exporter) Close() error {
	if e == nil || e.sqlDB == nil {
		return nil
	}
	return e.sqlDB.Close()
}

// LoadBatch writes all summaries in one transaction, keeping their order.
// Re-exporting the same run replaces its rows.
func (e *Exporter) LoadBatch(ctx context.Context, summaries []report.Summary) error {
	if len(summaries) == 0 {
		return nil
	}
	tx, err := e.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO state_summaries (
		state, generated_at, seq, records, avg_humidity, avg_temperature_f,
		max_temperature_f, max_temperature_at, min_temperature_f, min_temperature_at,
		lightning_strikes, snow_records, avg_cloud_cover
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, s := range summaries {
		if _, err := stmt.ExecContext(ctx,
			s.State,
			s.GeneratedAt.UnixMilli(),
			i,
			int64(s.Records),
			s.AverageHumidity,
			s.AverageTemperature,
			s.MaxTemperature,
			s.MaxTemperatureAt.Unix(),
			s.MinTemperature,
			s.MinTemperatureAt.Unix(),
			s.LightningStrikes,
			s.SnowRecords,
			s.AverageCloudCover,
		); err != nil {
			return fmt.Errorf("insert summary %s: %w", s.State, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Latest returns the summaries of the most recent export in the order they
// were written. It returns nil when nothing has been exported.
func (e *Exporter) Latest(ctx context.Context) ([]report.Summary, error) {
	rows, err := e.sqlDB.QueryContext(ctx, `SELECT
		state, generated_at, records, avg_humidity, avg_temperature_f,
		max_temperature_f, max_temperature_at, min_temperature_f, min_temperature_at,
		lightning_strikes, snow_records, avg_cloud_cover
	FROM state_summaries
	WHERE generated_at = (SELECT MAX(generated_at) FROM state_summaries)
	ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("query summaries: %w", err)
	}
	defer rows.Close()

	var out []report.Summary
	for rows.Next() {
		var (
			s                       report.Summary
			generated, maxAt, minAt int64
			records                 int64
		)
		if err := rows.Scan(
			&s.State, &generated, &records, &s.AverageHumidity, &s.AverageTemperature,
			&s.MaxTemperature, &maxAt, &s.MinTemperature, &minAt,
			&s.LightningStrikes, &s.SnowRecords, &s.AverageCloudCover,
		); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		s.Records = uint64(records)
		s.GeneratedAt = time.UnixMilli(generated).UTC()
		s.MaxTemperatureAt = unixUTC(maxAt)
		s.MinTemperatureAt = unixUTC(minAt)
		out = append(out, s)
	}
	return out, rows.Err()
}

func unixUTC(sec int64) time.Time {
	return time.Unix(sec, 0).UTC()
}
