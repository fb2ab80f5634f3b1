// Package report renders final per-state aggregates as the classic text report
// or as JSON summaries for sinks and the HTTP surface.
package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/climate-summary/internal/domain"
)

// Summary is the exported, read-only view of one state's aggregate.
type Summary struct {
	State              string    `json:"state"`
	Records            uint64    `json:"records"`
	AverageHumidity    float64   `json:"average_humidity"`
	AverageTemperature float64   `json:"average_temperature_f"`
	MaxTemperature     float64   `json:"max_temperature_f"`
	MaxTemperatureAt   time.Time `json:"max_temperature_at"`
	MinTemperature     float64   `json:"min_temperature_f"`
	MinTemperatureAt   time.Time `json:"min_temperature_at"`
	LightningStrikes   int64     `json:"lightning_strikes"`
	SnowRecords        int64     `json:"snow_records"`
	AverageCloudCover  float64   `json:"average_cloud_cover"`
	GeneratedAt        time.Time `json:"generated_at"`
}

// BuildSummaries converts every entry in store, in first-seen order.
// Observation times are reported in UTC.
func BuildSummaries(store *domain.Store, generatedAt time.Time) []Summary {
	entries := store.Entries()
	out := make([]Summary, 0, len(entries))
	for _, e := range entries {
		out = append(out, Summary{
			State:              e.Code,
			Records:            e.Records,
			AverageHumidity:    e.AverageHumidity(),
			AverageTemperature: e.AverageTemperature(),
			MaxTemperature:     e.MaxTemperature,
			MaxTemperatureAt:   time.Unix(e.MaxTemperatureTime, 0).UTC(),
			MinTemperature:     e.MinTemperature,
			MinTemperatureAt:   time.Unix(e.MinTemperatureTime, 0).UTC(),
			LightningStrikes:   e.LightningCount,
			SnowRecords:        e.SnowCount,
			AverageCloudCover:  e.AverageCloudCover(),
			GeneratedAt:        generatedAt.UTC(),
		})
	}
	return out
}

// WriteText renders the report: the list of states found, then one block per
// state. Extreme times are shown in loc using the ctime layout.
func WriteText(w io.Writer, store *domain.Store, loc *time.Location) error {
	if loc == nil {
		loc = time.Local
	}

	var b strings.Builder
	b.WriteString("States found: ")
	for _, code := range store.Codes() {
		b.WriteString(code)
		b.WriteByte(' ')
	}
	b.WriteByte('\n')

	for _, e := range store.Entries() {
		fmt.Fprintf(&b, "-- State: %s --\n", e.Code)
		fmt.Fprintf(&b, "Number of Records: %d\n", e.Records)
		fmt.Fprintf(&b, "Average Humidity: %.1f%%\n", e.AverageHumidity())
		fmt.Fprintf(&b, "Average Temperature: %.1fF\n", e.AverageTemperature())
		fmt.Fprintf(&b, "Max Temperature: %.1fF\n", e.MaxTemperature)
		fmt.Fprintf(&b, "Max Temperature on: %s\n", ctime(e.MaxTemperatureTime, loc))
		fmt.Fprintf(&b, "Min Temperature: %.1fF\n", e.MinTemperature)
		fmt.Fprintf(&b, "Min Temperature on: %s\n", ctime(e.MinTemperatureTime, loc))
		fmt.Fprintf(&b, "Lightning Strikes: %d\n", e.LightningCount)
		fmt.Fprintf(&b, "Records with Snow Cover: %d\n", e.SnowCount)
		fmt.Fprintf(&b, "Average Cloud Cover: %.1f%%\n", e.AverageCloudCover())
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// WriteJSON renders summaries as an indented JSON array.
func WriteJSON(w io.Writer, summaries []Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(summaries); err != nil {
		return fmt.Errorf("encode summaries: %w", err)
	}
	return nil
}

// ErrNotPublished is returned by Board.CheckReadiness before the first Publish.
var ErrNotPublished = errors.New("summaries have not been published yet")

// Board holds the most recently published summaries for concurrent readers.
// The zero value is usable and not ready until the first Publish.
type Board struct {
	p atomic.Pointer[[]Summary]
}

// Publish replaces the current summaries.
func (b *Board) Publish(summaries []Summary) {
	b.p.Store(&summaries)
}

// Summaries returns the last published summaries, or nil before the first
// Publish.
func (b *Board) Summaries() []Summary {
	if p := b.p.Load(); p != nil {
		return *p
	}
	return nil
}

// CheckReadiness returns nil once summaries have been published.
func (b *Board) CheckReadiness(_ context.Context) error {
	if b.p.Load() == nil {
		return ErrNotPublished
	}
	return nil
}

func ctime(sec int64, loc *time.Location) string {
	return time.Unix(sec, 0).In(loc).Format(time.ANSIC)
}
