// Command gentdv writes synthetic TDV observation files for exercising the
// climate command. Output is reproducible for a given seed, and the extension
// of -out selects compression (.gz, .zst, .lz4).
//
// Usage:
//
//	go run ./cmd/gentdv -out data/sample.tdv.gz -records 100000 -states TN,WA,CA
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/couchcryptid/climate-summary/internal/adapter/file"
)

const geohashAlphabet = "0123456789bcdefghjkmnpqrstuvwxyz"

type options struct {
	records  int
	states   []string
	seed     uint64
	start    time.Time
	interval time.Duration
	badEvery int
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "-", "output path, - for stdout")
	records := flag.Int("records", 1000, "number of observation lines")
	states := flag.String("states", "TN,WA,CA,TX,NY", "comma-separated state codes")
	seed := flag.Uint64("seed", 1, "random seed")
	start := flag.String("start", "2015-01-01T00:00:00Z", "timestamp of the first observation (RFC 3339)")
	interval := flag.Duration("interval", time.Hour, "time between consecutive observations")
	badEvery := flag.Int("bad-every", 0, "emit a malformed line every N lines, 0 disables")
	flag.Parse()

	startAt, err := time.Parse(time.RFC3339, *start)
	if err != nil {
		return fmt.Errorf("invalid -start: %w", err)
	}
	codes := splitStates(*states)
	if len(codes) == 0 || *records < 0 || *badEvery < 0 {
		flag.Usage()
		return fmt.Errorf("need at least one state and non-negative -records and -bad-every")
	}

	w, err := file.Create(*out)
	if err != nil {
		return err
	}

	opts := options{
		records:  *records,
		states:   codes,
		seed:     *seed,
		start:    startAt,
		interval: *interval,
		badEvery: *badEvery,
	}
	if err := generate(w, opts); err != nil {
		_ = w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close %s: %w", *out, err)
	}
	if *out != "-" {
		log.Printf("wrote %d records to %s", *records, *out)
	}
	return nil
}

func generate(w io.Writer, opts options) error {
	rng := rand.New(rand.NewPCG(opts.seed, opts.seed^0x9e3779b97f4a7c15))
	bw := bufio.NewWriter(w)

	for i := range opts.records {
		if opts.badEvery > 0 && i > 0 && i%opts.badEvery == 0 {
			fmt.Fprintf(bw, "%s\tnot-a-timestamp\n", opts.states[rng.IntN(len(opts.states))])
			continue
		}
		at := opts.start.Add(time.Duration(i) * opts.interval)
		fmt.Fprintf(bw, "%s\t%d\t%s\t%.1f\t%.1f\t%.1f\t%.1f\t%.1f\t%.1f\n",
			opts.states[rng.IntN(len(opts.states))],
			at.UnixMilli(),
			geohash(rng),
			rng.Float64()*100,
			flagValue(rng, 0.1),
			rng.Float64()*100,
			flagValue(rng, 0.05),
			95000+rng.Float64()*10000,
			240+rng.Float64()*80,
		)
	}
	return bw.Flush()
}

func flagValue(rng *rand.Rand, p float64) float64 {
	if rng.Float64() < p {
		return 1
	}
	return 0
}

func geohash(rng *rand.Rand) string {
	var b strings.Builder
	for range 12 {
		b.WriteByte(geohashAlphabet[rng.IntN(len(geohashAlphabet))])
	}
	return b.String()
}

func splitStates(s string) []string {
	var out []string
	for _, code := range strings.Split(s, ",") {
		if code = strings.TrimSpace(code); code != "" {
			out = append(out, code)
		}
	}
	return out
}
