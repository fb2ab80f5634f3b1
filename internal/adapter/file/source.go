// Package file opens TDV observation sources from disk or stdin, transparently
// decompressing gzip, zstd, and lz4 files by extension.
package file

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// ErrSourceUnavailable is returned when a source cannot be opened or its
// compression header cannot be read.
var ErrSourceUnavailable = errors.New("source unavailable")

// StdinName selects standard input as a source.
const StdinName = "-"

// Opener implements pipeline.SourceOpener for local files.
type Opener struct {
	stdin io.Reader
}

// NewOpener creates an Opener that reads "-" from os.Stdin.
func NewOpener() *Opener {
	return &Opener{stdin: os.Stdin}
}

// Open returns a reader over the decompressed contents of path.
func (o *Opener) Open(path string) (io.ReadCloser, error) {
	if path == StdinName {
		return io.NopCloser(o.stdin), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrSourceUnavailable, path, err)
	}

	rc, err := decompress(path, f)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%w: %s: %w", ErrSourceUnavailable, path, err)
	}
	return rc, nil
}

// Compression names the codec chosen for a path.
func Compression(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz", ".gzip":
		return "gzip"
	case ".zst", ".zstd":
		return "zstd"
	case ".lz4":
		return "lz4"
	default:
		return "none"
	}
}

func decompress(path string, f *os.File) (io.ReadCloser, error) {
	switch Compression(path) {
	case "gzip":
		zr, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("gzip header: %w", err)
		}
		return &stackedReader{Reader: zr, closers: []io.Closer{zr, f}}, nil
	case "zstd":
		zr, err := zstd.NewReader(f, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, fmt.Errorf("zstd decoder: %w", err)
		}
		return &stackedReader{Reader: zr, closers: []io.Closer{zstdCloser{zr}, f}}, nil
	case "lz4":
		return &stackedReader{Reader: lz4.NewReader(f), closers: []io.Closer{f}}, nil
	default:
		return f, nil
	}
}

// stackedReader closes a decompressor and its underlying file together.
type stackedReader struct {
	io.Reader
	closers []io.Closer
}

func (s *stackedReader) Close() error {
	var errs []error
	for _, c := range s.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// zstd.Decoder.Close returns nothing.
type zstdCloser struct{ d *zstd.Decoder }

func (z zstdCloser) Close() error {
	z.d.Close()
	return nil
}
