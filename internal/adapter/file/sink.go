package file

import (
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Create opens path for writing, compressing by extension the same way Open
// decompresses. "-" writes to standard output. Closing the writer flushes the
// compressor and closes the file.
func Create(path string) (io.WriteCloser, error) {
	if path == StdinName {
		return nopWriteCloser{os.Stdout}, nil
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}

	switch Compression(path) {
	case "gzip":
		zw := gzip.NewWriter(f)
		return &stackedWriter{Writer: zw, closers: []io.Closer{zw, f}}, nil
	case "zstd":
		zw, err := zstd.NewWriter(f)
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("zstd encoder: %w", err)
		}
		return &stackedWriter{Writer: zw, closers: []io.Closer{zw, f}}, nil
	case "lz4":
		zw := lz4.NewWriter(f)
		return &stackedWriter{Writer: zw, closers: []io.Closer{zw, f}}, nil
	default:
		return f, nil
	}
}

// stackedWriter closes a compressor before its underlying file.
type stackedWriter struct {
	io.Writer
	closers []io.Closer
}

func (s *stackedWriter) Close() error {
	return (&stackedReader{closers: s.closers}).Close()
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }
