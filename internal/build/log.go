// Package build carries the logging and version plumbing shared by the
// binaries in this repository. Library packages stay silent until a
// binary hands them a logger, which may write through a RotatingWriter
// built here.
package build

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/jrick/logrotate/rotator"
)

// RotatingWriter is an io.WriteCloser over a size-capped log file.
// Rotated-out files are gzip compressed; combine it with the console via
// io.MultiWriter to get dual-stream logging.
type RotatingWriter struct {
	// pipe is the write end feeding the rotator goroutine.
	pipe *io.PipeWriter
}

// NewRotatingWriter opens dir/name for rotating log output, creating the
// directory if needed. maxFileSizeMB is the rotation threshold and
// maxFiles bounds how many rotated files stay on disk; a maxFiles of
// zero keeps a single file that grows without bound.
func NewRotatingWriter(dir, name string, maxFiles,
	maxFileSizeMB int) (*RotatingWriter, error) {

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	// The rotator takes its threshold in KB.
	rot, err := rotator.New(
		filepath.Join(dir, name),
		int64(maxFileSizeMB*1024), false, maxFiles,
	)
	if err != nil {
		return nil, fmt.Errorf("create file rotator: %w", err)
	}
	rot.SetCompressor(gzip.NewWriter(nil), ".gz")

	// The rotator consumes the read end of a pipe in the background.
	// Its own failures can only go to stderr, since it is the log
	// destination.
	pr, pw := io.Pipe()
	go func() {
		if err := rot.Run(pr); err != nil {
			fmt.Fprintf(os.Stderr,
				"file rotator stopped: %v\n", err)
		}
	}()

	return &RotatingWriter{pipe: pw}, nil
}

// Write feeds the rotator.
func (w *RotatingWriter) Write(b []byte) (int, error) {
	return w.pipe.Write(b)
}

// Close flushes pending writes and stops the rotator goroutine.
func (w *RotatingWriter) Close() error {
	return w.pipe.Close()
}
