package writer

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// Option configures a Writer.
type Option func(*Writer)

// WithFS sets the filesystem. The default is the OS filesystem.
func WithFS(fs afero.Fs) Option {
	return func(w *Writer) {
		w.fs = fs
	}
}

// WithTempRoot sets where temp and backup directories are created. The
// default is os.TempDir().
func WithTempRoot(dir string) Option {
	return func(w *Writer) {
		w.tempRoot = dir
	}
}

// WithChecksumHandler registers the drift policy.
func WithChecksumHandler(h ChecksumHandler) Option {
	return func(w *Writer) {
		w.handler = h
	}
}

// WithClock overrides the time source used for record timestamps.
func WithClock(now func() time.Time) Option {
	return func(w *Writer) {
		w.now = now
	}
}

// WithLogger overrides the component logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(w *Writer) {
		w.logger = logger
	}
}
