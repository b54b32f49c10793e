package writer

import (
	"context"
	"time"

	"github.com/AlignTrue/aligntrue-sync-sub003/pkg/checksum"
	"github.com/AlignTrue/aligntrue-sync-sub003/pkg/errors"
)

// Record is the ledger entry for one tracked file.
type Record struct {
	FilePath  string    `json:"filePath"`
	Checksum  string    `json:"checksum"`
	Timestamp time.Time `json:"timestamp"`
}

// ISOTimestamp renders the record time as ISO-8601.
func (r Record) ISOTimestamp() string {
	return r.Timestamp.UTC().Format(time.RFC3339Nano)
}

// Outcome reports what Write did with a file.
type Outcome string

const (
	// OutcomeWritten means the new content is now on disk.
	OutcomeWritten Outcome = "written"
	// OutcomeKept means drift was detected and the handler chose to keep
	// the current file; nothing was written.
	OutcomeKept Outcome = "kept"
)

// WriteOptions are passed through to the checksum handler.
type WriteOptions struct {
	Interactive bool
	Force       bool
}

// Resolution is a checksum handler verdict.
type Resolution string

const (
	ResolutionOverwrite Resolution = "overwrite"
	ResolutionKeep      Resolution = "keep"
	ResolutionAbort     Resolution = "abort"
)

// Conflict describes a drifted file.
type Conflict struct {
	FilePath        string
	LastChecksum    string
	CurrentChecksum string
	Interactive     bool
	Force           bool
}

// ChecksumHandler decides what to do with a drifted file.
type ChecksumHandler func(ctx context.Context, c Conflict) (Resolution, error)

// ErrConflict matches any checksum conflict error with errors.Is.
var ErrConflict = errors.New(errors.ErrChecksumDrift, "checksum conflict")

func conflictError(c Conflict) *errors.AlignError {
	return errors.Newf(errors.ErrChecksumDrift,
		"%s was modified outside aligntrue (last written %s, now %s); re-run with --force to overwrite",
		c.FilePath, checksum.Short(c.LastChecksum), checksum.Short(c.CurrentChecksum)).
		WithDetail("file", c.FilePath).
		WithDetail("last_checksum", c.LastChecksum).
		WithDetail("current_checksum", c.CurrentChecksum)
}
