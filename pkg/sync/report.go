package sync

import (
	"time"

	"github.com/AlignTrue/aligntrue-sync-sub003/pkg/writer"
)

// Status is the overall result of a run.
type Status string

const (
	StatusSynced Status = "synced"
	// StatusNothingToDo is the expected early exit: no exporters are
	// configured or there are no rules to export.
	StatusNothingToDo Status = "nothing-to-do"
	StatusPlanned     Status = "planned"
	StatusFailed      Status = "failed"
)

// FileStatus is what happened to one output file.
type FileStatus string

const (
	FileWritten   FileStatus = "written"
	FileKept      FileStatus = "kept"
	FileUnchanged FileStatus = "unchanged"
	FilePlanned   FileStatus = "planned"
	FileFailed    FileStatus = "failed"
	FileSkipped   FileStatus = "skipped"
	FileReverted  FileStatus = "reverted"
	// FileRemoved is a stale output the exporter no longer produces.
	FileRemoved FileStatus = "removed"
)

// FileResult is the per-file outcome of a run.
type FileResult struct {
	Path     string
	Exporter string
	Status   FileStatus
	Outcome  writer.Outcome
	Err      error
}

// Report describes a run.
type Report struct {
	Status Status
	// Reason explains StatusNothingToDo.
	Reason     string
	EditSource []string
	IRUpdated  bool
	Exporters  []string
	Files      []FileResult
	RolledBack bool
	Duration   time.Duration
}

// Count returns the number of files with status s.
func (r *Report) Count(s FileStatus) int {
	n := 0
	for _, f := range r.Files {
		if f.Status == s {
			n++
		}
	}
	return n
}

// Failed returns the files that failed.
func (r *Report) Failed() []FileResult {
	var failed []FileResult
	for _, f := range r.Files {
		if f.Status == FileFailed {
			failed = append(failed, f)
		}
	}
	return failed
}
