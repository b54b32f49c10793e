package writer

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/AlignTrue/aligntrue-sync-sub003/pkg/checksum"
	"github.com/AlignTrue/aligntrue-sync-sub003/pkg/errors"
	"github.com/AlignTrue/aligntrue-sync-sub003/pkg/filesystem"
	"github.com/AlignTrue/aligntrue-sync-sub003/pkg/logging"
)

const (
	writePrefix  = "aligntrue-write-"
	backupPrefix = "aligntrue-backup-"
)

// Writer places file content atomically and detects out-of-band edits.
type Writer struct {
	fs       afero.Fs
	tempRoot string
	handler  ChecksumHandler
	now      func() time.Time
	logger   zerolog.Logger

	mu        sync.Mutex
	checksums map[string]Record
	backups   map[string]string
}

// New creates a Writer with empty ledgers.
func New(opts ...Option) *Writer {
	w := &Writer{
		fs:        afero.NewOsFs(),
		now:       time.Now,
		logger:    logging.GetLogger("core.writer"),
		checksums: make(map[string]Record),
		backups:   make(map[string]string),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// FS returns the filesystem the writer operates on.
func (w *Writer) FS() afero.Fs {
	return w.fs
}

// SetChecksumHandler replaces the drift policy. A nil handler restores the
// default, which fails every drifted write.
func (w *Writer) SetChecksumHandler(h ChecksumHandler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handler = h
}

// Write places content at filePath.
//
// If the writer has a record for filePath and the file on disk no longer
// matches it, the checksum handler decides: overwrite proceeds, keep
// returns OutcomeKept without touching the file, abort (or no handler)
// returns a CHECKSUM_CONFLICT error. On any failure the destination is
// left as it was and its backup is retained for Rollback.
func (w *Writer) Write(ctx context.Context, filePath, content string, opts WriteOptions) (Outcome, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	path, err := absPath(filePath)
	if err != nil {
		return "", err
	}
	logger := w.logger.With().Str("path", path).Logger()

	if err := filesystem.EnsureDir(w.fs, filepath.Dir(path)); err != nil {
		return "", err
	}

	exists, err := filesystem.Exists(w.fs, path)
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrFileRead, "failed to stat %s", path)
	}

	if exists {
		if record, ok := w.Checksum(path); ok {
			current, err := checksum.File(w.fs, path)
			if err != nil {
				return "", err
			}
			if current != record.Checksum {
				c := Conflict{
					FilePath:        path,
					LastChecksum:    record.Checksum,
					CurrentChecksum: current,
					Interactive:     opts.Interactive,
					Force:           opts.Force,
				}
				resolution, err := w.resolve(ctx, c)
				if err != nil {
					return "", err
				}
				switch resolution {
				case ResolutionKeep:
					logger.Info().
						Str("current", checksum.Short(current)).
						Msg("Keeping manually edited file")
					return OutcomeKept, nil
				case ResolutionOverwrite:
					logger.Warn().
						Str("last", checksum.Short(record.Checksum)).
						Str("current", checksum.Short(current)).
						Msg("Overwriting manually edited file")
				default:
					return "", conflictError(c)
				}
			}
		}

		if err := w.backup(path); err != nil {
			return "", err
		}
	}

	mode := os.FileMode(filesystem.FilePerm)
	if exists {
		if info, err := w.fs.Stat(path); err == nil {
			mode = info.Mode().Perm()
		}
	}

	if err := w.commit(path, []byte(content), mode); err != nil {
		logger.Error().Err(err).Msg("Write failed, backup retained")
		return "", errors.Wrapf(err, errors.ErrFileWrite, "failed to write %s", path)
	}

	w.mu.Lock()
	w.checksums[path] = Record{
		FilePath:  path,
		Checksum:  checksum.Content(content),
		Timestamp: w.now(),
	}
	backup := w.backups[path]
	delete(w.backups, path)
	w.mu.Unlock()

	w.discardBackup(backup)

	logger.Debug().Int("bytes", len(content)).Msg("File written")
	return OutcomeWritten, nil
}

// resolve consults the registered handler. Handler errors and unknown
// verdicts are treated as abort.
func (w *Writer) resolve(ctx context.Context, c Conflict) (Resolution, error) {
	w.mu.Lock()
	handler := w.handler
	w.mu.Unlock()

	if handler == nil {
		return ResolutionAbort, nil
	}

	resolution, err := handler(ctx, c)
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrChecksumDrift,
			"failed to resolve conflict for %s", c.FilePath).
			WithDetail("file", c.FilePath)
	}
	switch resolution {
	case ResolutionOverwrite, ResolutionKeep:
		return resolution, nil
	default:
		return ResolutionAbort, nil
	}
}

// commit writes data into a fresh temp directory and moves it onto path.
func (w *Writer) commit(path string, data []byte, mode os.FileMode) error {
	dir, err := filesystem.TempDir(w.fs, w.tempRoot, writePrefix)
	if err != nil {
		return err
	}
	defer func() {
		if err := filesystem.RemoveTemp(w.fs, dir); err != nil {
			w.logger.Debug().Err(err).Str("dir", dir).Msg("Failed to remove temp directory")
		}
	}()

	tmp := filepath.Join(dir, filepath.Base(path))
	if err := filesystem.WriteFile(w.fs, tmp, data, mode); err != nil {
		return err
	}
	return filesystem.MoveFile(w.fs, tmp, path)
}

// backup copies the current content of path into its own temp directory
// and records it, replacing any stale backup left by an earlier failure.
func (w *Writer) backup(path string) error {
	dir, err := filesystem.TempDir(w.fs, w.tempRoot, backupPrefix)
	if err != nil {
		return errors.Wrapf(err, errors.ErrBackup, "failed to create backup for %s", path)
	}
	dest := filepath.Join(dir, filepath.Base(path))
	if err := filesystem.CopyFile(w.fs, path, dest); err != nil {
		_ = filesystem.RemoveTemp(w.fs, dir)
		return errors.Wrapf(err, errors.ErrBackup, "failed to create backup for %s", path)
	}

	w.mu.Lock()
	stale := w.backups[path]
	w.backups[path] = dest
	w.mu.Unlock()

	w.discardBackup(stale)
	return nil
}

func (w *Writer) discardBackup(backup string) {
	if backup == "" {
		return
	}
	if err := filesystem.RemoveTemp(w.fs, filepath.Dir(backup)); err != nil {
		w.logger.Debug().Err(err).Str("backup", backup).Msg("Failed to remove backup")
	}
}

// Rollback restores every file that still has a backup. It attempts all of
// them, clears the backup ledger regardless of outcome, and reports every
// failure in a single ROLLBACK error.
func (w *Writer) Rollback() error {
	w.mu.Lock()
	backups := w.backups
	w.backups = make(map[string]string)
	w.mu.Unlock()

	if len(backups) == 0 {
		return nil
	}

	paths := make([]string, 0, len(backups))
	for p := range backups {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	failures := make(map[string]string)
	var errs []error
	for _, path := range paths {
		backup := backups[path]
		if err := w.restore(path, backup); err != nil {
			w.logger.Error().Err(err).Str("path", path).Msg("Failed to restore backup")
			failures[path] = err.Error()
			errs = append(errs, fmt.Errorf("%s: %w", path, err))
			continue
		}
		w.logger.Info().Str("path", path).Msg("Restored from backup")
		w.discardBackup(backup)
	}

	if len(failures) == 0 {
		return nil
	}

	failed := make([]string, 0, len(failures))
	for p := range failures {
		failed = append(failed, p)
	}
	sort.Strings(failed)

	rollbackErr := errors.Newf(errors.ErrRollback,
		"rollback failed for %d file(s): %s", len(failed), strings.Join(failed, ", ")).
		WithDetail("failures", failures)
	rollbackErr.Wrapped = stderrors.Join(errs...)
	return rollbackErr
}

func (w *Writer) restore(path, backup string) error {
	exists, err := filesystem.Exists(w.fs, backup)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("backup %s is missing", backup)
	}

	data, err := afero.ReadFile(w.fs, backup)
	if err != nil {
		return err
	}
	mode := os.FileMode(filesystem.FilePerm)
	if info, err := w.fs.Stat(backup); err == nil {
		mode = info.Mode().Perm()
	}
	if err := filesystem.EnsureDir(w.fs, filepath.Dir(path)); err != nil {
		return err
	}
	return w.commit(path, data, mode)
}

// TrackFile records the current on-disk digest of filePath without
// writing it, so later writes detect edits made after this point.
func (w *Writer) TrackFile(filePath string) error {
	path, err := absPath(filePath)
	if err != nil {
		return err
	}
	sum, err := checksum.File(w.fs, path)
	if err != nil {
		return err
	}

	w.mu.Lock()
	w.checksums[path] = Record{FilePath: path, Checksum: sum, Timestamp: w.now()}
	w.mu.Unlock()

	w.logger.Debug().Str("path", path).Str("checksum", checksum.Short(sum)).Msg("Tracking file")
	return nil
}

// Checksum returns the record for filePath, if any.
func (w *Writer) Checksum(filePath string) (Record, bool) {
	path, err := absPath(filePath)
	if err != nil {
		return Record{}, false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	r, ok := w.checksums[path]
	return r, ok
}

// Records returns a snapshot of every checksum record, sorted by path.
func (w *Writer) Records() []Record {
	w.mu.Lock()
	records := make([]Record, 0, len(w.checksums))
	for _, r := range w.checksums {
		records = append(records, r)
	}
	w.mu.Unlock()

	sort.Slice(records, func(i, j int) bool {
		return records[i].FilePath < records[j].FilePath
	})
	return records
}

// PendingBackups returns the paths that currently have a backup.
func (w *Writer) PendingBackups() []string {
	w.mu.Lock()
	paths := make([]string, 0, len(w.backups))
	for p := range w.backups {
		paths = append(paths, p)
	}
	w.mu.Unlock()

	sort.Strings(paths)
	return paths
}

// Forget drops the record for filePath, for a file that was removed on
// purpose.
func (w *Writer) Forget(filePath string) {
	path, err := absPath(filePath)
	if err != nil {
		return
	}
	w.mu.Lock()
	delete(w.checksums, path)
	w.mu.Unlock()
}

// Clear forgets every checksum record and backup. Backup files are
// removed from disk.
func (w *Writer) Clear() {
	w.mu.Lock()
	backups := w.backups
	w.checksums = make(map[string]Record)
	w.backups = make(map[string]string)
	w.mu.Unlock()

	for _, backup := range backups {
		w.discardBackup(backup)
	}
}

func absPath(p string) (string, error) {
	if p == "" {
		return "", errors.New(errors.ErrInvalidInput, "file path is empty")
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrInvalidInput, "invalid path %s", p)
	}
	return abs, nil
}
