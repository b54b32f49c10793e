package sync

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"github.com/AlignTrue/aligntrue-sync-sub003/pkg/checksum"
	"github.com/AlignTrue/aligntrue-sync-sub003/pkg/errors"
	"github.com/AlignTrue/aligntrue-sync-sub003/pkg/exporters"
	"github.com/AlignTrue/aligntrue-sync-sub003/pkg/ir"
	"github.com/AlignTrue/aligntrue-sync-sub003/pkg/logging"
	"github.com/AlignTrue/aligntrue-sync-sub003/pkg/writer"
)

// Options controls one run.
type Options struct {
	// Exporters overrides the configured exporter list.
	Exporters   []string
	DryRun      bool
	Force       bool
	Interactive bool
	Atomic      bool
	// Concurrency bounds parallel writes; zero uses the configured value.
	Concurrency int
}

// DefaultOptions returns run options taken from the configuration.
func (e *Engine) DefaultOptions() Options {
	return Options{
		Interactive: e.cfg.Sync.Interactive,
		Atomic:      e.cfg.Sync.Atomic,
		Concurrency: e.cfg.Sync.Concurrency,
	}
}

type target struct {
	exporter string
	file     exporters.OutputFile
}

// snapshot is a target's content before the run touched it.
type snapshot struct {
	existed bool
	content string
}

// Run performs one sync. The report is returned alongside any error so
// callers can show per-file results of a failed run.
func (e *Engine) Run(ctx context.Context, opts Options) (*Report, error) {
	done := logging.LogOperationStart(e.logger, "sync")
	defer done()

	start := time.Now()
	report := &Report{Status: StatusSynced}
	defer func() {
		report.Duration = time.Since(start)
	}()

	if err := ctx.Err(); err != nil {
		return report, err
	}

	names := opts.Exporters
	if len(names) == 0 {
		names = e.cfg.Exporters
	}
	if len(names) == 0 {
		report.Status = StatusNothingToDo
		report.Reason = "no exporters configured"
		return report, nil
	}
	selected, err := e.exporters.Select(names)
	if err != nil {
		return report, err
	}
	report.Exporters = names

	doc, err := e.pull(ctx, opts, report)
	if err != nil {
		report.Status = StatusFailed
		return report, err
	}
	if doc.IsEmpty() {
		report.Status = StatusNothingToDo
		report.Reason = "no rules to export"
		return report, nil
	}

	targets, managed, err := e.plan(doc, selected)
	if err != nil {
		report.Status = StatusFailed
		return report, err
	}
	e.logger.Debug().Int("files", len(targets)).Strs("exporters", names).Msg("Planned sync")

	if opts.DryRun {
		report.Status = StatusPlanned
		report.Files = e.preview(targets)
		return report, nil
	}

	if err := e.write(ctx, targets, opts, report); err != nil {
		return report, err
	}
	e.prune(targets, managed, report)
	return report, nil
}

// pull folds the edit source into the rules document and saves it when it
// changed. Edit-source files that were consumed are re-adopted by the
// writer so exporting over them is not mistaken for drift.
func (e *Engine) pull(ctx context.Context, opts Options, report *Report) (*ir.Document, error) {
	doc, found, err := e.store.Load()
	if err != nil {
		return nil, err
	}

	content, files, err := e.resolver.Load(e.cfg.EditSource)
	if err != nil {
		return nil, err
	}
	report.EditSource = files
	if strings.TrimSpace(content) == "" {
		e.logger.Debug().Str("edit_source", e.cfg.EditSource.String()).Msg("Edit source is empty")
		return doc, nil
	}

	pulled := ir.ParseMarkdown(content)
	pulled.MCPServers = doc.MCPServers

	if found && sameDocument(doc, pulled) {
		e.adopt(files)
		return doc, nil
	}

	report.IRUpdated = true
	if opts.DryRun {
		return pulled, nil
	}

	outcome, err := e.store.Save(ctx, pulled, writer.WriteOptions{
		Interactive: opts.Interactive,
		Force:       opts.Force,
	})
	if err != nil {
		return nil, err
	}
	if outcome == writer.OutcomeKept {
		report.IRUpdated = false
		doc, _, err = e.store.Load()
		if err != nil {
			return nil, err
		}
		e.adopt(files)
		return doc, nil
	}

	e.logger.Info().Str("path", e.store.Path()).Int("sections", len(pulled.Sections)).Msg("Rules updated from edit source")
	e.adopt(files)
	return pulled, nil
}

func (e *Engine) adopt(files []string) {
	for _, f := range files {
		if _, tracked := e.writer.Checksum(f); !tracked {
			continue
		}
		if err := e.writer.TrackFile(f); err != nil {
			e.logger.Debug().Err(err).Str("path", f).Msg("Could not re-adopt edit source file")
		}
	}
}

func sameDocument(a, b *ir.Document) bool {
	if a.Version == "" {
		a.Version = ir.CurrentVersion
	}
	if b.Version == "" {
		b.Version = ir.CurrentVersion
	}
	ab, err := ir.Marshal(a)
	if err != nil {
		return false
	}
	bb, err := ir.Marshal(b)
	if err != nil {
		return false
	}
	return bytes.Equal(ab, bb)
}

// plan runs every exporter. Two exporters claiming one path is an error.
// The managed patterns returned are keyed by exporter name.
func (e *Engine) plan(doc *ir.Document, selected []exporters.Exporter) ([]target, map[string][]string, error) {
	owners := make(map[string]string)
	managed := make(map[string][]string)
	var targets []target
	for _, exp := range selected {
		res, err := exp.Export(
			exporters.Request{Root: e.root, Doc: doc},
			exporters.Options{Settings: e.cfg.OptionsFor(exp.Name())},
		)
		if err != nil {
			return nil, nil, errors.Wrapf(err, errors.ErrExportFailed, "exporter %s failed", exp.Name())
		}
		if len(res.Managed) > 0 {
			managed[exp.Name()] = res.Managed
		}
		for _, f := range res.Files {
			f.Path = filepath.Clean(f.Path)
			if owner, dup := owners[f.Path]; dup {
				return nil, nil, errors.Newf(errors.ErrExportFailed,
					"exporters %s and %s both write %s", owner, exp.Name(), f.Path).
					WithDetail("file", f.Path)
			}
			owners[f.Path] = exp.Name()
			targets = append(targets, target{exporter: exp.Name(), file: f})
		}
	}
	return targets, managed, nil
}

// prune removes files an exporter wrote earlier, owns outright and no
// longer produces. Only files the writer tracks and that still hold what
// was written are removed; hand-edited ones are left and logged.
func (e *Engine) prune(targets []target, managed map[string][]string, report *Report) {
	if len(managed) == 0 {
		return
	}
	keep := make(map[string]bool, len(targets)+len(report.EditSource))
	for _, t := range targets {
		keep[t.file.Path] = true
	}
	for _, f := range report.EditSource {
		keep[filepath.Clean(f)] = true
	}

	for _, rec := range e.writer.Records() {
		if keep[rec.FilePath] {
			continue
		}
		owner := managedBy(e.root, rec.FilePath, managed)
		if owner == "" {
			continue
		}
		logger := e.logger.With().Str("path", rec.FilePath).Str("exporter", owner).Logger()

		current, err := checksum.File(e.fs, rec.FilePath)
		if err != nil {
			if errors.IsErrorCode(err, errors.ErrFileNotFound) {
				e.writer.Forget(rec.FilePath)
			}
			continue
		}
		if current != rec.Checksum {
			logger.Warn().Msg("Stale output was edited by hand, leaving it in place")
			continue
		}
		if err := e.fs.Remove(rec.FilePath); err != nil {
			logger.Warn().Err(err).Msg("Failed to remove stale output")
			continue
		}
		e.writer.Forget(rec.FilePath)
		report.Files = append(report.Files, FileResult{Path: rec.FilePath, Exporter: owner, Status: FileRemoved})
		logger.Info().Msg("Removed stale output")
	}
}

// managedBy returns the exporter whose managed patterns match path.
func managedBy(root, path string, managed map[string][]string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return ""
	}
	rel = filepath.ToSlash(rel)
	if strings.HasPrefix(rel, "../") {
		return ""
	}
	for name, patterns := range managed {
		for _, p := range patterns {
			if ok, _ := doublestar.Match(p, rel); ok {
				return name
			}
		}
	}
	return ""
}

func (e *Engine) preview(targets []target) []FileResult {
	results := make([]FileResult, len(targets))
	for i, t := range targets {
		results[i] = FileResult{Path: t.file.Path, Exporter: t.exporter, Status: FilePlanned}
		if current, err := checksum.File(e.fs, t.file.Path); err == nil && current == checksum.Content(t.file.Content) {
			results[i].Status = FileUnchanged
		}
	}
	return results
}

func (e *Engine) write(ctx context.Context, targets []target, opts Options, report *Report) error {
	limit := opts.Concurrency
	if limit < 1 {
		limit = e.cfg.Sync.Concurrency
	}
	if limit < 1 {
		limit = 1
	}

	results := make([]FileResult, len(targets))
	snapshots := make([]snapshot, len(targets))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, t := range targets {
		i, t := i, t
		g.Go(func() error {
			res := &results[i]
			*res = FileResult{Path: t.file.Path, Exporter: t.exporter}
			if gctx.Err() != nil {
				res.Status = FileSkipped
				return nil
			}

			err := e.writeOne(gctx, t, opts, res, &snapshots[i])
			if err == nil {
				return nil
			}
			if opts.Atomic && stderrors.Is(err, context.Canceled) && ctx.Err() == nil {
				res.Status = FileSkipped
				return nil
			}
			res.Status = FileFailed
			res.Err = err
			e.logger.Debug().Err(err).Str("path", t.file.Path).Msg("File failed to sync")
			if opts.Atomic {
				return err
			}
			return nil
		})
	}
	_ = g.Wait()
	report.Files = results

	failed := report.Failed()
	if len(failed) == 0 && ctx.Err() == nil {
		e.logger.Info().
			Int("written", report.Count(FileWritten)).
			Int("unchanged", report.Count(FileUnchanged)).
			Int("kept", report.Count(FileKept)).
			Msg("Sync complete")
		return nil
	}

	report.Status = StatusFailed
	var rollbackErr error
	if opts.Atomic {
		rollbackErr = e.revert(results, snapshots)
		report.RolledBack = rollbackErr == nil
	}
	if len(failed) == 0 {
		return stderrors.Join(ctx.Err(), rollbackErr)
	}
	return failureError(failed, len(targets), rollbackErr)
}

// writeOne writes one target. Content already on disk is adopted instead
// of rewritten.
func (e *Engine) writeOne(ctx context.Context, t target, opts Options, res *FileResult, snap *snapshot) error {
	path := t.file.Path
	existing, err := afero.ReadFile(e.fs, path)
	switch {
	case err == nil:
		if checksum.Content(string(existing)) == checksum.Content(t.file.Content) {
			if err := e.writer.TrackFile(path); err != nil {
				return err
			}
			res.Status = FileUnchanged
			return nil
		}
		snap.existed = true
		snap.content = string(existing)
	case os.IsNotExist(err):
	default:
		return errors.Wrapf(err, errors.ErrFileRead, "failed to read %s", path)
	}

	outcome, err := e.writer.Write(ctx, path, t.file.Content, writer.WriteOptions{
		Interactive: opts.Interactive,
		Force:       opts.Force,
	})
	if err != nil {
		return err
	}
	res.Outcome = outcome
	if outcome == writer.OutcomeKept {
		res.Status = FileKept
	} else {
		res.Status = FileWritten
	}
	return nil
}

// revert restores files this run wrote to their snapshot, removes files it
// created and rolls back the writer's pending backups.
func (e *Engine) revert(results []FileResult, snapshots []snapshot) error {
	failures := make(map[string]string)
	var errs []error

	for i := range results {
		res := &results[i]
		if res.Status != FileWritten {
			continue
		}
		var err error
		if snapshots[i].existed {
			_, err = e.writer.Write(context.Background(), res.Path, snapshots[i].content, writer.WriteOptions{Force: true})
		} else {
			err = e.fs.Remove(res.Path)
		}
		if err != nil {
			failures[res.Path] = err.Error()
			errs = append(errs, err)
			continue
		}
		res.Status = FileReverted
	}

	if err := e.writer.Rollback(); err != nil {
		errs = append(errs, err)
		if details, ok := errors.GetErrorDetails(err)["failures"].(map[string]string); ok {
			for path, cause := range details {
				failures[path] = cause
			}
		}
	}

	if len(errs) == 0 {
		e.logger.Info().Msg("Sync rolled back")
		return nil
	}
	return &errors.AlignError{
		Code:    errors.ErrRollback,
		Message: fmt.Sprintf("failed to roll back %d file(s)", len(failures)),
		Details: map[string]interface{}{"failures": failures},
		Wrapped: stderrors.Join(errs...),
	}
}

func failureError(failed []FileResult, total int, rollbackErr error) error {
	failures := make(map[string]string, len(failed))
	errs := make([]error, 0, len(failed)+1)
	for _, f := range failed {
		failures[f.Path] = f.Err.Error()
		errs = append(errs, f.Err)
	}
	if rollbackErr != nil {
		errs = append(errs, rollbackErr)
	}

	msg := fmt.Sprintf("%d of %d file(s) failed to sync", len(failed), total)
	if len(failed) == 1 {
		msg = fmt.Sprintf("%s failed to sync", failed[0].Path)
	}
	return &errors.AlignError{
		Code:    errors.ErrSyncFailed,
		Message: msg,
		Details: map[string]interface{}{"failures": failures},
		Wrapped: stderrors.Join(errs...),
	}
}
