package editsource

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/AlignTrue/aligntrue-sync-sub003/pkg/archive"
	"github.com/AlignTrue/aligntrue-sync-sub003/pkg/errors"
	"github.com/AlignTrue/aligntrue-sync-sub003/pkg/logging"
	"github.com/AlignTrue/aligntrue-sync-sub003/pkg/writer"
)

// Strategy names how old and new edit-source content are reconciled.
type Strategy string

const (
	// KeepBoth concatenates old then new content and discards nothing.
	KeepBoth Strategy = "keep-both"
	// KeepNew adopts the new content and moves the old files to the archive.
	KeepNew Strategy = "keep-new"
	// KeepExisting keeps the current IR content and moves the new files to
	// the archive.
	KeepExisting Strategy = "keep-existing"
	// NewSourceIsTruth is the single-direction default: move the old files
	// to the archive and adopt the new content.
	NewSourceIsTruth Strategy = "new-source-is-truth"
)

// Strategies lists every strategy in display order.
func Strategies() []Strategy {
	return []Strategy{KeepBoth, KeepNew, KeepExisting, NewSourceIsTruth}
}

// ParseStrategy validates a strategy name. An empty name selects
// NewSourceIsTruth.
func ParseStrategy(name string) (Strategy, error) {
	if name == "" {
		return NewSourceIsTruth, nil
	}
	for _, s := range Strategies() {
		if string(s) == name {
			return s, nil
		}
	}
	return "", errors.Newf(errors.ErrMergeStrategy, "unknown merge strategy %q", name).
		WithDetail("valid", Strategies())
}

// Discards reports whether the strategy moves files whose content is not
// carried into the result.
func (s Strategy) Discards() bool {
	return s != KeepBoth
}

// MergeRequest describes an edit-source change.
type MergeRequest struct {
	Old      Spec
	New      Spec
	Strategy Strategy
	// CurrentIR is the content kept by KeepExisting.
	CurrentIR string
	// Interactive is passed to the writer for archive writes.
	Interactive bool
}

// MergeResult is the reconciled content plus the files that were archived
// along the way.
type MergeResult struct {
	Content string
	// Unsourced is the part of Content that no file of the new edit source
	// holds once the merge is done. It must be written into the new source
	// or the next sync drops it.
	Unsourced     string
	BackedUpFiles []string
	Summary       string
}

// Merger applies merge strategies. Archive writes go through the writer so
// they are atomic like every other file aligntrue produces; the original is
// removed only after every archive write succeeded.
type Merger struct {
	resolver *Resolver
	writer   *writer.Writer
	dest     archive.Destination
	logger   zerolog.Logger
}

// NewMerger returns a Merger that resolves patterns with r, writes archive
// files with w and places them with dest.
func NewMerger(r *Resolver, w *writer.Writer, dest archive.Destination) *Merger {
	return &Merger{
		resolver: r,
		writer:   w,
		dest:     dest,
		logger:   logging.GetLogger("core.editsource"),
	}
}

// Merge reconciles req.Old and req.New under req.Strategy.
func (m *Merger) Merge(ctx context.Context, req MergeRequest) (*MergeResult, error) {
	strategy := req.Strategy
	if strategy == "" {
		strategy = NewSourceIsTruth
	}

	logger := m.logger.With().
		Str("strategy", string(strategy)).
		Str("old", req.Old.String()).
		Str("new", req.New.String()).
		Logger()
	logger.Debug().Msg("Merging edit source change")

	switch strategy {
	case KeepBoth:
		oldFiles, err := m.resolver.Resolve(req.Old)
		if err != nil {
			return nil, err
		}
		newFiles, err := m.resolver.Resolve(req.New)
		if err != nil {
			return nil, err
		}
		oldContent, oldLoaded := m.resolver.LoadFiles(oldFiles)
		newContent, newLoaded := m.resolver.LoadFiles(newFiles)
		carried, _ := m.resolver.LoadFiles(without(oldFiles, newFiles))
		return &MergeResult{
			Content:       joinNonEmpty(oldContent, newContent),
			Unsourced:     carried,
			BackedUpFiles: []string{},
			Summary: fmt.Sprintf("Merged %d old and %d new edit source file(s)",
				len(oldLoaded), len(newLoaded)),
		}, nil

	case KeepNew, NewSourceIsTruth:
		newFiles, err := m.resolver.Resolve(req.New)
		if err != nil {
			return nil, err
		}
		newContent, newLoaded := m.resolver.LoadFiles(newFiles)
		oldFiles, err := m.resolver.Resolve(req.Old)
		if err != nil {
			return nil, err
		}
		// files shared with the new source carry new content and stay
		backedUp, err := m.archive(ctx, without(oldFiles, newFiles), req.Interactive)
		if err != nil {
			return nil, err
		}
		summary := fmt.Sprintf("Adopted %d new edit source file(s)", len(newLoaded))
		if len(backedUp) > 0 {
			summary += fmt.Sprintf(", archived %d old file(s)", len(backedUp))
		}
		return &MergeResult{Content: newContent, BackedUpFiles: backedUp, Summary: summary}, nil

	case KeepExisting:
		newFiles, err := m.resolver.Resolve(req.New)
		if err != nil {
			return nil, err
		}
		backedUp, err := m.archive(ctx, newFiles, req.Interactive)
		if err != nil {
			return nil, err
		}
		summary := "Kept existing rules"
		if len(backedUp) > 0 {
			summary += fmt.Sprintf(", archived %d new file(s)", len(backedUp))
		}
		return &MergeResult{
			Content:       req.CurrentIR,
			Unsourced:     req.CurrentIR,
			BackedUpFiles: backedUp,
			Summary:       summary,
		}, nil

	default:
		return nil, errors.Newf(errors.ErrMergeStrategy, "unknown merge strategy %q", strategy)
	}
}

// archive moves files into the archive. Every file is written to the
// archive before any original is removed, so a failed archive write leaves
// the edit source untouched.
func (m *Merger) archive(ctx context.Context, files []string, interactive bool) ([]string, error) {
	for _, f := range files {
		data, err := afero.ReadFile(m.resolver.fs, f)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrBackup, "failed to read %s for backup", f)
		}
		dest, err := m.dest(f)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrBackup, "no backup destination for %s", f)
		}
		if _, err := m.writer.Write(ctx, dest, string(data), writer.WriteOptions{
			Interactive: interactive,
			Force:       true,
		}); err != nil {
			return nil, errors.Wrapf(err, errors.ErrBackup, "failed to back up %s", f)
		}
		m.logger.Debug().Str("path", f).Str("backup", dest).Msg("Wrote archive copy")
	}

	backedUp := []string{}
	for _, f := range files {
		if err := m.resolver.fs.Remove(f); err != nil {
			return backedUp, errors.Wrapf(err, errors.ErrBackup, "failed to remove archived %s", f).
				WithDetail("file", f)
		}
		m.logger.Info().Str("path", f).Msg("Archived edit source file")
		backedUp = append(backedUp, f)
	}
	return backedUp, nil
}

// without returns the files of a that are not in b.
func without(a, b []string) []string {
	drop := make(map[string]bool, len(b))
	for _, f := range b {
		drop[f] = true
	}
	var kept []string
	for _, f := range a {
		if !drop[f] {
			kept = append(kept, f)
		}
	}
	return kept
}

func joinNonEmpty(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, Separator)
}
