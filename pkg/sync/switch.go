package sync

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/AlignTrue/aligntrue-sync-sub003/pkg/archive"
	"github.com/AlignTrue/aligntrue-sync-sub003/pkg/editsource"
	"github.com/AlignTrue/aligntrue-sync-sub003/pkg/errors"
	"github.com/AlignTrue/aligntrue-sync-sub003/pkg/ir"
	"github.com/AlignTrue/aligntrue-sync-sub003/pkg/logging"
	"github.com/AlignTrue/aligntrue-sync-sub003/pkg/writer"
)

// SwitchOptions describes an edit-source change.
type SwitchOptions struct {
	EditSource  editsource.Spec
	Strategy    editsource.Strategy
	Interactive bool
	Force       bool
}

// SwitchResult reports an edit-source change.
type SwitchResult struct {
	Previous editsource.Spec
	Current  editsource.Spec
	// Unchanged is set when the new spec equals the configured one.
	Unchanged bool
	Merge     *editsource.MergeResult
	IRUpdated bool
	// SourceWritten is the new edit-source file the merged rules were
	// written to, if any.
	SourceWritten string
}

// SwitchEditSource reconciles the configured edit source with a new one
// under a merge strategy, saves the merged rules and makes the new spec the
// engine's edit source. Persisting the spec to the config file is left to
// the caller.
//
// Merged content that no file of the new source holds is written to the
// first literal pattern of the new spec, ahead of what that file already
// holds, so the next sync does not pull it back out.
func (e *Engine) SwitchEditSource(ctx context.Context, opts SwitchOptions) (*SwitchResult, error) {
	done := logging.LogOperationStart(e.logger, "switch-source")
	defer done()

	if opts.EditSource.IsEmpty() {
		return nil, errors.New(errors.ErrInvalidInput, "new edit source is empty")
	}
	if _, err := e.resolver.Resolve(opts.EditSource); err != nil {
		return nil, err
	}

	result := &SwitchResult{Previous: e.cfg.EditSource, Current: opts.EditSource}
	if e.cfg.EditSource.Equal(opts.EditSource) {
		result.Unchanged = true
		return result, nil
	}

	doc, _, err := e.store.Load()
	if err != nil {
		return nil, err
	}

	merger := editsource.NewMerger(e.resolver, e.writer,
		archive.OverwrittenRules(e.cfg.BackupsPath(e.root), e.root, e.now()))
	merged, err := merger.Merge(ctx, editsource.MergeRequest{
		Old:         e.cfg.EditSource,
		New:         opts.EditSource,
		Strategy:    opts.Strategy,
		CurrentIR:   ir.RenderMarkdown(doc),
		Interactive: opts.Interactive,
	})
	if err != nil {
		return nil, err
	}
	result.Merge = merged

	if strings.TrimSpace(merged.Content) != "" {
		next := ir.ParseMarkdown(merged.Content)
		next.MCPServers = doc.MCPServers
		wopts := writer.WriteOptions{Interactive: opts.Interactive, Force: opts.Force}

		if !sameDocument(doc, next) {
			outcome, err := e.store.Save(ctx, next, wopts)
			if err != nil {
				return nil, err
			}
			result.IRUpdated = outcome == writer.OutcomeWritten
		}

		written, err := e.seedSource(ctx, opts.EditSource, merged.Unsourced, wopts)
		if err != nil {
			return nil, err
		}
		result.SourceWritten = written
	}

	e.cfg.EditSource = opts.EditSource
	e.logger.Info().
		Str("from", result.Previous.String()).
		Str("to", result.Current.String()).
		Strs("archived", merged.BackedUpFiles).
		Msg("Edit source switched")
	return result, nil
}

// seedSource prepends unsourced content to the new spec's literal file.
// A spec made only of globs has no file to seed: the IR keeps the carried
// rules until a sync reads content from the new source.
func (e *Engine) seedSource(ctx context.Context, spec editsource.Spec, unsourced string, opts writer.WriteOptions) (string, error) {
	if strings.TrimSpace(unsourced) == "" {
		return "", nil
	}

	literal, ok := spec.Literal()
	if !ok {
		e.logger.Warn().
			Str("edit_source", spec.String()).
			Msg("New edit source has no single file to seed; the next sync that reads it replaces the carried rules")
		return "", nil
	}

	path := literal
	if !filepath.IsAbs(path) {
		path = filepath.Join(e.root, filepath.FromSlash(path))
	}
	var current string
	if data, err := afero.ReadFile(e.fs, path); err == nil {
		current = string(data)
	}
	content := strings.TrimRight(unsourced, "\n")
	if strings.TrimSpace(current) != "" {
		content += editsource.Separator + strings.TrimLeft(current, "\n")
	}
	content = strings.TrimRight(content, "\n") + "\n"

	if _, err := e.writer.Write(ctx, path, content, opts); err != nil {
		return "", err
	}
	return path, nil
}
