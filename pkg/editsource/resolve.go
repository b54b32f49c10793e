package editsource

import (
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/AlignTrue/aligntrue-sync-sub003/pkg/errors"
	"github.com/AlignTrue/aligntrue-sync-sub003/pkg/logging"
)

// Separator joins content from multiple files.
const Separator = "\n\n"

// Resolver expands patterns against a project root.
type Resolver struct {
	fs     afero.Fs
	root   string
	logger zerolog.Logger
}

// NewResolver returns a resolver for the project at root.
func NewResolver(fs afero.Fs, root string) *Resolver {
	return &Resolver{
		fs:     fs,
		root:   filepath.Clean(root),
		logger: logging.GetLogger("core.editsource"),
	}
}

// Root returns the project root patterns are resolved against.
func (r *Resolver) Root() string {
	return r.root
}

// ResolvePattern returns the absolute paths of regular files matching one
// pattern, sorted. No match is not an error.
func (r *Resolver) ResolvePattern(pattern string) ([]string, error) {
	rel, err := r.relativePattern(pattern)
	if err != nil {
		return nil, err
	}

	fsys := afero.NewIOFS(afero.NewReadOnlyFs(afero.NewBasePathFs(r.fs, r.root)))
	matches, err := doublestar.Glob(fsys, rel, doublestar.WithFilesOnly())
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrInvalidInput, "invalid edit source pattern %q", pattern)
	}

	files := make([]string, 0, len(matches))
	for _, m := range matches {
		files = append(files, filepath.Join(r.root, filepath.FromSlash(m)))
	}
	sort.Strings(files)

	r.logger.Trace().Str("pattern", pattern).Int("matches", len(files)).Msg("Resolved pattern")
	return files, nil
}

// Resolve returns every file matched by spec, in pattern order, without
// duplicates.
func (r *Resolver) Resolve(spec Spec) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	for _, pattern := range spec {
		matches, err := r.ResolvePattern(pattern)
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			if seen[m] {
				continue
			}
			seen[m] = true
			files = append(files, m)
		}
	}
	return files, nil
}

// Load reads and concatenates the content of every file matched by spec.
// Files that cannot be read are skipped.
func (r *Resolver) Load(spec Spec) (string, []string, error) {
	files, err := r.Resolve(spec)
	if err != nil {
		return "", nil, err
	}
	content, loaded := r.LoadFiles(files)
	return content, loaded, nil
}

// LoadFiles reads and concatenates files in order, skipping any that cannot
// be read.
func (r *Resolver) LoadFiles(files []string) (string, []string) {
	var parts []string
	var loaded []string
	for _, f := range files {
		data, err := afero.ReadFile(r.fs, f)
		if err != nil {
			r.logger.Warn().Err(err).Str("path", f).Msg("Skipping unreadable edit source file")
			continue
		}
		loaded = append(loaded, f)
		if len(data) > 0 {
			parts = append(parts, string(data))
		}
	}
	return strings.Join(parts, Separator), loaded
}

// relativePattern converts pattern to the unrooted slash form io/fs
// expects. Patterns may not escape the project root.
func (r *Resolver) relativePattern(pattern string) (string, error) {
	p := strings.TrimSpace(pattern)
	if p == "" {
		return "", errors.New(errors.ErrInvalidInput, "empty edit source pattern")
	}
	if filepath.IsAbs(p) {
		rel, err := filepath.Rel(r.root, p)
		if err != nil {
			return "", errors.Wrapf(err, errors.ErrInvalidInput, "edit source %q is outside the project", pattern)
		}
		p = rel
	}
	p = path.Clean(filepath.ToSlash(p))
	if p == ".." || strings.HasPrefix(p, "../") {
		return "", errors.Newf(errors.ErrInvalidInput, "edit source %q is outside the project", pattern)
	}
	return p, nil
}
