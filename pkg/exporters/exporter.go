// Package exporters renders the rules document into agent-specific files.
//
// Exporters are pure: they return paths and content and never touch the
// filesystem. The sync engine hands every OutputFile to the atomic writer.
package exporters

import (
	"path/filepath"
	"strings"

	"github.com/AlignTrue/aligntrue-sync-sub003/pkg/errors"
	"github.com/AlignTrue/aligntrue-sync-sub003/pkg/ir"
	"github.com/AlignTrue/aligntrue-sync-sub003/pkg/registry"
)

// Request is the input to one export.
type Request struct {
	// Root is the project root output paths are joined onto.
	Root string
	Doc  *ir.Document
}

// Options carries per-exporter settings from configuration.
type Options struct {
	Settings map[string]string
}

// Bool reads a boolean setting, falling back to def.
func (o Options) Bool(key string, def bool) bool {
	v, ok := o.Settings[key]
	if !ok {
		return def
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return def
	}
}

// OutputFile is one file an exporter wants written.
type OutputFile struct {
	Path    string `json:"path"`
	Content string `json:"-"`
}

// Result is everything one exporter produced.
type Result struct {
	Exporter string       `json:"exporter"`
	Files    []OutputFile `json:"files"`
	// Managed are slash glob patterns, relative to the project root, of
	// files this exporter owns outright. A file it wrote earlier that
	// matches and is no longer produced is removed by the sync engine.
	Managed []string `json:"managed,omitempty"`
}

// Exporter renders the document for one agent.
type Exporter interface {
	Name() string
	Version() string
	Description() string
	Export(req Request, opts Options) (*Result, error)
}

// Registry is the table of available exporters.
type Registry = registry.Registry[Exporter]

// Builtins returns every exporter shipped with aligntrue.
func Builtins() []Exporter {
	return []Exporter{
		newMarkdownExporter("agents-md", "AGENTS.md", "AGENTS.md for Codex, Copilot, Aider and other agents"),
		newMarkdownExporter("claude", "CLAUDE.md", "Claude Code project memory"),
		newMarkdownExporter("windsurf", ".windsurfrules", "Windsurf workspace rules"),
		newMarkdownExporter("cline", ".clinerules", "Cline project rules"),
		&cursorExporter{},
		&vscodeMCPExporter{},
		&codexExporter{},
	}
}

// NewRegistry builds a registry holding the built-in exporters.
func NewRegistry() *Registry {
	reg := registry.New[Exporter]("exporter", registry.WithNotFoundCode(errors.ErrExporterMissing))
	for _, e := range Builtins() {
		registry.MustRegister(reg, e.Name(), e)
	}
	return reg
}

func outputPath(root, rel string) string {
	return filepath.Join(root, filepath.FromSlash(rel))
}

// withTrailingNewline makes s end in exactly one newline.
func withTrailingNewline(s string) string {
	return strings.TrimRight(s, "\n") + "\n"
}

func validate(name string, req Request) error {
	if req.Doc == nil {
		return errors.Newf(errors.ErrExportFailed, "%s: no rules document", name)
	}
	if req.Root == "" {
		return errors.Newf(errors.ErrExportFailed, "%s: no project root", name)
	}
	return nil
}
