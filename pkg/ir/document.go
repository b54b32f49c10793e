// Package ir holds the intermediate representation every exporter renders
// from: an ordered list of rule sections plus MCP server definitions.
package ir

import (
	"fmt"
	"sort"
	"strings"

	"github.com/AlignTrue/aligntrue-sync-sub003/pkg/errors"
)

// CurrentVersion is written into every saved document.
const CurrentVersion = "1"

// PreambleID identifies content that precedes the first heading.
const PreambleID = "preamble"

// Document is the canonical rule set.
type Document struct {
	Version    string               `yaml:"version" json:"version"`
	Sections   []Section            `yaml:"sections" json:"sections"`
	MCPServers map[string]MCPServer `yaml:"mcp_servers,omitempty" json:"mcpServers,omitempty"`
}

// Section is one rule, usually one "## " heading of the edit source.
type Section struct {
	ID          string   `yaml:"id" json:"id"`
	Heading     string   `yaml:"heading,omitempty" json:"heading,omitempty"`
	Description string   `yaml:"description,omitempty" json:"description,omitempty"`
	Body        string   `yaml:"body" json:"body"`
	Globs       []string `yaml:"globs,omitempty" json:"globs,omitempty"`
	AlwaysApply bool     `yaml:"always_apply,omitempty" json:"alwaysApply,omitempty"`
}

// MCPServer is either a local command (stdio) or a remote URL.
type MCPServer struct {
	Command string            `yaml:"command,omitempty" json:"command,omitempty"`
	Args    []string          `yaml:"args,omitempty" json:"args,omitempty"`
	Env     map[string]string `yaml:"env,omitempty" json:"env,omitempty"`
	URL     string            `yaml:"url,omitempty" json:"url,omitempty"`
}

// New returns an empty document at the current version.
func New() *Document {
	return &Document{Version: CurrentVersion}
}

// IsEmpty reports whether the document has neither sections nor servers.
func (d *Document) IsEmpty() bool {
	return d == nil || (len(d.Sections) == 0 && len(d.MCPServers) == 0)
}

// Section returns the section with id.
func (d *Document) Section(id string) (Section, bool) {
	for _, s := range d.Sections {
		if s.ID == id {
			return s, true
		}
	}
	return Section{}, false
}

// ServerNames returns MCP server names sorted.
func (d *Document) ServerNames() []string {
	names := make([]string, 0, len(d.MCPServers))
	for name := range d.MCPServers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks structural invariants.
func (d *Document) Validate() error {
	if d == nil {
		return errors.New(errors.ErrIRInvalid, "document is nil")
	}
	if d.Version == "" {
		return errors.New(errors.ErrIRInvalid, "document has no version")
	}
	if d.Version != CurrentVersion {
		return errors.Newf(errors.ErrIRInvalid, "unsupported document version %q", d.Version)
	}

	var problems []string
	seen := make(map[string]bool)
	for i, s := range d.Sections {
		switch {
		case s.ID == "":
			problems = append(problems, fmt.Sprintf("section %d has no id", i))
		case seen[s.ID]:
			problems = append(problems, fmt.Sprintf("duplicate section id %q", s.ID))
		}
		seen[s.ID] = true
	}
	for _, name := range d.ServerNames() {
		srv := d.MCPServers[name]
		if srv.Command == "" && srv.URL == "" {
			problems = append(problems, fmt.Sprintf("mcp server %q needs a command or url", name))
		}
		if srv.Command != "" && srv.URL != "" {
			problems = append(problems, fmt.Sprintf("mcp server %q sets both command and url", name))
		}
	}

	if len(problems) > 0 {
		return errors.Newf(errors.ErrIRInvalid, "invalid document: %s", strings.Join(problems, "; ")).
			WithDetail("problems", problems)
	}
	return nil
}
