package conflict

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/pterm/pterm"

	"github.com/AlignTrue/aligntrue-sync-sub003/pkg/checksum"
	"github.com/AlignTrue/aligntrue-sync-sub003/pkg/writer"
)

const (
	optionOverwrite = "Overwrite with generated content"
	optionKeep      = "Keep my edits"
	optionAbort     = "Abort sync"
)

// TerminalPrompter prompts on the controlling terminal with pterm.
type TerminalPrompter struct{}

// NewTerminalPrompter returns a prompter bound to stdin/stdout.
func NewTerminalPrompter() *TerminalPrompter {
	return &TerminalPrompter{}
}

// IsInteractive reports whether stdin is a terminal.
func IsInteractive() bool {
	fd := os.Stdin.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Resolve shows a three-way select for the drifted file.
func (p *TerminalPrompter) Resolve(ctx context.Context, c writer.Conflict) (writer.Resolution, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	pterm.Warning.Printfln("%s was edited since the last sync (%s -> %s)",
		c.FilePath, checksum.Short(c.LastChecksum), checksum.Short(c.CurrentChecksum))

	choice, err := pterm.DefaultInteractiveSelect.
		WithOptions([]string{optionKeep, optionOverwrite, optionAbort}).
		WithDefaultOption(optionKeep).
		Show("What should aligntrue do?")
	if err != nil {
		return "", fmt.Errorf("prompt failed: %w", err)
	}
	return resolutionFor(choice), nil
}

// Confirm asks a yes/no question that defaults to no.
func (p *TerminalPrompter) Confirm(ctx context.Context, message string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	ok, err := pterm.DefaultInteractiveConfirm.
		WithDefaultValue(false).
		Show(message)
	if err != nil {
		return false, fmt.Errorf("prompt failed: %w", err)
	}
	return ok, nil
}

func resolutionFor(choice string) writer.Resolution {
	switch choice {
	case optionOverwrite:
		return writer.ResolutionOverwrite
	case optionKeep:
		return writer.ResolutionKeep
	default:
		return writer.ResolutionAbort
	}
}

// ScriptedPrompter answers from fixed values instead of a terminal. It is
// safe for concurrent use.
type ScriptedPrompter struct {
	Resolution writer.Resolution
	Confirmed  bool
	Err        error

	mu    sync.Mutex
	asked []writer.Conflict
}

func (p *ScriptedPrompter) Resolve(_ context.Context, c writer.Conflict) (writer.Resolution, error) {
	p.mu.Lock()
	p.asked = append(p.asked, c)
	p.mu.Unlock()
	if p.Err != nil {
		return "", p.Err
	}
	return p.Resolution, nil
}

// Asked returns the conflicts Resolve was called with, in call order.
func (p *ScriptedPrompter) Asked() []writer.Conflict {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]writer.Conflict(nil), p.asked...)
}

func (p *ScriptedPrompter) Confirm(context.Context, string) (bool, error) {
	if p.Err != nil {
		return false, p.Err
	}
	return p.Confirmed, nil
}
