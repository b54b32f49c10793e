package conflict

import (
	"context"
	"sync"

	"github.com/AlignTrue/aligntrue-sync-sub003/pkg/logging"
	"github.com/AlignTrue/aligntrue-sync-sub003/pkg/writer"
)

// Prompter asks the user how to resolve a conflict.
type Prompter interface {
	Resolve(ctx context.Context, c writer.Conflict) (writer.Resolution, error)
	Confirm(ctx context.Context, message string) (bool, error)
}

// Static returns a handler that always answers r.
func Static(r writer.Resolution) writer.ChecksumHandler {
	return func(context.Context, writer.Conflict) (writer.Resolution, error) {
		return r, nil
	}
}

// Force overwrites every drifted file.
func Force() writer.ChecksumHandler {
	return Static(writer.ResolutionOverwrite)
}

// Keep preserves every drifted file.
func Keep() writer.ChecksumHandler {
	return Static(writer.ResolutionKeep)
}

// Abort fails on every drifted file. It behaves like having no handler.
func Abort() writer.ChecksumHandler {
	return Static(writer.ResolutionAbort)
}

// Default is the CLI policy: --force overwrites, an interactive run asks
// the prompter, anything else aborts. Prompts are asked one at a time even
// when the writer is called from several goroutines.
func Default(p Prompter) writer.ChecksumHandler {
	logger := logging.GetLogger("core.conflict")
	var mu sync.Mutex
	return func(ctx context.Context, c writer.Conflict) (writer.Resolution, error) {
		switch {
		case c.Force:
			logger.Debug().Str("path", c.FilePath).Msg("Force flag set, overwriting")
			return writer.ResolutionOverwrite, nil
		case c.Interactive && p != nil:
			mu.Lock()
			defer mu.Unlock()
			if err := ctx.Err(); err != nil {
				return "", err
			}
			resolution, err := p.Resolve(ctx, c)
			if err != nil {
				return "", err
			}
			logger.Debug().
				Str("path", c.FilePath).
				Str("resolution", string(resolution)).
				Msg("Conflict resolved by user")
			return resolution, nil
		default:
			return writer.ResolutionAbort, nil
		}
	}
}
