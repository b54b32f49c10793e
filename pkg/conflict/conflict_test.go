// Test Type: Unit Test
// Description: Tests for checksum conflict policies

package conflict

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlignTrue/aligntrue-sync-sub003/pkg/testutil"
	"github.com/AlignTrue/aligntrue-sync-sub003/pkg/writer"
)

func TestStaticPolicies(t *testing.T) {
	ctx := context.Background()
	c := writer.Conflict{FilePath: "/p/rules.md"}

	tests := []struct {
		name    string
		handler writer.ChecksumHandler
		want    writer.Resolution
	}{
		{"force", Force(), writer.ResolutionOverwrite},
		{"keep", Keep(), writer.ResolutionKeep},
		{"abort", Abort(), writer.ResolutionAbort},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.handler(ctx, c)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDefault(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		conflict  writer.Conflict
		prompter  *ScriptedPrompter
		want      writer.Resolution
		wantAsked int
	}{
		{
			name:     "force wins over interactive",
			conflict: writer.Conflict{Force: true, Interactive: true},
			prompter: &ScriptedPrompter{Resolution: writer.ResolutionKeep},
			want:     writer.ResolutionOverwrite,
		},
		{
			name:      "interactive asks",
			conflict:  writer.Conflict{Interactive: true},
			prompter:  &ScriptedPrompter{Resolution: writer.ResolutionKeep},
			want:      writer.ResolutionKeep,
			wantAsked: 1,
		},
		{
			name:     "non-interactive aborts",
			conflict: writer.Conflict{},
			prompter: &ScriptedPrompter{Resolution: writer.ResolutionOverwrite},
			want:     writer.ResolutionAbort,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Default(tt.prompter)(ctx, tt.conflict)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Len(t, tt.prompter.Asked(), tt.wantAsked)
		})
	}
}

func TestDefault_NilPrompterAborts(t *testing.T) {
	got, err := Default(nil)(context.Background(), writer.Conflict{Interactive: true})
	require.NoError(t, err)
	assert.Equal(t, writer.ResolutionAbort, got)
}

func TestDefault_PrompterError(t *testing.T) {
	p := &ScriptedPrompter{Err: errors.New("interrupted")}
	_, err := Default(p)(context.Background(), writer.Conflict{Interactive: true})
	assert.EqualError(t, err, "interrupted")
}

func TestResolutionFor(t *testing.T) {
	assert.Equal(t, writer.ResolutionOverwrite, resolutionFor(optionOverwrite))
	assert.Equal(t, writer.ResolutionKeep, resolutionFor(optionKeep))
	assert.Equal(t, writer.ResolutionAbort, resolutionFor(optionAbort))
	assert.Equal(t, writer.ResolutionAbort, resolutionFor(""))
}

func TestDefault_WithWriter(t *testing.T) {
	env := testutil.NewTestEnvironment(t, testutil.EnvMemoryOnly)
	p := &ScriptedPrompter{Resolution: writer.ResolutionKeep}
	w := writer.New(
		writer.WithFS(env.FS),
		writer.WithTempRoot(env.TempDir),
		writer.WithChecksumHandler(Default(p)),
	)
	ctx := context.Background()
	path := env.Path("AGENTS.md")

	_, err := w.Write(ctx, path, "generated", writer.WriteOptions{})
	require.NoError(t, err)
	env.WriteFile("AGENTS.md", "hand edited")

	outcome, err := w.Write(ctx, path, "regenerated", writer.WriteOptions{Interactive: true})
	require.NoError(t, err)
	assert.Equal(t, writer.OutcomeKept, outcome)
	assert.Equal(t, "hand edited", env.ReadFile("AGENTS.md"))

	outcome, err = w.Write(ctx, path, "regenerated", writer.WriteOptions{Force: true})
	require.NoError(t, err)
	assert.Equal(t, writer.OutcomeWritten, outcome)
	assert.Equal(t, "regenerated", env.ReadFile("AGENTS.md"))
	assert.Len(t, p.Asked(), 1)
}

// overlapPrompter records how many Resolve calls run at once.
type overlapPrompter struct {
	inFlight atomic.Int32
	maxSeen  atomic.Int32
}

func (p *overlapPrompter) Resolve(context.Context, writer.Conflict) (writer.Resolution, error) {
	n := p.inFlight.Add(1)
	defer p.inFlight.Add(-1)
	for {
		seen := p.maxSeen.Load()
		if n <= seen || p.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)
	return writer.ResolutionKeep, nil
}

func (p *overlapPrompter) Confirm(context.Context, string) (bool, error) {
	return false, nil
}

func TestDefault_PromptsOneAtATime(t *testing.T) {
	p := &overlapPrompter{}
	handler := Default(p)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := handler(context.Background(), writer.Conflict{Interactive: true})
			assert.NoError(t, err)
			assert.Equal(t, writer.ResolutionKeep, got)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), p.maxSeen.Load())
}

func TestDefault_CancelledWhileWaiting(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := &ScriptedPrompter{Resolution: writer.ResolutionKeep}
	_, err := Default(p)(ctx, writer.Conflict{Interactive: true})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, p.Asked())
}
