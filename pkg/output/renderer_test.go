// Test Type: Unit Test
// Description: Tests for report, error and markdown rendering

package output_test

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlignTrue/aligntrue-sync-sub003/pkg/editsource"
	"github.com/AlignTrue/aligntrue-sync-sub003/pkg/errors"
	"github.com/AlignTrue/aligntrue-sync-sub003/pkg/output"
	"github.com/AlignTrue/aligntrue-sync-sub003/pkg/sync"
)

const root = "/project"

var (
	sumA = strings.Repeat("a", 64)
	sumB = strings.Repeat("b", 64)
)

func conflictErr(path string) error {
	return errors.New(errors.ErrChecksumDrift, path+" was modified outside aligntrue").
		WithDetail("file", path).
		WithDetail("last_checksum", sumA).
		WithDetail("current_checksum", sumB)
}

func sampleReport() *sync.Report {
	return &sync.Report{
		Status:     sync.StatusFailed,
		EditSource: []string{"/project/AGENTS.md"},
		IRUpdated:  true,
		Exporters:  []string{"agents-md", "claude"},
		Files: []sync.FileResult{
			{Path: "/project/AGENTS.md", Exporter: "agents-md", Status: sync.FileUnchanged},
			{Path: "/project/CLAUDE.md", Exporter: "claude", Status: sync.FileFailed, Err: conflictErr("/project/CLAUDE.md")},
		},
		RolledBack: true,
		Duration:   1500 * time.Millisecond,
	}
}

func TestSyncReport_Text(t *testing.T) {
	var buf bytes.Buffer
	r := output.NewRenderer(&buf, output.FormatText, root)
	require.NoError(t, r.SyncReport(sampleReport()))

	out := buf.String()
	assert.Contains(t, out, "Rules updated from AGENTS.md")
	assert.Contains(t, out, "unchanged  AGENTS.md  agents-md")
	assert.Contains(t, out, "failed     CLAUDE.md  claude  /project/CLAUDE.md was modified outside aligntrue")
	assert.Contains(t, out, "Sync failed, changes rolled back: 1 unchanged, 1 failed")
	assert.NotContains(t, out, "\x1b[")
}

func TestSyncReport_NothingToDo(t *testing.T) {
	var buf bytes.Buffer
	r := output.NewRenderer(&buf, output.FormatText, root)
	require.NoError(t, r.SyncReport(&sync.Report{Status: sync.StatusNothingToDo, Reason: "no rules to export"}))
	assert.Equal(t, "Nothing to sync: no rules to export\n", buf.String())
}

func TestSyncReport_DryRun(t *testing.T) {
	var buf bytes.Buffer
	r := output.NewRenderer(&buf, output.FormatText, root)
	require.NoError(t, r.SyncReport(&sync.Report{
		Status: sync.StatusPlanned,
		Files:  []sync.FileResult{{Path: "/project/CLAUDE.md", Exporter: "claude", Status: sync.FilePlanned}},
	}))
	assert.Contains(t, buf.String(), "Dry run: no files were changed")
	assert.Contains(t, buf.String(), "Planned: 1 to write")
}

func TestSyncReport_JSON(t *testing.T) {
	var buf bytes.Buffer
	r := output.NewRenderer(&buf, output.FormatJSON, root)
	require.NoError(t, r.SyncReport(sampleReport()))

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "failed", got["status"])
	assert.Equal(t, true, got["rolled_back"])
	assert.Equal(t, float64(1500), got["duration_ms"])
	assert.Equal(t, []interface{}{"AGENTS.md"}, got["edit_source"])

	files := got["files"].([]interface{})
	require.Len(t, files, 2)
	failed := files[1].(map[string]interface{})
	assert.Equal(t, "CLAUDE.md", failed["path"])
	assert.Equal(t, "failed", failed["status"])
	assert.NotEmpty(t, failed["error"])
}

func TestSyncReport_TerminalIsStyled(t *testing.T) {
	var buf bytes.Buffer
	r := output.NewRenderer(&buf, output.FormatTerminal, root)
	require.True(t, r.Theme().Has("written"))
	require.NoError(t, r.SyncReport(sampleReport()))
	assert.Contains(t, buf.String(), "CLAUDE.md")
}

func TestError_Conflicts(t *testing.T) {
	var buf bytes.Buffer
	r := output.NewRenderer(&buf, output.FormatText, root)

	err := errors.Wrap(stderrors.Join(conflictErr("/project/CLAUDE.md"), conflictErr("/project/AGENTS.md")),
		errors.ErrSyncFailed, "2 of 3 file(s) failed to sync")
	require.NoError(t, r.Error(err))

	out := buf.String()
	assert.Contains(t, out, "Conflict: CLAUDE.md was modified outside aligntrue")
	assert.Contains(t, out, "Conflict: AGENTS.md was modified outside aligntrue")
	assert.Contains(t, out, "last written aaaaaaaa, now bbbbbbbb")
	assert.Contains(t, out, "--force")
}

func TestError_Generic(t *testing.T) {
	var buf bytes.Buffer
	r := output.NewRenderer(&buf, output.FormatText, root)

	err := errors.Wrap(stderrors.New("permission denied"), errors.ErrFileWrite, "failed to write /project/CLAUDE.md")
	require.NoError(t, r.Error(err))
	assert.Equal(t, "Error: failed to write /project/CLAUDE.md: permission denied\n", buf.String())
}

func TestError_JSON(t *testing.T) {
	var buf bytes.Buffer
	r := output.NewRenderer(&buf, output.FormatJSON, root)
	require.NoError(t, r.Error(conflictErr("/project/CLAUDE.md")))

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "CHECKSUM_CONFLICT", got["code"])
	assert.Contains(t, got["details"], "file")
}

func TestMarkdown(t *testing.T) {
	md := "## Style\n\nUse tabs.\n"

	var text bytes.Buffer
	require.NoError(t, output.NewRenderer(&text, output.FormatText, root).Markdown(md))
	assert.Equal(t, md, text.String())

	var term bytes.Buffer
	require.NoError(t, output.NewRenderer(&term, output.FormatTerminal, root).Markdown(md))
	assert.Contains(t, term.String(), "Use tabs.")
}

func TestSwitchResult_Text(t *testing.T) {
	var buf bytes.Buffer
	r := output.NewRenderer(&buf, output.FormatText, root)
	require.NoError(t, r.SwitchResult(&sync.SwitchResult{
		Previous: editsource.NewSpec("AGENTS.md"),
		Current:  editsource.NewSpec("CLAUDE.md"),
		Merge: &editsource.MergeResult{
			Summary:       "Adopted 1 new edit source file(s), archived 1 old file(s)",
			BackedUpFiles: []string{"/project/AGENTS.md"},
		},
	}, "keep-new"))

	out := buf.String()
	assert.Contains(t, out, "Edit source switched: AGENTS.md -> CLAUDE.md (keep-new)")
	assert.Contains(t, out, "archived AGENTS.md")
}

func TestTheme(t *testing.T) {
	theme, err := output.NewTheme(lipgloss.NewRenderer(&bytes.Buffer{}), []byte("styles:\n  Bold:\n    bold: true\n"))
	require.NoError(t, err)
	assert.True(t, theme.Has("Bold"))
	assert.False(t, theme.Has("Missing"))
	assert.Equal(t, "x", theme.Render("Missing", "x"))
	assert.Equal(t, "x", output.PlainTheme().Render("Bold", "x"))

	_, err = output.NewTheme(lipgloss.NewRenderer(&bytes.Buffer{}), []byte("styles: ["))
	assert.True(t, errors.IsErrorCode(err, errors.ErrConfigParse))
}
