// Test Type: Unit Test
// Description: Tests for the sync engine: pull, export, fan-out writes and rollback

package sync_test

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlignTrue/aligntrue-sync-sub003/pkg/config"
	"github.com/AlignTrue/aligntrue-sync-sub003/pkg/conflict"
	"github.com/AlignTrue/aligntrue-sync-sub003/pkg/errors"
	"github.com/AlignTrue/aligntrue-sync-sub003/pkg/exporters"
	"github.com/AlignTrue/aligntrue-sync-sub003/pkg/ir"
	"github.com/AlignTrue/aligntrue-sync-sub003/pkg/registry"
	"github.com/AlignTrue/aligntrue-sync-sub003/pkg/sync"
	"github.com/AlignTrue/aligntrue-sync-sub003/pkg/testutil"
	"github.com/AlignTrue/aligntrue-sync-sub003/pkg/writer"
)

const agents = "## Style\n\nUse tabs.\n"

type fixture struct {
	env    *testutil.TestEnvironment
	fs     afero.Fs
	cfg    *config.Config
	writer *writer.Writer
	engine *sync.Engine
}

// newFixture builds an engine over an in-memory project. wrap, when set,
// decorates the filesystem (fault injection).
func newFixture(t *testing.T, wrap func(afero.Fs) afero.Fs, opts ...sync.Option) *fixture {
	t.Helper()
	env := testutil.NewTestEnvironment(t, testutil.EnvMemoryOnly)
	fs := env.FS
	if wrap != nil {
		fs = wrap(fs)
	}
	cfg, err := config.Load(config.LoadOptions{Root: env.Root})
	require.NoError(t, err)
	cfg.Exporters = []string{"agents-md", "claude", "cursor"}

	w := writer.New(writer.WithFS(fs), writer.WithTempRoot(env.TempDir))
	opts = append([]sync.Option{sync.WithFS(fs), sync.WithWriter(w)}, opts...)
	return &fixture{
		env:    env,
		fs:     fs,
		cfg:    cfg,
		writer: w,
		engine: sync.New(env.Root, cfg, opts...),
	}
}

func (f *fixture) read(t *testing.T, rel string) string {
	t.Helper()
	data, err := afero.ReadFile(f.fs, f.env.Path(rel))
	require.NoError(t, err)
	return string(data)
}

func (f *fixture) write(t *testing.T, rel, content string) {
	t.Helper()
	require.NoError(t, afero.WriteFile(f.fs, f.env.Path(rel), []byte(content), 0644))
}

func (f *fixture) run(t *testing.T) (*sync.Report, error) {
	t.Helper()
	return f.engine.Run(context.Background(), f.engine.DefaultOptions())
}

func statuses(r *sync.Report) map[string]sync.FileStatus {
	out := make(map[string]sync.FileStatus)
	for _, f := range r.Files {
		out[f.Path] = f.Status
	}
	return out
}

func TestRun_FirstSync(t *testing.T) {
	f := newFixture(t, nil)
	f.env.WriteFile("AGENTS.md", agents)

	report, err := f.run(t)
	require.NoError(t, err)

	assert.Equal(t, sync.StatusSynced, report.Status)
	assert.True(t, report.IRUpdated)
	assert.Equal(t, []string{f.env.Path("AGENTS.md")}, report.EditSource)
	assert.Equal(t, map[string]sync.FileStatus{
		f.env.Path("AGENTS.md"):               sync.FileUnchanged,
		f.env.Path("CLAUDE.md"):               sync.FileWritten,
		f.env.Path(".cursor/rules/style.mdc"): sync.FileWritten,
	}, statuses(report))

	assert.Equal(t, agents, f.read(t, "CLAUDE.md"))
	assert.Contains(t, f.read(t, ".cursor/rules/style.mdc"), "Use tabs.")

	doc, found, err := f.engine.Store().Load()
	require.NoError(t, err)
	assert.True(t, found)
	require.Len(t, doc.Sections, 1)
	assert.Equal(t, "style", doc.Sections[0].ID)

	// every output is now tracked
	_, tracked := f.writer.Checksum(f.env.Path("CLAUDE.md"))
	assert.True(t, tracked)
	_, tracked = f.writer.Checksum(f.env.Path("AGENTS.md"))
	assert.True(t, tracked)
}

func TestRun_Idempotent(t *testing.T) {
	f := newFixture(t, nil)
	f.env.WriteFile("AGENTS.md", agents)

	_, err := f.run(t)
	require.NoError(t, err)
	claude := f.read(t, "CLAUDE.md")

	report, err := f.run(t)
	require.NoError(t, err)
	assert.False(t, report.IRUpdated)
	assert.Equal(t, 3, report.Count(sync.FileUnchanged))
	assert.Equal(t, claude, f.read(t, "CLAUDE.md"))
}

func TestRun_NothingToDo(t *testing.T) {
	t.Run("no exporters", func(t *testing.T) {
		f := newFixture(t, nil)
		f.cfg.Exporters = nil

		report, err := f.run(t)
		require.NoError(t, err)
		assert.Equal(t, sync.StatusNothingToDo, report.Status)
		assert.Equal(t, "no exporters configured", report.Reason)
	})

	t.Run("no rules", func(t *testing.T) {
		f := newFixture(t, nil)

		report, err := f.run(t)
		require.NoError(t, err)
		assert.Equal(t, sync.StatusNothingToDo, report.Status)
		assert.Equal(t, "no rules to export", report.Reason)
		assert.Empty(t, report.Files)
	})
}

func TestRun_DryRun(t *testing.T) {
	f := newFixture(t, nil)
	f.env.WriteFile("AGENTS.md", agents)

	opts := f.engine.DefaultOptions()
	opts.DryRun = true
	report, err := f.engine.Run(context.Background(), opts)
	require.NoError(t, err)

	assert.Equal(t, sync.StatusPlanned, report.Status)
	assert.True(t, report.IRUpdated)
	assert.Equal(t, sync.FileUnchanged, statuses(report)[f.env.Path("AGENTS.md")])
	assert.Equal(t, sync.FilePlanned, statuses(report)[f.env.Path("CLAUDE.md")])

	for _, rel := range []string{"CLAUDE.md", ".aligntrue/.rules.yaml"} {
		exists, err := afero.Exists(f.fs, f.env.Path(rel))
		require.NoError(t, err)
		assert.False(t, exists, rel)
	}
}

func TestRun_ExporterOverride(t *testing.T) {
	f := newFixture(t, nil)
	f.env.WriteFile("AGENTS.md", agents)

	opts := f.engine.DefaultOptions()
	opts.Exporters = []string{"claude"}
	report, err := f.engine.Run(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, []string{"claude"}, report.Exporters)
	require.Len(t, report.Files, 1)
	assert.Equal(t, f.env.Path("CLAUDE.md"), report.Files[0].Path)
}

func TestRun_UnknownExporter(t *testing.T) {
	f := newFixture(t, nil)
	f.cfg.Exporters = []string{"zed"}

	_, err := f.run(t)
	assert.True(t, errors.IsErrorCode(err, errors.ErrExporterMissing))
}

func TestRun_EditedEditSourceIsNotDrift(t *testing.T) {
	f := newFixture(t, nil)
	f.env.WriteFile("AGENTS.md", agents)
	_, err := f.run(t)
	require.NoError(t, err)

	// AGENTS.md is both the edit source and an export target.
	f.write(t, "AGENTS.md", "## Style\nUse spaces.\n\n\n")
	report, err := f.run(t)
	require.NoError(t, err)

	assert.True(t, report.IRUpdated)
	assert.Equal(t, sync.FileWritten, statuses(report)[f.env.Path("AGENTS.md")])
	assert.Equal(t, "## Style\n\nUse spaces.\n", f.read(t, "AGENTS.md"))
	assert.Equal(t, "## Style\n\nUse spaces.\n", f.read(t, "CLAUDE.md"))
}

func TestRun_DriftConflictAtomic(t *testing.T) {
	f := newFixture(t, nil)
	f.env.WriteFile("AGENTS.md", agents)
	_, err := f.run(t)
	require.NoError(t, err)
	cursorBefore := f.read(t, ".cursor/rules/style.mdc")

	f.write(t, "CLAUDE.md", "hand edited\n")
	f.write(t, "AGENTS.md", "## Style\n\nUse spaces.\n")

	report, err := f.run(t)
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrSyncFailed))
	assert.True(t, stderrors.Is(err, writer.ErrConflict))

	assert.Equal(t, sync.StatusFailed, report.Status)
	assert.True(t, report.RolledBack)
	failed := report.Failed()
	require.Len(t, failed, 1)
	assert.Equal(t, f.env.Path("CLAUDE.md"), failed[0].Path)

	assert.Equal(t, "hand edited\n", f.read(t, "CLAUDE.md"))
	assert.Equal(t, cursorBefore, f.read(t, ".cursor/rules/style.mdc"))
	assert.Empty(t, f.writer.PendingBackups())

	details := errors.GetErrorDetails(err)
	assert.Contains(t, details["failures"], f.env.Path("CLAUDE.md"))
}

func TestRun_DriftConflictNonAtomic(t *testing.T) {
	f := newFixture(t, nil)
	f.env.WriteFile("AGENTS.md", agents)
	_, err := f.run(t)
	require.NoError(t, err)

	f.write(t, "CLAUDE.md", "hand edited\n")
	f.write(t, "AGENTS.md", "## Style\n\nUse spaces.\n")

	opts := f.engine.DefaultOptions()
	opts.Atomic = false
	report, err := f.engine.Run(context.Background(), opts)
	require.Error(t, err)
	assert.False(t, report.RolledBack)

	assert.Equal(t, "hand edited\n", f.read(t, "CLAUDE.md"))
	assert.Contains(t, f.read(t, ".cursor/rules/style.mdc"), "Use spaces.")
	assert.Equal(t, sync.FileWritten, statuses(report)[f.env.Path(".cursor/rules/style.mdc")])
}

func TestRun_KeepVerdict(t *testing.T) {
	f := newFixture(t, nil)
	f.writer.SetChecksumHandler(func(context.Context, writer.Conflict) (writer.Resolution, error) {
		return writer.ResolutionKeep, nil
	})
	f.env.WriteFile("AGENTS.md", agents)
	_, err := f.run(t)
	require.NoError(t, err)

	f.write(t, "CLAUDE.md", "hand edited\n")
	f.write(t, "AGENTS.md", "## Style\n\nUse spaces.\n")

	report, err := f.run(t)
	require.NoError(t, err)
	assert.Equal(t, sync.FileKept, statuses(report)[f.env.Path("CLAUDE.md")])
	assert.Equal(t, "hand edited\n", f.read(t, "CLAUDE.md"))
}

func TestRun_WriteFailureRollsBack(t *testing.T) {
	var ffs *testutil.FaultFS
	f := newFixture(t, func(base afero.Fs) afero.Fs {
		ffs = testutil.NewFaultFS(base)
		return ffs
	})
	f.write(t, "AGENTS.md", agents)

	_, err := f.run(t)
	require.NoError(t, err)
	cursorBefore := f.read(t, ".cursor/rules/style.mdc")
	claudeBefore := f.read(t, "CLAUDE.md")

	f.write(t, "AGENTS.md", "## Style\n\nUse spaces.\n")
	ffs.FailWritesUnder("CLAUDE.md")

	report, err := f.run(t)
	require.Error(t, err)
	assert.True(t, report.RolledBack)
	assert.Equal(t, claudeBefore, f.read(t, "CLAUDE.md"))
	assert.Equal(t, cursorBefore, f.read(t, ".cursor/rules/style.mdc"))
}

func TestRun_NewFilesRemovedOnRollback(t *testing.T) {
	f := newFixture(t, func(base afero.Fs) afero.Fs {
		return testutil.NewFaultFS(base).FailWritesUnder("CLAUDE.md")
	})
	f.write(t, "AGENTS.md", agents)

	opts := f.engine.DefaultOptions()
	opts.Concurrency = 1
	_, err := f.engine.Run(context.Background(), opts)
	require.Error(t, err)

	for _, rel := range []string{"CLAUDE.md", ".cursor/rules/style.mdc"} {
		exists, err := afero.Exists(f.fs, f.env.Path(rel))
		require.NoError(t, err)
		assert.False(t, exists, rel)
	}
}

type fakeExporter struct {
	name  string
	files []exporters.OutputFile
	err   error
}

func (e *fakeExporter) Name() string        { return e.name }
func (e *fakeExporter) Version() string     { return "0.0.1" }
func (e *fakeExporter) Description() string { return "test exporter" }
func (e *fakeExporter) Export(exporters.Request, exporters.Options) (*exporters.Result, error) {
	if e.err != nil {
		return nil, e.err
	}
	return &exporters.Result{Exporter: e.name, Files: e.files}, nil
}

func fakeRegistry(items ...*fakeExporter) *exporters.Registry {
	reg := registry.New[exporters.Exporter]("exporter", registry.WithNotFoundCode(errors.ErrExporterMissing))
	for _, e := range items {
		registry.MustRegister[exporters.Exporter](reg, e.name, e)
	}
	return reg
}

func TestRun_DuplicateOutputPath(t *testing.T) {
	reg := fakeRegistry(
		&fakeExporter{name: "one", files: []exporters.OutputFile{{Path: "/project/OUT.md", Content: "1"}}},
		&fakeExporter{name: "two", files: []exporters.OutputFile{{Path: "/project/./OUT.md", Content: "2"}}},
	)
	f := newFixture(t, nil, sync.WithRegistry(reg))
	f.cfg.Exporters = []string{"one", "two"}
	f.env.WriteFile("AGENTS.md", agents)

	_, err := f.run(t)
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrExportFailed))
	exists, _ := afero.Exists(f.fs, "/project/OUT.md")
	assert.False(t, exists)
}

func TestRun_ExporterError(t *testing.T) {
	reg := fakeRegistry(&fakeExporter{name: "broken", err: stderrors.New("boom")})
	f := newFixture(t, nil, sync.WithRegistry(reg))
	f.cfg.Exporters = []string{"broken"}
	f.env.WriteFile("AGENTS.md", agents)

	report, err := f.run(t)
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrExportFailed))
	assert.Equal(t, sync.StatusFailed, report.Status)
}

func TestRun_ManyFilesConcurrently(t *testing.T) {
	names := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l"}
	var files []exporters.OutputFile
	for _, name := range names {
		files = append(files, exporters.OutputFile{Path: "/project/out/" + name + ".md", Content: name + "\n"})
	}
	reg := fakeRegistry(&fakeExporter{name: "many", files: files})
	f := newFixture(t, nil, sync.WithRegistry(reg))
	f.cfg.Exporters = []string{"many"}
	f.cfg.Sync.Concurrency = 4
	f.env.WriteFile("AGENTS.md", agents)

	report, err := f.run(t)
	require.NoError(t, err)
	assert.Equal(t, len(files), report.Count(sync.FileWritten))
	for _, name := range names {
		assert.Equal(t, name+"\n", f.read(t, "out/"+name+".md"))
	}
}

func TestRun_InteractiveConflictsConcurrently(t *testing.T) {
	names := []string{"a", "b", "c", "d", "e", "f"}
	var files []exporters.OutputFile
	for _, name := range names {
		files = append(files, exporters.OutputFile{Path: "/project/out/" + name + ".md", Content: name + "\n"})
	}
	reg := fakeRegistry(&fakeExporter{name: "many", files: files})
	f := newFixture(t, nil, sync.WithRegistry(reg))
	f.cfg.Exporters = []string{"many"}
	f.cfg.Sync.Concurrency = 4
	f.env.WriteFile("AGENTS.md", agents)

	_, err := f.run(t)
	require.NoError(t, err)
	for _, name := range names {
		f.write(t, "out/"+name+".md", "hand edited "+name+"\n")
	}

	p := &conflict.ScriptedPrompter{Resolution: writer.ResolutionKeep}
	f.writer.SetChecksumHandler(conflict.Default(p))
	opts := f.engine.DefaultOptions()
	opts.Interactive = true

	report, err := f.engine.Run(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, len(names), report.Count(sync.FileKept))
	assert.Len(t, p.Asked(), len(names))
	for _, name := range names {
		assert.Equal(t, "hand edited "+name+"\n", f.read(t, "out/"+name+".md"))
	}
}

func TestRun_RemovesStaleCursorRules(t *testing.T) {
	f := newFixture(t, nil)
	f.env.WriteFile("AGENTS.md", agents+"\n## Testing\n\nRun go test.\n")
	f.env.WriteFile(".cursor/rules/mine.mdc", "---\ndescription: mine\n---\nHand written.\n")
	_, err := f.run(t)
	require.NoError(t, err)
	require.True(t, f.env.Exists(".cursor/rules/testing.mdc"))

	f.write(t, "AGENTS.md", agents)
	report, err := f.run(t)
	require.NoError(t, err)

	assert.Equal(t, sync.FileRemoved, statuses(report)[f.env.Path(".cursor/rules/testing.mdc")])
	assert.False(t, f.env.Exists(".cursor/rules/testing.mdc"))
	assert.True(t, f.env.Exists(".cursor/rules/style.mdc"))
	// files aligntrue never wrote are not touched
	assert.True(t, f.env.Exists(".cursor/rules/mine.mdc"))
	_, tracked := f.writer.Checksum(f.env.Path(".cursor/rules/testing.mdc"))
	assert.False(t, tracked)
}

func TestRun_KeepsEditedStaleCursorRule(t *testing.T) {
	f := newFixture(t, nil)
	f.env.WriteFile("AGENTS.md", agents+"\n## Testing\n\nRun go test.\n")
	_, err := f.run(t)
	require.NoError(t, err)

	f.write(t, ".cursor/rules/testing.mdc", "edited by hand\n")
	f.write(t, "AGENTS.md", agents)
	report, err := f.run(t)
	require.NoError(t, err)

	assert.Equal(t, 0, report.Count(sync.FileRemoved))
	assert.Equal(t, "edited by hand\n", f.read(t, ".cursor/rules/testing.mdc"))
}

func TestRun_CancelledContext(t *testing.T) {
	f := newFixture(t, nil)
	f.env.WriteFile("AGENTS.md", agents)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.engine.Run(ctx, f.engine.DefaultOptions())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_KeepsMCPServersFromIR(t *testing.T) {
	f := newFixture(t, nil)
	f.cfg.Exporters = []string{"vscode-mcp", "claude"}

	doc := ir.New()
	doc.Sections = []ir.Section{{ID: "style", Heading: "Style", Body: "Use tabs."}}
	doc.MCPServers = map[string]ir.MCPServer{"github": {Command: "npx"}}
	_, err := f.engine.Store().Save(context.Background(), doc, writer.WriteOptions{})
	require.NoError(t, err)

	f.env.WriteFile("AGENTS.md", "## Style\n\nUse spaces.\n")
	report, err := f.run(t)
	require.NoError(t, err)
	assert.True(t, report.IRUpdated)

	saved, _, err := f.engine.Store().Load()
	require.NoError(t, err)
	assert.Contains(t, saved.MCPServers, "github")
	assert.Contains(t, f.read(t, ".vscode/mcp.json"), "github")
}
