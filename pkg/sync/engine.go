package sync

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/AlignTrue/aligntrue-sync-sub003/pkg/config"
	"github.com/AlignTrue/aligntrue-sync-sub003/pkg/editsource"
	"github.com/AlignTrue/aligntrue-sync-sub003/pkg/exporters"
	"github.com/AlignTrue/aligntrue-sync-sub003/pkg/ir"
	"github.com/AlignTrue/aligntrue-sync-sub003/pkg/logging"
	"github.com/AlignTrue/aligntrue-sync-sub003/pkg/writer"
)

// Engine owns one writer and the collaborators a sync needs. Reuse an
// Engine across runs (watch mode) to keep drift detection across them.
type Engine struct {
	fs        afero.Fs
	root      string
	cfg       *config.Config
	writer    *writer.Writer
	exporters *exporters.Registry
	resolver  *editsource.Resolver
	store     *ir.Store
	now       func() time.Time
	logger    zerolog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithFS sets the filesystem. It is also used for the default writer.
func WithFS(fs afero.Fs) Option {
	return func(e *Engine) {
		e.fs = fs
	}
}

// WithWriter supplies the writer, for example one with a checksum handler
// already installed.
func WithWriter(w *writer.Writer) Option {
	return func(e *Engine) {
		e.writer = w
	}
}

// WithRegistry supplies the exporter table.
func WithRegistry(reg *exporters.Registry) Option {
	return func(e *Engine) {
		e.exporters = reg
	}
}

// WithClock sets the time source used for archive timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// New creates an Engine for the project at root.
func New(root string, cfg *config.Config, opts ...Option) *Engine {
	e := &Engine{
		root:   root,
		cfg:    cfg,
		now:    time.Now,
		logger: logging.GetLogger("sync"),
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.fs == nil {
		e.fs = afero.NewOsFs()
	}
	if e.writer == nil {
		e.writer = writer.New(writer.WithFS(e.fs), writer.WithTempRoot(cfg.TempPath(root)))
	}
	if e.exporters == nil {
		e.exporters = exporters.NewRegistry()
	}
	e.resolver = editsource.NewResolver(e.fs, root)
	e.store = ir.NewStore(e.fs, cfg.IRPath(root), e.writer)
	return e
}

// Root returns the project root.
func (e *Engine) Root() string {
	return e.root
}

// Config returns the configuration the engine runs with.
func (e *Engine) Config() *config.Config {
	return e.cfg
}

// Writer returns the engine's writer.
func (e *Engine) Writer() *writer.Writer {
	return e.writer
}

// Resolver returns the edit-source resolver.
func (e *Engine) Resolver() *editsource.Resolver {
	return e.resolver
}

// Store returns the rules document store.
func (e *Engine) Store() *ir.Store {
	return e.store
}
