package aligntrue

import (
	stderrors "errors"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/AlignTrue/aligntrue-sync-sub003/internal/version"
	"github.com/AlignTrue/aligntrue-sync-sub003/pkg/config"
	"github.com/AlignTrue/aligntrue-sync-sub003/pkg/exporters"
	"github.com/AlignTrue/aligntrue-sync-sub003/pkg/logging"
	"github.com/AlignTrue/aligntrue-sync-sub003/pkg/output"
	"github.com/AlignTrue/aligntrue-sync-sub003/pkg/paths"
	"github.com/AlignTrue/aligntrue-sync-sub003/pkg/sync"
	"github.com/AlignTrue/aligntrue-sync-sub003/pkg/writer"
)

// Exit codes
const (
	ExitOK       = 0
	ExitError    = 1
	ExitConflict = 2
)

// app holds the global flags shared by every command.
type app struct {
	verbosity  int
	dryRun     bool
	force      bool
	format     string
	root       string
	configFile string

	// projectRoot is set once a command resolved the project, so errors
	// can show paths relative to it.
	projectRoot string
}

// project is what most commands operate on.
type project struct {
	paths    *paths.Paths
	cfg      *config.Config
	registry *exporters.Registry
	out      *output.Renderer
}

// NewRootCmd creates and returns the root command
func NewRootCmd() *cobra.Command {
	return (&app{}).newRootCmd()
}

// Execute runs the CLI against os.Args, reports any error on stderr and
// returns the process exit code.
func Execute() int {
	a := &app{}
	rootCmd := a.newRootCmd()
	err := rootCmd.Execute()
	if err == nil {
		return ExitOK
	}

	format, ferr := output.ParseFormat(a.format)
	if ferr != nil {
		format = output.FormatAuto
	}
	_ = output.NewRenderer(os.Stderr, format, a.projectRoot).Error(err)
	return ExitCode(err)
}

// ExitCode maps an error to the process exit status. Checksum conflicts
// anywhere in the error tree exit with ExitConflict.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case stderrors.Is(err, writer.ErrConflict):
		return ExitConflict
	default:
		return ExitError
	}
}

func (a *app) newRootCmd() *cobra.Command {
	// Initialize custom template formatting functions
	initTemplateFormatting()

	rootCmd := &cobra.Command{
		Use:     "aligntrue",
		Short:   MsgRootShort,
		Long:    MsgRootLong,
		Version: version.Version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Setup logging based on verbosity
			logging.SetupLogger(a.verbosity)
			log.Debug().Str("command", cmd.Name()).Msg("Command started")
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			// If we get here, no subcommand was provided
			_ = cmd.Help()
			return stderrors.New(MsgErrNoCommand)
		},
		SilenceUsage:      true,
		SilenceErrors:     true,
		DisableAutoGenTag: true,
	}

	// Global flags
	rootCmd.PersistentFlags().CountVarP(&a.verbosity, "verbose", "v", MsgFlagVerbose)
	rootCmd.PersistentFlags().BoolVar(&a.dryRun, "dry-run", false, MsgFlagDryRun)
	rootCmd.PersistentFlags().BoolVar(&a.force, "force", false, MsgFlagForce)
	rootCmd.PersistentFlags().StringVar(&a.format, "format", "auto", MsgFlagFormat)
	rootCmd.PersistentFlags().StringVar(&a.root, "root", "", MsgFlagRoot)
	rootCmd.PersistentFlags().StringVar(&a.configFile, "config", "", MsgFlagConfig)
	_ = rootCmd.RegisterFlagCompletionFunc("format", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return []string{"auto", "term", "text", "json"}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	// Define command groups
	rootCmd.AddGroup(&cobra.Group{
		ID:    "core",
		Title: "COMMANDS:",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "misc",
		Title: "MISC:",
	})

	// Set custom help template
	rootCmd.SetUsageTemplate(MsgUsageTemplate)

	// Add all commands
	rootCmd.AddCommand(a.newSyncCmd())
	rootCmd.AddCommand(a.newWatchCmd())
	rootCmd.AddCommand(a.newSwitchSourceCmd())
	rootCmd.AddCommand(a.newShowCmd())
	rootCmd.AddCommand(a.newExportersCmd())
	rootCmd.AddCommand(a.newInitCmd())
	rootCmd.AddCommand(a.newTrackCmd())
	rootCmd.AddCommand(a.newChecksumCmd())
	rootCmd.AddCommand(a.newVersionCmd())
	rootCmd.AddCommand(newCompletionCmd())

	return rootCmd
}

// initPaths resolves the project root and shows a warning if using fallback
func (a *app) initPaths(cmd *cobra.Command) (*paths.Paths, error) {
	p, err := paths.New(paths.ExpandHome(a.root))
	if err != nil {
		return nil, fmt.Errorf(MsgErrInitPaths, err)
	}

	if p.UsedFallback() {
		fmt.Fprintf(cmd.ErrOrStderr(), MsgFallbackWarning+"\n", p.Root())
	} else if os.Getenv("ALIGNTRUE_DEBUG") != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), MsgDebugProjectRoot, p.Root(), p.UsedFallback())
	}

	a.projectRoot = p.Root()
	return p, nil
}

func (a *app) renderer(cmd *cobra.Command, root string) (*output.Renderer, error) {
	format, err := output.ParseFormat(a.format)
	if err != nil {
		return nil, err
	}
	return output.NewRenderer(cmd.OutOrStdout(), format, root), nil
}

// openProject resolves the root, loads the configuration and prepares
// the renderer.
func (a *app) openProject(cmd *cobra.Command) (*project, error) {
	p, err := a.initPaths(cmd)
	if err != nil {
		return nil, err
	}

	out, err := a.renderer(cmd, p.Root())
	if err != nil {
		return nil, err
	}

	registry := exporters.NewRegistry()
	cfg, err := config.Load(config.LoadOptions{
		Root:           p.Root(),
		File:           paths.ExpandHome(a.configFile),
		KnownExporters: registry.List(),
	})
	if err != nil {
		return nil, err
	}

	log.Debug().
		Str("root", p.Root()).
		Str("config", cfg.Source).
		Strs("exporters", cfg.Exporters).
		Msg("Project opened")

	return &project{paths: p, cfg: cfg, registry: registry, out: out}, nil
}

func (p *project) engine() *sync.Engine {
	return sync.New(p.paths.Root(), p.cfg, sync.WithRegistry(p.registry))
}

// exporterNamesCompletion provides shell completion for exporter names
func exporterNamesCompletion(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return exporters.NewRegistry().List(), cobra.ShellCompDirectiveNoFileComp
}
