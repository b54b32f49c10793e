package aligntrue

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/AlignTrue/aligntrue-sync-sub003/pkg/config"
	"github.com/AlignTrue/aligntrue-sync-sub003/pkg/conflict"
	"github.com/AlignTrue/aligntrue-sync-sub003/pkg/editsource"
	"github.com/AlignTrue/aligntrue-sync-sub003/pkg/sync"
	"github.com/AlignTrue/aligntrue-sync-sub003/pkg/watch"
)

// syncFlags are the flags sync and watch share.
type syncFlags struct {
	interactive bool
	atomic      bool
	exporters   []string
}

func addSyncFlags(cmd *cobra.Command, f *syncFlags) {
	cmd.Flags().BoolVarP(&f.interactive, "interactive", "i", false, MsgFlagInteractive)
	cmd.Flags().BoolVar(&f.atomic, "atomic", true, MsgFlagAtomic)
	cmd.Flags().StringSliceVarP(&f.exporters, "exporter", "e", nil, MsgFlagExporter)
	_ = cmd.RegisterFlagCompletionFunc("exporter", exporterNamesCompletion)
}

// runOptions merges the configured run options with the command line and
// installs the CLI conflict policy on the engine's writer.
func (a *app) runOptions(cmd *cobra.Command, eng *sync.Engine, f *syncFlags) sync.Options {
	opts := eng.DefaultOptions()
	opts.DryRun = a.dryRun
	opts.Force = a.force
	opts.Exporters = f.exporters
	if cmd.Flags().Changed("interactive") {
		opts.Interactive = f.interactive
	}
	if cmd.Flags().Changed("atomic") {
		opts.Atomic = f.atomic
	}
	if opts.Interactive && !conflict.IsInteractive() {
		log.Warn().Msg("stdin is not a terminal, disabling interactive conflict resolution")
		fmt.Fprintln(cmd.ErrOrStderr(), "Warning: "+MsgInteractiveNoTTY)
		opts.Interactive = false
	}

	eng.Writer().SetChecksumHandler(conflict.Default(conflict.NewTerminalPrompter()))
	return opts
}

func (a *app) newSyncCmd() *cobra.Command {
	flags := &syncFlags{}
	cmd := &cobra.Command{
		Use:     "sync",
		Short:   MsgSyncShort,
		Long:    MsgSyncLong,
		Example: MsgSyncExample,
		GroupID: "core",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.openProject(cmd)
			if err != nil {
				return err
			}

			eng := p.engine()
			opts := a.runOptions(cmd, eng, flags)

			log.Info().
				Str("root", p.paths.Root()).
				Bool("dry_run", opts.DryRun).
				Bool("atomic", opts.Atomic).
				Msg("Syncing")

			report, err := eng.Run(cmd.Context(), opts)
			if report != nil {
				if rerr := p.out.SyncReport(report); rerr != nil && err == nil {
					err = rerr
				}
			}
			return err
		},
	}
	addSyncFlags(cmd, flags)
	return cmd
}

func (a *app) newWatchCmd() *cobra.Command {
	flags := &syncFlags{}
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:     "watch",
		Short:   MsgWatchShort,
		Long:    MsgWatchLong,
		GroupID: "core",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.openProject(cmd)
			if err != nil {
				return err
			}

			eng := p.engine()
			opts := a.runOptions(cmd, eng, flags)
			if !cmd.Flags().Changed("debounce") {
				debounce = p.cfg.Watch.Debounce
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			_ = p.out.Message("Info", fmt.Sprintf(MsgWatchStarted, p.cfg.EditSource.String()))

			w := watch.New(eng,
				watch.WithDebounce(debounce),
				watch.WithRunOptions(opts),
				watch.OnSync(func(report *sync.Report, err error) {
					if report != nil {
						_ = p.out.SyncReport(report)
					}
					if err != nil {
						_ = p.out.Error(err)
					}
				}),
			)
			return w.Run(ctx)
		},
	}
	addSyncFlags(cmd, flags)
	cmd.Flags().DurationVar(&debounce, "debounce", watch.DefaultDebounce, MsgFlagDebounce)
	return cmd
}

func (a *app) newSwitchSourceCmd() *cobra.Command {
	var (
		strategyName string
		noSync       bool
	)

	cmd := &cobra.Command{
		Use:     "switch-source <patterns...>",
		Short:   MsgSwitchShort,
		Long:    MsgSwitchLong,
		Example: MsgSwitchExample,
		GroupID: "core",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.openProject(cmd)
			if err != nil {
				return err
			}

			if !cmd.Flags().Changed("strategy") {
				strategyName = p.cfg.Merge.Strategy
			}
			strategy, err := editsource.ParseStrategy(strategyName)
			if err != nil {
				return err
			}

			spec := editsource.NewSpec(args...)
			if a.dryRun {
				return p.out.Message("Info", fmt.Sprintf(MsgSwitchDryRun,
					p.cfg.EditSource.String(), spec.String(), strategy))
			}

			ctx := cmd.Context()
			prompter := conflict.NewTerminalPrompter()
			interactive := !a.force && conflict.IsInteractive()

			// keep-existing throws away what the new files hold; make sure.
			if strategy == editsource.KeepExisting && interactive && !spec.Equal(p.cfg.EditSource) {
				ok, err := prompter.Confirm(ctx, fmt.Sprintf(MsgConfirmKeepSource, spec.String()))
				if err != nil {
					return err
				}
				if !ok {
					return p.out.Message("Muted", MsgSwitchCancelled)
				}
			}

			eng := p.engine()
			eng.Writer().SetChecksumHandler(conflict.Default(prompter))

			res, err := eng.SwitchEditSource(ctx, sync.SwitchOptions{
				EditSource:  spec,
				Strategy:    strategy,
				Interactive: interactive,
				Force:       a.force,
			})
			if err != nil {
				return err
			}
			if err := p.out.SwitchResult(res, string(strategy)); err != nil {
				return err
			}
			if res.Unchanged {
				return nil
			}

			saved, err := config.SetEditSource(ctx, eng.Writer(), p.paths.Root(), p.cfg, spec)
			if err != nil {
				return err
			}
			log.Info().Msgf(MsgConfigSaved, saved)

			if noSync {
				return nil
			}

			opts := eng.DefaultOptions()
			opts.Force = a.force
			opts.Interactive = opts.Interactive && interactive
			report, err := eng.Run(ctx, opts)
			if report != nil {
				if rerr := p.out.SyncReport(report); rerr != nil && err == nil {
					err = rerr
				}
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&strategyName, "strategy", "s", "", MsgFlagStrategy)
	cmd.Flags().BoolVar(&noSync, "no-sync", false, MsgFlagNoSync)
	_ = cmd.RegisterFlagCompletionFunc("strategy", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		var names []string
		for _, s := range editsource.Strategies() {
			names = append(names, string(s))
		}
		return names, cobra.ShellCompDirectiveNoFileComp
	})
	return cmd
}
