package aligntrue

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/AlignTrue/aligntrue-sync-sub003/internal/version"
	"github.com/AlignTrue/aligntrue-sync-sub003/pkg/checksum"
	"github.com/AlignTrue/aligntrue-sync-sub003/pkg/config"
	"github.com/AlignTrue/aligntrue-sync-sub003/pkg/errors"
	"github.com/AlignTrue/aligntrue-sync-sub003/pkg/ir"
	"github.com/AlignTrue/aligntrue-sync-sub003/pkg/output"
	"github.com/AlignTrue/aligntrue-sync-sub003/pkg/paths"
	"github.com/AlignTrue/aligntrue-sync-sub003/pkg/writer"
)

func (a *app) newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "show",
		Short:   MsgShowShort,
		Long:    MsgShowLong,
		GroupID: "core",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.openProject(cmd)
			if err != nil {
				return err
			}

			doc, found, err := p.engine().Store().Load()
			if err != nil {
				return err
			}
			if !found || doc.IsEmpty() {
				return p.out.Message("Muted", fmt.Sprintf(MsgNoRules, p.cfg.EditSource.String()))
			}
			return p.out.Markdown(ir.RenderMarkdown(doc))
		},
	}
}

type exporterJSON struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description"`
	Enabled     bool   `json:"enabled"`
}

func (a *app) newExportersCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "exporters",
		Short:   MsgExportersShort,
		Long:    MsgExportersLong,
		GroupID: "core",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.openProject(cmd)
			if err != nil {
				return err
			}

			enabled := make(map[string]bool, len(p.cfg.Exporters))
			for _, name := range p.cfg.Exporters {
				enabled[name] = true
			}

			var rows []exporterJSON
			for _, name := range p.registry.List() {
				exp, err := p.registry.Get(name)
				if err != nil {
					return err
				}
				rows = append(rows, exporterJSON{
					Name:        exp.Name(),
					Version:     exp.Version(),
					Description: exp.Description(),
					Enabled:     enabled[name],
				})
			}

			if p.out.Format() == output.FormatJSON {
				return p.out.JSON(rows)
			}

			theme := p.out.Theme()
			var b strings.Builder
			for _, row := range rows {
				marker := " "
				if row.Enabled {
					marker = theme.Render("Success", "*")
				}
				fmt.Fprintf(&b, "%s %s %s %s\n", marker,
					theme.Render("Exporter", fmt.Sprintf("%-12s", row.Name)),
					theme.Render("Muted", fmt.Sprintf("%-6s", row.Version)),
					row.Description)
			}
			_, err = io.WriteString(cmd.OutOrStdout(), b.String())
			return err
		},
	}
}

func (a *app) newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "init",
		Short:   MsgInitShort,
		Long:    MsgInitLong,
		GroupID: "core",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.initPaths(cmd)
			if err != nil {
				return err
			}
			out, err := a.renderer(cmd, p.Root())
			if err != nil {
				return err
			}

			fs := afero.NewOsFs()
			if !a.force {
				for _, name := range config.FileNames {
					existing := filepath.Join(p.ProjectDir(), name)
					if ok, _ := afero.Exists(fs, existing); ok {
						return errors.Newf(errors.ErrAlreadyExists, MsgErrConfigFile, p.Rel(existing)).
							WithDetail("file", existing)
					}
				}
			}

			target := filepath.Join(p.ProjectDir(), config.FileNames[0])
			if a.dryRun {
				return out.Message("Info", "Would create "+p.Rel(target))
			}

			w := writer.New(writer.WithFS(fs))
			if _, err := w.Write(cmd.Context(), target, string(config.DefaultContent()), writer.WriteOptions{Force: true}); err != nil {
				return err
			}
			log.Info().Str("file", target).Msg("Config created")
			return out.Message("Success", fmt.Sprintf(MsgConfigCreated, p.Rel(target)))
		},
	}
}

type recordJSON struct {
	Path      string `json:"path"`
	Checksum  string `json:"checksum"`
	Timestamp string `json:"timestamp"`
}

func (a *app) newTrackCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "track <files...>",
		Short:   MsgTrackShort,
		Long:    MsgTrackLong,
		GroupID: "misc",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.initPaths(cmd)
			if err != nil {
				return err
			}
			out, err := a.renderer(cmd, p.Root())
			if err != nil {
				return err
			}

			w := writer.New()
			var records []recordJSON
			for _, arg := range args {
				path := paths.ExpandHome(arg)
				if !filepath.IsAbs(path) {
					if path, err = filepath.Abs(path); err != nil {
						return err
					}
				}
				if err := w.TrackFile(path); err != nil {
					return err
				}
				rec, _ := w.Checksum(path)
				records = append(records, recordJSON{
					Path:      rec.FilePath,
					Checksum:  rec.Checksum,
					Timestamp: rec.ISOTimestamp(),
				})
			}

			if out.Format() == output.FormatJSON {
				return out.JSON(records)
			}
			theme := out.Theme()
			var b strings.Builder
			for _, rec := range records {
				fmt.Fprintf(&b, "%s  %s  %s\n",
					theme.Render("Checksum", checksum.Short(rec.Checksum)),
					theme.Render("Muted", rec.Timestamp),
					theme.Render("FilePath", out.Rel(rec.Path)))
			}
			_, err = io.WriteString(cmd.OutOrStdout(), b.String())
			return err
		},
	}
}

func (a *app) newChecksumCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "checksum <file|->",
		Short:   MsgChecksumShort,
		Long:    MsgChecksumLong,
		GroupID: "misc",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := a.renderer(cmd, "")
			if err != nil {
				return err
			}

			var sum string
			if args[0] == "-" {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return errors.Wrap(err, errors.ErrFileRead, "failed to read stdin")
				}
				sum = checksum.Content(string(data))
			} else {
				if sum, err = checksum.File(afero.NewOsFs(), paths.ExpandHome(args[0])); err != nil {
					return err
				}
			}

			if out.Format() == output.FormatJSON {
				return out.JSON(map[string]string{"path": args[0], "checksum": sum})
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), sum)
			return err
		},
	}
}

func (a *app) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "version",
		Short:   MsgVersionShort,
		Long:    MsgVersionLong,
		GroupID: "misc",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := a.renderer(cmd, "")
			if err != nil {
				return err
			}
			if out.Format() == output.FormatJSON {
				return out.JSON(map[string]string{
					"version": version.Version,
					"commit":  version.Commit,
					"date":    version.Date,
				})
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "aligntrue version %s\n", version.Version)
			fmt.Fprintf(w, "  commit: %s\n", version.Commit)
			fmt.Fprintf(w, "  built:  %s\n", version.Date)
			return nil
		},
	}
}

func newCompletionCmd() *cobra.Command {
	return &cobra.Command{
		Use:                   "completion [bash|zsh|fish|powershell]",
		Short:                 MsgCompletionShort,
		Long:                  MsgCompletionLong,
		GroupID:               "misc",
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(cmd.OutOrStdout())
			case "zsh":
				return cmd.Root().GenZshCompletion(cmd.OutOrStdout())
			case "fish":
				return cmd.Root().GenFishCompletion(cmd.OutOrStdout(), true)
			default:
				return cmd.Root().GenPowerShellCompletionWithDesc(cmd.OutOrStdout())
			}
		},
	}
}
