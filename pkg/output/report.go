package output

import (
	"fmt"
	"strings"
	"time"

	"github.com/AlignTrue/aligntrue-sync-sub003/pkg/sync"
)

type fileJSON struct {
	Path     string `json:"path"`
	Exporter string `json:"exporter"`
	Status   string `json:"status"`
	Error    string `json:"error,omitempty"`
}

type reportJSON struct {
	Status     string     `json:"status"`
	Reason     string     `json:"reason,omitempty"`
	EditSource []string   `json:"edit_source"`
	IRUpdated  bool       `json:"ir_updated"`
	Exporters  []string   `json:"exporters"`
	Files      []fileJSON `json:"files"`
	RolledBack bool       `json:"rolled_back"`
	DurationMS int64      `json:"duration_ms"`
}

// SyncReport writes a sync report.
func (r *Renderer) SyncReport(report *sync.Report) error {
	if r.format == FormatJSON {
		return r.JSON(r.reportJSON(report))
	}

	var b strings.Builder
	switch report.Status {
	case sync.StatusNothingToDo:
		fmt.Fprintf(&b, "%s\n", r.theme.Render("Muted", "Nothing to sync: "+report.Reason))
		_, err := fmt.Fprint(r.w, b.String())
		return err
	case sync.StatusPlanned:
		fmt.Fprintf(&b, "%s\n", r.theme.Render("DryRunBanner", "Dry run: no files were changed"))
	}

	if report.IRUpdated {
		verb := "Rules updated from"
		if report.Status == sync.StatusPlanned {
			verb = "Rules would be updated from"
		}
		sources := make([]string, len(report.EditSource))
		for i, s := range report.EditSource {
			sources[i] = r.Rel(s)
		}
		fmt.Fprintf(&b, "%s %s\n", r.theme.Render("Info", verb), strings.Join(sources, ", "))
	}

	width := 0
	for _, f := range report.Files {
		if n := len(r.Rel(f.Path)); n > width {
			width = n
		}
	}
	for _, f := range report.Files {
		status := fmt.Sprintf("%-9s", f.Status)
		path := fmt.Sprintf("%-*s", width, r.Rel(f.Path))
		fmt.Fprintf(&b, "  %s  %s  %s",
			r.theme.Render(string(f.Status), status),
			r.theme.Render("FilePath", path),
			r.theme.Render("Exporter", f.Exporter))
		if f.Err != nil {
			fmt.Fprintf(&b, "  %s", r.theme.Render("Error", Describe(f.Err)))
		}
		b.WriteString("\n")
	}

	b.WriteString(r.summary(report))
	b.WriteString("\n")
	_, err := fmt.Fprint(r.w, b.String())
	return err
}

func (r *Renderer) summary(report *sync.Report) string {
	counts := []struct {
		status sync.FileStatus
		label  string
	}{
		{sync.FileWritten, "written"},
		{sync.FileUnchanged, "unchanged"},
		{sync.FileKept, "kept"},
		{sync.FilePlanned, "to write"},
		{sync.FileFailed, "failed"},
		{sync.FileSkipped, "skipped"},
		{sync.FileReverted, "reverted"},
		{sync.FileRemoved, "removed"},
	}
	var parts []string
	for _, c := range counts {
		if n := report.Count(c.status); n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, c.label))
		}
	}
	line := strings.Join(parts, ", ")
	if line == "" {
		line = "no files"
	}

	switch {
	case report.Status == sync.StatusFailed && report.RolledBack:
		return r.theme.Render("Error", "Sync failed, changes rolled back: ") + line
	case report.Status == sync.StatusFailed:
		return r.theme.Render("Error", "Sync failed: ") + line
	case report.Status == sync.StatusPlanned:
		return r.theme.Render("Info", "Planned: ") + line
	default:
		return r.theme.Render("Success", "Synced: ") + line +
			r.theme.Render("Muted", fmt.Sprintf(" (%s)", report.Duration.Round(time.Millisecond)))
	}
}

func (r *Renderer) reportJSON(report *sync.Report) reportJSON {
	out := reportJSON{
		Status:     string(report.Status),
		Reason:     report.Reason,
		EditSource: make([]string, 0, len(report.EditSource)),
		IRUpdated:  report.IRUpdated,
		Exporters:  report.Exporters,
		Files:      make([]fileJSON, 0, len(report.Files)),
		RolledBack: report.RolledBack,
		DurationMS: report.Duration.Milliseconds(),
	}
	if out.Exporters == nil {
		out.Exporters = []string{}
	}
	for _, s := range report.EditSource {
		out.EditSource = append(out.EditSource, r.Rel(s))
	}
	for _, f := range report.Files {
		fj := fileJSON{Path: r.Rel(f.Path), Exporter: f.Exporter, Status: string(f.Status)}
		if f.Err != nil {
			fj.Error = Describe(f.Err)
		}
		out.Files = append(out.Files, fj)
	}
	return out
}

type switchJSON struct {
	Previous      []string `json:"previous"`
	Current       []string `json:"current"`
	Unchanged     bool     `json:"unchanged"`
	Strategy      string   `json:"strategy,omitempty"`
	Summary       string   `json:"summary,omitempty"`
	BackedUpFiles []string `json:"backed_up_files"`
	IRUpdated     bool     `json:"ir_updated"`
	SourceWritten string   `json:"source_written,omitempty"`
}

// SwitchResult writes the outcome of an edit-source switch.
func (r *Renderer) SwitchResult(res *sync.SwitchResult, strategy string) error {
	backedUp := []string{}
	if res.Merge != nil {
		for _, f := range res.Merge.BackedUpFiles {
			backedUp = append(backedUp, r.Rel(f))
		}
	}

	if r.format == FormatJSON {
		out := switchJSON{
			Previous:      res.Previous,
			Current:       res.Current,
			Unchanged:     res.Unchanged,
			BackedUpFiles: backedUp,
			IRUpdated:     res.IRUpdated,
		}
		if !res.Unchanged {
			out.Strategy = strategy
		}
		if res.Merge != nil {
			out.Summary = res.Merge.Summary
		}
		if res.SourceWritten != "" {
			out.SourceWritten = r.Rel(res.SourceWritten)
		}
		return r.JSON(out)
	}

	var b strings.Builder
	if res.Unchanged {
		fmt.Fprintf(&b, "%s\n", r.theme.Render("Muted", "Edit source is already "+res.Current.String()))
		_, err := fmt.Fprint(r.w, b.String())
		return err
	}

	fmt.Fprintf(&b, "%s %s -> %s (%s)\n",
		r.theme.Render("Success", "Edit source switched:"),
		res.Previous.String(), r.theme.Render("FilePath", res.Current.String()), strategy)
	if res.Merge != nil && res.Merge.Summary != "" {
		fmt.Fprintf(&b, "  %s\n", res.Merge.Summary)
	}
	for _, f := range backedUp {
		fmt.Fprintf(&b, "  %s %s\n", r.theme.Render("Warning", "archived"), f)
	}
	if res.SourceWritten != "" {
		fmt.Fprintf(&b, "  %s %s\n", r.theme.Render("Info", "seeded"), r.Rel(res.SourceWritten))
	}
	_, err := fmt.Fprint(r.w, b.String())
	return err
}
