package output

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/AlignTrue/aligntrue-sync-sub003/pkg/checksum"
	"github.com/AlignTrue/aligntrue-sync-sub003/pkg/errors"
	"github.com/AlignTrue/aligntrue-sync-sub003/pkg/logging"
)

// Renderer writes results in one format. Paths are shown relative to root.
type Renderer struct {
	w      io.Writer
	format Format
	theme  *Theme
	root   string
}

// NewRenderer creates a renderer for w. FormatAuto is resolved against w
// when it is a file and falls back to text otherwise.
func NewRenderer(w io.Writer, format Format, root string) *Renderer {
	if format == FormatAuto {
		format = FormatText
		if f, ok := w.(*os.File); ok {
			format = DetectFormat(f)
		}
	}

	theme := PlainTheme()
	if format == FormatTerminal {
		theme = DefaultTheme(lipgloss.NewRenderer(w))
	}

	logger := logging.GetLogger("output")
	logger.Debug().
		Str("format", format.String()).
		Msg("Renderer created")

	return &Renderer{w: w, format: format, theme: theme, root: root}
}

// Format returns the resolved format.
func (r *Renderer) Format() Format {
	return r.format
}

// Theme returns the theme in use.
func (r *Renderer) Theme() *Theme {
	return r.theme
}

// Rel shows path relative to the project root when it lies inside it.
func (r *Renderer) Rel(path string) string {
	if r.root == "" {
		return path
	}
	rel, err := filepath.Rel(r.root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return path
	}
	return filepath.ToSlash(rel)
}

// JSON writes v as indented JSON.
func (r *Renderer) JSON(v interface{}) error {
	enc := json.NewEncoder(r.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Message writes one styled line. JSON output gets {"message": ...}.
func (r *Renderer) Message(style, msg string) error {
	if r.format == FormatJSON {
		return r.JSON(map[string]string{"message": msg})
	}
	_, err := fmt.Fprintln(r.w, r.theme.Render(style, msg))
	return err
}

// Markdown renders markdown with glamour on terminals and as-is otherwise.
func (r *Renderer) Markdown(md string) error {
	switch r.format {
	case FormatJSON:
		return r.JSON(map[string]string{"markdown": md})
	case FormatTerminal:
		tr, err := glamour.NewTermRenderer(glamour.WithAutoStyle())
		if err == nil {
			if out, err := tr.Render(md); err == nil {
				_, err = io.WriteString(r.w, out)
				return err
			}
		}
	}
	_, err := io.WriteString(r.w, md)
	return err
}

// Error writes err for the user. Checksum conflicts name the file, both
// checksum prefixes and how to proceed.
func (r *Renderer) Error(err error) error {
	if r.format == FormatJSON {
		return r.JSON(errorJSON(err))
	}

	var b strings.Builder
	for _, c := range conflicts(err) {
		fmt.Fprintf(&b, "%s %s was modified outside aligntrue\n",
			r.theme.Render("Error", "Conflict:"), r.theme.Render("FilePath", r.Rel(c.file)))
		fmt.Fprintf(&b, "  last written %s, now %s\n",
			r.theme.Render("Checksum", checksum.Short(c.last)),
			r.theme.Render("Checksum", checksum.Short(c.current)))
	}
	if b.Len() > 0 {
		b.WriteString(r.theme.Render("Muted", "Re-run with --force to overwrite, or delete the file to regenerate it."))
		b.WriteString("\n")
	} else {
		fmt.Fprintf(&b, "%s %s\n", r.theme.Render("Error", "Error:"), Describe(err))
	}
	_, werr := io.WriteString(r.w, b.String())
	return werr
}

// Describe returns a one-line, user-facing description of err without
// the error code.
func Describe(err error) string {
	var ae *errors.AlignError
	if !stderrors.As(err, &ae) {
		return err.Error()
	}
	if ae.Wrapped == nil || ae.Code == errors.ErrChecksumDrift || ae.Code == errors.ErrSyncFailed {
		return ae.Message
	}
	return ae.Message + ": " + Describe(ae.Wrapped)
}

type conflict struct {
	file, last, current string
}

// conflicts collects every checksum conflict in err's tree.
func conflicts(err error) []conflict {
	var out []conflict
	var walk func(error)
	walk = func(e error) {
		if e == nil {
			return
		}
		if ae, ok := e.(*errors.AlignError); ok && ae.Code == errors.ErrChecksumDrift {
			file, _ := ae.Details["file"].(string)
			last, _ := ae.Details["last_checksum"].(string)
			current, _ := ae.Details["current_checksum"].(string)
			if file != "" && last != "" {
				out = append(out, conflict{file: file, last: last, current: current})
				return
			}
		}
		switch u := e.(type) {
		case interface{ Unwrap() []error }:
			for _, inner := range u.Unwrap() {
				walk(inner)
			}
		case interface{ Unwrap() error }:
			walk(u.Unwrap())
		}
	}
	walk(err)
	return out
}

func errorJSON(err error) map[string]interface{} {
	out := map[string]interface{}{
		"error": Describe(err),
		"code":  string(errors.GetErrorCode(err)),
	}
	if details := errors.GetErrorDetails(err); len(details) > 0 {
		out["details"] = details
	}
	return out
}
