package exporters

import (
	"bytes"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/AlignTrue/aligntrue-sync-sub003/pkg/errors"
	"github.com/AlignTrue/aligntrue-sync-sub003/pkg/ir"
)

const (
	cursorDir        = ".cursor/rules"
	cursorSingleFile = "aligntrue.mdc"

	// SettingSingleFile makes the cursor exporter write one .mdc file.
	SettingSingleFile = "single_file"
)

type cursorFrontMatter struct {
	Description string `yaml:"description"`
	Globs       string `yaml:"globs"`
	AlwaysApply bool   `yaml:"alwaysApply"`
}

// cursorExporter writes one .mdc rule per section.
type cursorExporter struct{}

func (e *cursorExporter) Name() string        { return "cursor" }
func (e *cursorExporter) Version() string     { return "1.0.0" }
func (e *cursorExporter) Description() string { return "Cursor project rules (.cursor/rules/*.mdc)" }

func (e *cursorExporter) Export(req Request, opts Options) (*Result, error) {
	if err := validate(e.Name(), req); err != nil {
		return nil, err
	}
	result := &Result{Exporter: e.Name(), Managed: []string{cursorDir + "/*.mdc"}}
	if len(req.Doc.Sections) == 0 {
		return result, nil
	}

	if opts.Bool(SettingSingleFile, false) {
		body := ir.RenderMarkdown(req.Doc)
		content, err := mdc(cursorFrontMatter{Description: "AlignTrue rules", AlwaysApply: true}, body)
		if err != nil {
			return nil, err
		}
		result.Files = append(result.Files, OutputFile{
			Path:    outputPath(req.Root, cursorDir+"/"+cursorSingleFile),
			Content: content,
		})
		return result, nil
	}

	for _, s := range req.Doc.Sections {
		single := &ir.Document{Version: req.Doc.Version, Sections: []ir.Section{s}}
		fm := cursorFrontMatter{
			Description: s.Description,
			Globs:       strings.Join(s.Globs, ", "),
			AlwaysApply: s.AlwaysApply || len(s.Globs) == 0,
		}
		if fm.Description == "" {
			fm.Description = s.Heading
		}
		content, err := mdc(fm, ir.RenderMarkdown(single))
		if err != nil {
			return nil, err
		}
		result.Files = append(result.Files, OutputFile{
			Path:    outputPath(req.Root, cursorDir+"/"+s.ID+".mdc"),
			Content: content,
		})
	}
	return result, nil
}

func mdc(fm cursorFrontMatter, body string) (string, error) {
	var buf bytes.Buffer
	buf.WriteString("---\n")
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(fm); err != nil {
		return "", errors.Wrap(err, errors.ErrExportFailed, "cursor: failed to encode front matter")
	}
	if err := enc.Close(); err != nil {
		return "", errors.Wrap(err, errors.ErrExportFailed, "cursor: failed to encode front matter")
	}
	buf.WriteString("---\n")
	buf.WriteString(body)
	return withTrailingNewline(buf.String()), nil
}
