package exporters

import (
	"github.com/AlignTrue/aligntrue-sync-sub003/pkg/ir"
)

// markdownExporter writes the whole document to a single markdown file.
type markdownExporter struct {
	name        string
	file        string
	description string
}

func newMarkdownExporter(name, file, description string) *markdownExporter {
	return &markdownExporter{name: name, file: file, description: description}
}

func (e *markdownExporter) Name() string        { return e.name }
func (e *markdownExporter) Version() string     { return "1.0.0" }
func (e *markdownExporter) Description() string { return e.description }

func (e *markdownExporter) Export(req Request, _ Options) (*Result, error) {
	if err := validate(e.name, req); err != nil {
		return nil, err
	}
	result := &Result{Exporter: e.name}
	body := ir.RenderMarkdown(req.Doc)
	if body == "" {
		return result, nil
	}
	result.Files = append(result.Files, OutputFile{
		Path:    outputPath(req.Root, e.file),
		Content: withTrailingNewline(body),
	})
	return result, nil
}
