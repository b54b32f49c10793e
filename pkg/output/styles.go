package output

import (
	_ "embed"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/AlignTrue/aligntrue-sync-sub003/pkg/errors"
)

//go:embed styles.yaml
var defaultStyles []byte

// ColorDef represents an adaptive color definition in YAML
type ColorDef struct {
	Light string `yaml:"light"`
	Dark  string `yaml:"dark"`
}

// StyleDef represents a style definition in YAML
type StyleDef struct {
	Bold       bool   `yaml:"bold,omitempty"`
	Italic     bool   `yaml:"italic,omitempty"`
	Underline  bool   `yaml:"underline,omitempty"`
	Foreground string `yaml:"foreground,omitempty"`
	Background string `yaml:"background,omitempty"`
}

// StylesConfig is the styles file layout.
type StylesConfig struct {
	Colors map[string]ColorDef `yaml:"colors"`
	Styles map[string]StyleDef `yaml:"styles"`
}

// Theme maps semantic names to lipgloss styles bound to one renderer.
// A plain theme returns text unchanged.
type Theme struct {
	styles map[string]lipgloss.Style
	plain  bool
}

// NewTheme builds a theme from a styles file.
func NewTheme(r *lipgloss.Renderer, data []byte) (*Theme, error) {
	var cfg StylesConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigParse, "failed to parse styles")
	}

	colors := make(map[string]lipgloss.AdaptiveColor, len(cfg.Colors))
	for name, def := range cfg.Colors {
		colors[name] = lipgloss.AdaptiveColor{Light: def.Light, Dark: def.Dark}
	}

	t := &Theme{styles: make(map[string]lipgloss.Style, len(cfg.Styles))}
	for name, def := range cfg.Styles {
		style := r.NewStyle().
			Bold(def.Bold).
			Italic(def.Italic).
			Underline(def.Underline)
		if c, ok := colors[def.Foreground]; ok {
			style = style.Foreground(c)
		}
		if c, ok := colors[def.Background]; ok {
			style = style.Background(c)
		}
		t.styles[name] = style
	}
	return t, nil
}

// DefaultTheme builds the built-in theme.
func DefaultTheme(r *lipgloss.Renderer) *Theme {
	t, err := NewTheme(r, defaultStyles)
	if err != nil {
		panic("invalid built-in styles: " + err.Error())
	}
	return t
}

// PlainTheme renders no styling.
func PlainTheme() *Theme {
	return &Theme{plain: true}
}

// Has reports whether name is a known style.
func (t *Theme) Has(name string) bool {
	_, ok := t.styles[name]
	return ok
}

// Render applies the named style. Unknown names render unstyled.
func (t *Theme) Render(name, text string) string {
	if t.plain {
		return text
	}
	style, ok := t.styles[name]
	if !ok {
		return text
	}
	return style.Render(text)
}
