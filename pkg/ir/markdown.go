package ir

import (
	"strconv"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"

	"github.com/AlignTrue/aligntrue-sync-sub003/pkg/checksum"
)

const headingPrefix = "## "

// frontMatter is the YAML header Cursor rule files carry.
type frontMatter struct {
	Description string      `yaml:"description"`
	Globs       interface{} `yaml:"globs"`
	AlwaysApply bool        `yaml:"alwaysApply"`
}

// ParseMarkdown splits edit-source markdown into sections on "## "
// headings. Headings inside fenced code blocks are ignored. A YAML front
// matter block (as Cursor .mdc files carry) at the start of the content or
// after a blank line applies its description, globs and alwaysApply to the
// sections that follow it.
func ParseMarkdown(content string) *Document {
	doc := New()
	lines := strings.Split(checksum.Normalize(content), "\n")

	var (
		fm      *frontMatter
		heading string
		body    []string
		started bool
		inFence bool
	)
	ids := make(map[string]bool)

	flush := func() {
		text := trimBlankLines(strings.Join(body, "\n"))
		if !started && text == "" {
			return
		}
		var id string
		if started {
			id = uniqueID(ids, Slugify(heading))
		} else {
			id = uniqueID(ids, PreambleID)
		}
		section := Section{ID: id, Heading: heading, Body: text}
		if fm != nil {
			section.Description = fm.Description
			section.Globs = globList(fm.Globs)
			section.AlwaysApply = fm.AlwaysApply
		}
		doc.Sections = append(doc.Sections, section)
	}

	for i := 0; i < len(lines); i++ {
		line := lines[i]
		if isFence(line) {
			inFence = !inFence
		}
		if inFence {
			body = append(body, line)
			continue
		}

		if line == "---" && (i == 0 || strings.TrimSpace(lines[i-1]) == "") {
			if parsed, end, ok := parseFrontMatter(lines, i); ok {
				flush()
				fm = parsed
				heading, body, started = "", nil, false
				i = end
				continue
			}
		}

		if strings.HasPrefix(line, headingPrefix) {
			flush()
			heading = strings.TrimSpace(strings.TrimPrefix(line, headingPrefix))
			body = nil
			started = true
			continue
		}
		body = append(body, line)
	}
	flush()

	return doc
}

// RenderMarkdown is the inverse of ParseMarkdown for documents without
// front matter. The result ends with exactly one newline unless it is
// empty.
func RenderMarkdown(doc *Document) string {
	if doc == nil {
		return ""
	}
	var blocks []string
	for _, s := range doc.Sections {
		var b strings.Builder
		if s.Heading != "" {
			b.WriteString(headingPrefix)
			b.WriteString(s.Heading)
			if s.Body != "" {
				b.WriteString("\n\n")
			}
		}
		b.WriteString(s.Body)
		if b.Len() > 0 {
			blocks = append(blocks, b.String())
		}
	}
	if len(blocks) == 0 {
		return ""
	}
	return strings.Join(blocks, "\n\n") + "\n"
}

// Slugify turns a heading into a lowercase, dash-separated id.
func Slugify(heading string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(heading) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	slug := strings.TrimRight(b.String(), "-")
	if slug == "" {
		return "section"
	}
	return slug
}

func uniqueID(seen map[string]bool, base string) string {
	id := base
	for n := 2; seen[id]; n++ {
		id = base + "-" + strconv.Itoa(n)
	}
	seen[id] = true
	return id
}

// parseFrontMatter reads a front matter block opening at lines[open]. It
// only accepts blocks that decode to a mapping using at least one known
// key, so a markdown horizontal rule is left alone.
func parseFrontMatter(lines []string, open int) (*frontMatter, int, bool) {
	closing := -1
	for j := open + 1; j < len(lines); j++ {
		if lines[j] == "---" {
			closing = j
			break
		}
	}
	if closing < 0 {
		return nil, 0, false
	}

	header := []byte(strings.Join(lines[open+1:closing], "\n"))
	var keys map[string]interface{}
	if err := yaml.Unmarshal(header, &keys); err != nil || len(keys) == 0 {
		return nil, 0, false
	}
	known := false
	for _, k := range []string{"description", "globs", "alwaysApply"} {
		if _, ok := keys[k]; ok {
			known = true
		}
	}
	if !known {
		return nil, 0, false
	}

	var fm frontMatter
	if err := yaml.Unmarshal(header, &fm); err != nil {
		return nil, 0, false
	}
	return &fm, closing, true
}

// globList accepts the comma separated string Cursor writes as well as a
// YAML list.
func globList(v interface{}) []string {
	var out []string
	switch g := v.(type) {
	case string:
		for _, part := range strings.Split(g, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	case []interface{}:
		for _, item := range g {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
	}
	return out
}

func isFence(line string) bool {
	trimmed := strings.TrimLeft(line, " ")
	return strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~")
}

func trimBlankLines(s string) string {
	lines := strings.Split(s, "\n")
	start, end := 0, len(lines)
	for start < end && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	for end > start && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	return strings.Join(lines[start:end], "\n")
}
