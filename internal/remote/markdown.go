package remote

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	meta "github.com/yuin/goldmark-meta"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"

	"github.com/casebook-dev/casebook/internal/models"
)

// Journal entries live on the remote as markdown files with a YAML
// frontmatter block. The markdown body is the source of truth for the
// entry content; the prompted sections are level-two headings inside
// the body.

var entryParser = goldmark.New(goldmark.WithExtensions(meta.Meta))

type entryFrontmatter struct {
	Date    string   `yaml:"date"`
	Tags    []string `yaml:"tags,omitempty"`
	Assets  []string `yaml:"assets,omitempty"`
	Section string   `yaml:"section,omitempty"`
}

// Section headings recognized inside an entry body, in render order.
var sectionHeadings = []struct {
	heading string
	get     func(c *models.EntryContent) *string
}{
	{"Decision", func(c *models.EntryContent) *string { return &c.Decision }},
	{"Why", func(c *models.EntryContent) *string { return &c.Why }},
	{"Milestone", func(c *models.EntryContent) *string { return &c.Milestone }},
	{"Change", func(c *models.EntryContent) *string { return &c.Change }},
	{"Tradeoff", func(c *models.EntryContent) *string { return &c.Tradeoff }},
	{"Feedback", func(c *models.EntryContent) *string { return &c.Feedback }},
}

// EncodeEntry renders an entry as a frontmatter-prefixed markdown
// document, the byte representation stored on every remote backend.
func EncodeEntry(e *models.JournalEntry) ([]byte, error) {
	fm := entryFrontmatter{
		Date:    e.Date,
		Tags:    e.Tags,
		Assets:  e.Assets,
		Section: e.Section,
	}
	fmBytes, err := yaml.Marshal(&fm)
	if err != nil {
		return nil, fmt.Errorf("marshal frontmatter: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.Write(fmBytes)
	buf.WriteString("---\n\n")

	body := e.RawMarkdown
	if body == "" {
		body = renderBody(e.Content)
	}
	buf.WriteString(strings.TrimRight(body, "\n"))
	buf.WriteString("\n")
	return buf.Bytes(), nil
}

func renderBody(c models.EntryContent) string {
	var sb strings.Builder
	if c.Text != "" {
		sb.WriteString(strings.TrimRight(c.Text, "\n"))
		sb.WriteString("\n")
	}
	for _, s := range sectionHeadings {
		v := *s.get(&c)
		if v == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "## %s\n\n%s\n", s.heading, strings.TrimRight(v, "\n"))
	}
	return sb.String()
}

// DecodeEntry parses a frontmatter-prefixed markdown document into a
// journal entry for the given project and date. The date inside the
// frontmatter wins over the filename-derived date when present.
func DecodeEntry(project, date string, src []byte) (*models.JournalEntry, error) {
	ctx := parser.NewContext()
	entryParser.Parser().Parse(text.NewReader(src), parser.WithContext(ctx))
	md := meta.Get(ctx)

	e := &models.JournalEntry{
		ProjectID: project,
		Date:      date,
	}
	if md != nil {
		if d, ok := md["date"].(string); ok && d != "" {
			e.Date = d
		}
		if s, ok := md["section"].(string); ok {
			e.Section = s
		}
		e.Tags = stringSlice(md["tags"])
		e.Assets = stringSlice(md["assets"])
	}

	body := stripFrontmatter(string(src))
	e.RawMarkdown = body
	e.Content = extractSections(body)
	return e, nil
}

func stringSlice(v interface{}) []string {
	items, ok := v.([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s, ok := it.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// stripFrontmatter returns the markdown body after the closing
// frontmatter fence, or the whole document when no fence is present.
func stripFrontmatter(src string) string {
	if !strings.HasPrefix(src, "---\n") && !strings.HasPrefix(src, "---\r\n") {
		return strings.TrimSpace(src)
	}
	rest := src[strings.Index(src, "\n")+1:]
	for _, fence := range []string{"\n---\n", "\n---\r\n"} {
		if i := strings.Index(rest, fence); i >= 0 {
			return strings.TrimSpace(rest[i+len(fence):])
		}
	}
	if strings.HasSuffix(strings.TrimRight(rest, "\n"), "\n---") {
		return ""
	}
	return strings.TrimSpace(src)
}

// extractSections splits a body into the prompted sections by its
// level-two headings. Text outside any recognized heading lands in the
// free-text field.
func extractSections(body string) models.EntryContent {
	var c models.EntryContent

	target := func(heading string) *string {
		for _, s := range sectionHeadings {
			if strings.EqualFold(s.heading, heading) {
				return s.get(&c)
			}
		}
		return nil
	}

	current := &c.Text
	var chunk []string
	flush := func() {
		txt := strings.TrimSpace(strings.Join(chunk, "\n"))
		if txt != "" {
			if *current != "" {
				*current += "\n\n" + txt
			} else {
				*current = txt
			}
		}
		chunk = chunk[:0]
	}

	for _, line := range strings.Split(body, "\n") {
		if heading, ok := strings.CutPrefix(line, "## "); ok {
			flush()
			if t := target(strings.TrimSpace(heading)); t != nil {
				current = t
			} else {
				current = &c.Text
				chunk = append(chunk, line)
			}
			continue
		}
		chunk = append(chunk, line)
	}
	flush()
	return c
}
