package pages

import (
	"bytes"
	"fmt"
	"html/template"
	"path"
	"strings"

	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
)

// Page is one rendered markdown document.
type Page struct {
	Slug  string
	Title string
	HTML  template.HTML
}

func newMarkdown() goldmark.Markdown {
	return goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			highlighting.NewHighlighting(
				highlighting.WithStyle("github"),
			),
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
	)
}

// renderPage converts a markdown file into a Page. Raw HTML in the source is
// not passed through.
func renderPage(md goldmark.Markdown, relPath string, src []byte) (*Page, error) {
	var buf bytes.Buffer
	if err := md.Convert(src, &buf); err != nil {
		return nil, fmt.Errorf("converting %s: %w", relPath, err)
	}
	slug := slugFor(relPath)
	return &Page{
		Slug:  slug,
		Title: extractTitle(string(src), slug),
		HTML:  template.HTML(buf.String()),
	}, nil
}

// slugFor maps "guides/getting-started.md" to "guides/getting-started".
func slugFor(relPath string) string {
	return strings.TrimSuffix(path.Clean(relPath), ".md")
}

// extractTitle returns the first level-one heading, or a title made from the
// slug.
func extractTitle(content, slug string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(line[2:])
		}
	}
	name := strings.ReplaceAll(path.Base(slug), "-", " ")
	if name == "" {
		return slug
	}
	return strings.ToUpper(name[:1]) + name[1:]
}
