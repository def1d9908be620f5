package pages

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/guardpost/guardpost/internal/progress"
	"github.com/guardpost/guardpost/internal/web"
)

// Build renders every page, and the pricing page when tiers are loaded, into
// outDir as index.html files so the site's links resolve on a static host.
// It returns the number of HTML files written.
func Build(lib *Library, rd *web.Renderer, outDir string, reporter progress.Reporter) (int, error) {
	pages := lib.Pages()
	tiers := lib.Tiers()

	total := len(pages)
	if tiers != nil {
		total++
	}
	if total == 0 {
		return 0, fmt.Errorf("no pages to build")
	}

	if err := os.MkdirAll(filepath.Join(outDir, "static"), 0o755); err != nil {
		return 0, fmt.Errorf("creating output dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(outDir, "static", "style.css"), []byte(web.StyleCSS()), 0o644); err != nil {
		return 0, fmt.Errorf("writing stylesheet: %w", err)
	}

	reporter.Start(total)
	defer reporter.Finish()

	written := 0
	for _, p := range pages {
		rel := filepath.Join("pages", filepath.FromSlash(p.Slug), "index.html")
		if p.Slug == HomeSlug {
			rel = "index.html"
		}
		if err := writePage(rd, filepath.Join(outDir, rel), "markdown", web.Page{Title: p.Title, Data: p}); err != nil {
			return written, fmt.Errorf("building %s: %w", p.Slug, err)
		}
		written++
		reporter.Update(written, rel)
	}

	if tiers != nil {
		rel := filepath.Join("pricing", "index.html")
		if err := writePage(rd, filepath.Join(outDir, rel), "pricing", web.Page{Title: "Pricing", Data: tiers.View()}); err != nil {
			return written, fmt.Errorf("building pricing: %w", err)
		}
		written++
		reporter.Update(written, rel)
	}
	return written, nil
}

func writePage(rd *web.Renderer, path, template string, p web.Page) error {
	var buf bytes.Buffer
	if err := rd.Execute(&buf, template, p); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}
