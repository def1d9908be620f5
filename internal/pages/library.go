package pages

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/yuin/goldmark"
	"go.uber.org/zap"
)

//go:embed content
var embedded embed.FS

// TiersFile and ChatFile are the structured content files.
const (
	TiersFile = "tiers.yaml"
	ChatFile  = "chat.yaml"
)

// Embedded returns the content compiled into the binary.
func Embedded() fs.FS {
	sub, err := fs.Sub(embedded, "content")
	if err != nil {
		panic(err)
	}
	return sub
}

// ContentFS returns the on-disk content directory, or the embedded content
// when dir is empty.
func ContentFS(dir string) fs.FS {
	if dir == "" {
		return Embedded()
	}
	return os.DirFS(dir)
}

// Library holds the rendered pages and structured content. Reload swaps the
// whole set at once so readers never see a partial load.
type Library struct {
	fsys    fs.FS
	include []string
	md      goldmark.Markdown
	logger  *zap.Logger

	mu    sync.RWMutex
	pages map[string]*Page
	tiers *Tiers
	raw   map[string][]byte
}

// NewLibrary loads every file in fsys matching an include pattern.
func NewLibrary(fsys fs.FS, include []string, logger *zap.Logger) (*Library, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	l := &Library{
		fsys:    fsys,
		include: include,
		md:      newMarkdown(),
		logger:  logger,
	}
	if err := l.Reload(); err != nil {
		return nil, err
	}
	return l, nil
}

// Reload re-reads and re-renders the content. On error the previous content
// stays in place.
func (l *Library) Reload() error {
	pages := make(map[string]*Page)
	raw := make(map[string][]byte)
	var tiers *Tiers

	err := fs.WalkDir(l.fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !matchesAny(p, l.include) {
			return nil
		}
		data, err := fs.ReadFile(l.fsys, p)
		if err != nil {
			return fmt.Errorf("reading %s: %w", p, err)
		}

		switch {
		case strings.HasSuffix(p, ".md"):
			page, err := renderPage(l.md, p, data)
			if err != nil {
				return err
			}
			pages[page.Slug] = page
		case p == TiersFile:
			t, err := ParseTiers(data)
			if err != nil {
				return err
			}
			tiers = t
			raw[p] = data
		default:
			raw[p] = data
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("loading pages: %w", err)
	}

	l.mu.Lock()
	l.pages, l.raw, l.tiers = pages, raw, tiers
	l.mu.Unlock()

	l.logger.Info("pages loaded", zap.Int("pages", len(pages)), zap.Bool("tiers", tiers != nil))
	return nil
}

// matchesAny reports whether relPath, or its base name, matches one of the
// include patterns. No patterns includes everything.
func matchesAny(relPath string, patterns []string) bool {
	if len(patterns) == 0 {
		return true
	}
	base := path.Base(relPath)
	for _, pattern := range patterns {
		if ok, err := doublestar.Match(pattern, relPath); err == nil && ok {
			return true
		}
		if ok, err := doublestar.Match(pattern, base); err == nil && ok {
			return true
		}
	}
	return false
}

// Page returns the page with the given slug.
func (l *Library) Page(slug string) (*Page, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	p, ok := l.pages[slug]
	return p, ok
}

// Pages returns every page ordered by slug.
func (l *Library) Pages() []*Page {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]*Page, 0, len(l.pages))
	for _, p := range l.pages {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out
}

// Tiers returns the membership catalogue, or nil when tiers.yaml is absent.
func (l *Library) Tiers() *Tiers {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.tiers
}

// Raw returns the bytes of a non-markdown content file.
func (l *Library) Raw(name string) ([]byte, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	b, ok := l.raw[name]
	return b, ok
}
