package pages

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/guardpost/guardpost/internal/progress"
	"github.com/guardpost/guardpost/internal/web"
)

var defaultIncludes = []string{"**/*.md", "tiers.yaml", "chat.yaml"}

const testTiers = `
currency: GBP
features:
  - {key: board, label: Job board}
  - {key: tenders, label: Tenders}
tiers:
  - {name: Basic, price: "0", period: month, summary: Free, features: []}
  - {name: Premium, price: "24.5", period: month, summary: All, features: [board, tenders]}
`

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"home.md":           {Data: []byte("# Welcome\n\nHello **there**.\n")},
		"terms.md":          {Data: []byte("# Terms\n\n1. Be nice.\n")},
		"guides/start.md":   {Data: []byte("No heading here.\n\n```go\nfmt.Println(1)\n```\n")},
		"drafts/secret.txt": {Data: []byte("not included")},
		"tiers.yaml":        {Data: []byte(testTiers)},
		"chat.yaml":         {Data: []byte("rules: []\n")},
		"partials/nav.html": {Data: []byte("<nav></nav>")},
		"guides/unsafe.md":  {Data: []byte("# Unsafe\n\n<script>alert(1)</script>\n")},
	}
}

func TestLibraryLoad(t *testing.T) {
	lib, err := NewLibrary(testFS(), defaultIncludes, nil)
	if err != nil {
		t.Fatalf("NewLibrary: %v", err)
	}

	home, ok := lib.Page("home")
	if !ok {
		t.Fatal("home page missing")
	}
	if home.Title != "Welcome" || !strings.Contains(string(home.HTML), "<strong>there</strong>") {
		t.Errorf("home = %+v", home)
	}

	start, ok := lib.Page("guides/start")
	if !ok {
		t.Fatal("nested page missing")
	}
	if start.Title != "Start" {
		t.Errorf("title from slug = %q", start.Title)
	}
	if !strings.Contains(string(start.HTML), "<pre") {
		t.Error("code block should be highlighted")
	}

	unsafe, _ := lib.Page("guides/unsafe")
	if strings.Contains(string(unsafe.HTML), "<script>") {
		t.Error("raw HTML must not pass through")
	}

	if _, ok := lib.Raw("chat.yaml"); !ok {
		t.Error("chat.yaml should be available raw")
	}
	if _, ok := lib.Raw("drafts/secret.txt"); ok {
		t.Error("files outside the include globs should be skipped")
	}
	if _, ok := lib.Raw("partials/nav.html"); ok {
		t.Error("files outside the include globs should be skipped")
	}

	if got := len(lib.Pages()); got != 4 {
		t.Errorf("pages = %d, want 4", got)
	}
}

func TestMatchesAny(t *testing.T) {
	tests := []struct {
		path     string
		patterns []string
		want     bool
	}{
		{"a/b/c.md", []string{"**/*.md"}, true},
		{"c.md", []string{"**/*.md"}, true},
		{"policies/terms.md", []string{"policies/*.md"}, true},
		{"guides/terms.md", []string{"policies/*.md"}, false},
		{"nested/tiers.yaml", []string{"tiers.yaml"}, true},
		{"x.txt", nil, true},
	}
	for _, tt := range tests {
		if got := matchesAny(tt.path, tt.patterns); got != tt.want {
			t.Errorf("matchesAny(%q, %v) = %v, want %v", tt.path, tt.patterns, got, tt.want)
		}
	}
}

func TestReloadKeepsPreviousOnError(t *testing.T) {
	fsys := testFS()
	lib, err := NewLibrary(fsys, defaultIncludes, nil)
	if err != nil {
		t.Fatalf("NewLibrary: %v", err)
	}
	fsys["tiers.yaml"] = &fstest.MapFile{Data: []byte("tiers:\n  - {name: Bad, price: abc}\n")}
	if err := lib.Reload(); err == nil {
		t.Fatal("expected error for invalid price")
	}
	if lib.Tiers() == nil || len(lib.Tiers().Tiers) != 2 {
		t.Error("previous tiers should remain after a failed reload")
	}
}

func TestTiers(t *testing.T) {
	tiers, err := ParseTiers([]byte(testTiers))
	if err != nil {
		t.Fatalf("ParseTiers: %v", err)
	}
	if got := tiers.Tiers[1].Price.StringFixed(2); got != "24.50" {
		t.Errorf("price = %s", got)
	}
	if tiers.Tiers[0].Currency != "GBP" {
		t.Errorf("currency should default from file, got %q", tiers.Tiers[0].Currency)
	}

	tests := []struct {
		tier, feature string
		want          bool
	}{
		{"Premium", "tenders", true},
		{"premium", "board", true},
		{"Basic", "board", false},
		{"Gold", "board", false},
		{"Premium", "unknown", false},
	}
	for _, tt := range tests {
		if got := tiers.Allows(tt.tier, tt.feature); got != tt.want {
			t.Errorf("Allows(%q, %q) = %v, want %v", tt.tier, tt.feature, got, tt.want)
		}
	}

	view := tiers.View()
	if len(view.Rows) != 2 || view.Rows[0].Label != "Job board" {
		t.Fatalf("rows = %+v", view.Rows)
	}
	if view.Rows[0].Included[0] || !view.Rows[0].Included[1] {
		t.Errorf("included = %v", view.Rows[0].Included)
	}

	var nilTiers *Tiers
	if nilTiers.Allows("Premium", "board") {
		t.Error("nil tiers should allow nothing")
	}
}

func TestParseTiersErrors(t *testing.T) {
	bad := []string{
		"tiers:\n  - {name: A, price: nope}\n",
		"tiers:\n  - {name: A, price: \"-1\"}\n",
		"features: []\ntiers:\n  - {name: A, price: \"1\", features: [board]}\n",
		"tiers: [",
	}
	for _, src := range bad {
		if _, err := ParseTiers([]byte(src)); err == nil {
			t.Errorf("ParseTiers(%q) should fail", src)
		}
	}
}

func TestEmbeddedContent(t *testing.T) {
	lib, err := NewLibrary(Embedded(), defaultIncludes, nil)
	if err != nil {
		t.Fatalf("NewLibrary: %v", err)
	}
	for _, slug := range []string{"home", "privacy-policy", "terms", "cookie-policy", "guides/getting-started", "guides/sia-licensing"} {
		if _, ok := lib.Page(slug); !ok {
			t.Errorf("embedded page %q missing", slug)
		}
	}
	tiers := lib.Tiers()
	if tiers == nil || len(tiers.Tiers) != 3 {
		t.Fatalf("embedded tiers = %+v", tiers)
	}
	if !tiers.Allows("Premium", "tenders") || tiers.Allows("Basic", "board") {
		t.Error("embedded tier matrix is wrong")
	}
	if _, ok := lib.Raw(ChatFile); !ok {
		t.Error("embedded chat rules missing")
	}
}

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	lib, err := NewLibrary(testFS(), defaultIncludes, nil)
	if err != nil {
		t.Fatalf("NewLibrary: %v", err)
	}
	rd, err := web.NewRenderer("Guardpost", false, nil)
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	r := chi.NewRouter()
	NewHandler(lib, rd).RegisterRoutes(r)
	return r
}

func TestRoutes(t *testing.T) {
	h := newTestHandler(t)
	tests := []struct {
		path   string
		status int
		want   string
	}{
		{"/", http.StatusOK, "Welcome"},
		{"/pages/terms", http.StatusOK, "Be nice."},
		{"/pages/guides/start/", http.StatusOK, "Println"},
		{"/pages/missing", http.StatusNotFound, "Page not found."},
		{"/pricing", http.StatusOK, "24.50"},
		{"/api/tiers", http.StatusOK, `"price":"24.50"`},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))
		if w.Code != tt.status {
			t.Errorf("GET %s = %d, want %d", tt.path, w.Code, tt.status)
		}
		if !strings.Contains(w.Body.String(), tt.want) {
			t.Errorf("GET %s body missing %q", tt.path, tt.want)
		}
	}
}

func TestBuild(t *testing.T) {
	lib, err := NewLibrary(testFS(), defaultIncludes, nil)
	if err != nil {
		t.Fatalf("NewLibrary: %v", err)
	}
	rd, err := web.NewRenderer("Guardpost", false, nil)
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}

	out := t.TempDir()
	var log bytes.Buffer
	n, err := Build(lib, rd, out, &progress.CIReporter{Out: &log, Description: "Building pages"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if n != 5 {
		t.Errorf("written = %d, want 5", n)
	}
	for _, rel := range []string{"index.html", "pages/terms/index.html", "pages/guides/start/index.html", "pricing/index.html", "static/style.css"} {
		if _, err := os.Stat(filepath.Join(out, rel)); err != nil {
			t.Errorf("missing %s: %v", rel, err)
		}
	}
	if !strings.Contains(log.String(), "[5/5]") {
		t.Errorf("progress log = %q", log.String())
	}
}

func TestWatchReloads(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "home.md"), []byte("# Before\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	lib, err := NewLibrary(os.DirFS(dir), defaultIncludes, nil)
	if err != nil {
		t.Fatalf("NewLibrary: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Watch(ctx, dir, lib, nil) }()
	defer func() {
		cancel()
		<-done
	}()

	// Give the watcher time to register the directory.
	time.Sleep(200 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(dir, "home.md"), []byte("# After\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if p, _ := lib.Page("home"); p != nil && p.Title == "After" {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatal("library was not reloaded after the file changed")
}
