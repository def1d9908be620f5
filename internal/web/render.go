package web

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/guardpost/guardpost/internal/session"
)

// Page is the data every template receives.
type Page struct {
	Title       string
	SiteName    string
	SignedIn    bool
	DisplayName string
	Flash       string
	Error       string
	ChatEnabled bool
	Data        any
}

// Renderer executes the site's page templates inside the shared layout.
type Renderer struct {
	pages       map[string]*template.Template
	siteName    string
	chatEnabled bool
	logger      *zap.Logger
}

var funcs = template.FuncMap{
	"display":  display,
	"formText": formText,
	"objValue": objValue,
}

// NewRenderer parses every page template.
func NewRenderer(siteName string, chatEnabled bool, logger *zap.Logger) (*Renderer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	base, err := template.New("layout").Funcs(funcs).Parse(layoutTemplate)
	if err != nil {
		return nil, fmt.Errorf("parsing layout: %w", err)
	}
	if _, err := base.Parse(partialTemplates); err != nil {
		return nil, fmt.Errorf("parsing partials: %w", err)
	}

	rd := &Renderer{
		pages:       make(map[string]*template.Template, len(pageTemplates)),
		siteName:    siteName,
		chatEnabled: chatEnabled,
		logger:      logger,
	}
	for name, src := range pageTemplates {
		t, err := base.Clone()
		if err != nil {
			return nil, err
		}
		if _, err := t.Parse(src); err != nil {
			return nil, fmt.Errorf("parsing page %s: %w", name, err)
		}
		rd.pages[name] = t
	}
	return rd, nil
}

// Execute writes a page without any request context.
func (rd *Renderer) Execute(w io.Writer, name string, p Page) error {
	t, ok := rd.pages[name]
	if !ok {
		return fmt.Errorf("unknown page template %q", name)
	}
	if p.SiteName == "" {
		p.SiteName = rd.siteName
	}
	return t.ExecuteTemplate(w, "layout", p)
}

// NewPage fills the request-dependent parts of a Page.
func (rd *Renderer) NewPage(r *http.Request, title string, data any) Page {
	p := Page{
		Title:       title,
		SiteName:    rd.siteName,
		ChatEnabled: rd.chatEnabled,
		Data:        data,
	}
	if sess := session.FromContext(r.Context()); sess != nil && sess.HasToken() {
		p.SignedIn = true
		if l := sess.Login(); l != nil {
			p.DisplayName = l.DisplayName
		}
	}
	if r.URL.Query().Get("saved") != "" {
		p.Flash = "Saved."
	}
	return p
}

// Render writes the named page with the given status.
func (rd *Renderer) Render(w http.ResponseWriter, r *http.Request, status int, name string, p Page) {
	var buf bytes.Buffer
	if err := rd.Execute(&buf, name, p); err != nil {
		rd.logger.Error("rendering page", zap.String("page", name), zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

// RenderError writes the error page with message shown inline.
func (rd *Renderer) RenderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	p := rd.NewPage(r, http.StatusText(status), nil)
	p.Error = message
	rd.Render(w, r, status, "error", p)
}

// ServeStyle serves the site stylesheet.
func ServeStyle(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	io.WriteString(w, styleCSS)
}

// StyleCSS returns the site stylesheet.
func StyleCSS() string { return styleCSS }

// ServeChatScript serves the chat widget script.
func ServeChatScript(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	io.WriteString(w, chatJS)
}

// display formats a field value for the read view.
func display(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []string:
		return strings.Join(t, ", ")
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			if s := fmt.Sprint(t[k]); s != "" {
				parts = append(parts, k+": "+s)
			}
		}
		return strings.Join(parts, "; ")
	default:
		return fmt.Sprint(t)
	}
}

// formText formats a field value for a textarea, one list entry per line.
func formText(v any) string {
	if list, ok := v.([]string); ok {
		return strings.Join(list, "\n")
	}
	return display(v)
}

func objValue(v any, key string) string {
	m, ok := v.(map[string]any)
	if !ok || m[key] == nil {
		return ""
	}
	return fmt.Sprint(m[key])
}
