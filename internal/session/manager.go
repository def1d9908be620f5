package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type contextKey struct{}

// WithSession returns a context carrying the session.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the request's session, or nil outside the middleware.
func FromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(contextKey{}).(*Session)
	return s
}

// Options configures the session cookie.
type Options struct {
	CookieName string
	TTL        time.Duration
	Secure     bool
}

// Manager loads and persists sessions around each request.
type Manager struct {
	store   Store
	opts    Options
	logger  *zap.Logger
	onClear []func(sessionID string)
	onRenew []func(oldID, newID string)
}

// NewManager creates a Manager over the given store.
func NewManager(store Store, opts Options, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{store: store, opts: opts, logger: logger}
}

// OnClear registers fn to run after a session has been cleared, renewed,
// expired or swept.
func (m *Manager) OnClear(fn func(sessionID string)) {
	m.onClear = append(m.onClear, fn)
}

// OnRenew registers fn to run when a session moves to a new id, before the
// old id is released.
func (m *Manager) OnRenew(fn func(oldID, newID string)) {
	m.onRenew = append(m.onRenew, fn)
}

// Middleware attaches a session to every request, creating one and setting
// the cookie when the visitor has none. A cookie naming an expired or unknown
// session is released through the OnClear callbacks before a new session is
// issued.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var data *Data
		if c, err := r.Cookie(m.opts.CookieName); err == nil && c.Value != "" {
			data, err = m.store.Get(ctx, c.Value)
			switch {
			case err != nil:
				m.logger.Warn("loading session", zap.Error(err))
				data = nil
			case data == nil:
				m.cleared(c.Value)
			}
		}

		isNew := data == nil
		if isNew {
			now := time.Now().UTC()
			data = &Data{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now}
			m.setCookie(w, data.ID)
		}

		sess := New(*data)
		sess.onRenew = func(id string) { m.setCookie(w, id) }
		next.ServeHTTP(w, r.WithContext(WithSession(ctx, sess)))

		bg := context.WithoutCancel(ctx)
		for _, id := range sess.retiredIDs() {
			for _, fn := range m.onRenew {
				fn(id, sess.ID())
			}
			if err := m.store.Delete(bg, id); err != nil {
				m.logger.Error("deleting renewed session", zap.String("session", id), zap.Error(err))
			}
			m.cleared(id)
		}

		dirty, cleared := sess.state()
		if cleared {
			m.cleared(sess.ID())
		}
		if dirty || isNew {
			snap := sess.Snapshot()
			if err := m.store.Save(bg, &snap, m.opts.TTL); err != nil {
				m.logger.Error("saving session", zap.String("session", snap.ID), zap.Error(err))
			}
		}
	})
}

// setCookie issues the session cookie, replacing one already set on w.
func (m *Manager) setCookie(w http.ResponseWriter, id string) {
	h := w.Header()
	prefix := m.opts.CookieName + "="
	var kept []string
	for _, v := range h.Values("Set-Cookie") {
		if !strings.HasPrefix(v, prefix) {
			kept = append(kept, v)
		}
	}
	h.Del("Set-Cookie")
	for _, v := range kept {
		h.Add("Set-Cookie", v)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     m.opts.CookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(m.opts.TTL.Seconds()),
		HttpOnly: true,
		Secure:   m.opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (m *Manager) cleared(sessionID string) {
	for _, fn := range m.onClear {
		fn(sessionID)
	}
}

// Sweep deletes expired sessions from stores that do not expire them on
// their own and releases each one through the OnClear callbacks. It returns
// the number of sessions removed.
func (m *Manager) Sweep(ctx context.Context) (int, error) {
	exp, ok := m.store.(Expirer)
	if !ok {
		return 0, nil
	}
	ids, err := exp.DeleteExpired(ctx)
	if err != nil {
		return 0, err
	}
	for _, id := range ids {
		m.cleared(id)
	}
	return len(ids), nil
}

// RequireToken guards routes that need a signed-in member. A missing or
// expired token clears the session; API requests get 401 JSON and page
// requests are redirected to sign-in.
func (m *Manager) RequireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := FromContext(r.Context())
		if sess == nil {
			http.Error(w, `{"error":"no session"}`, http.StatusInternalServerError)
			return
		}
		if _, err := sess.Token(); err != nil {
			sess.Clear()
			if strings.HasPrefix(r.URL.Path, "/api/") {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				json.NewEncoder(w).Encode(map[string]string{"error": "Please sign in to continue."})
				return
			}
			http.Redirect(w, r, "/signin?next="+url.QueryEscape(r.URL.RequestURI()), http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}
