package profile

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/guardpost/guardpost/internal/backend"
	"github.com/guardpost/guardpost/internal/section"
	"github.com/guardpost/guardpost/internal/session"
	"github.com/guardpost/guardpost/internal/web"
)

// Handler serves the profile pages and the section edit API.
type Handler struct {
	client  *backend.Client
	editors *section.Registry
	render  *web.Renderer
	logger  *zap.Logger
}

// NewHandler creates a profile Handler.
func NewHandler(client *backend.Client, editors *section.Registry, rd *web.Renderer, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{client: client, editors: editors, render: rd, logger: logger}
}

// View is the data of the profile page.
type View struct {
	Profile        *backend.Profile
	Sections       []section.State
	PublicProfiles []string
}

// RegisterRoutes mounts the profile routes behind requireToken.
func (h *Handler) RegisterRoutes(r chi.Router, requireToken func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(requireToken)

		r.Get("/profile", h.handleProfile)
		r.Post("/profile/sections/{section}/edit", h.handleEdit)
		r.Post("/profile/sections/{section}", h.handleSave)
		r.Post("/profile/sections/{section}/cancel", h.handleCancel)
		r.Post("/profile/public", h.handleCreatePublic)
		r.Get("/account/orders", h.handleOrders)

		r.Route("/api/profile/sections/{section}", func(r chi.Router) {
			r.Get("/", h.apiGet)
			r.Post("/edit", h.apiEdit)
			r.Put("/", h.apiSave)
			r.Post("/cancel", h.apiCancel)
		})
		r.Get("/api/account/orders", h.apiOrders)
	})
}

// openEditors returns the session's editors for every section. When refresh
// is set, or any editor is missing, the profile is fetched and idle editors
// are rebuilt from it.
func (h *Handler) openEditors(ctx context.Context, sess *session.Session, refresh bool) ([]*section.Editor, *backend.Profile, error) {
	sections := section.All()
	editors := make([]*section.Editor, 0, len(sections))
	if !refresh {
		for _, sec := range sections {
			e := h.editors.Get(sess.ID(), sec.Name)
			if e == nil {
				break
			}
			editors = append(editors, e)
		}
		if len(editors) == len(sections) {
			return editors, nil, nil
		}
		editors = editors[:0]
	}

	token, err := sess.Token()
	if err != nil {
		return nil, nil, backend.ErrUnauthorized
	}
	profile, err := h.client.GetProfile(ctx, token)
	if err != nil {
		return nil, nil, err
	}
	for _, sec := range sections {
		editors = append(editors, h.editors.Open(sess.ID(), sec, profile.ID, profile.Section(sec.Namespace), h.client))
	}
	return editors, profile, nil
}

func (h *Handler) editorFor(r *http.Request, sess *session.Session) (*section.Editor, error) {
	sec, err := section.Lookup(chi.URLParam(r, "section"))
	if err != nil {
		return nil, err
	}
	editors, _, err := h.openEditors(r.Context(), sess, false)
	if err != nil {
		return nil, err
	}
	for _, e := range editors {
		if e.Section().Name == sec.Name {
			return e, nil
		}
	}
	return nil, section.ErrUnknownSection
}

func states(editors []*section.Editor) []section.State {
	out := make([]section.State, len(editors))
	for i, e := range editors {
		out[i] = e.State()
	}
	return out
}

// statusFor maps editor and backend errors onto HTTP status codes.
func statusFor(err error) int {
	var verr *section.ValidationError
	switch {
	case errors.Is(err, section.ErrUnauthorized), backend.IsUnauthorized(err):
		return http.StatusUnauthorized
	case errors.Is(err, section.ErrUnknownSection):
		return http.StatusNotFound
	case errors.Is(err, section.ErrNotEditing), errors.Is(err, section.ErrSaveInFlight):
		return http.StatusConflict
	case errors.As(err, &verr), errors.Is(err, section.ErrUnknownField):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadGateway
	}
}

// messageFor returns display text for err.
func messageFor(err error) string {
	var verr *section.ValidationError
	switch {
	case errors.Is(err, section.ErrUnauthorized):
		return section.UnauthorizedMessage
	case errors.Is(err, section.ErrUnknownSection):
		return "Unknown profile section."
	case errors.Is(err, section.ErrNotEditing):
		return "This section is not being edited."
	case errors.Is(err, section.ErrSaveInFlight):
		return "Your changes are still being saved."
	case errors.Is(err, section.ErrUnknownField):
		return err.Error()
	case errors.As(err, &verr):
		return verr.Error()
	default:
		return backend.Message(err)
	}
}
