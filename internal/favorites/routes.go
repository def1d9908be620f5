package favorites

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/guardpost/guardpost/internal/backend"
	"github.com/guardpost/guardpost/internal/session"
	"github.com/guardpost/guardpost/internal/web"
)

// Handler lists and edits the signed-in member's favorites. Every request
// goes to the backend; nothing is cached between requests.
type Handler struct {
	client *backend.Client
	render *web.Renderer
	logger *zap.Logger
}

func NewHandler(client *backend.Client, rd *web.Renderer, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{client: client, render: rd, logger: logger}
}

// RegisterRoutes mounts the favorites routes behind requireToken.
func (h *Handler) RegisterRoutes(r chi.Router, requireToken func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(requireToken)
		r.Get("/favorites", h.handleList)
		r.Post("/favorites/{userID}", h.handleAdd)
		r.Post("/favorites/{userID}/delete", h.handleRemove)

		r.Get("/api/favorites", h.apiList)
		r.Post("/api/favorites/{userID}", h.apiAdd)
		r.Delete("/api/favorites/{userID}", h.apiRemove)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	token, _ := sess.Token()
	favs, err := h.client.ListFavorites(r.Context(), token)
	if err != nil {
		h.pageError(w, r, sess, err)
		return
	}
	h.render.Render(w, r, http.StatusOK, "favorites", h.render.NewPage(r, "Favorites", favs))
}

func (h *Handler) handleAdd(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.client.AddFavorite)
}

func (h *Handler) handleRemove(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.client.RemoveFavorite)
}

type mutateFunc func(ctx context.Context, token, userID string) error

// mutate applies fn to the favorited member named in the URL and returns to
// the page the form was posted from.
func (h *Handler) mutate(w http.ResponseWriter, r *http.Request, fn mutateFunc) {
	sess := session.FromContext(r.Context())
	token, _ := sess.Token()
	userID := chi.URLParam(r, "userID")
	if err := fn(r.Context(), token, userID); err != nil {
		h.logger.Info("favorite update failed", zap.String("user_id", userID), zap.Error(err))
		h.pageError(w, r, sess, err)
		return
	}
	http.Redirect(w, r, returnTo(r), http.StatusSeeOther)
}

// returnTo picks the local page to go back to after a form post.
func returnTo(r *http.Request) string {
	next := r.FormValue("next")
	if strings.HasPrefix(next, "/") && !strings.HasPrefix(next, "//") {
		return next
	}
	return "/favorites?saved=1"
}

func (h *Handler) pageError(w http.ResponseWriter, r *http.Request, sess *session.Session, err error) {
	if backend.IsUnauthorized(err) {
		sess.Clear()
		http.Redirect(w, r, "/signin?next="+url.QueryEscape("/favorites"), http.StatusSeeOther)
		return
	}
	h.render.RenderError(w, r, http.StatusBadGateway, backend.Message(err))
}

func (h *Handler) apiList(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	token, _ := sess.Token()
	favs, err := h.client.ListFavorites(r.Context(), token)
	if err != nil {
		h.apiError(w, r, sess, err)
		return
	}
	if favs == nil {
		favs = []backend.Favorite{}
	}
	web.JSON(w, r, http.StatusOK, map[string]any{"data": favs})
}

func (h *Handler) apiAdd(w http.ResponseWriter, r *http.Request) {
	h.apiMutate(w, r, h.client.AddFavorite, http.StatusCreated)
}

func (h *Handler) apiRemove(w http.ResponseWriter, r *http.Request) {
	h.apiMutate(w, r, h.client.RemoveFavorite, http.StatusOK)
}

func (h *Handler) apiMutate(w http.ResponseWriter, r *http.Request, fn mutateFunc, status int) {
	sess := session.FromContext(r.Context())
	token, _ := sess.Token()
	userID := chi.URLParam(r, "userID")
	if err := fn(r.Context(), token, userID); err != nil {
		h.apiError(w, r, sess, err)
		return
	}
	web.JSON(w, r, status, map[string]string{"userId": userID})
}

func (h *Handler) apiError(w http.ResponseWriter, r *http.Request, sess *session.Session, err error) {
	if backend.IsUnauthorized(err) {
		sess.Clear()
		web.Error(w, r, http.StatusUnauthorized, backend.Message(err))
		return
	}
	web.Error(w, r, http.StatusBadGateway, backend.Message(err))
}
