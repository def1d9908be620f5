package profile

import (
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/guardpost/guardpost/internal/backend"
	"github.com/guardpost/guardpost/internal/section"
	"github.com/guardpost/guardpost/internal/session"
	"github.com/guardpost/guardpost/internal/web"
)

func (h *Handler) handleProfile(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	editors, profile, err := h.openEditors(r.Context(), sess, true)
	if err != nil {
		h.pageError(w, r, sess, err)
		return
	}
	h.renderProfile(w, r, http.StatusOK, sess, profile, editors, "")
}

func (h *Handler) handleEdit(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	e, err := h.editorFor(r, sess)
	if err != nil {
		h.pageError(w, r, sess, err)
		return
	}
	e.EnterEdit()
	http.Redirect(w, r, "/profile#section-"+e.Section().Name, http.StatusSeeOther)
}

func (h *Handler) handleSave(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	e, err := h.editorFor(r, sess)
	if err != nil {
		h.pageError(w, r, sess, err)
		return
	}
	if err := r.ParseForm(); err != nil {
		h.render.RenderError(w, r, http.StatusBadRequest, "Invalid form submission.")
		return
	}
	if !e.Editing() {
		http.Redirect(w, r, "/profile#section-"+e.Section().Name, http.StatusSeeOther)
		return
	}

	if err := e.UpdateDraft(e.Section().FromForm(r.PostForm)); err != nil {
		h.rerender(w, r, sess, statusFor(err), messageFor(err))
		return
	}

	token, _ := sess.Token()
	if err := e.Save(r.Context(), token); err != nil {
		if backend.IsUnauthorized(err) {
			h.pageError(w, r, sess, err)
			return
		}
		h.logger.Info("profile section save failed", zap.String("section", e.Section().Name), zap.Error(err))
		h.rerender(w, r, sess, statusFor(err), "")
		return
	}
	http.Redirect(w, r, "/profile?saved=1#section-"+e.Section().Name, http.StatusSeeOther)
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	e, err := h.editorFor(r, sess)
	if err != nil {
		h.pageError(w, r, sess, err)
		return
	}
	if err := e.Cancel(); err != nil {
		h.rerender(w, r, sess, statusFor(err), messageFor(err))
		return
	}
	http.Redirect(w, r, "/profile#section-"+e.Section().Name, http.StatusSeeOther)
}

func (h *Handler) handleCreatePublic(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	token, _ := sess.Token()
	p, err := h.client.CreatePublicProfile(r.Context(), token)
	if err != nil {
		h.pageError(w, r, sess, err)
		return
	}
	if p.ID != "" {
		sess.AddCreatedPublicProfile(p.ID)
	}
	http.Redirect(w, r, "/profile?saved=1", http.StatusSeeOther)
}

func (h *Handler) handleOrders(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	token, _ := sess.Token()
	orders, err := h.client.ListOrders(r.Context(), token)
	if err != nil {
		h.pageError(w, r, sess, err)
		return
	}
	h.render.Render(w, r, http.StatusOK, "orders", h.render.NewPage(r, "Orders", orders))
}

// rerender shows the profile page from the open editors without refetching.
func (h *Handler) rerender(w http.ResponseWriter, r *http.Request, sess *session.Session, status int, message string) {
	editors, profile, err := h.openEditors(r.Context(), sess, false)
	if err != nil {
		h.pageError(w, r, sess, err)
		return
	}
	h.renderProfile(w, r, status, sess, profile, editors, message)
}

func (h *Handler) renderProfile(w http.ResponseWriter, r *http.Request, status int, sess *session.Session, profile *backend.Profile, editors []*section.Editor, message string) {
	view := View{
		Profile:        profile,
		Sections:       states(editors),
		PublicProfiles: sess.CreatedPublicProfiles(),
	}
	page := h.render.NewPage(r, "Profile", view)
	page.Error = message
	h.render.Render(w, r, status, "profile", page)
}

// pageError handles a failed page request. A rejected token ends the session.
func (h *Handler) pageError(w http.ResponseWriter, r *http.Request, sess *session.Session, err error) {
	if backend.IsUnauthorized(err) {
		sess.Clear()
		http.Redirect(w, r, "/signin?next="+url.QueryEscape(r.URL.RequestURI()), http.StatusSeeOther)
		return
	}
	h.render.RenderError(w, r, statusFor(err), messageFor(err))
}

// sectionResponse is the JSON shape of one editor.
type sectionResponse struct {
	Section string         `json:"section"`
	Title   string         `json:"title"`
	Values  section.Values `json:"values"`
	Draft   section.Values `json:"draft,omitempty"`
	Editing bool           `json:"editing"`
	Saving  bool           `json:"saving"`
	Message string         `json:"message,omitempty"`
}

func toResponse(st section.State) sectionResponse {
	return sectionResponse{
		Section: st.Section.Name,
		Title:   st.Section.Title,
		Values:  st.Saved,
		Draft:   st.Draft,
		Editing: st.Editing,
		Saving:  st.Saving,
		Message: st.Message,
	}
}

// saveRequest is the body of PUT /api/profile/sections/{section}.
type saveRequest struct {
	Fields map[string]any `json:"fields"`
}

func (h *Handler) apiGet(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	e, err := h.editorFor(r, sess)
	if err != nil {
		h.apiError(w, r, sess, err)
		return
	}
	web.JSON(w, r, http.StatusOK, toResponse(e.State()))
}

func (h *Handler) apiEdit(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	e, err := h.editorFor(r, sess)
	if err != nil {
		h.apiError(w, r, sess, err)
		return
	}
	e.EnterEdit()
	web.JSON(w, r, http.StatusOK, toResponse(e.State()))
}

func (h *Handler) apiSave(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	e, err := h.editorFor(r, sess)
	if err != nil {
		h.apiError(w, r, sess, err)
		return
	}

	var req saveRequest
	if err := web.DecodeJSON(r, &req); err != nil {
		web.Error(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Fields) > 0 {
		if err := e.UpdateDraft(req.Fields); err != nil {
			h.apiError(w, r, sess, err)
			return
		}
	}

	token, _ := sess.Token()
	if err := e.Save(r.Context(), token); err != nil {
		h.apiError(w, r, sess, err)
		return
	}
	web.JSON(w, r, http.StatusOK, toResponse(e.State()))
}

func (h *Handler) apiCancel(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	e, err := h.editorFor(r, sess)
	if err != nil {
		h.apiError(w, r, sess, err)
		return
	}
	if err := e.Cancel(); err != nil {
		h.apiError(w, r, sess, err)
		return
	}
	web.JSON(w, r, http.StatusOK, toResponse(e.State()))
}

func (h *Handler) apiOrders(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	token, _ := sess.Token()
	orders, err := h.client.ListOrders(r.Context(), token)
	if err != nil {
		h.apiError(w, r, sess, err)
		return
	}
	if orders == nil {
		orders = []backend.Order{}
	}
	web.JSON(w, r, http.StatusOK, orders)
}

func (h *Handler) apiError(w http.ResponseWriter, r *http.Request, sess *session.Session, err error) {
	if backend.IsUnauthorized(err) {
		sess.Clear()
	}
	web.Error(w, r, statusFor(err), messageFor(err))
}
