package jobs

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/guardpost/guardpost/internal/backend"
	"github.com/guardpost/guardpost/internal/session"
	"github.com/guardpost/guardpost/internal/web"
)

// Handler serves local listings and the remote job board.
type Handler struct {
	store    *Store
	client   *backend.Client
	render   *web.Renderer
	pageSize int
	logger   *zap.Logger
}

func NewHandler(store *Store, client *backend.Client, rd *web.Renderer, pageSize int, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if pageSize <= 0 {
		pageSize = 10
	}
	return &Handler{store: store, client: client, render: rd, pageSize: pageSize, logger: logger}
}

// View is the data of the local listings page.
type View struct {
	Listings []Listing
	Filter   Filter
	Pager    Pager
}

// BoardView is the data of the job board page.
type BoardView struct {
	Listings []Listing
	Pager    Pager
}

// Page is the JSON shape of a paginated listing response.
type Page struct {
	Data     []Listing `json:"data"`
	Page     int       `json:"page"`
	LastPage int       `json:"lastPage"`
	Total    int       `json:"total"`
}

// RegisterRoutes mounts the job routes. Local listings belong to the visitor
// session; the board requires a signed-in member.
func (h *Handler) RegisterRoutes(r chi.Router, requireToken func(http.Handler) http.Handler) {
	r.Get("/jobs", h.handleLocal)
	r.Post("/jobs", h.handleCreateLocal)
	r.Post("/jobs/{id}/delete", h.handleDeleteLocal)

	r.Get("/api/jobs", h.apiListLocal)
	r.Post("/api/jobs", h.apiCreateLocal)
	r.Delete("/api/jobs/{id}", h.apiDeleteLocal)

	r.Group(func(r chi.Router) {
		r.Use(requireToken)
		r.Get("/jobs/board", h.handleBoard)
		r.Get("/api/board/jobs", h.apiListBoard)
		r.Post("/api/board/jobs", h.apiCreateBoard)
		r.Put("/api/board/jobs/{id}", h.apiUpdateBoard)
		r.Delete("/api/board/jobs/{id}", h.apiDeleteBoard)
	})
}

func (h *Handler) handleLocal(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter, filterErr := ParseFilter(q)
	all, err := h.store.List(r.Context(), session.FromContext(r.Context()).ID())
	if err != nil {
		h.logger.Error("listing local jobs", zap.Error(err))
		h.render.RenderError(w, r, http.StatusInternalServerError, "Could not load your listings.")
		return
	}
	items, pager := Paginate(filter.Apply(all), ParsePage(q), h.pageSize, filter.Encode())

	page := h.render.NewPage(r, "My listings", View{Listings: items, Filter: filter, Pager: pager})
	if filterErr != nil {
		page.Error = filterErr.Error()
	}
	h.render.Render(w, r, http.StatusOK, "jobs", page)
}

func (h *Handler) handleCreateLocal(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.render.RenderError(w, r, http.StatusBadRequest, "Invalid form submission.")
		return
	}
	l := listingFromForm(r.PostForm)
	if _, err := h.store.Create(r.Context(), session.FromContext(r.Context()).ID(), l); err != nil {
		h.render.RenderError(w, r, http.StatusUnprocessableEntity, err.Error())
		return
	}
	http.Redirect(w, r, "/jobs?saved=1", http.StatusSeeOther)
}

func (h *Handler) handleDeleteLocal(w http.ResponseWriter, r *http.Request) {
	err := h.store.Delete(r.Context(), session.FromContext(r.Context()).ID(), chi.URLParam(r, "id"))
	if err != nil && !errors.Is(err, ErrNotFound) {
		h.logger.Error("deleting local job", zap.Error(err))
		h.render.RenderError(w, r, http.StatusInternalServerError, "Could not delete the listing.")
		return
	}
	http.Redirect(w, r, "/jobs", http.StatusSeeOther)
}

func (h *Handler) apiListLocal(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter, err := ParseFilter(q)
	if err != nil {
		web.Error(w, r, http.StatusBadRequest, err.Error())
		return
	}
	all, err := h.store.List(r.Context(), session.FromContext(r.Context()).ID())
	if err != nil {
		web.Error(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	matched := filter.Apply(all)
	items, pager := Paginate(matched, ParsePage(q), h.pageSize, nil)
	web.JSON(w, r, http.StatusOK, Page{Data: items, Page: pager.Page, LastPage: pager.LastPage, Total: len(matched)})
}

func (h *Handler) apiCreateLocal(w http.ResponseWriter, r *http.Request) {
	var l Listing
	if err := web.DecodeJSON(r, &l); err != nil {
		web.Error(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	created, err := h.store.Create(r.Context(), session.FromContext(r.Context()).ID(), l)
	if err != nil {
		web.Error(w, r, http.StatusUnprocessableEntity, err.Error())
		return
	}
	web.JSON(w, r, http.StatusCreated, created)
}

func (h *Handler) apiDeleteLocal(w http.ResponseWriter, r *http.Request) {
	err := h.store.Delete(r.Context(), session.FromContext(r.Context()).ID(), chi.URLParam(r, "id"))
	if errors.Is(err, ErrNotFound) {
		web.Error(w, r, http.StatusNotFound, "listing not found")
		return
	}
	if err != nil {
		web.Error(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// boardPage fetches the requested board page, clamped to the last page the
// backend reports.
func (h *Handler) boardPage(r *http.Request) (*backend.JobPage, error) {
	token, _ := session.FromContext(r.Context()).Token()
	requested := ParsePage(r.URL.Query())
	res, err := h.client.ListJobs(r.Context(), token, requested)
	if err != nil {
		return nil, err
	}
	if requested > res.LastPage {
		return h.client.ListJobs(r.Context(), token, res.LastPage)
	}
	return res, nil
}

func (h *Handler) handleBoard(w http.ResponseWriter, r *http.Request) {
	res, err := h.boardPage(r)
	if err != nil {
		h.backendPageError(w, r, err)
		return
	}
	listings := make([]Listing, len(res.Jobs))
	for i, j := range res.Jobs {
		listings[i] = FromBackend(j)
	}
	view := BoardView{Listings: listings, Pager: NewPager(res.Page, res.LastPage, nil)}
	h.render.Render(w, r, http.StatusOK, "board", h.render.NewPage(r, "Job board", view))
}

func (h *Handler) apiListBoard(w http.ResponseWriter, r *http.Request) {
	res, err := h.boardPage(r)
	if err != nil {
		h.backendAPIError(w, r, err)
		return
	}
	listings := make([]Listing, len(res.Jobs))
	for i, j := range res.Jobs {
		listings[i] = FromBackend(j)
	}
	pager := NewPager(res.Page, res.LastPage, nil)
	web.JSON(w, r, http.StatusOK, Page{Data: listings, Page: pager.Page, LastPage: pager.LastPage, Total: res.Total})
}

func (h *Handler) apiCreateBoard(w http.ResponseWriter, r *http.Request) {
	var l Listing
	if err := web.DecodeJSON(r, &l); err != nil {
		web.Error(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := Validate(l); err != nil {
		web.Error(w, r, http.StatusUnprocessableEntity, err.Error())
		return
	}
	token, _ := session.FromContext(r.Context()).Token()
	created, err := h.client.CreateJob(r.Context(), token, l.ToBackend())
	if err != nil {
		h.backendAPIError(w, r, err)
		return
	}
	web.JSON(w, r, http.StatusCreated, FromBackend(*created))
}

func (h *Handler) apiUpdateBoard(w http.ResponseWriter, r *http.Request) {
	var l Listing
	if err := web.DecodeJSON(r, &l); err != nil {
		web.Error(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	l.ID = chi.URLParam(r, "id")
	if err := Validate(l); err != nil {
		web.Error(w, r, http.StatusUnprocessableEntity, err.Error())
		return
	}
	token, _ := session.FromContext(r.Context()).Token()
	updated, err := h.client.UpdateJob(r.Context(), token, l.ToBackend())
	if err != nil {
		h.backendAPIError(w, r, err)
		return
	}
	web.JSON(w, r, http.StatusOK, FromBackend(*updated))
}

func (h *Handler) apiDeleteBoard(w http.ResponseWriter, r *http.Request) {
	token, _ := session.FromContext(r.Context()).Token()
	if err := h.client.DeleteJob(r.Context(), token, chi.URLParam(r, "id")); err != nil {
		h.backendAPIError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) backendPageError(w http.ResponseWriter, r *http.Request, err error) {
	if backend.IsUnauthorized(err) {
		session.FromContext(r.Context()).Clear()
		http.Redirect(w, r, "/signin?next="+url.QueryEscape(r.URL.RequestURI()), http.StatusSeeOther)
		return
	}
	h.render.RenderError(w, r, http.StatusBadGateway, backend.Message(err))
}

func (h *Handler) backendAPIError(w http.ResponseWriter, r *http.Request, err error) {
	if backend.IsUnauthorized(err) {
		session.FromContext(r.Context()).Clear()
		web.Error(w, r, http.StatusUnauthorized, backend.Message(err))
		return
	}
	var be *backend.Error
	if errors.As(err, &be) && be.StatusCode == http.StatusNotFound {
		web.Error(w, r, http.StatusNotFound, be.UserMessage())
		return
	}
	web.Error(w, r, http.StatusBadGateway, backend.Message(err))
}

func listingFromForm(form url.Values) Listing {
	get := func(k string) string { return strings.TrimSpace(form.Get(k)) }
	return Listing{
		Title:       get("title"),
		Type:        get("type"),
		Location:    get("location"),
		Pay:         get("pay"),
		Company:     get("company"),
		StartDate:   get("start_date"),
		EndDate:     get("end_date"),
		URL:         get("url"),
		Description: get("description"),
	}
}
