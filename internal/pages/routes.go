package pages

import (
	"net/http"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/guardpost/guardpost/internal/web"
)

// HomeSlug is the page served at "/".
const HomeSlug = "home"

// Handler serves the static content pages.
type Handler struct {
	lib    *Library
	render *web.Renderer
}

func NewHandler(lib *Library, rd *web.Renderer) *Handler {
	return &Handler{lib: lib, render: rd}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.handleHome)
	r.Get("/pages/*", h.handlePage)
	r.Get("/pricing", h.handlePricing)
	r.Get("/api/tiers", h.apiTiers)
}

func (h *Handler) handleHome(w http.ResponseWriter, r *http.Request) {
	h.servePage(w, r, HomeSlug)
}

func (h *Handler) handlePage(w http.ResponseWriter, r *http.Request) {
	h.servePage(w, r, strings.Trim(chi.URLParam(r, "*"), "/"))
}

func (h *Handler) servePage(w http.ResponseWriter, r *http.Request, slug string) {
	page, ok := h.lib.Page(slug)
	if !ok {
		h.render.RenderError(w, r, http.StatusNotFound, "Page not found.")
		return
	}
	h.render.Render(w, r, http.StatusOK, "markdown", h.render.NewPage(r, page.Title, page))
}

func (h *Handler) handlePricing(w http.ResponseWriter, r *http.Request) {
	tiers := h.lib.Tiers()
	if tiers == nil {
		h.render.RenderError(w, r, http.StatusNotFound, "Pricing is not available.")
		return
	}
	h.render.Render(w, r, http.StatusOK, "pricing", h.render.NewPage(r, "Pricing", tiers.View()))
}

type tierResponse struct {
	Name     string   `json:"name"`
	Price    string   `json:"price"`
	Currency string   `json:"currency"`
	Period   string   `json:"period"`
	Summary  string   `json:"summary"`
	Features []string `json:"features"`
}

func (h *Handler) apiTiers(w http.ResponseWriter, r *http.Request) {
	tiers := h.lib.Tiers()
	if tiers == nil {
		web.Error(w, r, http.StatusNotFound, "Pricing is not available.")
		return
	}
	out := make([]tierResponse, 0, len(tiers.Tiers))
	for _, t := range tiers.Tiers {
		features := make([]string, 0, len(t.Features))
		for k, ok := range t.Features {
			if ok {
				features = append(features, k)
			}
		}
		sort.Strings(features)
		out = append(out, tierResponse{
			Name:     t.Name,
			Price:    t.Price.StringFixed(2),
			Currency: t.Currency,
			Period:   t.Period,
			Summary:  t.Summary,
			Features: features,
		})
	}
	web.JSON(w, r, http.StatusOK, map[string]any{"data": out})
}
