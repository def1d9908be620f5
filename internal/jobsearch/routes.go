package jobsearch

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/guardpost/guardpost/internal/jobs"
	"github.com/guardpost/guardpost/internal/web"
)

// RegisterRoutes mounts the search proxy routes.
func (s *Service) RegisterRoutes(r chi.Router) {
	r.Get("/api/jobs/search", s.handleSearchAll)
	r.Get("/api/jobs/search/{provider}", s.handleSearch)
}

func queryFrom(r *http.Request) Query {
	v := r.URL.Query()
	what := v.Get("what")
	if what == "" {
		what = v.Get("keywords")
	}
	perPage, _ := strconv.Atoi(v.Get("per_page"))
	return Query{
		What:    what,
		Where:   v.Get("where"),
		Page:    jobs.ParsePage(v),
		PerPage: perPage,
	}
}

func (s *Service) handleSearchAll(w http.ResponseWriter, r *http.Request) {
	web.JSON(w, r, http.StatusOK, s.SearchAll(r.Context(), queryFrom(r)))
}

func (s *Service) handleSearch(w http.ResponseWriter, r *http.Request) {
	res, err := s.Search(r.Context(), chi.URLParam(r, "provider"), queryFrom(r))
	if err != nil {
		if errors.Is(err, ErrUnknownProvider) {
			web.Error(w, r, http.StatusNotFound, "Unknown job search provider.")
			return
		}
		web.Error(w, r, http.StatusBadGateway, UnavailableMessage)
		return
	}
	web.JSON(w, r, http.StatusOK, res)
}
