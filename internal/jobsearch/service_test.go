package jobsearch

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/guardpost/guardpost/internal/config"
	"github.com/guardpost/guardpost/internal/jobs"
	"github.com/guardpost/guardpost/internal/metrics"
)

type fakeProvider struct {
	name string
	err  error
	got  Query
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Search(_ context.Context, q Query) (*Result, error) {
	f.got = q
	if f.err != nil {
		return nil, f.err
	}
	return &Result{
		Provider: f.name,
		Listings: []jobs.Listing{{ID: f.name + "-1", Title: "Guard", Source: f.name}},
		Total:    1,
		Page:     q.Page,
	}, nil
}

func TestSearchUnknownProvider(t *testing.T) {
	s := NewService(20, nil, nil, &fakeProvider{name: "reed"})
	_, err := s.Search(context.Background(), "indeed", Query{})
	if !errors.Is(err, ErrUnknownProvider) {
		t.Fatalf("expected ErrUnknownProvider, got %v", err)
	}
}

func TestSearchNormalizesQuery(t *testing.T) {
	p := &fakeProvider{name: "reed"}
	s := NewService(20, nil, nil, p)
	if _, err := s.Search(context.Background(), "reed", Query{What: "  steward ", Page: 0, PerPage: 500}); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if p.got.Page != 1 || p.got.PerPage != 20 || p.got.What != "steward" {
		t.Errorf("query = %+v", p.got)
	}
}

func TestSearchAllPartialFailure(t *testing.T) {
	m := metrics.NewCollector("test")
	s := NewService(10, m, nil,
		&fakeProvider{name: "adzuna"},
		&fakeProvider{name: "reed", err: errors.New("timeout")},
		&fakeProvider{name: "contracts"},
	)

	agg := s.SearchAll(context.Background(), Query{What: "guard"})
	if len(agg.Listings) != 2 {
		t.Fatalf("listings = %d, want 2", len(agg.Listings))
	}
	if agg.Listings[0].Source != "adzuna" || agg.Listings[1].Source != "contracts" {
		t.Errorf("merged order = %s, %s", agg.Listings[0].Source, agg.Listings[1].Source)
	}
	if agg.Errors["reed"] != UnavailableMessage || len(agg.Errors) != 1 {
		t.Errorf("errors = %v", agg.Errors)
	}
	if got := testutil.ToFloat64(m.ProviderRequests.WithLabelValues("reed", "error")); got != 1 {
		t.Errorf("reed error count = %v", got)
	}
	if got := testutil.ToFloat64(m.ProviderRequests.WithLabelValues("adzuna", "ok")); got != 1 {
		t.Errorf("adzuna ok count = %v", got)
	}
}

func TestSearchAllNoProviders(t *testing.T) {
	agg := NewService(10, nil, nil).SearchAll(context.Background(), Query{})
	if agg.Listings == nil || len(agg.Listings) != 0 {
		t.Errorf("listings should be an empty slice, got %v", agg.Listings)
	}
}

func TestProvidersFromConfig(t *testing.T) {
	cfg := config.DefaultConfig().JobSearch
	names := func(ps []Provider) []string {
		var out []string
		for _, p := range ps {
			out = append(out, p.Name())
		}
		return out
	}

	got := names(ProvidersFromConfig(cfg, nil))
	if len(got) != 1 || got[0] != "contracts" {
		t.Errorf("default providers = %v", got)
	}

	cfg.Adzuna.AppID, cfg.Adzuna.AppKey = "id", "key"
	cfg.Reed.APIKey = "r"
	cfg.Monster.APIKey = "m"
	got = names(ProvidersFromConfig(cfg, nil))
	want := []string{"adzuna", "reed", "monster", "contracts"}
	if len(got) != len(want) {
		t.Fatalf("providers = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("providers[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestRoutes(t *testing.T) {
	s := NewService(10, nil, nil,
		&fakeProvider{name: "adzuna"},
		&fakeProvider{name: "reed", err: errors.New("down")},
	)
	r := chi.NewRouter()
	s.RegisterRoutes(r)

	tests := []struct {
		path   string
		status int
	}{
		{"/api/jobs/search?what=guard", http.StatusOK},
		{"/api/jobs/search/adzuna?keywords=guard&page=2", http.StatusOK},
		{"/api/jobs/search/reed", http.StatusBadGateway},
		{"/api/jobs/search/indeed", http.StatusNotFound},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))
		if w.Code != tt.status {
			t.Errorf("GET %s = %d, want %d (%s)", tt.path, w.Code, tt.status, w.Body.String())
		}
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/jobs/search/adzuna?page=2", nil))
	var res Result
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Page != 2 || len(res.Listings) != 1 {
		t.Errorf("result = %+v", res)
	}
}
