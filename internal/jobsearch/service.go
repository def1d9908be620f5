package jobsearch

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/guardpost/guardpost/internal/config"
	"github.com/guardpost/guardpost/internal/jobs"
	"github.com/guardpost/guardpost/internal/metrics"
)

// Service dispatches searches to the configured providers.
type Service struct {
	providers map[string]Provider
	order     []string
	perPage   int
	metrics   *metrics.Collector
	logger    *zap.Logger
}

func NewService(perPage int, m *metrics.Collector, logger *zap.Logger, providers ...Provider) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if perPage <= 0 {
		perPage = 20
	}
	s := &Service{
		providers: make(map[string]Provider, len(providers)),
		perPage:   perPage,
		metrics:   m,
		logger:    logger,
	}
	for _, p := range providers {
		if _, dup := s.providers[p.Name()]; dup {
			continue
		}
		s.providers[p.Name()] = p
		s.order = append(s.order, p.Name())
	}
	return s
}

// ProvidersFromConfig builds every provider that has credentials.
func ProvidersFromConfig(cfg config.JobSearchConfig, client *http.Client) []Provider {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	var providers []Provider
	if cfg.Adzuna.AppID != "" && cfg.Adzuna.AppKey != "" {
		providers = append(providers, NewAdzuna(orDefault(cfg.Adzuna.BaseURL, config.DefaultAdzunaURL), cfg.Adzuna.AppID, cfg.Adzuna.AppKey, cfg.Adzuna.Country, client))
	}
	if cfg.Reed.APIKey != "" {
		providers = append(providers, NewReed(orDefault(cfg.Reed.BaseURL, config.DefaultReedURL), cfg.Reed.APIKey, client))
	}
	if cfg.Monster.APIKey != "" {
		providers = append(providers, NewMonster(orDefault(cfg.Monster.BaseURL, config.DefaultMonsterURL), cfg.Monster.APIKey, client))
	}
	if cfg.Contracts.Enabled {
		providers = append(providers, NewContracts(orDefault(cfg.Contracts.BaseURL, config.DefaultContractsURL), client))
	}
	return providers
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// Names lists the configured providers in registration order.
func (s *Service) Names() []string {
	return append([]string(nil), s.order...)
}

// Search queries a single provider.
func (s *Service) Search(ctx context.Context, name string, q Query) (*Result, error) {
	p, ok := s.providers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, name)
	}
	return s.search(ctx, p, normalize(q, s.perPage))
}

func (s *Service) search(ctx context.Context, p Provider, q Query) (*Result, error) {
	start := time.Now()
	res, err := p.Search(ctx, q)
	s.metrics.ObserveProvider(p.Name(), time.Since(start), err)
	if err != nil {
		s.logger.Warn("job search failed",
			zap.String("provider", p.Name()),
			zap.String("what", q.What),
			zap.Error(err),
		)
		return nil, fmt.Errorf("searching %s: %w", p.Name(), err)
	}
	return res, nil
}

// Aggregate is the merged result of searching every provider.
type Aggregate struct {
	Listings  []jobs.Listing    `json:"data"`
	Providers []string          `json:"providers"`
	Errors    map[string]string `json:"errors"`
	Page      int               `json:"page"`
}

// SearchAll queries every provider concurrently. A failing provider does not
// cancel the others; its message is reported under Errors and the merged
// listings keep provider registration order.
func (s *Service) SearchAll(ctx context.Context, q Query) *Aggregate {
	q = normalize(q, s.perPage)
	results := make([]*Result, len(s.order))
	failures := make([]error, len(s.order))

	g, ctx := errgroup.WithContext(ctx)
	for i, name := range s.order {
		p := s.providers[name]
		g.Go(func() error {
			results[i], failures[i] = s.search(ctx, p, q)
			return nil
		})
	}
	_ = g.Wait()

	agg := &Aggregate{
		Listings:  []jobs.Listing{},
		Providers: s.Names(),
		Errors:    map[string]string{},
		Page:      q.Page,
	}
	for i, name := range s.order {
		if failures[i] != nil {
			agg.Errors[name] = UnavailableMessage
			continue
		}
		agg.Listings = append(agg.Listings, results[i].Listings...)
	}
	return agg
}
