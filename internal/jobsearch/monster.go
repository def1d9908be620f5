package jobsearch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/guardpost/guardpost/internal/jobs"
)

// Monster searches the Monster jobs service, whose results embed
// schema.org JobPosting documents.
type Monster struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewMonster(baseURL, apiKey string, client *http.Client) *Monster {
	return &Monster{baseURL: strings.TrimRight(baseURL, "/"), apiKey: apiKey, client: client}
}

func (m *Monster) Name() string { return "monster" }

type monsterResponse struct {
	TotalSize  int          `json:"totalSize"`
	JobResults []monsterJob `json:"jobResults"`
}

type monsterJob struct {
	JobID      string     `json:"jobId"`
	JobPosting jobPosting `json:"jobPosting"`
}

type jobPosting struct {
	Title              string   `json:"title"`
	Description        string   `json:"description"`
	URL                string   `json:"url"`
	DatePosted         string   `json:"datePosted"`
	ValidThrough       string   `json:"validThrough"`
	EmploymentType     []string `json:"employmentType"`
	HiringOrganization struct {
		Name string `json:"name"`
	} `json:"hiringOrganization"`
	JobLocation []struct {
		Address struct {
			AddressLocality string `json:"addressLocality"`
			AddressRegion   string `json:"addressRegion"`
		} `json:"address"`
	} `json:"jobLocation"`
	BaseSalary *struct {
		Currency string `json:"currency"`
		Value    struct {
			MinValue float64 `json:"minValue"`
			MaxValue float64 `json:"maxValue"`
			Value    float64 `json:"value"`
			UnitText string  `json:"unitText"`
		} `json:"value"`
	} `json:"baseSalary"`
}

func (m *Monster) Search(ctx context.Context, q Query) (*Result, error) {
	params := url.Values{}
	params.Set("page", strconv.Itoa(q.Page))
	params.Set("pageSize", strconv.Itoa(q.PerPage))
	if q.What != "" {
		params.Set("q", q.What)
	}
	if q.Where != "" {
		params.Set("where", q.Where)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.baseURL+"/jobs/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating monster request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+m.apiKey)

	var resp monsterResponse
	if err := getJSON(m.client, m.Name(), req, &resp); err != nil {
		return nil, err
	}

	listings := make([]jobs.Listing, 0, len(resp.JobResults))
	for _, j := range resp.JobResults {
		p := j.JobPosting

		location := ""
		if len(p.JobLocation) > 0 {
			addr := p.JobLocation[0].Address
			location = joinNonEmpty(", ", addr.AddressLocality, addr.AddressRegion)
		}

		pay := ""
		if p.BaseSalary != nil {
			v := p.BaseSalary.Value
			minimum, maximum := v.MinValue, v.MaxValue
			if minimum == 0 && maximum == 0 {
				minimum = v.Value
			}
			pay = formatPay(p.BaseSalary.Currency, minimum, maximum, v.UnitText)
		}

		types := make([]string, 0, len(p.EmploymentType))
		for _, t := range p.EmploymentType {
			types = append(types, humanize(strings.ToLower(t)))
		}

		listings = append(listings, jobs.Listing{
			ID:          j.JobID,
			Title:       p.Title,
			Type:        joinNonEmpty(", ", types...),
			Location:    location,
			Pay:         pay,
			Company:     p.HiringOrganization.Name,
			EndDate:     dateOnly(p.ValidThrough),
			PostedAt:    dateOnly(p.DatePosted),
			URL:         p.URL,
			Description: p.Description,
			Source:      m.Name(),
		}.WithRate())
	}
	return &Result{Provider: m.Name(), Listings: listings, Total: resp.TotalSize, Page: q.Page}, nil
}
