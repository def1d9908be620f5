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

// Adzuna searches the Adzuna jobs API.
type Adzuna struct {
	baseURL string
	appID   string
	appKey  string
	country string
	client  *http.Client
}

func NewAdzuna(baseURL, appID, appKey, country string, client *http.Client) *Adzuna {
	if country == "" {
		country = "gb"
	}
	return &Adzuna{
		baseURL: strings.TrimRight(baseURL, "/"),
		appID:   appID,
		appKey:  appKey,
		country: country,
		client:  client,
	}
}

func (a *Adzuna) Name() string { return "adzuna" }

type adzunaResponse struct {
	Count   int         `json:"count"`
	Results []adzunaJob `json:"results"`
}

type adzunaJob struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	Description  string  `json:"description"`
	RedirectURL  string  `json:"redirect_url"`
	Created      string  `json:"created"`
	ContractTime string  `json:"contract_time"`
	ContractType string  `json:"contract_type"`
	SalaryMin    float64 `json:"salary_min"`
	SalaryMax    float64 `json:"salary_max"`
	Company      struct {
		DisplayName string `json:"display_name"`
	} `json:"company"`
	Location struct {
		DisplayName string `json:"display_name"`
	} `json:"location"`
}

func (a *Adzuna) Search(ctx context.Context, q Query) (*Result, error) {
	params := url.Values{}
	params.Set("app_id", a.appID)
	params.Set("app_key", a.appKey)
	params.Set("results_per_page", strconv.Itoa(q.PerPage))
	if q.What != "" {
		params.Set("what", q.What)
	}
	if q.Where != "" {
		params.Set("where", q.Where)
	}

	u := fmt.Sprintf("%s/%s/search/%d?%s", a.baseURL, a.country, q.Page, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating adzuna request: %w", err)
	}

	var resp adzunaResponse
	if err := getJSON(a.client, a.Name(), req, &resp); err != nil {
		return nil, err
	}

	listings := make([]jobs.Listing, 0, len(resp.Results))
	for _, j := range resp.Results {
		listings = append(listings, jobs.Listing{
			ID:          j.ID,
			Title:       j.Title,
			Type:        joinNonEmpty(", ", humanize(j.ContractTime), humanize(j.ContractType)),
			Location:    j.Location.DisplayName,
			Pay:         formatPay("GBP", j.SalaryMin, j.SalaryMax, ""),
			Company:     j.Company.DisplayName,
			PostedAt:    dateOnly(j.Created),
			URL:         j.RedirectURL,
			Description: j.Description,
			Source:      a.Name(),
		}.WithRate())
	}
	return &Result{Provider: a.Name(), Listings: listings, Total: resp.Count, Page: q.Page}, nil
}

// humanize turns "full_time" into "Full time".
func humanize(s string) string {
	s = strings.ReplaceAll(strings.TrimSpace(s), "_", " ")
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
