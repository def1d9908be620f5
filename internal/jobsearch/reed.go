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

// Reed searches the Reed jobseeker API. The API key is sent as the basic
// auth username.
type Reed struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewReed(baseURL, apiKey string, client *http.Client) *Reed {
	return &Reed{baseURL: strings.TrimRight(baseURL, "/"), apiKey: apiKey, client: client}
}

func (r *Reed) Name() string { return "reed" }

type reedResponse struct {
	TotalResults int       `json:"totalResults"`
	Results      []reedJob `json:"results"`
}

type reedJob struct {
	JobID          int     `json:"jobId"`
	EmployerName   string  `json:"employerName"`
	JobTitle       string  `json:"jobTitle"`
	LocationName   string  `json:"locationName"`
	MinimumSalary  float64 `json:"minimumSalary"`
	MaximumSalary  float64 `json:"maximumSalary"`
	Currency       string  `json:"currency"`
	ExpirationDate string  `json:"expirationDate"`
	Date           string  `json:"date"`
	JobDescription string  `json:"jobDescription"`
	JobURL         string  `json:"jobUrl"`
}

func (r *Reed) Search(ctx context.Context, q Query) (*Result, error) {
	params := url.Values{}
	params.Set("resultsToTake", strconv.Itoa(q.PerPage))
	params.Set("resultsToSkip", strconv.Itoa((q.Page-1)*q.PerPage))
	if q.What != "" {
		params.Set("keywords", q.What)
	}
	if q.Where != "" {
		params.Set("locationName", q.Where)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating reed request: %w", err)
	}
	req.SetBasicAuth(r.apiKey, "")

	var resp reedResponse
	if err := getJSON(r.client, r.Name(), req, &resp); err != nil {
		return nil, err
	}

	listings := make([]jobs.Listing, 0, len(resp.Results))
	for _, j := range resp.Results {
		id := ""
		if j.JobID != 0 {
			id = strconv.Itoa(j.JobID)
		}
		listings = append(listings, jobs.Listing{
			ID:          id,
			Title:       j.JobTitle,
			Location:    j.LocationName,
			Pay:         formatPay(j.Currency, j.MinimumSalary, j.MaximumSalary, ""),
			Company:     j.EmployerName,
			EndDate:     ukDate(j.ExpirationDate),
			PostedAt:    ukDate(j.Date),
			URL:         j.JobURL,
			Description: j.JobDescription,
			Source:      r.Name(),
		}.WithRate())
	}
	return &Result{Provider: r.Name(), Listings: listings, Total: resp.TotalResults, Page: q.Page}, nil
}

// ukDate converts "dd/mm/yyyy" to "yyyy-mm-dd". Other input is returned unchanged.
func ukDate(s string) string {
	parts := strings.Split(s, "/")
	if len(parts) != 3 || len(parts[0]) != 2 || len(parts[1]) != 2 || len(parts[2]) != 4 {
		return s
	}
	return parts[2] + "-" + parts[1] + "-" + parts[0]
}
