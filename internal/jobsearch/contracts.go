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

// maxContractsLimit is the largest page the Contracts Finder OCDS search accepts.
const maxContractsLimit = 100

// Contracts searches UK government tender notices on Contracts Finder. The
// OCDS search pages with cursors, so page N is served by fetching N*PerPage
// releases and slicing the last page. Location is matched locally against
// the buyer's address.
type Contracts struct {
	baseURL string
	client  *http.Client
}

func NewContracts(baseURL string, client *http.Client) *Contracts {
	return &Contracts{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

func (c *Contracts) Name() string { return "contracts" }

type ocdsResponse struct {
	Releases []ocdsRelease `json:"releases"`
}

type ocdsRelease struct {
	ID     string `json:"id"`
	OCID   string `json:"ocid"`
	Date   string `json:"date"`
	Tender struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Status      string `json:"status"`
		Value       *struct {
			Amount   float64 `json:"amount"`
			Currency string  `json:"currency"`
		} `json:"value"`
		TenderPeriod struct {
			StartDate string `json:"startDate"`
			EndDate   string `json:"endDate"`
		} `json:"tenderPeriod"`
		ContractPeriod struct {
			StartDate string `json:"startDate"`
			EndDate   string `json:"endDate"`
		} `json:"contractPeriod"`
	} `json:"tender"`
	Buyer struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"buyer"`
	Parties []struct {
		ID      string `json:"id"`
		Address struct {
			Locality string `json:"locality"`
			Region   string `json:"region"`
		} `json:"address"`
	} `json:"parties"`
}

func (c *Contracts) Search(ctx context.Context, q Query) (*Result, error) {
	limit := q.Page * q.PerPage
	if limit > maxContractsLimit {
		limit = maxContractsLimit
	}

	params := url.Values{}
	params.Set("stages", "tender")
	params.Set("limit", strconv.Itoa(limit))
	if q.What != "" {
		params.Set("keyword", q.What)
	}

	u := c.baseURL + "/Published/Notices/OCDS/Search?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating contracts request: %w", err)
	}

	var resp ocdsResponse
	if err := getJSON(c.client, c.Name(), req, &resp); err != nil {
		return nil, err
	}

	where := strings.ToLower(q.Where)
	var all []jobs.Listing
	for _, rel := range resp.Releases {
		l := c.listing(rel)
		if where != "" && !strings.Contains(strings.ToLower(l.Location), where) {
			continue
		}
		all = append(all, l)
	}

	start := (q.Page - 1) * q.PerPage
	if start > len(all) {
		start = len(all)
	}
	end := start + q.PerPage
	if end > len(all) {
		end = len(all)
	}
	return &Result{Provider: c.Name(), Listings: all[start:end], Total: len(all), Page: q.Page}, nil
}

func (c *Contracts) listing(rel ocdsRelease) jobs.Listing {
	location := ""
	for _, p := range rel.Parties {
		if p.ID == rel.Buyer.ID {
			location = joinNonEmpty(", ", p.Address.Locality, p.Address.Region)
			break
		}
	}

	pay := ""
	if v := rel.Tender.Value; v != nil {
		pay = formatPay(v.Currency, v.Amount, 0, "")
	}

	id := rel.OCID
	if id == "" {
		id = rel.ID
	}

	link := ""
	if rel.ID != "" {
		link = c.baseURL + "/Notice/" + url.PathEscape(noticeID(rel.ID))
	}

	return jobs.Listing{
		ID:          id,
		Title:       rel.Tender.Title,
		Type:        "Tender",
		Location:    location,
		Pay:         pay,
		Company:     rel.Buyer.Name,
		StartDate:   dateOnly(rel.Tender.ContractPeriod.StartDate),
		EndDate:     dateOnly(rel.Tender.TenderPeriod.EndDate),
		PostedAt:    dateOnly(rel.Date),
		URL:         link,
		Description: rel.Tender.Description,
		Source:      c.Name(),
	}.WithRate()
}

// noticeID strips the OCDS release suffix ("<notice-guid>-<n>") down to the
// notice GUID.
func noticeID(releaseID string) string {
	if len(releaseID) > 36 && releaseID[36] == '-' {
		return releaseID[:36]
	}
	return releaseID
}
