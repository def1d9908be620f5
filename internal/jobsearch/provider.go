package jobsearch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/guardpost/guardpost/internal/jobs"
)

// ErrUnknownProvider is returned when a search names a provider that is not
// configured.
var ErrUnknownProvider = errors.New("unknown job search provider")

// UnavailableMessage is shown when a provider cannot be reached.
const UnavailableMessage = "Job search is unavailable right now. Please try again later."

// Query is a search request passed to every provider.
type Query struct {
	What    string
	Where   string
	Page    int
	PerPage int
}

// Result is one provider's page of listings.
type Result struct {
	Provider string         `json:"provider"`
	Listings []jobs.Listing `json:"data"`
	Total    int            `json:"total"`
	Page     int            `json:"page"`
}

// Provider searches one third-party job API and reshapes its response into
// the common listing shape.
type Provider interface {
	Name() string
	Search(ctx context.Context, q Query) (*Result, error)
}

// ProviderError reports a non-2xx response from a provider.
type ProviderError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s returned status %d: %s", e.Provider, e.StatusCode, e.Body)
}

// getJSON performs req and decodes a 2xx JSON body into out.
func getJSON(client *http.Client, provider string, req *http.Request, out any) error {
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", provider, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading %s response: %w", provider, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet := strings.TrimSpace(string(body))
		if len(snippet) > 200 {
			snippet = snippet[:200]
		}
		return &ProviderError{Provider: provider, StatusCode: resp.StatusCode, Body: snippet}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decoding %s response: %w", provider, err)
	}
	return nil
}

func normalize(q Query, perPage int) Query {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PerPage < 1 || q.PerPage > perPage {
		q.PerPage = perPage
	}
	q.What = strings.TrimSpace(q.What)
	q.Where = strings.TrimSpace(q.Where)
	return q
}

var currencySymbols = map[string]string{
	"GBP": "£",
	"EUR": "€",
	"USD": "$",
}

// formatPay renders a salary range such as "£25000 - £30000 per year".
// Zero bounds are treated as absent.
func formatPay(currency string, minimum, maximum float64, period string) string {
	if minimum <= 0 && maximum <= 0 {
		return ""
	}
	symbol, ok := currencySymbols[strings.ToUpper(currency)]
	if !ok && currency != "" {
		symbol = strings.ToUpper(currency) + " "
	}

	amount := func(v float64) string {
		return symbol + decimal.NewFromFloat(v).Round(2).String()
	}

	var pay string
	switch {
	case minimum <= 0:
		pay = amount(maximum)
	case maximum <= 0 || maximum == minimum:
		pay = amount(minimum)
	default:
		pay = amount(minimum) + " - " + amount(maximum)
	}
	if period != "" {
		pay += " per " + strings.ToLower(period)
	}
	return pay
}

// dateOnly trims an ISO timestamp to its date.
func dateOnly(s string) string {
	if len(s) >= 10 && s[4] == '-' && s[7] == '-' {
		return s[:10]
	}
	return s
}

// joinNonEmpty joins the non-empty parts with sep.
func joinNonEmpty(sep string, parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
