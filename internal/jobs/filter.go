package jobs

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
)

// Filter narrows a list of listings. Empty fields match everything.
type Filter struct {
	Title    string
	Location string
	Type     string
	MaxRate  decimal.NullDecimal
}

// ParseFilter reads title, location, type and max_rate query parameters.
func ParseFilter(q url.Values) (Filter, error) {
	f := Filter{
		Title:    strings.TrimSpace(q.Get("title")),
		Location: strings.TrimSpace(q.Get("location")),
		Type:     strings.TrimSpace(q.Get("type")),
	}
	if raw := strings.TrimSpace(q.Get("max_rate")); raw != "" {
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return f, fmt.Errorf("invalid max_rate %q", raw)
		}
		f.MaxRate = decimal.NewNullDecimal(d)
	}
	return f, nil
}

// Match reports whether l satisfies every set filter: case-insensitive
// substring for text fields and rate <= MaxRate. A listing with no
// parseable rate never satisfies a rate filter.
func (f Filter) Match(l Listing) bool {
	if !containsFold(l.Title, f.Title) || !containsFold(l.Location, f.Location) || !containsFold(l.Type, f.Type) {
		return false
	}
	if f.MaxRate.Valid {
		rate := l.Rate
		if !rate.Valid {
			rate = ParseRate(l.Pay)
		}
		if !rate.Valid || rate.Decimal.GreaterThan(f.MaxRate.Decimal) {
			return false
		}
	}
	return true
}

// Apply returns the listings that match, preserving order.
func (f Filter) Apply(listings []Listing) []Listing {
	out := make([]Listing, 0, len(listings))
	for _, l := range listings {
		if f.Match(l) {
			out = append(out, l)
		}
	}
	return out
}

// MaxRateString is the max rate as entered, or empty.
func (f Filter) MaxRateString() string {
	if !f.MaxRate.Valid {
		return ""
	}
	return f.MaxRate.Decimal.String()
}

// Encode returns the filter as query parameters.
func (f Filter) Encode() url.Values {
	q := url.Values{}
	if f.Title != "" {
		q.Set("title", f.Title)
	}
	if f.Location != "" {
		q.Set("location", f.Location)
	}
	if f.Type != "" {
		q.Set("type", f.Type)
	}
	if f.MaxRate.Valid {
		q.Set("max_rate", f.MaxRate.Decimal.String())
	}
	return q
}

func containsFold(s, substr string) bool {
	if substr == "" {
		return true
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
