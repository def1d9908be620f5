package jobs

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/guardpost/guardpost/internal/backend"
)

// Listing sources.
const (
	SourceLocal = "local"
	SourceBoard = "board"
)

// Listing is the common job shape shared by local listings, the job board
// and every third-party search provider. Fields a source does not provide
// are empty strings.
type Listing struct {
	ID          string              `json:"id"`
	Title       string              `json:"title" validate:"required,max=200"`
	Type        string              `json:"type" validate:"max=60"`
	Location    string              `json:"location" validate:"max=120"`
	Pay         string              `json:"pay" validate:"max=60"`
	Rate        decimal.NullDecimal `json:"rate" validate:"-"`
	Company     string              `json:"company" validate:"max=120"`
	StartDate   string              `json:"startDate" validate:"omitempty,datetime=2006-01-02"`
	EndDate     string              `json:"endDate" validate:"omitempty,datetime=2006-01-02"`
	PostedAt    string              `json:"postedAt"`
	URL         string              `json:"url" validate:"omitempty,url"`
	Description string              `json:"description" validate:"max=5000"`
	Source      string              `json:"source"`
}

var rateRe = regexp.MustCompile(`[0-9][0-9,]*(\.[0-9]+)?`)

// ParseRate extracts the first number in a pay string such as "£14.50/hr"
// or "25,000 - 30,000".
func ParseRate(pay string) decimal.NullDecimal {
	m := rateRe.FindString(pay)
	if m == "" {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(m, ",", ""))
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

// WithRate returns l with Rate parsed from Pay when not already set.
func (l Listing) WithRate() Listing {
	if !l.Rate.Valid {
		l.Rate = ParseRate(l.Pay)
	}
	return l
}

// FromBackend converts a job board entry.
func FromBackend(j backend.Job) Listing {
	posted := ""
	if !j.CreatedAt.IsZero() {
		posted = j.CreatedAt.Format("2006-01-02")
	}
	return Listing{
		ID:          j.ID,
		Title:       j.Title,
		Type:        j.Type,
		Location:    j.Location,
		Pay:         j.Pay,
		Company:     j.Company,
		StartDate:   j.StartDate,
		EndDate:     j.EndDate,
		PostedAt:    posted,
		URL:         j.URL,
		Description: j.Description,
		Source:      SourceBoard,
	}.WithRate()
}

// ToBackend converts a listing for the job board API.
func (l Listing) ToBackend() backend.Job {
	return backend.Job{
		ID:          l.ID,
		Title:       l.Title,
		Type:        l.Type,
		Location:    l.Location,
		Pay:         l.Pay,
		Company:     l.Company,
		StartDate:   l.StartDate,
		EndDate:     l.EndDate,
		URL:         l.URL,
		Description: l.Description,
	}
}
