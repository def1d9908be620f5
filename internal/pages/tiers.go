package pages

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Feature is one row of the tier comparison.
type Feature struct {
	Key   string `yaml:"key"`
	Label string `yaml:"label"`
}

// Tier is one membership level.
type Tier struct {
	Name     string
	Price    decimal.Decimal
	Currency string
	Period   string
	Summary  string
	Features map[string]bool
}

// Tiers is the membership catalogue and its feature matrix.
type Tiers struct {
	Tiers    []Tier
	Features []Feature
}

type tiersFile struct {
	Currency string    `yaml:"currency"`
	Features []Feature `yaml:"features"`
	Tiers    []struct {
		Name     string   `yaml:"name"`
		Price    string   `yaml:"price"`
		Currency string   `yaml:"currency"`
		Period   string   `yaml:"period"`
		Summary  string   `yaml:"summary"`
		Features []string `yaml:"features"`
	} `yaml:"tiers"`
}

// ParseTiers decodes tiers.yaml. Every feature a tier names must be declared
// in the features list.
func ParseTiers(data []byte) (*Tiers, error) {
	var f tiersFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing tiers: %w", err)
	}

	known := make(map[string]bool, len(f.Features))
	for _, feat := range f.Features {
		known[feat.Key] = true
	}

	t := &Tiers{Features: f.Features}
	for _, raw := range f.Tiers {
		price, err := decimal.NewFromString(strings.TrimSpace(raw.Price))
		if err != nil {
			return nil, fmt.Errorf("tier %s: invalid price %q: %w", raw.Name, raw.Price, err)
		}
		if price.IsNegative() {
			return nil, fmt.Errorf("tier %s: price must not be negative", raw.Name)
		}
		currency := raw.Currency
		if currency == "" {
			currency = f.Currency
		}
		tier := Tier{
			Name:     raw.Name,
			Price:    price,
			Currency: currency,
			Period:   raw.Period,
			Summary:  raw.Summary,
			Features: make(map[string]bool, len(raw.Features)),
		}
		for _, key := range raw.Features {
			if !known[key] {
				return nil, fmt.Errorf("tier %s: unknown feature %q", raw.Name, key)
			}
			tier.Features[key] = true
		}
		t.Tiers = append(t.Tiers, tier)
	}
	return t, nil
}

// Allows reports whether the named tier includes feature. Tier names match
// case-insensitively; an unknown tier allows nothing.
func (t *Tiers) Allows(tier, feature string) bool {
	if t == nil {
		return false
	}
	for _, candidate := range t.Tiers {
		if strings.EqualFold(candidate.Name, tier) {
			return candidate.Features[feature]
		}
	}
	return false
}

// Row is one line of the comparison table.
type Row struct {
	Label    string
	Included []bool
}

// PricingView is the data of the pricing page.
type PricingView struct {
	Tiers []Tier
	Rows  []Row
}

// View builds the comparison table in declared order.
func (t *Tiers) View() PricingView {
	if t == nil {
		return PricingView{}
	}
	v := PricingView{Tiers: t.Tiers}
	for _, feat := range t.Features {
		row := Row{Label: feat.Label, Included: make([]bool, len(t.Tiers))}
		for i, tier := range t.Tiers {
			row.Included[i] = tier.Features[feat.Key]
		}
		v.Rows = append(v.Rows, row)
	}
	return v
}
