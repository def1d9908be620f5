package section

import (
	"fmt"
	"net/url"
	"strings"
)

// About is the member's introduction.
var About = Section{
	Name:      "about",
	Title:     "About",
	Namespace: "about",
	Fields: []Field{
		{Name: "headline", Label: "Headline", Kind: KindString, Rules: "max=120"},
		{Name: "aboutMe", Label: "About me", Kind: KindString, Rules: "max=2000"},
		{Name: "experience", Label: "Experience", Kind: KindString, Rules: "max=2000"},
		{Name: "licences", Label: "Licences", Kind: KindList, Rules: "max=10,dive,max=60"},
	},
}

// Fees holds the member's rates.
var Fees = Section{
	Name:      "fees",
	Title:     "Fees",
	Namespace: "fees",
	Fields: []Field{
		{Name: "hourlyRate", Label: "Hourly rate", Kind: KindString, Rules: "omitempty,numeric"},
		{Name: "dayRate", Label: "Day rate", Kind: KindString, Rules: "omitempty,numeric"},
		{Name: "currency", Label: "Currency", Kind: KindString, Rules: "omitempty,oneof=GBP EUR USD"},
		{Name: "notes", Label: "Notes", Kind: KindString, Rules: "max=500"},
	},
}

// Services lists what the member offers and where.
var Services = Section{
	Name:      "services",
	Title:     "Services",
	Namespace: "services",
	Fields: []Field{
		{Name: "services", Label: "Services", Kind: KindList, Rules: "max=20,dive,min=1,max=60"},
		{Name: "areas", Label: "Areas covered", Kind: KindList, Rules: "max=20,dive,min=1,max=60"},
		{Name: "availability", Label: "Availability", Kind: KindObject, Keys: []string{"weekdays", "weekends", "nights"}},
	},
}

var all = []Section{About, Fees, Services}

// All returns the profile sections in display order.
func All() []Section {
	out := make([]Section, len(all))
	copy(out, all)
	return out
}

// Lookup returns the section with the given name.
func Lookup(name string) (Section, error) {
	for _, s := range all {
		if s.Name == name {
			return s, nil
		}
	}
	return Section{}, fmt.Errorf("%w: %q", ErrUnknownSection, name)
}

// FromForm reads submitted form values for this section. List fields are
// one entry per line; object fields use "<field>.<key>" inputs.
func (s Section) FromForm(form url.Values) map[string]any {
	out := make(map[string]any, len(s.Fields))
	for _, f := range s.Fields {
		switch f.Kind {
		case KindList:
			items := []string{}
			for _, line := range strings.Split(form.Get(f.Name), "\n") {
				if line = strings.TrimSpace(line); line != "" {
					items = append(items, line)
				}
			}
			out[f.Name] = items
		case KindObject:
			obj := map[string]any{}
			for _, key := range f.Keys {
				obj[key] = strings.TrimSpace(form.Get(f.Name + "." + key))
			}
			out[f.Name] = obj
		default:
			out[f.Name] = strings.TrimSpace(form.Get(f.Name))
		}
	}
	return out
}
