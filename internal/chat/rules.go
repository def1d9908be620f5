package chat

import (
	"fmt"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"
)

// FallbackTopic is reported when no rule matches.
const FallbackTopic = "handoff"

// DefaultFallback hands the visitor over to a person.
const DefaultFallback = "Thanks for your message. A member of our team will get back to you shortly. You can also email support@guardpost.example."

// Rule answers messages that mention any of its keywords.
type Rule struct {
	Topic    string   `yaml:"topic"`
	Keywords []string `yaml:"keywords"`
	Reply    string   `yaml:"reply"`
}

// RuleSet is the YAML document form of the chat rules.
type RuleSet struct {
	Fallback string `yaml:"fallback"`
	Rules    []Rule `yaml:"rules"`
}

// ParseRules decodes a chat rules document.
func ParseRules(data []byte) (*RuleSet, error) {
	var rs RuleSet
	if err := yaml.Unmarshal(data, &rs); err != nil {
		return nil, fmt.Errorf("parsing chat rules: %w", err)
	}
	for i, r := range rs.Rules {
		if r.Topic == "" || r.Reply == "" || len(r.Keywords) == 0 {
			return nil, fmt.Errorf("chat rule %d: topic, keywords and reply are required", i)
		}
	}
	return &rs, nil
}

// DefaultRules is used when no chat.yaml is available.
func DefaultRules() *RuleSet {
	return &RuleSet{
		Fallback: DefaultFallback,
		Rules: []Rule{
			{
				Topic:    "pricing",
				Keywords: []string{"price", "prices", "pricing", "cost", "costs", "fee", "fees", "how much"},
				Reply:    "Our membership prices are listed on the pricing page: /pricing",
			},
			{
				Topic:    "tiers",
				Keywords: []string{"tier", "tiers", "basic", "standard", "premium", "membership", "upgrade"},
				Reply:    "We offer Basic, Standard and Premium memberships. Compare what each includes at /pricing",
			},
			{
				Topic:    "signin",
				Keywords: []string{"sign in", "signin", "log in", "login", "password", "2fa", "code", "account"},
				Reply:    "You can sign in at /signin. If you use two-factor authentication, enter the code sent to you after your password.",
			},
			{
				Topic:    "jobs",
				Keywords: []string{"job", "jobs", "work", "shift", "shifts", "vacancy", "vacancies", "contract", "contracts"},
				Reply:    "Browse and post security jobs at /jobs. Members can also see the full job board once signed in.",
			},
			{
				Topic:    "favorites",
				Keywords: []string{"favorite", "favorites", "favourite", "favourites", "saved", "shortlist"},
				Reply:    "Members you favorite are listed at /favorites once you are signed in.",
			},
			{
				Topic:    "contact",
				Keywords: []string{"contact", "email", "phone", "call", "support", "help", "human", "person"},
				Reply:    "You can reach our support team at support@guardpost.example. We reply within one working day.",
			},
		},
	}
}

// Responder picks a reply for a visitor message from a keyword rule set.
type Responder struct {
	rules    []Rule
	fallback string
}

func NewResponder(rs *RuleSet) *Responder {
	if rs == nil {
		rs = DefaultRules()
	}
	fallback := rs.Fallback
	if fallback == "" {
		fallback = DefaultFallback
	}
	rules := make([]Rule, len(rs.Rules))
	for i, r := range rs.Rules {
		kws := make([]string, 0, len(r.Keywords))
		for _, k := range r.Keywords {
			if k = normalize(k); k != "" {
				kws = append(kws, k)
			}
		}
		r.Keywords = kws
		rules[i] = r
	}
	return &Responder{rules: rules, fallback: fallback}
}

// Reply returns the answer for text and the topic it matched. The rule with
// the most keyword hits wins; ties go to the earlier rule.
func (r *Responder) Reply(text string) (reply, topic string) {
	padded := " " + normalize(text) + " "
	best, bestHits := -1, 0
	for i, rule := range r.rules {
		hits := 0
		for _, k := range rule.Keywords {
			if strings.Contains(padded, " "+k+" ") {
				hits++
			}
		}
		if hits > bestHits {
			best, bestHits = i, hits
		}
	}
	if best < 0 {
		return r.fallback, FallbackTopic
	}
	return r.rules[best].Reply, r.rules[best].Topic
}

// normalize lowercases s and collapses everything but letters and digits
// into single spaces.
func normalize(s string) string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(c rune) bool {
		return !unicode.IsLetter(c) && !unicode.IsDigit(c)
	})
	return strings.Join(fields, " ")
}
