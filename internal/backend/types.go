package backend

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// User is the account returned at sign-in.
type User struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	RoleID      string `json:"roleId"`
}

// LoginResult is the response to a password sign-in. When TwoFactorRequired
// is set the token is empty and ChallengeID must be verified first.
type LoginResult struct {
	Token             string          `json:"token"`
	TwoFactorRequired bool            `json:"twoFactorRequired"`
	ChallengeID       string          `json:"challengeId"`
	User              User            `json:"user"`
	Profile           json.RawMessage `json:"profile,omitempty"`
}

// Profile is an individual member profile. ProfileData holds one object per
// section namespace (about, fees, services).
type Profile struct {
	ID          string         `json:"id"`
	UserID      string         `json:"userId"`
	DisplayName string         `json:"displayName"`
	Email       string         `json:"email"`
	RoleID      string         `json:"roleId"`
	Public      bool           `json:"public"`
	ProfileData map[string]any `json:"profileData"`
}

// Section returns the fields stored under a namespace, or an empty map.
func (p *Profile) Section(namespace string) map[string]any {
	if p == nil || p.ProfileData == nil {
		return map[string]any{}
	}
	if m, ok := p.ProfileData[namespace].(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

// PublicProfile is the response to creating a public profile.
type PublicProfile struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Job is a job board entry as stored by the backend.
type Job struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Type        string    `json:"type"`
	Location    string    `json:"location"`
	Pay         string    `json:"pay"`
	Company     string    `json:"company"`
	StartDate   string    `json:"startDate"`
	EndDate     string    `json:"endDate"`
	URL         string    `json:"url"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

// JobPage is one page of the job board.
type JobPage struct {
	Jobs     []Job `json:"data"`
	Page     int   `json:"page"`
	LastPage int   `json:"lastPage"`
	Total    int   `json:"total"`
}

// Favorite is a directed requester -> target edge.
type Favorite struct {
	UserID      string    `json:"userId"`
	DisplayName string    `json:"displayName"`
	RoleID      string    `json:"roleId"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Order is a membership purchase.
type Order struct {
	ID        string          `json:"id"`
	Tier      string          `json:"tier"`
	Status    string          `json:"status"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
	CreatedAt time.Time       `json:"createdAt"`
}
