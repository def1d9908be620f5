package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

var (
	// ErrNoToken means the visitor has not signed in.
	ErrNoToken = errors.New("session: no authorization token")
	// ErrTokenExpired means the stored token carries an exp claim in the past.
	ErrTokenExpired = errors.New("session: authorization token expired")
)

// Login is the signed-in member as reported by the backend at sign-in.
// It replaces the loginData/profileData storage keys.
type Login struct {
	UserID      string          `json:"user_id"`
	Email       string          `json:"email"`
	DisplayName string          `json:"display_name"`
	Profile     json.RawMessage `json:"profile,omitempty"`
}

// Data is the persisted form of a visitor session.
type Data struct {
	ID                    string    `json:"id"`
	AuthToken             string    `json:"auth_token,omitempty"`
	Login                 *Login    `json:"login,omitempty"`
	RoleID                string    `json:"role_id,omitempty"`
	CreatedPublicProfiles []string  `json:"created_public_profiles,omitempty"`
	PendingChallenge      string    `json:"pending_challenge,omitempty"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// Store persists session data. Get returns nil, nil for unknown or expired ids.
type Store interface {
	Get(ctx context.Context, id string) (*Data, error)
	Save(ctx context.Context, d *Data, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
}

// Expirer is implemented by stores that keep expired sessions until they are
// deleted explicitly. DeleteExpired returns the ids it removed.
type Expirer interface {
	DeleteExpired(ctx context.Context) ([]string, error)
}
