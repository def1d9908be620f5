package session

import (
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Session is the request-scoped view of a visitor's persisted state. All
// reads and writes of session values go through its typed accessors.
type Session struct {
	mu      sync.Mutex
	data    Data
	dirty   bool
	cleared bool
	retired []string
	now     func() time.Time

	// onRenew is set by the Manager to reissue the cookie.
	onRenew func(id string)
}

// New wraps persisted data in a Session.
func New(d Data) *Session {
	return &Session{data: d, now: time.Now}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.ID
}

// NormalizeToken strips surrounding whitespace and quote characters from a
// bearer token as it may arrive from the backend.
func NormalizeToken(token string) string {
	token = strings.TrimSpace(token)
	token = strings.Trim(token, `"'`)
	return strings.TrimSpace(token)
}

// TokenExpiry reads the exp claim of a JWT without verifying its signature.
// The second return is false when the token is not a JWT or has no exp.
func TokenExpiry(token string) (time.Time, bool) {
	if strings.Count(token, ".") != 2 {
		return time.Time{}, false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// Token returns the stored authorization token.
func (s *Session) Token() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data.AuthToken == "" {
		return "", ErrNoToken
	}
	if exp, ok := TokenExpiry(s.data.AuthToken); ok && !s.now().Before(exp) {
		return "", ErrTokenExpired
	}
	return s.data.AuthToken, nil
}

// HasToken reports whether a usable token is present.
func (s *Session) HasToken() bool {
	_, err := s.Token()
	return err == nil
}

// SetToken stores a normalized token.
func (s *Session) SetToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.AuthToken = NormalizeToken(token)
	s.touch()
}

// Login returns the signed-in member, or nil.
func (s *Session) Login() *Login {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data.Login == nil {
		return nil
	}
	l := *s.data.Login
	return &l
}

func (s *Session) SetLogin(l *Login) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.Login = l
	s.touch()
}

func (s *Session) RoleID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.RoleID
}

func (s *Session) SetRoleID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.RoleID = id
	s.touch()
}

// CreatedPublicProfiles lists the public profile ids created in this session.
func (s *Session) CreatedPublicProfiles() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.data.CreatedPublicProfiles)
}

// AddCreatedPublicProfile records a public profile id once.
func (s *Session) AddCreatedPublicProfile(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if slices.Contains(s.data.CreatedPublicProfiles, id) {
		return
	}
	s.data.CreatedPublicProfiles = append(s.data.CreatedPublicProfiles, id)
	s.touch()
}

// PendingChallenge is the two-factor challenge id issued at sign-in.
func (s *Session) PendingChallenge() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.PendingChallenge
}

func (s *Session) SetPendingChallenge(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.PendingChallenge = id
	s.touch()
}

// Clear wipes everything except the session id and creation time.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = Data{ID: s.data.ID, CreatedAt: s.data.CreatedAt}
	s.cleared = true
	s.touch()
}

// Renew wipes the session and moves it to a fresh id. The old id and any
// server-side state keyed by it are released after the request. Call it
// before the response is written.
func (s *Session) Renew() {
	s.mu.Lock()
	s.retired = append(s.retired, s.data.ID)
	s.data = Data{ID: uuid.NewString(), CreatedAt: s.now().UTC()}
	s.touch()
	id, onRenew := s.data.ID, s.onRenew
	s.mu.Unlock()

	if onRenew != nil {
		onRenew(id)
	}
}

// Snapshot returns a copy of the persisted data.
func (s *Session) Snapshot() Data {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.data
	d.CreatedPublicProfiles = slices.Clone(s.data.CreatedPublicProfiles)
	return d
}

func (s *Session) touch() {
	s.dirty = true
	s.data.UpdatedAt = s.now().UTC()
}

func (s *Session) state() (dirty, cleared bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty, s.cleared
}

func (s *Session) retiredIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.retired)
}
