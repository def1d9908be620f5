package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Client talks to the remote member REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout. Zero means no timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Login signs in with email and password.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	body := map[string]string{"email": email, "password": password}
	var res LoginResult
	if err := c.send(ctx, http.MethodPost, "/auth/login", "", body, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// VerifyTwoFactor completes a sign-in that required a second factor.
func (c *Client) VerifyTwoFactor(ctx context.Context, challengeID, code string) (*LoginResult, error) {
	body := map[string]string{"challengeId": challengeID, "code": code}
	var res LoginResult
	if err := c.send(ctx, http.MethodPost, "/auth/2fa/verify", "", body, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// GetProfile fetches the signed-in member's individual profile.
func (c *Client) GetProfile(ctx context.Context, token string) (*Profile, error) {
	var p Profile
	if err := c.authed(ctx, http.MethodGet, "/profile/individual", token, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateProfileSection PUTs one section's fields nested under its namespace.
// Only that namespace is sent; the backend merges it into the profile.
func (c *Client) UpdateProfileSection(ctx context.Context, token, profileID, namespace string, fields map[string]any) error {
	if profileID == "" {
		return fmt.Errorf("updating profile section %s: missing profile id", namespace)
	}
	body := map[string]any{
		"profileData": map[string]any{namespace: fields},
	}
	return c.authed(ctx, http.MethodPut, "/profile/individual/"+url.PathEscape(profileID), token, body, nil)
}

// CreatePublicProfile publishes the member's profile.
func (c *Client) CreatePublicProfile(ctx context.Context, token string) (*PublicProfile, error) {
	var p PublicProfile
	if err := c.authed(ctx, http.MethodPost, "/profile/public", token, struct{}{}, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ListJobs fetches one page of the job board.
func (c *Client) ListJobs(ctx context.Context, token string, page int) (*JobPage, error) {
	if page < 1 {
		page = 1
	}
	var res JobPage
	if err := c.authed(ctx, http.MethodGet, "/jobs?page="+strconv.Itoa(page), token, nil, &res); err != nil {
		return nil, err
	}
	if res.Page == 0 {
		res.Page = page
	}
	if res.LastPage < 1 {
		res.LastPage = 1
	}
	return &res, nil
}

func (c *Client) GetJob(ctx context.Context, token, id string) (*Job, error) {
	var j Job
	if err := c.authed(ctx, http.MethodGet, "/jobs/"+url.PathEscape(id), token, nil, &j); err != nil {
		return nil, err
	}
	return &j, nil
}

func (c *Client) CreateJob(ctx context.Context, token string, job Job) (*Job, error) {
	var created Job
	if err := c.authed(ctx, http.MethodPost, "/jobs", token, job, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) UpdateJob(ctx context.Context, token string, job Job) (*Job, error) {
	var updated Job
	if err := c.authed(ctx, http.MethodPut, "/jobs/"+url.PathEscape(job.ID), token, job, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (c *Client) DeleteJob(ctx context.Context, token, id string) error {
	return c.authed(ctx, http.MethodDelete, "/jobs/"+url.PathEscape(id), token, nil, nil)
}

// ListFavorites returns the members the signed-in member has favorited.
func (c *Client) ListFavorites(ctx context.Context, token string) ([]Favorite, error) {
	var res []Favorite
	if err := c.authed(ctx, http.MethodGet, "/favorites", token, nil, &res); err != nil {
		return nil, err
	}
	return res, nil
}

func (c *Client) AddFavorite(ctx context.Context, token, userID string) error {
	return c.authed(ctx, http.MethodPost, "/favorites/"+url.PathEscape(userID), token, struct{}{}, nil)
}

func (c *Client) RemoveFavorite(ctx context.Context, token, userID string) error {
	return c.authed(ctx, http.MethodDelete, "/favorites/"+url.PathEscape(userID), token, nil, nil)
}

// ListOrders returns the member's membership orders.
func (c *Client) ListOrders(ctx context.Context, token string) ([]Order, error) {
	var res []Order
	if err := c.authed(ctx, http.MethodGet, "/orders", token, nil, &res); err != nil {
		return nil, err
	}
	return res, nil
}

func (c *Client) authed(ctx context.Context, method, path, token string, in, out any) error {
	if token == "" {
		return ErrUnauthorized
	}
	return c.send(ctx, method, path, token, in, out)
}

func (c *Client) send(ctx context.Context, method, path, token string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	c.logger.Debug("backend request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &Error{StatusCode: resp.StatusCode, Message: errorMessage(respBody)}
	}

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// errorMessage extracts "message" or "error" from a JSON error body.
func errorMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if payload.Message != "" {
		return payload.Message
	}
	return payload.Error
}
