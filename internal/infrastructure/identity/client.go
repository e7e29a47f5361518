package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/civic-relay/internal/config"
	"github.com/civic-relay/internal/domain"
)

// UpstreamResponse carries the identity provider's status code and raw JSON
// body so proxy endpoints can relay both verbatim.
type UpstreamResponse struct {
	Status int
	Body   json.RawMessage
}

// Client talks to the hosted identity provider's REST API (Supabase-style
// auth endpoints). Anon-key calls serve the login/signup proxy; the
// service-role key unlocks the admin user upsert after OTP verification.
type Client struct {
	baseURL     string
	anonKey     string
	serviceRole string
	http        *http.Client
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		baseURL:     strings.TrimSuffix(cfg.SupabaseURL, "/"),
		anonKey:     cfg.SupabaseAnonKey,
		serviceRole: cfg.SupabaseServiceRole,
		http:        &http.Client{Timeout: 10 * time.Second},
	}
}

// Configured reports whether anon-key proxy calls can be made.
func (c *Client) Configured() bool {
	return c.baseURL != "" && c.anonKey != ""
}

// AdminConfigured reports whether service-role admin calls can be made.
func (c *Client) AdminConfigured() bool {
	return c.baseURL != "" && c.serviceRole != ""
}

// PasswordGrant exchanges email/password for a provider session.
func (c *Client) PasswordGrant(ctx context.Context, email, password string) (*UpstreamResponse, error) {
	if !c.Configured() {
		return nil, fmt.Errorf("identity provider: %w", domain.ErrNotConfigured)
	}
	body := map[string]string{"grant_type": "password", "email": email, "password": password}
	return c.post(ctx, "/auth/v1/token?grant_type=password", c.anonKey, false, body)
}

// Signup registers a new email/password user with the provider.
func (c *Client) Signup(ctx context.Context, email, password string) (*UpstreamResponse, error) {
	if !c.Configured() {
		return nil, fmt.Errorf("identity provider: %w", domain.ErrNotConfigured)
	}
	body := map[string]string{"email": email, "password": password}
	return c.post(ctx, "/auth/v1/signup", c.anonKey, false, body)
}

// AdminUpsertUser creates a pre-confirmed user record for the email. The
// provider answers 422 when the user already exists; that counts as success.
func (c *Client) AdminUpsertUser(ctx context.Context, email string) error {
	if !c.AdminConfigured() {
		return fmt.Errorf("identity provider admin: %w", domain.ErrNotConfigured)
	}
	body := map[string]interface{}{"email": email, "email_confirm": true}
	resp, err := c.post(ctx, "/auth/v1/admin/users", c.serviceRole, true, body)
	if err != nil {
		return err
	}
	if resp.Status >= 400 && resp.Status != http.StatusUnprocessableEntity {
		return fmt.Errorf("admin upsert user: status %d: %w", resp.Status, domain.ErrUpstream)
	}
	return nil
}

func (c *Client) post(ctx context.Context, path, key string, bearer bool, body interface{}) (*UpstreamResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", key)
	if bearer {
		req.Header.Set("Authorization", "Bearer "+key)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("identity provider call: %v: %w", err, domain.ErrUpstream)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read identity provider response: %v: %w", err, domain.ErrUpstream)
	}
	if len(raw) == 0 || !json.Valid(raw) {
		raw = []byte("{}")
	}
	return &UpstreamResponse{Status: resp.StatusCode, Body: raw}, nil
}
