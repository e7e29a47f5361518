package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/civic-relay/internal/config"
	"github.com/civic-relay/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(baseURL string) *Client {
	return &Client{
		baseURL:     baseURL,
		anonKey:     "anon-key",
		serviceRole: "service-role-key",
		http:        &http.Client{Timeout: time.Second},
	}
}

func TestPasswordGrant_RelaysStatusAndBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/token", r.URL.Path)
		assert.Equal(t, "password", r.URL.Query().Get("grant_type"))
		assert.Equal(t, "anon-key", r.Header.Get("apikey"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "password", body["grant_type"])
		assert.Equal(t, "a@b.com", body["email"])

		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"invalid_grant"}`))
	}))
	defer srv.Close()

	resp, err := newTestClient(srv.URL).PasswordGrant(context.Background(), "a@b.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.Status)
	assert.JSONEq(t, `{"error":"invalid_grant"}`, string(resp.Body))
}

func TestSignup_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/signup", r.URL.Path)
		w.Write([]byte(`{"id":"user-1"}`))
	}))
	defer srv.Close()

	resp, err := newTestClient(srv.URL).Signup(context.Background(), "a@b.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.JSONEq(t, `{"id":"user-1"}`, string(resp.Body))
}

func TestAdminUpsertUser_SetsServiceRoleBearer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/admin/users", r.URL.Path)
		assert.Equal(t, "Bearer service-role-key", r.Header.Get("Authorization"))

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, true, body["email_confirm"])

		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	err := newTestClient(srv.URL).AdminUpsertUser(context.Background(), "a@b.com")
	assert.NoError(t, err)
}

func TestAdminUpsertUser_ExistingUserIsSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"msg":"user already exists"}`))
	}))
	defer srv.Close()

	err := newTestClient(srv.URL).AdminUpsertUser(context.Background(), "a@b.com")
	assert.NoError(t, err)
}

func TestAdminUpsertUser_ServerErrorIsUpstream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := newTestClient(srv.URL).AdminUpsertUser(context.Background(), "a@b.com")
	assert.ErrorIs(t, err, domain.ErrUpstream)
}

func TestUnconfiguredClient(t *testing.T) {
	c := NewClient(&config.Config{})

	_, err := c.PasswordGrant(context.Background(), "a@b.com", "pw")
	assert.ErrorIs(t, err, domain.ErrNotConfigured)

	_, err = c.Signup(context.Background(), "a@b.com", "pw")
	assert.ErrorIs(t, err, domain.ErrNotConfigured)

	err = c.AdminUpsertUser(context.Background(), "a@b.com")
	assert.ErrorIs(t, err, domain.ErrNotConfigured)
}

func TestNonJSONBodyIsNormalised(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream exploded"))
	}))
	defer srv.Close()

	resp, err := newTestClient(srv.URL).PasswordGrant(context.Background(), "a@b.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadGateway, resp.Status)
	assert.JSONEq(t, `{}`, string(resp.Body))
}
