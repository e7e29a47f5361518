package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/civic-relay/internal/infrastructure/identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockAuthProxy struct{ mock.Mock }

func (m *mockAuthProxy) Login(ctx context.Context, email, password string) (*identity.UpstreamResponse, error) {
	args := m.Called(ctx, email, password)
	if r, _ := args.Get(0).(*identity.UpstreamResponse); r != nil {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAuthProxy) Signup(ctx context.Context, email, password string) (*identity.UpstreamResponse, error) {
	args := m.Called(ctx, email, password)
	if r, _ := args.Get(0).(*identity.UpstreamResponse); r != nil {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

func TestLogin_PassesUpstreamStatusAndBodyThrough(t *testing.T) {
	svc := &mockAuthProxy{}
	svc.On("Login", mock.Anything, "a@b.com", "pw").Return(&identity.UpstreamResponse{
		Status: http.StatusBadRequest,
		Body:   []byte(`{"error":"invalid_grant","error_description":"Invalid login credentials"}`),
	}, nil)

	rec := postJSON(t, NewAuthProxyHandler(svc).Login, `{"email":"a@b.com","password":"pw"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t,
		`{"error":"invalid_grant","error_description":"Invalid login credentials"}`,
		rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestSignup_Success(t *testing.T) {
	svc := &mockAuthProxy{}
	svc.On("Signup", mock.Anything, "a@b.com", "pw").Return(&identity.UpstreamResponse{
		Status: http.StatusOK,
		Body:   []byte(`{"id":"user-1","email":"a@b.com"}`),
	}, nil)

	rec := postJSON(t, NewAuthProxyHandler(svc).Signup, `{"email":"a@b.com","password":"pw"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"user-1"`)
}
