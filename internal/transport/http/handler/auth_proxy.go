package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/civic-relay/internal/infrastructure/identity"
)

// AuthProxyService forwards credential operations to the identity provider.
type AuthProxyService interface {
	Login(ctx context.Context, email, password string) (*identity.UpstreamResponse, error)
	Signup(ctx context.Context, email, password string) (*identity.UpstreamResponse, error)
}

// AuthProxyHandler relays login and signup upstream. The provider's status
// code and body pass through untouched so the frontend sees the exact
// upstream error shapes it already handles.
type AuthProxyHandler struct {
	svc AuthProxyService
}

func NewAuthProxyHandler(svc AuthProxyService) *AuthProxyHandler {
	return &AuthProxyHandler{svc: svc}
}

func (h *AuthProxyHandler) Login(w http.ResponseWriter, r *http.Request) {
	h.relay(w, r, h.svc.Login)
}

func (h *AuthProxyHandler) Signup(w http.ResponseWriter, r *http.Request) {
	h.relay(w, r, h.svc.Signup)
}

func (h *AuthProxyHandler) relay(w http.ResponseWriter, r *http.Request,
	call func(ctx context.Context, email, password string) (*identity.UpstreamResponse, error)) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	resp, err := call(r.Context(), req.Email, req.Password)
	if err != nil {
		httpError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.Status)
	_, _ = w.Write(resp.Body)
}
