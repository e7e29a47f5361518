package authproxy

import (
	"context"
	"fmt"

	"github.com/civic-relay/internal/domain"
	"github.com/civic-relay/internal/infrastructure/identity"
)

// Provider is the identity-provider surface the proxy needs.
type Provider interface {
	Configured() bool
	PasswordGrant(ctx context.Context, email, password string) (*identity.UpstreamResponse, error)
	Signup(ctx context.Context, email, password string) (*identity.UpstreamResponse, error)
}

// Service forwards credential operations to the hosted identity provider and
// relays its response verbatim. No credential ever persists in the relay.
type Service interface {
	Login(ctx context.Context, email, password string) (*identity.UpstreamResponse, error)
	Signup(ctx context.Context, email, password string) (*identity.UpstreamResponse, error)
}

type service struct {
	provider Provider
}

func NewService(provider Provider) Service {
	return &service{provider: provider}
}

func (s *service) Login(ctx context.Context, email, password string) (*identity.UpstreamResponse, error) {
	if err := s.precheck(email, password); err != nil {
		return nil, err
	}
	return s.provider.PasswordGrant(ctx, email, password)
}

func (s *service) Signup(ctx context.Context, email, password string) (*identity.UpstreamResponse, error) {
	if err := s.precheck(email, password); err != nil {
		return nil, err
	}
	return s.provider.Signup(ctx, email, password)
}

func (s *service) precheck(email, password string) error {
	if email == "" || password == "" {
		return fmt.Errorf("email and password required: %w", domain.ErrBadRequest)
	}
	if s.provider == nil || !s.provider.Configured() {
		return fmt.Errorf("identity provider: %w", domain.ErrNotConfigured)
	}
	return nil
}
