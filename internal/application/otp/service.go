package otp

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/civic-relay/internal/domain"
	"github.com/civic-relay/internal/infrastructure/mail"
	"github.com/civic-relay/internal/pkg/token"
	"github.com/civic-relay/internal/pkg/validate"
)

// Store is the minimal OTP store interface the service requires. Update runs
// its callback under the store lock so the verify state machine is atomic.
type Store interface {
	Put(e *domain.OTPEntry)
	Get(tok string) (*domain.OTPEntry, error)
	GetByEmail(email string) (*domain.OTPEntry, error)
	Update(tok string, fn func(e *domain.OTPEntry) (remove bool, err error)) error
	Delete(tok string)
}

// Mailer delivers the login codes.
type Mailer interface {
	Send(ctx context.Context, msg mail.Message, maxAttempts int) error
}

// IdentityAdmin provisions a provider user record after verification.
type IdentityAdmin interface {
	AdminConfigured() bool
	AdminUpsertUser(ctx context.Context, email string) error
}

// TokenSigner issues the optional post-verification session token.
type TokenSigner interface {
	Sign(email string) (string, error)
}

// VerifyResult is returned on successful verification. Bearer is empty when
// no signer is configured.
type VerifyResult struct {
	Email  string
	Bearer string
}

type Service interface {
	// Send issues a fresh code for the email and returns the opaque token the
	// client must echo back on verification.
	Send(ctx context.Context, email string) (string, error)
	// Resend regenerates the code for an outstanding entry, located by token
	// or by email.
	Resend(ctx context.Context, email, tok string) error
	// Verify consumes the entry on success.
	Verify(ctx context.Context, tok, code string) (*VerifyResult, error)
}

// ServiceDeps holds the service's dependencies. Identity and Signer are
// optional; absent, the corresponding post-verification step is skipped.
type ServiceDeps struct {
	Store    Store
	Mailer   Mailer
	Identity IdentityAdmin
	Signer   TokenSigner
}

type service struct {
	store    Store
	mailer   Mailer
	identity IdentityAdmin
	signer   TokenSigner
}

func NewService(deps ServiceDeps) Service {
	return &service{
		store:    deps.Store,
		mailer:   deps.Mailer,
		identity: deps.Identity,
		signer:   deps.Signer,
	}
}

func (s *service) Send(ctx context.Context, email string) (string, error) {
	if !validate.Email(email) {
		return "", fmt.Errorf("invalid email: %w", domain.ErrBadRequest)
	}

	sent := 0
	if prior, err := s.store.GetByEmail(email); err == nil {
		if prior.SentCount >= domain.OTPMaxSends {
			return "", fmt.Errorf("too many OTP requests for this email: %w", domain.ErrRateLimited)
		}
		sent = prior.SentCount
	}

	code, err := token.NewOTPCode()
	if err != nil {
		return "", err
	}
	tok, err := token.NewOTPToken()
	if err != nil {
		return "", err
	}

	s.store.Put(&domain.OTPEntry{
		Token:     tok,
		Email:     email,
		Code:      code,
		ExpiresAt: time.Now().Add(domain.OTPTTL),
		SentCount: sent + 1,
	})

	msg := mail.Message{
		To:      email,
		Subject: "Your CivicEye login code",
		HTML:    loginCodeHTML(code),
	}
	if err := s.mailer.Send(ctx, msg, 3); err != nil {
		s.store.Delete(tok)
		return "", err
	}
	return tok, nil
}

func (s *service) Resend(ctx context.Context, email, tok string) error {
	if email == "" {
		return fmt.Errorf("email is required: %w", domain.ErrBadRequest)
	}

	entry, err := s.resolve(email, tok)
	if err != nil {
		return fmt.Errorf("no outstanding OTP for this email: %w", domain.ErrNotFound)
	}
	if entry.SentCount >= domain.OTPMaxSends {
		return fmt.Errorf("too many OTP requests for this email: %w", domain.ErrRateLimited)
	}

	code, err := token.NewOTPCode()
	if err != nil {
		return err
	}
	err = s.store.Update(entry.Token, func(e *domain.OTPEntry) (bool, error) {
		if e.SentCount >= domain.OTPMaxSends {
			return false, fmt.Errorf("too many OTP requests for this email: %w", domain.ErrRateLimited)
		}
		e.Code = code
		e.ExpiresAt = time.Now().Add(domain.OTPTTL)
		e.SentCount++
		return false, nil
	})
	if err != nil {
		return err
	}

	msg := mail.Message{
		To:      entry.Email,
		Subject: "Your CivicEye login code (resend)",
		HTML:    loginCodeHTML(code),
	}
	return s.mailer.Send(ctx, msg, 3)
}

func (s *service) Verify(ctx context.Context, tok, code string) (*VerifyResult, error) {
	if tok == "" || code == "" {
		return nil, fmt.Errorf("otpToken and code required: %w", domain.ErrBadRequest)
	}

	var email string
	err := s.store.Update(tok, func(e *domain.OTPEntry) (bool, error) {
		now := time.Now()
		if e.Expired(now) {
			return true, fmt.Errorf("OTP expired: %w", domain.ErrExpired)
		}
		if e.Attempts >= domain.OTPMaxAttempts {
			return true, fmt.Errorf("too many attempts: %w", domain.ErrTooManyAttempts)
		}
		e.Attempts++
		if e.Code != strings.TrimSpace(code) {
			return false, fmt.Errorf("invalid OTP code: %w", domain.ErrInvalidCode)
		}
		email = e.Email
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	// Provision the provider user record off the request path; a failure here
	// never fails the verification.
	if s.identity != nil && s.identity.AdminConfigured() {
		go func(email string) {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := s.identity.AdminUpsertUser(ctx, email); err != nil {
				slog.Warn("identity upsert after OTP verify failed", "err", err)
			}
		}(email)
	}

	res := &VerifyResult{Email: email}
	if s.signer != nil {
		bearer, err := s.signer.Sign(email)
		if err != nil {
			slog.Warn("session token signing failed", "err", err)
		} else {
			res.Bearer = bearer
		}
	}
	return res, nil
}

// resolve locates the outstanding entry. An explicit token is authoritative:
// when it is unknown the caller gets an error rather than a different entry
// found through the email index.
func (s *service) resolve(email, tok string) (*domain.OTPEntry, error) {
	if tok != "" {
		return s.store.Get(tok)
	}
	return s.store.GetByEmail(email)
}

func loginCodeHTML(code string) string {
	return fmt.Sprintf(`<div style="font-family: Arial, sans-serif;"><p>Your one-time login code is <strong>%s</strong>. It expires in 5 minutes.</p><p>If you did not request this, ignore this email.</p></div>`, code)
}
