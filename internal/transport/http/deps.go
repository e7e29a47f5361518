package http

import (
	"github.com/civic-relay/internal/application/authproxy"
	"github.com/civic-relay/internal/application/complaint"
	"github.com/civic-relay/internal/application/otp"
	"github.com/civic-relay/internal/audit"
	"github.com/civic-relay/internal/infrastructure/dynamo"
	"github.com/civic-relay/internal/infrastructure/identity"
	jwtinfra "github.com/civic-relay/internal/infrastructure/jwt"
	"github.com/civic-relay/internal/infrastructure/mail"
	s3infra "github.com/civic-relay/internal/infrastructure/s3"
	"github.com/civic-relay/internal/infrastructure/sns"
	"github.com/civic-relay/internal/transport/http/handler"
)

// Deps holds all infrastructure dependencies for the router. Complaints,
// Photos, Alerter, Identity and JWTProvider may be nil; the matching
// features degrade rather than fail at startup.
type Deps struct {
	OTPStore    otp.Store
	Mailer      mail.Mailer
	Complaints  *dynamo.ComplaintRepo
	Photos      *s3infra.PhotoStore
	Alerter     sns.AlertSender
	Identity    *identity.Client
	JWTProvider *jwtinfra.Provider
	Audit       *audit.Logger
}

// A nil concrete pointer must not become a non-nil interface value; the
// services test their optional deps against nil.

func (d *Deps) complaintRepo() complaint.Repo {
	if d.Complaints == nil {
		return nil
	}
	return d.Complaints
}

func (d *Deps) identityAdmin() otp.IdentityAdmin {
	if d.Identity == nil || !d.Identity.AdminConfigured() {
		return nil
	}
	return d.Identity
}

func (d *Deps) tokenSigner() otp.TokenSigner {
	if d.JWTProvider == nil {
		return nil
	}
	return d.JWTProvider
}

func (d *Deps) identityProvider() authproxy.Provider {
	if d.Identity == nil {
		return nil
	}
	return d.Identity
}

func (d *Deps) photoUploader() handler.PhotoUploader {
	if d.Photos == nil {
		return nil
	}
	return d.Photos
}
