package complaint

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"time"

	"github.com/civic-relay/internal/audit"
	"github.com/civic-relay/internal/domain"
	"github.com/civic-relay/internal/infrastructure/mail"
	"github.com/civic-relay/internal/pkg/id"
	"github.com/civic-relay/internal/pkg/validate"
)

// RelayRequest is the authenticated complaint form.
type RelayRequest struct {
	Name        string `json:"name" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	Category    string `json:"category" validate:"required"`
	Description string `json:"description" validate:"required"`
	Location    string `json:"location" validate:"required"`
	ImageURL    string `json:"imageUrl"`
}

// AnonymousRequest is the anonymous submission; reporter_email is still
// required so the acknowledgement can be delivered.
type AnonymousRequest struct {
	ReferenceID     string   `json:"reference_id" validate:"required"`
	Title           string   `json:"title"`
	ReporterName    string   `json:"reporter_name"`
	ReporterEmail   string   `json:"reporter_email" validate:"required,email"`
	Category        string   `json:"category" validate:"required"`
	Description     string   `json:"description"`
	Location        string   `json:"location"`
	LocationLat     *float64 `json:"location_lat"`
	LocationLng     *float64 `json:"location_lng"`
	PhotoURL        string   `json:"photo_url"`
	DepartmentEmail string   `json:"department_email"`
}

// AnonymousResult echoes the reference id and the persisted record.
type AnonymousResult struct {
	ReferenceID string
	Inserted    *domain.Complaint
}

// Mailer delivers the department notification and citizen acknowledgement.
type Mailer interface {
	Send(ctx context.Context, msg mail.Message, maxAttempts int) error
}

// Repo persists anonymous complaints.
type Repo interface {
	Put(ctx context.Context, c *domain.Complaint) error
	Get(ctx context.Context, referenceID string) (*domain.Complaint, error)
}

// Alerter raises a best-effort ops alert when department delivery exhausts
// its retries.
type Alerter interface {
	Alert(ctx context.Context, subject, message string) error
}

type Service interface {
	// Relay forwards the authenticated form to the department and acknowledges
	// the citizen. Returns the tracking id quoted in the acknowledgement.
	Relay(ctx context.Context, req RelayRequest) (string, error)
	// RelayAnonymous persists the complaint, then notifies and acknowledges.
	RelayAnonymous(ctx context.Context, req AnonymousRequest) (*AnonymousResult, error)
	// Get looks up a persisted complaint by reference id.
	Get(ctx context.Context, referenceID string) (*domain.Complaint, error)
}

// ServiceDeps holds the service's dependencies. Repo and Alerter are
// optional: without a repo anonymous submissions are rejected as
// unconfigured, without an alerter delivery failures are only logged.
type ServiceDeps struct {
	Mailer  Mailer
	Repo    Repo
	Alerter Alerter
	Audit   *audit.Logger
	CCEmail string
}

type service struct {
	mailer  Mailer
	repo    Repo
	alerter Alerter
	audit   *audit.Logger
	ccEmail string
}

func NewService(deps ServiceDeps) Service {
	return &service{
		mailer:  deps.Mailer,
		repo:    deps.Repo,
		alerter: deps.Alerter,
		audit:   deps.Audit,
		ccEmail: deps.CCEmail,
	}
}

func (s *service) Relay(ctx context.Context, req RelayRequest) (string, error) {
	if err := validate.Struct(&req); err != nil {
		return "", fmt.Errorf("%v: %w", err, domain.ErrBadRequest)
	}
	if !domain.ValidCategory(req.Category) {
		return "", fmt.Errorf("invalid category: %w", domain.ErrBadRequest)
	}

	departmentEmail := s.routeDepartment(req.Category, "")
	cc := s.ccEmail
	if cc == "" {
		cc = departmentEmail
	}

	s.notifyDepartment(ctx, departmentEmail, cc, req.Category, departmentHTML(
		req.Category, req.Description, req.Location, req.Name, req.Email, req.ImageURL,
	))

	trackingID := id.NewTrackingID(time.Now())
	ack := mail.Message{
		To:      req.Email,
		Cc:      s.ccEmail,
		Subject: "Complaint Received - Smart Civic Issue Reporter",
		HTML: fmt.Sprintf(`<div style="font-family: Arial, sans-serif;"><p>Dear %s,</p><p>Thank you for reporting. Your complaint has been forwarded to the relevant department. Tracking ID: <b>%s</b>.</p><p>We will notify you on status updates.</p></div>`,
			html.EscapeString(req.Name), trackingID),
	}
	if err := s.mailer.Send(ctx, ack, 2); err != nil {
		slog.Error("acknowledgement email failed", "to", audit.MaskEmail(req.Email), "err", err)
	}

	s.audit.Record(audit.Entry{
		Name:       req.Name,
		Email:      req.Email,
		Category:   req.Category,
		Location:   req.Location,
		TrackingID: trackingID,
	})
	return trackingID, nil
}

func (s *service) RelayAnonymous(ctx context.Context, req AnonymousRequest) (*AnonymousResult, error) {
	if err := validate.Struct(&req); err != nil {
		return nil, fmt.Errorf("%v: %w", err, domain.ErrBadRequest)
	}
	if !domain.ValidCategory(req.Category) {
		return nil, fmt.Errorf("invalid category: %w", domain.ErrBadRequest)
	}
	if s.repo == nil {
		return nil, fmt.Errorf("anonymous submissions are not accepted: %w", domain.ErrNotConfigured)
	}

	record := s.buildRecord(req)
	if err := s.repo.Put(ctx, record); err != nil {
		return nil, err
	}

	s.notifyDepartment(ctx, record.DepartmentEmail, s.ccOr(record.DepartmentEmail), req.Category, departmentHTML(
		req.Category, req.Description, req.Location, s.reporterName(req), req.ReporterEmail, req.PhotoURL,
	))

	ack := mail.Message{
		To:      req.ReporterEmail,
		Cc:      s.ccEmail,
		Subject: "Complaint Received - CivicEye",
		HTML: fmt.Sprintf(`<div style="font-family: Arial, sans-serif;"><p>Dear %s,</p><p>Thank you for reporting. Your complaint has been received. Reference ID: <b>%s</b>.</p><p>We will notify you on status updates.</p></div>`,
			html.EscapeString(s.reporterName(req)), html.EscapeString(req.ReferenceID)),
	}
	if err := s.mailer.Send(ctx, ack, 2); err != nil {
		slog.Error("acknowledgement email failed", "to", audit.MaskEmail(req.ReporterEmail), "err", err)
	}

	s.audit.Record(audit.Entry{
		Name:        req.ReporterName,
		Email:       req.ReporterEmail,
		Category:    req.Category,
		Location:    req.Location,
		ReferenceID: req.ReferenceID,
	})
	return &AnonymousResult{ReferenceID: req.ReferenceID, Inserted: record}, nil
}

func (s *service) Get(ctx context.Context, referenceID string) (*domain.Complaint, error) {
	if s.repo == nil {
		return nil, fmt.Errorf("complaint lookup: %w", domain.ErrNotConfigured)
	}
	return s.repo.Get(ctx, referenceID)
}

// notifyDepartment sends the department notification best-effort: a delivery
// failure is logged and alerted, never surfaced to the citizen.
func (s *service) notifyDepartment(ctx context.Context, to, cc, category, body string) {
	msg := mail.Message{
		To:      to,
		Cc:      cc,
		Subject: fmt.Sprintf("🚨 New Civic Complaint: %s", category),
		HTML:    body,
	}
	if err := s.mailer.Send(ctx, msg, 3); err != nil {
		slog.Error("department notification failed", "department", to, "category", category, "err", err)
		if s.alerter != nil {
			if aerr := s.alerter.Alert(ctx, "Department notification undeliverable",
				fmt.Sprintf("category=%s department=%s error=%v", category, to, err)); aerr != nil {
				slog.Warn("ops alert failed", "err", aerr)
			}
		}
	}
}

func (s *service) buildRecord(req AnonymousRequest) *domain.Complaint {
	title := req.Title
	if title == "" {
		title = fmt.Sprintf("Complaint - %s", req.Category)
	}

	c := &domain.Complaint{
		ReferenceID:     req.ReferenceID,
		ComplaintID:     req.ReferenceID,
		Title:           title,
		UserName:        optional(req.ReporterName),
		UserEmail:       optional(req.ReporterEmail),
		Category:        req.Category,
		PhotoURL:        optional(req.PhotoURL),
		Location:        optional(req.Location),
		LocationLat:     req.LocationLat,
		LocationLng:     req.LocationLng,
		DepartmentEmail: req.DepartmentEmail,
		Description:     optional(req.Description),
		Status:          domain.StatusSubmitted,
		CreatedDate:     time.Now().UTC(),
		CreatedBy:       "anonymous",
	}
	if c.DepartmentEmail == "" {
		c.DepartmentEmail = s.routeDepartment(req.Category, "")
	}
	if req.LocationLat != nil && req.LocationLng != nil {
		link := fmt.Sprintf("https://www.google.com/maps?q=%v,%v", *req.LocationLat, *req.LocationLng)
		c.GoogleMapsLink = &link
	}
	return c
}

// routeDepartment maps a category to its mailbox, falling back to the
// configured CC address and then the default municipal inbox.
func (s *service) routeDepartment(category, override string) string {
	if override != "" {
		return override
	}
	if addr, ok := domain.DepartmentEmail(category); ok {
		return addr
	}
	if s.ccEmail != "" {
		return s.ccEmail
	}
	return domain.DefaultDepartmentEmail
}

func (s *service) ccOr(fallback string) string {
	if s.ccEmail != "" {
		return s.ccEmail
	}
	return fallback
}

func (s *service) reporterName(req AnonymousRequest) string {
	if req.ReporterName != "" {
		return req.ReporterName
	}
	return "Reporter"
}

func departmentHTML(category, description, location, name, email, photoURL string) string {
	photo := ""
	if photoURL != "" {
		photo = fmt.Sprintf(`<p><b>Photo:</b> <a href="%s" target="_blank">View Image</a></p>`, html.EscapeString(photoURL))
	}
	return fmt.Sprintf(`<div style="font-family: Arial, sans-serif; line-height:1.4;">
  <h3>New Complaint Received</h3>
  <p><b>Category:</b> %s</p>
  <p><b>Description:</b> %s</p>
  <p><b>Location:</b> %s</p>
  <p><b>Reported By:</b> %s (%s)</p>
  %s
  <hr/>
  <p>This complaint was auto-forwarded via CivicEye.</p>
</div>`,
		html.EscapeString(category),
		html.EscapeString(description),
		html.EscapeString(location),
		html.EscapeString(name),
		html.EscapeString(email),
		photo,
	)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
