package mail

import (
	"context"
	"fmt"
	"time"

	"github.com/civic-relay/internal/config"
	"github.com/civic-relay/internal/domain"
	"gopkg.in/gomail.v2"
)

// Message is one outbound email. Bodies are HTML; Cc is optional.
type Message struct {
	To      string
	Cc      string
	Subject string
	HTML    string
}

// Mailer sends emails with retry. maxAttempts is chosen per call site:
// department notifications use 3, acknowledgements 2.
type Mailer interface {
	Send(ctx context.Context, msg Message, maxAttempts int) error
}

// backoffBase is the first retry delay; delay doubles per attempt, no ceiling.
const backoffBase = 500 * time.Millisecond

type provider struct {
	host     string
	port     int
	ssl      bool
	username string
	password string
}

type mailer struct {
	cfg *config.Config
	log *deliveryLog

	// sendFn is swapped out in tests.
	sendFn func(p provider, m *gomail.Message) error
}

func NewMailer(cfg *config.Config) Mailer {
	return &mailer{
		cfg:    cfg,
		log:    newDeliveryLog(cfg.EmailLogPath),
		sendFn: dialAndSend,
	}
}

// selectProvider resolves the SMTP provider from configuration: SendGrid when
// both of its credentials are present, else Gmail, else not configured.
func (m *mailer) selectProvider() (provider, error) {
	if m.cfg.SendGridUser != "" && m.cfg.SendGridPass != "" {
		return provider{
			host:     "smtp.sendgrid.net",
			port:     587,
			username: m.cfg.SendGridUser,
			password: m.cfg.SendGridPass,
		}, nil
	}
	if m.cfg.EmailUser != "" && m.cfg.EmailPass != "" {
		return provider{
			host:     "smtp.gmail.com",
			port:     465,
			ssl:      true,
			username: m.cfg.EmailUser,
			password: m.cfg.EmailPass,
		}, nil
	}
	return provider{}, fmt.Errorf("missing EMAIL_USER/EMAIL_PASS or SENDGRID credentials: %w", domain.ErrNotConfigured)
}

func (m *mailer) Send(ctx context.Context, msg Message, maxAttempts int) error {
	p, err := m.selectProvider()
	if err != nil {
		return err
	}

	gm := gomail.NewMessage()
	gm.SetAddressHeader("From", m.cfg.EmailUser, m.cfg.EmailFromName)
	gm.SetHeader("To", msg.To)
	if msg.Cc != "" {
		gm.SetHeader("Cc", msg.Cc)
	}
	gm.SetHeader("Subject", msg.Subject)
	gm.SetBody("text/html", msg.HTML)

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := m.sendFn(p, gm); err != nil {
			lastErr = err
			m.log.record(fmt.Sprintf("FAILED to %s subject=%q attempt=%d error=%v", msg.To, msg.Subject, attempt, err))
			if attempt < maxAttempts {
				if err := sleep(ctx, backoffBase*(1<<attempt)); err != nil {
					return fmt.Errorf("send aborted: %w", err)
				}
			}
			continue
		}
		m.log.record(fmt.Sprintf("SENT to %s subject=%q attempt=%d", msg.To, msg.Subject, attempt))
		return nil
	}
	return fmt.Errorf("failed to send email after %d attempts: %v: %w", maxAttempts, lastErr, domain.ErrDelivery)
}

func dialAndSend(p provider, m *gomail.Message) error {
	d := gomail.NewDialer(p.host, p.port, p.username, p.password)
	d.SSL = p.ssl
	return d.DialAndSend(m)
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
