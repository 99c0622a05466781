package email

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/smtp"
	"time"

	"github.com/cmlabs-hris/boarding-backend-go/internal/config"
	"github.com/cmlabs-hris/boarding-backend-go/internal/domain/boarding"
	"github.com/cmlabs-hris/boarding-backend-go/internal/domain/recruitment"
	"github.com/cmlabs-hris/boarding-backend-go/internal/domain/staff"
)

//go:embed templates/*.html
var templateFS embed.FS

const maxRetries = 3

// sendFunc matches smtp.SendMail.
type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type notifierImpl struct {
	cfg       config.SMTPConfig
	templates *template.Template
	send      sendFunc
	backoff   time.Duration
}

// NewNotifier returns a boarding.Notifier that emails candidates.
func NewNotifier(cfg config.SMTPConfig) (boarding.Notifier, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse email templates: %w", err)
	}

	return &notifierImpl{
		cfg:       cfg,
		templates: tmpl,
		send:      smtp.SendMail,
		backoff:   time.Second,
	}, nil
}

type offerEmailData struct {
	CandidateName string
	StartDate     string
}

// OfferSent implements boarding.Notifier.
func (n *notifierImpl) OfferSent(ctx context.Context, c recruitment.Candidate, r boarding.BoardingRequest) error {
	data := offerEmailData{CandidateName: c.FullName}
	if r.ProposedStartDate != nil {
		data.StartDate = r.ProposedStartDate.Format("2 January 2006")
	}

	var body bytes.Buffer
	if err := n.templates.ExecuteTemplate(&body, "offer_sent.html", data); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}

	return n.sendHTML(ctx, c.Email, "Your job offer", body.String())
}

type onboardedEmailData struct {
	CandidateName string
	EmployeeCode  string
	StaffID       string
	EntryDate     string
}

// Onboarded implements boarding.Notifier.
func (n *notifierImpl) Onboarded(ctx context.Context, c recruitment.Candidate, s staff.Staff) error {
	data := onboardedEmailData{
		CandidateName: c.FullName,
		EmployeeCode:  s.EmployeeCode,
		StaffID:       s.StaffID,
		EntryDate:     s.EntryDate.Format("2 January 2006"),
	}

	var body bytes.Buffer
	if err := n.templates.ExecuteTemplate(&body, "onboarded.html", data); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}

	return n.sendHTML(ctx, c.Email, "Welcome aboard", body.String())
}

func (n *notifierImpl) sendHTML(ctx context.Context, to, subject, htmlBody string) error {
	// Skip sending if SMTP is not configured
	if n.cfg.Host == "" {
		slog.Warn("SMTP not configured, skipping email send", "to", to, "subject", subject)
		return nil
	}

	from := n.cfg.From

	headers := fmt.Sprintf("From: %s <%s>\r\n", n.cfg.FromName, from)
	headers += fmt.Sprintf("To: %s\r\n", to)
	headers += fmt.Sprintf("Subject: %s\r\n", subject)
	headers += "MIME-Version: 1.0\r\n"
	headers += "Content-Type: text/html; charset=\"UTF-8\"\r\n"
	headers += "\r\n"

	message := []byte(headers + htmlBody)

	auth := smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)
	addr := fmt.Sprintf("%s:%d", n.cfg.Host, n.cfg.Port)

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		err := n.send(addr, auth, from, []string{to}, message)
		if err == nil {
			slog.Info("Email sent successfully", "to", to, "subject", subject, "attempt", attempt)
			return nil
		}

		lastErr = err
		slog.Error("Failed to send email",
			"to", to,
			"subject", subject,
			"attempt", attempt,
			"max_retries", maxRetries,
			"error", err,
		)

		// Exponential backoff: 1s, 2s, 4s
		if attempt < maxRetries {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(n.backoff << (attempt - 1)):
			}
		}
	}

	return fmt.Errorf("failed to send email after %d attempts: %w", maxRetries, lastErr)
}
