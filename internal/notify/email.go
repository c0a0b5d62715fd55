// Package notify emails the listings summary to the mailing list.
package notify

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log"
	"net/smtp"
	"os"
	"path/filepath"
	"strings"

	"github.com/jordan-wright/email"

	"springwatch/internal/config"
	"springwatch/internal/domain"
)

var (
	ErrMissingCredentials = errors.New("missing SMTP credentials (SMTP_USER / SMTP_PASS_APP)")
	ErrNoRecipients       = errors.New("mailing list has no email addresses")
)

// Template is the fixed text around the two listing groups.
type Template struct {
	Subject  string
	NewIntro string
	OldIntro string
}

// Sender submits a composed message. The default uses STARTTLS.
type Sender func(e *email.Email, addr string, auth smtp.Auth, tlsCfg *tls.Config) error

// Archiver keeps a copy of a sent message somewhere.
type Archiver interface {
	Archive(ctx context.Context, raw []byte) error
}

type Mailer struct {
	smtp     config.SMTP
	tmpl     Template
	send     Sender
	archiver Archiver
}

// NewMailer builds a Mailer. archiver may be nil.
func NewMailer(s config.SMTP, tmpl Template, archiver Archiver) *Mailer {
	return &Mailer{smtp: s, tmpl: tmpl, send: sendStartTLS, archiver: archiver}
}

func sendStartTLS(e *email.Email, addr string, auth smtp.Auth, tlsCfg *tls.Config) error {
	return e.SendWithStartTLS(addr, auth, tlsCfg)
}

// Line formats one listing as a bullet.
func Line(l domain.Listing) string {
	return fmt.Sprintf("• %s – %s - %s - %s", l.Company, l.Title, l.Category, l.URL)
}

func lines(ls []domain.Listing) string {
	out := make([]string, 0, len(ls))
	for _, l := range ls {
		out = append(out, Line(l))
	}
	return strings.Join(out, "\n")
}

func ComposeBody(tmpl Template, newer, older []domain.Listing) string {
	return tmpl.NewIntro + "\n\n" + lines(newer) +
		"\n\n" + tmpl.OldIntro + "\n\n" + lines(older)
}

// Compose builds the message; attachPath, when set, is attached as CSV.
func (m *Mailer) Compose(newer, older []domain.Listing, recipients []string, attachPath string) (*email.Email, error) {
	e := email.NewEmail()
	e.From = m.smtp.Username
	e.To = recipients
	e.Subject = m.tmpl.Subject
	e.Text = []byte(ComposeBody(m.tmpl, newer, older))

	if attachPath != "" {
		f, err := os.Open(attachPath)
		if err != nil {
			return nil, fmt.Errorf("open attachment: %w", err)
		}
		defer f.Close()
		if _, err := e.Attach(f, filepath.Base(attachPath), "text/csv"); err != nil {
			return nil, fmt.Errorf("attach %s: %w", attachPath, err)
		}
	}
	return e, nil
}

// Notify sends one message with both groups. It checks credentials before
// touching the network and never retries.
func (m *Mailer) Notify(ctx context.Context, newer, older []domain.Listing, recipients []string, attachPath string) error {
	if m.smtp.Username == "" || m.smtp.Password == "" {
		return ErrMissingCredentials
	}
	if len(recipients) == 0 {
		return ErrNoRecipients
	}

	e, err := m.Compose(newer, older, recipients, attachPath)
	if err != nil {
		return err
	}

	auth := smtp.PlainAuth("", m.smtp.Username, m.smtp.Password, m.smtp.Host)
	tlsCfg := &tls.Config{MinVersion: tls.VersionTLS12, ServerName: m.smtp.Host}
	if err := m.send(e, m.smtp.Addr(), auth, tlsCfg); err != nil {
		return fmt.Errorf("smtp send via %s: %w", m.smtp.Addr(), err)
	}
	log.Printf("[notify] email sent to %v new=%d old=%d", recipients, len(newer), len(older))

	if m.archiver != nil {
		raw, err := e.Bytes()
		if err != nil {
			log.Printf("[notify] archive skipped: %v", err)
			return nil
		}
		if err := m.archiver.Archive(ctx, raw); err != nil {
			log.Printf("[notify] archive failed: %v", err)
		}
	}
	return nil
}
