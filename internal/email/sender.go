package email

import (
	"context"

	"cotizador_backend/platform/config"
)

// Attachment represents a file attachment for an email.
type Attachment struct {
	Content  []byte // raw file bytes
	FileName string // e.g. "Cotizacion-COT-20261014-001.pdf"
	MIMEType string // e.g. "application/pdf"
}

// QuoteEmail is the content of the quote notification.
type QuoteEmail struct {
	RecipientName string
	CompanyName   string
	QuoteNumber   string
	TotalCents    int64
	ValidUntil    string
	PublicURL     string
}

type Sender interface {
	SendQuoteGeneratedEmail(ctx context.Context, toEmail string, data QuoteEmail, attachments ...Attachment) error
}

type NoopSender struct{}

func (NoopSender) SendQuoteGeneratedEmail(context.Context, string, QuoteEmail, ...Attachment) error {
	return nil
}

// NewSender returns an SMTP sender when e-mail is configured and a
// NoopSender otherwise.
func NewSender(cfg config.EmailConfig) Sender {
	if !cfg.IsEmailEnabled() {
		return NoopSender{}
	}
	return NewSMTPSender(
		cfg.GetSMTPHost(),
		cfg.GetSMTPPort(),
		cfg.GetSMTPUsername(),
		cfg.GetSMTPPassword(),
		cfg.GetEmailFromAddress(),
		cfg.GetEmailFromName(),
	)
}

var (
	_ Sender = NoopSender{}
	_ Sender = (*SMTPSender)(nil)
)
