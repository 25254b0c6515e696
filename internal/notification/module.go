// Package notification provides event handlers for sending notifications
// in response to domain events. Domain modules publish events and never
// talk to e-mail providers directly.
package notification

import (
	"context"
	"fmt"
	"strings"

	"cotizador_backend/internal/email"
	"cotizador_backend/internal/events"
	quotesvc "cotizador_backend/internal/quotes/service"
	"cotizador_backend/platform/logger"

	"github.com/google/uuid"
)

const contentTypePDF = "application/pdf"

// QuoteDocuments returns the rendered document of a quote.
type QuoteDocuments interface {
	PDFContent(ctx context.Context, quoteID uuid.UUID) (string, []byte, error)
}

// RecipientReader resolves the contact data of a user.
type RecipientReader interface {
	GetCustomer(ctx context.Context, userID uuid.UUID) (quotesvc.Customer, error)
}

// Module handles all notification-related event subscriptions.
type Module struct {
	sender      email.Sender
	documents   QuoteDocuments
	recipients  RecipientReader
	companyName string
	log         *logger.Logger
}

// New creates the notification module.
func New(sender email.Sender, documents QuoteDocuments, recipients RecipientReader, companyName string, log *logger.Logger) *Module {
	if sender == nil {
		sender = email.NoopSender{}
	}
	return &Module{
		sender:      sender,
		documents:   documents,
		recipients:  recipients,
		companyName: companyName,
		log:         log,
	}
}

// RegisterHandlers subscribes the module to the events it reacts to.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.QuoteGenerated{}.EventName(), m)
	bus.Subscribe(events.ConversationExpired{}.EventName(), m)
	bus.Subscribe(events.ConversationCompleted{}.EventName(), m)

	m.log.Info("notification module registered event handlers")
}

// Handle routes events to the appropriate handler method.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.QuoteGenerated:
		return m.handleQuoteGenerated(ctx, e)
	case events.ConversationExpired:
		m.log.Info("conversation expired", "conversation_id", e.ConversationID)
		return nil
	case events.ConversationCompleted:
		m.log.Info("conversation completed", "conversation_id", e.ConversationID, "user_id", e.UserID)
		return nil
	default:
		return nil
	}
}

// handleQuoteGenerated mails the document to the owner of the quote when
// the user has an e-mail address. Failures are logged and swallowed.
func (m *Module) handleQuoteGenerated(ctx context.Context, e events.QuoteGenerated) error {
	if _, ok := m.sender.(email.NoopSender); ok {
		return nil
	}

	recipient, err := m.recipients.GetCustomer(ctx, e.UserID)
	if err != nil {
		m.log.Warn("quote email skipped", "quote_id", e.QuoteID, "reason", "recipient_lookup_failed", "error", err)
		return nil
	}
	if strings.TrimSpace(recipient.Email) == "" {
		return nil
	}

	var attachments []email.Attachment
	if m.documents != nil {
		number, content, err := m.documents.PDFContent(ctx, e.QuoteID)
		if err != nil {
			m.log.Warn("quote email without attachment", "quote_id", e.QuoteID, "error", err)
		} else {
			attachments = append(attachments, email.Attachment{
				Content:  content,
				FileName: fmt.Sprintf("Cotizacion-%s.pdf", number),
				MIMEType: contentTypePDF,
			})
		}
	}

	if err := m.sender.SendQuoteGeneratedEmail(ctx, recipient.Email, email.QuoteEmail{
		RecipientName: recipient.Name,
		CompanyName:   m.companyName,
		QuoteNumber:   e.QuoteNumber,
		TotalCents:    e.TotalCents,
		PublicURL:     e.PublicURL,
	}, attachments...); err != nil {
		m.log.ExternalFailure("email", err)
		return nil
	}

	m.log.Info("quote email sent", "quote_id", e.QuoteID, "quote_number", e.QuoteNumber)
	return nil
}

// Compile-time check that Module implements events.Handler.
var _ events.Handler = (*Module)(nil)
