// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"cotizador_backend/platform/events"

	"github.com/google/uuid"
)

type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
	InMemoryBus = events.InMemoryBus
)

var (
	NewBaseEvent   = events.NewBaseEvent
	NewInMemoryBus = events.NewInMemoryBus
)

// =============================================================================
// Quotes Domain Events
// =============================================================================

// QuoteGenerated is published once a quote's PDF has been rendered and stored.
type QuoteGenerated struct {
	BaseEvent
	QuoteID        uuid.UUID  `json:"quoteId"`
	QuoteNumber    string     `json:"quoteNumber"`
	UserID         uuid.UUID  `json:"userId"`
	ConversationID *uuid.UUID `json:"conversationId,omitempty"`
	PDFPath        string     `json:"pdfPath"`
	PublicURL      string     `json:"publicUrl"`
	TotalCents     int64      `json:"totalCents"`
}

func (e QuoteGenerated) EventName() string { return "quotes.quote.generated" }

// =============================================================================
// Conversation Domain Events
// =============================================================================

// ConversationExpired is published for every conversation the idle sweep times out.
type ConversationExpired struct {
	BaseEvent
	ConversationID uuid.UUID `json:"conversationId"`
}

func (e ConversationExpired) EventName() string { return "conversation.expired" }

// ConversationCompleted is published when a conversation reaches finalizado.
type ConversationCompleted struct {
	BaseEvent
	ConversationID uuid.UUID `json:"conversationId"`
	UserID         uuid.UUID `json:"userId"`
}

func (e ConversationCompleted) EventName() string { return "conversation.completed" }
