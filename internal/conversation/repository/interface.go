package repository

import (
	"context"
	"time"

	"cotizador_backend/internal/conversation/domain"

	"github.com/google/uuid"
)

// MessageType is the author of a logged message.
type MessageType string

const (
	MessageUser   MessageType = "user"
	MessageBot    MessageType = "bot"
	MessageSystem MessageType = "system"
)

// Message is one logged line of a conversation transcript.
type Message struct {
	ID                uuid.UUID      `json:"id"`
	ConversationID    uuid.UUID      `json:"conversationId"`
	Type              MessageType    `json:"messageType"`
	Content           string         `json:"content"`
	IntentDetected    *string        `json:"intentDetected,omitempty"`
	Confidence        *float64       `json:"confidence,omitempty"`
	ProcessingTimeMs  *int           `json:"processingTimeMs,omitempty"`
	Metadata          map[string]any `json:"metadata,omitempty"`
	WhatsAppMessageID *string        `json:"whatsappMessageId,omitempty"`
	CreatedAt         time.Time      `json:"createdAt"`
}

// AddMessageParams contains data for logging a message.
type AddMessageParams struct {
	ConversationID    uuid.UUID
	Type              MessageType
	Content           string
	IntentDetected    *string
	Confidence        *float64
	ProcessingTimeMs  *int
	Metadata          map[string]any
	WhatsAppMessageID *string
}

// Repository is the persistence boundary of the conversation context.
type Repository interface {
	Create(ctx context.Context, userID uuid.UUID, chatID string) (*domain.Conversation, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Conversation, error)
	GetActiveByUser(ctx context.Context, userID uuid.UUID) (*domain.Conversation, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Conversation, error)

	UpdateState(ctx context.Context, id uuid.UUID, state domain.State) error
	UpdateProducts(ctx context.Context, id uuid.UUID, products []domain.AccumulationRecord) error
	UpdateContext(ctx context.Context, id uuid.UUID, patch domain.ContextPatch) error
	ReplaceContext(ctx context.Context, id uuid.UUID, values map[string]any) error

	Complete(ctx context.Context, id uuid.UUID) error
	ExpireIdle(ctx context.Context, cutoff time.Time) ([]uuid.UUID, error)

	AddMessage(ctx context.Context, params AddMessageParams) (Message, error)
	ListMessages(ctx context.Context, conversationID uuid.UUID, limit int) ([]Message, error)
}
