package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle of a quote.
type Status string

const (
	StatusDraft    Status = "draft"
	StatusSent     Status = "sent"
	StatusViewed   Status = "viewed"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
	StatusExpired  Status = "expired"
)

// Quote is a persisted quote with its items.
type Quote struct {
	ID             uuid.UUID
	QuoteNumber    string
	ConversationID *uuid.UUID
	UserID         uuid.UUID
	CustomerName   string
	SubtotalCents  int64
	TaxRateBps     int64
	TaxCents       int64
	TotalCents     int64
	Status         Status
	ValidUntil     time.Time
	PDFPath        *string
	PDFSizeBytes   *int
	ViewCount      int
	LastViewed     *time.Time
	SentAt         *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Items          []QuoteItem
}

// QuoteItem is one priced line of a quote.
type QuoteItem struct {
	ID             uuid.UUID
	ProductID      *uuid.UUID
	ProductName    string
	ProductSKU     *string
	Description    *string
	Quantity       int
	UnitPriceCents int64
	TotalCents     int64
	LineOrder      int
}

// CreateItemParams contains data for one quote line.
type CreateItemParams struct {
	ProductID      *uuid.UUID
	ProductName    string
	ProductSKU     string
	Description    string
	Quantity       int
	UnitPriceCents int64
	TotalCents     int64
}

// CreateParams contains data for creating a quote with its items.
type CreateParams struct {
	ConversationID *uuid.UUID
	UserID         uuid.UUID
	CustomerName   string
	// Day selects the daily number sequence by its date in its own location.
	Day           time.Time
	SubtotalCents int64
	TaxRateBps    int64
	TaxCents      int64
	TotalCents    int64
	ValidUntil    time.Time
	Items         []CreateItemParams
}

// Repository defines the quotes data access interface.
type Repository interface {
	Create(ctx context.Context, params CreateParams) (Quote, error)
	GetByID(ctx context.Context, id uuid.UUID) (Quote, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]Quote, error)
	SetPDF(ctx context.Context, id uuid.UUID, path string, sizeBytes int) error
	RecordView(ctx context.Context, id uuid.UUID) error
	ExpireOverdue(ctx context.Context, now time.Time) (int64, error)
}
