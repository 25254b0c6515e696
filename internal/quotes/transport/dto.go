package transport

import "time"

// ListQuotesRequest filters the admin quote listing.
type ListQuotesRequest struct {
	UserID string `form:"userId" validate:"required,uuid"`
	Limit  int    `form:"limit" validate:"omitempty,min=1,max=100"`
}

// QuoteItemResponse is one line of a quote.
type QuoteItemResponse struct {
	ProductID      *string `json:"productId,omitempty"`
	ProductName    string  `json:"productName"`
	ProductSKU     *string `json:"productSku,omitempty"`
	Description    *string `json:"description,omitempty"`
	Quantity       int     `json:"quantity"`
	UnitPriceCents int64   `json:"unitPriceCents"`
	TotalCents     int64   `json:"totalCents"`
}

// QuoteResponse is the admin view of a quote.
type QuoteResponse struct {
	ID             string              `json:"id"`
	QuoteNumber    string              `json:"quoteNumber"`
	ConversationID *string             `json:"conversationId,omitempty"`
	UserID         string              `json:"userId"`
	CustomerName   string              `json:"customerName"`
	SubtotalCents  int64               `json:"subtotalCents"`
	TaxRateBps     int64               `json:"taxRateBps"`
	TaxCents       int64               `json:"taxCents"`
	TotalCents     int64               `json:"totalCents"`
	Status         string              `json:"status"`
	ValidUntil     time.Time           `json:"validUntil"`
	PDFURL         string              `json:"pdfUrl"`
	ViewCount      int                 `json:"viewCount"`
	SentAt         *time.Time          `json:"sentAt,omitempty"`
	CreatedAt      time.Time           `json:"createdAt"`
	Items          []QuoteItemResponse `json:"items,omitempty"`
}

// QuoteListResponse wraps a quote listing.
type QuoteListResponse struct {
	Items []QuoteResponse `json:"items"`
	Total int             `json:"total"`
}
