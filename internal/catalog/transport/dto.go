package transport

import "github.com/google/uuid"

type SearchRequest struct {
	Query     string `form:"q" validate:"required,min=1,max=200"`
	Limit     int    `form:"limit" validate:"omitempty,min=1,max=50"`
	Available bool   `form:"available"`
}

type ProductResponse struct {
	ID            uuid.UUID `json:"id"`
	SKU           string    `json:"sku"`
	Name          string    `json:"name"`
	Description   *string   `json:"description,omitempty"`
	Category      *string   `json:"category,omitempty"`
	PriceCents    int64     `json:"priceCents"`
	StockQuantity int       `json:"stockQuantity"`
	Active        bool      `json:"active"`
}

type SearchResponse struct {
	Items []ProductResponse `json:"items"`
	Total int               `json:"total"`
}
