package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Product is a catalog item offered in quotes.
type Product struct {
	ID            uuid.UUID `db:"id"`
	SKU           string    `db:"sku"`
	Name          string    `db:"name"`
	Description   *string   `db:"description"`
	Category      *string   `db:"category"`
	PriceCents    int64     `db:"price_cents"`
	StockQuantity int       `db:"stock_quantity"`
	Active        bool      `db:"active"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

// InStock reports whether the product can be quoted right now.
func (p Product) InStock() bool {
	return p.Active && p.StockQuantity > 0
}

// SearchParams defines a word-containment catalog search.
type SearchParams struct {
	Query string
	// OnlyAvailable restricts results to products with stock.
	OnlyAvailable bool
	Limit         int
}

// UpsertProductParams is a product keyed by SKU.
type UpsertProductParams struct {
	SKU           string
	Name          string
	Description   *string
	Category      *string
	PriceCents    int64
	StockQuantity int
	Active        bool
}

// Repository defines the catalog data access interface.
type Repository interface {
	Search(ctx context.Context, params SearchParams) ([]Product, error)
	GetByID(ctx context.Context, id uuid.UUID) (Product, error)
	GetBySKU(ctx context.Context, sku string) (Product, error)
	Upsert(ctx context.Context, params UpsertProductParams) (Product, error)
}
