package adapters

import (
	"context"

	"github.com/google/uuid"

	catrepo "cotizador_backend/internal/catalog/repository"
	quotesvc "cotizador_backend/internal/quotes/service"
)

// ProductLookup is the narrow catalog read used when pricing quotes.
type ProductLookup interface {
	Lookup(ctx context.Context, id *uuid.UUID, sku string) (catrepo.Product, error)
}

// CatalogProductReader adapts the catalog service for the quotes domain.
// It satisfies quotesvc.ProductReader.
type CatalogProductReader struct {
	catalog ProductLookup
}

// NewCatalogProductReader creates a new catalog reader adapter.
func NewCatalogProductReader(catalog ProductLookup) *CatalogProductReader {
	return &CatalogProductReader{catalog: catalog}
}

// LookupProduct returns the live product for a quote line. Not-found errors
// pass through unchanged so the quotes service can skip the line.
func (a *CatalogProductReader) LookupProduct(ctx context.Context, id *uuid.UUID, sku string) (quotesvc.Product, error) {
	p, err := a.catalog.Lookup(ctx, id, sku)
	if err != nil {
		return quotesvc.Product{}, err
	}

	product := quotesvc.Product{
		ID:            p.ID,
		SKU:           p.SKU,
		Name:          p.Name,
		PriceCents:    p.PriceCents,
		StockQuantity: p.StockQuantity,
		Active:        p.Active,
	}
	if p.Description != nil {
		product.Description = *p.Description
	}
	return product, nil
}

// Compile-time check that CatalogProductReader implements quotesvc.ProductReader.
var _ quotesvc.ProductReader = (*CatalogProductReader)(nil)
