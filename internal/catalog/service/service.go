package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"cotizador_backend/internal/catalog/repository"
	"cotizador_backend/internal/catalog/transport"
	"cotizador_backend/internal/conversation/domain"
	"cotizador_backend/platform/apperr"
	"cotizador_backend/platform/logger"
)

const maxSearchLimit = 50

// Service provides business logic for catalog.
type Service struct {
	repo repository.Repository
	log  *logger.Logger
}

// New creates a new catalog service.
func New(repo repository.Repository, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Discard()
	}
	return &Service{repo: repo, log: log}
}

// Search runs the admin catalog search.
func (s *Service) Search(ctx context.Context, req transport.SearchRequest) (transport.SearchResponse, error) {
	limit := req.Limit
	if limit < 1 {
		limit = 10
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	items, err := s.repo.Search(ctx, repository.SearchParams{
		Query:         strings.TrimSpace(req.Query),
		OnlyAvailable: req.Available,
		Limit:         limit,
	})
	if err != nil {
		return transport.SearchResponse{}, err
	}

	resp := transport.SearchResponse{Items: make([]transport.ProductResponse, 0, len(items))}
	for _, p := range items {
		resp.Items = append(resp.Items, toProductResponse(p))
	}
	resp.Total = len(resp.Items)
	return resp, nil
}

// GetBySKU retrieves a product by SKU.
func (s *Service) GetBySKU(ctx context.Context, sku string) (transport.ProductResponse, error) {
	sku = strings.TrimSpace(sku)
	if sku == "" {
		return transport.ProductResponse{}, apperr.Validation("sku is required")
	}
	p, err := s.repo.GetBySKU(ctx, sku)
	if err != nil {
		return transport.ProductResponse{}, err
	}
	return toProductResponse(p), nil
}

// Match returns up to limit ranked candidates for a requested product name.
// In-stock products rank first.
func (s *Service) Match(ctx context.Context, name string, limit int) ([]domain.CandidateProduct, error) {
	items, err := s.repo.Search(ctx, repository.SearchParams{Query: name, Limit: limit})
	if err != nil {
		return nil, err
	}
	out := make([]domain.CandidateProduct, 0, len(items))
	for _, p := range items {
		out = append(out, toCandidate(p))
	}
	return out, nil
}

// Lookup re-reads a product for quoting, by ID when known, else by SKU.
func (s *Service) Lookup(ctx context.Context, id *uuid.UUID, sku string) (repository.Product, error) {
	if id != nil {
		p, err := s.repo.GetByID(ctx, *id)
		if err == nil || !apperr.Is(err, apperr.KindNotFound) || sku == "" {
			return p, err
		}
	}
	if sku == "" {
		return repository.Product{}, apperr.NotFound("product not found")
	}
	return s.repo.GetBySKU(ctx, sku)
}

func toCandidate(p repository.Product) domain.CandidateProduct {
	id := p.ID
	return domain.CandidateProduct{
		ID:            &id,
		SKU:           p.SKU,
		Name:          p.Name,
		PriceCents:    p.PriceCents,
		StockQuantity: p.StockQuantity,
	}
}

func toProductResponse(p repository.Product) transport.ProductResponse {
	return transport.ProductResponse{
		ID:            p.ID,
		SKU:           p.SKU,
		Name:          p.Name,
		Description:   p.Description,
		Category:      p.Category,
		PriceCents:    p.PriceCents,
		StockQuantity: p.StockQuantity,
		Active:        p.Active,
	}
}
