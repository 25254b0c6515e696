package engine

import (
	"context"
	"strings"

	"cotizador_backend/internal/conversation/domain"
)

// matchAndMerge looks every requested product up in the catalog, appends the
// matched ones to the product list and renders the outcome. Lookup failures
// count as not found.
func (e *Engine) matchAndMerge(ctx context.Context, t *turn, requested []domain.RequestedProduct) string {
	found := make([]domain.AccumulationRecord, 0, len(requested))
	var notFound []string

	for _, req := range requested {
		name := strings.TrimSpace(req.Name)
		if name == "" {
			continue
		}
		if req.Quantity < 1 {
			req.Quantity = 1
		}

		candidates, err := e.catalog.Match(ctx, name, e.cfg.CandidateLimit)
		if err != nil {
			t.log.ExternalFailure("catalog_search", err)
			candidates = nil
		}
		if len(candidates) == 0 {
			notFound = append(notFound, name)
			continue
		}
		if len(candidates) > e.cfg.CandidateLimit {
			candidates = candidates[:e.cfg.CandidateLimit]
		}

		found = append(found, domain.AccumulationRecord{
			Requested: req,
			Options:   append([]domain.CandidateProduct(nil), candidates...),
		})
	}

	if len(found) > 0 {
		e.setProducts(ctx, t, domain.AppendRecords(t.conv.ProductsInProgress, found))
	}
	return renderMatches(found, notFound)
}
