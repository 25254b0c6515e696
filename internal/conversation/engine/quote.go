package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"cotizador_backend/internal/conversation/domain"
)

var errNoQuotableLines = errors.New("no product has an accepted option")

// generateQuote is the cotizando handling. Whatever happens the conversation
// leaves cotizando: finalizado on success, conversando otherwise.
func (e *Engine) generateQuote(ctx context.Context, t *turn) string {
	lines := domain.QuoteLines(t.conv.ProductsInProgress)
	if len(lines) == 0 {
		e.metrics.IncQuote("empty")
		e.transition(ctx, t, domain.StateConversando)
		return replyNothingToQuote
	}

	quote, pdfPath, err := e.buildAndRender(ctx, t, lines)
	if err != nil {
		e.metrics.IncQuote("failed")
		t.log.Error("quote generation failed",
			slog.String("error", err.Error()),
			slog.Int("lines", len(lines)),
		)
		e.transition(ctx, t, domain.StateConversando)
		return replyQuoteFailed
	}

	e.metrics.IncQuote("created")
	e.setProducts(ctx, t, nil)
	t.patch = t.patch.
		With(domain.ContextLastQuoteID, quote.ID.String()).
		With(domain.ContextLastQuoteNumber, quote.Number).
		With(domain.ContextLastPDFPath, pdfPath).
		Without(domain.ContextProductsInProgress)
	e.transition(ctx, t, domain.StateFinalizado)

	t.log.Info("quote generated",
		slog.String("quote_id", quote.ID.String()),
		slog.String("quote_number", quote.Number),
		slog.Int64("total_cents", quote.TotalCents),
	)
	return renderQuoteCreated(quote, e.pdfURL(quote), e.cfg.QuoteValidityDays)
}

func (e *Engine) buildAndRender(ctx context.Context, t *turn, lines []domain.QuoteLine) (domain.QuoteResult, string, error) {
	if e.quotes == nil {
		return domain.QuoteResult{}, "", errors.New("quote builder not configured")
	}

	quote, err := e.quotes.BuildQuote(ctx, domain.QuoteRequest{
		ConversationID: t.conv.ID,
		UserID:         t.user.ID,
		CustomerName:   t.user.Name,
		Lines:          lines,
	})
	if err != nil {
		return domain.QuoteResult{}, "", fmt.Errorf("build quote: %w", err)
	}
	if quote.ItemCount == 0 {
		return domain.QuoteResult{}, "", errNoQuotableLines
	}

	pdfPath, err := e.quotes.RenderPDF(ctx, quote.ID)
	if err != nil {
		return domain.QuoteResult{}, "", fmt.Errorf("render quote %s: %w", quote.Number, err)
	}
	return quote, pdfPath, nil
}

func (e *Engine) pdfURL(q domain.QuoteResult) string {
	return fmt.Sprintf("%s/api/v1/quotes/%s/pdf", strings.TrimRight(e.cfg.PublicBaseURL, "/"), q.ID)
}
