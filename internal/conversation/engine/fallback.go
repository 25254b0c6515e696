package engine

import (
	"context"

	"cotizador_backend/internal/conversation/domain"
)

const (
	fallbackConfidence = 0.5
	// The degraded path quotes a fixed IVA in its summaries.
	fallbackTaxRateBps int64 = 1600
)

type matcher interface {
	matches(m message) bool
}

type fallbackRule struct {
	intent domain.Intent
	match  matcher
}

// fallbackRules is evaluated top to bottom; the first match wins.
var fallbackRules = []fallbackRule{
	{domain.IntentSaludo, keywords("hola", "hello", "hi", "buenas", "buenos dias")},
	{domain.IntentReset, resetKeywords},
	{domain.IntentCancelar, keywords("cancelar", "cancela")},
	{domain.IntentDespedida, keywords("adios", "bye", "hasta luego")},
	{domain.IntentAgregarProducto, productStems},
	{domain.IntentCotizar, keywords("cotizacion", "cotizaciones", "cotizar", "precio", "precios", "costo", "costos")},
	{domain.IntentFinalizarCotizacion, keywords("generar", "listo", "terminar", "finalizar", "es todo")},
	{domain.IntentConfirmar, affirmativeKeywords},
	{domain.IntentModificar, modifyKeywords},
	{domain.IntentAyuda, keywords("ayuda", "help", "que puedes hacer")},
}

// newQuoteKeywords additionally clear the list when asking for a quote.
var newQuoteKeywords = keywords("cotizacion", "nueva", "otro", "otra")

type fallbackProduct struct {
	stems      stemSet
	name       string
	sku        string
	priceCents int64
}

// fallbackCatalog is the fixed vocabulary of the degraded path. SKUs refer to
// seeded catalog rows so quotes can still be built from these records.
var fallbackCatalog = []fallbackProduct{
	{stemSet{"lapiz", "lapic", "mongol"}, "Lápices Mongol #2", "LAP-MONGOL-2", 850},
	{stemSet{"papel", "bond", "hoja"}, "Papel Bond A4", "PAP-BOND-A4", 275},
	{stemSet{"cuaderno"}, "Cuadernos", "CUA-PROF-100", 550},
	{stemSet{"folder", "manila"}, "Folder Manila", "FOL-MANILA-CARTA", 3500},
	{stemSet{"pluma", "bic"}, "Plumas BIC Cristal", "PLU-BIC-CRISTAL", 4500},
	{stemSet{"calculadora", "casio"}, "Calculadora Casio FX-991", "CAL-CASIO-FX991", 28500},
}

var productStems = func() stemSet {
	var all stemSet
	for _, p := range fallbackCatalog {
		all = append(all, p.stems...)
	}
	return all
}()

func classifyByRules(m message) (domain.Intent, float64) {
	for _, rule := range fallbackRules {
		if rule.match.matches(m) {
			return rule.intent, fallbackConfidence
		}
	}
	return domain.IntentOtro, 0
}

// fallback answers a turn with keyword rules only. It reaches the same
// transitions as the classifier path for the intents it recognizes.
func (e *Engine) fallback(ctx context.Context, t *turn) string {
	t.intent, t.confidence = classifyByRules(t.msg)
	t.source = domain.SourceFallback
	state := t.conv.State

	switch t.intent {
	case domain.IntentSaludo:
		return renderFallbackGreeting(t.user.Name)
	case domain.IntentAyuda:
		return renderHelp(state)
	case domain.IntentReset:
		return e.reset(ctx, t)
	case domain.IntentCancelar:
		return e.cancel(ctx, t)
	case domain.IntentDespedida:
		if state.IsTerminal() {
			return replyGoodbye
		}
		return e.goodbye(ctx, t)
	}

	switch state {
	case domain.StateFinalizado:
		return replyFallbackGeneral
	case domain.StateRevisando:
		e.transition(ctx, t, domain.StateCotizando)
		return replyGenerating
	case domain.StateCotizando:
		return e.generateQuote(ctx, t)
	}

	switch t.intent {
	case domain.IntentAgregarProducto:
		return e.fallbackAddProducts(ctx, t)
	case domain.IntentCotizar:
		e.transition(ctx, t, domain.StateRecopilando)
		if newQuoteKeywords.matches(t.msg) {
			e.setProducts(ctx, t, nil)
			t.patch = t.patch.Without(domain.ContextProductsInProgress)
		}
		return replyFallbackQuotePrompt
	case domain.IntentFinalizarCotizacion:
		switch state {
		case domain.StateRecopilando:
			return e.finalize(ctx, t, fallbackTaxRateBps)
		case domain.StateValidando:
			return e.confirm(ctx, t)
		}
	case domain.IntentConfirmar:
		if state == domain.StateValidando {
			return e.confirm(ctx, t)
		}
	case domain.IntentModificar:
		if state == domain.StateValidando {
			return e.modify(ctx, t)
		}
	}

	if state == domain.StateValidando {
		return replyConfirmAgain
	}
	return replyFallbackGeneral
}

// fallbackAddProducts appends the vocabulary products mentioned in the
// message. A fresh quote is started when coming from conversando.
func (e *Engine) fallbackAddProducts(ctx context.Context, t *turn) string {
	detected := detectFallbackProducts(t.msg)

	if t.conv.State == domain.StateConversando {
		e.setProducts(ctx, t, nil)
	}
	e.transition(ctx, t, domain.StateRecopilando)
	e.setProducts(ctx, t, domain.AppendRecords(t.conv.ProductsInProgress, detected))

	return renderFallbackAdded(detected)
}

// detectFallbackProducts returns one record per vocabulary product mentioned,
// in vocabulary order. The first integer in the message becomes the quantity
// of the first record.
func detectFallbackProducts(m message) []domain.AccumulationRecord {
	var records []domain.AccumulationRecord
	for _, p := range fallbackCatalog {
		if !p.stems.matches(m) {
			continue
		}
		records = append(records, domain.AccumulationRecord{
			Requested: domain.RequestedProduct{Name: p.name, Quantity: 1, Unit: "pieza"},
			Options: []domain.CandidateProduct{{
				SKU:        p.sku,
				Name:       p.name,
				PriceCents: p.priceCents,
			}},
		})
	}
	if qty, ok := firstQuantity(m); ok && len(records) > 0 {
		records[0].Requested.Quantity = qty
	}
	return records
}
