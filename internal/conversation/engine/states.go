package engine

import (
	"context"

	"cotizador_backend/internal/conversation/domain"
)

// dispatch routes a classified turn: global interrupts first, then the
// handler of the current state.
func (e *Engine) dispatch(ctx context.Context, t *turn) string {
	switch t.intent {
	case domain.IntentSaludo:
		return renderGreeting(t.user.Name)
	case domain.IntentAyuda:
		return renderHelp(t.conv.State)
	case domain.IntentCancelar:
		return e.cancel(ctx, t)
	case domain.IntentDespedida:
		if t.conv.State.IsTerminal() {
			return replyGoodbye
		}
		return e.goodbye(ctx, t)
	}

	switch t.conv.State {
	case domain.StateConversando:
		return e.onConversando(ctx, t)
	case domain.StateRecopilando:
		return e.onRecopilando(ctx, t)
	case domain.StateValidando:
		return e.onValidando(ctx, t)
	case domain.StateRevisando:
		e.transition(ctx, t, domain.StateCotizando)
		return replyGenerating
	case domain.StateCotizando:
		return e.generateQuote(ctx, t)
	default:
		// finalizado and any unrecognized state
		return e.respond(ctx, t)
	}
}

func (e *Engine) onConversando(ctx context.Context, t *turn) string {
	switch t.intent {
	case domain.IntentCotizar:
		e.transition(ctx, t, domain.StateRecopilando)
		return replyCollectPrompt
	case domain.IntentBuscarProductos:
		if len(t.extracted) == 0 {
			return replyCatalogPrompt
		}
		e.setProducts(ctx, t, nil)
		e.transition(ctx, t, domain.StateRecopilando)
		return e.matchAndMerge(ctx, t, t.extracted)
	}
	return e.respond(ctx, t)
}

func (e *Engine) onRecopilando(ctx context.Context, t *turn) string {
	if statusQueryKeywords.matches(t.msg) {
		return renderStatus(t.conv.ProductsInProgress)
	}

	switch t.intent {
	case domain.IntentAgregarProducto, domain.IntentBuscarProductos:
		if len(t.extracted) == 0 {
			return replyNoProductsIdentified
		}
		return e.matchAndMerge(ctx, t, t.extracted)
	case domain.IntentFinalizarCotizacion:
		return e.finalize(ctx, t, 0)
	}
	return replyStillCollecting
}

// finalize moves a non-empty list to validando and shows its summary.
func (e *Engine) finalize(ctx context.Context, t *turn, taxRateBps int64) string {
	if len(t.conv.ProductsInProgress) == 0 {
		return replyNothingToFinalize
	}
	e.transition(ctx, t, domain.StateValidando)
	return renderSummary(t.conv.ProductsInProgress, taxRateBps)
}

func (e *Engine) onValidando(ctx context.Context, t *turn) string {
	switch {
	case t.intent == domain.IntentFinalizarCotizacion || affirmativeKeywords.matches(t.msg):
		return e.confirm(ctx, t)
	case modifyKeywords.matches(t.msg):
		return e.modify(ctx, t)
	}
	return replyConfirmAgain
}

// confirm enters cotizando and generates the quote within the same turn.
func (e *Engine) confirm(ctx context.Context, t *turn) string {
	e.transition(ctx, t, domain.StateCotizando)
	return e.generateQuote(ctx, t)
}

func (e *Engine) modify(ctx context.Context, t *turn) string {
	e.transition(ctx, t, domain.StateRecopilando)
	return replyModify
}
