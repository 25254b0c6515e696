package engine

import (
	"regexp"
	"strings"
	"testing"

	"cotizador_backend/internal/conversation/domain"
)

var nonTerminalStates = []domain.State{
	domain.StateConversando,
	domain.StateRecopilando,
	domain.StateValidando,
	domain.StateRevisando,
	domain.StateCotizando,
}

func TestGoodbyeFromAnyNonTerminalStateFinalizes(t *testing.T) {
	for _, st := range nonTerminalStates {
		h := newHarness()
		conv := newConversation(st, matchedRecord("lapiz", 2, 850))

		reply := h.say(conv, domain.IntentDespedida, "adiós, gracias")

		if conv.State != domain.StateFinalizado || reply.State != domain.StateFinalizado {
			t.Fatalf("%s: expected finalizado, got %s", st, conv.State)
		}
		if reply.Text != replyGoodbye {
			t.Fatalf("%s: expected goodbye text, got %q", st, reply.Text)
		}
	}
}

func TestCancelFromAnyNonTerminalStateClearsProducts(t *testing.T) {
	for _, st := range nonTerminalStates {
		h := newHarness()
		conv := newConversation(st, matchedRecord("lapiz", 2, 850))
		conv.Context[domain.ContextProductsInProgress] = []any{"legacy"}

		h.say(conv, domain.IntentCancelar, "cancela todo")

		if conv.State != domain.StateConversando {
			t.Fatalf("%s: expected conversando, got %s", st, conv.State)
		}
		if len(conv.ProductsInProgress) != 0 {
			t.Fatalf("%s: expected empty products, got %d", st, len(conv.ProductsInProgress))
		}
		if _, ok := conv.Context[domain.ContextProductsInProgress]; ok {
			t.Fatalf("%s: expected legacy product key removed from context", st)
		}
	}
}

func TestFinalizadoIgnoresCancelAndGoodbye(t *testing.T) {
	h := newHarness()
	conv := newConversation(domain.StateFinalizado)

	h.say(conv, domain.IntentCancelar, "cancelar")
	h.say(conv, domain.IntentDespedida, "adios")
	reply := h.say(conv, domain.IntentCotizar, "quiero cotizar")

	if conv.State != domain.StateFinalizado {
		t.Fatalf("expected finalizado to stay terminal, got %s", conv.State)
	}
	if len(h.store.states) != 0 {
		t.Fatalf("expected no state writes, got %v", h.store.states)
	}
	if reply.Text != "respuesta general" {
		t.Fatalf("expected responder text, got %q", reply.Text)
	}
}

func TestGreetingAndHelpKeepState(t *testing.T) {
	h := newHarness()
	conv := newConversation(domain.StateValidando, matchedRecord("lapiz", 1, 850))

	greeting := h.say(conv, domain.IntentSaludo, "hola")
	help := h.say(conv, domain.IntentAyuda, "ayuda")

	if conv.State != domain.StateValidando {
		t.Fatalf("expected validando, got %s", conv.State)
	}
	if !strings.Contains(greeting.Text, "¡Hola Ana!") {
		t.Fatalf("expected personalized greeting, got %q", greeting.Text)
	}
	if !strings.Contains(help.Text, "Estás validando tu cotización") {
		t.Fatalf("expected validando help, got %q", help.Text)
	}
}

func TestCotizarFromConversandoStartsCollecting(t *testing.T) {
	h := newHarness()
	conv := newConversation(domain.StateConversando)

	reply := h.say(conv, domain.IntentCotizar, "quiero una cotización")

	if conv.State != domain.StateRecopilando {
		t.Fatalf("expected recopilando, got %s", conv.State)
	}
	if reply.Text != replyCollectPrompt {
		t.Fatalf("expected collect prompt, got %q", reply.Text)
	}
}

func TestSearchFromConversandoResetsListBeforeMerging(t *testing.T) {
	h := newHarness()
	conv := newConversation(domain.StateConversando, matchedRecord("viejo", 1, 100))

	h.say(conv, domain.IntentBuscarProductos, "busco lápices", domain.RequestedProduct{Name: "lapiz", Quantity: 3})

	if conv.State != domain.StateRecopilando {
		t.Fatalf("expected recopilando, got %s", conv.State)
	}
	if len(conv.ProductsInProgress) != 1 || conv.ProductsInProgress[0].Requested.Name != "lapiz" {
		t.Fatalf("expected only the new product, got %+v", conv.ProductsInProgress)
	}
}

func TestSearchFromConversandoWithoutProductsStays(t *testing.T) {
	h := newHarness()
	conv := newConversation(domain.StateConversando)

	reply := h.say(conv, domain.IntentBuscarProductos, "qué tienen?")

	if conv.State != domain.StateConversando {
		t.Fatalf("expected conversando, got %s", conv.State)
	}
	if reply.Text != replyCatalogPrompt {
		t.Fatalf("expected catalog prompt, got %q", reply.Text)
	}
}

func TestRecopilandoAddsTwoMatchedProducts(t *testing.T) {
	h := newHarness()
	conv := newConversation(domain.StateRecopilando)

	reply := h.say(conv, domain.IntentAgregarProducto, "Necesito 10 lápices y 5 cuadernos",
		domain.RequestedProduct{Name: "lapiz", Quantity: 10, Unit: "piezas"},
		domain.RequestedProduct{Name: "cuaderno", Quantity: 5},
	)

	if len(conv.ProductsInProgress) != 2 {
		t.Fatalf("expected 2 records, got %d", len(conv.ProductsInProgress))
	}
	for i, want := range []int{10, 5} {
		rec := conv.ProductsInProgress[i]
		if rec.Requested.Quantity != want || len(rec.Options) != 1 {
			t.Fatalf("record %d: expected qty %d with one option, got %+v", i, want, rec)
		}
	}
	if !strings.Contains(reply.Text, "✅ Agregado: **10x Lápiz Mongol #2** - $8.50 c/u") {
		t.Fatalf("unexpected reply %q", reply.Text)
	}
}

func TestMergeIsAppendOnlyAcrossTurns(t *testing.T) {
	lapiz := domain.RequestedProduct{Name: "lapiz", Quantity: 1}
	cuaderno := domain.RequestedProduct{Name: "cuaderno", Quantity: 2}

	h1 := newHarness()
	twoTurns := newConversation(domain.StateRecopilando)
	before := twoTurns.ProductsInProgress
	h1.say(twoTurns, domain.IntentAgregarProducto, "un lápiz", lapiz)
	h1.say(twoTurns, domain.IntentAgregarProducto, "dos cuadernos", cuaderno)

	h2 := newHarness()
	oneTurn := newConversation(domain.StateRecopilando)
	h2.say(oneTurn, domain.IntentAgregarProducto, "un lápiz y dos cuadernos", lapiz, cuaderno)

	for _, conv := range []*domain.Conversation{twoTurns, oneTurn} {
		if len(conv.ProductsInProgress) != 2 {
			t.Fatalf("expected 2 records, got %d", len(conv.ProductsInProgress))
		}
		if conv.ProductsInProgress[0].Requested.Name != "lapiz" || conv.ProductsInProgress[1].Requested.Name != "cuaderno" {
			t.Fatalf("expected order lapiz, cuaderno; got %+v", conv.ProductsInProgress)
		}
	}
	if len(before) != 0 {
		t.Fatal("expected the original slice to stay untouched")
	}
	if len(h1.store.products) != 2 || len(h1.store.products[0]) != 1 {
		t.Fatalf("expected one persisted list per turn, got %+v", h1.store.products)
	}
}

func TestMultipleCandidatesKeepAllAndAcceptFirst(t *testing.T) {
	h := newHarness()
	conv := newConversation(domain.StateRecopilando)

	reply := h.say(conv, domain.IntentAgregarProducto, "plumas", domain.RequestedProduct{Name: "pluma", Quantity: 4})

	rec := conv.ProductsInProgress[0]
	if len(rec.Options) != 3 || rec.Options[0].Name != "Pluma BIC Cristal Azul" {
		t.Fatalf("expected three ranked options, got %+v", rec.Options)
	}
	if !strings.Contains(reply.Text, "encontré 3 opciones") || !strings.Contains(reply.Text, "→ Agregué la opción 1: Pluma BIC Cristal Azul") {
		t.Fatalf("unexpected reply %q", reply.Text)
	}
}

func TestUnmatchedProductsAreReportedNotAppended(t *testing.T) {
	h := newHarness()
	conv := newConversation(domain.StateRecopilando)

	reply := h.say(conv, domain.IntentAgregarProducto, "un unicornio y un lápiz",
		domain.RequestedProduct{Name: "unicornio", Quantity: 1},
		domain.RequestedProduct{Name: "lapiz", Quantity: 1},
	)

	if len(conv.ProductsInProgress) != 1 {
		t.Fatalf("expected only the matched product, got %d", len(conv.ProductsInProgress))
	}
	if !strings.Contains(reply.Text, "❌ No encontré:\n  • unicornio") {
		t.Fatalf("expected not found section, got %q", reply.Text)
	}
}

func TestCatalogFailureCountsAsNotFound(t *testing.T) {
	h := newHarness()
	h.catalog.err = errUnavailable
	conv := newConversation(domain.StateRecopilando)

	reply := h.say(conv, domain.IntentAgregarProducto, "lápices", domain.RequestedProduct{Name: "lapiz", Quantity: 1})

	if len(conv.ProductsInProgress) != 0 {
		t.Fatalf("expected no products, got %d", len(conv.ProductsInProgress))
	}
	if !strings.Contains(reply.Text, "No encontré") {
		t.Fatalf("expected not found reply, got %q", reply.Text)
	}
}

func TestStatusQueryIsIdempotent(t *testing.T) {
	h := newHarness()
	conv := newConversation(domain.StateRecopilando, matchedRecord("lapiz", 10, 850), matchedRecord("cuaderno", 5, 550))

	first := h.say(conv, domain.IntentOtro, "¿cuántos llevo?")
	second := h.say(conv, domain.IntentOtro, "¿cuántos llevo?")

	if first.Text != second.Text {
		t.Fatalf("expected identical summaries, got %q and %q", first.Text, second.Text)
	}
	if !strings.Contains(first.Text, "**2 producto(s)**") || !strings.Contains(first.Text, "1. 10x lapiz") {
		t.Fatalf("unexpected summary %q", first.Text)
	}
	if conv.State != domain.StateRecopilando || len(conv.ProductsInProgress) != 2 || len(h.store.products) != 0 {
		t.Fatal("expected status query to leave state and products untouched")
	}
}

func TestFinalizeMovesToValidandoWithSubtotal(t *testing.T) {
	h := newHarness()
	conv := newConversation(domain.StateRecopilando, matchedRecord("lapiz", 10, 850))

	reply := h.say(conv, domain.IntentFinalizarCotizacion, "es todo")

	if conv.State != domain.StateValidando {
		t.Fatalf("expected validando, got %s", conv.State)
	}
	if !strings.Contains(reply.Text, "**Subtotal estimado: $85.00**") {
		t.Fatalf("unexpected summary %q", reply.Text)
	}
}

func TestFinalizeWithEmptyListStaysCollecting(t *testing.T) {
	h := newHarness()
	conv := newConversation(domain.StateRecopilando)

	reply := h.say(conv, domain.IntentFinalizarCotizacion, "listo")

	if conv.State != domain.StateRecopilando || reply.Text != replyNothingToFinalize {
		t.Fatalf("expected nothing-to-finalize in recopilando, got %s / %q", conv.State, reply.Text)
	}
}

var quoteNumberRe = regexp.MustCompile(`COT-\d{8}-\d{3}`)

func TestConfirmInValidandoGeneratesQuoteInline(t *testing.T) {
	h := newHarness()
	conv := newConversation(domain.StateValidando, matchedRecord("lapiz", 10, 850))

	reply := h.say(conv, domain.IntentOtro, "sí")

	if conv.State != domain.StateFinalizado {
		t.Fatalf("expected finalizado, got %s", conv.State)
	}
	if !quoteNumberRe.MatchString(reply.Text) {
		t.Fatalf("expected quote number in reply, got %q", reply.Text)
	}
	if !strings.Contains(reply.Text, "https://cotiza.example.com/api/v1/quotes/") {
		t.Fatalf("expected pdf link without double slash, got %q", reply.Text)
	}
	if len(conv.ProductsInProgress) != 0 {
		t.Fatal("expected products cleared after quoting")
	}
	if conv.Context[domain.ContextLastQuoteNumber] == nil || conv.Context[domain.ContextLastPDFPath] == nil {
		t.Fatalf("expected quote reference in context, got %+v", conv.Context)
	}
	if len(h.quotes.requests) != 1 || h.quotes.requests[0].Lines[0].Quantity != 10 {
		t.Fatalf("unexpected quote requests %+v", h.quotes.requests)
	}
	if got := h.store.states; len(got) != 2 || got[0] != domain.StateCotizando || got[1] != domain.StateFinalizado {
		t.Fatalf("expected cotizando then finalizado, got %v", got)
	}
}

func TestValidandoModifyReturnsToCollecting(t *testing.T) {
	h := newHarness()
	conv := newConversation(domain.StateValidando, matchedRecord("lapiz", 1, 850))

	reply := h.say(conv, domain.IntentOtro, "quiero modificar algo")

	if conv.State != domain.StateRecopilando || reply.Text != replyModify {
		t.Fatalf("expected modify prompt in recopilando, got %s / %q", conv.State, reply.Text)
	}
}

func TestValidandoOtherwiseAsksAgain(t *testing.T) {
	h := newHarness()
	conv := newConversation(domain.StateValidando, matchedRecord("lapiz", 1, 850))

	// "necesito" contains "si" but is not the word "si".
	reply := h.say(conv, domain.IntentOtro, "necesito pensarlo")

	if conv.State != domain.StateValidando || reply.Text != replyConfirmAgain {
		t.Fatalf("expected confirmation re-ask, got %s / %q", conv.State, reply.Text)
	}
}

func TestQuoteWithEmptyListNeverBuilds(t *testing.T) {
	h := newHarness()
	conv := newConversation(domain.StateCotizando)

	reply := h.say(conv, domain.IntentOtro, "¿ya?")

	if conv.State != domain.StateConversando || reply.Text != replyNothingToQuote {
		t.Fatalf("expected conversando with explanation, got %s / %q", conv.State, reply.Text)
	}
	if len(h.quotes.requests) != 0 {
		t.Fatal("expected no quote to be built")
	}
}

func TestQuoteFailureReturnsToConversando(t *testing.T) {
	h := newHarness()
	h.quotes.renderErr = errUnavailable
	conv := newConversation(domain.StateValidando, matchedRecord("lapiz", 1, 850))

	reply := h.say(conv, domain.IntentFinalizarCotizacion, "generar")

	if conv.State != domain.StateConversando {
		t.Fatalf("expected conversando, got %s", conv.State)
	}
	if reply.Text != replyQuoteFailed {
		t.Fatalf("expected failure text, got %q", reply.Text)
	}
	if len(conv.ProductsInProgress) != 1 {
		t.Fatal("expected products kept for a retry")
	}
}

func TestRevisandoPassesThroughToCotizando(t *testing.T) {
	h := newHarness()
	conv := newConversation(domain.StateRevisando, matchedRecord("lapiz", 1, 850))

	reply := h.say(conv, domain.IntentOtro, "ok")

	if conv.State != domain.StateCotizando || reply.Text != replyGenerating {
		t.Fatalf("expected cotizando with generating text, got %s / %q", conv.State, reply.Text)
	}
}

func TestResetFromEveryStateClearsEverything(t *testing.T) {
	for _, st := range domain.States {
		h := newHarness()
		conv := newConversation(st, matchedRecord("lapiz", 3, 850))
		conv.Context[domain.ContextLastQuoteNumber] = "COT-20261014-001"

		reply := h.say(conv, domain.IntentSaludo, "reiniciar")

		if conv.State != domain.StateConversando {
			t.Fatalf("%s: expected conversando, got %s", st, conv.State)
		}
		if len(conv.ProductsInProgress) != 0 {
			t.Fatalf("%s: expected empty products", st)
		}
		if _, ok := conv.Context[domain.ContextLastQuoteNumber]; ok {
			t.Fatalf("%s: expected context reset, got %+v", st, conv.Context)
		}
		if reply.Intent != domain.IntentReset || len(h.store.replaced) != 1 || len(h.store.patches) != 0 {
			t.Fatalf("%s: expected a single context replacement", st)
		}
	}
}

func TestTurnMergesIntentIntoContext(t *testing.T) {
	h := newHarness()
	conv := newConversation(domain.StateConversando)
	conv.Context["customer_note"] = "urgente"

	h.say(conv, domain.IntentCotizar, "cotización por favor")

	if conv.Context[domain.ContextLastIntent] != string(domain.IntentCotizar) {
		t.Fatalf("expected last_intent COTIZAR, got %v", conv.Context[domain.ContextLastIntent])
	}
	if conv.Context[domain.ContextIntentSource] != string(domain.SourceClassifier) {
		t.Fatalf("expected classifier source, got %v", conv.Context[domain.ContextIntentSource])
	}
	if conv.Context["customer_note"] != "urgente" {
		t.Fatal("expected unrelated context keys to survive")
	}
}

func TestExtractionSkippedOutsideCollectingStates(t *testing.T) {
	h := newHarness()
	conv := newConversation(domain.StateValidando, matchedRecord("lapiz", 1, 850))

	h.say(conv, domain.IntentOtro, "mmm")

	if h.extractor.calls != 0 {
		t.Fatalf("expected no extraction in validando, got %d calls", h.extractor.calls)
	}
}

func TestClassifierFailureUsesFallback(t *testing.T) {
	h := newHarness()
	h.classifier.err = errUnavailable
	conv := newConversation(domain.StateConversando)

	reply := h.engine.ProcessMessage(t.Context(), h.user, conv, "hola")

	if reply.Source != domain.SourceFallback || reply.Intent != domain.IntentSaludo {
		t.Fatalf("expected fallback greeting, got %s/%s", reply.Source, reply.Intent)
	}
	if !strings.HasPrefix(reply.Text, "¡Hola Ana!") {
		t.Fatalf("unexpected reply %q", reply.Text)
	}
}
