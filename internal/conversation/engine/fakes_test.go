package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"cotizador_backend/internal/conversation/domain"

	"github.com/google/uuid"
)

type fakeStore struct {
	mu       sync.Mutex
	states   []domain.State
	products [][]domain.AccumulationRecord
	patches  []domain.ContextPatch
	replaced []map[string]any
}

func (s *fakeStore) UpdateState(_ context.Context, _ uuid.UUID, state domain.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states = append(s.states, state)
	return nil
}

func (s *fakeStore) UpdateProducts(_ context.Context, _ uuid.UUID, products []domain.AccumulationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = append(s.products, products)
	return nil
}

func (s *fakeStore) UpdateContext(_ context.Context, _ uuid.UUID, patch domain.ContextPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.patches = append(s.patches, patch)
	return nil
}

func (s *fakeStore) ReplaceContext(_ context.Context, _ uuid.UUID, values map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replaced = append(s.replaced, values)
	return nil
}

type fakeClassifier struct {
	intent domain.Intent
	err    error
}

func (c *fakeClassifier) Classify(context.Context, string, ClassifyHint) (domain.Classification, error) {
	if c.err != nil {
		return domain.Classification{}, c.err
	}
	return domain.Classification{Intent: c.intent, Confidence: 0.9}, nil
}

type fakeExtractor struct {
	items []domain.RequestedProduct
	err   error
	calls int
}

func (x *fakeExtractor) Extract(context.Context, string) ([]domain.RequestedProduct, error) {
	x.calls++
	return x.items, x.err
}

type fakeResponder struct{}

func (fakeResponder) Respond(context.Context, string, *domain.Conversation) (string, error) {
	return "respuesta general", nil
}

type fakeCatalog struct {
	byName map[string][]domain.CandidateProduct
	err    error
}

func (c *fakeCatalog) Match(_ context.Context, name string, limit int) ([]domain.CandidateProduct, error) {
	if c.err != nil {
		return nil, c.err
	}
	res := c.byName[name]
	if len(res) > limit {
		res = res[:limit]
	}
	return res, nil
}

type fakeQuotes struct {
	buildErr  error
	renderErr error
	requests  []domain.QuoteRequest
}

func (q *fakeQuotes) BuildQuote(_ context.Context, req domain.QuoteRequest) (domain.QuoteResult, error) {
	q.requests = append(q.requests, req)
	if q.buildErr != nil {
		return domain.QuoteResult{}, q.buildErr
	}
	var total int64
	for _, l := range req.Lines {
		total += int64(l.Quantity) * l.UnitPriceCents
	}
	total += (total*1600 + 5000) / 10000
	return domain.QuoteResult{
		ID:         uuid.New(),
		Number:     fmt.Sprintf("COT-20261014-%03d", len(q.requests)),
		TotalCents: total,
		ItemCount:  len(req.Lines),
	}, nil
}

func (q *fakeQuotes) RenderPDF(_ context.Context, id uuid.UUID) (string, error) {
	if q.renderErr != nil {
		return "", q.renderErr
	}
	return "quotes/" + id.String() + ".pdf", nil
}

var errUnavailable = errors.New("upstream unavailable")

func candidate(name, sku string, priceCents int64, stock int) domain.CandidateProduct {
	id := uuid.New()
	return domain.CandidateProduct{ID: &id, SKU: sku, Name: name, PriceCents: priceCents, StockQuantity: stock}
}

type harness struct {
	engine     *Engine
	store      *fakeStore
	classifier *fakeClassifier
	extractor  *fakeExtractor
	catalog    *fakeCatalog
	quotes     *fakeQuotes
	user       domain.Participant
}

func newHarness() *harness {
	h := &harness{
		store:      &fakeStore{},
		classifier: &fakeClassifier{intent: domain.IntentOtro},
		extractor:  &fakeExtractor{},
		catalog: &fakeCatalog{byName: map[string][]domain.CandidateProduct{
			"lapiz":    {candidate("Lápiz Mongol #2", "LAP-MONGOL-2", 850, 500)},
			"cuaderno": {candidate("Cuaderno Profesional 100 hojas", "CUA-PROF-100", 550, 200)},
			"pluma": {
				candidate("Pluma BIC Cristal Azul", "PLU-BIC-CRISTAL", 4500, 80),
				candidate("Pluma BIC Cristal Negra", "PLU-BIC-NEGRA", 4500, 60),
				candidate("Pluma Pilot G2", "PLU-PILOT-G2", 3200, 0),
			},
		}},
		quotes: &fakeQuotes{},
		user:   domain.Participant{ID: uuid.New(), Name: "Ana"},
	}
	h.engine = New(Config{PublicBaseURL: "https://cotiza.example.com/", QuoteValidityDays: 30}, Deps{
		Classifier: h.classifier,
		Extractor:  h.extractor,
		Responder:  fakeResponder{},
		Catalog:    h.catalog,
		Store:      h.store,
		Quotes:     h.quotes,
	})
	return h
}

// withoutClassifier rebuilds the engine in keyword-only mode.
func (h *harness) withoutClassifier() *harness {
	h.engine = New(Config{PublicBaseURL: "https://cotiza.example.com", QuoteValidityDays: 30}, Deps{
		Catalog: h.catalog,
		Store:   h.store,
		Quotes:  h.quotes,
	})
	return h
}

func (h *harness) say(conv *domain.Conversation, intent domain.Intent, text string, extracted ...domain.RequestedProduct) Reply {
	h.classifier.intent = intent
	h.extractor.items = extracted
	return h.engine.ProcessMessage(context.Background(), h.user, conv, text)
}

func newConversation(state domain.State, products ...domain.AccumulationRecord) *domain.Conversation {
	return &domain.Conversation{
		ID:                 uuid.New(),
		UserID:             uuid.New(),
		Status:             domain.StatusActive,
		State:              state,
		Context:            map[string]any{},
		ProductsInProgress: products,
	}
}

func matchedRecord(name string, qty int, priceCents int64) domain.AccumulationRecord {
	return domain.AccumulationRecord{
		Requested: domain.RequestedProduct{Name: name, Quantity: qty},
		Options:   []domain.CandidateProduct{candidate(name, "SKU-"+name, priceCents, 10)},
	}
}
