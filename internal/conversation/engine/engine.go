// Package engine implements the per-turn conversation state machine: global
// interrupts, state-specific transitions, product accumulation and the
// keyword fallback used when the classifier is unavailable.
package engine

import (
	"context"
	"log/slog"
	"time"

	"cotizador_backend/internal/conversation/domain"
	"cotizador_backend/platform/logger"
	"cotizador_backend/platform/metrics"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Classifier labels a message with an intent from domain.ClassifierIntents.
// Any error means the answer could not be trusted.
type Classifier interface {
	Classify(ctx context.Context, text string, hint ClassifyHint) (domain.Classification, error)
}

// ClassifyHint is the conversation context shown to the classifier.
type ClassifyHint struct {
	State        domain.State
	ProductCount int
}

// Extractor pulls normalized product requests out of free text.
type Extractor interface {
	Extract(ctx context.Context, text string) ([]domain.RequestedProduct, error)
}

// Responder writes a free-form reply for turns no rule handles.
type Responder interface {
	Respond(ctx context.Context, text string, conv *domain.Conversation) (string, error)
}

// CatalogMatcher returns ranked candidates for a normalized product name.
type CatalogMatcher interface {
	Match(ctx context.Context, name string, limit int) ([]domain.CandidateProduct, error)
}

// Store persists the fields the engine mutates. Each call touches only its field.
type Store interface {
	UpdateState(ctx context.Context, id uuid.UUID, state domain.State) error
	UpdateProducts(ctx context.Context, id uuid.UUID, products []domain.AccumulationRecord) error
	UpdateContext(ctx context.Context, id uuid.UUID, patch domain.ContextPatch) error
	ReplaceContext(ctx context.Context, id uuid.UUID, values map[string]any) error
}

// QuoteBuilder persists quotes and renders their documents.
type QuoteBuilder interface {
	BuildQuote(ctx context.Context, req domain.QuoteRequest) (domain.QuoteResult, error)
	RenderPDF(ctx context.Context, quoteID uuid.UUID) (string, error)
}

// Config carries the engine's tunables.
type Config struct {
	// PublicBaseURL prefixes the quote PDF link sent to users.
	PublicBaseURL     string
	QuoteValidityDays int
	// CandidateLimit caps catalog candidates kept per requested product.
	CandidateLimit int
}

// Deps groups the collaborators. Classifier, Extractor and Responder may be
// nil, in which case every turn runs through the keyword fallback.
type Deps struct {
	Classifier Classifier
	Extractor  Extractor
	Responder  Responder
	Catalog    CatalogMatcher
	Store      Store
	Quotes     QuoteBuilder
	Metrics    metrics.Recorder
	Log        *logger.Logger
}

// Engine is stateless; all conversation state travels through ProcessMessage.
type Engine struct {
	cfg        Config
	classifier Classifier
	extractor  Extractor
	responder  Responder
	catalog    CatalogMatcher
	store      Store
	quotes     QuoteBuilder
	metrics    metrics.Recorder
	log        *logger.Logger
}

// Reply is the outcome of one turn.
type Reply struct {
	Text       string
	Intent     domain.Intent
	Confidence float64
	Source     domain.IntentSource
	State      domain.State
}

// New builds an Engine.
func New(cfg Config, deps Deps) *Engine {
	if cfg.CandidateLimit <= 0 {
		cfg.CandidateLimit = 3
	}
	if cfg.QuoteValidityDays <= 0 {
		cfg.QuoteValidityDays = 30
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.Nop{}
	}
	if deps.Log == nil {
		deps.Log = logger.Discard()
	}
	return &Engine{
		cfg:        cfg,
		classifier: deps.Classifier,
		extractor:  deps.Extractor,
		responder:  deps.Responder,
		catalog:    deps.Catalog,
		store:      deps.Store,
		quotes:     deps.Quotes,
		metrics:    deps.Metrics,
		log:        deps.Log,
	}
}

// turn carries the working state of one ProcessMessage call.
type turn struct {
	user       domain.Participant
	conv       *domain.Conversation
	msg        message
	intent     domain.Intent
	confidence float64
	source     domain.IntentSource
	extracted  []domain.RequestedProduct
	patch      domain.ContextPatch
	log        *logger.Logger
	// replaced is set when the context was overwritten wholesale this turn.
	replaced bool
}

// ProcessMessage runs one turn. conv is updated in place to mirror what was
// persisted. It never fails; every path yields a reply.
func (e *Engine) ProcessMessage(ctx context.Context, user domain.Participant, conv *domain.Conversation, text string) Reply {
	start := time.Now()
	initial := conv.State
	t := &turn{
		user: user,
		conv: conv,
		msg:  newMessage(text),
		log:  e.log.WithContext(ctx).WithConversation(conv.ID.String(), string(conv.State)),
	}

	var reply string
	switch {
	case resetKeywords.matches(t.msg):
		t.intent, t.confidence, t.source = domain.IntentReset, 1.0, domain.SourceReset
		reply = e.reset(ctx, t)
	case e.classifier == nil:
		e.metrics.IncFallback("classifier_disabled")
		reply = e.fallback(ctx, t)
	default:
		cls, err := e.understand(ctx, t)
		if err != nil {
			t.log.ExternalFailure("intent_classifier", err)
			e.metrics.IncFallback("classifier_error")
			reply = e.fallback(ctx, t)
			break
		}
		t.intent, t.confidence, t.source = cls.Intent, cls.Confidence, domain.SourceClassifier
		reply = e.dispatch(ctx, t)
	}

	if !t.replaced {
		e.mergeContext(ctx, t, t.patch.
			With(domain.ContextLastIntent, string(t.intent)).
			With(domain.ContextLastConfidence, t.confidence).
			With(domain.ContextIntentSource, string(t.source)))
	}

	e.metrics.ObserveTurn(string(initial), string(t.intent), string(t.source), time.Since(start))
	t.log.Debug("turn processed",
		slog.String("intent", string(t.intent)),
		slog.String("source", string(t.source)),
		slog.String("to_state", string(conv.State)),
	)

	return Reply{
		Text:       reply,
		Intent:     t.intent,
		Confidence: t.confidence,
		Source:     t.source,
		State:      conv.State,
	}
}

// understand classifies the message and, in states that accumulate products,
// extracts products concurrently. An extraction failure yields no products.
func (e *Engine) understand(ctx context.Context, t *turn) (domain.Classification, error) {
	var (
		cls    domain.Classification
		clsErr error
		g      errgroup.Group
	)
	hint := ClassifyHint{State: t.conv.State, ProductCount: len(t.conv.ProductsInProgress)}

	g.Go(func() error {
		cls, clsErr = e.classifier.Classify(ctx, t.msg.raw, hint)
		return nil
	})
	if e.extractor != nil && acceptsProducts(t.conv.State) {
		g.Go(func() error {
			items, err := e.extractor.Extract(ctx, t.msg.raw)
			if err != nil {
				t.log.ExternalFailure("product_extractor", err)
				return nil
			}
			t.extracted = items
			return nil
		})
	}
	_ = g.Wait()

	return cls, clsErr
}

func acceptsProducts(s domain.State) bool {
	return s == domain.StateConversando || s == domain.StateRecopilando
}

// transition moves the conversation to a new state. Same-state calls are no-ops.
func (e *Engine) transition(ctx context.Context, t *turn, to domain.State) {
	from := t.conv.State
	if from == to {
		return
	}
	if err := e.store.UpdateState(ctx, t.conv.ID, to); err != nil {
		t.log.DatabaseError("update_state", err)
	}
	t.conv.State = to
	t.log.StateTransition(t.conv.ID.String(), string(from), string(to))
	e.metrics.IncTransition(string(from), string(to))
}

// setProducts replaces the product list with a freshly built slice.
func (e *Engine) setProducts(ctx context.Context, t *turn, products []domain.AccumulationRecord) {
	next := domain.AppendRecords(nil, products)
	if err := e.store.UpdateProducts(ctx, t.conv.ID, next); err != nil {
		t.log.DatabaseError("update_products", err)
	}
	t.conv.ProductsInProgress = next
}

func (e *Engine) mergeContext(ctx context.Context, t *turn, patch domain.ContextPatch) {
	if patch.IsEmpty() {
		return
	}
	if err := e.store.UpdateContext(ctx, t.conv.ID, patch); err != nil {
		t.log.DatabaseError("update_context", err)
	}
	t.conv.Context = patch.ApplyTo(t.conv.Context)
}

// reset clears products and context and returns to conversando from any state.
func (e *Engine) reset(ctx context.Context, t *turn) string {
	e.transition(ctx, t, domain.StateConversando)
	e.setProducts(ctx, t, nil)

	fresh := map[string]any{
		domain.ContextLastIntent:     string(domain.IntentReset),
		domain.ContextLastConfidence: 1.0,
		domain.ContextIntentSource:   string(domain.SourceReset),
	}
	if err := e.store.ReplaceContext(ctx, t.conv.ID, fresh); err != nil {
		t.log.DatabaseError("replace_context", err)
	}
	t.conv.Context = fresh
	t.replaced = true

	return renderReset(t.user.Name)
}

// cancel abandons the current quote and returns to conversando.
func (e *Engine) cancel(ctx context.Context, t *turn) string {
	if t.conv.State.IsTerminal() {
		return replyCancelled
	}
	e.transition(ctx, t, domain.StateConversando)
	e.setProducts(ctx, t, nil)
	t.patch = t.patch.Without(domain.ContextProductsInProgress)
	return replyCancelled
}

// goodbye closes the conversation.
func (e *Engine) goodbye(ctx context.Context, t *turn) string {
	e.transition(ctx, t, domain.StateFinalizado)
	return replyGoodbye
}

// respond delegates to the Responder, answering a fixed apology when it is
// absent or fails.
func (e *Engine) respond(ctx context.Context, t *turn) string {
	if e.responder == nil {
		return replyFallbackGeneral
	}
	text, err := e.responder.Respond(ctx, t.msg.raw, t.conv)
	if err != nil || text == "" {
		if err != nil {
			t.log.ExternalFailure("responder", err)
		}
		return replyResponderUnavailable
	}
	return text
}
