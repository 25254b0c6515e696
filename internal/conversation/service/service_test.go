package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"cotizador_backend/internal/conversation/domain"
	"cotizador_backend/internal/conversation/engine"
	"cotizador_backend/internal/conversation/repository"
	"cotizador_backend/internal/events"
	usersrepo "cotizador_backend/internal/users/repository"
	"cotizador_backend/platform/apperr"
	"cotizador_backend/platform/lock"
	"cotizador_backend/platform/logger"
)

type fakeRepo struct {
	active    *domain.Conversation
	created   int
	completed []uuid.UUID
	messages  []repository.AddMessageParams
	expired   []uuid.UUID
	cutoff    time.Time
}

func (f *fakeRepo) Create(_ context.Context, userID uuid.UUID, chatID string) (*domain.Conversation, error) {
	f.created++
	f.active = &domain.Conversation{
		ID:             uuid.New(),
		UserID:         userID,
		WhatsAppChatID: chatID,
		Status:         domain.StatusActive,
		State:          domain.StateConversando,
		Context:        map[string]any{},
	}
	return f.active, nil
}

func (f *fakeRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Conversation, error) {
	if f.active != nil && f.active.ID == id {
		return f.active, nil
	}
	return nil, apperr.NotFound("conversation not found")
}

func (f *fakeRepo) GetActiveByUser(context.Context, uuid.UUID) (*domain.Conversation, error) {
	if f.active == nil || f.active.Status != domain.StatusActive {
		return nil, apperr.NotFound("conversation not found")
	}
	return f.active, nil
}

func (f *fakeRepo) ListByUser(context.Context, uuid.UUID, int) ([]domain.Conversation, error) {
	return nil, nil
}
func (f *fakeRepo) UpdateState(context.Context, uuid.UUID, domain.State) error { return nil }
func (f *fakeRepo) UpdateProducts(context.Context, uuid.UUID, []domain.AccumulationRecord) error {
	return nil
}
func (f *fakeRepo) UpdateContext(context.Context, uuid.UUID, domain.ContextPatch) error { return nil }
func (f *fakeRepo) ReplaceContext(context.Context, uuid.UUID, map[string]any) error   { return nil }

func (f *fakeRepo) Complete(_ context.Context, id uuid.UUID) error {
	f.completed = append(f.completed, id)
	if f.active != nil && f.active.ID == id {
		f.active.Status = domain.StatusCompleted
	}
	return nil
}

func (f *fakeRepo) ExpireIdle(_ context.Context, cutoff time.Time) ([]uuid.UUID, error) {
	f.cutoff = cutoff
	return f.expired, nil
}

func (f *fakeRepo) AddMessage(_ context.Context, params repository.AddMessageParams) (repository.Message, error) {
	f.messages = append(f.messages, params)
	return repository.Message{ID: uuid.New(), ConversationID: params.ConversationID, Type: params.Type}, nil
}

func (f *fakeRepo) ListMessages(context.Context, uuid.UUID, int) ([]repository.Message, error) {
	return nil, nil
}

type fakeAuth struct {
	user usersrepo.User
	err  error
}

func (f fakeAuth) Authenticate(context.Context, string) (usersrepo.User, error) {
	return f.user, f.err
}

// scriptedEngine moves the conversation to next and answers with text.
type scriptedEngine struct {
	next domain.State
	text string
	seen []string
}

func (e *scriptedEngine) ProcessMessage(_ context.Context, _ domain.Participant, conv *domain.Conversation, text string) engine.Reply {
	e.seen = append(e.seen, text)
	conv.State = e.next
	return engine.Reply{Text: e.text, Intent: domain.IntentSaludo, Confidence: 0.9, Source: domain.SourceClassifier, State: e.next}
}

type recordingBus struct {
	published []events.Event
}

func (b *recordingBus) Publish(_ context.Context, event events.Event) {
	b.published = append(b.published, event)
}
func (b *recordingBus) PublishSync(_ context.Context, event events.Event) error {
	b.published = append(b.published, event)
	return nil
}
func (b *recordingBus) Subscribe(string, events.Handler) {}

func activeUser() usersrepo.User {
	return usersrepo.User{ID: uuid.New(), Name: "Ana", PhoneNumber: "5215512345678", Active: true}
}

func TestHandleInboundOpensConversationAndLogsBothSides(t *testing.T) {
	repo := &fakeRepo{}
	eng := &scriptedEngine{next: domain.StateConversando, text: "¡Hola Ana!"}
	svc := New(repo, fakeAuth{user: activeUser()}, eng, lock.NewLocalLocker(), Config{}, logger.Discard())

	result, err := svc.HandleInbound(context.Background(), InboundMessage{Phone: "5215512345678", Text: "hola", ChatID: "chat-1", WhatsAppMessageID: "wamid.1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.created != 1 || result.ConversationID != repo.active.ID {
		t.Fatalf("expected a new conversation, got %+v", result)
	}
	if result.Reply != "¡Hola Ana!" || result.State != domain.StateConversando {
		t.Fatalf("unexpected result %+v", result)
	}
	if len(repo.messages) != 2 {
		t.Fatalf("expected 2 logged messages, got %d", len(repo.messages))
	}
	if repo.messages[0].Type != repository.MessageUser || *repo.messages[0].WhatsAppMessageID != "wamid.1" {
		t.Fatalf("unexpected user message %+v", repo.messages[0])
	}
	bot := repo.messages[1]
	if bot.Type != repository.MessageBot || *bot.IntentDetected != string(domain.IntentSaludo) || bot.ProcessingTimeMs == nil {
		t.Fatalf("unexpected bot message %+v", bot)
	}
}

func TestHandleInboundReusesActiveConversation(t *testing.T) {
	repo := &fakeRepo{}
	user := activeUser()
	existing, _ := repo.Create(context.Background(), user.ID, "chat-1")
	existing.State = domain.StateRecopilando
	repo.created = 0

	eng := &scriptedEngine{next: domain.StateRecopilando, text: "ok"}
	svc := New(repo, fakeAuth{user: user}, eng, nil, Config{}, logger.Discard())

	result, err := svc.HandleInbound(context.Background(), InboundMessage{Phone: "5215512345678", Text: "10 lapices"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.created != 0 || result.ConversationID != existing.ID {
		t.Fatalf("expected the active conversation to be reused")
	}
}

func TestHandleInboundReplacesFinalizedConversation(t *testing.T) {
	repo := &fakeRepo{}
	user := activeUser()
	old, _ := repo.Create(context.Background(), user.ID, "chat-1")
	old.State = domain.StateFinalizado
	repo.created = 0

	eng := &scriptedEngine{next: domain.StateConversando, text: "hola"}
	svc := New(repo, fakeAuth{user: user}, eng, nil, Config{}, logger.Discard())

	result, err := svc.HandleInbound(context.Background(), InboundMessage{Phone: "5215512345678", Text: "hola"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.created != 1 || result.ConversationID == old.ID {
		t.Fatalf("expected a fresh conversation")
	}
	if len(repo.completed) != 1 || repo.completed[0] != old.ID {
		t.Fatalf("expected the finalized conversation to be completed, got %v", repo.completed)
	}
}

func TestHandleInboundCompletesOnFinalizado(t *testing.T) {
	repo := &fakeRepo{}
	bus := &recordingBus{}
	eng := &scriptedEngine{next: domain.StateFinalizado, text: "✅ Cotización generada"}
	svc := New(repo, fakeAuth{user: activeUser()}, eng, nil, Config{}, logger.Discard())
	svc.SetEventBus(bus)

	result, err := svc.HandleInbound(context.Background(), InboundMessage{Phone: "5215512345678", Text: "si"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.completed) != 1 || repo.completed[0] != result.ConversationID {
		t.Fatalf("expected conversation completed, got %v", repo.completed)
	}
	if len(bus.published) != 1 {
		t.Fatalf("expected ConversationCompleted, got %d events", len(bus.published))
	}
	if _, ok := bus.published[0].(events.ConversationCompleted); !ok {
		t.Fatalf("unexpected event %T", bus.published[0])
	}
}

func TestHandleInboundUnauthorized(t *testing.T) {
	repo := &fakeRepo{}
	eng := &scriptedEngine{}
	svc := New(repo, fakeAuth{err: apperr.Forbidden("no")}, eng, nil, Config{}, logger.Discard())

	_, err := svc.HandleInbound(context.Background(), InboundMessage{Phone: "000", Text: "hola"})
	if !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if len(eng.seen) != 0 || repo.created != 0 {
		t.Fatalf("unauthorized senders must not reach the engine")
	}
}

func TestHandleInboundBusyLock(t *testing.T) {
	user := activeUser()
	locker := lock.NewLocalLocker()
	release, err := locker.Acquire(context.Background(), "conversation:"+user.ID.String())
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer release()

	svc := New(&fakeRepo{}, fakeAuth{user: user}, &scriptedEngine{}, locker, Config{LockWait: 20 * time.Millisecond}, logger.Discard())
	_, err = svc.HandleInbound(context.Background(), InboundMessage{Phone: "5215512345678", Text: "hola"})
	if !apperr.Is(err, apperr.KindUnavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}
}

func TestExpireIdlePublishesPerConversation(t *testing.T) {
	repo := &fakeRepo{expired: []uuid.UUID{uuid.New(), uuid.New()}}
	bus := &recordingBus{}
	svc := New(repo, fakeAuth{}, &scriptedEngine{}, nil, Config{IdleTimeout: time.Hour}, logger.Discard())
	svc.SetEventBus(bus)

	now := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
	n, err := svc.ExpireIdle(context.Background(), now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 2 || len(bus.published) != 2 {
		t.Fatalf("expected 2 expirations, got %d (%d events)", n, len(bus.published))
	}
	if !repo.cutoff.Equal(now.Add(-time.Hour)) {
		t.Fatalf("unexpected cutoff %v", repo.cutoff)
	}
}
