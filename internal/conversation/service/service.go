// Package service runs the inbound message pipeline around the conversation engine.
package service

import (
	"context"
	"fmt"
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

const (
	defaultLockWait   = 10 * time.Second
	defaultMessageCap = 200
)

// Authenticator resolves an inbound phone number to an active user.
type Authenticator interface {
	Authenticate(ctx context.Context, rawPhone string) (usersrepo.User, error)
}

// Processor runs one engine turn.
type Processor interface {
	ProcessMessage(ctx context.Context, user domain.Participant, conv *domain.Conversation, text string) engine.Reply
}

// InboundMessage is a text received from a channel.
type InboundMessage struct {
	Phone             string
	Text              string
	ChatID            string
	WhatsAppMessageID string
}

// InboundResult is the outcome of one inbound message.
type InboundResult struct {
	User           usersrepo.User
	ConversationID uuid.UUID
	State          domain.State
	Intent         domain.Intent
	Reply          string
}

// Config carries the pipeline tunables.
type Config struct {
	// IdleTimeout is how long a conversation may stay silent before the sweep expires it.
	IdleTimeout time.Duration
	// LockWait bounds how long a turn waits for the per-user lock.
	LockWait time.Duration
}

// Service implements the inbound pipeline.
type Service struct {
	repo     repository.Repository
	auth     Authenticator
	engine   Processor
	locker   lock.Locker
	eventBus events.Bus
	cfg      Config
	log      *logger.Logger
	now      func() time.Time
}

// New creates the pipeline. locker may be nil when turns need no serialization.
func New(repo repository.Repository, auth Authenticator, proc Processor, locker lock.Locker, cfg Config, log *logger.Logger) *Service {
	if cfg.LockWait <= 0 {
		cfg.LockWait = defaultLockWait
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = 2 * time.Hour
	}
	return &Service{
		repo:   repo,
		auth:   auth,
		engine: proc,
		locker: locker,
		cfg:    cfg,
		log:    log,
		now:    time.Now,
	}
}

// SetEventBus sets the event bus for publishing domain events.
func (s *Service) SetEventBus(bus events.Bus) {
	s.eventBus = bus
}

// HandleInbound authenticates the sender, runs one engine turn on the
// active conversation and logs both sides of the exchange.
func (s *Service) HandleInbound(ctx context.Context, msg InboundMessage) (InboundResult, error) {
	user, err := s.auth.Authenticate(ctx, msg.Phone)
	if err != nil {
		return InboundResult{}, err
	}

	if s.locker != nil {
		lockCtx, cancel := context.WithTimeout(ctx, s.cfg.LockWait)
		release, err := s.locker.Acquire(lockCtx, "conversation:"+user.ID.String())
		cancel()
		if err != nil {
			return InboundResult{}, apperr.Unavailable("conversation busy", err).WithOp("conversation.HandleInbound")
		}
		defer release()
	}

	conv, err := s.activeConversation(ctx, user.ID, msg.ChatID)
	if err != nil {
		return InboundResult{}, err
	}

	var waID *string
	if msg.WhatsAppMessageID != "" {
		waID = &msg.WhatsAppMessageID
	}
	if _, err := s.repo.AddMessage(ctx, repository.AddMessageParams{
		ConversationID:    conv.ID,
		Type:              repository.MessageUser,
		Content:           msg.Text,
		WhatsAppMessageID: waID,
	}); err != nil {
		s.log.DatabaseError("add_user_message", err)
	}

	start := s.now()
	reply := s.engine.ProcessMessage(ctx, participant(user), conv, msg.Text)
	elapsed := int(s.now().Sub(start).Milliseconds())

	intent := string(reply.Intent)
	confidence := reply.Confidence
	if _, err := s.repo.AddMessage(ctx, repository.AddMessageParams{
		ConversationID:   conv.ID,
		Type:             repository.MessageBot,
		Content:          reply.Text,
		IntentDetected:   &intent,
		Confidence:       &confidence,
		ProcessingTimeMs: &elapsed,
		Metadata: map[string]any{
			"intent_source": string(reply.Source),
			"state":         string(reply.State),
		},
	}); err != nil {
		s.log.DatabaseError("add_bot_message", err)
	}

	if reply.State == domain.StateFinalizado {
		s.complete(ctx, conv)
	}

	return InboundResult{
		User:           user,
		ConversationID: conv.ID,
		State:          reply.State,
		Intent:         reply.Intent,
		Reply:          reply.Text,
	}, nil
}

// activeConversation returns the active conversation of the user, opening a
// new one when none exists or the active one already reached finalizado.
func (s *Service) activeConversation(ctx context.Context, userID uuid.UUID, chatID string) (*domain.Conversation, error) {
	conv, err := s.repo.GetActiveByUser(ctx, userID)
	switch {
	case err == nil && conv.State != domain.StateFinalizado:
		return conv, nil
	case err == nil:
		if err := s.repo.Complete(ctx, conv.ID); err != nil {
			s.log.DatabaseError("complete_finalized", err)
		}
	case !apperr.Is(err, apperr.KindNotFound):
		return nil, fmt.Errorf("load active conversation: %w", err)
	}

	created, err := s.repo.Create(ctx, userID, chatID)
	if err != nil {
		return nil, fmt.Errorf("open conversation: %w", err)
	}
	s.log.Info("conversation opened", "conversation_id", created.ID, "user_id", userID)
	return created, nil
}

func (s *Service) complete(ctx context.Context, conv *domain.Conversation) {
	if err := s.repo.Complete(ctx, conv.ID); err != nil {
		s.log.DatabaseError("complete_conversation", err)
		return
	}
	conv.Status = domain.StatusCompleted
	if s.eventBus != nil {
		s.eventBus.Publish(ctx, events.ConversationCompleted{
			BaseEvent:      events.NewBaseEvent(),
			ConversationID: conv.ID,
			UserID:         conv.UserID,
		})
	}
}

// ExpireIdle times out conversations silent for longer than the idle timeout
// and publishes ConversationExpired for each.
func (s *Service) ExpireIdle(ctx context.Context, now time.Time) (int, error) {
	ids, err := s.repo.ExpireIdle(ctx, now.Add(-s.cfg.IdleTimeout))
	if err != nil {
		return 0, err
	}
	for _, id := range ids {
		if s.eventBus != nil {
			s.eventBus.Publish(ctx, events.ConversationExpired{
				BaseEvent:      events.NewBaseEvent(),
				ConversationID: id,
			})
		}
	}
	if len(ids) > 0 {
		s.log.Info("conversations expired", "count", len(ids))
	}
	return len(ids), nil
}

// ListByUser returns the most recent conversations of a user.
func (s *Service) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Conversation, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.repo.ListByUser(ctx, userID, limit)
}

// GetByID returns a conversation.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*domain.Conversation, error) {
	return s.repo.GetByID(ctx, id)
}

// Transcript returns the logged messages of a conversation, oldest first.
func (s *Service) Transcript(ctx context.Context, conversationID uuid.UUID) ([]repository.Message, error) {
	if _, err := s.repo.GetByID(ctx, conversationID); err != nil {
		return nil, err
	}
	return s.repo.ListMessages(ctx, conversationID, defaultMessageCap)
}

func participant(u usersrepo.User) domain.Participant {
	p := domain.Participant{ID: u.ID, Name: u.Name, Phone: u.PhoneNumber}
	if u.Email != nil {
		p.Email = *u.Email
	}
	return p
}
