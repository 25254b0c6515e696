package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"cotizador_backend/internal/conversation/domain"
	"cotizador_backend/platform/apperr"
)

const conversationNotFoundMessage = "conversation not found"

const conversationColumns = `
	id, user_id, whatsapp_chat_id, status, current_state, context, products_in_progress,
	total_messages, last_activity, completed_at, timeout_at, created_at, updated_at`

// Repo implements the conversation repository.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new conversation repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

// Create completes any active conversation of the user and opens a fresh one.
func (r *Repo) Create(ctx context.Context, userID uuid.UUID, chatID string) (*domain.Conversation, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("create conversation: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
		UPDATE conversations
		SET status = $2, completed_at = now(), updated_at = now()
		WHERE user_id = $1 AND status = $3`,
		userID, domain.StatusCompleted, domain.StatusActive,
	); err != nil {
		return nil, fmt.Errorf("create conversation: complete previous: %w", err)
	}

	query := `
		INSERT INTO conversations (id, user_id, whatsapp_chat_id, status, current_state, context, products_in_progress)
		VALUES ($1, $2, $3, $4, $5, '{}'::jsonb, '[]'::jsonb)
		RETURNING` + conversationColumns

	conv, err := scanConversation(tx.QueryRow(ctx, query,
		uuid.New(), userID, chatID, domain.StatusActive, domain.InitialState,
	))
	if err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("create conversation: commit: %w", err)
	}
	return conv, nil
}

// GetByID retrieves a conversation by ID.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Conversation, error) {
	query := `SELECT` + conversationColumns + ` FROM conversations WHERE id = $1`
	conv, err := scanConversation(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(conversationNotFoundMessage)
		}
		return nil, fmt.Errorf("get conversation by id: %w", err)
	}
	return conv, nil
}

// GetActiveByUser retrieves the single active conversation of a user.
func (r *Repo) GetActiveByUser(ctx context.Context, userID uuid.UUID) (*domain.Conversation, error) {
	query := `SELECT` + conversationColumns + `
		FROM conversations
		WHERE user_id = $1 AND status = $2
		ORDER BY last_activity DESC
		LIMIT 1`
	conv, err := scanConversation(r.pool.QueryRow(ctx, query, userID, domain.StatusActive))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(conversationNotFoundMessage)
		}
		return nil, fmt.Errorf("get active conversation: %w", err)
	}
	return conv, nil
}

// ListByUser lists the most recent conversations of a user.
func (r *Repo) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Conversation, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `SELECT` + conversationColumns + `
		FROM conversations
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	items := make([]domain.Conversation, 0)
	for rows.Next() {
		conv, err := scanConversation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		items = append(items, *conv)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate conversations: %w", rows.Err())
	}
	return items, nil
}

// UpdateState sets the conversational state.
func (r *Repo) UpdateState(ctx context.Context, id uuid.UUID, state domain.State) error {
	return r.execOne(ctx, "update conversation state",
		`UPDATE conversations SET current_state = $2, updated_at = now() WHERE id = $1`,
		id, state)
}

// UpdateProducts replaces the accumulated product list.
func (r *Repo) UpdateProducts(ctx context.Context, id uuid.UUID, products []domain.AccumulationRecord) error {
	if products == nil {
		products = []domain.AccumulationRecord{}
	}
	payload, err := json.Marshal(products)
	if err != nil {
		return fmt.Errorf("update conversation products: marshal: %w", err)
	}
	return r.execOne(ctx, "update conversation products",
		`UPDATE conversations SET products_in_progress = $2::jsonb, updated_at = now() WHERE id = $1`,
		id, string(payload))
}

// UpdateContext merges patch.Set into the stored context and drops patch.Delete.
// Keys outside the patch are left as stored.
func (r *Repo) UpdateContext(ctx context.Context, id uuid.UUID, patch domain.ContextPatch) error {
	if patch.IsEmpty() {
		return nil
	}
	set := patch.Set
	if set == nil {
		set = map[string]any{}
	}
	payload, err := json.Marshal(set)
	if err != nil {
		return fmt.Errorf("update conversation context: marshal: %w", err)
	}
	keys := patch.Delete
	if keys == nil {
		keys = []string{}
	}
	return r.execOne(ctx, "update conversation context", `
		UPDATE conversations
		SET context = (context || $2::jsonb) - $3::text[], updated_at = now()
		WHERE id = $1`,
		id, string(payload), keys)
}

// ReplaceContext overwrites the whole context.
func (r *Repo) ReplaceContext(ctx context.Context, id uuid.UUID, values map[string]any) error {
	if values == nil {
		values = map[string]any{}
	}
	payload, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("replace conversation context: marshal: %w", err)
	}
	return r.execOne(ctx, "replace conversation context",
		`UPDATE conversations SET context = $2::jsonb, updated_at = now() WHERE id = $1`,
		id, string(payload))
}

// Complete closes an active conversation.
func (r *Repo) Complete(ctx context.Context, id uuid.UUID) error {
	return r.execOne(ctx, "complete conversation", `
		UPDATE conversations
		SET status = $2, completed_at = now(), updated_at = now()
		WHERE id = $1 AND status = $3`,
		id, domain.StatusCompleted, domain.StatusActive)
}

// ExpireIdle times out active conversations idle since before cutoff and
// returns their IDs.
func (r *Repo) ExpireIdle(ctx context.Context, cutoff time.Time) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `
		UPDATE conversations
		SET status = $1, timeout_at = now(), updated_at = now()
		WHERE status = $2 AND last_activity < $3
		RETURNING id`,
		domain.StatusTimeout, domain.StatusActive, cutoff)
	if err != nil {
		return nil, fmt.Errorf("expire idle conversations: %w", err)
	}
	defer rows.Close()

	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan expired conversation: %w", err)
		}
		ids = append(ids, id)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate expired conversations: %w", rows.Err())
	}
	return ids, nil
}

// AddMessage logs a message and bumps the conversation's counters.
func (r *Repo) AddMessage(ctx context.Context, params AddMessageParams) (Message, error) {
	metadata := params.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	payload, err := json.Marshal(metadata)
	if err != nil {
		return Message{}, fmt.Errorf("add message: marshal metadata: %w", err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Message{}, fmt.Errorf("add message: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	msg := Message{
		ID:                uuid.New(),
		ConversationID:    params.ConversationID,
		Type:              params.Type,
		Content:           params.Content,
		IntentDetected:    params.IntentDetected,
		Confidence:        params.Confidence,
		ProcessingTimeMs:  params.ProcessingTimeMs,
		Metadata:          metadata,
		WhatsAppMessageID: params.WhatsAppMessageID,
	}
	if err := tx.QueryRow(ctx, `
		INSERT INTO conversation_messages (
			id, conversation_id, message_type, content, intent_detected, confidence,
			processing_time_ms, metadata, whatsapp_message_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8::jsonb, $9)
		RETURNING created_at`,
		msg.ID, msg.ConversationID, msg.Type, msg.Content, msg.IntentDetected, msg.Confidence,
		msg.ProcessingTimeMs, string(payload), msg.WhatsAppMessageID,
	).Scan(&msg.CreatedAt); err != nil {
		return Message{}, fmt.Errorf("add message: %w", err)
	}

	result, err := tx.Exec(ctx, `
		UPDATE conversations
		SET total_messages = total_messages + 1, last_activity = now(), updated_at = now()
		WHERE id = $1`, params.ConversationID)
	if err != nil {
		return Message{}, fmt.Errorf("add message: touch conversation: %w", err)
	}
	if result.RowsAffected() == 0 {
		return Message{}, apperr.NotFound(conversationNotFoundMessage)
	}

	if err := tx.Commit(ctx); err != nil {
		return Message{}, fmt.Errorf("add message: commit: %w", err)
	}
	return msg, nil
}

// ListMessages returns the transcript in chronological order.
func (r *Repo) ListMessages(ctx context.Context, conversationID uuid.UUID, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, conversation_id, message_type, content, intent_detected, confidence,
			processing_time_ms, metadata, whatsapp_message_id, created_at
		FROM conversation_messages
		WHERE conversation_id = $1
		ORDER BY created_at ASC
		LIMIT $2`, conversationID, limit)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	items := make([]Message, 0)
	for rows.Next() {
		var msg Message
		var msgType string
		var metadata []byte
		if err := rows.Scan(
			&msg.ID, &msg.ConversationID, &msgType, &msg.Content, &msg.IntentDetected, &msg.Confidence,
			&msg.ProcessingTimeMs, &metadata, &msg.WhatsAppMessageID, &msg.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msg.Type = MessageType(msgType)
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &msg.Metadata); err != nil {
				return nil, fmt.Errorf("decode message metadata: %w", err)
			}
		}
		items = append(items, msg)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate messages: %w", rows.Err())
	}
	return items, nil
}

func (r *Repo) execOne(ctx context.Context, op, query string, args ...any) error {
	result, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(conversationNotFoundMessage).WithOp(op)
	}
	return nil
}

func scanConversation(row pgx.Row) (*domain.Conversation, error) {
	var conv domain.Conversation
	var status, state string
	var rawContext, rawProducts []byte
	if err := row.Scan(
		&conv.ID, &conv.UserID, &conv.WhatsAppChatID, &status, &state, &rawContext, &rawProducts,
		&conv.TotalMessages, &conv.LastActivity, &conv.CompletedAt, &conv.TimeoutAt, &conv.CreatedAt, &conv.UpdatedAt,
	); err != nil {
		return nil, err
	}

	var err error
	if conv.Status, err = domain.ParseStatus(status); err != nil {
		return nil, err
	}
	if conv.State, err = domain.ParseState(state); err != nil {
		return nil, err
	}
	if err := decodeJSONB(&conv, rawContext, rawProducts); err != nil {
		return nil, err
	}
	return &conv, nil
}

func decodeJSONB(conv *domain.Conversation, rawContext, rawProducts []byte) error {
	conv.Context = map[string]any{}
	if len(rawContext) > 0 {
		if err := json.Unmarshal(rawContext, &conv.Context); err != nil {
			return fmt.Errorf("decode context: %w", err)
		}
	}
	conv.ProductsInProgress = []domain.AccumulationRecord{}
	if len(rawProducts) > 0 {
		if err := json.Unmarshal(rawProducts, &conv.ProductsInProgress); err != nil {
			return fmt.Errorf("decode products: %w", err)
		}
	}
	return nil
}
