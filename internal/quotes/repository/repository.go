package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"cotizador_backend/platform/apperr"
)

const quoteNotFoundMessage = "quote not found"

const quoteColumns = `
	id, quote_number, conversation_id, user_id, customer_name, subtotal_cents, tax_rate_bps, tax_cents,
	total_cents, status, valid_until, pdf_path, pdf_size_bytes, view_count, last_viewed, sent_at, created_at, updated_at`

const nextNumberQuery = `
	INSERT INTO quote_number_counters (day, last_value)
	VALUES ($1, 1)
	ON CONFLICT (day) DO UPDATE SET last_value = quote_number_counters.last_value + 1
	RETURNING last_value`

// Repo implements the quotes repository.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new quotes repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

// Create allocates the next daily quote number and inserts the quote with
// its items in one transaction.
func (r *Repo) Create(ctx context.Context, params CreateParams) (Quote, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Quote{}, fmt.Errorf("create quote: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	day := BusinessDay(params.Day)
	var seq int
	if err := tx.QueryRow(ctx, nextNumberQuery, day).Scan(&seq); err != nil {
		return Quote{}, fmt.Errorf("create quote: next number: %w", err)
	}

	q, err := scanQuote(tx.QueryRow(ctx, `
		INSERT INTO quotes (
			id, quote_number, conversation_id, user_id, customer_name, subtotal_cents, tax_rate_bps,
			tax_cents, total_cents, status, valid_until
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING`+quoteColumns,
		uuid.New(), FormatQuoteNumber(day, seq), params.ConversationID, params.UserID, params.CustomerName,
		params.SubtotalCents, params.TaxRateBps, params.TaxCents, params.TotalCents, StatusDraft, params.ValidUntil,
	))
	if err != nil {
		return Quote{}, fmt.Errorf("create quote: %w", err)
	}

	q.Items = make([]QuoteItem, 0, len(params.Items))
	for i, item := range params.Items {
		qi := QuoteItem{
			ID:             uuid.New(),
			ProductID:      item.ProductID,
			ProductName:    item.ProductName,
			ProductSKU:     optionalString(item.ProductSKU),
			Description:    optionalString(item.Description),
			Quantity:       item.Quantity,
			UnitPriceCents: item.UnitPriceCents,
			TotalCents:     item.TotalCents,
			LineOrder:      i,
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO quote_items (
				id, quote_id, product_id, product_name, product_sku, product_description,
				quantity, unit_price_cents, total_cents, line_order
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			qi.ID, q.ID, qi.ProductID, qi.ProductName, qi.ProductSKU, qi.Description,
			qi.Quantity, qi.UnitPriceCents, qi.TotalCents, qi.LineOrder,
		); err != nil {
			return Quote{}, fmt.Errorf("create quote item %d: %w", i, err)
		}
		q.Items = append(q.Items, qi)
	}

	if err := tx.Commit(ctx); err != nil {
		return Quote{}, fmt.Errorf("create quote: commit: %w", err)
	}
	return q, nil
}

// GetByID retrieves a quote with its items.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (Quote, error) {
	q, err := scanQuote(r.pool.QueryRow(ctx, `SELECT`+quoteColumns+` FROM quotes WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Quote{}, apperr.NotFound(quoteNotFoundMessage)
		}
		return Quote{}, fmt.Errorf("get quote by id: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, product_id, product_name, product_sku, product_description,
			quantity, unit_price_cents, total_cents, line_order
		FROM quote_items
		WHERE quote_id = $1
		ORDER BY line_order ASC`, id)
	if err != nil {
		return Quote{}, fmt.Errorf("list quote items: %w", err)
	}
	defer rows.Close()

	q.Items = make([]QuoteItem, 0)
	for rows.Next() {
		var qi QuoteItem
		if err := rows.Scan(
			&qi.ID, &qi.ProductID, &qi.ProductName, &qi.ProductSKU, &qi.Description,
			&qi.Quantity, &qi.UnitPriceCents, &qi.TotalCents, &qi.LineOrder,
		); err != nil {
			return Quote{}, fmt.Errorf("scan quote item: %w", err)
		}
		q.Items = append(q.Items, qi)
	}
	if rows.Err() != nil {
		return Quote{}, fmt.Errorf("iterate quote items: %w", rows.Err())
	}
	return q, nil
}

// ListByUser lists the most recent quotes of a user, without items.
func (r *Repo) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]Quote, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.pool.Query(ctx, `SELECT`+quoteColumns+`
		FROM quotes
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list quotes: %w", err)
	}
	defer rows.Close()

	items := make([]Quote, 0)
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, fmt.Errorf("scan quote: %w", err)
		}
		items = append(items, q)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate quotes: %w", rows.Err())
	}
	return items, nil
}

// SetPDF records the stored document and marks a draft quote as sent.
func (r *Repo) SetPDF(ctx context.Context, id uuid.UUID, path string, sizeBytes int) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE quotes
		SET pdf_path = NULLIF($2, ''),
			pdf_size_bytes = $3,
			status = CASE WHEN status = $4 THEN $5 ELSE status END,
			sent_at = COALESCE(sent_at, now()),
			updated_at = now()
		WHERE id = $1`,
		id, path, sizeBytes, StatusDraft, StatusSent)
	if err != nil {
		return fmt.Errorf("set quote pdf: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(quoteNotFoundMessage)
	}
	return nil
}

// RecordView bumps the view counter and moves sent quotes to viewed.
func (r *Repo) RecordView(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE quotes
		SET view_count = view_count + 1,
			last_viewed = now(),
			status = CASE WHEN status = $2 THEN $3 ELSE status END,
			updated_at = now()
		WHERE id = $1`,
		id, StatusSent, StatusViewed)
	if err != nil {
		return fmt.Errorf("record quote view: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(quoteNotFoundMessage)
	}
	return nil
}

// ExpireOverdue marks sent and viewed quotes past their validity as expired.
func (r *Repo) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.pool.Exec(ctx, `
		UPDATE quotes
		SET status = $1, updated_at = now()
		WHERE status IN ($2, $3) AND valid_until < $4`,
		StatusExpired, StatusSent, StatusViewed, now)
	if err != nil {
		return 0, fmt.Errorf("expire overdue quotes: %w", err)
	}
	return result.RowsAffected(), nil
}

func scanQuote(row pgx.Row) (Quote, error) {
	var q Quote
	var status string
	if err := row.Scan(
		&q.ID, &q.QuoteNumber, &q.ConversationID, &q.UserID, &q.CustomerName, &q.SubtotalCents, &q.TaxRateBps,
		&q.TaxCents, &q.TotalCents, &status, &q.ValidUntil, &q.PDFPath, &q.PDFSizeBytes, &q.ViewCount,
		&q.LastViewed, &q.SentAt, &q.CreatedAt, &q.UpdatedAt,
	); err != nil {
		return Quote{}, err
	}
	q.Status = Status(status)
	return q, nil
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
