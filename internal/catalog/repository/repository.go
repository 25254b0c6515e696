package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"cotizador_backend/platform/apperr"
	"cotizador_backend/platform/textnorm"
)

const (
	productNotFoundMessage = "product not found"
	// minWordLen drops articles and short connectors from search queries.
	minWordLen         = 2
	defaultSearchLimit = 10
)

const productColumns = `id, sku, name, description, category, price_cents, stock_quantity, active, created_at, updated_at`

// Repo implements the catalog repository.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new catalog repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

// Search returns active products where every query word longer than two
// characters appears in the folded name, the folded description or the SKU.
func (r *Repo) Search(ctx context.Context, params SearchParams) ([]Product, error) {
	query, args, ok := buildSearchQuery(params)
	if !ok {
		return []Product{}, nil
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search products: %w", err)
	}
	defer rows.Close()

	seen := make(map[uuid.UUID]struct{})
	items := make([]Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		if _, dup := seen[p.ID]; dup {
			continue
		}
		seen[p.ID] = struct{}{}
		items = append(items, p)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate products: %w", rows.Err())
	}
	return items, nil
}

func buildSearchQuery(params SearchParams) (string, []any, bool) {
	words := textnorm.SearchWords(params.Query, minWordLen)
	if len(words) == 0 {
		return "", nil, false
	}

	whereClauses := []string{"active = true"}
	if params.OnlyAvailable {
		whereClauses = append(whereClauses, "stock_quantity > 0")
	}
	args := make([]any, 0, len(words)+1)
	for i, word := range words {
		n := i + 1
		whereClauses = append(whereClauses, fmt.Sprintf(
			"(name_search LIKE $%d OR description_search LIKE $%d OR lower(sku) LIKE $%d)", n, n, n))
		args = append(args, "%"+escapeLike(word)+"%")
	}

	limit := params.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	args = append(args, limit)

	query := fmt.Sprintf(`
		SELECT %s
		FROM products
		WHERE %s
		ORDER BY (stock_quantity > 0) DESC, name ASC
		LIMIT $%d`, productColumns, strings.Join(whereClauses, " AND "), len(args))
	return query, args, true
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// GetByID retrieves a product by ID, active or not.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (Product, error) {
	return r.getOne(ctx, "get product by id", `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
}

// GetBySKU retrieves a product by SKU, active or not.
func (r *Repo) GetBySKU(ctx context.Context, sku string) (Product, error) {
	return r.getOne(ctx, "get product by sku", `SELECT `+productColumns+` FROM products WHERE sku = $1`, sku)
}

func (r *Repo) getOne(ctx context.Context, op, query string, arg any) (Product, error) {
	p, err := scanProduct(r.pool.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, apperr.NotFound(productNotFoundMessage)
		}
		return Product{}, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

// Upsert inserts or updates a product by SKU and refreshes its search columns.
func (r *Repo) Upsert(ctx context.Context, params UpsertProductParams) (Product, error) {
	description := ""
	if params.Description != nil {
		description = *params.Description
	}

	query := `
		INSERT INTO products (
			id, sku, name, description, name_search, description_search, category, price_cents, stock_quantity, active
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (sku) DO UPDATE
		SET name = EXCLUDED.name,
			description = EXCLUDED.description,
			name_search = EXCLUDED.name_search,
			description_search = EXCLUDED.description_search,
			category = EXCLUDED.category,
			price_cents = EXCLUDED.price_cents,
			stock_quantity = EXCLUDED.stock_quantity,
			active = EXCLUDED.active,
			updated_at = now()
		RETURNING ` + productColumns

	p, err := scanProduct(r.pool.QueryRow(ctx, query,
		uuid.New(), params.SKU, params.Name, params.Description,
		textnorm.Fold(params.Name), textnorm.Fold(description),
		params.Category, params.PriceCents, params.StockQuantity, params.Active,
	))
	if err != nil {
		return Product{}, fmt.Errorf("upsert product: %w", err)
	}
	return p, nil
}

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(
		&p.ID, &p.SKU, &p.Name, &p.Description, &p.Category,
		&p.PriceCents, &p.StockQuantity, &p.Active, &p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}
