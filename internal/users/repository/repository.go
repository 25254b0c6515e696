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

const userNotFoundMessage = "user not found"

// Roles a user may hold.
const (
	RoleAdmin    = "admin"
	RoleManager  = "manager"
	RoleEmployee = "employee"
)

type User struct {
	ID          uuid.UUID  `json:"id"`
	PhoneNumber string     `json:"phoneNumber"`
	Name        string     `json:"name"`
	Email       *string    `json:"email,omitempty"`
	Role        string     `json:"role"`
	Department  *string    `json:"department,omitempty"`
	Active      bool       `json:"active"`
	LastLogin   *time.Time `json:"lastLogin,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// UpsertParams is a seed entry keyed by phone number.
type UpsertParams struct {
	PhoneNumber string
	Name        string
	Email       *string
	Role        string
	Department  *string
	Active      bool
}

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const userColumns = `id, phone_number, name, email, role, department, active, last_login, created_at, updated_at`

func (r *Repository) GetByPhone(ctx context.Context, phone string) (User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE phone_number = $1`, phone)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, apperr.NotFound(userNotFoundMessage)
		}
		return User{}, fmt.Errorf("get user by phone: %w", err)
	}
	return user, nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, apperr.NotFound(userNotFoundMessage)
		}
		return User{}, fmt.Errorf("get user by id: %w", err)
	}
	return user, nil
}

func (r *Repository) TouchLastLogin(ctx context.Context, id uuid.UUID) error {
	if _, err := r.pool.Exec(ctx, `UPDATE users SET last_login = now(), updated_at = now() WHERE id = $1`, id); err != nil {
		return fmt.Errorf("touch last login: %w", err)
	}
	return nil
}

func (r *Repository) Upsert(ctx context.Context, params UpsertParams) (User, error) {
	role := params.Role
	if role == "" {
		role = RoleEmployee
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (id, phone_number, name, email, role, department, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (phone_number) DO UPDATE
		SET name = EXCLUDED.name,
			email = EXCLUDED.email,
			role = EXCLUDED.role,
			department = EXCLUDED.department,
			active = EXCLUDED.active,
			updated_at = now()
		RETURNING `+userColumns,
		uuid.New(), params.PhoneNumber, params.Name, params.Email, role, params.Department, params.Active,
	)
	user, err := scanUser(row)
	if err != nil {
		return User{}, fmt.Errorf("upsert user: %w", err)
	}
	return user, nil
}

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(
		&u.ID,
		&u.PhoneNumber,
		&u.Name,
		&u.Email,
		&u.Role,
		&u.Department,
		&u.Active,
		&u.LastLogin,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	return u, err
}
