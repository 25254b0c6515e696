package adapters

import (
	"context"
	"fmt"
	"strings"

	quotesvc "cotizador_backend/internal/quotes/service"
	usersrepo "cotizador_backend/internal/users/repository"

	"github.com/google/uuid"
)

// UserReader is the narrow interface for looking up a user by ID.
type UserReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (usersrepo.User, error)
}

// QuotesContactReader adapts the users repository to provide the contact
// details printed on, and mailed with, a quote.
// It implements quotes/service.CustomerReader.
type QuotesContactReader struct {
	users UserReader
}

// NewQuotesContactReader creates a new contact reader adapter.
func NewQuotesContactReader(users UserReader) *QuotesContactReader {
	return &QuotesContactReader{users: users}
}

// GetCustomer retrieves name, phone and e-mail of the quote owner.
func (a *QuotesContactReader) GetCustomer(ctx context.Context, userID uuid.UUID) (quotesvc.Customer, error) {
	user, err := a.users.GetByID(ctx, userID)
	if err != nil {
		return quotesvc.Customer{}, fmt.Errorf("look up user for quote: %w", err)
	}

	email := ""
	if user.Email != nil {
		email = strings.TrimSpace(*user.Email)
	}

	return quotesvc.Customer{
		Name:  strings.TrimSpace(user.Name),
		Phone: formatPhone(user.PhoneNumber),
		Email: email,
	}, nil
}

// formatPhone renders a stored 521XXXXXXXXXX number as +52 1 XX XXXX XXXX.
func formatPhone(stored string) string {
	if len(stored) != 13 || !strings.HasPrefix(stored, "521") {
		return stored
	}
	return fmt.Sprintf("+52 1 %s %s %s", stored[3:5], stored[5:9], stored[9:])
}

// Compile-time check that QuotesContactReader implements quotes/service.CustomerReader.
var _ quotesvc.CustomerReader = (*QuotesContactReader)(nil)
