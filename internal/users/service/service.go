// Package service authenticates the employees allowed to request quotes.
package service

import (
	"context"

	"cotizador_backend/internal/users/repository"
	"cotizador_backend/platform/apperr"
	"cotizador_backend/platform/logger"
	"cotizador_backend/platform/phone"

	"github.com/google/uuid"
)

// UnauthorizedMessage is sent to phones that are not registered employees.
const UnauthorizedMessage = "Lo siento, no tienes autorización para usar este servicio. Contacta a tu administrador."

// Store is the subset of the user repository the service needs.
type Store interface {
	GetByPhone(ctx context.Context, phone string) (repository.User, error)
	TouchLastLogin(ctx context.Context, id uuid.UUID) error
}

type Service struct {
	store Store
	log   *logger.Logger
}

func New(store Store, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Discard()
	}
	return &Service{store: store, log: log}
}

// CleanPhone normalises a phone number to the form stored in users.phone_number.
func CleanPhone(raw string) string {
	return phone.CleanWhatsAppMX(raw)
}

// Authenticate resolves an active user by phone. Unknown and inactive users
// are Forbidden.
func (s *Service) Authenticate(ctx context.Context, rawPhone string) (repository.User, error) {
	cleaned := CleanPhone(rawPhone)
	if cleaned == "" {
		return repository.User{}, apperr.Forbidden(UnauthorizedMessage)
	}

	user, err := s.store.GetByPhone(ctx, cleaned)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			s.log.Warn("unauthorized phone", "phone_suffix", suffix(cleaned))
			return repository.User{}, apperr.Forbidden(UnauthorizedMessage)
		}
		return repository.User{}, err
	}
	if !user.Active {
		s.log.Warn("inactive user", "user_id", user.ID.String())
		return repository.User{}, apperr.Forbidden(UnauthorizedMessage)
	}

	if err := s.store.TouchLastLogin(ctx, user.ID); err != nil {
		s.log.DatabaseError("touch_last_login", err)
	}
	return user, nil
}

func suffix(p string) string {
	if len(p) <= 4 {
		return p
	}
	return p[len(p)-4:]
}
