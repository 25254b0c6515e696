package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	usersrepo "cotizador_backend/internal/users/repository"
	usersvc "cotizador_backend/internal/users/service"
	"cotizador_backend/platform/config"
	"cotizador_backend/platform/db"
	"cotizador_backend/platform/httpkit"
	"cotizador_backend/platform/logger"

	"github.com/google/uuid"
)

const defaultTokenTTL = 24 * time.Hour

// Prints an admin access token to stdout. With ADMIN_PHONE set the token is
// bound to that registered admin user; otherwise a fresh subject is used.
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}
	log := logger.New(cfg.Env)

	ttl := defaultTokenTTL
	if raw := strings.TrimSpace(os.Getenv("ADMIN_TOKEN_TTL")); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil || parsed <= 0 {
			panic("invalid ADMIN_TOKEN_TTL: " + raw)
		}
		ttl = parsed
	}

	subject := uuid.New()
	if phone := strings.TrimSpace(os.Getenv("ADMIN_PHONE")); phone != "" {
		subject, err = lookupAdmin(cfg, phone)
		if err != nil {
			log.Error("failed to resolve admin user", "error", err)
			panic("failed to resolve admin user: " + err.Error())
		}
	}

	token, err := httpkit.IssueAccessToken(cfg, subject, []string{usersrepo.RoleAdmin}, ttl)
	if err != nil {
		log.Error("failed to issue token", "error", err)
		panic("failed to issue token: " + err.Error())
	}
	fmt.Println(token)
}

func lookupAdmin(cfg *config.Config, phone string) (uuid.UUID, error) {
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		return uuid.Nil, err
	}
	defer pool.Close()

	user, err := usersrepo.New(pool).GetByPhone(ctx, usersvc.CleanPhone(phone))
	if err != nil {
		return uuid.Nil, err
	}
	if user.Role != usersrepo.RoleAdmin || !user.Active {
		return uuid.Nil, fmt.Errorf("user %s is not an active admin", user.ID)
	}
	return user.ID, nil
}
