package main

import (
	"context"
	"os"
	"strings"

	catalogrepo "cotizador_backend/internal/catalog/repository"
	"cotizador_backend/internal/catalog/seed"
	usersrepo "cotizador_backend/internal/users/repository"
	usersvc "cotizador_backend/internal/users/service"
	"cotizador_backend/migrations"
	"cotizador_backend/platform/config"
	"cotizador_backend/platform/db"
	"cotizador_backend/platform/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	path := strings.TrimSpace(os.Getenv("SEED_FILE"))
	log.Info("starting seed", "file", path)

	file, err := seed.Load(path)
	if err != nil {
		log.Error("failed to load seed file", "error", err)
		panic("failed to load seed file: " + err.Error())
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	if err := db.RunMigrations(ctx, pool, migrations.FS); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}

	products := catalogrepo.New(pool)
	for _, p := range file.Products {
		if _, err := products.Upsert(ctx, catalogrepo.UpsertProductParams{
			SKU:           p.SKU,
			Name:          p.Name,
			Description:   optional(p.Description),
			Category:      optional(p.Category),
			PriceCents:    p.PriceCents,
			StockQuantity: p.StockQuantity,
			Active:        !p.Inactive,
		}); err != nil {
			log.Error("failed to upsert product", "sku", p.SKU, "error", err)
			panic("failed to upsert product: " + err.Error())
		}
	}
	log.Info("catalog seeded", "products", len(file.Products))

	users := usersrepo.New(pool)
	for _, u := range file.Users {
		if _, err := users.Upsert(ctx, usersrepo.UpsertParams{
			PhoneNumber: usersvc.CleanPhone(u.PhoneNumber),
			Name:        u.Name,
			Email:       optional(u.Email),
			Role:        u.Role,
			Department:  optional(u.Department),
			Active:      !u.Inactive,
		}); err != nil {
			log.Error("failed to upsert user", "name", u.Name, "error", err)
			panic("failed to upsert user: " + err.Error())
		}
	}
	log.Info("users seeded", "users", len(file.Users))
}

func optional(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}
