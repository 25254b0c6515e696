package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
	_ "time/tzdata"

	convrepo "cotizador_backend/internal/conversation/repository"
	convsvc "cotizador_backend/internal/conversation/service"
	"cotizador_backend/internal/events"
	quotesrepo "cotizador_backend/internal/quotes/repository"
	quotesvc "cotizador_backend/internal/quotes/service"
	"cotizador_backend/internal/scheduler"
	"cotizador_backend/platform/config"
	"cotizador_backend/platform/db"
	"cotizador_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	eventBus := events.NewInMemoryBus(log)
	defer eventBus.Wait()

	// Sweeps only touch the stores, so the pipeline runs without an engine.
	conversations := convsvc.New(convrepo.New(pool), nil, nil, nil, convsvc.Config{
		IdleTimeout: cfg.GetConversationTimeout(),
	}, log)
	conversations.SetEventBus(eventBus)

	quotesSvc := quotesvc.New(quotesrepo.New(pool), nil, nil, nil, quotesvc.Config{
		ValidityDays:  cfg.GetQuoteValidityDays(),
		PublicBaseURL: cfg.GetAPIBaseURL(),
		Location:      cfg.GetBusinessLocation(),
	}, log)

	interval := getDurationEnv("SWEEP_INTERVAL", scheduler.DefaultSweepInterval)
	periodic, err := scheduler.NewPeriodic(cfg, interval, log)
	if err != nil {
		log.Error("failed to initialize periodic scheduler", "error", err)
		panic("failed to initialize periodic scheduler: " + err.Error())
	}
	go periodic.Run(ctx)

	worker, err := scheduler.NewWorker(cfg, scheduler.NewJobs(conversations, quotesSvc, log), log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	log.Info("scheduler running", "interval", interval.String())
	worker.Run(ctx)
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	parsed, err := time.ParseDuration(raw)
	if err != nil || parsed <= 0 {
		return fallback
	}

	return parsed
}
