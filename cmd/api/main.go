package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"cotizador_backend/internal/adapters"
	"cotizador_backend/internal/adapters/storage"
	"cotizador_backend/internal/catalog"
	"cotizador_backend/internal/conversation"
	"cotizador_backend/internal/conversation/engine"
	convsvc "cotizador_backend/internal/conversation/service"
	"cotizador_backend/internal/email"
	"cotizador_backend/internal/events"
	apphttp "cotizador_backend/internal/http"
	"cotizador_backend/internal/http/router"
	"cotizador_backend/internal/nlu"
	"cotizador_backend/internal/notification"
	"cotizador_backend/internal/quotes"
	quotesvc "cotizador_backend/internal/quotes/service"
	"cotizador_backend/internal/simulator"
	usersrepo "cotizador_backend/internal/users/repository"
	usersvc "cotizador_backend/internal/users/service"
	"cotizador_backend/internal/whatsapp"
	"cotizador_backend/migrations"
	"cotizador_backend/platform/ai/openai"
	"cotizador_backend/platform/config"
	"cotizador_backend/platform/db"
	"cotizador_backend/platform/lock"
	"cotizador_backend/platform/logger"
	"cotizador_backend/platform/metrics"
	"cotizador_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

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
	log.Info("database connection established")

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, pool, migrations.FS)
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)
	defer eventBus.Wait()

	val := validator.New()
	recorder := metrics.NewPrometheusRecorder()

	storageSvc := initStorage(ctx, cfg, log)

	readiness := map[string]apphttp.HealthChecker{"database": db.NewPoolAdapter(pool)}

	locker, closeLocker := initLocker(cfg, log)
	if closeLocker != nil {
		defer closeLocker()
	}
	if redisLocker, ok := locker.(*lock.RedisLocker); ok {
		readiness["redis"] = redisLocker
	}

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	usersRepo := usersrepo.New(pool)
	authSvc := usersvc.New(usersRepo, log)

	catalogModule := catalog.NewModule(pool, val, log)

	quotesContacts := adapters.NewQuotesContactReader(usersRepo)
	quotesModule := quotes.NewModule(pool, quotesvc.Config{
		TaxRateBps:    cfg.GetDefaultTaxRateBps(),
		ValidityDays:  cfg.GetQuoteValidityDays(),
		PublicBaseURL: cfg.GetAPIBaseURL(),
		Bucket:        cfg.GetMinioBucketQuotePDFs(),
		Location:      cfg.GetBusinessLocation(),
		Company: quotesvc.Company{
			Name:  cfg.GetCompanyName(),
			Email: cfg.GetCompanyEmail(),
			Phone: cfg.GetCompanyPhone(),
		},
	}, quotes.Deps{
		Products:  adapters.NewCatalogProductReader(catalogModule.Service()),
		Customers: quotesContacts,
		Storage:   storageSvc,
		EventBus:  eventBus,
	}, val, log)

	convDeps := conversation.Deps{
		Auth:     authSvc,
		Catalog:  catalogModule.Service(),
		Quotes:   quotesModule.Service(),
		Locker:   locker,
		EventBus: eventBus,
		Metrics:  recorder,
	}
	wireLanguageModel(cfg, log, &convDeps)

	conversationModule := conversation.NewModule(pool, conversation.Config{
		Engine: engine.Config{
			PublicBaseURL:     cfg.GetAPIBaseURL(),
			QuoteValidityDays: cfg.GetQuoteValidityDays(),
		},
		Pipeline: convsvc.Config{
			IdleTimeout: cfg.GetConversationTimeout(),
		},
	}, convDeps, val, log)

	whatsappClient := whatsapp.NewClient(cfg, log)
	if whatsappClient == nil {
		log.Warn("WHATSAPP_TOKEN not configured; replies are logged but not delivered")
	}
	// A nil client drops outbound messages, so the webhook still records turns.
	whatsappModule := whatsapp.NewModule(cfg, conversationModule.Service(), whatsappClient, log)
	simulatorModule := simulator.NewModule(conversationModule.Service(), val, cfg.Env)

	// Notification module subscribes to domain events (not HTTP-facing)
	if !cfg.IsEmailEnabled() {
		log.Warn("SMTP not configured; quote e-mails disabled")
	}
	notificationModule := notification.New(email.NewSender(cfg), quotesModule.Service(), quotesContacts, cfg.GetCompanyName(), log)
	notificationModule.RegisterHandlers(eventBus)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:    cfg,
		Logger:    log,
		Readiness: readiness,
		Metrics:   recorder.Handler(),
		Modules: []apphttp.Module{
			catalogModule,
			quotesModule,
			conversationModule,
			whatsappModule,
			simulatorModule,
		},
	}

	ginEngine := router.New(app)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           ginEngine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown failed", "error", err)
		}
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

// initStorage returns nil when MinIO is not configured; quote documents are
// then rendered on every download.
func initStorage(ctx context.Context, cfg *config.Config, log *logger.Logger) storage.StorageService {
	if !cfg.IsMinIOEnabled() {
		log.Warn("MINIO_ENDPOINT not configured; quote PDFs are rendered on demand")
		return nil
	}

	storageSvc, err := storage.NewMinIOService(cfg)
	if err != nil {
		log.Error("failed to initialize storage service", "error", err)
		panic("failed to initialize storage service: " + err.Error())
	}

	bucket := cfg.GetMinioBucketQuotePDFs()
	if err := withRetry(ctx, log, "ensure quote-pdfs bucket", 5, 2*time.Second, func() error {
		return storageSvc.EnsureBucketExists(ctx, bucket)
	}); err != nil {
		log.Error("failed to ensure storage bucket exists", "error", err, "bucket", bucket)
		panic("failed to ensure storage bucket exists: " + err.Error())
	}
	log.Info("storage service initialized", "quotePDFsBucket", bucket)
	return storageSvc
}

// initLocker serialises conversation turns across API replicas when Redis is
// available and falls back to an in-process lock otherwise.
func initLocker(cfg *config.Config, log *logger.Logger) (lock.Locker, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; conversation locks are process-local")
		return lock.NewLocalLocker(), nil
	}

	client, err := lock.NewRedisClient(cfg.GetRedisURL(), cfg.GetRedisTLSInsecure())
	if err != nil {
		log.Error("failed to initialize redis lock client", "error", err)
		return lock.NewLocalLocker(), nil
	}

	return lock.NewRedisLocker(client, cfg.GetConversationLockTTL()), func() {
		_ = client.Close()
	}
}

// wireLanguageModel leaves the agents unset when no API key is configured so
// the engine stays on keyword matching.
func wireLanguageModel(cfg *config.Config, log *logger.Logger, deps *conversation.Deps) {
	if !cfg.IsLLMEnabled() {
		log.Warn("OPENAI_API_KEY not configured; using keyword intent detection")
		return
	}

	suite, err := nlu.NewOpenAISuite(openai.Config{
		APIKey:     cfg.GetOpenAIAPIKey(),
		BaseURL:    cfg.GetOpenAIBaseURL(),
		Model:      cfg.GetOpenAIModel(),
		MaxTokens:  cfg.GetOpenAIMaxTokens(),
		MaxRetries: 2,
	})
	if err != nil {
		log.Error("failed to initialize language model agents", "error", err)
		return
	}

	deps.Classifier = suite.Classifier
	deps.Extractor = suite.Extractor
	deps.Responder = suite.Responder
	log.Info("language model agents initialized", "model", cfg.GetOpenAIModel())
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
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
