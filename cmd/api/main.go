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

	"member_portal_backend/internal/broadcast"
	broadcastsvc "member_portal_backend/internal/broadcast/service"
	"member_portal_backend/internal/config"
	"member_portal_backend/internal/consultations"
	"member_portal_backend/internal/db"
	"member_portal_backend/internal/email"
	eventsmodule "member_portal_backend/internal/events"
	apphttp "member_portal_backend/internal/http"
	"member_portal_backend/internal/http/router"
	"member_portal_backend/internal/jobs"
	"member_portal_backend/internal/lifecycle"
	"member_portal_backend/internal/members"
	"member_portal_backend/internal/messages"
	"member_portal_backend/internal/notices"
	"member_portal_backend/internal/search"
	"member_portal_backend/internal/storage"
	"member_portal_backend/platform/events"
	"member_portal_backend/platform/logger"
	"member_portal_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

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

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg)
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

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

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	val := validator.New()

	var sender email.Sender = email.NopSender{}
	if cfg.EmailEnabled {
		sender = email.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.EmailFromAddress, cfg.EmailFromName)
		log.Info("smtp sender initialized", "host", cfg.SMTPHost)
	} else {
		log.Warn("SMTP not configured; outbound email disabled")
	}

	// Object storage for event files (MinIO). Nil when unconfigured; the
	// events module rejects upload requests with a configuration error.
	var storageSvc storage.Service
	if cfg.IsMinioEnabled() {
		minioSvc, err := storage.NewMinioService(cfg)
		if err != nil {
			log.Error("failed to initialize storage service", "error", err)
			panic("failed to initialize storage service: " + err.Error())
		}
		if err := withRetry(ctx, log, "ensure storage bucket", 5, 2*time.Second, func() error {
			return minioSvc.EnsureBucketExists(ctx)
		}); err != nil {
			log.Error("failed to ensure storage bucket exists", "error", err, "bucket", cfg.MinioBucketFiles)
			panic("failed to ensure storage bucket exists: " + err.Error())
		}
		storageSvc = minioSvc
		log.Info("storage service initialized", "bucket", cfg.MinioBucketFiles)
	} else {
		log.Warn("MINIO_ENDPOINT not configured; file uploads disabled")
	}

	// Queue client for asynchronous broadcast delivery. Nil when Redis is
	// unconfigured; broadcasts then stay pending until a worker picks them up.
	var enqueuer broadcastsvc.Enqueuer
	if cfg.RedisURL != "" {
		queueClient, err := jobs.NewClient(cfg)
		if err != nil {
			log.Error("failed to initialize queue client", "error", err)
			panic("failed to initialize queue client: " + err.Error())
		}
		defer queueClient.Close()
		enqueuer = queueClient
		log.Info("queue client initialized", "queue", cfg.AsynqQueue)
	} else {
		log.Warn("REDIS_URL not configured; broadcast delivery queue disabled")
	}

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	membersModule := members.NewModule(pool, val, log)

	lifecycleModule := lifecycle.NewModule(
		membersModule.Service(),
		lifecycle.GroupNames{Unpaid: cfg.UnpaidGroupName, Withdrawn: cfg.WithdrawnGroupName},
		cfg.LifecycleToken,
		eventBus,
		val,
		log,
	)

	consultationsModule := consultations.NewModule(pool, val, log)
	eventsModule := eventsmodule.NewModule(pool, membersModule.Service(), storageSvc, eventBus, val, log)

	// Registration confirmations ride the event bus so registration does not
	// block on SMTP.
	registrationNotifier := eventsmodule.NewRegistrationNotifier(sender, membersModule.Service(), log)
	registrationNotifier.RegisterHandlers(eventBus)
	noticesModule := notices.NewModule(pool, val, log)
	messagesModule := messages.NewModule(pool, val, log)
	searchModule := search.NewModule(pool, log)

	recipientSource := broadcast.NewMemberRecipientSource(membersModule.Repository())
	broadcastModule := broadcast.NewModule(pool, recipientSource, enqueuer, sender, val, log)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   pool,
		EventBus: eventBus,
		Modules: []apphttp.Module{
			membersModule,
			lifecycleModule,
			consultationsModule,
			eventsModule,
			noticesModule,
			messagesModule,
			searchModule,
			broadcastModule,
		},
	}

	engine := router.New(app)

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: engine,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
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
