// Command worker runs the queue consumer that delivers broadcast emails.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"member_portal_backend/internal/broadcast/repository"
	"member_portal_backend/internal/broadcast/service"
	"member_portal_backend/internal/config"
	"member_portal_backend/internal/db"
	"member_portal_backend/internal/email"
	"member_portal_backend/internal/jobs"
	"member_portal_backend/platform/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting worker", "env", cfg.Env, "queue", cfg.AsynqQueue)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	var sender email.Sender = email.NopSender{}
	if cfg.EmailEnabled {
		sender = email.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.EmailFromAddress, cfg.EmailFromName)
	} else {
		log.Warn("SMTP not configured; deliveries will be recorded but not sent")
	}

	// The worker only delivers; it never resolves recipients or enqueues, so
	// those collaborators stay nil.
	deliverer := service.New(repository.New(pool), nil, nil, sender, log)

	worker, err := jobs.NewWorker(cfg, deliverer, log)
	if err != nil {
		log.Error("failed to initialize queue worker", "error", err)
		panic("failed to initialize queue worker: " + err.Error())
	}

	worker.Run(ctx)
	log.Info("worker stopped")
}
