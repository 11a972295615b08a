package jobs

import (
	"context"
	"fmt"

	"member_portal_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// BroadcastDeliverer executes the delivery of one broadcast. Implemented by
// the broadcast service.
type BroadcastDeliverer interface {
	Deliver(ctx context.Context, broadcastID uuid.UUID) error
}

// Worker consumes queue tasks. Run blocks until the context is cancelled.
type Worker struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	deliverer BroadcastDeliverer
	log       *logger.Logger
}

// NewWorker creates a queue worker bound to the broadcast deliverer.
func NewWorker(cfg Config, deliverer BroadcastDeliverer, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL)
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueue()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:    server,
		mux:       mux,
		deliverer: deliverer,
		log:       log,
	}

	mux.HandleFunc(TaskBroadcastDeliver, w.handleBroadcastDeliver)

	return w, nil
}

func (w *Worker) handleBroadcastDeliver(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseBroadcastDeliverPayload(task)
	if err != nil {
		return err
	}

	broadcastID, err := uuid.Parse(payload.BroadcastID)
	if err != nil {
		return err
	}

	return w.deliverer.Deliver(ctx, broadcastID)
}

// Run starts the worker and blocks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("queue worker stopped", "error", err)
	}
}
