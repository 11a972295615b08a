// Package jobs provides the Redis-backed job queue used for asynchronous
// work, currently broadcast email delivery.
package jobs

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

// Config defines the queue configuration the client and worker need.
type Config interface {
	GetRedisURL() string
	GetAsynqQueue() string
	GetAsynqConcurrency() int
}

// Client enqueues background tasks.
type Client struct {
	client *asynq.Client
	queue  string
}

// NewClient creates a queue client. Returns an error when Redis is not
// configured; callers treat a nil client as "queue disabled".
func NewClient(cfg Config) (*Client, error) {
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

	return &Client{
		client: asynq.NewClient(opt),
		queue:  queue,
	}, nil
}

// Close releases the underlying Redis connection.
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// EnqueueBroadcastDelivery schedules delivery of a broadcast.
func (c *Client) EnqueueBroadcastDelivery(ctx context.Context, broadcastID uuid.UUID) error {
	if c == nil || c.client == nil {
		return nil
	}

	task, err := NewBroadcastDeliverTask(BroadcastDeliverPayload{BroadcastID: broadcastID.String()})
	if err != nil {
		return err
	}

	_, err = c.client.EnqueueContext(ctx, task, asynq.Queue(c.queue))
	return err
}

func redisClientOpt(redisURL string) (asynq.RedisClientOpt, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}

	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: opt.TLSConfig,
	}, nil
}
