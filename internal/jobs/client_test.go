package jobs

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

type testConfig struct {
	redisURL    string
	queue       string
	concurrency int
}

func (c testConfig) GetRedisURL() string      { return c.redisURL }
func (c testConfig) GetAsynqQueue() string    { return c.queue }
func (c testConfig) GetAsynqConcurrency() int { return c.concurrency }

func TestNewClientRequiresRedis(t *testing.T) {
	if _, err := NewClient(testConfig{}); err == nil {
		t.Fatalf("expected error without redis url")
	}
}

func TestEnqueueBroadcastDelivery(t *testing.T) {
	srv := miniredis.RunT(t)

	client, err := NewClient(testConfig{redisURL: "redis://" + srv.Addr(), queue: "portal"})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	defer client.Close()

	broadcastID := uuid.New()
	if err := client.EnqueueBroadcastDelivery(context.Background(), broadcastID); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: srv.Addr()})
	defer inspector.Close()

	pending, err := inspector.ListPendingTasks("portal")
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected 1 pending task, got %d", len(pending))
	}
	if pending[0].Type != TaskBroadcastDeliver {
		t.Fatalf("unexpected task type %q", pending[0].Type)
	}

	payload, err := ParseBroadcastDeliverPayload(asynq.NewTask(pending[0].Type, pending[0].Payload))
	if err != nil {
		t.Fatalf("parse payload: %v", err)
	}
	if payload.BroadcastID != broadcastID.String() {
		t.Fatalf("expected broadcast id %s, got %s", broadcastID, payload.BroadcastID)
	}
}

func TestNilClientIsNoop(t *testing.T) {
	var client *Client
	if err := client.EnqueueBroadcastDelivery(context.Background(), uuid.New()); err != nil {
		t.Fatalf("nil client enqueue: %v", err)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("nil client close: %v", err)
	}
}
