package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

// TaskBroadcastDeliver fans a broadcast out to its pending recipients.
const TaskBroadcastDeliver = "broadcast.deliver"

// BroadcastDeliverPayload identifies the broadcast to deliver.
type BroadcastDeliverPayload struct {
	BroadcastID string `json:"broadcastId"`
}

// NewBroadcastDeliverTask builds the asynq task for a broadcast delivery.
func NewBroadcastDeliverTask(payload BroadcastDeliverPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskBroadcastDeliver, data), nil
}

// ParseBroadcastDeliverPayload decodes a broadcast delivery task.
func ParseBroadcastDeliverPayload(task *asynq.Task) (BroadcastDeliverPayload, error) {
	var payload BroadcastDeliverPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return BroadcastDeliverPayload{}, err
	}
	return payload, nil
}
