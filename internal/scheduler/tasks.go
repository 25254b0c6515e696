package scheduler

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const TaskExpireIdleConversations = "conversations.expire_idle"

const TaskExpireOverdueQuotes = "quotes.expire_overdue"

// SweepPayload optionally pins the reference time of a sweep. A zero
// ReferenceTime means "now" at processing time.
type SweepPayload struct {
	ReferenceTime time.Time `json:"referenceTime,omitempty"`
}

func NewExpireIdleConversationsTask(payload SweepPayload) (*asynq.Task, error) {
	return newSweepTask(TaskExpireIdleConversations, payload)
}

func NewExpireOverdueQuotesTask(payload SweepPayload) (*asynq.Task, error) {
	return newSweepTask(TaskExpireOverdueQuotes, payload)
}

func newSweepTask(taskType string, payload SweepPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(taskType, data), nil
}

func ParseSweepPayload(task *asynq.Task) (SweepPayload, error) {
	var payload SweepPayload
	if len(task.Payload()) == 0 {
		return payload, nil
	}
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return SweepPayload{}, err
	}
	return payload, nil
}
