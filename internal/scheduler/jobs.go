package scheduler

import (
	"context"
	"time"

	"github.com/hibiken/asynq"

	"cotizador_backend/platform/logger"
)

// ConversationSweeper times out idle conversations.
type ConversationSweeper interface {
	ExpireIdle(ctx context.Context, now time.Time) (int, error)
}

// QuoteSweeper expires quotes past their validity.
type QuoteSweeper interface {
	ExpireOverdue(ctx context.Context, now time.Time) (int64, error)
}

// Jobs holds the task handlers.
type Jobs struct {
	conversations ConversationSweeper
	quotes        QuoteSweeper
	log           *logger.Logger
	now           func() time.Time
}

// NewJobs creates the task handlers.
func NewJobs(conversations ConversationSweeper, quotes QuoteSweeper, log *logger.Logger) *Jobs {
	return &Jobs{conversations: conversations, quotes: quotes, log: log, now: time.Now}
}

// HandleExpireIdleConversations runs the idle conversation sweep.
func (j *Jobs) HandleExpireIdleConversations(ctx context.Context, task *asynq.Task) error {
	now, err := j.referenceTime(task)
	if err != nil {
		return err
	}
	n, err := j.conversations.ExpireIdle(ctx, now)
	if err != nil {
		return err
	}
	j.log.Info("idle conversation sweep done", "expired", n)
	return nil
}

// HandleExpireOverdueQuotes runs the overdue quote sweep.
func (j *Jobs) HandleExpireOverdueQuotes(ctx context.Context, task *asynq.Task) error {
	now, err := j.referenceTime(task)
	if err != nil {
		return err
	}
	n, err := j.quotes.ExpireOverdue(ctx, now)
	if err != nil {
		return err
	}
	j.log.Info("overdue quote sweep done", "expired", n)
	return nil
}

func (j *Jobs) referenceTime(task *asynq.Task) (time.Time, error) {
	payload, err := ParseSweepPayload(task)
	if err != nil {
		return time.Time{}, err
	}
	if payload.ReferenceTime.IsZero() {
		return j.now(), nil
	}
	return payload.ReferenceTime, nil
}
