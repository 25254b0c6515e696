package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"

	"cotizador_backend/platform/logger"
)

type fakeConversations struct {
	got time.Time
	err error
}

func (f *fakeConversations) ExpireIdle(_ context.Context, now time.Time) (int, error) {
	f.got = now
	return 2, f.err
}

type fakeQuotes struct {
	got time.Time
}

func (f *fakeQuotes) ExpireOverdue(_ context.Context, now time.Time) (int64, error) {
	f.got = now
	return 1, nil
}

func TestSweepTasksUseNowByDefault(t *testing.T) {
	conv := &fakeConversations{}
	quotes := &fakeQuotes{}
	jobs := NewJobs(conv, quotes, logger.Discard())
	fixed := time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)
	jobs.now = func() time.Time { return fixed }

	task, err := NewExpireIdleConversationsTask(SweepPayload{})
	if err != nil {
		t.Fatalf("task: %v", err)
	}
	if err := jobs.HandleExpireIdleConversations(context.Background(), task); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !conv.got.Equal(fixed) {
		t.Fatalf("expected %v, got %v", fixed, conv.got)
	}

	if err := jobs.HandleExpireOverdueQuotes(context.Background(), asynq.NewTask(TaskExpireOverdueQuotes, nil)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !quotes.got.Equal(fixed) {
		t.Fatalf("expected %v, got %v", fixed, quotes.got)
	}
}

func TestSweepTaskHonorsReferenceTime(t *testing.T) {
	quotes := &fakeQuotes{}
	jobs := NewJobs(&fakeConversations{}, quotes, logger.Discard())
	ref := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	task, err := NewExpireOverdueQuotesTask(SweepPayload{ReferenceTime: ref})
	if err != nil {
		t.Fatalf("task: %v", err)
	}
	if task.Type() != TaskExpireOverdueQuotes {
		t.Fatalf("unexpected type %s", task.Type())
	}
	if err := jobs.HandleExpireOverdueQuotes(context.Background(), task); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !quotes.got.Equal(ref) {
		t.Fatalf("expected %v, got %v", ref, quotes.got)
	}
}

func TestSweepErrorsAreReturnedForRetry(t *testing.T) {
	boom := errors.New("db down")
	jobs := NewJobs(&fakeConversations{err: boom}, &fakeQuotes{}, logger.Discard())

	err := jobs.HandleExpireIdleConversations(context.Background(), asynq.NewTask(TaskExpireIdleConversations, nil))
	if !errors.Is(err, boom) {
		t.Fatalf("expected %v, got %v", boom, err)
	}
}

func TestParseSweepPayloadRejectsGarbage(t *testing.T) {
	if _, err := ParseSweepPayload(asynq.NewTask(TaskExpireIdleConversations, []byte("{"))); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestRedisClientOpt(t *testing.T) {
	opt, err := redisClientOpt("redis://:pw@localhost:6380/2", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opt.Addr != "localhost:6380" || opt.Password != "pw" || opt.DB != 2 || opt.TLSConfig == nil {
		t.Fatalf("unexpected opt %+v", opt)
	}
}
