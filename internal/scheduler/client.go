package scheduler

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"cotizador_backend/platform/config"
	"cotizador_backend/platform/logger"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

// DefaultSweepInterval is how often both sweeps are enqueued.
const DefaultSweepInterval = 10 * time.Minute

// Periodic enqueues the sweep tasks on a fixed interval.
type Periodic struct {
	scheduler *asynq.Scheduler
	log       *logger.Logger
}

func NewPeriodic(cfg config.SchedulerConfig, interval time.Duration, log *logger.Logger) (*Periodic, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	if interval <= 0 {
		interval = DefaultSweepInterval
	}

	scheduler := asynq.NewScheduler(opt, &asynq.SchedulerOpts{})
	spec := fmt.Sprintf("@every %s", interval)
	queue := queueName(cfg)

	for _, build := range []func(SweepPayload) (*asynq.Task, error){
		NewExpireIdleConversationsTask,
		NewExpireOverdueQuotesTask,
	} {
		task, err := build(SweepPayload{})
		if err != nil {
			return nil, err
		}
		if _, err := scheduler.Register(spec, task, asynq.Queue(queue), asynq.MaxRetry(1), asynq.Timeout(time.Minute)); err != nil {
			return nil, fmt.Errorf("register %s: %w", task.Type(), err)
		}
	}

	return &Periodic{scheduler: scheduler, log: log}, nil
}

// Run blocks until ctx is done.
func (p *Periodic) Run(ctx context.Context) {
	if p == nil || p.scheduler == nil {
		return
	}
	if err := p.scheduler.Start(); err != nil {
		p.log.Error("periodic scheduler failed to start", "error", err)
		return
	}
	<-ctx.Done()
	p.scheduler.Shutdown()
}

func queueName(cfg config.SchedulerConfig) string {
	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}
	return queue
}

func redisClientOpt(redisURL string, tlsInsecure bool) (asynq.RedisClientOpt, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}

	var tlsConfig *tls.Config
	if opt.TLSConfig != nil {
		clone := opt.TLSConfig.Clone()
		if tlsInsecure {
			clone.InsecureSkipVerify = true
		}
		tlsConfig = clone
	} else if tlsInsecure {
		tlsConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: tlsConfig,
	}, nil
}
