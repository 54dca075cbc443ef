package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"pricesync/internal/domain/model"
)

// JobRunner is what the scheduler fires.
type JobRunner interface {
	Run(ctx context.Context, req model.JobRequest) error
	RunDaily(ctx context.Context, trigger model.Trigger) error
}

// Scheduler fires the price refresh on a fixed interval and the daily run
// once per day at a fixed UTC wall-clock time.
type Scheduler struct {
	jobs       JobRunner
	interval   time.Duration
	hour       int
	minute     int
	runOnStart bool
	logger     *slog.Logger
	now        func() time.Time

	mu      sync.Mutex
	done    chan struct{}
	wg      sync.WaitGroup
	started bool
}

func NewScheduler(jobs JobRunner, interval time.Duration, hour, minute int, runOnStart bool, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		jobs:       jobs,
		interval:   interval,
		hour:       hour,
		minute:     minute,
		runOnStart: runOnStart,
		logger:     logger,
		now:        time.Now,
		done:       make(chan struct{}),
	}
}

// Start launches the price and daily loops. If interval <= 0, 5 minutes is used.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true
	if s.interval <= 0 {
		s.interval = 5 * time.Minute
	}

	s.logger.Info("scheduler starting",
		"price_interval", s.interval.String(),
		"daily_at", time.Date(0, 1, 1, s.hour, s.minute, 0, 0, time.UTC).Format("15:04"),
		"run_on_start", s.runOnStart)

	s.wg.Add(2)
	go s.priceLoop(ctx)
	go s.dailyLoop(ctx)
}

// Stop signals both loops and waits for an in-flight run to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	select {
	case <-s.done:
	default:
		close(s.done)
	}
	s.mu.Unlock()
	s.wg.Wait()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) priceLoop(ctx context.Context) {
	defer s.wg.Done()

	if s.runOnStart {
		s.firePrices(ctx)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.firePrices(ctx)
		case <-s.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (s *Scheduler) dailyLoop(ctx context.Context) {
	defer s.wg.Done()

	for {
		next := nextDaily(s.now(), s.hour, s.minute)
		s.logger.Info("next daily run scheduled", "at", next)
		timer := time.NewTimer(time.Until(next))

		select {
		case <-timer.C:
			if err := s.jobs.RunDaily(ctx, model.TriggerScheduled); err != nil {
				s.logger.Error("daily run failed", "error", err)
			}
		case <-s.done:
			timer.Stop()
			return
		case <-ctx.Done():
			timer.Stop()
			return
		}
	}
}

func (s *Scheduler) firePrices(ctx context.Context) {
	// Errors are already logged and counted by Jobs.
	_ = s.jobs.Run(ctx, model.NewJobRequest(model.JobPriceRefresh, model.TriggerScheduled))
}

// nextDaily returns the first hour:minute UTC strictly after now.
func nextDaily(now time.Time, hour, minute int) time.Time {
	now = now.UTC()
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, time.UTC)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
