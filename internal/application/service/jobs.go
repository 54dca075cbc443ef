package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"pricesync/internal/domain/model"
	"pricesync/internal/infrastructure/metrics"
)

type jobFunc func(ctx context.Context, trigger model.Trigger) error

// jobResource names the stored object a job reads and rewrites. Jobs on the
// same resource share a mutex: the snapshot writer records its failures in
// the price blob, so it must not interleave with a price refresh.
var jobResource = map[model.JobName]string{
	model.JobPriceRefresh:    "price_blob",
	model.JobDailySnapshot:   "price_blob",
	model.JobRegistryRefresh: "registry",
}

// Jobs is the single entry point for running background work. Runs that
// touch the same resource never interleave, whether they come from the
// scheduler or from an admin request.
type Jobs struct {
	funcs   map[model.JobName]jobFunc
	locks   map[model.JobName]*sync.Mutex
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewJobs(prices *PriceRefresher, registry *RegistrySync, snapshots *SnapshotWriter, m *metrics.Metrics, logger *slog.Logger) *Jobs {
	return newJobs(map[model.JobName]jobFunc{
		model.JobPriceRefresh:    prices.Refresh,
		model.JobRegistryRefresh: registry.Refresh,
		model.JobDailySnapshot:   snapshots.Write,
	}, m, logger)
}

func newJobs(funcs map[model.JobName]jobFunc, m *metrics.Metrics, logger *slog.Logger) *Jobs {
	byResource := make(map[string]*sync.Mutex)
	locks := make(map[model.JobName]*sync.Mutex, len(funcs))
	for name := range funcs {
		res, ok := jobResource[name]
		if !ok {
			res = string(name)
		}
		mu, ok := byResource[res]
		if !ok {
			mu = &sync.Mutex{}
			byResource[res] = mu
		}
		locks[name] = mu
	}
	return &Jobs{funcs: funcs, locks: locks, metrics: m, logger: logger}
}

// Run executes one job synchronously and returns its error.
func (j *Jobs) Run(ctx context.Context, req model.JobRequest) error {
	fn, ok := j.funcs[req.Job]
	if !ok {
		return fmt.Errorf("unknown job %q", req.Job)
	}

	mu := j.locks[req.Job]
	mu.Lock()
	defer mu.Unlock()

	log := j.logger.With("job", req.Job, "run_id", req.RunID, "trigger", req.Trigger)
	log.Info("job started")

	start := time.Now()
	err := fn(ctx, req.Trigger)
	j.metrics.ObserveJob(string(req.Job), start, err)

	if err != nil {
		log.Error("job failed", "error", err, "duration", time.Since(start))
		return err
	}
	log.Info("job completed", "duration", time.Since(start))
	return nil
}

// RunDaily archives the price snapshot and then refreshes the registry. The
// registry is not attempted when the snapshot fails.
func (j *Jobs) RunDaily(ctx context.Context, trigger model.Trigger) error {
	if err := j.Run(ctx, model.NewJobRequest(model.JobDailySnapshot, trigger)); err != nil {
		j.logger.Warn("skipping registry refresh after failed snapshot")
		return fmt.Errorf("daily snapshot: %w", err)
	}
	if err := j.Run(ctx, model.NewJobRequest(model.JobRegistryRefresh, trigger)); err != nil {
		return fmt.Errorf("daily registry refresh: %w", err)
	}
	return nil
}
