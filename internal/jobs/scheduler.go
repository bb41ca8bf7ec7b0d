package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

// OverdueSweepJob is the name of the job that flips past-due invoices to Overdue.
const OverdueSweepJob = "invoice-overdue-sweep"

// OverdueMarker is implemented by services.InvoiceService.
type OverdueMarker interface {
	MarkOverdueInvoices(ctx context.Context, asOf time.Time) (int64, error)
}

// JobScheduler manages background jobs
type JobScheduler struct {
	scheduler gocron.Scheduler
	invoices  OverdueMarker
	timeout   time.Duration
	now       func() time.Time
	logger    *zap.Logger
	jobs      map[string]gocron.Job
	mu        sync.RWMutex
}

// NewJobScheduler creates a scheduler with the overdue sweep registered at
// the given interval. Nothing runs until Start.
func NewJobScheduler(invoices OverdueMarker, interval time.Duration, logger *zap.Logger) (*JobScheduler, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("overdue sweep interval must be positive, got %s", interval)
	}

	scheduler, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	js := &JobScheduler{
		scheduler: scheduler,
		invoices:  invoices,
		timeout:   time.Minute,
		now:       time.Now,
		logger:    logger,
		jobs:      make(map[string]gocron.Job),
	}

	job, err := scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(js.markOverdue, context.Background()),
		gocron.WithName(OverdueSweepJob),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = scheduler.Shutdown()
		return nil, fmt.Errorf("failed to register %s: %w", OverdueSweepJob, err)
	}
	js.jobs[OverdueSweepJob] = job

	return js, nil
}

// Start starts the job scheduler
func (js *JobScheduler) Start() {
	js.logger.Info("starting background job scheduler", zap.Int("jobs", len(js.jobs)))
	js.scheduler.Start()
}

// Stop waits for running jobs and stops the scheduler
func (js *JobScheduler) Stop() error {
	js.logger.Info("stopping background job scheduler")
	return js.scheduler.Shutdown()
}

// RunNow triggers a registered job outside its schedule.
func (js *JobScheduler) RunNow(name string) error {
	js.mu.RLock()
	job, ok := js.jobs[name]
	js.mu.RUnlock()
	if !ok {
		return fmt.Errorf("unknown job %q", name)
	}
	return job.RunNow()
}

// GetJobStatus returns information about scheduled jobs
func (js *JobScheduler) GetJobStatus() map[string]interface{} {
	js.mu.RLock()
	defer js.mu.RUnlock()

	jobs := make(map[string]interface{}, len(js.jobs))
	for name, job := range js.jobs {
		entry := map[string]interface{}{}
		if next, err := job.NextRun(); err == nil {
			entry["next_run"] = next
		}
		if last, err := job.LastRun(); err == nil && !last.IsZero() {
			entry["last_run"] = last
		}
		jobs[name] = entry
	}

	return map[string]interface{}{
		"total_jobs": len(js.jobs),
		"jobs":       jobs,
	}
}

func (js *JobScheduler) markOverdue(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, js.timeout)
	defer cancel()

	start := js.now()
	count, err := js.invoices.MarkOverdueInvoices(ctx, start)
	if err != nil {
		js.logger.Error("overdue sweep failed", zap.Error(err))
		return err
	}
	js.logger.Debug("overdue sweep finished",
		zap.Int64("marked", count),
		zap.Duration("took", time.Since(start)))
	return nil
}
