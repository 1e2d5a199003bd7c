// Package scheduler drives the periodic jobs described in §5: invitation
// expiry, objection overdue sweeps, match expiry/reminders/auto-apply, and
// notification delivery/retry/digesting. It is a minute-granularity,
// cron-style dispatcher, not a per-tenant reconciliation loop: each job
// runs on its own interval and is retried with backoff if a tick errors.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jaxxstorm/landlord/internal/config"
)

// Job is one periodic unit of work. Run reports how many records it acted
// on, for logging, and an error if the tick should be retried with backoff.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) (int, error)
}

// Scheduler ticks each Job on its own interval and dispatches due jobs
// through a worker pool backed by a rate-limited retry queue.
type Scheduler struct {
	jobs   []Job
	byName map[string]Job
	queue  *queue
	config config.SchedulerConfig
	logger *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	retryMu    sync.Mutex
	retryCount map[string]int
}

// New builds a Scheduler over the given jobs. Job names must be unique.
func New(jobs []Job, cfg config.SchedulerConfig, logger *zap.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	byName := make(map[string]Job, len(jobs))
	for _, j := range jobs {
		byName[j.Name] = j
	}
	return &Scheduler{
		jobs:       jobs,
		byName:     byName,
		queue:      newQueue(),
		config:     cfg,
		logger:     logger.With(zap.String("component", "scheduler")),
		ctx:        ctx,
		cancel:     cancel,
		retryCount: make(map[string]int),
	}
}

// Start launches one ticker goroutine per job plus the configured number
// of worker goroutines draining the dispatch queue.
func (s *Scheduler) Start() error {
	if !s.config.Enabled {
		s.logger.Info("scheduler disabled, not starting")
		return nil
	}

	s.logger.Info("starting scheduler", zap.Int("jobs", len(s.jobs)), zap.Int("workers", s.config.Workers))

	for _, j := range s.jobs {
		s.wg.Add(1)
		go s.tickLoop(j)
	}

	for i := 0; i < s.config.Workers; i++ {
		s.wg.Add(1)
		go s.runWorker(i)
	}

	return nil
}

// Stop gracefully shuts down all ticker and worker goroutines.
func (s *Scheduler) Stop() error {
	s.logger.Info("stopping scheduler", zap.Int("queue_depth", s.queue.Len()))
	s.cancel()
	s.queue.ShutDown()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("scheduler stopped gracefully")
		return nil
	case <-time.After(s.config.ShutdownTimeout):
		s.logger.Warn("scheduler shutdown timeout exceeded, forcing exit")
		return fmt.Errorf("shutdown timeout exceeded")
	}
}

func (s *Scheduler) tickLoop(j Job) {
	defer s.wg.Done()

	ticker := time.NewTicker(j.Interval)
	defer ticker.Stop()

	s.logger.Info("job tick loop started", zap.String("job", j.Name), zap.Duration("interval", j.Interval))

	for {
		select {
		case <-s.ctx.Done():
			s.logger.Info("job tick loop stopped", zap.String("job", j.Name))
			return
		case <-ticker.C:
			s.queue.Add(j.Name)
		}
	}
}

func (s *Scheduler) runWorker(id int) {
	defer s.wg.Done()

	s.logger.Info("worker started", zap.Int("worker_id", id))

	for {
		item, shutdown := s.queue.Get()
		if shutdown {
			s.logger.Info("worker stopped", zap.Int("worker_id", id))
			return
		}
		s.processItem(item)
	}
}

func (s *Scheduler) processItem(item interface{}) {
	defer s.queue.Done(item)

	name, ok := item.(string)
	if !ok {
		s.logger.Error("invalid item type in queue", zap.Any("item", item))
		return
	}

	j, ok := s.byName[name]
	if !ok {
		s.logger.Error("unknown job in queue", zap.String("job", name))
		s.queue.Forget(item)
		return
	}

	if err := s.runJob(j); err != nil {
		s.handleJobError(item, name, err)
		return
	}
	s.queue.Forget(item)
	s.resetRetryCount(name)
}

func (s *Scheduler) runJob(j Job) error {
	ctx, cancel := context.WithTimeout(s.ctx, s.config.JobTimeout)
	defer cancel()

	start := time.Now()
	count, err := j.Run(ctx)
	duration := time.Since(start)
	if err != nil {
		s.logger.Error("job run failed", zap.String("job", j.Name), zap.Duration("duration", duration), zap.Error(err))
		return err
	}
	s.logger.Info("job run completed", zap.String("job", j.Name), zap.Int("count", count), zap.Duration("duration", duration))
	return nil
}

func (s *Scheduler) handleJobError(item interface{}, name string, err error) {
	retryCount := s.incrementRetryCount(name)
	if retryCount >= s.config.MaxRetries {
		s.logger.Error("job exceeded max retries, dropping until next scheduled tick",
			zap.String("job", name), zap.Int("retry_count", retryCount), zap.Error(err))
		s.queue.Forget(item)
		s.resetRetryCount(name)
		return
	}
	s.queue.AddRateLimited(item)
}

func (s *Scheduler) incrementRetryCount(name string) int {
	s.retryMu.Lock()
	defer s.retryMu.Unlock()
	s.retryCount[name]++
	return s.retryCount[name]
}

func (s *Scheduler) resetRetryCount(name string) {
	s.retryMu.Lock()
	defer s.retryMu.Unlock()
	delete(s.retryCount, name)
}

// IsReady reports whether the dispatch queue is accepting work.
func (s *Scheduler) IsReady() bool {
	return s.queue != nil && !s.queue.ShuttingDown()
}
