package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/sensei-service/sensei_service/pkg/logger"
)

// Scheduler runs periodic background jobs
type Scheduler struct {
	cron   *cron.Cron
	logger *logger.Logger
}

// New creates a scheduler. Jobs run with second-less standard cron specs
// plus the @every shortcuts.
func New(logger *logger.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		logger: logger,
	}
}

// AddJob schedules fn under the given cron spec
func (s *Scheduler) AddJob(spec, name string, fn func(ctx context.Context) error) error {
	_, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()

		if err := fn(ctx); err != nil {
			s.logger.Warnw("scheduled job failed", "job", name, "error", err)
			return
		}
		s.logger.Debugw("scheduled job completed", "job", name)
	})
	return err
}

// Start launches the scheduler in its own goroutine
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling and waits for running jobs to finish
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
