// internal/app/system/tasks/scheduler.go
package tasks

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Job is a named periodic task. Spec is a cron expression (with seconds
// field support via the scheduler's parser).
type Job struct {
	Name string
	Spec string
	Run  func(ctx context.Context) error
}

// Scheduler runs registered jobs on their cron schedules.
type Scheduler struct {
	cron *cron.Cron
	log  *zap.Logger
}

func NewScheduler(logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithParser(cron.NewParser(
			cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow,
		))),
		log: logger,
	}
}

// Register adds a job. Each run gets its own timeout so a wedged job cannot
// hold a database handle indefinitely.
func (s *Scheduler) Register(job Job) error {
	_, err := s.cron.AddFunc(job.Spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		if err := job.Run(ctx); err != nil {
			s.log.Error("scheduled job failed",
				zap.String("job", job.Name),
				zap.Error(err))
		}
	})
	if err != nil {
		return err
	}
	s.log.Info("scheduled job registered",
		zap.String("job", job.Name),
		zap.String("spec", job.Spec))
	return nil
}

// Start begins running jobs on their schedules.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops the scheduler and waits for in-flight jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info("scheduler stopped")
}
