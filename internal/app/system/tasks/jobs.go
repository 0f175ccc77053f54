// internal/app/system/tasks/jobs.go
package tasks

import (
	"context"
	"time"

	eventstore "github.com/dalemusser/helplink/internal/app/store/events"
	"go.uber.org/zap"
)

// EventStatusSweepJob creates a job that advances volunteer events through
// their time-driven statuses: upcoming events whose start time has passed
// become ongoing, and ongoing events past their window become completed.
func EventStatusSweepJob(events *eventstore.Store, logger *zap.Logger) Job {
	return Job{
		Name: "event-status-sweep",
		Spec: "*/5 * * * *", // every five minutes
		Run: func(ctx context.Context) error {
			advanced, err := events.AdvanceStatuses(ctx, time.Now().UTC())
			if err != nil {
				return err
			}
			if advanced > 0 {
				logger.Info("advanced event statuses", zap.Int64("count", advanced))
			}
			return nil
		},
	}
}
