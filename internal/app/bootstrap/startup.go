// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/helplink/internal/app/notify"
	eventstore "github.com/dalemusser/helplink/internal/app/store/events"
	outboxstore "github.com/dalemusser/helplink/internal/app/store/outbox"
	"github.com/dalemusser/helplink/internal/app/system/tasks"
	"github.com/dalemusser/helplink/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// runtime holds the long-lived pieces created during Startup that
// BuildHandler and Shutdown need: the notification dispatcher, the outbox
// deliverer, and the job scheduler.
var runtime struct {
	dispatcher *notify.Dispatcher
	deliverer  *workers.OutboxDeliverer
	scheduler  *tasks.Scheduler
}

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built. HelpLink
// uses it to start the notification deliverer and the scheduled jobs.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	db := deps.HelpLinkMongoDatabase
	outbox := outboxstore.New(db)

	runtime.dispatcher = notify.NewDispatcher(outbox, logger)

	var pusher notify.Pusher
	if appCfg.OneSignalAppID != "" {
		pusher = notify.NewOneSignalClient(appCfg.OneSignalAppID, appCfg.OneSignalAPIKey, logger)
	} else {
		logger.Warn("onesignal credentials not configured; notifications will be logged and dropped")
		pusher = notify.NopPusher{Log: logger}
	}

	runtime.deliverer = workers.NewOutboxDeliverer(outbox, pusher, logger,
		appCfg.NotifyInterval, appCfg.NotifyMaxAttempts)
	runtime.deliverer.Start()

	runtime.scheduler = tasks.NewScheduler(logger)
	if err := runtime.scheduler.Register(tasks.EventStatusSweepJob(eventstore.New(db), logger)); err != nil {
		return err
	}
	runtime.scheduler.Start()

	return nil
}
