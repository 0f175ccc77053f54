// internal/app/system/workers/outboxdeliverer.go
package workers

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/dalemusser/helplink/internal/app/notify"
	outboxstore "github.com/dalemusser/helplink/internal/app/store/outbox"
	"github.com/dalemusser/helplink/internal/app/system/metrics"
	"github.com/dalemusser/helplink/internal/domain/models"
	"go.uber.org/zap"
)

// OutboxDeliverer is a background worker that drains the notification outbox
// and posts each item to the push provider.
type OutboxDeliverer struct {
	outbox      *outboxstore.Store
	pusher      notify.Pusher
	log         *zap.Logger
	interval    time.Duration
	maxAttempts int
	batchSize   int
	stopCh      chan struct{}
	wg          sync.WaitGroup
}

// NewOutboxDeliverer creates a new outbox deliverer worker.
//
// Parameters:
//   - outbox: the notification outbox store
//   - pusher: the push provider client
//   - logger: zap logger for logging
//   - interval: how often to poll for due items (e.g., 5 seconds)
//   - maxAttempts: attempts before an item is retired as failed
func NewOutboxDeliverer(outbox *outboxstore.Store, pusher notify.Pusher, logger *zap.Logger, interval time.Duration, maxAttempts int) *OutboxDeliverer {
	return &OutboxDeliverer{
		outbox:      outbox,
		pusher:      pusher,
		log:         logger,
		interval:    interval,
		maxAttempts: maxAttempts,
		batchSize:   50,
		stopCh:      make(chan struct{}),
	}
}

// Start begins the background delivery loop.
func (w *OutboxDeliverer) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("outbox deliverer started",
		zap.Duration("interval", w.interval),
		zap.Int("max_attempts", w.maxAttempts))
}

// Stop signals the worker to stop and waits for it to finish.
func (w *OutboxDeliverer) Stop() {
	close(w.stopCh)
	w.wg.Wait()
	w.log.Info("outbox deliverer stopped")
}

func (w *OutboxDeliverer) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.deliverDue()
		}
	}
}

func (w *OutboxDeliverer) deliverDue() {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	// The claim lease doubles as a crash guard: items claimed by a deliverer
	// that died become due again once the lease lapses.
	items, err := w.outbox.ClaimDue(ctx, time.Now().UTC(), 2*time.Minute, w.batchSize)
	if err != nil {
		w.log.Error("claim due notifications", zap.Error(err))
	}

	for i := range items {
		w.deliver(ctx, &items[i])
	}
}

func (w *OutboxDeliverer) deliver(ctx context.Context, item *models.OutboxItem) {
	err := w.pusher.Push(ctx, item)
	if err == nil {
		if merr := w.outbox.MarkSent(ctx, item.ID); merr != nil {
			w.log.Error("mark notification sent", zap.Error(merr))
			return
		}
		metrics.NotificationsDelivered.Inc()
		return
	}

	if item.Attempts >= w.maxAttempts {
		w.log.Warn("notification failed permanently",
			zap.String("id", item.ID.Hex()),
			zap.Int("attempts", item.Attempts),
			zap.Error(err))
		if merr := w.outbox.MarkFailed(ctx, item.ID, err.Error()); merr != nil {
			w.log.Error("mark notification failed", zap.Error(merr))
		}
		metrics.NotificationsFailed.Inc()
		return
	}

	next := time.Now().UTC().Add(backoff(item.Attempts))
	w.log.Warn("notification delivery failed, will retry",
		zap.String("id", item.ID.Hex()),
		zap.Int("attempts", item.Attempts),
		zap.Time("next_attempt", next),
		zap.Error(err))
	if merr := w.outbox.ScheduleRetry(ctx, item.ID, next, err.Error()); merr != nil {
		w.log.Error("schedule notification retry", zap.Error(merr))
	}
}

// backoff returns the delay before the next attempt: 30s, 1m, 2m, 4m...
// capped at 15 minutes.
func backoff(attempts int) time.Duration {
	d := time.Duration(math.Pow(2, float64(attempts-1))) * 30 * time.Second
	if d > 15*time.Minute {
		d = 15 * time.Minute
	}
	return d
}
