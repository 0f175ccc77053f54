package notify

import (
	"context"

	outboxstore "github.com/dalemusser/helplink/internal/app/store/outbox"
	"github.com/dalemusser/helplink/internal/domain/models"
	"go.uber.org/zap"
)

// Dispatcher enqueues notifications into the outbox. It never returns an
// error to handlers: a notification that cannot be queued is logged and
// dropped, because the state change it announces has already committed.
type Dispatcher struct {
	outbox *outboxstore.Store
	log    *zap.Logger
}

func NewDispatcher(outbox *outboxstore.Store, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{outbox: outbox, log: logger}
}

// Broadcast queues a notification for everyone except the acting user.
func (d *Dispatcher) Broadcast(ctx context.Context, exceptUID, title, body string, data map[string]string) {
	d.enqueue(ctx, models.Audience{Kind: models.AudienceAllExcept, AuthUID: exceptUID}, title, body, data)
}

// Notify queues a notification for one user.
func (d *Dispatcher) Notify(ctx context.Context, authUID, title, body string, data map[string]string) {
	d.enqueue(ctx, models.Audience{Kind: models.AudienceUser, AuthUID: authUID}, title, body, data)
}

// NopPusher acknowledges items without delivering them. Used when no push
// provider is configured, so the outbox still drains instead of piling up.
type NopPusher struct {
	Log *zap.Logger
}

func (p NopPusher) Push(ctx context.Context, item *models.OutboxItem) error {
	p.Log.Debug("push delivery disabled, dropping notification",
		zap.String("title", item.Title))
	return nil
}

func (d *Dispatcher) enqueue(ctx context.Context, audience models.Audience, title, body string, data map[string]string) {
	item := &models.OutboxItem{
		Audience: audience,
		Title:    title,
		Body:     body,
		Data:     data,
	}
	if err := d.outbox.Enqueue(ctx, item); err != nil {
		d.log.Error("enqueue notification",
			zap.String("title", title),
			zap.String("audience", audience.Kind),
			zap.Error(err))
	}
}
