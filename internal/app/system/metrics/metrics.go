// Package metrics holds the application's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// KarmaAwards counts ledger awards by kind. Duplicate attempts that the
// one-shot guard rejects are not counted.
var KarmaAwards = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "helplink_karma_awards_total",
	Help: "Karma awards written to the ledger, by award kind",
}, []string{"kind"})

// NotificationsDelivered counts outbox items successfully posted.
var NotificationsDelivered = promauto.NewCounter(prometheus.CounterOpts{
	Name: "helplink_notifications_delivered_total",
	Help: "Push notifications delivered by the outbox worker",
})

// NotificationsFailed counts outbox items that exhausted their retries.
var NotificationsFailed = promauto.NewCounter(prometheus.CounterOpts{
	Name: "helplink_notifications_failed_total",
	Help: "Push notifications marked failed after exhausting retries",
})

// ChatConnections tracks live websocket connections on the chat relay.
var ChatConnections = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "helplink_chat_connections",
	Help: "Currently connected chat websocket clients",
})

// ChatMessagesBroadcast counts messages fanned out to chat rooms.
var ChatMessagesBroadcast = promauto.NewCounter(prometheus.CounterOpts{
	Name: "helplink_chat_messages_broadcast_total",
	Help: "Chat messages broadcast to room subscribers after persistence",
})
