package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	NotificationsEnqueued = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "notifications_enqueued_total",
			Help: "Total notification logs queued for dispatch",
		},
	)

	NotificationsSent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "notifications_sent_total",
			Help: "Total notifications delivered by a provider",
		},
	)

	NotificationsFailed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "notifications_failed_total",
			Help: "Total notifications that failed terminally",
		},
	)

	NotificationsSkipped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "notifications_skipped_total",
			Help: "Total dispatch attempts skipped (non-pending log or inactive template)",
		},
	)

	SendDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name: "notification_send_seconds",
			Help: "Time spent in the provider send call",
		},
	)
)

func Init() {
	prometheus.MustRegister(
		NotificationsEnqueued,
		NotificationsSent,
		NotificationsFailed,
		NotificationsSkipped,
		SendDuration,
	)
}
