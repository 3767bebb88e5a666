package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FeedbackLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedback_lookups_total",
			Help: "Feedback token lookups by result",
		},
		[]string{"result"},
	)

	FeedbackOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedback_outcomes_total",
			Help: "Persisted feedback outcomes by sentiment and result",
		},
		[]string{"sentiment", "result"},
	)

	ManagerAlerts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "manager_alerts_total",
			Help: "Manager alert deliveries by channel and result",
		},
		[]string{"channel", "result"},
	)

	NotificationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "notification_send_duration_seconds",
			Help: "Duration of outbound notification calls in seconds",
		},
		[]string{"provider", "channel"},
	)
)
