package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		updatesReceivedTotal,
		throttleDeniedTotal,
		unhandledUpdatesTotal,
		pipelineErrorsTotal,
		usersCreatedTotal,
	)
}

var (
	updatesReceivedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_updates_received_total",
			Help: "Inbound updates per kind (message, callback, other).",
		},
		[]string{"kind"},
	)

	throttleDeniedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_throttle_denied_total",
			Help: "Updates dropped by the throttle guard, per bucket.",
		},
		[]string{"bucket"},
	)

	unhandledUpdatesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bot_unhandled_updates_total",
			Help: "Updates no registered route claimed.",
		},
	)

	pipelineErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bot_pipeline_errors_total",
			Help: "Errors and panics absorbed by the pipeline boundary.",
		},
	)

	usersCreatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bot_users_created_total",
			Help: "Users created on first observed interaction.",
		},
	)
)

func IncUpdateReceived(kind string) {
	updatesReceivedTotal.WithLabelValues(kind).Inc()
}

func IncThrottleDenied(bucket string) {
	throttleDeniedTotal.WithLabelValues(bucket).Inc()
}

func IncUnhandled() {
	unhandledUpdatesTotal.Inc()
}

func IncPipelineError() {
	pipelineErrorsTotal.Inc()
}

func IncUserCreated() {
	usersCreatedTotal.Inc()
}
