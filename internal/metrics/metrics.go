package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "gatherly"

// Registry is the global Prometheus registry for all metrics.
var Registry = prometheus.NewRegistry()

// AppInfo exposes version information as labels (value is always 1).
var AppInfo = promauto.With(Registry).NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "app_info",
		Help:      "Application version information (always set to 1, version info in labels)",
	},
	[]string{"version", "commit", "build_date"},
)

// EventRegistrationsTotal counts event registration attempts by outcome
// (registered, duplicate, not_found, error).
var EventRegistrationsTotal = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "event_registrations_total",
		Help:      "Total event registration attempts by outcome",
	},
	[]string{"outcome"},
)

// FeedbackSubmittedTotal counts accepted feedback submissions by rating.
var FeedbackSubmittedTotal = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "feedback_submitted_total",
		Help:      "Total accepted feedback submissions by rating",
	},
	[]string{"rating"},
)

// UsersRegisteredTotal counts created user accounts.
var UsersRegisteredTotal = promauto.With(Registry).NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "users_registered_total",
		Help:      "Total user accounts created",
	},
)

// Init sets version info and registers runtime collectors.
func Init(version, commit, buildDate string) {
	AppInfo.WithLabelValues(version, commit, buildDate).Set(1)
	Registry.MustRegister(collectors.NewGoCollector())
	Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
}
