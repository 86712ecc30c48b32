// Package metrics defines the custom Prometheus metrics of the auth API.
// It is the single source of truth for metric names, labels and help strings.
//
// Call Register once at startup, before the HTTP server starts, with the
// registry that backs the /metrics endpoint.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "auth"

// Result label values.
const (
	ResultSuccess            = "success"
	ResultInvalidInput       = "invalid_input"
	ResultPolicyViolation    = "policy_violation"
	ResultDuplicate          = "duplicate"
	ResultNotFound           = "not_found"
	ResultInvalidCredentials = "invalid_credentials"
	ResultThrottled          = "throttled"
	ResultError              = "error"
)

// RegistrationsTotal counts registration attempts.
// Label:
//   - result: one of the Result* values
var RegistrationsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_total",
		Help:      "Total number of registration attempts, by result.",
	},
	[]string{"result"},
)

// LoginsTotal counts login attempts.
// Label:
//   - result: one of the Result* values
var LoginsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// LoginDuration measures how long a login takes, dominated by hash verification.
var LoginDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "login_duration_seconds",
		Help:      "Duration of login requests from decode to response.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"result"},
)

// Register adds every metric to reg. Metrics already registered are skipped,
// so tests can build several routers against one registry.
func Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{RegistrationsTotal, LoginsTotal, LoginDuration} {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	return nil
}
