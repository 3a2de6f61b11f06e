package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "citizen_admin", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "citizen_admin", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
	RegistryOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "citizen_admin", Name: "registry_operations_total", Help: "Registry operations by action and outcome."},
		[]string{"action", "outcome"},
	)
	AuditWriteFailures = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "citizen_admin", Name: "audit_write_failures_total", Help: "Audit log writes that failed and were dropped."},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
	reg.MustRegister(RegistryOperations)
	reg.MustRegister(AuditWriteFailures)
}
