// Package metrics defines and registers the custom Prometheus metrics of the
// multirole auth service. HTTP request metrics come from the echoprometheus
// middleware under the same namespace.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const Namespace = "multirole_auth"

// ── Authentication metrics ───────────────────────────────────────────────────

// RegistrationsTotal counts registration attempts.
// Label:
//   - outcome: "created", "username_taken", "role_not_found", "invalid", "error"
var RegistrationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "registrations_total",
		Help:      "Total number of registration attempts, by outcome.",
	},
	[]string{"outcome"},
)

// LoginsTotal counts credential checks from the login endpoint and the Basic
// gate.
// Labels:
//   - source: "login" or "basic"
//   - outcome: "success", "invalid_credentials", "disabled", "locked", "error"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "logins_total",
		Help:      "Total number of credential checks, by source and outcome.",
	},
	[]string{"source", "outcome"},
)

// AuthorizationDecisionsTotal counts decisions of the role engine.
// Labels:
//   - role: the required role
//   - decision: "allow", "deny", "unauthenticated"
var AuthorizationDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "authorization_decisions_total",
		Help:      "Total number of authorization decisions, by required role and verdict.",
	},
	[]string{"role", "decision"},
)

// HashDuration measures time spent inside the password hasher.
// Label:
//   - op: "hash" or "verify"
var HashDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      "password_hash_duration_seconds",
		Help:      "Duration of password hashing and verification.",
		Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
	},
	[]string{"op"},
)

// ── Cache metrics ─────────────────────────────────────────────────────────────

// RoleCacheTotal counts role cache lookups.
// Label:
//   - result: "hit", "miss" or "error"
var RoleCacheTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "role_cache_lookups_total",
		Help:      "Total number of role cache lookups, labelled by result.",
	},
	[]string{"result"},
)

// ObserveHash has the shape of queue.Observer.
func ObserveHash(op string, d time.Duration) {
	HashDuration.WithLabelValues(op).Observe(d.Seconds())
}

// CountRoleCache has the shape of the role cache's lookup callback.
func CountRoleCache(result string) {
	RoleCacheTotal.WithLabelValues(result).Inc()
}
