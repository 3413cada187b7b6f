// Package metrics defines and registers all custom Prometheus metrics for the
// CourseSphere API. It is the single source of truth for metric names,
// labels, and help strings.
//
// Collectors register with the default Prometheus registry on import; the
// HTTP layer exposes them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "coursesphere"

// ── Auth metrics ──────────────────────────────────────────────────────────────

// AuthAttemptsTotal counts login and registration attempts.
// Labels:
//   - action: "login" or "register"
//   - result: "success", "rejected", "invalid", "conflict"
var AuthAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_attempts_total",
		Help:      "Total number of login and registration attempts, by outcome.",
	},
	[]string{"action", "result"},
)

// ── Invitation metrics ────────────────────────────────────────────────────────

// InvitationTransitionsTotal counts invitation lifecycle operations.
// Labels:
//   - action: "create", "accept", "decline"
//   - result: "success" or a failure class ("conflict", "forbidden", "not_found", "invalid", "error")
var InvitationTransitionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "invitation_transitions_total",
		Help:      "Total number of invitation create/accept/decline operations, by outcome.",
	},
	[]string{"action", "result"},
)

// ── Course / lesson metrics ───────────────────────────────────────────────────

// CourseMutationsTotal counts successful course mutations.
// Label:
//   - action: "create", "update", "delete", "add_instructor", "remove_instructor"
var CourseMutationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "course_mutations_total",
		Help:      "Total number of successful course mutations, by action.",
	},
	[]string{"action"},
)

// LessonMutationsTotal counts successful lesson mutations.
// Label:
//   - action: "create", "update", "delete"
var LessonMutationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "lesson_mutations_total",
		Help:      "Total number of successful lesson mutations, by action.",
	},
	[]string{"action"},
)

// ── Serializer metrics ────────────────────────────────────────────────────────

// SerializerQueueDepth tracks jobs waiting in each serializer shard.
// Label:
//   - shard: numeric shard index (e.g. "0", "1", …)
var SerializerQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "serializer_queue_depth",
		Help:      "Current number of mutations waiting in each serializer shard.",
	},
	[]string{"shard"},
)

// SerializedDuration measures how long a serialized mutation holds its key,
// including the wait for it.
// Label:
//   - backend: "local" or "redis"
var SerializedDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "serialized_mutation_duration_seconds",
		Help:      "Duration of a serialized mutation from submission to completion.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"backend"},
)

// ── Recorder ──────────────────────────────────────────────────────────────────

// Recorder feeds the collectors above. It satisfies ports.Metrics.
type Recorder struct{}

func NewRecorder() Recorder { return Recorder{} }

func (Recorder) AuthAttempt(action, result string) {
	AuthAttemptsTotal.WithLabelValues(action, result).Inc()
}

func (Recorder) InvitationTransition(action, result string) {
	InvitationTransitionsTotal.WithLabelValues(action, result).Inc()
}

func (Recorder) CourseMutation(action string) {
	CourseMutationsTotal.WithLabelValues(action).Inc()
}

func (Recorder) LessonMutation(action string) {
	LessonMutationsTotal.WithLabelValues(action).Inc()
}
