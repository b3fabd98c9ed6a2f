package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds nopea's application-specific collectors, kept
// separate from the default global registry so tests can construct an
// isolated telemetry instance.
var Registry = prometheus.NewRegistry()

var (
	// DeployTotal counts every orchestrator run by outcome and strategy.
	DeployTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nopea",
			Subsystem: "deploy",
			Name:      "total",
			Help:      "Total number of deploy runs, by status and strategy.",
		},
		[]string{"status", "strategy"},
	)

	// DeployDurationSeconds tracks run latency.
	DeployDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "nopea",
			Subsystem: "deploy",
			Name:      "duration_seconds",
			Help:      "Duration of deploy runs.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		},
		[]string{"status", "strategy"},
	)

	// GraphNodes and GraphRelationships reflect the memory service's
	// live graph size after every mutation the decay tick observes.
	GraphNodes = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "nopea",
			Subsystem: "graph",
			Name:      "nodes",
			Help:      "Current number of live knowledge-graph nodes.",
		},
	)
	GraphRelationships = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "nopea",
			Subsystem: "graph",
			Name:      "relationships",
			Help:      "Current number of live knowledge-graph relationships.",
		},
	)

	// GraphDecayTotal counts decay ticks, so operators can see whether
	// the memory service is still ticking.
	GraphDecayTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "nopea",
			Subsystem: "graph",
			Name:      "decay_total",
			Help:      "Total number of decay ticks applied to the knowledge graph.",
		},
	)

	// AgentQueueFullTotal counts queue_full rejections, by service.
	AgentQueueFullTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nopea",
			Subsystem: "agent",
			Name:      "queue_full_total",
			Help:      "Total number of deploys rejected with queue_full, by service.",
		},
		[]string{"service"},
	)

	// AgentCrashTotal counts worker_crash events, by service.
	AgentCrashTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nopea",
			Subsystem: "agent",
			Name:      "crash_total",
			Help:      "Total number of deploy worker crashes, by service.",
		},
		[]string{"service"},
	)
)

func init() {
	Registry.MustRegister(DeployTotal, DeployDurationSeconds, GraphNodes, GraphRelationships, GraphDecayTotal, AgentQueueFullTotal, AgentCrashTotal)
}

// Handler returns the HTTP handler serving Registry in the Prometheus
// exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
