// Package observability exposes a process-wide Prometheus registry and
// an append-only audit log for the runtime host. Both are package-level
// singletons so any pkg/ component can record against them without
// threading a handle through every constructor.
package observability

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type moduleMetrics struct {
	registry *prometheus.Registry

	queueSize     *prometheus.GaugeVec
	enqueueTotal  *prometheus.CounterVec
	dequeueTotal  *prometheus.CounterVec
	taskDuration  *prometheus.HistogramVec

	childrenActive        prometheus.Gauge
	signalDispatchTotal   *prometheus.CounterVec
	signalDispatchErrors  *prometheus.CounterVec
	signalDispatchSeconds *prometheus.HistogramVec

	actionExecutionTotal  *prometheus.CounterVec
	actionExecutionErrors *prometheus.CounterVec
	actionExecutionSeconds *prometheus.HistogramVec

	hookExecutionTotal  *prometheus.CounterVec
	hookExecutionErrors *prometheus.CounterVec
}

var (
	metricsOnce sync.Once
	m           *moduleMetrics
)

func getMetrics() *moduleMetrics {
	metricsOnce.Do(func() {
		m = newModuleMetrics()
	})
	return m
}

func newModuleMetrics() *moduleMetrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &moduleMetrics{
		registry: registry,

		queueSize: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "runtime",
			Subsystem: "queue",
			Name:      "size",
			Help:      "Current number of queued items per lane.",
		}, []string{"lane"}),

		enqueueTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "runtime",
			Subsystem: "queue",
			Name:      "enqueue_total",
			Help:      "Total items enqueued per lane.",
		}, []string{"lane"}),

		dequeueTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "runtime",
			Subsystem: "queue",
			Name:      "dequeue_total",
			Help:      "Total items dequeued per lane, labeled by success.",
		}, []string{"lane", "success"}),

		taskDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "runtime",
			Subsystem: "queue",
			Name:      "task_duration_seconds",
			Help:      "Time spent processing a queued task, per lane.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"lane"}),

		childrenActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "runtime",
			Subsystem: "node",
			Name:      "children_active",
			Help:      "Current number of live child runtime servers.",
		}),

		signalDispatchTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "runtime",
			Subsystem: "signal",
			Name:      "dispatch_total",
			Help:      "Total signals dispatched to an agent, by signal type.",
		}, []string{"type"}),

		signalDispatchErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "runtime",
			Subsystem: "signal",
			Name:      "dispatch_errors_total",
			Help:      "Total signal dispatch failures, by signal type.",
		}, []string{"type"}),

		signalDispatchSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "runtime",
			Subsystem: "signal",
			Name:      "dispatch_duration_seconds",
			Help:      "Time spent dispatching a signal through an agent's CmdFunc.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"type"}),

		actionExecutionTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "runtime",
			Subsystem: "action",
			Name:      "execution_total",
			Help:      "Total action executions, by action id.",
		}, []string{"action"}),

		actionExecutionErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "runtime",
			Subsystem: "action",
			Name:      "execution_errors_total",
			Help:      "Total action execution failures, by action id.",
		}, []string{"action"}),

		actionExecutionSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "runtime",
			Subsystem: "action",
			Name:      "execution_duration_seconds",
			Help:      "Time spent executing an action, by action id.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"action"}),

		hookExecutionTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "runtime",
			Subsystem: "hooks",
			Name:      "execution_total",
			Help:      "Total lifecycle hook executions, by event.",
		}, []string{"event"}),

		hookExecutionErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "runtime",
			Subsystem: "hooks",
			Name:      "execution_errors_total",
			Help:      "Total lifecycle hook execution failures, by event.",
		}, []string{"event"}),
	}
}

// EnsureRegistered forces the singleton registry to be created. Callers
// that only read gauges/counters elsewhere don't normally need this;
// it exists so startup code can fail fast if metric registration ever
// panics on duplicate collectors.
func EnsureRegistered() {
	getMetrics()
}

// MetricsHandler returns an http.Handler serving the registry in the
// Prometheus text exposition format, for mounting at /metrics.
func MetricsHandler() http.Handler {
	metrics := getMetrics()
	return promhttp.HandlerFor(metrics.registry, promhttp.HandlerOpts{})
}

// RecordQueueEnqueue records one item entering lane's queue.
func RecordQueueEnqueue(lane string, queueSize int) {
	metrics := getMetrics()
	metrics.enqueueTotal.WithLabelValues(lane).Inc()
	metrics.queueSize.WithLabelValues(lane).Set(float64(queueSize))
}

// RecordQueueCompletion records one item finishing processing in lane's
// queue, with its outcome and the queue's size immediately after.
func RecordQueueCompletion(lane string, duration time.Duration, success bool, queueSize int) {
	metrics := getMetrics()
	successLabel := "true"
	if !success {
		successLabel = "false"
	}
	metrics.dequeueTotal.WithLabelValues(lane, successLabel).Inc()
	metrics.taskDuration.WithLabelValues(lane).Observe(duration.Seconds())
	metrics.queueSize.WithLabelValues(lane).Set(float64(queueSize))
}

// SetQueueSize sets lane's queue size gauge directly, used when a queue
// is drained or reset outside the normal enqueue/dequeue path.
func SetQueueSize(lane string, queueSize int) {
	getMetrics().queueSize.WithLabelValues(lane).Set(float64(queueSize))
}

// SetChildrenActive sets the gauge tracking live child runtime servers
// under a node.Tree.
func SetChildrenActive(count int) {
	getMetrics().childrenActive.Set(float64(count))
}

// RecordSignalDispatch records one signal dispatch through an agent's
// CmdFunc, with its outcome and latency.
func RecordSignalDispatch(signalType string, duration time.Duration, err error) {
	metrics := getMetrics()
	metrics.signalDispatchTotal.WithLabelValues(signalType).Inc()
	metrics.signalDispatchSeconds.WithLabelValues(signalType).Observe(duration.Seconds())
	if err != nil {
		metrics.signalDispatchErrors.WithLabelValues(signalType).Inc()
	}
}

// RecordActionExecution records one action execution, with its outcome
// and latency.
func RecordActionExecution(actionID string, duration time.Duration, err error) {
	metrics := getMetrics()
	metrics.actionExecutionTotal.WithLabelValues(actionID).Inc()
	metrics.actionExecutionSeconds.WithLabelValues(actionID).Observe(duration.Seconds())
	if err != nil {
		metrics.actionExecutionErrors.WithLabelValues(actionID).Inc()
	}
}

// RecordHookExecution records one lifecycle hook execution for event.
func RecordHookExecution(event string, err error) {
	metrics := getMetrics()
	metrics.hookExecutionTotal.WithLabelValues(event).Inc()
	if err != nil {
		metrics.hookExecutionErrors.WithLabelValues(event).Inc()
	}
}
