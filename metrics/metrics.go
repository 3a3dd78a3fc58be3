// Package metrics exposes Prometheus counters for run and execution
// activity. The Collector subscribes to the event bus, so anything the
// core emits after commit shows up here without the stores knowing
// about Prometheus.
package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/caseline/caseline/events"
)

const Namespace = "caseline"

var (
	runsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "runs_created_total",
		Help:      "Number of test runs created, including clones.",
	})

	runsFinishedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "runs_finished_total",
		Help:      "Number of test runs finished, explicitly or automatically.",
	})

	executionsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "executions_created_total",
		Help:      "Number of test executions materialised for runs.",
	})

	transitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "execution_transitions_total",
		Help:      "Number of execution status transitions by from and to status.",
	}, []string{"from", "to"})
)

// RecordRunCreated counts a new run and the executions it materialised.
func RecordRunCreated(executions int) {
	runsCreatedTotal.Inc()
	executionsCreatedTotal.Add(float64(executions))
}

// RecordRunFinished counts a run reaching the finished state.
func RecordRunFinished() {
	runsFinishedTotal.Inc()
}

// RecordTransition counts one execution status transition.
func RecordTransition(from, to string) {
	transitionsTotal.WithLabelValues(from, to).Inc()
}

// Collector translates bus events into counter updates. Register it
// with events.Bus.Subscribe; unknown events are ignored.
type Collector struct{}

// NewCollector creates a Collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Handle implements events.Subscriber.
func (c *Collector) Handle(ctx context.Context, event events.Event) {
	switch e := event.(type) {
	case events.RunCreated:
		RecordRunCreated(e.Executions)
	case events.RunFinished:
		RecordRunFinished()
	case events.ExecutionStatusChanged:
		RecordTransition(e.From, e.To)
	}
}
