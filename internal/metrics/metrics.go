// Package metrics exposes read-only scheduler counters as Prometheus
// collectors. A nil *Collector is valid and records nothing.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Label values for task outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Collector groups the scheduler metrics of one engine.
type Collector struct {
	tasksExecuted          *prometheus.CounterVec
	escalations            *prometheus.CounterVec
	resourcesSourced       *prometheus.CounterVec
	supervisionTransitions *prometheus.CounterVec
	threadsActive          prometheus.Gauge
}

// New creates a collector and registers it on reg. A nil reg leaves the
// collectors unregistered, which is handy in tests.
func New(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		tasksExecuted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "burstflow_tasks_executed_total",
				Help: "Total number of task executions, by task and outcome.",
			},
			[]string{"task", "outcome"},
		),
		escalations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "burstflow_escalations_total",
				Help: "Total number of escalations, by the level that resolved them.",
			},
			[]string{"level"},
		),
		resourcesSourced: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "burstflow_resources_sourced_total",
				Help: "Total number of resource containers that became ready.",
			},
			[]string{"resource"},
		),
		supervisionTransitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "burstflow_supervision_transitions_total",
				Help: "Total number of supervision activations and deactivations.",
			},
			[]string{"aspect", "action"},
		),
		threadsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "burstflow_threads_active",
				Help: "Number of live execution contexts.",
			},
		),
	}
	if reg == nil {
		return c, nil
	}
	for _, col := range []prometheus.Collector{
		c.tasksExecuted, c.escalations, c.resourcesSourced, c.supervisionTransitions, c.threadsActive,
	} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// TaskExecuted counts one EXECUTE phase.
func (c *Collector) TaskExecuted(task, outcome string) {
	if c == nil {
		return
	}
	c.tasksExecuted.WithLabelValues(task, outcome).Inc()
}

// Escalated counts one escalation resolved at level.
func (c *Collector) Escalated(level string) {
	if c == nil {
		return
	}
	c.escalations.WithLabelValues(level).Inc()
}

// ResourceSourced counts one container becoming ready.
func (c *Collector) ResourceSourced(resource string) {
	if c == nil {
		return
	}
	c.resourcesSourced.WithLabelValues(resource).Inc()
}

// SupervisionTransition counts one supervision action.
func (c *Collector) SupervisionTransition(aspect, action string) {
	if c == nil {
		return
	}
	c.supervisionTransitions.WithLabelValues(aspect, action).Inc()
}

// ThreadStarted and ThreadFinished track live execution contexts.
func (c *Collector) ThreadStarted() {
	if c == nil {
		return
	}
	c.threadsActive.Inc()
}

func (c *Collector) ThreadFinished() {
	if c == nil {
		return
	}
	c.threadsActive.Dec()
}
