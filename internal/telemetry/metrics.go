// Package telemetry provides the prometheus collector for automation metrics
// and the OpenTelemetry tracer provider.
package telemetry

import (
	"net/http"
	"time"

	"github.com/Himanshujchavan/GROQPILOT/pkg/models"
	"github.com/Himanshujchavan/GROQPILOT/pkg/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics implements service.Metrics on a private prometheus registry.
type Metrics struct {
	actions        *prometheus.CounterVec
	actionDuration *prometheus.HistogramVec
	confirmations  *prometheus.CounterVec
	tasksStarted   *prometheus.CounterVec
	tasksFinished  *prometheus.CounterVec
	taskDuration   *prometheus.HistogramVec
	running        *prometheus.GaugeVec
	workflowSteps  *prometheus.CounterVec

	registry *prometheus.Registry
}

var _ service.Metrics = (*Metrics)(nil)

func NewMetrics(namespace string) *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "actions_total",
			Help:      "Provider calls by target, action and outcome.",
		}, []string{"target", "action", "outcome"}),
		actionDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "action_duration_seconds",
			Help:      "Provider call latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"target"}),
		confirmations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "confirmations_required_total",
			Help:      "Requests held back by the risk gate.",
		}, []string{"target", "action"}),
		tasksStarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_started_total",
			Help:      "Background tasks accepted.",
		}, []string{"kind"}),
		tasksFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_finished_total",
			Help:      "Background tasks that reached a terminal status.",
		}, []string{"kind", "status"}),
		taskDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "task_duration_seconds",
			Help:      "Background task wall-clock time.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 300},
		}, []string{"kind"}),
		running: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tasks_running",
			Help:      "Background tasks currently running.",
		}, []string{"kind"}),
		workflowSteps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workflow_steps_total",
			Help:      "Workflow steps by outcome.",
		}, []string{"outcome"}),
	}

	registry.MustRegister(
		m.actions,
		m.actionDuration,
		m.confirmations,
		m.tasksStarted,
		m.tasksFinished,
		m.taskDuration,
		m.running,
		m.workflowSteps,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func outcome(kind service.ErrorKind) string {
	if kind == "" {
		return "success"
	}
	return string(kind)
}

func (m *Metrics) ActionExecuted(target, action string, kind service.ErrorKind, elapsed time.Duration) {
	m.actions.WithLabelValues(target, action, outcome(kind)).Inc()
	m.actionDuration.WithLabelValues(target).Observe(elapsed.Seconds())
}

func (m *Metrics) ConfirmationRequired(target, action string) {
	m.confirmations.WithLabelValues(target, action).Inc()
}

func (m *Metrics) TaskStarted(kind models.TaskKind) {
	m.tasksStarted.WithLabelValues(string(kind)).Inc()
	m.running.WithLabelValues(string(kind)).Inc()
}

func (m *Metrics) TaskFinished(kind models.TaskKind, status models.TaskStatus, elapsed time.Duration) {
	m.tasksFinished.WithLabelValues(string(kind), string(status)).Inc()
	m.taskDuration.WithLabelValues(string(kind)).Observe(elapsed.Seconds())
	m.running.WithLabelValues(string(kind)).Dec()
}

func (m *Metrics) WorkflowStep(success bool) {
	if success {
		m.workflowSteps.WithLabelValues("success").Inc()
		return
	}
	m.workflowSteps.WithLabelValues("failure").Inc()
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
