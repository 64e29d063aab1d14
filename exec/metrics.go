package exec

import "github.com/prometheus/client_golang/prometheus"

// Metrics are the Executor's prometheus instrumentation - task throughput
// and latency by kind. NewMetrics registers the collectors only when given a
// registry; New passes nil, so repeated Executor construction in tests never
// registers duplicates.
type Metrics struct {
	TasksStarted  *prometheus.CounterVec
	TasksFinished *prometheus.CounterVec
	TaskDuration  *prometheus.HistogramVec
	WorkersBusy   prometheus.Gauge
}

func NewMetrics(registry prometheus.Registerer) *Metrics {
	m := &Metrics{
		TasksStarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "madats",
			Subsystem: "executor",
			Name:      "tasks_started_total",
			Help:      "Number of tasks submitted for execution, by kind.",
		}, []string{"kind"}),
		TasksFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "madats",
			Subsystem: "executor",
			Name:      "tasks_finished_total",
			Help:      "Number of tasks that finished execution, by kind and outcome.",
		}, []string{"kind", "outcome"}),
		TaskDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "madats",
			Subsystem: "executor",
			Name:      "task_duration_seconds",
			Help:      "Task execution wall-clock time, by kind.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
		WorkersBusy: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "madats",
			Subsystem: "executor",
			Name:      "workers_busy",
			Help:      "Number of worker slots currently executing a task.",
		}),
	}
	if registry != nil {
		registry.MustRegister(m.TasksStarted, m.TasksFinished, m.TaskDuration, m.WorkersBusy)
	}
	return m
}
