// Package agentmetrics holds the agent's own Prometheus instruments.
// Every instrument is registered on a private registry so tests can build as
// many instances as they like.
package agentmetrics

import "github.com/prometheus/client_golang/prometheus"

// Command outcomes used as the "outcome" label of CommandsTotal.
const (
	OutcomeSuccess  = "success"
	OutcomeFailure  = "failure"
	OutcomeTimeout  = "timeout"
	OutcomeStartErr = "start_error"
)

// Metrics groups the agent's self-observability instruments.
type Metrics struct {
	Registry *prometheus.Registry

	// ProbeErrors counts failed probe runs, labelled by probe name.
	ProbeErrors *prometheus.CounterVec

	// CollectionDuration observes one full collection pass.
	CollectionDuration prometheus.Histogram

	// CommandsTotal counts executed commands by outcome.
	CommandsTotal *prometheus.CounterVec

	// CommandDuration observes wall-clock command run time.
	CommandDuration prometheus.Histogram

	// TransportAttemptFailures counts individual failed attempts, labelled by path.
	TransportAttemptFailures *prometheus.CounterVec

	// TransportExhausted counts calls that failed every attempt, labelled by path.
	TransportExhausted *prometheus.CounterVec

	// Ticks counts scheduler ticks that spawned a work unit.
	Ticks prometheus.Counter
}

// New creates and registers all agent instruments.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		Registry: reg,
		ProbeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "agent_probe_errors_total",
			Help: "Total probe failures",
		}, []string{"probe"}),
		CollectionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "agent_collection_duration_seconds",
			Help:    "Duration of a full collection pass",
			Buckets: prometheus.DefBuckets,
		}),
		CommandsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "agent_commands_total",
			Help: "Total executed remote commands",
		}, []string{"outcome"}),
		CommandDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "agent_command_duration_seconds",
			Help:    "Remote command run time",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300, 600},
		}),
		TransportAttemptFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "agent_transport_attempt_failures_total",
			Help: "Failed collector call attempts",
		}, []string{"path"}),
		TransportExhausted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "agent_transport_exhausted_total",
			Help: "Collector calls that failed on every attempt",
		}, []string{"path"}),
		Ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "agent_ticks_total",
			Help: "Scheduler ticks",
		}),
	}

	reg.MustRegister(
		m.ProbeErrors,
		m.CollectionDuration,
		m.CommandsTotal,
		m.CommandDuration,
		m.TransportAttemptFailures,
		m.TransportExhausted,
		m.Ticks,
	)
	return m
}
