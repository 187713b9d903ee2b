package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricsNamespace = "tictactoe"
	qlearningSubsys  = "qlearning"

	PhaseTraining   = "training"
	PhaseEvaluation = "evaluation"
)

// Recorder receives the outcome of every finished game.
type Recorder interface {
	ObserveEpisode(phase, result string)
	SetValueTableSize(entries int)
}

// Training holds the learning collectors on its own registry.
type Training struct {
	registry *prometheus.Registry

	episodesTotal  *prometheus.CounterVec
	resultsTotal   *prometheus.CounterVec
	valueTableSize prometheus.Gauge
}

func NewTraining() *Training {
	registry := prometheus.NewRegistry()

	episodesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: qlearningSubsys,
			Name:      "episodes_total",
			Help:      "Finished games by phase",
		},
		[]string{"phase"},
	)

	resultsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: qlearningSubsys,
			Name:      "episode_results_total",
			Help:      "Finished games by phase and result from the agent's side",
		},
		[]string{"phase", "result"},
	)

	valueTableSize := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: qlearningSubsys,
			Name:      "value_table_entries",
			Help:      "Number of (state, action) pairs in the agent's value table",
		},
	)

	registry.MustRegister(episodesTotal, resultsTotal, valueTableSize)

	return &Training{
		registry:       registry,
		episodesTotal:  episodesTotal,
		resultsTotal:   resultsTotal,
		valueTableSize: valueTableSize,
	}
}

func (that *Training) Registry() *prometheus.Registry {
	return that.registry
}

func (that *Training) ObserveEpisode(phase, result string) {
	that.episodesTotal.WithLabelValues(phase).Inc()
	that.resultsTotal.WithLabelValues(phase, result).Inc()
}

func (that *Training) SetValueTableSize(entries int) {
	that.valueTableSize.Set(float64(entries))
}

type noop struct{}

// NewNoop - a Recorder that drops everything.
func NewNoop() Recorder {
	return noop{}
}

func (noop) ObserveEpisode(string, string) {}
func (noop) SetValueTableSize(int)         {}
