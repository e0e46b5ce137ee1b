package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Decisions counts sheet commands by operation, outcome and rejection code.
type Decisions struct {
	// Command outcomes
	Outcomes *prometheus.CounterVec

	// Command latency including storage round trips
	Latency *prometheus.HistogramVec
}

// NewDecisions registers the sheet decision collectors on reg. It returns
// nil when reg is nil.
func NewDecisions(reg prometheus.Registerer) *Decisions {
	if reg == nil {
		return nil
	}
	factory := promauto.With(reg)
	return &Decisions{
		Outcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "magemaker_sheet_decisions_total",
			Help: "Total sheet commands by operation, outcome and rejection code",
		}, []string{"operation", "outcome", "code"}),

		Latency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "magemaker_sheet_operation_duration_seconds",
			Help:    "Duration of sheet operations including storage",
			Buckets: []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"operation"}),
	}
}

// Observe records one finished operation. code is empty for accepted commands.
func (d *Decisions) Observe(operation, outcome, code string, elapsed time.Duration) {
	if d == nil {
		return
	}
	d.Outcomes.WithLabelValues(operation, outcome, code).Inc()
	d.Latency.WithLabelValues(operation).Observe(elapsed.Seconds())
}
