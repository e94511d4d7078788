package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "automator"

// Metrics holds the Prometheus collectors of the group service.
type Metrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	groups     *prometheus.GaugeVec
}

// NewMetrics creates the collectors and registers them with reg.
// Registration panics on duplicates, like prometheus.MustRegister.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "group_operations_total",
				Help:      "Total number of group service operations by outcome",
			},
			[]string{"operation", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "group_operation_duration_seconds",
				Help:      "Duration of group service operations",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		groups: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "recipe_groups",
				Help:      "Number of condition groups stored per recipe after the last mutation",
			},
			[]string{"recipe_id"},
		),
	}
	reg.MustRegister(m.operations, m.duration, m.groups)
	return m
}

// Observe records one finished operation.
func (m *Metrics) Observe(operation string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(operation, string(Classify(err))).Inc()
	m.duration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// SetGroupCount records the collection size of a recipe.
func (m *Metrics) SetGroupCount(recipeID string, n int) {
	if m == nil {
		return
	}
	m.groups.WithLabelValues(recipeID).Set(float64(n))
}
