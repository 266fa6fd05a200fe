package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the campaign registry.
type Metrics struct {
	Created   *prometheus.CounterVec
	Completed prometheus.Counter
	Revealed  prometheus.Counter
}

// New creates a new Metrics instance with all campaign metrics registered.
func New() *Metrics {
	return &Metrics{
		Created: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "veilfund_campaigns_created_total",
			Help: "Total campaigns created by category",
		}, []string{"category"}),
		Completed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "veilfund_campaigns_completed_total",
			Help: "Total campaigns completed",
		}),
		Revealed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "veilfund_campaign_reveals_total",
			Help: "Total campaigns whose final totals were revealed",
		}),
	}
}

// IncCreated records a campaign creation.
func (m *Metrics) IncCreated(category string) {
	if m != nil {
		m.Created.WithLabelValues(category).Inc()
	}
}

// IncCompleted records a campaign completion.
func (m *Metrics) IncCompleted() {
	if m != nil {
		m.Completed.Inc()
	}
}

// IncRevealed records a totals reveal.
func (m *Metrics) IncRevealed() {
	if m != nil {
		m.Revealed.Inc()
	}
}
