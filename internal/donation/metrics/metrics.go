package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the donation state machine.
type Metrics struct {
	Submitted        prometheus.Counter
	Verified         *prometheus.CounterVec
	TransferFailures prometheus.Counter
	PublicDonations  prometheus.Counter
	Rejected         *prometheus.CounterVec
}

// New creates a new Metrics instance with all donation metrics registered.
func New() *Metrics {
	return &Metrics{
		Submitted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "veilfund_donations_submitted_total",
			Help: "Total confidential donations accepted into escrow",
		}),
		Verified: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "veilfund_donations_verified_total",
			Help: "Total verification callbacks processed by outcome",
		}, []string{"outcome"}),
		TransferFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "veilfund_donation_transfer_failures_total",
			Help: "Total value transfers rejected by a recipient",
		}),
		PublicDonations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "veilfund_public_donations_total",
			Help: "Total plaintext donations forwarded directly",
		}),
		Rejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "veilfund_donations_rejected_total",
			Help: "Total donations rejected before escrow by reason",
		}, []string{"reason"}),
	}
}

// IncSubmitted records an accepted confidential donation.
func (m *Metrics) IncSubmitted() {
	if m != nil {
		m.Submitted.Inc()
	}
}

// IncVerified records a processed verification callback.
func (m *Metrics) IncVerified(outcome string) {
	if m != nil {
		m.Verified.WithLabelValues(outcome).Inc()
	}
}

// IncTransferFailure records a rejected value transfer.
func (m *Metrics) IncTransferFailure() {
	if m != nil {
		m.TransferFailures.Inc()
	}
}

// IncPublicDonation records a plaintext donation.
func (m *Metrics) IncPublicDonation() {
	if m != nil {
		m.PublicDonations.Inc()
	}
}

// IncRejected records a donation rejected before any state change.
func (m *Metrics) IncRejected(reason string) {
	if m != nil {
		m.Rejected.WithLabelValues(reason).Inc()
	}
}
