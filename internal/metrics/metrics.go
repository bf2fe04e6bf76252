// server/internal/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics gom các counter nghiệp vụ của core điều phối.
type Metrics struct {
	AssignmentsTotal          *prometheus.CounterVec
	OffersPublishedTotal      prometheus.Counter
	OffersDroppedTotal        prometheus.Counter
	QuotesSubmittedTotal      prometheus.Counter
	PrescriptionSplitsTotal   prometheus.Counter
	SweeperNudgesTotal        prometheus.Counter
	NotificationFailuresTotal prometheus.Counter
}

// New đăng ký toàn bộ counter vào registry được truyền vào.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		AssignmentsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dispatch_assignments_total",
			Help: "Total number of assignment transitions, labeled by outcome",
		}, []string{"outcome"}), // assigned, accepted, rejected
		OffersPublishedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dispatch_offers_published_total",
			Help: "Total number of assignment offers published on the bus",
		}),
		OffersDroppedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dispatch_offers_dropped_total",
			Help: "Total number of offers dropped because no subscriber was connected",
		}),
		QuotesSubmittedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "prescription_quotes_submitted_total",
			Help: "Total number of pharmacy quotes submitted",
		}),
		PrescriptionSplitsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "prescription_splits_total",
			Help: "Total number of prescription orders split on partial availability",
		}),
		SweeperNudgesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "freshness_sweeper_nudges_total",
			Help: "Total number of stale-location nudges sent to partners",
		}),
		NotificationFailuresTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "notification_failures_total",
			Help: "Total number of best-effort notification failures (logged, never propagated)",
		}),
	}
	reg.MustRegister(
		m.AssignmentsTotal,
		m.OffersPublishedTotal,
		m.OffersDroppedTotal,
		m.QuotesSubmittedTotal,
		m.PrescriptionSplitsTotal,
		m.SweeperNudgesTotal,
		m.NotificationFailuresTotal,
	)
	return m
}
