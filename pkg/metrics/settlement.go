package metrics

import "github.com/prometheus/client_golang/prometheus"

// SettlementMetrics records outcomes of the withdrawal settlement engine.
type SettlementMetrics struct {
	requested            prometheus.Counter
	paid                 prometheus.Counter
	rejected             prometheus.Counter
	reservationConflicts prometheus.Counter
	reconcileDrift       *prometheus.CounterVec
}

// NewSettlementMetrics registers settlement metrics on the provided registerer.
func NewSettlementMetrics(reg prometheus.Registerer) *SettlementMetrics {
	if reg == nil {
		return &SettlementMetrics{}
	}
	requested := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "withdrawals_requested_total",
		Help: "Withdrawal requests that successfully reserved earnings.",
	})
	paid := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "withdrawals_paid_total",
		Help: "Withdrawals settled as paid.",
	})
	rejected := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "withdrawals_rejected_total",
		Help: "Withdrawals rejected with their reservations released.",
	})
	reservationConflicts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "withdrawal_reservation_conflicts_total",
		Help: "Reservation attempts lost to a concurrent withdrawal.",
	})
	reconcileDrift := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "balance_cache_drift_total",
		Help: "Balance cache rows found stale by the reconciliation job.",
	}, []string{"balance"})
	reg.MustRegister(requested, paid, rejected, reservationConflicts, reconcileDrift)
	return &SettlementMetrics{
		requested:            requested,
		paid:                 paid,
		rejected:             rejected,
		reservationConflicts: reservationConflicts,
		reconcileDrift:       reconcileDrift,
	}
}

// IncRequested increments the successful-request counter.
func (m *SettlementMetrics) IncRequested() {
	if m == nil || m.requested == nil {
		return
	}
	m.requested.Inc()
}

// IncPaid increments the settled counter.
func (m *SettlementMetrics) IncPaid() {
	if m == nil || m.paid == nil {
		return
	}
	m.paid.Inc()
}

// IncRejected increments the rejection counter.
func (m *SettlementMetrics) IncRejected() {
	if m == nil || m.rejected == nil {
		return
	}
	m.rejected.Inc()
}

// IncReservationConflict increments the lost-race counter.
func (m *SettlementMetrics) IncReservationConflict() {
	if m == nil || m.reservationConflicts == nil {
		return
	}
	m.reservationConflicts.Inc()
}

// IncReconcileDrift counts a stale cache row for the named balance column.
func (m *SettlementMetrics) IncReconcileDrift(balance string) {
	if m == nil || m.reconcileDrift == nil {
		return
	}
	m.reconcileDrift.WithLabelValues(normalizeLabel(balance)).Inc()
}
