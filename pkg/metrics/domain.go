package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "innkeeper"

// DomainMetrics counts business outcomes that operators reconcile by hand.
type DomainMetrics struct {
	transitions      *prometheus.CounterVec
	versionConflicts *prometheus.CounterVec
	deductionFailed  *prometheus.CounterVec
	stockMovements   *prometheus.CounterVec
}

// NewDomainMetrics registers the domain counters. A nil registerer yields a
// no-op recorder.
func NewDomainMetrics(reg prometheus.Registerer) *DomainMetrics {
	if reg == nil {
		return &DomainMetrics{}
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reservation_transitions_total",
		Help:      "Reservation lifecycle transitions applied.",
	}, []string{"transition"})
	versionConflicts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "version_conflicts_total",
		Help:      "Optimistic version mismatches detected on write.",
	}, []string{"entity"})
	deductionFailed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "consumption_deduction_failures_total",
		Help:      "Room cleaning stock deductions that failed and await reconciliation.",
	}, []string{"room"})
	stockMovements := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "inventory_movements_total",
		Help:      "Inventory ledger postings by direction.",
	}, []string{"type"})
	reg.MustRegister(transitions, versionConflicts, deductionFailed, stockMovements)
	return &DomainMetrics{
		transitions:      transitions,
		versionConflicts: versionConflicts,
		deductionFailed:  deductionFailed,
		stockMovements:   stockMovements,
	}
}

func (m *DomainMetrics) IncTransition(transition string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(transition)).Inc()
}

func (m *DomainMetrics) IncVersionConflict(entity string) {
	if m == nil || m.versionConflicts == nil {
		return
	}
	m.versionConflicts.WithLabelValues(normalizeLabel(entity)).Inc()
}

func (m *DomainMetrics) IncDeductionFailure(roomNumber string) {
	if m == nil || m.deductionFailed == nil {
		return
	}
	m.deductionFailed.WithLabelValues(normalizeLabel(roomNumber)).Inc()
}

func (m *DomainMetrics) IncStockMovement(direction string) {
	if m == nil || m.stockMovements == nil {
		return
	}
	m.stockMovements.WithLabelValues(normalizeLabel(direction)).Inc()
}
