package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestDomainMetricsCountsByLabel(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewDomainMetrics(reg)
	m.IncTransition("check_in")
	m.IncTransition("check_in")
	m.IncVersionConflict("room")
	m.IncDeductionFailure("101")
	m.IncStockMovement("OUT")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	checks := []struct {
		name, label, value string
		want               float64
	}{
		{"innkeeper_reservation_transitions_total", "transition", "check_in", 2},
		{"innkeeper_version_conflicts_total", "entity", "room", 1},
		{"innkeeper_consumption_deduction_failures_total", "room", "101", 1},
		{"innkeeper_inventory_movements_total", "type", "OUT", 1},
	}
	for _, c := range checks {
		got, err := fetchCounterValue(mfs, c.name, c.label, c.value)
		if err != nil {
			t.Fatalf("fetch %s: %v", c.name, err)
		}
		if got != c.want {
			t.Fatalf("%s: expected %v, got %v", c.name, c.want, got)
		}
	}
}

func TestNilDomainMetricsIsNoop(t *testing.T) {
	var m *DomainMetrics
	m.IncTransition("confirm")
	NewDomainMetrics(nil).IncDeductionFailure("202")
}
