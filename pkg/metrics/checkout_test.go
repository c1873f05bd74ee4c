package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestCheckoutMetricsRegisterAndCount(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCheckoutMetrics(reg)

	m.IncCheckout("payment_split")
	m.IncCheckout("payment_split")
	m.IncFailure("validation")
	m.AddRecords(3)
	m.IncReversal()
	m.ObserveDuration("payment_split", 25*time.Millisecond)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}

	byName := map[string]*dto.MetricFamily{}
	for _, fam := range families {
		byName[fam.GetName()] = fam
	}

	checkout := byName["checkout_total"]
	if checkout == nil || len(checkout.Metric) != 1 {
		t.Fatalf("expected checkout_total family, got %v", checkout)
	}
	if got := checkout.Metric[0].GetCounter().GetValue(); got != 2 {
		t.Fatalf("expected 2 checkouts, got %v", got)
	}

	records := byName["checkout_records_total"]
	if records == nil || records.Metric[0].GetCounter().GetValue() != 3 {
		t.Fatalf("expected 3 records counted")
	}

	if byName["checkout_duration_seconds"] == nil {
		t.Fatalf("expected duration histogram registered")
	}
}

func TestCheckoutMetricsNilSafe(t *testing.T) {
	var m *CheckoutMetrics
	m.IncCheckout("none")
	m.IncFailure("none")
	m.AddRecords(1)
	m.IncReversal()
	m.ObserveDuration("none", time.Second)

	empty := NewCheckoutMetrics(nil)
	empty.IncCheckout("none")
}
