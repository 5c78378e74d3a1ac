package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, metric := range family.GetMetric() {
			if matchesLabels(metric, labels) {
				return metric.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func matchesLabels(metric *dto.Metric, labels map[string]string) bool {
	for key, want := range labels {
		found := false
		for _, pair := range metric.GetLabel() {
			if pair.GetName() == key && pair.GetValue() == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func histogramSampleCount(t *testing.T, reg *prometheus.Registry, name string) uint64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, family := range families {
		if family.GetName() == name {
			return family.GetMetric()[0].GetHistogram().GetSampleCount()
		}
	}
	return 0
}

func TestCheckoutMetricsRecord(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := NewCheckoutMetrics(reg)

	m.IncCommitSuccess()
	m.IncCommitSuccess()
	m.IncCommitFailure()
	m.IncCartSync("success")
	m.IncCartSync("failure")
	m.IncCartSync("")
	m.ObserveCommitDuration(120 * time.Millisecond)

	if got := counterValue(t, reg, "order_commit_success", nil); got != 2 {
		t.Fatalf("commit success = %v, want 2", got)
	}
	if got := counterValue(t, reg, "order_commit_failure", nil); got != 1 {
		t.Fatalf("commit failure = %v, want 1", got)
	}
	if got := counterValue(t, reg, "cart_sync_total", map[string]string{"result": "success"}); got != 1 {
		t.Fatalf("cart sync success = %v, want 1", got)
	}
	if got := counterValue(t, reg, "cart_sync_total", map[string]string{"result": "unknown"}); got != 1 {
		t.Fatalf("empty result label should normalize to unknown, got %v", got)
	}
	if got := histogramSampleCount(t, reg, "order_commit_duration_seconds"); got != 1 {
		t.Fatalf("commit duration samples = %d, want 1", got)
	}
}

func TestCheckoutMetricsNilSafe(t *testing.T) {
	t.Parallel()

	var m *CheckoutMetrics
	m.IncCommitSuccess()
	m.IncCommitFailure()
	m.IncCartSync("success")
	m.ObserveCommitDuration(time.Second)

	unregistered := NewCheckoutMetrics(nil)
	unregistered.IncCommitSuccess()
	unregistered.ObserveCommitDuration(time.Second)
}
