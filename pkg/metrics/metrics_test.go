package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestServiceMetricsExportsCountersAndHistograms(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewServiceMetrics(reg)

	metrics.IncSyncOp("item", "update", "skipped")
	metrics.ObserveReconcile("item", 120*time.Millisecond)
	metrics.ObserveSequenceWait(5 * time.Millisecond)
	metrics.IncSequenceBusy()
	metrics.IncBillCreated("server")
	metrics.IncIngestDuplicate()

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "sync_operations_total", "status", "skipped"); err != nil {
		t.Fatalf("fetch sync ops: %v", err)
	} else if got != 1 {
		t.Fatalf("expected sync ops=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "bills_created_total", "source", "server"); err != nil {
		t.Fatalf("fetch bills created: %v", err)
	} else if got != 1 {
		t.Fatalf("expected bills created=1, got %f", got)
	}

	if got, err := fetchHistogramSum(mfs, "sync_reconcile_duration_seconds", "entity", "item"); err != nil {
		t.Fatalf("fetch reconcile duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected reconcile sum > 0, got %f", got)
	}

	if mf := findMetricFamily(mfs, "bill_sequence_wait_seconds"); mf == nil {
		t.Fatalf("sequence wait histogram not registered")
	} else if mf.GetMetric()[0].GetHistogram().GetSampleCount() != 1 {
		t.Fatalf("expected one sequence wait sample")
	}

	if mf := findMetricFamily(mfs, "bill_sequence_busy_total"); mf == nil {
		t.Fatalf("sequence busy counter not registered")
	} else if mf.GetMetric()[0].GetCounter().GetValue() != 1 {
		t.Fatalf("expected sequence busy=1")
	}
}

func TestNilReceiverIsSafe(t *testing.T) {
	var metrics *ServiceMetrics
	metrics.IncSyncOp("item", "create", "success")
	metrics.ObserveSequenceWait(time.Millisecond)
	metrics.IncIngestDuplicate()
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
