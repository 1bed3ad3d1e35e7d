package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ServiceMetrics records sync, billing sequence, and ingest activity.
type ServiceMetrics struct {
	syncOps           *prometheus.CounterVec
	reconcileDuration *prometheus.HistogramVec
	sequenceWait      prometheus.Histogram
	sequenceBusy      prometheus.Counter
	billsCreated      *prometheus.CounterVec
	ingestDuplicates  prometheus.Counter
}

// NewServiceMetrics registers the service metrics on the provided registerer.
func NewServiceMetrics(reg prometheus.Registerer) *ServiceMetrics {
	if reg == nil {
		return &ServiceMetrics{}
	}
	syncOps := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sync_operations_total",
		Help: "Processed sync operations by entity, operation, and outcome.",
	}, []string{"entity", "operation", "status"})
	reconcileDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sync_reconcile_duration_seconds",
		Help:    "Duration of sync batch reconciliation in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"entity"})
	sequenceWait := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "bill_sequence_wait_seconds",
		Help:    "Time spent acquiring the per-vendor bill sequence lock.",
		Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
	})
	sequenceBusy := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bill_sequence_busy_total",
		Help: "Bill number allocations abandoned after exhausting lock retries.",
	})
	billsCreated := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bills_created_total",
		Help: "Bills persisted by source (server or device sync).",
	}, []string{"source"})
	ingestDuplicates := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bill_ingest_duplicates_total",
		Help: "Synced bill deliveries that matched an existing invoice number.",
	})
	reg.MustRegister(syncOps, reconcileDuration, sequenceWait, sequenceBusy, billsCreated, ingestDuplicates)
	return &ServiceMetrics{
		syncOps:           syncOps,
		reconcileDuration: reconcileDuration,
		sequenceWait:      sequenceWait,
		sequenceBusy:      sequenceBusy,
		billsCreated:      billsCreated,
		ingestDuplicates:  ingestDuplicates,
	}
}

// IncSyncOp counts one reconciled operation outcome.
func (m *ServiceMetrics) IncSyncOp(entity, operation, status string) {
	if m == nil || m.syncOps == nil {
		return
	}
	m.syncOps.WithLabelValues(normalizeLabel(entity), normalizeLabel(operation), normalizeLabel(status)).Inc()
}

// ObserveReconcile records the duration of a sync batch.
func (m *ServiceMetrics) ObserveReconcile(entity string, duration time.Duration) {
	if m == nil || m.reconcileDuration == nil {
		return
	}
	m.reconcileDuration.WithLabelValues(normalizeLabel(entity)).Observe(duration.Seconds())
}

// ObserveSequenceWait records how long a Next call waited on the counter row.
func (m *ServiceMetrics) ObserveSequenceWait(duration time.Duration) {
	if m == nil || m.sequenceWait == nil {
		return
	}
	m.sequenceWait.Observe(duration.Seconds())
}

// IncSequenceBusy counts an allocation that gave up under contention.
func (m *ServiceMetrics) IncSequenceBusy() {
	if m == nil || m.sequenceBusy == nil {
		return
	}
	m.sequenceBusy.Inc()
}

// IncBillCreated counts a persisted bill by source.
func (m *ServiceMetrics) IncBillCreated(source string) {
	if m == nil || m.billsCreated == nil {
		return
	}
	m.billsCreated.WithLabelValues(normalizeLabel(source)).Inc()
}

// IncIngestDuplicate counts an idempotent re-delivery.
func (m *ServiceMetrics) IncIngestDuplicate() {
	if m == nil || m.ingestDuplicates == nil {
		return
	}
	m.ingestDuplicates.Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
