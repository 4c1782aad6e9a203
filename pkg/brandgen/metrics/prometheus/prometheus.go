package prommetrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bizkidco/brandbooth/pkg/brandgen"
)

// Metrics implements brandgen.Metrics using Prometheus.
type Metrics struct {
	generationsTotal    *prometheus.CounterVec
	imagesProduced      *prometheus.HistogramVec
	quotaCheckDuration  *prometheus.HistogramVec
	submissionRetries   *prometheus.CounterVec
	pollTimeoutsTotal   prometheus.Counter
	uploadFallbacks     prometheus.Counter
	storageOpsDuration  *prometheus.HistogramVec
	storageOpsErrors    *prometheus.CounterVec
}

// NewMetrics creates a new Prometheus metrics implementation.
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		generationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generations_total",
			Help:      "Total number of generation attempts.",
		}, []string{"tool", "plan", "success"}),

		imagesProduced: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "images_produced",
			Help:      "Distribution of images produced per generation.",
			Buckets:   []float64{0, 1, 2, 3, 4, 5},
		}, []string{"tool", "plan"}),

		quotaCheckDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "quota_check_duration_seconds",
			Help:      "Latency of quota checks.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"tool", "plan"}),

		submissionRetries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submission_retries_total",
			Help:      "Total number of rate-limited submission retries.",
		}, []string{"plan"}),

		pollTimeoutsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "poll_timeouts_total",
			Help:      "Total number of polling loops that exhausted their attempts.",
		}),

		uploadFallbacks: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upload_fallbacks_total",
			Help:      "Total number of assets kept on ephemeral URLs after failed uploads.",
		}),

		storageOpsDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "storage_operation_duration_seconds",
			Help:      "Latency of storage operations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),

		storageOpsErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "storage_operation_errors_total",
			Help:      "Total number of storage operation errors.",
		}, []string{"operation"}),
	}
}

func (m *Metrics) RecordGeneration(tool string, plan brandgen.PlanTier, images int, success bool) {
	m.generationsTotal.WithLabelValues(tool, string(plan), strconv.FormatBool(success)).Inc()
	if success {
		m.imagesProduced.WithLabelValues(tool, string(plan)).Observe(float64(images))
	}
}

func (m *Metrics) RecordQuotaCheck(tool string, plan brandgen.PlanTier, duration time.Duration) {
	m.quotaCheckDuration.WithLabelValues(tool, string(plan)).Observe(duration.Seconds())
}

func (m *Metrics) RecordSubmissionRetry(plan brandgen.PlanTier) {
	m.submissionRetries.WithLabelValues(string(plan)).Inc()
}

func (m *Metrics) RecordPollTimeout() {
	m.pollTimeoutsTotal.Inc()
}

func (m *Metrics) RecordUploadFallback() {
	m.uploadFallbacks.Inc()
}

func (m *Metrics) RecordStorageOperation(operation string, duration time.Duration, err error) {
	m.storageOpsDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		m.storageOpsErrors.WithLabelValues(operation).Inc()
	}
}

// DefaultMetrics returns a Metrics implementation using the default Prometheus registerer.
func DefaultMetrics(namespace string) *Metrics {
	return NewMetrics(prometheus.DefaultRegisterer, namespace)
}
