package prometheus

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Swind/go-guest-runtime/core"
	prom "github.com/prometheus/client_golang/prometheus"
)

const defaultNamespace = "guestrt"

// ExporterOptions controls collector configuration.
type ExporterOptions struct {
	// PollBuckets are histogram buckets for single-step durations, in seconds.
	PollBuckets []float64
}

// defaultPollBuckets span 10µs to ~40ms; a single step is expected to be short.
var defaultPollBuckets = prom.ExponentialBuckets(0.00001, 4, 8)

// MetricsExporter adapts core.Metrics to Prometheus collectors.
type MetricsExporter struct {
	pollDurationSeconds *prom.HistogramVec
	taskPanicTotal      *prom.CounterVec
	taskRejectedTotal   *prom.CounterVec
	queueDepth          *prom.GaugeVec
	wakeTotal           *prom.CounterVec
	parkTotal           *prom.CounterVec
}

var _ core.Metrics = (*MetricsExporter)(nil)

// NewMetricsExporter creates and registers Prometheus collectors for core.Metrics.
func NewMetricsExporter(namespace string, reg prom.Registerer, opts ExporterOptions) (*MetricsExporter, error) {
	if namespace == "" {
		namespace = defaultNamespace
	}
	if reg == nil {
		reg = prom.DefaultRegisterer
	}
	buckets := opts.PollBuckets
	if len(buckets) == 0 {
		buckets = defaultPollBuckets
	}

	durationVec := prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "poll_duration_seconds",
		Help:      "Duration of a single computation step in seconds.",
		Buckets:   buckets,
	}, []string{"executor", "result"})
	panicVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "task_panic_total",
		Help:      "Total number of computation panics.",
	}, []string{"executor"})
	rejectedVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "task_rejected_total",
		Help:      "Total number of rejected spawns.",
	}, []string{"executor", "reason"})
	queueDepthVec := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "queue_depth",
		Help:      "Work queue depth observed after the last pop.",
	}, []string{"executor"})
	wakeVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "wake_total",
		Help:      "Total number of task wakes; redundant wakes were absorbed without requeueing.",
	}, []string{"executor", "redundant"})
	parkVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "park_total",
		Help:      "Total number of times the executor parked in the host wait primitive.",
	}, []string{"executor"})

	var err error
	if durationVec, err = registerCollector(reg, durationVec); err != nil {
		return nil, err
	}
	if panicVec, err = registerCollector(reg, panicVec); err != nil {
		return nil, err
	}
	if rejectedVec, err = registerCollector(reg, rejectedVec); err != nil {
		return nil, err
	}
	if queueDepthVec, err = registerCollector(reg, queueDepthVec); err != nil {
		return nil, err
	}
	if wakeVec, err = registerCollector(reg, wakeVec); err != nil {
		return nil, err
	}
	if parkVec, err = registerCollector(reg, parkVec); err != nil {
		return nil, err
	}

	return &MetricsExporter{
		pollDurationSeconds: durationVec,
		taskPanicTotal:      panicVec,
		taskRejectedTotal:   rejectedVec,
		queueDepth:          queueDepthVec,
		wakeTotal:           wakeVec,
		parkTotal:           parkVec,
	}, nil
}

// RecordPollDuration records how long one step took.
func (m *MetricsExporter) RecordPollDuration(executorName string, result core.PollResult, duration time.Duration) {
	if m == nil {
		return
	}
	m.pollDurationSeconds.WithLabelValues(normalizeLabel(executorName, "unknown"), result.String()).Observe(duration.Seconds())
}

// RecordTaskPanic records computation panic events.
func (m *MetricsExporter) RecordTaskPanic(executorName string, panicInfo any) {
	if m == nil {
		return
	}
	m.taskPanicTotal.WithLabelValues(normalizeLabel(executorName, "unknown")).Inc()
}

// RecordQueueDepth records queue depth.
func (m *MetricsExporter) RecordQueueDepth(executorName string, depth int) {
	if m == nil {
		return
	}
	m.queueDepth.WithLabelValues(normalizeLabel(executorName, "unknown")).Set(float64(depth))
}

// RecordTaskRejected records rejected spawns.
func (m *MetricsExporter) RecordTaskRejected(executorName string, reason string) {
	if m == nil {
		return
	}
	m.taskRejectedTotal.WithLabelValues(normalizeLabel(executorName, "unknown"), normalizeLabel(reason, "unknown")).Inc()
}

// RecordWake records a wake. It may be called from any goroutine.
func (m *MetricsExporter) RecordWake(executorName string, redundant bool) {
	if m == nil {
		return
	}
	m.wakeTotal.WithLabelValues(normalizeLabel(executorName, "unknown"), strconv.FormatBool(redundant)).Inc()
}

// RecordPark records that the executor parked.
func (m *MetricsExporter) RecordPark(executorName string) {
	if m == nil {
		return
	}
	m.parkTotal.WithLabelValues(normalizeLabel(executorName, "unknown")).Inc()
}

func normalizeLabel(v string, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func registerCollector[T prom.Collector](reg prom.Registerer, collector T) (T, error) {
	err := reg.Register(collector)
	if err == nil {
		return collector, nil
	}

	var alreadyRegisteredErr prom.AlreadyRegisteredError
	if errors.As(err, &alreadyRegisteredErr) {
		existing, ok := alreadyRegisteredErr.ExistingCollector.(T)
		if !ok {
			return collector, fmt.Errorf("collector type mismatch for %T", collector)
		}
		return existing, nil
	}

	return collector, err
}
