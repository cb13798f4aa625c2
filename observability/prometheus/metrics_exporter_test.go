package prometheus

import (
	"testing"
	"time"

	"github.com/Swind/go-guest-runtime/core"
	"github.com/Swind/go-guest-runtime/host"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

func TestMetricsExporter_RecordMethods(t *testing.T) {
	reg := prom.NewRegistry()
	exporter, err := NewMetricsExporter("guestrt", reg, ExporterOptions{})
	if err != nil {
		t.Fatalf("NewMetricsExporter failed: %v", err)
	}

	exporter.RecordPollDuration("exec-a", core.PollPending, 250*time.Microsecond)
	exporter.RecordTaskPanic("exec-a", "panic")
	exporter.RecordQueueDepth("exec-a", 7)
	exporter.RecordTaskRejected("exec-a", core.ErrQueueClosed.Error())
	exporter.RecordWake("exec-a", false)
	exporter.RecordWake("exec-a", true)
	exporter.RecordWake("exec-a", true)
	exporter.RecordPark("exec-a")

	if got := testutil.ToFloat64(exporter.taskPanicTotal.WithLabelValues("exec-a")); got != 1 {
		t.Fatalf("panic total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(exporter.queueDepth.WithLabelValues("exec-a")); got != 7 {
		t.Fatalf("queue depth = %v, want 7", got)
	}
	if got := testutil.ToFloat64(exporter.taskRejectedTotal.WithLabelValues("exec-a", "work queue closed")); got != 1 {
		t.Fatalf("rejected total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(exporter.wakeTotal.WithLabelValues("exec-a", "true")); got != 2 {
		t.Fatalf("redundant wakes = %v, want 2", got)
	}
	if got := testutil.ToFloat64(exporter.wakeTotal.WithLabelValues("exec-a", "false")); got != 1 {
		t.Fatalf("wakes = %v, want 1", got)
	}
	if got := testutil.ToFloat64(exporter.parkTotal.WithLabelValues("exec-a")); got != 1 {
		t.Fatalf("parks = %v, want 1", got)
	}

	histCount, err := histogramSampleCount(exporter.pollDurationSeconds.WithLabelValues("exec-a", "pending"))
	if err != nil {
		t.Fatalf("histogramSampleCount failed: %v", err)
	}
	if histCount != 1 {
		t.Fatalf("duration sample count = %d, want 1", histCount)
	}
}

func TestMetricsExporter_AlreadyRegisteredReuse(t *testing.T) {
	reg := prom.NewRegistry()
	first, err := NewMetricsExporter("guestrt", reg, ExporterOptions{})
	if err != nil {
		t.Fatalf("first NewMetricsExporter failed: %v", err)
	}
	second, err := NewMetricsExporter("guestrt", reg, ExporterOptions{})
	if err != nil {
		t.Fatalf("second NewMetricsExporter failed: %v", err)
	}

	first.RecordTaskPanic("exec-a", nil)
	second.RecordTaskPanic("exec-a", nil)

	got := testutil.ToFloat64(first.taskPanicTotal.WithLabelValues("exec-a"))
	if got != 2 {
		t.Fatalf("shared panic counter = %v, want 2", got)
	}
}

func TestMetricsExporter_NilSafe(t *testing.T) {
	var m *MetricsExporter
	m.RecordPollDuration("x", core.PollReady, time.Millisecond)
	m.RecordWake("x", true)
	m.RecordPark("x")
}

// TestMetricsExporter_WiredIntoExecutor verifies the executor reports through the exporter
// Given: An executor configured with a MetricsExporter
// When: A two-step computation runs to completion
// Then: Poll histograms are labelled by result and the wake counter is incremented
func TestMetricsExporter_WiredIntoExecutor(t *testing.T) {
	// Arrange
	reg := prom.NewRegistry()
	exporter, err := NewMetricsExporter("", reg, ExporterOptions{})
	if err != nil {
		t.Fatalf("NewMetricsExporter failed: %v", err)
	}
	h := host.NewSim()
	defer h.Stop()
	e := core.NewExecutor(h, &core.ExecutorConfig{Name: "wired", Metrics: exporter})
	steps := 0
	e.Spawner().SpawnFunc(func(w core.Waker) core.PollResult {
		steps++
		if steps == 1 {
			w.Wake()
			return core.PollPending
		}
		return core.PollReady
	})

	// Act
	if _, err := e.RunUntilIdle(); err != nil {
		t.Fatalf("RunUntilIdle: %v", err)
	}

	// Assert
	for _, result := range []string{"pending", "ready"} {
		n, err := histogramSampleCount(exporter.pollDurationSeconds.WithLabelValues("wired", result))
		if err != nil {
			t.Fatalf("histogramSampleCount failed: %v", err)
		}
		if n != 1 {
			t.Errorf("%s samples = %d, want 1", result, n)
		}
	}
	if got := testutil.ToFloat64(exporter.wakeTotal.WithLabelValues("wired", "false")); got != 1 {
		t.Errorf("wakes = %v, want 1", got)
	}
	if n := testutil.CollectAndCount(reg, "guestrt_poll_duration_seconds"); n != 2 {
		t.Errorf("poll duration series = %d, want 2", n)
	}
}

func histogramSampleCount(observer prom.Observer) (uint64, error) {
	collector, ok := observer.(prom.Collector)
	if !ok {
		return 0, nil
	}

	metricCh := make(chan prom.Metric, 1)
	collector.Collect(metricCh)
	close(metricCh)
	for metric := range metricCh {
		msg := &dto.Metric{}
		if err := metric.Write(msg); err != nil {
			return 0, err
		}
		if msg.Histogram != nil {
			return msg.Histogram.GetSampleCount(), nil
		}
	}
	return 0, nil
}
