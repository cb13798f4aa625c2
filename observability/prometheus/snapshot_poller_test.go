package prometheus

import (
	"context"
	"testing"
	"time"

	"github.com/Swind/go-guest-runtime/core"
	"github.com/Swind/go-guest-runtime/host"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type executorStub struct {
	stats core.ExecutorStats
}

func (s executorStub) Stats() core.ExecutorStats { return s.stats }

func TestSnapshotPoller_CollectsExecutorStats(t *testing.T) {
	reg := prom.NewRegistry()
	poller, err := NewSnapshotPoller(reg, 10*time.Millisecond)
	if err != nil {
		t.Fatalf("NewSnapshotPoller failed: %v", err)
	}

	poller.AddExecutor("exec-a", executorStub{stats: core.ExecutorStats{
		Order:     core.QueueLIFO,
		Queued:    3,
		Spawned:   10,
		Completed: 4,
		Rejected:  2,
		Closed:    true,
	}})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	poller.Start(ctx)
	defer poller.Stop()

	assertEventually(t, 2*time.Second, func() bool {
		queued := testutil.ToFloat64(poller.queued.WithLabelValues("exec-a", "lifo"))
		live := testutil.ToFloat64(poller.live.WithLabelValues("exec-a", "lifo"))
		return queued == 3 && live == 6
	})

	if got := testutil.ToFloat64(poller.closed.WithLabelValues("exec-a", "lifo")); got != 1 {
		t.Fatalf("closed gauge = %v, want 1", got)
	}
	if got := testutil.ToFloat64(poller.running.WithLabelValues("exec-a", "lifo")); got != 0 {
		t.Fatalf("running gauge = %v, want 0", got)
	}
	if got := testutil.ToFloat64(poller.rejected.WithLabelValues("exec-a", "lifo")); got != 2 {
		t.Fatalf("rejected gauge = %v, want 2", got)
	}
}

// TestSnapshotPoller_LiveExecutor polls a real executor's Stats
func TestSnapshotPoller_LiveExecutor(t *testing.T) {
	reg := prom.NewRegistry()
	poller, err := NewSnapshotPoller(reg, 5*time.Millisecond)
	if err != nil {
		t.Fatalf("NewSnapshotPoller failed: %v", err)
	}
	h := host.NewSim()
	defer h.Stop()
	e := core.NewExecutor(h, &core.ExecutorConfig{Name: "live", QueueOrder: core.QueueFIFO})
	e.Spawner().SpawnFunc(func(core.Waker) core.PollResult { return core.PollPending })
	if _, err := e.RunUntilIdle(); err != nil {
		t.Fatalf("RunUntilIdle: %v", err)
	}
	poller.AddExecutor(e.Name(), e)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	poller.Start(ctx)
	defer poller.Stop()

	assertEventually(t, 2*time.Second, func() bool {
		return testutil.ToFloat64(poller.polls.WithLabelValues("live", "fifo")) == 1 &&
			testutil.ToFloat64(poller.live.WithLabelValues("live", "fifo")) == 1
	})

	poller.RemoveExecutor("live")
}

func TestSnapshotPoller_StartStop_Idempotent(t *testing.T) {
	reg := prom.NewRegistry()
	poller, err := NewSnapshotPoller(reg, 20*time.Millisecond)
	if err != nil {
		t.Fatalf("NewSnapshotPoller failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	poller.Start(ctx)
	poller.Start(ctx)
	poller.Stop()
	poller.Stop()
}

func assertEventually(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met within timeout")
}
