package prometheus

import (
	"context"
	"sync"
	"time"

	"github.com/Swind/go-guest-runtime/core"
	prom "github.com/prometheus/client_golang/prometheus"
)

// ExecutorSnapshotProvider provides current executor stats snapshots.
type ExecutorSnapshotProvider interface {
	Stats() core.ExecutorStats
}

// SnapshotPoller periodically exports executor Stats() snapshots into Prometheus gauges.
type SnapshotPoller struct {
	interval time.Duration

	executorsMu sync.RWMutex
	executors   map[string]ExecutorSnapshotProvider

	queued   *prom.GaugeVec
	live     *prom.GaugeVec
	polls    *prom.GaugeVec
	rejected *prom.GaugeVec
	running  *prom.GaugeVec
	closed   *prom.GaugeVec

	stateMu sync.Mutex
	started bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewSnapshotPoller creates a snapshot poller and registers its collectors.
func NewSnapshotPoller(reg prom.Registerer, interval time.Duration) (*SnapshotPoller, error) {
	if reg == nil {
		reg = prom.DefaultRegisterer
	}
	if interval <= 0 {
		interval = time.Second
	}

	labels := []string{"executor", "order"}
	gauge := func(name, help string) *prom.GaugeVec {
		return prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: defaultNamespace,
			Name:      name,
			Help:      help,
		}, labels)
	}
	queued := gauge("executor_queued", "Queued task entries per executor.")
	live := gauge("executor_live_tasks", "Spawned tasks that have not completed.")
	polls := gauge("executor_polls", "Executor poll count snapshot.")
	rejected := gauge("executor_rejected", "Executor rejected spawn count snapshot.")
	running := gauge("executor_running", "Executor loop state (1=running, 0=stopped).")
	closed := gauge("executor_closed", "Executor closed state (1=closed, 0=open).")

	var err error
	for _, g := range []**prom.GaugeVec{&queued, &live, &polls, &rejected, &running, &closed} {
		if *g, err = registerCollector(reg, *g); err != nil {
			return nil, err
		}
	}

	return &SnapshotPoller{
		interval:  interval,
		executors: make(map[string]ExecutorSnapshotProvider),
		queued:    queued,
		live:      live,
		polls:     polls,
		rejected:  rejected,
		running:   running,
		closed:    closed,
	}, nil
}

// AddExecutor adds or replaces an executor snapshot provider by name.
func (p *SnapshotPoller) AddExecutor(name string, provider ExecutorSnapshotProvider) {
	if p == nil || provider == nil {
		return
	}
	name = normalizeLabel(name, "executor")
	p.executorsMu.Lock()
	p.executors[name] = provider
	p.executorsMu.Unlock()
}

// RemoveExecutor stops exporting the named executor.
func (p *SnapshotPoller) RemoveExecutor(name string) {
	if p == nil {
		return
	}
	p.executorsMu.Lock()
	delete(p.executors, normalizeLabel(name, "executor"))
	p.executorsMu.Unlock()
}

// Start begins periodic polling; repeated calls are no-ops.
func (p *SnapshotPoller) Start(ctx context.Context) {
	if p == nil {
		return
	}

	p.stateMu.Lock()
	if p.started {
		p.stateMu.Unlock()
		return
	}
	pollCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	p.started = true
	p.stateMu.Unlock()

	go p.loop(pollCtx, p.done)
}

// Stop stops periodic polling; repeated calls are safe.
func (p *SnapshotPoller) Stop() {
	if p == nil {
		return
	}

	p.stateMu.Lock()
	if !p.started {
		p.stateMu.Unlock()
		return
	}
	cancel := p.cancel
	done := p.done
	p.stateMu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}

	p.stateMu.Lock()
	p.started = false
	p.cancel = nil
	p.done = nil
	p.stateMu.Unlock()
}

func (p *SnapshotPoller) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.collectOnce()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.collectOnce()
		}
	}
}

func (p *SnapshotPoller) collectOnce() {
	p.executorsMu.RLock()
	defer p.executorsMu.RUnlock()

	for name, provider := range p.executors {
		stats := provider.Stats()
		order := stats.Order.String()
		p.queued.WithLabelValues(name, order).Set(float64(stats.Queued))
		p.live.WithLabelValues(name, order).Set(float64(stats.Live()))
		p.polls.WithLabelValues(name, order).Set(float64(stats.Polls))
		p.rejected.WithLabelValues(name, order).Set(float64(stats.Rejected))
		p.running.WithLabelValues(name, order).Set(boolGauge(stats.Running))
		p.closed.WithLabelValues(name, order).Set(boolGauge(stats.Closed))
	}
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
