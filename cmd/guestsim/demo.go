package main

import (
	"fmt"
	"os"
	"time"

	"github.com/Swind/go-guest-runtime/core"
	"github.com/Swind/go-guest-runtime/future"
	"github.com/joeycumines/logiface"
)

// demo spawns tickers that sleep on host timers, a reporter that waits for all
// of them, and, on hosts with readiness support, a pipe reader woken by poll(2).
type demo struct {
	host     demoHost
	logger   *logiface.Logger[logiface.Event]
	tickers  int
	ticks    int
	interval time.Duration
	linger   time.Duration
	finish   func()
}

func (d *demo) bootstrap(s core.Spawner) {
	var waits []core.Computation

	for i := range d.tickers {
		done := future.NewSignal(d.host)
		waits = append(waits, done.Wait())
		s.SpawnNamed(fmt.Sprintf("ticker-%d", i), future.Seq(
			future.Repeat(d.ticks, func(n int) core.Computation {
				return future.Seq(
					future.Sleep(d.host, time.Duration(i+1)*d.interval),
					future.Do(func() {
						d.logger.Info().
							Str("ticker", fmt.Sprint(i)).
							Int("tick", n).
							Dur("uptime", d.host.Now()).
							Log("tick")
					}),
				)
			}),
			future.Do(done.Set),
		))
	}

	if rs, ok := d.host.(core.ReadinessSource); ok {
		if pipeDone, err := d.spawnPipe(s, rs); err != nil {
			d.logger.Warning().Err(err).Log("pipe demo disabled")
		} else {
			waits = append(waits, pipeDone.Wait())
		}
	}

	waits = append(waits,
		future.Do(func() { d.logger.Notice().Int("tickers", d.tickers).Log("demo finished") }),
		future.Sleep(d.host, d.linger),
		future.Do(d.finish),
	)
	s.SpawnNamed("reporter", future.Seq(waits...))
}

// spawnPipe starts a writer that sleeps and then writes one byte, and a reader
// that waits for the read end to become readable before reading it.
func (d *demo) spawnPipe(s core.Spawner, rs core.ReadinessSource) (*future.Signal, error) {
	r, w, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("create pipe: %w", err)
	}
	done := future.NewSignal(d.host)
	readable := future.Readable(rs, r.Fd())

	s.SpawnNamed("pipe-writer", future.Seq(
		future.Sleep(d.host, d.interval),
		future.Do(func() {
			if _, err := w.Write([]byte{'x'}); err != nil {
				d.logger.Err().Err(err).Log("pipe write failed")
			}
			_ = w.Close()
		}),
	))

	read, outcome := future.Compute(d.host, func() (int, error) {
		defer r.Close()
		if err := readable.Err(); err != nil {
			return 0, err
		}
		buf := make([]byte, 1)
		return r.Read(buf)
	})
	s.SpawnNamed("pipe-reader", future.Seq(
		readable,
		read,
		future.Do(func() {
			n, err := outcome.Result()
			d.logger.Info().Int("bytes", n).Err(err).Log("pipe readable")
			done.Set()
		}),
	))
	return done, nil
}
