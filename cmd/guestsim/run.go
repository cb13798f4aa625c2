package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Swind/go-guest-runtime/core"
	obs "github.com/Swind/go-guest-runtime/observability/prometheus"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

func RunCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Run the demo computations until they finish or the process is interrupted",

		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "host",
				Value:   "sim",
				Usage:   "Host implementation: sim or eventfd (linux)",
				EnvVars: []string{"GUESTSIM_HOST"},
			},
			&cli.StringFlag{
				Name:    "order",
				Value:   "lifo",
				Usage:   "Work queue pop order: lifo or fifo",
				EnvVars: []string{"GUESTSIM_ORDER"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				Usage:   "Log level (emerg ... debug, trace, disabled)",
				EnvVars: []string{"GUESTSIM_LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:    "metrics-addr",
				Usage:   "Serve Prometheus metrics on this address (e.g. :2112)",
				EnvVars: []string{"GUESTSIM_METRICS_ADDR"},
			},
			&cli.IntFlag{
				Name:    "tickers",
				Value:   3,
				Usage:   "Number of ticker computations",
				EnvVars: []string{"GUESTSIM_TICKERS"},
			},
			&cli.IntFlag{
				Name:    "ticks",
				Value:   5,
				Usage:   "Ticks per ticker",
				EnvVars: []string{"GUESTSIM_TICKS"},
			},
			&cli.DurationFlag{
				Name:    "interval",
				Value:   100 * time.Millisecond,
				Usage:   "Base tick interval; ticker i sleeps (i+1) intervals",
				EnvVars: []string{"GUESTSIM_INTERVAL"},
			},
			&cli.DurationFlag{
				Name:    "linger",
				Usage:   "Keep running this long after the demo finishes (for scraping)",
				EnvVars: []string{"GUESTSIM_LINGER"},
			},
		},

		Action: RunAction,
	}
}

func RunAction(c *cli.Context) error {
	// 1. Get flags
	level, err := core.ParseLevel(c.String("log-level"))
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	order, err := parseOrder(c.String("order"))
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	if c.Int("tickers") < 1 || c.Int("ticks") < 1 || c.Duration("interval") <= 0 {
		return cli.Exit("tickers, ticks and interval must be positive", 1)
	}

	// 2. Build the host and executor
	h, err := openHost(c.String("host"))
	if err != nil {
		return cli.Exit(fmt.Sprintf("Failed: %v", err), 1)
	}
	defer func() {
		if err := h.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "close host: %v\n", err)
		}
	}()

	logger := core.NewDefaultLogger(os.Stderr, level)
	reg := prom.NewRegistry()
	exporter, err := obs.NewMetricsExporter("", reg, obs.ExporterOptions{})
	if err != nil {
		return cli.Exit(fmt.Sprintf("Failed: %v", err), 1)
	}
	executor := core.NewExecutor(h, &core.ExecutorConfig{
		Name:       "guestsim",
		QueueOrder: order,
		Logger:     logger,
		Metrics:    exporter,
	})

	// 3. Run
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	d := &demo{
		host:     h,
		logger:   logger,
		tickers:  c.Int("tickers"),
		ticks:    c.Int("ticks"),
		interval: c.Duration("interval"),
		linger:   c.Duration("linger"),
		finish:   cancel,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := executor.StartContext(ctx, d.bootstrap)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	if addr := c.String("metrics-addr"); addr != "" {
		poller, err := obs.NewSnapshotPoller(reg, time.Second)
		if err != nil {
			return cli.Exit(fmt.Sprintf("Failed: %v", err), 1)
		}
		poller.AddExecutor(executor.Name(), executor)
		poller.Start(ctx)
		defer poller.Stop()

		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

		g.Go(func() error {
			logger.Info().Str("addr", addr).Log("serving metrics")
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		})
	}

	if err := g.Wait(); err != nil {
		return cli.Exit(fmt.Sprintf("Failed: %v", err), 1)
	}

	// 4. Format output
	stats := executor.Stats()
	fmt.Printf("spawned=%d completed=%d polls=%d wakes=%d redundant=%d parks=%d\n",
		stats.Spawned, stats.Completed, stats.Polls, stats.Wakes, stats.RedundantWakes, stats.Parks)
	return nil
}

func parseOrder(s string) (core.QueueOrder, error) {
	switch strings.ToLower(s) {
	case "lifo":
		return core.QueueLIFO, nil
	case "fifo":
		return core.QueueFIFO, nil
	default:
		return core.QueueLIFO, fmt.Errorf("unknown queue order %q", s)
	}
}
