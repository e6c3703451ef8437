// Package daemon runs the publish pipeline continuously: on a fixed schedule,
// and immediately (debounced) when local content changes. All batches run on
// a single loop goroutine, so publish cycles never overlap.
package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	prom "github.com/prometheus/client_golang/prometheus"

	"blogpress/internal/config"
	"blogpress/internal/logfields"
	"blogpress/internal/metrics"
	"blogpress/internal/pipeline"
)

// Runner executes one publish cycle. Implemented by pipeline.Pipeline.
type Runner interface {
	Run(ctx context.Context, force bool) (*pipeline.BatchReport, error)
}

// Sink receives completed batch reports. Implemented by history.Store.
type Sink interface {
	Record(ctx context.Context, report *pipeline.BatchReport) error
}

// Notifier announces published batches. Implemented by notify.Notifier.
type Notifier interface {
	Published(report *pipeline.BatchReport) error
}

// Daemon owns the scheduler, the content watcher and the run loop.
type Daemon struct {
	cfg        config.DaemonConfig
	runner     Runner
	sink       Sink     // optional
	notifier   Notifier // optional
	contentDir string

	scheduler gocron.Scheduler
	watcher   *ContentWatcher
	httpSrv   *http.Server
	registry  *prom.Registry

	// trigger carries pending run requests; true forces a rebuild even when
	// the remote reports no changes (local edits don't appear as commits).
	// triggerMu serializes senders so a forced request can't be displaced
	// between the drain and the re-send in Trigger.
	trigger   chan bool
	triggerMu sync.Mutex

	mu         sync.RWMutex
	lastReport *pipeline.BatchReport
}

// New creates a daemon. sink and notifier may be nil. registry may be nil
// when no metrics endpoint is configured.
func New(cfg config.DaemonConfig, runner Runner, contentDir string, sink Sink, notifier Notifier, registry *prom.Registry) (*Daemon, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	return &Daemon{
		cfg:        cfg,
		runner:     runner,
		sink:       sink,
		notifier:   notifier,
		contentDir: contentDir,
		scheduler:  scheduler,
		registry:   registry,
		trigger:    make(chan bool, 1),
	}, nil
}

// Start begins scheduling, watching and the run loop. It blocks until ctx is
// canceled.
func (d *Daemon) Start(ctx context.Context) error {
	_, err := d.scheduler.NewJob(
		gocron.DurationJob(d.cfg.Interval),
		gocron.NewTask(func() { d.Trigger(false) }),
		gocron.WithName("scheduled-publish"),
	)
	if err != nil {
		return fmt.Errorf("failed to create publish job: %w", err)
	}
	d.scheduler.Start()
	slog.Info("Publish schedule started", slog.Duration("interval", d.cfg.Interval))

	watcher, err := NewContentWatcher(d.contentDir, d.cfg.Debounce, func() { d.Trigger(true) })
	if err != nil {
		slog.Warn("Content watcher unavailable, relying on schedule only", logfields.Error(err))
	} else {
		d.watcher = watcher
		watcher.Start(ctx)
	}

	if d.cfg.MetricsAddr != "" {
		d.startMetricsServer()
	}

	// Publish once at startup so a fresh daemon serves current content. The
	// output directory may be empty even when the mirror is current, so this
	// first cycle is forced.
	d.Trigger(true)

	d.runLoop(ctx)
	return nil
}

// Stop shuts down the scheduler, watcher and metrics server.
func (d *Daemon) Stop(ctx context.Context) error {
	if err := d.scheduler.Shutdown(); err != nil {
		slog.Warn("Scheduler shutdown failed", logfields.Error(err))
	}
	if d.watcher != nil {
		d.watcher.Stop()
	}
	if d.httpSrv != nil {
		if err := d.httpSrv.Shutdown(ctx); err != nil {
			return fmt.Errorf("metrics server shutdown: %w", err)
		}
	}
	return nil
}

// Trigger requests a publish cycle. Requests arriving while one is pending
// coalesce; a forced request upgrades a pending unforced one and is never
// downgraded by a concurrent unforced request.
func (d *Daemon) Trigger(force bool) {
	d.triggerMu.Lock()
	defer d.triggerMu.Unlock()

	select {
	case d.trigger <- force:
	default:
		if force {
			// Drain the pending request and replace it with a forced one.
			// The run loop may consume concurrently, but only this sender
			// fills the channel, so the send cannot fail.
			select {
			case <-d.trigger:
			default:
			}
			d.trigger <- true
		}
	}
}

// LastReport returns the most recent batch report, or nil before the first run.
func (d *Daemon) LastReport() *pipeline.BatchReport {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.lastReport
}

// runLoop serializes publish cycles until ctx is canceled.
func (d *Daemon) runLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			slog.Info("Run loop stopping")
			return
		case force := <-d.trigger:
			d.runOnce(ctx, force)
		}
	}
}

func (d *Daemon) runOnce(ctx context.Context, force bool) {
	report, err := d.runner.Run(ctx, force)
	if err != nil {
		slog.Error("Publish cycle failed", logfields.Error(err))
	}
	if report == nil {
		return
	}

	d.mu.Lock()
	d.lastReport = report
	d.mu.Unlock()

	slog.Info("Publish cycle finished",
		logfields.BatchID(report.ID),
		logfields.Outcome(report.Outcome),
		logfields.DurationMS(float64(report.Duration().Milliseconds())))

	if d.sink != nil {
		if err := d.sink.Record(ctx, report); err != nil {
			slog.Warn("Failed to record batch history", logfields.BatchID(report.ID), logfields.Error(err))
		}
	}

	if d.notifier != nil && (report.Outcome == pipeline.OutcomeSuccess || report.Outcome == pipeline.OutcomePartial) {
		if err := d.notifier.Published(report); err != nil {
			slog.Warn("Failed to send publish notification", logfields.BatchID(report.ID), logfields.Error(err))
		}
	}
}

func (d *Daemon) startMetricsServer() {
	mux := http.NewServeMux()
	if d.registry != nil {
		mux.Handle("/metrics", metrics.HTTPHandler(d.registry))
	}
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		report := d.LastReport()
		w.Header().Set("Content-Type", "application/json")
		if report == nil {
			fmt.Fprint(w, `{"status":"starting"}`)
			return
		}
		fmt.Fprintf(w, `{"status":"ok","last_batch":%q,"last_outcome":%q}`, report.ID, report.Outcome)
	})

	d.httpSrv = &http.Server{
		Addr:              d.cfg.MetricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("Metrics server listening", slog.String("addr", d.cfg.MetricsAddr))
		if err := d.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Metrics server failed", logfields.Error(err))
		}
	}()
}
