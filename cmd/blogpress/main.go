package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	prom "github.com/prometheus/client_golang/prometheus"

	"blogpress/internal/config"
	"blogpress/internal/content"
	"blogpress/internal/daemon"
	"blogpress/internal/gitsync"
	"blogpress/internal/history"
	"blogpress/internal/index"
	"blogpress/internal/metrics"
	"blogpress/internal/notify"
	"blogpress/internal/pipeline"
	"blogpress/internal/publish"
	"blogpress/internal/workspace"
)

var CLI struct {
	Config  string `short:"c" help:"Configuration file path" default:"config.yaml"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Publish struct {
		Force      bool `short:"f" help:"Publish even when the remote reports no new content"`
		TempMirror bool `help:"Clone into a throwaway mirror removed after the run"`
	} `cmd:"" help:"Run one publish cycle"`

	Init struct {
		Force bool `help:"Overwrite existing configuration file"`
	} `cmd:"" help:"Initialize a new configuration file"`

	Daemon struct {
	} `cmd:"" help:"Run continuously: scheduled syncs plus rebuild on local edits"`

	History struct {
		Limit int    `short:"n" help:"Number of batches to show" default:"20"`
		Batch string `short:"b" help:"Show per-document results for one batch ID"`
	} `cmd:"" help:"Show recent publish batches"`
}

func main() {
	ctx := kong.Parse(&CLI)

	logLevel := slog.LevelInfo
	if CLI.Verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	switch ctx.Command() {
	case "publish":
		cfg, err := config.Load(CLI.Config)
		if err != nil {
			slog.Error("Failed to load configuration", "error", err)
			os.Exit(1)
		}
		if err := runPublish(cfg, CLI.Publish.Force, CLI.Publish.TempMirror); err != nil {
			slog.Error("Publish failed", "error", err)
			os.Exit(1)
		}
	case "init":
		if err := config.Init(CLI.Config, CLI.Init.Force); err != nil {
			slog.Error("Init failed", "error", err)
			os.Exit(1)
		}
		slog.Info("Configuration written", "path", CLI.Config)
	case "daemon":
		cfg, err := config.Load(CLI.Config)
		if err != nil {
			slog.Error("Failed to load configuration", "error", err)
			os.Exit(1)
		}
		if err := runDaemon(cfg); err != nil {
			slog.Error("Daemon failed", "error", err)
			os.Exit(1)
		}
	case "history":
		cfg, err := config.Load(CLI.Config)
		if err != nil {
			slog.Error("Failed to load configuration", "error", err)
			os.Exit(1)
		}
		if err := runHistory(cfg, CLI.History.Limit, CLI.History.Batch); err != nil {
			slog.Error("History failed", "error", err)
			os.Exit(1)
		}
	}
}

// mirrorDir resolves the local mirror location and returns its cleanup.
// The default is a persistent workspace so pulls stay incremental; tempMirror
// selects an ephemeral workspace removed by the cleanup.
func mirrorDir(cfg *config.Config, tempMirror bool) (string, func() error, error) {
	if tempMirror {
		if cfg.Source.URL == "" {
			return "", nil, fmt.Errorf("--temp-mirror requires a source url to clone from")
		}
		ws := workspace.NewManager("")
		if err := ws.Create(); err != nil {
			return "", nil, err
		}
		return ws.Path(), ws.Cleanup, nil
	}

	if cfg.Source.Mirror != "" {
		return cfg.Source.Mirror, func() error { return nil }, nil
	}

	ws := workspace.NewPersistentManager(".blogpress", "mirror")
	if err := ws.Create(); err != nil {
		return "", nil, err
	}
	return ws.Path(), ws.Cleanup, nil
}

// buildPipeline wires the publish stages from configuration.
func buildPipeline(cfg *config.Config, recorder metrics.Recorder, tempMirror bool) (*pipeline.Pipeline, *gitsync.Syncer, func() error, error) {
	mirror, cleanup, err := mirrorDir(cfg, tempMirror)
	if err != nil {
		return nil, nil, nil, err
	}

	syncer := gitsync.NewSyncer(cfg.Source, mirror)

	store, err := publish.NewFSStore(cfg.Output.Directory)
	if err != nil {
		return nil, nil, nil, err
	}

	builder := index.NewBuilder(cfg.Site.Title, cfg.Site.DateFormat)

	created := func(doc content.Document) (time.Time, error) {
		return gitsync.FirstCommitTime(mirror, filepath.Join(cfg.Source.ContentDir, doc.RelativePath))
	}

	p := pipeline.New(syncer, builder, store, recorder, created, cfg.Site.IndexFile)
	return p, syncer, cleanup, nil
}

func runPublish(cfg *config.Config, force, tempMirror bool) error {
	p, _, cleanup, err := buildPipeline(cfg, nil, tempMirror)
	if err != nil {
		return err
	}
	defer func() {
		if err := cleanup(); err != nil {
			slog.Warn("Failed to clean up mirror workspace", "error", err)
		}
	}()

	ctx := context.Background()
	report, err := p.Run(ctx, force)
	if report != nil && cfg.History.Path != "" {
		if store, herr := history.Open(cfg.History.Path); herr == nil {
			if rerr := store.Record(ctx, report); rerr != nil {
				slog.Warn("Failed to record batch history", "error", rerr)
			}
			_ = store.Close()
		} else {
			slog.Warn("Failed to open history store", "error", herr)
		}
	}
	if err != nil {
		return err
	}

	if cfg.Notify != nil && (report.Outcome == pipeline.OutcomeSuccess || report.Outcome == pipeline.OutcomePartial) {
		notifier, nerr := notify.New(cfg.Notify)
		if nerr != nil {
			slog.Warn("Notification unavailable", "error", nerr)
		} else {
			if perr := notifier.Published(report); perr != nil {
				slog.Warn("Failed to send publish notification", "error", perr)
			}
			notifier.Close()
		}
	}

	slog.Info("Publish completed",
		"batch", report.ID,
		"outcome", report.Outcome,
		"converted", report.Converted(),
		"skipped", report.Skipped())
	return nil
}

func runDaemon(cfg *config.Config) error {
	registry := prom.NewRegistry()
	recorder := metrics.NewPrometheusRecorder(registry)

	p, syncer, _, err := buildPipeline(cfg, recorder, false)
	if err != nil {
		return err
	}

	// Prime the mirror so the content watcher has a directory to watch.
	if _, err := syncer.Sync(); err != nil {
		slog.Warn("Initial content sync failed, continuing on schedule", "error", err)
	}

	var sink daemon.Sink
	var historyStore *history.Store
	if cfg.History.Path != "" {
		historyStore, err = history.Open(cfg.History.Path)
		if err != nil {
			return fmt.Errorf("failed to open history store: %w", err)
		}
		defer historyStore.Close()
		sink = historyStore
	}

	var notifier daemon.Notifier
	if cfg.Notify != nil {
		n, err := notify.New(cfg.Notify)
		if err != nil {
			slog.Warn("Notification unavailable, continuing without it", "error", err)
		} else {
			defer n.Close()
			notifier = n
		}
	}

	d, err := daemon.New(cfg.Daemon, p, syncer.ContentDir(), sink, notifier, registry)
	if err != nil {
		return fmt.Errorf("failed to create daemon: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	errChan := make(chan error, 1)
	go func() {
		errChan <- d.Start(ctx)
	}()

	slog.Info("Daemon started, waiting for shutdown signal...")

	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("daemon error: %w", err)
		}
	case <-ctx.Done():
		slog.Info("Shutdown signal received, stopping daemon...")
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer stopCancel()

	if err := d.Stop(stopCtx); err != nil {
		return fmt.Errorf("failed to stop daemon: %w", err)
	}

	slog.Info("Daemon stopped")
	return nil
}

func runHistory(cfg *config.Config, limit int, batchID string) error {
	if cfg.History.Path == "" {
		return fmt.Errorf("no history store configured (set history.path)")
	}

	store, err := history.Open(cfg.History.Path)
	if err != nil {
		return fmt.Errorf("failed to open history store: %w", err)
	}
	defer store.Close()

	ctx := context.Background()

	if batchID != "" {
		results, err := store.DocumentResults(ctx, batchID)
		if err != nil {
			return err
		}
		for _, r := range results {
			if r.Status == pipeline.StatusConverted {
				fmt.Printf("%-12s %s -> %s\n", r.Status, r.Document, r.Artifact)
			} else {
				fmt.Printf("%-12s %s (%s)\n", r.Status, r.Document, r.Reason)
			}
		}
		return nil
	}

	summaries, err := store.Recent(ctx, limit)
	if err != nil {
		return err
	}
	for _, s := range summaries {
		line := fmt.Sprintf("%s  %-8s converted=%d skipped=%d  %s",
			s.StartedAt.Format(time.RFC3339), s.Outcome, s.Converted, s.Skipped, s.ID)
		if s.SkipReason != "" {
			line += "  reason=" + s.SkipReason
		}
		if s.Error != "" {
			line += "  error=" + s.Error
		}
		fmt.Println(line)
	}
	return nil
}
