// Package pipeline runs one publish cycle end to end: sync, discover,
// convert, index, publish. Each run is a finite sequential batch; callers
// serialize overlapping runs.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"blogpress/internal/content"
	"blogpress/internal/convert"
	"blogpress/internal/gitsync"
	"blogpress/internal/index"
	"blogpress/internal/logfields"
	"blogpress/internal/metrics"
	"blogpress/internal/publish"
)

// ChangeDetector gates whether a batch does any work. Implemented by
// gitsync.Syncer; tests substitute fakes.
type ChangeDetector interface {
	// Sync brings local content up to date, returning true when new content
	// arrived. Failures wrapped in gitsync.ErrRemoteUnavailable skip the cycle.
	Sync() (bool, error)

	// ContentDir is the directory holding the source documents.
	ContentDir() string
}

// CreatedFn resolves a document's first creation timestamp, normally from git
// history. A gitsync.ErrNoHistory return triggers the current-date fallback.
type CreatedFn func(doc content.Document) (time.Time, error)

// Pipeline wires the publish stages together.
type Pipeline struct {
	detector  ChangeDetector
	converter *convert.Converter
	builder   *index.Builder
	store     publish.Store
	recorder  metrics.Recorder
	created   CreatedFn
	indexFile string
}

// New creates a pipeline. recorder may be nil (metrics disabled); created may
// be nil (creation dates fall back to the batch date).
func New(detector ChangeDetector, builder *index.Builder, store publish.Store, recorder metrics.Recorder, created CreatedFn, indexFile string) *Pipeline {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	if created == nil {
		created = func(content.Document) (time.Time, error) {
			return time.Time{}, gitsync.ErrNoHistory
		}
	}
	return &Pipeline{
		detector:  detector,
		converter: convert.New(),
		builder:   builder,
		store:     store,
		recorder:  recorder,
		created:   created,
		indexFile: indexFile,
	}
}

// converted pairs a document with its rendered artifact for the index stage.
type converted struct {
	doc      content.Document
	artifact []byte
}

// Run executes one publish cycle. The returned report is never nil; the error
// is non-nil only when a stage failed outright (remote unavailability and
// per-document problems are absorbed into the report).
func (p *Pipeline) Run(ctx context.Context, force bool) (*BatchReport, error) {
	report := NewBatchReport()
	defer func() {
		report.Finish()
		p.recorder.ObserveBatchDuration(report.Duration())
		p.recorder.IncBatchOutcome(report.Outcome)
	}()

	slog.Info("Publish batch starting", logfields.BatchID(report.ID))

	// Stage: sync. The detector gates everything that follows.
	updated, err := timedStage(p, report, StageSync, func() (bool, error) {
		return p.detector.Sync()
	})
	if err != nil {
		if errors.Is(err, gitsync.ErrRemoteUnavailable) {
			slog.Warn("Content remote unavailable, skipping cycle", logfields.BatchID(report.ID), logfields.Error(err))
			report.SkipReason = "remote_unavailable"
			return report, nil
		}
		report.Err = err
		return report, err
	}
	if !updated && !force {
		slog.Info("No new content, skipping cycle", logfields.BatchID(report.ID))
		report.SkipReason = "no_changes"
		return report, nil
	}

	if err := ctx.Err(); err != nil {
		report.Err = err
		return report, err
	}

	// Stage: discover.
	docs, err := timedStage(p, report, StageDiscover, func() ([]content.Document, error) {
		return content.Discover(p.detector.ContentDir())
	})
	if err != nil {
		report.Err = fmt.Errorf("discovery failed: %w", err)
		return report, report.Err
	}

	// Stage: convert. One bad document must not block the rest.
	results, _ := timedStage(p, report, StageConvert, func() ([]converted, error) {
		return p.convertAll(docs, report), nil
	})

	// Stage: index. Consumes the full converted set, after all conversions.
	page, err := timedStage(p, report, StageIndex, func() ([]byte, error) {
		return p.buildIndex(results)
	})
	if err != nil {
		report.Err = fmt.Errorf("index build failed: %w", err)
		return report, report.Err
	}

	// Stage: publish. Pass-through placement of artifacts plus the index.
	_, err = timedStage(p, report, StagePublish, func() (struct{}, error) {
		return struct{}{}, p.publishAll(ctx, results, page)
	})
	if err != nil {
		report.Err = fmt.Errorf("publish failed: %w", err)
		return report, report.Err
	}

	slog.Info("Publish batch finished",
		logfields.BatchID(report.ID),
		slog.Int("converted", report.Converted()),
		slog.Int("skipped", report.Skipped()))

	return report, nil
}

// timedStage runs fn, recording its duration under the stage name.
func timedStage[T any](p *Pipeline, report *BatchReport, stage string, fn func() (T, error)) (T, error) {
	t0 := time.Now()
	v, err := fn()
	d := time.Since(t0)
	report.StageDurations[stage] = d
	p.recorder.ObserveStageDuration(stage, d)
	return v, err
}

func (p *Pipeline) convertAll(docs []content.Document, report *BatchReport) []converted {
	var results []converted
	for i := range docs {
		doc := docs[i]
		artifact, err := p.converter.Convert(&doc)
		if err != nil {
			slog.Warn("Document skipped",
				logfields.BatchID(report.ID),
				logfields.Document(doc.RelativePath),
				logfields.Error(err))
			report.AddResult(DocumentResult{
				Document: doc.RelativePath,
				Status:   StatusSkipped,
				Reason:   err.Error(),
			})
			p.recorder.IncDocumentResult(metrics.ResultSkipped)
			continue
		}

		report.AddResult(DocumentResult{
			Document: doc.RelativePath,
			Artifact: doc.ArtifactName(),
			Status:   StatusConverted,
		})
		p.recorder.IncDocumentResult(metrics.ResultConverted)
		results = append(results, converted{doc: doc, artifact: artifact})
	}
	return results
}

func (p *Pipeline) buildIndex(results []converted) ([]byte, error) {
	entries := make([]index.Entry, 0, len(results))
	now := time.Now()

	for _, r := range results {
		title, ok := index.ExtractTitle(r.artifact)
		if !ok {
			// A document with no discoverable title still gets an entry.
			title = r.doc.Name
		}

		createdAt, err := p.created(r.doc)
		if err != nil {
			if !errors.Is(err, gitsync.ErrNoHistory) {
				slog.Warn("Creation date lookup failed", logfields.Document(r.doc.RelativePath), logfields.Error(err))
			}
			createdAt = now
		}

		entries = append(entries, index.Entry{
			Link:    r.doc.ArtifactName(),
			Title:   title,
			Created: createdAt,
			ModTime: r.doc.ModTime,
		})
	}

	return p.builder.Render(entries)
}

func (p *Pipeline) publishAll(ctx context.Context, results []converted, page []byte) error {
	for _, r := range results {
		if err := p.store.Put(ctx, r.doc.ArtifactName(), r.artifact); err != nil {
			return fmt.Errorf("artifact %s: %w", r.doc.ArtifactName(), err)
		}
		slog.Debug("Artifact published", logfields.Artifact(r.doc.ArtifactName()))
	}

	if err := p.store.Put(ctx, p.indexFile, page); err != nil {
		return fmt.Errorf("index %s: %w", p.indexFile, err)
	}

	return nil
}
