package metrics

import "time"

// ResultLabel enumerates per-document result categories for counters.
type ResultLabel string

const (
	ResultConverted ResultLabel = "converted"
	ResultSkipped   ResultLabel = "skipped"
)

// Recorder defines observability hooks for batch and stage metrics.
// Implementations may forward to Prometheus, OpenTelemetry, etc. The
// NoopRecorder allows optional injection.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	ObserveBatchDuration(d time.Duration)
	IncDocumentResult(result ResultLabel)
	IncBatchOutcome(outcome string) // outcome: success|partial|skipped|failed
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration) {}
func (NoopRecorder) ObserveBatchDuration(time.Duration)         {}
func (NoopRecorder) IncDocumentResult(ResultLabel)              {}
func (NoopRecorder) IncBatchOutcome(string)                     {}
