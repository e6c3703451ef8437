package pipeline

import (
	"time"

	"github.com/google/uuid"
)

// Stage names, in execution order.
const (
	StageSync     = "sync"
	StageDiscover = "discover"
	StageConvert  = "convert"
	StageIndex    = "index"
	StagePublish  = "publish"
)

// Batch outcomes.
const (
	OutcomeSuccess = "success" // All documents converted and published
	OutcomePartial = "partial" // Some documents skipped, the rest published
	OutcomeSkipped = "skipped" // Cycle skipped before any conversion work
	OutcomeFailed  = "failed"  // A stage error aborted the batch
)

// DocumentStatus is the per-document result category.
type DocumentStatus string

const (
	StatusConverted DocumentStatus = "converted"
	StatusSkipped   DocumentStatus = "skipped"
)

// DocumentResult records the outcome for one source document.
type DocumentResult struct {
	Document string         // Relative source path
	Artifact string         // Output filename (empty when skipped)
	Status   DocumentStatus
	Reason   string // Populated for skips
}

// BatchReport aggregates the results of one publish cycle.
type BatchReport struct {
	ID             string
	StartedAt      time.Time
	FinishedAt     time.Time
	StageDurations map[string]time.Duration
	Documents      []DocumentResult
	Outcome        string
	SkipReason     string // Set when the batch was gated off before converting
	Err            error  // Set when a stage failed
}

// NewBatchReport starts a report for a new publish cycle.
func NewBatchReport() *BatchReport {
	return &BatchReport{
		ID:             uuid.NewString(),
		StartedAt:      time.Now(),
		StageDurations: make(map[string]time.Duration),
	}
}

// AddResult appends one document result.
func (r *BatchReport) AddResult(res DocumentResult) {
	r.Documents = append(r.Documents, res)
}

// Converted returns the number of successfully converted documents.
func (r *BatchReport) Converted() int {
	n := 0
	for _, d := range r.Documents {
		if d.Status == StatusConverted {
			n++
		}
	}
	return n
}

// Skipped returns the number of skipped documents.
func (r *BatchReport) Skipped() int {
	n := 0
	for _, d := range r.Documents {
		if d.Status == StatusSkipped {
			n++
		}
	}
	return n
}

// Finish stamps the end time and derives the final outcome.
func (r *BatchReport) Finish() {
	r.FinishedAt = time.Now()

	switch {
	case r.Err != nil:
		r.Outcome = OutcomeFailed
	case r.SkipReason != "":
		r.Outcome = OutcomeSkipped
	case r.Skipped() > 0:
		r.Outcome = OutcomePartial
	default:
		r.Outcome = OutcomeSuccess
	}
}

// Duration returns the total batch duration.
func (r *BatchReport) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return time.Since(r.StartedAt)
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
