package history

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"blogpress/internal/pipeline"
)

func sampleReport(outcome string) *pipeline.BatchReport {
	report := pipeline.NewBatchReport()
	report.AddResult(pipeline.DocumentResult{
		Document: "a.md", Artifact: "a.html", Status: pipeline.StatusConverted,
	})
	report.AddResult(pipeline.DocumentResult{
		Document: "d.md", Status: pipeline.StatusSkipped, Reason: "markdown conversion failed",
	})
	if outcome == pipeline.OutcomeFailed {
		report.Err = errors.New("publish failed: disk full")
	}
	report.Finish()
	return report
}

func TestStore_RecordAndRecent(t *testing.T) {
	store, err := Open(":memory:")
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	report := sampleReport(pipeline.OutcomePartial)
	require.NoError(t, store.Record(ctx, report))

	recent, err := store.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	require.Equal(t, report.ID, recent[0].ID)
	require.Equal(t, pipeline.OutcomePartial, recent[0].Outcome)
	require.Equal(t, 1, recent[0].Converted)
	require.Equal(t, 1, recent[0].Skipped)
}

func TestStore_DocumentResults(t *testing.T) {
	store, err := Open(":memory:")
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	report := sampleReport(pipeline.OutcomePartial)
	require.NoError(t, store.Record(ctx, report))

	results, err := store.DocumentResults(ctx, report.ID)
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Equal(t, "a.md", results[0].Document)
	require.Equal(t, pipeline.StatusConverted, results[0].Status)
	require.Equal(t, "d.md", results[1].Document)
	require.Equal(t, pipeline.StatusSkipped, results[1].Status)
	require.Contains(t, results[1].Reason, "conversion failed")
}

func TestStore_RecordsError(t *testing.T) {
	store, err := Open(":memory:")
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	require.NoError(t, store.Record(ctx, sampleReport(pipeline.OutcomeFailed)))

	recent, err := store.Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	require.Equal(t, pipeline.OutcomeFailed, recent[0].Outcome)
	require.Contains(t, recent[0].Error, "disk full")
}

func TestStore_RecentOrderAndLimit(t *testing.T) {
	store, err := Open(":memory:")
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	var last string
	for i := 0; i < 3; i++ {
		report := pipeline.NewBatchReport()
		report.StartedAt = time.Now().Add(time.Duration(i) * time.Hour)
		report.Finish()
		require.NoError(t, store.Record(ctx, report))
		last = report.ID
	}

	recent, err := store.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	require.Equal(t, last, recent[0].ID)
}

func TestStore_PersistsAcrossOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	store, err := Open(path)
	require.NoError(t, err)
	report := sampleReport(pipeline.OutcomePartial)
	require.NoError(t, store.Record(context.Background(), report))
	require.NoError(t, store.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	recent, err := reopened.Recent(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	require.Equal(t, report.ID, recent[0].ID)
}
