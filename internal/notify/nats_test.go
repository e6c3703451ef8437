package notify

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"blogpress/internal/config"
	"blogpress/internal/pipeline"
)

// Port 1 is never a NATS server; Connect must fail fast.
var testNotifyConfig = config.NotifyConfig{URL: "nats://127.0.0.1:1", Subject: "blog.published"}

func TestPublishedEvent_RoundTrip(t *testing.T) {
	report := pipeline.NewBatchReport()
	report.AddResult(pipeline.DocumentResult{Document: "a.md", Artifact: "a.html", Status: pipeline.StatusConverted})
	report.Finish()

	event := PublishedEvent{
		BatchID:    report.ID,
		Outcome:    report.Outcome,
		Converted:  report.Converted(),
		Skipped:    report.Skipped(),
		FinishedAt: report.FinishedAt,
	}

	payload, err := json.Marshal(event)
	require.NoError(t, err)

	var decoded PublishedEvent
	require.NoError(t, json.Unmarshal(payload, &decoded))
	require.Equal(t, report.ID, decoded.BatchID)
	require.Equal(t, pipeline.OutcomeSuccess, decoded.Outcome)
	require.Equal(t, 1, decoded.Converted)
}

func TestNew_UnreachableServer(t *testing.T) {
	_, err := New(&testNotifyConfig)
	require.Error(t, err)
}
