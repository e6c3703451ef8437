package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBatchID    = "batch_id"
	KeyStage      = "stage"
	KeyDocument   = "document"
	KeyArtifact   = "artifact"
	KeyPath       = "path"
	KeyURL        = "url"
	KeyDurationMS = "duration_ms"
	KeyOutcome    = "outcome"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BatchID(id string) slog.Attr      { return slog.String(KeyBatchID, id) }
func Stage(name string) slog.Attr      { return slog.String(KeyStage, name) }
func Document(name string) slog.Attr   { return slog.String(KeyDocument, name) }
func Artifact(name string) slog.Attr   { return slog.String(KeyArtifact, name) }
func Path(p string) slog.Attr          { return slog.String(KeyPath, p) }
func URL(u string) slog.Attr           { return slog.String(KeyURL, u) }
func DurationMS(ms float64) slog.Attr  { return slog.Float64(KeyDurationMS, ms) }
func Outcome(o string) slog.Attr       { return slog.String(KeyOutcome, o) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
