// Package history persists publish batch reports for later inspection.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"blogpress/internal/pipeline"
)

// Store records batch reports in SQLite.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// Open creates a history store at dbPath. Use ":memory:" for an in-memory
// database, or a file path for persistent storage.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	store := &Store{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS batches (
		id TEXT PRIMARY KEY,
		started_at INTEGER NOT NULL,
		finished_at INTEGER NOT NULL,
		outcome TEXT NOT NULL,
		skip_reason TEXT,
		converted INTEGER NOT NULL,
		skipped INTEGER NOT NULL,
		error TEXT
	);
	CREATE TABLE IF NOT EXISTS document_results (
		batch_id TEXT NOT NULL,
		document TEXT NOT NULL,
		artifact TEXT,
		status TEXT NOT NULL,
		reason TEXT,
		FOREIGN KEY (batch_id) REFERENCES batches(id)
	);
	CREATE INDEX IF NOT EXISTS idx_batches_started ON batches(started_at);
	CREATE INDEX IF NOT EXISTS idx_results_batch ON document_results(batch_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record persists one batch report with its per-document results.
func (s *Store) Record(ctx context.Context, report *pipeline.BatchReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var errText sql.NullString
	if report.Err != nil {
		errText = sql.NullString{String: report.Err.Error(), Valid: true}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO batches (id, started_at, finished_at, outcome, skip_reason, converted, skipped, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		report.ID,
		report.StartedAt.Unix(),
		report.FinishedAt.Unix(),
		report.Outcome,
		report.SkipReason,
		report.Converted(),
		report.Skipped(),
		errText,
	)
	if err != nil {
		return fmt.Errorf("insert batch: %w", err)
	}

	for _, doc := range report.Documents {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO document_results (batch_id, document, artifact, status, reason)
			 VALUES (?, ?, ?, ?, ?)`,
			report.ID, doc.Document, doc.Artifact, string(doc.Status), doc.Reason,
		)
		if err != nil {
			return fmt.Errorf("insert document result: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// BatchSummary is one row of the publish log.
type BatchSummary struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Outcome    string
	SkipReason string
	Converted  int
	Skipped    int
	Error      string
}

// Recent returns the most recent batches, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]BatchSummary, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, finished_at, outcome, skip_reason, converted, skipped, error
		 FROM batches ORDER BY started_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query batches: %w", err)
	}
	defer rows.Close()

	var summaries []BatchSummary
	for rows.Next() {
		var b BatchSummary
		var started, finished int64
		var skipReason, errText sql.NullString
		if err := rows.Scan(&b.ID, &started, &finished, &b.Outcome, &skipReason, &b.Converted, &b.Skipped, &errText); err != nil {
			return nil, fmt.Errorf("scan batch: %w", err)
		}
		b.StartedAt = time.Unix(started, 0)
		b.FinishedAt = time.Unix(finished, 0)
		b.SkipReason = skipReason.String
		b.Error = errText.String
		summaries = append(summaries, b)
	}
	return summaries, rows.Err()
}

// DocumentResults returns the per-document results for one batch.
func (s *Store) DocumentResults(ctx context.Context, batchID string) ([]pipeline.DocumentResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT document, artifact, status, reason FROM document_results
		 WHERE batch_id = ? ORDER BY document`, batchID)
	if err != nil {
		return nil, fmt.Errorf("query document results: %w", err)
	}
	defer rows.Close()

	var results []pipeline.DocumentResult
	for rows.Next() {
		var r pipeline.DocumentResult
		var artifact, reason sql.NullString
		var status string
		if err := rows.Scan(&r.Document, &artifact, &status, &reason); err != nil {
			return nil, fmt.Errorf("scan document result: %w", err)
		}
		r.Artifact = artifact.String
		r.Status = pipeline.DocumentStatus(status)
		r.Reason = reason.String
		results = append(results, r)
	}
	return results, rows.Err()
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
