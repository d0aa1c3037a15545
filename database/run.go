package database

import (
	"context"
	"database/sql"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/costline/porecon/internal/recerror"
	"github.com/costline/porecon/model"
)

// RecordReconciliationRun inserts a new reconciliation run into the database
func (d Datasource) RecordReconciliationRun(ctx context.Context, run *model.ReconciliationRun) error {
	ctx, span := otel.Tracer("ReconciliationRun").Start(ctx, "Saving reconciliation run to db")
	defer span.End()

	_, err := d.Conn.ExecContext(ctx, `
		INSERT INTO reconciliation_runs (run_id, status, snapshot_date, processed_lines,
			orphan_postings, started_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, run.RunID, run.Status, run.SnapshotDate, run.ProcessedLines, run.OrphanPostings,
		run.StartedAt, run.CompletedAt)

	return err
}

// GetReconciliationRun retrieves a reconciliation run by its ID
func (d Datasource) GetReconciliationRun(ctx context.Context, id string) (*model.ReconciliationRun, error) {
	ctx, span := otel.Tracer("ReconciliationRun").Start(ctx, "Fetching reconciliation run from db")
	defer span.End()

	run := &model.ReconciliationRun{}
	err := d.Conn.QueryRowContext(ctx, `
		SELECT id, run_id, status, snapshot_date, processed_lines, orphan_postings,
			started_at, completed_at
		FROM reconciliation_runs
		WHERE run_id = $1
	`, id).Scan(
		&run.ID, &run.RunID, &run.Status, &run.SnapshotDate, &run.ProcessedLines,
		&run.OrphanPostings, &run.StartedAt, &run.CompletedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, recerror.New(recerror.ErrNotFound, "reconciliation run not found", id)
		}
		return nil, err
	}

	return run, nil
}

// UpdateReconciliationRunStatus updates the status of a reconciliation run
func (d Datasource) UpdateReconciliationRunStatus(ctx context.Context, id string, status string, processedLines, orphanPostings int) error {
	ctx, span := otel.Tracer("ReconciliationRun").Start(ctx, "Updating reconciliation run status")
	defer span.End()

	completedAt := sql.NullTime{Time: time.Now(), Valid: status == "completed" || status == "failed"}

	_, err := d.Conn.ExecContext(ctx, `
		UPDATE reconciliation_runs
		SET status = $2, processed_lines = $3, orphan_postings = $4, completed_at = $5
		WHERE run_id = $1
	`, id, status, processedLines, orphanPostings, completedAt)

	return err
}

// GetLastCompletedRun retrieves the most recent completed run, if any. The
// shrinkage check compares the current active line count against it.
func (d Datasource) GetLastCompletedRun(ctx context.Context) (*model.ReconciliationRun, error) {
	ctx, span := otel.Tracer("ReconciliationRun").Start(ctx, "Fetching last completed run")
	defer span.End()

	run := &model.ReconciliationRun{}
	err := d.Conn.QueryRowContext(ctx, `
		SELECT id, run_id, status, snapshot_date, processed_lines, orphan_postings,
			started_at, completed_at
		FROM reconciliation_runs
		WHERE status = 'completed'
		ORDER BY started_at DESC
		LIMIT 1
	`).Scan(
		&run.ID, &run.RunID, &run.Status, &run.SnapshotDate, &run.ProcessedLines,
		&run.OrphanPostings, &run.StartedAt, &run.CompletedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return run, nil
}
