package database

import (
	"context"
	"database/sql"
	"log"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/costline/porecon/model"
)

// GetCostImpactRecords retrieves the impact records of one PO line
func (d Datasource) GetCostImpactRecords(ctx context.Context, poLineID string) ([]*model.CostImpactRecord, error) {
	ctx, span := otel.Tracer("CostImpact").Start(ctx, "Fetching cost impact records from db")
	defer span.End()

	rows, err := d.Conn.QueryContext(ctx, `
		SELECT id, po_line_id, posting_id, posting_type, posting_date, posting_qty,
			impact_qty, impact_amount, cumulative_qty, run_id
		FROM cost_impact_records
		WHERE po_line_id = $1
		ORDER BY posting_date, posting_id
	`, poLineID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*model.CostImpactRecord
	for rows.Next() {
		rec := &model.CostImpactRecord{}
		err = rows.Scan(
			&rec.ID, &rec.POLineID, &rec.PostingID, &rec.PostingType, &rec.PostingDate,
			&rec.PostingQty, &rec.ImpactQty, &rec.ImpactAmount, &rec.CumulativeQty, &rec.RunID,
		)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

// CommitRunResults writes a run's line results in a single transaction:
// per line, the prior impact records are replaced by the recomputed set, the
// line's open values are refreshed, and its GRIR exposure snapshot is
// upserted or removed. Either every line's output lands or none of it does.
func (d Datasource) CommitRunResults(ctx context.Context, runID string, snapshot time.Time, results []*model.LineResult) error {
	ctx, span := otel.Tracer("CostImpact").Start(ctx, "Committing run results to db")
	defer span.End()

	tx, err := d.Conn.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, result := range results {
		lineID := result.Line.POLineID

		_, err = tx.ExecContext(ctx, `
			DELETE FROM cost_impact_records WHERE po_line_id = $1
		`, lineID)
		if err != nil {
			return err
		}

		for _, rec := range result.Records {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO cost_impact_records (po_line_id, posting_id, posting_type, posting_date,
					posting_qty, impact_qty, impact_amount, cumulative_qty, run_id)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			`, rec.POLineID, rec.PostingID, rec.PostingType, rec.PostingDate, rec.PostingQty,
				rec.ImpactQty, rec.ImpactAmount, rec.CumulativeQty, runID)
			if err != nil {
				return err
			}
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE po_line_items SET open_qty = $2, open_value = $3 WHERE po_line_id = $1
		`, lineID, result.OpenQty, result.OpenValue)
		if err != nil {
			return err
		}

		if result.Exposure != nil {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO grir_exposures (po_line_id, snapshot_date, grir_qty, grir_value,
					first_exposure_date, days_open, time_bucket)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
				ON CONFLICT (po_line_id, snapshot_date) DO UPDATE SET
					grir_qty = EXCLUDED.grir_qty,
					grir_value = EXCLUDED.grir_value,
					first_exposure_date = EXCLUDED.first_exposure_date,
					days_open = EXCLUDED.days_open,
					time_bucket = EXCLUDED.time_bucket
			`, result.Exposure.POLineID, result.Exposure.SnapshotDate, result.Exposure.GRIRQty,
				result.Exposure.GRIRValue, result.Exposure.FirstExposureDate,
				result.Exposure.DaysOpen, result.Exposure.TimeBucket)
			if err != nil {
				return err
			}
		} else {
			_, err = tx.ExecContext(ctx, `
				DELETE FROM grir_exposures WHERE po_line_id = $1 AND snapshot_date = $2
			`, lineID, snapshot)
			if err != nil {
				return err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	if d.Cache != nil {
		for _, result := range results {
			if err := d.Cache.Delete(ctx, poLineCacheKey(result.Line.POLineID)); err != nil {
				log.Printf("Failed to invalidate PO line cache: %v", err)
			}
		}
	}

	return nil
}
