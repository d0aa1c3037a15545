package database

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/costline/porecon/model"
)

// GetGRIRExposures retrieves the exposure snapshots at a snapshot date
func (d Datasource) GetGRIRExposures(ctx context.Context, snapshot time.Time) ([]*model.GRIRExposureSnapshot, error) {
	ctx, span := otel.Tracer("GRIR").Start(ctx, "Fetching GRIR exposures from db")
	defer span.End()

	rows, err := d.Conn.QueryContext(ctx, `
		SELECT id, po_line_id, snapshot_date, grir_qty, grir_value, first_exposure_date,
			days_open, time_bucket
		FROM grir_exposures
		WHERE snapshot_date = $1
		ORDER BY po_line_id
	`, snapshot)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var exposures []*model.GRIRExposureSnapshot
	for rows.Next() {
		exp := &model.GRIRExposureSnapshot{}
		err = rows.Scan(
			&exp.ID, &exp.POLineID, &exp.SnapshotDate, &exp.GRIRQty, &exp.GRIRValue,
			&exp.FirstExposureDate, &exp.DaysOpen, &exp.TimeBucket,
		)
		if err != nil {
			return nil, err
		}
		exposures = append(exposures, exp)
	}

	return exposures, rows.Err()
}

// UpsertGRIRExposure inserts an exposure snapshot, or refreshes the live one
// for the same line and snapshot date
func (d Datasource) UpsertGRIRExposure(ctx context.Context, exp *model.GRIRExposureSnapshot) error {
	ctx, span := otel.Tracer("GRIR").Start(ctx, "Upserting GRIR exposure")
	defer span.End()

	_, err := d.Conn.ExecContext(ctx, `
		INSERT INTO grir_exposures (po_line_id, snapshot_date, grir_qty, grir_value,
			first_exposure_date, days_open, time_bucket)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (po_line_id, snapshot_date) DO UPDATE SET
			grir_qty = EXCLUDED.grir_qty,
			grir_value = EXCLUDED.grir_value,
			first_exposure_date = EXCLUDED.first_exposure_date,
			days_open = EXCLUDED.days_open,
			time_bucket = EXCLUDED.time_bucket
	`, exp.POLineID, exp.SnapshotDate, exp.GRIRQty, exp.GRIRValue, exp.FirstExposureDate,
		exp.DaysOpen, exp.TimeBucket)

	return err
}

// DeleteGRIRExposure removes a resolved exposure snapshot
func (d Datasource) DeleteGRIRExposure(ctx context.Context, poLineID string, snapshot time.Time) error {
	ctx, span := otel.Tracer("GRIR").Start(ctx, "Deleting GRIR exposure")
	defer span.End()

	_, err := d.Conn.ExecContext(ctx, `
		DELETE FROM grir_exposures WHERE po_line_id = $1 AND snapshot_date = $2
	`, poLineID, snapshot)

	return err
}
