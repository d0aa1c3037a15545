package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/lib/pq"
	"go.opentelemetry.io/otel"

	"github.com/costline/porecon/internal/recerror"
	"github.com/costline/porecon/model"
)

// RecordPOLine inserts a new PO line item into the database
func (d Datasource) RecordPOLine(ctx context.Context, line *model.POLine) (*model.POLine, error) {
	ctx, span := otel.Tracer("POLine").Start(ctx, "Saving PO line to db")
	defer span.End()

	metaDataJSON, err := json.Marshal(line.MetaData)
	if err != nil {
		return nil, err
	}

	line.CreatedAt = time.Now()
	err = d.Conn.QueryRowContext(ctx, `
		INSERT INTO po_line_items (po_line_id, po_number, pr_number, pr_line, vendor_category,
			account_assignment_category, ordered_qty, ordered_value, receipt_status, is_active,
			open_qty, open_value, created_at, meta_data)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id
	`, line.POLineID, line.PONumber, line.PRNumber, line.PRLine, line.VendorCategory,
		line.AccountAssignmentCategory, line.OrderedQty, line.OrderedValue, line.ReceiptStatus,
		line.IsActive, line.OpenQty, line.OpenValue, line.CreatedAt, metaDataJSON).Scan(&line.ID)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return nil, recerror.New(recerror.ErrConstraintViolation, "PO line already exists", line.POLineID)
		}
		return nil, err
	}

	return line, nil
}

func poLineCacheKey(id string) string {
	return fmt.Sprintf("po_line:%s", id)
}

// GetPOLineByID retrieves a PO line item by its ID. Single lines are cached
// briefly; every write path that touches a line deletes its key.
func (d Datasource) GetPOLineByID(ctx context.Context, id string) (*model.POLine, error) {
	ctx, span := otel.Tracer("POLine").Start(ctx, "Fetching PO line from db")
	defer span.End()

	line := &model.POLine{}
	if d.Cache != nil {
		if err := d.Cache.Get(ctx, poLineCacheKey(id), line); err == nil && line.POLineID != "" {
			return line, nil
		}
	}

	var metaDataJSON []byte
	err := d.Conn.QueryRowContext(ctx, `
		SELECT id, po_line_id, po_number, pr_number, pr_line, vendor_category,
			account_assignment_category, ordered_qty, ordered_value, receipt_status, is_active,
			open_qty, open_value, created_at, meta_data
		FROM po_line_items
		WHERE po_line_id = $1
	`, id).Scan(
		&line.ID, &line.POLineID, &line.PONumber, &line.PRNumber, &line.PRLine,
		&line.VendorCategory, &line.AccountAssignmentCategory, &line.OrderedQty, &line.OrderedValue,
		&line.ReceiptStatus, &line.IsActive, &line.OpenQty, &line.OpenValue, &line.CreatedAt,
		&metaDataJSON,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, recerror.New(recerror.ErrNotFound, "PO line not found", id)
		}
		return nil, err
	}

	if len(metaDataJSON) > 0 {
		if err := json.Unmarshal(metaDataJSON, &line.MetaData); err != nil {
			return nil, err
		}
	}

	if d.Cache != nil {
		if err := d.Cache.Set(ctx, poLineCacheKey(id), line, 5*time.Minute); err != nil {
			log.Printf("Failed to cache PO line: %v", err)
		}
	}

	return line, nil
}

// GetActivePOLines retrieves active PO line items in a paginated manner. The
// run's input load always reads the database; lines imported or deactivated
// moments before a run must be visible to it.
func (d Datasource) GetActivePOLines(ctx context.Context, limit, offset int) ([]*model.POLine, error) {
	ctx, span := otel.Tracer("POLine").Start(ctx, "Fetching active PO lines from db")
	defer span.End()

	rows, err := d.Conn.QueryContext(ctx, `
		SELECT id, po_line_id, po_number, pr_number, pr_line, vendor_category,
			account_assignment_category, ordered_qty, ordered_value, receipt_status, is_active,
			open_qty, open_value, created_at
		FROM po_line_items
		WHERE is_active = TRUE
		ORDER BY po_line_id
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []*model.POLine
	for rows.Next() {
		line := &model.POLine{}
		err = rows.Scan(
			&line.ID, &line.POLineID, &line.PONumber, &line.PRNumber, &line.PRLine,
			&line.VendorCategory, &line.AccountAssignmentCategory, &line.OrderedQty,
			&line.OrderedValue, &line.ReceiptStatus, &line.IsActive, &line.OpenQty,
			&line.OpenValue, &line.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	return lines, nil
}

// CountActivePOLines counts the active PO line items
func (d Datasource) CountActivePOLines(ctx context.Context) (int64, error) {
	ctx, span := otel.Tracer("POLine").Start(ctx, "Counting active PO lines")
	defer span.End()

	var count int64
	err := d.Conn.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM po_line_items WHERE is_active = TRUE
	`).Scan(&count)
	return count, err
}

// GetUnmappedPOLinesByRequisition retrieves the active PO lines of a
// requisition that have no mapping yet. The matcher consumes this to find the
// lines a pre-mapping can claim.
func (d Datasource) GetUnmappedPOLinesByRequisition(ctx context.Context, prNumber string) ([]*model.POLine, error) {
	ctx, span := otel.Tracer("POLine").Start(ctx, "Fetching unmapped PO lines by requisition")
	defer span.End()

	rows, err := d.Conn.QueryContext(ctx, `
		SELECT l.id, l.po_line_id, l.po_number, l.pr_number, l.pr_line, l.vendor_category,
			l.account_assignment_category, l.ordered_qty, l.ordered_value, l.receipt_status,
			l.is_active, l.open_qty, l.open_value, l.created_at
		FROM po_line_items l
		LEFT JOIN mappings m ON m.po_line_id = l.po_line_id
		WHERE l.pr_number = $1 AND l.is_active = TRUE AND m.po_line_id IS NULL
		ORDER BY l.po_line_id
	`, prNumber)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []*model.POLine
	for rows.Next() {
		line := &model.POLine{}
		err = rows.Scan(
			&line.ID, &line.POLineID, &line.PONumber, &line.PRNumber, &line.PRLine,
			&line.VendorCategory, &line.AccountAssignmentCategory, &line.OrderedQty,
			&line.OrderedValue, &line.ReceiptStatus, &line.IsActive, &line.OpenQty,
			&line.OpenValue, &line.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}

	return lines, rows.Err()
}

// UpdatePOLineOpenValues updates the open quantity and value of a PO line
func (d Datasource) UpdatePOLineOpenValues(ctx context.Context, id string, openQty, openValue float64) error {
	ctx, span := otel.Tracer("POLine").Start(ctx, "Updating PO line open values")
	defer span.End()

	result, err := d.Conn.ExecContext(ctx, `
		UPDATE po_line_items SET open_qty = $2, open_value = $3 WHERE po_line_id = $1
	`, id, openQty, openValue)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return recerror.New(recerror.ErrNotFound, "PO line not found", id)
	}

	if d.Cache != nil {
		if err := d.Cache.Delete(ctx, poLineCacheKey(id)); err != nil {
			log.Printf("Failed to invalidate PO line cache: %v", err)
		}
	}
	return nil
}

// DeactivatePOLinesNotIn marks as inactive every active line whose ID is
// absent from the latest import snapshot. The lines keep their history; they
// simply stop participating in runs.
func (d Datasource) DeactivatePOLinesNotIn(ctx context.Context, activeLineIDs []string, snapshot time.Time) (int64, error) {
	ctx, span := otel.Tracer("POLine").Start(ctx, "Deactivating missing PO lines")
	defer span.End()

	rows, err := d.Conn.QueryContext(ctx, `
		UPDATE po_line_items
		SET is_active = FALSE
		WHERE is_active = TRUE AND created_at <= $2 AND po_line_id != ALL($1)
		RETURNING po_line_id
	`, pq.Array(activeLineIDs), snapshot)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var deactivated []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return 0, err
		}
		deactivated = append(deactivated, id)
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	if d.Cache != nil {
		for _, id := range deactivated {
			if err := d.Cache.Delete(ctx, poLineCacheKey(id)); err != nil {
				log.Printf("Failed to invalidate PO line cache: %v", err)
			}
		}
	}

	return int64(len(deactivated)), nil
}
