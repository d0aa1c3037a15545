package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"
	"go.opentelemetry.io/otel"

	"github.com/costline/porecon/internal/recerror"
	"github.com/costline/porecon/model"
)

// RecordCostAllocation inserts a new cost allocation into the database
func (d Datasource) RecordCostAllocation(ctx context.Context, alloc *model.CostAllocation) (*model.CostAllocation, error) {
	ctx, span := otel.Tracer("Mapping").Start(ctx, "Saving cost allocation to db")
	defer span.End()

	alloc.CreatedAt = time.Now()
	err := d.Conn.QueryRowContext(ctx, `
		INSERT INTO cost_allocations (allocation_id, name, created_at)
		VALUES ($1, $2, $3)
		RETURNING id
	`, alloc.AllocationID, alloc.Name, alloc.CreatedAt).Scan(&alloc.ID)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return nil, recerror.New(recerror.ErrConstraintViolation, "cost allocation already exists", alloc.AllocationID)
		}
		return nil, err
	}

	return alloc, nil
}

// RecordMapping inserts a new mapping. The unique constraint on po_line_id is
// the arbiter of the one-mapping-per-line invariant: a second writer racing
// on the same line gets a constraint violation, never a duplicate mapping.
func (d Datasource) RecordMapping(ctx context.Context, m *model.Mapping) (*model.Mapping, error) {
	ctx, span := otel.Tracer("Mapping").Start(ctx, "Saving mapping to db")
	defer span.End()

	if err := m.Validate(); err != nil {
		return nil, recerror.New(recerror.ErrValidation, "invalid mapping", err.Error())
	}

	m.CreatedAt = time.Now()
	err := d.Conn.QueryRowContext(ctx, `
		INSERT INTO mappings (mapping_id, po_line_id, allocation_id, mapped_amount,
			requires_confirmation, confirmed, provenance, pre_mapping_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`, m.MappingID, m.POLineID, m.AllocationID, m.MappedAmount, m.RequiresConfirmation,
		m.Confirmed, m.Provenance, m.PreMappingID, m.CreatedAt).Scan(&m.ID)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return nil, recerror.New(recerror.ErrConstraintViolation, "PO line already mapped", m.POLineID)
		}
		return nil, err
	}

	return m, nil
}

// GetMappingByPOLine retrieves the mapping of one PO line
func (d Datasource) GetMappingByPOLine(ctx context.Context, poLineID string) (*model.Mapping, error) {
	ctx, span := otel.Tracer("Mapping").Start(ctx, "Fetching mapping by PO line")
	defer span.End()

	m := &model.Mapping{}
	err := d.Conn.QueryRowContext(ctx, `
		SELECT id, mapping_id, po_line_id, allocation_id, mapped_amount, requires_confirmation,
			confirmed, provenance, pre_mapping_id, created_at
		FROM mappings
		WHERE po_line_id = $1
	`, poLineID).Scan(
		&m.ID, &m.MappingID, &m.POLineID, &m.AllocationID, &m.MappedAmount,
		&m.RequiresConfirmation, &m.Confirmed, &m.Provenance, &m.PreMappingID, &m.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, recerror.New(recerror.ErrNotFound, "mapping not found", poLineID)
		}
		return nil, err
	}

	return m, nil
}

// ConfirmMapping confirms a pending mapping
func (d Datasource) ConfirmMapping(ctx context.Context, mappingID string) error {
	ctx, span := otel.Tracer("Mapping").Start(ctx, "Confirming mapping")
	defer span.End()

	result, err := d.Conn.ExecContext(ctx, `
		UPDATE mappings SET confirmed = TRUE WHERE mapping_id = $1
	`, mappingID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return recerror.New(recerror.ErrNotFound, "mapping not found", mappingID)
	}
	return nil
}

// RecordPreMapping inserts a new pre-mapping into the database
func (d Datasource) RecordPreMapping(ctx context.Context, pm *model.PreMapping) (*model.PreMapping, error) {
	ctx, span := otel.Tracer("Mapping").Start(ctx, "Saving pre-mapping to db")
	defer span.End()

	if err := pm.Validate(); err != nil {
		return nil, recerror.New(recerror.ErrValidation, "invalid pre-mapping", err.Error())
	}

	pm.CreatedAt = time.Now()
	var expiresAt sql.NullTime
	if !pm.ExpiresAt.IsZero() {
		expiresAt = sql.NullTime{Time: pm.ExpiresAt, Valid: true}
	}
	err := d.Conn.QueryRowContext(ctx, `
		INSERT INTO pre_mappings (pre_mapping_id, pr_number, pr_line, allocation_id, status,
			expires_at, pending_count, confirmed_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`, pm.PreMappingID, pm.PRNumber, pm.PRLine, pm.AllocationID, pm.Status, expiresAt,
		pm.PendingCount, pm.ConfirmedCount, pm.CreatedAt).Scan(&pm.ID)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return nil, recerror.New(recerror.ErrConstraintViolation, "pre-mapping already exists", pm.PreMappingID)
		}
		return nil, err
	}

	return pm, nil
}

// GetActivePreMappings retrieves all active pre-mappings
func (d Datasource) GetActivePreMappings(ctx context.Context) ([]*model.PreMapping, error) {
	ctx, span := otel.Tracer("Mapping").Start(ctx, "Fetching active pre-mappings")
	defer span.End()

	rows, err := d.Conn.QueryContext(ctx, `
		SELECT id, pre_mapping_id, pr_number, pr_line, allocation_id, status, expires_at,
			pending_count, confirmed_count, created_at
		FROM pre_mappings
		WHERE status = 'active'
		ORDER BY pre_mapping_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var preMappings []*model.PreMapping
	for rows.Next() {
		pm := &model.PreMapping{}
		var expiresAt sql.NullTime
		err = rows.Scan(
			&pm.ID, &pm.PreMappingID, &pm.PRNumber, &pm.PRLine, &pm.AllocationID, &pm.Status,
			&expiresAt, &pm.PendingCount, &pm.ConfirmedCount, &pm.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		if expiresAt.Valid {
			pm.ExpiresAt = expiresAt.Time
		}
		preMappings = append(preMappings, pm)
	}

	return preMappings, rows.Err()
}

// UpdatePreMappingCounts recomputes a pre-mapping's pending and confirmed
// counts from its mappings
func (d Datasource) UpdatePreMappingCounts(ctx context.Context, preMappingID string) error {
	ctx, span := otel.Tracer("Mapping").Start(ctx, "Updating pre-mapping counts")
	defer span.End()

	_, err := d.Conn.ExecContext(ctx, `
		UPDATE pre_mappings SET
			pending_count = (SELECT COUNT(*) FROM mappings WHERE pre_mapping_id = $1 AND confirmed = FALSE),
			confirmed_count = (SELECT COUNT(*) FROM mappings WHERE pre_mapping_id = $1 AND confirmed = TRUE)
		WHERE pre_mapping_id = $1
	`, preMappingID)

	return err
}

// UpdatePreMappingStatus updates the status of a pre-mapping
func (d Datasource) UpdatePreMappingStatus(ctx context.Context, preMappingID string, status string) error {
	ctx, span := otel.Tracer("Mapping").Start(ctx, "Updating pre-mapping status")
	defer span.End()

	result, err := d.Conn.ExecContext(ctx, `
		UPDATE pre_mappings SET status = $2 WHERE pre_mapping_id = $1
	`, preMappingID, status)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return recerror.New(recerror.ErrNotFound, "pre-mapping not found", preMappingID)
	}
	return nil
}

// ExpirePreMappings marks active pre-mappings whose expiry has passed as
// expired, and returns how many it touched
func (d Datasource) ExpirePreMappings(ctx context.Context, now time.Time) (int64, error) {
	ctx, span := otel.Tracer("Mapping").Start(ctx, "Expiring stale pre-mappings")
	defer span.End()

	result, err := d.Conn.ExecContext(ctx, `
		UPDATE pre_mappings
		SET status = 'expired'
		WHERE status = 'active' AND expires_at IS NOT NULL AND expires_at < $1
	`, now)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}
