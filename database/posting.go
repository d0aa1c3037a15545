package database

import (
	"context"
	"time"

	"github.com/lib/pq"
	"go.opentelemetry.io/otel"

	"github.com/costline/porecon/internal/recerror"
	"github.com/costline/porecon/model"
)

// RecordPosting inserts a new posting into the database
func (d Datasource) RecordPosting(ctx context.Context, pst *model.Posting) (*model.Posting, error) {
	ctx, span := otel.Tracer("Posting").Start(ctx, "Saving posting to db")
	defer span.End()

	if err := pst.Validate(); err != nil {
		return nil, recerror.New(recerror.ErrValidation, "invalid posting", err.Error())
	}

	pst.CreatedAt = time.Now()
	err := d.Conn.QueryRowContext(ctx, `
		INSERT INTO po_postings (posting_id, po_line_id, posting_type, posting_date, quantity, amount, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, pst.PostingID, pst.POLineID, pst.PostingType, pst.PostingDate, pst.Quantity, pst.Amount,
		pst.CreatedAt).Scan(&pst.ID)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return nil, recerror.New(recerror.ErrConstraintViolation, "posting already exists", pst.PostingID)
		}
		return nil, err
	}

	return pst, nil
}

// GetAllPostings retrieves all postings in a paginated manner. The run loads
// every posting, including ones whose PO line is unknown, so orphans are
// counted rather than silently filtered out by a join.
func (d Datasource) GetAllPostings(ctx context.Context, limit, offset int) ([]*model.Posting, error) {
	ctx, span := otel.Tracer("Posting").Start(ctx, "Fetching all postings from db")
	defer span.End()

	rows, err := d.Conn.QueryContext(ctx, `
		SELECT id, posting_id, po_line_id, posting_type, posting_date, quantity, amount, created_at
		FROM po_postings
		ORDER BY posting_date, posting_id
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var postings []*model.Posting
	for rows.Next() {
		pst := &model.Posting{}
		err = rows.Scan(
			&pst.ID, &pst.PostingID, &pst.POLineID, &pst.PostingType, &pst.PostingDate,
			&pst.Quantity, &pst.Amount, &pst.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		postings = append(postings, pst)
	}

	return postings, rows.Err()
}

// GetPostingsByPOLine retrieves the postings of one PO line
func (d Datasource) GetPostingsByPOLine(ctx context.Context, poLineID string) ([]*model.Posting, error) {
	ctx, span := otel.Tracer("Posting").Start(ctx, "Fetching postings by PO line")
	defer span.End()

	rows, err := d.Conn.QueryContext(ctx, `
		SELECT id, posting_id, po_line_id, posting_type, posting_date, quantity, amount, created_at
		FROM po_postings
		WHERE po_line_id = $1
		ORDER BY posting_date, posting_id
	`, poLineID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var postings []*model.Posting
	for rows.Next() {
		pst := &model.Posting{}
		err = rows.Scan(
			&pst.ID, &pst.PostingID, &pst.POLineID, &pst.PostingType, &pst.PostingDate,
			&pst.Quantity, &pst.Amount, &pst.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		postings = append(postings, pst)
	}

	return postings, rows.Err()
}
