/*
Copyright 2024 Costline Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package database

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"github.com/costline/porecon/internal/recerror"
	"github.com/costline/porecon/model"
)

func TestRecordMapping_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}

	m := &model.Mapping{
		MappingID:            "map_1",
		POLineID:             "pol_1",
		AllocationID:         "alloc_1",
		MappedAmount:         500,
		RequiresConfirmation: true,
		Provenance:           model.MappingProvenancePreMapping,
		PreMappingID:         "pmap_1",
	}

	mock.ExpectQuery("INSERT INTO mappings").
		WithArgs(m.MappingID, m.POLineID, m.AllocationID, m.MappedAmount,
			m.RequiresConfirmation, m.Confirmed, m.Provenance, m.PreMappingID, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

	created, err := ds.RecordMapping(context.Background(), m)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), created.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordMapping_LineAlreadyMapped(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}

	m := &model.Mapping{
		MappingID:    "map_2",
		POLineID:     "pol_1",
		AllocationID: "alloc_2",
		Provenance:   model.MappingProvenanceManual,
	}

	mock.ExpectQuery("INSERT INTO mappings").
		WillReturnError(&pq.Error{Code: "23505", Message: "unique_violation"})

	_, err = ds.RecordMapping(context.Background(), m)
	assert.Error(t, err)
	assert.True(t, recerror.HasCode(err, recerror.ErrConstraintViolation))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordMapping_Invalid(t *testing.T) {
	db, _, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}

	// Missing allocation and an unknown provenance never reach the database.
	_, err = ds.RecordMapping(context.Background(), &model.Mapping{POLineID: "pol_1", Provenance: "guess"})
	assert.Error(t, err)
	assert.True(t, recerror.HasCode(err, recerror.ErrValidation))
}

func TestGetActivePreMappings(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}

	expires := time.Now().Add(24 * time.Hour)
	rows := sqlmock.NewRows([]string{
		"id", "pre_mapping_id", "pr_number", "pr_line", "allocation_id", "status",
		"expires_at", "pending_count", "confirmed_count", "created_at",
	}).
		AddRow(1, "pmap_1", "PR-1", "", "alloc_1", "active", expires, 0, 0, time.Now()).
		AddRow(2, "pmap_2", "PR-2", "10", "alloc_2", "active", nil, 2, 1, time.Now())

	mock.ExpectQuery("SELECT .* FROM pre_mappings").
		WillReturnRows(rows)

	preMappings, err := ds.GetActivePreMappings(context.Background())
	assert.NoError(t, err)
	assert.Len(t, preMappings, 2)
	assert.Equal(t, "pmap_1", preMappings[0].PreMappingID)
	assert.True(t, preMappings[1].ExpiresAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExpirePreMappings(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}

	now := time.Now()
	mock.ExpectExec("UPDATE pre_mappings").
		WithArgs(now).
		WillReturnResult(sqlmock.NewResult(0, 2))

	expired, err := ds.ExpirePreMappings(context.Background(), now)
	assert.NoError(t, err)
	assert.Equal(t, int64(2), expired)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConfirmMapping_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}

	mock.ExpectExec("UPDATE mappings").
		WithArgs("map_missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = ds.ConfirmMapping(context.Background(), "map_missing")
	assert.Error(t, err)
	assert.True(t, recerror.HasCode(err, recerror.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}
