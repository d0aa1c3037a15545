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

package porecon

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/costline/porecon/model"
)

func grirLine() *model.POLine {
	return &model.POLine{POLineID: "pol_1", OrderedQty: 100, OrderedValue: 100}
}

func grirPosting(id, pType string, date time.Time, qty float64) *model.Posting {
	return &model.Posting{PostingID: id, POLineID: "pol_1", PostingType: pType, PostingDate: date, Quantity: qty}
}

func TestComputeGRIRExposure_Lifecycle(t *testing.T) {
	jan := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)
	mar := time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC)
	apr := time.Date(2024, 4, 8, 0, 0, 0, 0, time.UTC)
	may := time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC)

	all := []*model.Posting{
		grirPosting("pst_1", "GR", jan, 10),
		grirPosting("pst_2", "IR", feb, 15),
		grirPosting("pst_3", "GR", mar, 3),
		grirPosting("pst_4", "GR", apr, 5),
		grirPosting("pst_5", "IR", may, 10),
	}

	// Snapshot after February: exposure of 5, first opened in February.
	snap := ComputeGRIRExposure(grirLine(), all[:2], feb)
	require.NotNil(t, snap)
	assert.InDelta(t, 5.0, snap.GRIRQty, 1e-9)
	require.NotNil(t, snap.FirstExposureDate)
	assert.True(t, snap.FirstExposureDate.Equal(feb))

	// Snapshot after March: exposure shrinks to 2 and keeps its original
	// first-exposure date.
	snap = ComputeGRIRExposure(grirLine(), all[:3], mar)
	require.NotNil(t, snap)
	assert.InDelta(t, 2.0, snap.GRIRQty, 1e-9)
	require.NotNil(t, snap.FirstExposureDate)
	assert.True(t, snap.FirstExposureDate.Equal(feb))
	assert.Equal(t, 31, snap.DaysOpen)
	assert.Equal(t, model.TimeBucketOneToThree, snap.TimeBucket)

	// Snapshot after April: receipts caught up, no exposure.
	assert.Nil(t, ComputeGRIRExposure(grirLine(), all[:4], apr))

	// Snapshot after May: the exposure reopened and gets a fresh
	// first-exposure date, not February's.
	snap = ComputeGRIRExposure(grirLine(), all, may)
	require.NotNil(t, snap)
	assert.InDelta(t, 7.0, snap.GRIRQty, 1e-9)
	require.NotNil(t, snap.FirstExposureDate)
	assert.True(t, snap.FirstExposureDate.Equal(may))
	assert.Equal(t, 0, snap.DaysOpen)
	assert.Equal(t, model.TimeBucketUnderOneMonth, snap.TimeBucket)
}

func TestComputeGRIRExposure_NoExposure(t *testing.T) {
	jan := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	postings := []*model.Posting{
		grirPosting("pst_1", "GR", jan, 10),
		grirPosting("pst_2", "IR", jan.AddDate(0, 1, 0), 10),
	}

	assert.Nil(t, ComputeGRIRExposure(grirLine(), postings, jan.AddDate(0, 2, 0)))
}

func TestComputeGRIRExposure_ValueUsesUnitPrice(t *testing.T) {
	line := &model.POLine{POLineID: "pol_1", OrderedQty: 10, OrderedValue: 250}
	jan := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	postings := []*model.Posting{
		grirPosting("pst_1", "IR", jan, 4),
	}

	snap := ComputeGRIRExposure(line, postings, jan)
	require.NotNil(t, snap)
	assert.InDelta(t, 4.0, snap.GRIRQty, 1e-9)
	assert.InDelta(t, 100.0, snap.GRIRValue, 1e-9)
}

func TestTimeBucketBoundaries(t *testing.T) {
	line := grirLine()
	open := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	postings := []*model.Posting{grirPosting("pst_1", "IR", open, 1)}

	snap := ComputeGRIRExposure(line, postings, open.AddDate(1, 1, 0))
	require.NotNil(t, snap)
	assert.Equal(t, model.TimeBucketOverOneYear, snap.TimeBucket)
}
