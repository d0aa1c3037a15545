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
	"time"

	"github.com/wacul/ptr"

	"github.com/costline/porecon/model"
)

// grirAccumulator is the exposure walk's per-line state. It keeps its own
// cumulative counters rather than borrowing the cost calculator's because
// the two walks answer different questions over the same recurrence.
type grirAccumulator struct {
	cumulativeGR      float64
	cumulativeIR      float64
	firstExposureDate *time.Time
}

// step advances the walk by one posting, setting the first-exposure date the
// moment invoiced quantity overtakes received quantity and clearing it once
// receipts catch up. An exposure that reopens later gets a fresh date, not
// the original one.
func (a *grirAccumulator) step(pst *model.Posting) {
	switch pst.PostingType {
	case model.PostingTypeGR:
		a.cumulativeGR += pst.Quantity
	case model.PostingTypeIR:
		a.cumulativeIR += pst.Quantity
	}

	if a.cumulativeIR > a.cumulativeGR {
		if a.firstExposureDate == nil {
			a.firstExposureDate = ptr.Time(pst.PostingDate)
		}
	} else {
		a.firstExposureDate = nil
	}
}

// ComputeGRIRExposure walks a Simple line's sorted postings and returns the
// exposure snapshot at the given date, or nil when the line carries no
// unresolved invoice-over-receipt exposure. Complex and closed lines are the
// caller's responsibility to gate out; this function only computes.
//
// Parameters:
// - line *model.POLine: The PO line being walked.
// - postings []*model.Posting: The line's complete posting history.
// - snapshotDate time.Time: The calculation date of the snapshot.
//
// Returns:
// - *model.GRIRExposureSnapshot: The live exposure, or nil when resolved.
func ComputeGRIRExposure(line *model.POLine, postings []*model.Posting, snapshotDate time.Time) *model.GRIRExposureSnapshot {
	model.SortPostings(postings)

	acc := &grirAccumulator{}
	for _, pst := range postings {
		acc.step(pst)
	}

	grirQty := acc.cumulativeIR - acc.cumulativeGR
	if grirQty <= 0 {
		return nil
	}

	daysOpen := 0
	if acc.firstExposureDate != nil {
		daysOpen = int(snapshotDate.Sub(*acc.firstExposureDate).Hours() / 24)
		if daysOpen < 0 {
			daysOpen = 0
		}
	}

	return &model.GRIRExposureSnapshot{
		POLineID:          line.POLineID,
		SnapshotDate:      snapshotDate,
		GRIRQty:           grirQty,
		GRIRValue:         model.MoneyFromQty(grirQty, line.UnitPrice()),
		FirstExposureDate: acc.firstExposureDate,
		DaysOpen:          daysOpen,
		TimeBucket:        model.TimeBucketFor(daysOpen),
	}
}
