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
	"math"

	"github.com/costline/porecon/model"
)

// costAccumulator is the per-line state folded across a sorted posting
// sequence. Each line gets a fresh accumulator; nothing is shared across
// lines, which is what makes the walk parallelizable per line.
type costAccumulator struct {
	cumulativeGR   float64
	cumulativeIR   float64
	lastRecognized float64
}

// step advances the accumulator by one posting and returns the incremental
// quantity the posting newly recognized. For Complex lines the recognized
// total tracks the high-water mark of the two cumulative counters; for
// Simple lines a GR passes its own quantity through and an IR recognizes
// nothing.
func (a *costAccumulator) step(class model.Classification, pst *model.Posting) float64 {
	if class == model.ClassificationSimple {
		if pst.PostingType == model.PostingTypeGR {
			a.cumulativeGR += pst.Quantity
			a.lastRecognized += pst.Quantity
			return pst.Quantity
		}
		a.cumulativeIR += pst.Quantity
		return 0
	}

	switch pst.PostingType {
	case model.PostingTypeGR:
		a.cumulativeGR += pst.Quantity
	case model.PostingTypeIR:
		a.cumulativeIR += pst.Quantity
	}

	reference := math.Max(a.cumulativeGR, a.cumulativeIR)
	impactQty := reference - a.lastRecognized
	a.lastRecognized += impactQty
	return impactQty
}

// ComputeCostImpact recomputes a line's full cost recognition history from
// its stored postings. The posting slice is sorted in place; callers pass a
// line's complete posting set, never a suffix, because reversals and
// out-of-order re-imports make incremental patching unsound.
//
// Parameters:
// - line *model.POLine: The PO line being recomputed.
// - class model.Classification: The line's recognition regime.
// - postings []*model.Posting: The line's complete posting history.
//
// Returns:
// - []*model.CostImpactRecord: One record per posting, in walk order.
// - float64: The line's remaining open quantity.
// - float64: The line's remaining open value.
func ComputeCostImpact(line *model.POLine, class model.Classification, postings []*model.Posting) ([]*model.CostImpactRecord, float64, float64) {
	model.SortPostings(postings)

	unitPrice := line.UnitPrice()
	acc := &costAccumulator{}
	records := make([]*model.CostImpactRecord, 0, len(postings))

	var totalQty, totalAmount float64
	for _, pst := range postings {
		impactQty := acc.step(class, pst)
		impactAmount := model.MoneyFromQty(impactQty, unitPrice)
		totalQty += impactQty
		totalAmount += impactAmount

		records = append(records, &model.CostImpactRecord{
			POLineID:      line.POLineID,
			PostingID:     pst.PostingID,
			PostingType:   pst.PostingType,
			PostingDate:   pst.PostingDate,
			PostingQty:    pst.Quantity,
			ImpactQty:     impactQty,
			ImpactAmount:  impactAmount,
			CumulativeQty: acc.lastRecognized,
		})
	}

	// A closed line carries nothing open, whatever the arithmetic says.
	if line.IsClosed() {
		return records, 0, 0
	}

	openQty := line.OrderedQty - totalQty
	openValue := line.OrderedValue - totalAmount
	return records, openQty, openValue
}
