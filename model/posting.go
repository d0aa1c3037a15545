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

package model

import (
	"math"
	"sort"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Posting types. A posting records either the physical receipt of goods or
// the arrival of an invoice against a PO line.
const (
	PostingTypeGR = "GR" // goods receipt
	PostingTypeIR = "IR" // invoice receipt
)

// Posting is an immutable historical fact belonging to exactly one PO line.
// Quantities are signed; reversals post negative quantities. Imported
// postings are never deleted, only appended to.
type Posting struct {
	ID          int64     `json:"-"`
	PostingID   string    `json:"posting_id"`
	POLineID    string    `json:"po_line_id"`
	PostingType string    `json:"posting_type"`
	PostingDate time.Time `json:"posting_date"`
	Quantity    float64   `json:"quantity"`
	Amount      float64   `json:"amount"`
	CreatedAt   time.Time `json:"created_at"`
}

// Validate rejects malformed postings before they reach any calculation.
// An unknown posting type is a validation error, never silently coerced.
func (p *Posting) Validate() error {
	return validation.ValidateStruct(p,
		validation.Field(&p.POLineID, validation.Required),
		validation.Field(&p.PostingType, validation.Required, validation.In(PostingTypeGR, PostingTypeIR)),
		validation.Field(&p.PostingDate, validation.Required, validation.By(notZeroTime)),
	)
}

func notZeroTime(value interface{}) error {
	t, _ := value.(time.Time)
	if t.IsZero() {
		return validation.NewError("validation_required", "cannot be blank")
	}
	return nil
}

// SortPostings orders a line's postings for the reconciliation walk:
// posting date ascending, and within the same date the larger absolute
// quantity first. The tie-break keeps a small same-day correction from being
// treated as the triggering event when a larger posting lands on that date.
// Posting ID breaks remaining ties so recomputation is deterministic.
func SortPostings(postings []*Posting) {
	sort.SliceStable(postings, func(i, j int) bool {
		if !postings[i].PostingDate.Equal(postings[j].PostingDate) {
			return postings[i].PostingDate.Before(postings[j].PostingDate)
		}
		absI, absJ := math.Abs(postings[i].Quantity), math.Abs(postings[j].Quantity)
		if absI != absJ {
			return absI > absJ
		}
		return postings[i].PostingID < postings[j].PostingID
	})
}
