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
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Classification is the recognition regime of a PO line. It is computed once
// per line and threaded as a value through every downstream calculation.
type Classification string

const (
	// ClassificationSimple recognizes cost from goods receipts only.
	ClassificationSimple Classification = "simple"
	// ClassificationComplex recognizes cost from the chronological GR/IR
	// high-water mark.
	ClassificationComplex Classification = "complex"
)

// ReceiptStatusClosed marks a fully settled PO line. Closed lines carry no
// open quantity or value and are excluded from exposure tracking.
const ReceiptStatusClosed = "CLOSED PO"

// POLine is a purchase-order line item as supplied by the import job.
// The reconciliation engine treats every field as read-only except OpenQty
// and OpenValue, which the cost impact calculation writes back.
type POLine struct {
	ID                        int64                  `json:"-"`
	POLineID                  string                 `json:"po_line_id"`
	PONumber                  string                 `json:"po_number"`
	PRNumber                  string                 `json:"pr_number"`
	PRLine                    string                 `json:"pr_line"`
	VendorCategory            string                 `json:"vendor_category"`
	AccountAssignmentCategory string                 `json:"account_assignment_category"`
	OrderedQty                float64                `json:"ordered_qty"`
	OrderedValue              float64                `json:"ordered_value"`
	ReceiptStatus             string                 `json:"receipt_status"`
	IsActive                  bool                   `json:"is_active"`
	OpenQty                   float64                `json:"open_qty"`
	OpenValue                 float64                `json:"open_value"`
	MetaData                  map[string]interface{} `json:"meta_data,omitempty"`
	CreatedAt                 time.Time              `json:"created_at"`
}

// UnitPrice returns the fixed per-unit price of the line, derived from the
// ordered value and quantity. Lines with a zero ordered quantity price at 0.
func (p *POLine) UnitPrice() float64 {
	if p.OrderedQty == 0 {
		return 0
	}
	return p.OrderedValue / p.OrderedQty
}

// IsClosed reports whether the line's receipt status marks it fully settled.
func (p *POLine) IsClosed() bool {
	return p.ReceiptStatus == ReceiptStatusClosed
}

// Validate checks the fields the reconciliation engine depends on.
func (p *POLine) Validate() error {
	return validation.ValidateStruct(p,
		validation.Field(&p.POLineID, validation.Required),
		validation.Field(&p.OrderedQty, validation.Min(0.0)),
	)
}
