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

import "time"

// CostImpactRecord is the per-posting derived output of the cost impact
// calculation: how much cost the posting newly recognized against the net
// income statement, and the running recognized total for the line after it.
// Records are recomputed from scratch each run, never patched in place.
type CostImpactRecord struct {
	ID            int64     `json:"-"`
	POLineID      string    `json:"po_line_id"`
	PostingID     string    `json:"posting_id"`
	PostingType   string    `json:"posting_type"`
	PostingDate   time.Time `json:"posting_date"`
	PostingQty    float64   `json:"posting_qty"`
	ImpactQty     float64   `json:"impact_qty"`
	ImpactAmount  float64   `json:"impact_amount"`
	CumulativeQty float64   `json:"cumulative_qty"`
	RunID         string    `json:"run_id"`
}

// LineResult bundles everything a single line's reconciliation produced.
// The whole slice of line results for a run is committed as one unit of
// work so an aborted run leaves no partial output visible.
type LineResult struct {
	Line           *POLine
	Classification Classification
	Records        []*CostImpactRecord
	OpenQty        float64
	OpenValue      float64
	// Exposure is nil when the line carries no unresolved invoice-over-
	// receipt exposure at the snapshot date.
	Exposure *GRIRExposureSnapshot
}
