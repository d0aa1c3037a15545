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

// Aging buckets for GRIR exposure, keyed by how long the exposure has been
// open at the snapshot date.
const (
	TimeBucketUnderOneMonth = "<1 month"
	TimeBucketOneToThree    = "1-3 months"
	TimeBucketThreeToSix    = "3-6 months"
	TimeBucketSixToTwelve   = "6-12 months"
	TimeBucketOverOneYear   = ">1 year"
)

// GRIRExposureSnapshot records unresolved invoice-over-receipt exposure for
// one PO line at one calculation date. A snapshot exists only while the
// exposure quantity is strictly positive; at most one snapshot is live per
// (line, snapshot date).
type GRIRExposureSnapshot struct {
	ID                int64      `json:"-"`
	POLineID          string     `json:"po_line_id"`
	SnapshotDate      time.Time  `json:"snapshot_date"`
	GRIRQty           float64    `json:"grir_qty"`
	GRIRValue         float64    `json:"grir_value"`
	FirstExposureDate *time.Time `json:"first_exposure_date,omitempty"`
	DaysOpen          int        `json:"days_open"`
	TimeBucket        string     `json:"time_bucket"`
}

// TimeBucketFor categorizes an exposure age in days into its aging bucket.
func TimeBucketFor(daysOpen int) string {
	switch {
	case daysOpen <= 30:
		return TimeBucketUnderOneMonth
	case daysOpen <= 90:
		return TimeBucketOneToThree
	case daysOpen <= 180:
		return TimeBucketThreeToSix
	case daysOpen <= 365:
		return TimeBucketSixToTwelve
	default:
		return TimeBucketOverOneYear
	}
}
