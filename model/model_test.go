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
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGenerateUUIDWithSuffix(t *testing.T) {
	id := GenerateUUIDWithSuffix("run")
	assert.True(t, strings.HasPrefix(id, "run_"))
	assert.NotEqual(t, id, GenerateUUIDWithSuffix("run"))
}

func TestMoneyFromQty(t *testing.T) {
	assert.Equal(t, 25.0, MoneyFromQty(5, 5))
	assert.Equal(t, 0.35, MoneyFromQty(3.5, 0.1))
	assert.Equal(t, -12.34, MoneyFromQty(-2, 6.17))
	assert.Equal(t, 0.0, MoneyFromQty(0, 123.45))
}

func TestPostingValidate(t *testing.T) {
	valid := &Posting{
		PostingID:   "pst_1",
		POLineID:    "PO-100-10",
		PostingType: PostingTypeGR,
		PostingDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Quantity:    5,
	}
	assert.NoError(t, valid.Validate())

	unknownType := *valid
	unknownType.PostingType = "XX"
	assert.Error(t, unknownType.Validate())

	missingLine := *valid
	missingLine.POLineID = ""
	assert.Error(t, missingLine.Validate())

	zeroDate := *valid
	zeroDate.PostingDate = time.Time{}
	assert.Error(t, zeroDate.Validate())
}

func TestSortPostings(t *testing.T) {
	jan := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC)

	postings := []*Posting{
		{PostingID: "p3", PostingDate: feb, Quantity: 1},
		{PostingID: "p2", PostingDate: jan, Quantity: -2},
		{PostingID: "p1", PostingDate: jan, Quantity: 10},
	}
	SortPostings(postings)

	// Date ascending; within the same date the larger absolute quantity
	// comes first, even when the smaller one is a reversal.
	assert.Equal(t, "p1", postings[0].PostingID)
	assert.Equal(t, "p2", postings[1].PostingID)
	assert.Equal(t, "p3", postings[2].PostingID)
}

func TestPOLineUnitPrice(t *testing.T) {
	line := &POLine{OrderedQty: 4, OrderedValue: 100}
	assert.Equal(t, 25.0, line.UnitPrice())

	zeroQty := &POLine{OrderedQty: 0, OrderedValue: 100}
	assert.Equal(t, 0.0, zeroQty.UnitPrice())
}

func TestTimeBucketFor(t *testing.T) {
	tests := []struct {
		days     int
		expected string
	}{
		{0, TimeBucketUnderOneMonth},
		{30, TimeBucketUnderOneMonth},
		{31, TimeBucketOneToThree},
		{90, TimeBucketOneToThree},
		{91, TimeBucketThreeToSix},
		{180, TimeBucketThreeToSix},
		{181, TimeBucketSixToTwelve},
		{365, TimeBucketSixToTwelve},
		{366, TimeBucketOverOneYear},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, TimeBucketFor(tt.days), "days=%d", tt.days)
	}
}

func TestPreMappingExpiredAt(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	expired := &PreMapping{ExpiresAt: now.Add(-time.Hour)}
	assert.True(t, expired.ExpiredAt(now))

	live := &PreMapping{ExpiresAt: now.Add(time.Hour)}
	assert.False(t, live.ExpiredAt(now))

	noExpiry := &PreMapping{}
	assert.False(t, noExpiry.ExpiredAt(now))
}

func TestMappingValidate(t *testing.T) {
	m := &Mapping{
		MappingID:    "map_1",
		POLineID:     "PO-100-10",
		AllocationID: "alloc_1",
		Provenance:   MappingProvenancePreMapping,
	}
	assert.NoError(t, m.Validate())

	m.Provenance = "guesswork"
	assert.Error(t, m.Validate())
}
