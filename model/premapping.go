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

// PreMapping lifecycle statuses.
const (
	PreMappingStatusActive    = "active"
	PreMappingStatusClosed    = "closed"
	PreMappingStatusExpired   = "expired"
	PreMappingStatusCancelled = "cancelled"
)

// Mapping provenance tags.
const (
	MappingProvenanceManual     = "manual"
	MappingProvenancePreMapping = "pre_mapping"
	MappingProvenanceBulk       = "bulk"
)

// CostAllocation is a budget category that PO lines are mapped against.
type CostAllocation struct {
	ID           int64     `json:"-"`
	AllocationID string    `json:"allocation_id"`
	Name         string    `json:"name"`
	CreatedAt    time.Time `json:"created_at"`
}

// Mapping links exactly one PO line to one cost allocation. A PO line has at
// most one mapping; the database enforces the uniqueness.
type Mapping struct {
	ID                   int64     `json:"-"`
	MappingID            string    `json:"mapping_id"`
	POLineID             string    `json:"po_line_id"`
	AllocationID         string    `json:"allocation_id"`
	MappedAmount         float64   `json:"mapped_amount"`
	RequiresConfirmation bool      `json:"requires_confirmation"`
	Confirmed            bool      `json:"confirmed"`
	Provenance           string    `json:"provenance"`
	PreMappingID         string    `json:"pre_mapping_id,omitempty"`
	CreatedAt            time.Time `json:"created_at"`
}

// Validate checks a mapping candidate before it is recorded.
func (m *Mapping) Validate() error {
	return validation.ValidateStruct(m,
		validation.Field(&m.POLineID, validation.Required),
		validation.Field(&m.AllocationID, validation.Required),
		validation.Field(&m.Provenance, validation.Required,
			validation.In(MappingProvenanceManual, MappingProvenancePreMapping, MappingProvenanceBulk)),
	)
}

// PreMapping is an advance budget allocation made before the matching
// purchase order exists. It is keyed by requisition number and optionally a
// specific requisition line; an empty PRLine matches every line of the
// requisition.
type PreMapping struct {
	ID             int64     `json:"-"`
	PreMappingID   string    `json:"pre_mapping_id"`
	PRNumber       string    `json:"pr_number"`
	PRLine         string    `json:"pr_line,omitempty"`
	AllocationID   string    `json:"allocation_id"`
	Status         string    `json:"status"`
	ExpiresAt      time.Time `json:"expires_at"`
	PendingCount   int       `json:"pending_count"`
	ConfirmedCount int       `json:"confirmed_count"`
	CreatedAt      time.Time `json:"created_at"`
}

// Validate checks a pre-mapping's required fields and status.
func (p *PreMapping) Validate() error {
	return validation.ValidateStruct(p,
		validation.Field(&p.PRNumber, validation.Required),
		validation.Field(&p.AllocationID, validation.Required),
		validation.Field(&p.Status, validation.Required,
			validation.In(PreMappingStatusActive, PreMappingStatusClosed, PreMappingStatusExpired, PreMappingStatusCancelled)),
	)
}

// ExpiredAt reports whether the pre-mapping's expiry timestamp has passed.
func (p *PreMapping) ExpiredAt(now time.Time) bool {
	return !p.ExpiresAt.IsZero() && p.ExpiresAt.Before(now)
}
