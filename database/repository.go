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
	"time"

	"github.com/costline/porecon/model"
)

// IDataSource defines the interface for data source operations, grouping related functionalities.
type IDataSource interface {
	poLine            // Interface for PO line item operations
	posting           // Interface for posting operations
	costImpact        // Interface for cost impact record operations
	grir              // Interface for GRIR exposure operations
	mapping           // Interface for mapping and pre-mapping operations
	reconciliationRun // Interface for reconciliation run operations
}

// poLine defines methods for handling PO line items.
type poLine interface {
	RecordPOLine(ctx context.Context, line *model.POLine) (*model.POLine, error)                           // Records a new PO line item
	GetPOLineByID(ctx context.Context, id string) (*model.POLine, error)                                   // Retrieves a PO line item by ID
	GetActivePOLines(ctx context.Context, limit, offset int) ([]*model.POLine, error)                      // Retrieves active PO line items in a paginated manner
	CountActivePOLines(ctx context.Context) (int64, error)                                                 // Counts active PO line items
	GetUnmappedPOLinesByRequisition(ctx context.Context, prNumber string) ([]*model.POLine, error)         // Retrieves active unmapped lines for a requisition
	UpdatePOLineOpenValues(ctx context.Context, id string, openQty, openValue float64) error               // Updates the open quantity and value of a line
	DeactivatePOLinesNotIn(ctx context.Context, activeLineIDs []string, snapshot time.Time) (int64, error) // Deactivates lines missing from the latest import
}

// posting defines methods for handling GR/IR postings.
type posting interface {
	RecordPosting(ctx context.Context, pst *model.Posting) (*model.Posting, error)      // Records a new posting
	GetAllPostings(ctx context.Context, limit, offset int) ([]*model.Posting, error)    // Retrieves all postings in a paginated manner
	GetPostingsByPOLine(ctx context.Context, poLineID string) ([]*model.Posting, error) // Retrieves the postings of one PO line
}

// costImpact defines methods for handling cost impact records.
type costImpact interface {
	GetCostImpactRecords(ctx context.Context, poLineID string) ([]*model.CostImpactRecord, error)              // Retrieves the impact records of one PO line
	CommitRunResults(ctx context.Context, runID string, snapshot time.Time, results []*model.LineResult) error // Commits a run's line results in one transaction
}

// grir defines methods for handling GRIR exposure snapshots.
type grir interface {
	GetGRIRExposures(ctx context.Context, snapshot time.Time) ([]*model.GRIRExposureSnapshot, error) // Retrieves exposures at a snapshot date
	UpsertGRIRExposure(ctx context.Context, exp *model.GRIRExposureSnapshot) error                   // Inserts or refreshes an exposure snapshot
	DeleteGRIRExposure(ctx context.Context, poLineID string, snapshot time.Time) error               // Removes a resolved exposure snapshot
}

// mapping defines methods for handling mappings, pre-mappings and allocations.
type mapping interface {
	RecordCostAllocation(ctx context.Context, alloc *model.CostAllocation) (*model.CostAllocation, error) // Records a new cost allocation
	RecordMapping(ctx context.Context, m *model.Mapping) (*model.Mapping, error)                          // Records a new mapping; fails if the line is already mapped
	GetMappingByPOLine(ctx context.Context, poLineID string) (*model.Mapping, error)                      // Retrieves the mapping of one PO line
	ConfirmMapping(ctx context.Context, mappingID string) error                                           // Confirms a pending mapping
	RecordPreMapping(ctx context.Context, pm *model.PreMapping) (*model.PreMapping, error)                // Records a new pre-mapping
	GetActivePreMappings(ctx context.Context) ([]*model.PreMapping, error)                                // Retrieves all active pre-mappings
	UpdatePreMappingCounts(ctx context.Context, preMappingID string) error                                // Recomputes a pre-mapping's pending and confirmed counts
	UpdatePreMappingStatus(ctx context.Context, preMappingID string, status string) error                 // Updates the status of a pre-mapping
	ExpirePreMappings(ctx context.Context, now time.Time) (int64, error)                                  // Expires active pre-mappings past their expiry
}

// reconciliationRun defines methods for handling reconciliation runs.
type reconciliationRun interface {
	RecordReconciliationRun(ctx context.Context, run *model.ReconciliationRun) error                                       // Records a new reconciliation run
	GetReconciliationRun(ctx context.Context, id string) (*model.ReconciliationRun, error)                                 // Retrieves a reconciliation run by ID
	UpdateReconciliationRunStatus(ctx context.Context, id string, status string, processedLines, orphanPostings int) error // Updates the status of a reconciliation run
	GetLastCompletedRun(ctx context.Context) (*model.ReconciliationRun, error)                                             // Retrieves the most recent completed run
}
