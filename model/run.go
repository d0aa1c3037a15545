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

// ReconciliationRun records one invocation of the engine by the import job.
type ReconciliationRun struct {
	ID             int64      `json:"-"`
	RunID          string     `json:"run_id"`
	Status         string     `json:"status"`
	SnapshotDate   time.Time  `json:"snapshot_date"`
	ProcessedLines int        `json:"processed_lines"`
	OrphanPostings int        `json:"orphan_postings"`
	StartedAt      time.Time  `json:"started_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
}
