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

package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/costline/porecon/model"
)

// MockDataSource is a mock implementation of the IDataSource interface
type MockDataSource struct {
	mock.Mock
}

// PO line methods

func (m *MockDataSource) RecordPOLine(ctx context.Context, line *model.POLine) (*model.POLine, error) {
	args := m.Called(ctx, line)
	return args.Get(0).(*model.POLine), args.Error(1)
}

func (m *MockDataSource) GetPOLineByID(ctx context.Context, id string) (*model.POLine, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(*model.POLine), args.Error(1)
}

func (m *MockDataSource) GetActivePOLines(ctx context.Context, limit, offset int) ([]*model.POLine, error) {
	args := m.Called(ctx, limit, offset)
	return args.Get(0).([]*model.POLine), args.Error(1)
}

func (m *MockDataSource) CountActivePOLines(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockDataSource) GetUnmappedPOLinesByRequisition(ctx context.Context, prNumber string) ([]*model.POLine, error) {
	args := m.Called(ctx, prNumber)
	return args.Get(0).([]*model.POLine), args.Error(1)
}

func (m *MockDataSource) UpdatePOLineOpenValues(ctx context.Context, id string, openQty, openValue float64) error {
	args := m.Called(ctx, id, openQty, openValue)
	return args.Error(0)
}

func (m *MockDataSource) DeactivatePOLinesNotIn(ctx context.Context, activeLineIDs []string, snapshot time.Time) (int64, error) {
	args := m.Called(ctx, activeLineIDs, snapshot)
	return args.Get(0).(int64), args.Error(1)
}

// Posting methods

func (m *MockDataSource) RecordPosting(ctx context.Context, pst *model.Posting) (*model.Posting, error) {
	args := m.Called(ctx, pst)
	return args.Get(0).(*model.Posting), args.Error(1)
}

func (m *MockDataSource) GetAllPostings(ctx context.Context, limit, offset int) ([]*model.Posting, error) {
	args := m.Called(ctx, limit, offset)
	return args.Get(0).([]*model.Posting), args.Error(1)
}

func (m *MockDataSource) GetPostingsByPOLine(ctx context.Context, poLineID string) ([]*model.Posting, error) {
	args := m.Called(ctx, poLineID)
	return args.Get(0).([]*model.Posting), args.Error(1)
}

// Cost impact methods

func (m *MockDataSource) GetCostImpactRecords(ctx context.Context, poLineID string) ([]*model.CostImpactRecord, error) {
	args := m.Called(ctx, poLineID)
	return args.Get(0).([]*model.CostImpactRecord), args.Error(1)
}

func (m *MockDataSource) CommitRunResults(ctx context.Context, runID string, snapshot time.Time, results []*model.LineResult) error {
	args := m.Called(ctx, runID, snapshot, results)
	return args.Error(0)
}

// GRIR exposure methods

func (m *MockDataSource) GetGRIRExposures(ctx context.Context, snapshot time.Time) ([]*model.GRIRExposureSnapshot, error) {
	args := m.Called(ctx, snapshot)
	return args.Get(0).([]*model.GRIRExposureSnapshot), args.Error(1)
}

func (m *MockDataSource) UpsertGRIRExposure(ctx context.Context, exp *model.GRIRExposureSnapshot) error {
	args := m.Called(ctx, exp)
	return args.Error(0)
}

func (m *MockDataSource) DeleteGRIRExposure(ctx context.Context, poLineID string, snapshot time.Time) error {
	args := m.Called(ctx, poLineID, snapshot)
	return args.Error(0)
}

// Mapping methods

func (m *MockDataSource) RecordCostAllocation(ctx context.Context, alloc *model.CostAllocation) (*model.CostAllocation, error) {
	args := m.Called(ctx, alloc)
	return args.Get(0).(*model.CostAllocation), args.Error(1)
}

func (m *MockDataSource) RecordMapping(ctx context.Context, mp *model.Mapping) (*model.Mapping, error) {
	args := m.Called(ctx, mp)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Mapping), args.Error(1)
}

func (m *MockDataSource) GetMappingByPOLine(ctx context.Context, poLineID string) (*model.Mapping, error) {
	args := m.Called(ctx, poLineID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Mapping), args.Error(1)
}

func (m *MockDataSource) ConfirmMapping(ctx context.Context, mappingID string) error {
	args := m.Called(ctx, mappingID)
	return args.Error(0)
}

func (m *MockDataSource) RecordPreMapping(ctx context.Context, pm *model.PreMapping) (*model.PreMapping, error) {
	args := m.Called(ctx, pm)
	return args.Get(0).(*model.PreMapping), args.Error(1)
}

func (m *MockDataSource) GetActivePreMappings(ctx context.Context) ([]*model.PreMapping, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*model.PreMapping), args.Error(1)
}

func (m *MockDataSource) UpdatePreMappingCounts(ctx context.Context, preMappingID string) error {
	args := m.Called(ctx, preMappingID)
	return args.Error(0)
}

func (m *MockDataSource) UpdatePreMappingStatus(ctx context.Context, preMappingID string, status string) error {
	args := m.Called(ctx, preMappingID, status)
	return args.Error(0)
}

func (m *MockDataSource) ExpirePreMappings(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

// Reconciliation run methods

func (m *MockDataSource) RecordReconciliationRun(ctx context.Context, run *model.ReconciliationRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *MockDataSource) GetReconciliationRun(ctx context.Context, id string) (*model.ReconciliationRun, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(*model.ReconciliationRun), args.Error(1)
}

func (m *MockDataSource) UpdateReconciliationRunStatus(ctx context.Context, id string, status string, processedLines, orphanPostings int) error {
	args := m.Called(ctx, id, status, processedLines, orphanPostings)
	return args.Error(0)
}

func (m *MockDataSource) GetLastCompletedRun(ctx context.Context) (*model.ReconciliationRun, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ReconciliationRun), args.Error(1)
}
