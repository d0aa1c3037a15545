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
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/costline/porecon/config"
	"github.com/costline/porecon/database/mocks"
	"github.com/costline/porecon/internal/recerror"
	"github.com/costline/porecon/model"
)

func newTestReconciler(t *testing.T) (*Reconciler, *mocks.MockDataSource) {
	t.Helper()
	config.MockConfig(&config.Configuration{
		ProjectName: "porecon-test",
		DataSource:  config.DataSourceConfig{Dns: "postgres://localhost:5432/porecon"},
	})
	mockDS := new(mocks.MockDataSource)
	return &Reconciler{datasource: mockDS}, mockDS
}

func TestRunPreMappingPass_MatchesAllRequisitionLines(t *testing.T) {
	reconciler, mockDS := newTestReconciler(t)

	pm := &model.PreMapping{
		PreMappingID: "pmap_1",
		PRNumber:     "PR-100",
		AllocationID: "alloc_1",
		Status:       model.PreMappingStatusActive,
	}
	lines := []*model.POLine{
		{POLineID: "pol_1", PRNumber: "PR-100", PRLine: "10", OrderedValue: 100, IsActive: true},
		{POLineID: "pol_2", PRNumber: "PR-100", PRLine: "20", OrderedValue: 200, IsActive: true},
		{POLineID: "pol_3", PRNumber: "PR-100", PRLine: "30", OrderedValue: 300, IsActive: true},
	}

	mockDS.On("GetActivePreMappings", mock.Anything).Return([]*model.PreMapping{pm}, nil)
	mockDS.On("GetUnmappedPOLinesByRequisition", mock.Anything, "PR-100").Return(lines, nil)
	mockDS.On("RecordMapping", mock.Anything, mock.MatchedBy(func(m *model.Mapping) bool {
		return m.Provenance == model.MappingProvenancePreMapping &&
			m.RequiresConfirmation && !m.Confirmed &&
			m.AllocationID == "alloc_1" && m.PreMappingID == "pmap_1"
	})).Return(&model.Mapping{}, nil).Times(3)
	mockDS.On("UpdatePreMappingCounts", mock.Anything, "pmap_1").Return(nil)
	mockDS.On("ExpirePreMappings", mock.Anything, mock.Anything).Return(int64(0), nil)

	summary, err := reconciler.RunPreMappingPass(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, summary.MatchedLines)
	assert.Equal(t, 0, summary.RejectedCandidates)
	mockDS.AssertExpectations(t)
}

func TestRunPreMappingPass_SpecificRequisitionLine(t *testing.T) {
	reconciler, mockDS := newTestReconciler(t)

	pm := &model.PreMapping{
		PreMappingID: "pmap_1",
		PRNumber:     "PR-100",
		PRLine:       "20",
		AllocationID: "alloc_1",
		Status:       model.PreMappingStatusActive,
	}
	lines := []*model.POLine{
		{POLineID: "pol_1", PRNumber: "PR-100", PRLine: "10", OrderedValue: 100, IsActive: true},
		{POLineID: "pol_2", PRNumber: "PR-100", PRLine: "20", OrderedValue: 200, IsActive: true},
	}

	mockDS.On("GetActivePreMappings", mock.Anything).Return([]*model.PreMapping{pm}, nil)
	mockDS.On("GetUnmappedPOLinesByRequisition", mock.Anything, "PR-100").Return(lines, nil)
	mockDS.On("RecordMapping", mock.Anything, mock.MatchedBy(func(m *model.Mapping) bool {
		return m.POLineID == "pol_2" && m.MappedAmount == 200
	})).Return(&model.Mapping{}, nil).Once()
	mockDS.On("UpdatePreMappingCounts", mock.Anything, "pmap_1").Return(nil)
	mockDS.On("ExpirePreMappings", mock.Anything, mock.Anything).Return(int64(0), nil)

	summary, err := reconciler.RunPreMappingPass(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.MatchedLines)
	mockDS.AssertExpectations(t)
}

func TestRunPreMappingPass_AlreadyMappedCandidateRejected(t *testing.T) {
	reconciler, mockDS := newTestReconciler(t)

	pm := &model.PreMapping{
		PreMappingID: "pmap_1",
		PRNumber:     "PR-100",
		AllocationID: "alloc_1",
		Status:       model.PreMappingStatusActive,
	}
	lines := []*model.POLine{
		{POLineID: "pol_1", PRNumber: "PR-100", OrderedValue: 100, IsActive: true},
		{POLineID: "pol_2", PRNumber: "PR-100", OrderedValue: 200, IsActive: true},
	}

	mockDS.On("GetActivePreMappings", mock.Anything).Return([]*model.PreMapping{pm}, nil)
	mockDS.On("GetUnmappedPOLinesByRequisition", mock.Anything, "PR-100").Return(lines, nil)
	mockDS.On("RecordMapping", mock.Anything, mock.MatchedBy(func(m *model.Mapping) bool {
		return m.POLineID == "pol_1"
	})).Return(nil, recerror.New(recerror.ErrConstraintViolation, "PO line already mapped", "pol_1"))
	mockDS.On("RecordMapping", mock.Anything, mock.MatchedBy(func(m *model.Mapping) bool {
		return m.POLineID == "pol_2"
	})).Return(&model.Mapping{}, nil)
	mockDS.On("UpdatePreMappingCounts", mock.Anything, "pmap_1").Return(nil)
	mockDS.On("ExpirePreMappings", mock.Anything, mock.Anything).Return(int64(0), nil)

	summary, err := reconciler.RunPreMappingPass(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.MatchedLines)
	assert.Equal(t, 1, summary.RejectedCandidates)
	mockDS.AssertExpectations(t)
}

func TestRunPreMappingPass_ZeroMatchesStillRefreshCounts(t *testing.T) {
	reconciler, mockDS := newTestReconciler(t)

	// Stale counts: a mapping was confirmed outside the matcher since the
	// last pass, and this pass finds no new candidates.
	pm := &model.PreMapping{
		PreMappingID: "pmap_1",
		PRNumber:     "PR-100",
		AllocationID: "alloc_1",
		Status:       model.PreMappingStatusActive,
		PendingCount: 1,
	}

	mockDS.On("GetActivePreMappings", mock.Anything).Return([]*model.PreMapping{pm}, nil)
	mockDS.On("GetUnmappedPOLinesByRequisition", mock.Anything, "PR-100").Return([]*model.POLine{}, nil)
	mockDS.On("UpdatePreMappingCounts", mock.Anything, "pmap_1").Return(nil)
	mockDS.On("ExpirePreMappings", mock.Anything, mock.Anything).Return(int64(0), nil)

	summary, err := reconciler.RunPreMappingPass(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, summary.MatchedLines)
	mockDS.AssertCalled(t, "UpdatePreMappingCounts", mock.Anything, "pmap_1")
	mockDS.AssertExpectations(t)
}

func TestRunPreMappingPass_ExpiredPreMappingSkipped(t *testing.T) {
	reconciler, mockDS := newTestReconciler(t)

	pm := &model.PreMapping{
		PreMappingID: "pmap_1",
		PRNumber:     "PR-100",
		AllocationID: "alloc_1",
		Status:       model.PreMappingStatusActive,
		ExpiresAt:    time.Now().Add(-time.Hour),
	}

	mockDS.On("GetActivePreMappings", mock.Anything).Return([]*model.PreMapping{pm}, nil)
	mockDS.On("ExpirePreMappings", mock.Anything, mock.Anything).Return(int64(1), nil)

	summary, err := reconciler.RunPreMappingPass(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, summary.MatchedLines)
	assert.Equal(t, 1, summary.ExpiredPreMappings)
	// No matching attempt was made for the expired pre-mapping.
	mockDS.AssertNotCalled(t, "GetUnmappedPOLinesByRequisition", mock.Anything, mock.Anything)
	mockDS.AssertExpectations(t)
}
