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
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/costline/porecon/config"
	redlock "github.com/costline/porecon/internal/lock"
	"github.com/costline/porecon/internal/recerror"
	"github.com/costline/porecon/model"
)

const matcherLockKey = "porecon:pre-mapping-matcher"

// MatcherSummary reports what one matching pass did.
type MatcherSummary struct {
	MatchedLines       int `json:"matched_lines"`
	RejectedCandidates int `json:"rejected_candidates"`
	ExpiredPreMappings int `json:"expired_pre_mappings"`
}

// RunPreMappingPass matches active pre-mappings against still-unmapped PO
// lines, creating pending mappings and expiring stale pre-mappings. The pass
// holds a Redis lock for its duration: the matcher checks "no existing
// mapping" before inserting, and two concurrent passes must not both pass
// that check for the same line. A contended lock means another pass is
// already doing this work, so the pass is skipped rather than queued.
// Without Redis the pass runs unlocked and the mapping table's unique
// constraint is the only guard.
func (r *Reconciler) RunPreMappingPass(ctx context.Context) (*MatcherSummary, error) {
	configuration, err := config.Fetch()
	if err != nil {
		return nil, err
	}

	if r.redis != nil {
		locker := redlock.NewLocker(r.redis, matcherLockKey, model.GenerateUUIDWithSuffix("lock"))
		lockTTL := time.Duration(configuration.Reconciliation.LockTTLSec) * time.Second
		held, err := locker.Acquire(ctx, lockTTL)
		if err != nil {
			return nil, err
		}
		if !held {
			return nil, fmt.Errorf("another matcher pass holds %s", matcherLockKey)
		}
		defer func() {
			if err := locker.Release(ctx); err != nil {
				logrus.Warnf("matcher lock release failed: %v", err)
			}
		}()
	}

	return r.matchPreMappings(ctx)
}

func (r *Reconciler) matchPreMappings(ctx context.Context) (*MatcherSummary, error) {
	summary := &MatcherSummary{}
	now := time.Now()

	preMappings, err := r.datasource.GetActivePreMappings(ctx)
	if err != nil {
		return nil, err
	}

	for _, pm := range preMappings {
		// Past-expiry pre-mappings are skipped here and transitioned below.
		if pm.ExpiredAt(now) {
			continue
		}

		if err := r.matchOnePreMapping(ctx, pm, summary); err != nil {
			return nil, err
		}
		// Counts are recomputed even on a zero-match pass; a mapping
		// confirmed since the last pass changes them.
		if err := r.datasource.UpdatePreMappingCounts(ctx, pm.PreMappingID); err != nil {
			return nil, err
		}
	}

	expired, err := r.datasource.ExpirePreMappings(ctx, now)
	if err != nil {
		return nil, err
	}
	summary.ExpiredPreMappings = int(expired)

	logrus.WithFields(logrus.Fields{
		"matched_lines":        summary.MatchedLines,
		"rejected_candidates":  summary.RejectedCandidates,
		"expired_pre_mappings": summary.ExpiredPreMappings,
	}).Info("pre-mapping pass finished")

	return summary, nil
}

// matchOnePreMapping creates a pending mapping for every unmapped active
// line the pre-mapping claims.
func (r *Reconciler) matchOnePreMapping(ctx context.Context, pm *model.PreMapping, summary *MatcherSummary) error {
	lines, err := r.datasource.GetUnmappedPOLinesByRequisition(ctx, pm.PRNumber)
	if err != nil {
		return err
	}

	for _, line := range lines {
		if pm.PRLine != "" && line.PRLine != pm.PRLine {
			continue
		}

		mapping := &model.Mapping{
			MappingID:            model.GenerateUUIDWithSuffix("map"),
			POLineID:             line.POLineID,
			AllocationID:         pm.AllocationID,
			MappedAmount:         line.OrderedValue,
			RequiresConfirmation: true,
			Provenance:           model.MappingProvenancePreMapping,
			PreMappingID:         pm.PreMappingID,
		}

		_, err := r.datasource.RecordMapping(ctx, mapping)
		if err != nil {
			// A line mapped since the candidate list was read loses the
			// race; the candidate is dropped and the pass continues.
			if recerror.HasCode(err, recerror.ErrConstraintViolation) {
				summary.RejectedCandidates++
				logrus.WithField("po_line_id", line.POLineID).Warn("PO line already mapped, candidate rejected")
				continue
			}
			return err
		}
		summary.MatchedLines++
	}

	return nil
}
