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
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/costline/porecon/config"
	"github.com/costline/porecon/internal/notification"
	"github.com/costline/porecon/internal/recerror"
	"github.com/costline/porecon/model"
)

// Run statuses.
const (
	RunStatusStarted   = "started"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

const orphanSampleLimit = 10

// RunSummary accumulates per-record outcomes of one reconciliation run.
// Per-record errors are counted and sampled here rather than raised
// individually; only run-level failures surface as errors.
type RunSummary struct {
	RunID            string          `json:"run_id"`
	SnapshotDate     time.Time       `json:"snapshot_date"`
	ProcessedLines   int             `json:"processed_lines"`
	OrphanPostings   int             `json:"orphan_postings"`
	ValidationErrors int             `json:"validation_errors"`
	OrphanSamples    []string        `json:"orphan_samples,omitempty"`
	ExposureCount    int             `json:"exposure_count"`
	ExposureByBucket map[string]int  `json:"exposure_by_bucket,omitempty"`
	Matcher          *MatcherSummary `json:"matcher,omitempty"`
}

// RunReconciliation executes one full reconciliation cycle: it recomputes
// every active line's cost impact history and GRIR exposure from the stored
// postings, commits all of it as one transaction, then runs the pre-mapping
// matcher. The circuit breakers fire before anything is committed, so an
// aborted run leaves prior state untouched.
//
// Parameters:
// - ctx context.Context: The context for the run.
// - snapshotDate time.Time: The calculation date of exposure snapshots.
//
// Returns:
// - *RunSummary: Counts and samples of what the run did.
// - error: A run-level error; per-record problems only land in the summary.
func (r *Reconciler) RunReconciliation(ctx context.Context, snapshotDate time.Time) (*RunSummary, error) {
	var span trace.Span
	ctx, span = otel.Tracer("Run").Start(ctx, "Reconciliation run")
	defer span.End()

	configuration, err := config.Fetch()
	if err != nil {
		return nil, err
	}

	run := &model.ReconciliationRun{
		RunID:        model.GenerateUUIDWithSuffix("run"),
		Status:       RunStatusStarted,
		SnapshotDate: snapshotDate,
		StartedAt:    time.Now(),
	}
	if err := r.datasource.RecordReconciliationRun(ctx, run); err != nil {
		return nil, err
	}

	summary := &RunSummary{
		RunID:            run.RunID,
		SnapshotDate:     snapshotDate,
		ExposureByBucket: make(map[string]int),
	}

	results, err := r.computeRun(ctx, configuration, summary)
	if err != nil {
		r.failRun(ctx, run.RunID, summary, err)
		return nil, err
	}

	if err := r.datasource.CommitRunResults(ctx, run.RunID, snapshotDate, results); err != nil {
		r.failRun(ctx, run.RunID, summary, err)
		return nil, err
	}

	if err := r.datasource.UpdateReconciliationRunStatus(ctx, run.RunID, RunStatusCompleted,
		summary.ProcessedLines, summary.OrphanPostings); err != nil {
		// The outputs are committed at this point; the summary goes back
		// with the error so the caller sees what landed.
		logrus.Errorf("failed to mark run %s as completed: %v", run.RunID, err)
		return summary, err
	}

	if !configuration.Reconciliation.DisableMatcher {
		matcher, err := r.RunPreMappingPass(ctx)
		if err != nil {
			// The calculation already committed; a matcher failure is
			// reported but does not unwind the run.
			notification.NotifyError(err)
			logrus.Errorf("pre-mapping pass failed: %v", err)
		} else {
			summary.Matcher = matcher
		}
	}

	if err := notification.WebhookNotification(summary); err != nil {
		logrus.Warnf("run webhook delivery failed: %v", err)
	}

	logrus.WithFields(logrus.Fields{
		"run_id":          summary.RunID,
		"processed_lines": summary.ProcessedLines,
		"orphan_postings": summary.OrphanPostings,
		"exposures":       summary.ExposureCount,
	}).Info("reconciliation run completed")

	return summary, nil
}

// computeRun loads the inputs, applies the circuit breakers, and recomputes
// every line. Nothing is written; the caller commits the returned results.
func (r *Reconciler) computeRun(ctx context.Context, configuration *config.Configuration, summary *RunSummary) ([]*model.LineResult, error) {
	lines, err := r.loadActiveLines(ctx, configuration.Reconciliation.BatchSize)
	if err != nil {
		return nil, err
	}

	if err := r.checkShrinkage(ctx, configuration, len(lines)); err != nil {
		return nil, err
	}

	postingsByLine, totalPostings, err := r.loadPostings(ctx, configuration.Reconciliation.BatchSize, lines, summary)
	if err != nil {
		return nil, err
	}

	if totalPostings > 0 {
		orphanRate := float64(summary.OrphanPostings) / float64(totalPostings)
		if orphanRate > configuration.Reconciliation.OrphanRateThreshold {
			return nil, recerror.New(recerror.ErrCircuitBreaker,
				fmt.Sprintf("orphan rate %.2f exceeds threshold %.2f", orphanRate,
					configuration.Reconciliation.OrphanRateThreshold),
				summary.OrphanSamples)
		}
	}

	results := r.reconcileLines(lines, postingsByLine, summary.SnapshotDate, configuration.Reconciliation.WorkerCount)

	summary.ProcessedLines = len(results)
	for _, result := range results {
		if result.Exposure != nil {
			summary.ExposureCount++
			summary.ExposureByBucket[result.Exposure.TimeBucket]++
		}
	}

	return results, nil
}

// loadActiveLines pages through the active PO lines and indexes them by ID.
func (r *Reconciler) loadActiveLines(ctx context.Context, batchSize int) (map[string]*model.POLine, error) {
	lines := make(map[string]*model.POLine)
	for offset := 0; ; offset += batchSize {
		batch, err := r.datasource.GetActivePOLines(ctx, batchSize, offset)
		if err != nil {
			return nil, err
		}
		for _, line := range batch {
			lines[line.POLineID] = line
		}
		if len(batch) < batchSize {
			return lines, nil
		}
	}
}

// loadPostings pages through every posting, validating and grouping by line.
// Orphans and validation failures are counted into the summary, never
// silently coerced into the calculation.
func (r *Reconciler) loadPostings(ctx context.Context, batchSize int, lines map[string]*model.POLine, summary *RunSummary) (map[string][]*model.Posting, int, error) {
	postingsByLine := make(map[string][]*model.Posting)
	total := 0
	for offset := 0; ; offset += batchSize {
		batch, err := r.datasource.GetAllPostings(ctx, batchSize, offset)
		if err != nil {
			return nil, 0, err
		}
		for _, pst := range batch {
			total++
			if err := pst.Validate(); err != nil {
				summary.ValidationErrors++
				logrus.WithField("posting_id", pst.PostingID).Warnf("invalid posting skipped: %v", err)
				continue
			}
			if _, ok := lines[pst.POLineID]; !ok {
				summary.OrphanPostings++
				logrus.WithField("posting_id", pst.PostingID).Warnf("orphan posting excluded: no PO line %s", pst.POLineID)
				if len(summary.OrphanSamples) < orphanSampleLimit {
					summary.OrphanSamples = append(summary.OrphanSamples, pst.PostingID)
				}
				continue
			}
			postingsByLine[pst.POLineID] = append(postingsByLine[pst.POLineID], pst)
		}
		if len(batch) < batchSize {
			return postingsByLine, total, nil
		}
	}
}

// checkShrinkage aborts the run when the active line count collapsed versus
// the prior completed run, which almost always means a broken import rather
// than a real contraction of the order book.
func (r *Reconciler) checkShrinkage(ctx context.Context, configuration *config.Configuration, activeLines int) error {
	lastRun, err := r.datasource.GetLastCompletedRun(ctx)
	if err != nil {
		return err
	}
	if lastRun == nil || lastRun.ProcessedLines == 0 {
		return nil
	}

	floor := float64(lastRun.ProcessedLines) * (1 - configuration.Reconciliation.ShrinkageThreshold)
	if float64(activeLines) < floor {
		return recerror.New(recerror.ErrCircuitBreaker,
			fmt.Sprintf("active line count %d shrank below %.0f (prior run had %d)",
				activeLines, floor, lastRun.ProcessedLines),
			lastRun.RunID)
	}
	return nil
}

// reconcileLines fans the per-line walks out across a bounded worker pool.
// Each line's walk is strictly sequential and owns its own accumulator
// state; only the fan-in of results is shared. Results are sorted by line ID
// so the commit order, and therefore the run, is deterministic.
func (r *Reconciler) reconcileLines(lines map[string]*model.POLine, postingsByLine map[string][]*model.Posting, snapshotDate time.Time, workerCount int) []*model.LineResult {
	jobs := make(chan *model.POLine, workerCount)
	resultChan := make(chan *model.LineResult, workerCount)

	var wg sync.WaitGroup
	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for line := range jobs {
				resultChan <- reconcileLine(line, postingsByLine[line.POLineID], snapshotDate)
			}
		}()
	}

	go func() {
		for _, line := range lines {
			jobs <- line
		}
		close(jobs)
		wg.Wait()
		close(resultChan)
	}()

	results := make([]*model.LineResult, 0, len(lines))
	for result := range resultChan {
		results = append(results, result)
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Line.POLineID < results[j].Line.POLineID
	})
	return results
}

// reconcileLine runs both calculators over one line with a single shared
// classification.
func reconcileLine(line *model.POLine, postings []*model.Posting, snapshotDate time.Time) *model.LineResult {
	class := Classify(line)
	records, openQty, openValue := ComputeCostImpact(line, class, postings)

	var exposure *model.GRIRExposureSnapshot
	if class == model.ClassificationSimple && !line.IsClosed() {
		exposure = ComputeGRIRExposure(line, postings, snapshotDate)
	}

	return &model.LineResult{
		Line:           line,
		Classification: class,
		Records:        records,
		OpenQty:        openQty,
		OpenValue:      openValue,
		Exposure:       exposure,
	}
}

// failRun marks the run failed and pushes the error to the notification
// channels. The original error still propagates to the caller.
func (r *Reconciler) failRun(ctx context.Context, runID string, summary *RunSummary, runErr error) {
	notification.NotifyError(runErr)
	if err := r.datasource.UpdateReconciliationRunStatus(ctx, runID, RunStatusFailed,
		summary.ProcessedLines, summary.OrphanPostings); err != nil {
		logrus.Errorf("failed to mark run %s as failed: %v", runID, err)
	}
}
