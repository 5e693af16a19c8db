package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/example/canvasai/internal/ports/primary"
	"github.com/example/canvasai/internal/ports/secondary"
)

const (
	maxTailLimit  = 200
	topErrorCodes = 10
	statusReady   = "ready"
)

// RunServiceImpl implements the RunService interface.
type RunServiceImpl struct {
	runRepo   secondary.RunRepository
	actionLog secondary.ActionLog
}

// NewRunService creates a new RunService with injected dependencies.
func NewRunService(runRepo secondary.RunRepository, actionLog secondary.ActionLog) *RunServiceImpl {
	return &RunServiceImpl{runRepo: runRepo, actionLog: actionLog}
}

// GetRun retrieves a run by ID.
func (s *RunServiceImpl) GetRun(ctx context.Context, runID string) (*primary.Run, error) {
	record, err := s.runRepo.GetByID(ctx, runID)
	if errors.Is(err, secondary.ErrNotFound) {
		return nil, primary.NewNotFoundError("Run not found: %s", runID)
	}
	if err != nil {
		return nil, err
	}
	return recordToRun(record), nil
}

// TailRuns returns the most recently updated runs.
func (s *RunServiceImpl) TailRuns(ctx context.Context, limit int) ([]*primary.Run, error) {
	if limit < 1 || limit > maxTailLimit {
		return nil, primary.NewValidationError("--limit must be between 1 and %d.", maxTailLimit)
	}
	records, err := s.runRepo.List(ctx, limit)
	if err != nil {
		return nil, err
	}
	runs := make([]*primary.Run, 0, len(records))
	for _, r := range records {
		runs = append(runs, recordToRun(r))
	}
	return runs, nil
}

// Metrics summarizes run outcomes and the most common error codes. Runs in
// succeeded or ready count as successes.
func (s *RunServiceImpl) Metrics(ctx context.Context) (*primary.MetricsSummary, error) {
	counts, err := s.runRepo.CountByCommandStatus(ctx)
	if err != nil {
		return nil, err
	}

	summary := &primary.MetricsSummary{
		ByCommand:        map[string]*primary.CommandCounts{},
		CommonErrorCodes: []primary.ErrorCodeCount{},
	}
	for _, c := range counts {
		bucket, ok := summary.ByCommand[c.Command]
		if !ok {
			bucket = &primary.CommandCounts{}
			summary.ByCommand[c.Command] = bucket
		}
		summary.TotalRuns += c.Count
		switch c.Status {
		case statusSucceeded, statusReady:
			bucket.Succeeded += c.Count
			summary.SuccessRuns += c.Count
		case statusFailed:
			bucket.Failed += c.Count
			summary.FailedRuns += c.Count
		default:
			bucket.Other += c.Count
		}
	}

	codes, err := s.actionLog.TopErrorCodes(ctx, topErrorCodes)
	if err != nil {
		return nil, err
	}
	for _, c := range codes {
		summary.CommonErrorCodes = append(summary.CommonErrorCodes, primary.ErrorCodeCount{Code: c.Code, Count: c.Count})
	}
	return summary, nil
}

// RecordAction appends an entry to the action log.
func (s *RunServiceImpl) RecordAction(ctx context.Context, command, payload string) error {
	if err := s.actionLog.Record(ctx, command, payload); err != nil {
		return fmt.Errorf("failed to record %s action: %w", command, err)
	}
	return nil
}

// recordToRun decodes the metadata document; unreadable metadata shows as empty.
func recordToRun(r *secondary.RunRecord) *primary.Run {
	metadata := map[string]any{}
	if r.MetadataJSON != "" {
		if err := json.Unmarshal([]byte(r.MetadataJSON), &metadata); err != nil || metadata == nil {
			metadata = map[string]any{}
		}
	}
	return &primary.Run{
		ID:           r.ID,
		Command:      r.Command,
		Status:       r.Status,
		MetadataJSON: r.MetadataJSON,
		Metadata:     metadata,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

// Ensure RunServiceImpl implements the interface
var _ primary.RunService = (*RunServiceImpl)(nil)
