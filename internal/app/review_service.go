package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/example/canvasai/internal/core/canonical"
	"github.com/example/canvasai/internal/core/policy"
	"github.com/example/canvasai/internal/core/review"
	"github.com/example/canvasai/internal/ports/primary"
	"github.com/example/canvasai/internal/ports/secondary"
)

const (
	statusRunning   = "running"
	statusSucceeded = "succeeded"
	statusFailed    = "failed"

	invalidTokenMessage = "Missing or invalid --confirm-token. Run review first."
)

// ReviewServiceImpl implements the ReviewService interface.
type ReviewServiceImpl struct {
	runRepo         secondary.RunRepository
	tokenRepo       secondary.ReviewTokenRepository
	idempotencyRepo secondary.IdempotencyRepository
	clients         secondary.ClientProvider
	policies        secondary.PolicyStore
	random          io.Reader
	now             func() time.Time
	logger          *slog.Logger
}

// NewReviewService creates a new ReviewService with injected dependencies.
// random supplies token entropy (crypto/rand.Reader in production).
func NewReviewService(
	runRepo secondary.RunRepository,
	tokenRepo secondary.ReviewTokenRepository,
	idempotencyRepo secondary.IdempotencyRepository,
	clients secondary.ClientProvider,
	policies secondary.PolicyStore,
	random io.Reader,
	now func() time.Time,
	logger *slog.Logger,
) *ReviewServiceImpl {
	return &ReviewServiceImpl{
		runRepo:         runRepo,
		tokenRepo:       tokenRepo,
		idempotencyRepo: idempotencyRepo,
		clients:         clients,
		policies:        policies,
		random:          random,
		now:             now,
		logger:          logger,
	}
}

// Review confirms the assignment is reachable and issues a confirm token.
func (s *ReviewServiceImpl) Review(ctx context.Context, assignmentID int64) (*primary.ReviewResponse, error) {
	client, err := s.clients.Client(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := client.GetAssignment(ctx, assignmentID); err != nil {
		return nil, err
	}

	raw := make([]byte, review.SecretBytes)
	if _, err := io.ReadFull(s.random, raw); err != nil {
		return nil, fmt.Errorf("failed to generate confirm token: %w", err)
	}
	secret := review.FormatSecret(raw)

	issuedAt := s.now()
	expiresAt := review.FormatTime(issuedAt.Add(review.DefaultTTL))
	if err := s.tokenRepo.Create(ctx, &secondary.ReviewTokenRecord{
		TokenHash:    review.HashToken(secret),
		AssignmentID: assignmentID,
		ExpiresAt:    expiresAt,
		CreatedAt:    review.FormatTime(issuedAt),
	}); err != nil {
		return nil, err
	}

	meta, err := canonical.JCS(map[string]any{"assignment_id": assignmentID, "expires_at": expiresAt})
	if err != nil {
		return nil, err
	}
	runID, err := s.runRepo.Create(ctx, "review", statusSucceeded, string(meta))
	if err != nil {
		return nil, fmt.Errorf("failed to record review run: %w", err)
	}
	s.logger.Info("confirm token issued", "run_id", runID, "assignment_id", assignmentID, "expires_at", expiresAt)

	return &primary.ReviewResponse{
		RunID:        runID,
		AssignmentID: assignmentID,
		ConfirmToken: secret,
		ExpiresAt:    expiresAt,
	}, nil
}

// Submit runs the confirmation gate, the token gate, the submit policy, and
// then either replays a stored result or performs the (stubbed) submission.
func (s *ReviewServiceImpl) Submit(ctx context.Context, req primary.SubmitRequest) (*primary.SubmitResponse, error) {
	if err := review.CanAttemptSubmit(review.SubmitGateContext{
		Confirmed:    req.Confirm,
		ConfirmToken: req.ConfirmToken,
	}).Error(); err != nil {
		return nil, primary.NewConfirmRequiredError(err.Error())
	}

	token, err := s.checkToken(ctx, req)
	if err != nil {
		return nil, err
	}

	absFile, err := s.checkFile(req.FilePath)
	if err != nil {
		return nil, err
	}

	if err := s.checkPolicy(ctx, req, token); err != nil {
		return nil, err
	}

	key := review.IdempotencyKey(req.IdempotencyKey, req.AssignmentID, absFile)
	prior, err := s.idempotencyRepo.GetByKey(ctx, key)
	if err == nil {
		return replay(prior, key)
	}
	if !errors.Is(err, secondary.ErrNotFound) {
		return nil, err
	}

	runMeta, err := canonical.JCS(map[string]any{"assignment_id": req.AssignmentID, "file": req.FilePath, "dry_run": req.DryRun})
	if err != nil {
		return nil, err
	}
	runID, err := s.runRepo.Create(ctx, "submit", statusRunning, string(runMeta))
	if err != nil {
		return nil, fmt.Errorf("failed to record submit run: %w", err)
	}

	result, err := s.execute(ctx, req, runID)
	if err != nil {
		if uerr := s.runRepo.Update(ctx, runID, statusFailed, nil); uerr != nil {
			s.logger.Error("failed to mark submit run failed", "run_id", runID, "error", uerr)
		}
		return nil, err
	}

	resultJSON, err := canonical.JCS(result)
	if err != nil {
		return nil, err
	}
	encoded := string(resultJSON)
	if err := s.runRepo.Update(ctx, runID, statusSucceeded, &encoded); err != nil {
		return nil, fmt.Errorf("failed to update submit run: %w", err)
	}
	if err := s.idempotencyRepo.Create(ctx, &secondary.IdempotencyRecord{
		Key:          key,
		AssignmentID: req.AssignmentID,
		FilePath:     req.FilePath,
		DryRun:       req.DryRun,
		ResultJSON:   encoded,
	}); err != nil {
		return nil, err
	}
	s.logger.Info("submission recorded", "run_id", runID, "assignment_id", req.AssignmentID, "dry_run", req.DryRun)

	return &primary.SubmitResponse{ResultJSON: resultJSON, Result: result, IdempotencyKey: key}, nil
}

// checkToken validates the confirm token and returns its record.
func (s *ReviewServiceImpl) checkToken(ctx context.Context, req primary.SubmitRequest) (*secondary.ReviewTokenRecord, error) {
	record, err := s.tokenRepo.GetByHash(ctx, review.HashToken(req.ConfirmToken))
	if err != nil && !errors.Is(err, secondary.ErrNotFound) {
		return nil, err
	}

	tc := review.TokenContext{Found: record != nil, RequestedAssignmentID: req.AssignmentID, Now: s.now()}
	if record != nil {
		expiresAt, perr := review.ParseTime(record.ExpiresAt)
		if perr != nil {
			return nil, fmt.Errorf("failed to parse token expiry: %w", perr)
		}
		tc.BoundAssignmentID = record.AssignmentID
		tc.ExpiresAt = expiresAt
	}
	if res := review.CanUseToken(tc); !res.Allowed {
		e := primary.NewConfirmRequiredError(invalidTokenMessage)
		e.Details = map[string]any{"reason": res.Reason}
		return nil, e
	}
	return record, nil
}

func (s *ReviewServiceImpl) checkFile(path string) (string, error) {
	if path == "" {
		return "", primary.NewValidationError("--file is required.")
	}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", primary.NewValidationError("File not found or not readable: %s", path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	return abs, nil
}

// checkPolicy applies the submit policy for the assignment's course. When
// the assignment cannot be fetched the default rule applies.
func (s *ReviewServiceImpl) checkPolicy(ctx context.Context, req primary.SubmitRequest, token *secondary.ReviewTokenRecord) error {
	var courseID *int64
	if client, err := s.clients.Client(ctx); err == nil {
		if a, err := client.GetAssignment(ctx, req.AssignmentID); err == nil && a != nil {
			courseID = a.CourseID
		} else if err != nil {
			s.logger.Warn("assignment lookup failed during submit; using default policy", "assignment_id", req.AssignmentID, "error", err)
		}
	}

	doc, err := s.policies.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load policy: %w", err)
	}

	var createdAt *time.Time
	if token != nil {
		if t, err := review.ParseTime(token.CreatedAt); err == nil {
			createdAt = &t
		}
	}
	if err := policy.CanSubmit(policy.SubmitContext{
		Rule:           doc.ForCourse(courseID),
		DryRun:         req.DryRun,
		TokenCreatedAt: createdAt,
		Now:            s.now(),
	}).Error(); err != nil {
		return primary.NewPolicyError(err.Error())
	}
	return nil
}

func (s *ReviewServiceImpl) execute(ctx context.Context, req primary.SubmitRequest, runID string) (map[string]any, error) {
	if req.DryRun {
		return map[string]any{
			"assignment_id": req.AssignmentID,
			"file":          req.FilePath,
			"status":        "dry_run",
			"message":       "Dry run only. No submission sent.",
			"run_id":        runID,
		}, nil
	}

	client, err := s.clients.Client(ctx)
	if err != nil {
		return nil, err
	}
	remote, err := client.SubmitAssignment(ctx, req.AssignmentID, req.FilePath)
	if err != nil {
		return nil, err
	}
	result := map[string]any{
		"assignment_id": req.AssignmentID,
		"file":          req.FilePath,
		"run_id":        runID,
	}
	for k, v := range remote {
		result[k] = v
	}
	return result, nil
}

func replay(prior *secondary.IdempotencyRecord, key string) (*primary.SubmitResponse, error) {
	var result map[string]any
	if err := json.Unmarshal([]byte(prior.ResultJSON), &result); err != nil {
		return nil, fmt.Errorf("failed to decode stored submission result: %w", err)
	}
	return &primary.SubmitResponse{
		ResultJSON:     []byte(prior.ResultJSON),
		Result:         result,
		Replayed:       true,
		IdempotencyKey: key,
	}, nil
}

// Ensure ReviewServiceImpl implements the interface
var _ primary.ReviewService = (*ReviewServiceImpl)(nil)
