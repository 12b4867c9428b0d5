// Package services provides business logic for API resources.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/janovincze/mnemosyne/internal/api/models"
	"github.com/janovincze/mnemosyne/internal/api/repositories"
	"github.com/janovincze/mnemosyne/internal/metrics"
)

// DefaultContinueWatchingLimit bounds the continue-watching listing.
const DefaultContinueWatchingLimit = 20

// CheckpointRepository is the persistence surface the progress service needs.
type CheckpointRepository interface {
	Upsert(ctx context.Context, cp *models.Checkpoint) (*models.Checkpoint, error)
	Get(ctx context.Context, viewerID, contentID string) (*models.Checkpoint, error)
	ListByViewer(ctx context.Context, viewerID string) ([]models.Checkpoint, error)
	ListInProgress(ctx context.Context, viewerID string, limit int) ([]models.Checkpoint, error)
}

// ProgressService provides business logic for checkpoint operations.
type ProgressService struct {
	repo                CheckpointRepository
	completionThreshold float64
	logger              *slog.Logger
}

// NewProgressService creates a new ProgressService. completionThreshold is the
// watched fraction at which content counts as completed (e.g. 0.9).
func NewProgressService(repo CheckpointRepository, completionThreshold float64, logger *slog.Logger) *ProgressService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProgressService{
		repo:                repo,
		completionThreshold: completionThreshold,
		logger:              logger.With("component", "progress-service"),
	}
}

// Save upserts the checkpoint for a (viewer, content) pair.
//
// The completed flag is always recomputed here from the submitted position and
// duration, never taken from a previous row, so a save that arrives after the
// duration becomes known corrects any earlier state.
func (s *ProgressService) Save(ctx context.Context, viewerID, contentID string, req *models.SaveCheckpointRequest) (*models.Checkpoint, error) {
	if fieldErrors := s.validateKey(viewerID, contentID); len(fieldErrors) > 0 {
		return nil, &ValidationError{Errors: fieldErrors}
	}
	if fieldErrors := req.Validate(); len(fieldErrors) > 0 {
		return nil, &ValidationError{Errors: fieldErrors}
	}

	cp := &models.Checkpoint{
		ViewerID:     viewerID,
		ContentID:    contentID,
		PlaybackTime: req.PlaybackTime,
		Completed:    req.Duration > 0 && req.PlaybackTime >= req.Duration*s.completionThreshold,
	}
	if req.Duration > 0 {
		d := req.Duration
		cp.Duration = &d
	}

	saved, err := s.repo.Upsert(ctx, cp)
	if err != nil {
		metrics.CheckpointSaveErrorsTotal.Inc()
		s.logger.Error("failed to save checkpoint", "viewer_id", viewerID, "content_id", contentID, "error", err)
		return nil, fmt.Errorf("failed to save checkpoint: %w", err)
	}

	if saved.Completed {
		metrics.CheckpointCompletionsTotal.Inc()
	}

	s.logger.Debug("checkpoint saved",
		"viewer_id", viewerID,
		"content_id", contentID,
		"playback_time", saved.PlaybackTime,
		"completed", saved.Completed,
	)
	return saved, nil
}

// Get retrieves the checkpoint for a (viewer, content) pair.
func (s *ProgressService) Get(ctx context.Context, viewerID, contentID string) (*models.Checkpoint, error) {
	if fieldErrors := s.validateKey(viewerID, contentID); len(fieldErrors) > 0 {
		return nil, &ValidationError{Errors: fieldErrors}
	}

	cp, err := s.repo.Get(ctx, viewerID, contentID)
	if err != nil {
		if errors.Is(err, repositories.ErrCheckpointNotFound) {
			metrics.CheckpointLoadsTotal.WithLabelValues("miss").Inc()
			return nil, &NotFoundError{Resource: "checkpoint", ID: contentID}
		}
		metrics.CheckpointLoadsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to get checkpoint: %w", err)
	}

	metrics.CheckpointLoadsTotal.WithLabelValues("hit").Inc()
	return cp, nil
}

// List retrieves all checkpoints for a viewer.
func (s *ProgressService) List(ctx context.Context, viewerID string) ([]models.Checkpoint, error) {
	checkpoints, err := s.repo.ListByViewer(ctx, viewerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list checkpoints: %w", err)
	}
	if checkpoints == nil {
		checkpoints = []models.Checkpoint{}
	}
	return checkpoints, nil
}

// ContinueWatching retrieves the viewer's unfinished checkpoints, most
// recently watched first.
func (s *ProgressService) ContinueWatching(ctx context.Context, viewerID string) ([]models.Checkpoint, error) {
	checkpoints, err := s.repo.ListInProgress(ctx, viewerID, DefaultContinueWatchingLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list in-progress checkpoints: %w", err)
	}
	if checkpoints == nil {
		checkpoints = []models.Checkpoint{}
	}
	return checkpoints, nil
}

// validateKey validates the composite checkpoint key.
func (s *ProgressService) validateKey(viewerID, contentID string) []models.FieldError {
	var fieldErrors []models.FieldError
	if viewerID == "" {
		fieldErrors = append(fieldErrors, models.FieldError{Field: "viewer_id", Message: "viewer id is required"})
	}
	if !models.ValidContentID(contentID) {
		fieldErrors = append(fieldErrors, models.FieldError{Field: "content_id", Message: "content id must be a valid slug"})
	}
	return fieldErrors
}

// Service errors.

// ValidationError represents a validation error.
type ValidationError struct {
	Errors []models.FieldError
}

func (e *ValidationError) Error() string {
	return "validation error"
}

// NotFoundError represents a not found error.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}
