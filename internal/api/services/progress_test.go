package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/janovincze/mnemosyne/internal/api/models"
	"github.com/janovincze/mnemosyne/internal/api/repositories"
)

// fakeCheckpointRepo is an in-memory CheckpointRepository.
type fakeCheckpointRepo struct {
	rows    map[[2]string]models.Checkpoint
	upserts int
}

func newFakeCheckpointRepo() *fakeCheckpointRepo {
	return &fakeCheckpointRepo{rows: make(map[[2]string]models.Checkpoint)}
}

func (f *fakeCheckpointRepo) Upsert(_ context.Context, cp *models.Checkpoint) (*models.Checkpoint, error) {
	f.upserts++
	stored := *cp
	stored.UpdatedAt = time.Now()
	f.rows[[2]string{cp.ViewerID, cp.ContentID}] = stored
	out := stored
	return &out, nil
}

func (f *fakeCheckpointRepo) Get(_ context.Context, viewerID, contentID string) (*models.Checkpoint, error) {
	cp, ok := f.rows[[2]string{viewerID, contentID}]
	if !ok {
		return nil, repositories.ErrCheckpointNotFound
	}
	out := cp
	return &out, nil
}

func (f *fakeCheckpointRepo) ListByViewer(_ context.Context, viewerID string) ([]models.Checkpoint, error) {
	var out []models.Checkpoint
	for key, cp := range f.rows {
		if key[0] == viewerID {
			out = append(out, cp)
		}
	}
	return out, nil
}

func (f *fakeCheckpointRepo) ListInProgress(_ context.Context, viewerID string, limit int) ([]models.Checkpoint, error) {
	var out []models.Checkpoint
	for key, cp := range f.rows {
		if key[0] == viewerID && !cp.Completed && cp.PlaybackTime > 0 {
			out = append(out, cp)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func TestProgressServiceSaveDerivesCompletion(t *testing.T) {
	tests := []struct {
		name          string
		playbackTime  float64
		duration      float64
		wantCompleted bool
	}{
		{"just below threshold", 89, 100, false},
		{"at threshold", 90, 100, true},
		{"past threshold", 99, 100, true},
		{"unknown duration", 50, 0, false},
		{"start of playback", 0, 100, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewProgressService(newFakeCheckpointRepo(), 0.9, nil)

			cp, err := svc.Save(context.Background(), "u1", "intro-to-calculus", &models.SaveCheckpointRequest{
				PlaybackTime: tt.playbackTime,
				Duration:     tt.duration,
			})
			if err != nil {
				t.Fatalf("Save() returned error: %v", err)
			}

			if cp.Completed != tt.wantCompleted {
				t.Errorf("completed = %v, want %v", cp.Completed, tt.wantCompleted)
			}
		})
	}
}

func TestProgressServiceSaveRecomputesCompletionEachWrite(t *testing.T) {
	repo := newFakeCheckpointRepo()
	svc := NewProgressService(repo, 0.9, nil)
	ctx := context.Background()

	// First write with unknown duration cannot be completed.
	cp, err := svc.Save(ctx, "u1", "lesson", &models.SaveCheckpointRequest{PlaybackTime: 95, Duration: 0})
	if err != nil {
		t.Fatalf("Save() returned error: %v", err)
	}
	if cp.Completed {
		t.Error("expected completed=false while duration is unknown")
	}
	if cp.Duration != nil {
		t.Errorf("expected nil duration, got %v", *cp.Duration)
	}

	// Once the duration is known the same position becomes completed.
	cp, err = svc.Save(ctx, "u1", "lesson", &models.SaveCheckpointRequest{PlaybackTime: 95, Duration: 100})
	if err != nil {
		t.Fatalf("Save() returned error: %v", err)
	}
	if !cp.Completed {
		t.Error("expected completed=true once duration is known")
	}

	// A rewind below the threshold clears the flag instead of trusting the row.
	cp, err = svc.Save(ctx, "u1", "lesson", &models.SaveCheckpointRequest{PlaybackTime: 10, Duration: 100})
	if err != nil {
		t.Fatalf("Save() returned error: %v", err)
	}
	if cp.Completed {
		t.Error("expected completed=false after rewinding below threshold")
	}
}

func TestProgressServiceSaveIdempotent(t *testing.T) {
	repo := newFakeCheckpointRepo()
	svc := NewProgressService(repo, 0.9, nil)
	ctx := context.Background()

	req := &models.SaveCheckpointRequest{PlaybackTime: 42, Duration: 120}

	first, err := svc.Save(ctx, "u1", "lesson", req)
	if err != nil {
		t.Fatalf("first Save() returned error: %v", err)
	}
	second, err := svc.Save(ctx, "u1", "lesson", req)
	if err != nil {
		t.Fatalf("second Save() returned error: %v", err)
	}

	if len(repo.rows) != 1 {
		t.Errorf("expected a single row, got %d", len(repo.rows))
	}
	if second.PlaybackTime != first.PlaybackTime || second.Completed != first.Completed {
		t.Errorf("second save changed stored values: %+v vs %+v", second, first)
	}
	if second.Duration == nil || *second.Duration != 120 {
		t.Error("expected duration 120 after identical saves")
	}
}

func TestProgressServiceSaveValidation(t *testing.T) {
	svc := NewProgressService(newFakeCheckpointRepo(), 0.9, nil)
	ctx := context.Background()

	tests := []struct {
		name      string
		viewerID  string
		contentID string
		req       models.SaveCheckpointRequest
	}{
		{"missing viewer", "", "lesson", models.SaveCheckpointRequest{PlaybackTime: 1}},
		{"bad content slug", "u1", "Not A Slug", models.SaveCheckpointRequest{PlaybackTime: 1}},
		{"negative playback time", "u1", "lesson", models.SaveCheckpointRequest{PlaybackTime: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Save(ctx, tt.viewerID, tt.contentID, &tt.req)
			var validationErr *ValidationError
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !errors.As(err, &validationErr) {
				t.Errorf("expected *ValidationError, got %T", err)
			}
		})
	}
}

func TestProgressServiceGetNotFound(t *testing.T) {
	svc := NewProgressService(newFakeCheckpointRepo(), 0.9, nil)

	_, err := svc.Get(context.Background(), "u1", "never-watched")
	var notFoundErr *NotFoundError
	if err == nil {
		t.Fatal("expected not found error, got nil")
	}
	if !errors.As(err, &notFoundErr) {
		t.Errorf("expected *NotFoundError, got %T", err)
	}
}

func TestProgressServiceContinueWatchingSkipsCompleted(t *testing.T) {
	repo := newFakeCheckpointRepo()
	svc := NewProgressService(repo, 0.9, nil)
	ctx := context.Background()

	if _, err := svc.Save(ctx, "u1", "finished-lesson", &models.SaveCheckpointRequest{PlaybackTime: 100, Duration: 100}); err != nil {
		t.Fatalf("Save() returned error: %v", err)
	}
	if _, err := svc.Save(ctx, "u1", "halfway-lesson", &models.SaveCheckpointRequest{PlaybackTime: 50, Duration: 100}); err != nil {
		t.Fatalf("Save() returned error: %v", err)
	}

	checkpoints, err := svc.ContinueWatching(ctx, "u1")
	if err != nil {
		t.Fatalf("ContinueWatching() returned error: %v", err)
	}

	if len(checkpoints) != 1 {
		t.Fatalf("expected 1 in-progress checkpoint, got %d", len(checkpoints))
	}
	if checkpoints[0].ContentID != "halfway-lesson" {
		t.Errorf("expected halfway-lesson, got %s", checkpoints[0].ContentID)
	}
}
