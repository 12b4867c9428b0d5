// Package repositories provides data access layer for API resources.
package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/janovincze/mnemosyne/internal/api/models"
)

// Checkpoint repository errors.
var (
	ErrCheckpointNotFound = errors.New("checkpoint not found")
)

// CheckpointRepository handles database operations for playback checkpoints.
type CheckpointRepository struct {
	db *sql.DB
}

// NewCheckpointRepository creates a new CheckpointRepository.
func NewCheckpointRepository(db *sql.DB) *CheckpointRepository {
	return &CheckpointRepository{db: db}
}

// InitSchema creates the checkpoint table if it does not exist.
func (r *CheckpointRepository) InitSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS checkpoints (
			viewer_id     TEXT NOT NULL,
			content_id    TEXT NOT NULL,
			playback_time DOUBLE PRECISION NOT NULL DEFAULT 0,
			duration      DOUBLE PRECISION,
			completed     BOOLEAN NOT NULL DEFAULT FALSE,
			updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (viewer_id, content_id)
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create checkpoints table: %w", err)
	}
	return nil
}

// checkpointRow represents a database row for a checkpoint.
type checkpointRow struct {
	ViewerID     string
	ContentID    string
	PlaybackTime float64
	Duration     sql.NullFloat64
	Completed    bool
	UpdatedAt    time.Time
}

// toModel converts a database row to an API model.
func (r *checkpointRow) toModel() *models.Checkpoint {
	cp := &models.Checkpoint{
		ViewerID:     r.ViewerID,
		ContentID:    r.ContentID,
		PlaybackTime: r.PlaybackTime,
		Completed:    r.Completed,
		UpdatedAt:    r.UpdatedAt,
	}
	if r.Duration.Valid {
		d := r.Duration.Float64
		cp.Duration = &d
	}
	return cp
}

// Upsert writes a checkpoint, creating the row on first save and overwriting
// all fields on subsequent saves. The write is a single statement, so
// concurrent saves for the same key cannot interleave field-wise; the last
// statement to execute wins.
func (r *CheckpointRepository) Upsert(ctx context.Context, cp *models.Checkpoint) (*models.Checkpoint, error) {
	query := `
		INSERT INTO checkpoints (viewer_id, content_id, playback_time, duration, completed, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (viewer_id, content_id) DO UPDATE SET
			playback_time = EXCLUDED.playback_time,
			duration = EXCLUDED.duration,
			completed = EXCLUDED.completed,
			updated_at = EXCLUDED.updated_at
		RETURNING viewer_id, content_id, playback_time, duration, completed, updated_at
	`

	var duration sql.NullFloat64
	if cp.Duration != nil {
		duration = sql.NullFloat64{Float64: *cp.Duration, Valid: true}
	}

	var row checkpointRow
	err := r.db.QueryRowContext(ctx, query,
		cp.ViewerID,
		cp.ContentID,
		cp.PlaybackTime,
		duration,
		cp.Completed,
	).Scan(
		&row.ViewerID,
		&row.ContentID,
		&row.PlaybackTime,
		&row.Duration,
		&row.Completed,
		&row.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert checkpoint: %w", err)
	}

	return row.toModel(), nil
}

// Get retrieves the checkpoint for a (viewer, content) pair.
func (r *CheckpointRepository) Get(ctx context.Context, viewerID, contentID string) (*models.Checkpoint, error) {
	query := `
		SELECT viewer_id, content_id, playback_time, duration, completed, updated_at
		FROM checkpoints
		WHERE viewer_id = $1 AND content_id = $2
	`

	var row checkpointRow
	err := r.db.QueryRowContext(ctx, query, viewerID, contentID).Scan(
		&row.ViewerID,
		&row.ContentID,
		&row.PlaybackTime,
		&row.Duration,
		&row.Completed,
		&row.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCheckpointNotFound
		}
		return nil, fmt.Errorf("failed to get checkpoint: %w", err)
	}

	return row.toModel(), nil
}

// ListByViewer retrieves all checkpoints for a viewer, most recent first.
func (r *CheckpointRepository) ListByViewer(ctx context.Context, viewerID string) ([]models.Checkpoint, error) {
	query := `
		SELECT viewer_id, content_id, playback_time, duration, completed, updated_at
		FROM checkpoints
		WHERE viewer_id = $1
		ORDER BY updated_at DESC
	`

	return r.queryCheckpoints(ctx, query, viewerID)
}

// ListInProgress retrieves checkpoints the viewer has started but not
// completed, most recent first. Rows with no recorded position are skipped.
func (r *CheckpointRepository) ListInProgress(ctx context.Context, viewerID string, limit int) ([]models.Checkpoint, error) {
	query := `
		SELECT viewer_id, content_id, playback_time, duration, completed, updated_at
		FROM checkpoints
		WHERE viewer_id = $1 AND completed = FALSE AND playback_time > 0
		ORDER BY updated_at DESC
		LIMIT $2
	`

	return r.queryCheckpoints(ctx, query, viewerID, limit)
}

// PurgeStale deletes checkpoints not updated since the cutoff and returns
// the number of rows removed.
func (r *CheckpointRepository) PurgeStale(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `DELETE FROM checkpoints WHERE updated_at < $1`

	result, err := r.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge stale checkpoints: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}

// queryCheckpoints runs a checkpoint query and scans all rows.
func (r *CheckpointRepository) queryCheckpoints(ctx context.Context, query string, args ...any) ([]models.Checkpoint, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query checkpoints: %w", err)
	}
	defer rows.Close()

	var checkpoints []models.Checkpoint
	for rows.Next() {
		var row checkpointRow
		err := rows.Scan(
			&row.ViewerID,
			&row.ContentID,
			&row.PlaybackTime,
			&row.Duration,
			&row.Completed,
			&row.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan checkpoint row: %w", err)
		}
		checkpoints = append(checkpoints, *row.toModel())
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate checkpoints: %w", err)
	}

	return checkpoints, nil
}
