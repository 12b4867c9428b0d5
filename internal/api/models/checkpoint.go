package models

import (
	"regexp"
	"time"
)

// contentIDPattern matches the slug shape used for content references:
// lowercase alphanumerics separated by single hyphens.
var contentIDPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// MaxContentIDLength bounds content identifier length.
const MaxContentIDLength = 128

// Checkpoint is the persisted playback position for one (viewer, content) pair.
type Checkpoint struct {
	// ViewerID is the opaque viewer identifier from the identity provider.
	ViewerID string `json:"viewer_id"`

	// ContentID is the stable content slug, distinct from any video asset id.
	ContentID string `json:"content_id"`

	// PlaybackTime is the playback position in seconds.
	PlaybackTime float64 `json:"playback_time"`

	// Duration is the total content length in seconds, nil until known.
	Duration *float64 `json:"duration"`

	// Completed reports whether the viewer has watched enough of the content.
	Completed bool `json:"completed"`

	// UpdatedAt is the time of the last write.
	UpdatedAt time.Time `json:"updated_at"`
}

// SaveCheckpointRequest is the body of a checkpoint upsert.
type SaveCheckpointRequest struct {
	// PlaybackTime is the playback position in seconds.
	PlaybackTime float64 `json:"playback_time"`

	// Duration is the total content length in seconds; zero or omitted means
	// the player has not reported it yet.
	Duration float64 `json:"duration"`
}

// Validate validates the save request.
func (r *SaveCheckpointRequest) Validate() []FieldError {
	var errors []FieldError
	if r.PlaybackTime < 0 {
		errors = append(errors, FieldError{Field: "playback_time", Message: "playback time must not be negative"})
	}
	if r.Duration < 0 {
		errors = append(errors, FieldError{Field: "duration", Message: "duration must not be negative"})
	}
	return errors
}

// ValidContentID reports whether id is an acceptable content slug.
func ValidContentID(id string) bool {
	if id == "" || len(id) > MaxContentIDLength {
		return false
	}
	return contentIDPattern.MatchString(id)
}

// CheckpointResponse wraps a single checkpoint.
type CheckpointResponse struct {
	Checkpoint *Checkpoint `json:"checkpoint"`
}

// CheckpointListResponse wraps a list of checkpoints.
type CheckpointListResponse struct {
	Checkpoints []Checkpoint `json:"checkpoints"`
	TotalCount  int          `json:"total_count"`
}
