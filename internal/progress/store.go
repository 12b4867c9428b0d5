// Package progress tracks resumable playback positions for one viewer and
// one piece of content. A Tracker mirrors the remote checkpoint in memory,
// throttles routine writes through a minimum-delta gate and absorbs store
// failures so playback is never interrupted by persistence.
package progress

import (
	"context"
	"errors"
	"sync"
)

// ErrNotFound is returned by a CheckpointStore when no checkpoint exists
// for the requested (viewer, content) pair.
var ErrNotFound = errors.New("checkpoint not found")

// Checkpoint is the client-side view of a persisted playback position.
type Checkpoint struct {
	// ContentID is the stable content slug.
	ContentID string

	// PlaybackTime is the playback position in seconds.
	PlaybackTime float64

	// Duration is the total content length in seconds, 0 until known.
	Duration float64

	// Completed reports whether the viewer has watched enough of the content.
	Completed bool
}

// CheckpointStore persists checkpoints for a viewer.
type CheckpointStore interface {
	// Fetch returns the checkpoint for (viewerID, contentID), or ErrNotFound.
	Fetch(ctx context.Context, viewerID, contentID string) (*Checkpoint, error)

	// Upsert writes the checkpoint, replacing any previous one for the
	// same (viewerID, checkpoint.ContentID) pair.
	Upsert(ctx context.Context, viewerID string, checkpoint *Checkpoint) error
}

// MemStore is an in-memory CheckpointStore. Safe for concurrent use.
type MemStore struct {
	mu   sync.Mutex
	rows map[[2]string]Checkpoint
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{rows: make(map[[2]string]Checkpoint)}
}

// Fetch implements CheckpointStore.
func (s *MemStore) Fetch(_ context.Context, viewerID, contentID string) (*Checkpoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp, ok := s.rows[[2]string{viewerID, contentID}]
	if !ok {
		return nil, ErrNotFound
	}
	out := cp
	return &out, nil
}

// Upsert implements CheckpointStore.
func (s *MemStore) Upsert(_ context.Context, viewerID string, checkpoint *Checkpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rows[[2]string{viewerID, checkpoint.ContentID}] = *checkpoint
	return nil
}
