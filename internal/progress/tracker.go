package progress

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/janovincze/mnemosyne/internal/metrics"
)

const (
	// DefaultSaveInterval is the minimum playback-time delta between
	// routine writes.
	DefaultSaveInterval = 5 * time.Second

	// DefaultCompletionThreshold is the watched fraction at which content
	// counts as completed.
	DefaultCompletionThreshold = 0.9
)

// TrackerConfig configures a Tracker.
type TrackerConfig struct {
	// ViewerID identifies the viewer. Empty disables all persistence.
	ViewerID string

	// ContentID identifies the content. Empty disables all persistence.
	ContentID string

	// SaveInterval is the minimum delta between routine writes.
	// Zero or negative selects DefaultSaveInterval.
	SaveInterval time.Duration

	// CompletionThreshold is the watched fraction at which content counts
	// as completed. Out of range (0, 1] selects DefaultCompletionThreshold.
	CompletionThreshold float64

	// Logger is the structured logger. Nil selects slog.Default.
	Logger *slog.Logger
}

// Tracker mirrors one viewer's checkpoint for one piece of content.
//
// Persistence failures are logged and absorbed, never surfaced to the
// caller: a broken store must not break playback. Without a viewer and
// content id every operation is a silent no-op.
type Tracker struct {
	store     CheckpointStore
	viewerID  string
	contentID string
	interval  float64
	threshold float64
	logger    *slog.Logger

	mu        sync.Mutex
	mirror    Checkpoint
	lastSaved float64
}

// NewTracker creates a Tracker backed by store.
func NewTracker(store CheckpointStore, cfg TrackerConfig) *Tracker {
	interval := cfg.SaveInterval
	if interval <= 0 {
		interval = DefaultSaveInterval
	}
	threshold := cfg.CompletionThreshold
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultCompletionThreshold
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Tracker{
		store:     store,
		viewerID:  cfg.ViewerID,
		contentID: cfg.ContentID,
		interval:  interval.Seconds(),
		threshold: threshold,
		logger:    logger.With("component", "progress-tracker", "content_id", cfg.ContentID),
		mirror:    Checkpoint{ContentID: cfg.ContentID},
	}
}

// Load fetches the persisted checkpoint into the in-memory mirror and
// returns it. A missing row or a store failure yields a zero-valued
// checkpoint; failures are logged, not returned.
func (t *Tracker) Load(ctx context.Context) Checkpoint {
	if !t.identified() {
		return Checkpoint{ContentID: t.contentID}
	}

	cp, err := t.store.Fetch(ctx, t.viewerID, t.contentID)
	switch {
	case err == nil:
		metrics.CheckpointLoadsTotal.WithLabelValues("hit").Inc()
	case errors.Is(err, ErrNotFound):
		metrics.CheckpointLoadsTotal.WithLabelValues("miss").Inc()
	default:
		metrics.CheckpointLoadsTotal.WithLabelValues("error").Inc()
		t.logger.Error("failed to load checkpoint", "error", err)
	}
	if cp == nil {
		cp = &Checkpoint{ContentID: t.contentID}
	}

	t.mu.Lock()
	t.mirror = *cp
	t.lastSaved = cp.PlaybackTime
	t.mu.Unlock()

	return *cp
}

// TrySave records the current position in the mirror and writes it to the
// store unless it is within the save interval of the last committed write.
func (t *Tracker) TrySave(ctx context.Context, currentTime, duration float64) {
	if !t.identified() {
		return
	}

	cp := t.snapshot(currentTime, duration)

	t.mu.Lock()
	t.mirror = cp
	gated := math.Abs(currentTime-t.lastSaved) < t.interval
	t.mu.Unlock()
	if gated {
		return
	}

	t.save(ctx, cp, "throttled")
}

// ForceSave records the current position in the mirror and writes it to
// the store unconditionally.
func (t *Tracker) ForceSave(ctx context.Context, currentTime, duration float64) {
	if !t.identified() {
		return
	}

	cp := t.snapshot(currentTime, duration)

	t.mu.Lock()
	t.mirror = cp
	t.mu.Unlock()

	t.save(ctx, cp, "forced")
}

func (t *Tracker) snapshot(currentTime, duration float64) Checkpoint {
	return Checkpoint{
		ContentID:    t.contentID,
		PlaybackTime: currentTime,
		Duration:     duration,
		Completed:    duration > 0 && currentTime >= duration*t.threshold,
	}
}

func (t *Tracker) save(ctx context.Context, cp Checkpoint, kind string) {
	// The store call runs unlocked so overlapping saves may be in flight
	// at once; the gate always compares against the last committed write.
	if err := t.store.Upsert(ctx, t.viewerID, &cp); err != nil {
		metrics.CheckpointSaveErrorsTotal.Inc()
		t.logger.Error("failed to save checkpoint",
			"error", err,
			"playback_time", cp.PlaybackTime,
		)
		return
	}

	metrics.CheckpointSavesTotal.WithLabelValues(kind).Inc()
	if cp.Completed {
		metrics.CheckpointCompletionsTotal.Inc()
	}

	t.mu.Lock()
	t.lastSaved = cp.PlaybackTime
	t.mu.Unlock()
}

// Progress returns the in-memory mirror: the latest position reported
// through TrySave or ForceSave, whether or not it has been committed.
func (t *Tracker) Progress() Checkpoint {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.mirror
}

// LastSavedTime returns the playback time of the last committed write.
func (t *Tracker) LastSavedTime() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastSaved
}

func (t *Tracker) identified() bool {
	return t.viewerID != "" && t.contentID != ""
}
