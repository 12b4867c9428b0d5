// Package session flushes the in-memory checkpoint mirror when a viewing
// session is torn down, so progress made since the last routine write is
// not lost.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/janovincze/mnemosyne/internal/progress"
)

// DefaultFlushTimeout bounds the final save during teardown.
const DefaultFlushTimeout = 5 * time.Second

// UnloadNotifier delivers a one-shot teardown signal. Register returns a
// cancel function which removes the callback without firing it.
type UnloadNotifier interface {
	Register(fn func()) (cancel func())
}

// Flusher is the part of a progress tracker the hook needs.
// *progress.Tracker satisfies it.
type Flusher interface {
	Progress() progress.Checkpoint
	ForceSave(ctx context.Context, currentTime, duration float64)
}

// HookConfig configures a Hook.
type HookConfig struct {
	// FlushTimeout bounds the teardown save. Zero selects DefaultFlushTimeout.
	FlushTimeout time.Duration

	// Logger is the structured logger. Nil selects slog.Default.
	Logger *slog.Logger
}

// Hook ties a tracker to an unload notifier for the lifetime of one
// content load. Create a fresh hook for each piece of content.
type Hook struct {
	tracker  Flusher
	notifier UnloadNotifier
	timeout  time.Duration
	logger   *slog.Logger

	mu     sync.Mutex
	cancel func()
}

// NewHook creates a Hook.
func NewHook(tracker Flusher, notifier UnloadNotifier, cfg HookConfig) *Hook {
	timeout := cfg.FlushTimeout
	if timeout <= 0 {
		timeout = DefaultFlushTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Hook{
		tracker:  tracker,
		notifier: notifier,
		timeout:  timeout,
		logger:   logger.With("component", "session-hook"),
	}
}

// Start registers the teardown flush with the notifier. Calling Start on
// an already started hook is a no-op.
func (h *Hook) Start() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.cancel != nil {
		return
	}
	h.cancel = h.notifier.Register(h.Flush)
}

// Stop deregisters the teardown flush without firing it.
func (h *Hook) Stop() {
	h.mu.Lock()
	cancel := h.cancel
	h.cancel = nil
	h.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// Flush force-saves the mirrored position synchronously. Nothing is
// written until playback has started and the duration is known.
func (h *Hook) Flush() {
	cp := h.tracker.Progress()
	if cp.PlaybackTime <= 0 || cp.Duration <= 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	h.logger.Debug("flushing checkpoint on teardown",
		"content_id", cp.ContentID,
		"playback_time", cp.PlaybackTime,
	)
	h.tracker.ForceSave(ctx, cp.PlaybackTime, cp.Duration)
}
