// Package player adapts the event stream of an opaque video player into
// checkpoint saves and a one-shot resume seek. The player itself is out of
// scope; integrations deliver its events through the Adapter's On* methods.
package player

import (
	"math"
	"sync"
)

// State is a snapshot of a player's playback state. Values a player has
// not reported yet are zero.
type State struct {
	// CurrentTime is the playback position in seconds.
	CurrentTime float64

	// Duration is the total content length in seconds.
	Duration float64
}

// Normalize replaces NaN, infinite and negative values with 0.
func (s State) Normalize() State {
	return State{
		CurrentTime: normalize(s.CurrentTime),
		Duration:    normalize(s.Duration),
	}
}

func normalize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

// Seeker moves the playback position of the underlying player.
type Seeker interface {
	SeekTo(seconds float64)
}

// Config configures an Adapter.
type Config struct {
	// ContentID identifies the content the adapter is bound to.
	ContentID string

	// Seeker performs the resume seek. Nil disables seeking.
	Seeker Seeker

	// HandleTimeUpdate receives normalized states from playback ticks.
	HandleTimeUpdate func(State)

	// HandleEnded receives the normalized final state when playback ends.
	HandleEnded func(State)
}

// Adapter routes player events to checkpoint handlers and seeks to the
// resume point exactly once per content load.
type Adapter struct {
	contentID    string
	seeker       Seeker
	handleUpdate func(State)
	handleEnded  func(State)

	mu        sync.Mutex
	startTime float64
	seeked    bool
}

// NewAdapter creates an Adapter.
func NewAdapter(cfg Config) *Adapter {
	return &Adapter{
		contentID:    cfg.ContentID,
		seeker:       cfg.Seeker,
		handleUpdate: cfg.HandleTimeUpdate,
		handleEnded:  cfg.HandleEnded,
	}
}

// SetResumePoint sets the position OnLoadedMetadata seeks to. Zero or
// negative disables the seek.
func (a *Adapter) SetResumePoint(seconds float64) {
	a.mu.Lock()
	a.startTime = seconds
	a.mu.Unlock()
}

// OnTimeUpdate handles a playback tick.
func (a *Adapter) OnTimeUpdate(state State) {
	if a.handleUpdate != nil {
		a.handleUpdate(state.Normalize())
	}
}

// OnEnded handles the end of playback.
func (a *Adapter) OnEnded(state State) {
	if a.handleEnded != nil {
		a.handleEnded(state.Normalize())
	}
}

// OnLoadedMetadata seeks to the resume point. Only the first call per
// content load seeks; later metadata events must not yank the viewer back.
func (a *Adapter) OnLoadedMetadata(State) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.seeked || a.startTime <= 0 || a.seeker == nil {
		return
	}
	a.seeked = true
	a.seeker.SeekTo(a.startTime)
}

// Reset rebinds the adapter to new content, re-arming the resume seek.
// Resetting to the same content keeps the guard.
func (a *Adapter) Reset(contentID string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if contentID == a.contentID {
		return
	}
	a.contentID = contentID
	a.startTime = 0
	a.seeked = false
}

// ContentID returns the content the adapter is currently bound to.
func (a *Adapter) ContentID() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.contentID
}
