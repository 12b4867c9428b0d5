package progress_test

import (
	"context"
	"testing"

	"github.com/janovincze/mnemosyne/internal/player"
	"github.com/janovincze/mnemosyne/internal/progress"
	"github.com/janovincze/mnemosyne/internal/session"
)

type scriptedSeeker struct {
	seeks []float64
}

func (s *scriptedSeeker) SeekTo(seconds float64) {
	s.seeks = append(s.seeks, seconds)
}

// Plays a session from scratch, tears it down mid-interval, then resumes
// in a fresh session against the same store.
func TestResumeAcrossSessions(t *testing.T) {
	store := progress.NewMemStore()
	ctx := context.Background()

	newSession := func() (*progress.Tracker, *player.Adapter, *session.Hook, *session.SignalNotifier, *scriptedSeeker) {
		tracker := progress.NewTracker(store, progress.TrackerConfig{
			ViewerID:  "viewer-1",
			ContentID: "intro-lesson",
		})
		seeker := &scriptedSeeker{}
		adapter := player.NewAdapter(player.Config{
			ContentID: "intro-lesson",
			Seeker:    seeker,
			HandleTimeUpdate: func(s player.State) {
				tracker.TrySave(ctx, s.CurrentTime, s.Duration)
			},
			HandleEnded: func(s player.State) {
				tracker.ForceSave(ctx, s.CurrentTime, s.Duration)
			},
		})
		notifier := session.NewSignalNotifier()
		hook := session.NewHook(tracker, notifier, session.HookConfig{})
		return tracker, adapter, hook, notifier, seeker
	}

	// First session: nothing persisted yet.
	tracker, adapter, hook, notifier, seeker := newSession()
	defer notifier.Close()

	cp := tracker.Load(ctx)
	if cp.PlaybackTime != 0 {
		t.Fatalf("expected empty store, got %+v", cp)
	}
	adapter.SetResumePoint(cp.PlaybackTime)
	hook.Start()

	adapter.OnLoadedMetadata(player.State{Duration: 120})
	if len(seeker.seeks) != 0 {
		t.Fatalf("expected no seek on first watch, got %v", seeker.seeks)
	}

	// Playback ticks once per second. The first write lands when the
	// position clears the save interval.
	for tick := 1.0; tick <= 6; tick++ {
		adapter.OnTimeUpdate(player.State{CurrentTime: tick, Duration: 120})
	}
	if got := tracker.LastSavedTime(); got != 5 {
		t.Fatalf("expected first committed write at 5, got %v", got)
	}

	// More ticks inside the interval, then the session is torn down.
	for tick := 7.0; tick <= 9; tick++ {
		adapter.OnTimeUpdate(player.State{CurrentTime: tick, Duration: 120})
	}
	if got := tracker.LastSavedTime(); got != 5 {
		t.Fatalf("expected ticks 7-9 to stay gated, got watermark %v", got)
	}
	notifier.Fire()

	stored, err := store.Fetch(ctx, "viewer-1", "intro-lesson")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored.PlaybackTime != 9 {
		t.Fatalf("expected teardown flush to persist 9, got %v", stored.PlaybackTime)
	}
	if stored.Completed {
		t.Fatal("expected content not completed")
	}

	// Second session resumes where the first left off.
	tracker2, adapter2, hook2, notifier2, seeker2 := newSession()
	defer notifier2.Close()

	cp = tracker2.Load(ctx)
	if cp.PlaybackTime != 9 {
		t.Fatalf("expected resume point 9, got %v", cp.PlaybackTime)
	}
	adapter2.SetResumePoint(cp.PlaybackTime)
	hook2.Start()

	adapter2.OnLoadedMetadata(player.State{Duration: 120})
	adapter2.OnLoadedMetadata(player.State{Duration: 120})
	if len(seeker2.seeks) != 1 || seeker2.seeks[0] != 9 {
		t.Fatalf("expected a single seek to 9, got %v", seeker2.seeks)
	}

	// Watching to the end completes the content.
	adapter2.OnEnded(player.State{CurrentTime: 120, Duration: 120})
	stored, err = store.Fetch(ctx, "viewer-1", "intro-lesson")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !stored.Completed {
		t.Error("expected content completed after watching to the end")
	}
}
