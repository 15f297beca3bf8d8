package signals

import (
	"testing"
	"time"

	"voyo/api_curator/pkg/logging"
)

type firedRecord struct {
	trigger string
	summary Summary
}

func newTestBuffer(t *testing.T, opts Options) (*Buffer, *[]firedRecord, *time.Time) {
	t.Helper()
	b := NewBuffer(logging.NewLogger(), "session-1", opts)

	clock := time.Date(2026, 3, 14, 20, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return clock }

	fired := &[]firedRecord{}
	b.OnBrainTrigger(func(trigger string, summary Summary) {
		*fired = append(*fired, firedRecord{trigger, summary})
	})
	return b, fired, &clock
}

func skipSignal(trackID string) Signal {
	return NewSignal("session-1", TypeTrackSkipped, PlaybackPayload{TrackID: trackID, CompletionRate: 12})
}

func tapSignal(mode string) Signal {
	return NewSignal("session-1", TypeModeTapped, MixboardPayload{ModeID: mode})
}

func TestSkipStreakFiresOncePerThresholdCrossing(t *testing.T) {
	b, fired, _ := newTestBuffer(t, Options{})

	b.Record(skipSignal("t1"))
	b.Record(skipSignal("t2"))
	if len(*fired) != 0 {
		t.Fatalf("fired before threshold: %d", len(*fired))
	}

	b.Record(skipSignal("t3"))
	if len(*fired) != 1 || (*fired)[0].trigger != TriggerSkipStreak {
		t.Fatalf("expected one skip_streak fire, got %+v", *fired)
	}

	// Counter was reset on fire; another skip must not re-fire.
	b.Record(skipSignal("t4"))
	if len(*fired) != 1 {
		t.Fatalf("fired again past threshold: %d", len(*fired))
	}
	if got := b.byName[TriggerSkipStreak].CurrentCount; got != 1 {
		t.Fatalf("expected skip counter restarted at 1, got %d", got)
	}
}

func TestSkipStreakResetByComplete(t *testing.T) {
	b, fired, _ := newTestBuffer(t, Options{})

	b.Record(skipSignal("t1"))
	b.Record(skipSignal("t2"))
	b.Record(NewSignal("session-1", TypeTrackCompleted, PlaybackPayload{TrackID: "t3", CompletionRate: 95}))
	b.Record(skipSignal("t4"))
	b.Record(skipSignal("t5"))

	if len(*fired) != 0 {
		t.Fatalf("streak should have been broken, fired %d", len(*fired))
	}
}

func TestCooldownBlocksSecondFire(t *testing.T) {
	b, fired, clock := newTestBuffer(t, Options{})

	b.TriggerManually()
	if len(*fired) != 1 {
		t.Fatalf("expected manual fire, got %d", len(*fired))
	}

	// Satisfied trigger inside the cooldown window must not fire.
	*clock = clock.Add(10 * time.Second)
	for _, id := range []string{"t1", "t2", "t3"} {
		b.Record(skipSignal(id))
	}
	if len(*fired) != 1 {
		t.Fatalf("fired inside cooldown: %d", len(*fired))
	}

	// Past the cooldown the still-satisfied counter fires.
	*clock = clock.Add(30 * time.Second)
	b.Record(skipSignal("t4"))
	if len(*fired) != 2 || (*fired)[1].trigger != TriggerSkipStreak {
		t.Fatalf("expected skip_streak after cooldown, got %+v", *fired)
	}
}

func TestMixboardFireResetsAccumulator(t *testing.T) {
	b, fired, clock := newTestBuffer(t, Options{})

	for i := 0; i < 5; i++ {
		b.Record(tapSignal("afro_heat"))
	}
	if len(*fired) != 1 || (*fired)[0].trigger != TriggerMixboard {
		t.Fatalf("expected mixboard fire at 5 changes, got %+v", *fired)
	}
	if b.mixboardChanges != 0 {
		t.Fatalf("accumulator not reset: %d", b.mixboardChanges)
	}

	// Four more taps stay below the threshold after the reset.
	*clock = clock.Add(time.Minute)
	for i := 0; i < 4; i++ {
		b.Record(tapSignal("afro_heat"))
	}
	if len(*fired) != 1 {
		t.Fatalf("mixboard fired below threshold after reset: %d", len(*fired))
	}
}

func TestVibeShiftRequiresDistinctModes(t *testing.T) {
	b, fired, clock := newTestBuffer(t, Options{})

	// First five taps trip the mixboard trigger, which keeps the tap
	// history intact.
	for _, mode := range []string{"afro_heat", "chill", "party", "workout", "afro_heat"} {
		b.Record(tapSignal(mode))
	}
	if len(*fired) != 1 || (*fired)[0].trigger != TriggerMixboard {
		t.Fatalf("expected mixboard first, got %+v", *fired)
	}

	// Past cooldown, a fifth distinct mode in the window fires vibe_shift
	// (mixboard restarted at 1, below its threshold).
	*clock = clock.Add(time.Minute)
	b.Record(tapSignal("late_night"))
	if len(*fired) != 2 || (*fired)[1].trigger != TriggerVibeShift {
		t.Fatalf("expected vibe_shift, got %+v", *fired)
	}
	if b.modeTaps != nil {
		t.Fatalf("tap history not cleared: %v", b.modeTaps)
	}
}

func TestModeTapHistoryStaysBounded(t *testing.T) {
	b, _, _ := newTestBuffer(t, Options{})

	// A long tapping streak on one mode never fires vibe_shift; the tap
	// history must still stay within the read window.
	for i := 0; i < 200; i++ {
		b.Record(tapSignal("afro_heat"))
	}
	if len(b.modeTaps) > b.opts.VibeShiftWindow {
		t.Fatalf("tap history unbounded: %d entries", len(b.modeTaps))
	}

	// The trimmed window still detects a shift: four more distinct modes
	// give five distinct over the last ten taps.
	for _, mode := range []string{"chill", "party", "workout", "late_night"} {
		b.Record(tapSignal(mode))
	}
	if got := b.byName[TriggerVibeShift].CurrentCount; got != 5 {
		t.Fatalf("expected 5 distinct modes in window, got %d", got)
	}
}

func TestFireMarksSignalsProcessed(t *testing.T) {
	b, fired, clock := newTestBuffer(t, Options{})

	b.Record(skipSignal("t1"))
	b.Record(skipSignal("t2"))
	b.TriggerManually()
	if len(*fired) != 1 {
		t.Fatalf("expected manual fire, got %d", len(*fired))
	}
	if got := (*fired)[0].summary.Counts[TypeTrackSkipped]; got != 2 {
		t.Fatalf("expected 2 skips in first summary, got %d", got)
	}

	*clock = clock.Add(time.Minute)
	b.Record(skipSignal("t3"))
	b.TriggerManually()
	if len(*fired) != 2 {
		t.Fatalf("expected second manual fire, got %d", len(*fired))
	}
	if got := (*fired)[1].summary.Counts[TypeTrackSkipped]; got != 1 {
		t.Fatalf("processed signals double counted: got %d skips", got)
	}
}

func TestSessionStartAndPoolEmpty(t *testing.T) {
	b, fired, clock := newTestBuffer(t, Options{})

	b.Record(NewSignal("session-1", TypeSessionStarted, ContextPayload{}))
	if len(*fired) != 1 || (*fired)[0].trigger != TriggerSessionStart {
		t.Fatalf("expected session_start fire, got %+v", *fired)
	}

	*clock = clock.Add(time.Minute)
	b.SignalPoolEmpty()
	if len(*fired) != 2 || (*fired)[1].trigger != TriggerPoolEmpty {
		t.Fatalf("expected pool_empty fire, got %+v", *fired)
	}
}

func TestNoCallbackIsNonFatal(t *testing.T) {
	b := NewBuffer(logging.NewLogger(), "session-1", Options{})
	for _, id := range []string{"t1", "t2", "t3"} {
		b.Record(skipSignal(id))
	}
	// Firing without a callback must not consume the counter.
	if got := b.byName[TriggerSkipStreak].CurrentCount; got != 3 {
		t.Fatalf("expected counter preserved without callback, got %d", got)
	}
}

func TestBufferEvictsOldestBeyondCapacity(t *testing.T) {
	b, _, _ := newTestBuffer(t, Options{Capacity: 10})
	for i := 0; i < 25; i++ {
		b.Record(NewSignal("session-1", TypeTrackResumed, PlaybackPayload{TrackID: "t"}))
	}
	if b.Len() != 10 {
		t.Fatalf("expected capacity cap of 10, got %d", b.Len())
	}
}
