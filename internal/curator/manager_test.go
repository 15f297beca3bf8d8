package curator

import (
	"errors"
	"testing"
	"time"

	"voyo/api_curator/internal/config"
	"voyo/api_curator/internal/signals"
	"voyo/api_curator/pkg/logging"
)

func testManager() *Manager {
	cfg := config.Config{
		BufferCapacity:  500,
		TriggerCooldown: 30 * time.Second,
		SkipStreakLimit: 3,
		MixboardLimit:   5,
		VibeShiftWindow: 10,
		VibeShiftModes:  4,
		QueueLowWater:   5,
		MinutesPerTrack: 3.5,
		CurationTimeout: 5 * time.Second,
	}
	return NewManager(cfg, Deps{Logger: logging.NewLogger()})
}

func waitForOutput(t *testing.T, s *Session) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if s.Info().SessionName != "" {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("curation did not load an output in time")
}

func TestManagerLifecycle(t *testing.T) {
	m := testManager()

	s, err := m.Create("s1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if s.ID != "s1" || m.Count() != 1 {
		t.Fatalf("unexpected state after create: id=%s count=%d", s.ID, m.Count())
	}

	if _, err := m.Create("s1"); !errors.Is(err, ErrSessionExists) {
		t.Fatalf("expected ErrSessionExists, got %v", err)
	}
	if _, err := m.Get("s1"); err != nil {
		t.Fatalf("get: %v", err)
	}
	if err := m.Remove("s1"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := m.Get("s1"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
	if err := m.Remove("s1"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("remove missing: expected ErrSessionNotFound, got %v", err)
	}
}

func TestSessionStartTriggersInitialCuration(t *testing.T) {
	m := testManager()
	s, err := m.Create("s1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	waitForOutput(t, s)

	served := s.NextTrack()
	if served == nil || served.Source != "main" {
		t.Fatalf("expected a main-queue track after initial curation, got %+v", served)
	}
}

func TestSkipStreakFiresCurationAfterCooldown(t *testing.T) {
	m := testManager()
	m.cfg.TriggerCooldown = time.Millisecond
	s, err := m.Create("s1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	waitForOutput(t, s)

	// Serve one track so a reload is observable through the cursor reset.
	if s.NextTrack() == nil {
		t.Fatal("expected a track from the initial output")
	}
	if s.Info().TracksPlayed != 1 {
		t.Fatalf("expected 1 track played, got %d", s.Info().TracksPlayed)
	}

	// Let the creation-time fire drop out of the cooldown window.
	time.Sleep(5 * time.Millisecond)
	for i := 0; i < 3; i++ {
		s.Ingest(signals.NewSignal("s1", signals.TypeTrackSkipped, signals.PlaybackPayload{TrackID: "t", CompletionRate: 5}))
	}

	// The streak fires a fresh curation cycle; loading it resets the cursor.
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		info := s.Info()
		if info.TracksPlayed == 0 && info.QueuePosition == 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("skip streak did not produce a fresh curation")
}
