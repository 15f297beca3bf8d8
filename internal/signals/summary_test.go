package signals

import (
	"fmt"
	"testing"
	"time"
)

func TestBuildSummaryCompletionRatio(t *testing.T) {
	sigs := []Signal{
		NewSignal("s", TypeTrackCompleted, PlaybackPayload{TrackID: "a", CompletionRate: 100}),
		NewSignal("s", TypeTrackCompleted, PlaybackPayload{TrackID: "b", CompletionRate: 90}),
		NewSignal("s", TypeTrackCompleted, PlaybackPayload{TrackID: "c", CompletionRate: 85}),
		NewSignal("s", TypeTrackSkipped, PlaybackPayload{TrackID: "d", CompletionRate: 10}),
	}
	summary := BuildSummary("s", sigs, time.Now())
	if summary.CompletionRatio != 0.75 {
		t.Fatalf("expected 0.75, got %v", summary.CompletionRatio)
	}
}

func TestBuildSummaryEmptyWindow(t *testing.T) {
	summary := BuildSummary("s", nil, time.Date(2026, 1, 10, 3, 0, 0, 0, time.UTC))
	if summary.CompletionRatio != 0 {
		t.Fatalf("expected 0 ratio with no playback, got %v", summary.CompletionRatio)
	}
	if summary.TimeOfDay != "late night" {
		t.Fatalf("expected late night at 03:00, got %q", summary.TimeOfDay)
	}
	if len(summary.History) != 0 || len(summary.DominantModes) != 0 {
		t.Fatalf("expected empty aggregates, got %+v", summary)
	}
}

func TestBuildSummaryDominantModes(t *testing.T) {
	var sigs []Signal
	taps := map[string]int{"afro_heat": 4, "chill": 2, "party": 3, "workout": 1}
	for mode, n := range taps {
		for i := 0; i < n; i++ {
			sigs = append(sigs, NewSignal("s", TypeModeTapped, MixboardPayload{ModeID: mode}))
		}
	}
	summary := BuildSummary("s", sigs, time.Now())
	want := []string{"afro_heat", "party", "chill"}
	if len(summary.DominantModes) != 3 {
		t.Fatalf("expected top-3 modes, got %v", summary.DominantModes)
	}
	for i, mode := range want {
		if summary.DominantModes[i] != mode {
			t.Fatalf("expected %v, got %v", want, summary.DominantModes)
		}
	}
}

func TestBuildSummaryTopRecommendations(t *testing.T) {
	var sigs []Signal
	// t2 seen three times, t1 and t3 once each with t1 observed first.
	for _, id := range []string{"t1", "t2", "t3", "t2", "t2"} {
		sigs = append(sigs, NewSignal("s", TypeRecommendationHit, DiscoveryPayload{TrackID: id}))
	}
	summary := BuildSummary("s", sigs, time.Now())
	if len(summary.TopRecommendations) != 3 {
		t.Fatalf("expected 3 recommendations, got %d", len(summary.TopRecommendations))
	}
	if summary.TopRecommendations[0].TrackID != "t2" || summary.TopRecommendations[0].Count != 3 {
		t.Fatalf("expected t2 first with count 3, got %+v", summary.TopRecommendations[0])
	}
	// Tie between t1 and t3 breaks on earliest observation.
	if summary.TopRecommendations[1].TrackID != "t1" {
		t.Fatalf("expected earliest-seen t1 second, got %+v", summary.TopRecommendations)
	}
}

func TestBuildSummaryHistoryWindow(t *testing.T) {
	var sigs []Signal
	for i := 0; i < 30; i++ {
		sigs = append(sigs, NewSignal("s", TypeTrackCompleted, PlaybackPayload{
			TrackID:        fmt.Sprintf("t%02d", i),
			CompletionRate: 100,
		}))
	}
	summary := BuildSummary("s", sigs, time.Now())
	if len(summary.History) != 20 {
		t.Fatalf("expected last-20 history, got %d", len(summary.History))
	}
	if summary.History[0].TrackID != "t10" || summary.History[19].TrackID != "t29" {
		t.Fatalf("unexpected history window: %s .. %s", summary.History[0].TrackID, summary.History[19].TrackID)
	}
}

func TestTimeOfDayLabel(t *testing.T) {
	cases := map[int]string{
		5: "morning", 11: "morning",
		12: "afternoon", 16: "afternoon",
		17: "evening", 22: "evening",
		23: "late night", 0: "late night", 4: "late night",
	}
	for hour, want := range cases {
		if got := TimeOfDayLabel(hour); got != want {
			t.Errorf("hour %d: expected %q, got %q", hour, want, got)
		}
	}
}
