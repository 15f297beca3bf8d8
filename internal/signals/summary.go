package signals

import (
	"sort"
	"time"
)

// HistoryEntry is one track-level event in the recent history window.
type HistoryEntry struct {
	TrackID        string  `json:"track_id"`
	Title          string  `json:"title,omitempty"`
	Artist         string  `json:"artist,omitempty"`
	Event          Type    `json:"event"`
	CompletionRate float64 `json:"completion_rate"`
}

// Recommendation is an external recommendation that recurred in the window.
type Recommendation struct {
	TrackID string `json:"track_id"`
	Title   string `json:"title,omitempty"`
	Artist  string `json:"artist,omitempty"`
	Count   int    `json:"count"`
}

// Summary is a stateless aggregate over the unprocessed buffer contents.
// Recomputed fresh on every curation request, never persisted.
type Summary struct {
	SessionID          string           `json:"session_id"`
	Counts             map[Type]int     `json:"counts"`
	CompletionRatio    float64          `json:"completion_ratio"`
	DominantModes      []string         `json:"dominant_modes"`
	TopRecommendations []Recommendation `json:"top_recommendations"`
	History            []HistoryEntry   `json:"history"`
	Hour               int              `json:"hour"`
	Weekday            time.Weekday     `json:"weekday"`
	TimeOfDay          string           `json:"time_of_day"`
}

const (
	historyWindow        = 20
	dominantModeCount    = 3
	topRecommendationCap = 10
)

// TimeOfDayLabel buckets an hour into the labels the curation prompt and
// fallback session names use.
func TimeOfDayLabel(hour int) string {
	switch {
	case hour >= 5 && hour < 12:
		return "morning"
	case hour >= 12 && hour < 17:
		return "afternoon"
	case hour >= 17 && hour < 23:
		return "evening"
	default:
		return "late night"
	}
}

// BuildSummary aggregates a slice of signals into a Summary. It is a pure
// function: the same signals and clock always produce the same summary.
func BuildSummary(sessionID string, sigs []Signal, now time.Time) Summary {
	summary := Summary{
		SessionID: sessionID,
		Counts:    make(map[Type]int, len(sigs)),
		Hour:      now.Hour(),
		Weekday:   now.Weekday(),
		TimeOfDay: TimeOfDayLabel(now.Hour()),
	}

	var completes, skips int
	modeTaps := make(map[string]int)
	recCounts := make(map[string]*Recommendation)
	recOrder := make(map[string]int)

	for i, sig := range sigs {
		summary.Counts[sig.Type]++

		switch sig.Type {
		case TypeTrackCompleted:
			completes++
		case TypeTrackSkipped:
			skips++
		case TypeModeTapped:
			if p, ok := sig.Payload.(MixboardPayload); ok && p.ModeID != "" {
				modeTaps[p.ModeID]++
			}
		case TypeRecommendationHit:
			if p, ok := sig.Payload.(DiscoveryPayload); ok && p.TrackID != "" {
				rec, seen := recCounts[p.TrackID]
				if !seen {
					rec = &Recommendation{TrackID: p.TrackID, Title: p.Title, Artist: p.Artist}
					recCounts[p.TrackID] = rec
					recOrder[p.TrackID] = i
				}
				rec.Count++
			}
		}

		if p, ok := sig.Payload.(PlaybackPayload); ok && p.TrackID != "" {
			summary.History = append(summary.History, HistoryEntry{
				TrackID:        p.TrackID,
				Title:          p.Title,
				Artist:         p.Artist,
				Event:          sig.Type,
				CompletionRate: p.CompletionRate,
			})
		}
	}

	if completes+skips > 0 {
		summary.CompletionRatio = float64(completes) / float64(completes+skips)
	}

	// Dominant modes: top-3 by tap frequency, ties broken alphabetically
	// for determinism.
	modes := make([]string, 0, len(modeTaps))
	for mode := range modeTaps {
		modes = append(modes, mode)
	}
	sort.Slice(modes, func(i, j int) bool {
		if modeTaps[modes[i]] != modeTaps[modes[j]] {
			return modeTaps[modes[i]] > modeTaps[modes[j]]
		}
		return modes[i] < modes[j]
	})
	if len(modes) > dominantModeCount {
		modes = modes[:dominantModeCount]
	}
	summary.DominantModes = modes

	// Top recommendations: by observed count, then earliest position.
	recs := make([]Recommendation, 0, len(recCounts))
	for _, rec := range recCounts {
		recs = append(recs, *rec)
	}
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].Count != recs[j].Count {
			return recs[i].Count > recs[j].Count
		}
		return recOrder[recs[i].TrackID] < recOrder[recs[j].TrackID]
	})
	if len(recs) > topRecommendationCap {
		recs = recs[:topRecommendationCap]
	}
	summary.TopRecommendations = recs

	// History keeps only the most recent window.
	if len(summary.History) > historyWindow {
		summary.History = summary.History[len(summary.History)-historyWindow:]
	}

	return summary
}
