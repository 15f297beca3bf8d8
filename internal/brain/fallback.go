package brain

import (
	"context"
	"fmt"
	"strings"

	"voyo/api_curator/internal/knowledge"
	"voyo/api_curator/internal/signals"
	"voyo/api_curator/internal/stores"
)

// PopularArtists is the fixed rotation the fallback path searches when the
// knowledge base has nothing for the current mood.
var PopularArtists = []string{
	"Wizkid", "Burna Boy", "Davido", "Asake", "Tems", "Ayra Starr", "Rema", "Tyla",
}

// staticSeedTracks is the last-resort queue when every data source is empty.
var staticSeedTracks = []TrackEntry{
	{Kind: KindTrack, ID: "seed-essence", Title: "Essence", Artist: "Wizkid"},
	{Kind: KindTrack, ID: "seed-last-last", Title: "Last Last", Artist: "Burna Boy"},
	{Kind: KindTrack, ID: "seed-unavailable", Title: "Unavailable", Artist: "Davido"},
	{Kind: KindTrack, ID: "seed-organise", Title: "Organise", Artist: "Asake"},
	{Kind: KindTrack, ID: "seed-free-mind", Title: "Free Mind", Artist: "Tems"},
	{Kind: KindTrack, ID: "seed-rush", Title: "Rush", Artist: "Ayra Starr"},
	{Kind: KindTrack, ID: "seed-calm-down", Title: "Calm Down", Artist: "Rema"},
	{Kind: KindTrack, ID: "seed-water", Title: "Water", Artist: "Tyla"},
	{Kind: KindTrack, ID: "seed-ojuelegba", Title: "Ojuelegba", Artist: "Wizkid"},
	{Kind: KindTrack, ID: "seed-city-boys", Title: "City Boys", Artist: "Burna Boy"},
}

// moodForSummary picks the mood to curate around: the dominant mixboard mode
// when one exists, otherwise a time-of-day default.
func moodForSummary(summary signals.Summary) string {
	if len(summary.DominantModes) > 0 {
		return summary.DominantModes[0]
	}
	switch summary.TimeOfDay {
	case "morning":
		return "chill"
	case "afternoon":
		return "afro_heat"
	case "evening":
		return "party"
	default:
		return "late_night"
	}
}

func slugID(title, artist string) string {
	slug := strings.ToLower(title + "-" + artist)
	slug = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r == ' ' || r == '-':
			return '-'
		default:
			return -1
		}
	}, slug)
	return "fallback-" + slug
}

func entriesFromKnowledge(tracks []knowledge.Track) []TrackEntry {
	entries := make([]TrackEntry, 0, len(tracks))
	for _, t := range tracks {
		entries = append(entries, TrackEntry{Kind: KindTrack, ID: t.ID, Title: t.Title, Artist: t.Artist})
	}
	return entries
}

func entriesFromCollective(tracks []stores.CollectiveTrack) []TrackEntry {
	entries := make([]TrackEntry, 0, len(tracks))
	for _, t := range tracks {
		entries = append(entries, TrackEntry{Kind: KindTrack, ID: slugID(t.Title, t.Artist), Title: t.Title, Artist: t.Artist})
	}
	return entries
}

// fallbackTracks assembles a local track list without the model, walking the
// data sources in fixed order: mood-matched knowledge, popular-artist
// collective hits, overall collective hits, static seeds.
func (e *Engine) fallbackTracks(ctx context.Context, summary signals.Summary, count int) []TrackEntry {
	mood := moodForSummary(summary)

	if e.knowledge != nil {
		tracks, err := e.knowledge.LookupByMood(ctx, mood, count)
		if err != nil {
			e.logger.WithError(err).WithField("mood", mood).Warn("Knowledge lookup failed, trying next source")
		} else if len(tracks) > 0 {
			return entriesFromKnowledge(tracks)
		}
	}

	if e.collective != nil {
		tracks, err := e.collective.TopTracksByArtists(ctx, PopularArtists, count)
		if err != nil {
			e.logger.WithError(err).Warn("Popular-artist lookup failed, trying next source")
		} else if len(tracks) > 0 {
			return entriesFromCollective(tracks)
		}

		tracks, err = e.collective.TopTracks(ctx, count)
		if err != nil {
			e.logger.WithError(err).Warn("Collective lookup failed, using static seeds")
		} else if len(tracks) > 0 {
			return entriesFromCollective(tracks)
		}
	}

	seeds := staticSeedTracks
	if count < len(seeds) {
		seeds = seeds[:count]
	}
	return append([]TrackEntry(nil), seeds...)
}

// GenerateShadows builds the five fixed shadow sessions from a track pool.
// Each shadow gets a rotated view of the pool so the queues differ.
func GenerateShadows(pool []TrackEntry) []ShadowSession {
	ids := make([]string, len(pool))
	for i, t := range pool {
		ids[i] = t.ID
	}

	specs := []struct {
		id, vibe, trigger, speed string
	}{
		{"chill_shift", "slow it down, keep it warm", "skipping tracks back to back", BlendSmooth},
		{"energy_boost", "turn the energy up", "an OYE reaction", BlendInstant},
		{"deep_afro", "deep cuts and long grooves", "completing 3 tracks in a row", BlendGradual},
		{"late_night", "low lights, heavy bass", "late night listening while engaged", BlendGradual},
		{"discovery", "something you have not heard", "searching for new music", BlendSmooth},
	}

	shadows := make([]ShadowSession, 0, len(specs))
	for i, spec := range specs {
		tracks := make([]string, 0, len(ids))
		for j := range ids {
			tracks = append(tracks, ids[(i+j)%len(ids)])
		}
		shadows = append(shadows, ShadowSession{
			ID:         spec.id,
			Vibe:       spec.vibe,
			Tracks:     tracks,
			Trigger:    spec.trigger,
			BlendSpeed: spec.speed,
		})
	}
	return shadows
}

// fallbackCuration produces a complete plan from local heuristics only.
// Never calls the model.
func (e *Engine) fallbackCuration(ctx context.Context, summary signals.Summary) *Output {
	tracks := e.fallbackTracks(ctx, summary, e.opts.FallbackTrackCount)

	out := &Output{
		SessionName: fmt.Sprintf("Your %s VOYO mix", summary.TimeOfDay),
		MainQueue:   MainQueue{Tracks: tracks},
		Shadows:     GenerateShadows(tracks),
		TransitionRules: []TransitionRule{
			{From: "main", To: "chill_shift", Condition: "2 skips in a row", BlendTracks: 3},
			{From: "main", To: "energy_boost", Condition: "an oye reaction", BlendTracks: 1},
		},
		DJMoments: []DJMoment{
			{
				Condition:   "after 30 minutes of steady listening",
				SearchQuery: "afrobeats amapiano mix",
				Intro:       "You've been locked in. Here's a longer ride.",
			},
		},
		DiscoveryQueries: []string{
			"new afrobeats this week",
			"amapiano rising artists",
		},
		Source: SourceFallback,
	}

	Validate(out, tracks)
	out.Source = SourceFallback
	return out
}
