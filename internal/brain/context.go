package brain

import (
	"fmt"
	"sort"
	"strings"

	"voyo/api_curator/internal/knowledge"
	"voyo/api_curator/internal/signals"
	"voyo/api_curator/internal/stores"
)

const systemPrompt = `You are the VOYO session curator, a DJ for African music.
You receive a snapshot of one listener's current session and respond with a
single JSON object describing the next session plan. Respond with JSON only.`

const outputSchema = `Respond with one JSON object of this exact shape:
{
  "sessionName": "short evocative name",
  "mainQueue": {"tracks": [{"type": "track", "id": "...", "title": "...", "artist": "...", "intro": "optional", "outro": "optional"}]},
  "shadowSessions": [{"id": "chill_shift|energy_boost|deep_afro|late_night|discovery", "vibe": "...", "tracks": ["track ids"], "trigger": "when to switch", "blendSpeed": "instant|smooth|gradual"}],
  "hotBelt": {"tracks": [...]},
  "discoveryBelt": {"tracks": [...]},
  "transitionRules": [{"from": "main", "to": "shadow id", "condition": "...", "blendTracks": 3}],
  "djMoments": [{"condition": "...", "searchQuery": "...", "intro": "optional", "outro": "optional"}],
  "learning": {"confirmedPatterns": [], "risingArtists": [], "fallingArtists": []},
  "discoveryQueries": ["search queries for new music"]
}
Provide exactly 5 shadowSessions, one per listed id.`

// buildContext renders the curation context deterministically: same summary
// and snapshots, same prompt.
func buildContext(
	summary signals.Summary,
	intents map[string]float64,
	collective []stores.CollectiveTrack,
	suggestions []knowledge.Track,
) string {
	var b strings.Builder

	fmt.Fprintf(&b, "## Session\nIt is %s (hour %d, %s).\n", summary.TimeOfDay, summary.Hour, summary.Weekday)
	fmt.Fprintf(&b, "Completion ratio this window: %.2f\n", summary.CompletionRatio)
	fmt.Fprintf(&b, "Signals observed: %d\n", totalSignals(summary.Counts))

	if len(summary.DominantModes) > 0 {
		fmt.Fprintf(&b, "Dominant mixboard modes: %s\n", strings.Join(summary.DominantModes, ", "))
	}

	if len(intents) > 0 {
		b.WriteString("\n## Intent weights\n")
		for _, mode := range rankedModes(intents) {
			fmt.Fprintf(&b, "- %s: %.2f\n", mode, intents[mode])
		}
	}

	if len(summary.History) > 0 {
		b.WriteString("\n## Recent listening\n")
		for _, h := range summary.History {
			fmt.Fprintf(&b, "- %s — %s (%s, %.0f%%)\n", h.Title, h.Artist, h.Event, h.CompletionRate)
		}
	}

	if len(summary.TopRecommendations) > 0 {
		b.WriteString("\n## Recurring recommendations\n")
		for _, rec := range summary.TopRecommendations {
			fmt.Fprintf(&b, "- %s — %s (seen %d times)\n", rec.Title, rec.Artist, rec.Count)
		}
	}

	if len(collective) > 0 {
		b.WriteString("\n## What everyone is playing\n")
		for _, t := range collective {
			fmt.Fprintf(&b, "- %s — %s (%d plays)\n", t.Title, t.Artist, t.PlayCount)
		}
	}

	if len(suggestions) > 0 {
		b.WriteString("\n## Mood-matched suggestions\n")
		for _, t := range suggestions {
			fmt.Fprintf(&b, "- %s — %s (mood %s, energy %.2f)\n", t.Title, t.Artist, t.Mood, t.Energy)
		}
	}

	b.WriteString("\n")
	b.WriteString(outputSchema)
	return b.String()
}

func totalSignals(counts map[signals.Type]int) int {
	total := 0
	for _, n := range counts {
		total += n
	}
	return total
}

// rankedModes orders modes by weight descending, name ascending on ties.
func rankedModes(intents map[string]float64) []string {
	modes := make([]string, 0, len(intents))
	for mode := range intents {
		modes = append(modes, mode)
	}
	sort.Slice(modes, func(i, j int) bool {
		if intents[modes[i]] != intents[modes[j]] {
			return intents[modes[i]] > intents[modes[j]]
		}
		return modes[i] < modes[j]
	})
	return modes
}
