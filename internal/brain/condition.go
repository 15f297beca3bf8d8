package brain

import (
	"regexp"
	"strconv"
	"strings"
)

// DefaultMinutesPerTrack estimates session minutes from tracks played for
// DJ-moment timing. Heuristic; override via session.Options.
const DefaultMinutesPerTrack = 3.5

// PatternSnapshot is the live engagement state conditions match against.
type PatternSnapshot struct {
	ConsecutiveSkips     int
	ConsecutiveCompletes int
	ConsecutiveOyes      int
	RecentModes          []string
	Hour                 int
	HasSearched          bool
}

// DistinctRecentModes counts distinct mode ids in the recent window.
func (s PatternSnapshot) DistinctRecentModes() int {
	seen := make(map[string]struct{}, len(s.RecentModes))
	for _, mode := range s.RecentModes {
		seen[mode] = struct{}{}
	}
	return len(seen)
}

// Condition is a compiled transition trigger. Conditions are produced once
// during output validation and matched on every pattern check; the original
// free-text condition string is never re-parsed.
type Condition interface {
	Matches(PatternSnapshot) bool
}

// SkipStreakAtLeast matches N or more consecutive skips.
type SkipStreakAtLeast struct{ N int }

// CompleteStreakAtLeast matches N or more consecutive completes.
type CompleteStreakAtLeast struct{ N int }

// AnyOye matches as soon as one OYE reaction is live.
type AnyOye struct{}

// TimeWindow matches when the local hour falls in [Start, End), wrapping
// midnight when Start > End.
type TimeWindow struct{ Start, End int }

// SearchOccurred matches once a search happened this pattern window.
type SearchOccurred struct{}

// ModeHoppingAtLeast matches N or more distinct recent modes.
type ModeHoppingAtLeast struct{ N int }

type allOf []Condition

type never struct{}

func (c SkipStreakAtLeast) Matches(s PatternSnapshot) bool { return s.ConsecutiveSkips >= c.N }

func (c CompleteStreakAtLeast) Matches(s PatternSnapshot) bool {
	return s.ConsecutiveCompletes >= c.N
}

func (AnyOye) Matches(s PatternSnapshot) bool { return s.ConsecutiveOyes >= 1 }

func (c TimeWindow) Matches(s PatternSnapshot) bool {
	if c.Start <= c.End {
		return s.Hour >= c.Start && s.Hour < c.End
	}
	return s.Hour >= c.Start || s.Hour < c.End
}

func (SearchOccurred) Matches(s PatternSnapshot) bool { return s.HasSearched }

func (c ModeHoppingAtLeast) Matches(s PatternSnapshot) bool {
	return s.DistinctRecentModes() >= c.N
}

func (cs allOf) Matches(s PatternSnapshot) bool {
	for _, c := range cs {
		if !c.Matches(s) {
			return false
		}
	}
	return true
}

func (never) Matches(PatternSnapshot) bool { return false }

// Never is a condition that never matches.
func Never() Condition { return never{} }

// AllOf combines conditions conjunctively.
func AllOf(conditions ...Condition) Condition { return allOf(conditions) }

var firstNumber = regexp.MustCompile(`\d+`)

func extractNumber(s string, fallback int) int {
	match := firstNumber.FindString(s)
	if match == "" {
		return fallback
	}
	n, err := strconv.Atoi(match)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

// CompileCondition turns a natural-language transition condition into a
// compiled Condition. Keyword checks run in a fixed order so a string that
// mentions several concepts compiles to exactly one kind. Unrecognized
// conditions compile to Never.
func CompileCondition(condition string) Condition {
	lower := strings.ToLower(condition)
	switch {
	case strings.Contains(lower, "skip"):
		return SkipStreakAtLeast{N: extractNumber(lower, 2)}
	case strings.Contains(lower, "complete") || strings.Contains(lower, "finish"):
		return CompleteStreakAtLeast{N: extractNumber(lower, 3)}
	case strings.Contains(lower, "oye"):
		return AnyOye{}
	case strings.Contains(lower, "late") || strings.Contains(lower, "night"):
		return TimeWindow{Start: 23, End: 5}
	case strings.Contains(lower, "search") || strings.Contains(lower, "discover"):
		return SearchOccurred{}
	case strings.Contains(lower, "mode") || strings.Contains(lower, "hop") || strings.Contains(lower, "vibe"):
		return ModeHoppingAtLeast{N: extractNumber(lower, 3)}
	default:
		return Never()
	}
}

// ShadowTriggerCondition returns the hard-coded trigger for a shadow id.
// Unknown ids never trigger.
func ShadowTriggerCondition(shadowID string) Condition {
	switch shadowID {
	case "chill_shift":
		return SkipStreakAtLeast{N: 2}
	case "energy_boost":
		return AnyOye{}
	case "deep_afro":
		return CompleteStreakAtLeast{N: 3}
	case "late_night":
		return AllOf(TimeWindow{Start: 23, End: 5}, CompleteStreakAtLeast{N: 2})
	case "discovery":
		return SearchOccurred{}
	default:
		return Never()
	}
}

// MixSnapshot is the playback state DJ-moment conditions match against.
type MixSnapshot struct {
	TracksPlayed         int
	ConsecutiveCompletes int
	MinutesPerTrack      float64
}

func (s MixSnapshot) minutesElapsed() float64 {
	perTrack := s.MinutesPerTrack
	if perTrack <= 0 {
		perTrack = DefaultMinutesPerTrack
	}
	return float64(s.TracksPlayed) * perTrack
}

// MixCondition is a compiled DJ-moment trigger.
type MixCondition interface {
	MatchesMix(MixSnapshot) bool
}

// MinutesElapsed matches once the estimated session length reaches Minutes
// and the listener is engaged (complete streak of 2 or more).
type MinutesElapsed struct{ Minutes int }

// TracksPlayedAtLeast matches once N tracks have been served.
type TracksPlayedAtLeast struct{ N int }

// SteadyEngagement matches a complete streak of 3 or more.
type SteadyEngagement struct{}

type neverMix struct{}

func (c MinutesElapsed) MatchesMix(s MixSnapshot) bool {
	return s.minutesElapsed() >= float64(c.Minutes) && s.ConsecutiveCompletes >= 2
}

func (c TracksPlayedAtLeast) MatchesMix(s MixSnapshot) bool { return s.TracksPlayed >= c.N }

func (SteadyEngagement) MatchesMix(s MixSnapshot) bool { return s.ConsecutiveCompletes >= 3 }

func (neverMix) MatchesMix(MixSnapshot) bool { return false }

// NeverMix is a DJ-moment condition that never matches.
func NeverMix() MixCondition { return neverMix{} }

// CompileMixCondition turns a natural-language DJ-moment condition into a
// compiled MixCondition.
func CompileMixCondition(condition string) MixCondition {
	lower := strings.ToLower(condition)
	switch {
	case strings.Contains(lower, "minute"):
		return MinutesElapsed{Minutes: extractNumber(lower, 20)}
	case strings.Contains(lower, "track"):
		return TracksPlayedAtLeast{N: extractNumber(lower, 10)}
	case strings.Contains(lower, "steady") || strings.Contains(lower, "engagement"):
		return SteadyEngagement{}
	default:
		return NeverMix()
	}
}
