package session

import (
	"time"

	"voyo/api_curator/internal/brain"
	"voyo/api_curator/internal/signals"
)

const recentModeWindow = 5

// PatternState holds the live engagement counters transitions are decided
// on. Updated directly by signals, independent of the signal buffer, so
// blend decisions never wait on a curation cycle.
type PatternState struct {
	consecutiveSkips     int
	consecutiveCompletes int
	consecutiveOyes      int
	recentModes          []string
	hasSearched          bool

	now func() time.Time
}

// NewPatternState creates empty pattern counters.
func NewPatternState() *PatternState {
	return &PatternState{now: time.Now}
}

// Apply folds one signal into the counters.
func (p *PatternState) Apply(sig signals.Signal) {
	switch sig.Type {
	case signals.TypeTrackSkipped:
		p.consecutiveSkips++
		p.consecutiveCompletes = 0
		p.consecutiveOyes = 0

	case signals.TypeTrackCompleted:
		p.consecutiveCompletes++
		p.consecutiveSkips = 0

	case signals.TypeOye:
		p.consecutiveOyes++
		p.consecutiveSkips = 0

	case signals.TypeLoved:
		p.consecutiveSkips = 0

	case signals.TypeModeTapped:
		if payload, ok := sig.Payload.(signals.MixboardPayload); ok && payload.ModeID != "" {
			p.recentModes = append(p.recentModes, payload.ModeID)
			if len(p.recentModes) > recentModeWindow {
				p.recentModes = p.recentModes[len(p.recentModes)-recentModeWindow:]
			}
		}

	case signals.TypeSearchPerformed:
		p.hasSearched = true
	}
}

// Snapshot captures the counters for condition matching.
func (p *PatternState) Snapshot() brain.PatternSnapshot {
	return brain.PatternSnapshot{
		ConsecutiveSkips:     p.consecutiveSkips,
		ConsecutiveCompletes: p.consecutiveCompletes,
		ConsecutiveOyes:      p.consecutiveOyes,
		RecentModes:          append([]string(nil), p.recentModes...),
		Hour:                 p.now().Hour(),
		HasSearched:          p.hasSearched,
	}
}

// ResetForTransition clears the counters a fired transition consumed. The
// complete streak survives so engagement-based conditions keep their state.
func (p *PatternState) ResetForTransition() {
	p.consecutiveSkips = 0
	p.consecutiveOyes = 0
	p.hasSearched = false
	p.recentModes = nil
}

// Reset clears everything.
func (p *PatternState) Reset() {
	p.ResetForTransition()
	p.consecutiveCompletes = 0
}
