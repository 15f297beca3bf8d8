package signals

import (
	"time"

	"voyo/api_curator/pkg/logging"
)

// Trigger names, in evaluation priority order.
const (
	TriggerSessionStart = "session_start"
	TriggerMixboard     = "mixboard_changes"
	TriggerSkipStreak   = "skip_streak"
	TriggerPoolEmpty    = "pool_empty"
	TriggerManual       = "manual"
	TriggerVibeShift    = "vibe_shift"
)

// Trigger is a named threshold counter over accumulated signals.
type Trigger struct {
	Name         string
	Threshold    int
	CurrentCount int
}

// Options tunes buffer and trigger behavior. Zero values fall back to the
// defaults from the product configuration.
type Options struct {
	Capacity        int
	Cooldown        time.Duration
	SkipStreakLimit int
	MixboardLimit   int
	VibeShiftWindow int
	VibeShiftModes  int
}

func (o Options) withDefaults() Options {
	if o.Capacity <= 0 {
		o.Capacity = 500
	}
	if o.Cooldown <= 0 {
		o.Cooldown = 30 * time.Second
	}
	if o.SkipStreakLimit <= 0 {
		o.SkipStreakLimit = 3
	}
	if o.MixboardLimit <= 0 {
		o.MixboardLimit = 5
	}
	if o.VibeShiftWindow <= 0 {
		o.VibeShiftWindow = 10
	}
	if o.VibeShiftModes <= 0 {
		o.VibeShiftModes = 4
	}
	return o
}

type bufferEntry struct {
	signal    Signal
	processed bool
}

// TriggerCallback receives the fired trigger name and the summary built from
// the unprocessed buffer window.
type TriggerCallback func(trigger string, summary Summary)

// Buffer is the bounded signal ring plus trigger evaluation. One buffer per
// listening session; all methods run on the caller's goroutine.
type Buffer struct {
	logger  logging.Logger
	opts    Options
	session string

	entries []bufferEntry

	triggers []*Trigger
	byName   map[string]*Trigger

	// Raw accumulators behind the trigger counters.
	consecutiveSkips int
	mixboardChanges  int
	modeTaps         []string

	lastFireTime time.Time
	callback     TriggerCallback

	now func() time.Time
}

// NewBuffer creates a buffer for one session.
func NewBuffer(logger logging.Logger, sessionID string, opts Options) *Buffer {
	opts = opts.withDefaults()
	b := &Buffer{
		logger:  logger,
		opts:    opts,
		session: sessionID,
		entries: make([]bufferEntry, 0, opts.Capacity),
		byName:  make(map[string]*Trigger),
		now:     time.Now,
	}
	for _, t := range []*Trigger{
		{Name: TriggerSessionStart, Threshold: 1},
		{Name: TriggerMixboard, Threshold: opts.MixboardLimit},
		{Name: TriggerSkipStreak, Threshold: opts.SkipStreakLimit},
		{Name: TriggerPoolEmpty, Threshold: 1},
		{Name: TriggerManual, Threshold: 1},
		{Name: TriggerVibeShift, Threshold: opts.VibeShiftModes},
	} {
		b.triggers = append(b.triggers, t)
		b.byName[t.Name] = t
	}
	return b
}

// OnBrainTrigger registers the curation entry point. Exactly one callback is
// active; registering again replaces the previous one.
func (b *Buffer) OnBrainTrigger(cb TriggerCallback) {
	if b.callback != nil {
		b.logger.WithField("session_id", b.session).Warn("Replacing registered curation callback")
	}
	b.callback = cb
}

// Record appends a signal, updates trigger counters and evaluates triggers.
// At most one trigger fires per call.
func (b *Buffer) Record(sig Signal) {
	b.entries = append(b.entries, bufferEntry{signal: sig})
	if len(b.entries) > b.opts.Capacity {
		b.entries = b.entries[len(b.entries)-b.opts.Capacity:]
	}

	b.updateCounters(sig)
	b.evaluate()
}

// TriggerManually synthesizes a satisfied manual trigger.
func (b *Buffer) TriggerManually() {
	b.byName[TriggerManual].CurrentCount = 1
	b.evaluate()
}

// SignalPoolEmpty synthesizes a satisfied pool-empty trigger.
func (b *Buffer) SignalPoolEmpty() {
	b.Record(NewSignal(b.session, TypePoolEmpty, QueuePayload{Remaining: 0}))
	b.byName[TriggerPoolEmpty].CurrentCount = 1
	b.evaluate()
}

// Triggers returns a snapshot of the trigger counters.
func (b *Buffer) Triggers() []Trigger {
	out := make([]Trigger, len(b.triggers))
	for i, t := range b.triggers {
		out[i] = *t
	}
	return out
}

// Len reports the number of buffered signals.
func (b *Buffer) Len() int {
	return len(b.entries)
}

func (b *Buffer) updateCounters(sig Signal) {
	switch sig.Type {
	case TypeSessionStarted:
		b.byName[TriggerSessionStart].CurrentCount = 1

	case TypeTrackSkipped:
		b.consecutiveSkips++
		b.byName[TriggerSkipStreak].CurrentCount = b.consecutiveSkips

	case TypeTrackCompleted, TypeOye, TypeLoved:
		b.consecutiveSkips = 0
		b.byName[TriggerSkipStreak].CurrentCount = 0

	case TypeModeTapped, TypeModeHeld, TypeModeReleased:
		b.mixboardChanges++
		b.byName[TriggerMixboard].CurrentCount = b.mixboardChanges

		if sig.Type == TypeModeTapped {
			if p, ok := sig.Payload.(MixboardPayload); ok && p.ModeID != "" {
				b.modeTaps = append(b.modeTaps, p.ModeID)
				// Only the recent window is ever read; keep at least the
				// minimum-tap count so the gate below still sees it.
				keep := b.opts.VibeShiftWindow
				if keep < 5 {
					keep = 5
				}
				if len(b.modeTaps) > keep {
					b.modeTaps = b.modeTaps[len(b.modeTaps)-keep:]
				}
			}
			b.byName[TriggerVibeShift].CurrentCount = b.vibeShiftCount()
		}

	case TypePoolEmpty:
		b.byName[TriggerPoolEmpty].CurrentCount = 1
	}
}

// vibeShiftCount returns the distinct-mode count over the recent tap window,
// or 0 when too few taps have been recorded.
func (b *Buffer) vibeShiftCount() int {
	if len(b.modeTaps) < 5 {
		return 0
	}
	window := b.modeTaps
	if len(window) > b.opts.VibeShiftWindow {
		window = window[len(window)-b.opts.VibeShiftWindow:]
	}
	distinct := make(map[string]struct{}, len(window))
	for _, mode := range window {
		distinct[mode] = struct{}{}
	}
	return len(distinct)
}

// evaluate fires the first satisfied trigger, respecting the global cooldown.
func (b *Buffer) evaluate() {
	now := b.now()
	if !b.lastFireTime.IsZero() && now.Sub(b.lastFireTime) < b.opts.Cooldown {
		return
	}
	for _, t := range b.triggers {
		if t.CurrentCount >= t.Threshold {
			b.fire(t, now)
			return
		}
	}
}

func (b *Buffer) fire(t *Trigger, now time.Time) {
	if b.callback == nil {
		b.logger.WithFields(logging.Fields{
			"session_id": b.session,
			"trigger":    t.Name,
		}).Warn("Trigger satisfied but no curation callback registered")
		return
	}

	unprocessed := make([]Signal, 0, len(b.entries))
	for i := range b.entries {
		if !b.entries[i].processed {
			unprocessed = append(unprocessed, b.entries[i].signal)
			b.entries[i].processed = true
		}
	}
	summary := BuildSummary(b.session, unprocessed, now)

	t.CurrentCount = 0
	switch t.Name {
	case TriggerMixboard:
		b.mixboardChanges = 0
	case TriggerVibeShift:
		b.modeTaps = nil
	case TriggerSkipStreak:
		b.consecutiveSkips = 0
	}
	b.lastFireTime = now

	b.logger.WithFields(logging.Fields{
		"session_id": b.session,
		"trigger":    t.Name,
		"signals":    len(unprocessed),
	}).Info("Curation trigger fired")

	b.callback(t.Name, summary)
}
