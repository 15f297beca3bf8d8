package session

import (
	"sync"
	"time"

	"voyo/api_curator/internal/brain"
	"voyo/api_curator/internal/signals"
	"voyo/api_curator/pkg/logging"
)

// SessionMain is the primary queue identifier.
const SessionMain = "main"

// Track sources reported on served tracks.
const (
	SourceMain  = "main"
	SourceBlend = "blend"
)

// ServedTrack is one next-track decision handed back to the host player.
type ServedTrack struct {
	Track   brain.TrackEntry `json:"track"`
	Source  string           `json:"source"`
	Session string           `json:"session"`
}

// Info is the session snapshot exposed to the host.
type Info struct {
	SessionName     string  `json:"session_name"`
	CurrentSession  string  `json:"current_session"`
	QueuePosition   int     `json:"queue_position"`
	IsBlending      bool    `json:"is_blending"`
	BlendTo         string  `json:"blend_to,omitempty"`
	BlendProgress   float64 `json:"blend_progress"`
	TracksPlayed    int     `json:"tracks_played"`
	SessionSwitches int     `json:"session_switches"`
	MixesPlayed     int     `json:"mixes_played"`
	QueueLow        bool    `json:"queue_low"`
}

// Options tunes the executor.
type Options struct {
	QueueLowWater   int
	MinutesPerTrack float64
}

func (o Options) withDefaults() Options {
	if o.QueueLowWater <= 0 {
		o.QueueLowWater = 5
	}
	if o.MinutesPerTrack <= 0 {
		o.MinutesPerTrack = brain.DefaultMinutesPerTrack
	}
	return o
}

// Executor consumes a validated curation output: walks the main queue,
// blends into shadow queues when live patterns match, rotates belts and
// detects DJ moments. One executor per listening session.
type Executor struct {
	mu      sync.Mutex
	logger  logging.Logger
	opts    Options
	pattern *PatternState

	output       *brain.Output
	trackIndex   map[string]brain.TrackEntry
	shadowQueues map[string][]string
	momentServed []bool

	currentSession string
	queuePosition  int

	isBlending  bool
	blendFrom   string
	blendTo     string
	blendServed int
	blendTracks int

	hotCursor       int
	discoveryCursor int

	tracksPlayed    int
	sessionSwitches int
	mixesPlayed     int

	// onSwitch, when set, observes completed transition starts.
	onSwitch func(from, to string)
}

// NewExecutor creates an executor with empty state.
func NewExecutor(logger logging.Logger, opts Options) *Executor {
	return &Executor{
		logger:         logger,
		opts:           opts.withDefaults(),
		pattern:        NewPatternState(),
		currentSession: SessionMain,
	}
}

// OnSessionSwitch registers an observer for transition starts.
func (x *Executor) OnSessionSwitch(fn func(from, to string)) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.onSwitch = fn
}

// LoadOutput replaces the active plan and resets all cursor state.
func (x *Executor) LoadOutput(out *brain.Output) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.loadOutputLocked(out)
}

func (x *Executor) loadOutputLocked(out *brain.Output) {
	x.output = out
	x.currentSession = SessionMain
	x.queuePosition = 0
	x.isBlending = false
	x.blendFrom = ""
	x.blendTo = ""
	x.blendServed = 0
	x.blendTracks = 0
	x.hotCursor = 0
	x.discoveryCursor = 0
	x.tracksPlayed = 0
	x.sessionSwitches = 0
	x.mixesPlayed = 0

	x.trackIndex = make(map[string]brain.TrackEntry)
	x.shadowQueues = make(map[string][]string)
	x.momentServed = nil
	if out == nil {
		return
	}

	for _, t := range out.MainQueue.Tracks {
		x.trackIndex[t.ID] = t
	}
	for _, t := range out.HotBelt.Tracks {
		x.trackIndex[t.ID] = t
	}
	for _, t := range out.DiscoveryBelt.Tracks {
		x.trackIndex[t.ID] = t
	}
	for _, shadow := range out.Shadows {
		x.shadowQueues[shadow.ID] = append([]string(nil), shadow.Tracks...)
	}
	x.momentServed = make([]bool, len(out.DJMoments))

	x.logger.WithFields(logging.Fields{
		"session_name": out.SessionName,
		"queue_tracks": len(out.MainQueue.Tracks),
		"source":       out.Source,
	}).Info("Curation output loaded")
}

// HandleSignal updates pattern counters and checks for transitions. Called
// for every signal; a transition in progress suppresses further checks.
func (x *Executor) HandleSignal(sig signals.Signal) {
	x.mu.Lock()
	defer x.mu.Unlock()

	x.pattern.Apply(sig)

	if x.output == nil || x.isBlending {
		return
	}
	x.checkTransitions()
}

// checkTransitions starts at most one blend. Transition rules take priority
// over shadow hard triggers.
func (x *Executor) checkTransitions() {
	snap := x.pattern.Snapshot()

	for _, rule := range x.output.TransitionRules {
		if rule.From != "" && rule.From != x.currentSession {
			continue
		}
		if rule.To == x.currentSession {
			continue
		}
		if rule.When != nil && rule.When.Matches(snap) {
			x.startBlend(rule.To, rule.BlendTracks)
			return
		}
	}

	for _, shadow := range x.output.Shadows {
		if shadow.ID == x.currentSession {
			continue
		}
		if shadow.When != nil && shadow.When.Matches(snap) {
			x.startBlend(shadow.ID, brain.BlendTracksFor(shadow.BlendSpeed))
			return
		}
	}
}

func (x *Executor) startBlend(to string, blendTracks int) {
	if to != SessionMain {
		if _, ok := x.shadowQueues[to]; !ok {
			x.logger.WithField("to", to).Warn("Transition target has no queue, skipping")
			return
		}
	}
	if blendTracks <= 0 {
		blendTracks = brain.BlendTracksFor(brain.BlendSmooth)
	}

	x.isBlending = true
	x.blendFrom = x.currentSession
	x.blendTo = to
	x.blendServed = 0
	x.blendTracks = blendTracks
	x.sessionSwitches++
	x.pattern.ResetForTransition()

	x.logger.WithFields(logging.Fields{
		"from":         x.blendFrom,
		"to":           to,
		"blend_tracks": blendTracks,
	}).Info("Session blend started")

	if x.onSwitch != nil {
		x.onSwitch(x.blendFrom, to)
	}
}

// NextTrack serves the next track decision, or nil when the active queue is
// exhausted and no transition is in progress.
func (x *Executor) NextTrack() *ServedTrack {
	x.mu.Lock()
	defer x.mu.Unlock()

	if x.output == nil {
		return nil
	}

	if x.isBlending {
		return x.nextBlendTrack()
	}

	track := x.takeFrom(x.currentSession)
	if track == nil {
		return nil
	}
	x.tracksPlayed++
	source := x.currentSession
	return &ServedTrack{Track: *track, Source: source, Session: x.currentSession}
}

// nextBlendTrack serves one step of the handoff. Progress runs on served
// counts, so exactly blendTracks calls complete the transition.
func (x *Executor) nextBlendTrack() *ServedTrack {
	x.blendServed++
	progress := float64(x.blendServed) / float64(x.blendTracks)

	if progress >= 1 {
		// Collapse before serving this call's track.
		to := x.blendTo
		x.currentSession = to
		x.isBlending = false
		x.blendFrom = ""
		x.blendTo = ""
		x.blendServed = 0
		x.blendTracks = 0
		x.logger.WithField("session", to).Info("Session blend completed")

		track := x.takeFrom(to)
		if track == nil {
			return nil
		}
		x.tracksPlayed++
		return &ServedTrack{Track: *track, Source: SourceBlend, Session: x.currentSession}
	}

	source := x.blendFrom
	if progress > 0.5 {
		source = x.blendTo
	}
	track := x.takeFrom(source)
	if track == nil {
		// The drawn-from queue ran dry mid-blend; draw the other side.
		other := x.blendTo
		if source == x.blendTo {
			other = x.blendFrom
		}
		track = x.takeFrom(other)
	}
	if track == nil {
		return nil
	}
	x.tracksPlayed++
	return &ServedTrack{Track: *track, Source: SourceBlend, Session: x.currentSession}
}

// takeFrom draws one track from a queue. An exhausted shadow falls back to
// the main queue within the same call.
func (x *Executor) takeFrom(sessionID string) *brain.TrackEntry {
	if sessionID == SessionMain {
		if x.queuePosition >= len(x.output.MainQueue.Tracks) {
			return nil
		}
		track := x.output.MainQueue.Tracks[x.queuePosition]
		x.queuePosition++
		return &track
	}

	queue := x.shadowQueues[sessionID]
	if len(queue) == 0 {
		x.logger.WithField("shadow", sessionID).Info("Shadow queue exhausted, falling back to main")
		if x.currentSession == sessionID {
			x.currentSession = SessionMain
		}
		return x.takeFrom(SessionMain)
	}

	id := queue[0]
	x.shadowQueues[sessionID] = queue[1:]
	if track, ok := x.trackIndex[id]; ok {
		return &track
	}
	return &brain.TrackEntry{Kind: brain.KindTrack, ID: id}
}

// ShouldInsertMix returns the first unserved DJ moment whose condition
// matches, or nil. A returned moment is consumed.
func (x *Executor) ShouldInsertMix() *brain.DJMoment {
	x.mu.Lock()
	defer x.mu.Unlock()

	if x.output == nil {
		return nil
	}

	snap := brain.MixSnapshot{
		TracksPlayed:         x.tracksPlayed,
		ConsecutiveCompletes: x.pattern.consecutiveCompletes,
		MinutesPerTrack:      x.opts.MinutesPerTrack,
	}
	for i := range x.output.DJMoments {
		if x.momentServed[i] {
			continue
		}
		moment := x.output.DJMoments[i]
		if moment.When != nil && moment.When.MatchesMix(snap) {
			x.momentServed[i] = true
			x.mixesPlayed++
			x.logger.WithField("search_query", moment.SearchQuery).Info("DJ moment matched")
			return &moment
		}
	}
	return nil
}

// NextHotTrack rotates the hot belt. Empty belt returns nil.
func (x *Executor) NextHotTrack() *brain.TrackEntry {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.output == nil || len(x.output.HotBelt.Tracks) == 0 {
		return nil
	}
	track := x.output.HotBelt.Tracks[x.hotCursor%len(x.output.HotBelt.Tracks)]
	x.hotCursor++
	return &track
}

// NextDiscoveryTrack rotates the discovery belt. Empty belt returns nil.
func (x *Executor) NextDiscoveryTrack() *brain.TrackEntry {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.output == nil || len(x.output.DiscoveryBelt.Tracks) == 0 {
		return nil
	}
	track := x.output.DiscoveryBelt.Tracks[x.discoveryCursor%len(x.output.DiscoveryBelt.Tracks)]
	x.discoveryCursor++
	return &track
}

// IsQueueLow reports whether fewer than the low-water mark of tracks remain
// in the active queue.
func (x *Executor) IsQueueLow() bool {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.queueLowLocked()
}

func (x *Executor) queueLowLocked() bool {
	if x.output == nil {
		return true
	}
	remaining := 0
	if x.currentSession == SessionMain {
		remaining = len(x.output.MainQueue.Tracks) - x.queuePosition
	} else {
		remaining = len(x.shadowQueues[x.currentSession])
	}
	return remaining < x.opts.QueueLowWater
}

// SessionInfo returns the state snapshot exposed to the host.
func (x *Executor) SessionInfo() Info {
	x.mu.Lock()
	defer x.mu.Unlock()

	info := Info{
		CurrentSession:  x.currentSession,
		QueuePosition:   x.queuePosition,
		IsBlending:      x.isBlending,
		BlendTo:         x.blendTo,
		TracksPlayed:    x.tracksPlayed,
		SessionSwitches: x.sessionSwitches,
		MixesPlayed:     x.mixesPlayed,
		QueueLow:        x.queueLowLocked(),
	}
	if x.isBlending && x.blendTracks > 0 {
		info.BlendProgress = float64(x.blendServed) / float64(x.blendTracks)
	}
	if x.output != nil {
		info.SessionName = x.output.SessionName
	}
	return info
}

// Reset restores default cursor state and clears the pattern counters. The
// loaded output stays active.
func (x *Executor) Reset() {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.loadOutputLocked(x.output)
	x.pattern.Reset()
}

func (x *Executor) setClock(now func() time.Time) {
	x.pattern.now = now
}
