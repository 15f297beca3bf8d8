package curator

import (
	"context"
	"errors"
	"sync"
	"time"

	"voyo/api_curator/internal/brain"
	"voyo/api_curator/internal/config"
	"voyo/api_curator/internal/events"
	"voyo/api_curator/internal/session"
	"voyo/api_curator/internal/signals"
	"voyo/api_curator/internal/stores"
	"voyo/api_curator/pkg/llm"
	"voyo/api_curator/pkg/logging"
	"voyo/api_curator/pkg/monitoring"
)

var (
	// ErrSessionExists is returned when creating a session that is already live.
	ErrSessionExists = errors.New("session already exists")
	// ErrSessionNotFound is returned for operations on unknown sessions.
	ErrSessionNotFound = errors.New("session not found")
)

// Deps carries the shared collaborators sessions are wired with. Provider,
// sources, metrics and events may all be nil; the curation loop degrades to
// fallback output and skips reporting.
type Deps struct {
	Logger     logging.Logger
	Provider   llm.Provider
	Knowledge  brain.KnowledgeSource
	Collective brain.CollectiveSource
	Intent     *stores.IntentStore
	Metrics    *monitoring.CurationMetrics
	Events     *events.Publisher
}

// Manager owns the live listening sessions. Each session gets its own signal
// buffer, curation engine and executor; the LLM provider and data sources are
// shared across all of them.
type Manager struct {
	mu       sync.RWMutex
	logger   logging.Logger
	cfg      config.Config
	deps     Deps
	sessions map[string]*Session
}

// NewManager creates an empty session manager.
func NewManager(cfg config.Config, deps Deps) *Manager {
	return &Manager{
		logger:   deps.Logger,
		cfg:      cfg,
		deps:     deps,
		sessions: make(map[string]*Session),
	}
}

// Create starts a new listening session and kicks off its initial curation
// by emitting the session-started signal.
func (m *Manager) Create(sessionID string) (*Session, error) {
	m.mu.Lock()
	if _, ok := m.sessions[sessionID]; ok {
		m.mu.Unlock()
		return nil, ErrSessionExists
	}
	s := newSession(sessionID, m.cfg, m.deps)
	m.sessions[sessionID] = s
	count := len(m.sessions)
	m.mu.Unlock()

	if m.deps.Metrics != nil {
		m.deps.Metrics.ActiveSessions.WithLabelValues("active").Set(float64(count))
	}
	m.logger.WithField("session_id", sessionID).Info("Listening session created")

	s.Ingest(signals.NewSignal(sessionID, signals.TypeSessionStarted, signals.ContextPayload{}))
	return s, nil
}

// Get returns a live session.
func (m *Manager) Get(sessionID string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Remove tears down a session.
func (m *Manager) Remove(sessionID string) error {
	m.mu.Lock()
	_, ok := m.sessions[sessionID]
	if !ok {
		m.mu.Unlock()
		return ErrSessionNotFound
	}
	delete(m.sessions, sessionID)
	count := len(m.sessions)
	m.mu.Unlock()

	if m.deps.Metrics != nil {
		m.deps.Metrics.ActiveSessions.WithLabelValues("active").Set(float64(count))
	}
	m.logger.WithField("session_id", sessionID).Info("Listening session removed")
	return nil
}

// Count reports the number of live sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Session binds one listening session's buffer, engine and executor. The
// buffer and emitter are single-threaded; the session mutex serializes all
// signal paths coming in from HTTP handlers.
type Session struct {
	ID string

	mu       sync.Mutex
	logger   logging.Logger
	cfg      config.Config
	deps     Deps
	emitter  *signals.Emitter
	buffer   *signals.Buffer
	engine   *brain.Engine
	executor *session.Executor
}

func newSession(sessionID string, cfg config.Config, deps Deps) *Session {
	s := &Session{
		ID:     sessionID,
		logger: deps.Logger,
		cfg:    cfg,
		deps:   deps,
	}

	s.emitter = signals.NewEmitter(deps.Logger)
	s.buffer = signals.NewBuffer(deps.Logger, sessionID, signals.Options{
		Capacity:        cfg.BufferCapacity,
		Cooldown:        cfg.TriggerCooldown,
		SkipStreakLimit: cfg.SkipStreakLimit,
		MixboardLimit:   cfg.MixboardLimit,
		VibeShiftWindow: cfg.VibeShiftWindow,
		VibeShiftModes:  cfg.VibeShiftModes,
	})
	var intent brain.IntentSource
	if deps.Intent != nil {
		intent = deps.Intent.ForSession(sessionID)
	}
	s.engine = brain.NewEngine(deps.Logger, deps.Provider, deps.Knowledge, deps.Collective, intent, brain.Options{
		CurationTimeout: cfg.CurationTimeout,
	})
	s.executor = session.NewExecutor(deps.Logger, session.Options{
		QueueLowWater:   cfg.QueueLowWater,
		MinutesPerTrack: cfg.MinutesPerTrack,
	})

	s.emitter.Subscribe(s.buffer.Record)
	s.emitter.Subscribe(s.executor.HandleSignal)

	s.buffer.OnBrainTrigger(func(trigger string, summary signals.Summary) {
		if deps.Metrics != nil {
			deps.Metrics.TriggersTotal.WithLabelValues(trigger).Inc()
		}
		deps.Events.TriggerFired(sessionID, trigger, len(summary.History))
		go s.runCuration(trigger, summary)
	})
	s.executor.OnSessionSwitch(func(from, to string) {
		if deps.Metrics != nil {
			deps.Metrics.TransitionsTotal.WithLabelValues(to).Inc()
		}
		deps.Events.SessionSwitched(sessionID, from, to)
	})

	return s
}

// runCuration executes one curation cycle off the signal path and loads the
// result into the executor. Engine single-flight drops overlapping cycles.
func (s *Session) runCuration(trigger string, summary signals.Summary) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.CurationTimeout)
	defer cancel()

	out := s.engine.Curate(ctx, summary)
	if out == nil {
		return
	}
	s.executor.LoadOutput(out)

	duration := time.Since(start)
	if s.deps.Metrics != nil {
		s.deps.Metrics.CurationsTotal.WithLabelValues(out.Source).Inc()
		s.deps.Metrics.CurationDuration.WithLabelValues(out.Source).Observe(duration.Seconds())
	}
	s.deps.Events.CurationCompleted(s.ID, out.Source, out.SessionName, len(out.MainQueue.Tracks))

	s.logger.WithFields(logging.Fields{
		"session_id":   s.ID,
		"trigger":      trigger,
		"source":       out.Source,
		"duration_ms":  duration.Milliseconds(),
		"queue_tracks": len(out.MainQueue.Tracks),
	}).Info("Curation cycle completed")
}

// Ingest routes one signal through the emitter into buffer and executor.
func (s *Session) Ingest(sig signals.Signal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deps.Metrics != nil && sig.Type.Valid() {
		s.deps.Metrics.SignalsTotal.WithLabelValues(string(sig.Type)).Inc()
	}
	s.emitter.Emit(sig)
}

// TriggerCuration fires the manual trigger.
func (s *Session) TriggerCuration() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buffer.TriggerManually()
}

// SignalPoolEmpty fires the pool-empty trigger.
func (s *Session) SignalPoolEmpty() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buffer.SignalPoolEmpty()
}

// NextTrack serves the next track decision. Queue depth is reported via
// Info; the host decides when to signal pool-empty.
func (s *Session) NextTrack() *session.ServedTrack {
	return s.executor.NextTrack()
}

// NextMix returns a matched DJ moment, or nil.
func (s *Session) NextMix() *brain.DJMoment {
	moment := s.executor.ShouldInsertMix()
	if moment != nil {
		if s.deps.Metrics != nil {
			s.deps.Metrics.MixesTotal.WithLabelValues("dj_moment").Inc()
		}
		s.deps.Events.MixInserted(s.ID, moment.SearchQuery)
	}
	return moment
}

// NextHotTrack rotates the hot belt.
func (s *Session) NextHotTrack() *brain.TrackEntry {
	return s.executor.NextHotTrack()
}

// NextDiscoveryTrack rotates the discovery belt.
func (s *Session) NextDiscoveryTrack() *brain.TrackEntry {
	return s.executor.NextDiscoveryTrack()
}

// Info returns the executor state snapshot.
func (s *Session) Info() session.Info {
	return s.executor.SessionInfo()
}

// Triggers returns the buffer's trigger counters.
func (s *Session) Triggers() []signals.Trigger {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buffer.Triggers()
}

// Learning returns the latest curation's learning block, or nil.
func (s *Session) Learning() *brain.LearningUpdate {
	return s.engine.Learning()
}

// DiscoveryQueries returns the latest curation's discovery queries.
func (s *Session) DiscoveryQueries() []string {
	return s.engine.DiscoveryQueries()
}

// Reset restores the executor to the start of the loaded output.
func (s *Session) Reset() {
	s.executor.Reset()
}
