package brain

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"voyo/api_curator/internal/knowledge"
	"voyo/api_curator/internal/signals"
	"voyo/api_curator/internal/stores"
	"voyo/api_curator/pkg/llm"
	"voyo/api_curator/pkg/logging"
)

// KnowledgeSource supplies mood-classified tracks for context building and
// fallback curation.
type KnowledgeSource interface {
	LookupByMood(ctx context.Context, mood string, limit int) ([]knowledge.Track, error)
}

// CollectiveSource supplies shared listening data.
type CollectiveSource interface {
	TopTracks(ctx context.Context, limit int) ([]stores.CollectiveTrack, error)
	TopTracksByArtists(ctx context.Context, artists []string, limit int) ([]stores.CollectiveTrack, error)
}

// IntentSource supplies the session's normalized mixboard intent weights.
type IntentSource interface {
	Snapshot(ctx context.Context) (map[string]float64, error)
}

// Options tunes the engine.
type Options struct {
	FallbackTrackCount int
	CurationTimeout    time.Duration
	ContextTrackLimit  int
}

func (o Options) withDefaults() Options {
	if o.FallbackTrackCount <= 0 {
		o.FallbackTrackCount = 12
	}
	if o.CurationTimeout <= 0 {
		o.CurationTimeout = 45 * time.Second
	}
	if o.ContextTrackLimit <= 0 {
		o.ContextTrackLimit = 10
	}
	return o
}

// Engine is the single-flight curation orchestrator. One engine per
// listening session; Curate is safe to call from concurrent triggers but at
// most one external call is ever in flight.
type Engine struct {
	logger     logging.Logger
	provider   llm.Provider
	knowledge  KnowledgeSource
	collective CollectiveSource
	intents    IntentSource
	opts       Options

	processing atomic.Bool

	mu   sync.RWMutex
	last *Output
}

// NewEngine creates an engine. provider, knowledge, collective and intents
// may each be nil; a nil provider routes every curation to the fallback path.
func NewEngine(logger logging.Logger, provider llm.Provider, knowledgeSrc KnowledgeSource, collective CollectiveSource, intents IntentSource, opts Options) *Engine {
	return &Engine{
		logger:     logger,
		provider:   provider,
		knowledge:  knowledgeSrc,
		collective: collective,
		intents:    intents,
		opts:       opts.withDefaults(),
	}
}

// Curate produces a validated session plan for the summary. Concurrent calls
// while one is in flight return the last known-good output immediately.
func (e *Engine) Curate(ctx context.Context, summary signals.Summary) *Output {
	if !e.processing.CompareAndSwap(false, true) {
		e.logger.WithField("session_id", summary.SessionID).Info("Curation already in flight, returning last output")
		return e.LastOutput()
	}
	defer e.processing.Store(false)

	started := time.Now()
	out := e.curateOnce(ctx, summary)

	e.mu.Lock()
	e.last = out
	e.mu.Unlock()

	e.logger.WithFields(logging.Fields{
		"session_id":   summary.SessionID,
		"source":       out.Source,
		"session_name": out.SessionName,
		"queue_tracks": len(out.MainQueue.Tracks),
		"duration":     time.Since(started),
	}).Info("Curation completed")
	return out
}

func (e *Engine) curateOnce(ctx context.Context, summary signals.Summary) *Output {
	if e.provider == nil {
		e.logger.WithField("session_id", summary.SessionID).Info("No model configured, using fallback curation")
		return e.fallbackCuration(ctx, summary)
	}

	callCtx, cancel := context.WithTimeout(ctx, e.opts.CurationTimeout)
	defer cancel()

	prompt := buildContext(
		summary,
		e.intentSnapshot(callCtx, summary),
		e.collectiveSnapshot(callCtx),
		e.knowledgeSnapshot(callCtx, summary),
	)

	raw, err := e.provider.Complete(callCtx, []llm.Message{
		llm.SystemMessage(systemPrompt),
		llm.UserMessage(prompt),
	})
	if err != nil {
		e.logger.WithError(err).Warn("Model call failed, using fallback curation")
		return e.fallbackCuration(ctx, summary)
	}

	body, err := ExtractJSON(raw)
	if err != nil {
		e.logger.WithError(err).Warn("Model response had no JSON, using fallback curation")
		return e.fallbackCuration(ctx, summary)
	}

	var out Output
	if err := json.Unmarshal([]byte(body), &out); err != nil {
		e.logger.WithError(err).Warn("Model JSON did not parse, using fallback curation")
		return e.fallbackCuration(ctx, summary)
	}

	filler := e.fallbackTracks(ctx, summary, e.opts.FallbackTrackCount)
	if Validate(&out, filler) {
		e.logger.WithField("session_id", summary.SessionID).Info("Model output repaired")
		out.Source = SourceRepaired
	} else {
		out.Source = SourceModel
	}
	return &out
}

func (e *Engine) intentSnapshot(ctx context.Context, summary signals.Summary) map[string]float64 {
	if e.intents == nil {
		return nil
	}
	weights, err := e.intents.Snapshot(ctx)
	if err != nil {
		e.logger.WithError(err).WithField("session_id", summary.SessionID).Warn("Intent snapshot failed")
		return nil
	}
	return weights
}

func (e *Engine) collectiveSnapshot(ctx context.Context) []stores.CollectiveTrack {
	if e.collective == nil {
		return nil
	}
	tracks, err := e.collective.TopTracks(ctx, e.opts.ContextTrackLimit)
	if err != nil {
		e.logger.WithError(err).Warn("Collective snapshot failed")
		return nil
	}
	return tracks
}

func (e *Engine) knowledgeSnapshot(ctx context.Context, summary signals.Summary) []knowledge.Track {
	if e.knowledge == nil {
		return nil
	}
	tracks, err := e.knowledge.LookupByMood(ctx, moodForSummary(summary), e.opts.ContextTrackLimit)
	if err != nil {
		e.logger.WithError(err).Warn("Knowledge snapshot failed")
		return nil
	}
	return tracks
}

// LastOutput returns the most recent validated output, or nil before the
// first curation.
func (e *Engine) LastOutput() *Output {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.last
}

// HotBelt returns the current hot belt tracks.
func (e *Engine) HotBelt() []TrackEntry {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.last == nil {
		return nil
	}
	return e.last.HotBelt.Tracks
}

// DiscoveryBelt returns the current discovery belt tracks.
func (e *Engine) DiscoveryBelt() []TrackEntry {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.last == nil {
		return nil
	}
	return e.last.DiscoveryBelt.Tracks
}

// Learning returns the latest learning update, or nil before the first
// curation.
func (e *Engine) Learning() *LearningUpdate {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.last == nil {
		return nil
	}
	learning := e.last.Learning
	return &learning
}

// DiscoveryQueries returns the latest discovery search queries.
func (e *Engine) DiscoveryQueries() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.last == nil {
		return nil
	}
	return e.last.DiscoveryQueries
}
