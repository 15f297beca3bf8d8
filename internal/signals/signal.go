package signals

import (
	"time"

	"github.com/google/uuid"
)

// Type identifies a signal variant. The set is closed; payloads are tagged
// per category (see Payload).
type Type string

// Playback signals
const (
	TypeTrackStarted   Type = "track_started"
	TypeTrackCompleted Type = "track_completed"
	TypeTrackSkipped   Type = "track_skipped"
	TypeTrackReplayed  Type = "track_replayed"
	TypeTrackSeeked    Type = "track_seeked"
	TypeTrackPaused    Type = "track_paused"
	TypeTrackResumed   Type = "track_resumed"
)

// Reaction signals
const (
	TypeOye          Type = "oye"
	TypeLoved        Type = "loved"
	TypeUnloved      Type = "unloved"
	TypeShared       Type = "shared"
	TypeAddedToList  Type = "added_to_playlist"
	TypeVideoWatched Type = "video_watched"
)

// Mixboard intent signals
const (
	TypeModeTapped    Type = "mode_tapped"
	TypeModeHeld      Type = "mode_held"
	TypeModeReleased  Type = "mode_released"
	TypeMixboardOpen  Type = "mixboard_opened"
	TypeMixboardClose Type = "mixboard_closed"
)

// Queue signals
const (
	TypeQueueAppended  Type = "queue_appended"
	TypeQueueCleared   Type = "queue_cleared"
	TypeQueueReordered Type = "queue_reordered"
	TypeTrackRemoved   Type = "track_removed"
	TypePoolEmpty      Type = "pool_empty"
)

// Discovery signals
const (
	TypeSearchPerformed   Type = "search_performed"
	TypeRecommendationHit Type = "recommendation_seen"
	TypeArtistOpened      Type = "artist_opened"
	TypePlaylistOpened    Type = "playlist_opened"
)

// Context signals
const (
	TypeAppForegrounded Type = "app_foregrounded"
	TypeAppBackgrounded Type = "app_backgrounded"
	TypeSessionStarted  Type = "session_started"
	TypeSessionEnded    Type = "session_ended"
)

// Engagement pattern signals
const (
	TypeBingeDetected Type = "binge_detected"
	TypeIdleDetected  Type = "idle_detected"
)

// Payload is the variant-specific data carried by a signal. Exactly one
// concrete payload type exists per signal category.
type Payload interface {
	payloadKind() string
}

// PlaybackPayload accompanies playback signals.
type PlaybackPayload struct {
	TrackID        string  `json:"track_id"`
	Title          string  `json:"title,omitempty"`
	Artist         string  `json:"artist,omitempty"`
	CompletionRate float64 `json:"completion_rate"` // 0..100
	Position       float64 `json:"position,omitempty"`
}

// ReactionPayload accompanies reaction signals.
type ReactionPayload struct {
	TrackID string `json:"track_id"`
	Title   string `json:"title,omitempty"`
	Artist  string `json:"artist,omitempty"`
}

// MixboardPayload accompanies mixboard intent signals.
type MixboardPayload struct {
	ModeID string  `json:"mode_id"`
	Weight float64 `json:"weight,omitempty"`
}

// QueuePayload accompanies queue signals.
type QueuePayload struct {
	TrackID   string `json:"track_id,omitempty"`
	Remaining int    `json:"remaining"`
}

// DiscoveryPayload accompanies discovery signals.
type DiscoveryPayload struct {
	Query    string `json:"query,omitempty"`
	TrackID  string `json:"track_id,omitempty"`
	Title    string `json:"title,omitempty"`
	Artist   string `json:"artist,omitempty"`
	SourceID string `json:"source_id,omitempty"`
}

// ContextPayload accompanies context signals.
type ContextPayload struct {
	Detail string `json:"detail,omitempty"`
}

// PatternPayload accompanies engagement pattern signals.
type PatternPayload struct {
	Count int `json:"count,omitempty"`
}

func (PlaybackPayload) payloadKind() string  { return "playback" }
func (ReactionPayload) payloadKind() string  { return "reaction" }
func (MixboardPayload) payloadKind() string  { return "mixboard" }
func (QueuePayload) payloadKind() string     { return "queue" }
func (DiscoveryPayload) payloadKind() string { return "discovery" }
func (ContextPayload) payloadKind() string   { return "context" }
func (PatternPayload) payloadKind() string   { return "pattern" }

// Signal is a single immutable timestamped event. Signals are created by the
// emitter at the moment of occurrence and never mutated afterwards; the
// buffer tracks processing separately.
type Signal struct {
	ID        string
	Type      Type
	Timestamp time.Time
	SessionID string
	Payload   Payload
}

// NewSignal builds a signal stamped with the current time.
func NewSignal(sessionID string, t Type, payload Payload) Signal {
	return Signal{
		ID:        uuid.New().String(),
		Type:      t,
		Timestamp: time.Now(),
		SessionID: sessionID,
		Payload:   payload,
	}
}

// Category returns the payload category for a signal type. Used by the API
// layer to decode tagged payloads.
func (t Type) Category() string {
	switch t {
	case TypeTrackStarted, TypeTrackCompleted, TypeTrackSkipped, TypeTrackReplayed,
		TypeTrackSeeked, TypeTrackPaused, TypeTrackResumed:
		return "playback"
	case TypeOye, TypeLoved, TypeUnloved, TypeShared, TypeAddedToList, TypeVideoWatched:
		return "reaction"
	case TypeModeTapped, TypeModeHeld, TypeModeReleased, TypeMixboardOpen, TypeMixboardClose:
		return "mixboard"
	case TypeQueueAppended, TypeQueueCleared, TypeQueueReordered, TypeTrackRemoved, TypePoolEmpty:
		return "queue"
	case TypeSearchPerformed, TypeRecommendationHit, TypeArtistOpened, TypePlaylistOpened:
		return "discovery"
	case TypeAppForegrounded, TypeAppBackgrounded, TypeSessionStarted, TypeSessionEnded:
		return "context"
	case TypeBingeDetected, TypeIdleDetected:
		return "pattern"
	default:
		return ""
	}
}

// Valid reports whether the type belongs to the closed signal set.
func (t Type) Valid() bool {
	return t.Category() != ""
}
