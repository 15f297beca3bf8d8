package brain

// Track entry kinds within a queue.
const (
	KindTrack = "track"
	KindMix   = "mix"
)

// How an output was produced.
const (
	SourceModel    = "model"
	SourceRepaired = "repaired"
	SourceFallback = "fallback"
)

// Blend speeds a shadow session may request.
const (
	BlendInstant = "instant"
	BlendSmooth  = "smooth"
	BlendGradual = "gradual"
)

// BlendTracksFor maps a blend speed to the number of tracks the handoff
// spans. Unknown speeds get the smooth default.
func BlendTracksFor(speed string) int {
	switch speed {
	case BlendInstant:
		return 1
	case BlendSmooth:
		return 3
	case BlendGradual:
		return 5
	default:
		return 3
	}
}

// ShadowIDs are the five fixed shadow-session identifiers. Every validated
// output carries exactly one shadow per id.
var ShadowIDs = []string{"chill_shift", "energy_boost", "deep_afro", "late_night", "discovery"}

// TrackEntry is one playable item in a queue or belt.
type TrackEntry struct {
	Kind   string `json:"type"`
	ID     string `json:"id"`
	Title  string `json:"title"`
	Artist string `json:"artist"`
	Intro  string `json:"intro,omitempty"`
	Outro  string `json:"outro,omitempty"`
}

// MainQueue is the primary ordered session queue.
type MainQueue struct {
	Tracks []TrackEntry `json:"tracks"`
}

// ShadowSession is an alternate pre-built queue for a different vibe, ready
// to blend into when listening behavior matches its trigger.
type ShadowSession struct {
	ID         string   `json:"id"`
	Vibe       string   `json:"vibe"`
	Tracks     []string `json:"tracks"`
	Trigger    string   `json:"trigger"`
	BlendSpeed string   `json:"blendSpeed"`

	// When is the compiled trigger, bound to the shadow id during
	// validation. The free-text Trigger field is descriptive only.
	When Condition `json:"-"`
}

// Belt is a short rotating auxiliary track list.
type Belt struct {
	Tracks []TrackEntry `json:"tracks"`
}

// TransitionRule moves the session from one queue to another when its
// condition matches the live pattern counters.
type TransitionRule struct {
	From        string `json:"from"`
	To          string `json:"to"`
	Condition   string `json:"condition"`
	BlendTracks int    `json:"blendTracks"`

	When Condition `json:"-"`
}

// DJMoment is a scripted opening for inserting a long-form mix.
type DJMoment struct {
	Condition   string `json:"condition"`
	SearchQuery string `json:"searchQuery"`
	Intro       string `json:"intro,omitempty"`
	Outro       string `json:"outro,omitempty"`

	When MixCondition `json:"-"`
}

// LearningUpdate carries the model's pattern observations back to the host.
type LearningUpdate struct {
	ConfirmedPatterns []string `json:"confirmedPatterns"`
	RisingArtists     []string `json:"risingArtists"`
	FallingArtists    []string `json:"fallingArtists"`
}

// Output is a complete curated session plan. After validation it always
// satisfies: non-empty main queue, exactly five shadows, non-empty belts.
type Output struct {
	SessionName      string           `json:"sessionName"`
	MainQueue        MainQueue        `json:"mainQueue"`
	Shadows          []ShadowSession  `json:"shadowSessions"`
	HotBelt          Belt             `json:"hotBelt"`
	DiscoveryBelt    Belt             `json:"discoveryBelt"`
	TransitionRules  []TransitionRule `json:"transitionRules"`
	DJMoments        []DJMoment       `json:"djMoments"`
	Learning         LearningUpdate   `json:"learning"`
	DiscoveryQueries []string         `json:"discoveryQueries"`

	Source string `json:"-"`
}
