package brain

// Validate repairs an output in place so the plan invariants always hold:
// non-empty main queue, exactly five shadows, non-empty belts. filler
// supplies locally generated tracks for any list that needs replacing. It is
// total: any input comes out satisfying the invariants. The return value
// reports whether a structural repair was applied.
func Validate(out *Output, filler []TrackEntry) bool {
	repaired := false

	// An empty filler would leave an empty main queue (and belts) empty.
	// The static seeds keep the repair total.
	if len(filler) == 0 {
		filler = staticSeedTracks
	}

	if out.SessionName == "" {
		out.SessionName = "Your VOYO Mix"
	}

	if len(out.MainQueue.Tracks) == 0 {
		out.MainQueue.Tracks = append([]TrackEntry(nil), filler...)
		repaired = true
	}

	if len(out.Shadows) != len(ShadowIDs) {
		out.Shadows = GenerateShadows(out.MainQueue.Tracks)
		repaired = true
	}

	if len(out.HotBelt.Tracks) == 0 {
		out.HotBelt.Tracks = beltSlice(out.MainQueue.Tracks, 0)
		repaired = true
	}
	if len(out.DiscoveryBelt.Tracks) == 0 {
		out.DiscoveryBelt.Tracks = beltSlice(out.MainQueue.Tracks, len(out.MainQueue.Tracks)/2)
		repaired = true
	}

	// Absent learning/discovery fields get defaults without counting as a
	// structural repair.
	if out.Learning.ConfirmedPatterns == nil {
		out.Learning.ConfirmedPatterns = []string{}
	}
	if out.Learning.RisingArtists == nil {
		out.Learning.RisingArtists = []string{}
	}
	if out.Learning.FallingArtists == nil {
		out.Learning.FallingArtists = []string{}
	}
	if out.DiscoveryQueries == nil {
		out.DiscoveryQueries = []string{}
	}

	for i := range out.MainQueue.Tracks {
		if out.MainQueue.Tracks[i].Kind == "" {
			out.MainQueue.Tracks[i].Kind = KindTrack
		}
	}

	compile(out)
	return repaired
}

// compile binds every free-text condition to its closed compiled form.
// Runs once per output; evaluation never re-parses strings.
func compile(out *Output) {
	for i := range out.Shadows {
		shadow := &out.Shadows[i]
		shadow.When = ShadowTriggerCondition(shadow.ID)
		switch shadow.BlendSpeed {
		case BlendInstant, BlendSmooth, BlendGradual:
		default:
			shadow.BlendSpeed = BlendSmooth
		}
	}
	for i := range out.TransitionRules {
		rule := &out.TransitionRules[i]
		rule.When = CompileCondition(rule.Condition)
		if rule.BlendTracks <= 0 {
			rule.BlendTracks = BlendTracksFor(BlendSmooth)
		}
	}
	for i := range out.DJMoments {
		out.DJMoments[i].When = CompileMixCondition(out.DJMoments[i].Condition)
	}
}

const beltLength = 5

// beltSlice takes up to beltLength tracks from the source, starting at
// offset and wrapping.
func beltSlice(source []TrackEntry, offset int) []TrackEntry {
	if len(source) == 0 {
		return nil
	}
	n := beltLength
	if n > len(source) {
		n = len(source)
	}
	belt := make([]TrackEntry, 0, n)
	for i := 0; i < n; i++ {
		belt = append(belt, source[(offset+i)%len(source)])
	}
	return belt
}
