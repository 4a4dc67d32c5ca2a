package observation

import "time"

// Observation is a single timestamped fact with a provenance-derived
// confidence.
//
// Confidence bookkeeping: Confidence is the current, post-decay belief score.
// AnchorConfidence is the score fixed at the LastSeen instant (initial or
// reinforced); decay sweeps always recompute Confidence from the anchor, so
// re-running a sweep at the same instant is a no-op.
type Observation struct {
	// Timestamp is the creation time, UTC. Immutable.
	Timestamp time.Time `json:"timestamp"`
	// Key identifies the fact category.
	Key string `json:"key"`
	// Value is the encoded value string (JSON if structured).
	Value string `json:"value"`
	// Source is the provenance of the fact.
	Source Source `json:"source"`
	// Confidence is the current belief score in [0,1].
	Confidence float64 `json:"confidence"`
	// AnchorConfidence is the belief score as of LastSeen.
	AnchorConfidence float64 `json:"anchorConfidence"`
	// LastSeen is updated whenever the fact is reinforced.
	LastSeen time.Time `json:"lastSeen"`
}

// New stamps a fresh observation at now with the given confidence.
func New(now time.Time, key string, value Value, source Source, conf float64) Observation {
	now = now.UTC()
	return Observation{
		Timestamp:        now,
		Key:              key,
		Value:            value.Encode(),
		Source:           source,
		Confidence:       conf,
		AnchorConfidence: conf,
		LastSeen:         now,
	}
}
