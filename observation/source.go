package observation

import (
	"sort"

	"github.com/BaSui01/memgraph/types"
)

// Source identifies the provenance of an observation. Provenance determines
// both the initial confidence of a fact and how quickly it decays.
type Source string

const (
	SourceExplicitSetting   Source = "explicit_setting"
	SourceUserCorrection    Source = "user_correction"
	SourceDirectStatement   Source = "direct_statement"
	SourceStrongInference   Source = "strong_inference"
	SourceRepeatedBehavior  Source = "repeated_behavior"
	SourceWeakInference     Source = "weak_inference"
	SourceSingleObservation Source = "single_observation"
	SourceDefault           Source = "default"
)

// SourceProfile fixes the confidence behavior of a provenance class.
type SourceProfile struct {
	// BaseConfidence is the confidence stamped on a fresh observation, in [0,1].
	BaseConfidence float64 `yaml:"base_confidence" json:"baseConfidence"`
	// DecayHalfLifeDays is the number of days for the confidence to halve.
	DecayHalfLifeDays float64 `yaml:"decay_half_life_days" json:"decayHalfLifeDays"`
}

// ProfileTable maps every known source to its profile.
type ProfileTable map[Source]SourceProfile

// DefaultProfiles returns the built-in source table. The returned map is a
// fresh copy; callers may overlay entries before validation.
func DefaultProfiles() ProfileTable {
	return ProfileTable{
		SourceExplicitSetting:   {BaseConfidence: 1.0, DecayHalfLifeDays: 365},
		SourceUserCorrection:    {BaseConfidence: 0.98, DecayHalfLifeDays: 180},
		SourceDirectStatement:   {BaseConfidence: 0.9, DecayHalfLifeDays: 90},
		SourceStrongInference:   {BaseConfidence: 0.7, DecayHalfLifeDays: 60},
		SourceRepeatedBehavior:  {BaseConfidence: 0.6, DecayHalfLifeDays: 45},
		SourceWeakInference:     {BaseConfidence: 0.4, DecayHalfLifeDays: 21},
		SourceSingleObservation: {BaseConfidence: 0.3, DecayHalfLifeDays: 14},
		SourceDefault:           {BaseConfidence: 0.5, DecayHalfLifeDays: 30},
	}
}

// Validate checks every profile in the table. A non-positive half-life or a
// base confidence outside [0,1] is a configuration error; it is rejected here
// at startup, never at runtime per call.
func (t ProfileTable) Validate() error {
	names := make([]string, 0, len(t))
	for s := range t {
		names = append(names, string(s))
	}
	sort.Strings(names)

	for _, name := range names {
		p := t[Source(name)]
		if p.DecayHalfLifeDays <= 0 {
			return types.Errorf(types.ErrInvalidSourceConfig,
				"source %q: decay half-life must be positive, got %v", name, p.DecayHalfLifeDays)
		}
		if p.BaseConfidence < 0 || p.BaseConfidence > 1 {
			return types.Errorf(types.ErrInvalidSourceConfig,
				"source %q: base confidence must be in [0,1], got %v", name, p.BaseConfidence)
		}
	}
	for _, s := range knownSources {
		if _, ok := t[s]; !ok {
			return types.Errorf(types.ErrInvalidSourceConfig, "source %q missing from profile table", s)
		}
	}
	return nil
}

// Profile returns the profile for s.
func (t ProfileTable) Profile(s Source) (SourceProfile, error) {
	p, ok := t[s]
	if !ok {
		return SourceProfile{}, types.Errorf(types.ErrInvalidSourceConfig, "unknown source %q", s)
	}
	return p, nil
}

var knownSources = []Source{
	SourceExplicitSetting,
	SourceUserCorrection,
	SourceDirectStatement,
	SourceStrongInference,
	SourceRepeatedBehavior,
	SourceWeakInference,
	SourceSingleObservation,
	SourceDefault,
}

// KnownSources returns the fixed source enumeration in declaration order.
func KnownSources() []Source {
	out := make([]Source, len(knownSources))
	copy(out, knownSources)
	return out
}

// IsKnownSource reports whether s is part of the fixed enumeration.
func IsKnownSource(s Source) bool {
	for _, k := range knownSources {
		if k == s {
			return true
		}
	}
	return false
}
