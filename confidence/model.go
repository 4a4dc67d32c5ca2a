// Package confidence implements the numeric belief model: initial confidence
// from provenance, time-based exponential decay, and reinforcement on
// re-observation.
package confidence

import (
	"math"
	"time"

	"github.com/BaSui01/memgraph/observation"
)

// reinforcementFactor is the fraction of the remaining headroom gained on
// each re-observation of a fact.
const reinforcementFactor = 0.2

// Initial returns the confidence stamped on a fresh observation from the
// given source profile.
func Initial(p observation.SourceProfile) float64 {
	return clamp(p.BaseConfidence)
}

// Decay returns conf halved once per halfLifeDays of elapsed time:
//
//	conf * 0.5^(daysSinceLastSeen / halfLifeDays)
//
// It is monotonically non-increasing in daysSinceLastSeen, returns conf
// unchanged at zero days, and approaches but never reaches zero. Half-life
// validity is enforced at startup by profile validation, not here.
func Decay(conf, daysSinceLastSeen, halfLifeDays float64) float64 {
	if daysSinceLastSeen <= 0 || halfLifeDays <= 0 {
		return clamp(conf)
	}
	return clamp(conf) * math.Pow(0.5, daysSinceLastSeen/halfLifeDays)
}

// Reinforce moves conf a fixed fraction of the way toward certainty:
//
//	min(1.0, conf + (1.0 - conf) * 0.2)
//
// Strictly increasing below 1.0, with a fixed point at 1.0.
func Reinforce(conf float64) float64 {
	conf = clamp(conf)
	return math.Min(1.0, conf+(1.0-conf)*reinforcementFactor)
}

// DaysBetween returns the elapsed time from earlier to later in fractional
// days. Negative spans (clock skew) count as zero.
func DaysBetween(earlier, later time.Time) float64 {
	d := later.Sub(earlier)
	if d <= 0 {
		return 0
	}
	return d.Hours() / 24
}

func clamp(c float64) float64 {
	return math.Min(math.Max(c, 0), 1)
}
