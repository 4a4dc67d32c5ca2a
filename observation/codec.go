package observation

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/BaSui01/memgraph/types"
)

// Line layout of an encoded observation:
//
//	[2026-01-02T15:04:05Z] mode: dark | source: explicit_setting | confidence: 1.00
//
// The source and confidence segments are located from the right so that
// values containing " | " still round-trip.
const (
	sourceSep     = " | source: "
	confidenceSep = " | confidence: "
)

// Format encodes o as a single line. Confidence is rendered with two decimal
// places; Parse recovers it exactly when the input carries at most two.
func Format(o Observation) string {
	return FormatParts(o.Timestamp, o.Key, o.Value, o.Source, o.Confidence)
}

// FormatParts encodes the given fields as an observation line. The value must
// already be in its encoded string form (see [Value.Encode]).
func FormatParts(ts time.Time, key, value string, source Source, confidence float64) string {
	return fmt.Sprintf("[%s] %s: %s%s%s%s%.2f",
		ts.UTC().Format(time.RFC3339), key, value, sourceSep, source, confidenceSep, confidence)
}

// Parse decodes a line produced by [Format]. It is the exact inverse: the
// timestamp, key, value, source, and confidence fields all round-trip.
func Parse(raw string) (Observation, error) {
	if !strings.HasPrefix(raw, "[") {
		return Observation{}, malformed("missing timestamp bracket", raw)
	}
	closing := strings.Index(raw, "] ")
	if closing < 0 {
		return Observation{}, malformed("missing timestamp bracket", raw)
	}

	ts, err := time.Parse(time.RFC3339, raw[1:closing])
	if err != nil {
		return Observation{}, malformed("invalid timestamp", raw).WithCause(err)
	}

	rest := raw[closing+2:]

	confIdx := strings.LastIndex(rest, confidenceSep)
	if confIdx < 0 {
		return Observation{}, malformed("missing confidence segment", raw)
	}
	conf, err := strconv.ParseFloat(rest[confIdx+len(confidenceSep):], 64)
	if err != nil {
		return Observation{}, malformed("confidence is not a number", raw).WithCause(err)
	}
	if conf < 0 || conf > 1 {
		return Observation{}, malformed(fmt.Sprintf("confidence %v outside [0,1]", conf), raw)
	}
	rest = rest[:confIdx]

	srcIdx := strings.LastIndex(rest, sourceSep)
	if srcIdx < 0 {
		return Observation{}, malformed("missing source segment", raw)
	}
	source := Source(rest[srcIdx+len(sourceSep):])
	if !IsKnownSource(source) {
		return Observation{}, malformed(fmt.Sprintf("unknown source %q", source), raw)
	}
	rest = rest[:srcIdx]

	colon := strings.Index(rest, ": ")
	if colon < 0 {
		return Observation{}, malformed("missing key separator", raw)
	}

	ts = ts.UTC()
	return Observation{
		Timestamp:        ts,
		Key:              rest[:colon],
		Value:            rest[colon+2:],
		Source:           source,
		Confidence:       conf,
		AnchorConfidence: conf,
		LastSeen:         ts,
	}, nil
}

func malformed(msg, raw string) *types.Error {
	return types.Errorf(types.ErrMalformedObservation, "%s in %q", msg, raw)
}
