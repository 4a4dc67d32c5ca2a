// Package observation defines the Observation type, the fixed provenance
// source enumeration with its confidence profiles, and the lossless line
// codec used to render and recover observations.
//
// The codec is a pair of pure functions, [Format] and [Parse], that are exact
// inverses over the key, value, source, and confidence fields.
package observation
