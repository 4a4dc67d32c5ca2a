// Package persist implements the sync manager: serialization of the
// knowledge graph to an external persistent medium for backup and archival.
//
// The medium is never the source of truth during normal operation and is
// never read by a live search; it holds explicit snapshots and the archived
// subset of entities. Four media ship with the package: in-memory (tests and
// the default archive target), flat-file JSON, MongoDB, and redis.
package persist
