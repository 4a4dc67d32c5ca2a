// Package graph implements the in-memory knowledge-graph store: entities
// holding append-only observation logs, directed typed relations between
// them, and the mutation primitives the lifecycle manager and search engine
// build on.
//
// The store is the single source of truth during normal operation. The
// archive medium only ever holds entities the lifecycle manager has
// explicitly moved out; the store tracks those by name in its archive index
// so lookups can distinguish "archived" from "never existed".
package graph
