// Package search implements read-only querying of the knowledge graph:
// substring search, type/time/confidence filters, and bounded-depth relation
// traversal. Search only ever sees the live store; archived entities stay
// invisible until explicitly restored.
package search

import (
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/memgraph/graph"
)

// Options narrows a Search call.
type Options struct {
	// EntityType filters by entity-type prefix.
	EntityType string
	// MinConfidence drops entities whose best matching confidence is lower.
	MinConfidence float64
	// Limit truncates the result; zero means unbounded.
	Limit int
}

// Match pairs an entity with the best single-observation confidence that
// produced it.
type Match struct {
	Entity     *graph.Entity
	Confidence float64
}

// Engine queries the store. It never mutates it.
type Engine struct {
	store  *graph.Store
	logger *zap.Logger
}

// NewEngine creates a search engine over store.
func NewEngine(store *graph.Store, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		store:  store,
		logger: logger.With(zap.String("component", "search_engine")),
	}
}

// Search performs a case-insensitive substring match of query against entity
// names and each observation's key and value. Results are ordered by best
// single-observation confidence descending, ties broken by name ascending,
// and truncated to opts.Limit. Ordering is deterministic for a fixed store
// snapshot.
func (e *Engine) Search(query string, opts Options) []Match {
	needle := strings.ToLower(query)

	var matches []Match
	for _, entity := range e.store.ListEntities(opts.EntityType) {
		best, ok := bestMatch(entity, needle)
		if !ok || best < opts.MinConfidence {
			continue
		}
		matches = append(matches, Match{Entity: entity, Confidence: best})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Confidence != matches[j].Confidence {
			return matches[i].Confidence > matches[j].Confidence
		}
		return matches[i].Entity.Name < matches[j].Entity.Name
	})

	if opts.Limit > 0 && len(matches) > opts.Limit {
		matches = matches[:opts.Limit]
	}
	return matches
}

// bestMatch returns the highest confidence among observations matching
// needle and whether the entity matched at all. A name match counts every
// observation as matching.
func bestMatch(entity *graph.Entity, needle string) (float64, bool) {
	nameHit := needle == "" || strings.Contains(strings.ToLower(entity.Name), needle)

	best, matched := 0.0, false
	for _, o := range entity.Observations {
		hit := nameHit ||
			strings.Contains(strings.ToLower(o.Key), needle) ||
			strings.Contains(strings.ToLower(o.Value), needle)
		if !hit {
			continue
		}
		matched = true
		if o.Confidence > best {
			best = o.Confidence
		}
	}
	if !matched && nameHit && len(entity.Observations) == 0 {
		return 0, true
	}
	return best, matched
}

// SearchByType returns entities whose entity type starts with entityType,
// optionally narrowed by a text query.
func (e *Engine) SearchByType(entityType, query string) []Match {
	return e.Search(query, Options{EntityType: entityType})
}

// SearchByTimeRange returns entities with at least one observation whose
// creation timestamp falls within [start, end], inclusive on both ends.
func (e *Engine) SearchByTimeRange(start, end time.Time) []*graph.Entity {
	var out []*graph.Entity
	for _, entity := range e.store.ListEntities("") {
		for _, o := range entity.Observations {
			if !o.Timestamp.Before(start) && !o.Timestamp.After(end) {
				out = append(out, entity)
				break
			}
		}
	}
	return out
}

// SearchByConfidence returns entities with at least one observation whose
// current post-decay confidence is within [min, max].
func (e *Engine) SearchByConfidence(min, max float64) []*graph.Entity {
	var out []*graph.Entity
	for _, entity := range e.store.ListEntities("") {
		for _, o := range entity.Observations {
			if o.Confidence >= min && o.Confidence <= max {
				out = append(out, entity)
				break
			}
		}
	}
	return out
}

// GetRelated walks relations breadth-first from name, treating outgoing and
// incoming edges alike, up to depth hops. The origin is excluded and every
// reachable entity appears exactly once, in deterministic discovery order
// (hop distance first).
func (e *Engine) GetRelated(name string, depth int) ([]*graph.Entity, error) {
	if _, err := e.store.GetEntity(name); err != nil {
		return nil, err
	}
	if depth < 1 {
		return nil, nil
	}

	visited := map[string]bool{name: true}
	frontier := []string{name}
	var found []string

	for hop := 0; hop < depth && len(frontier) > 0; hop++ {
		var next []string
		for _, current := range frontier {
			for _, neighbor := range e.store.Neighbors(current) {
				if visited[neighbor] {
					continue
				}
				visited[neighbor] = true
				found = append(found, neighbor)
				next = append(next, neighbor)
			}
		}
		frontier = next
	}

	out := make([]*graph.Entity, 0, len(found))
	for _, n := range found {
		if entity, err := e.store.GetEntity(n); err == nil {
			out = append(out, entity)
		}
	}
	return out, nil
}
