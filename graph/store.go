package graph

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BaSui01/memgraph/confidence"
	"github.com/BaSui01/memgraph/observation"
	"github.com/BaSui01/memgraph/types"
)

// Store is the authoritative in-memory holder of entities and relations.
// All mutation primitives are synchronous and in-memory; operations that
// suspend (archival, persistence) live outside the store and coordinate
// through the lifecycle manager.
type Store struct {
	mu        sync.RWMutex
	entities  map[string]*Entity
	relations map[string]*Relation
	// outRels and inRels index relation IDs by their from/to endpoints.
	outRels map[string][]string
	inRels  map[string][]string
	// archived indexes names of entities moved out to the archive medium,
	// mapped to their entity type.
	archived map[string]string

	profiles observation.ProfileTable
	now      func() time.Time
	logger   *zap.Logger
}

// Config configures a Store.
type Config struct {
	// Now is the injected clock; defaults to time.Now.
	Now func() time.Time
	// Profiles overrides the source profile table; defaults to
	// observation.DefaultProfiles. Validated at construction.
	Profiles observation.ProfileTable
}

// NewStore creates an empty store. Source profiles are validated here so a
// bad half-life fails at startup, never during a write.
func NewStore(cfg Config, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Profiles == nil {
		cfg.Profiles = observation.DefaultProfiles()
	}
	if err := cfg.Profiles.Validate(); err != nil {
		return nil, err
	}
	return &Store{
		entities:  make(map[string]*Entity),
		relations: make(map[string]*Relation),
		outRels:   make(map[string][]string),
		inRels:    make(map[string][]string),
		archived:  make(map[string]string),
		profiles:  cfg.Profiles,
		now:       cfg.Now,
		logger:    logger.With(zap.String("component", "graph_store")),
	}, nil
}

// Profiles returns the validated source profile table in use.
func (s *Store) Profiles() observation.ProfileTable {
	return s.profiles
}

// UpsertObservation records a fact about entityName, creating the entity on
// first write. Observations are an append-only log per key:
//
//   - a new key appends a fresh observation at the source's base confidence;
//   - a re-observation of an existing key with an equal value reinforces:
//     the prior observation's LastSeen is bumped and a fresh observation is
//     appended carrying the reinforced confidence;
//   - a re-observation with a different value appends a brand-new observation,
//     never overwriting history.
func (s *Store) UpsertObservation(entityName, key string, value observation.Value, source observation.Source) (observation.Observation, error) {
	profile, err := s.profiles.Profile(source)
	if err != nil {
		return observation.Observation{}, err
	}
	_, entityType, err := ParseEntityName(entityName)
	if err != nil {
		return observation.Observation{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.archived[entityName]; ok {
		return observation.Observation{}, types.NewError(types.ErrEntityArchived,
			"entity is archived; restore it before writing").WithEntity(entityName)
	}

	now := s.now().UTC()
	entity, ok := s.entities[entityName]
	if !ok {
		entity = &Entity{Name: entityName, EntityType: entityType}
		s.entities[entityName] = entity
		s.logger.Debug("entity created",
			zap.String("name", entityName),
			zap.String("entity_type", entityType))
	}

	encoded := value.Encode()
	if prev := latestMatch(entity, key, encoded); prev != nil {
		reinforced := confidence.Reinforce(prev.Confidence)
		prev.LastSeen = now
		obs := observation.Observation{
			Timestamp:        now,
			Key:              key,
			Value:            encoded,
			Source:           source,
			Confidence:       reinforced,
			AnchorConfidence: reinforced,
			LastSeen:         now,
		}
		entity.Observations = append(entity.Observations, obs)
		s.logger.Debug("observation reinforced",
			zap.String("name", entityName),
			zap.String("key", key),
			zap.Float64("confidence", reinforced))
		return obs, nil
	}

	obs := observation.New(now, key, value, source, confidence.Initial(profile))
	entity.Observations = append(entity.Observations, obs)
	s.logger.Debug("observation appended",
		zap.String("name", entityName),
		zap.String("key", key),
		zap.String("source", string(source)),
		zap.Float64("confidence", obs.Confidence))
	return obs, nil
}

// latestMatch returns the most recent observation with the same key and an
// equal encoded value, or nil.
func latestMatch(e *Entity, key, value string) *observation.Observation {
	for i := len(e.Observations) - 1; i >= 0; i-- {
		o := &e.Observations[i]
		if o.Key == key && o.Value == value {
			return o
		}
	}
	return nil
}

// GetEntity returns a copy of the named active entity. An archived entity
// reports ENTITY_ARCHIVED; a name absent from both the store and the archive
// index reports ENTITY_NOT_FOUND.
func (s *Store) GetEntity(name string) (*Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if entity, ok := s.entities[name]; ok {
		return entity.Clone(), nil
	}
	if _, ok := s.archived[name]; ok {
		return nil, types.NewError(types.ErrEntityArchived, "entity is archived").WithEntity(name)
	}
	return nil, types.NewError(types.ErrEntityNotFound, "entity not found").WithEntity(name)
}

// HasEntity reports whether name is active in the store.
func (s *Store) HasEntity(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.entities[name]
	return ok
}

// AddRelation records a directed edge. Both endpoints must be active in the
// store. Re-adding an identical triple is a no-op returning the existing
// relation.
func (s *Store) AddRelation(from string, relType RelationType, to string) (Relation, error) {
	if !IsKnownRelationType(relType) {
		return Relation{}, types.Errorf(types.ErrDanglingRelation, "unknown relation type %q", relType)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entities[from]; !ok {
		return Relation{}, types.NewError(types.ErrDanglingRelation, "relation endpoint does not exist").WithEntity(from)
	}
	if _, ok := s.entities[to]; !ok {
		return Relation{}, types.NewError(types.ErrDanglingRelation, "relation endpoint does not exist").WithEntity(to)
	}

	for _, id := range s.outRels[from] {
		rel := s.relations[id]
		if rel != nil && rel.To == to && rel.Type == relType {
			return *rel, nil
		}
	}

	rel := &Relation{
		id:        uuid.NewString(),
		From:      from,
		Type:      relType,
		To:        to,
		CreatedAt: s.now().UTC(),
	}
	s.relations[rel.id] = rel
	s.outRels[from] = append(s.outRels[from], rel.id)
	s.inRels[to] = append(s.inRels[to], rel.id)

	s.logger.Debug("relation added",
		zap.String("from", from),
		zap.String("type", string(relType)),
		zap.String("to", to))
	return *rel, nil
}

// RemoveEntity permanently deletes an active entity and cascades deletion of
// every relation where it is an endpoint.
func (s *Store) RemoveEntity(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entities[name]; !ok {
		if _, archived := s.archived[name]; archived {
			return types.NewError(types.ErrEntityArchived, "entity is archived; delete it from the archive").WithEntity(name)
		}
		return types.NewError(types.ErrEntityNotFound, "entity not found").WithEntity(name)
	}

	s.removeEntityLocked(name)
	s.logger.Debug("entity removed", zap.String("name", name))
	return nil
}

// removeEntityLocked deletes name and all touching relations. Caller holds mu.
func (s *Store) removeEntityLocked(name string) {
	delete(s.entities, name)
	s.removeRelationsLocked(name)
}

// removeRelationsLocked deletes every relation where name is an endpoint.
// Caller holds mu.
func (s *Store) removeRelationsLocked(name string) {
	for _, id := range s.outRels[name] {
		if rel := s.relations[id]; rel != nil {
			s.inRels[rel.To] = removeID(s.inRels[rel.To], id)
			delete(s.relations, id)
		}
	}
	delete(s.outRels, name)

	for _, id := range s.inRels[name] {
		if rel := s.relations[id]; rel != nil {
			s.outRels[rel.From] = removeID(s.outRels[rel.From], id)
			delete(s.relations, id)
		}
	}
	delete(s.inRels, name)
}

func removeID(ids []string, id string) []string {
	out := ids[:0]
	for _, x := range ids {
		if x != id {
			out = append(out, x)
		}
	}
	return out
}

// ListEntities returns copies of active entities whose entity type starts
// with prefix (all entities for an empty prefix), sorted by name. The result
// is a snapshot: iterating it is restartable and unaffected by later
// mutation.
func (s *Store) ListEntities(prefix string) []*Entity {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Entity, 0, len(s.entities))
	for _, entity := range s.entities {
		if prefix != "" && !hasTypePrefix(entity.EntityType, prefix) {
			continue
		}
		out = append(out, entity.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func hasTypePrefix(entityType, prefix string) bool {
	if len(entityType) < len(prefix) {
		return false
	}
	return entityType[:len(prefix)] == prefix
}

// Relations returns a snapshot of all relations.
func (s *Store) Relations() []Relation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Relation, 0, len(s.relations))
	for _, rel := range s.relations {
		out = append(out, *rel)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].From != out[j].From {
			return out[i].From < out[j].From
		}
		if out[i].To != out[j].To {
			return out[i].To < out[j].To
		}
		return out[i].Type < out[j].Type
	})
	return out
}

// Neighbors returns the names of entities connected to name by a relation in
// either direction, deduplicated, active entities only.
func (s *Store) Neighbors(name string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]bool)
	var out []string
	add := func(n string) {
		if n == name || seen[n] {
			return
		}
		if _, active := s.entities[n]; !active {
			return
		}
		seen[n] = true
		out = append(out, n)
	}
	for _, id := range s.outRels[name] {
		if rel := s.relations[id]; rel != nil {
			add(rel.To)
		}
	}
	for _, id := range s.inRels[name] {
		if rel := s.relations[id]; rel != nil {
			add(rel.From)
		}
	}
	sort.Strings(out)
	return out
}

// EntityCount returns the number of active entities.
func (s *Store) EntityCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entities)
}

// RelationCount returns the number of relations.
func (s *Store) RelationCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.relations)
}

// CountByType returns active entity counts keyed by entity type.
func (s *Store) CountByType() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]int)
	for _, e := range s.entities {
		out[e.EntityType]++
	}
	return out
}

// ApplyDecay recomputes every observation's current confidence from its
// anchor using decayFn(anchor, daysSinceLastSeen, halfLifeDays). It returns
// the number of observations processed and the number whose value changed.
// Observation order is never disturbed.
func (s *Store) ApplyDecay(now time.Time, decayFn func(conf, days, halfLife float64) float64) (processed, decayed int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, entity := range s.entities {
		for i := range entity.Observations {
			o := &entity.Observations[i]
			profile, err := s.profiles.Profile(o.Source)
			if err != nil {
				// Unknown sources cannot enter through UpsertObservation;
				// tolerate snapshot-loaded strays by leaving them untouched.
				continue
			}
			processed++
			days := confidence.DaysBetween(o.LastSeen, now)
			next := decayFn(o.AnchorConfidence, days, profile.DecayHalfLifeDays)
			if next != o.Confidence {
				o.Confidence = next
				decayed++
			}
		}
	}
	return processed, decayed
}

// RemoveBelowConfidence permanently deletes every entity whose maximum
// observation confidence is below threshold, cascading relation removal.
// Deletion is entity-granular: an entity with at least one observation at or
// above threshold is kept in full.
func (s *Store) RemoveBelowConfidence(threshold float64) (removed []string, kept int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for name, entity := range s.entities {
		if entity.MaxConfidence() < threshold {
			removed = append(removed, name)
		} else {
			kept++
		}
	}
	sort.Strings(removed)
	for _, name := range removed {
		s.removeEntityLocked(name)
	}
	return removed, kept
}

// StaleBefore returns the names of active entities whose most recent
// LastSeen is strictly before cutoff.
func (s *Store) StaleBefore(cutoff time.Time) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []string
	for name, entity := range s.entities {
		if entity.LatestSeen().Before(cutoff) {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// MarkArchived logically removes an active entity from the store, recording
// it in the archive index. Relations touching it are left in place: the
// entity still exists in the archive, and relations only die with a purge.
func (s *Store) MarkArchived(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entity, ok := s.entities[name]
	if !ok {
		return types.NewError(types.ErrEntityNotFound, "entity not found").WithEntity(name)
	}
	s.archived[name] = entity.EntityType
	delete(s.entities, name)
	s.logger.Debug("entity archived", zap.String("name", name))
	return nil
}

// MarkArchivedIfUnchanged archives snapshot's entity only if it has not been
// written to since snapshot was taken. Archival suspends on medium I/O
// between taking the snapshot and committing the removal; an observation
// accepted in that window would be lost with the store copy, so a moved
// entity aborts the archive and stays active.
func (s *Store) MarkArchivedIfUnchanged(snapshot *Entity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entity, ok := s.entities[snapshot.Name]
	if !ok {
		return types.NewError(types.ErrEntityNotFound, "entity not found").WithEntity(snapshot.Name)
	}
	if len(entity.Observations) != len(snapshot.Observations) ||
		!entity.LatestSeen().Equal(snapshot.LatestSeen()) {
		return types.NewError(types.ErrArchiveInProgress,
			"entity changed while its archive record was being written").
			WithEntity(snapshot.Name).WithRetryable(true)
	}
	s.archived[snapshot.Name] = entity.EntityType
	delete(s.entities, snapshot.Name)
	s.logger.Debug("entity archived", zap.String("name", snapshot.Name))
	return nil
}

// Reinstate re-promotes an entity to active, clearing any archive-index
// entry. It fails if an active entity with the same name already exists.
func (s *Store) Reinstate(e *Entity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entities[e.Name]; ok {
		return types.NewError(types.ErrEntityExists, "an active entity with this name already exists").WithEntity(e.Name)
	}
	delete(s.archived, e.Name)
	s.entities[e.Name] = e.Clone()
	s.logger.Debug("entity reinstated", zap.String("name", e.Name))
	return nil
}

// ReplaceEntity unconditionally installs e as the active entity of its name,
// clearing any archive-index entry. Used by snapshot merges where the
// newer-lastSeen entity wins whole.
func (s *Store) ReplaceEntity(e *Entity) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.archived, e.Name)
	s.entities[e.Name] = e.Clone()
}

// IsArchived reports whether name is in the archive index.
func (s *Store) IsArchived(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.archived[name]
	return ok
}

// DropArchived removes name from the archive index without reinstating it.
// Used when an archived entity is explicitly deleted. The purge is permanent,
// so relations where the name is an endpoint are cascaded away with it.
func (s *Store) DropArchived(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.archived[name]; !ok {
		return types.NewError(types.ErrArchiveNotFound, "entity not in archive index").WithEntity(name)
	}
	delete(s.archived, name)
	s.removeRelationsLocked(name)
	return nil
}

// ArchivedNames returns the sorted archive index.
func (s *Store) ArchivedNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.archived))
	for name := range s.archived {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
