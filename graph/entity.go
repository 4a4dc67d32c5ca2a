package graph

import (
	"strings"
	"time"

	"github.com/BaSui01/memgraph/observation"
	"github.com/BaSui01/memgraph/types"
)

// Compartment is the top-level namespace prefix partitioning the entity name
// space.
type Compartment string

const (
	CompartmentUser         Compartment = "user"
	CompartmentConversation Compartment = "conversation"
	CompartmentWorkspace    Compartment = "workspace"
	// CompartmentMemory is reserved for system metadata.
	CompartmentMemory Compartment = "memory"
)

var knownCompartments = map[Compartment]bool{
	CompartmentUser:         true,
	CompartmentConversation: true,
	CompartmentWorkspace:    true,
	CompartmentMemory:       true,
}

// Entity is a named, typed bundle of observations about one subject.
// Name is immutable once created and EntityType is derived from it.
type Entity struct {
	// Name is globally unique, namespaced as {compartment}:{subtype}:{identifier}.
	Name string `json:"name"`
	// EntityType equals {compartment}:{subtype}.
	EntityType string `json:"entityType"`
	// Observations preserve insertion order and are never reordered.
	Observations []observation.Observation `json:"observations"`
}

// Clone returns a deep copy.
func (e *Entity) Clone() *Entity {
	obs := make([]observation.Observation, len(e.Observations))
	copy(obs, e.Observations)
	return &Entity{Name: e.Name, EntityType: e.EntityType, Observations: obs}
}

// MaxConfidence returns the highest current confidence across observations,
// or zero for an entity without observations.
func (e *Entity) MaxConfidence() float64 {
	max := 0.0
	for _, o := range e.Observations {
		if o.Confidence > max {
			max = o.Confidence
		}
	}
	return max
}

// LatestSeen returns the most recent LastSeen across observations.
func (e *Entity) LatestSeen() time.Time {
	var latest time.Time
	for _, o := range e.Observations {
		if o.LastSeen.After(latest) {
			latest = o.LastSeen
		}
	}
	return latest
}

// ParseEntityName splits and validates a {compartment}:{subtype}:{identifier}
// name, returning the derived entity type.
func ParseEntityName(name string) (compartment Compartment, entityType string, err error) {
	parts := strings.SplitN(name, ":", 3)
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return "", "", types.Errorf(types.ErrMalformedObservation,
			"entity name %q is not {compartment}:{subtype}:{identifier}", name)
	}
	compartment = Compartment(parts[0])
	if !knownCompartments[compartment] {
		return "", "", types.Errorf(types.ErrMalformedObservation,
			"entity name %q: unknown compartment %q", name, parts[0])
	}
	return compartment, parts[0] + ":" + parts[1], nil
}

// RelationType is a directed, typed edge label drawn from a fixed vocabulary.
type RelationType string

const (
	RelationHasPreference   RelationType = "has_preference"
	RelationExhibitsPattern RelationType = "exhibits_pattern"
	RelationHasExpertiseIn  RelationType = "has_expertise_in"
	RelationBelongsTo       RelationType = "belongs_to"
	RelationSummarizedIn    RelationType = "summarized_in"
	RelationContinuesFrom   RelationType = "continues_from"
	RelationFollowsPattern  RelationType = "follows_pattern"
	RelationRelatedTo       RelationType = "related_to"
)

var knownRelationTypes = map[RelationType]bool{
	RelationHasPreference:   true,
	RelationExhibitsPattern: true,
	RelationHasExpertiseIn:  true,
	RelationBelongsTo:       true,
	RelationSummarizedIn:    true,
	RelationContinuesFrom:   true,
	RelationFollowsPattern:  true,
	RelationRelatedTo:       true,
}

// IsKnownRelationType reports whether rt is part of the fixed vocabulary.
func IsKnownRelationType(rt RelationType) bool {
	return knownRelationTypes[rt]
}

// Relation is a directed, typed, unweighted edge between two entities.
// Relations never outlive their endpoints: purging an entity removes every
// relation touching it.
type Relation struct {
	id        string
	From      string       `json:"from"`
	Type      RelationType `json:"type"`
	To        string       `json:"to"`
	CreatedAt time.Time    `json:"createdAt"`
}
