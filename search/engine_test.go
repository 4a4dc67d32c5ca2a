package search

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BaSui01/memgraph/graph"
	"github.com/BaSui01/memgraph/observation"
	"github.com/BaSui01/memgraph/types"
)

func newTestGraph(t *testing.T, now *time.Time) (*graph.Store, *Engine) {
	t.Helper()
	store, err := graph.NewStore(graph.Config{Now: func() time.Time { return *now }}, zap.NewNop())
	require.NoError(t, err)
	return store, NewEngine(store, zap.NewNop())
}

func upsert(t *testing.T, store *graph.Store, name, key, value string, src observation.Source) {
	t.Helper()
	_, err := store.UpsertObservation(name, key, observation.String(value), src)
	require.NoError(t, err)
}

func TestSearch_SubstringAndTypeFilter(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	store, engine := newTestGraph(t, &now)

	upsert(t, store, "user:preference:theme", "mode", "dark", observation.SourceExplicitSetting)
	upsert(t, store, "workspace:file:src/index", "language", "typescript", observation.SourceStrongInference)

	matches := engine.Search("dark", Options{EntityType: "user:preference"})
	require.Len(t, matches, 1)
	require.Equal(t, "user:preference:theme", matches[0].Entity.Name)

	require.Empty(t, engine.Search("dark", Options{EntityType: "workspace:file"}))

	// Case-insensitive, matches names as well as values.
	require.Len(t, engine.Search("DARK", Options{}), 1)
	require.Len(t, engine.Search("src/INDEX", Options{}), 1)
}

func TestSearch_OrderingAndLimit(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	store, engine := newTestGraph(t, &now)

	upsert(t, store, "user:pattern:weak", "surf", "waves", observation.SourceSingleObservation)  // 0.3
	upsert(t, store, "user:preference:surfing", "surf", "often", observation.SourceExplicitSetting) // 1.0
	upsert(t, store, "user:profile:surfer", "surf", "yes", observation.SourceExplicitSetting)       // 1.0

	matches := engine.Search("surf", Options{})
	require.Len(t, matches, 3)
	// Best confidence first; ties broken by name ascending.
	require.Equal(t, "user:preference:surfing", matches[0].Entity.Name)
	require.Equal(t, "user:profile:surfer", matches[1].Entity.Name)
	require.Equal(t, "user:pattern:weak", matches[2].Entity.Name)

	require.Len(t, engine.Search("surf", Options{Limit: 2}), 2)
	require.Len(t, engine.Search("surf", Options{MinConfidence: 0.5}), 2)
}

func TestSearchByType(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	store, engine := newTestGraph(t, &now)

	upsert(t, store, "user:preference:theme", "mode", "dark", observation.SourceExplicitSetting)
	upsert(t, store, "user:preference:font", "family", "mono", observation.SourceExplicitSetting)

	require.Len(t, engine.SearchByType("user:preference", ""), 2)
	require.Len(t, engine.SearchByType("user:preference", "mono"), 1)
	require.Empty(t, engine.SearchByType("conversation", ""))
}

func TestSearchByTimeRange_Inclusive(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	store, engine := newTestGraph(t, &now)

	upsert(t, store, "conversation:session:a", "user", "hi", observation.SourceDirectStatement)
	dayA := now

	now = now.AddDate(0, 0, 10)
	upsert(t, store, "conversation:session:b", "user", "hello", observation.SourceDirectStatement)
	dayB := now

	// Inclusive on both ends.
	hits := engine.SearchByTimeRange(dayA, dayB)
	require.Len(t, hits, 2)

	hits = engine.SearchByTimeRange(dayA.Add(time.Second), dayB.Add(-time.Second))
	require.Empty(t, hits)

	hits = engine.SearchByTimeRange(dayB, dayB)
	require.Len(t, hits, 1)
	require.Equal(t, "conversation:session:b", hits[0].Name)
}

func TestSearchByConfidence_UsesCurrentValues(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	store, engine := newTestGraph(t, &now)

	upsert(t, store, "user:pattern:editor", "usage", "vim", observation.SourceSingleObservation) // 0.3
	upsert(t, store, "user:preference:theme", "mode", "dark", observation.SourceExplicitSetting) // 1.0

	hits := engine.SearchByConfidence(0.25, 0.5)
	require.Len(t, hits, 1)
	require.Equal(t, "user:pattern:editor", hits[0].Name)

	// After decay the same query reflects the recomputed values.
	now = now.AddDate(0, 0, 14)
	store.ApplyDecay(now, func(conf, days, halfLife float64) float64 {
		return conf / 2
	})
	require.Empty(t, engine.SearchByConfidence(0.25, 0.3))
	hits = engine.SearchByConfidence(0.1, 0.2)
	require.Len(t, hits, 1)
}

func TestGetRelated(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	store, engine := newTestGraph(t, &now)

	for _, name := range []string{"user:profile:main", "user:preference:theme", "memory:pattern:night-owl", "workspace:file:src/index"} {
		upsert(t, store, name, "k", "v", observation.SourceDefault)
	}
	_, err := store.AddRelation("user:profile:main", graph.RelationHasPreference, "user:preference:theme")
	require.NoError(t, err)
	_, err = store.AddRelation("user:preference:theme", graph.RelationFollowsPattern, "memory:pattern:night-owl")
	require.NoError(t, err)
	// Incoming edge into the origin counts as a connection too.
	_, err = store.AddRelation("workspace:file:src/index", graph.RelationBelongsTo, "user:profile:main")
	require.NoError(t, err)

	depth1, err := engine.GetRelated("user:profile:main", 1)
	require.NoError(t, err)
	require.Equal(t, []string{"user:preference:theme", "workspace:file:src/index"}, names(depth1))

	depth2, err := engine.GetRelated("user:profile:main", 2)
	require.NoError(t, err)
	require.Equal(t, []string{"user:preference:theme", "workspace:file:src/index", "memory:pattern:night-owl"}, names(depth2))

	// Removing an endpoint removes the connection.
	require.NoError(t, store.RemoveEntity("user:preference:theme"))
	depth1, err = engine.GetRelated("user:profile:main", 1)
	require.NoError(t, err)
	require.Equal(t, []string{"workspace:file:src/index"}, names(depth1))

	_, err = engine.GetRelated("user:profile:ghost", 1)
	require.Equal(t, types.ErrEntityNotFound, types.GetErrorCode(err))
}

func TestGetRelated_SetSemantics(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	store, engine := newTestGraph(t, &now)

	// Diamond: a -> b -> d and a -> c -> d; d must appear once.
	for _, name := range []string{"user:profile:a", "user:profile:b", "user:profile:c", "user:profile:d"} {
		upsert(t, store, name, "k", "v", observation.SourceDefault)
	}
	for _, edge := range [][2]string{{"user:profile:a", "user:profile:b"}, {"user:profile:a", "user:profile:c"}, {"user:profile:b", "user:profile:d"}, {"user:profile:c", "user:profile:d"}} {
		_, err := store.AddRelation(edge[0], graph.RelationRelatedTo, edge[1])
		require.NoError(t, err)
	}

	related, err := engine.GetRelated("user:profile:a", 3)
	require.NoError(t, err)
	require.Len(t, related, 3)
	require.NotContains(t, names(related), "user:profile:a", "origin is excluded")
}

func names(entities []*graph.Entity) []string {
	out := make([]string, 0, len(entities))
	for _, e := range entities {
		out = append(out, e.Name)
	}
	return out
}
