package persist

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BaSui01/memgraph/graph"
	"github.com/BaSui01/memgraph/observation"
	"github.com/BaSui01/memgraph/types"
)

func newTestStore(t *testing.T, now *time.Time) *graph.Store {
	t.Helper()
	store, err := graph.NewStore(graph.Config{Now: func() time.Time { return *now }}, zap.NewNop())
	require.NoError(t, err)
	return store
}

func mustUpsert(t *testing.T, store *graph.Store, name, key, value string) {
	t.Helper()
	_, err := store.UpsertObservation(name, key, observation.String(value), observation.SourceDirectStatement)
	require.NoError(t, err)
}

func TestSaveAndLoadSnapshot_RoundTrip(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	source := newTestStore(t, &now)
	mustUpsert(t, source, "user:preference:theme", "mode", "dark")
	mustUpsert(t, source, "user:profile:main", "name", "sam")
	_, err := source.AddRelation("user:profile:main", graph.RelationHasPreference, "user:preference:theme")
	require.NoError(t, err)

	medium := NewMemoryMedium()
	saver := NewManager(source, medium, Config{Now: func() time.Time { return now }}, zap.NewNop())

	saved, err := saver.SaveSnapshot(context.Background())
	require.NoError(t, err)
	require.True(t, saved.Success)
	require.Equal(t, 2, saved.EntityCount)
	require.Equal(t, now, saved.SavedAt)

	dest := newTestStore(t, &now)
	loader := NewManager(dest, medium, Config{Now: func() time.Time { return now }}, zap.NewNop())
	loaded, err := loader.LoadSnapshot(context.Background())
	require.NoError(t, err)
	require.True(t, loaded.Success)
	require.Equal(t, 2, loaded.EntityCount)

	entity, err := dest.GetEntity("user:preference:theme")
	require.NoError(t, err)
	require.Len(t, entity.Observations, 1)
	require.Equal(t, "dark", entity.Observations[0].Value)

	require.Len(t, dest.Relations(), 1)
}

func TestLoadSnapshot_NewerLastSeenWins(t *testing.T) {
	t.Parallel()

	// Snapshot holds the entity as of day 1.
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	source := newTestStore(t, &now)
	mustUpsert(t, source, "user:preference:theme", "mode", "dark")
	mustUpsert(t, source, "user:preference:font", "family", "mono")

	medium := NewMemoryMedium()
	_, err := NewManager(source, medium, Config{Now: func() time.Time { return now }}, zap.NewNop()).
		SaveSnapshot(context.Background())
	require.NoError(t, err)

	// The destination store has a newer theme entity and an older font entity.
	destNow := now.AddDate(0, 0, 5)
	dest := newTestStore(t, &destNow)
	mustUpsert(t, dest, "user:preference:theme", "mode", "light")
	destNow = now.AddDate(0, 0, -5)
	mustUpsert(t, dest, "user:preference:font", "family", "serif")
	destNow = now.AddDate(0, 0, 5)

	_, err = NewManager(dest, medium, Config{Now: func() time.Time { return destNow }}, zap.NewNop()).
		LoadSnapshot(context.Background())
	require.NoError(t, err)

	// Newer local entity survives whole; there is no per-observation merge.
	theme, err := dest.GetEntity("user:preference:theme")
	require.NoError(t, err)
	require.Len(t, theme.Observations, 1)
	require.Equal(t, "light", theme.Observations[0].Value)

	// Older local entity is replaced whole by the snapshot copy.
	font, err := dest.GetEntity("user:preference:font")
	require.NoError(t, err)
	require.Len(t, font.Observations, 1)
	require.Equal(t, "mono", font.Observations[0].Value)
}

func TestLoadSnapshot_SkipsArchivedEntities(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	store := newTestStore(t, &now)
	mustUpsert(t, store, "user:preference:theme", "mode", "dark")

	medium := NewMemoryMedium()
	manager := NewManager(store, medium, Config{Now: func() time.Time { return now }}, zap.NewNop())
	_, err := manager.SaveSnapshot(context.Background())
	require.NoError(t, err)

	// Archive the entity locally; the loaded snapshot must not resurrect it.
	require.NoError(t, store.MarkArchived("user:preference:theme"))

	_, err = manager.LoadSnapshot(context.Background())
	require.NoError(t, err)

	_, err = store.GetEntity("user:preference:theme")
	require.Equal(t, types.ErrEntityArchived, types.GetErrorCode(err))
}

func TestLoadSnapshot_MissingSnapshotFailsCleanly(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	store := newTestStore(t, &now)
	mustUpsert(t, store, "user:preference:theme", "mode", "dark")

	manager := NewManager(store, NewMemoryMedium(), Config{}, zap.NewNop())
	_, err := manager.LoadSnapshot(context.Background())
	require.Equal(t, types.ErrSyncIO, types.GetErrorCode(err))

	// A failed load leaves the store untouched.
	require.Equal(t, 1, store.EntityCount())
}

// stalledMedium blocks until its context expires, simulating an unresponsive
// backend.
type stalledMedium struct{}

func (stalledMedium) Write(ctx context.Context, _ string, _ []Document) error {
	<-ctx.Done()
	return ctx.Err()
}

func (stalledMedium) Read(ctx context.Context, _ string) ([]Document, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (stalledMedium) Delete(ctx context.Context, _ string, _ []string) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestManager_TimeoutMapsToSyncTimeout(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	store := newTestStore(t, &now)
	manager := NewManager(store, stalledMedium{}, Config{Timeout: 10 * time.Millisecond}, zap.NewNop())

	_, err := manager.SaveSnapshot(context.Background())
	require.Equal(t, types.ErrSyncTimeout, types.GetErrorCode(err))
	require.True(t, types.IsRetryable(err))

	_, err = manager.LoadSnapshot(context.Background())
	require.Equal(t, types.ErrSyncTimeout, types.GetErrorCode(err))
}

func TestArchiveReadDeleteCycle(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	store := newTestStore(t, &now)
	mustUpsert(t, store, "conversation:session:old", "summary", "done")

	medium := NewMemoryMedium()
	manager := NewManager(store, medium, Config{Now: func() time.Time { return now }}, zap.NewNop())

	entity, err := store.GetEntity("conversation:session:old")
	require.NoError(t, err)
	require.NoError(t, manager.ArchiveEntity(context.Background(), entity))

	archived, err := manager.ReadArchived(context.Background())
	require.NoError(t, err)
	require.Len(t, archived, 1)
	restored := archived["conversation:session:old"]
	require.NotNil(t, restored)
	require.Len(t, restored.Observations, 1)
	require.Equal(t, "done", restored.Observations[0].Value)

	require.NoError(t, manager.DeleteArchived(context.Background(), []string{"conversation:session:old"}))
	archived, err = manager.ReadArchived(context.Background())
	require.NoError(t, err)
	require.Empty(t, archived)
}
