package persist

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/memgraph/graph"
	"github.com/BaSui01/memgraph/types"
)

// Default collection names on the medium.
const (
	DefaultSnapshotCollection = "snapshot"
	DefaultArchiveCollection  = "archive"
)

// snapshotDocID addresses the single snapshot document within its collection.
const snapshotDocID = "snapshot"

// Snapshot is the persisted state layout: one JSON document holding every
// entity and relation in scope plus the save time.
type Snapshot struct {
	Entities  []*graph.Entity  `json:"entities"`
	Relations []graph.Relation `json:"relations"`
	SavedAt   time.Time        `json:"savedAt"`
}

// archiveRecord wraps a single archived entity.
type archiveRecord struct {
	Entity     *graph.Entity `json:"entity"`
	ArchivedAt time.Time     `json:"archivedAt"`
}

// SaveResult reports a completed snapshot write.
type SaveResult struct {
	Success     bool      `json:"success"`
	SavedAt     time.Time `json:"savedAt"`
	EntityCount int       `json:"entityCount"`
}

// LoadResult reports a completed snapshot merge.
type LoadResult struct {
	Success     bool      `json:"success"`
	LoadedAt    time.Time `json:"loadedAt"`
	EntityCount int       `json:"entityCount"`
}

// Config configures a Manager.
type Config struct {
	// Timeout bounds each medium operation; zero means no extra bound beyond
	// the caller's context.
	Timeout time.Duration
	// SnapshotCollection and ArchiveCollection override the medium
	// collection names.
	SnapshotCollection string
	ArchiveCollection  string
	// Now is the injected clock; defaults to time.Now.
	Now func() time.Time
}

// Manager serializes the store to and from a persistent medium. The store is
// authoritative during normal operation; the medium is a snapshot target and
// the archive's home, never a write-ahead log. A failed medium operation
// never mutates the store.
type Manager struct {
	store  *graph.Store
	medium Medium
	cfg    Config
	logger *zap.Logger
}

// NewManager creates a sync manager over store and medium.
func NewManager(store *graph.Store, medium Medium, cfg Config, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.SnapshotCollection == "" {
		cfg.SnapshotCollection = DefaultSnapshotCollection
	}
	if cfg.ArchiveCollection == "" {
		cfg.ArchiveCollection = DefaultArchiveCollection
	}
	return &Manager{
		store:  store,
		medium: medium,
		cfg:    cfg,
		logger: logger.With(zap.String("component", "sync_manager")),
	}
}

// bound applies the configured timeout to ctx.
func (m *Manager) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if m.cfg.Timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, m.cfg.Timeout)
}

// syncErr maps a medium failure onto the error taxonomy: deadline expiry is
// SYNC_TIMEOUT, anything else SYNC_IO.
func syncErr(err error, msg string) *types.Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return types.NewError(types.ErrSyncTimeout, msg).WithCause(err).WithRetryable(true)
	}
	return types.NewError(types.ErrSyncIO, msg).WithCause(err).WithRetryable(true)
}

// SaveSnapshot serializes every active entity and relation to the medium as
// a single document.
func (m *Manager) SaveSnapshot(ctx context.Context) (SaveResult, error) {
	ctx, cancel := m.bound(ctx)
	defer cancel()

	snap := Snapshot{
		Entities:  m.store.ListEntities(""),
		Relations: m.store.Relations(),
		SavedAt:   m.cfg.Now().UTC(),
	}
	body, err := json.Marshal(snap)
	if err != nil {
		return SaveResult{}, types.NewError(types.ErrSyncIO, "encode snapshot").WithCause(err)
	}

	if err := m.medium.Write(ctx, m.cfg.SnapshotCollection, []Document{{ID: snapshotDocID, Body: body}}); err != nil {
		return SaveResult{}, syncErr(err, "write snapshot")
	}

	m.logger.Info("snapshot saved",
		zap.Int("entities", len(snap.Entities)),
		zap.Int("relations", len(snap.Relations)))
	return SaveResult{Success: true, SavedAt: snap.SavedAt, EntityCount: len(snap.Entities)}, nil
}

// LoadSnapshot reads the snapshot document and merges it into the store. On
// a name collision with an existing active entity, the side with the newer
// maximum lastSeen wins entity-wide; there is no per-observation merge.
// Archived entities are left archived. Any read or decode failure leaves the
// store completely unchanged.
func (m *Manager) LoadSnapshot(ctx context.Context) (LoadResult, error) {
	ctx, cancel := m.bound(ctx)
	defer cancel()

	docs, err := m.medium.Read(ctx, m.cfg.SnapshotCollection)
	if err != nil {
		return LoadResult{}, syncErr(err, "read snapshot")
	}

	var snap Snapshot
	found := false
	for _, doc := range docs {
		if doc.ID == snapshotDocID {
			if err := json.Unmarshal(doc.Body, &snap); err != nil {
				return LoadResult{}, types.NewError(types.ErrSyncIO, "decode snapshot").WithCause(err)
			}
			found = true
			break
		}
	}
	if !found {
		return LoadResult{}, types.NewError(types.ErrSyncIO, "no snapshot document on medium")
	}

	merged := 0
	for _, incoming := range snap.Entities {
		if m.store.IsArchived(incoming.Name) {
			continue
		}
		existing, err := m.store.GetEntity(incoming.Name)
		if err == nil {
			if !incoming.LatestSeen().After(existing.LatestSeen()) {
				continue
			}
			m.store.ReplaceEntity(incoming)
			merged++
			continue
		}
		if rerr := m.store.Reinstate(incoming); rerr == nil {
			merged++
		}
	}

	for _, rel := range snap.Relations {
		if !m.store.HasEntity(rel.From) || !m.store.HasEntity(rel.To) {
			continue
		}
		if _, err := m.store.AddRelation(rel.From, rel.Type, rel.To); err != nil {
			m.logger.Warn("skipping unloadable relation",
				zap.String("from", rel.From),
				zap.String("to", rel.To),
				zap.Error(err))
		}
	}

	m.logger.Info("snapshot loaded",
		zap.Int("entities", len(snap.Entities)),
		zap.Int("merged", merged))
	return LoadResult{Success: true, LoadedAt: m.cfg.Now().UTC(), EntityCount: len(snap.Entities)}, nil
}

// ArchiveEntity writes a single entity to the archive collection. The caller
// only removes the entity from the store after this returns nil.
func (m *Manager) ArchiveEntity(ctx context.Context, entity *graph.Entity) error {
	ctx, cancel := m.bound(ctx)
	defer cancel()

	body, err := json.Marshal(archiveRecord{Entity: entity, ArchivedAt: m.cfg.Now().UTC()})
	if err != nil {
		return types.NewError(types.ErrSyncIO, "encode archive record").WithCause(err).WithEntity(entity.Name)
	}
	if err := m.medium.Write(ctx, m.cfg.ArchiveCollection, []Document{{ID: entity.Name, Body: body}}); err != nil {
		return syncErr(err, "write archive record").WithEntity(entity.Name)
	}
	return nil
}

// ReadArchived returns every archived entity on the medium, keyed by name.
func (m *Manager) ReadArchived(ctx context.Context) (map[string]*graph.Entity, error) {
	ctx, cancel := m.bound(ctx)
	defer cancel()

	docs, err := m.medium.Read(ctx, m.cfg.ArchiveCollection)
	if err != nil {
		return nil, syncErr(err, "read archive")
	}

	out := make(map[string]*graph.Entity, len(docs))
	for _, doc := range docs {
		var rec archiveRecord
		if err := json.Unmarshal(doc.Body, &rec); err != nil {
			return nil, types.NewError(types.ErrSyncIO, "decode archive record").WithCause(err).WithEntity(doc.ID)
		}
		if rec.Entity != nil {
			out[rec.Entity.Name] = rec.Entity
		}
	}
	return out, nil
}

// DeleteArchived removes archived entities from the medium.
func (m *Manager) DeleteArchived(ctx context.Context, names []string) error {
	ctx, cancel := m.bound(ctx)
	defer cancel()

	if err := m.medium.Delete(ctx, m.cfg.ArchiveCollection, names); err != nil {
		return syncErr(err, "delete archive records")
	}
	return nil
}
