package lifecycle

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/BaSui01/memgraph/confidence"
	"github.com/BaSui01/memgraph/graph"
	"github.com/BaSui01/memgraph/types"
)

// Archiver is the slice of the sync manager the lifecycle manager consumes.
type Archiver interface {
	ArchiveEntity(ctx context.Context, entity *graph.Entity) error
	ReadArchived(ctx context.Context) (map[string]*graph.Entity, error)
	DeleteArchived(ctx context.Context, names []string) error
}

// DecayReport counts the outcome of a decay sweep.
type DecayReport struct {
	Processed int `json:"processed"`
	Decayed   int `json:"decayed"`
	Unchanged int `json:"unchanged"`
}

// CleanupReport counts the outcome of a cleanup pass.
type CleanupReport struct {
	Removed int      `json:"removed"`
	Kept    int      `json:"kept"`
	Names   []string `json:"names,omitempty"`
}

// ArchiveReport is the per-batch result of Archive. A failed entity never
// blocks the others; its error is recorded here keyed by name.
type ArchiveReport struct {
	Archived  int              `json:"archived"`
	Remaining int              `json:"remaining"`
	Errors    map[string]error `json:"-"`
}

// RestoreReport is the per-batch result of Restore.
type RestoreReport struct {
	Restored []string         `json:"restored"`
	Errors   map[string]error `json:"-"`
}

// Stats is a read-only aggregate snapshot.
type Stats struct {
	TotalEntities    int            `json:"totalEntities"`
	TotalRelations   int            `json:"totalRelations"`
	ArchivedEntities int            `json:"archivedEntities"`
	ByType           map[string]int `json:"byType"`
	LastDecayAt      time.Time      `json:"lastDecayAt"`
	LastCleanupAt    time.Time      `json:"lastCleanupAt"`
}

// Config configures a Manager.
type Config struct {
	// Now is the injected clock; defaults to time.Now.
	Now func() time.Time
	// MaxParallelArchives bounds concurrent archive writes. Defaults to 4.
	MaxParallelArchives int
}

// Manager runs time-based confidence maintenance and lifecycle transitions
// over the store. Nothing here is driven by timers: the caller decides
// cadence and invokes each operation explicitly.
//
// Archive and Restore suspend on medium I/O, so a per-entity critical
// section guards the gap between "decide to move entity X" and "commit the
// move". The policy is fail-fast: a second archive or restore targeting an
// in-flight entity returns ARCHIVE_IN_PROGRESS instead of queueing.
type Manager struct {
	store   *graph.Store
	syncer  Archiver
	metrics *Metrics
	now     func() time.Time
	logger  *zap.Logger

	inflight inflightSet

	mu            sync.Mutex
	lastDecayAt   time.Time
	lastCleanupAt time.Time

	maxParallel int
}

// NewManager creates a lifecycle manager over store and syncer.
func NewManager(store *graph.Store, syncer Archiver, cfg Config, metrics *Metrics, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.MaxParallelArchives <= 0 {
		cfg.MaxParallelArchives = 4
	}
	return &Manager{
		store:       store,
		syncer:      syncer,
		metrics:     metrics,
		now:         cfg.Now,
		logger:      logger.With(zap.String("component", "lifecycle_manager")),
		inflight:    newInflightSet(),
		maxParallel: cfg.MaxParallelArchives,
	}
}

// ApplyDecay recomputes every observation's confidence from its anchor and
// the elapsed time since it was last seen. Safe to re-run: a second sweep at
// the same instant changes nothing.
func (m *Manager) ApplyDecay() DecayReport {
	start := m.now()
	processed, decayed := m.store.ApplyDecay(start.UTC(), confidence.Decay)

	m.mu.Lock()
	m.lastDecayAt = start.UTC()
	m.mu.Unlock()

	report := DecayReport{Processed: processed, Decayed: decayed, Unchanged: processed - decayed}
	m.metrics.ObserveDecay(report, m.now().Sub(start))
	m.logger.Info("decay sweep completed",
		zap.Int("processed", report.Processed),
		zap.Int("decayed", report.Decayed))
	return report
}

// Cleanup permanently deletes every entity whose maximum observation
// confidence fell below threshold, cascading relation removal. Archived
// entities are never touched: they left the store and can only be deleted
// explicitly.
func (m *Manager) Cleanup(threshold float64) CleanupReport {
	start := m.now()
	removed, kept := m.store.RemoveBelowConfidence(threshold)

	m.mu.Lock()
	m.lastCleanupAt = start.UTC()
	m.mu.Unlock()

	report := CleanupReport{Removed: len(removed), Kept: kept, Names: removed}
	m.metrics.ObserveCleanup(report, m.now().Sub(start))
	m.logger.Info("cleanup completed",
		zap.Float64("threshold", threshold),
		zap.Int("removed", report.Removed),
		zap.Int("kept", report.Kept))
	return report
}

// Archive moves every entity whose most recent lastSeen is older than
// olderThanDays out of the store onto the archive medium. Atomic per entity:
// the entity leaves the store only after its archive write succeeded, so a
// failure leaves it exactly where it was. Failures are collected per entity;
// the batch always proceeds.
func (m *Manager) Archive(ctx context.Context, olderThanDays float64) ArchiveReport {
	cutoff := m.now().UTC().Add(-time.Duration(olderThanDays * 24 * float64(time.Hour)))
	candidates := m.store.StaleBefore(cutoff)

	report := ArchiveReport{Errors: make(map[string]error)}
	var reportMu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.maxParallel)

	for _, name := range candidates {
		name := name
		g.Go(func() error {
			err := m.archiveOne(gctx, name)

			reportMu.Lock()
			defer reportMu.Unlock()
			if err != nil {
				report.Errors[name] = err
			} else {
				report.Archived++
			}
			return nil
		})
	}
	_ = g.Wait()

	report.Remaining = m.store.EntityCount()
	m.metrics.ObserveArchive(report)
	m.logger.Info("archive pass completed",
		zap.Float64("older_than_days", olderThanDays),
		zap.Int("candidates", len(candidates)),
		zap.Int("archived", report.Archived),
		zap.Int("failed", len(report.Errors)))
	return report
}

func (m *Manager) archiveOne(ctx context.Context, name string) error {
	if !m.inflight.tryAcquire(name) {
		return types.NewError(types.ErrArchiveInProgress, "archive or restore already in flight").WithEntity(name)
	}
	defer m.inflight.release(name)

	entity, err := m.store.GetEntity(name)
	if err != nil {
		return err
	}
	if err := m.syncer.ArchiveEntity(ctx, entity); err != nil {
		// The store was not touched; the entity stays active.
		return err
	}
	// The medium write is a suspension point; a write accepted during it
	// makes the archive record stale. The entity then stays active and a
	// later pass re-archives it, overwriting the record.
	return m.store.MarkArchivedIfUnchanged(entity)
}

// Restore reads the named entities back from the archive medium and
// reinserts them into the store. Confidence values come back exactly as
// archived; decay resumes from the restore instant, so each observation's
// lastSeen is rebased to now with its anchor set to the archived confidence.
// Best-effort across the batch: failures are collected per name.
func (m *Manager) Restore(ctx context.Context, names []string) RestoreReport {
	report := RestoreReport{Errors: make(map[string]error)}
	if len(names) == 0 {
		return report
	}

	archived, err := m.syncer.ReadArchived(ctx)
	if err != nil {
		for _, name := range names {
			report.Errors[name] = err
		}
		return report
	}

	now := m.now().UTC()
	var restored []string
	for _, name := range names {
		if err := m.restoreOne(name, archived, now); err != nil {
			report.Errors[name] = err
		} else {
			report.Restored = append(report.Restored, name)
			restored = append(restored, name)
		}
	}

	if len(restored) > 0 {
		// The store already holds the restored entities; a leftover archive
		// record would only be overwritten by a future archive pass.
		if err := m.syncer.DeleteArchived(ctx, restored); err != nil {
			m.logger.Warn("restored entities left behind on archive medium", zap.Error(err))
		}
	}

	m.metrics.ObserveRestore(len(report.Restored))
	m.logger.Info("restore completed",
		zap.Int("requested", len(names)),
		zap.Int("restored", len(report.Restored)),
		zap.Int("failed", len(report.Errors)))
	return report
}

func (m *Manager) restoreOne(name string, archived map[string]*graph.Entity, now time.Time) error {
	if !m.inflight.tryAcquire(name) {
		return types.NewError(types.ErrArchiveInProgress, "archive or restore already in flight").WithEntity(name)
	}
	defer m.inflight.release(name)

	entity, ok := archived[name]
	if !ok {
		return types.NewError(types.ErrArchiveNotFound, "entity not found in archive").WithEntity(name)
	}
	if m.store.HasEntity(name) {
		// Already active; restoring is a no-op, and the leftover archive
		// record is deleted with the batch.
		return nil
	}

	clone := entity.Clone()
	for i := range clone.Observations {
		o := &clone.Observations[i]
		o.AnchorConfidence = o.Confidence
		o.LastSeen = now
	}
	return m.store.Reinstate(clone)
}

// DeleteArchived explicitly and permanently removes archived entities from
// the archive medium and the archive index. Archived entities are never
// purged implicitly; this is the only way they die.
func (m *Manager) DeleteArchived(ctx context.Context, names []string) error {
	if err := m.syncer.DeleteArchived(ctx, names); err != nil {
		return err
	}
	for _, name := range names {
		if err := m.store.DropArchived(name); err != nil {
			m.logger.Warn("archived entity missing from index", zap.String("name", name))
		}
	}
	return nil
}

// GetStats returns a read-only aggregate snapshot.
func (m *Manager) GetStats() Stats {
	m.mu.Lock()
	lastDecay, lastCleanup := m.lastDecayAt, m.lastCleanupAt
	m.mu.Unlock()

	return Stats{
		TotalEntities:    m.store.EntityCount(),
		TotalRelations:   m.store.RelationCount(),
		ArchivedEntities: len(m.store.ArchivedNames()),
		ByType:           m.store.CountByType(),
		LastDecayAt:      lastDecay,
		LastCleanupAt:    lastCleanup,
	}
}

// inflightSet is the mutual-exclusion token set keyed by entity name.
type inflightSet struct {
	mu    sync.Mutex
	names map[string]struct{}
}

func newInflightSet() inflightSet {
	return inflightSet{names: make(map[string]struct{})}
}

func (s *inflightSet) tryAcquire(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.names[name]; busy {
		return false
	}
	s.names[name] = struct{}{}
	return true
}

func (s *inflightSet) release(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.names, name)
}
