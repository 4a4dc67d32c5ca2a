// Package memgraph is a confidence-weighted knowledge-graph memory. Facts are
// recorded as timestamped observations whose confidence is derived from
// provenance, decays over time and is reinforced by repetition. The graph
// lives in memory; explicit sync calls snapshot it to a pluggable medium.
//
// Usage:
//
//	sys, err := memgraph.New(nil)
//	sys.RecordUserPreference("theme", "mode", observation.String("dark"),
//	    observation.SourceExplicitSetting)
//	matches := sys.Search("dark", search.Options{EntityType: "user:preference"})
package memgraph

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/BaSui01/memgraph/config"
	"github.com/BaSui01/memgraph/graph"
	"github.com/BaSui01/memgraph/lifecycle"
	"github.com/BaSui01/memgraph/observation"
	"github.com/BaSui01/memgraph/persist"
	"github.com/BaSui01/memgraph/search"
)

// Summarizer condenses a finished conversation into a short summary text.
// Implementations typically wrap an LLM; the system treats it as optional and
// failure-tolerant.
type Summarizer interface {
	Summarize(ctx context.Context, messages []string) (string, error)
}

// System wires the store, search engine, lifecycle manager and sync manager
// into one object. All state is instance-scoped; two Systems never share a
// graph.
type System struct {
	cfg        *config.Config
	store      *graph.Store
	engine     *search.Engine
	syncer     *persist.Manager
	lifecycle  *lifecycle.Manager
	summarizer Summarizer
	logger     *zap.Logger
	now        func() time.Time
}

type systemOptions struct {
	logger     *zap.Logger
	now        func() time.Time
	medium     persist.Medium
	summarizer Summarizer
	registerer prometheus.Registerer
}

// Option configures the System created by [New].
type Option func(*systemOptions)

// WithLogger sets a custom zap logger. Without it the logger is built from
// the configuration's log section.
func WithLogger(logger *zap.Logger) Option {
	return func(o *systemOptions) { o.logger = logger }
}

// WithClock injects the time source. Tests use this to drive decay.
func WithClock(now func() time.Time) Option {
	return func(o *systemOptions) { o.now = now }
}

// WithMedium overrides the persistence medium the configuration selects.
func WithMedium(medium persist.Medium) Option {
	return func(o *systemOptions) { o.medium = medium }
}

// WithSummarizer sets the session summarizer collaborator.
func WithSummarizer(s Summarizer) Option {
	return func(o *systemOptions) { o.summarizer = s }
}

// WithMetrics registers lifecycle metrics on reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(o *systemOptions) { o.registerer = reg }
}

// New creates a System from cfg. A nil cfg uses the defaults: in-memory
// medium, built-in source profiles, JSON logging to stdout.
func New(cfg *config.Config, opts ...Option) (*System, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var o systemOptions
	for _, opt := range opts {
		opt(&o)
	}

	logger := o.logger
	if logger == nil {
		logger = cfg.Log.BuildLogger()
	}

	profiles, err := cfg.Profiles()
	if err != nil {
		return nil, err
	}

	store, err := graph.NewStore(graph.Config{Now: o.now, Profiles: profiles}, logger)
	if err != nil {
		return nil, err
	}

	medium := o.medium
	if medium == nil {
		medium, err = cfg.Sync.OpenMedium(logger)
		if err != nil {
			return nil, err
		}
	}

	syncer := persist.NewManager(store, medium, persist.Config{
		Timeout:            cfg.Sync.Timeout,
		SnapshotCollection: cfg.Sync.SnapshotCollection,
		ArchiveCollection:  cfg.Sync.ArchiveCollection,
		Now:                o.now,
	}, logger)

	var metrics *lifecycle.Metrics
	if o.registerer != nil {
		metrics = lifecycle.NewMetrics("memgraph", o.registerer)
	}

	lc := lifecycle.NewManager(store, syncer, lifecycle.Config{
		Now:                 o.now,
		MaxParallelArchives: cfg.Lifecycle.MaxParallelArchives,
	}, metrics, logger)

	now := o.now
	if now == nil {
		now = time.Now
	}

	return &System{
		cfg:        cfg,
		store:      store,
		engine:     search.NewEngine(store, logger),
		syncer:     syncer,
		lifecycle:  lc,
		summarizer: o.summarizer,
		logger:     logger.With(zap.String("component", "memgraph")),
		now:        now,
	}, nil
}

// Store exposes the underlying graph store for callers that need operations
// the facade does not wrap.
func (s *System) Store() *graph.Store {
	return s.store
}

// Record appends an observation to the named entity, creating the entity on
// first use. Initial confidence comes from the source profile; a repeat of an
// existing key and value reinforces instead.
func (s *System) Record(entityName, key string, value observation.Value, source observation.Source) (observation.Observation, error) {
	return s.store.UpsertObservation(entityName, key, value, source)
}

// GetEntity returns a copy of the named active entity.
func (s *System) GetEntity(name string) (*graph.Entity, error) {
	return s.store.GetEntity(name)
}

// RemoveEntity permanently deletes an entity and every relation touching it.
func (s *System) RemoveEntity(name string) error {
	return s.store.RemoveEntity(name)
}

// ListEntities returns active entities whose name starts with prefix.
func (s *System) ListEntities(prefix string) []*graph.Entity {
	return s.store.ListEntities(prefix)
}

// Search runs a case-insensitive substring query over names, keys and values.
func (s *System) Search(query string, opts search.Options) []search.Match {
	return s.engine.Search(query, opts)
}

// SearchByType returns entities of one entity type, optionally filtered.
func (s *System) SearchByType(entityType, query string) []search.Match {
	return s.engine.SearchByType(entityType, query)
}

// SearchByTimeRange returns entities observed within [start, end].
func (s *System) SearchByTimeRange(start, end time.Time) []*graph.Entity {
	return s.engine.SearchByTimeRange(start, end)
}

// SearchByConfidence returns entities whose best current confidence lies in
// [min, max].
func (s *System) SearchByConfidence(min, max float64) []*graph.Entity {
	return s.engine.SearchByConfidence(min, max)
}

// GetRelated walks relations breadth-first up to depth hops from name.
func (s *System) GetRelated(name string, depth int) ([]*graph.Entity, error) {
	return s.engine.GetRelated(name, depth)
}

// ApplyDecay runs a decay sweep over every observation.
func (s *System) ApplyDecay() lifecycle.DecayReport {
	return s.lifecycle.ApplyDecay()
}

// Cleanup purges entities whose best confidence fell below threshold.
func (s *System) Cleanup(threshold float64) lifecycle.CleanupReport {
	return s.lifecycle.Cleanup(threshold)
}

// Archive moves entities stale for more than olderThanDays onto the medium.
func (s *System) Archive(ctx context.Context, olderThanDays float64) lifecycle.ArchiveReport {
	return s.lifecycle.Archive(ctx, olderThanDays)
}

// Restore brings archived entities back into the active graph.
func (s *System) Restore(ctx context.Context, names []string) lifecycle.RestoreReport {
	return s.lifecycle.Restore(ctx, names)
}

// DeleteArchived permanently removes entities from the archive.
func (s *System) DeleteArchived(ctx context.Context, names []string) error {
	return s.lifecycle.DeleteArchived(ctx, names)
}

// GetStats returns aggregate graph and maintenance statistics.
func (s *System) GetStats() lifecycle.Stats {
	return s.lifecycle.GetStats()
}

// SaveSnapshot writes the full active graph to the medium.
func (s *System) SaveSnapshot(ctx context.Context) (persist.SaveResult, error) {
	return s.syncer.SaveSnapshot(ctx)
}

// LoadSnapshot merges the medium's snapshot into the active graph.
func (s *System) LoadSnapshot(ctx context.Context) (persist.LoadResult, error) {
	return s.syncer.LoadSnapshot(ctx)
}
