package lifecycle

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics collects lifecycle counters. All methods are nil-safe so metrics
// stay optional.
type Metrics struct {
	decaySweeps         prometheus.Counter
	observationsDecayed prometheus.Counter
	sweepDuration       prometheus.Histogram
	entitiesRemoved     prometheus.Counter
	entitiesArchived    prometheus.Counter
	archiveFailures     prometheus.Counter
	entitiesRestored    prometheus.Counter
}

// NewMetrics creates and registers lifecycle metrics under namespace.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := func(name, help string) prometheus.Counter {
		c := prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "lifecycle",
			Name:      name,
			Help:      help,
		})
		reg.MustRegister(c)
		return c
	}

	m := &Metrics{
		decaySweeps:         factory("decay_sweeps_total", "Completed decay sweeps."),
		observationsDecayed: factory("observations_decayed_total", "Observations whose confidence changed in a sweep."),
		entitiesRemoved:     factory("entities_removed_total", "Entities permanently removed by cleanup."),
		entitiesArchived:    factory("entities_archived_total", "Entities moved to the archive medium."),
		archiveFailures:     factory("archive_failures_total", "Per-entity archive failures."),
		entitiesRestored:    factory("entities_restored_total", "Entities restored from the archive medium."),
	}
	m.sweepDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "lifecycle",
		Name:      "sweep_duration_seconds",
		Help:      "Duration of decay and cleanup sweeps.",
		Buckets:   prometheus.DefBuckets,
	})
	reg.MustRegister(m.sweepDuration)
	return m
}

// ObserveDecay records a decay sweep.
func (m *Metrics) ObserveDecay(report DecayReport, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.decaySweeps.Inc()
	m.observationsDecayed.Add(float64(report.Decayed))
	m.sweepDuration.Observe(elapsed.Seconds())
}

// ObserveCleanup records a cleanup pass.
func (m *Metrics) ObserveCleanup(report CleanupReport, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.entitiesRemoved.Add(float64(report.Removed))
	m.sweepDuration.Observe(elapsed.Seconds())
}

// ObserveArchive records an archive pass.
func (m *Metrics) ObserveArchive(report ArchiveReport) {
	if m == nil {
		return
	}
	m.entitiesArchived.Add(float64(report.Archived))
	m.archiveFailures.Add(float64(len(report.Errors)))
}

// ObserveRestore records restored entities.
func (m *Metrics) ObserveRestore(restored int) {
	if m == nil {
		return
	}
	m.entitiesRestored.Add(float64(restored))
}
