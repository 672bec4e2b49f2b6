// Package metrics exposes run counters as Prometheus metrics and writes
// them in the node-exporter textfile format at the end of a run.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"blemap/internal/errors"
	"blemap/internal/mapping"
	"blemap/internal/paths"
	"blemap/internal/stats"
)

const namespace = "blemap"

// Metrics holds the collectors of one run
type Metrics struct {
	registry *prometheus.Registry

	Apps         prometheus.Gauge
	Identifiers  *prometheus.GaugeVec
	AppMix       *prometheus.GaugeVec
	MisusingApps prometheus.Gauge
	DFUApps      prometheus.Gauge
	Assignments  *prometheus.GaugeVec
	MatcherCalls prometheus.Gauge
	MemoLookups  *prometheus.GaugeVec
	RunDuration  prometheus.Gauge
	RunTimestamp prometheus.Gauge
}

// New creates and registers all collectors on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		Apps: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "corpus",
			Name:      "apps",
			Help:      "Applications in the extraction corpus",
		}),
		Identifiers: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "corpus",
			Name:      "identifiers",
			Help:      "Distinct identifiers by functionality (kfu, ufu)",
		}, []string{"functionality"}),
		AppMix: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "corpus",
			Name:      "apps_by_mix",
			Help:      "Applications by known/unknown identifier mix",
		}, []string{"mix"}),
		MisusingApps: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "corpus",
			Name:      "misusing_apps",
			Help:      "Applications using unregistered identifiers in the reserved range",
		}),
		DFUApps: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "corpus",
			Name:      "dfu_apps",
			Help:      "Applications using firmware-update identifiers",
		}),
		Assignments: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "mapping",
			Name:      "assignments",
			Help:      "Identifier assignments by outcome (resolved, unresolved)",
		}, []string{"outcome"}),
		MatcherCalls: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "mapping",
			Name:      "matcher_calls",
			Help:      "Text fragments passed to the keyword matcher",
		}),
		MemoLookups: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "mapping",
			Name:      "memo_lookups",
			Help:      "Memo lookups by result (hit, miss)",
		}, []string{"result"}),
		RunDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "duration_seconds",
			Help:      "Wall-clock duration of the run",
		}),
		RunTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "last_completed_timestamp_seconds",
			Help:      "Unix time the run completed",
		}),
	}

	m.registry.MustRegister(
		m.Apps,
		m.Identifiers,
		m.AppMix,
		m.MisusingApps,
		m.DFUApps,
		m.Assignments,
		m.MatcherCalls,
		m.MemoLookups,
		m.RunDuration,
		m.RunTimestamp,
	)
	return m
}

// ObserveReport records population statistics.
func (m *Metrics) ObserveReport(r *stats.Report) {
	m.Apps.Set(float64(r.Apps))
	m.Identifiers.WithLabelValues("kfu").Set(float64(len(r.KFU)))
	m.Identifiers.WithLabelValues("ufu").Set(float64(len(r.UFU)))
	for _, mix := range []stats.Mix{stats.MixEmpty, stats.MixAllKFU, stats.MixAllUFU, stats.MixMixed} {
		m.AppMix.WithLabelValues(string(mix)).Set(float64(r.MixCount(mix)))
	}
	m.MisusingApps.Set(float64(len(r.MisusingApps)))
	m.DFUApps.Set(float64(len(r.DFUApps)))
}

// ObserveMapping records assigner counters.
func (m *Metrics) ObserveMapping(s mapping.Stats) {
	m.Assignments.WithLabelValues("resolved").Set(float64(s.Resolved))
	m.Assignments.WithLabelValues("unresolved").Set(float64(s.Assigned - s.Resolved))
	m.MatcherCalls.Set(float64(s.MatcherCalls))
	m.MemoLookups.WithLabelValues("hit").Set(float64(s.MemoHits))
	m.MemoLookups.WithLabelValues("miss").Set(float64(s.MemoMisses))
}

// ObserveRun records the wall-clock span of the run.
func (m *Metrics) ObserveRun(started, finished time.Time) {
	m.RunDuration.Set(finished.Sub(started).Seconds())
	m.RunTimestamp.Set(float64(finished.Unix()))
}

// WriteTextfile writes all metrics to path in the text exposition format.
func (m *Metrics) WriteTextfile(path string) error {
	if err := paths.EnsureParentDir(path); err != nil {
		return errors.New(errors.OutputFailed, "cannot create metrics directory", err)
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return errors.New(errors.OutputFailed, "cannot write metrics file "+path, err)
	}
	return nil
}
