package metrics

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once     sync.Once
	registry *Registry
)

// Registry holds the patch engine metrics on a private prometheus registry.
// A nil *Registry is valid and records nothing.
type Registry struct {
	reg *prometheus.Registry

	// Patch metrics
	RulesMatched     *prometheus.CounterVec
	RulesRewritten   *prometheus.CounterVec
	Discrepancies    *prometheus.CounterVec
	MalformedHeaders *prometheus.CounterVec

	// Merge metrics
	Blocks *prometheus.CounterVec

	// File metrics
	FilesWritten *prometheus.CounterVec
	FilesSkipped *prometheus.CounterVec
	Backups      *prometheus.CounterVec
	Failures     *prometheus.CounterVec

	// Run metrics
	LastRun     prometheus.Gauge
	RunDuration prometheus.Histogram
}

// Get returns the global metrics registry, creating it if necessary.
func Get() *Registry {
	once.Do(func() {
		registry = New()
	})
	return registry
}

// New creates a registry with all collectors registered.
func New() *Registry {
	r := &Registry{reg: prometheus.NewRegistry()}
	f := promauto.With(r.reg)

	r.RulesMatched = f.NewCounterVec(prometheus.CounterOpts{
		Name: "nodecfg_rules_matched_total",
		Help: "Key lines matched by a patch rule",
	}, []string{"file", "section"})

	r.RulesRewritten = f.NewCounterVec(prometheus.CounterOpts{
		Name: "nodecfg_rules_rewritten_total",
		Help: "Key lines whose content changed",
	}, []string{"file", "section"})

	r.Discrepancies = f.NewCounterVec(prometheus.CounterOpts{
		Name: "nodecfg_discrepancies_total",
		Help: "Rules that had no effect, by reason",
	}, []string{"file", "kind"})

	r.MalformedHeaders = f.NewCounterVec(prometheus.CounterOpts{
		Name: "nodecfg_malformed_headers_total",
		Help: "Bracket lines that were not well-formed section headers",
	}, []string{"file"})

	r.Blocks = f.NewCounterVec(prometheus.CounterOpts{
		Name: "nodecfg_blocks_total",
		Help: "Candidate proxy blocks by merge outcome",
	}, []string{"outcome"})

	r.FilesWritten = f.NewCounterVec(prometheus.CounterOpts{
		Name: "nodecfg_files_written_total",
		Help: "Files replaced on disk",
	}, []string{"component", "file"})

	r.FilesSkipped = f.NewCounterVec(prometheus.CounterOpts{
		Name: "nodecfg_files_unchanged_total",
		Help: "Files left alone because nothing changed",
	}, []string{"component", "file"})

	r.Backups = f.NewCounterVec(prometheus.CounterOpts{
		Name: "nodecfg_backups_total",
		Help: "Backup copies taken",
	}, []string{"component"})

	r.Failures = f.NewCounterVec(prometheus.CounterOpts{
		Name: "nodecfg_failures_total",
		Help: "Fatal errors by component and reason",
	}, []string{"component", "reason"})

	r.LastRun = f.NewGauge(prometheus.GaugeOpts{
		Name: "nodecfg_last_run_timestamp_seconds",
		Help: "Unix time of the last completed run",
	})

	r.RunDuration = f.NewHistogram(prometheus.HistogramOpts{
		Name:    "nodecfg_run_duration_seconds",
		Help:    "Duration of a full apply run",
		Buckets: prometheus.DefBuckets,
	})

	return r
}

// Gatherer exposes the underlying registry.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// RecordRule records the outcome of one patch rule.
func (r *Registry) RecordRule(path, section string, matched, rewritten int) {
	if r == nil {
		return
	}
	if section == "" {
		section = "root"
	}
	file := fileLabel(path)
	r.RulesMatched.WithLabelValues(file, section).Add(float64(matched))
	r.RulesRewritten.WithLabelValues(file, section).Add(float64(rewritten))
}

// RecordDiscrepancy records a rule that had no effect.
func (r *Registry) RecordDiscrepancy(path, kind string) {
	if r == nil {
		return
	}
	r.Discrepancies.WithLabelValues(fileLabel(path), kind).Inc()
}

// RecordMalformed records malformed header lines seen in path.
func (r *Registry) RecordMalformed(path string, n int) {
	if r == nil || n == 0 {
		return
	}
	r.MalformedHeaders.WithLabelValues(fileLabel(path)).Add(float64(n))
}

// RecordBlock records a merge candidate outcome ("appended" or "skipped").
func (r *Registry) RecordBlock(outcome string) {
	if r == nil {
		return
	}
	r.Blocks.WithLabelValues(outcome).Inc()
}

// RecordFile records whether a file was written or left unchanged.
func (r *Registry) RecordFile(component, path string, written bool) {
	if r == nil {
		return
	}
	if written {
		r.FilesWritten.WithLabelValues(component, fileLabel(path)).Inc()
	} else {
		r.FilesSkipped.WithLabelValues(component, fileLabel(path)).Inc()
	}
}

// RecordBackup records a new backup copy.
func (r *Registry) RecordBackup(component string) {
	if r == nil {
		return
	}
	r.Backups.WithLabelValues(component).Inc()
}

// RecordFailure records a fatal error.
func (r *Registry) RecordFailure(component, reason string) {
	if r == nil {
		return
	}
	r.Failures.WithLabelValues(component, reason).Inc()
}

// RecordRun records a completed run that started at start and ended at end.
func (r *Registry) RecordRun(start, end time.Time) {
	if r == nil {
		return
	}
	r.RunDuration.Observe(end.Sub(start).Seconds())
	r.LastRun.Set(float64(end.Unix()))
}

// WriteTextfile writes the registry in text exposition format, for the
// node_exporter textfile collector.
func (r *Registry) WriteTextfile(path string) error {
	if r == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, r.reg)
}

// fileLabel keeps label cardinality low: only the base name is used.
func fileLabel(path string) string {
	return filepath.Base(path)
}
