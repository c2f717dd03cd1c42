// Package metrics provides Prometheus metrics for DynDNSClient.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace prefixes every metric name.
const Namespace = "dyndnsclient"

// Result label values.
const (
	ResultSuccess   = "success"
	ResultError     = "error"
	ResultUpdated   = "updated"
	ResultUnchanged = "unchanged"
	ResultSkipped   = "skipped"
)

var (
	// BuildInfo exposes the version the binary was built from.
	BuildInfo = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "build_info",
		Help:      "Build information, value is always 1.",
	}, []string{"version", "go_version"})

	// RunsTotal counts update runs by result (updated, skipped, error).
	RunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "runs_total",
		Help:      "Total number of update runs by result.",
	}, []string{"result"})

	// RunDuration observes how long a run took.
	RunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      "run_duration_seconds",
		Help:      "Duration of update runs in seconds.",
		Buckets:   prometheus.DefBuckets,
	})

	// LookupsTotal counts public address lookups by result.
	LookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "lookups_total",
		Help:      "Total number of public address lookups by result.",
	}, []string{"result"})

	// AddressChangesTotal counts changes of the public address.
	AddressChangesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "address_changes_total",
		Help:      "Total number of public address changes seen.",
	})

	// UpdatesTotal counts per-hostname update requests by result
	// (updated, unchanged, error).
	UpdatesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "updates_total",
		Help:      "Total number of hostname updates by result.",
	}, []string{"hostname", "result"})

	// LastSuccess is the unix time of the last run that left every
	// hostname pointing at the current address.
	LastSuccess = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "last_success_timestamp_seconds",
		Help:      "Unix time of the last successful update run.",
	})

	// PlaintextCredentials is 1 while the settings file stores any
	// credential unencrypted.
	PlaintextCredentials = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "settings_plaintext_credentials",
		Help:      "Whether the settings file contains unencrypted credentials (1) or not (0).",
	})
)

// SetBuildInfo records the build version.
func SetBuildInfo(version, goVersion string) {
	BuildInfo.WithLabelValues(version, goVersion).Set(1)
}

// SetPlaintextCredentials records whether credentials are stored unencrypted.
func SetPlaintextCredentials(plaintext bool) {
	if plaintext {
		PlaintextCredentials.Set(1)
		return
	}
	PlaintextCredentials.Set(0)
}
