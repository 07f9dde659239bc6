// Package telemetry exposes the engine's Prometheus collectors and the
// /metrics handler.
package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"mediadex/pkg/store"
)

var (
	SearchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mediadex_searches_total",
		Help: "Search operations by kind (start, page, shard_switch).",
	}, []string{"kind"})

	IngestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mediadex_ingests_total",
		Help: "Ingested media references by outcome (saved, duplicate, invalid).",
	}, []string{"outcome"})

	SessionEvictions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mediadex_session_evictions_total",
		Help: "Sessions dropped by whole-table cache resets.",
	})

	LiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mediadex_live_sessions",
		Help: "Search sessions currently held in the pagination cache.",
	})

	ExpirySweeps = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mediadex_expiry_sweeps_total",
		Help: "Completed entitlement expiry sweeps.",
	})

	Expirations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mediadex_entitlement_expirations_total",
		Help: "Entitlements cleared because their expiry passed.",
	})

	Reminders = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mediadex_entitlement_reminders_total",
		Help: "Expiry reminders sent, by horizon (24h, 6h, 1h).",
	}, []string{"horizon"})

	ShardRecords = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "mediadex_shard_records",
		Help: "Records currently stored per shard.",
	}, []string{"shard"})

	DiskBytes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mediadex_db_disk_bytes",
		Help: "Best-effort on-disk size of the pebble directory.",
	})
)

// Handler returns the /metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RefreshStoreGauges recomputes the per-shard record gauges and disk usage.
// Called opportunistically from the stats endpoint and the sweep loop.
func RefreshStoreGauges() {
	if counts, _, err := store.CountAll(); err == nil {
		for shard, n := range counts {
			ShardRecords.WithLabelValues(string(shard)).Set(float64(n))
		}
	}
	DiskBytes.Set(float64(store.DiskUsage()))
}
