package metrics

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Sync pushes received from clients, by outcome.
	SyncRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stock_sync_requests_total",
			Help: "Total number of ledger sync requests received (by result).",
		},
		[]string{"result"},
	)

	// Backups written to the archive, by mode (manual / automatic).
	BackupsStoredTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stock_backups_stored_total",
			Help: "Total number of backups written to the archive.",
		},
		[]string{"mode"},
	)

	BackupsFailedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stock_backups_failed_total",
			Help: "Total number of backups that could not be written.",
		},
		[]string{"mode"},
	)

	BackupDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stock_backup_duration_seconds",
			Help:    "Time spent writing a backup object.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~10s
		},
		[]string{"mode"},
	)

	// Products held by the server after the last sync.
	LedgerProducts = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "stock_ledger_products",
		Help: "Number of products in the server ledger.",
	})
)

// ObserveDuration records the time elapsed since start on a histogram.
func ObserveDuration(h *prometheus.HistogramVec, start time.Time, labels ...string) {
	h.WithLabelValues(labels...).Observe(time.Since(start).Seconds())
}

// Handler exposes the default registry for the router.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
