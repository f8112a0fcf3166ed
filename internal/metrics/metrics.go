package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Record lifecycle metrics, exposed on /metrics.
var (
	RecordsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rto_records_created_total",
		Help: "Total number of records created, by kind",
	}, []string{"kind"})

	RecordsRetired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rto_records_retired_total",
		Help: "Total number of records retired by renewals",
	})

	RefreshRuns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rto_status_refresh_runs_total",
		Help: "Total number of status refresh job runs",
	})

	RefreshFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rto_status_refresh_failures_total",
		Help: "Total number of failed status refresh job runs",
	})

	RefreshUpdated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rto_status_refresh_updated_total",
		Help: "Total number of records whose status the refresh job changed",
	})

	RefreshScanned = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "rto_status_refresh_scanned",
		Help: "Number of records scanned by the last refresh run",
	})
)
