// SPDX-License-Identifier: MIT
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Profiling business metrics
	profileRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "d8a_profile_runs_total",
		Help: "Total number of profiling runs by outcome",
	}, []string{"outcome"}) // outcome=success|failure|canceled

	profileDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "d8a_profile_duration_seconds",
		Help:    "Wall time of profiling runs",
		Buckets: prometheus.DefBuckets,
	})

	profileColumnsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "d8a_profile_columns_total",
		Help: "Total number of columns profiled",
	})

	profileRowsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "d8a_profile_rows_total",
		Help: "Total number of rows profiled",
	})

	profileStageFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "d8a_profile_stage_failures_total",
		Help: "Total number of profiling failures by stage",
	}, []string{"stage"}) // stage=config|describe|frequency|histogram|bestfit|normality|correlation|write

	bestFitTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "d8a_bestfit_total",
		Help: "Best-fit distribution selections by family",
	}, []string{"distribution"})

	// Dataset metrics
	datasetsRegistered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "d8a_datasets_registered_total",
		Help: "Datasets registered by source",
	}, []string{"source"}) // source=upload|path|remote

	datasetReadSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "d8a_dataset_read_duration_seconds",
		Help:    "Time spent parsing dataset files",
		Buckets: prometheus.DefBuckets,
	})

	datasetRowsLoaded = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "d8a_dataset_rows_loaded",
		Help: "Rows parsed in the most recent dataset load",
	})

	// Catalog metrics
	catalogErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "d8a_catalog_errors_total",
		Help: "Catalog operation failures by operation",
	}, []string{"op"})
)

func RecordProfileRun(outcome string, seconds float64) {
	profileRunsTotal.WithLabelValues(outcome).Inc()
	profileDurationSeconds.Observe(seconds)
}

func AddProfiledColumns(n int) { profileColumnsTotal.Add(float64(n)) }
func AddProfiledRows(n int)    { profileRowsTotal.Add(float64(n)) }

func IncProfileStageFailure(stage string) { profileStageFailures.WithLabelValues(stage).Inc() }

func IncBestFit(distribution string) { bestFitTotal.WithLabelValues(distribution).Inc() }

func IncDatasetRegistered(source string) { datasetsRegistered.WithLabelValues(source).Inc() }

func RecordDatasetRead(rows int, seconds float64) {
	datasetReadSeconds.Observe(seconds)
	datasetRowsLoaded.Set(float64(rows))
}

func IncCatalogError(op string) { catalogErrors.WithLabelValues(op).Inc() }
