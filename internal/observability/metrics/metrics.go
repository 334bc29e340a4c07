package metrics

import (
	"database/sql"
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "fastrack_"

	resultSuccess = "success"
	resultEmpty   = "empty"
	resultError   = "error"
)

var (
	registerOnce sync.Once

	reportQueriesTotal *prometheus.CounterVec
	reportLatency      *prometheus.HistogramVec
	reportRows         *prometheus.HistogramVec

	storeLoadTotal   *prometheus.CounterVec
	storeLoadLatency *prometheus.HistogramVec

	reportExportTotal   *prometheus.CounterVec
	reportExportLatency *prometheus.HistogramVec

	loginAttemptsTotal *prometheus.CounterVec
)

// DBGauge describes a row count exposed as a gauge.
type DBGauge struct {
	Name  string
	Help  string
	Query string
}

// Init registers report metrics and optional DB-backed gauges.
func Init(db *sql.DB, gauges []DBGauge, logger *log.Logger) {
	registerOnce.Do(func() {
		reportQueriesTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "report_queries_total",
				Help: "Total report queries by mode and result",
			},
			[]string{"mode", "result"},
		)
		reportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "report_latency_seconds",
				Help:    "Report query latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"mode", "result"},
		)
		reportRows = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "report_rows",
				Help:    "Rows returned per report",
				Buckets: prometheus.ExponentialBuckets(1, 4, 8),
			},
			[]string{"mode"},
		)

		storeLoadTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "store_load_total",
				Help: "Total event store sheet loads by sheet and result",
			},
			[]string{"sheet", "result"},
		)
		storeLoadLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "store_load_latency_seconds",
				Help:    "Event store sheet load latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"sheet", "result"},
		)

		reportExportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "report_export_total",
				Help: "Total report exports by format and result",
			},
			[]string{"format", "result"},
		)
		reportExportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "report_export_latency_seconds",
				Help:    "Report export latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format", "result"},
		)

		loginAttemptsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "login_attempts_total",
				Help: "Total shared-secret login attempts by result",
			},
			[]string{"result"},
		)

		prometheus.MustRegister(
			reportQueriesTotal,
			reportLatency,
			reportRows,
			storeLoadTotal,
			storeLoadLatency,
			reportExportTotal,
			reportExportLatency,
			loginAttemptsTotal,
		)

		if db != nil {
			registerDBMetrics(db, gauges, logger)
		}
	})
}

// ObserveReport records report latency, result and row count.
func ObserveReport(mode, result string, rows int, duration time.Duration) {
	if mode == "" {
		mode = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if reportQueriesTotal != nil {
		reportQueriesTotal.WithLabelValues(mode, result).Inc()
	}
	if reportLatency != nil {
		reportLatency.WithLabelValues(mode, result).Observe(duration.Seconds())
	}
	if reportRows != nil && result != resultError {
		reportRows.WithLabelValues(mode).Observe(float64(rows))
	}
}

// ObserveStoreLoad records a sheet load.
func ObserveStoreLoad(sheet, result string, duration time.Duration) {
	if sheet == "" {
		sheet = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if storeLoadTotal != nil {
		storeLoadTotal.WithLabelValues(sheet, result).Inc()
	}
	if storeLoadLatency != nil {
		storeLoadLatency.WithLabelValues(sheet, result).Observe(duration.Seconds())
	}
}

// ObserveReportExport records export latency and result.
func ObserveReportExport(format, result string, duration time.Duration) {
	if format == "" {
		format = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if reportExportTotal != nil {
		reportExportTotal.WithLabelValues(format, result).Inc()
	}
	if reportExportLatency != nil {
		reportExportLatency.WithLabelValues(format, result).Observe(duration.Seconds())
	}
}

// IncLoginAttempt increments the login counter.
func IncLoginAttempt(result string) {
	if result == "" {
		result = "unknown"
	}
	if loginAttemptsTotal != nil {
		loginAttemptsTotal.WithLabelValues(result).Inc()
	}
}

// Exported constants for callers.
const (
	ResultSuccess = resultSuccess
	ResultEmpty   = resultEmpty
	ResultError   = resultError
)
