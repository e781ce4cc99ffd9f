package observability

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

const namespace = "covid_etl"

// Metrics holds the Prometheus counters, histograms, and gauges for a tracker run.
type Metrics struct {
	RowsLoaded   prometheus.Counter
	RowsDropped  *prometheus.CounterVec // labels: stage={aggregates,allow_list}
	ValuesFilled *prometheus.CounterVec // labels: metric={total_cases,new_cases,total_deaths,new_deaths}
	LoadDuration prometheus.Histogram

	// Reporter outcomes.
	Reports *prometheus.CounterVec // labels: reporter, outcome={written,skipped,failed}

	LastRunSuccess prometheus.Gauge
}

// NewMetrics creates and registers all tracker metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.RowsLoaded,
		m.RowsDropped,
		m.ValuesFilled,
		m.LoadDuration,
		m.Reports,
		m.LastRunSuccess,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		RowsLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_loaded_total",
			Help:      "Total rows decoded from the source CSV.",
		}),
		RowsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_dropped_total",
			Help:      "Rows removed by each cleaning filter.",
		}, []string{"stage"}),
		ValuesFilled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "values_filled_total",
			Help:      "Missing key metric values replaced with zero.",
		}, []string{"metric"}),
		LoadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "load_duration_seconds",
			Help:      "Duration of fetching and decoding the source dataset.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		Reports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_total",
			Help:      "Reporter executions by reporter and outcome.",
		}, []string{"reporter", "outcome"}),
		LastRunSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_success_timestamp_seconds",
			Help:      "Unix time of the last run that completed without errors.",
		}),
	}
}

// Push delivers the default registry to a Prometheus Pushgateway under the
// given job name. Batch jobs exit before they can be scraped.
func Push(ctx context.Context, url, job string) error {
	if err := push.New(url, job).Gatherer(prometheus.DefaultGatherer).PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	return nil
}
