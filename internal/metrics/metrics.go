package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics exposes the monitoring pipeline's own telemetry in Prometheus
// format. All collectors live on a private registry so tests can create
// independent instances.
type Metrics struct {
	registry *prometheus.Registry

	CyclesTotal       prometheus.Counter
	CycleDuration     prometheus.Histogram
	ContainersScanned prometheus.Gauge
	ContainersSkipped *prometheus.CounterVec
	CollectionErrors  prometheus.Counter
	PersistErrors     prometheus.Counter

	MonthlyWasteCost prometheus.Gauge
	CriticalFindings prometheus.Gauge
	FindingsTotal    *prometheus.CounterVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		CyclesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "costwatch_cycles_total",
			Help: "Completed monitoring cycles.",
		}),
		CycleDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "costwatch_cycle_duration_seconds",
			Help:    "Wall-clock duration of a monitoring cycle.",
			Buckets: prometheus.DefBuckets,
		}),
		ContainersScanned: factory.NewGauge(prometheus.GaugeOpts{
			Name: "costwatch_containers_scanned",
			Help: "Containers successfully scanned in the last cycle.",
		}),
		ContainersSkipped: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "costwatch_containers_skipped_total",
			Help: "Containers skipped, by failure stage.",
		}, []string{"stage"}),
		CollectionErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "costwatch_collection_errors_total",
			Help: "Runtime API failures during collection.",
		}),
		PersistErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "costwatch_persist_errors_total",
			Help: "Samples dropped after exhausting persistence retries.",
		}),
		MonthlyWasteCost: factory.NewGauge(prometheus.GaugeOpts{
			Name: "costwatch_monthly_waste_cost",
			Help: "Estimated monthly waste cost across all containers, last cycle.",
		}),
		CriticalFindings: factory.NewGauge(prometheus.GaugeOpts{
			Name: "costwatch_critical_findings",
			Help: "Critical security findings across all containers, last cycle.",
		}),
		FindingsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "costwatch_security_findings_total",
			Help: "Security findings raised, by severity.",
		}, []string{"severity"}),
	}
}

// ObserveCycle records the summary telemetry of one finished cycle.
func (m *Metrics) ObserveCycle(scanned int, wasteCost float64, critical int, elapsed time.Duration) {
	m.CyclesTotal.Inc()
	m.CycleDuration.Observe(elapsed.Seconds())
	m.ContainersScanned.Set(float64(scanned))
	m.MonthlyWasteCost.Set(wasteCost)
	m.CriticalFindings.Set(float64(critical))
}

// Handler serves this instance's registry in exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
