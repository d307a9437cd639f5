package stats

import "github.com/prometheus/client_golang/prometheus"

// Metrics mirrors an Aggregator's counts as Prometheus collectors. Methods on
// Aggregator handle a nil *Metrics gracefully (WithPrometheus is opt-in), so
// constructing an Aggregator never pays the registration cost unless a caller
// asks for it.
type Metrics struct {
	recordsTotal prometheus.Counter
	byLevel      *prometheus.CounterVec
	byApp        *prometheus.CounterVec
	byContext    *prometheus.CounterVec
}

// NewMetrics builds and registers the collectors against registerer. If
// registerer is nil, prometheus.DefaultRegisterer is used.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		recordsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dlt_records_total",
			Help: "Total number of decoded DLT records observed.",
		}),
		byLevel: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dlt_records_by_level_total",
			Help: "Decoded log-type records by level.",
		}, []string{"level"}),
		byApp: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dlt_records_by_app_total",
			Help: "Decoded records by application id.",
		}, []string{"app_id"}),
		byContext: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dlt_records_by_context_total",
			Help: "Decoded records by (application id, context id) pair.",
		}, []string{"app_id", "ctx_id"}),
	}

	registerer.MustRegister(m.recordsTotal, m.byLevel, m.byApp, m.byContext)
	return m
}

// WithPrometheus attaches metrics to a, so every subsequent Observe also
// updates the registered collectors. Returns a for chaining.
func (a *Aggregator) WithPrometheus(metrics *Metrics) *Aggregator {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.metrics = metrics
	return a
}
