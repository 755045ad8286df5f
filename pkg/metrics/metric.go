package metrics

import (
	"time"

	"github.com/lintang-b-s/brouter-client/pkg/util"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "brouter_client"

// Metric counts route and profile requests per backend and error kind.
// A nil *Metric is valid and records nothing.
type Metric struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func NewMetric(reg prometheus.Registerer) (*Metric, error) {
	m := &Metric{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Routing client requests by backend, operation and result kind.",
		}, []string{"backend", "operation", "result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Routing client request latency.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 300},
		}, []string{"backend", "operation"}),
	}
	for _, c := range []prometheus.Collector{m.requests, m.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Observe records one finished operation; err decides the result label.
func (m *Metric) Observe(backend, operation string, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(backend, operation, util.KindName(err)).Inc()
	m.duration.WithLabelValues(backend, operation).Observe(elapsed.Seconds())
}
