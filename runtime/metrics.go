package runtime

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/wasmship/wasmship/errors"
)

// Metrics records invocation outcomes. A nil *Metrics is valid and records nothing.
type Metrics struct {
	invocations *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	loaded      prometheus.Gauge
}

func NewMetrics(r prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		invocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wasmship",
			Name:      "invocations_total",
			Help:      "number of invocations by engine and outcome",
		}, []string{"engine", "result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "wasmship",
			Name:      "invocation_duration_seconds",
			Help:      "time spent per invocation including backend load",
			Buckets:   prometheus.DefBuckets,
		}, []string{"engine"}),
		loaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "wasmship",
			Name:      "backends_loaded",
			Help:      "number of live backend instances",
		}),
	}
	for _, c := range []prometheus.Collector{m.invocations, m.duration, m.loaded} {
		if err := r.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observeInvocation(engine string, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
		if kind, ok := errors.KindOf(err); ok {
			result = string(kind)
		}
	}
	m.invocations.WithLabelValues(engine, result).Inc()
	m.duration.WithLabelValues(engine).Observe(elapsed.Seconds())
}

func (m *Metrics) backendLoaded() {
	if m == nil {
		return
	}
	m.loaded.Inc()
}

func (m *Metrics) backendUnloaded() {
	if m == nil {
		return
	}
	m.loaded.Dec()
}
