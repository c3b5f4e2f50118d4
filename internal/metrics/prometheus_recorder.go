package metrics

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	opDuration  *prom.HistogramVec
	opResults   *prom.CounterVec
	cacheHits   prom.Counter
	cacheSize   prom.Gauge
	errorsShown *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers the metrics on reg.
// A nil reg gets a fresh registry.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		opDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "todo",
			Name:      "backend_op_duration_seconds",
			Help:      "Duration of data service operations",
			Buckets:   prom.DefBuckets,
		}, []string{"op", "result"}),
		opResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "todo",
			Name:      "backend_op_results_total",
			Help:      "Data service operations by outcome",
		}, []string{"op", "result"}),
		cacheHits: prom.NewCounter(prom.CounterOpts{
			Namespace: "todo",
			Name:      "cache_hits_total",
			Help:      "Single-todo reads served from the repository cache",
		}),
		cacheSize: prom.NewGauge(prom.GaugeOpts{
			Namespace: "todo",
			Name:      "cache_size",
			Help:      "Number of todos held in the repository cache",
		}),
		errorsShown: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "todo",
			Name:      "errors_shown_total",
			Help:      "Errors surfaced to the UI by kind",
		}, []string{"kind"}),
	}
	reg.MustRegister(pr.opDuration, pr.opResults, pr.cacheHits, pr.cacheSize, pr.errorsShown)
	return pr
}

func (p *PrometheusRecorder) ObserveOp(op string, d time.Duration, success bool) {
	if p == nil {
		return
	}
	res := ResultFailed
	if success {
		res = ResultSuccess
	}
	p.opDuration.WithLabelValues(op, res).Observe(d.Seconds())
	p.opResults.WithLabelValues(op, res).Inc()
}

func (p *PrometheusRecorder) IncCacheHit() {
	if p == nil {
		return
	}
	p.cacheHits.Inc()
}

func (p *PrometheusRecorder) SetCacheSize(n int) {
	if p == nil {
		return
	}
	p.cacheSize.Set(float64(n))
}

func (p *PrometheusRecorder) IncErrorShown(kind string) {
	if p == nil {
		return
	}
	p.errorsShown.WithLabelValues(kind).Inc()
}

// HTTPHandler serves the metrics registered on reg.
func HTTPHandler(reg *prom.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
