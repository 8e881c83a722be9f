package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "akini"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	buildDuration *prom.HistogramVec
	buildResults  *prom.CounterVec
	coalesced     prom.Counter
	inFlight      prom.Gauge
	watchEvents   *prom.CounterVec
	fullBuilds    prom.Counter
}

// NewPrometheusRecorder constructs the metrics and registers them with reg, or
// with a fresh registry when reg is nil.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		buildDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "page_build_duration_seconds",
			Help:      "Wall time of isolated page builds",
			Buckets:   prom.DefBuckets,
		}, []string{"result"}),
		buildResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "page_build_results_total",
			Help:      "Isolated page builds by result",
		}, []string{"result"}),
		coalesced: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "page_build_coalesced_total",
			Help:      "Spawn requests folded into a pending rebuild of the same page",
		}),
		inFlight: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "page_builds_in_flight",
			Help:      "Isolated page builds currently running",
		}),
		watchEvents: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "watch_events_total",
			Help:      "Filesystem events seen by the watch loop by outcome",
		}, []string{"result"}),
		fullBuilds: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "full_builds_total",
			Help:      "Full walks of the pages tree",
		}),
	}
	reg.MustRegister(pr.buildDuration, pr.buildResults, pr.coalesced, pr.inFlight, pr.watchEvents, pr.fullBuilds)
	return pr
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration, result ResultLabel) {
	if p == nil {
		return
	}
	p.buildDuration.WithLabelValues(string(result)).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncBuildResult(result ResultLabel) {
	if p == nil {
		return
	}
	p.buildResults.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) IncCoalesced() {
	if p == nil {
		return
	}
	p.coalesced.Inc()
}

func (p *PrometheusRecorder) SetBuildsInFlight(n int) {
	if p == nil {
		return
	}
	p.inFlight.Set(float64(n))
}

func (p *PrometheusRecorder) IncWatchEvent(result DispatchLabel) {
	if p == nil {
		return
	}
	p.watchEvents.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) IncFullBuild() {
	if p == nil {
		return
	}
	p.fullBuilds.Inc()
}
