package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	passDuration    prom.Histogram
	passOutcome     *prom.CounterVec
	jobDuration     *prom.HistogramVec
	jobResults      *prom.CounterVec
	collectionItems *prom.GaugeVec
	cacheLookups    *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers the pass metrics on reg.
func NewPrometheusRecorder(reg prom.Registerer) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		passDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "pagebuilder",
			Name:      "pass_duration_seconds",
			Help:      "Duration of full compile passes",
			Buckets:   prom.DefBuckets,
		}),
		passOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "pagebuilder",
			Name:      "pass_outcomes_total",
			Help:      "Compile passes by final status",
		}, []string{"outcome"}),
		jobDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "pagebuilder",
			Name:      "job_duration_seconds",
			Help:      "Duration of individual render jobs",
			Buckets:   prom.DefBuckets,
		}, []string{"kind"}),
		jobResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "pagebuilder",
			Name:      "job_results_total",
			Help:      "Render job results by kind and outcome",
		}, []string{"kind", "result"}),
		collectionItems: prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: "pagebuilder",
			Name:      "collection_items",
			Help:      "Items in each collection as of the last pass",
		}, []string{"collection"}),
		cacheLookups: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "pagebuilder",
			Name:      "frontmatter_cache_lookups_total",
			Help:      "Front matter cache lookups by result",
		}, []string{"result"}),
	}
	reg.MustRegister(pr.passDuration, pr.passOutcome, pr.jobDuration, pr.jobResults, pr.collectionItems, pr.cacheLookups)
	return pr
}

func (p *PrometheusRecorder) ObservePassDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.passDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncPassOutcome(outcome PassOutcome) {
	if p == nil {
		return
	}
	p.passOutcome.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) ObserveJobDuration(kind string, d time.Duration) {
	if p == nil {
		return
	}
	p.jobDuration.WithLabelValues(kind).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncJobResult(kind string, result JobResult) {
	if p == nil {
		return
	}
	p.jobResults.WithLabelValues(kind, string(result)).Inc()
}

func (p *PrometheusRecorder) SetCollectionItems(collection string, n int) {
	if p == nil {
		return
	}
	p.collectionItems.WithLabelValues(collection).Set(float64(n))
}

func (p *PrometheusRecorder) IncCacheLookup(hit bool) {
	if p == nil {
		return
	}
	res := "miss"
	if hit {
		res = "hit"
	}
	p.cacheLookups.WithLabelValues(res).Inc()
}
