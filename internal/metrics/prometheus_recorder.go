package metrics

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"git.home.luguber.info/inful/syllabi/internal/foundation/errors"
)

const namespace = "syllabi"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	reg            *prom.Registry
	pagesGenerated *prom.CounterVec
	uploadDuration *prom.HistogramVec
	pageResults    *prom.CounterVec
	retries        *prom.CounterVec
	runDuration    *prom.HistogramVec
	runOutcome     *prom.CounterVec
	unmatched      prom.Gauge
	lastRun        prom.Gauge
}

// NewPrometheusRecorder constructs and registers the metrics on reg (a fresh registry when nil).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		reg: reg,
		pagesGenerated: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "pages_generated_total",
			Help:      "Rendered pages by kind",
		}, []string{"kind"}),
		uploadDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "page_upload_duration_seconds",
			Help:      "Duration of individual page uploads",
			Buckets:   prom.DefBuckets,
		}, []string{"target", "result"}),
		pageResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "page_results_total",
			Help:      "Page outcomes by target and result",
		}, []string{"target", "result"}),
		retries: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "upload_retries_total",
			Help:      "Retried uploads after transient failures",
		}, []string{"target"}),
		runDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "publish_run_duration_seconds",
			Help:      "Total publish run duration",
			Buckets:   prom.DefBuckets,
		}, []string{"target"}),
		runOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "publish_runs_total",
			Help:      "Publish runs by outcome",
		}, []string{"outcome"}),
		unmatched: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "index_unmatched_links",
			Help:      "Published codes missing from the index after the last reconcile",
		}),
		lastRun: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time of the last finished publish run",
		}),
	}
	reg.MustRegister(pr.pagesGenerated, pr.uploadDuration, pr.pageResults, pr.retries,
		pr.runDuration, pr.runOutcome, pr.unmatched, pr.lastRun)
	return pr
}

func (p *PrometheusRecorder) IncPagesGenerated(kind string, n int) {
	if p == nil {
		return
	}
	p.pagesGenerated.WithLabelValues(kind).Add(float64(n))
}

func (p *PrometheusRecorder) ObservePageUpload(target string, d time.Duration, result ResultLabel) {
	if p == nil {
		return
	}
	p.pageResults.WithLabelValues(target, string(result)).Inc()
	if result != ResultSkipped {
		p.uploadDuration.WithLabelValues(target, string(result)).Observe(d.Seconds())
	}
}

func (p *PrometheusRecorder) IncUploadRetry(target string) {
	if p == nil {
		return
	}
	p.retries.WithLabelValues(target).Inc()
}

func (p *PrometheusRecorder) ObserveRunDuration(target string, d time.Duration) {
	if p == nil {
		return
	}
	p.runDuration.WithLabelValues(target).Observe(d.Seconds())
	p.lastRun.SetToCurrentTime()
}

func (p *PrometheusRecorder) IncRunOutcome(outcome string) {
	if p == nil {
		return
	}
	p.runOutcome.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) SetUnmatchedLinks(n int) {
	if p == nil {
		return
	}
	p.unmatched.Set(float64(n))
}

// WriteTextfile writes the registry in the text exposition format, for the
// node_exporter textfile collector.
func (p *PrometheusRecorder) WriteTextfile(path string) error {
	if err := prom.WriteToTextfile(path, p.reg); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to write metrics textfile").
			WithContext("file", path).
			Build()
	}
	return nil
}

// Handler serves the registry over HTTP.
func (p *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(p.reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
