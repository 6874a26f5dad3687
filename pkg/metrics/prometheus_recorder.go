package metrics

import (
	"fmt"
	"strconv"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	registry      *prom.Registry
	fetchDuration *prom.HistogramVec
	pages         *prom.CounterVec
	records       *prom.CounterVec
	details       *prom.CounterVec
	decodeErrors  *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers the scrape metrics on reg.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		registry: reg,
		fetchDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "fbscraper",
			Name:      "fetch_duration_seconds",
			Help:      "Duration of connector requests",
			Buckets:   prom.DefBuckets,
		}, []string{"status"}),
		pages: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "fbscraper",
			Name:      "pages_total",
			Help:      "Feed pages normalized",
		}, []string{"feed"}),
		records: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "fbscraper",
			Name:      "records_total",
			Help:      "Records emitted",
		}, []string{"kind"}),
		details: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "fbscraper",
			Name:      "detail_fetches_total",
			Help:      "Video detail fetches by outcome",
		}, []string{"outcome"}),
		decodeErrors: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "fbscraper",
			Name:      "attribute_decode_errors_total",
			Help:      "Malformed metadata attributes recovered during extraction",
		}, []string{"attribute"}),
	}
	reg.MustRegister(pr.fetchDuration, pr.pages, pr.records, pr.details, pr.decodeErrors)
	return pr
}

func (p *PrometheusRecorder) ObserveFetch(status int, d time.Duration) {
	p.fetchDuration.WithLabelValues(strconv.Itoa(status)).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncPages(feed string) {
	p.pages.WithLabelValues(feed).Inc()
}

func (p *PrometheusRecorder) IncRecords(kind string) {
	p.records.WithLabelValues(kind).Inc()
}

func (p *PrometheusRecorder) IncDetail(outcome DetailOutcome) {
	p.details.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) IncDecodeErrors(attribute string) {
	p.decodeErrors.WithLabelValues(attribute).Inc()
}

// Registry exposes the underlying registry for gathering.
func (p *PrometheusRecorder) Registry() *prom.Registry {
	return p.registry
}

// WriteTextfile writes the current metrics in node-exporter textfile format.
func (p *PrometheusRecorder) WriteTextfile(path string) error {
	if err := prom.WriteToTextfile(path, p.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
