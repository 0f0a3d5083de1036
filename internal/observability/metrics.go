package observability

import (
	"fmt"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cartographai/discovery-backend/internal/platform/logger"
)

// Metrics is a small hand-rolled registry exposed in Prometheus text format.
// It is opt-in via METRICS_ENABLED so the engine stays dependency-free in the
// common path; Current() returns nil when disabled.
type Metrics struct {
	apiRequests *CounterVec
	apiLatency  *HistogramVec

	llmRequests *CounterVec
	llmLatency  *HistogramVec

	catalogRequests *CounterVec
	catalogLatency  *HistogramVec
	catalogWaits    *Counter

	mappingFallbacks *CounterVec
}

var (
	initOnce sync.Once
	instance *Metrics
)

func Enabled() bool {
	v := strings.TrimSpace(os.Getenv("METRICS_ENABLED"))
	if v == "" {
		return false
	}
	return strings.EqualFold(v, "true") || v == "1" || strings.EqualFold(v, "yes")
}

func Current() *Metrics {
	return instance
}

func Init(log *logger.Logger) *Metrics {
	if !Enabled() {
		return nil
	}
	initOnce.Do(func() {
		instance = &Metrics{
			apiRequests: NewCounterVec("dw_api_requests_total", "Total API requests by method/route/status.", []string{"method", "route", "status"}),
			apiLatency: NewHistogramVec(
				"dw_api_request_duration_seconds",
				"API request latency in seconds by method/route/status.",
				[]string{"method", "route", "status"},
				[]float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
			),
			llmRequests: NewCounterVec("dw_llm_requests_total", "Text-completion requests by model/endpoint/status.", []string{"model", "endpoint", "status"}),
			llmLatency: NewHistogramVec(
				"dw_llm_request_duration_seconds",
				"Text-completion latency in seconds by model/endpoint/status.",
				[]string{"model", "endpoint", "status"},
				[]float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60, 120},
			),
			catalogRequests: NewCounterVec("dw_catalog_requests_total", "Occupation catalog requests by endpoint/status.", []string{"endpoint", "status"}),
			catalogLatency: NewHistogramVec(
				"dw_catalog_request_duration_seconds",
				"Occupation catalog latency in seconds by endpoint/status.",
				[]string{"endpoint", "status"},
				[]float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			),
			catalogWaits:     NewCounter("dw_catalog_rate_limit_waits_total", "Calls that waited on the catalog rate limiter."),
			mappingFallbacks: NewCounterVec("dw_mapping_fallback_total", "Role-mapping batch fallbacks by reason.", []string{"reason"}),
		}
		if log != nil {
			log.Info("Observability metrics enabled")
		}
	})
	return instance
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.apiRequests.Inc(method, route, status)
	m.apiLatency.Observe(dur.Seconds(), method, route, status)
}

func (m *Metrics) ObserveLLMRequest(model, endpoint, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.llmRequests.Inc(model, endpoint, status)
	m.llmLatency.Observe(dur.Seconds(), model, endpoint, status)
}

func (m *Metrics) ObserveCatalogRequest(endpoint, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.catalogRequests.Inc(endpoint, status)
	m.catalogLatency.Observe(dur.Seconds(), endpoint, status)
}

func (m *Metrics) IncCatalogWait() {
	if m == nil {
		return
	}
	m.catalogWaits.Inc()
}

func (m *Metrics) IncMappingFallback(reason string) {
	if m == nil {
		return
	}
	m.mappingFallbacks.Inc(reason)
}

// WriteHTTP renders every registered metric in Prometheus text format.
func (m *Metrics) WriteHTTP(w http.ResponseWriter, _ *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	var b strings.Builder
	m.apiRequests.Render(&b)
	m.apiLatency.Render(&b)
	m.llmRequests.Render(&b)
	m.llmLatency.Render(&b)
	m.catalogRequests.Render(&b)
	m.catalogLatency.Render(&b)
	m.catalogWaits.Render(&b)
	m.mappingFallbacks.Render(&b)
	_, _ = w.Write([]byte(b.String()))
}

// ---- primitives ----

const labelSep = "\x1f"

type Counter struct {
	name string
	help string
	mu   sync.Mutex
	v    float64
}

func NewCounter(name, help string) *Counter {
	return &Counter{name: name, help: help}
}

func (c *Counter) Inc() {
	c.mu.Lock()
	c.v++
	c.mu.Unlock()
}

func (c *Counter) Render(b *strings.Builder) {
	c.mu.Lock()
	v := c.v
	c.mu.Unlock()
	fmt.Fprintf(b, "# HELP %s %s\n# TYPE %s counter\n%s %g\n", c.name, c.help, c.name, c.name, v)
}

type CounterVec struct {
	name   string
	help   string
	labels []string
	mu     sync.Mutex
	v      map[string]float64
}

func NewCounterVec(name, help string, labels []string) *CounterVec {
	return &CounterVec{name: name, help: help, labels: labels, v: map[string]float64{}}
}

func (c *CounterVec) Inc(labelValues ...string) {
	key := strings.Join(labelValues, labelSep)
	c.mu.Lock()
	c.v[key]++
	c.mu.Unlock()
}

func (c *CounterVec) Render(b *strings.Builder) {
	c.mu.Lock()
	keys := make([]string, 0, len(c.v))
	for k := range c.v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fmt.Fprintf(b, "# HELP %s %s\n# TYPE %s counter\n", c.name, c.help, c.name)
	for _, k := range keys {
		fmt.Fprintf(b, "%s{%s} %g\n", c.name, c.labelPairs(k), c.v[k])
	}
	c.mu.Unlock()
}

func (c *CounterVec) labelPairs(key string) string {
	vals := strings.Split(key, labelSep)
	pairs := make([]string, 0, len(c.labels))
	for i, l := range c.labels {
		v := ""
		if i < len(vals) {
			v = vals[i]
		}
		pairs = append(pairs, fmt.Sprintf("%s=%q", l, v))
	}
	return strings.Join(pairs, ",")
}

type HistogramVec struct {
	name    string
	help    string
	labels  []string
	buckets []float64
	mu      sync.Mutex
	counts  map[string][]uint64
	sums    map[string]float64
	totals  map[string]uint64
}

func NewHistogramVec(name, help string, labels []string, buckets []float64) *HistogramVec {
	return &HistogramVec{
		name:    name,
		help:    help,
		labels:  labels,
		buckets: buckets,
		counts:  map[string][]uint64{},
		sums:    map[string]float64{},
		totals:  map[string]uint64{},
	}
}

func (h *HistogramVec) Observe(value float64, labelValues ...string) {
	key := strings.Join(labelValues, labelSep)
	h.mu.Lock()
	counts, ok := h.counts[key]
	if !ok {
		counts = make([]uint64, len(h.buckets))
		h.counts[key] = counts
	}
	for i, upper := range h.buckets {
		if value <= upper {
			counts[i]++
		}
	}
	h.sums[key] += value
	h.totals[key]++
	h.mu.Unlock()
}

func (h *HistogramVec) Render(b *strings.Builder) {
	h.mu.Lock()
	keys := make([]string, 0, len(h.counts))
	for k := range h.counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fmt.Fprintf(b, "# HELP %s %s\n# TYPE %s histogram\n", h.name, h.help, h.name)
	for _, k := range keys {
		pairs := h.labelPairs(k)
		for i, upper := range h.buckets {
			fmt.Fprintf(b, "%s_bucket{%s,le=%q} %d\n", h.name, pairs, fmt.Sprintf("%g", upper), h.counts[k][i])
		}
		fmt.Fprintf(b, "%s_bucket{%s,le=\"+Inf\"} %d\n", h.name, pairs, h.totals[k])
		fmt.Fprintf(b, "%s_sum{%s} %g\n", h.name, pairs, h.sums[k])
		fmt.Fprintf(b, "%s_count{%s} %d\n", h.name, pairs, h.totals[k])
	}
	h.mu.Unlock()
}

func (h *HistogramVec) labelPairs(key string) string {
	vals := strings.Split(key, labelSep)
	pairs := make([]string, 0, len(h.labels))
	for i, l := range h.labels {
		v := ""
		if i < len(vals) {
			v = vals[i]
		}
		pairs = append(pairs, fmt.Sprintf("%s=%q", l, v))
	}
	return strings.Join(pairs, ",")
}
