// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vechain/resolvernet/log"
)

const namespace = "resolvernet"

var logger = log.WithContext("pkg", "metrics")

// InitializePrometheusMetrics switches the facade to a Prometheus backend with
// its own registry. Later calls are no-ops.
func InitializePrometheusMetrics() {
	mu.Lock()
	defer mu.Unlock()

	if _, ok := backend.(*promBackend); !ok {
		backend = newPromBackend()
	}
}

// Gatherer returns the Prometheus registry, or nil while disabled.
func Gatherer() prometheus.Gatherer {
	if p, ok := current().(*promBackend); ok {
		return p.registry
	}
	return nil
}

type promBackend struct {
	registry *prometheus.Registry
	meters   sync.Map // name -> meter
	mu       sync.Mutex
}

func newPromBackend() *promBackend {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{Namespace: namespace}),
	)
	return &promBackend{registry: registry}
}

// meter returns the meter registered under name, creating it once.
func meter[T any](b *promBackend, name string, create func() (prometheus.Collector, T)) T {
	if m, ok := b.meters.Load(name); ok {
		if t, ok := m.(T); ok {
			return t
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if m, ok := b.meters.Load(name); ok {
		if t, ok := m.(T); ok {
			return t
		}
		logger.Warn("metric name reused with another type", "name", name)
	}
	collector, t := create()
	if err := b.registry.Register(collector); err != nil {
		logger.Warn("unable to register metric", "name", name, "error", err)
	}
	b.meters.Store(name, t)
	return t
}

func floatBuckets(buckets []int64) []float64 {
	if len(buckets) == 0 {
		return nil
	}
	out := make([]float64, len(buckets))
	for i, b := range buckets {
		out[i] = float64(b)
	}
	return out
}

func (b *promBackend) Handler() http.Handler {
	return promhttp.HandlerFor(b.registry, promhttp.HandlerOpts{})
}

func (b *promBackend) CounterVec(name string, labels []string) CounterVecMeter {
	return meter(b, name, func() (prometheus.Collector, CounterVecMeter) {
		c := prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: name}, labels)
		return c, promCounterVec{c}
	})
}

func (b *promBackend) Gauge(name string) GaugeMeter {
	return meter(b, name, func() (prometheus.Collector, GaugeMeter) {
		g := prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: name})
		return g, promGauge{g}
	})
}

func (b *promBackend) Histogram(name string, buckets []int64) HistogramMeter {
	return meter(b, name, func() (prometheus.Collector, HistogramMeter) {
		h := prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      name,
			Buckets:   floatBuckets(buckets),
		})
		return h, promHistogram{h}
	})
}

func (b *promBackend) HistogramVec(name string, labels []string, buckets []int64) HistogramVecMeter {
	return meter(b, name, func() (prometheus.Collector, HistogramVecMeter) {
		h := prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      name,
			Buckets:   floatBuckets(buckets),
		}, labels)
		return h, promHistogramVec{h}
	})
}

type promCounterVec struct{ *prometheus.CounterVec }

func (c promCounterVec) AddWithLabel(n int64, labels map[string]string) {
	c.With(labels).Add(float64(n))
}

type promGauge struct{ g prometheus.Gauge }

func (g promGauge) Set(v int64) { g.g.Set(float64(v)) }
func (g promGauge) Add(n int64) { g.g.Add(float64(n)) }

type promHistogram struct{ h prometheus.Histogram }

func (h promHistogram) Observe(v int64) { h.h.Observe(float64(v)) }

type promHistogramVec struct{ *prometheus.HistogramVec }

func (h promHistogramVec) ObserveWithLabels(v int64, labels map[string]string) {
	h.With(labels).Observe(float64(v))
}
