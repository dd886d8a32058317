// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package metrics is a facade over the metrics backend. Meters are no-ops
// until InitializePrometheusMetrics is called, so packages can declare them
// unconditionally.
package metrics

import (
	"net/http"
	"sync"
)

var (
	mu      sync.RWMutex
	backend Backend = noopBackend{}
)

func current() Backend {
	mu.RLock()
	defer mu.RUnlock()
	return backend
}

// Backend creates meters. Asking twice for the same name returns the same
// meter.
type Backend interface {
	CounterVec(name string, labels []string) CounterVecMeter
	Gauge(name string) GaugeMeter
	Histogram(name string, buckets []int64) HistogramMeter
	HistogramVec(name string, labels []string, buckets []int64) HistogramVecMeter
	Handler() http.Handler
}

type (
	CounterVecMeter interface {
		AddWithLabel(n int64, labels map[string]string)
	}
	GaugeMeter interface {
		Set(v int64)
		Add(n int64)
	}
	HistogramMeter interface {
		Observe(v int64)
	}
	HistogramVecMeter interface {
		ObserveWithLabels(v int64, labels map[string]string)
	}
)

// Histogram buckets, in milliseconds unless named otherwise.
var (
	Bucket10s      = []int64{0, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10_000}
	BucketHTTPReqs = []int64{
		0, 1, 2, 5, 10, 20, 30, 50, 75, 100,
		150, 200, 300, 400, 500, 750, 1000,
		1500, 2000, 3000, 5000, 10000,
	}
	BucketBatchSize = []int64{1, 2, 4, 8, 16, 32, 64, 128, 256}
)

// HTTPHandler serves the collected metrics, or nil while disabled.
func HTTPHandler() http.Handler { return current().Handler() }

func CounterVec(name string, labels []string) CounterVecMeter {
	return current().CounterVec(name, labels)
}

func Gauge(name string) GaugeMeter { return current().Gauge(name) }

func Histogram(name string, buckets []int64) HistogramMeter {
	return current().Histogram(name, buckets)
}

func HistogramVec(name string, labels []string, buckets []int64) HistogramVecMeter {
	return current().HistogramVec(name, labels, buckets)
}

// LazyLoad defers creating a meter to its first use, so package level meter
// vars pick up the backend chosen at startup.
func LazyLoad[T any](create func() T) func() T {
	return sync.OnceValue(create)
}

func LazyLoadCounterVec(name string, labels []string) func() CounterVecMeter {
	return LazyLoad(func() CounterVecMeter { return CounterVec(name, labels) })
}

func LazyLoadGauge(name string) func() GaugeMeter {
	return LazyLoad(func() GaugeMeter { return Gauge(name) })
}

func LazyLoadHistogram(name string, buckets []int64) func() HistogramMeter {
	return LazyLoad(func() HistogramMeter { return Histogram(name, buckets) })
}

func LazyLoadHistogramVec(name string, labels []string, buckets []int64) func() HistogramVecMeter {
	return LazyLoad(func() HistogramVecMeter { return HistogramVec(name, labels, buckets) })
}
