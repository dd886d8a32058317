// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reset() {
	mu.Lock()
	defer mu.Unlock()
	backend = noopBackend{}
}

func TestNoopByDefault(t *testing.T) {
	reset()

	for _, m := range []any{
		Gauge("g"),
		CounterVec("cv", nil),
		Histogram("h", nil),
		HistogramVec("hv", nil, nil),
	} {
		require.IsType(t, noopMeter{}, m)
	}
	assert.Nil(t, HTTPHandler())
	assert.Nil(t, Gatherer())
}

func TestPrometheusMeters(t *testing.T) {
	reset()
	InitializePrometheusMetrics()
	t.Cleanup(reset)

	CounterVec("ops", []string{"kind"}).AddWithLabel(1, map[string]string{"kind": "a"})
	CounterVec("ops", []string{"kind"}).AddWithLabel(4, map[string]string{"kind": "b"})
	Gauge("active").Set(7)
	Gauge("active").Add(-2)
	Histogram("batch", BucketBatchSize).Observe(12)
	HistogramVec("latency", []string{"op"}, nil).ObserveWithLabels(8, map[string]string{"op": "stake"})

	families, err := Gatherer().Gather()
	require.NoError(t, err)
	byName := make(map[string]*dto.MetricFamily)
	for _, mf := range families {
		byName[mf.GetName()] = mf
	}

	sum := 0.0
	for _, m := range byName["resolvernet_ops"].Metric {
		sum += m.GetCounter().GetValue()
	}
	assert.Equal(t, float64(5), sum)
	assert.Equal(t, float64(5), byName["resolvernet_active"].Metric[0].GetGauge().GetValue())
	assert.Equal(t, float64(12), byName["resolvernet_batch"].Metric[0].GetHistogram().GetSampleSum())
	assert.Equal(t, uint64(1), byName["resolvernet_latency"].Metric[0].GetHistogram().GetSampleCount())

	srv := httptest.NewServer(HTTPHandler())
	defer srv.Close()
	res, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer res.Body.Close()
	var parser expfmt.TextParser
	served, err := parser.TextToMetricFamilies(res.Body)
	require.NoError(t, err)
	require.Contains(t, served, "resolvernet_active")
	assert.Equal(t, float64(5), served["resolvernet_active"].Metric[0].GetGauge().GetValue())
	assert.Contains(t, served, "go_goroutines")
}

func TestNameReusedWithAnotherType(t *testing.T) {
	reset()
	InitializePrometheusMetrics()
	t.Cleanup(reset)

	Gauge("shared").Set(1)
	// registration fails, the meter still works
	assert.NotPanics(t, func() { Histogram("shared", nil).Observe(1) })
}

func TestLazyLoading(t *testing.T) {
	reset()
	t.Cleanup(reset)

	lazyGauge := LazyLoadGauge("lazy_gauge")
	lazyCounterVec := LazyLoadCounterVec("lazy_counter_vec", nil)
	lazyHistogram := LazyLoadHistogram("lazy_histogram", nil)
	lazyHistogramVec := LazyLoadHistogramVec("lazy_histogram_vec", nil, nil)

	// meters first used after initialization are backed by prometheus
	InitializePrometheusMetrics()

	require.IsType(t, promGauge{}, lazyGauge())
	require.IsType(t, promCounterVec{}, lazyCounterVec())
	require.IsType(t, promHistogram{}, lazyHistogram())
	require.IsType(t, promHistogramVec{}, lazyHistogramVec())
	assert.Equal(t, lazyGauge(), lazyGauge())
}
