// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package metrics

import "net/http"

type noopBackend struct{}

func (noopBackend) CounterVec(string, []string) CounterVecMeter { return noopMeter{} }
func (noopBackend) Gauge(string) GaugeMeter                     { return noopMeter{} }
func (noopBackend) Histogram(string, []int64) HistogramMeter    { return noopMeter{} }
func (noopBackend) HistogramVec(string, []string, []int64) HistogramVecMeter {
	return noopMeter{}
}
func (noopBackend) Handler() http.Handler { return nil }

// noopMeter implements every meter interface.
type noopMeter struct{}

func (noopMeter) AddWithLabel(int64, map[string]string)      {}
func (noopMeter) ObserveWithLabels(int64, map[string]string) {}
func (noopMeter) Set(int64)                                  {}
func (noopMeter) Add(int64)                                  {}
func (noopMeter) Observe(int64)                              {}
