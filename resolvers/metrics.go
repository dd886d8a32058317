// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package resolvers

import (
	"github.com/vechain/resolvernet/metrics"
)

var (
	metricOperationCount    = metrics.LazyLoadCounterVec("resolver_operations_count", []string{"op", "outcome"})
	metricOperationDuration = metrics.LazyLoadHistogramVec("resolver_operation_duration_ms", []string{"op"}, metrics.Bucket10s)
	metricEventCount        = metrics.LazyLoadCounterVec("resolver_events_count", []string{"kind"})
	metricActiveResolvers   = metrics.LazyLoadGauge("resolver_active_count")
)
