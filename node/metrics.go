// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package node

import "github.com/vechain/resolvernet/metrics"

var (
	metricRecordedSeq     = metrics.LazyLoadGauge("event_recorded_seq")
	metricRecordBatchSize = metrics.LazyLoadHistogram("event_record_batch_size", metrics.BucketBatchSize)
	metricRecordFailures  = metrics.LazyLoadCounterVec("event_record_failures_count", []string{"reason"})
	metricClockOffset     = metrics.LazyLoadGauge("clock_offset_ms")
)
