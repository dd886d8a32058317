// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package node

import (
	"context"
	"time"

	"github.com/beevik/ntp"
	"github.com/elastic/gosigar"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/fdlimit"
)

const (
	clockCheckInterval = 10 * time.Minute
	// lock expiry is judged by the local clock
	maxClockOffset = 2 * time.Second

	minCacheMiB   = 16
	maxOpenFiles  = 1024
	minOpenFiles  = 16
	lowFDLimitCap = 1024
)

// houseKeeping checks the local clock against the NTP server until ctx is
// done.
func (n *Node) houseKeeping(ctx context.Context) error {
	server := n.cfg.NTPServer
	ticker := time.NewTicker(clockCheckInterval)
	defer ticker.Stop()

	checkClockOffset(server)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			checkClockOffset(server)
		}
	}
}

func checkClockOffset(server string) {
	resp, err := ntp.Query(server)
	if err != nil {
		logger.Debug("failed to access NTP", "server", server, "error", err)
		return
	}
	metricClockOffset().Set(resp.ClockOffset.Milliseconds())
	if resp.ClockOffset.Abs() > maxClockOffset {
		logger.Warn("clock offset detected", "offset", common.PrettyDuration(resp.ClockOffset))
	}
}

// normalizeCacheSize keeps the state cache within half of the physical
// memory.
func normalizeCacheSize(sizeMiB int) int {
	sizeMiB = max(sizeMiB, minCacheMiB)

	var mem gosigar.Mem
	if err := mem.Get(); err != nil {
		logger.Warn("failed to get total mem", "error", err)
		return sizeMiB
	}
	if limit := int(mem.Total / 1024 / 1024 / 2); sizeMiB > limit {
		logger.Warn("cache size limited", "limit", limit)
		return max(limit, minCacheMiB)
	}
	return sizeMiB
}

// suggestOpenFiles leaves half of the fd limit to the rest of the process.
func suggestOpenFiles() int {
	limit, err := fdlimit.Current()
	if err != nil {
		logger.Warn("failed to get fd limit", "error", err)
		return minOpenFiles
	}
	if limit <= lowFDLimitCap {
		logger.Warn("low fd limit, increase it if possible", "limit", limit)
	}
	return min(max(limit/2, minOpenFiles), maxOpenFiles)
}
