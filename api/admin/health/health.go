// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package health

import (
	"sync"
	"time"
)

type EventIngestion struct {
	Published uint64     `json:"published"`
	Recorded  uint64     `json:"recorded"`
	Timestamp *time.Time `json:"timestamp"`
}

type Status struct {
	Healthy        bool            `json:"healthy"`
	Recording      bool            `json:"recording"`
	EventIngestion *EventIngestion `json:"eventIngestion"`
}

// Health tracks how far the event recorder lags behind the network.
type Health struct {
	lock       sync.RWMutex
	published  uint64
	recorded   uint64
	recordedAt time.Time
	recording  bool
}

// Published notes the sequence number of the newest published event.
func (h *Health) Published(seq uint64) {
	h.lock.Lock()
	defer h.lock.Unlock()

	if seq > h.published {
		h.published = seq
	}
}

// Recorded notes the sequence number of the newest persisted event.
func (h *Health) Recorded(seq uint64) {
	h.lock.Lock()
	defer h.lock.Unlock()

	if seq > h.recorded {
		h.recorded = seq
		h.recordedAt = time.Now()
	}
	if seq > h.published {
		h.published = seq
	}
}

// Recording flags whether the recorder is running.
func (h *Health) Recording(running bool) {
	h.lock.Lock()
	defer h.lock.Unlock()

	h.recording = running
}

// Status reports healthy while the recorder runs and trails the network by at
// most maxLag events.
func (h *Health) Status(maxLag uint64) *Status {
	h.lock.RLock()
	defer h.lock.RUnlock()

	ingestion := &EventIngestion{
		Published: h.published,
		Recorded:  h.recorded,
	}
	if !h.recordedAt.IsZero() {
		ts := h.recordedAt
		ingestion.Timestamp = &ts
	}
	return &Status{
		Healthy:        h.recording && h.published-h.recorded <= maxLag,
		Recording:      h.recording,
		EventIngestion: ingestion,
	}
}
