// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package co

import (
	"context"
	"sync"
)

// Watermark is a monotonic progress marker that goroutines can wait on.
// The zero value is ready to use.
type Watermark struct {
	mu    sync.Mutex
	value uint64
	ch    chan struct{}
}

func (w *Watermark) changed() chan struct{} {
	if w.ch == nil {
		w.ch = make(chan struct{})
	}
	return w.ch
}

// Value returns the current mark.
func (w *Watermark) Value() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.value
}

// Advance raises the mark to v and wakes every waiter. Lower values are ignored.
func (w *Watermark) Advance(v uint64) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if v <= w.value {
		return
	}
	w.value = v
	close(w.changed())
	w.ch = make(chan struct{})
}

// WaitFor blocks until the mark reaches v or ctx is done.
func (w *Watermark) WaitFor(ctx context.Context, v uint64) error {
	for {
		w.mu.Lock()
		if w.value >= v {
			w.mu.Unlock()
			return nil
		}
		ch := w.changed()
		w.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
