// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package co_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/resolvernet/co"
)

func TestGoes(t *testing.T) {
	var (
		goes co.Goes
		n    atomic.Int32
	)
	for range 10 {
		goes.Go(func() { n.Add(1) })
	}
	select {
	case <-goes.Done():
	case <-time.After(time.Second):
		t.Fatal("goroutines did not finish")
	}
	assert.Equal(t, int32(10), n.Load())
}

func TestWatermarkAdvance(t *testing.T) {
	var w co.Watermark
	assert.Equal(t, uint64(0), w.Value())

	w.Advance(5)
	w.Advance(3)
	assert.Equal(t, uint64(5), w.Value())

	require.NoError(t, w.WaitFor(context.Background(), 4))
}

func TestWatermarkWakesWaiters(t *testing.T) {
	var (
		w    co.Watermark
		goes co.Goes
		errs = make(chan error, 3)
	)
	for range 3 {
		goes.Go(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			errs <- w.WaitFor(ctx, 7)
		})
	}

	w.Advance(6)
	w.Advance(7)
	goes.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}
}

func TestWatermarkCanceled(t *testing.T) {
	var w co.Watermark
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, w.WaitFor(ctx, 1), context.Canceled)
}
