// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package co holds the concurrency helpers shared by the node and the API.
package co

import "sync"

// Goes tracks goroutines so their owner can wait for them on shutdown.
// The zero value is ready to use.
type Goes struct {
	wg sync.WaitGroup
}

func (g *Goes) Go(f func()) {
	g.wg.Go(f)
}

// Wait blocks until every goroutine started by Go has returned.
func (g *Goes) Wait() {
	g.wg.Wait()
}

// Done is closed once every goroutine started so far has returned.
func (g *Goes) Done() <-chan struct{} {
	done := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(done)
	}()
	return done
}
