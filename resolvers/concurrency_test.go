// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package resolvers

import (
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/resolvernet/rnet"
)

func TestConcurrentOperationsOnOneResolver(t *testing.T) {
	tn := newTestNetwork(t)
	require.NoError(t, tn.SelfStake(alice, big.NewInt(500)))

	const rounds = 50
	var wg sync.WaitGroup
	run := func(fn func(i int) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range rounds {
				if err := fn(i); err != nil {
					t.Errorf("round %d: %v", i, err)
					return
				}
			}
		}()
	}
	run(func(int) error { return tn.IncreaseSelfStake(alice, big.NewInt(1)) })
	run(func(int) error { return tn.Delegate(bob, alice, big.NewInt(10)) })
	run(func(int) error { return tn.Delegate(charlie, alice, big.NewInt(10)) })
	run(func(int) error { return tn.Penalize(gov, alice, big.NewInt(1)) })
	run(func(i int) error {
		score := uint8(10)
		if i%2 == 1 {
			score = 90
		}
		return tn.cred.Set(alice, score)
	})
	run(func(int) error {
		_, err := tn.QueryResolverState(alice)
		return err
	})
	wg.Wait()

	s := tn.resolver(alice)
	assert.Equal(t, "550", s.SelfStake.String())
	assert.Equal(t, "50", s.Penalized.String())
	assert.Equal(t, "1000", s.Delegated.String())
	assert.Equal(t, uint8(90), s.Credibility)
	assert.True(t, s.Active)
	tn.assertInvariants()

	events := tn.drain()
	require.NotEmpty(t, events)
	for i, ev := range events {
		assert.Equal(t, uint64(i+1), ev.Seq)
	}
}

func TestStalledSubscriberHoldsNoLock(t *testing.T) {
	tn := newTestNetwork(t)

	stalled := make(chan *Event)
	sub := tn.Subscribe(stalled)
	defer sub.Unsubscribe()

	done := make(chan error, 2)
	registered := func(id rnet.Address) func() bool {
		return func() bool {
			_, err := tn.QueryResolverState(id)
			return err == nil
		}
	}

	// both operations commit and can be read while their events wait
	go func() { done <- tn.SelfStake(alice, big.NewInt(100)) }()
	require.Eventually(t, registered(alice), 5*time.Second, 10*time.Millisecond)
	go func() { done <- tn.SelfStake(bob, big.NewInt(100)) }()
	require.Eventually(t, registered(bob), 5*time.Second, 10*time.Millisecond)

	totals, err := tn.Totals()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), totals.Registered)

	first, second := <-stalled, <-stalled
	assert.Equal(t, alice, first.Resolver)
	assert.Equal(t, uint64(1), first.Seq)
	assert.Equal(t, bob, second.Resolver)
	assert.Equal(t, uint64(2), second.Seq)
	require.NoError(t, <-done)
	require.NoError(t, <-done)
}

func TestNonBlockingSubscriberFallsBehind(t *testing.T) {
	tn := newTestNetwork(t)

	ch := make(chan *Event, 1)
	sub := tn.SubscribeNonBlocking(ch)
	defer sub.Unsubscribe()

	for _, a := range accounts {
		require.NoError(t, tn.SelfStake(a, big.NewInt(100)))
	}

	select {
	case err := <-sub.Err():
		assert.ErrorIs(t, err, ErrSubscriberTooSlow)
	case <-time.After(5 * time.Second):
		t.Fatal("subscription still open")
	}
	ev := <-ch
	assert.Equal(t, uint64(1), ev.Seq)

	// other subscribers got everything
	assert.Len(t, tn.drain(), 3)
}
