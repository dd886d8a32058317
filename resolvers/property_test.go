// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package resolvers

import (
	"math/big"
	"testing"

	fuzz "github.com/google/gofuzz"
	"github.com/stretchr/testify/require"

	"github.com/vechain/resolvernet/resolvers/reverts"
	"github.com/vechain/resolvernet/rnet"
)

type randomOp struct {
	Kind    uint8
	Actor   uint8
	Target  uint8
	Amount  uint16
	Advance uint32
	Score   uint8
}

func (tn *testNetwork) apply(op randomOp) error {
	actor := accounts[int(op.Actor)%len(accounts)]
	target := accounts[int(op.Target)%len(accounts)]
	amount := big.NewInt(int64(op.Amount % 1200))

	switch op.Kind % 11 {
	case 0:
		return tn.SelfStake(actor, amount)
	case 1:
		return tn.IncreaseSelfStake(actor, amount)
	case 2:
		return tn.DecreaseSelfStake(actor, amount)
	case 3:
		return tn.Delegate(actor, target, amount)
	case 4:
		return tn.RequestUndelegate(actor, target, amount)
	case 5:
		_, err := tn.ClaimUndelegate(actor, target)
		return err
	case 6:
		return tn.Penalize(gov, target, amount)
	case 7:
		_, err := tn.ClaimPenaltyRelease(target)
		return err
	case 8:
		return tn.cred.Set(target, op.Score%(tn.cred.Max()+1))
	case 9:
		return tn.Reevaluate(target)
	default:
		tn.clock.Advance(uint64(op.Advance) * 1000)
		return nil
	}
}

// TestRandomSequencesKeepInvariants checks eligibility and conservation of
// funds after every step of random operation sequences.
func TestRandomSequencesKeepInvariants(t *testing.T) {
	for seed := range int64(8) {
		tn := newTestNetwork(t)
		f := fuzz.NewWithSeed(seed).NilChance(0)

		for step := range 150 {
			var op randomOp
			f.Fuzz(&op)
			if err := tn.apply(op); err != nil {
				require.True(t, reverts.IsRevertErr(err), "seed %d step %d: %v", seed, step, err)
			}
			tn.assertInvariants()
		}

		// every event carries a strictly increasing sequence
		var last uint64
		for _, ev := range tn.drain() {
			require.Greater(t, ev.Seq, last)
			last = ev.Seq
		}
	}
}

func TestActivationEventsMatchState(t *testing.T) {
	tn := newTestNetwork(t)
	f := fuzz.NewWithSeed(42).NilChance(0)

	active := make(map[rnet.Address]bool)
	for range 300 {
		var op randomOp
		f.Fuzz(&op)
		_ = tn.apply(op)
	}
	for _, ev := range tn.drain() {
		if ev.Kind == KindActivationChanged {
			require.NotEqual(t, active[ev.Resolver], ev.Active, "activation event without change")
			active[ev.Resolver] = ev.Active
		}
	}
	all, err := tn.Resolvers(false)
	require.NoError(t, err)
	for _, r := range all {
		require.Equal(t, r.Active, active[r.Address])
	}
}
