// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package resolvers

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/resolvernet/credibility"
	"github.com/vechain/resolvernet/currency"
	"github.com/vechain/resolvernet/kv"
	"github.com/vechain/resolvernet/lvldb"
	"github.com/vechain/resolvernet/resolvers/eligibility"
	"github.com/vechain/resolvernet/resolvers/reverts"
	"github.com/vechain/resolvernet/rnet"
	"github.com/vechain/resolvernet/state"
)

var (
	alice   = rnet.BytesToAddress([]byte("alice"))
	bob     = rnet.BytesToAddress([]byte("bob"))
	charlie = rnet.BytesToAddress([]byte("charlie"))
	gov     = rnet.BytesToAddress([]byte("governance"))

	accounts = []rnet.Address{alice, bob, charlie}
)

const startTime = uint64(1_000)

type testNetwork struct {
	*Network
	t      *testing.T
	db     kv.Store
	ledger *currency.Ledger
	cred   *credibility.Registry
	clock  *ManualClock
	events chan *Event
	sub    event.Subscription
}

func testParams() *Params {
	p := DefaultParams()
	p.Governance = []rnet.Address{gov}
	return p
}

// newTestNetwork funds each account with 1000 of the native asset.
func newTestNetwork(t *testing.T) *testNetwork {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return openTestNetwork(t, db, true)
}

func openTestNetwork(t *testing.T, db kv.Store, fund bool) *testNetwork {
	st, err := state.New(db, state.Options{})
	require.NoError(t, err)
	credState, err := state.New(db, state.Options{})
	require.NoError(t, err)

	ledger := currency.New(st)
	if fund {
		for _, a := range accounts {
			require.NoError(t, ledger.Mint(currency.Native, a, big.NewInt(1000)))
		}
		require.NoError(t, st.Commit())
	}

	cred, err := credibility.New(credState, credibility.DefaultInitial, credibility.DefaultMax)
	require.NoError(t, err)

	clock := NewManualClock(startTime)
	n, err := New(st, testParams(), ledger, cred, nil, clock)
	require.NoError(t, err)
	cred.OnChange(func(id rnet.Address, _ uint8) {
		if err := n.Reevaluate(id); err != nil && !reverts.IsRevertErr(err) {
			t.Errorf("reevaluate %s: %v", id, err)
		}
	})

	events := make(chan *Event, 4096)
	tn := &testNetwork{
		Network: n,
		t:       t,
		db:      db,
		ledger:  ledger,
		cred:    cred,
		clock:   clock,
		events:  events,
		sub:     n.Subscribe(events),
	}
	t.Cleanup(func() {
		tn.sub.Unsubscribe()
		n.Close()
	})
	return tn
}

// drain returns every event published so far.
func (tn *testNetwork) drain() []*Event {
	var out []*Event
	for {
		select {
		case ev := <-tn.events:
			out = append(out, ev)
		default:
			return out
		}
	}
}

func (tn *testNetwork) kinds() []EventKind {
	var kinds []EventKind
	for _, ev := range tn.drain() {
		kinds = append(kinds, ev.Kind)
	}
	return kinds
}

func (tn *testNetwork) balance(a rnet.Address) string {
	b, err := tn.Balance(currency.Native, a)
	require.NoError(tn.t, err)
	return b.String()
}

func (tn *testNetwork) resolver(id rnet.Address) *ResolverState {
	s, err := tn.QueryResolverState(id)
	require.NoError(tn.t, err)
	return s
}

func (tn *testNetwork) assertActive(id rnet.Address, want bool) *testNetwork {
	assert.Equal(tn.t, want, tn.resolver(id).Active, "resolver %s active", id)
	return tn
}

// assertInvariants checks eligibility of every resolver and that escrow holds
// exactly the locked totals.
func (tn *testNetwork) assertInvariants() {
	t := tn.t
	all, err := tn.Resolvers(false)
	require.NoError(t, err)
	params := tn.Params()
	for _, r := range all {
		want := eligibility.Evaluate(params.eligibility(), &eligibility.Input{
			Unlocked:    r.Unlocked,
			Delegated:   r.Delegated,
			Credibility: r.Credibility,
		})
		assert.Equal(t, want, r.Active, "resolver %s", r.Address)
		assert.Equal(t, want, r.Ineligible == 0)
	}

	totals, err := tn.Totals()
	require.NoError(t, err)
	assert.Equal(t, totals.Locked.String(), tn.balance(EscrowAccount))

	sum := new(big.Int)
	for _, a := range accounts {
		b, err := tn.Balance(currency.Native, a)
		require.NoError(t, err)
		sum.Add(sum, b)
	}
	sum.Add(sum, totals.Locked)
	assert.Equal(t, "3000", sum.String())
}

func TestScenarioActivationViaDelegation(t *testing.T) {
	tn := newTestNetwork(t)

	require.NoError(t, tn.SelfStake(alice, big.NewInt(100)))
	tn.assertActive(alice, false)
	assert.Equal(t, []EventKind{KindStakeChanged}, tn.kinds())

	require.NoError(t, tn.Delegate(bob, alice, big.NewInt(900)))
	tn.assertActive(alice, true)
	events := tn.drain()
	require.Len(t, events, 2)
	assert.Equal(t, KindDelegated, events[0].Kind)
	assert.Equal(t, bob, *events[0].Delegator)
	assert.Equal(t, "900", events[0].Amount.String())
	assert.Equal(t, KindActivationChanged, events[1].Kind)
	assert.True(t, events[1].Active)
	assert.Equal(t, events[0].Seq+1, events[1].Seq)

	require.NoError(t, tn.RequestUndelegate(bob, alice, big.NewInt(900)))
	tn.assertActive(alice, true)
	events = tn.drain()
	require.Len(t, events, 1)
	assert.Equal(t, KindUndelegateRequested, events[0].Kind)
	assert.Equal(t, startTime+DefaultUndelegateTime, events[0].UnlockAt)

	assert.Equal(t, "900", tn.resolver(alice).PendingExit.String())

	tn.clock.Advance(DefaultUndelegateTime - 1)
	_, err := tn.ClaimUndelegate(bob, alice)
	assert.ErrorIs(t, err, reverts.ErrLockNotExpired)
	assert.Empty(t, tn.drain())
	tn.assertActive(alice, true)

	tn.clock.Advance(1)
	claimed, err := tn.ClaimUndelegate(bob, alice)
	require.NoError(t, err)
	assert.Equal(t, "900", claimed.String())
	tn.assertActive(alice, false)

	events = tn.drain()
	require.Len(t, events, 2)
	assert.Equal(t, KindUndelegateClaimed, events[0].Kind)
	assert.Equal(t, KindActivationChanged, events[1].Kind)
	assert.False(t, events[1].Active)

	state := tn.resolver(alice)
	assert.Equal(t, "0", state.Delegated.String())
	assert.Equal(t, "0", state.PendingExit.String())
	assert.Equal(t, "1000", tn.balance(bob))

	d, err := tn.QueryDelegation(bob, alice)
	require.NoError(t, err)
	assert.Nil(t, d)

	tn.assertInvariants()
}

func TestScenarioCredibilityDrop(t *testing.T) {
	tn := newTestNetwork(t)

	require.NoError(t, tn.cred.Set(alice, 40))
	assert.Empty(t, tn.drain(), "unregistered identity")

	require.NoError(t, tn.SelfStake(alice, big.NewInt(1000)))
	tn.assertActive(alice, true)
	assert.Equal(t, []EventKind{KindStakeChanged, KindActivationChanged}, tn.kinds())

	require.NoError(t, tn.cred.Set(alice, 20))
	tn.assertActive(alice, false)
	events := tn.drain()
	require.Len(t, events, 1)
	assert.Equal(t, KindActivationChanged, events[0].Kind)
	assert.False(t, events[0].Active)

	state := tn.resolver(alice)
	assert.Equal(t, "1000", state.SelfStake.String())
	assert.Equal(t, eligibility.ReasonCredibility, state.Ineligible)

	require.NoError(t, tn.cred.Reward(alice, 10))
	tn.assertActive(alice, true)
	assert.Equal(t, []EventKind{KindActivationChanged}, tn.kinds())

	tn.assertInvariants()
}

func TestPenaltyExcludesFrozenStake(t *testing.T) {
	tn := newTestNetwork(t)

	require.NoError(t, tn.SelfStake(alice, big.NewInt(1000)))
	tn.assertActive(alice, true)
	tn.drain()

	assert.ErrorIs(t, tn.Penalize(bob, alice, big.NewInt(1)), reverts.ErrUnauthorized)
	assert.ErrorIs(t, tn.Penalize(gov, bob, big.NewInt(1)), reverts.ErrUnknownResolver)
	assert.ErrorIs(t, tn.Penalize(gov, alice, big.NewInt(1001)), reverts.ErrInsufficientSelfStake)
	assert.ErrorIs(t, tn.Penalize(gov, alice, big.NewInt(0)), reverts.ErrZeroAmount)

	require.NoError(t, tn.Penalize(gov, alice, big.NewInt(901)))
	tn.assertActive(alice, false)
	events := tn.drain()
	require.Len(t, events, 2)
	assert.Equal(t, KindPenalized, events[0].Kind)
	assert.Equal(t, startTime+DefaultPenaltyTokenLockTime, events[0].UnlockAt)
	assert.False(t, events[1].Active)

	state := tn.resolver(alice)
	assert.Equal(t, "99", state.Unlocked.String())
	assert.Equal(t, "901", state.Penalized.String())
	require.Len(t, state.Locks, 1)

	// frozen funds can't be withdrawn or penalized twice
	assert.ErrorIs(t, tn.DecreaseSelfStake(alice, big.NewInt(100)), reverts.ErrInsufficientSelfStake)
	assert.ErrorIs(t, tn.Penalize(gov, alice, big.NewInt(100)), reverts.ErrInsufficientSelfStake)

	_, err := tn.ClaimPenaltyRelease(alice)
	assert.ErrorIs(t, err, reverts.ErrLockNotExpired)

	tn.clock.Advance(DefaultPenaltyTokenLockTime)
	released, err := tn.ClaimPenaltyRelease(alice)
	require.NoError(t, err)
	assert.Equal(t, "901", released.String())
	tn.assertActive(alice, true)
	assert.Equal(t, []EventKind{KindPenaltyReleased, KindActivationChanged}, tn.kinds())

	_, err = tn.ClaimPenaltyRelease(alice)
	assert.ErrorIs(t, err, reverts.ErrNoPenaltyLock)

	// the resolver never got the penalized funds back as spendable balance
	assert.Equal(t, "0", tn.balance(alice))
	tn.assertInvariants()
}

func TestIndependentPenaltyLocks(t *testing.T) {
	tn := newTestNetwork(t)
	require.NoError(t, tn.SelfStake(alice, big.NewInt(1000)))

	require.NoError(t, tn.Penalize(gov, alice, big.NewInt(10)))
	first := tn.clock.Now() + DefaultPenaltyTokenLockTime
	tn.clock.Advance(1000)
	require.NoError(t, tn.Penalize(gov, alice, big.NewInt(20)))
	second := tn.clock.Now() + DefaultPenaltyTokenLockTime

	assert.Len(t, tn.resolver(alice).Locks, 2)
	tn.drain()

	tn.clock.Set(first)
	_, err := tn.ClaimPenaltyReleaseAt(alice, second)
	assert.ErrorIs(t, err, reverts.ErrLockNotExpired)
	_, err = tn.ClaimPenaltyReleaseAt(alice, first+1)
	assert.ErrorIs(t, err, reverts.ErrNoPenaltyLock)

	released, err := tn.ClaimPenaltyReleaseAt(alice, first)
	require.NoError(t, err)
	assert.Equal(t, "10", released.String())

	events := tn.drain()
	require.Len(t, events, 1)
	assert.Equal(t, KindPenaltyReleased, events[0].Kind)
	assert.Equal(t, first, events[0].UnlockAt)

	state := tn.resolver(alice)
	assert.Equal(t, "20", state.Penalized.String())
	require.Len(t, state.Locks, 1)
	assert.Equal(t, second, state.Locks[0].UnlockAt)
}

func TestReevaluateIsIdempotent(t *testing.T) {
	tn := newTestNetwork(t)
	require.NoError(t, tn.SelfStake(alice, big.NewInt(1000)))
	tn.drain()

	for range 3 {
		require.NoError(t, tn.Reevaluate(alice))
	}
	assert.Empty(t, tn.drain())
	tn.assertActive(alice, true)

	assert.ErrorIs(t, tn.Reevaluate(bob), reverts.ErrUnknownResolver)
}

func TestRejectedOperations(t *testing.T) {
	tn := newTestNetwork(t)
	require.NoError(t, tn.SelfStake(alice, big.NewInt(500)))
	require.NoError(t, tn.Delegate(bob, alice, big.NewInt(300)))
	require.NoError(t, tn.RequestUndelegate(bob, alice, big.NewInt(100)))
	tn.drain()

	tests := []struct {
		name string
		op   func() error
		want error
	}{
		{"stake more than balance", func() error { return tn.SelfStake(charlie, big.NewInt(1001)) }, reverts.ErrInsufficientBalance},
		{"zero stake", func() error { return tn.SelfStake(charlie, big.NewInt(0)) }, reverts.ErrZeroAmount},
		{"nil stake", func() error { return tn.SelfStake(charlie, nil) }, reverts.ErrZeroAmount},
		{"increase unknown", func() error { return tn.IncreaseSelfStake(charlie, big.NewInt(1)) }, reverts.ErrUnknownResolver},
		{"decrease unknown", func() error { return tn.DecreaseSelfStake(charlie, big.NewInt(1)) }, reverts.ErrUnknownResolver},
		{"decrease too much", func() error { return tn.DecreaseSelfStake(alice, big.NewInt(501)) }, reverts.ErrInsufficientSelfStake},
		{"delegate to unknown", func() error { return tn.Delegate(bob, charlie, big.NewInt(1)) }, reverts.ErrUnknownResolver},
		{"delegate to self", func() error { return tn.Delegate(alice, alice, big.NewInt(1)) }, reverts.ErrSelfDelegation},
		{"delegate more than balance", func() error { return tn.Delegate(charlie, alice, big.NewInt(1001)) }, reverts.ErrInsufficientBalance},
		{"second exit request", func() error { return tn.RequestUndelegate(bob, alice, big.NewInt(1)) }, reverts.ErrExitAlreadyPending},
		{"exit without delegation", func() error { return tn.RequestUndelegate(charlie, alice, big.NewInt(1)) }, reverts.ErrInsufficientDelegatedStake},
		{"exit on unknown resolver", func() error { return tn.RequestUndelegate(bob, charlie, big.NewInt(1)) }, reverts.ErrUnknownResolver},
		{"claim without request", func() error { _, err := tn.ClaimUndelegate(charlie, alice); return err }, reverts.ErrNoPendingExit},
		{"claim too early", func() error { _, err := tn.ClaimUndelegate(bob, alice); return err }, reverts.ErrLockNotExpired},
		{"release without lock", func() error { _, err := tn.ClaimPenaltyRelease(alice); return err }, reverts.ErrNoPenaltyLock},
		{"escrow stakes", func() error { return tn.SelfStake(EscrowAccount, big.NewInt(1)) }, reverts.ErrUnauthorized},
	}
	before, err := tn.Totals()
	require.NoError(t, err)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.op()
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, reverts.IsRevertErr(err))
			assert.Empty(t, tn.drain())
		})
	}
	after, err := tn.Totals()
	require.NoError(t, err)
	assert.Equal(t, before.Locked.String(), after.Locked.String())
	assert.Equal(t, before.PendingExit.String(), after.PendingExit.String())
	assert.Equal(t, before.Registered, after.Registered)
	tn.assertInvariants()
}

func TestDecreaseSelfStake(t *testing.T) {
	tn := newTestNetwork(t)
	require.NoError(t, tn.SelfStake(alice, big.NewInt(1000)))
	tn.drain()

	require.NoError(t, tn.DecreaseSelfStake(alice, big.NewInt(1)))
	events := tn.drain()
	require.Len(t, events, 2)
	assert.Equal(t, "-1", events[0].Amount.String())
	assert.Equal(t, "999", events[0].Balance.String())
	assert.False(t, events[1].Active)

	require.NoError(t, tn.IncreaseSelfStake(alice, big.NewInt(1)))
	tn.assertActive(alice, true)
	assert.Equal(t, "0", tn.balance(alice))
	tn.assertInvariants()
}

func TestPersistence(t *testing.T) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	defer db.Close()

	tn := openTestNetwork(t, db, true)
	require.NoError(t, tn.SelfStake(alice, big.NewInt(1000)))
	last := tn.drain()
	require.NotEmpty(t, last)

	reopened := openTestNetwork(t, db, false)
	reopened.assertActive(alice, true)
	assert.Equal(t, "0", reopened.balance(alice))

	require.NoError(t, reopened.Delegate(bob, alice, big.NewInt(1)))
	events := reopened.drain()
	require.Len(t, events, 1)
	assert.Equal(t, last[len(last)-1].Seq+1, events[0].Seq)
}
