// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package delegation

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/resolvernet/lvldb"
	"github.com/vechain/resolvernet/resolvers/reverts"
	"github.com/vechain/resolvernet/rnet"
	"github.com/vechain/resolvernet/slot"
	"github.com/vechain/resolvernet/state"
	"github.com/vechain/resolvernet/test/datagen"
)

func newService(t *testing.T) *Service {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	st, err := state.New(db, state.Options{})
	require.NoError(t, err)
	return New(slot.NewContext(rnet.BytesToAddress([]byte("delegation")), st))
}

func TestTwoPhaseExit(t *testing.T) {
	svc := newService(t)
	delegator, resolver := datagen.RandAddress(), datagen.RandAddress()

	created, err := svc.Add(delegator, resolver, big.NewInt(900))
	require.NoError(t, err)
	assert.True(t, created)

	_, err = svc.ClaimExit(delegator, resolver, 0)
	assert.ErrorIs(t, err, reverts.ErrNoPendingExit)

	assert.ErrorIs(t, svc.RequestExit(delegator, resolver, big.NewInt(901), 100), reverts.ErrInsufficientDelegatedStake)
	require.NoError(t, svc.RequestExit(delegator, resolver, big.NewInt(900), 100))
	assert.ErrorIs(t, svc.RequestExit(delegator, resolver, big.NewInt(1), 200), reverts.ErrExitAlreadyPending)

	d, err := svc.Get(delegator, resolver)
	require.NoError(t, err)
	assert.Equal(t, "900", d.Amount.String())
	assert.True(t, d.HasPendingExit())
	assert.False(t, d.Claimable(99))
	assert.True(t, d.Claimable(100))

	_, err = svc.ClaimExit(delegator, resolver, 99)
	assert.ErrorIs(t, err, reverts.ErrLockNotExpired)

	exit, err := svc.ClaimExit(delegator, resolver, 100)
	require.NoError(t, err)
	assert.Equal(t, "900", exit.String())

	d, err = svc.Get(delegator, resolver)
	require.NoError(t, err)
	assert.Nil(t, d)

	count, err := svc.Count(resolver)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
}

func TestPartialExitKeepsRecord(t *testing.T) {
	svc := newService(t)
	delegator, resolver := datagen.RandAddress(), datagen.RandAddress()

	_, err := svc.Add(delegator, resolver, big.NewInt(500))
	require.NoError(t, err)
	require.NoError(t, svc.RequestExit(delegator, resolver, big.NewInt(200), 10))

	// topping up while an exit is pending is allowed
	created, err := svc.Add(delegator, resolver, big.NewInt(100))
	require.NoError(t, err)
	assert.False(t, created)

	exit, err := svc.ClaimExit(delegator, resolver, 10)
	require.NoError(t, err)
	assert.Equal(t, "200", exit.String())

	d, err := svc.Get(delegator, resolver)
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, "400", d.Amount.String())
	assert.False(t, d.HasPendingExit())
	assert.Equal(t, uint64(0), d.ExitUnlockAt)

	// a new request is accepted once the previous one is claimed
	require.NoError(t, svc.RequestExit(delegator, resolver, big.NewInt(400), 20))
}

func TestRequestWithoutDelegation(t *testing.T) {
	svc := newService(t)
	err := svc.RequestExit(datagen.RandAddress(), datagen.RandAddress(), big.NewInt(1), 1)
	assert.ErrorIs(t, err, reverts.ErrInsufficientDelegatedStake)
}

func TestIterateDelegators(t *testing.T) {
	svc := newService(t)
	resolver := datagen.RandAddress()
	other := datagen.RandAddress()

	delegators := []rnet.Address{datagen.RandAddress(), datagen.RandAddress(), datagen.RandAddress()}
	for i, d := range delegators {
		_, err := svc.Add(d, resolver, big.NewInt(int64(i+1)))
		require.NoError(t, err)
	}
	_, err := svc.Add(delegators[0], other, big.NewInt(7))
	require.NoError(t, err)

	var got []rnet.Address
	total := new(big.Int)
	require.NoError(t, svc.Iterate(resolver, func(d rnet.Address, del *Delegation) error {
		got = append(got, d)
		total.Add(total, del.Amount)
		return nil
	}))
	assert.Equal(t, delegators, got)
	assert.Equal(t, "6", total.String())

	count, err := svc.Count(other)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)
}

func TestID(t *testing.T) {
	a, b := datagen.RandAddress(), datagen.RandAddress()
	assert.Equal(t, ID(a, b), ID(a, b))
	assert.NotEqual(t, ID(a, b), ID(b, a))
}
