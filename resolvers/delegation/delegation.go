// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package delegation

import (
	"math/big"

	"github.com/vechain/resolvernet/rnet"
)

type Delegation struct {
	Amount       *big.Int // counts toward the resolver's delegated stake until claimed
	ExitAmount   *big.Int // part of Amount under an exit request
	ExitUnlockAt uint64   // meaningful only while ExitAmount is positive
}

// HasPendingExit returns whether an exit was requested and not yet claimed.
func (d *Delegation) HasPendingExit() bool {
	return d.ExitAmount != nil && d.ExitAmount.Sign() > 0
}

// IsEmpty returns whether the entry can be treated as removed.
func (d *Delegation) IsEmpty() bool {
	return (d.Amount == nil || d.Amount.Sign() == 0) && !d.HasPendingExit()
}

// Claimable returns whether the pending exit has matured at now.
func (d *Delegation) Claimable(now uint64) bool {
	return d.HasPendingExit() && now >= d.ExitUnlockAt
}

func (d *Delegation) normalize() *Delegation {
	if d.Amount == nil {
		d.Amount = new(big.Int)
	}
	if d.ExitAmount == nil {
		d.ExitAmount = new(big.Int)
	}
	return d
}

func (d *Delegation) Clone() *Delegation {
	return &Delegation{
		Amount:       new(big.Int).Set(d.Amount),
		ExitAmount:   new(big.Int).Set(d.ExitAmount),
		ExitUnlockAt: d.ExitUnlockAt,
	}
}

// ID derives the storage key of the (delegator, resolver) pair.
func ID(delegator, resolver rnet.Address) rnet.Bytes32 {
	return rnet.Blake2b(delegator.Bytes(), resolver.Bytes())
}
