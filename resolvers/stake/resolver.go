// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stake

import (
	"math/big"
)

type Resolver struct {
	SelfStake   *big.Int // total collateral locked directly, penalized part included
	Penalized   *big.Int // frozen by open penalty locks
	Delegated   *big.Int // sum of delegations, pending exits included
	PendingExit *big.Int // part of Delegated under an exit request
	Active      bool
}

func newResolver() *Resolver {
	return &Resolver{
		SelfStake:   new(big.Int),
		Penalized:   new(big.Int),
		Delegated:   new(big.Int),
		PendingExit: new(big.Int),
	}
}

// normalize replaces nil amounts left by decoding with zero.
func (r *Resolver) normalize() *Resolver {
	if r.SelfStake == nil {
		r.SelfStake = new(big.Int)
	}
	if r.Penalized == nil {
		r.Penalized = new(big.Int)
	}
	if r.Delegated == nil {
		r.Delegated = new(big.Int)
	}
	if r.PendingExit == nil {
		r.PendingExit = new(big.Int)
	}
	return r
}

// Unlocked returns the self stake not frozen by penalties.
func (r *Resolver) Unlocked() *big.Int {
	return new(big.Int).Sub(r.SelfStake, r.Penalized)
}

// Total returns unlocked self stake plus delegated stake.
func (r *Resolver) Total() *big.Int {
	return new(big.Int).Add(r.Unlocked(), r.Delegated)
}

// Clone returns a deep copy.
func (r *Resolver) Clone() *Resolver {
	return &Resolver{
		SelfStake:   new(big.Int).Set(r.SelfStake),
		Penalized:   new(big.Int).Set(r.Penalized),
		Delegated:   new(big.Int).Set(r.Delegated),
		PendingExit: new(big.Int).Set(r.PendingExit),
		Active:      r.Active,
	}
}
