// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package resolvers

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common/math"

	"github.com/vechain/resolvernet/resolvers"
	"github.com/vechain/resolvernet/rnet"
)

type Lock struct {
	Amount   *math.HexOrDecimal256 `json:"amount"`
	UnlockAt uint64                `json:"unlockAt"`
}

type Resolver struct {
	Address     rnet.Address          `json:"address"`
	SelfStake   *math.HexOrDecimal256 `json:"selfStake"`
	Unlocked    *math.HexOrDecimal256 `json:"unlocked"`
	Penalized   *math.HexOrDecimal256 `json:"penalized"`
	Delegated   *math.HexOrDecimal256 `json:"delegated"`
	PendingExit *math.HexOrDecimal256 `json:"pendingExit"`
	Active      bool                  `json:"active"`
	Credibility uint8                 `json:"credibility"`
	Delegators  uint64                `json:"delegators"`
	Locks       []Lock                `json:"locks"`
	Eligibility string                `json:"eligibility"`
}

type Delegation struct {
	Delegator    rnet.Address          `json:"delegator"`
	Resolver     rnet.Address          `json:"resolver"`
	Amount       *math.HexOrDecimal256 `json:"amount"`
	ExitAmount   *math.HexOrDecimal256 `json:"exitAmount"`
	ExitUnlockAt *uint64               `json:"exitUnlockAt"`
}

type Totals struct {
	SelfStake   *math.HexOrDecimal256 `json:"selfStake"`
	Delegated   *math.HexOrDecimal256 `json:"delegated"`
	Penalized   *math.HexOrDecimal256 `json:"penalized"`
	PendingExit *math.HexOrDecimal256 `json:"pendingExit"`
	Locked      *math.HexOrDecimal256 `json:"locked"`
	Registered  uint64                `json:"registered"`
	Active      uint64                `json:"active"`
}

type Selection struct {
	Resolvers []rnet.Address `json:"resolvers"`
	Seed      string         `json:"seed"`
}

func amount(v *big.Int) *math.HexOrDecimal256 {
	if v == nil {
		v = new(big.Int)
	}
	return (*math.HexOrDecimal256)(new(big.Int).Set(v))
}

func convertResolver(s *resolvers.ResolverState) *Resolver {
	locks := make([]Lock, 0, len(s.Locks))
	for _, l := range s.Locks {
		locks = append(locks, Lock{Amount: amount(l.Amount), UnlockAt: l.UnlockAt})
	}
	return &Resolver{
		Address:     s.Address,
		SelfStake:   amount(s.SelfStake),
		Unlocked:    amount(s.Unlocked),
		Penalized:   amount(s.Penalized),
		Delegated:   amount(s.Delegated),
		PendingExit: amount(s.PendingExit),
		Active:      s.Active,
		Credibility: s.Credibility,
		Delegators:  s.Delegators,
		Locks:       locks,
		Eligibility: s.Ineligible.String(),
	}
}

func convertDelegation(s *resolvers.DelegationState) *Delegation {
	d := &Delegation{
		Delegator:  s.Delegator,
		Resolver:   s.Resolver,
		Amount:     amount(s.Amount),
		ExitAmount: amount(s.ExitAmount),
	}
	if s.HasPendingExit() {
		unlockAt := s.ExitUnlockAt
		d.ExitUnlockAt = &unlockAt
	}
	return d
}

func convertTotals(t *resolvers.Totals) *Totals {
	return &Totals{
		SelfStake:   amount(t.SelfStake),
		Delegated:   amount(t.Delegated),
		Penalized:   amount(t.Penalized),
		PendingExit: amount(t.PendingExit),
		Locked:      amount(t.Locked),
		Registered:  t.Registered,
		Active:      t.Active,
	}
}
