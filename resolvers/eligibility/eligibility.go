// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package eligibility decides whether a resolver qualifies for the active set.
// The evaluation is pure: it reads nothing but its arguments.
package eligibility

import (
	"math/big"
	"strings"
)

// Params are the network-wide thresholds.
type Params struct {
	MinimumSelfStake      *big.Int
	ActivationStakeAmount *big.Int
	RequiredCredibility   uint8
}

// Input is the per-resolver view the decision is made on.
type Input struct {
	Unlocked    *big.Int // self stake minus penalized
	Delegated   *big.Int // includes amounts pending exit
	Credibility uint8
}

// Reason is a bit set of failed criteria.
type Reason uint8

const (
	ReasonSelfStake Reason = 1 << iota
	ReasonTotalStake
	ReasonCredibility
)

func (r Reason) String() string {
	if r == 0 {
		return "eligible"
	}
	var parts []string
	if r&ReasonSelfStake != 0 {
		parts = append(parts, "self-stake")
	}
	if r&ReasonTotalStake != 0 {
		parts = append(parts, "total-stake")
	}
	if r&ReasonCredibility != 0 {
		parts = append(parts, "credibility")
	}
	return strings.Join(parts, "|")
}

// Explain returns the criteria the input fails. Zero means eligible.
func Explain(p *Params, in *Input) Reason {
	unlocked := orZero(in.Unlocked)
	delegated := orZero(in.Delegated)

	var r Reason
	if unlocked.Cmp(orZero(p.MinimumSelfStake)) < 0 {
		r |= ReasonSelfStake
	}
	total := new(big.Int).Add(unlocked, delegated)
	if total.Cmp(orZero(p.ActivationStakeAmount)) < 0 {
		r |= ReasonTotalStake
	}
	if in.Credibility < p.RequiredCredibility {
		r |= ReasonCredibility
	}
	return r
}

// Evaluate reports whether all criteria hold.
func Evaluate(p *Params, in *Input) bool {
	return Explain(p, in) == 0
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}
