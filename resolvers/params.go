// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package resolvers

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/resolvernet/resolvers/eligibility"
	"github.com/vechain/resolvernet/rnet"
)

const (
	// 48 hours in milliseconds.
	DefaultUndelegateTime       uint64 = 48 * 60 * 60 * 1000
	DefaultPenaltyTokenLockTime uint64 = 48 * 60 * 60 * 1000

	DefaultRequiredCredibility uint8 = 30
)

var (
	DefaultMinimumSelfStake      = big.NewInt(100)
	DefaultActivationStakeAmount = big.NewInt(1000)

	// EscrowAccount holds every staked and delegated amount.
	EscrowAccount = rnet.BytesToAddress([]byte("resolvers-network"))

	// Address the network's records are stored under.
	storageAddress = rnet.BytesToAddress([]byte("resolvers"))
)

// Params are fixed for the lifetime of a network.
type Params struct {
	MinimumSelfStake      *big.Int
	ActivationStakeAmount *big.Int
	RequiredCredibility   uint8
	UndelegateTime        uint64 // milliseconds
	PenaltyTokenLockTime  uint64 // milliseconds
	StakeAsset            rnet.Bytes32
	Governance            []rnet.Address
}

func DefaultParams() *Params {
	return &Params{
		MinimumSelfStake:      new(big.Int).Set(DefaultMinimumSelfStake),
		ActivationStakeAmount: new(big.Int).Set(DefaultActivationStakeAmount),
		RequiredCredibility:   DefaultRequiredCredibility,
		UndelegateTime:        DefaultUndelegateTime,
		PenaltyTokenLockTime:  DefaultPenaltyTokenLockTime,
	}
}

// Validate checks the params are usable.
func (p *Params) Validate() error {
	if p.MinimumSelfStake == nil || p.MinimumSelfStake.Sign() < 0 {
		return errors.New("minimum self stake must be non-negative")
	}
	if p.ActivationStakeAmount == nil || p.ActivationStakeAmount.Sign() < 0 {
		return errors.New("activation stake amount must be non-negative")
	}
	if p.ActivationStakeAmount.Cmp(p.MinimumSelfStake) < 0 {
		return errors.New("activation stake amount must not be below minimum self stake")
	}
	for _, g := range p.Governance {
		if g.IsZero() {
			return errors.New("zero governance address")
		}
		if g == EscrowAccount {
			return errors.New("escrow account can't be governance")
		}
	}
	return nil
}

func (p *Params) eligibility() *eligibility.Params {
	return &eligibility.Params{
		MinimumSelfStake:      p.MinimumSelfStake,
		ActivationStakeAmount: p.ActivationStakeAmount,
		RequiredCredibility:   p.RequiredCredibility,
	}
}

func (p *Params) clone() *Params {
	c := *p
	c.MinimumSelfStake = new(big.Int).Set(p.MinimumSelfStake)
	c.ActivationStakeAmount = new(big.Int).Set(p.ActivationStakeAmount)
	c.Governance = append([]rnet.Address(nil), p.Governance...)
	return &c
}
