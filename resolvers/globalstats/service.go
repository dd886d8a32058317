// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package globalstats

import (
	"math/big"

	"github.com/vechain/resolvernet/rnet"
	"github.com/vechain/resolvernet/slot"
)

var (
	slotSelfStake   = rnet.BytesToBytes32([]byte("total-self-stake"))
	slotDelegated   = rnet.BytesToBytes32([]byte("total-delegated"))
	slotPenalized   = rnet.BytesToBytes32([]byte("total-penalized"))
	slotPendingExit = rnet.BytesToBytes32([]byte("total-pending-exit"))
)

// Totals is a network-wide snapshot of locked amounts.
type Totals struct {
	SelfStake   *big.Int
	Delegated   *big.Int
	Penalized   *big.Int
	PendingExit *big.Int
}

// Locked returns all funds held in escrow.
func (t *Totals) Locked() *big.Int {
	return new(big.Int).Add(t.SelfStake, t.Delegated)
}

// Service manages network-wide staking totals.
type Service struct {
	selfStake   *slot.Uint256
	delegated   *slot.Uint256
	penalized   *slot.Uint256
	pendingExit *slot.Uint256
}

func New(sctx *slot.Context) *Service {
	return &Service{
		selfStake:   slot.NewUint256(sctx, slotSelfStake),
		delegated:   slot.NewUint256(sctx, slotDelegated),
		penalized:   slot.NewUint256(sctx, slotPenalized),
		pendingExit: slot.NewUint256(sctx, slotPendingExit),
	}
}

func (s *Service) Totals() (*Totals, error) {
	self, err := s.selfStake.Get()
	if err != nil {
		return nil, err
	}
	delegated, err := s.delegated.Get()
	if err != nil {
		return nil, err
	}
	penalized, err := s.penalized.Get()
	if err != nil {
		return nil, err
	}
	pending, err := s.pendingExit.Get()
	if err != nil {
		return nil, err
	}
	return &Totals{
		SelfStake:   self,
		Delegated:   delegated,
		Penalized:   penalized,
		PendingExit: pending,
	}, nil
}

func (s *Service) AddSelfStake(amount *big.Int) error {
	return s.selfStake.Add(amount)
}

func (s *Service) RemoveSelfStake(amount *big.Int) error {
	return s.selfStake.Sub(amount)
}

func (s *Service) AddDelegated(amount *big.Int) error {
	return s.delegated.Add(amount)
}

// ApplyExitClaim moves a claimed exit out of both delegated and pending totals.
func (s *Service) ApplyExitClaim(amount *big.Int) error {
	if err := s.delegated.Sub(amount); err != nil {
		return err
	}
	return s.pendingExit.Sub(amount)
}

func (s *Service) AddPendingExit(amount *big.Int) error {
	return s.pendingExit.Add(amount)
}

func (s *Service) AddPenalized(amount *big.Int) error {
	return s.penalized.Add(amount)
}

func (s *Service) RemovePenalized(amount *big.Int) error {
	return s.penalized.Sub(amount)
}
