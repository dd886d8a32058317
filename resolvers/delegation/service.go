// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package delegation

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/resolvernet/resolvers/reverts"
	"github.com/vechain/resolvernet/rnet"
	"github.com/vechain/resolvernet/slot"
)

var (
	slotDelegations = rnet.BytesToBytes32([]byte("delegations"))

	delegatorsHead  = []byte("delegators-head")
	delegatorsTail  = []byte("delegators-tail")
	delegatorsCount = []byte("delegators-count")
)

// Service keeps delegator to resolver relationships, each with its own exit timer.
type Service struct {
	sctx        *slot.Context
	delegations *slot.Mapping[rnet.Bytes32, *Delegation]
}

func New(sctx *slot.Context) *Service {
	return &Service{
		sctx:        sctx,
		delegations: slot.NewMapping[rnet.Bytes32, *Delegation](sctx, slotDelegations),
	}
}

// delegators is the per-resolver list of delegator identities.
func (s *Service) delegators(resolver rnet.Address) *slot.LinkedList {
	return slot.NewLinkedList(
		s.sctx,
		rnet.Blake2b(resolver.Bytes(), delegatorsHead),
		rnet.Blake2b(resolver.Bytes(), delegatorsTail),
		rnet.Blake2b(resolver.Bytes(), delegatorsCount),
	)
}

// Get returns the delegation, or nil if there is none.
func (s *Service) Get(delegator, resolver rnet.Address) (*Delegation, error) {
	d, err := s.delegations.Get(ID(delegator, resolver))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get delegation")
	}
	if d == nil {
		return nil, nil
	}
	return d.normalize(), nil
}

func (s *Service) set(delegator, resolver rnet.Address, d *Delegation) error {
	if err := s.delegations.Set(ID(delegator, resolver), d); err != nil {
		return errors.Wrap(err, "failed to set delegation")
	}
	return nil
}

// Add creates or increases a delegation. It returns whether the record was created.
func (s *Service) Add(delegator, resolver rnet.Address, amount *big.Int) (bool, error) {
	d, err := s.Get(delegator, resolver)
	if err != nil {
		return false, err
	}
	created := d == nil
	if created {
		d = (&Delegation{}).normalize()
		if _, err := s.delegators(resolver).Add(delegator); err != nil {
			return false, errors.Wrap(err, "failed to add delegator")
		}
	}
	d.Amount.Add(d.Amount, amount)
	return created, s.set(delegator, resolver, d)
}

// RequestExit marks amount for withdrawal once unlockAt is reached.
// Only one exit may be pending at a time.
func (s *Service) RequestExit(delegator, resolver rnet.Address, amount *big.Int, unlockAt uint64) error {
	d, err := s.Get(delegator, resolver)
	if err != nil {
		return err
	}
	if d == nil {
		return reverts.ErrInsufficientDelegatedStake
	}
	if d.HasPendingExit() {
		return reverts.ErrExitAlreadyPending
	}
	if d.Amount.Cmp(amount) < 0 {
		return reverts.ErrInsufficientDelegatedStake
	}
	d.ExitAmount.Set(amount)
	d.ExitUnlockAt = unlockAt
	return s.set(delegator, resolver, d)
}

// ClaimExit settles a matured exit and returns the amount leaving the delegation.
// The record is removed when nothing remains delegated.
func (s *Service) ClaimExit(delegator, resolver rnet.Address, now uint64) (*big.Int, error) {
	d, err := s.Get(delegator, resolver)
	if err != nil {
		return nil, err
	}
	if d == nil || !d.HasPendingExit() {
		return nil, reverts.ErrNoPendingExit
	}
	if !d.Claimable(now) {
		return nil, reverts.ErrLockNotExpired.WithMessage("unlocks at %d, now %d", d.ExitUnlockAt, now)
	}

	exit := new(big.Int).Set(d.ExitAmount)
	d.Amount.Sub(d.Amount, exit)
	d.ExitAmount.SetUint64(0)
	d.ExitUnlockAt = 0

	if d.IsEmpty() {
		s.delegations.Delete(ID(delegator, resolver))
		if _, err := s.delegators(resolver).Remove(delegator); err != nil {
			return nil, errors.Wrap(err, "failed to remove delegator")
		}
		return exit, nil
	}
	return exit, s.set(delegator, resolver, d)
}

// Count returns the number of delegators backing resolver.
func (s *Service) Count(resolver rnet.Address) (uint64, error) {
	return s.delegators(resolver).Len()
}

// Iterate visits the delegations of resolver in creation order.
func (s *Service) Iterate(resolver rnet.Address, callback func(rnet.Address, *Delegation) error) error {
	return s.delegators(resolver).Iter(func(delegator rnet.Address) error {
		d, err := s.Get(delegator, resolver)
		if err != nil {
			return err
		}
		if d == nil {
			return errors.Errorf("delegator %s listed without delegation", delegator)
		}
		return callback(delegator, d)
	})
}
