// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stake

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/resolvernet/resolvers/reverts"
	"github.com/vechain/resolvernet/rnet"
	"github.com/vechain/resolvernet/slot"
)

var (
	slotResolvers = rnet.BytesToBytes32([]byte("resolvers"))

	slotRegisteredHead  = rnet.BytesToBytes32([]byte("registered-head"))
	slotRegisteredTail  = rnet.BytesToBytes32([]byte("registered-tail"))
	slotRegisteredCount = rnet.BytesToBytes32([]byte("registered-count"))

	slotActiveHead  = rnet.BytesToBytes32([]byte("active-head"))
	slotActiveTail  = rnet.BytesToBytes32([]byte("active-tail"))
	slotActiveCount = rnet.BytesToBytes32([]byte("active-count"))
)

// Service is the stake ledger. It owns resolver records and the registered and
// active sets. Amount checks happen here; transfers do not.
type Service struct {
	resolvers  *slot.Mapping[rnet.Address, *Resolver]
	registered *slot.LinkedList
	active     *slot.LinkedList
}

func New(sctx *slot.Context) *Service {
	return &Service{
		resolvers:  slot.NewMapping[rnet.Address, *Resolver](sctx, slotResolvers),
		registered: slot.NewLinkedList(sctx, slotRegisteredHead, slotRegisteredTail, slotRegisteredCount),
		active:     slot.NewLinkedList(sctx, slotActiveHead, slotActiveTail, slotActiveCount),
	}
}

// Get returns the resolver record, or nil if the identity never staked.
func (s *Service) Get(id rnet.Address) (*Resolver, error) {
	r, err := s.resolvers.Get(id)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get resolver")
	}
	if r == nil {
		return nil, nil
	}
	return r.normalize(), nil
}

// MustGet is Get that turns a missing record into ErrUnknownResolver.
func (s *Service) MustGet(id rnet.Address) (*Resolver, error) {
	r, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, reverts.ErrUnknownResolver
	}
	return r, nil
}

func (s *Service) set(id rnet.Address, r *Resolver) error {
	if err := s.resolvers.Set(id, r); err != nil {
		return errors.Wrap(err, "failed to set resolver")
	}
	return nil
}

// AddSelfStake adds to the self stake, registering the resolver on first use.
// It returns whether the record was created.
func (s *Service) AddSelfStake(id rnet.Address, amount *big.Int) (bool, error) {
	r, err := s.Get(id)
	if err != nil {
		return false, err
	}
	created := r == nil
	if created {
		r = newResolver()
		if _, err := s.registered.Add(id); err != nil {
			return false, errors.Wrap(err, "failed to register resolver")
		}
	}
	r.SelfStake.Add(r.SelfStake, amount)
	return created, s.set(id, r)
}

// RemoveSelfStake takes amount out of the unlocked self stake.
func (s *Service) RemoveSelfStake(id rnet.Address, amount *big.Int) error {
	r, err := s.MustGet(id)
	if err != nil {
		return err
	}
	if r.Unlocked().Cmp(amount) < 0 {
		return reverts.ErrInsufficientSelfStake
	}
	r.SelfStake.Sub(r.SelfStake, amount)
	return s.set(id, r)
}

func (s *Service) AddDelegated(id rnet.Address, amount *big.Int) error {
	r, err := s.MustGet(id)
	if err != nil {
		return err
	}
	r.Delegated.Add(r.Delegated, amount)
	return s.set(id, r)
}

// RemoveDelegated reduces delegated stake together with the pending exit the
// amount was parked in.
func (s *Service) RemoveDelegated(id rnet.Address, amount *big.Int) error {
	r, err := s.MustGet(id)
	if err != nil {
		return err
	}
	if r.Delegated.Cmp(amount) < 0 || r.PendingExit.Cmp(amount) < 0 {
		return reverts.ErrInsufficientDelegatedStake
	}
	r.Delegated.Sub(r.Delegated, amount)
	r.PendingExit.Sub(r.PendingExit, amount)
	return s.set(id, r)
}

func (s *Service) AddPendingExit(id rnet.Address, amount *big.Int) error {
	r, err := s.MustGet(id)
	if err != nil {
		return err
	}
	if new(big.Int).Sub(r.Delegated, r.PendingExit).Cmp(amount) < 0 {
		return reverts.ErrInsufficientDelegatedStake
	}
	r.PendingExit.Add(r.PendingExit, amount)
	return s.set(id, r)
}

// LockPenalty freezes amount of the unlocked self stake.
func (s *Service) LockPenalty(id rnet.Address, amount *big.Int) error {
	r, err := s.MustGet(id)
	if err != nil {
		return err
	}
	if r.Unlocked().Cmp(amount) < 0 {
		return reverts.ErrInsufficientSelfStake
	}
	r.Penalized.Add(r.Penalized, amount)
	return s.set(id, r)
}

func (s *Service) UnlockPenalty(id rnet.Address, amount *big.Int) error {
	r, err := s.MustGet(id)
	if err != nil {
		return err
	}
	if r.Penalized.Cmp(amount) < 0 {
		return errors.Errorf("penalty unlock %s exceeds penalized %s", amount, r.Penalized)
	}
	r.Penalized.Sub(r.Penalized, amount)
	return s.set(id, r)
}

// SetActive records the eligibility decision and maintains the active set.
// It returns whether the flag changed.
func (s *Service) SetActive(id rnet.Address, active bool) (bool, error) {
	r, err := s.MustGet(id)
	if err != nil {
		return false, err
	}
	if r.Active == active {
		return false, nil
	}
	r.Active = active
	if active {
		if _, err := s.active.Add(id); err != nil {
			return false, errors.Wrap(err, "failed to add to active set")
		}
	} else {
		if _, err := s.active.Remove(id); err != nil {
			return false, errors.Wrap(err, "failed to remove from active set")
		}
	}
	return true, s.set(id, r)
}

func (s *Service) RegisteredCount() (uint64, error) {
	return s.registered.Len()
}

func (s *Service) ActiveCount() (uint64, error) {
	return s.active.Len()
}

func (s *Service) IsActive(id rnet.Address) (bool, error) {
	return s.active.Contains(id)
}

// IterateRegistered visits resolvers in registration order.
func (s *Service) IterateRegistered(callback func(rnet.Address, *Resolver) error) error {
	return s.iterate(s.registered, callback)
}

// IterateActive visits active resolvers in activation order.
func (s *Service) IterateActive(callback func(rnet.Address, *Resolver) error) error {
	return s.iterate(s.active, callback)
}

func (s *Service) iterate(list *slot.LinkedList, callback func(rnet.Address, *Resolver) error) error {
	return list.Iter(func(id rnet.Address) error {
		r, err := s.MustGet(id)
		if err != nil {
			return err
		}
		return callback(id, r)
	})
}
