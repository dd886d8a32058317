// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package penalty

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/resolvernet/resolvers/reverts"
	"github.com/vechain/resolvernet/rnet"
	"github.com/vechain/resolvernet/slot"
)

var slotLocks = rnet.BytesToBytes32([]byte("penalty-locks"))

// Service tracks misconduct locks per resolver. Locks are independent of
// voluntary exits and are released lazily by claims.
type Service struct {
	locks *slot.Mapping[rnet.Address, *locks]
}

func New(sctx *slot.Context) *Service {
	return &Service{
		locks: slot.NewMapping[rnet.Address, *locks](sctx, slotLocks),
	}
}

func (s *Service) get(resolver rnet.Address) (*locks, error) {
	ls, err := s.locks.Get(resolver)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get penalty locks")
	}
	if ls == nil {
		return &locks{}, nil
	}
	return ls, nil
}

func (s *Service) set(resolver rnet.Address, ls *locks) error {
	if len(ls.Entries) == 0 {
		s.locks.Delete(resolver)
		return nil
	}
	if err := s.locks.Set(resolver, ls); err != nil {
		return errors.Wrap(err, "failed to set penalty locks")
	}
	return nil
}

// Locks returns the open locks of resolver ordered by unlock time.
func (s *Service) Locks(resolver rnet.Address) ([]*Lock, error) {
	ls, err := s.get(resolver)
	if err != nil {
		return nil, err
	}
	return ls.clone(), nil
}

// Total returns the amount frozen across all locks of resolver.
func (s *Service) Total(resolver rnet.Address) (*big.Int, error) {
	ls, err := s.get(resolver)
	if err != nil {
		return nil, err
	}
	return ls.total(), nil
}

// Add opens a lock, merging with an existing one sharing the unlock time.
// It returns whether a merge happened.
func (s *Service) Add(resolver rnet.Address, amount *big.Int, unlockAt uint64) (bool, error) {
	ls, err := s.get(resolver)
	if err != nil {
		return false, err
	}
	merged := ls.insert(amount, unlockAt)
	return merged, s.set(resolver, ls)
}

// ReleaseExpired removes every lock expired at now and returns the released total.
func (s *Service) ReleaseExpired(resolver rnet.Address, now uint64) (*big.Int, error) {
	ls, err := s.get(resolver)
	if err != nil {
		return nil, err
	}
	if len(ls.Entries) == 0 {
		return nil, reverts.ErrNoPenaltyLock
	}

	released := new(big.Int)
	remaining := ls.Entries[:0]
	for _, l := range ls.Entries {
		if l.Expired(now) {
			released.Add(released, l.Amount)
		} else {
			remaining = append(remaining, l)
		}
	}
	if len(remaining) == len(ls.Entries) {
		return nil, reverts.ErrLockNotExpired.WithMessage("next unlock at %d, now %d", ls.Entries[0].UnlockAt, now)
	}
	ls.Entries = remaining
	return released, s.set(resolver, ls)
}

// ReleaseAt removes the single lock keyed by unlockAt.
func (s *Service) ReleaseAt(resolver rnet.Address, unlockAt, now uint64) (*big.Int, error) {
	ls, err := s.get(resolver)
	if err != nil {
		return nil, err
	}
	i := ls.find(unlockAt)
	if i < 0 {
		return nil, reverts.ErrNoPenaltyLock
	}
	l := ls.Entries[i]
	if !l.Expired(now) {
		return nil, reverts.ErrLockNotExpired.WithMessage("unlocks at %d, now %d", l.UnlockAt, now)
	}
	ls.Entries = append(ls.Entries[:i], ls.Entries[i+1:]...)
	return new(big.Int).Set(l.Amount), s.set(resolver, ls)
}
