// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package resolvers

import (
	"math/big"

	"github.com/vechain/resolvernet/resolvers/reverts"
	"github.com/vechain/resolvernet/rnet"
)

// IsGovernance returns whether origin may impose penalties.
func (n *Network) IsGovernance(origin rnet.Address) bool {
	_, ok := n.governance[origin]
	return ok
}

// Penalize freezes amount of the resolver's unlocked self stake for
// PenaltyTokenLockTime. The frozen part stops counting immediately.
func (n *Network) Penalize(origin, resolver rnet.Address, amount *big.Int) error {
	logger.Debug("penalizing", "origin", origin, "resolver", resolver, "amount", amount)

	var unlockAt uint64
	err := n.execute("penalize", func(tx *txn) error {
		if !n.IsGovernance(origin) {
			return reverts.ErrUnauthorized
		}
		if err := checkAmount(amount); err != nil {
			return err
		}
		if err := n.stake.LockPenalty(resolver, amount); err != nil {
			return err
		}
		at, err := unlockTime(tx.now, n.params.PenaltyTokenLockTime)
		if err != nil {
			return err
		}
		if _, err := n.penalties.Add(resolver, amount, at); err != nil {
			return err
		}
		if err := n.stats.AddPenalized(amount); err != nil {
			return err
		}
		unlockAt = at

		tx.emit(&Event{
			Kind:     KindPenalized,
			Resolver: resolver,
			Amount:   new(big.Int).Set(amount),
			UnlockAt: at,
		})
		return tx.reevaluate(resolver)
	})
	if err != nil {
		logger.Info("penalize failed", "origin", origin, "resolver", resolver, "error", err)
		return err
	}

	logger.Info("penalized", "resolver", resolver, "amount", amount, "unlockAt", unlockAt)
	return nil
}

// ClaimPenaltyRelease releases every expired lock of resolver back to its
// unlocked self stake and returns the released total.
func (n *Network) ClaimPenaltyRelease(resolver rnet.Address) (*big.Int, error) {
	logger.Debug("claiming penalty release", "resolver", resolver)

	var released *big.Int
	err := n.execute("claim_penalty_release", func(tx *txn) error {
		if _, err := n.stake.MustGet(resolver); err != nil {
			return err
		}
		amount, err := n.penalties.ReleaseExpired(resolver, tx.now)
		if err != nil {
			return err
		}
		released = amount
		return tx.releasePenalty(resolver, amount, 0)
	})
	if err != nil {
		logger.Info("claim penalty release failed", "resolver", resolver, "error", err)
		return nil, err
	}

	logger.Info("penalty released", "resolver", resolver, "amount", released)
	return released, nil
}

// ClaimPenaltyReleaseAt releases the single lock of resolver keyed by unlockAt.
func (n *Network) ClaimPenaltyReleaseAt(resolver rnet.Address, unlockAt uint64) (*big.Int, error) {
	logger.Debug("claiming penalty release", "resolver", resolver, "unlockAt", unlockAt)

	var released *big.Int
	err := n.execute("claim_penalty_release", func(tx *txn) error {
		if _, err := n.stake.MustGet(resolver); err != nil {
			return err
		}
		amount, err := n.penalties.ReleaseAt(resolver, unlockAt, tx.now)
		if err != nil {
			return err
		}
		released = amount
		return tx.releasePenalty(resolver, amount, unlockAt)
	})
	if err != nil {
		logger.Info("claim penalty release failed", "resolver", resolver, "unlockAt", unlockAt, "error", err)
		return nil, err
	}

	logger.Info("penalty released", "resolver", resolver, "amount", released, "unlockAt", unlockAt)
	return released, nil
}

func (tx *txn) releasePenalty(resolver rnet.Address, amount *big.Int, unlockAt uint64) error {
	if err := tx.n.stake.UnlockPenalty(resolver, amount); err != nil {
		return err
	}
	if err := tx.n.stats.RemovePenalized(amount); err != nil {
		return err
	}
	tx.emit(&Event{
		Kind:     KindPenaltyReleased,
		Resolver: resolver,
		Amount:   new(big.Int).Set(amount),
		UnlockAt: unlockAt,
	})
	return tx.reevaluate(resolver)
}
