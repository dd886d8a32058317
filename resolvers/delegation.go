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

// Delegate locks amount of the delegator's funds behind resolver.
func (n *Network) Delegate(delegator, resolver rnet.Address, amount *big.Int) error {
	logger.Debug("delegating", "delegator", delegator, "resolver", resolver, "amount", amount)

	err := n.execute("delegate", func(tx *txn) error {
		if err := checkAmount(amount); err != nil {
			return err
		}
		if delegator == resolver {
			return reverts.ErrSelfDelegation
		}
		if delegator == EscrowAccount {
			return reverts.ErrUnauthorized.WithMessage("escrow account can't delegate")
		}
		if _, err := n.stake.MustGet(resolver); err != nil {
			return err
		}
		if err := tx.transfer(delegator, EscrowAccount, amount); err != nil {
			return err
		}
		if _, err := n.delegations.Add(delegator, resolver, amount); err != nil {
			return err
		}
		if err := n.stake.AddDelegated(resolver, amount); err != nil {
			return err
		}
		if err := n.stats.AddDelegated(amount); err != nil {
			return err
		}

		d, err := n.delegations.Get(delegator, resolver)
		if err != nil {
			return err
		}
		tx.emit(&Event{
			Kind:      KindDelegated,
			Resolver:  resolver,
			Delegator: delegatorRef(delegator),
			Amount:    new(big.Int).Set(amount),
			Balance:   d.Amount,
		})
		return tx.reevaluate(resolver)
	})
	if err != nil {
		logger.Info("delegate failed", "delegator", delegator, "resolver", resolver, "error", err)
		return err
	}

	logger.Info("delegated", "delegator", delegator, "resolver", resolver, "amount", amount)
	return nil
}

// RequestUndelegate starts the exit of amount. It keeps counting toward the
// resolver's stake until claimed after UndelegateTime.
func (n *Network) RequestUndelegate(delegator, resolver rnet.Address, amount *big.Int) error {
	logger.Debug("requesting undelegate", "delegator", delegator, "resolver", resolver, "amount", amount)

	var unlockAt uint64
	err := n.execute("request_undelegate", func(tx *txn) error {
		if err := checkAmount(amount); err != nil {
			return err
		}
		if _, err := n.stake.MustGet(resolver); err != nil {
			return err
		}
		at, err := unlockTime(tx.now, n.params.UndelegateTime)
		if err != nil {
			return err
		}
		if err := n.delegations.RequestExit(delegator, resolver, amount, at); err != nil {
			return err
		}
		if err := n.stake.AddPendingExit(resolver, amount); err != nil {
			return err
		}
		if err := n.stats.AddPendingExit(amount); err != nil {
			return err
		}
		unlockAt = at

		tx.emit(&Event{
			Kind:      KindUndelegateRequested,
			Resolver:  resolver,
			Delegator: delegatorRef(delegator),
			Amount:    new(big.Int).Set(amount),
			UnlockAt:  at,
		})
		return tx.reevaluate(resolver)
	})
	if err != nil {
		logger.Info("request undelegate failed", "delegator", delegator, "resolver", resolver, "error", err)
		return err
	}

	logger.Info("undelegate requested", "delegator", delegator, "resolver", resolver, "amount", amount, "unlockAt", unlockAt)
	return nil
}

// ClaimUndelegate returns a matured exit to the delegator.
func (n *Network) ClaimUndelegate(delegator, resolver rnet.Address) (*big.Int, error) {
	logger.Debug("claiming undelegate", "delegator", delegator, "resolver", resolver)

	var claimed *big.Int
	err := n.execute("claim_undelegate", func(tx *txn) error {
		if _, err := n.stake.MustGet(resolver); err != nil {
			return err
		}
		amount, err := n.delegations.ClaimExit(delegator, resolver, tx.now)
		if err != nil {
			return err
		}
		if err := n.stake.RemoveDelegated(resolver, amount); err != nil {
			return err
		}
		if err := n.stats.ApplyExitClaim(amount); err != nil {
			return err
		}
		if err := tx.transfer(EscrowAccount, delegator, amount); err != nil {
			return err
		}
		claimed = amount

		tx.emit(&Event{
			Kind:      KindUndelegateClaimed,
			Resolver:  resolver,
			Delegator: delegatorRef(delegator),
			Amount:    new(big.Int).Set(amount),
		})
		return tx.reevaluate(resolver)
	})
	if err != nil {
		logger.Info("claim undelegate failed", "delegator", delegator, "resolver", resolver, "error", err)
		return nil, err
	}

	logger.Info("undelegate claimed", "delegator", delegator, "resolver", resolver, "amount", claimed)
	return claimed, nil
}
