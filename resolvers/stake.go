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

// SelfStake locks amount of the resolver's own funds, registering it on first use.
func (n *Network) SelfStake(resolver rnet.Address, amount *big.Int) error {
	logger.Debug("self staking", "resolver", resolver, "amount", amount)

	err := n.execute("self_stake", func(tx *txn) error {
		return tx.addSelfStake(resolver, amount)
	})
	if err != nil {
		logger.Info("self stake failed", "resolver", resolver, "error", err)
		return err
	}

	logger.Info("self staked", "resolver", resolver, "amount", amount)
	return nil
}

// IncreaseSelfStake adds to the stake of an existing resolver.
func (n *Network) IncreaseSelfStake(resolver rnet.Address, amount *big.Int) error {
	logger.Debug("increasing self stake", "resolver", resolver, "amount", amount)

	err := n.execute("increase_self_stake", func(tx *txn) error {
		if _, err := n.stake.MustGet(resolver); err != nil {
			return err
		}
		return tx.addSelfStake(resolver, amount)
	})
	if err != nil {
		logger.Info("increase self stake failed", "resolver", resolver, "error", err)
		return err
	}

	logger.Info("increased self stake", "resolver", resolver, "amount", amount)
	return nil
}

func (tx *txn) addSelfStake(resolver rnet.Address, amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	if resolver == EscrowAccount {
		return reverts.ErrUnauthorized.WithMessage("escrow account can't stake")
	}
	if err := tx.transfer(resolver, EscrowAccount, amount); err != nil {
		return err
	}
	created, err := tx.n.stake.AddSelfStake(resolver, amount)
	if err != nil {
		return err
	}
	if created {
		logger.Debug("resolver registered", "resolver", resolver)
	}
	if err := tx.n.stats.AddSelfStake(amount); err != nil {
		return err
	}
	return tx.stakeChanged(resolver, amount)
}

// DecreaseSelfStake returns amount of the unlocked self stake to the resolver.
func (n *Network) DecreaseSelfStake(resolver rnet.Address, amount *big.Int) error {
	logger.Debug("decreasing self stake", "resolver", resolver, "amount", amount)

	err := n.execute("decrease_self_stake", func(tx *txn) error {
		if err := checkAmount(amount); err != nil {
			return err
		}
		if err := n.stake.RemoveSelfStake(resolver, amount); err != nil {
			return err
		}
		if err := n.stats.RemoveSelfStake(amount); err != nil {
			return err
		}
		if err := tx.transfer(EscrowAccount, resolver, amount); err != nil {
			return err
		}
		return tx.stakeChanged(resolver, new(big.Int).Neg(amount))
	})
	if err != nil {
		logger.Info("decrease self stake failed", "resolver", resolver, "error", err)
		return err
	}

	logger.Info("decreased self stake", "resolver", resolver, "amount", amount)
	return nil
}

func (tx *txn) stakeChanged(resolver rnet.Address, delta *big.Int) error {
	r, err := tx.n.stake.MustGet(resolver)
	if err != nil {
		return err
	}
	tx.emit(&Event{
		Kind:     KindStakeChanged,
		Resolver: resolver,
		Amount:   new(big.Int).Set(delta),
		Balance:  r.SelfStake,
	})
	return tx.reevaluate(resolver)
}

// Reevaluate recomputes the eligibility of resolver from current inputs. It is
// the hook for credibility changes and emits only when the decision changes.
func (n *Network) Reevaluate(resolver rnet.Address) error {
	return n.execute("reevaluate", func(tx *txn) error {
		return tx.reevaluate(resolver)
	})
}
