// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package resolvers

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/resolvernet/resolvers/delegation"
	"github.com/vechain/resolvernet/resolvers/eligibility"
	"github.com/vechain/resolvernet/resolvers/penalty"
	"github.com/vechain/resolvernet/resolvers/selection"
	"github.com/vechain/resolvernet/resolvers/stake"
	"github.com/vechain/resolvernet/rnet"
)

// ResolverState is a read-only view of one resolver.
type ResolverState struct {
	Address     rnet.Address
	SelfStake   *big.Int
	Unlocked    *big.Int
	Penalized   *big.Int
	Delegated   *big.Int
	PendingExit *big.Int
	Active      bool
	Credibility uint8
	Delegators  uint64
	Locks       []*penalty.Lock
	// Ineligible lists the failed criteria, zero when eligible.
	Ineligible eligibility.Reason
}

// DelegationState is a read-only view of one delegation.
type DelegationState struct {
	Delegator rnet.Address
	Resolver  rnet.Address
	*delegation.Delegation
}

// Totals is a network-wide snapshot.
type Totals struct {
	SelfStake   *big.Int
	Delegated   *big.Int
	Penalized   *big.Int
	PendingExit *big.Int
	Locked      *big.Int
	Registered  uint64
	Active      uint64
}

// QueryResolverState returns the state of resolver or ErrUnknownResolver.
func (n *Network) QueryResolverState(resolver rnet.Address) (*ResolverState, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	r, err := n.stake.MustGet(resolver)
	if err != nil {
		return nil, err
	}
	return n.resolverState(resolver, r)
}

func (n *Network) resolverState(id rnet.Address, r *stake.Resolver) (*ResolverState, error) {
	locks, err := n.penalties.Locks(id)
	if err != nil {
		return nil, err
	}
	delegators, err := n.delegations.Count(id)
	if err != nil {
		return nil, err
	}
	credibility, err := n.credibility.CredibilityOf(id)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get credibility")
	}
	unlocked := r.Unlocked()
	return &ResolverState{
		Address:     id,
		SelfStake:   r.SelfStake,
		Unlocked:    unlocked,
		Penalized:   r.Penalized,
		Delegated:   r.Delegated,
		PendingExit: r.PendingExit,
		Active:      r.Active,
		Credibility: credibility,
		Delegators:  delegators,
		Locks:       locks,
		Ineligible: eligibility.Explain(n.eligibility, &eligibility.Input{
			Unlocked:    unlocked,
			Delegated:   r.Delegated,
			Credibility: credibility,
		}),
	}, nil
}

// QueryDelegation returns the delegation or nil if there is none.
func (n *Network) QueryDelegation(delegator, resolver rnet.Address) (*delegation.Delegation, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	return n.delegations.Get(delegator, resolver)
}

// Delegations lists the delegations backing resolver.
func (n *Network) Delegations(resolver rnet.Address) ([]*DelegationState, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	if _, err := n.stake.MustGet(resolver); err != nil {
		return nil, err
	}
	var out []*DelegationState
	err := n.delegations.Iterate(resolver, func(delegator rnet.Address, d *delegation.Delegation) error {
		out = append(out, &DelegationState{Delegator: delegator, Resolver: resolver, Delegation: d})
		return nil
	})
	return out, err
}

// Resolvers lists every registered resolver, or only active ones.
func (n *Network) Resolvers(activeOnly bool) ([]*ResolverState, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	var out []*ResolverState
	collect := func(id rnet.Address, r *stake.Resolver) error {
		s, err := n.resolverState(id, r)
		if err != nil {
			return err
		}
		out = append(out, s)
		return nil
	}
	if activeOnly {
		return out, n.stake.IterateActive(collect)
	}
	return out, n.stake.IterateRegistered(collect)
}

func (n *Network) Totals() (*Totals, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	t, err := n.stats.Totals()
	if err != nil {
		return nil, err
	}
	registered, err := n.stake.RegisteredCount()
	if err != nil {
		return nil, err
	}
	active, err := n.stake.ActiveCount()
	if err != nil {
		return nil, err
	}
	return &Totals{
		SelfStake:   t.SelfStake,
		Delegated:   t.Delegated,
		Penalized:   t.Penalized,
		PendingExit: t.PendingExit,
		Locked:      t.Locked(),
		Registered:  registered,
		Active:      active,
	}, nil
}

// Balance reads the currency under the network lock, so the result is never
// taken in the middle of an operation.
func (n *Network) Balance(asset rnet.Bytes32, account rnet.Address) (*big.Int, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	return n.currency.BalanceOf(asset, account)
}

// Select draws count active resolvers weighted by their total stake, using a
// fresh seed from the randomness source. The seed is returned for verification.
func (n *Network) Select(count int) ([]rnet.Address, []byte, error) {
	if n.randomness == nil {
		return nil, nil, errors.New("no randomness source")
	}

	n.mu.RLock()
	var candidates []selection.Candidate
	err := n.stake.IterateActive(func(id rnet.Address, r *stake.Resolver) error {
		candidates = append(candidates, selection.Candidate{Address: id, Weight: r.Total()})
		return nil
	})
	n.mu.RUnlock()
	if err != nil {
		return nil, nil, err
	}

	seed, err := n.randomness.NextSeed()
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to get seed")
	}
	return selection.Select(seed, candidates, count), seed, nil
}
