// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package resolvers

import (
	"math/big"
	"sync"
	"time"

	"github.com/vechain/resolvernet/rnet"
	"github.com/vechain/resolvernet/state"
)

// Currency moves funds between accounts. Transfer must fail with an error
// matching reverts.ErrInsufficientBalance when from can't cover amount, and
// must leave balances untouched on failure.
type Currency interface {
	Transfer(asset rnet.Bytes32, from, to rnet.Address, amount *big.Int) error
	BalanceOf(asset rnet.Bytes32, account rnet.Address) (*big.Int, error)
}

// Journaled is implemented by a Currency that writes through a state.State.
// Transfers of a currency journaled by the network's own state roll back with
// it; any other currency gets compensating transfers when an operation fails.
type Journaled interface {
	JournaledBy(st *state.State) bool
}

// Credibility reports the externally maintained score of an identity.
type Credibility interface {
	CredibilityOf(id rnet.Address) (uint8, error)
}

// Randomness provides fresh seeds for resolver selection.
type Randomness interface {
	NextSeed() ([]byte, error)
}

// Clock is the time source in milliseconds. It must not go backwards.
type Clock interface {
	Now() uint64
}

type systemClock struct{}

// SystemClock reads the wall clock.
func SystemClock() Clock { return systemClock{} }

func (systemClock) Now() uint64 {
	return uint64(time.Now().UnixMilli())
}

// ManualClock only moves when told to. It drives replays and tests.
type ManualClock struct {
	mu  sync.Mutex
	now uint64
}

func NewManualClock(now uint64) *ManualClock {
	return &ManualClock{now: now}
}

func (c *ManualClock) Now() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d milliseconds and returns the new time.
func (c *ManualClock) Advance(d uint64) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now += d
	return c.now
}

// Set moves the clock to t. Earlier times are ignored.
func (c *ManualClock) Set(t uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t > c.now {
		c.now = t
	}
}
