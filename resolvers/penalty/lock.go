// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package penalty

import (
	"math/big"
	"sort"
)

// Lock is a frozen portion of a resolver's self stake.
type Lock struct {
	Amount   *big.Int
	UnlockAt uint64
}

func (l *Lock) Expired(now uint64) bool {
	return now >= l.UnlockAt
}

// locks is kept sorted by UnlockAt with unique unlock times.
type locks struct {
	Entries []*Lock
}

func (ls *locks) total() *big.Int {
	sum := new(big.Int)
	for _, l := range ls.Entries {
		sum.Add(sum, l.Amount)
	}
	return sum
}

// insert merges into the lock with the same unlock time or adds a new one.
func (ls *locks) insert(amount *big.Int, unlockAt uint64) bool {
	i := sort.Search(len(ls.Entries), func(i int) bool {
		return ls.Entries[i].UnlockAt >= unlockAt
	})
	if i < len(ls.Entries) && ls.Entries[i].UnlockAt == unlockAt {
		ls.Entries[i].Amount = new(big.Int).Add(ls.Entries[i].Amount, amount)
		return true
	}
	ls.Entries = append(ls.Entries, nil)
	copy(ls.Entries[i+1:], ls.Entries[i:])
	ls.Entries[i] = &Lock{Amount: new(big.Int).Set(amount), UnlockAt: unlockAt}
	return false
}

func (ls *locks) find(unlockAt uint64) int {
	for i, l := range ls.Entries {
		if l.UnlockAt == unlockAt {
			return i
		}
	}
	return -1
}

func (ls *locks) clone() []*Lock {
	out := make([]*Lock, 0, len(ls.Entries))
	for _, l := range ls.Entries {
		out = append(out, &Lock{Amount: new(big.Int).Set(l.Amount), UnlockAt: l.UnlockAt})
	}
	return out
}
