// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package slot

import (
	"math/big"

	"github.com/vechain/resolvernet/rnet"
)

// LinkedList is an insertion ordered set of addresses kept in slots.
// The zero address can't be a member.
type LinkedList struct {
	head  *Address
	tail  *Address
	count *Uint256
	next  *Mapping[rnet.Address, rnet.Address]
	prev  *Mapping[rnet.Address, rnet.Address]
}

// NewLinkedList creates a linked list. head/tail positions double as the base positions
// of the next/prev mappings.
func NewLinkedList(ctx *Context, headPos, tailPos, countPos rnet.Bytes32) *LinkedList {
	return &LinkedList{
		head:  NewAddress(ctx, headPos),
		tail:  NewAddress(ctx, tailPos),
		count: NewUint256(ctx, countPos),
		next:  NewMapping[rnet.Address, rnet.Address](ctx, headPos),
		prev:  NewMapping[rnet.Address, rnet.Address](ctx, tailPos),
	}
}

// Contains reports whether address is in the list.
func (l *LinkedList) Contains(address rnet.Address) (bool, error) {
	if address.IsZero() {
		return false, nil
	}
	head, err := l.head.Get()
	if err != nil {
		return false, err
	}
	if head == address {
		return true, nil
	}
	return l.prev.Exists(address)
}

// Add appends an address to the end of the list. Adding a member again is a no-op.
func (l *LinkedList) Add(address rnet.Address) (bool, error) {
	if address.IsZero() {
		return false, nil
	}
	if ok, err := l.Contains(address); err != nil || ok {
		return false, err
	}

	oldTail, err := l.tail.Get()
	if err != nil {
		return false, err
	}

	if oldTail.IsZero() {
		l.head.Set(address)
	} else {
		if err := l.next.Set(oldTail, address); err != nil {
			return false, err
		}
		if err := l.prev.Set(address, oldTail); err != nil {
			return false, err
		}
	}
	l.tail.Set(address)

	return true, l.count.Add(big.NewInt(1))
}

// Remove extracts an address from anywhere in the list. Removing a non-member is a no-op.
func (l *LinkedList) Remove(address rnet.Address) (bool, error) {
	if ok, err := l.Contains(address); err != nil || !ok {
		return false, err
	}

	prev, err := l.prev.Get(address)
	if err != nil {
		return false, err
	}
	next, err := l.next.Get(address)
	if err != nil {
		return false, err
	}

	if prev.IsZero() {
		l.head.Set(next)
	} else if next.IsZero() {
		l.next.Delete(prev)
	} else if err := l.next.Set(prev, next); err != nil {
		return false, err
	}

	if next.IsZero() {
		l.tail.Set(prev)
	} else if prev.IsZero() {
		l.prev.Delete(next)
	} else if err := l.prev.Set(next, prev); err != nil {
		return false, err
	}

	l.next.Delete(address)
	l.prev.Delete(address)

	return true, l.count.Sub(big.NewInt(1))
}

// Head returns the oldest address of the list.
func (l *LinkedList) Head() (rnet.Address, error) {
	return l.head.Get()
}

// Next returns the successor address in the list, or zero address if at the end.
func (l *LinkedList) Next(address rnet.Address) (rnet.Address, error) {
	return l.next.Get(address)
}

// Len returns the current number of addresses in the list.
func (l *LinkedList) Len() (uint64, error) {
	n, err := l.count.Get()
	if err != nil {
		return 0, err
	}
	return n.Uint64(), nil
}

// Iter traverses the list in insertion order, calling callback for each address until completion or error.
func (l *LinkedList) Iter(callback func(rnet.Address) error) error {
	ptr, err := l.head.Get()
	if err != nil {
		return err
	}

	for !ptr.IsZero() {
		next, err := l.next.Get(ptr)
		if err != nil {
			return err
		}
		if err := callback(ptr); err != nil {
			return err
		}
		ptr = next
	}
	return nil
}
