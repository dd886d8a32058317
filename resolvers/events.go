// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package resolvers

import (
	"fmt"
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/resolvernet/rnet"
)

// EventKind identifies a notification.
type EventKind uint8

const (
	KindStakeChanged EventKind = iota + 1
	KindDelegated
	KindUndelegateRequested
	KindUndelegateClaimed
	KindPenalized
	KindPenaltyReleased
	KindActivationChanged
)

var kindNames = []string{
	KindStakeChanged:        "StakeChanged",
	KindDelegated:           "Delegated",
	KindUndelegateRequested: "UndelegateRequested",
	KindUndelegateClaimed:   "UndelegateClaimed",
	KindPenalized:           "Penalized",
	KindPenaltyReleased:     "PenaltyReleased",
	KindActivationChanged:   "ActivationChanged",
}

func (k EventKind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return fmt.Sprintf("EventKind(%d)", uint8(k))
}

func (k EventKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *EventKind) UnmarshalText(text []byte) error {
	kind, err := ParseEventKind(string(text))
	if err != nil {
		return err
	}
	*k = kind
	return nil
}

func ParseEventKind(s string) (EventKind, error) {
	for i, name := range kindNames {
		if name != "" && name == s {
			return EventKind(i), nil
		}
	}
	return 0, errors.Errorf("unknown event kind %q", s)
}

// EventKinds lists every kind in declaration order.
func EventKinds() []EventKind {
	kinds := make([]EventKind, 0, len(kindNames))
	for i, name := range kindNames {
		if name != "" {
			kinds = append(kinds, EventKind(i))
		}
	}
	return kinds
}

// Event is emitted once for every state change a successful operation makes.
// Fields a kind does not use are left zero.
//
//	StakeChanged         Amount is the signed change, Balance the new self stake
//	Delegated            Amount delegated, Balance the delegation after it
//	UndelegateRequested  Amount under exit, UnlockAt when it can be claimed
//	UndelegateClaimed    Amount returned to the delegator
//	Penalized            Amount frozen, UnlockAt when it can be released
//	PenaltyReleased      Amount released, UnlockAt of the lock when released singly
//	ActivationChanged    Active is the new flag
type Event struct {
	Seq       uint64        `json:"seq"`
	Kind      EventKind     `json:"kind"`
	Time      uint64        `json:"time"`
	Resolver  rnet.Address  `json:"resolver"`
	Delegator *rnet.Address `json:"delegator,omitempty"`
	Amount    *big.Int      `json:"amount,omitempty"`
	Balance   *big.Int      `json:"balance,omitempty"`
	UnlockAt  uint64        `json:"unlockAt,omitempty"`
	Active    bool          `json:"active"`
}

func (e *Event) String() string {
	s := fmt.Sprintf("#%d %s resolver=%s", e.Seq, e.Kind, e.Resolver)
	if e.Delegator != nil {
		s += fmt.Sprintf(" delegator=%s", e.Delegator)
	}
	if e.Amount != nil {
		s += fmt.Sprintf(" amount=%s", e.Amount)
	}
	if e.Balance != nil {
		s += fmt.Sprintf(" balance=%s", e.Balance)
	}
	if e.UnlockAt != 0 {
		s += fmt.Sprintf(" unlockAt=%d", e.UnlockAt)
	}
	if e.Kind == KindActivationChanged {
		s += fmt.Sprintf(" active=%v", e.Active)
	}
	return s
}
