// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package events

import (
	"github.com/ethereum/go-ethereum/common/math"

	"github.com/vechain/resolvernet/resolvers"
	"github.com/vechain/resolvernet/rnet"
)

// Event is the wire form of a notification. Amounts are signed where the
// notification carries a delta.
type Event struct {
	Seq       uint64                `json:"seq"`
	Kind      resolvers.EventKind   `json:"kind"`
	Time      uint64                `json:"time"`
	Resolver  rnet.Address          `json:"resolver"`
	Delegator *rnet.Address         `json:"delegator,omitempty"`
	Amount    *math.HexOrDecimal256 `json:"amount,omitempty"`
	Balance   *math.HexOrDecimal256 `json:"balance,omitempty"`
	UnlockAt  uint64                `json:"unlockAt,omitempty"`
	Active    *bool                 `json:"active,omitempty"`
}

func NewEvent(ev *resolvers.Event) *Event {
	out := &Event{
		Seq:       ev.Seq,
		Kind:      ev.Kind,
		Time:      ev.Time,
		Resolver:  ev.Resolver,
		Delegator: ev.Delegator,
		UnlockAt:  ev.UnlockAt,
	}
	if ev.Amount != nil {
		out.Amount = (*math.HexOrDecimal256)(ev.Amount)
	}
	if ev.Balance != nil {
		out.Balance = (*math.HexOrDecimal256)(ev.Balance)
	}
	if ev.Kind == resolvers.KindActivationChanged {
		active := ev.Active
		out.Active = &active
	}
	return out
}
