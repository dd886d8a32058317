// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package slot provides typed views over the slots a single owner holds in the state.
package slot

import (
	"github.com/vechain/resolvernet/rnet"
	"github.com/vechain/resolvernet/state"
)

// Context binds typed slots to an owner address in a state.
type Context struct {
	address rnet.Address
	state   *state.State
}

func NewContext(address rnet.Address, state *state.State) *Context {
	return &Context{
		address: address,
		state:   state,
	}
}

func (c *Context) Address() rnet.Address {
	return c.address
}

func (c *Context) State() *state.State {
	return c.state
}
