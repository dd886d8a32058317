// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package slot

import (
	"math/big"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/vechain/resolvernet/rnet"
)

var (
	ErrOverflow  = errors.New("uint256 overflow")
	ErrUnderflow = errors.New("uint256 underflow")
)

// Uint256 is a wrapper for storage and retrieval of an uint256 counter.
// Arithmetic is checked: values never wrap around.
type Uint256 struct {
	context *Context
	pos     rnet.Bytes32
}

func NewUint256(context *Context, pos rnet.Bytes32) *Uint256 {
	return &Uint256{context: context, pos: pos}
}

func (u *Uint256) get() (*uint256.Int, error) {
	storage, err := u.context.state.GetStorage(u.context.address, u.pos)
	if err != nil {
		return nil, err
	}
	return new(uint256.Int).SetBytes32(storage[:]), nil
}

func (u *Uint256) set(value *uint256.Int) {
	u.context.state.SetStorage(u.context.address, u.pos, rnet.Bytes32(value.Bytes32()))
}

func (u *Uint256) Get() (*big.Int, error) {
	v, err := u.get()
	if err != nil {
		return nil, err
	}
	return v.ToBig(), nil
}

func (u *Uint256) Set(value *big.Int) error {
	v, overflow := uint256.FromBig(value)
	if overflow || value.Sign() < 0 {
		return ErrOverflow
	}
	u.set(v)
	return nil
}

func (u *Uint256) Add(value *big.Int) error {
	delta, overflow := uint256.FromBig(value)
	if overflow || value.Sign() < 0 {
		return ErrOverflow
	}
	current, err := u.get()
	if err != nil {
		return err
	}
	sum, overflow := new(uint256.Int).AddOverflow(current, delta)
	if overflow {
		return ErrOverflow
	}
	u.set(sum)
	return nil
}

func (u *Uint256) Sub(value *big.Int) error {
	delta, overflow := uint256.FromBig(value)
	if overflow || value.Sign() < 0 {
		return ErrUnderflow
	}
	current, err := u.get()
	if err != nil {
		return err
	}
	diff, underflow := new(uint256.Int).SubOverflow(current, delta)
	if underflow {
		return ErrUnderflow
	}
	u.set(diff)
	return nil
}
