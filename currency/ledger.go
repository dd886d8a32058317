// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package currency is a multi-asset balance ledger kept in state.
package currency

import (
	"math/big"
	"strings"

	"github.com/pkg/errors"

	"github.com/vechain/resolvernet/log"
	"github.com/vechain/resolvernet/resolvers/reverts"
	"github.com/vechain/resolvernet/rnet"
	"github.com/vechain/resolvernet/slot"
	"github.com/vechain/resolvernet/state"
)

var (
	logger = log.WithContext("pkg", "currency")

	storageAddress = rnet.BytesToAddress([]byte("currency"))
	slotBalances   = rnet.BytesToBytes32([]byte("balances"))
	slotIssuance   = rnet.BytesToBytes32([]byte("issuance"))
)

// Native is the chain's own asset.
var Native = rnet.Bytes32{}

// Token returns the asset id of a named fungible token.
func Token(symbol string) rnet.Bytes32 {
	return rnet.Blake2b([]byte("token"), []byte(symbol))
}

// ByName maps an asset name onto its id. Empty and "native", in any case,
// name the native asset.
func ByName(name string) rnet.Bytes32 {
	if name == "" || strings.EqualFold(name, "native") {
		return Native
	}
	return Token(name)
}

type balanceKey struct {
	asset   rnet.Bytes32
	account rnet.Address
}

func (k balanceKey) Bytes() []byte {
	return append(k.asset.Bytes(), k.account.Bytes()...)
}

// Ledger keeps balances per (asset, account). Writes go through the state's
// journal, so they are reverted and committed with it. Ledger does no locking
// of its own; callers serialize access.
type Ledger struct {
	state    *state.State
	balances *slot.Mapping[balanceKey, *big.Int]
	issuance *slot.Mapping[rnet.Bytes32, *big.Int]
}

func New(st *state.State) *Ledger {
	sctx := slot.NewContext(storageAddress, st)
	return &Ledger{
		state:    st,
		balances: slot.NewMapping[balanceKey, *big.Int](sctx, slotBalances),
		issuance: slot.NewMapping[rnet.Bytes32, *big.Int](sctx, slotIssuance),
	}
}

// JournaledBy reports whether the ledger writes through st.
func (l *Ledger) JournaledBy(st *state.State) bool {
	return l.state == st
}

func (l *Ledger) get(key balanceKey) (*big.Int, error) {
	v, err := l.balances.Get(key)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get balance")
	}
	if v == nil {
		return new(big.Int), nil
	}
	return v, nil
}

func (l *Ledger) set(key balanceKey, v *big.Int) error {
	if v.Sign() == 0 {
		l.balances.Delete(key)
		return nil
	}
	if err := l.balances.Set(key, v); err != nil {
		return errors.Wrap(err, "failed to set balance")
	}
	return nil
}

func (l *Ledger) BalanceOf(asset rnet.Bytes32, account rnet.Address) (*big.Int, error) {
	return l.get(balanceKey{asset, account})
}

// Transfer moves amount of asset. It fails with ErrInsufficientBalance and
// changes nothing when from can't cover it.
func (l *Ledger) Transfer(asset rnet.Bytes32, from, to rnet.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return errors.New("negative transfer amount")
	}
	if amount.Sign() == 0 || from == to {
		return nil
	}

	fromKey, toKey := balanceKey{asset, from}, balanceKey{asset, to}
	fromBalance, err := l.get(fromKey)
	if err != nil {
		return err
	}
	if fromBalance.Cmp(amount) < 0 {
		return reverts.ErrInsufficientBalance.WithMessage("%s has %s, needs %s", from, fromBalance, amount)
	}
	toBalance, err := l.get(toKey)
	if err != nil {
		return err
	}

	if err := l.set(fromKey, fromBalance.Sub(fromBalance, amount)); err != nil {
		return err
	}
	return l.set(toKey, toBalance.Add(toBalance, amount))
}

// Mint creates amount of asset in account. It is used for genesis endowments.
func (l *Ledger) Mint(asset rnet.Bytes32, account rnet.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return errors.New("mint amount must be positive")
	}
	key := balanceKey{asset, account}
	balance, err := l.get(key)
	if err != nil {
		return err
	}
	supply, err := l.TotalIssuance(asset)
	if err != nil {
		return err
	}
	if err := l.set(key, balance.Add(balance, amount)); err != nil {
		return err
	}
	if err := l.issuance.Set(asset, supply.Add(supply, amount)); err != nil {
		return errors.Wrap(err, "failed to set issuance")
	}
	logger.Debug("minted", "asset", asset, "account", account, "amount", amount)
	return nil
}

// TotalIssuance returns the amount of asset ever minted.
func (l *Ledger) TotalIssuance(asset rnet.Bytes32) (*big.Int, error) {
	v, err := l.issuance.Get(asset)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get issuance")
	}
	if v == nil {
		return new(big.Int), nil
	}
	return v, nil
}
