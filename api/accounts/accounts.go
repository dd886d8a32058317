// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package accounts

import (
	"math/big"
	"net/http"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/gorilla/mux"

	"github.com/vechain/resolvernet/api/utils"
	"github.com/vechain/resolvernet/resolvers"
	"github.com/vechain/resolvernet/rnet"
)

type Balance struct {
	Account rnet.Address         `json:"account"`
	Asset   rnet.Bytes32         `json:"asset"`
	Balance math.HexOrDecimal256 `json:"balance"`
}

type Accounts struct {
	network *resolvers.Network
}

func New(network *resolvers.Network) *Accounts {
	return &Accounts{network}
}

func (a *Accounts) handleGetBalance(w http.ResponseWriter, req *http.Request) error {
	addr, err := utils.AddressVar(req, "address")
	if err != nil {
		return err
	}
	asset, err := utils.AssetQuery(req, "asset")
	if err != nil {
		return err
	}
	bal, err := a.network.Balance(asset, addr)
	if err != nil {
		return err
	}
	if bal == nil {
		bal = new(big.Int)
	}
	return utils.WriteJSON(w, &Balance{
		Account: addr,
		Asset:   asset,
		Balance: math.HexOrDecimal256(*bal),
	})
}

func (a *Accounts) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/{address}/balance").
		Methods(http.MethodGet).
		Name("GET /accounts/{address}/balance").
		HandlerFunc(utils.WrapHandlerFunc(a.handleGetBalance))
}
