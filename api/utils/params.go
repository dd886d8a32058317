// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package utils

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/vechain/resolvernet/currency"
	"github.com/vechain/resolvernet/rnet"
)

// AddressVar parses the named path variable as an address.
func AddressVar(r *http.Request, name string) (rnet.Address, error) {
	addr, err := rnet.ParseAddress(mux.Vars(r)[name])
	if err != nil {
		return rnet.Address{}, BadRequest(errors.WithMessage(err, name))
	}
	return addr, nil
}

// BoolQuery parses an optional boolean query parameter.
func BoolQuery(r *http.Request, name string) (bool, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, BadRequest(errors.WithMessage(err, name))
	}
	return v, nil
}

// AssetQuery parses the asset query parameter. A 32 byte hex string is taken
// as is, anything else is an asset name.
func AssetQuery(r *http.Request, name string) (rnet.Bytes32, error) {
	s := r.URL.Query().Get(name)
	switch {
	case len(s) == 66 && s[:2] == "0x":
		b, err := rnet.ParseBytes32(s)
		if err != nil {
			return rnet.Bytes32{}, BadRequest(errors.WithMessage(err, name))
		}
		return b, nil
	default:
		return currency.ByName(s), nil
	}
}
