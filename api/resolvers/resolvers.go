// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package resolvers

import (
	"encoding/hex"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/vechain/resolvernet/api/utils"
	"github.com/vechain/resolvernet/resolvers"
)

// maxSelection bounds a single selection request.
const maxSelection = 256

type Resolvers struct {
	network *resolvers.Network
}

func New(network *resolvers.Network) *Resolvers {
	return &Resolvers{network}
}

func (r *Resolvers) handleGetResolvers(w http.ResponseWriter, req *http.Request) error {
	activeOnly, err := utils.BoolQuery(req, "active")
	if err != nil {
		return err
	}
	states, err := r.network.Resolvers(activeOnly)
	if err != nil {
		return err
	}
	out := make([]*Resolver, 0, len(states))
	for _, s := range states {
		out = append(out, convertResolver(s))
	}
	return utils.WriteJSON(w, out)
}

func (r *Resolvers) handleGetResolver(w http.ResponseWriter, req *http.Request) error {
	id, err := utils.AddressVar(req, "id")
	if err != nil {
		return err
	}
	s, err := r.network.QueryResolverState(id)
	if err != nil {
		return utils.Revert(err)
	}
	return utils.WriteJSON(w, convertResolver(s))
}

func (r *Resolvers) handleGetDelegations(w http.ResponseWriter, req *http.Request) error {
	id, err := utils.AddressVar(req, "id")
	if err != nil {
		return err
	}
	states, err := r.network.Delegations(id)
	if err != nil {
		return utils.Revert(err)
	}
	out := make([]*Delegation, 0, len(states))
	for _, s := range states {
		out = append(out, convertDelegation(s))
	}
	return utils.WriteJSON(w, out)
}

func (r *Resolvers) handleGetDelegation(w http.ResponseWriter, req *http.Request) error {
	id, err := utils.AddressVar(req, "id")
	if err != nil {
		return err
	}
	delegator, err := utils.AddressVar(req, "delegator")
	if err != nil {
		return err
	}
	d, err := r.network.QueryDelegation(delegator, id)
	if err != nil {
		return err
	}
	if d == nil {
		return utils.NotFound(errors.New("delegation not found"))
	}
	return utils.WriteJSON(w, convertDelegation(&resolvers.DelegationState{
		Delegator:  delegator,
		Resolver:   id,
		Delegation: d,
	}))
}

func (r *Resolvers) handleGetTotals(w http.ResponseWriter, _ *http.Request) error {
	t, err := r.network.Totals()
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, convertTotals(t))
}

func (r *Resolvers) handleSelect(w http.ResponseWriter, req *http.Request) error {
	count := 1
	if s := req.URL.Query().Get("count"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > maxSelection {
			return utils.BadRequest(errors.Errorf("count: expected 1..%d", maxSelection))
		}
		count = n
	}
	selected, seed, err := r.network.Select(count)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &Selection{
		Resolvers: selected,
		Seed:      "0x" + hex.EncodeToString(seed),
	})
}

func (r *Resolvers) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodGet).
		Name("GET /resolvers").
		HandlerFunc(utils.WrapHandlerFunc(r.handleGetResolvers))
	sub.Path("/totals").
		Methods(http.MethodGet).
		Name("GET /resolvers/totals").
		HandlerFunc(utils.WrapHandlerFunc(r.handleGetTotals))
	sub.Path("/selection").
		Methods(http.MethodGet).
		Name("GET /resolvers/selection").
		HandlerFunc(utils.WrapHandlerFunc(r.handleSelect))
	sub.Path("/{id:0x[0-9a-fA-F]{40}}").
		Methods(http.MethodGet).
		Name("GET /resolvers/{id}").
		HandlerFunc(utils.WrapHandlerFunc(r.handleGetResolver))
	sub.Path("/{id:0x[0-9a-fA-F]{40}}/delegations").
		Methods(http.MethodGet).
		Name("GET /resolvers/{id}/delegations").
		HandlerFunc(utils.WrapHandlerFunc(r.handleGetDelegations))
	sub.Path("/{id:0x[0-9a-fA-F]{40}}/delegations/{delegator}").
		Methods(http.MethodGet).
		Name("GET /resolvers/{id}/delegations/{delegator}").
		HandlerFunc(utils.WrapHandlerFunc(r.handleGetDelegation))
}
