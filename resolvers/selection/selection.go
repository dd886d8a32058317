// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package selection picks resolvers for work in proportion to their stake.
package selection

import (
	"bytes"
	"encoding/binary"
	"math"
	"math/big"
	"math/rand"
	"slices"

	"github.com/vechain/resolvernet/rnet"
)

type Candidate struct {
	Address rnet.Address
	Weight  *big.Int
}

type entry struct {
	address rnet.Address
	weight  float64
	hash    rnet.Bytes32
	score   float64
}

// Select draws up to n distinct candidates without replacement, each with
// probability proportional to its weight. Candidates with no weight are never
// picked. The result is fully determined by seed and the candidate set; the
// order candidates are passed in does not matter.
func Select(seed []byte, candidates []Candidate, n int) []rnet.Address {
	if n <= 0 {
		return nil
	}

	var maxWeight *big.Int
	for _, c := range candidates {
		if c.Weight != nil && c.Weight.Sign() > 0 && (maxWeight == nil || c.Weight.Cmp(maxWeight) > 0) {
			maxWeight = c.Weight
		}
	}
	if maxWeight == nil {
		return []rnet.Address{}
	}
	maxF := new(big.Float).SetInt(maxWeight)

	// Step 1: order candidates by a seed-dependent hash so the input order is irrelevant
	shuffled := make([]entry, 0, len(candidates))
	for _, c := range candidates {
		if c.Weight == nil || c.Weight.Sign() <= 0 {
			continue
		}
		shuffled = append(shuffled, entry{
			address: c.Address,
			weight:  relativeWeight(c.Weight, maxF),
			hash:    rnet.Blake2b(seed, c.Address.Bytes()),
		})
	}
	slices.SortStableFunc(shuffled, func(a, b entry) int {
		return bytes.Compare(a.hash.Bytes(), b.hash.Bytes())
	})

	// Step 2: exponential method for weighted random sampling, keyed by
	// ln(u)/w, the log of u^(1/w), which keeps its precision for any weight
	hashedSeed := rnet.Blake2b(seed)
	pseudoRND := rand.New(rand.NewSource(int64(binary.LittleEndian.Uint64(hashedSeed[:])))) // #nosec G404
	for i := range shuffled {
		shuffled[i].score = math.Log(pseudoRND.Float64()) / shuffled[i].weight
	}

	// Step 3: highest scores win
	slices.SortStableFunc(shuffled, func(a, b entry) int {
		if a.score < b.score {
			return 1
		} else if a.score > b.score {
			return -1
		}
		return 0
	})

	if n > len(shuffled) {
		n = len(shuffled)
	}
	picked := make([]rnet.Address, 0, n)
	for _, e := range shuffled[:n] {
		picked = append(picked, e.address)
	}
	return picked
}

// relativeWeight scales w into (0, 1] against the largest weight.
func relativeWeight(w *big.Int, maxWeight *big.Float) float64 {
	r, _ := new(big.Float).Quo(new(big.Float).SetInt(w), maxWeight).Float64()
	if r <= 0 {
		return math.SmallestNonzeroFloat64
	}
	return r
}
