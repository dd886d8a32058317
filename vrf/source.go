// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package vrf produces verifiable random seeds with ECVRF over secp256k1.
package vrf

import (
	"bytes"
	"crypto/ecdsa"
	"encoding/binary"
	"os"
	"sync"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"github.com/vechain/go-ecvrf"

	"github.com/vechain/resolvernet/rnet"
)

// Output is one round of the seed chain together with its proof.
type Output struct {
	Round uint64 `json:"round"`
	Alpha []byte `json:"alpha"`
	Beta  []byte `json:"beta"`
	Proof []byte `json:"proof"`
}

// Source chains VRF outputs: the input of each round commits to the previous
// output, so the sequence can't be reordered or skipped.
type Source struct {
	mu    sync.Mutex
	key   *ecdsa.PrivateKey
	prev  []byte
	round uint64
	last  *Output
}

// NewSource starts a seed chain from genesis.
func NewSource(key *ecdsa.PrivateKey, genesis []byte) *Source {
	return &Source{
		key:  key,
		prev: append([]byte(nil), genesis...),
	}
}

func alpha(prev []byte, round uint64) []byte {
	var num [8]byte
	binary.BigEndian.PutUint64(num[:], round)
	h := rnet.Blake2b(prev, num[:])
	return h.Bytes()
}

// NextSeed advances the chain and returns the new VRF output.
func (s *Source) NextSeed() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	round := s.round + 1
	a := alpha(s.prev, round)
	beta, proof, err := ecvrf.Secp256k1Sha256Tai.Prove(s.key, a)
	if err != nil {
		return nil, errors.Wrap(err, "vrf prove")
	}

	s.round = round
	s.prev = beta
	s.last = &Output{Round: round, Alpha: a, Beta: beta, Proof: proof}
	return append([]byte(nil), beta...), nil
}

// Last returns the latest output, or nil before the first seed.
func (s *Source) Last() *Output {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.last == nil {
		return nil
	}
	out := *s.last
	return &out
}

// PublicKey returns the compressed public key outputs verify against.
func (s *Source) PublicKey() []byte {
	return crypto.CompressPubkey(&s.key.PublicKey)
}

// Verify checks out was produced by the holder of pub.
func Verify(pub []byte, out *Output) error {
	pk, err := crypto.DecompressPubkey(pub)
	if err != nil {
		return errors.Wrap(err, "invalid public key")
	}
	beta, err := ecvrf.Secp256k1Sha256Tai.Verify(pk, out.Alpha, out.Proof)
	if err != nil {
		return errors.Wrap(err, "vrf verify")
	}
	if !bytes.Equal(beta, out.Beta) {
		return errors.New("vrf output mismatch")
	}
	return nil
}

// VerifyChain checks out follows prev, the beta of the previous round or the
// genesis for round one.
func VerifyChain(pub, prev []byte, out *Output) error {
	if !bytes.Equal(alpha(prev, out.Round), out.Alpha) {
		return errors.New("vrf input does not follow previous output")
	}
	return Verify(pub, out)
}

// LoadOrGenerateKey reads a hex key from file, creating one if missing.
func LoadOrGenerateKey(keyFile string) (*ecdsa.PrivateKey, error) {
	key, err := crypto.LoadECDSA(keyFile)
	if err == nil {
		return key, nil
	}
	if !os.IsNotExist(err) {
		return nil, err
	}

	if key, err = crypto.GenerateKey(); err != nil {
		return nil, err
	}
	if err := crypto.SaveECDSA(keyFile, key); err != nil {
		return nil, err
	}
	return key, nil
}
