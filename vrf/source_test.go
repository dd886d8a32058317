// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package vrf

import (
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedChain(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	genesis := []byte("genesis")
	src := NewSource(key, genesis)
	assert.Nil(t, src.Last())

	seed1, err := src.NextSeed()
	require.NoError(t, err)
	out1 := src.Last()
	require.NotNil(t, out1)
	assert.Equal(t, uint64(1), out1.Round)
	assert.Equal(t, seed1, out1.Beta)
	require.NoError(t, VerifyChain(src.PublicKey(), genesis, out1))

	seed2, err := src.NextSeed()
	require.NoError(t, err)
	assert.NotEqual(t, seed1, seed2)
	out2 := src.Last()
	require.NoError(t, VerifyChain(src.PublicKey(), seed1, out2))

	// out of order
	assert.Error(t, VerifyChain(src.PublicKey(), genesis, out2))

	// deterministic for the same key and genesis
	again := NewSource(key, genesis)
	s, err := again.NextSeed()
	require.NoError(t, err)
	assert.Equal(t, seed1, s)
}

func TestVerifyRejectsTampering(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	other, err := crypto.GenerateKey()
	require.NoError(t, err)

	src := NewSource(key, nil)
	_, err = src.NextSeed()
	require.NoError(t, err)
	out := src.Last()

	assert.Error(t, Verify(crypto.CompressPubkey(&other.PublicKey), out))
	assert.Error(t, Verify([]byte{1, 2, 3}, out))

	bad := *out
	bad.Beta = append([]byte{0}, out.Beta[1:]...)
	if out.Beta[0] == 0 {
		bad.Beta[0] = 1
	}
	assert.Error(t, Verify(src.PublicKey(), &bad))
}

func TestLoadOrGenerateKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vrf.key")

	key, err := LoadOrGenerateKey(path)
	require.NoError(t, err)

	loaded, err := LoadOrGenerateKey(path)
	require.NoError(t, err)
	assert.Equal(t, crypto.FromECDSA(key), crypto.FromECDSA(loaded))
}
