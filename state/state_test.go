// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"testing"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/resolvernet/lvldb"
	"github.com/vechain/resolvernet/rnet"
)

func newState(t *testing.T) (*State, *lvldb.LevelDB) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	st, err := New(db, Options{CacheSize: 16})
	require.NoError(t, err)
	return st, db
}

func TestStorage(t *testing.T) {
	st, _ := newState(t)
	addr := rnet.BytesToAddress([]byte("account1"))
	key := rnet.BytesToBytes32([]byte("key"))

	v, err := st.GetStorage(addr, key)
	require.NoError(t, err)
	assert.True(t, v.IsZero())

	value := rnet.BytesToBytes32([]byte("value"))
	st.SetStorage(addr, key, value)

	v, err = st.GetStorage(addr, key)
	require.NoError(t, err)
	assert.Equal(t, value, v)

	st.SetStorage(addr, key, rnet.Bytes32{})
	raw, err := st.GetRawStorage(addr, key)
	require.NoError(t, err)
	assert.Empty(t, raw)
}

func TestStructuredStorage(t *testing.T) {
	st, _ := newState(t)
	addr := rnet.BytesToAddress([]byte("account1"))
	key := rnet.BytesToBytes32([]byte("key"))

	type record struct {
		A uint64
		B []byte
	}
	in := record{A: 7, B: []byte("b")}
	require.NoError(t, st.EncodeStorage(addr, key, func() ([]byte, error) {
		return rlp.EncodeToBytes(&in)
	}))

	var out record
	require.NoError(t, st.DecodeStorage(addr, key, func(raw []byte) error {
		return rlp.DecodeBytes(raw, &out)
	}))
	assert.Equal(t, in, out)

	hash, err := st.GetStorage(addr, key)
	require.NoError(t, err)
	raw, _ := rlp.EncodeToBytes(&in)
	assert.Equal(t, rnet.Blake2b(raw), hash)

	err = st.DecodeStorage(addr, key, func(raw []byte) error {
		var wrong uint64
		return rlp.DecodeBytes(raw, &wrong)
	})
	var stateErr *Error
	assert.ErrorAs(t, err, &stateErr)
}

func TestCheckpointRevert(t *testing.T) {
	st, _ := newState(t)
	addr := rnet.BytesToAddress([]byte("account1"))
	k1 := rnet.BytesToBytes32([]byte("k1"))
	v1 := rnet.BytesToBytes32([]byte("v1"))
	v2 := rnet.BytesToBytes32([]byte("v2"))

	st.SetStorage(addr, k1, v1)
	cp := st.NewCheckpoint()
	st.SetStorage(addr, k1, v2)

	v, err := st.GetStorage(addr, k1)
	require.NoError(t, err)
	assert.Equal(t, v2, v)

	st.RevertTo(cp)
	v, err = st.GetStorage(addr, k1)
	require.NoError(t, err)
	assert.Equal(t, v1, v)

	// reverting past the base level keeps the state writable
	st.RevertTo(0)
	st.SetStorage(addr, k1, v2)
	v, err = st.GetStorage(addr, k1)
	require.NoError(t, err)
	assert.Equal(t, v2, v)
}

func TestCommit(t *testing.T) {
	st, db := newState(t)
	addr := rnet.BytesToAddress([]byte("account1"))
	k1 := rnet.BytesToBytes32([]byte("k1"))
	k2 := rnet.BytesToBytes32([]byte("k2"))
	v1 := rnet.BytesToBytes32([]byte("v1"))

	st.SetStorage(addr, k1, v1)
	st.SetStorage(addr, k2, v1)
	st.SetStorage(addr, k2, rnet.Bytes32{})
	require.NoError(t, st.Commit())

	// a fresh state over the same store sees the committed values
	reopened, err := New(db, Options{})
	require.NoError(t, err)

	v, err := reopened.GetStorage(addr, k1)
	require.NoError(t, err)
	assert.Equal(t, v1, v)

	v, err = reopened.GetStorage(addr, k2)
	require.NoError(t, err)
	assert.True(t, v.IsZero())

	has, err := storageBucket.Getter(db).Has(storageKey{addr, k2}.dbKey())
	require.NoError(t, err)
	assert.False(t, has)

	// nothing pending
	require.NoError(t, st.Commit())
}

func TestReadAfterCommit(t *testing.T) {
	st, _ := newState(t)
	addr := rnet.BytesToAddress([]byte("account1"))
	key := rnet.BytesToBytes32([]byte("key"))
	v1 := rnet.BytesToBytes32([]byte("v1"))
	v2 := rnet.BytesToBytes32([]byte("v2"))

	// load the empty slot into the cache first
	v, err := st.GetStorage(addr, key)
	require.NoError(t, err)
	assert.True(t, v.IsZero())

	st.SetStorage(addr, key, v1)
	require.NoError(t, st.Commit())
	v, err = st.GetStorage(addr, key)
	require.NoError(t, err)
	assert.Equal(t, v1, v)

	st.SetStorage(addr, key, v2)
	require.NoError(t, st.Commit())
	v, err = st.GetStorage(addr, key)
	require.NoError(t, err)
	assert.Equal(t, v2, v)

	st.SetStorage(addr, key, rnet.Bytes32{})
	require.NoError(t, st.Commit())
	v, err = st.GetStorage(addr, key)
	require.NoError(t, err)
	assert.True(t, v.IsZero())
}
