// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package credibility

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/resolvernet/lvldb"
	"github.com/vechain/resolvernet/rnet"
	"github.com/vechain/resolvernet/state"
	"github.com/vechain/resolvernet/test/datagen"
)

func newRegistry(t *testing.T) *Registry {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	st, err := state.New(db, state.Options{})
	require.NoError(t, err)
	r, err := New(st, DefaultInitial, DefaultMax)
	require.NoError(t, err)
	return r
}

func TestNewBounds(t *testing.T) {
	_, err := New(nil, 101, 100)
	assert.Error(t, err)
}

func TestScores(t *testing.T) {
	r := newRegistry(t)
	id := datagen.RandAddress()

	score, err := r.CredibilityOf(id)
	require.NoError(t, err)
	assert.Equal(t, DefaultInitial, score)

	tests := []struct {
		name string
		op   func() error
		want uint8
	}{
		{"set", func() error { return r.Set(id, 40) }, 40},
		{"reward", func() error { return r.Reward(id, 10) }, 50},
		{"reward saturates", func() error { return r.Reward(id, 200) }, 100},
		{"slash", func() error { return r.Slash(id, 80) }, 20},
		{"slash saturates", func() error { return r.Slash(id, 21) }, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, tt.op())
			score, err := r.CredibilityOf(id)
			require.NoError(t, err)
			assert.Equal(t, tt.want, score)
		})
	}

	assert.Error(t, r.Set(id, 101))
}

func TestHooks(t *testing.T) {
	r := newRegistry(t)
	id := datagen.RandAddress()

	type change struct {
		id    rnet.Address
		score uint8
	}
	var changes []change
	r.OnChange(func(id rnet.Address, score uint8) {
		// hooks run outside the lock and may read back
		got, err := r.CredibilityOf(id)
		assert.NoError(t, err)
		assert.Equal(t, score, got)
		changes = append(changes, change{id, score})
	})

	require.NoError(t, r.Set(id, 40))
	require.NoError(t, r.Set(id, 40))
	require.NoError(t, r.Slash(id, 20))

	assert.Equal(t, []change{{id, 40}, {id, 20}}, changes)
}
