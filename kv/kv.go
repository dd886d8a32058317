// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package kv describes the key value store under the network state.
package kv

type (
	// Getter reads keys. Get fails for a missing key with an error that
	// IsNotFound recognizes.
	Getter interface {
		Get(key []byte) ([]byte, error)
		Has(key []byte) (bool, error)
		IsNotFound(err error) bool
	}

	Putter interface {
		Put(key, val []byte) error
		Delete(key []byte) error
	}

	// Bulk buffers puts until Write applies them all at once.
	Bulk interface {
		Putter
		Len() int
		Write() error
	}

	Store interface {
		Getter
		Putter
		Bulk() Bulk
	}

	StoreCloser interface {
		Store
		Close() error
	}
)
