// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package state manages the slot storage of the network's registries and ledgers.
// It follows the flow as bellow:
//
//	         o
//	         |
//	[ revertable state ]
//	         |
//	  [ stacked map ] -> [ journal ] -> [ bulk write ] -> [ kv store ]
//	         |
//	   [ lru cache ]
//	         |
//	    [ kv store ]
//
// Every slot is addressed by an owner address and a 32 bytes key. Writes stay in
// the stacked map until Commit, so a checkpoint can drop everything an operation did.
package state
