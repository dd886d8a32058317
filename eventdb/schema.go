// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package eventdb

const eventTableSchema = `CREATE TABLE IF NOT EXISTS event (
	seq INTEGER PRIMARY KEY,
	kind TEXT NOT NULL,
	time INTEGER NOT NULL,
	resolver BLOB NOT NULL,
	delegator BLOB,
	amount TEXT,
	balance TEXT,
	unlockAt INTEGER NOT NULL DEFAULT 0,
	active INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_event_resolver ON event(resolver);
CREATE INDEX IF NOT EXISTS idx_event_delegator ON event(delegator);
CREATE INDEX IF NOT EXISTS idx_event_time ON event(time);
`
