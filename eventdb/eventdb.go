// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package eventdb persists network events in SQLite for later filtering.
package eventdb

import (
	"database/sql"
	"math/big"
	"strings"

	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/vechain/resolvernet/resolvers"
	"github.com/vechain/resolvernet/rnet"
)

type OrderType string

const (
	ASC  OrderType = "asc"
	DESC OrderType = "desc"
)

// Range bounds event time, both ends inclusive. A zero To leaves it open.
type Range struct {
	From uint64 `json:"from"`
	To   uint64 `json:"to"`
}

type Options struct {
	Offset uint64 `json:"offset"`
	Limit  uint64 `json:"limit"`
}

type Filter struct {
	Resolver  *rnet.Address         `json:"resolver"`
	Delegator *rnet.Address         `json:"delegator"`
	Kinds     []resolvers.EventKind `json:"kinds"`
	AfterSeq  uint64                `json:"afterSeq"`
	Range     *Range                `json:"range"`
	Order     OrderType             `json:"order"` // default asc
	Options   *Options              `json:"options"`
}

// EventDB manages all persisted events.
type EventDB struct {
	path          string
	db            *sql.DB
	sqliteVersion string
}

// New opens an event db.
func New(path string) (*EventDB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if path == ":memory:" {
		// every connection would get its own database
		db.SetMaxOpenConns(1)
	}
	if _, err := db.Exec(eventTableSchema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "create schema")
	}
	s, _, _ := sqlite3.Version()
	return &EventDB{
		path:          path,
		db:            db,
		sqliteVersion: s,
	}, nil
}

// NewMem creates a memory sqlite db.
func NewMem() (*EventDB, error) {
	return New(":memory:")
}

// Insert stores events, replacing any with the same sequence.
func (db *EventDB) Insert(events []*resolvers.Event) error {
	if len(events) == 0 {
		return nil
	}
	tx, err := db.db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare("INSERT OR REPLACE INTO event(seq, kind, time, resolver, delegator, amount, balance, unlockAt, active) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?);")
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, ev := range events {
		var delegator []byte
		if ev.Delegator != nil {
			delegator = ev.Delegator.Bytes()
		}
		if _, err := stmt.Exec(
			ev.Seq,
			ev.Kind.String(),
			ev.Time,
			ev.Resolver.Bytes(),
			delegator,
			amountValue(ev.Amount),
			amountValue(ev.Balance),
			ev.UnlockAt,
			ev.Active,
		); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// LastSeq returns the highest stored sequence, zero when empty.
func (db *EventDB) LastSeq() (uint64, error) {
	var seq sql.NullInt64
	if err := db.db.QueryRow("SELECT MAX(seq) FROM event").Scan(&seq); err != nil {
		return 0, err
	}
	if !seq.Valid {
		return 0, nil
	}
	return uint64(seq.Int64), nil
}

// Filter returns events matching filter.
func (db *EventDB) Filter(filter *Filter) ([]*resolvers.Event, error) {
	const selectEvents = "SELECT seq, kind, time, resolver, delegator, amount, balance, unlockAt, active FROM event"
	if filter == nil {
		return db.query(selectEvents + " ORDER BY seq ASC")
	}

	var args []any
	stmt := selectEvents + " WHERE 1"
	if filter.Range != nil {
		args = append(args, filter.Range.From)
		stmt += " AND time >= ? "
		if filter.Range.To >= filter.Range.From && filter.Range.To > 0 {
			args = append(args, filter.Range.To)
			stmt += " AND time <= ? "
		}
	}
	if filter.AfterSeq > 0 {
		args = append(args, filter.AfterSeq)
		stmt += " AND seq > ? "
	}
	if filter.Resolver != nil {
		args = append(args, filter.Resolver.Bytes())
		stmt += " AND resolver = ? "
	}
	if filter.Delegator != nil {
		args = append(args, filter.Delegator.Bytes())
		stmt += " AND delegator = ? "
	}
	if len(filter.Kinds) > 0 {
		marks := make([]string, 0, len(filter.Kinds))
		for _, k := range filter.Kinds {
			marks = append(marks, "?")
			args = append(args, k.String())
		}
		stmt += " AND kind IN (" + strings.Join(marks, ",") + ") "
	}

	if filter.Order == DESC {
		stmt += " ORDER BY seq DESC "
	} else {
		stmt += " ORDER BY seq ASC "
	}

	if filter.Options != nil {
		stmt += " limit ?, ? "
		args = append(args, filter.Options.Offset, filter.Options.Limit)
	}
	return db.query(stmt, args...)
}

func (db *EventDB) query(stmt string, args ...any) ([]*resolvers.Event, error) {
	rows, err := db.db.Query(stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*resolvers.Event
	for rows.Next() {
		var (
			seq       uint64
			kind      string
			time      uint64
			resolver  []byte
			delegator []byte
			amount    sql.NullString
			balance   sql.NullString
			unlockAt  uint64
			active    bool
		)
		if err := rows.Scan(&seq, &kind, &time, &resolver, &delegator, &amount, &balance, &unlockAt, &active); err != nil {
			return nil, err
		}
		k, err := resolvers.ParseEventKind(kind)
		if err != nil {
			return nil, err
		}
		ev := &resolvers.Event{
			Seq:      seq,
			Kind:     k,
			Time:     time,
			Resolver: rnet.BytesToAddress(resolver),
			UnlockAt: unlockAt,
			Active:   active,
		}
		if len(delegator) > 0 {
			d := rnet.BytesToAddress(delegator)
			ev.Delegator = &d
		}
		if ev.Amount, err = parseAmount(amount); err != nil {
			return nil, err
		}
		if ev.Balance, err = parseAmount(balance); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

// Path returns the db's file path.
func (db *EventDB) Path() string {
	return db.path
}

// SQLiteVersion returns the version of the linked sqlite library.
func (db *EventDB) SQLiteVersion() string {
	return db.sqliteVersion
}

// Close closes sqlite.
func (db *EventDB) Close() error {
	return db.db.Close()
}

func amountValue(v *big.Int) any {
	if v == nil {
		return nil
	}
	return v.String()
}

func parseAmount(s sql.NullString) (*big.Int, error) {
	if !s.Valid {
		return nil, nil
	}
	v, ok := new(big.Int).SetString(s.String, 10)
	if !ok {
		return nil, errors.Errorf("invalid amount %q", s.String)
	}
	return v, nil
}
