// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"bytes"
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/qianbin/directcache"

	"github.com/vechain/resolvernet/cache"
	"github.com/vechain/resolvernet/kv"
	"github.com/vechain/resolvernet/log"
	"github.com/vechain/resolvernet/rnet"
	"github.com/vechain/resolvernet/stackedmap"
)

const (
	defaultCacheSize          = 4096
	defaultCommittedCacheSize = 4 * 1024 * 1024

	storageBucket = kv.Bucket("s")
)

var logger = log.WithContext("pkg", "state")

// Error is the error caused by state access failure.
type Error struct {
	cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("state: %v", e.cause)
}

func (e *Error) Unwrap() error {
	return e.cause
}

type storageKey struct {
	addr rnet.Address
	key  rnet.Bytes32
}

// dbKey is the key within storageBucket.
func (k storageKey) dbKey() []byte {
	return append(k.addr.Bytes(), k.key.Bytes()...)
}

// Options for creating a state.
type Options struct {
	// CacheSize is the number of queried slots kept.
	CacheSize int
	// CommittedCacheSize is the capacity in bytes for recently committed
	// slots.
	CommittedCacheSize int
}

// State manages slots of all owners on top of a kv store.
// It's not safe for concurrent use.
type State struct {
	store kv.Store
	slots kv.Getter
	cache *cache.LRU[storageKey, rlp.RawValue]
	// committed holds raw values by db key, empty for deleted slots.
	committed *directcache.Cache
	sm        *stackedmap.StackedMap[storageKey, rlp.RawValue]
}

// New create state object.
func New(store kv.Store, opts Options) (*State, error) {
	size := opts.CacheSize
	if size <= 0 {
		size = defaultCacheSize
	}
	c, err := cache.NewLRU[storageKey, rlp.RawValue](size)
	if err != nil {
		return nil, err
	}
	committedSize := opts.CommittedCacheSize
	if committedSize <= 0 {
		committedSize = defaultCommittedCacheSize
	}
	s := &State{
		store:     store,
		slots:     storageBucket.Getter(store),
		cache:     c,
		committed: directcache.New(committedSize),
	}
	s.sm = stackedmap.New(s.cacheGetter)
	return s, nil
}

// cacheGetter implements stackedmap.MapGetter.
func (s *State) cacheGetter(key storageKey) (rlp.RawValue, bool, error) {
	v, err := s.cache.GetOrLoad(key, func(key storageKey) (rlp.RawValue, error) {
		var (
			dbKey = key.dbKey()
			data  rlp.RawValue
		)
		if s.committed.AdvGet(dbKey, func(val []byte) { data = bytes.Clone(val) }, false) {
			return data, nil
		}
		data, err := s.slots.Get(dbKey)
		if err != nil {
			if s.slots.IsNotFound(err) {
				return nil, nil
			}
			return nil, err
		}
		return data, nil
	})
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

// GetStorage returns storage value for the given address and key.
func (s *State) GetStorage(addr rnet.Address, key rnet.Bytes32) (rnet.Bytes32, error) {
	raw, err := s.GetRawStorage(addr, key)
	if err != nil {
		return rnet.Bytes32{}, err
	}
	if len(raw) == 0 {
		return rnet.Bytes32{}, nil
	}
	kind, content, _, err := rlp.Split(raw)
	if err != nil {
		return rnet.Bytes32{}, &Error{err}
	}
	if kind == rlp.List {
		// structured value, expose its hash
		return rnet.Blake2b(raw), nil
	}
	return rnet.BytesToBytes32(content), nil
}

// SetStorage set storage value for the given address and key.
func (s *State) SetStorage(addr rnet.Address, key, value rnet.Bytes32) {
	if value.IsZero() {
		s.SetRawStorage(addr, key, nil)
		return
	}
	v, _ := rlp.EncodeToBytes(bytes.TrimLeft(value[:], "\x00"))
	s.SetRawStorage(addr, key, v)
}

// GetRawStorage returns storage value in rlp raw for given address and key.
func (s *State) GetRawStorage(addr rnet.Address, key rnet.Bytes32) (rlp.RawValue, error) {
	data, _, err := s.sm.Get(storageKey{addr, key})
	if err != nil {
		return nil, &Error{err}
	}
	return data, nil
}

// SetRawStorage set storage value in rlp raw. An empty value clears the slot.
func (s *State) SetRawStorage(addr rnet.Address, key rnet.Bytes32, raw rlp.RawValue) {
	s.sm.Put(storageKey{addr, key}, raw)
}

// EncodeStorage set storage value encoded by given enc method.
func (s *State) EncodeStorage(addr rnet.Address, key rnet.Bytes32, enc func() ([]byte, error)) error {
	raw, err := enc()
	if err != nil {
		return &Error{err}
	}
	s.SetRawStorage(addr, key, raw)
	return nil
}

// DecodeStorage get and decode storage value.
func (s *State) DecodeStorage(addr rnet.Address, key rnet.Bytes32, dec func([]byte) error) error {
	raw, err := s.GetRawStorage(addr, key)
	if err != nil {
		return err
	}
	if err := dec(raw); err != nil {
		return &Error{err}
	}
	return nil
}

// NewCheckpoint makes a checkpoint of current state.
// It returns revision of the checkpoint.
func (s *State) NewCheckpoint() int {
	return s.sm.Push()
}

// RevertTo revert to checkpoint specified by revision.
func (s *State) RevertTo(revision int) {
	s.sm.PopTo(revision)
	if s.sm.Depth() == 0 {
		s.sm.Push()
	}
}

// Commit flushes all pending changes into the store atomically.
// Checkpoints taken before are invalidated. On failure nothing is written and
// pending changes are kept.
func (s *State) Commit() error {
	changes := make(map[storageKey]rlp.RawValue)
	var order []storageKey
	s.sm.Journal(func(k storageKey, v rlp.RawValue) bool {
		if _, ok := changes[k]; !ok {
			order = append(order, k)
		}
		changes[k] = v
		return true
	})
	if len(order) == 0 {
		return nil
	}

	bulk := s.store.Bulk()
	slots := storageBucket.Putter(bulk)
	for _, k := range order {
		v := changes[k]
		var err error
		if len(v) == 0 {
			err = slots.Delete(k.dbKey())
		} else {
			err = slots.Put(k.dbKey(), v)
		}
		if err != nil {
			return &Error{err}
		}
	}
	if err := bulk.Write(); err != nil {
		return &Error{err}
	}

	for _, k := range order {
		s.cache.Remove(k)
		s.committed.Set(k.dbKey(), changes[k])
	}
	s.sm = stackedmap.New(s.cacheGetter)

	if changed, hit, miss := s.cache.Stats(); changed {
		logger.Debug("state cache stats", "hit", hit, "miss", miss, "slots", len(order))
	}
	return nil
}
