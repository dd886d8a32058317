// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package lvldb backs the state store with goleveldb, on disk or in memory.
package lvldb

import (
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"

	"github.com/vechain/resolvernet/kv"
)

var _ kv.StoreCloser = (*LevelDB)(nil)

const minCacheMiB = 16

// Options tunes a persistent store. Values below 16 are raised to 16.
type Options struct {
	// CacheSize in MiB, split between the block cache and the write buffer.
	CacheSize              int
	OpenFilesCacheCapacity int
}

func (o Options) leveldb() *opt.Options {
	cache := max(o.CacheSize, minCacheMiB)
	return &opt.Options{
		OpenFilesCacheCapacity: max(o.OpenFilesCacheCapacity, minCacheMiB),
		BlockCacheCapacity:     cache / 2 * opt.MiB,
		WriteBuffer:            cache / 4 * opt.MiB,
		Filter:                 filter.NewBloomFilter(10),
	}
}

// LevelDB is a kv store. Single writes are buffered, bulk writes are synced.
type LevelDB struct {
	db  *leveldb.DB
	stg storage.Storage
}

// New opens the store at path, creating it when missing.
func New(path string, opts Options) (*LevelDB, error) {
	stg, err := storage.OpenFile(path, false)
	if err != nil {
		return nil, errors.Wrapf(err, "open storage %s", path)
	}
	return open(stg, opts)
}

// NewMem creates an empty store that lives in memory.
func NewMem() (*LevelDB, error) {
	return open(storage.NewMemStorage(), Options{})
}

func open(stg storage.Storage, opts Options) (*LevelDB, error) {
	db, err := leveldb.Open(stg, opts.leveldb())
	if err != nil {
		stg.Close()
		return nil, errors.Wrap(err, "open leveldb")
	}
	return &LevelDB{db: db, stg: stg}, nil
}

// IsNotFound reports whether err means a missing key.
func (l *LevelDB) IsNotFound(err error) bool { return errors.Is(err, leveldb.ErrNotFound) }

func (l *LevelDB) Get(key []byte) ([]byte, error) { return l.db.Get(key, nil) }
func (l *LevelDB) Has(key []byte) (bool, error)   { return l.db.Has(key, nil) }
func (l *LevelDB) Put(key, val []byte) error      { return l.db.Put(key, val, nil) }
func (l *LevelDB) Delete(key []byte) error        { return l.db.Delete(key, nil) }

// Close releases the store and its file lock. Later calls fail with
// leveldb.ErrClosed.
func (l *LevelDB) Close() error {
	err := l.db.Close()
	if errors.Is(err, leveldb.ErrClosed) {
		return err
	}
	if serr := l.stg.Close(); err == nil && !errors.Is(serr, storage.ErrClosed) {
		err = serr
	}
	return err
}

// Bulk collects writes and applies them in one synced batch.
func (l *LevelDB) Bulk() kv.Bulk {
	return &batch{db: l.db}
}

type batch struct {
	db *leveldb.DB
	leveldb.Batch
}

func (b *batch) Put(key, val []byte) error {
	b.Batch.Put(key, val)
	return nil
}

func (b *batch) Delete(key []byte) error {
	b.Batch.Delete(key)
	return nil
}

// Write is a no-op for an empty batch. The batch is reset on success and
// can be reused.
func (b *batch) Write() error {
	if b.Len() == 0 {
		return nil
	}
	if err := b.db.Write(&b.Batch, &opt.WriteOptions{Sync: true}); err != nil {
		return errors.Wrap(err, "write batch")
	}
	b.Reset()
	return nil
}
