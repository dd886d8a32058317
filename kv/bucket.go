// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kv

// Bucket namespaces keys sharing one store.
type Bucket string

// Key returns a new slice holding the bucket name followed by key.
func (b Bucket) Key(key []byte) []byte {
	out := make([]byte, 0, len(b)+len(key))
	out = append(out, b...)
	return append(out, key...)
}

// Getter reads the keys of the bucket from src.
func (b Bucket) Getter(src Getter) Getter { return &bucketGetter{b, src} }

// Putter writes the keys of the bucket to dst.
func (b Bucket) Putter(dst Putter) Putter { return &bucketPutter{b, dst} }

type bucketGetter struct {
	b   Bucket
	src Getter
}

func (g *bucketGetter) Get(key []byte) ([]byte, error) { return g.src.Get(g.b.Key(key)) }
func (g *bucketGetter) Has(key []byte) (bool, error)   { return g.src.Has(g.b.Key(key)) }
func (g *bucketGetter) IsNotFound(err error) bool      { return g.src.IsNotFound(err) }

type bucketPutter struct {
	b   Bucket
	dst Putter
}

func (p *bucketPutter) Put(key, val []byte) error { return p.dst.Put(p.b.Key(key), val) }
func (p *bucketPutter) Delete(key []byte) error   { return p.dst.Delete(p.b.Key(key)) }
