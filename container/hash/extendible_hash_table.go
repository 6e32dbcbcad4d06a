// this code is adapted from the extendible hash table described in the CMU
// 15-445 BusTub source tree (container/hash/extendible_hash_table.cpp) and
// follows the latching conventions of
// https://github.com/ryogrid/SamehadaDB's container/hash package
// there is license and copyright notice in licenses/samehadadb dir

// Package hash implements a concurrent, dynamically growing hash table used
// as a page table: a map from a fixed-width integer key to an arbitrary
// value, backed by a directory that doubles in size as buckets overflow
// rather than rehashing the whole table.
package hash

import (
	"encoding/binary"

	pair "github.com/notEpsilon/go-pair"
	"github.com/sasha-s/go-deadlock"
	"github.com/spaolacci/murmur3"

	"github.com/ryogrid/saitomdb/common"
)

// Key is the set of integer-like types this table can hash. Keys are
// hashed by their little-endian byte representation, so any width works
// uniformly.
type Key interface {
	~int | ~int32 | ~int64 | ~uint32 | ~uint64
}

// hashOf feeds the key's bytes through a murmur3 128-bit hasher and takes
// the low 32 bits, rather than calling the narrower Sum32 helper.
func hashOf[K Key](key K) uint32 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(key))

	h := murmur3.New128()
	h.Write(buf[:])
	sum := h.Sum(nil)
	return binary.LittleEndian.Uint32(sum)
}

// bucket is an ordered list of up to capacity key/value pairs, sharing one
// latch between its contents and its directory slot(s). Embedding the
// latch in the bucket (rather than in a side table keyed by bucket
// pointer) means a bucket's latch lives and dies with the bucket itself,
// with no separate collection to keep in sync.
type bucket[K Key, V any] struct {
	latch      common.ReaderWriterLatch
	localDepth int
	capacity   int
	entries    []pair.Pair[K, V]
}

func newBucket[K Key, V any](capacity, localDepth int) *bucket[K, V] {
	return &bucket[K, V]{
		latch:      common.NewRWLatch(),
		localDepth: localDepth,
		capacity:   capacity,
	}
}

func (b *bucket[K, V]) find(key K) (V, bool) {
	for _, e := range b.entries {
		if e.First == key {
			return e.Second, true
		}
	}
	var zero V
	return zero, false
}

func (b *bucket[K, V]) remove(key K) bool {
	for i, e := range b.entries {
		if e.First == key {
			b.entries = append(b.entries[:i], b.entries[i+1:]...)
			return true
		}
	}
	return false
}

// insert overwrites key's value in place if key is already present. If not,
// it appends a new pair when there is room and reports false when the
// bucket is full of other keys.
func (b *bucket[K, V]) insert(key K, value V) bool {
	for i, e := range b.entries {
		if e.First == key {
			b.entries[i].Second = value
			return true
		}
	}
	if len(b.entries) >= b.capacity {
		return false
	}
	b.entries = append(b.entries, pair.Pair[K, V]{First: key, Second: value})
	return true
}

func (b *bucket[K, V]) isFull() bool {
	return len(b.entries) >= b.capacity
}

// ExtendibleHashTable is a concurrent map from K to V. A single mutex
// guards the directory's shape (its length and which bucket each slot
// points at); each bucket's own latch guards its contents. Find, Remove and
// Insert release the directory mutex before taking a bucket latch; split
// takes a bucket latch while holding the directory mutex. No path acquires
// the directory mutex while holding a bucket latch, so the two never nest in
// the opposite order and the table cannot deadlock with itself.
type ExtendibleHashTable[K Key, V any] struct {
	mu deadlock.Mutex

	bucketSize  int
	globalDepth int
	numBuckets  int
	dir         []*bucket[K, V]
}

// NewExtendibleHashTable returns a table with a single bucket of the given
// capacity at global depth zero.
func NewExtendibleHashTable[K Key, V any](bucketSize int) *ExtendibleHashTable[K, V] {
	common.SH_Assert(bucketSize >= 1, "extendible hash table bucket size must be >= 1")

	b := newBucket[K, V](bucketSize, 0)
	return &ExtendibleHashTable[K, V]{
		bucketSize: bucketSize,
		numBuckets: 1,
		dir:        []*bucket[K, V]{b},
	}
}

// indexOf must be called with t.mu held.
func (t *ExtendibleHashTable[K, V]) indexOf(key K) int {
	mask := uint32((1 << t.globalDepth) - 1)
	return int(hashOf(key) & mask)
}

// bucketFor resolves key to its current bucket under the directory mutex,
// then releases the mutex before returning: the bucket's own latch governs
// everything that happens next.
func (t *ExtendibleHashTable[K, V]) bucketFor(key K) (int, *bucket[K, V]) {
	t.mu.Lock()
	defer t.mu.Unlock()
	idx := t.indexOf(key)
	return idx, t.dir[idx]
}

// Find returns the value stored for key, if any.
func (t *ExtendibleHashTable[K, V]) Find(key K) (V, bool) {
	_, b := t.bucketFor(key)
	b.latch.RLock()
	defer b.latch.RUnlock()
	return b.find(key)
}

// Remove erases key if present and reports whether it was.
func (t *ExtendibleHashTable[K, V]) Remove(key K) bool {
	_, b := t.bucketFor(key)
	b.latch.WLock()
	defer b.latch.WUnlock()
	return b.remove(key)
}

// Insert stores value for key, overwriting any existing value for that key.
// It always eventually succeeds, splitting and (if necessary) doubling the
// directory as many times as needed to make room.
func (t *ExtendibleHashTable[K, V]) Insert(key K, value V) {
	for {
		idx, b := t.bucketFor(key)

		b.latch.WLock()
		ok := b.insert(key, value)
		b.latch.WUnlock()
		if ok {
			return
		}

		t.split(idx, b)
	}
}

// split grows the directory (doubling it first if the overflowing bucket's
// local depth has caught up to the global depth) and redistributes the
// bucket's entries between it and a new sibling. Called with no latches
// held; it acquires the directory mutex for its whole duration, so any
// concurrent Insert/Find/Remove blocks on bucketFor until the split
// completes rather than observing a half-updated directory.
func (t *ExtendibleHashTable[K, V]) split(idx int, b *bucket[K, V]) {
	t.mu.Lock()
	defer t.mu.Unlock()

	// A racing Insert may have already performed this split between our
	// caller's bucketFor and this lock; nothing to do in that case.
	if t.dir[idx] != b {
		return
	}

	// b.entries is guarded by b.latch, not t.mu, and a racing Insert can be
	// appending to it right now (bucketFor already released t.mu before that
	// Insert took the latch), so the fullness re-check must happen under
	// the latch too, not just the dir-identity check above.
	b.latch.WLock()
	defer b.latch.WUnlock()

	if !b.isFull() {
		return
	}

	if b.localDepth == t.globalDepth {
		t.doubleDir()
	}

	b.localDepth++
	sibling := newBucket[K, V](t.bucketSize, b.localDepth)
	t.numBuckets++

	splitBit := 1 << (b.localDepth - 1)
	for i, slot := range t.dir {
		if slot == b && i&splitBit != 0 {
			t.dir[i] = sibling
		}
	}

	t.redistribute(b, sibling)
}

// doubleDir must be called with t.mu held.
func (t *ExtendibleHashTable[K, V]) doubleDir() {
	old := t.dir
	grown := make([]*bucket[K, V], len(old)*2)
	copy(grown, old)
	copy(grown[len(old):], old)
	t.dir = grown
	t.globalDepth++
}

// redistribute moves b's entries into sibling wherever the directory (as of
// this call) now routes them there. Must be called with t.mu and b.latch
// held, after sibling has already been installed into the directory.
func (t *ExtendibleHashTable[K, V]) redistribute(b, sibling *bucket[K, V]) {
	kept := b.entries[:0]
	for _, e := range b.entries {
		idx := t.indexOf(e.First)
		if t.dir[idx] == sibling {
			sibling.entries = append(sibling.entries, e)
		} else {
			kept = append(kept, e)
		}
	}
	b.entries = kept
}

// GetGlobalDepth returns log2 of the directory's current length.
func (t *ExtendibleHashTable[K, V]) GetGlobalDepth() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.globalDepth
}

// GetLocalDepth returns the local depth of the bucket currently referenced
// by directory slot dirIndex.
func (t *ExtendibleHashTable[K, V]) GetLocalDepth(dirIndex int) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.dir[dirIndex].localDepth
}

// GetNumBuckets returns the number of distinct buckets currently allocated.
func (t *ExtendibleHashTable[K, V]) GetNumBuckets() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.numBuckets
}
