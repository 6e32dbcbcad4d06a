// this code is adapted from https://github.com/ryogrid/SamehadaDB and the
// original CMU 15-445 BusTub lru_k_replacer
// there is license and copyright notice in licenses/samehadadb dir

package buffer

import (
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/golang-collections/collections/stack"
	"github.com/sasha-s/go-deadlock"

	"github.com/ryogrid/saitomdb/common"
)

// lruKNode holds a frame's evictable flag and its most recent access
// timestamps; at most K are retained, since only the latest K ever matter to
// the policy.
type lruKNode struct {
	history   []uint64 // oldest first; length capped at k
	evictable bool
}

func (n *lruKNode) isYoung(k int) bool {
	return len(n.history) < k
}

// earliestAccess is the first-recorded timestamp still held, used to
// tie-break among young slots.
func (n *lruKNode) earliestAccess() uint64 {
	return n.history[0]
}

// backwardKDistance is now - (Kth-most-recent access), i.e. the oldest
// timestamp still retained once a node has reached k accesses.
func (n *lruKNode) backwardKDistance(now uint64) uint64 {
	return now - n.history[0]
}

// LRUKReplacer implements the LRU-K eviction policy: among evictable frames,
// a frame with fewer than K recorded accesses (a "young" slot) is always
// preferred for eviction over one with K or more ("mature"); ties within
// each class are broken by access recency.
//
// A single CLOCK sweep answers a simpler question - "has this frame been
// touched since the clock hand last passed it" - and cannot express a
// frequency-aware policy, so ClockReplacer is not reused here; this is a
// distinct policy, not an adaptation of it.
type LRUKReplacer struct {
	mu deadlock.Mutex

	k                int
	currentTimestamp uint64

	nodes     map[FrameID]*lruKNode
	evictable mapset.Set[FrameID]

	// evictionTrace records the frames this replacer has handed out via
	// Evict, most recent on top; useful for diagnosing eviction storms from
	// a debugger without re-deriving it from the access log.
	evictionTrace *stack.Stack
}

// NewLRUKReplacer constructs a replacer with room for numFrames distinct
// frame ids and backward-distance parameter k. k must be >= 1.
func NewLRUKReplacer(numFrames int, k int) *LRUKReplacer {
	common.SH_Assert(k >= 1, "LRU-K parameter k must be >= 1")
	return &LRUKReplacer{
		k:             k,
		nodes:         make(map[FrameID]*lruKNode, numFrames),
		evictable:     mapset.NewSet[FrameID](),
		evictionTrace: stack.New(),
	}
}

// RecordAccess notes a reference to frame, creating its slot on first use.
func (r *LRUKReplacer) RecordAccess(frame FrameID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.currentTimestamp++

	node, ok := r.nodes[frame]
	if !ok {
		node = &lruKNode{}
		r.nodes[frame] = node
	}

	node.history = append(node.history, r.currentTimestamp)
	if len(node.history) > r.k {
		node.history = node.history[len(node.history)-r.k:]
	}
}

// SetEvictable flips whether frame may be victimized.
func (r *LRUKReplacer) SetEvictable(frame FrameID, evictable bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	node, ok := r.nodes[frame]
	common.SH_Assertf(ok, "SetEvictable on frame %d with no recorded access", frame)

	if node.evictable == evictable {
		return
	}
	node.evictable = evictable
	if evictable {
		r.evictable.Add(frame)
	} else {
		r.evictable.Remove(frame)
	}
}

// Evict selects a victim per the LRU-K policy: the young slot with the
// oldest first access if any young slot is evictable, else the mature slot
// with the largest backward K-distance.
func (r *LRUKReplacer) Evict() (FrameID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var (
		haveYoung       bool
		youngVictim     FrameID
		youngEarliest   uint64
		haveMature      bool
		matureVictim    FrameID
		matureKDistance uint64
	)

	for frame := range r.evictable.Iter() {
		node := r.nodes[frame]
		if node.isYoung(r.k) {
			if !haveYoung || node.earliestAccess() < youngEarliest {
				haveYoung = true
				youngVictim = frame
				youngEarliest = node.earliestAccess()
			}
			continue
		}

		dist := node.backwardKDistance(r.currentTimestamp)
		if !haveMature || dist > matureKDistance {
			haveMature = true
			matureVictim = frame
			matureKDistance = dist
		}
	}

	var victim FrameID
	switch {
	case haveYoung:
		victim = youngVictim
	case haveMature:
		victim = matureVictim
	default:
		return 0, false
	}

	r.evictable.Remove(victim)
	delete(r.nodes, victim)
	r.evictionTrace.Push(victim)
	return victim, true
}

// Remove forcibly drops frame's slot (the buffer pool manager uses this when
// a page is deleted outright). A frame with no slot is a no-op; a
// non-evictable slot fails an assertion.
func (r *LRUKReplacer) Remove(frame FrameID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	node, ok := r.nodes[frame]
	if !ok {
		return
	}
	common.SH_Assertf(node.evictable, "Remove on non-evictable frame %d", frame)

	r.evictable.Remove(frame)
	delete(r.nodes, frame)
}

// Size returns the number of currently evictable slots.
func (r *LRUKReplacer) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.evictable.Cardinality()
}
