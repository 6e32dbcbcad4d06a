// this code is adapted from https://github.com/ryogrid/SamehadaDB
// there is license and copyright notice in licenses/samehadadb dir

package buffer

// FrameID is the type for frame id.
type FrameID int32

// Replacer tracks which frames are eligible for eviction and decides which
// one to reclaim when the buffer pool manager needs a frame. Implementations
// are not required to be internally thread-safe: the buffer pool manager
// calls a Replacer only from within its own pool-wide critical section.
type Replacer interface {
	// RecordAccess notes a reference to frame. It creates the frame's slot on
	// first use; a newly created slot starts out non-evictable.
	RecordAccess(frame FrameID)

	// SetEvictable flips whether frame may be chosen by Evict, adjusting the
	// replacer's Size accordingly. frame must already have a slot.
	SetEvictable(frame FrameID, evictable bool)

	// Evict selects and removes a victim frame per the replacer's policy. It
	// returns false if no evictable slot exists.
	Evict() (FrameID, bool)

	// Remove drops frame's evictable slot outside of Evict. Removing a frame with no
	// slot is a no-op; removing a non-evictable slot is a programming error.
	Remove(frame FrameID)

	// Size returns the number of currently evictable slots.
	Size() int
}
