// this code is adapted from https://github.com/ryogrid/SamehadaDB and
// https://github.com/brunocalza/go-bustub
// there is license and copyright notice in licenses/go-bustub dir

package buffer

import (
	"github.com/sasha-s/go-deadlock"

	"github.com/ryogrid/saitomdb/common"
	"github.com/ryogrid/saitomdb/container/hash"
	"github.com/ryogrid/saitomdb/storage/disk"
	"github.com/ryogrid/saitomdb/storage/page"
	"github.com/ryogrid/saitomdb/types"
)

// BufferPoolManager owns a fixed-size array of frames and coordinates every
// caller's access to them: fetching a page from disk, handing out freshly
// allocated pages, and deciding (via its Replacer) which resident page to
// evict when every frame is in use. All of its mutating and reading
// operations are serialized by poolMu; the replacer and page table are both
// assumed/used only from within that critical section.
type BufferPoolManager struct {
	poolMu deadlock.Mutex

	diskManager disk.DiskManager
	pages       []*page.Page
	replacer    Replacer
	freeList    []FrameID
	pageTable   *hash.ExtendibleHashTable[types.PageID, FrameID]

	nextPageID types.PageID
}

// NewBufferPoolManagerDefault is NewBufferPoolManager with the LRU-K and
// hash-bucket parameters common.DefaultLRUKValue and common.DefaultBucketSize.
func NewBufferPoolManagerDefault(poolSize uint32, diskManager disk.DiskManager) *BufferPoolManager {
	return NewBufferPoolManager(poolSize, diskManager, common.DefaultLRUKValue, common.DefaultBucketSize)
}

// NewBufferPoolManager returns an empty buffer pool manager with room for
// poolSize frames. lruK is the K parameter of the LRU-K replacement policy;
// pageTableBucketSize is the extendible hash table's per-bucket capacity.
func NewBufferPoolManager(poolSize uint32, diskManager disk.DiskManager, lruK int, pageTableBucketSize int) *BufferPoolManager {
	pages := make([]*page.Page, poolSize)
	freeList := make([]FrameID, poolSize)
	for i := uint32(0); i < poolSize; i++ {
		freeList[i] = FrameID(i)
	}

	return &BufferPoolManager{
		diskManager: diskManager,
		pages:       pages,
		replacer:    NewLRUKReplacer(int(poolSize), lruK),
		freeList:    freeList,
		pageTable:   hash.NewExtendibleHashTable[types.PageID, FrameID](pageTableBucketSize),
	}
}

// obtainFrame returns a frame usable for a new resident page: a free one if
// available, otherwise whatever the replacer chooses to evict. The caller
// must still write back the displaced page (if any) and remove its mapping
// from the page table before reusing the frame.
func (b *BufferPoolManager) obtainFrame() (FrameID, bool) {
	if len(b.freeList) > 0 {
		frameID := b.freeList[len(b.freeList)-1]
		b.freeList = b.freeList[:len(b.freeList)-1]
		return frameID, true
	}
	return b.replacer.Evict()
}

// evictFrame prepares frameID for reuse: flushes its current page if dirty
// and drops the old mapping. No-op if the frame was never populated.
func (b *BufferPoolManager) evictFrame(frameID FrameID) {
	current := b.pages[frameID]
	if current == nil {
		return
	}

	if current.IsDirty() {
		data := current.Data()
		if err := b.diskManager.WritePage(current.ID(), data[:]); err != nil {
			common.ShPrintf(common.ERROR, "BufferPoolManager: write-back of page %d failed: %v\n", current.ID(), err)
		}
	}
	b.pageTable.Remove(current.ID())
}

// NewPage allocates a fresh page id and pins it in a frame, returning nil
// only when every frame is pinned and none can be reclaimed.
func (b *BufferPoolManager) NewPage() *page.Page {
	b.poolMu.Lock()
	defer b.poolMu.Unlock()

	frameID, ok := b.obtainFrame()
	if !ok {
		return nil
	}
	b.evictFrame(frameID)

	pageID := b.nextPageID
	b.nextPageID++

	pg := page.NewEmpty(pageID)
	b.pages[frameID] = pg
	b.pageTable.Insert(pageID, frameID)

	b.replacer.RecordAccess(frameID)
	b.replacer.SetEvictable(frameID, false)

	common.ShPrintf(common.CACHE_OUT_IN_INFO, "BufferPoolManager: NewPage %d in frame %d\n", pageID, frameID)
	return pg
}

// FetchPage returns the page for pageID, pinning it. On a page table hit it
// never touches the disk manager; on a miss it reclaims a frame (writing
// back and evicting a displaced page if necessary) and reads pageID in.
// Returns nil if the page is not resident and no frame can be reclaimed.
func (b *BufferPoolManager) FetchPage(pageID types.PageID) *page.Page {
	b.poolMu.Lock()
	defer b.poolMu.Unlock()

	if frameID, ok := b.pageTable.Find(pageID); ok {
		pg := b.pages[frameID]
		if pg.PinCount() == 0 {
			b.replacer.SetEvictable(frameID, false)
		}
		pg.IncPinCount()
		b.replacer.RecordAccess(frameID)
		return pg
	}

	frameID, ok := b.obtainFrame()
	if !ok {
		return nil
	}
	b.evictFrame(frameID)

	data := make([]byte, common.PageSize)
	if err := b.diskManager.ReadPage(pageID, data); err != nil {
		common.ShPrintf(common.ERROR, "BufferPoolManager: read of page %d failed: %v\n", pageID, err)
		b.pages[frameID] = nil
		b.freeList = append(b.freeList, frameID)
		return nil
	}
	var buf [common.PageSize]byte
	copy(buf[:], data)

	pg := page.New(pageID, false, &buf)
	b.pages[frameID] = pg
	b.pageTable.Insert(pageID, frameID)

	b.replacer.RecordAccess(frameID)
	b.replacer.SetEvictable(frameID, false)

	common.ShPrintf(common.CACHE_OUT_IN_INFO, "BufferPoolManager: FetchPage %d into frame %d\n", pageID, frameID)
	return pg
}

// UnpinPage decrements pageID's pin count, marking its frame evictable once
// the count reaches zero. isDirty is sticky: once set, a later clean unpin
// does not clear it. Returns false if pageID is not resident or its pin
// count is already zero.
func (b *BufferPoolManager) UnpinPage(pageID types.PageID, isDirty bool) bool {
	b.poolMu.Lock()
	defer b.poolMu.Unlock()

	frameID, ok := b.pageTable.Find(pageID)
	if !ok {
		return false
	}

	pg := b.pages[frameID]
	if pg.PinCount() == 0 {
		return false
	}

	pg.DecPinCount()
	if isDirty {
		pg.SetIsDirty(true)
	}
	if pg.PinCount() == 0 {
		b.replacer.SetEvictable(frameID, true)
	}
	return true
}

// FlushPage writes pageID's buffer to disk unconditionally, regardless of
// pin count, and clears its dirty flag. Returns false if pageID is not
// resident.
func (b *BufferPoolManager) FlushPage(pageID types.PageID) bool {
	b.poolMu.Lock()
	defer b.poolMu.Unlock()

	frameID, ok := b.pageTable.Find(pageID)
	if !ok {
		return false
	}

	pg := b.pages[frameID]
	data := pg.Data()
	if err := b.diskManager.WritePage(pageID, data[:]); err != nil {
		common.ShPrintf(common.ERROR, "BufferPoolManager: FlushPage %d failed: %v\n", pageID, err)
		return false
	}
	pg.SetIsDirty(false)
	return true
}

// FlushAllPages flushes every currently resident page.
func (b *BufferPoolManager) FlushAllPages() {
	b.poolMu.Lock()
	ids := make([]types.PageID, 0, len(b.pages))
	for _, pg := range b.pages {
		if pg != nil {
			ids = append(ids, pg.ID())
		}
	}
	b.poolMu.Unlock()

	for _, id := range ids {
		b.FlushPage(id)
	}
}

// GetPinCount returns the pin count of pageID and true if it is currently
// resident, or (0, false) otherwise. Diagnostic only: callers must not use
// it to decide whether an Unpin/Delete will succeed, since another goroutine
// may change the pin count between the call and any subsequent action.
func (b *BufferPoolManager) GetPinCount(pageID types.PageID) (int, bool) {
	b.poolMu.Lock()
	defer b.poolMu.Unlock()

	frameID, ok := b.pageTable.Find(pageID)
	if !ok {
		return 0, false
	}
	return b.pages[frameID].PinCount(), true
}

// DeletePage removes pageID from the pool, discarding its buffer
// unconditionally (dirty or not) and notifying the disk manager. Returns
// true if pageID was not resident to begin with (the caller's goal is
// already met) or was removed successfully; returns false if pageID is
// resident but still pinned.
func (b *BufferPoolManager) DeletePage(pageID types.PageID) bool {
	b.poolMu.Lock()
	defer b.poolMu.Unlock()

	frameID, ok := b.pageTable.Find(pageID)
	if !ok {
		return true
	}

	pg := b.pages[frameID]
	if pg.PinCount() > 0 {
		return false
	}

	b.pageTable.Remove(pageID)
	b.replacer.Remove(frameID)
	b.diskManager.DeallocatePage(pageID)

	b.pages[frameID] = nil
	b.freeList = append(b.freeList, frameID)
	return true
}
