// this code is adapted from https://github.com/ryogrid/SamehadaDB and
// https://github.com/brunocalza/go-bustub
// there is license and copyright notice in licenses/go-bustub dir

package buffer

import (
	"crypto/rand"
	"testing"

	"github.com/ryogrid/saitomdb/internal/testutil"
	"github.com/ryogrid/saitomdb/storage/disk"
	"github.com/ryogrid/saitomdb/storage/page"
	"github.com/ryogrid/saitomdb/types"
)

func newTestPool(poolSize uint32) (*BufferPoolManager, *disk.RecordingDiskManager) {
	dm := disk.NewDiskManagerTest()
	return NewBufferPoolManagerDefault(poolSize, dm), dm
}

func TestFillAndEvict(t *testing.T) {
	bpm, dm := newTestPool(3)
	defer dm.ShutDown()

	a := bpm.NewPage()
	b := bpm.NewPage()
	c := bpm.NewPage()
	testutil.Equals(t, types.PageID(0), a.ID())
	testutil.Equals(t, types.PageID(1), b.ID())
	testutil.Equals(t, types.PageID(2), c.ID())

	testutil.True(t, bpm.UnpinPage(a.ID(), false), "unpin A")
	testutil.True(t, bpm.UnpinPage(b.ID(), false), "unpin B")
	testutil.True(t, bpm.UnpinPage(c.ID(), false), "unpin C")

	d := bpm.NewPage()
	testutil.True(t, d != nil, "expected NewPage to succeed once a frame is evictable")
	testutil.Equals(t, types.PageID(3), d.ID())
	testutil.Equals(t, 0, len(dm.Writes))
}

func TestPinnedBlocksNew(t *testing.T) {
	bpm, dm := newTestPool(3)
	defer dm.ShutDown()

	bpm.NewPage()
	bpm.NewPage()
	bpm.NewPage()

	testutil.True(t, bpm.NewPage() == nil, "every frame is pinned; NewPage must fail")
	testutil.True(t, bpm.FetchPage(99) == nil, "every frame is pinned; FetchPage on a miss must fail")
}

func TestLRUKTieBreakYoungOverMature(t *testing.T) {
	bpm, dm := newTestPool(3)
	defer dm.ShutDown()

	a := bpm.NewPage() // id 0
	b := bpm.NewPage() // id 1
	c := bpm.NewPage() // id 2
	bpm.UnpinPage(a.ID(), false)
	bpm.UnpinPage(b.ID(), false)
	bpm.UnpinPage(c.ID(), false)

	// A is fetched once more, reaching K=2 accesses (mature); B and C stay
	// at one access each (young). Between the two young slots, B's sole
	// access is the earlier of the two.
	bpm.FetchPage(a.ID())
	bpm.UnpinPage(a.ID(), false)

	// every frame is now evictable; the pool is full, so NewPage forces an
	// eviction. B is young with the oldest first access, so it must be the
	// victim ahead of both mature A and the newer young slot C.
	d := bpm.NewPage()
	testutil.True(t, d != nil, "expected eviction to free a frame")

	_, stillThere := bpm.pageTable.Find(b.ID())
	testutil.True(t, !stillThere, "expected B to have been evicted")
}

func TestDirtyWritebackOnEviction(t *testing.T) {
	bpm, dm := newTestPool(3)
	defer dm.ShutDown()

	a := bpm.NewPage() // id 0
	a.Copy(0, []byte("mutated"))
	testutil.True(t, bpm.UnpinPage(a.ID(), true), "unpin A dirty")

	b := bpm.NewPage()
	bpm.UnpinPage(b.ID(), false)
	c := bpm.NewPage()
	bpm.UnpinPage(c.ID(), false)

	// the pool is full; creating D forces eviction of A, the young slot with
	// the oldest first access
	d := bpm.NewPage()
	bpm.UnpinPage(d.ID(), false)

	testutil.Equals(t, 1, dm.WriteCountOf(a.ID()))

	refetched := bpm.FetchPage(a.ID())
	testutil.True(t, refetched != nil, "expected A to be re-readable from disk")
	var want [page.PageSize]byte
	copy(want[:], "mutated")
	testutil.Equals(t, want, *refetched.Data())
}

func TestDeletePinnedFails(t *testing.T) {
	bpm, dm := newTestPool(3)
	defer dm.ShutDown()

	a := bpm.NewPage()
	testutil.True(t, !bpm.DeletePage(a.ID()), "deleting a pinned page must fail")

	_, ok := bpm.pageTable.Find(a.ID())
	testutil.True(t, ok, "A must remain resident after a failed delete")
}

func TestGetPinCount(t *testing.T) {
	bpm, dm := newTestPool(3)
	defer dm.ShutDown()

	a := bpm.NewPage()
	count, ok := bpm.GetPinCount(a.ID())
	testutil.True(t, ok, "expected A to be resident")
	testutil.Equals(t, 1, count)

	bpm.FetchPage(a.ID())
	count, ok = bpm.GetPinCount(a.ID())
	testutil.True(t, ok, "expected A to be resident")
	testutil.Equals(t, 2, count)

	bpm.UnpinPage(a.ID(), false)
	bpm.UnpinPage(a.ID(), false)
	count, ok = bpm.GetPinCount(a.ID())
	testutil.True(t, ok, "expected A to be resident")
	testutil.Equals(t, 0, count)

	_, ok = bpm.GetPinCount(types.PageID(99))
	testutil.True(t, !ok, "expected a never-resident page id to report not-found")
}

func TestDeleteAbsentPageSucceeds(t *testing.T) {
	bpm, dm := newTestPool(3)
	defer dm.ShutDown()

	testutil.True(t, bpm.DeletePage(types.PageID(42)), "deleting a never-resident id must report success")
}

func TestUnpinUnknownPageFails(t *testing.T) {
	bpm, dm := newTestPool(3)
	defer dm.ShutDown()

	testutil.True(t, !bpm.UnpinPage(types.PageID(7), false), "unpinning a non-resident page must fail")
}

func TestUnpinPastZeroFails(t *testing.T) {
	bpm, dm := newTestPool(3)
	defer dm.ShutDown()

	a := bpm.NewPage()
	testutil.True(t, bpm.UnpinPage(a.ID(), false), "first unpin")
	testutil.True(t, !bpm.UnpinPage(a.ID(), false), "unpinning past zero must fail")
}

func TestDirtyStickiness(t *testing.T) {
	bpm, dm := newTestPool(3)
	defer dm.ShutDown()

	a := bpm.NewPage()
	bpm.FetchPage(a.ID()) // pin count 2

	bpm.UnpinPage(a.ID(), true)
	bpm.UnpinPage(a.ID(), false)

	testutil.True(t, a.IsDirty(), "a later clean unpin must not clear a sticky dirty flag")
}

func TestFlushPageClearsDirty(t *testing.T) {
	bpm, dm := newTestPool(3)
	defer dm.ShutDown()

	a := bpm.NewPage()
	a.SetIsDirty(true)

	testutil.True(t, bpm.FlushPage(a.ID()), "expected flush of a resident page to succeed")
	testutil.True(t, !a.IsDirty(), "flush must clear the dirty flag")
	testutil.Equals(t, 1, dm.WriteCountOf(a.ID()))
}

func TestFlushAllPages(t *testing.T) {
	bpm, dm := newTestPool(3)
	defer dm.ShutDown()

	a := bpm.NewPage()
	b := bpm.NewPage()
	a.SetIsDirty(true)
	b.SetIsDirty(true)

	bpm.FlushAllPages()

	testutil.True(t, !a.IsDirty(), "FlushAllPages must clear every resident page's dirty flag")
	testutil.True(t, !b.IsDirty(), "FlushAllPages must clear every resident page's dirty flag")
}

func TestBinaryData(t *testing.T) {
	poolSize := uint32(10)
	bpm, dm := newTestPool(poolSize)
	defer dm.ShutDown()

	page0 := bpm.NewPage()
	testutil.Equals(t, types.PageID(0), page0.ID())

	randomBinaryData := make([]byte, page.PageSize)
	rand.Read(randomBinaryData)
	randomBinaryData[page.PageSize/2] = '0'
	randomBinaryData[page.PageSize-1] = '0'

	var fixedRandomBinaryData [page.PageSize]byte
	copy(fixedRandomBinaryData[:], randomBinaryData[:page.PageSize])

	page0.Copy(0, randomBinaryData)
	testutil.Equals(t, fixedRandomBinaryData, *page0.Data())

	for i := uint32(1); i < poolSize; i++ {
		p := bpm.NewPage()
		testutil.Equals(t, types.PageID(i), p.ID())
	}

	for i := poolSize; i < poolSize*2; i++ {
		testutil.True(t, bpm.NewPage() == nil, "pool is full of pinned pages")
	}

	for i := 0; i < 5; i++ {
		testutil.True(t, bpm.UnpinPage(types.PageID(i), true), "unpin")
		bpm.FlushPage(types.PageID(i))
	}
	for i := 0; i < 4; i++ {
		p := bpm.NewPage()
		bpm.UnpinPage(p.ID(), false)
	}

	page0 = bpm.FetchPage(types.PageID(0))
	testutil.Equals(t, fixedRandomBinaryData, *page0.Data())
	testutil.True(t, bpm.UnpinPage(types.PageID(0), true), "unpin")
}
