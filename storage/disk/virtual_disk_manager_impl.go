// this code is adapted from https://github.com/ryogrid/SamehadaDB
// there is license and copyright notice in licenses/samehadadb dir

package disk

import (
	"errors"

	"github.com/dsnet/golib/memfile"
	"github.com/sasha-s/go-deadlock"

	"github.com/ryogrid/saitomdb/common"
	"github.com/ryogrid/saitomdb/types"
)

// VirtualDiskManagerImpl is an in-memory DiskManager backed by
// github.com/dsnet/golib/memfile instead of an *os.File. It exists so tests
// can exercise FetchPage/NewPage/FlushPage against real ReadPage/WritePage
// semantics without touching the filesystem.
type VirtualDiskManagerImpl struct {
	mu             deadlock.Mutex
	db             *memfile.File
	nextPageID     types.PageID
	numWrites      uint64
	size           int64
	deallocedIDMap map[types.PageID]bool
}

// NewVirtualDiskManagerImpl returns an in-memory DiskManager.
func NewVirtualDiskManagerImpl() DiskManager {
	return &VirtualDiskManagerImpl{
		db:             memfile.New(make([]byte, 0)),
		deallocedIDMap: make(map[types.PageID]bool),
	}
}

// ShutDown is a no-op: there is no filesystem handle to release.
func (d *VirtualDiskManagerImpl) ShutDown() {}

func (d *VirtualDiskManagerImpl) WritePage(pageId types.PageID, pageData []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	offset := int64(pageId) * common.PageSize
	if _, err := d.db.WriteAt(pageData, offset); err != nil {
		return err
	}

	if end := offset + int64(len(pageData)); end > d.size {
		d.size = end
	}
	d.numWrites++
	return nil
}

func (d *VirtualDiskManagerImpl) ReadPage(pageID types.PageID, pageData []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.deallocedIDMap[pageID] {
		return types.DeallocatedPageErr
	}

	offset := int64(pageID) * common.PageSize
	if offset >= d.size {
		for i := range pageData {
			pageData[i] = 0
		}
		return nil
	}

	if _, err := d.db.ReadAt(pageData, offset); err != nil {
		return errors.New("I/O error while reading")
	}
	return nil
}

func (d *VirtualDiskManagerImpl) AllocatePage() types.PageID {
	d.mu.Lock()
	defer d.mu.Unlock()

	ret := d.nextPageID
	d.nextPageID++
	return ret
}

func (d *VirtualDiskManagerImpl) DeallocatePage(pageID types.PageID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.deallocedIDMap[pageID] = true
}

func (d *VirtualDiskManagerImpl) GetNumWrites() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.numWrites
}

func (d *VirtualDiskManagerImpl) Size() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.size
}
