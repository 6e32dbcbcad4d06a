// this code is adapted from https://github.com/ryogrid/SamehadaDB
// there is license and copyright notice in licenses/samehadadb dir

package disk

import "github.com/ryogrid/saitomdb/types"

// RecordingDiskManager wraps a DiskManager and records every ReadPage and
// WritePage call, so a test can assert exactly how many times (and with
// which page id) the buffer pool manager touched durable storage — e.g. the
// "exactly one WritePage(A, ...) call" property of the dirty-writeback
// scenario.
type RecordingDiskManager struct {
	DiskManager
	Reads  []types.PageID
	Writes []types.PageID
}

// NewDiskManagerTest returns an in-memory DiskManager instrumented for
// assertions, suitable for use in any test that would otherwise need a real
// database file on disk.
func NewDiskManagerTest() *RecordingDiskManager {
	return &RecordingDiskManager{DiskManager: NewVirtualDiskManagerImpl()}
}

func (d *RecordingDiskManager) ReadPage(pageID types.PageID, pageData []byte) error {
	d.Reads = append(d.Reads, pageID)
	return d.DiskManager.ReadPage(pageID, pageData)
}

func (d *RecordingDiskManager) WritePage(pageID types.PageID, pageData []byte) error {
	d.Writes = append(d.Writes, pageID)
	return d.DiskManager.WritePage(pageID, pageData)
}

// WriteCountOf returns how many times WritePage was called for pageID.
func (d *RecordingDiskManager) WriteCountOf(pageID types.PageID) int {
	n := 0
	for _, id := range d.Writes {
		if id == pageID {
			n++
		}
	}
	return n
}
