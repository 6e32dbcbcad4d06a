// this code is adapted from https://github.com/brunocalza/go-bustub and
// https://github.com/ryogrid/SamehadaDB
// there is license and copyright notice in licenses/go-bustub dir

package disk

import (
	"errors"
	"io"
	"log"
	"os"

	"github.com/ryogrid/saitomdb/common"
	"github.com/ryogrid/saitomdb/types"
)

// DiskManagerImpl is the file-backed implementation of DiskManager. It owns
// no page cache of its own: every ReadPage/WritePage is a real syscall, which
// is exactly the property the buffer pool exists to amortize.
type DiskManagerImpl struct {
	db         *os.File
	fileName   string
	nextPageID types.PageID
	numWrites  uint64
	size       int64
}

// NewDiskManagerImpl returns a DiskManager instance backed by dbFilename,
// creating it if necessary and resuming the page id counter from its
// existing size.
func NewDiskManagerImpl(dbFilename string) DiskManager {
	file, err := os.OpenFile(dbFilename, os.O_RDWR|os.O_CREATE, 0666)
	if err != nil {
		log.Fatalln("can't open db file:", err)
		return nil
	}

	fileInfo, err := file.Stat()
	if err != nil {
		log.Fatalln("file info error:", err)
		return nil
	}

	fileSize := fileInfo.Size()
	nPages := fileSize / common.PageSize

	return &DiskManagerImpl{file, dbFilename, types.PageID(nPages), 0, fileSize}
}

// ShutDown closes the database file.
func (d *DiskManagerImpl) ShutDown() {
	d.db.Close()
}

// WritePage writes exactly common.PageSize bytes to the slot for pageId.
func (d *DiskManagerImpl) WritePage(pageId types.PageID, pageData []byte) error {
	offset := int64(pageId) * common.PageSize
	if _, err := d.db.Seek(offset, io.SeekStart); err != nil {
		return err
	}
	bytesWritten, err := d.db.Write(pageData)
	if err != nil {
		return err
	}

	if bytesWritten != common.PageSize {
		return errors.New("bytes written not equal to page size")
	}

	if offset+int64(bytesWritten) > d.size {
		d.size = offset + int64(bytesWritten)
	}
	d.numWrites++

	return d.db.Sync()
}

// ReadPage fills pageData with the bytes stored for pageID. Reading a page
// past the current end of file is not an error: the slot is treated as an
// all-zero page that was never written, matching a freshly allocated id.
func (d *DiskManagerImpl) ReadPage(pageID types.PageID, pageData []byte) error {
	offset := int64(pageID) * common.PageSize

	fileInfo, err := d.db.Stat()
	if err != nil {
		return errors.New("file info error")
	}

	if offset >= fileInfo.Size() {
		for i := range pageData {
			pageData[i] = 0
		}
		return nil
	}

	if _, err := d.db.Seek(offset, io.SeekStart); err != nil {
		return errors.New("seek error while reading")
	}

	bytesRead, err := d.db.Read(pageData)
	if err != nil && err != io.EOF {
		return errors.New("I/O error while reading")
	}

	for i := bytesRead; i < common.PageSize; i++ {
		pageData[i] = 0
	}
	return nil
}

// AllocatePage hands out the next page id. Ids are never reused within a
// disk manager's lifetime; DeallocatePage is a notification only.
func (d *DiskManagerImpl) AllocatePage() types.PageID {
	ret := d.nextPageID
	d.nextPageID++
	return ret
}

// DeallocatePage notifies the disk manager that pageID's storage may be
// reclaimed. This implementation does not reuse disk space.
func (d *DiskManagerImpl) DeallocatePage(pageID types.PageID) {
}

// GetNumWrites returns the number of successful WritePage calls.
func (d *DiskManagerImpl) GetNumWrites() uint64 {
	return d.numWrites
}

// Size returns the size in bytes of the database file.
func (d *DiskManagerImpl) Size() int64 {
	return d.size
}

// RemoveDBFile deletes the backing file. Call only after ShutDown.
func (d *DiskManagerImpl) RemoveDBFile() {
	os.Remove(d.fileName)
}
