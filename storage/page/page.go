// this code is from https://github.com/brunocalza/go-bustub
// there is license and copyright notice in licenses/go-bustub dir

package page

import (
	"github.com/ryogrid/saitomdb/common"
	"github.com/ryogrid/saitomdb/types"
)

// PageSize is the size in bytes of a page's buffer.
const PageSize = common.PageSize

// Page is a frame's content plus the bookkeeping the buffer pool manager
// needs to decide whether the frame may be reused: the id currently
// resident, how many callers hold a reference to it, and whether it has
// been mutated since it was last written back.
//
// All fields are mutated only while the owning BufferPoolManager holds its
// pool-wide mutex (see storage/buffer); Page itself does no locking.
type Page struct {
	id       types.PageID
	pinCount int
	isDirty  bool
	data     *[PageSize]byte
}

// IncPinCount increments the pin count.
func (p *Page) IncPinCount() {
	p.pinCount++
}

// DecPinCount decrements the pin count. It is a no-op once the count reaches
// zero; callers are expected to never unpin past zero, but a frame reused by
// the BPM and queried concurrently must not underflow.
func (p *Page) DecPinCount() {
	if p.pinCount > 0 {
		p.pinCount--
	}
}

// PinCount returns the pin count.
func (p *Page) PinCount() int {
	return p.pinCount
}

// ID returns the page id resident in this frame.
func (p *Page) ID() types.PageID {
	return p.id
}

// Data returns the frame's backing buffer.
func (p *Page) Data() *[PageSize]byte {
	return p.data
}

func (p *Page) SetIsDirty(isDirty bool) {
	p.isDirty = isDirty
}

func (p *Page) IsDirty() bool {
	return p.isDirty
}

// Copy overwrites the buffer starting at offset. It does not mark the page
// dirty: dirtiness is the caller's declaration via UnpinPage, not an
// automatic consequence of touching the buffer.
func (p *Page) Copy(offset uint32, data []byte) {
	copy(p.data[offset:], data)
}

// ResetMemory zeroes the buffer in place, reusing the existing allocation.
// The buffer pool manager does not call it: it builds a new Page for each
// page id it places in a frame.
func (p *Page) ResetMemory() {
	for i := range p.data {
		p.data[i] = 0
	}
}

// New wraps an already-populated buffer (typically just read from disk) as a
// pinned, clean page.
func New(id types.PageID, isDirty bool, data *[PageSize]byte) *Page {
	return &Page{id, 1, isDirty, data}
}

// NewEmpty returns a pinned, clean page with a freshly zeroed buffer.
func NewEmpty(id types.PageID) *Page {
	return &Page{id, 1, false, &[PageSize]byte{}}
}
