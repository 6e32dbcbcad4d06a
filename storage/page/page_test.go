// this code is adapted from https://github.com/ryogrid/SamehadaDB
// there is license and copyright notice in licenses/samehadadb dir

package page

import (
	"testing"

	"github.com/ryogrid/saitomdb/internal/testutil"
	"github.com/ryogrid/saitomdb/types"
)

func TestNewPage(t *testing.T) {
	p := New(types.PageID(0), false, &[PageSize]byte{})

	testutil.Equals(t, types.PageID(0), p.ID())
	testutil.Equals(t, 1, p.PinCount())
	p.IncPinCount()
	testutil.Equals(t, 2, p.PinCount())
	p.DecPinCount()
	p.DecPinCount()
	testutil.Equals(t, 0, p.PinCount())
	p.DecPinCount() // decrementing past zero is a no-op, not an underflow
	testutil.Equals(t, 0, p.PinCount())
	testutil.Equals(t, false, p.IsDirty())
	p.SetIsDirty(true)
	testutil.Equals(t, true, p.IsDirty())
	p.Copy(0, []byte{'H', 'E', 'L', 'L', 'O'})
	var want [PageSize]byte
	copy(want[:], "HELLO")
	testutil.Equals(t, want, *p.Data())
}

func TestEmptyPage(t *testing.T) {
	p := NewEmpty(types.PageID(0))

	testutil.Equals(t, types.PageID(0), p.ID())
	testutil.Equals(t, 1, p.PinCount())
	testutil.Equals(t, false, p.IsDirty())
	testutil.Equals(t, [PageSize]byte{}, *p.Data())
}

func TestResetMemory(t *testing.T) {
	p := NewEmpty(types.PageID(0))
	p.Copy(0, []byte("stale bytes"))
	p.ResetMemory()
	testutil.Equals(t, [PageSize]byte{}, *p.Data())
}
