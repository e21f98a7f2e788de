// Package pager implements the single-file, fixed-page storage layer for
// SawitDB: the on-disk header page, the slotted data-page layout, the LRU
// page cache, the bump allocator, and the header-page table catalog.
//
// The pager is the only component that touches the database file. Every
// other layer (table heap, index map, executor) speaks PageIDs and byte
// buffers and never opens a file handle itself.
package pager

import (
	"encoding/binary"
	"fmt"
)

// PageSize is the fixed size, in bytes, of every page in a SawitDB file.
const PageSize = 4096

// HeaderPageID is the reserved page holding the file magic and catalog.
const HeaderPageID PageID = 0

// Magic identifies a SawitDB file. It occupies header page bytes [0:4).
var Magic = [4]byte{'W', 'O', 'W', 'O'}

// Header page field offsets.
const (
	hdrOffMagic      = 0
	hdrOffPageCount  = 4
	hdrOffTableCount = 8
	hdrOffEntries    = 12
)

// Data page field offsets (see slotted_page.go for the record area).
const (
	dpOffNext      = 0
	dpOffSlotCount = 4
	dpOffFreeOff   = 6
	dpHeaderSize   = 8
)

// PageID identifies a page by its position in the file (offset = id * PageSize).
type PageID uint32

// RowID addresses a single record within a table heap.
type RowID struct {
	Page PageID
	Slot int
}

func (r RowID) String() string { return fmt.Sprintf("(%d,%d)", r.Page, r.Slot) }

// newDataPage returns a zeroed, initialized empty data page buffer:
// next=0, slot count=0, free offset=dpHeaderSize.
func newDataPage() []byte {
	buf := make([]byte, PageSize)
	binary.LittleEndian.PutUint32(buf[dpOffNext:], 0)
	binary.LittleEndian.PutUint16(buf[dpOffSlotCount:], 0)
	binary.LittleEndian.PutUint16(buf[dpOffFreeOff:], dpHeaderSize)
	return buf
}

func dpNext(buf []byte) PageID {
	return PageID(binary.LittleEndian.Uint32(buf[dpOffNext:]))
}

func dpSetNext(buf []byte, next PageID) {
	binary.LittleEndian.PutUint32(buf[dpOffNext:], uint32(next))
}

func dpSlotCount(buf []byte) int {
	return int(binary.LittleEndian.Uint16(buf[dpOffSlotCount:]))
}

func dpSetSlotCount(buf []byte, n int) {
	binary.LittleEndian.PutUint16(buf[dpOffSlotCount:], uint16(n))
}

func dpFreeOff(buf []byte) int {
	return int(binary.LittleEndian.Uint16(buf[dpOffFreeOff:]))
}

func dpSetFreeOff(buf []byte, off int) {
	binary.LittleEndian.PutUint16(buf[dpOffFreeOff:], uint16(off))
}

func getU32(buf []byte, off int) uint32 {
	return binary.LittleEndian.Uint32(buf[off:])
}

func putU32(buf []byte, off int, v uint32) {
	binary.LittleEndian.PutUint32(buf[off:], v)
}
