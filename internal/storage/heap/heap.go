// Package heap implements the table heap: a logical table as a singly
// linked chain of data pages holding slotted, schemaless records, built
// on the tightly-packed, directory-free page layout in pager.DataPage.
package heap

import (
	"errors"
	"fmt"

	"github.com/GoldaRizki/sawitdb/internal/storage/pager"
)

// ErrRecordTooLarge is returned by Insert/Update when an encoded record
// plus its 2-byte length prefix would exceed a single page's capacity.
var ErrRecordTooLarge = errors.New("heap: record too large for a page")

// maxRecordBytes is the largest payload InsertRecord can ever place on an
// otherwise-empty page: PageSize - header(8) - length-prefix(2).
const maxRecordBytes = pager.PageSize - 8 - 2

// Heap is a table's page chain, addressed by its head PageID.
type Heap struct {
	p    *pager.Pager
	head pager.PageID
}

// Open wraps an existing table's head page for heap operations.
func Open(p *pager.Pager, head pager.PageID) *Heap {
	return &Heap{p: p, head: head}
}

// Insert encodes rec and appends it to the first page in the chain with
// room, allocating and linking a new page if none has space. It returns
// the new record's RowID.
func (h *Heap) Insert(rec *pager.Record) (pager.RowID, error) {
	data, err := pager.MarshalRecord(rec)
	if err != nil {
		return pager.RowID{}, err
	}
	if len(data) > maxRecordBytes {
		return pager.RowID{}, fmt.Errorf("%w: %d bytes (max %d)", ErrRecordTooLarge, len(data), maxRecordBytes)
	}
	return h.insertEncoded(data)
}

func (h *Heap) insertEncoded(data []byte) (pager.RowID, error) {
	cur := h.head
	var lastBuf []byte
	for {
		buf, err := h.p.ReadPage(cur)
		if err != nil {
			return pager.RowID{}, err
		}
		dp := pager.WrapDataPage(buf)
		if slot, ok := dp.InsertRecord(data); ok {
			if err := h.p.WritePage(cur, dp.Bytes()); err != nil {
				return pager.RowID{}, err
			}
			return pager.RowID{Page: cur, Slot: slot}, nil
		}
		if dp.Next() != 0 {
			cur = dp.Next()
			continue
		}
		lastBuf = buf
		break
	}

	newID, err := h.p.AllocPage()
	if err != nil {
		return pager.RowID{}, err
	}
	lastPage := pager.WrapDataPage(lastBuf)
	lastPage.SetNext(newID)
	if err := h.p.WritePage(cur, lastPage.Bytes()); err != nil {
		return pager.RowID{}, err
	}

	newBuf, err := h.p.ReadPage(newID)
	if err != nil {
		return pager.RowID{}, err
	}
	newPage := pager.WrapDataPage(newBuf)
	slot, ok := newPage.InsertRecord(data)
	if !ok {
		return pager.RowID{}, fmt.Errorf("%w: does not fit even on a fresh page", ErrRecordTooLarge)
	}
	if err := h.p.WritePage(newID, newPage.Bytes()); err != nil {
		return pager.RowID{}, err
	}
	return pager.RowID{Page: newID, Slot: slot}, nil
}

// Visit is the callback Scan invokes for every live record, in chain
// order then intra-page slot order. Returning false stops the scan
// early; returning a non-nil error aborts it.
type Visit func(id pager.RowID, rec *pager.Record) (keepGoing bool, err error)

// Scan walks the chain from the head page, decoding every live (non
// tombstoned) record and invoking fn. Tombstoned slots are skipped
// silently but still consume a serial position. Each emitted record
// carries a "_id" field set to its serial position across the whole
// table (chain order, then intra-page slot order), alongside whatever
// fields the row itself has.
func (h *Heap) Scan(fn Visit) error {
	cur := h.head
	serial := int64(0)
	for {
		buf, err := h.p.ReadPage(cur)
		if err != nil {
			return err
		}
		dp := pager.WrapDataPage(buf)
		n := dp.SlotCount()
		for i := 0; i < n; i++ {
			raw, ok := dp.RecordAt(i)
			if !ok {
				serial++
				continue
			}
			rec, err := pager.UnmarshalRecord(raw)
			if err != nil {
				return fmt.Errorf("heap: decode record %s: %w", pager.RowID{Page: cur, Slot: i}, err)
			}
			rec.Set("_id", pager.IntValue(serial))
			serial++
			keepGoing, err := fn(pager.RowID{Page: cur, Slot: i}, rec)
			if err != nil {
				return err
			}
			if !keepGoing {
				return nil
			}
		}
		next := dp.Next()
		if next == 0 {
			return nil
		}
		cur = next
	}
}

// Get decodes and returns a single record by RowID.
func (h *Heap) Get(id pager.RowID) (*pager.Record, bool, error) {
	buf, err := h.p.ReadPage(id.Page)
	if err != nil {
		return nil, false, err
	}
	dp := pager.WrapDataPage(buf)
	raw, ok := dp.RecordAt(id.Slot)
	if !ok {
		return nil, false, nil
	}
	rec, err := pager.UnmarshalRecord(raw)
	if err != nil {
		return nil, false, err
	}
	return rec, true, nil
}

// Update re-encodes rec and writes it to id. If the new encoding fits
// within the old slot, it is rewritten in place. Otherwise the old slot
// is tombstoned and the new encoding is inserted
// as a fresh record, possibly on a different page; the (possibly new)
// RowID is returned.
func (h *Heap) Update(id pager.RowID, rec *pager.Record) (pager.RowID, error) {
	data, err := pager.MarshalRecord(rec)
	if err != nil {
		return pager.RowID{}, err
	}
	if len(data) > maxRecordBytes {
		return pager.RowID{}, fmt.Errorf("%w: %d bytes (max %d)", ErrRecordTooLarge, len(data), maxRecordBytes)
	}

	buf, err := h.p.ReadPage(id.Page)
	if err != nil {
		return pager.RowID{}, err
	}
	dp := pager.WrapDataPage(buf)
	if dp.UpdateRecord(id.Slot, data) {
		if err := h.p.WritePage(id.Page, dp.Bytes()); err != nil {
			return pager.RowID{}, err
		}
		return id, nil
	}

	if err := dp.DeleteRecord(id.Slot); err != nil {
		return pager.RowID{}, err
	}
	if err := h.p.WritePage(id.Page, dp.Bytes()); err != nil {
		return pager.RowID{}, err
	}
	return h.insertEncoded(data)
}

// Delete tombstones id's slot and best-effort-compacts trailing
// tombstones on its page. Space freed by interior deletes is not
// reclaimed; only a run of tombstones at the end of a page ever shrinks.
func (h *Heap) Delete(id pager.RowID) error {
	buf, err := h.p.ReadPage(id.Page)
	if err != nil {
		return err
	}
	dp := pager.WrapDataPage(buf)
	if err := dp.DeleteRecord(id.Slot); err != nil {
		return err
	}
	dp.CompactTrailing()
	return h.p.WritePage(id.Page, dp.Bytes())
}
