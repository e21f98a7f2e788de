// Package index implements the per-column index map: an in-memory
// value→RowIDs map for one (table, column) pair, advisory only (its
// absence never changes a query's result, only whether the executor can
// skip a full scan for an equality predicate).
package index

import (
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/samber/lo"

	"github.com/GoldaRizki/sawitdb/internal/storage/heap"
	"github.com/GoldaRizki/sawitdb/internal/storage/pager"
)

// SystemTable is the name of the system table indexes are persisted into.
const SystemTable = "_indexes"

// Index maps a column's distinct values to the RowIDs of rows holding
// them, for a single table+column pair.
type Index struct {
	Table  string
	Column string
	byKey  map[string][]pager.RowID
}

// New returns an empty index for table.column.
func New(table, column string) *Index {
	return &Index{Table: table, Column: column, byKey: make(map[string][]pager.RowID)}
}

// valueKey derives a map key that distinguishes values both by kind and
// by content, so a string "1" and an int64 1 never collide.
func valueKey(v pager.Value) string {
	switch v.Kind {
	case pager.KindNull:
		return "n:"
	case pager.KindBool:
		if v.B {
			return "b:1"
		}
		return "b:0"
	case pager.KindInt64:
		return fmt.Sprintf("i:%d", v.I)
	case pager.KindFloat64:
		return fmt.Sprintf("f:%v", v.F)
	case pager.KindString:
		return "s:" + v.S
	case pager.KindTimestamp:
		return "t:" + v.S
	default:
		return fmt.Sprintf("?:%d", v.Kind)
	}
}

// Add records that row id holds value v for the indexed column.
func (ix *Index) Add(v pager.Value, id pager.RowID) {
	k := valueKey(v)
	ix.byKey[k] = append(ix.byKey[k], id)
}

// Remove drops id from value v's bucket, if present.
func (ix *Index) Remove(v pager.Value, id pager.RowID) {
	k := valueKey(v)
	ids := ix.byKey[k]
	ids = lo.Filter(ids, func(r pager.RowID, _ int) bool { return r != id })
	if len(ids) == 0 {
		delete(ix.byKey, k)
	} else {
		ix.byKey[k] = ids
	}
}

// Move relocates id from oldVal's bucket to newVal's bucket, for a row
// whose indexed value changed while its RowID stayed the same. The
// executor's UPDATE calls Remove and Add separately instead, since an
// update may move the row to a new RowID.
func (ix *Index) Move(oldVal, newVal pager.Value, id pager.RowID) {
	ix.Remove(oldVal, id)
	ix.Add(newVal, id)
}

// Lookup returns the RowIDs recorded for an equality match on v.
func (ix *Index) Lookup(v pager.Value) []pager.RowID {
	return ix.byKey[valueKey(v)]
}

// BuildFromScan performs a full scan of h, populating a fresh index for
// column. Rows missing the column are skipped; the column's absence in a
// row is not the same as an explicit null.
func BuildFromScan(h *heap.Heap, table, column string) (*Index, error) {
	ix := New(table, column)
	err := h.Scan(func(id pager.RowID, rec *pager.Record) (bool, error) {
		if v, ok := rec.Get(column); ok {
			ix.Add(v, id)
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return ix, nil
}

// Size returns the number of distinct values tracked.
func (ix *Index) Size() int { return len(ix.byKey) }

// ───────────────────────────────────────────────────────────────────────────
// Persistence: encode/decode to/from the row codec's byte format, stored
// as one row of the system table _indexes with fields
// {table, column, map_serialized}.
// ───────────────────────────────────────────────────────────────────────────

// Encode serializes the index to a record ready for heap.Insert into
// SystemTable.
func (ix *Index) Encode() *pager.Record {
	blob := encodeMap(ix.byKey)
	return pager.NewRecord(
		pager.Field{Name: "table", Value: pager.StringValue(ix.Table)},
		pager.Field{Name: "column", Value: pager.StringValue(ix.Column)},
		pager.Field{Name: "map_serialized", Value: pager.StringValue(string(blob))},
	)
}

// Decode reconstructs an Index from a record previously produced by Encode.
func Decode(rec *pager.Record) (*Index, error) {
	table, _ := rec.Get("table")
	column, _ := rec.Get("column")
	blob, _ := rec.Get("map_serialized")
	if table.Kind != pager.KindString || column.Kind != pager.KindString || blob.Kind != pager.KindString {
		return nil, fmt.Errorf("index: malformed %s row", SystemTable)
	}
	m, err := decodeMap([]byte(blob.S))
	if err != nil {
		return nil, err
	}
	return &Index{Table: table.S, Column: column.S, byKey: m}, nil
}

// encodeMap flattens a key->[]RowID map deterministically (sorted keys,
// so Encode is reproducible for otherwise-identical indexes) into:
//
//	[0:4)  u32 LE entry count
//	per entry: u16 LE keyLen, key bytes, u32 LE rowCount, rowCount*(u32 page, u32 slot)
func encodeMap(m map[string][]pager.RowID) []byte {
	keys := lo.Keys(m)
	sort.Strings(keys)

	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, uint32(len(keys)))
	for _, k := range keys {
		var kh [2]byte
		binary.LittleEndian.PutUint16(kh[:], uint16(len(k)))
		buf = append(buf, kh[:]...)
		buf = append(buf, k...)

		ids := m[k]
		var ch [4]byte
		binary.LittleEndian.PutUint32(ch[:], uint32(len(ids)))
		buf = append(buf, ch[:]...)
		for _, id := range ids {
			var rb [8]byte
			binary.LittleEndian.PutUint32(rb[0:4], uint32(id.Page))
			binary.LittleEndian.PutUint32(rb[4:8], uint32(id.Slot))
			buf = append(buf, rb[:]...)
		}
	}
	return buf
}

func decodeMap(data []byte) (map[string][]pager.RowID, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("index: truncated map header")
	}
	n := int(binary.LittleEndian.Uint32(data))
	off := 4
	m := make(map[string][]pager.RowID, n)
	for i := 0; i < n; i++ {
		if off+2 > len(data) {
			return nil, fmt.Errorf("index: truncated key length at entry %d", i)
		}
		kl := int(binary.LittleEndian.Uint16(data[off:]))
		off += 2
		if off+kl > len(data) {
			return nil, fmt.Errorf("index: truncated key at entry %d", i)
		}
		key := string(data[off : off+kl])
		off += kl

		if off+4 > len(data) {
			return nil, fmt.Errorf("index: truncated row count at entry %d", i)
		}
		rc := int(binary.LittleEndian.Uint32(data[off:]))
		off += 4
		ids := make([]pager.RowID, 0, rc)
		for j := 0; j < rc; j++ {
			if off+8 > len(data) {
				return nil, fmt.Errorf("index: truncated row id at entry %d/%d", i, j)
			}
			page := pager.PageID(binary.LittleEndian.Uint32(data[off : off+4]))
			slot := int(binary.LittleEndian.Uint32(data[off+4 : off+8]))
			ids = append(ids, pager.RowID{Page: page, Slot: slot})
			off += 8
		}
		m[key] = ids
	}
	return m, nil
}
