package engine

import (
	"fmt"
	"sort"

	"github.com/samber/lo"

	"github.com/GoldaRizki/sawitdb/internal/storage/heap"
	"github.com/GoldaRizki/sawitdb/internal/storage/index"
	"github.com/GoldaRizki/sawitdb/internal/storage/pager"
)

// Operation descriptor shapes consumed from an external parser (out of
// scope for this module), which is expected to produce these directly.

type CreateTable struct {
	Name     string
	IsSystem bool
}

type Insert struct {
	Table string
	Data  *pager.Record
}

type Select struct {
	Table    string
	Cols     []string // nil or containing "*" means all columns
	Criteria *Criteria
	OrderBy  string
	OrderAsc bool
	Limit    int // 0 means no limit
	Offset   int
}

type Update struct {
	Table    string
	Updates  map[string]pager.Value
	Criteria *Criteria
}

type Delete struct {
	Table    string
	Criteria *Criteria
}

type CreateIndex struct {
	Table  string
	Column string
}

type DropTable struct {
	Name string
}

// EventType names the mutation events the executor emits after a
// successful operation.
type EventType string

const (
	OnTableInserted EventType = "OnTableInserted"
	OnTableUpdated  EventType = "OnTableUpdated"
	OnTableDeleted  EventType = "OnTableDeleted"
)

// Event is delivered synchronously, within the call that produced it, to
// every subscriber registered on the Executor.
type Event struct {
	Type     EventType
	Table    string
	Data     *pager.Record
	Criteria *Criteria
	Updates  map[string]pager.Value
}

// Subscriber receives events as they are emitted. Subscription order is
// not meaningful; all subscribers see every event for every table.
type Subscriber func(Event)

// Executor resolves operation descriptors against the storage layer: the
// catalog for name resolution, the table heap for row access, and the
// index registry for equality-predicate shortcuts and maintenance. It is
// the executor shell in concrete form.
type Executor struct {
	p           *pager.Pager
	indexes     map[string]*index.Index // key: table + "." + column
	subscribers []Subscriber
	emitting    bool // one-bit reentrancy guard against subscriber re-entry
}

// NewExecutor wires an Executor over an already-open Pager. Indexes must
// be loaded separately via LoadIndexes.
func NewExecutor(p *pager.Pager) *Executor {
	return &Executor{p: p, indexes: make(map[string]*index.Index)}
}

// Subscribe registers fn to receive every future event.
func (ex *Executor) Subscribe(fn Subscriber) {
	ex.subscribers = append(ex.subscribers, fn)
}

// emit fans an event out to every subscriber. Subscribers must not call
// back into the Executor from within their callback; emit silently
// drops any re-entrant emission rather than recursing, since a
// subscriber-triggered mutation mid-fan-out would observe inconsistent
// state.
func (ex *Executor) emit(ev Event) {
	if ex.emitting {
		return
	}
	ex.emitting = true
	defer func() { ex.emitting = false }()
	for _, sub := range ex.subscribers {
		sub(ev)
	}
}

func indexKey(table, column string) string { return table + "." + column }

// LoadIndexes populates the in-memory index registry by scanning the
// system table _indexes, if it exists. Called once when a database is
// opened.
func (ex *Executor) LoadIndexes() error {
	entry, ok, err := ex.p.FindTableEntry(index.SystemTable)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	h := heap.Open(ex.p, entry.Head)
	return h.Scan(func(_ pager.RowID, rec *pager.Record) (bool, error) {
		ix, err := index.Decode(rec)
		if err != nil {
			return false, err
		}
		ex.indexes[indexKey(ix.Table, ix.Column)] = ix
		return true, nil
	})
}

func (ex *Executor) openHeap(table string) (*heap.Heap, error) {
	entry, ok, err := ex.p.FindTableEntry(table)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %q", pager.ErrTableNotFound, table)
	}
	return heap.Open(ex.p, entry.Head), nil
}

// ExecuteCreateTable dispatches `CREATE TABLE {name, isSystem?}`.
func (ex *Executor) ExecuteCreateTable(op CreateTable) error {
	_, err := ex.p.CreateTable(op.Name, op.IsSystem)
	return err
}

// ExecuteDropTable dispatches `DROP TABLE {name}`. Associated indexes are
// dropped from the registry; their rows remain in _indexes on disk until
// a future compaction pass, mirroring how a dropped table's own data
// pages are left unreclaimed.
func (ex *Executor) ExecuteDropTable(op DropTable) error {
	if err := ex.p.DropTable(op.Name); err != nil {
		return err
	}
	for k, ix := range ex.indexes {
		if ix.Table == op.Name {
			delete(ex.indexes, k)
		}
	}
	return nil
}

// ExecuteInsert dispatches `INSERT {table, data}`, maintaining any
// indexes defined on the table's columns.
func (ex *Executor) ExecuteInsert(op Insert) error {
	h, err := ex.openHeap(op.Table)
	if err != nil {
		return err
	}
	id, err := h.Insert(op.Data)
	if err != nil {
		return err
	}
	for col, ix := range ex.indexesFor(op.Table) {
		if v, ok := op.Data.Get(col); ok {
			ix.Add(v, id)
		}
	}
	ex.emit(Event{Type: OnTableInserted, Table: op.Table, Data: op.Data})
	return nil
}

// indexesFor returns the column->Index map for every index defined on
// table.
func (ex *Executor) indexesFor(table string) map[string]*index.Index {
	out := make(map[string]*index.Index)
	for _, ix := range ex.indexes {
		if ix.Table == table {
			out[ix.Column] = ix
		}
	}
	return out
}

// ExecuteSelect dispatches `SELECT {table, cols, criteria?, orderBy?,
// limit?, offset?}`. An equality predicate on an indexed column bypasses
// the full scan; otherwise every live row is
// scanned and filtered.
func (ex *Executor) ExecuteSelect(op Select) ([]*pager.Record, error) {
	h, err := ex.openHeap(op.Table)
	if err != nil {
		return nil, err
	}

	var matches []*pager.Record
	if op.Criteria != nil {
		if v, ixName, ok := ex.tryIndexLookup(op.Table, *op.Criteria); ok {
			ids := ex.indexes[ixName].Lookup(v)
			for _, id := range ids {
				rec, found, err := h.Get(id)
				if err != nil {
					return nil, err
				}
				if found {
					matches = append(matches, rec)
				}
			}
			return finishSelect(matches, op)
		}
	}

	err = h.Scan(func(_ pager.RowID, rec *pager.Record) (bool, error) {
		if op.Criteria != nil {
			ok, err := Eval(*op.Criteria, rec)
			if err != nil {
				return false, err
			}
			if !ok {
				return true, nil
			}
		}
		matches = append(matches, rec)
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return finishSelect(matches, op)
}

func (ex *Executor) tryIndexLookup(table string, c Criteria) (pager.Value, string, bool) {
	for _, ix := range ex.indexes {
		if ix.Table != table {
			continue
		}
		if v, ok := indexableEquality(c, ix.Column); ok {
			return v, indexKey(table, ix.Column), true
		}
	}
	return pager.Value{}, "", false
}

func finishSelect(rows []*pager.Record, op Select) ([]*pager.Record, error) {
	if op.OrderBy != "" {
		var sortErr error
		sort.SliceStable(rows, func(i, j int) bool {
			vi, _ := rows[i].Get(op.OrderBy)
			vj, _ := rows[j].Get(op.OrderBy)
			cmp, err := Compare(vi, vj)
			if err != nil {
				sortErr = err
				return false
			}
			if op.OrderAsc {
				return cmp < 0
			}
			return cmp > 0
		})
		if sortErr != nil {
			return nil, sortErr
		}
	}

	if op.Offset > 0 {
		if op.Offset >= len(rows) {
			rows = nil
		} else {
			rows = rows[op.Offset:]
		}
	}
	if op.Limit > 0 && op.Limit < len(rows) {
		rows = rows[:op.Limit]
	}

	if len(op.Cols) == 0 || (len(op.Cols) == 1 && op.Cols[0] == "*") {
		return rows, nil
	}
	return lo.Map(rows, func(rec *pager.Record, _ int) *pager.Record {
		return project(rec, op.Cols)
	}), nil
}

func project(rec *pager.Record, cols []string) *pager.Record {
	out := &pager.Record{}
	for _, c := range cols {
		if v, ok := rec.Get(c); ok {
			out.Set(c, v)
		}
	}
	return out
}

// ExecuteUpdate dispatches `UPDATE {table, updates, criteria}`,
// maintaining any indexes on the changed columns.
func (ex *Executor) ExecuteUpdate(op Update) (int, error) {
	h, err := ex.openHeap(op.Table)
	if err != nil {
		return 0, err
	}
	indexes := ex.indexesFor(op.Table)

	var toUpdate []pager.RowID
	err = h.Scan(func(id pager.RowID, rec *pager.Record) (bool, error) {
		if op.Criteria != nil {
			ok, err := Eval(*op.Criteria, rec)
			if err != nil {
				return false, err
			}
			if !ok {
				return true, nil
			}
		}
		toUpdate = append(toUpdate, id)
		return true, nil
	})
	if err != nil {
		return 0, err
	}

	count := 0
	for _, id := range toUpdate {
		old, found, err := h.Get(id)
		if err != nil {
			return count, err
		}
		if !found {
			continue
		}
		newRec := old.Clone()
		for col, v := range op.Updates {
			newRec.Set(col, v)
		}
		newID, err := h.Update(id, newRec)
		if err != nil {
			return count, err
		}
		for col, ix := range indexes {
			oldV, oldOK := old.Get(col)
			newV, newOK := newRec.Get(col)
			if oldOK {
				ix.Remove(oldV, id)
			}
			if newOK {
				ix.Add(newV, newID)
			}
		}
		count++
	}
	if count > 0 {
		ex.emit(Event{Type: OnTableUpdated, Table: op.Table, Criteria: op.Criteria, Updates: op.Updates})
	}
	return count, nil
}

// ExecuteDelete dispatches `DELETE {table, criteria}`, maintaining any
// indexes on the table.
func (ex *Executor) ExecuteDelete(op Delete) (int, error) {
	h, err := ex.openHeap(op.Table)
	if err != nil {
		return 0, err
	}
	indexes := ex.indexesFor(op.Table)

	var toDelete []pager.RowID
	var toDeleteRecs []*pager.Record
	err = h.Scan(func(id pager.RowID, rec *pager.Record) (bool, error) {
		if op.Criteria != nil {
			ok, err := Eval(*op.Criteria, rec)
			if err != nil {
				return false, err
			}
			if !ok {
				return true, nil
			}
		}
		toDelete = append(toDelete, id)
		toDeleteRecs = append(toDeleteRecs, rec)
		return true, nil
	})
	if err != nil {
		return 0, err
	}

	for i, id := range toDelete {
		if err := h.Delete(id); err != nil {
			return i, err
		}
		for col, ix := range indexes {
			if v, ok := toDeleteRecs[i].Get(col); ok {
				ix.Remove(v, id)
			}
		}
	}
	if len(toDelete) > 0 {
		ex.emit(Event{Type: OnTableDeleted, Table: op.Table, Criteria: op.Criteria})
	}
	return len(toDelete), nil
}

// ExecuteCreateIndex dispatches `CREATE INDEX {table, column}`: a full
// scan builds the map, which is then registered and persisted into the
// system table _indexes.
func (ex *Executor) ExecuteCreateIndex(op CreateIndex) error {
	h, err := ex.openHeap(op.Table)
	if err != nil {
		return err
	}
	ix, err := index.BuildFromScan(h, op.Table, op.Column)
	if err != nil {
		return err
	}
	ex.indexes[indexKey(op.Table, op.Column)] = ix
	return ex.persistIndex(ix)
}

func (ex *Executor) persistIndex(ix *index.Index) error {
	if _, ok, err := ex.p.FindTableEntry(index.SystemTable); err != nil {
		return err
	} else if !ok {
		if _, err := ex.p.CreateTable(index.SystemTable, true); err != nil {
			return err
		}
	}
	h, err := ex.openHeap(index.SystemTable)
	if err != nil {
		return err
	}
	_, err = h.Insert(ix.Encode())
	return err
}
