// Package sawitdb provides a lightweight, embeddable row-store database
// for Go applications.
//
// SawitDB persists schemaless records into a single page-structured file
// with an in-memory LRU page cache, a bump-allocating page allocator, and
// a header-page-resident table catalog. On top of that storage core it
// offers a small executor that dispatches operation descriptors
// (CREATE TABLE/INSERT/SELECT/UPDATE/DELETE/CREATE INDEX/DROP TABLE)
// built by an external caller — SawitDB itself does not parse a query
// language.
//
// # Basic usage
//
//	db, err := sawitdb.Open("kebun.sawit", sawitdb.Config{})
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer db.Close()
//
//	if err := db.CreateTable(engine.CreateTable{Name: "kebun"}); err != nil {
//		log.Fatal(err)
//	}
//	err = db.Insert(engine.Insert{
//		Table: "kebun",
//		Data:  pager.NewRecord(pager.Field{Name: "id", Value: pager.IntValue(1)}),
//	})
//
// # Persistence
//
// A SawitDB file is a single binary file on disk; closing and reopening
// it preserves every table, row, and index built with CREATE INDEX.
//
// # Concurrency
//
// SawitDB is single-writer: Open takes a non-blocking advisory lock on a
// sidecar ".lock" file and fails with ErrAlreadyOpen if another handle
// already holds it.
package sawitdb

import (
	"log"

	"github.com/GoldaRizki/sawitdb/internal/engine"
	"github.com/GoldaRizki/sawitdb/internal/storage/pager"
)

// DB is an open SawitDB database: a Pager plus the executor shell wired
// over it. Use Open to construct one; callers must Close it exactly
// once.
type DB struct {
	p  *pager.Pager
	ex *engine.Executor
}

// Open opens (creating if necessary) the database file at path and
// loads its indexes into memory. It returns ErrAlreadyOpen if another
// process or handle already holds the path's advisory lock.
func Open(path string, cfg Config) (*DB, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	p, err := pager.Open(path, pager.Config{PageCacheSize: cfg.PageCacheSize})
	if err != nil {
		return nil, err
	}
	ex := engine.NewExecutor(p)
	if err := ex.LoadIndexes(); err != nil {
		p.Close()
		return nil, err
	}
	log.Printf("sawitdb: opened %s (%d pages allocated)", path, p.TotalPages())
	return &DB{p: p, ex: ex}, nil
}

// Close releases the file handle and advisory lock. Close must be
// called exactly once per DB returned by Open.
func (db *DB) Close() error {
	return db.p.Close()
}

// Path returns the database file's path.
func (db *DB) Path() string { return db.p.Path() }

// Stats reports the underlying pager's allocator and cache diagnostics.
func (db *DB) Stats() pager.Stats { return db.p.Stats() }

// Subscribe registers fn to receive every mutation event (insert,
// update, delete) emitted after this call, across every table.
func (db *DB) Subscribe(fn func(Event)) {
	db.ex.Subscribe(func(ev engine.Event) {
		fn(translateEvent(ev))
	})
}

// CreateTable dispatches a CREATE TABLE operation descriptor.
func (db *DB) CreateTable(op engine.CreateTable) error {
	return db.ex.ExecuteCreateTable(op)
}

// DropTable dispatches a DROP TABLE operation descriptor.
func (db *DB) DropTable(op engine.DropTable) error {
	return db.ex.ExecuteDropTable(op)
}

// Insert dispatches an INSERT operation descriptor.
func (db *DB) Insert(op engine.Insert) error {
	return db.ex.ExecuteInsert(op)
}

// Select dispatches a SELECT operation descriptor, returning the
// matching (and possibly projected, sorted, sliced) records.
func (db *DB) Select(op engine.Select) ([]*pager.Record, error) {
	return db.ex.ExecuteSelect(op)
}

// Update dispatches an UPDATE operation descriptor, returning the
// number of rows changed.
func (db *DB) Update(op engine.Update) (int, error) {
	return db.ex.ExecuteUpdate(op)
}

// Delete dispatches a DELETE operation descriptor, returning the number
// of rows removed.
func (db *DB) Delete(op engine.Delete) (int, error) {
	return db.ex.ExecuteDelete(op)
}

// CreateIndex dispatches a CREATE INDEX operation descriptor: a full
// table scan builds the value->RowIDs map, which is then persisted into
// the system table _indexes.
func (db *DB) CreateIndex(op engine.CreateIndex) error {
	return db.ex.ExecuteCreateIndex(op)
}
