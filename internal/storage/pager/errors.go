package pager

import "errors"

// Sentinel errors raised by the pager and catalog.
var (
	// ErrCorruptFile is returned by Open when the header page's magic
	// bytes do not match Magic.
	ErrCorruptFile = errors.New("pager: corrupt file (bad magic)")

	// ErrInvalidPageID is returned by ReadPage for a page-id at or beyond
	// the header's recorded total page count.
	ErrInvalidPageID = errors.New("pager: invalid page id")

	// ErrIOError wraps every error from reading or writing the underlying
	// file. It is always used with fmt.Errorf's %w, alongside the wrapped
	// cause, so both stay reachable through errors.Is/As.
	ErrIOError = errors.New("pager: I/O error")

	// ErrTableExists is returned by CreateTable for a name already
	// present in the catalog.
	ErrTableExists = errors.New("pager: table already exists")

	// ErrTableNotFound is returned by catalog lookups and drops for an
	// absent table name.
	ErrTableNotFound = errors.New("pager: table not found")

	// ErrCatalogFull is returned by CreateTable when the new entry would
	// not fit within the header page.
	ErrCatalogFull = errors.New("pager: catalog full (header page exhausted)")
)
