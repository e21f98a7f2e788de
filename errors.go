package sawitdb

import "github.com/GoldaRizki/sawitdb/internal/storage/pager"

// Sentinel errors re-exported from the storage layer. Callers can use
// errors.Is against these without importing the internal packages
// directly.
var (
	ErrCorruptFile   = pager.ErrCorruptFile
	ErrInvalidPageID = pager.ErrInvalidPageID
	ErrTableExists   = pager.ErrTableExists
	ErrTableNotFound = pager.ErrTableNotFound
	ErrCatalogFull   = pager.ErrCatalogFull
	ErrIOError       = pager.ErrIOError
	ErrAlreadyOpen   = pager.ErrAlreadyOpen
)
