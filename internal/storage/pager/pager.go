package pager

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
)

// ErrAlreadyOpen is returned by Open when another SawitDB handle already
// holds the advisory lock sidecar file for this path. Failing fast here
// avoids two writers racing over the same catalog and page chains.
var ErrAlreadyOpen = errors.New("pager: database already open (lock held)")

// Config configures a Pager.
type Config struct {
	// PageCacheSize is the LRU cache capacity in pages. Zero uses
	// defaultCacheCap.
	PageCacheSize int
}

// Pager is the sole reader/writer of a SawitDB file. It owns the file
// handle, the LRU page cache, and the bump allocator (the header page's
// total-page counter).
type Pager struct {
	file      *os.File
	lockFile  *os.File
	path      string
	lockPath  string
	cache     *pageCache
	allocated uint32 // total pages, mirrors header bytes [4:8)
	closed    bool
}

// Open opens path, creating and initializing it (with a zeroed header
// page) if it does not yet exist. It fails with ErrCorruptFile if an
// existing file's magic does not match, and with ErrAlreadyOpen if the
// path's advisory lock sidecar is already held.
func Open(path string, cfg Config) (*Pager, error) {
	lockPath := path + ".lock"
	lf, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		if os.IsExist(err) {
			return nil, ErrAlreadyOpen
		}
		return nil, errors.Wrap(err, "pager: create lock file")
	}

	isNew := false
	if _, err := os.Stat(path); os.IsNotExist(err) {
		isNew = true
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		lf.Close()
		os.Remove(lockPath)
		return nil, errors.Wrap(err, "pager: open database file")
	}

	p := &Pager{
		file:     f,
		lockFile: lf,
		path:     path,
		lockPath: lockPath,
		cache:    newPageCache(cfg.PageCacheSize),
	}

	if isNew {
		buf := make([]byte, PageSize)
		copy(buf[hdrOffMagic:], Magic[:])
		putU32(buf, hdrOffPageCount, 1)
		putU32(buf, hdrOffTableCount, 0)
		if err := p.writePageRaw(HeaderPageID, buf); err != nil {
			p.closeFiles()
			return nil, err
		}
		p.allocated = 1
		p.cache.put(HeaderPageID, buf)
	} else {
		buf, err := p.readPageRaw(HeaderPageID)
		if err != nil {
			p.closeFiles()
			return nil, err
		}
		if string(buf[hdrOffMagic:hdrOffMagic+4]) != string(Magic[:]) {
			p.closeFiles()
			return nil, ErrCorruptFile
		}
		p.allocated = getU32(buf, hdrOffPageCount)
		p.cache.put(HeaderPageID, buf)
	}

	return p, nil
}

func (p *Pager) closeFiles() {
	p.file.Close()
	p.lockFile.Close()
	os.Remove(p.lockPath)
}

func (p *Pager) readPageRaw(id PageID) ([]byte, error) {
	buf := make([]byte, PageSize)
	off := int64(id) * int64(PageSize)
	if _, err := p.file.ReadAt(buf, off); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIOError, errors.Wrapf(err, "pager: read page %d", id))
	}
	return buf, nil
}

func (p *Pager) writePageRaw(id PageID, buf []byte) error {
	if len(buf) != PageSize {
		panic("pager: writePageRaw requires an exact PageSize buffer")
	}
	off := int64(id) * int64(PageSize)
	if _, err := p.file.WriteAt(buf, off); err != nil {
		return fmt.Errorf("%w: %w", ErrIOError, errors.Wrapf(err, "pager: write page %d", id))
	}
	return nil
}

// ReadPage returns the PageSize-byte buffer for id, using the cache when
// possible. A read past the end of the allocated range is ErrInvalidPageID,
// since single-writer allocation never leaves gaps.
func (p *Pager) ReadPage(id PageID) ([]byte, error) {
	if uint32(id) >= p.allocated {
		return nil, fmt.Errorf("%w: %d (total pages %d)", ErrInvalidPageID, id, p.allocated)
	}
	if buf, ok := p.cache.get(id); ok {
		return buf, nil
	}
	buf, err := p.readPageRaw(id)
	if err != nil {
		return nil, err
	}
	p.cache.put(id, buf)
	return buf, nil
}

// WritePage persists buf (must be exactly PageSize bytes) as page id and
// updates the cache, promoting it to MRU.
func (p *Pager) WritePage(id PageID, buf []byte) error {
	if len(buf) != PageSize {
		panic("pager: WritePage requires an exact PageSize buffer")
	}
	if err := p.writePageRaw(id, buf); err != nil {
		return err
	}
	p.cache.put(id, buf)
	return nil
}

// AllocPage bumps the header's total-page counter, persists the new
// header, writes a freshly-initialized empty data page at the new id, and
// returns that id. Pages are never freed once allocated.
func (p *Pager) AllocPage() (PageID, error) {
	hdr, err := p.ReadPage(HeaderPageID)
	if err != nil {
		return 0, err
	}
	id := PageID(p.allocated)
	p.allocated++
	putU32(hdr, hdrOffPageCount, p.allocated)
	if err := p.WritePage(HeaderPageID, hdr); err != nil {
		return 0, err
	}
	buf := newDataPage()
	if err := p.WritePage(id, buf); err != nil {
		return 0, err
	}
	return id, nil
}

// TotalPages returns the current bump-allocator high-water mark (the
// header's total-pages field).
func (p *Pager) TotalPages() uint32 { return p.allocated }

// Close drops the cache and closes the file handle and the advisory lock.
// Close must be called exactly once per open Pager.
func (p *Pager) Close() error {
	if p.closed {
		return nil
	}
	p.closed = true
	err := p.file.Close()
	p.lockFile.Close()
	os.Remove(p.lockPath)
	return err
}

// Path returns the database file path.
func (p *Pager) Path() string { return p.path }

// Stats is a diagnostics snapshot of allocator and cache state, rendered
// with humanize for byte counts.
type Stats struct {
	TotalPages   uint32
	CachedPages  int
	CacheHits    uint64
	CacheMisses  uint64
	TotalOnDisk  string // humanized byte size
}

// Stats reports current allocator and cache statistics.
func (p *Pager) Stats() Stats {
	total := uint64(p.allocated) * uint64(PageSize)
	return Stats{
		TotalPages:  p.allocated,
		CachedPages: p.cache.len(),
		CacheHits:   p.cache.hits,
		CacheMisses: p.cache.misses,
		TotalOnDisk: humanize.Bytes(total),
	}
}
