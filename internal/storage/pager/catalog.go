package pager

import "fmt"

// TableEntry describes one catalog row stored on the header page.
type TableEntry struct {
	Name     string
	Head     PageID
	IsSystem bool
}

func entrySize(name string) int {
	// nameLen(1) + name + headPageID(4) + isSystem(1)
	return 1 + len(name) + 4 + 1
}

// readEntries parses every catalog entry out of the header page buffer.
// It also returns the byte offset just past the last entry.
func readEntries(hdr []byte) ([]TableEntry, int) {
	n := int(getU32(hdr, hdrOffTableCount))
	off := hdrOffEntries
	entries := make([]TableEntry, 0, n)
	for i := 0; i < n; i++ {
		nameLen := int(hdr[off])
		off++
		name := string(hdr[off : off+nameLen])
		off += nameLen
		head := PageID(getU32(hdr, off))
		off += 4
		isSystem := hdr[off] != 0
		off++
		entries = append(entries, TableEntry{Name: name, Head: head, IsSystem: isSystem})
	}
	return entries, off
}

func writeEntries(hdr []byte, entries []TableEntry) {
	putU32(hdr, hdrOffTableCount, uint32(len(entries)))
	off := hdrOffEntries
	for _, e := range entries {
		hdr[off] = byte(len(e.Name))
		off++
		copy(hdr[off:], e.Name)
		off += len(e.Name)
		putU32(hdr, off, uint32(e.Head))
		off += 4
		if e.IsSystem {
			hdr[off] = 1
		} else {
			hdr[off] = 0
		}
		off++
	}
}

// FindTableEntry returns the catalog entry for name, if present.
func (p *Pager) FindTableEntry(name string) (TableEntry, bool, error) {
	hdr, err := p.ReadPage(HeaderPageID)
	if err != nil {
		return TableEntry{}, false, err
	}
	entries, _ := readEntries(hdr)
	for _, e := range entries {
		if e.Name == name {
			return e, true, nil
		}
	}
	return TableEntry{}, false, nil
}

// ListTables returns every catalog entry, in creation order.
func (p *Pager) ListTables() ([]TableEntry, error) {
	hdr, err := p.ReadPage(HeaderPageID)
	if err != nil {
		return nil, err
	}
	entries, _ := readEntries(hdr)
	return entries, nil
}

// CreateTable allocates a head page for name and appends a catalog entry
// for it. It fails with ErrTableExists if the name is already registered,
// and with ErrCatalogFull if the new entry would not fit within the
// header page's remaining space — checked before any page is allocated,
// so a failed CreateTable never leaks a page.
func (p *Pager) CreateTable(name string, isSystem bool) (PageID, error) {
	hdr, err := p.ReadPage(HeaderPageID)
	if err != nil {
		return 0, err
	}
	entries, end := readEntries(hdr)
	for _, e := range entries {
		if e.Name == name {
			return 0, fmt.Errorf("%w: %q", ErrTableExists, name)
		}
	}
	if end+entrySize(name) > PageSize {
		return 0, fmt.Errorf("%w: table %q needs %d bytes, %d available",
			ErrCatalogFull, name, entrySize(name), PageSize-end)
	}

	head, err := p.AllocPage()
	if err != nil {
		return 0, err
	}

	// AllocPage may have rewritten the header page's total-pages field;
	// re-read it so the entry append starts from the latest bytes.
	hdr, err = p.ReadPage(HeaderPageID)
	if err != nil {
		return 0, err
	}
	entries, _ = readEntries(hdr)
	entries = append(entries, TableEntry{Name: name, Head: head, IsSystem: isSystem})
	writeEntries(hdr, entries)
	if err := p.WritePage(HeaderPageID, hdr); err != nil {
		return 0, err
	}
	return head, nil
}

// DropTable removes name's catalog entry, compacting the entries that
// followed it. The table's data pages are not reclaimed; they stay
// allocated but unreachable until the file is recreated.
func (p *Pager) DropTable(name string) error {
	hdr, err := p.ReadPage(HeaderPageID)
	if err != nil {
		return err
	}
	entries, _ := readEntries(hdr)
	idx := -1
	for i, e := range entries {
		if e.Name == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("%w: %q", ErrTableNotFound, name)
	}
	entries = append(entries[:idx], entries[idx+1:]...)
	writeEntries(hdr, entries)
	return p.WritePage(HeaderPageID, hdr)
}
