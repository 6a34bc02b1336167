// Table store: a fixed-row-size append/read-by-id store. Every row has
// the same byte length, fixed at table creation, so reading entry N never
// needs an offset index — it's a direct seek to N*rowSize.
//
// Two lifecycles share this type: during a build the table is exclusively
// owned and append-only (backed by a buffered *os.File); once a build
// completes, a search-intent open reopens the same file read-only and
// memory-maps it, since §5 guarantees no writer is attached while search
// is reading.

package ferret

import (
	"bufio"
	"errors"
	"fmt"
	"os"

	mmap "github.com/edsrzf/mmap-go"
)

// ErrNotFound is returned by table/blob/dictionary reads for an entry ID
// or key that does not exist.
var ErrNotFound = errors.New("table: entry not found")

// ErrRowSizeMismatch is returned when a row written to a Table does not
// match the row size fixed at creation.
var ErrRowSizeMismatch = errors.New("table: row size mismatch")

// Table is a fixed-row append/read store keyed by a 1-based entry ID.
type Table struct {
	rowSize int
	path    string

	// build-time (append) state
	f   *os.File
	w   *bufio.Writer
	cnt uint32

	// search-time (read-only, memory-mapped) state
	mm mmap.MMap
	rf *os.File
}

// CreateTable opens path for append-only writing with the given fixed row
// size. The file is created if absent and truncated if present — callers
// must only do this during an IntentBuild open.
func CreateTable(path string, rowSize int) (*Table, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("table: create %s: %w", path, err)
	}
	return &Table{rowSize: rowSize, path: path, f: f, w: bufio.NewWriter(f)}, nil
}

// OpenTableReadOnly memory-maps an existing table file for random-access
// reads. rowSize must match the size the table was created with.
func OpenTableReadOnly(path string, rowSize int) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("table: open %s: %w", path, err)
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	t := &Table{rowSize: rowSize, path: path, rf: f}
	if fi.Size() > 0 {
		m, err := mmap.Map(f, mmap.RDONLY, 0)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("table: mmap %s: %w", path, err)
		}
		t.mm = m
	}
	t.cnt = uint32(fi.Size() / int64(rowSize))
	return t, nil
}

// Append writes row (which must be exactly rowSize bytes) and returns its
// 1-based entry ID, equal to the prior row count plus one.
func (t *Table) Append(row []byte) (uint32, error) {
	if t.w == nil {
		return 0, errors.New("table: not open for append")
	}
	if len(row) != t.rowSize {
		return 0, ErrRowSizeMismatch
	}
	if _, err := t.w.Write(row); err != nil {
		return 0, err
	}
	t.cnt++
	return t.cnt, nil
}

// Read returns the raw row bytes for entryID, or ErrNotFound.
func (t *Table) Read(entryID uint32) ([]byte, error) {
	if entryID == 0 || entryID > t.cnt {
		return nil, ErrNotFound
	}
	off := int64(entryID-1) * int64(t.rowSize)
	if t.mm != nil {
		return t.mm[off : off+int64(t.rowSize)], nil
	}
	// Build-time read-back: flush pending writes, then pread.
	if err := t.w.Flush(); err != nil {
		return nil, err
	}
	buf := make([]byte, t.rowSize)
	if _, err := t.f.ReadAt(buf, off); err != nil {
		return nil, err
	}
	return buf, nil
}

// Count returns the number of rows currently stored.
func (t *Table) Count() uint32 { return t.cnt }

// Flush persists any buffered append writes without closing the table.
func (t *Table) Flush() error {
	if t.w != nil {
		return t.w.Flush()
	}
	return nil
}

// Close releases the table's file handles and any memory mapping.
func (t *Table) Close() error {
	var err error
	if t.w != nil {
		err = t.w.Flush()
	}
	if t.mm != nil {
		if e := t.mm.Unmap(); e != nil && err == nil {
			err = e
		}
	}
	if t.f != nil {
		if e := t.f.Close(); e != nil && err == nil {
			err = e
		}
	}
	if t.rf != nil {
		if e := t.rf.Close(); e != nil && err == nil {
			err = e
		}
	}
	return err
}
