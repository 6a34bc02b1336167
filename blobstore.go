// Blob store: a variable-length append/read-by-id store. Each append
// returns an opaque, stable blob ID (in this implementation: the byte
// offset the blob was written at, which survives reopen since the file
// is never rewritten). Every blob is length-prefixed with a varuint so a
// read needs only the starting offset, never an external offset index.

package ferret

import (
	"bufio"
	"fmt"
	"os"

	mmap "github.com/edsrzf/mmap-go"
)

// BlobStore is an append-only, variable-length record store.
type BlobStore struct {
	path string

	f   *os.File
	w   *bufio.Writer
	off uint64

	mm mmap.MMap
	rf *os.File
}

// CreateBlobStore opens path for append-only writing, truncating any
// existing contents — an IntentBuild-only operation.
func CreateBlobStore(path string) (*BlobStore, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("blobstore: create %s: %w", path, err)
	}
	return &BlobStore{path: path, f: f, w: bufio.NewWriter(f)}, nil
}

// OpenBlobStoreReadOnly memory-maps an existing blob store for read-only
// random access.
func OpenBlobStoreReadOnly(path string) (*BlobStore, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("blobstore: open %s: %w", path, err)
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	bs := &BlobStore{path: path, rf: f}
	if fi.Size() > 0 {
		m, err := mmap.Map(f, mmap.RDONLY, 0)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("blobstore: mmap %s: %w", path, err)
		}
		bs.mm = m
	}
	bs.off = uint64(fi.Size())
	return bs, nil
}

// Append writes data (length-prefixed) and returns its blob ID.
func (bs *BlobStore) Append(data []byte) (uint64, error) {
	if bs.w == nil {
		return 0, fmt.Errorf("blobstore: not open for append")
	}
	id := bs.off
	hdr := PutUvarint(nil, uint64(len(data)))
	if _, err := bs.w.Write(hdr); err != nil {
		return 0, err
	}
	if _, err := bs.w.Write(data); err != nil {
		return 0, err
	}
	bs.off += uint64(len(hdr) + len(data))
	return id, nil
}

// Read returns the blob previously stored at blobID.
func (bs *BlobStore) Read(blobID uint64) ([]byte, error) {
	if bs.mm != nil {
		return bs.readFrom(bs.mm, blobID)
	}
	if err := bs.w.Flush(); err != nil {
		return nil, err
	}
	// Build-time read-back: re-read the whole prefix window on demand.
	// Offsets are small relative to typical build sizes; a dedicated
	// buffered reader is not worth the complexity here.
	buf := make([]byte, 16)
	n, err := bs.f.ReadAt(buf, int64(blobID))
	if err != nil && n == 0 {
		return nil, err
	}
	c := NewCursor(buf[:n])
	size, err := c.ReadUvarint()
	if err != nil {
		return nil, err
	}
	data := make([]byte, size)
	if _, err := bs.f.ReadAt(data, int64(blobID)+int64(c.Pos())); err != nil {
		return nil, err
	}
	return data, nil
}

func (bs *BlobStore) readFrom(buf []byte, blobID uint64) ([]byte, error) {
	if blobID >= uint64(len(buf)) {
		return nil, ErrNotFound
	}
	c := NewCursor(buf[blobID:])
	size, err := c.ReadUvarint()
	if err != nil {
		return nil, err
	}
	data, err := c.ReadBytes(int(size))
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Flush persists any buffered append writes.
func (bs *BlobStore) Flush() error {
	if bs.w != nil {
		return bs.w.Flush()
	}
	return nil
}

// Close releases the store's file handles and memory mapping.
func (bs *BlobStore) Close() error {
	var err error
	if bs.w != nil {
		err = bs.w.Flush()
	}
	if bs.mm != nil {
		if e := bs.mm.Unmap(); e != nil && err == nil {
			err = e
		}
	}
	if bs.f != nil {
		if e := bs.f.Close(); e != nil && err == nil {
			err = e
		}
	}
	if bs.rf != nil {
		if e := bs.rf.Close(); e != nil && err == nil {
			err = e
		}
	}
	return err
}
