// Index: the on-disk object composing every store named in §6's layout
// (document-table, document-data, term-dictionary, key-dictionary,
// index-data, lock) behind a single Intent-gated handle. This file owns
// opening/closing/locking; ingest.go drives a build through it, and
// query.go/posting.go read through it at search time.
//
// Grounded on original_source/src/search/index.h's srchIndex/
// srchIndexBuild split and its explicit SRCH_INDEX_INTENT_CREATE/_SEARCH
// contract (§6's "lock" file sentinel mirrors index.h's pfLockFile).

package ferret

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrLockHeld is returned by OpenIndex(IntentBuild, ...) when another
// build already holds the lock file.
var ErrLockHeld = errors.New("index: lock held by another build")

const (
	fileDocumentTable = "document-table"
	fileDocumentData  = "document-data"
	fileKeyDictionary = "key-dictionary"
	fileTermDictFlat  = "term-dictionary"
	fileIndexData     = "index-data"
	fileLock          = "lock"
)

// IndexStats mirrors index.h's running scalars: unique/total term
// counts (split by stop vs regular), and per-document term-count bounds.
type IndexStats struct {
	DocumentCount             uint32
	UniqueTermCount           uint64
	TotalTermCount            uint64
	UniqueStopTermCount       uint64
	TotalStopTermCount        uint64
	DocumentTermCountMaximum  uint32
	DocumentTermCountMinimum  uint32
}

// Index is an open index directory: the document store, key dictionary,
// term dictionary, and index-data blob store, gated by Intent.
type Index struct {
	dir    string
	Intent Intent
	Opts   IndexOptions

	Docs      *DocumentStore
	Keys      *KeyDictionary
	Terms     *TermDictionary
	IndexData *BlobStore

	docTable *Table
	docBlobs *BlobStore

	stats IndexStats
}

func lockPath(dir string) string { return filepath.Join(dir, fileLock) }

// OpenIndex opens the index directory under dir for the given intent.
// IntentBuild creates a fresh set of stores and an exclusive lock file;
// IntentSearch memory-maps the existing stores read-only.
func OpenIndex(dir string, intent Intent, opts IndexOptions) (*Index, error) {
	switch intent {
	case IntentBuild:
		return openForBuild(dir, opts)
	case IntentSearch:
		return openForSearch(dir, opts)
	default:
		return nil, fmt.Errorf("index: invalid intent %d", intent)
	}
}

func openForBuild(dir string, opts IndexOptions) (*Index, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	if _, err := os.Stat(lockPath(dir)); err == nil {
		return nil, ErrLockHeld
	}
	lf, err := os.OpenFile(lockPath(dir), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLockHeld, err)
	}
	lf.Close()

	docTable, err := CreateTable(filepath.Join(dir, fileDocumentTable), documentRowSize)
	if err != nil {
		return nil, err
	}
	docBlobs, err := CreateBlobStore(filepath.Join(dir, fileDocumentData))
	if err != nil {
		return nil, err
	}
	indexData, err := CreateBlobStore(filepath.Join(dir, fileIndexData))
	if err != nil {
		return nil, err
	}
	return &Index{
		dir:       dir,
		Intent:    IntentBuild,
		Opts:      opts,
		Docs:      NewDocumentStore(docTable, docBlobs),
		Keys:      NewKeyDictionary(),
		Terms:     NewTermDictionary(),
		IndexData: indexData,
		docTable:  docTable,
		docBlobs:  docBlobs,
	}, nil
}

func openForSearch(dir string, opts IndexOptions) (*Index, error) {
	if _, err := os.Stat(lockPath(dir)); err == nil {
		logger.Warn("index opened for search with a lock file present; build may be incomplete", "dir", dir)
	}
	docTable, err := OpenTableReadOnly(filepath.Join(dir, fileDocumentTable), documentRowSize)
	if err != nil {
		return nil, err
	}
	docBlobs, err := OpenBlobStoreReadOnly(filepath.Join(dir, fileDocumentData))
	if err != nil {
		return nil, err
	}
	indexData, err := OpenBlobStoreReadOnly(filepath.Join(dir, fileIndexData))
	if err != nil {
		return nil, err
	}
	keys, err := LoadKeyDictionary(filepath.Join(dir, fileKeyDictionary))
	if err != nil {
		return nil, err
	}
	terms, err := loadTermDictionary(filepath.Join(dir, fileTermDictFlat))
	if err != nil {
		return nil, err
	}
	return &Index{
		dir:       dir,
		Intent:    IntentSearch,
		Opts:      opts,
		Docs:      NewDocumentStore(docTable, docBlobs),
		Keys:      keys,
		Terms:     terms,
		IndexData: indexData,
		docTable:  docTable,
		docBlobs:  docBlobs,
	}, nil
}

// Stats returns a copy of the index's running summary counters.
func (idx *Index) Stats() IndexStats {
	s := idx.stats
	s.DocumentCount = idx.Docs.DocumentCount()
	return s
}

// Close flushes (for a build) or unmaps (for search) every store this
// index holds, and removes the lock file on a clean build close.
func (idx *Index) Close() error {
	var firstErr error
	rec := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	rec(idx.docTable.Close())
	rec(idx.docBlobs.Close())
	rec(idx.IndexData.Close())
	if idx.Intent == IntentBuild {
		if err := idx.Keys.Flush(filepath.Join(idx.dir, fileKeyDictionary)); err != nil {
			rec(err)
		}
		if err := flushTermDictionary(idx.Terms, filepath.Join(idx.dir, fileTermDictFlat)); err != nil {
			rec(err)
		}
		rec(os.Remove(lockPath(idx.dir)))
	}
	return firstErr
}

// Abort removes a build's lock file without persisting the term or key
// dictionaries, matching index.h's iSrchIndexAbort.
func (idx *Index) Abort() error {
	idx.docTable.Close()
	idx.docBlobs.Close()
	idx.IndexData.Close()
	return os.Remove(lockPath(idx.dir))
}

func flushTermDictionary(td *TermDictionary, path string) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	var buf []byte
	err = td.ScanFrom("", func(key string, rec *TermRecord) error {
		buf = PutUvarint(buf[:0], uint64(len(key)))
		buf = append(buf, key...)
		recBytes := rec.Encode()
		buf = PutUvarint(buf, uint64(len(recBytes)))
		buf = append(buf, recBytes...)
		_, werr := f.Write(buf)
		return werr
	})
	return err
}

func loadTermDictionary(path string) (*TermDictionary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewTermDictionary(), nil
		}
		return nil, err
	}
	td := NewTermDictionary()
	c := NewCursor(data)
	for c.Remaining() > 0 {
		keyLen, err := c.ReadUvarint()
		if err != nil {
			return nil, err
		}
		keyBytes, err := c.ReadBytes(int(keyLen))
		if err != nil {
			return nil, err
		}
		recLen, err := c.ReadUvarint()
		if err != nil {
			return nil, err
		}
		recBytes, err := c.ReadBytes(int(recLen))
		if err != nil {
			return nil, err
		}
		rec, err := DecodeTermRecord(recBytes)
		if err != nil {
			return nil, err
		}
		if err := td.Insert(string(keyBytes), rec); err != nil {
			return nil, err
		}
	}
	return td, nil
}
