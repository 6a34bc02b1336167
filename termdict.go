// Term dictionary: an ordered string -> term-record map. During a build,
// keys must arrive in strictly ascending byte order (the indexer flushes
// terms in sorted order per block); at query time lookup and ordered
// prefix scans drive every match mode in matcher.go.
//
// Grounded on original_source/src/search/termdict.c's scan-oriented
// design: the dictionary itself never interprets a query — it just hands
// back a cursor a matcher.go scanner can walk.

package ferret

import (
	"errors"
	"fmt"
	"sort"
)

// TermType classifies a term-dictionary record (and the posting list it
// backs).
type TermType int

const (
	TermUnknown TermType = iota
	TermRegular
	TermStop
)

// ErrKeysNotAscending is returned by Insert when build-time keys arrive
// out of order.
var ErrKeysNotAscending = errors.New("termdict: keys must arrive in ascending order")

// ErrTermNotFound is returned by Lookup for a key with no record.
var ErrTermNotFound = errors.New("termdict: term not found")

// ErrTermDoesNotOccur is returned when a term exists in the dictionary
// but not within the field-ID bitmap the caller restricted the search to.
var ErrTermDoesNotOccur = errors.New("termdict: term does not occur in requested fields")

// TermRecord is the term-dictionary value for one key, matching the
// on-disk layout:
// term_type (varuint) ‖ term_count (varuint) ‖ document_count (varuint) ‖
// index_block_id (varuint64) ‖ field_id* (varuint list).
type TermRecord struct {
	Type          TermType
	TermCount     uint64
	DocumentCount uint64
	IndexBlockID  uint64
	FieldIDs      []uint32 // 1-based; empty means "default field only"
}

// Encode serializes a TermRecord to its on-disk byte form.
func (r *TermRecord) Encode() []byte {
	buf := make([]byte, 0, 32)
	buf = PutUvarint(buf, uint64(r.Type))
	buf = PutUvarint(buf, r.TermCount)
	buf = PutUvarint(buf, r.DocumentCount)
	buf = PutUvarint(buf, r.IndexBlockID)
	buf = PutUvarint(buf, uint64(len(r.FieldIDs)))
	for _, id := range r.FieldIDs {
		buf = PutUvarint(buf, uint64(id))
	}
	return buf
}

// DecodeTermRecord parses the bytes produced by Encode.
func DecodeTermRecord(data []byte) (*TermRecord, error) {
	c := NewCursor(data)
	typ, err := c.ReadUvarint()
	if err != nil {
		return nil, err
	}
	termCount, err := c.ReadUvarint()
	if err != nil {
		return nil, err
	}
	docCount, err := c.ReadUvarint()
	if err != nil {
		return nil, err
	}
	blockID, err := c.ReadUvarint()
	if err != nil {
		return nil, err
	}
	fieldCount, err := c.ReadUvarint()
	if err != nil {
		return nil, err
	}
	fields := make([]uint32, 0, fieldCount)
	for i := uint64(0); i < fieldCount; i++ {
		v, err := c.ReadUvarint()
		if err != nil {
			return nil, err
		}
		fields = append(fields, uint32(v))
	}
	return &TermRecord{
		Type:          TermType(typ),
		TermCount:     termCount,
		DocumentCount: docCount,
		IndexBlockID:  blockID,
		FieldIDs:      fields,
	}, nil
}

type termDictEntry struct {
	key    string
	record *TermRecord
}

// TermDictionary is the ordered in-memory index backing E. A sorted
// slice is the grounded choice here: build-time insertion already
// arrives sorted (§4.4's contract), so append is O(1) and lookup/scan
// are O(log n) via binary search — no rebalancing structure is needed.
type TermDictionary struct {
	entries []termDictEntry
}

// NewTermDictionary creates an empty dictionary.
func NewTermDictionary() *TermDictionary {
	return &TermDictionary{}
}

// Insert adds key -> record. key must be strictly greater than the last
// inserted key.
func (td *TermDictionary) Insert(key string, record *TermRecord) error {
	if n := len(td.entries); n > 0 && key <= td.entries[n-1].key {
		return fmt.Errorf("%w: %q after %q", ErrKeysNotAscending, key, td.entries[n-1].key)
	}
	td.entries = append(td.entries, termDictEntry{key: key, record: record})
	return nil
}

// Lookup returns the record for key, or ErrTermNotFound.
func (td *TermDictionary) Lookup(key string) (*TermRecord, error) {
	i := sort.Search(len(td.entries), func(i int) bool { return td.entries[i].key >= key })
	if i < len(td.entries) && td.entries[i].key == key {
		return td.entries[i].record, nil
	}
	return nil, ErrTermNotFound
}

// ScanStop is returned by a scan callback to end the scan early.
var ScanStop = errors.New("termdict: stop scan")

// ScanFrom invokes cb with successive (key, record) pairs in ascending
// key order starting at the first key >= prefixKey. The scan ends when
// cb returns ScanStop or the dictionary is exhausted; any other non-nil
// error from cb aborts the scan and is returned to the caller.
func (td *TermDictionary) ScanFrom(prefixKey string, cb func(key string, record *TermRecord) error) error {
	i := sort.Search(len(td.entries), func(i int) bool { return td.entries[i].key >= prefixKey })
	for ; i < len(td.entries); i++ {
		if err := cb(td.entries[i].key, td.entries[i].record); err != nil {
			if errors.Is(err, ScanStop) {
				return nil
			}
			return err
		}
	}
	return nil
}

// Len reports the number of distinct terms stored.
func (td *TermDictionary) Len() int { return len(td.entries) }
