// Document store: composes the table store (B) and blob store (C) into
// the §3 document entities. The document-table holds one fixed-width row
// per doc_id; the document-data blob holds the variable-length title,
// key, and item vector referenced by that row's doc_data_id.
//
// Grounded on original_source/src/search/document.c's record layout and
// spec.md §3's exact field lists.

package ferret

import "errors"

const documentRowSize = 8 + 4 + 4 + 8 + 4 // doc_data_id, rank, term_count, ansi_date, language_id

// ErrInvalidDocumentID is returned for a doc_id outside [1, document_count].
var ErrInvalidDocumentID = errors.New("docstore: invalid document id")

// DocumentRow is the fixed-width document-table record.
type DocumentRow struct {
	DocDataID  uint64
	Rank       uint32
	TermCount  uint32
	AnsiDate   uint64
	LanguageID uint32
}

func (r DocumentRow) encode() []byte {
	buf := make([]byte, 0, documentRowSize)
	buf = PutU64(buf, r.DocDataID)
	buf = PutU32(buf, r.Rank)
	buf = PutU32(buf, r.TermCount)
	buf = PutU64(buf, r.AnsiDate)
	buf = PutU32(buf, r.LanguageID)
	return buf
}

func decodeDocumentRow(buf []byte) (DocumentRow, error) {
	c := NewCursor(buf)
	var r DocumentRow
	var err error
	if r.DocDataID, err = c.ReadU64(); err != nil {
		return r, err
	}
	if r.Rank, err = c.ReadU32(); err != nil {
		return r, err
	}
	if r.TermCount, err = c.ReadU32(); err != nil {
		return r, err
	}
	if r.AnsiDate, err = c.ReadU64(); err != nil {
		return r, err
	}
	if r.LanguageID, err = c.ReadU32(); err != nil {
		return r, err
	}
	return r, nil
}

// DocumentItem is one item (a field's indexed chunk) within a document.
type DocumentItem struct {
	ItemID      uint32
	ItemLength  uint64
	URL         string
	FilePath    string
	StartOffset int64
	EndOffset   int64
	Data        []byte
}

// Document is the full §3 document entity: title/key plus its item
// vector.
type Document struct {
	Title string
	Key   string
	Items []DocumentItem
}

func (d *Document) encode() []byte {
	buf := make([]byte, 0, 128)
	buf = PutCString(buf, d.Title)
	buf = PutCString(buf, d.Key)
	buf = PutUvarint(buf, uint64(len(d.Items)))
	for _, it := range d.Items {
		buf = PutUvarint(buf, uint64(it.ItemID))
		buf = PutUvarint(buf, it.ItemLength)
		buf = PutCString(buf, it.URL)
		buf = PutCString(buf, it.FilePath)
		buf = PutVarsint(buf, it.StartOffset)
		buf = PutVarsint(buf, it.EndOffset)
		buf = PutUvarint(buf, uint64(len(it.Data)))
		buf = append(buf, it.Data...)
	}
	return buf
}

func decodeDocument(data []byte) (*Document, error) {
	c := NewCursor(data)
	title, err := c.ReadCString()
	if err != nil {
		return nil, err
	}
	key, err := c.ReadCString()
	if err != nil {
		return nil, err
	}
	itemCount, err := c.ReadUvarint()
	if err != nil {
		return nil, err
	}
	items := make([]DocumentItem, 0, itemCount)
	for i := uint64(0); i < itemCount; i++ {
		var it DocumentItem
		itemID, err := c.ReadUvarint()
		if err != nil {
			return nil, err
		}
		it.ItemID = uint32(itemID)
		if it.ItemLength, err = c.ReadUvarint(); err != nil {
			return nil, err
		}
		url, err := c.ReadCString()
		if err != nil {
			return nil, err
		}
		it.URL = string(url)
		fp, err := c.ReadCString()
		if err != nil {
			return nil, err
		}
		it.FilePath = string(fp)
		if it.StartOffset, err = c.ReadVarsint(); err != nil {
			return nil, err
		}
		if it.EndOffset, err = c.ReadVarsint(); err != nil {
			return nil, err
		}
		dataLen, err := c.ReadUvarint()
		if err != nil {
			return nil, err
		}
		raw, err := c.ReadBytes(int(dataLen))
		if err != nil {
			return nil, err
		}
		it.Data = append([]byte(nil), raw...)
		items = append(items, it)
	}
	return &Document{Title: string(title), Key: string(key), Items: items}, nil
}

// DocumentStore composes the document-table and document-data blob store
// into the F component: AddDocument appends a table row that points at a
// freshly appended data blob; GetDocument resolves a doc_id back to its
// full Document.
type DocumentStore struct {
	table *Table
	blobs *BlobStore
}

// NewDocumentStore wraps an already-open table/blob pair.
func NewDocumentStore(table *Table, blobs *BlobStore) *DocumentStore {
	return &DocumentStore{table: table, blobs: blobs}
}

// AddDocument appends doc's data blob and a corresponding table row, and
// returns the freshly allocated doc_id.
func (ds *DocumentStore) AddDocument(doc *Document, rank uint32, termCount uint32, ansiDate uint64, languageID uint32) (uint32, error) {
	blobID, err := ds.blobs.Append(doc.encode())
	if err != nil {
		return 0, err
	}
	row := DocumentRow{DocDataID: blobID, Rank: rank, TermCount: termCount, AnsiDate: ansiDate, LanguageID: languageID}
	return ds.table.Append(row.encode())
}

// GetDocument resolves docID to its full Document and table row.
func (ds *DocumentStore) GetDocument(docID uint32) (*Document, DocumentRow, error) {
	rowBytes, err := ds.table.Read(docID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, DocumentRow{}, ErrInvalidDocumentID
		}
		return nil, DocumentRow{}, err
	}
	row, err := decodeDocumentRow(rowBytes)
	if err != nil {
		return nil, DocumentRow{}, err
	}
	data, err := ds.blobs.Read(row.DocDataID)
	if err != nil {
		return nil, DocumentRow{}, err
	}
	doc, err := decodeDocument(data)
	if err != nil {
		return nil, DocumentRow{}, err
	}
	return doc, row, nil
}

// DocumentCount reports the number of documents stored so far; the next
// AddDocument call allocates DocumentCount()+1.
func (ds *DocumentStore) DocumentCount() uint32 { return ds.table.Count() }
