// Stream ingest: the §4.8 line-oriented tag-grammar parser that drives a
// build through the Index (A–G) via Indexer. Grounded on spec.md §4.8
// directly (the grammar table) and on original_source/src/search/
// indexer.c for the field-table contiguous-ID and S-name validation
// rules, and document.c for the I-tag MIME-body contract.

package ferret

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
)

var (
	ErrInvalidVersion           = errors.New("ingest: invalid stream version")
	ErrInvalidTag               = errors.New("ingest: invalid or malformed tag")
	ErrInvalidDocumentTermTag   = errors.New("ingest: invalid document term tag")
	ErrInvalidDocumentItemTag   = errors.New("ingest: invalid document item tag")
	ErrInvalidStreamEndTag      = errors.New("ingest: invalid stream end tag")
	ErrInvalidDocumentKeyTag    = errors.New("ingest: invalid or missing document key")
	ErrDuplicateDocumentKey     = errors.New("ingest: duplicate document key")
	ErrFieldIDsNotContiguous    = errors.New("ingest: field ids must be contiguous from 1")
	ErrUnknownSearchFieldName   = errors.New("ingest: S names must have appeared in a prior F tag")
	ErrDocumentEndWithoutStart  = errors.New("ingest: E without a document in progress")
)

const (
	currentMajorVersion = 1
	currentMinorVersion = 0
)

// FieldDef is one F-tag field declaration.
type FieldDef struct {
	Name string
	ID   uint32
	Type string
	Opts []string
	Desc string
}

type termBuild struct {
	typ      TermType
	postings []Posting
	fieldIDs map[uint32]struct{}
}

type docBuildState struct {
	key          string
	title        string
	rank         uint32
	explicitTC   *uint32
	ansiDate     uint64
	languageID   uint32
	items        []DocumentItem
	lastTermPos  uint32
	sawNonZero   bool
	termOccurs   uint32
	duplicateKey bool
	occurrences  []termOccurrence
}

type termOccurrence struct {
	term string
	pos  uint32
}

// Indexer drives a build: it owns the Index handle, the evolving field
// table, and the in-flight per-term posting accumulation that
// tagStreamEnd (on the stream's Z tag) commits to the term dictionary and
// index-data store.
type Indexer struct {
	idx *Index

	majorSeen, minorSeen bool
	fields               []FieldDef
	fieldByName          map[string]*FieldDef
	searchFieldNames     []string
	defaultLanguage      string
	defaultTokenizer     string
	curLanguage          string
	stopSet              map[string]struct{}

	cur *docBuildState

	terms       map[string]*termBuild
	termsOrder  []string
	duplicateDocumentKeys int
}

// NewIndexer creates an ingest driver over an index opened with
// IntentBuild.
func NewIndexer(idx *Index) *Indexer {
	ix := &Indexer{
		idx:         idx,
		fieldByName: make(map[string]*FieldDef),
		terms:       make(map[string]*termBuild),
	}
	if idx.Opts.StopListPath != "" {
		ix.stopSet = map[string]struct{}{} // embedder-provided stop list loading is out of core scope; see SPEC_FULL.md
	}
	return ix
}

// Feed parses r as a complete ingest stream, applying every tag in
// sequence. Errors propagate immediately and abort the build, per §7,
// except where the grammar explicitly allows warn-and-skip.
func (ix *Indexer) Feed(r io.Reader) error {
	br := bufio.NewReaderSize(r, 64*1024)
	for {
		line, err := readLine(br)
		if err == io.EOF && line == "" {
			return nil
		}
		if err != nil && err != io.EOF {
			return err
		}
		if strings.TrimSpace(line) == "" {
			if err == io.EOF {
				return nil
			}
			continue
		}
		if ferr := ix.applyLine(br, line); ferr != nil {
			return ferr
		}
		if err == io.EOF {
			return nil
		}
	}
}

func readLine(br *bufio.Reader) (string, error) {
	line, err := br.ReadString('\n')
	line = strings.TrimRight(line, "\r\n")
	return line, err
}

func (ix *Indexer) applyLine(br *bufio.Reader, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	tag := fields[0]
	rest := fields[1:]
	switch tag {
	case "V":
		return ix.tagVersion(rest)
	case "N":
		return ix.tagName(rest)
	case "L":
		return ix.tagLanguage(rest)
	case "F":
		return ix.tagField(rest)
	case "S":
		return ix.tagSearchFields(rest)
	case "T":
		return ix.tagTerm(rest)
	case "D":
		return ix.tagDate(rest)
	case "H":
		return ix.tagTitle(line)
	case "I":
		return ix.tagItem(br, rest)
	case "K":
		return ix.tagKey(rest)
	case "R":
		return ix.tagRank(rest)
	case "C":
		return ix.tagTermCount(rest)
	case "M":
		return nil // free-text message, ignored
	case "E":
		return ix.tagDocumentEnd()
	case "Z":
		return ix.tagStreamEnd()
	default:
		logger.Warn("ingest: unrecognized tag, skipping", "tag", tag)
		return nil
	}
}

func (ix *Indexer) tagVersion(args []string) error {
	if len(args) < 2 {
		return ErrInvalidVersion
	}
	major, err1 := strconv.Atoi(args[0])
	minor, err2 := strconv.Atoi(args[1])
	if err1 != nil || err2 != nil {
		return ErrInvalidVersion
	}
	if major != currentMajorVersion {
		if major < currentMajorVersion {
			logger.Warn("ingest: older stream major version, proceeding", "major", major)
		} else {
			return ErrInvalidVersion
		}
	} else if minor > currentMinorVersion {
		return ErrInvalidVersion
	}
	ix.majorSeen, ix.minorSeen = true, true
	return nil
}

func (ix *Indexer) tagName(args []string) error {
	return nil // index name/description: metadata only, retained by the embedder's index-information store
}

func (ix *Indexer) tagLanguage(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: L", ErrInvalidTag)
	}
	if ix.defaultLanguage == "" {
		ix.defaultLanguage = args[0]
		if len(args) > 1 {
			ix.defaultTokenizer = args[1]
		}
	}
	ix.curLanguage = args[0]
	return nil
}

func (ix *Indexer) tagField(args []string) error {
	if len(args) < 3 {
		return fmt.Errorf("%w: F", ErrInvalidTag)
	}
	id, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("%w: F field id", ErrInvalidTag)
	}
	if uint32(id) != uint32(len(ix.fields))+1 {
		return ErrFieldIDsNotContiguous
	}
	fd := FieldDef{Name: args[0], ID: uint32(id), Type: args[2]}
	if len(args) > 3 {
		fd.Opts = strings.Split(args[3], ",")
	}
	if len(args) > 4 {
		fd.Desc = strings.Join(args[4:], " ")
	}
	ix.fields = append(ix.fields, fd)
	ix.fieldByName[fd.Name] = &ix.fields[len(ix.fields)-1]
	return nil
}

func (ix *Indexer) tagSearchFields(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: S", ErrInvalidTag)
	}
	for _, group := range args {
		for _, name := range strings.Split(group, ",") {
			if _, ok := ix.fieldByName[name]; !ok {
				return fmt.Errorf("%w: %q", ErrUnknownSearchFieldName, name)
			}
			ix.searchFieldNames = append(ix.searchFieldNames, name)
		}
	}
	return nil
}

// fieldByID resolves a 1-based field ID (assigned contiguously by
// tagField) back to its declaration, or nil if out of range.
func (ix *Indexer) fieldByID(id uint32) *FieldDef {
	if id == 0 || id > uint32(len(ix.fields)) {
		return nil
	}
	return &ix.fields[id-1]
}

func (ix *Indexer) requireDoc() error {
	if ix.cur == nil {
		ix.cur = &docBuildState{}
	}
	return nil
}

func (ix *Indexer) tagTerm(args []string) error {
	if err := ix.requireDoc(); err != nil {
		return err
	}
	if len(args) < 2 {
		return ErrInvalidDocumentTermTag
	}
	term := args[0]
	var pos uint32
	var fieldIDStr string
	if len(args) >= 3 {
		p, err := strconv.Atoi(args[1])
		if err != nil {
			return ErrInvalidDocumentTermTag
		}
		pos = uint32(p)
		fieldIDStr = args[2]
	} else {
		fieldIDStr = args[1]
		pos = ix.cur.lastTermPos + 1
	}
	fieldID64, err := strconv.Atoi(fieldIDStr)
	if err != nil {
		return ErrInvalidDocumentTermTag
	}
	fieldID := uint32(fieldID64)

	if pos != 0 {
		if ix.cur.sawNonZero && pos < ix.cur.lastTermPos {
			return ErrInvalidDocumentTermTag
		}
		ix.cur.sawNonZero = true
		ix.cur.lastTermPos = pos
	} else if ix.cur.sawNonZero {
		return ErrInvalidDocumentTermTag
	}

	if ix.idx.Opts.TermLengthMinimum > 0 && len(term) < ix.idx.Opts.TermLengthMinimum {
		return nil
	}
	if ix.idx.Opts.TermLengthMaximum > 0 && len(term) > ix.idx.Opts.TermLengthMaximum {
		return nil
	}

	// Field producers stream one token per T-tag rather than raw text, so
	// the per-field AnalyzerConfig (nostem/nostop/minlen) is re-applied to
	// that single token instead of a whole-text pipeline: a field declared
	// with "nostem" keeps proper nouns unstemmed even if the caller's
	// global analyzer would normally fold them.
	if fd := ix.fieldByID(fieldID); fd != nil {
		normalized := AnalyzeWithConfig(term, AnalyzerConfigForField(fd))
		if len(normalized) == 0 {
			return nil
		}
		term = normalized[0]
	}

	typ := TermRegular
	if _, stop := ix.stopSet[term]; stop {
		typ = TermStop
	}
	tb, ok := ix.terms[term]
	if !ok {
		tb = &termBuild{typ: typ, fieldIDs: map[uint32]struct{}{}}
		ix.terms[term] = tb
		ix.termsOrder = append(ix.termsOrder, term)
	}
	tb.fieldIDs[fieldID] = struct{}{}
	ix.cur.termOccurs++
	ix.cur.occurrences = append(ix.cur.occurrences, termOccurrence{term: term, pos: pos})
	return nil
}

func (ix *Indexer) tagDate(args []string) error {
	if err := ix.requireDoc(); err != nil {
		return err
	}
	if len(args) == 0 {
		return fmt.Errorf("%w: D", ErrInvalidTag)
	}
	v, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("%w: D", ErrInvalidTag)
	}
	ix.cur.ansiDate = v
	return nil
}

func (ix *Indexer) tagTitle(line string) error {
	if err := ix.requireDoc(); err != nil {
		return err
	}
	parts := strings.SplitN(line, " ", 2)
	if len(parts) == 2 {
		ix.cur.title = parts[1]
	}
	return nil
}

func (ix *Indexer) tagItem(br *bufio.Reader, args []string) error {
	if err := ix.requireDoc(); err != nil {
		return err
	}
	if len(args) < 3 {
		return ErrInvalidDocumentItemTag
	}
	length, err := strconv.Atoi(args[2])
	if err != nil {
		return ErrInvalidDocumentItemTag
	}
	item := DocumentItem{ItemID: uint32(len(ix.cur.items) + 1), ItemLength: uint64(length)}
	if len(args) >= 6 {
		item.FilePath = args[3]
		if start, err := strconv.ParseInt(args[4], 10, 64); err == nil {
			item.StartOffset = start
		}
		if end, err := strconv.ParseInt(args[5], 10, 64); err == nil {
			item.EndOffset = end
		}
	}
	if len(args) >= 7 {
		item.URL = args[6]
	} else if len(args) == 4 {
		item.URL = args[3]
	}

	contentLength := length
	for {
		hline, herr := readLine(br)
		if strings.TrimSpace(hline) == "" {
			break
		}
		if strings.HasPrefix(strings.ToLower(hline), "content-length:") {
			if v, perr := strconv.Atoi(strings.TrimSpace(hline[len("content-length:"):])); perr == nil {
				contentLength = v
			}
		}
		if herr != nil {
			break
		}
	}
	if contentLength > 0 {
		buf := make([]byte, contentLength)
		if _, err := io.ReadFull(br, buf); err != nil {
			return fmt.Errorf("%w: body read: %v", ErrInvalidDocumentItemTag, err)
		}
		item.Data = buf
	}
	ix.cur.items = append(ix.cur.items, item)
	return nil
}

func (ix *Indexer) tagKey(args []string) error {
	if err := ix.requireDoc(); err != nil {
		return err
	}
	if len(args) == 0 {
		return ErrInvalidDocumentKeyTag
	}
	ix.cur.key = args[0]
	if _, err := ix.idx.Keys.Lookup(args[0]); err == nil {
		ix.cur.duplicateKey = true
	}
	return nil
}

func (ix *Indexer) tagRank(args []string) error {
	if err := ix.requireDoc(); err != nil {
		return err
	}
	if len(args) == 0 {
		return fmt.Errorf("%w: R", ErrInvalidTag)
	}
	v, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil {
		return fmt.Errorf("%w: R", ErrInvalidTag)
	}
	ix.cur.rank = uint32(v)
	return nil
}

func (ix *Indexer) tagTermCount(args []string) error {
	if err := ix.requireDoc(); err != nil {
		return err
	}
	if len(args) == 0 {
		return fmt.Errorf("%w: C", ErrInvalidTag)
	}
	v, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil {
		return fmt.Errorf("%w: C", ErrInvalidTag)
	}
	tc := uint32(v)
	ix.cur.explicitTC = &tc
	return nil
}

func (ix *Indexer) tagDocumentEnd() error {
	if ix.cur == nil {
		return ErrDocumentEndWithoutStart
	}
	if ix.cur.key == "" {
		return ErrInvalidDocumentKeyTag
	}
	if ix.cur.duplicateKey {
		ix.duplicateDocumentKeys++
		logger.Warn("ingest: duplicate document key", "key", ix.cur.key)
	}

	termCount := ix.cur.termOccurs
	if ix.cur.explicitTC != nil {
		termCount = *ix.cur.explicitTC
	}
	doc := &Document{Title: ix.cur.title, Key: ix.cur.key, Items: ix.cur.items}
	docID, err := ix.idx.Docs.AddDocument(doc, ix.cur.rank, termCount, ix.cur.ansiDate, 0)
	if err != nil {
		return err
	}
	ix.idx.Keys.Insert(ix.cur.key, docID)

	if ix.idx.stats.DocumentTermCountMaximum == 0 || termCount > ix.idx.stats.DocumentTermCountMaximum {
		ix.idx.stats.DocumentTermCountMaximum = termCount
	}
	if ix.idx.stats.DocumentTermCountMinimum == 0 || termCount < ix.idx.stats.DocumentTermCountMinimum {
		ix.idx.stats.DocumentTermCountMinimum = termCount
	}

	for _, occ := range ix.cur.occurrences {
		tb, ok := ix.terms[occ.term]
		if !ok {
			continue // no term build record for this occurrence
		}
		tb.postings = append(tb.postings, Posting{DocID: docID, TermPos: occ.pos, Weight: 1})
	}
	ix.cur = nil
	return nil
}

func (ix *Indexer) tagStreamEnd() error {
	var unique, total, uniqueStop, totalStop uint64
	// The term dictionary only accepts keys in ascending order.
	order := append([]string(nil), ix.termsOrder...)
	sort.Strings(order)
	for _, term := range order {
		tb := ix.terms[term]
		if len(tb.postings) == 0 {
			continue
		}
		blockID, err := ix.idx.IndexData.Append(encodePostings(tb.postings))
		if err != nil {
			return err
		}
		fieldIDs := make([]uint32, 0, len(tb.fieldIDs))
		for id := range tb.fieldIDs {
			fieldIDs = append(fieldIDs, id)
		}
		rec := &TermRecord{
			Type:          tb.typ,
			TermCount:     uint64(len(tb.postings)),
			DocumentCount: uint64(len(distinctDocs(tb.postings))),
			IndexBlockID:  blockID,
			FieldIDs:      fieldIDs,
		}
		if err := ix.idx.Terms.Insert(term, rec); err != nil {
			return err
		}
		if tb.typ == TermStop {
			uniqueStop++
			totalStop += rec.TermCount
		} else {
			unique++
			total += rec.TermCount
		}
	}
	ix.idx.stats.UniqueTermCount = unique
	ix.idx.stats.TotalTermCount = total
	ix.idx.stats.UniqueStopTermCount = uniqueStop
	ix.idx.stats.TotalStopTermCount = totalStop
	return nil
}

func distinctDocs(postings []Posting) map[uint32]struct{} {
	m := make(map[uint32]struct{})
	for _, p := range postings {
		m[p.DocID] = struct{}{}
	}
	return m
}

func encodePostings(postings []Posting) []byte {
	buf := make([]byte, 0, len(postings)*8)
	buf = PutUvarint(buf, uint64(len(postings)))
	var prevDoc uint32
	for _, p := range postings {
		buf = PutUvarint(buf, uint64(p.DocID-prevDoc))
		prevDoc = p.DocID
		buf = PutUvarint(buf, uint64(p.TermPos))
		buf = PutU32(buf, math.Float32bits(p.Weight))
	}
	return buf
}

func decodePostings(data []byte) ([]Posting, error) {
	c := NewCursor(data)
	n, err := c.ReadUvarint()
	if err != nil {
		return nil, err
	}
	postings := make([]Posting, 0, n)
	var doc uint32
	for i := uint64(0); i < n; i++ {
		delta, err := c.ReadUvarint()
		if err != nil {
			return nil, err
		}
		doc += uint32(delta)
		pos, err := c.ReadUvarint()
		if err != nil {
			return nil, err
		}
		w, err := c.ReadU32()
		if err != nil {
			return nil, err
		}
		postings = append(postings, Posting{DocID: doc, TermPos: uint32(pos), Weight: math.Float32frombits(w)})
	}
	return postings, nil
}
