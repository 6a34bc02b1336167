package ferret

import (
	"errors"
	"math"
	"math/rand"
	"time"
)

// A SkipList holds one token's positions: Position.DocumentID orders
// postings by document first, Position.Offset by term offset within that
// document, so FindGreaterThan/FindLessThan double as both "next document
// containing this term" and "next occurrence" depending on which field the
// caller varies. InvertedIndex.indexToken (index.go) is the sole writer;
// ToPostingList/FromPostingList (also index.go) are the read/write bridge
// to the Posting/PostingList algebra in posting.go via ToPostings below,
// and serialization.go persists a SkipList's nodes and tower structure
// directly.

const MaxHeight = 32 // tower height ceiling; log2 of the largest list this can stay balanced over

// BOF/EOF sentinel Positions let every boundary check (First/Last/Next on
// an empty or exhausted list) use ordinary comparison instead of a
// separate "is this the first call" branch.
var (
	EOF = math.Inf(1)
	BOF = math.Inf(-1)
)

var (
	ErrKeyNotFound    = errors.New("key not found")
	ErrNoElementFound = errors.New("no element found")
)

// Position identifies one occurrence of a term: which document, and at
// what offset within it. Both fields are float64 rather than int so that
// BOF/EOF (±Inf) compare correctly against real positions without a
// separate sentinel type.
type Position struct {
	DocumentID float64
	Offset     float64
}

var (
	BOFDocument = Position{DocumentID: BOF, Offset: BOF}
	EOFDocument = Position{DocumentID: EOF, Offset: EOF}
)

func (p *Position) GetDocumentID() int { return int(p.DocumentID) }
func (p *Position) GetOffset() int     { return int(p.Offset) }
func (p *Position) IsBeginning() bool  { return p.Offset == BOF }
func (p *Position) IsEnd() bool        { return p.Offset == EOF }

// IsBefore orders by DocumentID first, then Offset within a document.
func (p *Position) IsBefore(other Position) bool {
	if p.DocumentID < other.DocumentID {
		return true
	}
	return p.DocumentID == other.DocumentID && p.Offset < other.Offset
}

func (p *Position) IsAfter(other Position) bool {
	if p.DocumentID > other.DocumentID {
		return true
	}
	return p.DocumentID == other.DocumentID && p.Offset > other.Offset
}

func (p *Position) Equals(other Position) bool {
	return p.DocumentID == other.DocumentID && p.Offset == other.Offset
}

// Node is one entry in the skip list: a Position and its tower of forward
// pointers, one per level it participates in.
type Node struct {
	Key   Position
	Tower [MaxHeight]*Node
}

// SkipList holds a sentinel Head node plus the current tallest tower in
// use; Height never shrinks below 1.
type SkipList struct {
	Head   *Node
	Height int
	rng    *rand.Rand
}

func NewSkipList() *SkipList {
	return &SkipList{
		Head:   &Node{},
		Height: 1,
	}
}

// Search walks the tower from the top level down, returning the node with
// an exact key match (nil if absent) and the journey: the predecessor at
// each level, which Insert/Delete/FindLessThan all need.
func (sl *SkipList) Search(key Position) (*Node, [MaxHeight]*Node) {
	var journey [MaxHeight]*Node
	current := sl.Head

	for level := sl.Height - 1; level >= 0; level-- {
		current = sl.traverseLevel(current, key, level)
		journey[level] = current
	}

	next := current.Tower[0]
	if next != nil && next.Key.Equals(key) {
		return next, journey
	}
	return nil, journey
}

func (sl *SkipList) traverseLevel(start *Node, target Position, level int) *Node {
	current := start
	next := current.Tower[level]
	for next != nil {
		if sl.shouldAdvance(next.Key, target) {
			current = next
			next = current.Tower[level]
		} else {
			break
		}
	}
	return current
}

func (sl *SkipList) shouldAdvance(nodeKey, targetKey Position) bool {
	if nodeKey.Equals(targetKey) {
		return false
	}
	return nodeKey.IsBefore(targetKey)
}

// Find reports the stored key matching key exactly, or ErrKeyNotFound.
func (sl *SkipList) Find(key Position) (Position, error) {
	found, _ := sl.Search(key)
	if found == nil {
		return EOFDocument, ErrKeyNotFound
	}
	return found.Key, nil
}

// FindLessThan returns the largest stored key strictly less than key; the
// level-0 journey entry from Search already is that predecessor.
func (sl *SkipList) FindLessThan(key Position) (Position, error) {
	_, journey := sl.Search(key)
	predecessor := journey[0]
	if predecessor == nil || predecessor == sl.Head {
		return BOFDocument, ErrNoElementFound
	}
	return predecessor.Key, nil
}

// FindGreaterThan returns the smallest stored key strictly greater than
// key, whether or not key itself is present.
func (sl *SkipList) FindGreaterThan(key Position) (Position, error) {
	found, journey := sl.Search(key)

	if found != nil {
		if found.Tower[0] != nil {
			return found.Tower[0].Key, nil
		}
		return EOFDocument, ErrNoElementFound
	}

	predecessor := journey[0]
	if predecessor != nil && predecessor.Tower[0] != nil {
		return predecessor.Tower[0].Key, nil
	}
	return EOFDocument, ErrNoElementFound
}

// Insert adds key, or overwrites the existing node's key if key already
// compares equal (same DocumentID/Offset).
func (sl *SkipList) Insert(key Position) {
	found, journey := sl.Search(key)
	if found != nil {
		found.Key = key
		return
	}

	height := sl.randomHeight()
	newNode := &Node{Key: key}
	sl.linkNode(newNode, journey, height)

	if height > sl.Height {
		sl.Height = height
	}
}

// linkNode splices node into the list at every level up to height, using
// journey's predecessors recorded by the Search that preceded this call.
func (sl *SkipList) linkNode(node *Node, journey [MaxHeight]*Node, height int) {
	for level := 0; level < height; level++ {
		predecessor := journey[level]
		if predecessor == nil {
			predecessor = sl.Head
		}
		node.Tower[level] = predecessor.Tower[level]
		predecessor.Tower[level] = node
	}
}

// Delete removes key if present, reports whether it was found, and
// shrinks the list's height if that leaves the top levels empty.
func (sl *SkipList) Delete(key Position) bool {
	found, journey := sl.Search(key)
	if found == nil {
		return false
	}

	for level := 0; level < sl.Height; level++ {
		if journey[level].Tower[level] != found {
			break
		}
		journey[level].Tower[level] = found.Tower[level]
	}

	sl.shrink()
	return true
}

// Last returns the largest stored key by walking level 0 to its end.
func (sl *SkipList) Last() Position {
	current := sl.Head
	for next := current.Tower[0]; next != nil; next = next.Tower[0] {
		current = next
	}
	return current.Key
}

func (sl *SkipList) shrink() {
	for level := sl.Height - 1; level >= 0; level-- {
		if sl.Head.Tower[level] == nil {
			sl.Height--
		} else {
			break
		}
	}
}

// randomHeight flips a fair coin per level (height++ on heads, stop on
// tails), giving the geometric height distribution a skip list needs for
// its O(log n) average bound. The generator is lazily seeded per list
// rather than per call, so a build that inserts many positions in a row
// doesn't collapse to the same seed on every insert.
func (sl *SkipList) randomHeight() int {
	if sl.rng == nil {
		sl.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	height := 1
	for sl.rng.Float64() < 0.5 && height < MaxHeight {
		height++
	}
	return height
}

// Iterator walks a SkipList's level-0 chain in key order. Unlike
// FindGreaterThan/FindLessThan it never re-walks the tower from the top,
// so repeated calls to Next are O(1) amortized rather than O(log n) each.
type Iterator struct {
	current *Node
}

func (sl *SkipList) Iterator() *Iterator {
	return &Iterator{current: sl.Head.Tower[0]}
}

func (it *Iterator) HasNext() bool {
	return it.current != nil
}

// Next returns the current element and advances. Calling past the last
// element returns EOFDocument.
func (it *Iterator) Next() Position {
	if it.current == nil {
		return EOFDocument
	}
	pos := it.current.Key
	it.current = it.current.Tower[0]
	return pos
}

// ToPostings drains every stored Position in order into Postings for the
// posting-list algebra (posting.go), folding the DocumentID/Offset
// float64 pair back into the uint32 DocID/TermPos pair the algebra
// expects. Every occurrence carries Weight 1; term-frequency weighting is
// the algebra's job (And's running-sum accumulation), not the skip
// list's.
func (sl *SkipList) ToPostings() []Posting {
	postings := make([]Posting, 0)
	it := sl.Iterator()
	for it.HasNext() {
		pos := it.Next()
		postings = append(postings, Posting{
			DocID:   uint32(pos.GetDocumentID()),
			TermPos: uint32(pos.GetOffset()),
			Weight:  1,
		})
	}
	return postings
}
