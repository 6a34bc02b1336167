// Posting list algebra: the merge operators over (doc_id, term_pos,
// weight) streams that every compiled query composes bottom-up. This is
// the single largest component of the design (§4.6) and the one with the
// most exacting invariants: output ordering, degenerate-input handling
// under a Relaxed/Strict policy, and proximity-aware reweighting.
//
// Grounded on original_source/src/search/posting.c: the degenerate-input
// branches mirror iSrchPostingsMergeOR's empty-list handling, the AND
// accumulation loop mirrors its running-weight/iCurrentTermPosition
// tracking, and ADJ/NEAR mirror the distance-check merge loops further
// down the same file. The proximity factor (3) is posting.c's
// SRCH_POSTING_PROXIMITY_REWEIGHTING.

package ferret

import (
	"errors"
	"sort"
)

// ErrInvalidTermDistance is returned by Adj/Near for a non-positive n or
// a zero distance.
var ErrInvalidTermDistance = errors.New("posting: invalid term distance")

// ErrInvalidPostingsList is returned when a posting list violates an
// ordering invariant a caller was required to maintain before calling an
// algebra operator.
var ErrInvalidPostingsList = errors.New("posting: invalid postings list")

// DefaultProximityFactor is the weight multiplier §9(a) documents as a
// tunable constant; IndexOptions.ProximityFactor defaults to this value.
const DefaultProximityFactor = 3.0

// BooleanPolicy governs how the algebra operators degenerate when one
// operand is empty, per §4.6.
type BooleanPolicy int

const (
	// Relaxed returns the non-empty side whenever the empty side is not
	// marked Required (and treats a nil peer the same way regardless of
	// its Required flag).
	Relaxed BooleanPolicy = iota
	// Strict returns the non-empty side only when the empty side's
	// TermType is Stop.
	Strict
)

// Posting is one occurrence of a term in a document. TermPos == 0 marks
// a positionless meta-term, which never receives proximity reweighting;
// Adj matches it only against another positionless posting, and Near
// compares TermPos values as they are.
type Posting struct {
	DocID   uint32
	TermPos uint32
	Weight  float32
}

// PostingList is an ordered sequence of Postings plus the metadata the
// algebra and the on-disk term dictionary both need. Postings are
// ordered first by DocID ascending, then by TermPos ascending within a
// document — every operator in this file preserves that ordering on its
// output.
type PostingList struct {
	Type          TermType
	TermCount     uint64
	DocumentCount uint64
	Required      bool
	Postings      []Posting
}

func newPostingList(typ TermType, required bool, cap_ int) *PostingList {
	return &PostingList{Type: typ, Required: required, Postings: make([]Posting, 0, cap_)}
}

func emptyUnknown() *PostingList {
	return &PostingList{Type: TermUnknown}
}

// finalize recomputes TermCount/DocumentCount from the emitted postings,
// per §4.6's "invariants enforced on emit".
func (pl *PostingList) finalize() *PostingList {
	pl.TermCount = uint64(len(pl.Postings))
	seen := make(map[uint32]struct{}, len(pl.Postings))
	for _, p := range pl.Postings {
		seen[p.DocID] = struct{}{}
	}
	pl.DocumentCount = uint64(len(seen))
	return pl
}

// isEmptyList reports whether pl has no postings; a nil pointer counts
// as empty too, since several operators accept a nil peer.
func isEmptyList(pl *PostingList) bool {
	return pl == nil || len(pl.Postings) == 0
}

// degenerate implements the unified empty/stop/required handling shared
// by every binary operator in §4.6. ok is false when neither input is
// empty and the caller must run its own merge.
func degenerate(a, b *PostingList, policy BooleanPolicy) (result *PostingList, ok bool) {
	aEmpty, bEmpty := isEmptyList(a), isEmptyList(b)
	if !aEmpty && !bEmpty {
		return nil, false
	}

	// Exactly one side is empty: decide whether to return the other side
	// untouched.
	if aEmpty != bEmpty {
		emptySide, nonEmptySide := a, b
		if bEmpty {
			emptySide, nonEmptySide = b, a
		}
		emptyIsStop := emptySide != nil && emptySide.Type == TermStop
		emptyRequired := emptySide != nil && emptySide.Required
		emptyIsNilPeer := emptySide == nil
		switch policy {
		case Strict:
			if emptyIsStop {
				return nonEmptySide, true
			}
		case Relaxed:
			if emptyIsNilPeer || !emptyRequired {
				return nonEmptySide, true
			}
		}
	}

	// Both empty, or the one-side return above didn't fire: produce a
	// new empty list, Stop iff both sides carry Stop.
	aStop := a != nil && a.Type == TermStop
	bStop := b != nil && b.Type == TermStop
	if aStop && bStop {
		return &PostingList{Type: TermStop}, true
	}
	return emptyUnknown(), true
}

func docSet(pl *PostingList) map[uint32]struct{} {
	s := make(map[uint32]struct{}, len(pl.Postings))
	for _, p := range pl.Postings {
		s[p.DocID] = struct{}{}
	}
	return s
}

// applyProximity multiplies next's weight by factor when it immediately
// follows prev at the same document, one position later. prev is nil
// before the first emission.
func applyProximity(prev *Posting, next *Posting, factor float32) {
	if next.TermPos == 0 {
		return
	}
	if prev != nil && prev.DocID == next.DocID && next.TermPos == prev.TermPos+1 {
		next.Weight *= factor
	}
}

// Or computes the document union of a and b. Per §4.6, OR aliases to AND
// when both operands are Required, and to Ior (with the Required side as
// primary) when exactly one is.
func Or(a, b *PostingList, policy BooleanPolicy, factor float32) *PostingList {
	if res, ok := degenerate(a, b, policy); ok {
		return res
	}
	if a.Required && b.Required {
		return And(a, b, policy, factor)
	}
	if a.Required != b.Required {
		primary, secondary := a, b
		if b.Required {
			primary, secondary = b, a
		}
		return Ior(primary, secondary, policy, factor)
	}
	return unionMerge(a, b, policy, factor, false)
}

// Ior computes the inclusive OR restricted to primary's document set:
// every posting of primary, plus only the postings of secondary whose
// doc_id also appears in primary.
func Ior(primary, secondary *PostingList, policy BooleanPolicy, factor float32) *PostingList {
	if res, ok := degenerate(primary, secondary, policy); ok {
		return res
	}
	primaryDocs := docSet(primary)
	filtered := &PostingList{Type: secondary.Type, Postings: make([]Posting, 0, len(secondary.Postings))}
	for _, p := range secondary.Postings {
		if _, ok := primaryDocs[p.DocID]; ok {
			filtered.Postings = append(filtered.Postings, p)
		}
	}
	return unionMerge(primary, filtered, policy, factor, true)
}

// unionMerge merges two already-sorted lists by (doc_id, term_pos),
// applying proximity reweighting across the combined stream. skipDegenerate
// is set by Ior, which has already resolved its degenerate cases against
// the unfiltered secondary list.
func unionMerge(a, b *PostingList, policy BooleanPolicy, factor float32, skipDegenerate bool) *PostingList {
	if !skipDegenerate {
		if res, ok := degenerate(a, b, policy); ok {
			return res
		}
	}
	out := newPostingList(TermRegular, a.Required || b.Required, len(a.Postings)+len(b.Postings))
	i, j := 0, 0
	var prev *Posting
	for i < len(a.Postings) || j < len(b.Postings) {
		var next Posting
		switch {
		case j >= len(b.Postings):
			next = a.Postings[i]
			i++
		case i >= len(a.Postings):
			next = b.Postings[j]
			j++
		case lessPosting(a.Postings[i], b.Postings[j]):
			next = a.Postings[i]
			i++
		default:
			next = b.Postings[j]
			j++
		}
		applyProximity(prev, &next, factor)
		out.Postings = append(out.Postings, next)
		prev = &out.Postings[len(out.Postings)-1]
	}
	return out.finalize()
}

func lessPosting(a, b Posting) bool {
	if a.DocID != b.DocID {
		return a.DocID < b.DocID
	}
	return a.TermPos < b.TermPos
}

// Xor emits the postings of whichever side holds a document exclusively.
func Xor(a, b *PostingList, policy BooleanPolicy, factor float32) *PostingList {
	if res, ok := degenerate(a, b, policy); ok {
		return res
	}
	aDocs, bDocs := docSet(a), docSet(b)
	out := newPostingList(TermRegular, a.Required || b.Required, len(a.Postings)+len(b.Postings))
	var picked []Posting
	for _, p := range a.Postings {
		if _, inB := bDocs[p.DocID]; !inB {
			picked = append(picked, p)
		}
	}
	for _, p := range b.Postings {
		if _, inA := aDocs[p.DocID]; !inA {
			picked = append(picked, p)
		}
	}
	sort.Slice(picked, func(i, j int) bool { return lessPosting(picked[i], picked[j]) })
	var prev *Posting
	for i := range picked {
		applyProximity(prev, &picked[i], factor)
		out.Postings = append(out.Postings, picked[i])
		prev = &out.Postings[len(out.Postings)-1]
	}
	return out.finalize()
}

// And emits, per document present in both lists, a single posting whose
// term_pos is the last position visited and whose weight is the running
// sum of every participating posting's weight, with the running sum
// itself reweighted in-flight whenever consecutive visited positions are
// one apart (mirrors posting.c's iCurrentTermPosition accumulation).
func And(a, b *PostingList, policy BooleanPolicy, factor float32) *PostingList {
	if res, ok := degenerate(a, b, policy); ok {
		return res
	}
	bDocs := groupByDoc(b)
	out := newPostingList(TermRegular, a.Required || b.Required, min(len(a.Postings), len(b.Postings)))
	for _, doc := range orderedDocs(a) {
		aPos := groupByDoc(a)[doc]
		bPos, ok := bDocs[doc]
		if !ok {
			continue
		}
		merged := mergePositions(aPos, bPos)
		weight := float32(0)
		prevTermPos := int64(-1)
		var lastPos uint32
		for _, p := range merged {
			weight += p.Weight
			if p.TermPos != 0 && int64(p.TermPos) == prevTermPos+1 {
				weight *= factor
			}
			prevTermPos = int64(p.TermPos)
			lastPos = p.TermPos
		}
		out.Postings = append(out.Postings, Posting{DocID: doc, TermPos: lastPos, Weight: weight})
	}
	return out.finalize()
}

// Not emits every posting of primary whose document does not appear in
// secondary.
func Not(primary, secondary *PostingList, policy BooleanPolicy, factor float32) *PostingList {
	if res, ok := degenerate(primary, secondary, policy); ok {
		return res
	}
	secondaryDocs := docSet(secondary)
	out := newPostingList(primary.Type, primary.Required, len(primary.Postings))
	var prev *Posting
	for _, p := range primary.Postings {
		if _, ok := secondaryDocs[p.DocID]; ok {
			continue
		}
		pp := p
		applyProximity(prev, &pp, factor)
		out.Postings = append(out.Postings, pp)
		prev = &out.Postings[len(out.Postings)-1]
	}
	return out.finalize()
}

// Adj emits the B posting of every document where B immediately follows
// A at distance exactly n (or both sides are positionless meta-terms).
// The emitted posting's weight is the sum of the two participating
// weights, unconditionally multiplied by factor.
func Adj(a, b *PostingList, n int, policy BooleanPolicy, factor float32) (*PostingList, error) {
	if n <= 0 {
		return nil, ErrInvalidTermDistance
	}
	if res, ok := degenerate(a, b, policy); ok {
		return res, nil
	}
	out := newPostingList(TermRegular, a.Required || b.Required, max(len(a.Postings), len(b.Postings)))
	aByDoc, bByDoc := groupByDoc(a), groupByDoc(b)
	for _, doc := range orderedDocs(a) {
		bPos, ok := bByDoc[doc]
		if !ok {
			continue
		}
		aPos := aByDoc[doc]
		i, j := 0, 0
		for i < len(aPos) && j < len(bPos) {
			ap, bp := aPos[i], bPos[j]
			match := (ap.TermPos == 0 && bp.TermPos == 0) ||
				(ap.TermPos != 0 && bp.TermPos != 0 && int64(bp.TermPos)-int64(ap.TermPos) == int64(n))
			if match {
				out.Postings = append(out.Postings, Posting{
					DocID:   doc,
					TermPos: bp.TermPos,
					Weight:  (ap.Weight + bp.Weight) * factor,
				})
				i++
				j++
				continue
			}
			if ap.TermPos+uint32(n) < bp.TermPos {
				i++
			} else {
				j++
			}
		}
	}
	return out.finalize(), nil
}

// Near emits a posting for every document where A and B occur within d
// positions of each other. If ordered, the sign of d fixes the required
// order (positive: A before B). The emitted posting carries the doc_id
// and term_pos of whichever side occurs later (A, in the reversed-order
// case), with summed, factor-reweighted weight.
func Near(a, b *PostingList, d int, ordered bool, policy BooleanPolicy, factor float32) (*PostingList, error) {
	if d == 0 {
		return nil, ErrInvalidTermDistance
	}
	if res, ok := degenerate(a, b, policy); ok {
		return res, nil
	}
	absD := d
	if absD < 0 {
		absD = -absD
	}
	out := newPostingList(TermRegular, a.Required || b.Required, max(len(a.Postings), len(b.Postings)))
	aByDoc, bByDoc := groupByDoc(a), groupByDoc(b)
	for _, doc := range orderedDocs(a) {
		bPos, ok := bByDoc[doc]
		if !ok {
			continue
		}
		aPos := aByDoc[doc]
		for _, ap := range aPos {
			for _, bp := range bPos {
				diff := int64(bp.TermPos) - int64(ap.TermPos)
				absDiff := diff
				if absDiff < 0 {
					absDiff = -absDiff
				}
				if absDiff > int64(absD) {
					continue
				}
				if ordered {
					if d > 0 && diff <= 0 {
						continue
					}
					if d < 0 && diff >= 0 {
						continue
					}
				}
				later := bp
				if ap.TermPos > bp.TermPos {
					later = ap
				}
				out.Postings = append(out.Postings, Posting{
					DocID:   doc,
					TermPos: later.TermPos,
					Weight:  (ap.Weight + bp.Weight) * factor,
				})
			}
		}
	}
	sort.Slice(out.Postings, func(i, j int) bool { return lessPosting(out.Postings[i], out.Postings[j]) })
	return out.finalize(), nil
}

func groupByDoc(pl *PostingList) map[uint32][]Posting {
	m := make(map[uint32][]Posting)
	for _, p := range pl.Postings {
		m[p.DocID] = append(m[p.DocID], p)
	}
	return m
}

func orderedDocs(pl *PostingList) []uint32 {
	seen := make(map[uint32]struct{})
	var order []uint32
	for _, p := range pl.Postings {
		if _, ok := seen[p.DocID]; !ok {
			seen[p.DocID] = struct{}{}
			order = append(order, p.DocID)
		}
	}
	return order
}

func mergePositions(a, b []Posting) []Posting {
	out := make([]Posting, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) || j < len(b) {
		switch {
		case j >= len(b):
			out = append(out, a[i])
			i++
		case i >= len(a):
			out = append(out, b[j])
			j++
		case a[i].TermPos <= b[j].TermPos:
			out = append(out, a[i])
			i++
		default:
			out = append(out, b[j])
			j++
		}
	}
	return out
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
