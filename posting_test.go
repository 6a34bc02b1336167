package ferret

import "testing"

// ═══════════════════════════════════════════════════════════════════════════════
// DEGENERATE-INPUT TESTS
// ═══════════════════════════════════════════════════════════════════════════════

func pl(required bool, typ TermType, postings ...Posting) *PostingList {
	p := &PostingList{Type: typ, Required: required, Postings: postings}
	return p.finalize()
}

func post(doc, pos uint32, w float32) Posting {
	return Posting{DocID: doc, TermPos: pos, Weight: w}
}

func TestOr_BothEmptyRelaxed(t *testing.T) {
	out := Or(emptyUnknown(), emptyUnknown(), Relaxed, DefaultProximityFactor)
	if len(out.Postings) != 0 {
		t.Fatalf("expected empty result, got %d postings", len(out.Postings))
	}
}

func TestOr_NilPeerReturnsOtherSide(t *testing.T) {
	a := pl(true, TermRegular, post(1, 1, 1))
	out := Or(a, nil, Relaxed, DefaultProximityFactor)
	if len(out.Postings) != 1 || out.Postings[0].DocID != 1 {
		t.Fatalf("expected a's postings unchanged, got %+v", out.Postings)
	}
}

func TestOr_StrictRequiredEmptySideWins(t *testing.T) {
	// Strict: empty side only yields the other side if it's Stop-typed.
	a := pl(false, TermRegular, post(1, 1, 1))
	emptyNonStop := &PostingList{Type: TermRegular, Required: true}
	out := Or(a, emptyNonStop, Strict, DefaultProximityFactor)
	if len(out.Postings) != 0 {
		t.Fatalf("Strict policy with non-Stop empty required side should degenerate to empty, got %+v", out.Postings)
	}

	emptyStop := &PostingList{Type: TermStop}
	out = Or(a, emptyStop, Strict, DefaultProximityFactor)
	if len(out.Postings) != 1 {
		t.Fatalf("Strict policy with Stop empty side should return the non-empty side, got %+v", out.Postings)
	}
}

func TestOr_BothStopProducesStopEmpty(t *testing.T) {
	out := Or(&PostingList{Type: TermStop}, &PostingList{Type: TermStop}, Relaxed, DefaultProximityFactor)
	if out.Type != TermStop || len(out.Postings) != 0 {
		t.Fatalf("expected empty Stop list, got %+v", out)
	}
}

// ═══════════════════════════════════════════════════════════════════════════════
// OR / IOR / XOR TESTS
// ═══════════════════════════════════════════════════════════════════════════════

func TestOr_UnionMergeOrdering(t *testing.T) {
	a := pl(false, TermRegular, post(1, 1, 1), post(3, 1, 1))
	b := pl(false, TermRegular, post(2, 1, 1), post(3, 2, 1))
	out := Or(a, b, Relaxed, DefaultProximityFactor)

	want := []uint32{1, 2, 3, 3}
	if len(out.Postings) != len(want) {
		t.Fatalf("got %d postings, want %d", len(out.Postings), len(want))
	}
	for i, doc := range want {
		if out.Postings[i].DocID != doc {
			t.Errorf("postings[%d].DocID = %d, want %d", i, out.Postings[i].DocID, doc)
		}
	}
	if out.DocumentCount != 3 {
		t.Errorf("DocumentCount = %d, want 3", out.DocumentCount)
	}
}

func TestOr_AliasesToAndWhenBothRequired(t *testing.T) {
	a := pl(true, TermRegular, post(1, 1, 1), post(2, 1, 1))
	b := pl(true, TermRegular, post(2, 1, 1))
	out := Or(a, b, Relaxed, DefaultProximityFactor)
	if len(out.Postings) != 1 || out.Postings[0].DocID != 2 {
		t.Fatalf("Or with both Required should behave like And, got %+v", out.Postings)
	}
}

func TestOr_AliasesToIorWhenOneRequired(t *testing.T) {
	a := pl(true, TermRegular, post(1, 1, 1))
	b := pl(false, TermRegular, post(1, 2, 1), post(2, 1, 1))
	out := Or(a, b, Relaxed, DefaultProximityFactor)
	// Ior restricted to a's doc set (doc 1 only), plus all of a.
	for _, p := range out.Postings {
		if p.DocID == 2 {
			t.Fatalf("Ior result should not include doc 2 (outside primary's docset): %+v", out.Postings)
		}
	}
}

func TestIor_RestrictsSecondaryToPrimaryDocs(t *testing.T) {
	primary := pl(false, TermRegular, post(1, 1, 1))
	secondary := pl(false, TermRegular, post(1, 5, 1), post(2, 1, 1))
	out := Ior(primary, secondary, Relaxed, DefaultProximityFactor)
	for _, p := range out.Postings {
		if p.DocID != 1 {
			t.Errorf("Ior leaked doc %d outside primary's set", p.DocID)
		}
	}
	if len(out.Postings) != 2 {
		t.Errorf("expected 2 postings (primary's + secondary's doc-1 occurrence), got %d", len(out.Postings))
	}
}

func TestXor_OnlyExclusiveDocsSurvive(t *testing.T) {
	a := pl(false, TermRegular, post(1, 1, 1), post(2, 1, 1))
	b := pl(false, TermRegular, post(2, 1, 1), post(3, 1, 1))
	out := Xor(a, b, Relaxed, DefaultProximityFactor)
	docs := map[uint32]bool{}
	for _, p := range out.Postings {
		docs[p.DocID] = true
	}
	if docs[2] {
		t.Error("Xor should exclude doc 2, present in both operands")
	}
	if !docs[1] || !docs[3] {
		t.Errorf("Xor should include docs exclusive to one side, got %+v", out.Postings)
	}
}

// ═══════════════════════════════════════════════════════════════════════════════
// AND TESTS
// ═══════════════════════════════════════════════════════════════════════════════

func TestAnd_OnlyCommonDocsSurvive(t *testing.T) {
	a := pl(false, TermRegular, post(1, 1, 1), post(2, 1, 1))
	b := pl(false, TermRegular, post(2, 1, 1))
	out := And(a, b, Relaxed, DefaultProximityFactor)
	if len(out.Postings) != 1 || out.Postings[0].DocID != 2 {
		t.Fatalf("expected only doc 2 to survive And, got %+v", out.Postings)
	}
}

func TestAnd_AdjacentPositionsReweight(t *testing.T) {
	// Two postings in the same doc at consecutive positions should have
	// their running weight multiplied by factor during accumulation.
	a := pl(false, TermRegular, post(1, 1, 1))
	b := pl(false, TermRegular, post(1, 2, 1))
	out := And(a, b, Relaxed, 3.0)
	if len(out.Postings) != 1 {
		t.Fatalf("expected 1 merged posting, got %d", len(out.Postings))
	}
	// weight starts at 1 (first posting), then += 1 = 2, then *= 3 (consecutive) = 6
	if out.Postings[0].Weight != 6 {
		t.Errorf("Weight = %v, want 6 (reweighted on consecutive positions)", out.Postings[0].Weight)
	}
}

// ═══════════════════════════════════════════════════════════════════════════════
// NOT TESTS
// ═══════════════════════════════════════════════════════════════════════════════

func TestNot_RemovesSecondaryDocs(t *testing.T) {
	primary := pl(false, TermRegular, post(1, 1, 1), post(2, 1, 1), post(3, 1, 1))
	secondary := pl(false, TermRegular, post(2, 1, 1))
	out := Not(primary, secondary, Relaxed, DefaultProximityFactor)
	for _, p := range out.Postings {
		if p.DocID == 2 {
			t.Fatal("Not should have removed doc 2")
		}
	}
	if len(out.Postings) != 2 {
		t.Errorf("expected 2 surviving postings, got %d", len(out.Postings))
	}
}

func TestNot_EmptySecondaryReturnsPrimaryUnchanged(t *testing.T) {
	primary := pl(false, TermRegular, post(1, 1, 1))
	out := Not(primary, emptyUnknown(), Relaxed, DefaultProximityFactor)
	if len(out.Postings) != 1 {
		t.Fatalf("expected primary untouched, got %+v", out.Postings)
	}
}

// ═══════════════════════════════════════════════════════════════════════════════
// ADJ / NEAR TESTS
// ═══════════════════════════════════════════════════════════════════════════════

func TestAdj_RejectsNonPositiveDistance(t *testing.T) {
	a := pl(false, TermRegular, post(1, 1, 1))
	b := pl(false, TermRegular, post(1, 2, 1))
	if _, err := Adj(a, b, 0, Relaxed, DefaultProximityFactor); err != ErrInvalidTermDistance {
		t.Errorf("Adj(n=0) error = %v, want ErrInvalidTermDistance", err)
	}
	if _, err := Adj(a, b, -1, Relaxed, DefaultProximityFactor); err != ErrInvalidTermDistance {
		t.Errorf("Adj(n=-1) error = %v, want ErrInvalidTermDistance", err)
	}
}

func TestAdj_MatchesExactDistance(t *testing.T) {
	a := pl(false, TermRegular, post(1, 5, 1))
	b := pl(false, TermRegular, post(1, 6, 1))
	out, err := Adj(a, b, 1, Relaxed, 2.0)
	if err != nil {
		t.Fatalf("Adj returned error: %v", err)
	}
	if len(out.Postings) != 1 {
		t.Fatalf("expected 1 adjacency match, got %d", len(out.Postings))
	}
	if out.Postings[0].TermPos != 6 {
		t.Errorf("TermPos = %d, want 6 (B's position)", out.Postings[0].TermPos)
	}
	if out.Postings[0].Weight != 4 { // (1+1)*2
		t.Errorf("Weight = %v, want 4", out.Postings[0].Weight)
	}
}

func TestAdj_NoMatchBeyondDistance(t *testing.T) {
	a := pl(false, TermRegular, post(1, 5, 1))
	b := pl(false, TermRegular, post(1, 10, 1))
	out, err := Adj(a, b, 1, Relaxed, DefaultProximityFactor)
	if err != nil {
		t.Fatalf("Adj returned error: %v", err)
	}
	if len(out.Postings) != 0 {
		t.Errorf("expected no match, got %+v", out.Postings)
	}
}

func TestNear_RejectsZeroDistance(t *testing.T) {
	a := pl(false, TermRegular, post(1, 1, 1))
	b := pl(false, TermRegular, post(1, 2, 1))
	if _, err := Near(a, b, 0, false, Relaxed, DefaultProximityFactor); err != ErrInvalidTermDistance {
		t.Errorf("Near(d=0) error = %v, want ErrInvalidTermDistance", err)
	}
}

func TestNear_UnorderedWithinDistance(t *testing.T) {
	a := pl(false, TermRegular, post(1, 10, 1))
	b := pl(false, TermRegular, post(1, 8, 1))
	out, err := Near(a, b, 3, false, Relaxed, 1.0)
	if err != nil {
		t.Fatalf("Near returned error: %v", err)
	}
	if len(out.Postings) != 1 {
		t.Fatalf("expected 1 proximity match within distance 3, got %d", len(out.Postings))
	}
}

func TestNear_OrderedRejectsWrongDirection(t *testing.T) {
	// ordered with positive d requires A before B; here B is first.
	a := pl(false, TermRegular, post(1, 10, 1))
	b := pl(false, TermRegular, post(1, 8, 1))
	out, err := Near(a, b, 3, true, Relaxed, 1.0)
	if err != nil {
		t.Fatalf("Near returned error: %v", err)
	}
	if len(out.Postings) != 0 {
		t.Errorf("ordered Near should reject B-before-A when d > 0, got %+v", out.Postings)
	}
}

func TestNear_OrderedAcceptsCorrectDirection(t *testing.T) {
	a := pl(false, TermRegular, post(1, 8, 1))
	b := pl(false, TermRegular, post(1, 10, 1))
	out, err := Near(a, b, 3, true, Relaxed, 1.0)
	if err != nil {
		t.Fatalf("Near returned error: %v", err)
	}
	if len(out.Postings) != 1 {
		t.Errorf("ordered Near should accept A-before-B when d > 0, got %+v", out.Postings)
	}
}

// ═══════════════════════════════════════════════════════════════════════════════
// FINALIZE / EMPTY HELPERS
// ═══════════════════════════════════════════════════════════════════════════════

func TestFinalize_RecomputesCounts(t *testing.T) {
	p := &PostingList{Postings: []Posting{post(1, 1, 1), post(1, 2, 1), post(2, 1, 1)}}
	p.finalize()
	if p.TermCount != 3 {
		t.Errorf("TermCount = %d, want 3", p.TermCount)
	}
	if p.DocumentCount != 2 {
		t.Errorf("DocumentCount = %d, want 2", p.DocumentCount)
	}
}

func TestIsEmptyList_NilAndEmptyBothCount(t *testing.T) {
	if !isEmptyList(nil) {
		t.Error("nil should be treated as empty")
	}
	if !isEmptyList(emptyUnknown()) {
		t.Error("a list with no postings should be treated as empty")
	}
	if isEmptyList(pl(false, TermRegular, post(1, 1, 1))) {
		t.Error("a list with postings should not be treated as empty")
	}
}
