package ferret

import "testing"

func samplePositions() []Position {
	return []Position{
		{DocumentID: 1, Offset: 5},
		{DocumentID: 1, Offset: 2},
		{DocumentID: 3, Offset: 0},
		{DocumentID: 2, Offset: 9},
	}
}

func TestSkipList_InsertFind(t *testing.T) {
	sl := NewSkipList()
	for _, p := range samplePositions() {
		sl.Insert(p)
	}

	got, err := sl.Find(Position{DocumentID: 2, Offset: 9})
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if got.DocumentID != 2 || got.Offset != 9 {
		t.Errorf("Find = %+v, want Doc2:Pos9", got)
	}

	if _, err := sl.Find(Position{DocumentID: 9, Offset: 9}); err != ErrKeyNotFound {
		t.Errorf("Find(missing) error = %v, want ErrKeyNotFound", err)
	}
}

func TestSkipList_OrdersByDocumentThenOffset(t *testing.T) {
	sl := NewSkipList()
	for _, p := range samplePositions() {
		sl.Insert(p)
	}

	// Doc1:Pos2 < Doc1:Pos5 < Doc2:Pos9 < Doc3:Pos0
	want := []Position{
		{DocumentID: 1, Offset: 2},
		{DocumentID: 1, Offset: 5},
		{DocumentID: 2, Offset: 9},
		{DocumentID: 3, Offset: 0},
	}

	it := sl.Iterator()
	var got []Position
	for it.HasNext() {
		got = append(got, it.Next())
	}
	if len(got) != len(want) {
		t.Fatalf("iterated %d positions, want %d", len(got), len(want))
	}
	for i := range want {
		if !got[i].Equals(want[i]) {
			t.Errorf("position %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestSkipList_IteratorVisitsFirstElement(t *testing.T) {
	sl := NewSkipList()
	sl.Insert(Position{DocumentID: 1, Offset: 0})

	it := sl.Iterator()
	if !it.HasNext() {
		t.Fatal("HasNext() = false on a single-element list, want true")
	}
	got := it.Next()
	if got.DocumentID != 1 || got.Offset != 0 {
		t.Errorf("Next() = %+v, want Doc1:Pos0 (single-element list must yield its only entry)", got)
	}
	if it.HasNext() {
		t.Error("HasNext() = true after exhausting a single-element list")
	}
}

func TestSkipList_FindLessThanAndGreaterThan(t *testing.T) {
	sl := NewSkipList()
	for _, p := range samplePositions() {
		sl.Insert(p)
	}

	lt, err := sl.FindLessThan(Position{DocumentID: 2, Offset: 9})
	if err != nil {
		t.Fatalf("FindLessThan: %v", err)
	}
	if lt.DocumentID != 1 || lt.Offset != 5 {
		t.Errorf("FindLessThan(Doc2:Pos9) = %+v, want Doc1:Pos5", lt)
	}

	gt, err := sl.FindGreaterThan(Position{DocumentID: 1, Offset: 5})
	if err != nil {
		t.Fatalf("FindGreaterThan: %v", err)
	}
	if gt.DocumentID != 2 || gt.Offset != 9 {
		t.Errorf("FindGreaterThan(Doc1:Pos5) = %+v, want Doc2:Pos9", gt)
	}

	if _, err := sl.FindGreaterThan(sl.Last()); err != ErrNoElementFound {
		t.Errorf("FindGreaterThan(Last()) error = %v, want ErrNoElementFound", err)
	}
}

func TestSkipList_Delete(t *testing.T) {
	sl := NewSkipList()
	for _, p := range samplePositions() {
		sl.Insert(p)
	}

	if !sl.Delete(Position{DocumentID: 1, Offset: 5}) {
		t.Fatal("Delete(existing key) = false")
	}
	if _, err := sl.Find(Position{DocumentID: 1, Offset: 5}); err != ErrKeyNotFound {
		t.Error("deleted key still found")
	}
	if sl.Delete(Position{DocumentID: 1, Offset: 5}) {
		t.Error("Delete(already-removed key) = true")
	}
}

func TestSkipList_ToPostingsPreservesOrderAndWeight(t *testing.T) {
	sl := NewSkipList()
	sl.Insert(Position{DocumentID: 5, Offset: 1})
	sl.Insert(Position{DocumentID: 5, Offset: 3})
	sl.Insert(Position{DocumentID: 7, Offset: 0})

	postings := sl.ToPostings()
	want := []Posting{
		{DocID: 5, TermPos: 1, Weight: 1},
		{DocID: 5, TermPos: 3, Weight: 1},
		{DocID: 7, TermPos: 0, Weight: 1},
	}
	if len(postings) != len(want) {
		t.Fatalf("ToPostings returned %d postings, want %d", len(postings), len(want))
	}
	for i := range want {
		if postings[i] != want[i] {
			t.Errorf("posting %d = %+v, want %+v", i, postings[i], want[i])
		}
	}
}

func TestSkipList_EmptyListOperations(t *testing.T) {
	sl := NewSkipList()

	if postings := sl.ToPostings(); len(postings) != 0 {
		t.Errorf("ToPostings on empty list = %v, want empty", postings)
	}
	if _, err := sl.FindGreaterThan(BOFDocument); err != ErrNoElementFound {
		t.Errorf("FindGreaterThan(BOF) on empty list error = %v, want ErrNoElementFound", err)
	}
	it := sl.Iterator()
	if it.HasNext() {
		t.Error("HasNext() on empty list = true")
	}
}
