package ferret

import (
	"strings"
	"testing"
)

func newBuildIndex(t *testing.T) *Index {
	t.Helper()
	idx, err := OpenIndex(t.TempDir(), IntentBuild, DefaultIndexOptions())
	if err != nil {
		t.Fatalf("OpenIndex: %v", err)
	}
	t.Cleanup(func() { idx.Close() })
	return idx
}

// ═══════════════════════════════════════════════════════════════════════════════
// STREAM GRAMMAR TESTS
// ═══════════════════════════════════════════════════════════════════════════════

func TestIndexer_Feed_BasicDocument(t *testing.T) {
	idx := newBuildIndex(t)
	ix := NewIndexer(idx)

	stream := strings.Join([]string{
		"V 1 0",
		"F title 1 text",
		"S title",
		"K doc-1",
		"T quick 0 1",
		"T fox 1 1",
		"E",
		"Z",
	}, "\n") + "\n"

	if err := ix.Feed(strings.NewReader(stream)); err != nil {
		t.Fatalf("Feed: %v", err)
	}

	pl, err := idx.PostingListFor("quick", 0)
	if err != nil {
		t.Fatalf("PostingListFor(quick): %v", err)
	}
	if len(pl.Postings) != 1 {
		t.Errorf("expected 1 posting for 'quick', got %d", len(pl.Postings))
	}
}

func TestIndexer_Feed_RejectsNonContiguousFieldIDs(t *testing.T) {
	idx := newBuildIndex(t)
	ix := NewIndexer(idx)

	stream := "V 1 0\nF title 1 text\nF body 3 text\n"
	err := ix.Feed(strings.NewReader(stream))
	if err != ErrFieldIDsNotContiguous {
		t.Errorf("error = %v, want ErrFieldIDsNotContiguous", err)
	}
}

func TestIndexer_Feed_RejectsUnknownSearchField(t *testing.T) {
	idx := newBuildIndex(t)
	ix := NewIndexer(idx)

	stream := "V 1 0\nF title 1 text\nS body\n"
	err := ix.Feed(strings.NewReader(stream))
	if err == nil {
		t.Fatal("expected an error for unknown search field name")
	}
}

func TestIndexer_Feed_RejectsDocumentEndWithoutKey(t *testing.T) {
	idx := newBuildIndex(t)
	ix := NewIndexer(idx)

	stream := "V 1 0\nF title 1 text\nT quick 0 1\nE\n"
	err := ix.Feed(strings.NewReader(stream))
	if err != ErrInvalidDocumentKeyTag {
		t.Errorf("error = %v, want ErrInvalidDocumentKeyTag", err)
	}
}

// ═══════════════════════════════════════════════════════════════════════════════
// PER-FIELD ANALYZER OPTION TESTS
// ═══════════════════════════════════════════════════════════════════════════════

func TestIndexer_TagTerm_NostemFieldKeepsTermUnstemmed(t *testing.T) {
	idx := newBuildIndex(t)
	ix := NewIndexer(idx)

	stream := strings.Join([]string{
		"V 1 0",
		"F author 1 text nostem",
		"K doc-1",
		"T running 0 1",
		"E",
		"Z",
	}, "\n") + "\n"
	if err := ix.Feed(strings.NewReader(stream)); err != nil {
		t.Fatalf("Feed: %v", err)
	}

	if _, err := idx.Terms.Lookup("running"); err != nil {
		t.Errorf("expected unstemmed 'running' in dictionary for a nostem field, lookup failed: %v", err)
	}
}

func TestIndexer_TagTerm_DefaultFieldStemsTerm(t *testing.T) {
	idx := newBuildIndex(t)
	ix := NewIndexer(idx)

	stream := strings.Join([]string{
		"V 1 0",
		"F body 1 text",
		"K doc-1",
		"T running 0 1",
		"E",
		"Z",
	}, "\n") + "\n"
	if err := ix.Feed(strings.NewReader(stream)); err != nil {
		t.Fatalf("Feed: %v", err)
	}

	if _, err := idx.Terms.Lookup("running"); err == nil {
		t.Error("expected 'running' to be stemmed away for a default (stemming-enabled) field")
	}
	if _, err := idx.Terms.Lookup("run"); err != nil {
		t.Errorf("expected stemmed term 'run' in dictionary, lookup failed: %v", err)
	}
}

func TestAnalyzerConfigForField_NilFieldReturnsDefault(t *testing.T) {
	cfg := AnalyzerConfigForField(nil)
	if cfg != DefaultConfig() {
		t.Errorf("AnalyzerConfigForField(nil) = %+v, want DefaultConfig()", cfg)
	}
}

func TestAnalyzerConfigForField_ParsesMinLen(t *testing.T) {
	fd := &FieldDef{Opts: []string{"minlen=5"}}
	cfg := AnalyzerConfigForField(fd)
	if cfg.MinTokenLength != 5 {
		t.Errorf("MinTokenLength = %d, want 5", cfg.MinTokenLength)
	}
}

// ═══════════════════════════════════════════════════════════════════════════════
// POSTING WEIGHT ENCODING TESTS
// ═══════════════════════════════════════════════════════════════════════════════

func TestEncodeDecodePostings_PreservesFractionalWeight(t *testing.T) {
	original := []Posting{
		{DocID: 1, TermPos: 0, Weight: 0.3333333},
		{DocID: 4, TermPos: 2, Weight: 9.0},
	}
	data := encodePostings(original)
	decoded, err := decodePostings(data)
	if err != nil {
		t.Fatalf("decodePostings: %v", err)
	}
	if len(decoded) != len(original) {
		t.Fatalf("got %d postings, want %d", len(decoded), len(original))
	}
	for i := range original {
		if decoded[i] != original[i] {
			t.Errorf("posting %d = %+v, want %+v", i, decoded[i], original[i])
		}
	}
}
