// Query-time glue: resolves a term through the dictionary (E) and
// index-data store into the PostingList the algebra (G) operates on.
// This is the thin seam between Match (H) and Or/And/Adj/... (G).

package ferret

// PostingListFor resolves term to its posting list via the term
// dictionary and index-data store. It returns ErrTermNotFound when the
// term is not in the dictionary, or the index-data read/decode error;
// mode is not consulted.
func (idx *Index) PostingListFor(term string, mode MatchMode) (*PostingList, error) {
	rec, err := idx.Terms.Lookup(term)
	if err != nil {
		return nil, ErrTermNotFound
	}
	data, err := idx.IndexData.Read(rec.IndexBlockID)
	if err != nil {
		return nil, err
	}
	postings, err := decodePostings(data)
	if err != nil {
		return nil, err
	}
	return &PostingList{
		Type:          rec.Type,
		TermCount:     rec.TermCount,
		DocumentCount: rec.DocumentCount,
		Postings:      postings,
	}, nil
}
