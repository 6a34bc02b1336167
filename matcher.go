// Term matcher: the public §4.5 entry point. Given a query term, a match
// mode, an optional field-ID bitmap filter, and (for range modes) a
// comparator, Match scans the term dictionary and returns every matching
// TermInfo.
//
// Grounded on original_source/src/search/termdict.c's match-type
// constants and its "derive a scan seed from the query, then apply a
// per-key decision function" architecture — this file owns that
// architecture; matcher_wildcard.go, matcher_phonetic.go,
// matcher_typo.go and matcher_range.go own the per-mode decision logic.

package ferret

import (
	"errors"

	"github.com/bits-and-blooms/bitset"
)

// MatchMode selects one of the §4.5 dictionary scan strategies.
type MatchMode int

const (
	MatchRegular MatchMode = iota
	MatchStop
	MatchWildcard
	MatchSoundex
	MatchPhonix
	MatchMetaphone
	MatchTypo
	MatchRegex
	MatchRangeAlpha
	MatchRangeNumeric
)

// RangeComparator is one of the §4.5 range-mode comparison operators.
type RangeComparator int

const (
	CmpEqual RangeComparator = iota
	CmpNotEqual
	CmpLess
	CmpLessEqual
	CmpGreater
	CmpGreaterEqual
	CmpRange // inclusive [start, end]
)

// ErrBadRange is returned for an invalid range query: end < start, mixed
// case in an alpha range, or a range[a-b] form paired with a
// non-equality comparator.
var ErrBadRange = errors.New("matcher: bad range")

// ErrBadWildcard is returned when starting-wildcard is disabled by
// policy but the query term begins with a wildcard character.
var ErrBadWildcard = errors.New("matcher: starting wildcard disallowed by policy")

// TermInfo consolidates one matching dictionary key for the caller.
type TermInfo struct {
	Term          string
	Type          TermType
	TermCount     uint64
	DocumentCount uint64
}

// MatcherPolicy carries the build-time wildcard/match-mode enable flags
// an embedder configures via IndexOptions.
type MatcherPolicy struct {
	EnableStartingWildcard bool
	EnableMultiWildcard    bool
	EnableSingleWildcard   bool
	EnableAlphaWildcard    bool
	EnableNumericWildcard  bool
}

// DefaultMatcherPolicy enables every wildcard form, matching the core's
// baseline behavior per §4.5 ("Starting-wildcard is the baseline behavior
// of the core; disabling it is a build-time policy flag").
func DefaultMatcherPolicy() MatcherPolicy {
	return MatcherPolicy{true, true, true, true, true}
}

// casePolicy classifies the first character of a query term into the
// scan character class §4.5 mandates.
type casePolicy int

const (
	caseNumeric casePolicy = iota
	caseUpper
	caseLower
	caseHigh
)

func classifyCase(r rune) casePolicy {
	switch {
	case r >= '0' && r <= '9':
		return caseNumeric
	case r >= 'A' && r <= 'Z':
		return caseUpper
	case r >= 'a' && r <= 'z':
		return caseLower
	default:
		return caseHigh
	}
}

// Match scans dict for every key matching term under mode, restricted
// (when fieldFilter is non-nil) to terms occurring in at least one of
// the bitmap's selected fields, per §3 invariant 5.
func Match(dict *TermDictionary, term string, mode MatchMode, fieldFilter *bitset.BitSet, cmp RangeComparator) ([]TermInfo, error) {
	switch mode {
	case MatchRegular, MatchStop:
		return matchExact(dict, term, mode, fieldFilter)
	case MatchWildcard:
		return matchWildcard(dict, term, fieldFilter, DefaultMatcherPolicy())
	case MatchSoundex, MatchPhonix, MatchMetaphone:
		return matchPhonetic(dict, term, mode, fieldFilter)
	case MatchTypo:
		return matchTypo(dict, term, fieldFilter)
	case MatchRegex:
		return matchRegex(dict, term, fieldFilter)
	case MatchRangeAlpha:
		return matchRangeAlpha(dict, term, cmp, fieldFilter)
	case MatchRangeNumeric:
		return matchRangeNumeric(dict, term, cmp, fieldFilter)
	default:
		return nil, ErrTermNotFound
	}
}

func fieldAllowed(fieldFilter *bitset.BitSet, fieldIDs []uint32) bool {
	if fieldFilter == nil {
		return true
	}
	if len(fieldIDs) == 0 {
		// No explicit field list means "default field only"; treat bit 0
		// (field ID 1) as the default field per §3 invariant 5.
		return fieldFilter.Test(0)
	}
	for _, id := range fieldIDs {
		if id > 0 && fieldFilter.Test(uint(id - 1)) {
			return true
		}
	}
	return false
}

func matchExact(dict *TermDictionary, term string, mode MatchMode, fieldFilter *bitset.BitSet) ([]TermInfo, error) {
	rec, err := dict.Lookup(term)
	if err != nil {
		return nil, ErrTermNotFound
	}
	wantType := TermRegular
	if mode == MatchStop {
		wantType = TermStop
	}
	if rec.Type != wantType {
		return nil, ErrTermNotFound
	}
	if !fieldAllowed(fieldFilter, rec.FieldIDs) {
		return nil, ErrTermDoesNotOccur
	}
	return []TermInfo{{Term: term, Type: rec.Type, TermCount: rec.TermCount, DocumentCount: rec.DocumentCount}}, nil
}
