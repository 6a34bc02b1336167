// Wildcard match mode: `*` (multi-char), `?` (single-char), `@` (single
// alpha char), `%` (single numeric char). The scan seed is the longest
// leading literal run in the pattern; a wildcard at position 0 falls
// back to scanning the dictionary from the start (the documented
// starting-wildcard performance caveat in §4.5).

package ferret

import (
	"unicode"

	"github.com/bits-and-blooms/bitset"
)

type wildcardSegKind int

const (
	segLiteral wildcardSegKind = iota
	segMultiStar
	segSingleAny
	segSingleAlpha
	segSingleNumeric
)

type wildcardSeg struct {
	kind wildcardSegKind
	lit  string // valid when kind == segLiteral
}

func compileWildcard(pattern string) []wildcardSeg {
	var segs []wildcardSeg
	var lit []rune
	flushLit := func() {
		if len(lit) > 0 {
			segs = append(segs, wildcardSeg{kind: segLiteral, lit: string(lit)})
			lit = nil
		}
	}
	for _, r := range pattern {
		switch r {
		case '*':
			flushLit()
			segs = append(segs, wildcardSeg{kind: segMultiStar})
		case '?':
			flushLit()
			segs = append(segs, wildcardSeg{kind: segSingleAny})
		case '@':
			flushLit()
			segs = append(segs, wildcardSeg{kind: segSingleAlpha})
		case '%':
			flushLit()
			segs = append(segs, wildcardSeg{kind: segSingleNumeric})
		default:
			lit = append(lit, r)
		}
	}
	flushLit()
	return segs
}

// leadingLiteral returns the fixed prefix a wildcard pattern begins
// with, i.e. the longest leading literal run.
func leadingLiteral(segs []wildcardSeg) string {
	if len(segs) > 0 && segs[0].kind == segLiteral {
		return segs[0].lit
	}
	return ""
}

// matchWildcardSegs reports whether key matches the compiled pattern.
func matchWildcardSegs(key string, segs []wildcardSeg) bool {
	return wildcardMatch([]rune(key), segs)
}

func wildcardMatch(key []rune, segs []wildcardSeg) bool {
	if len(segs) == 0 {
		return len(key) == 0
	}
	seg := segs[0]
	switch seg.kind {
	case segLiteral:
		lit := []rune(seg.lit)
		if len(key) < len(lit) {
			return false
		}
		for i, r := range lit {
			if key[i] != r {
				return false
			}
		}
		return wildcardMatch(key[len(lit):], segs[1:])
	case segSingleAny:
		if len(key) < 1 {
			return false
		}
		return wildcardMatch(key[1:], segs[1:])
	case segSingleAlpha:
		if len(key) < 1 || !unicode.IsLetter(key[0]) {
			return false
		}
		return wildcardMatch(key[1:], segs[1:])
	case segSingleNumeric:
		if len(key) < 1 || !unicode.IsDigit(key[0]) {
			return false
		}
		return wildcardMatch(key[1:], segs[1:])
	case segMultiStar:
		// Try every possible consumption length, shortest first.
		for n := 0; n <= len(key); n++ {
			if wildcardMatch(key[n:], segs[1:]) {
				return true
			}
		}
		return false
	}
	return false
}

func matchWildcard(dict *TermDictionary, term string, fieldFilter *bitset.BitSet, policy MatcherPolicy) ([]TermInfo, error) {
	segs := compileWildcard(term)
	if len(segs) > 0 && segs[0].kind != segLiteral && !policy.EnableStartingWildcard {
		return nil, ErrBadWildcard
	}
	prefix := leadingLiteral(segs)

	var results []TermInfo
	err := dict.ScanFrom(prefix, func(key string, rec *TermRecord) error {
		if prefix != "" && !hasPrefixRune(key, prefix) {
			return ScanStop
		}
		if matchWildcardSegs(key, segs) && fieldAllowed(fieldFilter, rec.FieldIDs) {
			results = append(results, TermInfo{Term: key, Type: rec.Type, TermCount: rec.TermCount, DocumentCount: rec.DocumentCount})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

func hasPrefixRune(s, prefix string) bool {
	if len(s) < len(prefix) {
		return false
	}
	return s[:len(prefix)] == prefix
}
