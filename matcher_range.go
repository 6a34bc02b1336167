// Range match modes: alpha and numeric, each supporting the comparator
// set {=, ≠, <, ≤, >, ≥} plus the inclusive `range[a-b]` form. term is
// parsed as either a single bound ("<=banana") or a `start-end` pair
// when cmp == CmpRange.

package ferret

import (
	"strconv"
	"strings"

	"github.com/bits-and-blooms/bitset"
)

func parseRangeBounds(term string, cmp RangeComparator) (start, end string, err error) {
	if cmp == CmpRange {
		parts := strings.SplitN(term, "-", 2)
		if len(parts) != 2 {
			return "", "", ErrBadRange
		}
		return parts[0], parts[1], nil
	}
	return term, "", nil
}

func matchRangeAlpha(dict *TermDictionary, term string, cmp RangeComparator, fieldFilter *bitset.BitSet) ([]TermInfo, error) {
	start, end, err := parseRangeBounds(term, cmp)
	if err != nil {
		return nil, err
	}
	if cmp == CmpRange {
		if end < start {
			return nil, ErrBadRange
		}
		if isUpper(start) != isUpper(end) {
			return nil, ErrBadRange
		}
	}

	prefix := ""
	if len(start) > 0 {
		prefix = start[:1]
	}
	var results []TermInfo
	err = dict.ScanFrom(prefix, func(key string, rec *TermRecord) error {
		if !alphaWithinScanWindow(key, start, end, cmp) {
			if cmp == CmpLess || cmp == CmpLessEqual {
				return nil
			}
			return ScanStop
		}
		if rangeMatchAlpha(key, start, end, cmp) && fieldAllowed(fieldFilter, rec.FieldIDs) {
			results = append(results, TermInfo{Term: key, Type: rec.Type, TermCount: rec.TermCount, DocumentCount: rec.DocumentCount})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// alphaWithinScanWindow bounds how far a scan needs to continue once
// keys sort past the upper bound of the requested range.
func alphaWithinScanWindow(key, start, end string, cmp RangeComparator) bool {
	if cmp == CmpRange {
		return key <= end
	}
	return true
}

func rangeMatchAlpha(key, start, end string, cmp RangeComparator) bool {
	switch cmp {
	case CmpEqual:
		return key == start
	case CmpNotEqual:
		return key != start
	case CmpLess:
		return key < start
	case CmpLessEqual:
		return key <= start
	case CmpGreater:
		return key > start
	case CmpGreaterEqual:
		return key >= start
	case CmpRange:
		return key >= start && key <= end
	}
	return false
}

func isUpper(s string) bool {
	for _, r := range s {
		if r >= 'a' && r <= 'z' {
			return false
		}
	}
	return true
}

func matchRangeNumeric(dict *TermDictionary, term string, cmp RangeComparator, fieldFilter *bitset.BitSet) ([]TermInfo, error) {
	start, end, err := parseRangeBounds(term, cmp)
	if err != nil {
		return nil, err
	}
	startN, err := strconv.ParseInt(start, 10, 64)
	if err != nil {
		return nil, ErrBadRange
	}
	var endN int64
	if cmp == CmpRange {
		endN, err = strconv.ParseInt(end, 10, 64)
		if err != nil || endN < startN {
			return nil, ErrBadRange
		}
	}

	prefix := "-"
	if startN >= 0 {
		prefix = ""
	}
	var results []TermInfo
	err = dict.ScanFrom(prefix, func(key string, rec *TermRecord) error {
		n, convErr := strconv.ParseInt(key, 10, 64)
		if convErr != nil {
			return nil // non-numeric keys are simply skipped, not a scan boundary
		}
		if rangeMatchNumeric(n, startN, endN, cmp) && fieldAllowed(fieldFilter, rec.FieldIDs) {
			results = append(results, TermInfo{Term: key, Type: rec.Type, TermCount: rec.TermCount, DocumentCount: rec.DocumentCount})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

func rangeMatchNumeric(n, start, end int64, cmp RangeComparator) bool {
	switch cmp {
	case CmpEqual:
		return n == start
	case CmpNotEqual:
		return n != start
	case CmpLess:
		return n < start
	case CmpLessEqual:
		return n <= start
	case CmpGreater:
		return n > start
	case CmpGreaterEqual:
		return n >= start
	case CmpRange:
		return n >= start && n <= end
	}
	return false
}
