// Typo match mode: accepts dictionary keys within a single edit
// (insertion, deletion, substitution, or adjacent transposition) of the
// query term. Comparison is always case-sensitive. Bounded to
// max_typos=1 per §4.5.

package ferret

import (
	"github.com/bits-and-blooms/bitset"
)

func matchTypo(dict *TermDictionary, term string, fieldFilter *bitset.BitSet) ([]TermInfo, error) {
	var results []TermInfo
	err := dict.ScanFrom("", func(key string, rec *TermRecord) error {
		if withinOneEdit(key, term) && fieldAllowed(fieldFilter, rec.FieldIDs) {
			results = append(results, TermInfo{Term: key, Type: rec.Type, TermCount: rec.TermCount, DocumentCount: rec.DocumentCount})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// withinOneEdit reports whether a and b differ by at most one
// insertion, deletion, substitution, or adjacent transposition —
// computed directly rather than via a full edit-distance matrix, since
// we only ever need to know "<=1 or not".
func withinOneEdit(a, b string) bool {
	if a == b {
		return true
	}
	ar, br := []rune(a), []rune(b)
	if abs(len(ar)-len(br)) > 1 {
		return false
	}
	if len(ar) == len(br) {
		diff := 0
		for i := range ar {
			if ar[i] != br[i] {
				diff++
				if diff > 2 {
					return false
				}
			}
		}
		if diff <= 1 {
			return true
		}
		// check adjacent transposition
		for i := 0; i+1 < len(ar); i++ {
			if ar[i] == br[i+1] && ar[i+1] == br[i] && equalExcept(ar, br, i, i+1) {
				return true
			}
		}
		return false
	}
	// lengths differ by exactly one: check single insertion/deletion
	longer, shorter := ar, br
	if len(ar) < len(br) {
		longer, shorter = br, ar
	}
	i, j, skipped := 0, 0, false
	for i < len(longer) && j < len(shorter) {
		if longer[i] == shorter[j] {
			i++
			j++
			continue
		}
		if skipped {
			return false
		}
		skipped = true
		i++
	}
	return true
}

func equalExcept(a, b []rune, i, j int) bool {
	for k := range a {
		if k == i || k == j {
			continue
		}
		if a[k] != b[k] {
			return false
		}
	}
	return true
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
