// Regex match mode: compile once, execute per dictionary key. Uses
// regexp2 rather than stdlib regexp since it supports the richer,
// backtracking-capable construct set the original engine's regex
// matcher exposed (the pack's search/crawler blueprints reach for
// regexp2 for the same reason when a Perl-flavored pattern is needed).

package ferret

import (
	"fmt"

	"github.com/bits-and-blooms/bitset"
	"github.com/dlclark/regexp2"
)

// ErrRegexCompile is returned when a regex pattern fails to compile.
var ErrRegexCompile = fmt.Errorf("matcher: regex compile failed")

func matchRegex(dict *TermDictionary, pattern string, fieldFilter *bitset.BitSet) ([]TermInfo, error) {
	re, err := regexp2.Compile(pattern, regexp2.None)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRegexCompile, err)
	}

	scanSeed := firstLiteralChar(pattern)
	var results []TermInfo
	err = dict.ScanFrom(scanSeed, func(key string, rec *TermRecord) error {
		matched, merr := re.MatchString(key)
		if merr != nil {
			return nil
		}
		if matched && fieldAllowed(fieldFilter, rec.FieldIDs) {
			results = append(results, TermInfo{Term: key, Type: rec.Type, TermCount: rec.TermCount, DocumentCount: rec.DocumentCount})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// firstLiteralChar returns the first character of pattern that is not a
// regex metacharacter, used as the scan seed per §4.5's "scan spans
// character class from first literal character of pattern".
func firstLiteralChar(pattern string) string {
	const meta = `.*+?()[]{}|^$\`
	for _, r := range pattern {
		isMeta := false
		for _, m := range meta {
			if r == m {
				isMeta = true
				break
			}
		}
		if !isMeta {
			return string(r)
		}
	}
	return ""
}
