// Phonetic match modes: Soundex, Phonix, Metaphone. Each transforms a
// key to a phonetic code; a query matches every dictionary key whose
// code equals the query's code. No phonetic-algorithm library appears
// anywhere in the retrieved example pack, so these closed-form
// character transforms are implemented directly per their public
// algorithm definitions (see DESIGN.md's stdlib justification for H).

package ferret

import (
	"strings"
	"unicode"

	"github.com/bits-and-blooms/bitset"
)

func matchPhonetic(dict *TermDictionary, term string, mode MatchMode, fieldFilter *bitset.BitSet) ([]TermInfo, error) {
	var transform func(string) string
	switch mode {
	case MatchSoundex:
		transform = soundex
	case MatchPhonix:
		transform = phonix
	case MatchMetaphone:
		transform = metaphone
	default:
		return nil, ErrTermNotFound
	}
	queryCode := transform(term)

	var results []TermInfo
	err := dict.ScanFrom("", func(key string, rec *TermRecord) error {
		if transform(key) == queryCode && fieldAllowed(fieldFilter, rec.FieldIDs) {
			results = append(results, TermInfo{Term: key, Type: rec.Type, TermCount: rec.TermCount, DocumentCount: rec.DocumentCount})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

var soundexCode = map[byte]byte{
	'b': '1', 'f': '1', 'p': '1', 'v': '1',
	'c': '2', 'g': '2', 'j': '2', 'k': '2', 'q': '2', 's': '2', 'x': '2', 'z': '2',
	'd': '3', 't': '3',
	'l': '4',
	'm': '5', 'n': '5',
	'r': '6',
}

// soundex implements the standard four-character Soundex code.
func soundex(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}
	var out []byte
	first := s[0]
	out = append(out, byte(unicode.ToUpper(rune(first))))
	lastCode := soundexCode[first]
	for i := 1; i < len(s) && len(out) < 4; i++ {
		c := s[i]
		code, has := soundexCode[c]
		if has && code != lastCode {
			out = append(out, code)
		}
		if c != 'h' && c != 'w' {
			lastCode = code
		}
	}
	for len(out) < 4 {
		out = append(out, '0')
	}
	return string(out)
}

// phonix is a lighter-weight phonetic transform used by the original
// indexer alongside Soundex: a Soundex-style digit code but without the
// fixed four-character truncation, trading precision for recall on
// longer terms.
func phonix(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}
	var out []byte
	out = append(out, byte(unicode.ToUpper(rune(s[0]))))
	lastCode := soundexCode[s[0]]
	for i := 1; i < len(s); i++ {
		c := s[i]
		code, has := soundexCode[c]
		if has && code != lastCode {
			out = append(out, code)
		}
		if c != 'h' && c != 'w' {
			lastCode = code
		}
	}
	return string(out)
}

// metaphone is a small, simplified Metaphone transform: it collapses the
// classic digraphs (ph, gh, ck, wr, kn, gn), then drops vowels after the
// first letter, drops an 'h' right after a kept vowel, and skips a letter
// equal to the previously kept one. Other consonants are kept as letters;
// no Soundex-style classes are applied.
func metaphone(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer(
		"ph", "f",
		"gh", "f",
		"ck", "k",
		"wr", "r",
		"kn", "n",
		"gn", "n",
	).Replace(s)
	var out []byte
	var prev byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == 'h' && i > 0 && isVowel(prev) {
			continue
		}
		if isVowel(c) && i != 0 {
			continue
		}
		if c == prev {
			continue
		}
		out = append(out, c)
		prev = c
	}
	return strings.ToUpper(string(out))
}

func isVowel(c byte) bool {
	switch c {
	case 'a', 'e', 'i', 'o', 'u':
		return true
	}
	return false
}
