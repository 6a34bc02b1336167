// Short-result engine: sort and splice over the flat per-document result
// array a query produces after posting-list algebra. Sort-method
// selection follows §4.7 exactly: string keys always quicksort; numeric
// keys over 1,000,000 results always use radix; between 100,000 and
// 1,000,000 a one-pass Pearson correlation test against doc_id decides;
// below 100,000 always quicksort.
//
// Grounded on original_source/src/search/shortrslt.c, whose thresholds
// (1,000,000 / 100,000 / 0.5) and sort-method IDs this file mirrors
// exactly.

package ferret

import (
	"errors"
	"math"
	"sort"
)

// ErrInvalidSortOrder is returned for an unrecognized SortType.
var ErrInvalidSortOrder = errors.New("shortresult: invalid sort order")

// ErrInvalidIndices is returned by Splice when start > end.
var ErrInvalidIndices = errors.New("shortresult: invalid splice indices")

// SortType selects the sort key type and direction.
type SortType int

const (
	SortNone SortType = iota
	SortDoubleAsc
	SortDoubleDesc
	SortFloatAsc
	SortFloatDesc
	SortU32Asc
	SortU32Desc
	SortU64Asc
	SortU64Desc
	SortStringAsc
	SortStringDesc
)

func (st SortType) valid() bool {
	return st >= SortNone && st <= SortStringDesc
}

func (st SortType) isString() bool {
	return st == SortStringAsc || st == SortStringDesc
}

func (st SortType) descending() bool {
	switch st {
	case SortDoubleDesc, SortFloatDesc, SortU32Desc, SortU64Desc, SortStringDesc:
		return true
	}
	return false
}

// ShortResult is a reduced per-document tuple: doc_id, an opaque
// reference back into the full result (e.g. a posting index), and one
// sort key. Only the field matching the list's SortType is meaningful.
type ShortResult struct {
	DocID    uint32
	IndexRef uint64
	F64      float64
	F32      float32
	U32      uint32
	U64      uint64
	Str      string
}

// ShortResultList owns its results, including any string sort keys.
type ShortResultList struct {
	SortType SortType
	Results  []ShortResult
}

const (
	radixThreshold       = 1_000_000
	correlationThreshold = 100_000
	correlationRThreshold = 0.5
)

// Sort orders Results per SortType, selecting quicksort or radix
// following §4.7's selection policy. n < 2 is a documented no-op.
func (srl *ShortResultList) Sort() error {
	if !srl.SortType.valid() {
		return ErrInvalidSortOrder
	}
	n := len(srl.Results)
	if n < 2 || srl.SortType == SortNone {
		return nil
	}
	if srl.SortType.isString() {
		quicksortShortResults(srl.Results, srl.SortType)
		return nil
	}
	useRadix := false
	switch {
	case n > radixThreshold:
		useRadix = true
	case n > correlationThreshold:
		r, ok := pearsonDocIDVsSortKey(srl.Results, srl.SortType)
		useRadix = ok && math.Abs(r) >= correlationRThreshold
	}
	if useRadix {
		radixSortShortResults(srl.Results, srl.SortType)
	} else {
		quicksortShortResults(srl.Results, srl.SortType)
	}
	return nil
}

// Splice compacts the inclusive [start, end] window into positions
// [0, end-start], releasing string sort keys that fall outside the
// window and resizing Results. Per §9(c), string keys are always
// released unconditionally at drop, not only during splice.
func (srl *ShortResultList) Splice(start, end int) error {
	if start > end {
		return ErrInvalidIndices
	}
	n := len(srl.Results)
	if n == 0 {
		return nil
	}
	if end >= n {
		end = n - 1
	}
	if start >= n {
		srl.Results = srl.Results[:0]
		return nil
	}
	window := append([]ShortResult(nil), srl.Results[start:end+1]...)
	srl.Results = window
	return nil
}

// Release drops every string sort key this list owns, per §9(c)'s
// "free unconditionally at drop".
func (srl *ShortResultList) Release() {
	for i := range srl.Results {
		srl.Results[i].Str = ""
	}
	srl.Results = nil
}

func sortKeyLess(a, b ShortResult, st SortType) bool {
	switch st {
	case SortDoubleAsc, SortDoubleDesc:
		return a.F64 < b.F64
	case SortFloatAsc, SortFloatDesc:
		return a.F32 < b.F32
	case SortU32Asc, SortU32Desc:
		return a.U32 < b.U32
	case SortU64Asc, SortU64Desc:
		return a.U64 < b.U64
	case SortStringAsc, SortStringDesc:
		return a.Str < b.Str
	}
	return false
}

func quicksortShortResults(results []ShortResult, st SortType) {
	desc := st.descending()
	sort.Slice(results, func(i, j int) bool {
		if desc {
			return sortKeyLess(results[j], results[i], st)
		}
		return sortKeyLess(results[i], results[j], st)
	})
}

// pearsonDocIDVsSortKey computes the Pearson correlation coefficient
// between doc_id and the numeric sort key in one Welford-style pass.
// ok is false if the sort key is degenerate (zero variance).
func pearsonDocIDVsSortKey(results []ShortResult, st SortType) (r float64, ok bool) {
	var n float64
	var meanX, meanY, m2X, m2Y, c float64
	for _, res := range results {
		x := float64(res.DocID)
		y := sortKeyAsFloat(res, st)
		n++
		dx := x - meanX
		meanX += dx / n
		dy := y - meanY
		meanY += dy / n
		m2X += dx * (x - meanX)
		m2Y += dy * (y - meanY)
		c += dx * (y - meanY)
	}
	if n < 2 || m2X == 0 || m2Y == 0 {
		return 0, false
	}
	return c / math.Sqrt(m2X*m2Y), true
}

func sortKeyAsFloat(r ShortResult, st SortType) float64 {
	switch st {
	case SortDoubleAsc, SortDoubleDesc:
		return r.F64
	case SortFloatAsc, SortFloatDesc:
		return float64(r.F32)
	case SortU32Asc, SortU32Desc:
		return float64(r.U32)
	case SortU64Asc, SortU64Desc:
		return float64(r.U64)
	}
	return 0
}

// radixSortShortResults performs an LSB-first per-byte counting sort
// over the native bit representation of the numeric sort key, with an
// early-exit "skip-byte" test when a byte's histogram has a single
// non-zero bucket equal to len(results). Negative floats are explicitly
// out of scope per §9(b): callers must offset scores to be non-negative
// before sorting with SortDoubleAsc/Desc or SortFloatAsc/Desc.
func radixSortShortResults(results []ShortResult, st SortType) {
	n := len(results)
	if n < 2 {
		return
	}
	keys := make([]uint64, n)
	width := 8
	switch st {
	case SortU32Asc, SortU32Desc:
		width = 4
		for i, r := range results {
			keys[i] = uint64(r.U32)
		}
	case SortU64Asc, SortU64Desc:
		width = 8
		for i, r := range results {
			keys[i] = r.U64
		}
	case SortFloatAsc, SortFloatDesc:
		width = 4
		for i, r := range results {
			keys[i] = uint64(math.Float32bits(r.F32))
		}
	case SortDoubleAsc, SortDoubleDesc:
		width = 8
		for i, r := range results {
			keys[i] = math.Float64bits(r.F64)
		}
	}

	a := make([]ShortResult, n)
	b := make([]ShortResult, n)
	ak := make([]uint64, n)
	bk := make([]uint64, n)
	copy(a, results)
	copy(ak, keys)

	var hist [256]int
	for byteIdx := 0; byteIdx < width; byteIdx++ {
		shift := uint(byteIdx * 8)
		for i := range hist {
			hist[i] = 0
		}
		for _, k := range ak {
			hist[(k>>shift)&0xFF]++
		}
		if hist[(ak[0]>>shift)&0xFF] == n {
			continue // skip-byte: every key shares this byte
		}
		var offsets [256]int
		sum := 0
		if !st.descending() {
			for i := 0; i < 256; i++ {
				offsets[i] = sum
				sum += hist[i]
			}
		} else {
			for i := 255; i >= 0; i-- {
				offsets[i] = sum
				sum += hist[i]
			}
		}
		for i, k := range ak {
			bucket := (k >> shift) & 0xFF
			pos := offsets[bucket]
			offsets[bucket]++
			b[pos] = a[i]
			bk[pos] = k
		}
		a, b = b, a
		ak, bk = bk, ak
	}
	copy(results, a)
}
