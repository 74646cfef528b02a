package interval

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strconv"
	"strings"
)

// Operation names one column's aggregation over a reference's window.
type Operation int

const (
	OpCount Operation = iota
	OpIndicator
	OpBases
	OpBasesUniq
	OpBasesUniqF
	OpSum
	OpMean
	OpVariance
	OpStdev
	OpCV
	OpMedian
	OpMAD
	OpMin
	OpMax
	OpWMean
	OpTMean
	OpKth
	OpMinElement
	OpMaxElement
	OpMinElementRand
	OpMaxElementRand
	OpEchoRef
	OpEchoRefName
	OpEchoRefScore
	OpEchoRefSpan
	OpEchoRefLength
	OpEchoRefRowID
	OpEchoMap
	OpEchoMapID
	OpEchoMapIDUniq
	OpEchoMapScore
	OpEchoMapSize
	OpEchoMapRange
	OpEchoOverlapSize
)

// Column describes one output column: which Operation to compute, and
// whatever parameters it needs (mad's scale factor, tmean's trim bounds,
// kth's quantile).
type Column struct {
	Op         Operation
	Param      float64 // mad: k; kth: q
	Param2     float64 // tmean: upper trim bound (Param is the lower bound)
	Precision  int      // 0 means "shortest round-trippable representation"
	Scientific bool     // format floats in scientific notation (--sci)
}

// Value computes this column's formatted output for ref, at row rowID (the
// 0-based index of ref within the reference stream, used only by
// OpEchoRefRowID), against its currently settled window, joining any
// per-map-element values with multiValueDelim and substituting unmappedVal
// wherever the natural result is "no value" (an empty window, or a missing
// score) rather than a meaningful zero.
func (c Column) Value(ref *Record, window []*Record, multiValueDelim, unmappedVal string, rowID int) string {
	switch c.Op {
	case OpCount:
		return strconv.Itoa(len(window))
	case OpIndicator:
		if len(window) > 0 {
			return "1"
		}
		return "0"
	case OpBases:
		var total PosType
		for _, m := range window {
			total += ref.Overlap(m)
		}
		return strconv.FormatUint(uint64(total), 10)
	case OpBasesUniq:
		return strconv.FormatUint(uint64(basesUniq(ref, window)), 10)
	case OpBasesUniqF:
		refLen := ref.Length()
		if refLen == 0 {
			return c.formatFloat(math.NaN(), unmappedVal)
		}
		return c.formatFloat(float64(basesUniq(ref, window))/float64(refLen), unmappedVal)
	case OpSum:
		return c.formatFloat(sumScores(scoresOf(window)), unmappedVal)
	case OpMean:
		return c.formatFloat(meanScores(scoresOf(window)), unmappedVal)
	case OpVariance:
		return c.formatFloat(varianceScores(scoresOf(window)), unmappedVal)
	case OpStdev:
		return c.formatFloat(math.Sqrt(varianceScores(scoresOf(window))), unmappedVal)
	case OpCV:
		xs := scoresOf(window)
		m := meanScores(xs)
		if m == 0 {
			return c.formatFloat(math.NaN(), unmappedVal)
		}
		return c.formatFloat(math.Sqrt(varianceScores(xs))/m, unmappedVal)
	case OpMedian:
		return c.formatFloat(percentile(scoresOf(window), 0.5), unmappedVal)
	case OpMAD:
		return c.formatFloat(medianAbsoluteDeviation(scoresOf(window), c.Param), unmappedVal)
	case OpMin:
		return c.formatFloat(minScore(scoresOf(window)), unmappedVal)
	case OpMax:
		return c.formatFloat(maxScore(scoresOf(window)), unmappedVal)
	case OpWMean:
		return c.formatFloat(weightedMean(ref, window), unmappedVal)
	case OpTMean:
		return c.formatFloat(trimmedMean(scoresOf(window), c.Param, c.Param2), unmappedVal)
	case OpKth:
		return c.formatFloat(percentile(scoresOf(window), c.Param), unmappedVal)
	case OpMinElement:
		return echoElement(selectElement(window, false, false), unmappedVal)
	case OpMaxElement:
		return echoElement(selectElement(window, true, false), unmappedVal)
	case OpMinElementRand:
		return echoElement(selectElement(window, false, true), unmappedVal)
	case OpMaxElementRand:
		return echoElement(selectElement(window, true, true), unmappedVal)
	case OpEchoRef:
		return echoElement(ref, unmappedVal)
	case OpEchoRefName:
		return ref.ID
	case OpEchoRefScore:
		return c.formatFloat(ref.Score, unmappedVal)
	case OpEchoRefSpan:
		return fmt.Sprintf("%s:%d-%d", ref.Chrom, ref.Start, ref.End)
	case OpEchoRefLength:
		return strconv.FormatUint(uint64(ref.Length()), 10)
	case OpEchoRefRowID:
		return strconv.Itoa(rowID)
	case OpEchoMap:
		return joinMap(window, multiValueDelim, unmappedVal, func(m *Record) string { return echoElement(m, unmappedVal) })
	case OpEchoMapID:
		return joinMap(window, multiValueDelim, unmappedVal, func(m *Record) string { return m.ID })
	case OpEchoMapIDUniq:
		return joinMap(uniqByID(window), multiValueDelim, unmappedVal, func(m *Record) string { return m.ID })
	case OpEchoMapScore:
		return joinMap(window, multiValueDelim, unmappedVal, func(m *Record) string { return c.formatFloat(m.Score, unmappedVal) })
	case OpEchoMapSize:
		return joinMap(window, multiValueDelim, unmappedVal, func(m *Record) string { return strconv.FormatUint(uint64(m.Length()), 10) })
	case OpEchoMapRange:
		return joinMap(window, multiValueDelim, unmappedVal, func(m *Record) string {
			return fmt.Sprintf("%s:%d-%d", m.Chrom, m.Start, m.End)
		})
	case OpEchoOverlapSize:
		return joinMap(window, multiValueDelim, unmappedVal, func(m *Record) string {
			return strconv.FormatUint(uint64(ref.Overlap(m)), 10)
		})
	default:
		return ""
	}
}

func (c Column) formatFloat(v float64, unmappedVal string) string {
	if math.IsNaN(v) {
		return unmappedVal
	}
	if math.IsInf(v, 0) {
		if v > 0 {
			return "Inf"
		}
		return "-Inf"
	}
	if c.Precision > 0 {
		if c.Scientific {
			return strconv.FormatFloat(v, 'e', c.Precision, 64)
		}
		return strconv.FormatFloat(v, 'f', c.Precision, 64)
	}
	if c.Scientific {
		return strconv.FormatFloat(v, 'e', -1, 64)
	}
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func echoElement(r *Record, unmappedVal string) string {
	if r == nil {
		return unmappedVal
	}
	fields := []string{r.Chrom, strconv.FormatUint(uint64(r.Start), 10), strconv.FormatUint(uint64(r.End), 10)}
	if r.ID != "" {
		fields = append(fields, r.ID)
	}
	if r.HasScore() {
		fields = append(fields, strconv.FormatFloat(r.Score, 'g', -1, 64))
	}
	if r.Rest != "" {
		fields = append(fields, r.Rest)
	}
	return strings.Join(fields, "\t")
}

func joinMap(window []*Record, delim, unmappedVal string, field func(*Record) string) string {
	if len(window) == 0 {
		return unmappedVal
	}
	vals := make([]string, len(window))
	for i, m := range window {
		vals[i] = field(m)
	}
	return strings.Join(vals, delim)
}

// uniqByID returns window's elements deduplicated by ID and sorted by ID,
// for echo-map-id-uniq's "unique ids, set-sorted" contract.
func uniqByID(window []*Record) []*Record {
	seen := make(map[string]bool, len(window))
	var out []*Record
	for _, m := range window {
		if seen[m.ID] {
			continue
		}
		seen[m.ID] = true
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func scoresOf(window []*Record) []float64 {
	var xs []float64
	for _, m := range window {
		if m.HasScore() {
			xs = append(xs, m.Score)
		}
	}
	return xs
}

func sumScores(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	var s float64
	for _, x := range xs {
		s += x
	}
	return s
}

func meanScores(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	return sumScores(xs) / float64(len(xs))
}

func varianceScores(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	if len(xs) < 2 {
		return 0
	}
	m := meanScores(xs)
	var ss float64
	for _, x := range xs {
		d := x - m
		ss += d * d
	}
	return ss / float64(len(xs)-1)
}

func minScore(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	m := xs[0]
	for _, x := range xs[1:] {
		if x < m {
			m = x
		}
	}
	return m
}

func maxScore(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	m := xs[0]
	for _, x := range xs[1:] {
		if x > m {
			m = x
		}
	}
	return m
}

// percentile returns the linearly-interpolated q-th quantile (q in [0,1])
// of xs.
func percentile(xs []float64, q float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	idx := q * float64(len(sorted)-1)
	lo := int(math.Floor(idx))
	hi := int(math.Ceil(idx))
	if lo == hi {
		return sorted[lo]
	}
	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// medianAbsoluteDeviation returns k times the median absolute deviation of
// xs from its own median, the usual robust scale estimate (k=1.4826 makes
// it consistent with stdev under normality; callers pick k).
func medianAbsoluteDeviation(xs []float64, k float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	if k == 0 {
		k = 1
	}
	m := percentile(xs, 0.5)
	devs := make([]float64, len(xs))
	for i, x := range xs {
		devs[i] = math.Abs(x - m)
	}
	return k * percentile(devs, 0.5)
}

// trimmedMean averages xs after discarding the lowest lo and highest
// (1-hi) fractions.
func trimmedMean(xs []float64, lo, hi float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	n := len(sorted)
	loIdx := int(math.Floor(lo * float64(n)))
	hiIdx := int(math.Ceil(hi * float64(n)))
	if hiIdx > n {
		hiIdx = n
	}
	if loIdx >= hiIdx {
		return math.NaN()
	}
	return meanScores(sorted[loIdx:hiIdx])
}

func weightedMean(ref *Record, window []*Record) float64 {
	var wsum, ssum float64
	var any bool
	for _, m := range window {
		if !m.HasScore() {
			continue
		}
		w := float64(ref.Overlap(m))
		if w == 0 {
			w = float64(m.Length())
		}
		wsum += w
		ssum += w * m.Score
		any = true
	}
	if !any || wsum == 0 {
		return math.NaN()
	}
	return ssum / wsum
}

func basesUniq(ref *Record, window []*Record) PosType {
	type span struct{ lo, hi PosType }
	var spans []span
	for _, m := range window {
		if iv, ok := ref.Intersection(m); ok {
			spans = append(spans, span{iv.Start, iv.End})
		}
	}
	if len(spans) == 0 {
		return 0
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].lo < spans[j].lo })
	var total PosType
	curLo, curHi := spans[0].lo, spans[0].hi
	for _, sp := range spans[1:] {
		if sp.lo > curHi {
			total += curHi - curLo
			curLo, curHi = sp.lo, sp.hi
			continue
		}
		if sp.hi > curHi {
			curHi = sp.hi
		}
	}
	total += curHi - curLo
	return total
}

// selectElement picks the window element with the smallest (desc=false) or
// largest (desc=true) score, via ScoreThenGenomicOrderAsc/Desc — breaking
// ties deterministically by GenomicAddressOrder or, when tieRandom is set,
// uniformly at random among the tied elements (the "-rand" operation
// variants). It returns nil if no element carries a score.
func selectElement(window []*Record, desc, tieRandom bool) *Record {
	order := ScoreThenGenomicOrderAsc
	if desc {
		order = ScoreThenGenomicOrderDesc
	}
	var scored []*Record
	for _, m := range window {
		if m.HasScore() {
			scored = append(scored, m)
		}
	}
	if len(scored) == 0 {
		return nil
	}
	sort.SliceStable(scored, func(i, j int) bool { return order.Less(scored[i], scored[j]) })
	if !tieRandom {
		return scored[0]
	}
	best := scored[0].Score
	tied := 1
	for tied < len(scored) && scored[tied].Score == best {
		tied++
	}
	return scored[rand.Intn(tied)]
}
