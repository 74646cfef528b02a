package interval

import (
	"strings"
	"testing"
)

func withScore(r *Record, s float64) *Record {
	r.Score = s
	return r
}

func val(c Column, ref *Record, window []*Record) string {
	return c.Value(ref, window, ";", "NAN", 0)
}

func TestOpCountAndIndicator(t *testing.T) {
	ref := rec("chr1", 0, 100)
	window := []*Record{rec("chr1", 10, 20), rec("chr1", 30, 40)}
	if got := val(Column{Op: OpCount}, ref, window); got != "2" {
		t.Fatalf("OpCount = %q, want 2", got)
	}
	if got := val(Column{Op: OpIndicator}, ref, window); got != "1" {
		t.Fatalf("OpIndicator = %q, want 1", got)
	}
	if got := val(Column{Op: OpIndicator}, ref, nil); got != "0" {
		t.Fatalf("OpIndicator on empty window = %q, want 0", got)
	}
}

func TestOpBases(t *testing.T) {
	ref := rec("chr1", 0, 100)
	window := []*Record{rec("chr1", 10, 20), rec("chr1", 15, 30)}
	// overlap(ref, [10,20)) = 10, overlap(ref, [15,30)) = 15 -> sum 25
	if got := val(Column{Op: OpBases}, ref, window); got != "25" {
		t.Fatalf("OpBases = %q, want 25", got)
	}
}

func TestOpBasesUniqCollapsesOverlappingSpans(t *testing.T) {
	ref := rec("chr1", 0, 100)
	window := []*Record{rec("chr1", 10, 20), rec("chr1", 15, 30)}
	// union of [10,20) and [15,30) is [10,30) = 20 bases, not 25.
	if got := val(Column{Op: OpBasesUniq}, ref, window); got != "20" {
		t.Fatalf("OpBasesUniq = %q, want 20", got)
	}
}

func TestOpBasesUniqF(t *testing.T) {
	ref := rec("chr1", 0, 100) // length 100
	window := []*Record{rec("chr1", 0, 50)}
	if got := val(Column{Op: OpBasesUniqF}, ref, window); got != "0.5" {
		t.Fatalf("OpBasesUniqF = %q, want 0.5", got)
	}
}

func TestOpSumMeanMinMax(t *testing.T) {
	ref := rec("chr1", 0, 100)
	window := []*Record{
		withScore(rec("chr1", 0, 10), 1),
		withScore(rec("chr1", 0, 10), 2),
		withScore(rec("chr1", 0, 10), 3),
	}
	if got := val(Column{Op: OpSum}, ref, window); got != "6" {
		t.Fatalf("OpSum = %q, want 6", got)
	}
	if got := val(Column{Op: OpMean}, ref, window); got != "2" {
		t.Fatalf("OpMean = %q, want 2", got)
	}
	if got := val(Column{Op: OpMin}, ref, window); got != "1" {
		t.Fatalf("OpMin = %q, want 1", got)
	}
	if got := val(Column{Op: OpMax}, ref, window); got != "3" {
		t.Fatalf("OpMax = %q, want 3", got)
	}
}

func TestOpMeanNoScoresIsUnmapped(t *testing.T) {
	ref := rec("chr1", 0, 100)
	window := []*Record{rec("chr1", 0, 10)}
	if got := val(Column{Op: OpMean}, ref, window); got != "NAN" {
		t.Fatalf("OpMean with no scores = %q, want NAN", got)
	}
}

func TestOpVarianceAndStdev(t *testing.T) {
	ref := rec("chr1", 0, 100)
	window := []*Record{
		withScore(rec("chr1", 0, 10), 2),
		withScore(rec("chr1", 0, 10), 4),
		withScore(rec("chr1", 0, 10), 4),
		withScore(rec("chr1", 0, 10), 4),
		withScore(rec("chr1", 0, 10), 5),
		withScore(rec("chr1", 0, 10), 5),
		withScore(rec("chr1", 0, 10), 7),
		withScore(rec("chr1", 0, 10), 9),
	}
	// sample variance of this classic dataset is 4.57142857...
	if got := val(Column{Op: OpVariance, Precision: 4}, ref, window); got != "4.5714" {
		t.Fatalf("OpVariance = %q, want 4.5714", got)
	}
	// stdev is its square root, 2.13808993...
	if got := val(Column{Op: OpStdev, Precision: 4}, ref, window); got != "2.1381" {
		t.Fatalf("OpStdev = %q, want 2.1381", got)
	}
}

func TestOpMedian(t *testing.T) {
	ref := rec("chr1", 0, 100)
	window := []*Record{
		withScore(rec("chr1", 0, 10), 1),
		withScore(rec("chr1", 0, 10), 2),
		withScore(rec("chr1", 0, 10), 3),
		withScore(rec("chr1", 0, 10), 4),
	}
	if got := val(Column{Op: OpMedian, Precision: 2}, ref, window); got != "2.50" {
		t.Fatalf("OpMedian = %q, want 2.50", got)
	}
}

func TestOpKth(t *testing.T) {
	ref := rec("chr1", 0, 100)
	window := []*Record{
		withScore(rec("chr1", 0, 10), 1),
		withScore(rec("chr1", 0, 10), 2),
		withScore(rec("chr1", 0, 10), 3),
		withScore(rec("chr1", 0, 10), 4),
		withScore(rec("chr1", 0, 10), 5),
	}
	if got := val(Column{Op: OpKth, Param: 0}, ref, window); got != "1" {
		t.Fatalf("OpKth(0) = %q, want 1", got)
	}
	if got := val(Column{Op: OpKth, Param: 1}, ref, window); got != "5" {
		t.Fatalf("OpKth(1) = %q, want 5", got)
	}
}

func TestOpTMean(t *testing.T) {
	ref := rec("chr1", 0, 100)
	window := []*Record{
		withScore(rec("chr1", 0, 10), 1),
		withScore(rec("chr1", 0, 10), 2),
		withScore(rec("chr1", 0, 10), 3),
		withScore(rec("chr1", 0, 10), 100), // outlier trimmed away
	}
	if got := val(Column{Op: OpTMean, Param: 0, Param2: 0.75}, ref, window); got != "2" {
		t.Fatalf("OpTMean = %q, want 2", got)
	}
}

func TestOpWMeanWeightsByOverlap(t *testing.T) {
	ref := rec("chr1", 0, 100)
	window := []*Record{
		withScore(rec("chr1", 0, 10), 10), // overlap 10
		withScore(rec("chr1", 0, 90), 0),  // overlap 90
	}
	// weighted mean = (10*10 + 90*0) / 100 = 1
	if got := val(Column{Op: OpWMean}, ref, window); got != "1" {
		t.Fatalf("OpWMean = %q, want 1", got)
	}
}

func TestOpMinMaxElement(t *testing.T) {
	ref := rec("chr1", 0, 100)
	lo := withScore(rec("chr1", 0, 10), 1)
	lo.ID = "lo"
	hi := withScore(rec("chr1", 0, 10), 9)
	hi.ID = "hi"
	window := []*Record{lo, hi}

	minCol := Column{Op: OpMinElement}
	if got := val(minCol, ref, window); !strings.Contains(got, "\tlo\t") {
		t.Fatalf("OpMinElement = %q, want to contain id lo", got)
	}
	maxCol := Column{Op: OpMaxElement}
	if got := val(maxCol, ref, window); !strings.Contains(got, "\thi\t") {
		t.Fatalf("OpMaxElement = %q, want to contain id hi", got)
	}
}

func TestOpMinMaxElementTieBreaksByGenomicAddressOrder(t *testing.T) {
	ref := rec("chr1", 0, 100)
	first := withScore(rec("chr1", 0, 10), 5)
	first.ID = "first"
	second := withScore(rec("chr1", 20, 30), 5)
	second.ID = "second"
	// window is intentionally out of arrival order; tie-break must fall back
	// to genomic position, not window order.
	window := []*Record{second, first}

	minCol := Column{Op: OpMinElement}
	if got := val(minCol, ref, window); !strings.Contains(got, "\tfirst\t") {
		t.Fatalf("OpMinElement tie = %q, want the genomically-first record", got)
	}
	maxCol := Column{Op: OpMaxElement}
	if got := val(maxCol, ref, window); !strings.Contains(got, "\tfirst\t") {
		t.Fatalf("OpMaxElement tie = %q, want the genomically-first record", got)
	}
}

func TestOpMinMaxElementRandPicksAmongTiedCandidates(t *testing.T) {
	ref := rec("chr1", 0, 100)
	first := withScore(rec("chr1", 0, 10), 5)
	first.ID = "first"
	second := withScore(rec("chr1", 20, 30), 5)
	second.ID = "second"
	window := []*Record{first, second}

	for i := 0; i < 20; i++ {
		got := val(Column{Op: OpMinElementRand}, ref, window)
		if !strings.Contains(got, "\tfirst\t") && !strings.Contains(got, "\tsecond\t") {
			t.Fatalf("OpMinElementRand = %q, want one of the tied candidates", got)
		}
	}
}

func TestOpMinElementNoScoresIsUnmapped(t *testing.T) {
	ref := rec("chr1", 0, 100)
	window := []*Record{rec("chr1", 0, 10)}
	if got := val(Column{Op: OpMinElement}, ref, window); got != "NAN" {
		t.Fatalf("OpMinElement with no scores = %q, want NAN", got)
	}
}

func TestOpEchoRefVariants(t *testing.T) {
	ref := rec("chr1", 10, 20)
	ref.ID = "r1"
	ref.Score = 5
	if got := val(Column{Op: OpEchoRefName}, ref, nil); got != "r1" {
		t.Fatalf("OpEchoRefName = %q, want r1", got)
	}
	if got := val(Column{Op: OpEchoRefScore}, ref, nil); got != "5" {
		t.Fatalf("OpEchoRefScore = %q, want 5", got)
	}
	if got := val(Column{Op: OpEchoRefSpan}, ref, nil); got != "chr1:10-20" {
		t.Fatalf("OpEchoRefSpan = %q, want chr1:10-20", got)
	}
	if got := val(Column{Op: OpEchoRefLength}, ref, nil); got != "10" {
		t.Fatalf("OpEchoRefLength = %q, want 10", got)
	}
	if got := (Column{Op: OpEchoRefRowID}).Value(ref, nil, ";", "NAN", 7); got != "7" {
		t.Fatalf("OpEchoRefRowID = %q, want 7", got)
	}
}

func TestOpEchoMapIDUniqDedupsAndSorts(t *testing.T) {
	ref := rec("chr1", 0, 100)
	a := rec("chr1", 0, 10)
	a.ID = "x"
	b := rec("chr1", 20, 30)
	b.ID = "y"
	c := rec("chr1", 40, 50)
	c.ID = "x"
	window := []*Record{a, b, c}
	if got := val(Column{Op: OpEchoMapIDUniq}, ref, window); got != "x;y" {
		t.Fatalf("OpEchoMapIDUniq = %q, want x;y", got)
	}
}

func TestOpEchoOverlapSize(t *testing.T) {
	ref := rec("chr1", 0, 100)
	window := []*Record{rec("chr1", 0, 10), rec("chr1", 90, 110)}
	if got := val(Column{Op: OpEchoOverlapSize}, ref, window); got != "10;10" {
		t.Fatalf("OpEchoOverlapSize = %q, want 10;10", got)
	}
}

func TestFormatFloatScientific(t *testing.T) {
	ref := rec("chr1", 0, 100)
	window := []*Record{withScore(rec("chr1", 0, 10), 12345)}
	c := Column{Op: OpMean, Scientific: true, Precision: 2}
	got := val(c, ref, window)
	if got != "1.23e+04" {
		t.Fatalf("scientific OpMean = %q, want 1.23e+04", got)
	}
}

func TestFormatFloatWholeNumberHasNoDecimal(t *testing.T) {
	ref := rec("chr1", 0, 100)
	window := []*Record{withScore(rec("chr1", 0, 10), 4)}
	if got := val(Column{Op: OpMean}, ref, window); got != "4" {
		t.Fatalf("OpMean(whole) = %q, want 4", got)
	}
}
