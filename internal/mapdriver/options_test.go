package mapdriver

import (
	"errors"
	"testing"

	"github.com/grailbio/bedops/interval"
	"github.com/grailbio/testutil/expect"
)

func TestParseArgsDefaultsToBPOverlapOne(t *testing.T) {
	o, err := ParseArgs([]string{"--count", "a.bed", "b.bed"})
	expect.NoError(t, err)
	expect.EQ(t, interval.BPOverlap, o.Predicate.Kind)
	expect.EQ(t, interval.PosType(1), o.Predicate.BP)
	expect.EQ(t, 1, len(o.Columns))
	expect.EQ(t, interval.OpCount, o.Columns[0].Op)
	expect.EQ(t, 2, len(o.Files))
}

func TestParseArgsSingleFileAllowed(t *testing.T) {
	o, err := ParseArgs([]string{"--count", "a.bed"})
	expect.NoError(t, err)
	expect.EQ(t, 1, len(o.Files))
}

func TestParseArgsPreservesColumnOrder(t *testing.T) {
	o, err := ParseArgs([]string{"--echo-map-id", "--count", "--mean", "a.bed", "b.bed"})
	expect.NoError(t, err)
	expect.EQ(t, 3, len(o.Columns))
	expect.EQ(t, interval.OpEchoMapID, o.Columns[0].Op)
	expect.EQ(t, interval.OpCount, o.Columns[1].Op)
	expect.EQ(t, interval.OpMean, o.Columns[2].Op)
}

func TestParseArgsRejectsTwoOverlapSelectors(t *testing.T) {
	_, err := ParseArgs([]string{"--bp-ovr", "1", "--range", "5", "--count", "a.bed", "b.bed"})
	if !errors.Is(err, interval.ErrPredicateMisconfiguration) {
		t.Fatalf("expected ErrPredicateMisconfiguration, got %v", err)
	}
}

func TestParseArgsRejectsNoOperation(t *testing.T) {
	_, err := ParseArgs([]string{"a.bed", "b.bed"})
	if !errors.Is(err, interval.ErrPredicateMisconfiguration) {
		t.Fatalf("expected ErrPredicateMisconfiguration for missing operation, got %v", err)
	}
}

func TestParseArgsRejectsTooManyFiles(t *testing.T) {
	_, err := ParseArgs([]string{"--count", "a.bed", "b.bed", "c.bed"})
	if !errors.Is(err, interval.ErrPredicateMisconfiguration) {
		t.Fatalf("expected ErrPredicateMisconfiguration for too many files, got %v", err)
	}
}

func TestParseArgsFractionRef(t *testing.T) {
	o, err := ParseArgs([]string{"--fraction-ref", "0.75", "--count", "a.bed", "b.bed"})
	expect.NoError(t, err)
	expect.EQ(t, interval.FractionRef, o.Predicate.Kind)
	expect.EQ(t, 0.75, o.Predicate.Frac)
}

func TestParseArgsMADWithOptionalArg(t *testing.T) {
	o, err := ParseArgs([]string{"--mad", "2.5", "a.bed", "b.bed"})
	expect.NoError(t, err)
	expect.EQ(t, 1, len(o.Columns))
	expect.EQ(t, interval.OpMAD, o.Columns[0].Op)
	expect.EQ(t, 2.5, o.Columns[0].Param)
}

func TestParseArgsMADWithoutOptionalArgDefaultsToOne(t *testing.T) {
	o, err := ParseArgs([]string{"--mad", "a.bed", "b.bed"})
	expect.NoError(t, err)
	expect.EQ(t, 1.0, o.Columns[0].Param)
	// the positional file should not have been consumed as --mad's argument
	expect.EQ(t, 2, len(o.Files))
}

func TestParseArgsKthRequiresArg(t *testing.T) {
	_, err := ParseArgs([]string{"--kth"})
	if err == nil {
		t.Fatal("expected error for --kth with no argument")
	}
}

func TestParseArgsTMeanTakesTwoArgs(t *testing.T) {
	o, err := ParseArgs([]string{"--tmean", "0.1", "0.9", "a.bed", "b.bed"})
	expect.NoError(t, err)
	expect.EQ(t, 0.1, o.Columns[0].Param)
	expect.EQ(t, 0.9, o.Columns[0].Param2)
}

func TestParseArgsProcessFlags(t *testing.T) {
	o, err := ParseArgs([]string{
		"--count", "--chrom", "chr1", "--delim", ",", "--multidelim", "/",
		"--prec", "3", "--sci", "--ec", "--header", "--skip-unmapped",
		"--unmapped-val", "NA", "--sweep-all", "a.bed", "b.bed",
	})
	expect.NoError(t, err)
	expect.EQ(t, "chr1", o.Chrom)
	expect.EQ(t, ",", o.ColumnDelim)
	expect.EQ(t, "/", o.MultiValueDelim)
	expect.EQ(t, 3, o.Precision)
	expect.EQ(t, true, o.Scientific)
	expect.EQ(t, true, o.ErrorCheck)
	expect.EQ(t, true, o.HeaderPassthrough)
	expect.EQ(t, true, o.SkipUnmapped)
	expect.EQ(t, "NA", o.UnmappedVal)
	expect.EQ(t, true, o.SweepAll)
	expect.EQ(t, 3, o.Columns[0].Precision)
	expect.EQ(t, true, o.Columns[0].Scientific)
}

func TestParseArgsFasterRejectsIncompatiblePredicate(t *testing.T) {
	_, err := ParseArgs([]string{"--fraction-ref", "0.5", "--count", "--faster", "a.bed", "b.bed"})
	if !errors.Is(err, interval.ErrPredicateMisconfiguration) {
		t.Fatalf("expected ErrPredicateMisconfiguration, got %v", err)
	}
}

func TestParseArgsFasterAcceptsCompatiblePredicate(t *testing.T) {
	o, err := ParseArgs([]string{"--exact", "--count", "--faster", "a.bed", "b.bed"})
	expect.NoError(t, err)
	expect.EQ(t, true, o.Faster)
}
