package interval

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/grailbio/testutil/expect"
)

func openRangeFinder(t *testing.T, lines string) *RangeFinder {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "target.bed")
	if err := os.WriteFile(path, []byte(lines), 0o644); err != nil {
		t.Fatal(err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { f.Close() })
	rf, err := NewRangeFinder(f, ReaderOptions{})
	expect.NoError(t, err)
	return rf
}

func TestRangeFinderFindsOverlaps(t *testing.T) {
	rf := openRangeFinder(t, "chr1\t0\t10\ta\nchr1\t20\t30\tb\nchr1\t40\t50\tc\nchr2\t0\t10\td\n")

	var got []string
	ref := &Record{Chrom: "chr1", Start: 15, End: 45}
	err := rf.Find(ref, NewBPOverlap(1), func(r *Record) error {
		got = append(got, r.ID)
		return nil
	})
	expect.NoError(t, err)
	expect.EQ(t, 2, len(got))
	expect.EQ(t, "b", got[0])
	expect.EQ(t, "c", got[1])
}

func TestRangeFinderNoMatchesYieldsNothing(t *testing.T) {
	rf := openRangeFinder(t, "chr1\t0\t10\ta\nchr1\t100\t110\tb\n")
	var got []string
	ref := &Record{Chrom: "chr1", Start: 40, End: 50}
	err := rf.Find(ref, NewBPOverlap(1), func(r *Record) error {
		got = append(got, r.ID)
		return nil
	})
	expect.NoError(t, err)
	expect.EQ(t, 0, len(got))
}

func TestRangeFinderDifferentChromosomeYieldsNothing(t *testing.T) {
	rf := openRangeFinder(t, "chr1\t0\t100\ta\n")
	var got []string
	ref := &Record{Chrom: "chr2", Start: 0, End: 100}
	err := rf.Find(ref, NewBPOverlap(1), func(r *Record) error {
		got = append(got, r.ID)
		return nil
	})
	expect.NoError(t, err)
	expect.EQ(t, 0, len(got))
}

func TestRangeFinderAcceptCallbackErrorStopsScan(t *testing.T) {
	rf := openRangeFinder(t, "chr1\t0\t10\ta\nchr1\t5\t15\tb\nchr1\t8\t20\tc\n")
	stop := bytes.ErrTooLarge
	count := 0
	ref := &Record{Chrom: "chr1", Start: 0, End: 20}
	err := rf.Find(ref, NewBPOverlap(1), func(r *Record) error {
		count++
		if count == 1 {
			return stop
		}
		return nil
	})
	if err != stop {
		t.Fatalf("expected accept's error to propagate, got %v", err)
	}
	expect.EQ(t, 1, count)
}

func TestRangeFinderSequentialSearchesAdvanceMonotonically(t *testing.T) {
	rf := openRangeFinder(t, "chr1\t0\t10\ta\nchr1\t50\t60\tb\nchr1\t100\t110\tc\n")

	find := func(start, end PosType) string {
		var got []string
		ref := &Record{Chrom: "chr1", Start: start, End: end}
		err := rf.Find(ref, NewBPOverlap(1), func(r *Record) error {
			got = append(got, r.ID)
			return nil
		})
		expect.NoError(t, err)
		if len(got) != 1 {
			t.Fatalf("expected exactly one match, got %v", got)
		}
		return got[0]
	}

	expect.EQ(t, "a", find(0, 10))
	expect.EQ(t, "b", find(50, 60))
	expect.EQ(t, "c", find(100, 110))
}
