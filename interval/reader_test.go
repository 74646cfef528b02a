package interval

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/grailbio/testutil/expect"
)

func TestParseBEDLineBasic(t *testing.T) {
	pf, err := parseBEDLine([]byte("chr1\t10\t20\trs1\t5.5\tfoo bar"), DefaultLimits)
	expect.NoError(t, err)
	expect.EQ(t, "chr1", pf.Chrom)
	expect.EQ(t, PosType(10), pf.Start)
	expect.EQ(t, PosType(20), pf.End)
	expect.EQ(t, "rs1", pf.ID)
	expect.EQ(t, 5.5, pf.Score)
	expect.EQ(t, "foo bar", pf.Rest)
}

func TestParseBEDLineMinimalColumns(t *testing.T) {
	pf, err := parseBEDLine([]byte("chr1 10 20"), DefaultLimits)
	expect.NoError(t, err)
	expect.EQ(t, "", pf.ID)
	expect.EQ(t, NoScore(), pf.Score)
}

func TestParseBEDLineTooFewFields(t *testing.T) {
	_, err := parseBEDLine([]byte("chr1 10"), DefaultLimits)
	if err != ErrMalformedRecord {
		t.Fatalf("expected ErrMalformedRecord, got %v", err)
	}
}

func TestParseBEDLineStartAfterEnd(t *testing.T) {
	_, err := parseBEDLine([]byte("chr1 20 10"), DefaultLimits)
	if err != ErrMalformedRecord {
		t.Fatalf("expected ErrMalformedRecord for start>end, got %v", err)
	}
}

func TestParseBEDLineBadScoreIsIgnoredNotFatal(t *testing.T) {
	pf, err := parseBEDLine([]byte("chr1\t10\t20\trs1\tnotanumber"), DefaultLimits)
	expect.NoError(t, err)
	expect.EQ(t, NoScore(), pf.Score)
}

func TestParseBEDLineChromTooLong(t *testing.T) {
	limits := Limits{MaxChrom: 3, MaxID: 100, MaxRest: 100}
	_, err := parseBEDLine([]byte("chr1 10 20"), limits)
	if err != ErrChromosomeTooLong {
		t.Fatalf("expected ErrChromosomeTooLong, got %v", err)
	}
}

func TestIsHeaderLine(t *testing.T) {
	expect.EQ(t, true, isHeaderLine([]byte("# a comment")))
	expect.EQ(t, true, isHeaderLine([]byte("@SQ SN:chr1")))
	expect.EQ(t, true, isHeaderLine([]byte("track name=foo")))
	expect.EQ(t, true, isHeaderLine([]byte("browser position chr1")))
	expect.EQ(t, false, isHeaderLine([]byte("chr1\t10\t20")))
	expect.EQ(t, false, isHeaderLine([]byte("")))
}

func TestSplitFieldsStopsAtMaxAndKeepsRest(t *testing.T) {
	fields, rest := splitFields([]byte("a  b\tc   d e"), 3)
	expect.EQ(t, 3, len(fields))
	expect.EQ(t, "a", string(fields[0]))
	expect.EQ(t, "b", string(fields[1]))
	expect.EQ(t, "c", string(fields[2]))
	expect.EQ(t, "d e", string(rest))
}

func writeTempBED(t *testing.T, lines string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "test.bed")
	if err := os.WriteFile(path, []byte(lines), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestOpenStreamsBEDRecordsInOrder(t *testing.T) {
	path := writeTempBED(t, "chr1\t0\t10\ta\nchr1\t5\t15\tb\n")
	rr, err := Open(context.Background(), path, ReaderOptions{})
	expect.NoError(t, err)
	defer rr.Close()

	r1, err := rr.Next()
	expect.NoError(t, err)
	expect.EQ(t, "a", r1.ID)
	r2, err := rr.Next()
	expect.NoError(t, err)
	expect.EQ(t, "b", r2.ID)
	r3, err := rr.Next()
	expect.NoError(t, err)
	if r3 != nil {
		t.Fatalf("expected nil at end of stream, got %+v", r3)
	}
}

func TestOpenSkipsBlankAndHeaderLinesByDefault(t *testing.T) {
	path := writeTempBED(t, "# comment\n\ntrack name=x\nchr1\t0\t10\ta\n")
	rr, err := Open(context.Background(), path, ReaderOptions{})
	expect.NoError(t, err)
	defer rr.Close()

	r, err := rr.Next()
	expect.NoError(t, err)
	expect.EQ(t, "a", r.ID)
}

func TestOpenHeaderPassthrough(t *testing.T) {
	path := writeTempBED(t, "# comment\nchr1\t0\t10\ta\n")
	rr, err := Open(context.Background(), path, ReaderOptions{HeaderPassthrough: true})
	expect.NoError(t, err)
	defer rr.Close()

	r, err := rr.Next()
	expect.NoError(t, err)
	expect.EQ(t, "_header", r.Chrom)
	expect.EQ(t, "# comment", r.Rest)
}

func TestOpenErrorCheckDetectsOrderingViolation(t *testing.T) {
	path := writeTempBED(t, "chr1\t10\t20\ta\nchr1\t5\t15\tb\n")
	rr, err := Open(context.Background(), path, ReaderOptions{ErrorCheck: true})
	expect.NoError(t, err)
	defer rr.Close()

	_, err = rr.Next()
	expect.NoError(t, err)
	_, err = rr.Next()
	if err == nil {
		t.Fatal("expected ordering violation error")
	}
}

func TestOpenChromFilterStreamsOnlyMatching(t *testing.T) {
	// The chrom-filter fast path binary-searches, which presumes a validly
	// sorted source: every chromosome's records form one contiguous block.
	path := writeTempBED(t, "chr1\t0\t10\ta\nchr1\t20\t30\tc\nchr2\t0\t10\tb\n")
	rr, err := Open(context.Background(), path, ReaderOptions{Chrom: "chr1"})
	expect.NoError(t, err)
	defer rr.Close()

	var ids []string
	for {
		r, err := rr.Next()
		expect.NoError(t, err)
		if r == nil {
			break
		}
		ids = append(ids, r.ID)
	}
	expect.EQ(t, 2, len(ids))
	expect.EQ(t, "a", ids[0])
	expect.EQ(t, "c", ids[1])
}
