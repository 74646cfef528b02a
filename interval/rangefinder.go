package interval

import (
	"bytes"
	"fmt"
	"io"
	"sort"
)

// seekReaderAt is the capability RangeFinder needs from its source: random
// byte access plus a way to learn its total size. *os.File satisfies it.
type seekReaderAt interface {
	io.ReaderAt
	Seek(offset int64, whence int) (int64, error)
}

// byteIndexEntry records where a previous search landed, so a later search
// for a reference further along the file's sort order can start from a
// tighter lower bound instead of byte zero. Callers of Find are expected to
// probe references in ascending order (as the window sweep and the
// chromosome extractor both do), which keeps this index monotone.
type byteIndexEntry struct {
	chrom  string
	start  PosType
	offset int64
}

// RangeFinder binary-searches a seekable, genomically-sorted BED source for
// the records that satisfy a Predicate against a reference interval. It is
// a direct port of BEDOPS' own FindBedRange: seek to a candidate byte
// offset, scan backward to the start of whatever line that offset landed
// inside, decode that line, and compare it against the reference to halve
// the remaining search interval; once the interval has converged to a
// single record boundary, scan forward linearly, reporting every match and
// stopping at the first record that — by virtue of the source's sort order
// — proves nothing further in the file can match either.
type RangeFinder struct {
	r     seekReaderAt
	size  int64
	opts  ReaderOptions
	index []byteIndexEntry
}

// NewRangeFinder returns a RangeFinder over r, whose total size is queried
// via Seek(0, io.SeekEnd).
func NewRangeFinder(r seekReaderAt, opts ReaderOptions) (*RangeFinder, error) {
	size, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, fmt.Errorf("interval: %w: %v", ErrUnseekableSource, err)
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("interval: %w: %v", ErrUnseekableSource, err)
	}
	return &RangeFinder{r: r, size: size, opts: opts.withDefaults()}, nil
}

// Find reports, in ascending order, every record in the source that
// satisfies p against ref, passing each to accept. accept's error, if any,
// stops the scan and is returned from Find.
func (rf *RangeFinder) Find(ref *Record, p Predicate, accept func(*Record) error) error {
	targetStart := subClamp(ref.Start, p.Reach())
	stopAfter := addClamp(ref.End, p.Reach())

	lo, err := rf.lowerBoundSearch(rf.lowerBound(ref.Chrom, targetStart), rf.size, func(pf parsedFields) bool {
		return chromStartCompare(pf.Chrom, pf.Start, ref.Chrom, targetStart) < 0
	})
	if err != nil {
		return err
	}
	rf.remember(ref.Chrom, targetStart, lo)

	off := lo
	for off < rf.size {
		pf, next, err := rf.decodeAt(off)
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		off = next
		if pf.Chrom != ref.Chrom {
			if pf.Chrom > ref.Chrom {
				break
			}
			continue
		}
		if pf.Start > stopAfter {
			break
		}
		m := &Record{Chrom: pf.Chrom, Start: pf.Start, End: pf.End, ID: pf.ID, Score: pf.Score, Rest: pf.Rest}
		if !p.Match(ref, m) {
			continue
		}
		rec := m
		if rf.opts.Pool != nil {
			rec = rf.opts.Pool.Acquire()
			rec.Chrom, rec.Start, rec.End = pf.Chrom, pf.Start, pf.End
			rec.ID, rec.Score, rec.Rest = pf.ID, pf.Score, pf.Rest
		}
		if err := accept(rec); err != nil {
			return err
		}
	}
	return nil
}

func (rf *RangeFinder) lowerBound(chrom string, start PosType) int64 {
	idx := sort.Search(len(rf.index), func(i int) bool {
		e := rf.index[i]
		if e.chrom != chrom {
			return e.chrom > chrom
		}
		return e.start > start
	})
	if idx == 0 {
		return 0
	}
	return rf.index[idx-1].offset
}

func (rf *RangeFinder) remember(chrom string, start PosType, offset int64) {
	rf.index = append(rf.index, byteIndexEntry{chrom: chrom, start: start, offset: offset})
}

// lowerBoundSearch finds the smallest line-start offset in [lo, hi) at or
// after which every record fails before(record). Both lo and hi must
// already be valid line-start offsets (0 and rf.size always are; anything
// else comes from a prior call to this same search). Each iteration probes
// the line containing the midpoint: if that record still satisfies before,
// everything through the following line start also does, so lo advances
// past it; otherwise hi shrinks to that line's start. Both branches make
// strict progress, since the probed line start lies in [lo, hi) and its
// successor line start is strictly greater than lo, so the search
// terminates in a bounded number of halvings.
func (rf *RangeFinder) lowerBoundSearch(lo, hi int64, before func(parsedFields) bool) (int64, error) {
	for lo < hi {
		mid := lo + (hi-lo)/2
		start, err := rf.lineStart(mid)
		if err != nil {
			return 0, err
		}
		pf, next, err := rf.decodeAt(start)
		if err == io.EOF {
			hi = start
			continue
		}
		if err != nil {
			return 0, err
		}
		if before(pf) {
			if next <= lo || next > hi {
				lo = hi
			} else {
				lo = next
			}
		} else {
			hi = start
		}
	}
	return lo, nil
}

// nextChromBoundary binary-searches for the byte offset of the first record
// whose chromosome sorts after chrom.
func (rf *RangeFinder) nextChromBoundary(chrom string) (int64, error) {
	return rf.lowerBoundSearch(0, rf.size, func(pf parsedFields) bool {
		return pf.Chrom <= chrom
	})
}

// chromStartCompare orders by chromosome, then by StartCoordAddressOrder's
// start-coordinate comparison (the probed records here are never pool-backed,
// so its address tiebreak is a no-op between them).
func chromStartCompare(aChrom string, aStart PosType, bChrom string, bStart PosType) int {
	if c := cmpString(aChrom, bChrom); c != 0 {
		return c
	}
	return StartCoordAddressOrder.Compare(&Record{Start: aStart}, &Record{Start: bStart})
}

// lineStart scans backward from off to find the byte offset of the start
// of the line off falls inside (or off itself, if it is already a line
// start). It fails with ErrFieldTooLong if no newline appears within the
// configured field-length caps, which bound how far back a single line can
// plausibly extend.
func (rf *RangeFinder) lineStart(off int64) (int64, error) {
	if off == 0 {
		return 0, nil
	}
	const chunk = 4096
	limit := int64(rf.opts.Limits.MaxChrom + rf.opts.Limits.MaxID + rf.opts.Limits.MaxRest + 64)
	pos := off
	scanned := int64(0)
	for pos > 0 {
		readLen := int64(chunk)
		if readLen > pos {
			readLen = pos
		}
		buf := make([]byte, readLen)
		if _, err := rf.r.ReadAt(buf, pos-readLen); err != nil && err != io.EOF {
			return 0, fmt.Errorf("interval: scanning for line start: %w", err)
		}
		if idx := bytes.LastIndexByte(buf, '\n'); idx >= 0 {
			return pos - readLen + int64(idx) + 1, nil
		}
		pos -= readLen
		scanned += readLen
		if scanned > limit {
			return 0, ErrFieldTooLong
		}
	}
	return 0, nil
}

// decodeAt reads the single line starting at off, returning the decoded
// fields and the offset of the following line.
func (rf *RangeFinder) decodeAt(off int64) (parsedFields, int64, error) {
	const chunk = 4096
	limit := rf.opts.Limits.MaxChrom + rf.opts.Limits.MaxID + rf.opts.Limits.MaxRest + 64
	var buf bytes.Buffer
	pos := off
	for {
		if pos >= rf.size {
			break
		}
		readLen := int64(chunk)
		if pos+readLen > rf.size {
			readLen = rf.size - pos
		}
		tmp := make([]byte, readLen)
		n, err := rf.r.ReadAt(tmp, pos)
		tmp = tmp[:n]
		if idx := bytes.IndexByte(tmp, '\n'); idx >= 0 {
			buf.Write(tmp[:idx])
			line := bytes.TrimRight(buf.Bytes(), "\r")
			pf, perr := parseBEDLine(line, rf.opts.Limits)
			if perr != nil {
				return parsedFields{}, pos + int64(idx) + 1, perr
			}
			return pf, pos + int64(idx) + 1, nil
		}
		buf.Write(tmp)
		pos += int64(n)
		if buf.Len() > limit {
			return parsedFields{}, pos, ErrFieldTooLong
		}
		if err == io.EOF || n == 0 {
			break
		}
	}
	if buf.Len() == 0 {
		return parsedFields{}, pos, io.EOF
	}
	line := bytes.TrimRight(buf.Bytes(), "\r")
	pf, perr := parseBEDLine(line, rf.opts.Limits)
	if perr != nil {
		return parsedFields{}, pos, perr
	}
	return pf, pos, nil
}
