package interval

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/biogo/hts/sam"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/fileio"
	"github.com/klauspost/compress/gzip"

	"github.com/grailbio/bedops/encoding/starch"
)

// RecordReader produces records one at a time, in whatever order its
// underlying source holds them (normally the total order from order.go).
// Next returns (nil, nil) at a clean end of input. Records it returns are
// drawn from the ReaderOptions.Pool supplied at construction, if any, and
// are the caller's to Release.
type RecordReader interface {
	Next() (*Record, error)
	Close() error
}

// ReaderOptions configures Open. The zero value is valid: Limits defaults
// to DefaultLimits and an unpooled Record is allocated per call to Next.
type ReaderOptions struct {
	// Chrom restricts the stream to a single chromosome. Whether this is
	// satisfied by a binary-search jump, an archive's own index, or a
	// streaming drop-filter depends on the source; see Open.
	Chrom string
	// ErrorCheck enables the total-order validation described in §7: a
	// record that sorts before its predecessor under GenomicOrder yields
	// ErrOrderingViolation instead of being returned.
	ErrorCheck bool
	// HeaderPassthrough, when true, surfaces header lines (browser/track
	// lines and #/@-prefixed comments) as synthetic records on a "_header"
	// pseudo-chromosome rather than skipping them.
	HeaderPassthrough bool
	Limits            Limits
	Pool              *Pool
	// SAMHeader, when set, ranks chromosomes by their order in a SAM/BAM
	// header instead of byte-lexicographically for ErrorCheck's ordering
	// validation — see NewHeaderOrder.
	SAMHeader *sam.Header
}

func (o ReaderOptions) order() Order {
	if o.SAMHeader != nil {
		return NewHeaderOrder(o.SAMHeader)
	}
	return GenomicOrder
}

func (o ReaderOptions) withDefaults() ReaderOptions {
	if o.Limits == (Limits{}) {
		o.Limits = DefaultLimits
	}
	return o
}

// Open opens path (or "-" for standard input) and returns a RecordReader
// appropriate to what it finds there:
//
//   - a seekable plain-BED file with a chromosome filter active uses the
//     byte-range finder (rangefinder.go) to jump straight to the first
//     matching record, per §4.1;
//   - a Starch-style archive (detected by magic prefix) delegates chromosome
//     selection and decoding to the archive's own index (encoding/starch);
//   - anything else — standard input, a gzip pipe, a seekable file with no
//     chromosome filter — streams sequentially, dropping out-of-chromosome
//     records as it goes when a filter is set but no faster path applies.
func Open(ctx context.Context, path string, opts ReaderOptions) (RecordReader, error) {
	opts = opts.withDefaults()

	if path == "-" {
		return newTextReader([]io.Closer{}, os.Stdin, opts, false), nil
	}
	if isLocalPath(path) {
		f, err := os.Open(path)
		if err != nil {
			return nil, errors.E(err, "interval: opening", path)
		}
		return openLocal(f, path, opts)
	}
	infile, err := file.Open(ctx, path)
	if err != nil {
		return nil, errors.E(err, "interval: opening", path)
	}
	rc := &ctxCloser{ctx: ctx, f: infile}
	r := infile.Reader(ctx)
	if fileio.DetermineType(path) == fileio.Gzip {
		gz, err := gzip.NewReader(r)
		if err != nil {
			rc.Close()
			return nil, errors.E(err, "interval: opening gzip stream", path)
		}
		return newTextReader([]io.Closer{gz, rc}, gz, opts, false), nil
	}
	return newTextReader([]io.Closer{rc}, r, opts, false), nil
}

func isLocalPath(path string) bool {
	return !strings.Contains(path, "://")
}

// openLocal handles a path that resolved to a real *os.File, where seeking
// and the magic-prefix peek used for archive detection are both available.
func openLocal(f *os.File, path string, opts ReaderOptions) (RecordReader, error) {
	magic := make([]byte, len(starch.Magic))
	n, err := io.ReadFull(f, magic)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		f.Close()
		return nil, errors.E(err, "interval: probing", path)
	}
	if _, serr := f.Seek(0, io.SeekStart); serr != nil {
		f.Close()
		return nil, errors.E(serr, "interval: seeking", path)
	}
	if n == len(magic) && bytes.Equal(magic, starch.Magic) {
		return openStarch(f, opts)
	}
	if fileio.DetermineType(path) == fileio.Gzip {
		gz, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, errors.E(err, "interval: opening gzip stream", path)
		}
		return newTextReader([]io.Closer{gz, f}, gz, opts, false), nil
	}
	if opts.Chrom != "" {
		ext := NewExtractor(f, opts)
		rr, err := ext.Chromosome(opts.Chrom)
		if err != nil {
			f.Close()
			return nil, err
		}
		return rr, nil
	}
	return newTextReader([]io.Closer{f}, f, opts, true), nil
}

func openStarch(f *os.File, opts ReaderOptions) (RecordReader, error) {
	sr, err := starch.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %v", ErrCorruptArchive, err)
	}
	var body io.ReadCloser
	if opts.Chrom != "" {
		body, err = sr.Open(opts.Chrom)
	} else {
		body, err = sr.All()
	}
	if err != nil {
		f.Close()
		return nil, err
	}
	return newTextReader([]io.Closer{body, f}, body, opts, false), nil
}

type ctxCloser struct {
	ctx context.Context
	f   file.File
}

func (c *ctxCloser) Close() error { return c.f.Close(c.ctx) }

// textReader parses newline-delimited BED text. It is the terminal
// implementation behind every RecordReader Open can return except the
// range-finder-backed chromosome fast path.
type textReader struct {
	closers []io.Closer
	scan    *bufio.Scanner
	opts    ReaderOptions
	pool    *Pool
	prev    *Record
	lineNum int
	hdrSeq  PosType
	drop    bool // streaming chrom drop-filter active
	order   Order
}

func newTextReader(closers []io.Closer, r io.Reader, opts ReaderOptions, seekableNoFilter bool) *textReader {
	scan := bufio.NewScanner(r)
	scan.Buffer(make([]byte, 0, 64*1024), 1<<24)
	_ = seekableNoFilter
	return &textReader{
		closers: closers,
		scan:    scan,
		opts:    opts,
		pool:    opts.Pool,
		drop:    opts.Chrom != "",
		order:   opts.order(),
	}
}

func (tr *textReader) Next() (*Record, error) {
	for {
		if !tr.scan.Scan() {
			if err := tr.scan.Err(); err != nil {
				return nil, errors.E(err, "interval: reading input")
			}
			return nil, nil
		}
		tr.lineNum++
		line := bytes.TrimRight(tr.scan.Bytes(), "\r")
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		if isHeaderLine(line) {
			if !tr.opts.HeaderPassthrough {
				continue
			}
			rec := tr.acquire()
			rec.Chrom = "_header"
			rec.Start = tr.hdrSeq
			rec.End = tr.hdrSeq + 1
			rec.Rest = string(line)
			rec.Score = NoScore()
			tr.hdrSeq++
			return rec, nil
		}
		pf, err := parseBEDLine(line, tr.opts.Limits)
		if err != nil {
			return nil, fmt.Errorf("interval: line %d: %w", tr.lineNum, err)
		}
		if tr.drop && pf.Chrom != tr.opts.Chrom {
			continue
		}
		rec := tr.acquire()
		rec.Chrom, rec.Start, rec.End = pf.Chrom, pf.Start, pf.End
		rec.ID, rec.Score, rec.Rest = pf.ID, pf.Score, pf.Rest
		if tr.opts.ErrorCheck {
			if tr.prev != nil && tr.order.Compare(tr.prev, rec) > 0 {
				return nil, fmt.Errorf("interval: line %d: %w", tr.lineNum, ErrOrderingViolation)
			}
			if tr.prev != nil {
				tr.prev.Release()
			}
			tr.prev = rec.Retain()
		}
		return rec, nil
	}
}

func (tr *textReader) acquire() *Record {
	if tr.pool != nil {
		return tr.pool.Acquire()
	}
	return &Record{}
}

func (tr *textReader) Close() error {
	if tr.prev != nil {
		tr.prev.Release()
		tr.prev = nil
	}
	var first error
	for i := len(tr.closers) - 1; i >= 0; i-- {
		if err := tr.closers[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// parsedFields holds one line's worth of decoded BED columns, before they
// are copied into a pooled or freestanding *Record.
type parsedFields struct {
	Chrom string
	Start PosType
	End   PosType
	ID    string
	Score float64
	Rest  string
}

// parseBEDLine decodes a single non-blank, non-header line. Columns beyond
// the fifth (score) are carried verbatim as Rest; this package never
// interprets strand or any other trailing column itself.
func parseBEDLine(line []byte, limits Limits) (parsedFields, error) {
	fields, rest := splitFields(line, 5)
	if len(fields) < 3 {
		return parsedFields{}, ErrMalformedRecord
	}
	chrom := string(fields[0])
	if len(chrom) > limits.MaxChrom {
		return parsedFields{}, ErrChromosomeTooLong
	}
	start, err := strconv.ParseUint(string(fields[1]), 10, 64)
	if err != nil {
		return parsedFields{}, fmt.Errorf("%w: start %q", ErrMalformedRecord, fields[1])
	}
	end, err := strconv.ParseUint(string(fields[2]), 10, 64)
	if err != nil {
		return parsedFields{}, fmt.Errorf("%w: end %q", ErrMalformedRecord, fields[2])
	}
	if start > end || PosType(end) > PosTypeMax {
		return parsedFields{}, ErrMalformedRecord
	}
	pf := parsedFields{Chrom: chrom, Start: PosType(start), End: PosType(end), Score: NoScore()}
	if len(fields) >= 4 {
		if len(fields[3]) > limits.MaxID {
			return parsedFields{}, ErrFieldTooLong
		}
		pf.ID = string(fields[3])
	}
	if len(fields) >= 5 {
		if sc, err := strconv.ParseFloat(string(fields[4]), 64); err == nil {
			pf.Score = sc
		}
	}
	if len(rest) > limits.MaxRest {
		return parsedFields{}, ErrFieldTooLong
	}
	pf.Rest = string(rest)
	return pf, nil
}

// splitFields tokenizes line on runs of whitespace, stopping after at most
// maxFields tokens, and returns whatever (whitespace-trimmed) text remains
// as rest. It mirrors the corpus's own tab/space-tolerant BED tokenizer
// rather than requiring strict single-tab delimiting.
func splitFields(line []byte, maxFields int) (fields [][]byte, rest []byte) {
	pos, n := 0, len(line)
	for pos < n && len(fields) < maxFields {
		for pos < n && line[pos] <= ' ' {
			pos++
		}
		if pos >= n {
			break
		}
		start := pos
		for pos < n && line[pos] > ' ' {
			pos++
		}
		fields = append(fields, line[start:pos])
	}
	for pos < n && line[pos] <= ' ' {
		pos++
	}
	if pos < n {
		rest = line[pos:]
	}
	return fields, rest
}

func isHeaderLine(line []byte) bool {
	trimmed := bytes.TrimLeft(line, " \t")
	if len(trimmed) == 0 {
		return false
	}
	switch trimmed[0] {
	case '#', '@':
		return true
	}
	tok := trimmed
	if i := bytes.IndexAny(trimmed, " \t"); i >= 0 {
		tok = trimmed[:i]
	}
	return string(tok) == "browser" || string(tok) == "track"
}
