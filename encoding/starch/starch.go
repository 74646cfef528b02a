/*Package starch implements a compressed, chromosome-indexed container for
sorted BED text, filling the role BEDOPS' Starch archive format plays for
the core engine in package interval: opaque storage that the streaming
reader detects by a magic prefix and delegates enumeration, chromosome
indexing, and per-record decoding to.

The wire format here is a self-contained stand-in rather than a compatible
reimplementation of upstream Starch — see DESIGN.md for why: the original
format's internal layout is explicitly out of scope for this core, and the
corpus's reference codec libraries (klauspost/compress) ship general-purpose
compressors, not a Starch decoder. What matters to package interval is the
contract: a magic-prefixed stream that yields, per chromosome, a decoded
BED text body, plus a cheap way to enumerate the chromosomes it holds
without decompressing all of them.
*/
package starch

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"

	"github.com/grailbio/base/errors"
	"github.com/klauspost/compress/zstd"
)

// Magic is the byte sequence a streaming reader looks for to recognize this
// archive format, analogous to Starch's own magic-number detection.
var Magic = []byte("STARCH1\n")

type chromEntry struct {
	Chrom         string `json:"chrom"`
	CompressedLen int64  `json:"compressedLen"`
	RecordCount   int    `json:"recordCount"`
}

type index struct {
	Chromosomes []chromEntry `json:"chromosomes"`
}

// Writer builds a Starch-style archive. Chromosomes must be written in the
// file's final sort order; each chromosome's BED body is compressed
// independently so a reader can fetch one chromosome without touching the
// others.
type Writer struct {
	w       io.Writer
	idx     index
	bodies  []*bytes.Buffer
	encoder *zstd.Encoder
}

// NewWriter returns a Writer that streams a Starch archive to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// WriteChromosome compresses and buffers the BED text body (one or more
// newline-terminated records, no chromosome filtering required of the
// caller) for a single chromosome. Chromosomes must be added in ascending
// sort order; this is not re-validated here since the caller already
// guarantees it owns pre-sorted input.
func (sw *Writer) WriteChromosome(chrom string, body []byte, recordCount int) error {
	var buf bytes.Buffer
	enc, err := zstd.NewWriter(&buf)
	if err != nil {
		return errors.E(err, "starch: creating compressor")
	}
	if _, err := enc.Write(body); err != nil {
		return errors.E(err, "starch: compressing chromosome", chrom)
	}
	if err := enc.Close(); err != nil {
		return errors.E(err, "starch: closing compressor for", chrom)
	}
	sw.idx.Chromosomes = append(sw.idx.Chromosomes, chromEntry{
		Chrom:         chrom,
		CompressedLen: int64(buf.Len()),
		RecordCount:   recordCount,
	})
	sw.bodies = append(sw.bodies, &buf)
	return nil
}

// Close writes the archive's magic prefix, index, and compressed bodies, in
// that order, and flushes them to the underlying writer.
func (sw *Writer) Close() error {
	idxBytes, err := json.Marshal(sw.idx)
	if err != nil {
		return errors.E(err, "starch: encoding index")
	}
	if _, err := sw.w.Write(Magic); err != nil {
		return errors.E(err, "starch: writing magic prefix")
	}
	var lenBuf [8]byte
	binary.BigEndian.PutUint64(lenBuf[:], uint64(len(idxBytes)))
	if _, err := sw.w.Write(lenBuf[:]); err != nil {
		return errors.E(err, "starch: writing index length")
	}
	if _, err := sw.w.Write(idxBytes); err != nil {
		return errors.E(err, "starch: writing index")
	}
	for i, body := range sw.bodies {
		if _, err := sw.w.Write(body.Bytes()); err != nil {
			return errors.E(err, "starch: writing body for", sw.idx.Chromosomes[i].Chrom)
		}
	}
	return nil
}

// Reader decodes a Starch-style archive. It buffers each chromosome's
// compressed body in memory; callers needing gigabyte-scale archive support
// would back this with a seekable source and per-chromosome byte offsets
// instead, which this stand-in omits as out of scope (DESIGN.md).
type Reader struct {
	idx    index
	bodies map[string][]byte
}

// NewReader parses the archive framing from r (magic, index, and every
// chromosome's compressed body) but does not decompress any chromosome
// until Open or All is called.
func NewReader(r io.Reader) (*Reader, error) {
	br := bufio.NewReader(r)
	magic := make([]byte, len(Magic))
	if _, err := io.ReadFull(br, magic); err != nil {
		return nil, errors.E(err, "starch: reading magic prefix")
	}
	if !bytes.Equal(magic, Magic) {
		return nil, fmt.Errorf("starch: bad magic prefix")
	}
	var lenBuf [8]byte
	if _, err := io.ReadFull(br, lenBuf[:]); err != nil {
		return nil, errors.E(err, "starch: reading index length")
	}
	idxLen := binary.BigEndian.Uint64(lenBuf[:])
	idxBytes := make([]byte, idxLen)
	if _, err := io.ReadFull(br, idxBytes); err != nil {
		return nil, errors.E(err, "starch: reading index")
	}
	var idx index
	if err := json.Unmarshal(idxBytes, &idx); err != nil {
		return nil, fmt.Errorf("starch: corrupt index: %w", err)
	}
	bodies := make(map[string][]byte, len(idx.Chromosomes))
	for _, ce := range idx.Chromosomes {
		buf := make([]byte, ce.CompressedLen)
		if _, err := io.ReadFull(br, buf); err != nil {
			return nil, errors.E(err, "starch: reading body for", ce.Chrom)
		}
		bodies[ce.Chrom] = buf
	}
	return &Reader{idx: idx, bodies: bodies}, nil
}

// Chromosomes returns the archive's chromosomes, in the order they were
// written (the same order the underlying BED file was sorted in).
func (sr *Reader) Chromosomes() []string {
	names := make([]string, len(sr.idx.Chromosomes))
	for i, ce := range sr.idx.Chromosomes {
		names[i] = ce.Chrom
	}
	return names
}

// Open returns the decompressed BED body for a single chromosome. It
// implements the archive's own chromosome index that package interval's
// streaming reader delegates to when a chromosome filter is active.
func (sr *Reader) Open(chrom string) (io.ReadCloser, error) {
	compressed, ok := sr.bodies[chrom]
	if !ok {
		return ioutil.NopCloser(bytes.NewReader(nil)), nil
	}
	return sr.decompress(compressed)
}

// All returns the decompressed BED body of every chromosome in the
// archive, concatenated in their stored order.
func (sr *Reader) All() (io.ReadCloser, error) {
	var buf bytes.Buffer
	for _, ce := range sr.idx.Chromosomes {
		rc, err := sr.decompress(sr.bodies[ce.Chrom])
		if err != nil {
			return nil, err
		}
		if _, err := io.Copy(&buf, rc); err != nil {
			rc.Close()
			return nil, errors.E(err, "starch: decompressing", ce.Chrom)
		}
		rc.Close()
	}
	return ioutil.NopCloser(&buf), nil
}

func (sr *Reader) decompress(compressed []byte) (io.ReadCloser, error) {
	dec, err := zstd.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("starch: %w: %v", ErrCorrupt, err)
	}
	return readCloserFunc{Reader: dec, close: func() error { dec.Close(); return nil }}, nil
}

type readCloserFunc struct {
	io.Reader
	close func() error
}

func (r readCloserFunc) Close() error { return r.close() }

// ErrCorrupt is returned when archive framing parses but a chromosome body
// fails to decompress.
var ErrCorrupt = fmt.Errorf("starch: corrupt archive")
